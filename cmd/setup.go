package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"video-to-audio/domain/conversion"
	"video-to-audio/infrastructure/config"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"
)

// Prompter interface for interactive prompts (allows mocking in tests)
type Prompter interface {
	Input(message string, defaultValue string) (string, error)
	Select(message string, options []string, defaultValue string) (string, error)
	Confirm(message string, defaultValue bool) (bool, error)
}

// SurveyPrompter implements Prompter using the survey library
type SurveyPrompter struct{}

func (p *SurveyPrompter) Input(message string, defaultValue string) (string, error) {
	result := ""
	prompt := &survey.Input{
		Message: message,
		Default: defaultValue,
	}
	if err := survey.AskOne(prompt, &result); err != nil {
		return "", err
	}
	return result, nil
}

func (p *SurveyPrompter) Select(message string, options []string, defaultValue string) (string, error) {
	result := ""
	prompt := &survey.Select{
		Message: message,
		Options: options,
		Default: defaultValue,
	}
	if err := survey.AskOne(prompt, &result); err != nil {
		return "", err
	}
	return result, nil
}

func (p *SurveyPrompter) Confirm(message string, defaultValue bool) (bool, error) {
	result := defaultValue
	prompt := &survey.Confirm{
		Message: message,
		Default: defaultValue,
	}
	if err := survey.AskOne(prompt, &result); err != nil {
		return false, err
	}
	return result, nil
}

// DefaultPrompter is the prompter used in production
var DefaultPrompter Prompter = &SurveyPrompter{}

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Create configuration file interactively",
	Long: `Prompts for configuration values and creates config.yaml.

This command asks for the default output folder, audio format and bitrate,
the ffmpeg executable and logging preferences.`,
	RunE: runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(cmd *cobra.Command, args []string) error {
	path := cfgFile
	if path == "" {
		path = config.DefaultPath
	}
	return RunSetupWithPrompter(DefaultPrompter, path, os.Stdout)
}

// RunSetupWithPrompter runs the setup with a given prompter (for testing)
func RunSetupWithPrompter(prompter Prompter, configPath string, out io.Writer) error {
	// Check if config already exists
	if _, err := os.Stat(configPath); err == nil {
		overwrite, err := prompter.Confirm("config.yaml already exists. Overwrite?", false)
		if err != nil {
			return fmt.Errorf("prompt cancelled")
		}
		if !overwrite {
			fmt.Fprintln(out, "Setup cancelled.")
			return nil
		}
	}

	fmt.Fprintln(out, "Welcome to video-to-audio setup!")
	fmt.Fprintln(out)

	cfg := config.Default()

	if err := promptPaths(prompter, cfg); err != nil {
		return err
	}

	if err := promptAudio(prompter, cfg); err != nil {
		return err
	}

	if err := promptTools(prompter, cfg); err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// Ensure config directory exists
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Save configuration
	if err := config.Save(cfg, configPath); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Configuration saved to %s\n", configPath)
	return nil
}

func promptPaths(prompter Prompter, cfg *config.Config) error {
	output, err := prompter.Input("Where should audio files go?", "")
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	if output == "" {
		return fmt.Errorf("output directory is required")
	}
	cfg.Paths.OutputDirectory = output

	if _, err := os.Stat(output); os.IsNotExist(err) {
		create, err := prompter.Confirm(fmt.Sprintf("%s does not exist. Create it?", output), true)
		if err != nil {
			return fmt.Errorf("prompt cancelled")
		}
		if create {
			if err := os.MkdirAll(output, 0755); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}
	}

	return nil
}

func promptAudio(prompter Prompter, cfg *config.Config) error {
	var formats []string
	for _, f := range conversion.SupportedFormats() {
		formats = append(formats, f.String())
	}
	format, err := prompter.Select("Default audio format?", formats, string(conversion.DefaultFormat))
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	cfg.Audio.Format = format

	var bitrates []string
	for _, b := range conversion.SupportedBitrates() {
		bitrates = append(bitrates, strconv.Itoa(b.Kbps()))
	}
	bitrate, err := prompter.Select("Default bitrate (kbps)?", bitrates, strconv.Itoa(conversion.DefaultBitrate.Kbps()))
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	b, err := conversion.ParseBitrate(bitrate)
	if err != nil {
		return err
	}
	cfg.Audio.Bitrate = b.Kbps()

	return nil
}

func promptTools(prompter Prompter, cfg *config.Config) error {
	ffmpegPath, err := prompter.Input("Path to ffmpeg?", cfg.FFmpeg.Path)
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	if ffmpegPath != "" {
		cfg.FFmpeg.Path = ffmpegPath
	}

	logFile, err := prompter.Input("Log file (leave empty to disable)?", "")
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	cfg.Logging.File = logFile

	return nil
}
