//go:build integration

package steps

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"video-to-audio/cmd"
	"video-to-audio/infrastructure/config"

	"github.com/cucumber/godog"
)

type setupContext struct {
	tempDir         string
	configPath      string
	outputDir       string
	setupCancelled  bool
	originalContent string
	output          strings.Builder
	err             error
}

// SharedSetupContext is reset before each scenario via Before hook
var SharedSetupContext *setupContext

func getSetupContext() *setupContext {
	return SharedSetupContext
}

// MockPrompter implements cmd.Prompter for testing
type MockPrompter struct {
	inputResponses   []string
	selectResponses  []string
	confirmResponses []bool
}

func (m *MockPrompter) Input(message string, defaultValue string) (string, error) {
	if len(m.inputResponses) == 0 {
		if defaultValue != "" {
			return defaultValue, nil
		}
		return "", fmt.Errorf("no more input responses available for message: %s", message)
	}
	response := m.inputResponses[0]
	m.inputResponses = m.inputResponses[1:]
	return response, nil
}

func (m *MockPrompter) Select(message string, options []string, defaultValue string) (string, error) {
	if len(m.selectResponses) == 0 {
		return defaultValue, nil
	}
	response := m.selectResponses[0]
	m.selectResponses = m.selectResponses[1:]
	for _, o := range options {
		if o == response {
			return response, nil
		}
	}
	return "", fmt.Errorf("%q is not one of %v", response, options)
}

func (m *MockPrompter) Confirm(message string, defaultValue bool) (bool, error) {
	if len(m.confirmResponses) == 0 {
		return defaultValue, nil
	}
	response := m.confirmResponses[0]
	m.confirmResponses = m.confirmResponses[1:]
	return response, nil
}

func InitializeSetupScenario(ctx *godog.ScenarioContext) {
	ctx.Before(func(c context.Context, sc *godog.Scenario) (context.Context, error) {
		tempDir, err := os.MkdirTemp("", "setup-test-*")
		if err != nil {
			return c, err
		}
		SharedSetupContext = &setupContext{
			tempDir:    tempDir,
			configPath: filepath.Join(tempDir, "config", "config.yaml"),
		}
		return c, nil
	})

	ctx.After(func(c context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		if s := getSetupContext(); s != nil && s.tempDir != "" {
			os.RemoveAll(s.tempDir)
		}
		SharedSetupContext = nil
		return c, nil
	})

	ctx.Step(`^no config file exists for setup$`, noConfigFileExistsForSetup)
	ctx.Step(`^a config file already exists for setup$`, aConfigFileAlreadyExistsForSetup)
	ctx.Step(`^I run the setup command with inputs:$`, iRunTheSetupCommandWithInputs)
	ctx.Step(`^I run the setup command with confirmation "([^"]*)"$`, iRunTheSetupCommandWithConfirmation)
	ctx.Step(`^a config file should exist$`, aConfigFileShouldExist)
	ctx.Step(`^the saved config should have "([^"]*)" set to "([^"]*)"$`, theSavedConfigShouldHaveSetTo)
	ctx.Step(`^the output directory should have been created$`, theOutputDirectoryShouldHaveBeenCreated)
	ctx.Step(`^the setup should be cancelled$`, theSetupShouldBeCancelled)
	ctx.Step(`^the existing config should be unchanged$`, theExistingConfigShouldBeUnchanged)
}

func noConfigFileExistsForSetup() error {
	s := getSetupContext()
	if _, err := os.Stat(s.configPath); err == nil {
		return fmt.Errorf("config file unexpectedly exists at %s", s.configPath)
	}
	return nil
}

func aConfigFileAlreadyExistsForSetup() error {
	s := getSetupContext()
	if err := os.MkdirAll(filepath.Dir(s.configPath), 0755); err != nil {
		return err
	}

	content := `paths:
  output_directory: "/original/audio"
audio:
  format: "wav"
  bitrate: 128
`
	s.originalContent = content
	return os.WriteFile(s.configPath, []byte(content), 0644)
}

func iRunTheSetupCommandWithInputs(table *godog.Table) error {
	s := getSetupContext()
	prompter := s.parseInputTable(table)

	s.err = cmd.RunSetupWithPrompter(prompter, s.configPath, &s.output)
	if s.err != nil {
		return fmt.Errorf("setup command failed: %w", s.err)
	}
	return nil
}

func iRunTheSetupCommandWithConfirmation(confirmation string) error {
	s := getSetupContext()
	confirm := strings.ToLower(confirmation) == "y"
	prompter := &MockPrompter{confirmResponses: []bool{confirm}}

	s.err = cmd.RunSetupWithPrompter(prompter, s.configPath, &s.output)
	if !confirm && s.err == nil {
		s.setupCancelled = strings.Contains(s.output.String(), "Setup cancelled.")
	}
	return nil
}

// parseInputTable routes each row to the prompt kind setup asks with
func (s *setupContext) parseInputTable(table *godog.Table) *MockPrompter {
	prompter := &MockPrompter{}

	for i, row := range table.Rows {
		if i == 0 {
			continue // Skip header row
		}
		prompt := strings.ToLower(row.Cells[0].Value)
		value := strings.ReplaceAll(row.Cells[1].Value, "{tmp}", s.tempDir)

		switch prompt {
		case "create":
			prompter.confirmResponses = append(prompter.confirmResponses, strings.ToLower(value) == "y")
		case "format", "bitrate":
			prompter.selectResponses = append(prompter.selectResponses, value)
		default:
			if prompt == "output" {
				s.outputDir = value
			}
			prompter.inputResponses = append(prompter.inputResponses, value)
		}
	}

	return prompter
}

func aConfigFileShouldExist() error {
	s := getSetupContext()
	if _, err := os.Stat(s.configPath); os.IsNotExist(err) {
		return fmt.Errorf("config file does not exist at %s", s.configPath)
	}
	return nil
}

func theSavedConfigShouldHaveSetTo(key, expected string) error {
	cfg, err := config.Load(getSetupContext().configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	return expectConfigValue(cfg, key, expected)
}

func theOutputDirectoryShouldHaveBeenCreated() error {
	s := getSetupContext()
	info, err := os.Stat(s.outputDir)
	if err != nil {
		return fmt.Errorf("output directory was not created: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", s.outputDir)
	}
	return nil
}

func theSetupShouldBeCancelled() error {
	if !getSetupContext().setupCancelled {
		return fmt.Errorf("expected setup to be cancelled")
	}
	return nil
}

func theExistingConfigShouldBeUnchanged() error {
	s := getSetupContext()
	content, err := os.ReadFile(s.configPath)
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}
	if string(content) != s.originalContent {
		return fmt.Errorf("config content was changed")
	}
	return nil
}
