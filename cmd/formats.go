package cmd

import (
	"fmt"
	"strings"

	"video-to-audio/domain/conversion"

	"github.com/spf13/cobra"
)

var formatsCmd = &cobra.Command{
	Use:   "formats",
	Short: "List supported output formats and bitrates",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return RunFormatsWithDependencies(cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(formatsCmd)
}

// RunFormatsWithDependencies prints the formats and bitrates convert accepts
func RunFormatsWithDependencies(out OutputWriter) error {
	var formats, bitrates []string
	for _, f := range conversion.SupportedFormats() {
		formats = append(formats, f.String())
	}
	for _, b := range conversion.SupportedBitrates() {
		bitrates = append(bitrates, fmt.Sprint(b.Kbps()))
	}

	fmt.Fprintf(out, "Formats:  %s (default %s)\n", strings.Join(formats, ", "), conversion.DefaultFormat)
	fmt.Fprintf(out, "Bitrates: %s kbps (default %d)\n", strings.Join(bitrates, ", "), conversion.DefaultBitrate.Kbps())
	return nil
}
