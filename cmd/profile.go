package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/datalens-cli/internal/pipeline"
	"github.com/KaramelBytes/datalens-cli/internal/utils"
)

var (
	profFormat     string
	profOutputPath string
	profSampleSize int
	profThreshold  float64
	profPreview    int
)

var profileCmd = &cobra.Command{
	Use:   "profile <file>",
	Short: "Profile a CSV/JSON dataset and select charts for it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		format, preview, err := outputSettings(cmd, profFormat, profPreview)
		if err != nil {
			return err
		}
		opt, err := profileOptions(cmd, profSampleSize, profThreshold)
		if err != nil {
			return err
		}

		out, err := pipeline.ProfileFile(cmd.Context(), path, opt)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Processed %d rows from %s\n", out.Data.RowCount, out.Data.FileName)
		log.Debug("profiled", "file", path, "run_id", out.RunID, "charts", len(out.Charts))

		b, err := encodeOutput(out, format, preview)
		if err != nil {
			return err
		}
		if profOutputPath != "" {
			if err := utils.SafeWriteFile(profOutputPath, b); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote profile to %s\n", profOutputPath)
			return nil
		}
		_, err = cmd.OutOrStdout().Write(b)
		return err
	},
}

func init() {
	rootCmd.AddCommand(profileCmd)
	profileCmd.Flags().StringVarP(&profFormat, "format", "f", "", "output format: json | yaml | markdown (default from config)")
	profileCmd.Flags().StringVarP(&profOutputPath, "output", "o", "", "optional path to write the profile")
	profileCmd.Flags().IntVar(&profSampleSize, "sample-size", 0, "rows used for classification and statistics (default from config)")
	profileCmd.Flags().Float64Var(&profThreshold, "threshold", 0, "share of sampled rows that must be numeric/date, in (0,1] (default from config)")
	profileCmd.Flags().IntVar(&profPreview, "preview", -1, "rows shown in the Markdown preview table (default from config)")
}

// outputSettings resolves format and preview rows from flags, falling back to config.
func outputSettings(cmd *cobra.Command, format string, preview int) (string, int, error) {
	if format == "" {
		format = cfg.OutputFormat
	}
	format = strings.ToLower(format)
	switch format {
	case "json", "yaml", "markdown", "md":
	default:
		return "", 0, fmt.Errorf("unsupported --format: %s (use json, yaml or markdown)", format)
	}
	if !cmd.Flags().Changed("preview") || preview < 0 {
		preview = cfg.PreviewRows
	}
	return format, preview, nil
}

func encodeOutput(out *pipeline.Output, format string, preview int) ([]byte, error) {
	switch format {
	case "yaml":
		return utils.PrettyYAML(out)
	case "markdown", "md":
		return []byte(out.Markdown(preview)), nil
	default:
		b, err := utils.PrettyJSON(out)
		if err != nil {
			return nil, err
		}
		return append(b, '\n'), nil
	}
}
