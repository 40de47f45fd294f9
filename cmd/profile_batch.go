package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/KaramelBytes/datalens-cli/internal/pipeline"
	"github.com/KaramelBytes/datalens-cli/internal/utils"
)

var (
	pbFormat     string
	pbOutputDir  string
	pbSampleSize int
	pbThreshold  float64
	pbPreview    int
	pbJobs       int
	pbQuiet      bool
)

type batchResult struct {
	path string
	out  *pipeline.Output
	err  error
}

var profileBatchCmd = &cobra.Command{
	Use:   "profile-batch <files...>",
	Short: "Profile several CSV/JSON files concurrently",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files := expandInputs(args)
		if len(files) == 0 {
			return fmt.Errorf("no input files matched")
		}
		format, preview, err := outputSettings(cmd, pbFormat, pbPreview)
		if err != nil {
			return err
		}
		jobs := pbJobs
		if jobs <= 0 {
			jobs = cfg.BatchJobs
		}
		opt, err := profileOptions(cmd, pbSampleSize, pbThreshold)
		if err != nil {
			return err
		}

		results := make([]batchResult, len(files))
		g, ctx := errgroup.WithContext(cmd.Context())
		g.SetLimit(jobs)
		for i, path := range files {
			g.Go(func() error {
				out, err := pipeline.ProfileFile(ctx, path, opt)
				results[i] = batchResult{path: path, out: out, err: err}
				if err != nil {
					log.Warn("profile failed", "file", path, "error", err)
				}
				return nil
			})
		}
		_ = g.Wait()

		dests := batchOutputPaths(pbOutputDir, files, format)
		w := cmd.OutOrStdout()
		failed := 0
		total := len(results)
		for i, res := range results {
			if !pbQuiet {
				fmt.Fprintf(cmd.ErrOrStderr(), "[%d/%d] %s\n", i+1, total, filepath.Base(res.path))
			}
			if res.err != nil {
				failed++
				fmt.Fprintf(cmd.ErrOrStderr(), "✗ %s: %v\n", res.path, res.err)
				continue
			}
			if !pbQuiet {
				fmt.Fprintf(cmd.ErrOrStderr(), "Processed %d rows from %s\n", res.out.Data.RowCount, res.out.Data.FileName)
			}
			b, err := encodeOutput(res.out, format, preview)
			if err != nil {
				return err
			}
			if pbOutputDir != "" {
				dest := dests[i]
				if err := utils.SafeWriteFile(dest, b); err != nil {
					return fmt.Errorf("write output: %w", err)
				}
				fmt.Fprintf(w, "✓ Wrote profile to %s\n", dest)
				continue
			}
			if format == "markdown" || format == "md" {
				fmt.Fprintf(w, "## %s\n\n", res.path)
			} else if format == "yaml" && i > 0 {
				fmt.Fprintln(w, "---")
			}
			if _, err := w.Write(b); err != nil {
				return err
			}
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d files failed", failed, total)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(profileBatchCmd)
	profileBatchCmd.Flags().StringVarP(&pbFormat, "format", "f", "", "output format: json | yaml | markdown (default from config)")
	profileBatchCmd.Flags().StringVar(&pbOutputDir, "output-dir", "", "write one profile per input into this directory")
	profileBatchCmd.Flags().IntVar(&pbSampleSize, "sample-size", 0, "rows used for classification and statistics (default from config)")
	profileBatchCmd.Flags().Float64Var(&pbThreshold, "threshold", 0, "share of sampled rows that must be numeric/date, in (0,1] (default from config)")
	profileBatchCmd.Flags().IntVar(&pbPreview, "preview", -1, "rows shown in the Markdown preview table (default from config)")
	profileBatchCmd.Flags().IntVarP(&pbJobs, "jobs", "j", 0, "files profiled in parallel (default from config)")
	profileBatchCmd.Flags().BoolVar(&pbQuiet, "quiet", false, "suppress progress output")
}

// expandInputs resolves globs and literal paths, dropping duplicates. The
// result is sorted so output order does not depend on scheduling.
func expandInputs(args []string) []string {
	var files []string
	seen := map[string]struct{}{}
	for _, arg := range args {
		matches, _ := filepath.Glob(arg)
		if len(matches) == 0 {
			// treat as literal path if exists
			if _, err := os.Stat(arg); err == nil {
				matches = []string{arg}
			}
		}
		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}
	sort.Strings(files)
	return files
}

// batchOutputPaths names the profile of each input inside dir. Names depend
// only on the input list, so a re-run overwrites its previous outputs. The
// first input with a given base name gets the plain name; later ones take
// their 1-based position as a suffix.
func batchOutputPaths(dir string, inputs []string, format string) []string {
	ext := map[string]string{"yaml": ".yaml", "markdown": ".md", "md": ".md"}[format]
	if ext == "" {
		ext = ".json"
	}
	taken := make(map[string]struct{}, len(inputs))
	out := make([]string, len(inputs))
	for i, input := range inputs {
		base := filepath.Base(input)
		base = strings.TrimSuffix(base, filepath.Ext(base))
		name := fmt.Sprintf("%s.profile%s", base, ext)
		if _, dup := taken[name]; dup {
			name = fmt.Sprintf("%s__%d.profile%s", base, i+1, ext)
		}
		taken[name] = struct{}{}
		out[i] = filepath.Join(dir, name)
	}
	return out
}
