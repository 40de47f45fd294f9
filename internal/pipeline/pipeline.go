package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/KaramelBytes/datalens-cli/internal/analysis"
	"github.com/KaramelBytes/datalens-cli/internal/charts"
	"github.com/KaramelBytes/datalens-cli/internal/parser"
)

// Input is a named blob of tabular content. The name selects the format.
type Input struct {
	Name    string
	Content []byte
}

// Options tunes a profiling run.
type Options struct {
	Analysis analysis.Options
	// MaxBytes caps input read through ProfileReader; <= 0 disables the limit.
	MaxBytes int64
}

// DefaultOptions returns the standard analysis settings with no size limit.
func DefaultOptions() Options {
	return Options{Analysis: analysis.DefaultOptions()}
}

// Output is everything derived from one dataset.
type Output struct {
	RunID       string                `json:"runId" yaml:"run_id"`
	GeneratedAt time.Time             `json:"generatedAt" yaml:"generated_at"`
	Data        *parser.ParsedData    `json:"data" yaml:"data"`
	Summary     *analysis.DataSummary `json:"summary" yaml:"summary"`
	Charts      []charts.ChartSpec    `json:"charts" yaml:"charts"`
}

// Profile parses in, classifies and summarizes its columns and selects charts.
// Parse failures are returned unchanged so callers can match them with
// errors.Is/As. Cancellation is observed between stages.
func Profile(ctx context.Context, in Input, opt Options) (*Output, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := parser.Parse(in.Name, in.Content)
	if err != nil {
		return nil, err
	}
	return derive(ctx, data, opt)
}

// ProfileReader is Profile for streamed content, enforcing opt.MaxBytes.
func ProfileReader(ctx context.Context, name string, r io.Reader, opt Options) (*Output, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := parser.ParseReader(name, r, opt.MaxBytes)
	if err != nil {
		return nil, err
	}
	return derive(ctx, data, opt)
}

// ProfileFile profiles the file at path. Unsupported extensions fail before
// the file is opened.
func ProfileFile(ctx context.Context, path string, opt Options) (*Output, error) {
	if err := parser.CheckFormat(path); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	defer f.Close()
	return ProfileReader(ctx, filepath.Base(path), f, opt)
}

func derive(ctx context.Context, data *parser.ParsedData, opt Options) (*Output, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	summary := analysis.Summarize(data, opt.Analysis)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &Output{
		RunID:       uuid.NewString(),
		GeneratedAt: time.Now().UTC(),
		Data:        data,
		Summary:     summary,
		Charts:      charts.Select(data, summary),
	}, nil
}

// Markdown renders the profile followed by the selected charts.
func (o *Output) Markdown(previewRows int) string {
	var b strings.Builder
	b.WriteString(o.Summary.Markdown(o.Data, previewRows))
	b.WriteString("\n[CHARTS]\n")
	if len(o.Charts) == 0 {
		b.WriteString("(none)\n")
		return b.String()
	}
	for _, c := range o.Charts {
		b.WriteString(fmt.Sprintf("- %s [%s]: %s (%d points)\n", c.ID, c.Type, c.Title, c.Data.Len()))
	}
	return b.String()
}
