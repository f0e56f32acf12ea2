package repair

import (
	"context"
	"fmt"
	"log/slog"
)

// Stage identifies how far a pipeline run got.
type Stage int

const (
	// StageNone means nothing was read.
	StageNone Stage = iota
	// StageLoaded means the file was read and decoded.
	StageLoaded
	// StageRewritten means the substitution table was applied.
	StageRewritten
	// StageWritten means the file was replaced on disk.
	StageWritten
)

func (s Stage) String() string {
	switch s {
	case StageNone:
		return "none"
	case StageLoaded:
		return "loaded"
	case StageRewritten:
		return "rewritten"
	case StageWritten:
		return "written"
	default:
		return fmt.Sprintf("Stage(%d)", int(s))
	}
}

// Hook runs after each stage completes. Returning an error aborts the run
// before the next stage starts.
type Hook func(stage Stage, doc *Document) error

// Options configures a Pipeline.
type Options struct {
	// DryRun stops after the rewrite and never touches the file.
	DryRun bool
	// Backup keeps a copy of the original bytes next to the file.
	Backup bool
	// Hook is called after every stage. Optional.
	Hook Hook
	// Logger receives progress records. Defaults to slog.Default().
	Logger *slog.Logger
}

// Result describes a finished run.
type Result struct {
	Path     string
	Encoding SourceEncoding
	HadBOM   bool
	Report   Report
	// Residuals lists mojibake-looking runs the table did not repair.
	Residuals []Residual
	// Stage is the last stage reached.
	Stage Stage
	// Written is true when the file on disk was replaced.
	Written    bool
	BackupPath string
}

// NeedsRepair reports whether writing would change the file.
func (r *Result) NeedsRepair() bool {
	return r.HadBOM || r.Report.Changed()
}

// Pipeline runs Loader, Rewriter and Writer in sequence against one file.
type Pipeline struct {
	loader   *Loader
	rewriter *Rewriter
	writer   *Writer
	opts     Options
	logger   *slog.Logger
}

// NewPipeline builds a pipeline over the default substitution table.
func NewPipeline(opts Options) *Pipeline {
	return NewPipelineWith(NewLoader(), DefaultRewriter(), NewWriter(WithBackup(opts.Backup)), opts)
}

// NewPipelineWith builds a pipeline from explicit stages.
func NewPipelineWith(loader *Loader, rewriter *Rewriter, writer *Writer, opts Options) *Pipeline {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		loader:   loader,
		rewriter: rewriter,
		writer:   writer,
		opts:     opts,
		logger:   logger,
	}
}

// Run loads, rewrites and writes path. A file that is already clean, with no
// byte-order mark and nothing to replace, is left untouched. On error the
// returned Result holds whatever was learned before the failure.
func (p *Pipeline) Run(ctx context.Context, path string) (*Result, error) {
	result := &Result{Path: path, Stage: StageNone}

	doc, err := p.loader.Load(ctx, path)
	if err != nil {
		return result, err
	}
	result.Stage = StageLoaded
	result.Encoding = doc.Encoding
	result.HadBOM = doc.HadBOM
	p.logger.Debug("Loaded file",
		"path", path,
		"encoding", doc.Encoding,
		"bom", doc.HadBOM,
		"bytes", doc.Size)
	if err := p.advance(ctx, StageLoaded, doc); err != nil {
		return result, err
	}

	text, report := p.rewriter.Rewrite(doc.Text)
	doc.Text = text
	result.Stage = StageRewritten
	result.Report = report
	result.Residuals = FindResiduals(text)
	for _, e := range report.Entries {
		p.logger.Debug("Applied substitution",
			"index", e.Index,
			"pattern", e.Pattern,
			"replacement", e.Replacement,
			"count", e.Count)
	}
	for _, r := range result.Residuals {
		p.logger.Warn("Unrepaired mojibake remains",
			"path", path,
			"line", r.Line,
			"text", r.Garbled,
			"likely", r.Suggested)
	}
	if err := p.advance(ctx, StageRewritten, doc); err != nil {
		return result, err
	}

	if p.opts.DryRun {
		p.logger.Info("Dry run: file not written",
			"path", path,
			"replacements", report.Total,
			"bom_stripped", doc.HadBOM)
		return result, nil
	}
	if !result.NeedsRepair() {
		p.logger.Info("File already clean", "path", path)
		return result, nil
	}

	backupPath, err := p.writer.Write(ctx, path, text)
	result.BackupPath = backupPath
	if err != nil {
		return result, err
	}
	result.Stage = StageWritten
	result.Written = true
	p.logger.Info("File repaired",
		"path", path,
		"replacements", report.Total,
		"bom_stripped", doc.HadBOM,
		"backup", backupPath)
	if err := p.advance(ctx, StageWritten, doc); err != nil {
		return result, err
	}
	return result, nil
}

func (p *Pipeline) advance(ctx context.Context, stage Stage, doc *Document) error {
	if p.opts.Hook != nil {
		if err := p.opts.Hook(stage, doc); err != nil {
			return fmt.Errorf("%w after stage %s: %w", ErrAborted, stage, err)
		}
	}
	if stage == StageWritten {
		return nil
	}
	return ctx.Err()
}
