// Package build implements the static-site asset pipeline: minify the
// configured scripts, stylesheets and pages into the output directory, copy
// images and auxiliary files verbatim, and report size savings.
//
// A run is all-or-nothing from the caller's point of view: the first I/O
// error aborts it and is returned. Files already written are left in place;
// re-running is idempotent.
package build

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/conneroisu/sitekit/internal/config"
	siteerrors "github.com/conneroisu/sitekit/internal/errors"
	"github.com/conneroisu/sitekit/internal/logging"
	"github.com/conneroisu/sitekit/internal/minify"
)

// Plan lists what a run reads and where it writes. File lists are paths or
// doublestar patterns relative to SourceDir.
type Plan struct {
	SourceDir   string
	OutputDir   string
	Scripts     []string
	Stylesheets []string
	Pages       []string
	ImagesDir   string
	ExtraFiles  []string
}

// PlanFromConfig converts the build section of the configuration.
func PlanFromConfig(cfg config.BuildConfig) Plan {
	return Plan{
		SourceDir:   cfg.SourceDir,
		OutputDir:   cfg.OutputDir,
		Scripts:     cfg.Scripts,
		Stylesheets: cfg.Stylesheets,
		Pages:       cfg.Pages,
		ImagesDir:   cfg.ImagesDir,
		ExtraFiles:  cfg.ExtraFiles,
	}
}

// Pipeline runs a Plan.
type Pipeline struct {
	plan     Plan
	minifier minify.Minifier
	workers  int
	logger   logging.Logger
	out      io.Writer
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithWorkers bounds how many files are transformed at once.
func WithWorkers(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.workers = n
		}
	}
}

// WithMinifier replaces the default minifier.
func WithMinifier(m minify.Minifier) Option {
	return func(p *Pipeline) {
		p.minifier = m
	}
}

// WithLogger sets the structured logger.
func WithLogger(l logging.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithOutput sets where the human-readable progress report is written.
func WithOutput(w io.Writer) Option {
	return func(p *Pipeline) {
		if w != nil {
			p.out = w
		}
	}
}

// NewPipeline creates a pipeline for plan.
func NewPipeline(plan Plan, opts ...Option) *Pipeline {
	p := &Pipeline{
		plan:    plan,
		workers: 1,
		logger:  logging.NewNopLogger(),
		out:     io.Discard,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.WithComponent("build")
	return p
}

// stage is one group of files sharing a transform.
type stage struct {
	title    string
	kind     minify.Kind
	patterns []string
}

// Run executes the plan. The returned report is nil when err is non-nil.
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	start := time.Now()
	op := logging.StartOperation(p.logger, "build")
	rep := newReporter(p.out)

	report, err := p.run(ctx, rep)
	if err != nil {
		op.EndWithError(ctx, err)
		return nil, err
	}

	report.Duration = time.Since(start)
	rep.summary(report, p.plan.OutputDir)
	op.End(ctx)
	return report, nil
}

func (p *Pipeline) run(ctx context.Context, rep *reporter) (*Report, error) {
	if sameDir(p.plan.SourceDir, p.plan.OutputDir) {
		return nil, siteerrors.NewValidationError(siteerrors.CodeInvalidConfig,
			"output directory must differ from source directory").WithPath(p.plan.OutputDir)
	}
	if err := os.MkdirAll(p.plan.OutputDir, 0o755); err != nil {
		return nil, siteerrors.WrapIO(err, siteerrors.CodeMkdirFailed, "failed to create output directory", p.plan.OutputDir)
	}

	rep.line("Building artifacts...")

	report := &Report{}
	stages := []struct {
		stage
		dst *[]FileResult
	}{
		{stage{"Minifying JavaScript...", minify.KindJS, p.plan.Scripts}, &report.Scripts},
		{stage{"Minifying CSS...", minify.KindCSS, p.plan.Stylesheets}, &report.Stylesheets},
		{stage{"Minifying HTML...", minify.KindHTML, p.plan.Pages}, &report.Pages},
	}

	for _, s := range stages {
		rep.heading(s.title)
		results, err := p.minifyStage(ctx, s.stage)
		if err != nil {
			return nil, err
		}
		for _, r := range results {
			rep.file(r)
		}
		*s.dst = results
	}

	rep.heading("Copying images...")
	images, err := p.copyImages(ctx)
	if err != nil {
		return nil, err
	}
	for _, c := range images {
		rep.image(c)
	}
	report.Images = images

	rep.heading("Copying other files...")
	extras, err := p.copyExtras(ctx)
	if err != nil {
		return nil, err
	}
	for _, c := range extras {
		rep.extra(c)
	}
	report.Extras = extras

	if report.SourceSize, err = dirSize(p.plan.SourceDir, p.plan.OutputDir); err != nil {
		return nil, err
	}
	if report.OutputSize, err = dirSize(p.plan.OutputDir, ""); err != nil {
		return nil, err
	}

	return report, nil
}

// minifyStage transforms every file of a stage, at most p.workers at a time.
// Results keep the order of the expanded file list.
func (p *Pipeline) minifyStage(ctx context.Context, s stage) ([]FileResult, error) {
	files, err := expand(p.plan.SourceDir, s.patterns)
	if err != nil {
		return nil, err
	}

	results := make([]FileResult, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)

	for i, rel := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := p.minifyFile(rel, s.kind)
			if err != nil {
				return err
			}
			results[i] = res
			p.logger.Debug(gctx, "Minified file",
				"path", rel,
				"kind", s.kind.String(),
				"original_bytes", res.OriginalSize,
				"minified_bytes", res.MinifiedSize,
			)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (p *Pipeline) minifyFile(rel string, kind minify.Kind) (FileResult, error) {
	src := filepath.Join(p.plan.SourceDir, filepath.FromSlash(rel))
	dst := filepath.Join(p.plan.OutputDir, filepath.FromSlash(rel))

	data, err := os.ReadFile(src)
	if err != nil {
		return FileResult{}, siteerrors.WrapIO(err, siteerrors.CodeReadFailed, "failed to read source file", src)
	}

	minified := p.minifier.Minify(kind, string(data))

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return FileResult{}, siteerrors.WrapIO(err, siteerrors.CodeMkdirFailed, "failed to create output directory", filepath.Dir(dst))
	}
	if err := os.WriteFile(dst, []byte(minified), 0o644); err != nil {
		return FileResult{}, siteerrors.WrapIO(err, siteerrors.CodeWriteFailed, "failed to write minified file", dst)
	}

	return FileResult{
		Path:         rel,
		Kind:         kind,
		OriginalSize: int64(len(data)),
		MinifiedSize: int64(len(minified)),
	}, nil
}

// copyImages mirrors every regular file under the images directory.
func (p *Pipeline) copyImages(ctx context.Context) ([]CopyResult, error) {
	if p.plan.ImagesDir == "" {
		return nil, nil
	}

	srcRoot := filepath.Join(p.plan.SourceDir, p.plan.ImagesDir)
	dstRoot := filepath.Join(p.plan.OutputDir, p.plan.ImagesDir)
	if err := os.MkdirAll(dstRoot, 0o755); err != nil {
		return nil, siteerrors.WrapIO(err, siteerrors.CodeMkdirFailed, "failed to create images directory", dstRoot)
	}

	var copied []CopyResult
	err := filepath.WalkDir(srcRoot, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return siteerrors.WrapIO(err, siteerrors.CodeReadFailed, "failed to read images directory", path)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(srcRoot, path)
		if err != nil {
			return siteerrors.NewInternalError(siteerrors.CodeCopyFailed, "failed to resolve image path", err)
		}

		size, err := copyFile(path, filepath.Join(dstRoot, rel))
		if err != nil {
			return err
		}
		copied = append(copied, CopyResult{Path: filepath.ToSlash(rel), Size: size})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return copied, nil
}

// copyExtras copies the auxiliary files that exist; missing ones are skipped.
func (p *Pipeline) copyExtras(ctx context.Context) ([]CopyResult, error) {
	var copied []CopyResult
	for _, rel := range p.plan.ExtraFiles {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		src := filepath.Join(p.plan.SourceDir, filepath.FromSlash(rel))
		if _, err := os.Stat(src); err != nil {
			if os.IsNotExist(err) {
				p.logger.Debug(ctx, "Skipping missing extra file", "path", rel)
				continue
			}
			return nil, siteerrors.WrapIO(err, siteerrors.CodeStatFailed, "failed to stat extra file", src)
		}

		size, err := copyFile(src, filepath.Join(p.plan.OutputDir, filepath.FromSlash(rel)))
		if err != nil {
			return nil, err
		}
		copied = append(copied, CopyResult{Path: rel, Size: size})
	}
	return copied, nil
}
