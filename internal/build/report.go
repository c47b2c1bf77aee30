package build

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/conneroisu/sitekit/internal/minify"
)

// FileResult records one minified file.
type FileResult struct {
	Path         string
	Kind         minify.Kind
	OriginalSize int64
	MinifiedSize int64
}

// Reduction is the percentage of bytes saved, 0 for empty inputs.
func (r FileResult) Reduction() float64 {
	return reduction(r.OriginalSize, r.MinifiedSize)
}

// CopyResult records one verbatim copy.
type CopyResult struct {
	Path string
	Size int64
}

// Report is the outcome of a successful run.
type Report struct {
	Scripts     []FileResult
	Stylesheets []FileResult
	Pages       []FileResult
	Images      []CopyResult
	Extras      []CopyResult
	SourceSize  int64
	OutputSize  int64
	Duration    time.Duration
}

// Minified returns every minified file in stage order.
func (r *Report) Minified() []FileResult {
	all := make([]FileResult, 0, len(r.Scripts)+len(r.Stylesheets)+len(r.Pages))
	all = append(all, r.Scripts...)
	all = append(all, r.Stylesheets...)
	all = append(all, r.Pages...)
	return all
}

// Reduction is the percentage by which the output is smaller than the source tree.
func (r *Report) Reduction() float64 {
	return reduction(r.SourceSize, r.OutputSize)
}

func reduction(before, after int64) float64 {
	if before <= 0 {
		return 0
	}
	return (1 - float64(after)/float64(before)) * 100
}

// reporter prints the human-readable build progress and summary.
type reporter struct {
	w io.Writer
}

func newReporter(w io.Writer) *reporter {
	return &reporter{w: w}
}

func (r *reporter) line(format string, args ...interface{}) {
	fmt.Fprintf(r.w, format+"\n", args...)
}

func (r *reporter) heading(title string) {
	r.line("\n%s", title)
}

func (r *reporter) file(res FileResult) {
	r.line("  ✓ %s: %d → %d bytes (%.1f%% reduction)", res.Path, res.OriginalSize, res.MinifiedSize, res.Reduction())
}

func (r *reporter) image(c CopyResult) {
	r.line("  ✓ %s: %d bytes", c.Path, c.Size)
}

func (r *reporter) extra(c CopyResult) {
	r.line("  ✓ %s", c.Path)
}

func (r *reporter) summary(rep *Report, outputDir string) {
	rule := strings.Repeat("=", 50)
	r.line("\n%s", rule)
	r.line("Build Summary")
	r.line("%s", rule)
	r.line("Source size: %.2f KB", float64(rep.SourceSize)/1024)
	r.line("Dist size:   %.2f KB", float64(rep.OutputSize)/1024)
	r.line("Reduction:   %.1f%%", rep.Reduction())
	r.line("\n✓ Build complete! Artifacts in %s", displayDir(outputDir))
}

func displayDir(dir string) string {
	dir = filepath.ToSlash(filepath.Clean(dir))
	if !filepath.IsAbs(dir) && !strings.HasPrefix(dir, ".") {
		dir = "./" + dir
	}
	return strings.TrimSuffix(dir, "/") + "/"
}
