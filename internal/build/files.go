package build

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	siteerrors "github.com/conneroisu/sitekit/internal/errors"
)

// expand resolves patterns against root. Literal paths are kept as-is so that
// a missing file fails at read time; glob patterns may match nothing.
func expand(root string, patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string

	add := func(p string) {
		p = filepath.ToSlash(filepath.Clean(p))
		if !seen[p] {
			seen[p] = true
			files = append(files, p)
		}
	}

	fsys := os.DirFS(root)
	for _, pattern := range patterns {
		pattern = filepath.ToSlash(pattern)
		if !isGlob(pattern) {
			add(pattern)
			continue
		}

		if !doublestar.ValidatePattern(pattern) {
			return nil, siteerrors.WrapIO(doublestar.ErrBadPattern, siteerrors.CodeGlobFailed, "invalid file pattern", pattern)
		}
		matches, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, siteerrors.WrapIO(err, siteerrors.CodeGlobFailed, "failed to expand file pattern", pattern)
		}
		for _, m := range matches {
			add(m)
		}
	}

	return files, nil
}

func isGlob(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[{")
}

// copyFile copies src to dst byte-for-byte, creating parent directories.
func copyFile(src, dst string) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, siteerrors.WrapIO(err, siteerrors.CodeReadFailed, "failed to open file for copy", src)
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return 0, siteerrors.WrapIO(err, siteerrors.CodeMkdirFailed, "failed to create directory", filepath.Dir(dst))
	}

	out, err := os.Create(dst)
	if err != nil {
		return 0, siteerrors.WrapIO(err, siteerrors.CodeWriteFailed, "failed to create file", dst)
	}

	n, err := io.Copy(out, in)
	if err != nil {
		out.Close()
		return 0, siteerrors.WrapIO(err, siteerrors.CodeCopyFailed, "failed to copy file", dst)
	}
	if err := out.Close(); err != nil {
		return 0, siteerrors.WrapIO(err, siteerrors.CodeWriteFailed, "failed to flush file", dst)
	}
	return n, nil
}

// dirSize sums regular file sizes under root, skipping the exclude directory.
func dirSize(root, exclude string) (int64, error) {
	var excludeAbs string
	if exclude != "" {
		if abs, err := filepath.Abs(exclude); err == nil {
			excludeAbs = abs
		}
	}

	var total int64
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return siteerrors.WrapIO(err, siteerrors.CodeStatFailed, "failed to measure directory", path)
		}
		if d.IsDir() {
			if excludeAbs != "" && path != root {
				if abs, absErr := filepath.Abs(path); absErr == nil && abs == excludeAbs {
					return filepath.SkipDir
				}
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return siteerrors.WrapIO(err, siteerrors.CodeStatFailed, "failed to stat file", path)
		}
		total += info.Size()
		return nil
	})
	return total, err
}

// sameDir reports whether a and b name the same directory.
func sameDir(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}
