package errors

import (
	stderrors "errors"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSiteErrorError(t *testing.T) {
	tests := []struct {
		name     string
		err      *SiteError
		expected string
	}{
		{
			name:     "message only",
			err:      &SiteError{Message: "boom"},
			expected: "boom",
		},
		{
			name:     "code and path",
			err:      &SiteError{Code: CodeReadFailed, Path: "index.html", Message: "read failed"},
			expected: "[ERR_READ] index.html: read failed",
		},
		{
			name:     "with cause",
			err:      &SiteError{Code: CodeWriteFailed, Message: "write failed", Cause: fs.ErrPermission},
			expected: "[ERR_WRITE] write failed: permission denied",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestWrapIOPreservesCause(t *testing.T) {
	err := WrapIO(fs.ErrNotExist, CodeReadFailed, "failed to read source", "stylesheets/print.css")
	require.NotNil(t, err)

	assert.True(t, IsIOError(err))
	assert.False(t, IsConfigError(err))
	assert.True(t, stderrors.Is(err, fs.ErrNotExist))
	assert.Equal(t, "stylesheets/print.css", err.Path)
	assert.Equal(t, CodeReadFailed, Code(err))
}

func TestWrapNil(t *testing.T) {
	assert.Nil(t, Wrap(nil, ErrorTypeIO, CodeReadFailed, "x"))
	assert.Nil(t, WrapIO(nil, CodeReadFailed, "x", "y"))
}

func TestWrapKeepsInnerPath(t *testing.T) {
	inner := WrapIO(fs.ErrPermission, CodeWriteFailed, "failed to write", "dist/index.html")
	outer := WrapBuild(inner, "ERR_PIPELINE", "build aborted")

	assert.Equal(t, "dist/index.html", outer.Path)
	assert.True(t, stderrors.Is(outer, fs.ErrPermission))

	var se *SiteError
	require.True(t, As(outer, &se))
	assert.Equal(t, ErrorTypeBuild, se.Type)
}

func TestSiteErrorIs(t *testing.T) {
	a := NewConfigError(CodeInvalidConfig, "bad port")
	b := NewConfigError(CodeInvalidConfig, "other message")
	c := NewValidationError(CodeInvalidConfig, "bad port")

	assert.True(t, stderrors.Is(a, b))
	assert.False(t, stderrors.Is(a, c))
	assert.True(t, IsValidationError(c))
}

func TestWithContext(t *testing.T) {
	err := NewInternalError("ERR_X", "x", nil).WithContext("file", "a.css").WithPath("a.css")
	assert.Equal(t, "a.css", err.Context["file"])
	assert.Equal(t, "a.css", err.Path)
}
