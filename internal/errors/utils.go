package errors

import (
	"errors"
)

// Wrap wraps an error with additional context, creating a SiteError if the input is not already one
func Wrap(err error, errType ErrorType, code, message string) *SiteError {
	if err == nil {
		return nil
	}

	// Keep the path of an inner SiteError so the outermost message still names the file
	var se *SiteError
	if errors.As(err, &se) {
		return &SiteError{
			Type:    errType,
			Code:    code,
			Message: message,
			Path:    se.Path,
			Cause:   se,
			Context: se.Context,
		}
	}

	return &SiteError{
		Type:    errType,
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// WrapIO wraps an error as an I/O error about path
func WrapIO(err error, code, message, path string) *SiteError {
	se := Wrap(err, ErrorTypeIO, code, message)
	if se != nil {
		se.Path = path
	}
	return se
}

// WrapConfig wraps an error as a configuration error
func WrapConfig(err error, code, message string) *SiteError {
	return Wrap(err, ErrorTypeConfig, code, message)
}

// WrapBuild wraps an error as a build error
func WrapBuild(err error, code, message string) *SiteError {
	return Wrap(err, ErrorTypeBuild, code, message)
}

// Join is errors.Join, re-exported so callers need only this package.
func Join(errs ...error) error {
	return errors.Join(errs...)
}

// As is errors.As.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// Is is errors.Is.
func Is(err, target error) bool {
	return errors.Is(err, target)
}
