package LSABE

import (
	"github.com/AUKUS561/LSABEMA/LSSS"
	"github.com/AUKUS561/LSABEMA/SymEnc"
	"github.com/pkg/errors"
)

var (
	// ErrUnauthorized means the held attributes do not satisfy the ciphertext policy.
	ErrUnauthorized = LSSS.ErrUnsatisfied
	// ErrDecrypt is the opaque decrypt failure (wrong z, wrong N or a corrupted payload).
	ErrDecrypt = SymEnc.ErrDecrypt
	// ErrKeywords rejects an empty keyword list or one above capacity.
	ErrKeywords = errors.New("keyword count out of range")
)

// SetupError reports bad or missing global/authority material.
type SetupError struct {
	Artifact string
	Err      error
}

func (e *SetupError) Error() string {
	return "setup " + e.Artifact + ": " + e.Err.Error()
}

func (e *SetupError) Unwrap() error { return e.Err }

// LoadError reports a missing, truncated or malformed artifact.
type LoadError struct {
	Artifact string
	Err      error
}

func (e *LoadError) Error() string {
	return "load " + e.Artifact + ": " + e.Err.Error()
}

func (e *LoadError) Unwrap() error { return e.Err }

func setupErr(artifact string, format string, args ...interface{}) error {
	return &SetupError{Artifact: artifact, Err: errors.Errorf(format, args...)}
}

func loadErr(artifact string, err error) error {
	if err == nil {
		return nil
	}
	return &LoadError{Artifact: artifact, Err: err}
}

// Relabel names the file an artifact was read from.
func Relabel(err error, artifact string) error {
	var le *LoadError
	if errors.As(err, &le) {
		return &LoadError{Artifact: artifact, Err: le.Err}
	}
	if err == nil {
		return nil
	}
	return &LoadError{Artifact: artifact, Err: err}
}
