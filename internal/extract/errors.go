package extract

import (
	"errors"
	"fmt"

	"github.com/DeusData/codebase-symbols/internal/lang"
)

// ErrorKind classifies extraction failures.
type ErrorKind string

const (
	// UnsupportedLanguage means no pipeline is registered for the language.
	UnsupportedLanguage ErrorKind = "unsupported_language"
	// ParseFailure means the grammar produced no tree at all.
	ParseFailure ErrorKind = "parse_failure"
)

// Sentinels for errors.Is.
var (
	ErrUnsupportedLanguage = errors.New("unsupported language")
	ErrParseFailure        = errors.New("parse failure")
)

// Error is the only error type returned by Extract.
type Error struct {
	Kind     ErrorKind
	Language lang.Language
	Err      error
}

func (e *Error) Error() string {
	switch e.Kind {
	case UnsupportedLanguage:
		return fmt.Sprintf("extract: unsupported language %q", e.Language)
	default:
		if e.Err != nil {
			return fmt.Sprintf("extract %s: parse failure: %v", e.Language, e.Err)
		}
		return fmt.Sprintf("extract %s: parse failure", e.Language)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the kind sentinels.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrUnsupportedLanguage:
		return e.Kind == UnsupportedLanguage
	case ErrParseFailure:
		return e.Kind == ParseFailure
	}
	return false
}
