// Package validator checks a photo selection against configurable limits
// before anything is uploaded. Checks are fail-fast: the first violation
// wins, in a fixed order, and Validate has no side effects.
package validator

import (
	"fmt"
	"strings"

	"github.com/dmitrijs2005/photoform/internal/common"
	"github.com/dmitrijs2005/photoform/internal/models"
	playground "github.com/go-playground/validator/v10"
	"github.com/samber/lo"
)

const mib = 1024 * 1024

var validate = playground.New()

// Kind classifies a rejected selection.
type Kind string

const (
	TooManyFiles    Kind = "too_many_files"
	UnsupportedType Kind = "unsupported_type"
	FileTooLarge    Kind = "file_too_large"
)

// Constraints bounds what a selection may contain.
type Constraints struct {
	MaxCount            int      `validate:"gt=0"`
	MaxBytesPerFile     int64    `validate:"gt=0"`
	AllowedTypePrefixes []string `validate:"min=1,dive,required"`
}

// DefaultConstraints returns the lead form limits: 8 images of up to 10 MiB.
func DefaultConstraints() Constraints {
	return Constraints{
		MaxCount:            8,
		MaxBytesPerFile:     10 * mib,
		AllowedTypePrefixes: []string{"image/"},
	}
}

// Check reports whether the constraints themselves are usable.
func (c Constraints) Check() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid constraints: %w", err)
	}
	return nil
}

// ValidationError is a rejected selection. Message is meant for the user.
type ValidationError struct {
	Kind    Kind
	Message string
	// File is the offending file name; empty for TooManyFiles.
	File string
}

func (e *ValidationError) Error() string {
	if e.File == "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s (%s): %s", e.Kind, e.File, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return common.ErrValidation
}

// Validate returns nil when every file passes, or a *ValidationError for the
// first violation found:
//  1. more files than MaxCount
//  2. per file, in order: a type outside AllowedTypePrefixes, then a size above MaxBytesPerFile
func Validate(selection []models.File, c Constraints) error {
	if len(selection) > c.MaxCount {
		return &ValidationError{
			Kind:    TooManyFiles,
			Message: fmt.Sprintf("Please upload up to %d photos.", c.MaxCount),
		}
	}

	for _, f := range selection {
		if !typeAllowed(f.ContentType, c.AllowedTypePrefixes) {
			return &ValidationError{
				Kind:    UnsupportedType,
				Message: "Please upload images only (JPG/PNG/HEIC).",
				File:    f.Name,
			}
		}
		if f.Size > c.MaxBytesPerFile {
			return &ValidationError{
				Kind:    FileTooLarge,
				Message: fmt.Sprintf("One or more photos exceed %s. Please choose smaller files.", humanSize(c.MaxBytesPerFile)),
				File:    f.Name,
			}
		}
	}

	return nil
}

func typeAllowed(contentType string, prefixes []string) bool {
	return lo.SomeBy(prefixes, func(p string) bool {
		return strings.HasPrefix(contentType, p)
	})
}

func humanSize(n int64) string {
	if n >= mib && n%mib == 0 {
		return fmt.Sprintf("%dMB", n/mib)
	}
	if n >= mib {
		return fmt.Sprintf("%.1fMB", float64(n)/mib)
	}
	return fmt.Sprintf("%d bytes", n)
}
