// Package content checks user supplied post and comment bodies
package content

import (
	"strings"
	"unicode/utf8"

	"github.com/totegamma/mjtimeline/core"
)

// Normalize returns the value that is actually submitted to the ledger
func Normalize(raw string) string {
	return strings.TrimSpace(raw)
}

// Length counts code points of the normalized value
func Length(raw string) int {
	return utf8.RuneCountInString(Normalize(raw))
}

// Validate returns nil for acceptable content or a core.ErrorValidation
// naming the first rule that failed.
func Validate(raw string) error {
	trimmed := Normalize(raw)
	length := utf8.RuneCountInString(trimmed)

	if length == 0 {
		return core.NewErrorValidation(core.EmptyContent)
	}
	if length < core.MinContentLength {
		return core.NewErrorValidation(core.TooShort)
	}
	if length > core.MaxContentLength {
		return core.NewErrorValidation(core.TooLong)
	}

	return nil
}
