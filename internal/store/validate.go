package store

import (
	"fmt"
	"strings"
)

const (
	// CodeAlphabet excludes ambiguous characters (0, O, 1, I, L).
	CodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	// CodeLength is the number of characters in a session code.
	CodeLength = 8
)

// ValidateSessionCode checks that a code issued by the gateway has the
// expected shape before it is persisted or rendered.
func ValidateSessionCode(code string) error {
	if len(code) != CodeLength {
		return fmt.Errorf("session code %q: %d chars (want %d)", code, len(code), CodeLength)
	}
	for _, r := range code {
		if !strings.ContainsRune(CodeAlphabet, r) {
			return fmt.Errorf("session code %q: invalid character %q", code, r)
		}
	}
	return nil
}
