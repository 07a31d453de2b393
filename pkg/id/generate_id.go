package id

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var reID32 = regexp.MustCompile(`^[a-f0-9]{32}$`)

// NewID32 returns a random v4 uuid as 32 lowercase hex characters.
// Loan ids and owner ids share this format.
func NewID32() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// IsID32 reports whether s has the NewID32 shape. Upper case and dashed
// forms are rejected.
func IsID32(s string) bool { return reID32.MatchString(s) }
