package settings

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// Identifiers and project names are interpolated into dotted field paths
// of a schemaless document store. A stray operator sigil or path delimiter
// in either would let a caller address or overwrite an unrelated field,
// so both are validated before any storage call.

// ErrInvalidIdentifier marks a value rejected by the sanitizers.
var ErrInvalidIdentifier = errors.New("invalid identifier")

const (
	maxIdentifierLength  = 256
	maxProjectNameLength = 128
)

var (
	identifierAlphabet = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
	operatorPrefix     = regexp.MustCompile(`^\$\w+`)
)

// SanitizeSlackID validates a platform-assigned identifier (team or
// channel id) before it is used in a storage query or field path. role
// names the identifier in error messages. When allowEmpty is true an
// empty value passes through unchanged (no scope requested).
func SanitizeSlackID(value, role string, allowEmpty bool) (string, error) {
	if value == "" {
		if allowEmpty {
			return "", nil
		}
		return "", fmt.Errorf("%w: %s is required", ErrInvalidIdentifier, role)
	}

	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", fmt.Errorf("%w: %s is empty", ErrInvalidIdentifier, role)
	}
	if len(trimmed) > maxIdentifierLength {
		return "", fmt.Errorf("%w: %s exceeds %d characters", ErrInvalidIdentifier, role, maxIdentifierLength)
	}
	if strings.HasPrefix(trimmed, "$") || operatorPrefix.MatchString(trimmed) {
		return "", fmt.Errorf("%w: %s contains an operator prefix", ErrInvalidIdentifier, role)
	}
	if strings.ContainsAny(trimmed, "{}") {
		return "", fmt.Errorf("%w: %s contains object braces", ErrInvalidIdentifier, role)
	}
	if !identifierAlphabet.MatchString(trimmed) {
		return "", fmt.Errorf("%w: %s contains characters outside [A-Za-z0-9_-]", ErrInvalidIdentifier, role)
	}
	return trimmed, nil
}

// SanitizeProjectName validates a user-chosen project name. Names may
// contain spaces and most printable characters, but never a path
// delimiter or operator sigil because names become path segments under
// the projects field.
func SanitizeProjectName(value string) (string, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", fmt.Errorf("%w: project name is empty", ErrInvalidIdentifier)
	}
	if len(trimmed) > maxProjectNameLength {
		return "", fmt.Errorf("%w: project name exceeds %d characters", ErrInvalidIdentifier, maxProjectNameLength)
	}
	for _, r := range trimmed {
		switch {
		case r == '.':
			return "", fmt.Errorf("%w: project name must not contain dots", ErrInvalidIdentifier)
		case r == '$':
			return "", fmt.Errorf("%w: project name must not contain '$'", ErrInvalidIdentifier)
		case r == '{' || r == '}':
			return "", fmt.Errorf("%w: project name must not contain braces", ErrInvalidIdentifier)
		case !unicode.IsPrint(r):
			return "", fmt.Errorf("%w: project name contains a non-printable character", ErrInvalidIdentifier)
		}
	}
	return trimmed, nil
}
