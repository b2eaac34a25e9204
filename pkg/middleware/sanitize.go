package middleware

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/aretw0/pergola"
)

// DefaultMaxStringSize caps individual string arguments (4KB).
var DefaultMaxStringSize = 4096

var (
	ErrArgumentTooLarge = errors.New("argument exceeds maximum allowed size")
	ErrInvalidUTF8      = errors.New("argument contains invalid UTF-8 sequences")
)

// Sanitize rejects oversized or malformed string arguments and strips
// dangerous control characters from the rest before the handler sees them.
// This prevents log poisoning and terminal corruption from hostile input.
// maxSize <= 0 uses DefaultMaxStringSize.
func Sanitize(maxSize int) pergola.Middleware {
	if maxSize <= 0 {
		maxSize = DefaultMaxStringSize
	}

	return func(ctx context.Context, inv *pergola.Invocation, next pergola.Handler) (any, error) {
		for key, value := range inv.Args {
			s, ok := value.(string)
			if !ok {
				continue
			}
			clean, err := sanitizeString(s, maxSize)
			if err != nil {
				return nil, fmt.Errorf("argument %q: %w", key, err)
			}
			inv.Args[key] = clean
		}
		return next(ctx, inv)
	}
}

// sanitizeString enforces the size limit, validates UTF-8 and strips control
// characters except newline, tab and carriage return.
func sanitizeString(input string, limit int) (string, error) {
	// Reject rather than truncate to keep handler input deterministic.
	if len(input) > limit {
		return "", fmt.Errorf("%w: size=%d limit=%d", ErrArgumentTooLarge, len(input), limit)
	}

	if !utf8.ValidString(input) {
		return "", ErrInvalidUTF8
	}

	// Fast path: if no control chars, return as is.
	clean := true
	for _, r := range input {
		if unicode.IsControl(r) && !isSafeControl(r) {
			clean = false
			break
		}
	}
	if clean {
		return input, nil
	}

	var b strings.Builder
	b.Grow(len(input))
	for _, r := range input {
		if !unicode.IsControl(r) || isSafeControl(r) {
			b.WriteRune(r)
		}
	}
	return b.String(), nil
}

func isSafeControl(r rune) bool {
	return r == '\n' || r == '\t' || r == '\r'
}
