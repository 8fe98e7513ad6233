package credential

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	Separator = ":"

	MaxSSIDLength     = 32
	MinPasswordLength = 8
	MaxPasswordLength = 63

	forbiddenSSIDChars = `\/:*?"<>|`
)

var (
	ErrSSIDEmpty       = errors.New("ssid is empty")
	ErrSSIDTooLong     = errors.New("ssid longer than 32 characters")
	ErrSSIDCharacters  = errors.New("ssid contains a forbidden character")
	ErrPasswordLength  = errors.New("password must be 8 to 63 characters")
	ErrMalformedRecord = errors.New("malformed credential record")
)

// Credential is one recovered network. It is never mutated after parsing.
type Credential struct {
	SSID     string
	Password string
}

// Canonical returns the "ssid:password" form used for storage and dedup.
func (c Credential) Canonical() string {
	return c.SSID + Separator + c.Password
}

// Validate checks the WPA2 pre-shared-key constraints.
func (c Credential) Validate() error {
	if c.SSID == "" {
		return ErrSSIDEmpty
	}
	if utf8.RuneCountInString(c.SSID) > MaxSSIDLength {
		return ErrSSIDTooLong
	}
	if strings.ContainsAny(c.SSID, forbiddenSSIDChars) {
		return ErrSSIDCharacters
	}
	n := utf8.RuneCountInString(c.Password)
	if n < MinPasswordLength || n > MaxPasswordLength {
		return ErrPasswordLength
	}
	return nil
}

// ParseError reports a line of the local list that is not "ssid:password".
type ParseError struct {
	Line int
	Text string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: expected ssid:password, got %q", e.Line, e.Text)
}

func (e *ParseError) Unwrap() error {
	return ErrMalformedRecord
}

// ParseCanonical splits a canonical form back into its credential. The form
// must contain exactly one separator.
func ParseCanonical(s string) (Credential, error) {
	parts := strings.Split(s, Separator)
	if len(parts) != 2 {
		return Credential{}, fmt.Errorf("%w: %q", ErrMalformedRecord, s)
	}
	return Credential{SSID: parts[0], Password: parts[1]}, nil
}
