package session

import (
	"fmt"
	"regexp"
	"strings"
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// UsernamePolicy bounds the accepted identity format.
type UsernamePolicy struct {
	MinLength int
	MaxLength int
}

// DefaultUsernamePolicy matches the server's default configuration.
var DefaultUsernamePolicy = UsernamePolicy{MinLength: 3, MaxLength: 20}

// Validate checks a username against the policy. Usernames are letters,
// digits, '_' and '-' only.
func (p UsernamePolicy) Validate(username string) error {
	if strings.TrimSpace(username) == "" {
		return fmt.Errorf("%w: username is required", ErrInvalidUsername)
	}
	if n := len(username); n < p.MinLength || n > p.MaxLength {
		return fmt.Errorf("%w: must be %d-%d characters", ErrInvalidUsername, p.MinLength, p.MaxLength)
	}
	if !usernamePattern.MatchString(username) {
		return fmt.Errorf("%w: only letters, digits, '_' and '-' are allowed", ErrInvalidUsername)
	}
	return nil
}
