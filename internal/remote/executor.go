// Package remote runs the two account operations pwrotate needs on a target
// host: checking that a user exists and setting its password.
package remote

import (
	"context"
	"fmt"
	"regexp"

	"github.com/aryankumar/pwrotate/internal/util"
)

// Status is the tri-state result of a remote operation
type Status int

const (
	// StatusError means the operation could not be carried out (transport
	// failure, timeout, non-zero exit of the password utility)
	StatusError Status = iota

	// StatusOK means the operation succeeded
	StatusOK

	// StatusNotFound means the host answered and the user does not exist
	StatusNotFound
)

// String returns the lower-case name of the status
func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusNotFound:
		return "not-found"
	default:
		return "error"
	}
}

// Executor is the capability the rotation engine needs from a host.
// Implementations must be safe for concurrent use.
type Executor interface {
	// CheckUserExists reports whether user exists on host
	CheckUserExists(ctx context.Context, host, user string) (Status, error)

	// SetPassword sets the password of user on host
	SetPassword(ctx context.Context, host, user, password string) (Status, error)
}

// POSIX portable account names, plus the trailing '$' used by Samba machine accounts
var usernamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.-]{0,31}\$?$`)

// ValidateUsername rejects names that could change the meaning of a remote
// command line
func ValidateUsername(user string) error {
	if !usernamePattern.MatchString(user) {
		return fmt.Errorf("%w: %q", util.ErrInvalidUsername, user)
	}
	return nil
}
