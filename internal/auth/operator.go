package auth

import (
	"crypto/subtle"

	"github.com/nerrad567/headunit-core/internal/infrastructure/config"
)

// Operator is the single account allowed to control the head unit over
// HTTP.
type Operator struct {
	username     string
	passwordHash string
}

// NewOperator reads the operator account from config.
func NewOperator(cfg config.OperatorConfig) *Operator {
	return &Operator{username: cfg.Username, passwordHash: cfg.PasswordHash}
}

// Username returns the configured login name.
func (o *Operator) Username() string { return o.username }

// Authenticate checks a login attempt. The password is verified even for
// an unknown username so both failures take the same time.
//
// Returns:
//   - error: ErrOperatorNotConfigured, ErrInvalidCredentials or a hash
//     format error
func (o *Operator) Authenticate(username, password string) error {
	if o.passwordHash == "" {
		return ErrOperatorNotConfigured
	}
	match, err := VerifyPassword(password, o.passwordHash)
	if err != nil {
		return err
	}
	nameOK := subtle.ConstantTimeCompare([]byte(username), []byte(o.username)) == 1
	if !nameOK || !match {
		return ErrInvalidCredentials
	}
	return nil
}
