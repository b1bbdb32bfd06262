package domain

import "errors"

// Common domain errors
var (
	ErrNotFound           = errors.New("resource not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInternalServer     = errors.New("internal server error")
	ErrDuplicateEntry     = errors.New("duplicate entry")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenInvalid       = errors.New("token invalid")
	ErrTokenRevoked       = errors.New("token revoked")
)

// Activation errors
var (
	ErrCodeNotFound               = errors.New("affiliate code not found")
	ErrCodeNotEligible            = errors.New("affiliate code has no confirmed sale")
	ErrCodeAlreadyActive          = errors.New("affiliate code already active")
	ErrOwnershipMismatch          = errors.New("id number does not own the code")
	ErrIdentityProvisioningFailed = errors.New("identity provisioning failed")
	ErrLinkageFailed              = errors.New("user account linkage failed")
	ErrActivationCommitFailed     = errors.New("affiliate activation commit failed")
)

// Identity provider errors
var (
	ErrIdentityAlreadyExists = errors.New("identity already registered")
	ErrIdentityNotFound      = errors.New("identity not found")
)

// Withdrawal errors
var (
	ErrWithdrawalRejected = errors.New("withdrawal rejected")
)

// IsCodeRejection reports whether err is one of the code resolution failures.
// They share a single user-facing message.
func IsCodeRejection(err error) bool {
	return errors.Is(err, ErrCodeNotFound) ||
		errors.Is(err, ErrCodeNotEligible) ||
		errors.Is(err, ErrCodeAlreadyActive)
}

// FailureKind names the failure for logs and diagnostics
func FailureKind(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrCodeNotFound):
		return "code_not_found"
	case errors.Is(err, ErrCodeNotEligible):
		return "code_not_eligible"
	case errors.Is(err, ErrCodeAlreadyActive):
		return "code_already_active"
	case errors.Is(err, ErrOwnershipMismatch):
		return "ownership_mismatch"
	case errors.Is(err, ErrIdentityProvisioningFailed):
		return "identity_provisioning_failed"
	case errors.Is(err, ErrLinkageFailed):
		return "linkage_failed"
	case errors.Is(err, ErrActivationCommitFailed):
		return "activation_commit_failed"
	default:
		return "internal"
	}
}
