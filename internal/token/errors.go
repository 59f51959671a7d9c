package token

import (
	"errors"
	"fmt"
)

// ErrorCode is the closed taxonomy of verification failures. Callers must
// branch on the code, never on the message text.
type ErrorCode string

const (
	CodeTokenExpired      ErrorCode = "token_expired"
	CodeInvalidSignature  ErrorCode = "invalid_signature"
	CodeMalformedToken    ErrorCode = "malformed_token"
	CodeMissingClaims     ErrorCode = "missing_claims"
	CodeInvalidIssuer     ErrorCode = "invalid_issuer"
	CodeAlgorithmMismatch ErrorCode = "algorithm_mismatch"
)

// ErrNoKeys indicates a call with an empty key list. This is a programmer
// error, not a verification outcome, so it is not part of the taxonomy.
var ErrNoKeys = errors.New("token: no verification keys provided")

// VerificationError wraps a verification failure with its taxonomy code.
// Cause keeps the lower-level failure for diagnostics.
type VerificationError struct {
	Code  ErrorCode
	Cause error
}

func (e *VerificationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("token verification failed: %s: %v", e.Code, e.Cause)
	}
	return fmt.Sprintf("token verification failed: %s", e.Code)
}

func (e *VerificationError) Unwrap() error {
	return e.Cause
}

func newVerificationError(code ErrorCode, cause error) *VerificationError {
	return &VerificationError{Code: code, Cause: cause}
}

// CodeOf extracts the taxonomy code from err, or "" if err is not a
// verification error.
func CodeOf(err error) ErrorCode {
	var verr *VerificationError
	if errors.As(err, &verr) {
		return verr.Code
	}
	return ""
}
