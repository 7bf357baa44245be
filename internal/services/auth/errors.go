// File: internal/services/auth/errors.go
package auth

import (
	"errors"

	"github.com/kailassh/refine-chat/internal/services/identity"
)

// ErrMissingPendingEmail is returned by VerifyOtp and ResendOtp when no
// code was requested first. The identity provider is never called in that
// case.
var ErrMissingPendingEmail = errors.New("no pending email, request a code first")

// CodeMissingPendingEmail is the machine-readable code shown for
// ErrMissingPendingEmail.
const CodeMissingPendingEmail = "missing-pending-email"

// errorView turns any failure into its displayable form. Typed identity
// errors keep their stable code, everything else reports as a generic
// verification failure.
func errorView(err error) *ErrorView {
	if errors.Is(err, ErrMissingPendingEmail) {
		return &ErrorView{Message: err.Error(), Code: CodeMissingPendingEmail}
	}
	if authErr, ok := identity.AsAuthError(err); ok {
		return &ErrorView{Message: authErr.Message, Code: string(authErr.Type)}
	}
	return &ErrorView{Message: err.Error(), Code: string(identity.CodeOf(err))}
}
