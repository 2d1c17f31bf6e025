package api

import "github.com/kindify/kindify-gateway/internal/domain"

// GenericFailureMessage is used when the upstream fails without giving a
// human-readable reason (transport fault, malformed body).
const GenericFailureMessage = "Something went wrong. Please try again."

// Result is the tagged envelope every upstream operation resolves to.
// Expected failures carry Success=false plus the server's message; transport
// faults are returned as Go errors and normalized to this shape at the call
// boundary so callers only ever branch on one failure channel.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// Failure builds a failure envelope with a fallback message.
func Failure(message string) Result {
	if message == "" {
		message = GenericFailureMessage
	}
	return Result{Success: false, Message: message}
}

// Normalize collapses the (result, transport error) pair into a single
// envelope. A transport fault becomes a generic failure.
func Normalize(res Result, err error) Result {
	if err != nil {
		return Failure(GenericFailureMessage)
	}
	return res
}

type LoginResult struct {
	Result
	Token string `json:"token,omitempty"`
}

type ProfileResult struct {
	Result
	User *domain.User `json:"user,omitempty"`
}

type FilterNGOsResult struct {
	Result
	Data []domain.NGO `json:"data,omitempty"`
}

type ResetPasswordRequest struct {
	Email       string `json:"email"`
	Code        string `json:"code"`
	NewPassword string `json:"new_password,omitempty"`
	Role        string `json:"role"`
}
