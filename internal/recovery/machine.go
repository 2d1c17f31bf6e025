// Package recovery drives the forgot-password flow: email verification via a
// one-time code, then password reset.
package recovery

import (
	"context"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/kindify/kindify-gateway/internal/api"
)

type Stage string

const (
	StageCredentials Stage = "credentials"
	StageOTP         Stage = "otp"
	StageDone        Stage = "done"
)

// CodeLength is fixed at submission time; shorter or longer input is
// rejected before any network call.
const CodeLength = 6

// Service is the slice of the upstream client the machine needs.
type Service interface {
	ForgotPassword(ctx context.Context, email, role string) (api.Result, error)
	ResetPassword(ctx context.Context, req api.ResetPasswordRequest) (api.Result, error)
}

// Limits bounds resubmission. The flow allows re-requesting codes and
// re-entering them, but not indefinitely.
type Limits struct {
	CodeSends      int           // max code sends per window
	CodeSendWindow time.Duration // sliding refill window for code sends
	VerifyAttempts int           // max verify attempts per issued code
}

func DefaultLimits() Limits {
	return Limits{
		CodeSends:      5,
		CodeSendWindow: 15 * time.Minute,
		VerifyAttempts: 10,
	}
}

// Outcome is the tagged result of a submission. Failed submissions leave the
// stage untouched.
type Outcome struct {
	OK      bool
	Message string
	Stage   Stage
}

// Machine is one browser session's recovery flow. The lock is held across
// the upstream call: a session submits one recovery request at a time.
type Machine struct {
	mu          sync.Mutex
	svc         Service
	stage       Stage
	email       string
	role        string
	lastErr     string
	sends       *rate.Limiter
	attempts    int
	maxAttempts int
}

func NewMachine(svc Service, limits Limits) *Machine {
	// A zero window would make the limiter infinite; treat any
	// incomplete bound as unset.
	if limits.CodeSends <= 0 || limits.CodeSendWindow <= 0 || limits.VerifyAttempts <= 0 {
		limits = DefaultLimits()
	}
	every := limits.CodeSendWindow / time.Duration(limits.CodeSends)
	return &Machine{
		svc:         svc,
		stage:       StageCredentials,
		sends:       rate.NewLimiter(rate.Every(every), limits.CodeSends),
		maxAttempts: limits.VerifyAttempts,
	}
}

// RequestCode submits the forgot-password request for the role whose login
// form the user is on. On success the machine moves to the OTP stage; on any
// failure it stays put and surfaces the message. Re-requesting while already
// at the OTP stage simply sends a fresh code.
func (m *Machine) RequestCode(ctx context.Context, email, role string) Outcome {
	m.mu.Lock()
	defer m.mu.Unlock()

	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return m.fail("Please enter your email to reset your password.")
	}
	if m.stage == StageDone {
		return m.fail("Password reset already completed. Please sign in.")
	}
	if !m.sends.Allow() {
		return m.fail("Too many code requests. Please try again later.")
	}

	res, err := m.svc.ForgotPassword(ctx, email, role)
	if outcome := api.Normalize(res, err); !outcome.Success {
		return m.fail(outcome.Message)
	}

	m.stage = StageOTP
	m.email = email
	m.role = role
	m.attempts = 0
	m.lastErr = ""
	return Outcome{OK: true, Message: "OTP sent to your email", Stage: m.stage}
}

// VerifyCode submits the one-time code plus the replacement password. Success
// is terminal; failure keeps the OTP stage so the user may resubmit, up to
// the attempt bound.
func (m *Machine) VerifyCode(ctx context.Context, code, newPassword string) Outcome {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stage != StageOTP {
		return m.fail("No verification code has been requested.")
	}

	code = strings.TrimSpace(code)
	if len(code) != CodeLength {
		return m.fail("Verification code must be 6 digits.")
	}
	if m.attempts >= m.maxAttempts {
		return m.fail("Too many attempts. Please request a new code.")
	}
	m.attempts++

	req := api.ResetPasswordRequest{
		Email:       m.email,
		Code:        code,
		NewPassword: newPassword,
		Role:        m.role,
	}
	res, err := m.svc.ResetPassword(ctx, req)
	if outcome := api.Normalize(res, err); !outcome.Success {
		return m.fail(outcome.Message)
	}

	m.stage = StageDone
	m.lastErr = ""
	return Outcome{OK: true, Message: "Password reset successful", Stage: m.stage}
}

func (m *Machine) Stage() Stage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stage
}

func (m *Machine) Email() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.email
}

func (m *Machine) LastError() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastErr
}

// Reset discards the flow, returning to the credentials stage. Called when
// login succeeds normally or the login view goes away. The send limiter is
// deliberately not reset.
func (m *Machine) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stage = StageCredentials
	m.email = ""
	m.role = ""
	m.attempts = 0
	m.lastErr = ""
}

func (m *Machine) fail(msg string) Outcome {
	m.lastErr = msg
	return Outcome{OK: false, Message: msg, Stage: m.stage}
}
