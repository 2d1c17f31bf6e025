package domain

import (
	"fmt"
	"regexp"
	"strings"
)

// User is the authenticated identity. It is owned by the session store:
// created on successful profile hydration, replaced on re-login, cleared on
// logout.
type User struct {
	ID         string `json:"id"`
	Role       string `json:"role"`
	Email      string `json:"email"`
	Name       string `json:"name"`
	Country    string `json:"country,omitempty"`
	IsVerified bool   `json:"is_verified"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// NGO is one record of a filter result set.
type NGO struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Country    string   `json:"country"`
	State      string   `json:"state"`
	City       string   `json:"city"`
	Certified  bool     `json:"certified"`
	Categories []string `json:"categories"`
}

// Valid user roles
const (
	RoleDonor = "donor"
	RoleNGO   = "ngo"
	RoleAdmin = "admin"
)

var validRoles = map[string]bool{
	RoleDonor: true,
	RoleNGO:   true,
	RoleAdmin: true,
}

func IsValidRole(role string) bool {
	return validRoles[role]
}

// Validation methods
func (r *LoginRequest) Validate() error {
	if r.Email == "" || r.Password == "" {
		return fmt.Errorf("please fill in all required fields")
	}
	if !isValidEmail(r.Email) {
		return fmt.Errorf("invalid email format")
	}
	return nil
}

func (r *SignupRequest) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("name is required")
	}
	if r.Email == "" {
		return fmt.Errorf("email is required")
	}
	if !isValidEmail(r.Email) {
		return fmt.Errorf("invalid email format")
	}
	if r.Password == "" {
		return fmt.Errorf("password is required")
	}
	if len(r.Password) < 8 {
		return fmt.Errorf("password must be at least 8 characters")
	}
	return nil
}

func isValidEmail(email string) bool {
	emailRegex := regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	return emailRegex.MatchString(email)
}

// Normalize methods
func (r *LoginRequest) Normalize() {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
}

func (r *SignupRequest) Normalize() {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.Name = strings.TrimSpace(r.Name)
}
