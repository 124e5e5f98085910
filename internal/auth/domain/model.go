package domain

import (
	"errors"
	"regexp"
	"sort"
	"strings"
	"time"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailTaken         = errors.New("an account with this email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

const (
	MinPasswordLength = 8
	// MaxPasswordBytes is the longest input bcrypt accepts.
	MaxPasswordBytes = 72
)

var emailPattern = regexp.MustCompile(`\S+@\S+\.\S+`)

// User is an account. The password hash never leaves the server.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type SignupRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password,omitempty"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateUserRequest carries profile edits; nil fields are left unchanged.
type UpdateUserRequest struct {
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
}

type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, e.Fields[k])
	}
	return strings.Join(parts, "; ")
}

func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// NormalizeEmail trims the address and lower-cases its domain. The local part
// is kept as typed.
func NormalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}
	return email[:at] + "@" + strings.ToLower(email[at+1:])
}

func (r *SignupRequest) Normalize() {
	r.Email = NormalizeEmail(r.Email)
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
}

func (r SignupRequest) Validate() error {
	fields := map[string]string{}
	switch {
	case strings.TrimSpace(r.Email) == "":
		fields["email"] = "Email is required"
	case !ValidEmail(r.Email):
		fields["email"] = "Email is invalid"
	}
	switch {
	case r.Password == "":
		fields["password"] = "Password is required"
	case len(r.Password) < MinPasswordLength:
		fields["password"] = "Password must be at least 8 characters"
	case len(r.Password) > MaxPasswordBytes:
		fields["password"] = "Password must be at most 72 bytes"
	}
	if r.ConfirmPassword != "" && r.ConfirmPassword != r.Password {
		fields["confirm_password"] = "Passwords do not match"
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func (r LoginRequest) Validate() error {
	fields := map[string]string{}
	switch {
	case strings.TrimSpace(r.Email) == "":
		fields["email"] = "Email is required"
	case !ValidEmail(r.Email):
		fields["email"] = "Email is invalid"
	}
	if r.Password == "" {
		fields["password"] = "Password is required"
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}
