package middleware

import (
	"errors"
	"mime"
	"net/http"
	"net/mail"
	"strings"

	"github.com/go-chi/chi/v5"
)

// Validation limits.
const (
	// MaxEmailLength is the maximum length for an email address (RFC 5321).
	MaxEmailLength = 254

	// MaxPasswordLength bounds the input handed to the password hasher.
	MaxPasswordLength = 128
)

// Validation errors.
var (
	ErrEmailEmpty       = errors.New("email is empty")
	ErrEmailTooLong     = errors.New("email exceeds maximum length")
	ErrEmailInvalid     = errors.New("email is invalid")
	ErrPasswordTooLong  = errors.New("password exceeds maximum length")
	ErrPasswordEmpty    = errors.New("password is empty")
	ErrPasswordNonASCII = errors.New("password contains control characters")
)

// ValidateEmail checks the shape of an email address before it reaches the
// service layer.
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return ErrEmailEmpty
	}
	if len(email) > MaxEmailLength {
		return ErrEmailTooLong
	}

	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || addr.Name != "" {
		return ErrEmailInvalid
	}
	if !strings.Contains(email[strings.LastIndexByte(email, '@')+1:], ".") {
		return ErrEmailInvalid
	}
	return nil
}

// ValidatePassword rejects passwords that would be expensive or unsafe to
// hash. Minimum length is a business rule and stays in the service.
func ValidatePassword(password string) error {
	if password == "" {
		return ErrPasswordEmpty
	}
	if len(password) > MaxPasswordLength {
		return ErrPasswordTooLong
	}
	for _, r := range password {
		if r < 0x20 || r == 0x7f {
			return ErrPasswordNonASCII
		}
	}
	return nil
}

// RequireJSON rejects request bodies that are not declared as JSON.
// Bodyless requests pass through.
func RequireJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
		default:
			next.ServeHTTP(w, r)
			return
		}
		if r.ContentLength == 0 {
			next.ServeHTTP(w, r)
			return
		}

		mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		if err != nil || mediaType != "application/json" {
			writeError(w, http.StatusUnsupportedMediaType, "UNSUPPORTED_MEDIA_TYPE", msgUnsupported)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ValidateEmailParam rejects requests whose URL parameter name is not a
// valid email address.
func ValidateEmailParam(name string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := ValidateEmail(chi.URLParam(r, name)); err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_EMAIL", msgInvalidEmail)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
