package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/google/uuid"

	"github.com/tgienger/apolo/internal/models"
)

// Provider verifies who the user is. hint is provider specific: an email
// address for EmailProvider, an authorization code for OAuth providers.
type Provider interface {
	Name() string
	Authenticate(ctx context.Context, hint string) (models.User, error)
}

// ErrInvalidEmail is returned for a hint that is not an email address
var ErrInvalidEmail = errors.New("invalid email address")

// EmailProvider trusts the address it is given. User ids are derived from
// the address so the same person gets the same id on every machine.
type EmailProvider struct{}

func (EmailProvider) Name() string { return "email" }

func (EmailProvider) Authenticate(ctx context.Context, hint string) (models.User, error) {
	if err := ctx.Err(); err != nil {
		return models.User{}, err
	}
	addr, err := mail.ParseAddress(strings.TrimSpace(hint))
	if err != nil {
		return models.User{}, fmt.Errorf("%w: %q", ErrInvalidEmail, hint)
	}
	email := strings.ToLower(addr.Address)
	name := addr.Name
	if name == "" {
		name, _, _ = strings.Cut(email, "@")
	}
	return models.User{
		ID:    UserID(email),
		Name:  name,
		Email: email,
	}, nil
}

// UserID is the stable id for an email address
func UserID(email string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("mailto:"+strings.ToLower(strings.TrimSpace(email)))).String()
}

// NewProvider returns the provider registered under name
func NewProvider(name string) (Provider, error) {
	switch strings.ToLower(name) {
	case "", "email":
		return EmailProvider{}, nil
	}
	return nil, fmt.Errorf("unknown auth provider %q", name)
}
