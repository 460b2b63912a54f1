package shop

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/01moynul/tshirtstore-golang/internal/access"
	"github.com/01moynul/tshirtstore-golang/internal/models"
)

// TokenIssuer signs a session token for a user.
type TokenIssuer interface {
	Issue(userID int64) (string, error)
}

// Accounts registers users and logs them in.
type Accounts struct {
	users       UserRepo
	tokens      TokenIssuer
	adminEmails map[string]bool
	now         func() time.Time
}

// NewAccounts grants the admin flag to users registering with one of adminEmails.
func NewAccounts(users UserRepo, tokens TokenIssuer, adminEmails []string) *Accounts {
	admins := make(map[string]bool, len(adminEmails))
	for _, e := range adminEmails {
		if e = normalizeEmail(e); e != "" {
			admins[e] = true
		}
	}
	return &Accounts{users: users, tokens: tokens, adminEmails: admins, now: time.Now}
}

// RegisterInput has already passed field validation at the HTTP layer.
type RegisterInput struct {
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
}

func (a *Accounts) Register(ctx context.Context, in RegisterInput) (models.User, error) {
	email := normalizeEmail(in.Email)
	user := models.User{
		Username:  strings.TrimSpace(in.Username),
		Email:     email,
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		IsAdmin:   a.adminEmails[email],
		CreatedAt: a.now(),
	}
	if user.Username == "" {
		return models.User{}, invalid("username", "is required")
	}

	var password models.Password
	if err := password.Set(in.Password); err != nil {
		return models.User{}, fmt.Errorf("hash password: %w", err)
	}
	user.PasswordHash = password.Hash

	if err := a.users.CreateUser(ctx, &user); err != nil {
		return models.User{}, err
	}
	return user, nil
}

// Login checks the credentials and returns a signed session token.
func (a *Accounts) Login(ctx context.Context, email, plaintext string) (string, models.User, error) {
	user, err := a.users.UserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", models.User{}, ErrInvalidCredentials
		}
		return "", models.User{}, err
	}

	password := models.Password{Hash: user.PasswordHash}
	ok, err := password.Matches(plaintext)
	if err != nil {
		return "", models.User{}, fmt.Errorf("compare password: %w", err)
	}
	if !ok {
		return "", models.User{}, ErrInvalidCredentials
	}

	token, err := a.tokens.Issue(user.ID)
	if err != nil {
		return "", models.User{}, fmt.Errorf("issue token: %w", err)
	}
	return token, user, nil
}

// Caller resolves a session's user id to the identity used by the access gate.
func (a *Accounts) Caller(ctx context.Context, userID int64) (access.Caller, error) {
	u, err := a.users.UserByID(ctx, userID)
	if err != nil {
		return access.Anonymous, err
	}
	return access.Caller{UserID: u.ID, Username: u.Username, IsAdmin: u.IsAdmin, Authenticated: true}, nil
}

func (a *Accounts) Profile(ctx context.Context, caller access.Caller) (models.User, error) {
	if err := authorize(caller, access.Authenticated()); err != nil {
		return models.User{}, err
	}
	return a.users.UserByID(ctx, caller.UserID)
}

// Users is the back-office user listing.
func (a *Accounts) Users(ctx context.Context, caller access.Caller, page Page) (PageResult[models.User], error) {
	if err := authorize(caller, access.Admin()); err != nil {
		return PageResult[models.User]{}, err
	}
	page = page.normalize(12)
	users, total, err := a.users.ListUsers(ctx, page)
	if err != nil {
		return PageResult[models.User]{}, err
	}
	return newPageResult(users, total, page), nil
}

func normalizeEmail(e string) string {
	return strings.ToLower(strings.TrimSpace(e))
}
