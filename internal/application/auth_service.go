package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/tourhub-api/internal/domain/entity"
	repo "github.com/oksasatya/tourhub-api/internal/domain/repository"
	"github.com/oksasatya/tourhub-api/pkg/apperror"
	"github.com/oksasatya/tourhub-api/pkg/helpers"
	"github.com/oksasatya/tourhub-api/pkg/validation"
)

// Notification templates.
const (
	TemplatePasswordReset = "password_reset"
	TemplateWelcome       = "welcome"
)

// Notifier delivers a templated message to one recipient.
type Notifier interface {
	Send(ctx context.Context, to string, template string, data map[string]any) error
}

// Stable messages of the auth flows.
const (
	msgNotLoggedIn       = "You are not logged in! Please log in to get access."
	msgBadToken          = "Invalid or expired token. Please log in again."
	msgUserGone          = "The user belonging to this token no longer exists."
	msgPasswordChanged   = "User recently changed password! Please log in again."
	msgForbidden         = "You do not have permission to perform this action"
	msgIncorrectLogin    = "Incorrect email or password"
	msgWrongCurrent      = "Your current password is wrong."
	msgResetTokenInvalid = "Token is invalid or has expired"
	msgMissingLogin      = "Please provide email and password!"
)

type SignupInput struct {
	Name            string `json:"name" validate:"required,max=80"`
	Email           string `json:"email" validate:"required,email"`
	Photo           string `json:"photo"`
	Password        string `json:"password" validate:"required,pwd"`
	PasswordConfirm string `json:"passwordConfirm" validate:"required,eqfield=Password"`
}

type PasswordInput struct {
	Password        string `json:"password" validate:"required,pwd"`
	PasswordConfirm string `json:"passwordConfirm" validate:"required,eqfield=Password"`
}

type UpdatePasswordInput struct {
	PasswordCurrent string `json:"passwordCurrent" validate:"required"`
	PasswordInput
}

// ProfileInput carries the self-service profile fields. Nil means unchanged.
type ProfileInput struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
	Photo *string `json:"photo"`
}

// AuthResult is a principal together with a freshly issued session token.
type AuthResult struct {
	User      *entity.User
	Token     string
	ExpiresAt time.Time
}

// AuthService implements signup, login, the authentication and authorization
// gates and the password lifecycle. It knows nothing about HTTP.
type AuthService struct {
	Users     repo.UserRepository
	Tokens    *helpers.JWTManager
	Hasher    *helpers.PasswordHasher
	Notifier  Notifier
	Validator *validation.Validator
	Logger    *logrus.Logger
	// ResetURL is the base the plaintext reset ticket is appended to.
	ResetURL string

	Now   func() time.Time
	NewID func() string

	dummyMu   sync.Mutex
	dummyHash string
}

func NewAuthService(users repo.UserRepository, tokens *helpers.JWTManager, hasher *helpers.PasswordHasher,
	notifier Notifier, v *validation.Validator, logger *logrus.Logger, resetURL string) *AuthService {
	return &AuthService{
		Users:     users,
		Tokens:    tokens,
		Hasher:    hasher,
		Notifier:  notifier,
		Validator: v,
		Logger:    logger,
		ResetURL:  resetURL,
		Now:       time.Now,
		NewID:     uuid.NewString,
	}
}

func (s *AuthService) issue(u *entity.User) (*AuthResult, error) {
	token, exp, err := s.Tokens.Issue(u.ID)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: u, Token: token, ExpiresAt: exp}, nil
}

// save writes u back, stamping it first.
func (s *AuthService) save(ctx context.Context, u *entity.User) error {
	u.Stamp(s.Now())
	return mapStoreErr("user", s.Users.Replace(ctx, u))
}

// Signup creates an active principal with the lowest role and signs it in.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*AuthResult, error) {
	if err := s.Validator.Struct(in); err != nil {
		return nil, err
	}
	hash, err := s.Hasher.Hash(ctx, in.Password)
	if err != nil {
		return nil, err
	}

	u := &entity.User{
		Name:         in.Name,
		Email:        in.Email,
		Photo:        in.Photo,
		Role:         entity.RoleUser,
		Active:       true,
		PasswordHash: hash,
	}
	u.ID = s.NewID()
	u.Normalize()
	if err := s.Validator.Struct(u); err != nil {
		return nil, err
	}
	u.Stamp(s.Now())

	if err := s.Users.Insert(ctx, u); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, apperror.Validation("Email is already registered", map[string]string{"email": "already in use"})
		}
		return nil, err
	}

	if err := s.notify(ctx, u.Email, TemplateWelcome, map[string]any{"name": firstName(u.Name)}); err != nil {
		s.Logger.WithError(err).WithField("user_id", u.ID).Warn("welcome email failed")
	}
	return s.issue(u)
}

// Login verifies the credentials. Unknown identities and wrong passwords are
// indistinguishable, in message and in the bcrypt work performed.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, apperror.Validation(msgMissingLogin, nil)
	}

	u, err := s.Users.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, repo.ErrNotFound) {
		return nil, err
	}
	if u == nil || !u.Active {
		decoy, err := s.dummy(ctx)
		if err != nil {
			return nil, err
		}
		if _, err := s.Hasher.Compare(ctx, decoy, password); err != nil && ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, apperror.InvalidCredentials(msgIncorrectLogin)
	}

	ok, err := s.Hasher.Compare(ctx, u.PasswordHash, password)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperror.InvalidCredentials(msgIncorrectLogin)
	}
	return s.issue(u)
}

// dummy returns the hash compared against for unknown identities. A failed
// attempt leaves it unset so the next login tries again.
func (s *AuthService) dummy(ctx context.Context) (string, error) {
	s.dummyMu.Lock()
	defer s.dummyMu.Unlock()
	if s.dummyHash == "" {
		h, err := s.Hasher.Hash(ctx, "dummy-password-for-timing")
		if err != nil {
			return "", err
		}
		s.dummyHash = h
	}
	return s.dummyHash, nil
}

// Authenticate resolves the principal behind token. Every failure is
// Unauthenticated.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*entity.User, error) {
	if token == "" {
		return nil, apperror.Unauthenticated(msgNotLoggedIn)
	}
	claims, err := s.Tokens.Verify(token)
	if err != nil {
		return nil, apperror.Unauthenticated(msgBadToken)
	}

	u, err := s.Users.Get(ctx, claims.UserID)
	if errors.Is(err, repo.ErrNotFound) || (err == nil && !u.Active) {
		return nil, apperror.Unauthenticated(msgUserGone)
	}
	if err != nil {
		return nil, err
	}
	if u.PasswordChangedAfter(claims.IssuedAtTime()) {
		return nil, apperror.Unauthenticated(msgPasswordChanged)
	}
	return u, nil
}

// Authorize fails with Forbidden unless u holds one of the allowed roles.
func (s *AuthService) Authorize(u *entity.User, allowed ...entity.Role) error {
	if u == nil || !entity.RoleAllowed(u.Role, allowed...) {
		return apperror.Forbidden(msgForbidden)
	}
	return nil
}

// ForgotPassword stores a fresh reset ticket and mails its plaintext. Unknown
// identities succeed silently. When delivery fails the ticket is withdrawn
// before the error is returned.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	u, err := s.Users.GetByEmail(ctx, email)
	if errors.Is(err, repo.ErrNotFound) || (err == nil && !u.Active) {
		return nil
	}
	if err != nil {
		return err
	}

	plain, digest, exp, err := s.Tokens.IssueResetTicket()
	if err != nil {
		return err
	}
	u.PasswordResetTokenHash = &digest
	u.PasswordResetExpiresAt = &exp
	if err := s.save(ctx, u); err != nil {
		return err
	}

	data := map[string]any{
		"name":            firstName(u.Name),
		"reset_url":       strings.TrimRight(s.ResetURL, "/") + "/" + plain,
		"expires_minutes": int(exp.Sub(s.Now()).Round(time.Minute).Minutes()),
	}
	sendErr := s.notify(ctx, u.Email, TemplatePasswordReset, data)
	if sendErr == nil {
		return nil
	}

	u.ClearResetTicket()
	if err := s.save(context.WithoutCancel(ctx), u); err != nil {
		s.Logger.WithError(err).WithField("user_id", u.ID).Error("reset ticket rollback failed")
	}
	return fmt.Errorf("send password reset email: %w", sendErr)
}

// ResetPassword redeems a reset ticket. A ticket works once: redeeming it
// clears the stored digest.
func (s *AuthService) ResetPassword(ctx context.Context, plain string, in PasswordInput) (*AuthResult, error) {
	u, err := s.Users.GetByResetTokenHash(ctx, helpers.DigestResetToken(plain), s.Now())
	if errors.Is(err, repo.ErrNotFound) || (err == nil && !u.Active) {
		return nil, apperror.InvalidOrExpiredToken(msgResetTokenInvalid)
	}
	if err != nil {
		return nil, err
	}
	if err := s.Validator.Struct(in); err != nil {
		return nil, err
	}
	if err := s.setPassword(ctx, u, in.Password); err != nil {
		return nil, err
	}
	u.ClearResetTicket()
	if err := s.save(ctx, u); err != nil {
		return nil, err
	}
	return s.issue(u)
}

// UpdatePassword changes the password of an authenticated principal after
// re-checking the current one.
func (s *AuthService) UpdatePassword(ctx context.Context, principal *entity.User, in UpdatePasswordInput) (*AuthResult, error) {
	u, err := s.Users.Get(ctx, principal.ID)
	if err != nil {
		return nil, mapStoreErr("user", err)
	}
	ok, err := s.Hasher.Compare(ctx, u.PasswordHash, in.PasswordCurrent)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperror.InvalidCredentials(msgWrongCurrent)
	}
	if err := s.Validator.Struct(in); err != nil {
		return nil, err
	}
	if err := s.setPassword(ctx, u, in.Password); err != nil {
		return nil, err
	}
	if err := s.save(ctx, u); err != nil {
		return nil, err
	}
	return s.issue(u)
}

// setPassword hashes plain into u and records the change. Tokens issued from
// this instant on stay valid; older ones are rejected by Authenticate.
func (s *AuthService) setPassword(ctx context.Context, u *entity.User, plain string) error {
	hash, err := s.Hasher.Hash(ctx, plain)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	u.MarkPasswordChanged(s.Now())
	return nil
}

// UpdateProfile applies name, email and photo changes of the principal.
func (s *AuthService) UpdateProfile(ctx context.Context, principal *entity.User, in ProfileInput) (*entity.User, error) {
	u, err := s.Users.Get(ctx, principal.ID)
	if err != nil {
		return nil, mapStoreErr("user", err)
	}
	if in.Name != nil {
		u.Name = *in.Name
	}
	if in.Email != nil {
		u.Email = *in.Email
	}
	if in.Photo != nil {
		u.Photo = *in.Photo
	}
	u.Normalize()
	if err := s.Validator.Struct(u); err != nil {
		return nil, err
	}
	if err := s.save(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// DeleteMe deactivates the principal once the password is confirmed.
func (s *AuthService) DeleteMe(ctx context.Context, principal *entity.User, password string) error {
	u, err := s.Users.Get(ctx, principal.ID)
	if err != nil {
		return mapStoreErr("user", err)
	}
	ok, err := s.Hasher.Compare(ctx, u.PasswordHash, password)
	if err != nil {
		return err
	}
	if !ok {
		return apperror.InvalidCredentials(msgWrongCurrent)
	}
	u.Active = false
	return s.save(ctx, u)
}

// Deactivate soft deletes a principal. Principals are never removed.
func (s *AuthService) Deactivate(ctx context.Context, id string) error {
	u, err := s.Users.Get(ctx, id)
	if err != nil || !u.Active {
		if err == nil {
			err = repo.ErrNotFound
		}
		return mapStoreErr("user", err)
	}
	u.Active = false
	return s.save(ctx, u)
}

func (s *AuthService) notify(ctx context.Context, to, template string, data map[string]any) error {
	if s.Notifier == nil {
		return errors.New("no notifier configured")
	}
	return s.Notifier.Send(ctx, to, template, data)
}

func firstName(name string) string {
	if f := strings.Fields(name); len(f) > 0 {
		return f[0]
	}
	return name
}
