package account

import (
	"context"
	"errors"
	"fmt"

	"log/slog"

	"github.com/marqueehq/marquee/internal/domain"
	"github.com/marqueehq/marquee/internal/mail"
	"github.com/marqueehq/marquee/internal/repository"
	"github.com/marqueehq/marquee/internal/service/auth"
	"github.com/marqueehq/marquee/internal/validator"
	"github.com/marqueehq/marquee/pkg/crypto"
)

// Enqueuer is the producer side of the mail queue.
type Enqueuer interface {
	Push(ctx context.Context, task mail.Task) error
}

// Service implements the account lifecycle: signup, activation,
// authentication tokens and password resets. Side-effecting actions mint
// a scoped token, persist its hash and enqueue a mail task; delivery
// happens later, independent of the request.
type Service struct {
	users       repository.UserRepository
	tokens      repository.TokenRepository
	permissions repository.PermissionRepository
	queue       Enqueuer
	logger      *slog.Logger
}

// New constructs a Service.
func New(users repository.UserRepository, tokens repository.TokenRepository, permissions repository.PermissionRepository, queue Enqueuer, logger *slog.Logger) Service {
	return Service{users: users, tokens: tokens, permissions: permissions, queue: queue, logger: logger}
}

// Register creates an inactive account, grants the baseline read
// permission and queues a welcome mail carrying an activation token.
func (s Service) Register(ctx context.Context, name, email, password string) (*domain.User, error) {
	v := validator.New()
	domain.ValidateName(v, name)
	domain.ValidateEmail(v, email)
	domain.ValidatePasswordPlaintext(v, password)
	if !v.Valid() {
		return nil, v.Errors()
	}

	hash, err := crypto.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Activated:    false,
	}

	if err := s.users.InsertUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			v.AddError("email", "a user with this email address already exists")
			return nil, v.Errors()
		}
		return nil, err
	}

	if err := s.permissions.AddPermissionsForUser(ctx, user.ID, domain.PermissionMoviesRead); err != nil {
		return nil, err
	}

	token, err := s.mintToken(ctx, user.ID, domain.ScopeActivation)
	if err != nil {
		return nil, err
	}

	task, err := mail.NewWelcomeTask(user.Email, user.ID, token.Plaintext)
	if err != nil {
		return nil, fmt.Errorf("render welcome mail: %w", err)
	}
	if err := s.queue.Push(ctx, task); err != nil {
		return nil, err
	}

	s.logger.Info("user registered", "user_id", user.ID)
	return user, nil
}

// Activate consumes an activation token and flips the account on. The
// update is version checked, so a concurrent modification surfaces as an
// edit conflict rather than silently overwriting.
func (s Service) Activate(ctx context.Context, tokenPlaintext string) (*domain.User, error) {
	v := validator.New()
	domain.ValidateTokenPlaintext(v, tokenPlaintext)
	if !v.Valid() {
		return nil, v.Errors()
	}

	user, err := s.users.GetUserForToken(ctx, domain.ScopeActivation, tokenPlaintext)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			v.AddError("token", "invalid or expired activation token")
			return nil, v.Errors()
		}
		return nil, err
	}

	user.Activated = true
	if err := s.users.UpdateUser(ctx, user); err != nil {
		return nil, err
	}

	if err := s.tokens.DeleteAllTokensForUser(ctx, domain.ScopeActivation, user.ID); err != nil {
		return nil, err
	}

	s.logger.Info("user activated", "user_id", user.ID)
	return user, nil
}

// CreateAuthenticationToken verifies credentials and mints a 24 hour
// bearer token. Unknown email and wrong password are indistinguishable.
func (s Service) CreateAuthenticationToken(ctx context.Context, email, password string) (*domain.Token, error) {
	v := validator.New()
	domain.ValidateEmail(v, email)
	domain.ValidatePasswordPlaintext(v, password)
	if !v.Valid() {
		return nil, v.Errors()
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, auth.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := crypto.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, auth.ErrInvalidCredentials
	}

	return s.mintToken(ctx, user.ID, domain.ScopeAuthentication)
}

// RequestActivationToken reissues an activation token for a not yet
// activated account and queues the mail.
func (s Service) RequestActivationToken(ctx context.Context, email string) error {
	v := validator.New()
	domain.ValidateEmail(v, email)
	if !v.Valid() {
		return v.Errors()
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			v.AddError("email", "no matching email address found")
			return v.Errors()
		}
		return err
	}

	if user.Activated {
		v.AddError("email", "user has already been activated")
		return v.Errors()
	}

	token, err := s.mintToken(ctx, user.ID, domain.ScopeActivation)
	if err != nil {
		return err
	}

	task, err := mail.NewActivationTask(user.Email, token.Plaintext)
	if err != nil {
		return fmt.Errorf("render activation mail: %w", err)
	}
	return s.queue.Push(ctx, task)
}

// RequestPasswordReset mints a short-lived reset token for an activated
// account and queues the mail.
func (s Service) RequestPasswordReset(ctx context.Context, email string) error {
	v := validator.New()
	domain.ValidateEmail(v, email)
	if !v.Valid() {
		return v.Errors()
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			v.AddError("email", "no matching email address found")
			return v.Errors()
		}
		return err
	}

	if !user.Activated {
		v.AddError("email", "user account must be activated")
		return v.Errors()
	}

	token, err := s.mintToken(ctx, user.ID, domain.ScopePasswordReset)
	if err != nil {
		return err
	}

	task, err := mail.NewPasswordResetTask(user.Email, token.Plaintext)
	if err != nil {
		return fmt.Errorf("render password reset mail: %w", err)
	}
	return s.queue.Push(ctx, task)
}

// ResetPassword consumes a password-reset token and stores a new hash.
func (s Service) ResetPassword(ctx context.Context, password, tokenPlaintext string) error {
	v := validator.New()
	domain.ValidatePasswordPlaintext(v, password)
	domain.ValidateTokenPlaintext(v, tokenPlaintext)
	if !v.Valid() {
		return v.Errors()
	}

	user, err := s.users.GetUserForToken(ctx, domain.ScopePasswordReset, tokenPlaintext)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			v.AddError("token", "invalid or expired password reset token")
			return v.Errors()
		}
		return err
	}

	hash, err := crypto.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	user.PasswordHash = hash

	if err := s.users.UpdateUser(ctx, user); err != nil {
		return err
	}

	if err := s.tokens.DeleteAllTokensForUser(ctx, domain.ScopePasswordReset, user.ID); err != nil {
		return err
	}

	s.logger.Info("password reset", "user_id", user.ID)
	return nil
}

// mintToken creates a token with the scope's standard lifetime and
// persists its hash.
func (s Service) mintToken(ctx context.Context, userID int64, scope string) (*domain.Token, error) {
	ttl := domain.AuthenticationTokenTTL
	switch scope {
	case domain.ScopeActivation:
		ttl = domain.ActivationTokenTTL
	case domain.ScopePasswordReset:
		ttl = domain.PasswordResetTokenTTL
	}

	token, err := domain.NewToken(userID, ttl, scope)
	if err != nil {
		return nil, fmt.Errorf("mint token: %w", err)
	}
	if err := s.tokens.InsertToken(ctx, token); err != nil {
		return nil, err
	}
	return token, nil
}
