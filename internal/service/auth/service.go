package auth

import (
	"context"
	"errors"
	"strings"

	"log/slog"

	"github.com/marqueehq/marquee/internal/domain"
	"github.com/marqueehq/marquee/internal/repository"
	"github.com/marqueehq/marquee/internal/validator"
)

// Terminal outcomes of the authorization state machine. Each maps to a
// distinct client-visible category at the HTTP layer.
var (
	ErrAuthenticationRequired = errors.New("you must be authenticated to access this resource")
	ErrInvalidToken           = errors.New("invalid or missing authentication token")
	ErrInactiveAccount        = errors.New("your user account must be activated to access this resource")
	ErrPermissionRequired     = errors.New("your user account doesn't have the necessary permissions to access this resource")
	ErrInvalidCredentials     = errors.New("invalid credentials")
)

// Service turns a raw Authorization header into a verified,
// permission-checked identity.
type Service struct {
	users       repository.UserRepository
	permissions repository.PermissionRepository
	logger      *slog.Logger
}

// New constructs a Service.
func New(users repository.UserRepository, permissions repository.PermissionRepository, logger *slog.Logger) Service {
	return Service{users: users, permissions: permissions, logger: logger}
}

// Authenticate resolves the header to an activated user. A token that is
// malformed, unknown or expired uniformly yields ErrInvalidToken so a
// caller cannot probe which tokens exist.
func (s Service) Authenticate(ctx context.Context, header string) (*domain.User, error) {
	if strings.TrimSpace(header) == "" {
		return nil, ErrAuthenticationRequired
	}

	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil, ErrInvalidToken
	}
	plaintext := parts[1]

	v := validator.New()
	domain.ValidateTokenPlaintext(v, plaintext)
	if !v.Valid() {
		return nil, ErrInvalidToken
	}

	user, err := s.users.GetUserForToken(ctx, domain.ScopeAuthentication, plaintext)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}

	if !user.Activated {
		return nil, ErrInactiveAccount
	}

	return user, nil
}

// Authorize authenticates and then requires the permission code. The
// permission check runs last so authentication failures are reported
// before authorization failures.
func (s Service) Authorize(ctx context.Context, header, code string) (*domain.User, error) {
	user, err := s.Authenticate(ctx, header)
	if err != nil {
		return nil, err
	}

	codes, err := s.permissions.GetPermissionsForUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	for _, c := range codes {
		if c == code {
			return user, nil
		}
	}

	s.logger.Warn("permission denied", "user_id", user.ID, "required", code)
	return nil, ErrPermissionRequired
}
