package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/vaccine-scheduler/internal/auth"
	"github.com/spec-kit/vaccine-scheduler/internal/domain"
	"github.com/spec-kit/vaccine-scheduler/internal/events"
	"github.com/spec-kit/vaccine-scheduler/internal/repository"
	apperrors "github.com/spec-kit/vaccine-scheduler/pkg/util/errorutil"
)

// AuthService coordinates registration and login flows.
type AuthService struct {
	store      repository.Store
	hasher     *auth.Hasher
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// AuthDependencies encapsulates requirements for the auth service.
type AuthDependencies struct {
	Store      repository.Store
	Hasher     *auth.Hasher
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(deps AuthDependencies) *AuthService {
	return &AuthService{
		store:      deps.Store,
		hasher:     deps.Hasher,
		dispatcher: deps.Dispatcher,
		logger:     loggerOrNop(deps.Logger),
	}
}

// Register creates a patient or caregiver. The username check runs before
// the password strength check.
func (s *AuthService) Register(ctx context.Context, kind domain.UserKind, username, password string) (*domain.User, error) {
	if !kind.Valid() || strings.TrimSpace(username) == "" || password == "" {
		return nil, apperrors.NewValidationError(apperrors.CodeInvalidArguments, "username and password are required", nil)
	}

	repos := s.store.Repos()
	taken, err := repos.Users.Exists(ctx, kind, username)
	if err != nil {
		return nil, apperrors.NewStoreError(err)
	}
	if taken {
		return nil, usernameTaken(kind, username)
	}

	if !auth.IsStrongPassword(password) {
		return nil, apperrors.NewValidationError(apperrors.CodeWeakPassword, "password is weak", nil)
	}

	salt, err := s.hasher.GenerateSalt()
	if err != nil {
		return nil, apperrors.NewStoreError(err)
	}
	user := &domain.User{
		Kind:     kind,
		Username: username,
		Salt:     salt,
		Hash:     s.hasher.HashPassword(password, salt),
	}
	if err := repos.Users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, usernameTaken(kind, username)
		}
		return nil, apperrors.NewStoreError(err)
	}

	publish(ctx, s.dispatcher, s.logger, events.New(events.EventUserRegistered, events.ActorFor(user),
		events.UserRegisteredPayload{Kind: kind, Username: username}))
	return user, nil
}

// Authenticate verifies credentials for the given kind. Unknown users and
// wrong passwords are indistinguishable to the caller.
func (s *AuthService) Authenticate(ctx context.Context, kind domain.UserKind, username, password string) (*domain.User, error) {
	if !kind.Valid() || username == "" {
		return nil, apperrors.NewValidationError(apperrors.CodeInvalidArguments, "username and password are required", nil)
	}

	user, err := s.store.Repos().Users.GetByUsername(ctx, kind, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, badCredentials()
		}
		return nil, apperrors.NewStoreError(err)
	}
	if !s.hasher.ComparePassword(user.Hash, user.Salt, password) {
		return nil, badCredentials()
	}
	return user, nil
}

func usernameTaken(kind domain.UserKind, username string) error {
	return apperrors.NewConflict(apperrors.CodeUsernameTaken, "username taken",
		map[string]any{"kind": kind.String(), "username": username})
}

func badCredentials() error {
	return apperrors.NewUnauthorized(apperrors.CodeBadCredentials, "invalid credentials")
}
