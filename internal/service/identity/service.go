// Package identity implements the identity gate: anonymous and permanent
// logins, in-place upgrade of anonymous identities and token validation.
package identity

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/nguyendangtritoan/german-note/internal/auth"
	"github.com/nguyendangtritoan/german-note/internal/config"
	"github.com/nguyendangtritoan/german-note/internal/domain"
)

type identityRepo interface {
	Create(ctx context.Context, i *domain.Identity) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Identity, error)
	MarkUpgraded(ctx context.Context, i *domain.Identity) error
	Touch(ctx context.Context, id uuid.UUID, at time.Time) error
	DeleteIdleAnonymous(ctx context.Context, before time.Time) (int64, error)
	CreateAuthMethod(ctx context.Context, am *domain.AuthMethod) error
	GetAuthMethodByCredential(ctx context.Context, method domain.AuthMethodType, subject string) (*domain.AuthMethod, error)
}

type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type oauthVerifier interface {
	VerifyCode(ctx context.Context, code string) (*auth.ExternalIdentity, error)
}

type tokenManager interface {
	GenerateAccessToken(identityID uuid.UUID, anonymous bool) (string, error)
	ValidateAccessToken(token string) (auth.Claims, error)
}

// Service implements identity operations.
type Service struct {
	log        *slog.Logger
	identities identityRepo
	tx         txManager
	oauth      oauthVerifier
	tokens     tokenManager
	cfg        config.AuthConfig
	now        func() time.Time
}

// NewService creates a new identity service. oauth may be nil when Google
// sign-in is not configured.
func NewService(
	logger *slog.Logger,
	identities identityRepo,
	tx txManager,
	oauth oauthVerifier,
	tokens tokenManager,
	cfg config.AuthConfig,
) *Service {
	return &Service{
		log:        logger.With("service", "identity"),
		identities: identities,
		tx:         tx,
		oauth:      oauth,
		tokens:     tokens,
		cfg:        cfg,
		now:        time.Now,
	}
}

// issueToken signs an access token for the identity.
func (s *Service) issueToken(identity *domain.Identity) (*AuthResult, error) {
	token, err := s.tokens.GenerateAccessToken(identity.ID, identity.Anonymous)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}
	return &AuthResult{AccessToken: token, Identity: identity}, nil
}
