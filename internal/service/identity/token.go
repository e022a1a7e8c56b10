package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/nguyendangtritoan/german-note/internal/auth"
	"github.com/nguyendangtritoan/german-note/internal/domain"
)

// ValidateToken validates an access token.
// Returns ErrUnauthorized if the token is invalid or expired.
func (s *Service) ValidateToken(ctx context.Context, token string) (auth.Claims, error) {
	claims, err := s.tokens.ValidateAccessToken(token)
	if err != nil {
		return auth.Claims{}, domain.ErrUnauthorized
	}
	return claims, nil
}

// Resolve confirms that the identity still exists and records activity.
// A deleted identity yields ErrUnauthorized.
func (s *Service) Resolve(ctx context.Context, identityID uuid.UUID) (*domain.Identity, error) {
	if err := s.identities.Touch(ctx, identityID, s.now()); err != nil {
		return nil, mapMissing(err)
	}
	identity, err := s.identities.GetByID(ctx, identityID)
	if err != nil {
		return nil, mapMissing(err)
	}
	return identity, nil
}

// Logout records the last activity of the identity. Tokens are stateless;
// the caller drops its token and the workspace is released by the caller.
func (s *Service) Logout(ctx context.Context, identityID uuid.UUID) error {
	if identityID == uuid.Nil {
		return domain.ErrUnauthorized
	}
	if err := s.identities.Touch(ctx, identityID, s.now()); err != nil {
		return fmt.Errorf("identity.Logout: %w", mapMissing(err))
	}

	s.log.InfoContext(ctx, "identity logged out", slog.String("identity_id", identityID.String()))
	return nil
}

// CleanupIdleAnonymous removes anonymous identities idle for longer than the
// configured TTL. This is a maintenance operation.
func (s *Service) CleanupIdleAnonymous(ctx context.Context) (int64, error) {
	before := s.now().Add(-s.cfg.AnonymousIdleTTL)
	count, err := s.identities.DeleteIdleAnonymous(ctx, before)
	if err != nil {
		s.log.ErrorContext(ctx, "anonymous cleanup failed", slog.String("error", err.Error()))
		return 0, fmt.Errorf("identity.CleanupIdleAnonymous: %w", err)
	}

	if count > 0 {
		s.log.InfoContext(ctx, "cleaned up idle anonymous identities", slog.Int64("count", count))
	}
	return count, nil
}

func mapMissing(err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return domain.ErrUnauthorized
	}
	return err
}
