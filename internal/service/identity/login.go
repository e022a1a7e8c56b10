package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/nguyendangtritoan/german-note/internal/auth"
	"github.com/nguyendangtritoan/german-note/internal/domain"
)

// LoginAnonymous creates a fresh anonymous identity and returns its token.
func (s *Service) LoginAnonymous(ctx context.Context) (*AuthResult, error) {
	now := s.now().UTC()
	identity := &domain.Identity{
		ID:         uuid.New(),
		Anonymous:  true,
		CreatedAt:  now,
		LastSeenAt: now,
	}

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.identities.Create(txCtx, identity); err != nil {
			return fmt.Errorf("create identity: %w", err)
		}
		return s.identities.CreateAuthMethod(txCtx, &domain.AuthMethod{
			ID:         uuid.New(),
			IdentityID: identity.ID,
			Method:     domain.AuthMethodAnonymous,
			CreatedAt:  now,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("identity.LoginAnonymous: %w", err)
	}

	result, err := s.issueToken(identity)
	if err != nil {
		return nil, fmt.Errorf("identity.LoginAnonymous issue token: %w", err)
	}

	s.log.InfoContext(ctx, "anonymous identity created", slog.String("identity_id", identity.ID.String()))
	return result, nil
}

// LoginPermanent signs in with a permanent credential. A Google account seen
// for the first time gets a new permanent identity; an unknown password
// email is rejected with ErrUnauthorized.
func (s *Service) LoginPermanent(ctx context.Context, cred Credential) (*AuthResult, error) {
	cred = cred.normalize()
	if err := cred.Validate(s.cfg.AllowedProviders()); err != nil {
		return nil, err
	}

	var (
		identity *domain.Identity
		err      error
	)
	switch cred.Method {
	case domain.AuthMethodGoogle:
		identity, err = s.loginGoogle(ctx, cred)
	case domain.AuthMethodPassword:
		identity, err = s.loginPassword(ctx, cred)
	}
	if err != nil {
		return nil, err
	}

	if err := s.identities.Touch(ctx, identity.ID, s.now()); err != nil {
		s.log.WarnContext(ctx, "touch identity failed",
			slog.String("identity_id", identity.ID.String()),
			slog.String("error", err.Error()))
	}

	result, err := s.issueToken(identity)
	if err != nil {
		return nil, fmt.Errorf("identity.LoginPermanent issue token: %w", err)
	}

	s.log.InfoContext(ctx, "identity logged in",
		slog.String("identity_id", identity.ID.String()),
		slog.String("method", cred.Method.String()))
	return result, nil
}

func (s *Service) loginGoogle(ctx context.Context, cred Credential) (*domain.Identity, error) {
	oauthID, err := s.verifyGoogle(ctx, cred.Code)
	if err != nil {
		return nil, err
	}

	am, err := s.identities.GetAuthMethodByCredential(ctx, domain.AuthMethodGoogle, oauthID.Subject)
	switch {
	case err == nil:
		return s.identities.GetByID(ctx, am.IdentityID)
	case !errors.Is(err, domain.ErrNotFound):
		return nil, fmt.Errorf("identity.LoginPermanent get auth method: %w", err)
	}

	now := s.now().UTC()
	identity := &domain.Identity{
		ID:         uuid.New(),
		Email:      domain.StringPtr(oauthID.Email),
		Name:       oauthID.Name,
		CreatedAt:  now,
		LastSeenAt: now,
	}
	subject := oauthID.Subject

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.identities.Create(txCtx, identity); err != nil {
			return fmt.Errorf("create identity: %w", err)
		}
		return s.identities.CreateAuthMethod(txCtx, &domain.AuthMethod{
			ID:         uuid.New(),
			IdentityID: identity.ID,
			Method:     domain.AuthMethodGoogle,
			Subject:    &subject,
			CreatedAt:  now,
		})
	})
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			// Concurrent first login with the same account.
			am, retryErr := s.identities.GetAuthMethodByCredential(ctx, domain.AuthMethodGoogle, subject)
			if retryErr == nil {
				return s.identities.GetByID(ctx, am.IdentityID)
			}
		}
		return nil, fmt.Errorf("identity.LoginPermanent register: %w", err)
	}

	s.log.InfoContext(ctx, "permanent identity registered via google", slog.String("identity_id", identity.ID.String()))
	return identity, nil
}

func (s *Service) loginPassword(ctx context.Context, cred Credential) (*domain.Identity, error) {
	am, err := s.identities.GetAuthMethodByCredential(ctx, domain.AuthMethodPassword, cred.Email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrUnauthorized
		}
		return nil, fmt.Errorf("identity.LoginPermanent get auth method: %w", err)
	}

	if am.PasswordHash == nil {
		return nil, domain.ErrUnauthorized
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*am.PasswordHash), []byte(cred.Password)); err != nil {
		return nil, domain.ErrUnauthorized
	}

	return s.identities.GetByID(ctx, am.IdentityID)
}

func (s *Service) verifyGoogle(ctx context.Context, code string) (*auth.ExternalIdentity, error) {
	if s.oauth == nil {
		return nil, domain.NewValidationError("method", "unsupported method")
	}
	id, err := s.oauth.VerifyCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("identity oauth verification: %w", err)
	}
	return id, nil
}
