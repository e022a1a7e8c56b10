package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/nguyendangtritoan/german-note/internal/domain"
)

// UpgradeAnonymousToPermanent binds a permanent credential to an anonymous
// identity without changing its ID, so its session and bundles stay put.
// A credential already bound to another identity yields
// ErrCredentialConflict and leaves the anonymous identity untouched.
func (s *Service) UpgradeAnonymousToPermanent(ctx context.Context, identityID uuid.UUID, cred Credential) (*AuthResult, error) {
	cred = cred.normalize()
	if err := cred.Validate(s.cfg.AllowedProviders()); err != nil {
		return nil, err
	}

	identity, err := s.identities.GetByID(ctx, identityID)
	if err != nil {
		return nil, fmt.Errorf("identity.Upgrade get identity: %w", err)
	}
	if !identity.Anonymous {
		return nil, fmt.Errorf("identity.Upgrade: identity is already permanent: %w", domain.ErrConflict)
	}

	method, email, name, err := s.resolveCredential(ctx, cred)
	if err != nil {
		return nil, err
	}

	if _, err := s.identities.GetAuthMethodByCredential(ctx, method.Method, *method.Subject); err == nil {
		s.log.WarnContext(ctx, "upgrade credential already bound",
			slog.String("identity_id", identityID.String()),
			slog.String("method", method.Method.String()))
		return nil, domain.ErrCredentialConflict
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("identity.Upgrade get auth method: %w", err)
	}

	upgraded := *identity
	upgraded.Upgrade(email, name, s.now())
	method.IdentityID = identityID

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.identities.MarkUpgraded(txCtx, &upgraded); err != nil {
			return fmt.Errorf("mark upgraded: %w", err)
		}
		if err := s.identities.CreateAuthMethod(txCtx, method); err != nil {
			return fmt.Errorf("attach credential: %w", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			return nil, domain.ErrCredentialConflict
		}
		return nil, fmt.Errorf("identity.Upgrade: %w", err)
	}

	result, err := s.issueToken(&upgraded)
	if err != nil {
		return nil, fmt.Errorf("identity.Upgrade issue token: %w", err)
	}

	s.log.InfoContext(ctx, "anonymous identity upgraded",
		slog.String("identity_id", identityID.String()),
		slog.String("method", method.Method.String()))
	return result, nil
}

// resolveCredential verifies or hashes the credential and returns the auth
// method to attach plus the profile data it carries.
func (s *Service) resolveCredential(ctx context.Context, cred Credential) (*domain.AuthMethod, *string, *string, error) {
	am := &domain.AuthMethod{
		ID:        uuid.New(),
		Method:    cred.Method,
		CreatedAt: s.now().UTC(),
	}

	switch cred.Method {
	case domain.AuthMethodGoogle:
		oauthID, err := s.verifyGoogle(ctx, cred.Code)
		if err != nil {
			return nil, nil, nil, err
		}
		subject := oauthID.Subject
		am.Subject = &subject
		return am, domain.StringPtr(oauthID.Email), oauthID.Name, nil

	case domain.AuthMethodPassword:
		hash, err := bcrypt.GenerateFromPassword([]byte(cred.Password), s.cfg.BcryptCost)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("hash password: %w", err)
		}
		subject, hashStr := cred.Email, string(hash)
		am.Subject = &subject
		am.PasswordHash = &hashStr
		return am, domain.StringPtr(cred.Email), domain.StringPtr(cred.Name), nil
	}

	return nil, nil, nil, domain.NewValidationError("method", "unsupported method")
}
