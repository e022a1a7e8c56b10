package rest

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/nguyendangtritoan/german-note/internal/domain"
	"github.com/nguyendangtritoan/german-note/internal/service/identity"
	"github.com/nguyendangtritoan/german-note/pkg/ctxutil"
)

// identityService defines the minimal interface needed by AuthHandler.
type identityService interface {
	LoginAnonymous(ctx context.Context) (*identity.AuthResult, error)
	LoginPermanent(ctx context.Context, cred identity.Credential) (*identity.AuthResult, error)
	UpgradeAnonymousToPermanent(ctx context.Context, identityID uuid.UUID, cred identity.Credential) (*identity.AuthResult, error)
	Logout(ctx context.Context, identityID uuid.UUID) error
}

// workspaceLifecycle is the part of the workspace hub that follows identity
// changes.
type workspaceLifecycle interface {
	Identify(identity *domain.Identity)
	Evict(ctx context.Context, identityID uuid.UUID)
}

// AuthHandler serves the identity gate endpoints.
type AuthHandler struct {
	svc    identityService
	spaces workspaceLifecycle
	log    *slog.Logger
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(svc identityService, spaces workspaceLifecycle, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{svc: svc, spaces: spaces, log: logger.With("handler", "auth")}
}

type credentialRequest struct {
	Method   string `json:"method"`
	Code     string `json:"code"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

func (c credentialRequest) toCredential() identity.Credential {
	return identity.Credential{
		Method:   domain.AuthMethodType(c.Method),
		Code:     c.Code,
		Email:    c.Email,
		Password: c.Password,
		Name:     c.Name,
	}
}

type authResponse struct {
	AccessToken string           `json:"accessToken"`
	Identity    identityResponse `json:"identity"`
}

type identityResponse struct {
	ID        string  `json:"id"`
	Anonymous bool    `json:"anonymous"`
	Email     *string `json:"email,omitempty"`
	Name      *string `json:"name,omitempty"`
}

// Anonymous handles POST /auth/anonymous.
func (h *AuthHandler) Anonymous(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.LoginAnonymous(r.Context())
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toAuthResponse(result))
}

// Login handles POST /auth/login with a permanent credential.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.svc.LoginPermanent(r.Context(), req.toCredential())
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toAuthResponse(result))
}

// Upgrade handles POST /auth/upgrade. The caller must hold an anonymous
// token; the identity ID is kept and a fresh token is issued.
func (h *AuthHandler) Upgrade(w http.ResponseWriter, r *http.Request) {
	identityID, _ := ctxutil.IdentityIDFromCtx(r.Context())

	var req credentialRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.svc.UpgradeAnonymousToPermanent(r.Context(), identityID, req.toCredential())
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	h.spaces.Identify(result.Identity)
	writeJSON(w, http.StatusOK, toAuthResponse(result))
}

// Logout handles POST /auth/logout. The workspace of the identity is
// flushed and released.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	identityID, _ := ctxutil.IdentityIDFromCtx(r.Context())

	if err := h.svc.Logout(r.Context(), identityID); err != nil {
		handleError(h.log, w, r, err)
		return
	}

	h.spaces.Evict(r.Context(), identityID)
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func toAuthResponse(result *identity.AuthResult) authResponse {
	return authResponse{
		AccessToken: result.AccessToken,
		Identity: identityResponse{
			ID:        result.Identity.ID.String(),
			Anonymous: result.Identity.Anonymous,
			Email:     result.Identity.Email,
			Name:      result.Identity.Name,
		},
	}
}
