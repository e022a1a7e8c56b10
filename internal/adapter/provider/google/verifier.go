// Package google verifies Google sign-in authorization codes.
package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/nguyendangtritoan/german-note/internal/auth"
	"github.com/nguyendangtritoan/german-note/internal/domain"
)

const (
	defaultTokenURL    = "https://oauth2.googleapis.com/token"
	defaultUserinfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

	retryBackoff = 500 * time.Millisecond
	maxBodyBytes = 1 << 20
)

// Verifier turns an authorization code from the Google consent screen into
// an external identity: code exchange, then a userinfo call.
type Verifier struct {
	clientID     string
	clientSecret string
	redirectURI  string
	tokenURL     string
	userinfoURL  string
	http         *http.Client
	log          *slog.Logger
}

// NewVerifier creates a Verifier for the given OAuth client.
func NewVerifier(clientID, clientSecret, redirectURI string, logger *slog.Logger) *Verifier {
	return &Verifier{
		clientID:     clientID,
		clientSecret: clientSecret,
		redirectURI:  redirectURI,
		tokenURL:     defaultTokenURL,
		userinfoURL:  defaultUserinfoURL,
		http:         &http.Client{Timeout: 10 * time.Second},
		log:          logger.With("adapter", "google"),
	}
}

// WithEndpoints points the verifier at other token and userinfo URLs.
func (v *Verifier) WithEndpoints(tokenURL, userinfoURL string) *Verifier {
	v.tokenURL = tokenURL
	v.userinfoURL = userinfoURL
	return v
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	Error       string `json:"error"`
}

type userinfoResponse struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
}

// VerifyCode exchanges code for the account behind it. A rejected code or
// an unverified email wraps domain.ErrUnauthorized; Google being
// unreachable wraps domain.ErrTransport.
func (v *Verifier) VerifyCode(ctx context.Context, code string) (*auth.ExternalIdentity, error) {
	form := url.Values{
		"grant_type":    {"authorization_code"},
		"code":          {code},
		"client_id":     {v.clientID},
		"client_secret": {v.clientSecret},
		"redirect_uri":  {v.redirectURI},
	}.Encode()

	var token tokenResponse
	status, err := v.call(ctx, "token exchange", func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.tokenURL, strings.NewReader(form))
		if err == nil {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}
		return req, err
	}, &token)
	switch {
	case err != nil:
		return nil, err
	case status == http.StatusBadRequest || status == http.StatusUnauthorized:
		v.log.InfoContext(ctx, "authorization code rejected", slog.String("reason", token.Error))
		return nil, fmt.Errorf("google: code rejected: %w", domain.ErrUnauthorized)
	case status != http.StatusOK || token.AccessToken == "":
		return nil, fmt.Errorf("google: token exchange status %d: %w", status, domain.ErrTransport)
	}

	var info userinfoResponse
	status, err = v.call(ctx, "userinfo", func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.userinfoURL, nil)
		if err == nil {
			req.Header.Set("Authorization", "Bearer "+token.AccessToken)
		}
		return req, err
	}, &info)
	switch {
	case err != nil:
		return nil, err
	case status != http.StatusOK || info.ID == "" || info.Email == "":
		return nil, fmt.Errorf("google: userinfo status %d: %w", status, domain.ErrTransport)
	case !info.VerifiedEmail:
		return nil, fmt.Errorf("google: email not verified: %w", domain.ErrUnauthorized)
	}

	identity := &auth.ExternalIdentity{
		Subject: info.ID,
		Email:   strings.ToLower(info.Email),
	}
	if info.Name != "" {
		identity.Name = &info.Name
	}
	return identity, nil
}

// call sends the request built by newReq, retrying once after a network
// error or a 5xx, and decodes a JSON body into out whatever the status.
func (v *Verifier) call(ctx context.Context, step string, newReq func() (*http.Request, error), out any) (int, error) {
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(retryBackoff):
			case <-ctx.Done():
				return 0, ctx.Err()
			}
		}

		req, err := newReq()
		if err != nil {
			return 0, fmt.Errorf("google: build %s request: %w", step, err)
		}
		resp, err := v.http.Do(req)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return 0, ctxErr
			}
			lastErr = err
			continue
		}

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		resp.Body.Close()
		if err == nil && resp.StatusCode >= http.StatusInternalServerError {
			err = fmt.Errorf("status %d", resp.StatusCode)
		}
		if err != nil {
			lastErr = err
			continue
		}

		if len(body) > 0 {
			if err := json.Unmarshal(body, out); err != nil && resp.StatusCode == http.StatusOK {
				return 0, fmt.Errorf("google: decode %s: %w", step, errors.Join(domain.ErrTransport, err))
			}
		}
		return resp.StatusCode, nil
	}

	v.log.WarnContext(ctx, "google unavailable", slog.String("step", step), slog.String("error", lastErr.Error()))
	return 0, fmt.Errorf("google: %s: %w", step, errors.Join(domain.ErrTransport, lastErr))
}
