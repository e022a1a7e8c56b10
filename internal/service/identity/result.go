package identity

import "github.com/nguyendangtritoan/german-note/internal/domain"

// AuthResult is returned by every successful login or upgrade.
type AuthResult struct {
	AccessToken string
	Identity    *domain.Identity
}
