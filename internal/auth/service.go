package auth

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"smartlibrary/internal/platform/crypto"
	"smartlibrary/internal/user"
)

var ErrUnauthorized = errors.New("unauthorized")

// Users is the account lookup login depends on.
type Users interface {
	GetByEmail(ctx context.Context, email string) (user.User, error)
}

// Token is an issued access token.
type Token struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresIn   int       `json:"expires_in"`
	ExpiresAt   time.Time `json:"expires_at"`
	User        user.User `json:"user"`
}

type Service struct {
	secret string
	ttl    time.Duration
	users  Users
	now    func() time.Time
}

func NewService(secret string, ttl time.Duration, users Users) *Service {
	return &Service{secret: secret, ttl: ttl, users: users, now: time.Now}
}

// Login verifies the credentials and issues a signed access token. Unknown
// emails and wrong passwords both yield ErrUnauthorized.
func (s *Service) Login(ctx context.Context, email, password string) (Token, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return Token{}, ErrUnauthorized
		}
		return Token{}, err
	}
	if !crypto.VerifyPassword(u.PasswordHash, password) {
		zerolog.Ctx(ctx).Warn().Int64("user_id", u.ID).Msg("login rejected")
		return Token{}, ErrUnauthorized
	}

	token, jti, err := crypto.GenerateToken(s.secret, u.ID, u.Role, s.ttl)
	if err != nil {
		return Token{}, err
	}

	zerolog.Ctx(ctx).Info().Int64("user_id", u.ID).Str("jti", jti).Msg("token issued")
	return Token{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int(s.ttl.Seconds()),
		ExpiresAt:   s.now().Add(s.ttl).UTC(),
		User:        u,
	}, nil
}
