package auth

import (
	"crypto/subtle"
	"errors"
	"time"
)

// ErrInvalidCredentials is returned for an unknown login or a wrong password.
var ErrInvalidCredentials = errors.New("auth: invalid credentials")

// TokenResponse is returned to a logged-in operator.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// OperatorService checks the single configured operator account.
type OperatorService struct {
	login    string
	hash     string
	verifier PasswordVerifier
	tokens   *TokenService
}

// NewOperatorService returns service. An empty hash disables login.
func NewOperatorService(login, hash string, verifier PasswordVerifier, tokens *TokenService) *OperatorService {
	return &OperatorService{login: login, hash: hash, verifier: verifier, tokens: tokens}
}

// Login verifies credentials and issues a token.
func (s *OperatorService) Login(login, password string) (*TokenResponse, error) {
	if s.hash == "" || login == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	if subtle.ConstantTimeCompare([]byte(login), []byte(s.login)) != 1 {
		return nil, ErrInvalidCredentials
	}
	if err := s.verifier.Verify(s.hash, password); err != nil {
		return nil, err
	}

	token, err := s.tokens.GenerateToken(login, RoleOperator)
	if err != nil {
		return nil, err
	}
	return &TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.tokens.ExpiresIn() / time.Second),
	}, nil
}
