package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"evmalert/backend/services/alert-service/internal/auth"
)

// Authenticator issues tokens for operator credentials.
type Authenticator interface {
	Login(login, password string) (*auth.TokenResponse, error)
}

// AuthHandlers serves token issuance.
type AuthHandlers struct {
	auth   Authenticator
	logger *zap.Logger
}

// NewAuthHandlers returns handler struct.
func NewAuthHandlers(authenticator Authenticator, logger *zap.Logger) *AuthHandlers {
	return &AuthHandlers{auth: authenticator, logger: logger}
}

type tokenRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

// Token handles POST /api/auth/token.
func (h *AuthHandlers) Token(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}
	resp, err := h.auth.Login(req.Login, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		h.logger.Error("token issue failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "token issue failed")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
