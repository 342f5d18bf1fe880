package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/roamio/roamio/internal/auth"
	"github.com/roamio/roamio/pkg/httputil"
	"github.com/roamio/roamio/pkg/validator"
)

// AuthHandler handles HTTP requests for admin authentication.
type AuthHandler struct {
	credentials *auth.Credentials
	jwtManager  *auth.JWTManager
	logger      *slog.Logger
}

// NewAuthHandler creates a new auth HTTP handler.
func NewAuthHandler(credentials *auth.Credentials, jwtManager *auth.JWTManager, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		credentials: credentials,
		jwtManager:  jwtManager,
		logger:      logger,
	}
}

// LoginRequest is the JSON request body for admin login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse carries the issued access token.
type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Login handles POST /api/v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	// Limit request body to 1MB to prevent DoS via large payloads.
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	if err := h.credentials.Authenticate(req.Email, req.Password); err != nil {
		h.logger.WarnContext(r.Context(), "login failed",
			slog.String("email", req.Email),
		)
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	token, err := h.jwtManager.GenerateAccessToken("admin", req.Email, auth.AdminRole)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	h.logger.InfoContext(r.Context(), "admin logged in",
		slog.String("email", req.Email),
	)

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: LoginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
	}})
}
