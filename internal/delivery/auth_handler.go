package delivery

import (
	"errors"
	"net/http"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/Vovarama1992/nexcast/internal/domain"
	"github.com/Vovarama1992/nexcast/internal/ports"
)

type AuthHandler struct {
	auth ports.AuthService
	log  *logger.ZapLogger
}

func NewAuthHandler(auth ports.AuthService, log *logger.ZapLogger) *AuthHandler {
	return &AuthHandler{
		auth: auth,
		log:  log,
	}
}

// POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := decodeBody(w, r, &req); err != nil {
		Fail(w, r, h.log, "login", err)
		return
	}

	tokens, err := h.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		Fail(w, r, h.log, "login", err)
		return
	}

	h.log.Log(logger.LogEntry{
		Level:   "info",
		Message: "login success",
		Fields:  map[string]any{"username": req.Username},
	})

	writeJSON(w, http.StatusOK, map[string]string{
		"access_token":  tokens.AccessToken,
		"id_token":      tokens.IDToken,
		"refresh_token": tokens.RefreshToken,
	})
}

// POST /auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
		Email    string `json:"email"`
	}
	if err := decodeBody(w, r, &req); err != nil {
		Fail(w, r, h.log, "register", err)
		return
	}

	sub, err := h.auth.Register(r.Context(), req.Username, req.Password, req.Email)
	if err != nil {
		// a rejected sign-up is the caller's input problem, not a credential failure
		if errors.Is(err, domain.ErrUpstreamAuth) {
			failWith(w, r, h.log, "register", err, http.StatusBadRequest, "upstream_auth_error", "registration rejected")
			return
		}
		Fail(w, r, h.log, "register", err)
		return
	}

	h.log.Log(logger.LogEntry{
		Level:   "info",
		Message: "user registered",
		Fields:  map[string]any{"username": req.Username, "userSub": sub},
	})

	writeJSON(w, http.StatusCreated, map[string]string{
		"user_sub": sub,
		"message":  "User registered successfully",
	})
}
