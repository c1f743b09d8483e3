package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"github.com/heartmarshall/civic-client/internal/auth"
	"github.com/heartmarshall/civic-client/internal/domain"
	"github.com/heartmarshall/civic-client/internal/mockserver"
	"github.com/heartmarshall/civic-client/pkg/ctxutil"
)

// accountStore defines the account operations needed by AuthHandler.
type accountStore interface {
	CreateAccount(username, passwordHash string) (mockserver.Account, error)
	AccountByName(username string) (mockserver.Account, bool)
	AccountByID(id int64) (mockserver.Account, bool)
}

// tokenIssuer is implemented by *auth.JWTManager.
type tokenIssuer interface {
	GenerateAccessToken(userID int64, username string) (string, error)
	ValidateAccessToken(token string) (int64, string, error)
}

// AuthHandler serves the auth endpoints.
type AuthHandler struct {
	accounts accountStore
	tokens   tokenIssuer
	log      *slog.Logger
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(accounts accountStore, tokens tokenIssuer, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{accounts: accounts, tokens: tokens, log: logger.With("handler", "auth")}
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	User        userResponse `json:"user"`
}

type userResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// Register handles POST {prefix}/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	req, ok := h.readCredentials(w, r)
	if !ok {
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.internal(w, r, err)
		return
	}

	acc, err := h.accounts.CreateAccount(req.Username, hash)
	if errors.Is(err, mockserver.ErrUsernameTaken) {
		writeDetail(w, http.StatusBadRequest, "Username already registered")
		return
	}
	if err != nil {
		h.internal(w, r, err)
		return
	}

	h.log.InfoContext(r.Context(), "user registered", slog.Int64("user_id", acc.ID), slog.String("username", acc.Username))
	h.writeToken(w, r, http.StatusCreated, acc)
}

// Login handles POST {prefix}/login. JSON and form-encoded bodies are accepted.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	req, ok := h.readCredentials(w, r)
	if !ok {
		return
	}

	acc, found := h.accounts.AccountByName(req.Username)
	if !found || !auth.CheckPassword(acc.PasswordHash, req.Password) {
		writeDetail(w, http.StatusUnauthorized, "Invalid username or password")
		return
	}

	h.writeToken(w, r, http.StatusOK, acc)
}

// Me handles GET {prefix}/me.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	acc, ok := h.currentAccount(w, r)
	if !ok {
		return
	}
	writeJSONOK(w, userResponse{ID: acc.ID, Username: acc.Username})
}

// Authenticate resolves a bearer token for RequireAuth. Tokens of unknown
// accounts are rejected.
func (h *AuthHandler) Authenticate(_ context.Context, token string) (domain.User, error) {
	id, _, err := h.tokens.ValidateAccessToken(token)
	if err != nil {
		return domain.User{}, err
	}
	acc, ok := h.accounts.AccountByID(id)
	if !ok {
		return domain.User{}, fmt.Errorf("user %d not found", id)
	}
	return domain.User{ID: acc.ID, Username: acc.Username}, nil
}

func (h *AuthHandler) currentAccount(w http.ResponseWriter, r *http.Request) (mockserver.Account, bool) {
	id, _ := ctxutil.UserIDFromCtx(r.Context())
	acc, ok := h.accounts.AccountByID(id)
	if !ok {
		w.Header().Set("WWW-Authenticate", "Bearer")
		writeDetail(w, http.StatusUnauthorized, "User not found")
	}
	return acc, ok
}

func (h *AuthHandler) readCredentials(w http.ResponseWriter, r *http.Request) (credentialsRequest, bool) {
	var req credentialsRequest

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/x-www-form-urlencoded", "multipart/form-data":
		if err := r.ParseForm(); err != nil {
			writeDetail(w, http.StatusBadRequest, "invalid request body")
			return req, false
		}
		req.Username = r.PostFormValue("username")
		req.Password = r.PostFormValue("password")
	default:
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeDetail(w, http.StatusBadRequest, "invalid request body")
			return req, false
		}
	}

	var issues []fieldIssue
	if strings.TrimSpace(req.Username) == "" {
		issues = append(issues, missing("body", "username"))
	}
	if req.Password == "" {
		issues = append(issues, missing("body", "password"))
	}
	if len(issues) > 0 {
		writeUnprocessable(w, issues)
		return req, false
	}
	return req, true
}

func (h *AuthHandler) writeToken(w http.ResponseWriter, r *http.Request, status int, acc mockserver.Account) {
	token, err := h.tokens.GenerateAccessToken(acc.ID, acc.Username)
	if err != nil {
		h.internal(w, r, err)
		return
	}
	writeJSON(w, status, tokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		User:        userResponse{ID: acc.ID, Username: acc.Username},
	})
}

func (h *AuthHandler) internal(w http.ResponseWriter, r *http.Request, err error) {
	h.log.ErrorContext(r.Context(), "internal error", slog.String("error", err.Error()))
	writeDetail(w, http.StatusInternalServerError, "Internal Server Error")
}
