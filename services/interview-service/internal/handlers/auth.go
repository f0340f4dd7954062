package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/knakajima/slotpicker/libs/auth"
	"github.com/knakajima/slotpicker/services/interview-service/internal/tokens"
	"golang.org/x/oauth2"
)

const stateCookie = "sp_oauth_state"

const userinfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// AuthHandler drives the Google OAuth consent flow and issues the session
// cookie. access_type=offline with prompt=consent makes Google return a
// refresh token, which the calendar fetch layer depends on.
type AuthHandler struct {
	oauth        *oauth2.Config
	tokens       *tokens.Repository
	logger       *slog.Logger
	secret       string
	sessionTTL   time.Duration
	secureCookie bool
	postLogin    string
	now          func() time.Time
}

type AuthHandlerConfig struct {
	OAuth         *oauth2.Config
	Tokens        *tokens.Repository
	Logger        *slog.Logger
	SessionSecret string
	SessionTTL    time.Duration
	SecureCookie  bool
	PostLoginURL  string
}

func NewAuthHandler(cfg AuthHandlerConfig) *AuthHandler {
	ttl := cfg.SessionTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	postLogin := cfg.PostLoginURL
	if postLogin == "" {
		postLogin = "/"
	}
	return &AuthHandler{
		oauth:        cfg.OAuth,
		tokens:       cfg.Tokens,
		logger:       cfg.Logger,
		secret:       cfg.SessionSecret,
		sessionTTL:   ttl,
		secureCookie: cfg.SecureCookie,
		postLogin:    postLogin,
		now:          time.Now,
	}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	state := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})

	url := h.oauth.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
	)
	http.Redirect(w, r, url, http.StatusFound)
}

func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "consent was denied"})
		return
	}

	state := r.URL.Query().Get("state")
	cookie, err := r.Cookie(stateCookie)
	if err != nil || state == "" || cookie.Value != state {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "state mismatch"})
		return
	}
	clearCookie(w, stateCookie, h.secureCookie)

	code := r.URL.Query().Get("code")
	if code == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "code is required"})
		return
	}

	tok, err := h.oauth.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("oauth code exchange failed", "err", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "code exchange failed"})
		return
	}

	email, name, err := h.fetchUserinfo(r.Context(), tok)
	if err != nil {
		h.logger.Error("userinfo fetch failed", "err", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "failed to resolve account"})
		return
	}

	if err := h.tokens.Upsert(r.Context(), email, tok.AccessToken, tok.RefreshToken, tok.Expiry); err != nil {
		h.logger.Error("failed to store google tokens", "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to store credentials"})
		return
	}

	now := h.now()
	session, err := auth.SignHS256(auth.Claims{
		Sub:  email,
		Name: name,
		Iat:  now.Unix(),
		Exp:  now.Add(h.sessionTTL).Unix(),
	}, h.secret)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to issue session"})
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    session,
		Path:     "/",
		MaxAge:   int(h.sessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, h.postLogin, http.StatusFound)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	clearCookie(w, SessionCookie, h.secureCookie)
	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		unauthorized(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"email": principal.Email,
		"name":  principal.Name,
	})
}

func (h *AuthHandler) fetchUserinfo(ctx context.Context, tok *oauth2.Token) (email, name string, err error) {
	client := h.oauth.Client(ctx, tok)
	resp, err := client.Get(userinfoURL)
	if err != nil {
		return "", "", err
	}
	defer func() { _ = resp.Body.Close() }()

	var info struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return "", "", err
	}
	if info.Email == "" {
		return "", "", errNoEmail
	}
	return info.Email, info.Name, nil
}

var errNoEmail = errors.New("userinfo response carried no email")

func clearCookie(w http.ResponseWriter, name string, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}
