package v1

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"google.golang.org/api/idtoken"

	"github.com/nextplay-sports/platform-api/internal/auth"
	"github.com/nextplay-sports/platform-api/internal/config"
	"github.com/nextplay-sports/platform-api/internal/models"
	"github.com/nextplay-sports/platform-api/internal/service"
	"github.com/nextplay-sports/platform-api/internal/utils"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

type AuthHandler struct {
	cfg   *config.Config
	user  *service.UserService
	store *serviceStore
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResp struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

func NewAuthHandler(cfg *config.Config, userSvc *service.UserService, store serviceStore) *AuthHandler {
	return &AuthHandler{cfg: cfg, user: userSvc, store: &store}
}

// Signup handler. Coaches cannot self-register; they go through the
// application review flow.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email     string `json:"email"`
		Password  string `json:"password"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Role      string `json:"role"` // Optional: "athlete", "parent", or "recruiter"
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSONResponse(w, http.StatusBadRequest, false, "Invalid Request body", nil, err.Error())
		return
	}

	// Validate and set role
	role := models.RoleAthlete // default role
	if req.Role != "" {
		roleStr := strings.ToLower(strings.TrimSpace(req.Role))
		switch roleStr {
		case "athlete":
			role = models.RoleAthlete
		case "parent":
			role = models.RoleParent
		case "recruiter":
			role = models.RoleRecruiter
		default:
			utils.WriteJSONResponse(w, http.StatusBadRequest, false, "Invalid role. Must be 'athlete', 'parent', or 'recruiter'", nil, nil)
			return
		}
	}

	user, err := h.user.CreateUser(r.Context(), req.Email, req.Password, req.FirstName, req.LastName, role, "")
	if err != nil {
		utils.WriteJSONResponse(w, http.StatusBadRequest, false, "error creating user", nil, err.Error())
		return
	}
	utils.WriteJSONResponse(w, http.StatusCreated, true, "user created", map[string]interface{}{
		"user_id": user.ID,
		"role":    user.Role,
	}, nil)
}

// Login handler
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSONResponse(w, http.StatusBadRequest, false, "Invalid request", nil, err.Error())
		return
	}
	u, err := h.store.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		utils.WriteJSONResponse(w, http.StatusUnauthorized, false, "invalid credentials", nil, nil)
		return
	}
	ok, err := utils.ComparePasswordAndHash(req.Password, u.PasswordHash)
	if err != nil || !ok {
		utils.WriteJSONResponse(w, http.StatusUnauthorized, false, "invalid credentials", nil, nil)
		return
	}
	if !u.Active {
		utils.WriteJSONResponse(w, http.StatusForbidden, false, "account disabled", nil, nil)
		return
	}
	h.issueTokens(w, r, u, "login successful")
}

// issueTokens generates access + refresh tokens and sets the refresh cookie.
func (h *AuthHandler) issueTokens(w http.ResponseWriter, r *http.Request, u *models.User, msg string) {
	access, err := auth.GenerateAccessToken(h.cfg, u.ID, string(u.Role))
	if err != nil {
		utils.WriteJSONResponse(w, http.StatusInternalServerError, false, "token error", nil, err.Error())
		return
	}
	rt := utils.RandomToken()
	expires := time.Now().Add(h.cfg.RefreshTokenTTL)
	if err := h.store.SaveRefreshToken(r.Context(), u.ID, rt, expires); err != nil {
		utils.WriteJSONResponse(w, http.StatusInternalServerError, false, "save refresh token error", nil, err.Error())
		return
	}
	h.setRefreshCookie(w, r, rt, expires)
	resp := tokenResp{AccessToken: access, ExpiresIn: int64(h.cfg.AccessTokenTTL.Seconds())}
	utils.WriteJSONResponse(w, http.StatusOK, true, msg, resp, nil)
}

func (h *AuthHandler) setRefreshCookie(w http.ResponseWriter, r *http.Request, value string, expires time.Time) {
	host := r.Host // example: "api.myapp.com" or "localhost:8080"
	if strings.Contains(host, ":") {
		host = strings.Split(host, ":")[0]
	}
	http.SetCookie(w, &http.Cookie{
		Name:     "refresh_token",
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   false, //set true in production
		SameSite: http.SameSiteLaxMode,
		Domain:   host,
		Expires:  expires,
	})
}

// Logout revokes the refresh token from the cookie and clears it.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie("refresh_token")
	if err != nil || cookie.Value == "" {
		utils.WriteJSONResponse(w, http.StatusBadRequest, false, "missing refresh token cookie", nil, nil)
		return
	}
	if err := h.store.RevokeRefreshToken(r.Context(), cookie.Value); err != nil {
		utils.WriteJSONResponse(w, http.StatusInternalServerError, false, "revoke error", nil, err.Error())
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     "refresh_token",
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
	utils.WriteJSONResponse(w, http.StatusOK, true, "logged out", nil, nil)
}

// Refresh handler rotates refresh tokens and returns new access + refresh
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie("refresh_token")
	if err != nil || cookie.Value == "" {
		utils.WriteJSONResponse(w, http.StatusBadRequest, false, "missing refresh token cookie", nil, nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	// 1) verify token exists and not revoked
	rt, err := h.store.FindRefreshToken(ctx, cookie.Value)
	if err != nil || rt == nil {
		utils.WriteJSONResponse(w, http.StatusUnauthorized, false, "invalid refresh token", nil, nil)
		return
	}

	// 2) rotate refresh token (revokes old, inserts new, in a tx)
	newPlain := utils.RandomToken()
	newExpiry := time.Now().Add(h.cfg.RefreshTokenTTL)
	if _, err := h.store.RotateRefreshToken(ctx, cookie.Value, newPlain, newExpiry); err != nil {
		// rotation failed (token may have been concurrently revoked/expired)
		utils.WriteJSONResponse(w, http.StatusUnauthorized, false, "invalid refresh token", nil, nil)
		return
	}
	u, err := h.store.GetUserByID(r.Context(), rt.UserID)
	if err != nil || u == nil {
		utils.WriteJSONResponse(w, http.StatusInternalServerError, false, "user not found", nil, nil)
		return
	}
	// 3) create short-lived access token for the same user
	accessToken, err := auth.GenerateAccessToken(h.cfg, u.ID, string(u.Role))
	if err != nil {
		utils.WriteJSONResponse(w, http.StatusInternalServerError, false, "could not create access token", nil, nil)
		return
	}

	h.setRefreshCookie(w, r, newPlain, newExpiry)
	resp := tokenResp{AccessToken: accessToken, ExpiresIn: int64(h.cfg.AccessTokenTTL.Seconds())}
	utils.WriteJSONResponse(w, http.StatusOK, true, "refresh successful", resp, nil)
}

func (h *AuthHandler) GoogleSignIn(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code string `json:"code"` // authorization code from client
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Code == "" {
		utils.WriteJSONResponse(w, http.StatusBadRequest, false, "bad request", nil, "missing code")
		return
	}

	ctx := r.Context()
	oauthCfg := &oauth2.Config{
		ClientID:     h.cfg.GoogleClientID,
		ClientSecret: h.cfg.GoogleClientSecret,
		RedirectURL:  h.cfg.GoogleRedirectURL,
		Endpoint:     google.Endpoint,
		Scopes:       []string{"openid", "email", "profile"},
	}

	// Exchange the code for tokens (server-side exchange using client secret)
	token, err := oauthCfg.Exchange(ctx, req.Code)
	if err != nil {
		utils.WriteJSONResponse(w, http.StatusUnauthorized, false, "code exchange failed", nil, err.Error())
		return
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		utils.WriteJSONResponse(w, http.StatusUnauthorized, false, "id_token not present in token response", nil, nil)
		return
	}

	// Validate id_token (audience must be our client id)
	payload, err := idtoken.Validate(ctx, rawIDToken, h.cfg.GoogleClientID)
	if err != nil {
		utils.WriteJSONResponse(w, http.StatusUnauthorized, false, "invalid id token", nil, err.Error())
		return
	}

	emailAddr, _ := payload.Claims["email"].(string)
	if emailAddr == "" {
		utils.WriteJSONResponse(w, http.StatusBadRequest, false, "email not present in token", nil, nil)
		return
	}
	firstName, _ := payload.Claims["given_name"].(string)
	lastName, _ := payload.Claims["family_name"].(string)
	picture, _ := payload.Claims["picture"].(string)

	// find or create user (passwordless)
	u, err := h.store.GetUserByEmail(ctx, emailAddr)
	if err != nil {
		created, err2 := h.user.CreateUser(ctx, emailAddr, "", firstName, lastName, models.RoleAthlete, picture)
		if err2 != nil {
			utils.WriteJSONResponse(w, http.StatusInternalServerError, false, "error creating user", nil, err2.Error())
			return
		}
		u, err = h.store.GetUserByID(ctx, created.ID)
		if err != nil {
			utils.WriteJSONResponse(w, http.StatusInternalServerError, false, "error loading user", nil, nil)
			return
		}
	}
	if !u.Active {
		utils.WriteJSONResponse(w, http.StatusForbidden, false, "account disabled", nil, nil)
		return
	}
	h.issueTokens(w, r, u, "login successful")
}

// SetupPassword consumes an emailed one-shot token (coach provisioning,
// password reset) and sets the account password.
func (h *AuthHandler) SetupPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token       string `json:"token"`
		NewPassword string `json:"new_password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSONResponse(w, http.StatusBadRequest, false, "invalid request", nil, err.Error())
		return
	}
	if req.Token == "" || len(req.NewPassword) < 6 {
		utils.WriteJSONResponse(w, http.StatusBadRequest, false, "token and a password of at least 6 characters are required", nil, nil)
		return
	}
	userID, err := h.store.ConsumeSetupToken(r.Context(), req.Token)
	if err != nil {
		utils.WriteJSONResponse(w, http.StatusUnauthorized, false, "invalid or expired token", nil, nil)
		return
	}
	hash, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		utils.WriteJSONResponse(w, http.StatusInternalServerError, false, "error hashing password", nil, nil)
		return
	}
	if err := h.store.UpdateUserFields(r.Context(), userID, map[string]interface{}{"password_hash": hash}); err != nil {
		utils.WriteJSONResponse(w, http.StatusInternalServerError, false, "error updating password", nil, nil)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, true, "password set", nil, nil)
}
