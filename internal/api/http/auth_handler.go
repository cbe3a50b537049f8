package http

import (
	"net/http"
	"time"

	"rental-marketplace-backend/internal/domain"
	"rental-marketplace-backend/internal/service"
)

type AuthHandler struct {
	auth    service.AuthService
	users   service.UserService
	cookies cookieJar
}

func NewAuthHandler(auth service.AuthService, users service.UserService, cookies cookieJar) *AuthHandler {
	return &AuthHandler{auth: auth, users: users, cookies: cookies}
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Address  string `json:"address"`
	Phone    string `json:"phone"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	User         *domain.User `json:"user"`
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	res, err := h.auth.Register(r.Context(), service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Address:  req.Address,
		Phone:    req.Phone,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	h.respondTokens(w, http.StatusCreated, "registration successful", res)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	res, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respondError(w, r, err)
		return
	}
	h.respondTokens(w, http.StatusOK, "login successful", res)
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	res, err := h.auth.Refresh(r.Context(), extractToken(r, refreshCookie))
	if err != nil {
		respondError(w, r, err)
		return
	}
	h.respondTokens(w, http.StatusOK, "token refreshed", res)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())
	if err := h.auth.Logout(r.Context(), claims.UserID, claims.ID, claims.ExpiresIn(time.Now())); err != nil {
		respondError(w, r, err)
		return
	}
	h.cookies.clear(w)
	respondJSON(w, http.StatusOK, "logged out", nil)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.Me(r.Context(), callerFrom(r).UserID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, "ok", user)
}

func (h *AuthHandler) respondTokens(w http.ResponseWriter, status int, message string, res *service.AuthResult) {
	h.cookies.set(w, res.AccessToken, res.RefreshToken)
	respondJSON(w, status, message, authResponse{
		User:         res.User,
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
	})
}
