package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/tourhub-api/internal/application"
	"github.com/oksasatya/tourhub-api/internal/interface/middleware"
	"github.com/oksasatya/tourhub-api/pkg/helpers"
	"github.com/oksasatya/tourhub-api/pkg/response"
)

type AuthHandler struct {
	Auth    *application.AuthService
	Cookies *helpers.Manager
	Logger  *logrus.Logger
}

func NewAuthHandler(auth *application.AuthService, cookies *helpers.Manager, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{Auth: auth, Cookies: cookies, Logger: logger}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

// sendToken sets the session cookie and answers with the token and the
// principal.
func (h *AuthHandler) sendToken(c *gin.Context, code int, res *application.AuthResult) {
	h.Cookies.SetToken(c, res.Token, res.ExpiresAt)
	response.WithToken(c, code, res.Token, gin.H{"user": res.User})
}

// Signup POST /users/signup
func (h *AuthHandler) Signup(c *gin.Context) {
	var req application.SignupInput
	if err := bindJSON(c, &req); err != nil {
		fail(c, err)
		return
	}
	res, err := h.Auth.Signup(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	h.sendToken(c, http.StatusCreated, res)
}

// Login POST /users/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := bindJSON(c, &req); err != nil {
		fail(c, err)
		return
	}
	res, err := h.Auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		fail(c, err)
		return
	}
	h.sendToken(c, http.StatusOK, res)
}

// Logout GET /users/logout. The token stays valid until it expires; only
// the cookie is overwritten.
func (h *AuthHandler) Logout(c *gin.Context) {
	h.Cookies.ClearToken(c)
	response.Success[any](c, http.StatusOK, nil, "")
}

// ForgotPassword POST /users/forgotPassword. The answer is the same whether
// or not the email is registered.
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req forgotPasswordRequest
	if err := bindJSON(c, &req); err != nil {
		fail(c, err)
		return
	}
	if err := h.Auth.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		fail(c, err)
		return
	}
	response.Success[any](c, http.StatusOK, nil, "Token sent to email!")
}

// ResetPassword PATCH /users/resetPassword/:token
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req application.PasswordInput
	if err := bindJSON(c, &req); err != nil {
		fail(c, err)
		return
	}
	res, err := h.Auth.ResetPassword(c.Request.Context(), c.Param("token"), req)
	if err != nil {
		fail(c, err)
		return
	}
	h.sendToken(c, http.StatusOK, res)
}

// UpdateMyPassword PATCH /users/updateMyPassword (protected)
func (h *AuthHandler) UpdateMyPassword(c *gin.Context) {
	var req application.UpdatePasswordInput
	if err := bindJSON(c, &req); err != nil {
		fail(c, err)
		return
	}
	res, err := h.Auth.UpdatePassword(c.Request.Context(), middleware.CurrentUser(c), req)
	if err != nil {
		fail(c, err)
		return
	}
	h.sendToken(c, http.StatusOK, res)
}
