package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/tourhub-api/internal/application"
	"github.com/oksasatya/tourhub-api/internal/domain/entity"
	"github.com/oksasatya/tourhub-api/internal/interface/middleware"
	"github.com/oksasatya/tourhub-api/pkg/apperror"
	"github.com/oksasatya/tourhub-api/pkg/response"
)

// passwordFields may not be changed through the profile route.
var passwordFields = []string{"password", "passwordConfirm", "passwordCurrent"}

// UserHandler serves the self-service profile routes and the admin user
// routes. Principals are never physically deleted.
type UserHandler struct {
	Auth   *application.AuthService
	Users  *application.Resource[*entity.User]
	Logger *logrus.Logger
}

func NewUserHandler(auth *application.AuthService, users *application.Resource[*entity.User], logger *logrus.Logger) *UserHandler {
	return &UserHandler{Auth: auth, Users: users, Logger: logger}
}

type deleteMeRequest struct {
	Password string `json:"password"`
}

// Me GET /users/me
func (h *UserHandler) Me(c *gin.Context) {
	doc, err := h.Users.GetOne(c.Request.Context(), middleware.CurrentUser(c).ID)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"data": doc}, "")
}

// UpdateMe PATCH /users/updateMe. Only name, email and photo are accepted.
func (h *UserHandler) UpdateMe(c *gin.Context) {
	var raw map[string]any
	if err := bindJSON(c, &raw); err != nil {
		fail(c, err)
		return
	}
	for _, k := range passwordFields {
		if _, ok := raw[k]; ok {
			fail(c, apperror.Validation("This route is not for password updates. Please use /updateMyPassword.", nil))
			return
		}
	}

	var in application.ProfileInput
	for key, dst := range map[string]**string{"name": &in.Name, "email": &in.Email, "photo": &in.Photo} {
		v, ok := raw[key]
		if !ok {
			continue
		}
		s, ok := v.(string)
		if !ok {
			fail(c, apperror.Validation("Invalid input data", map[string]string{key: "must be a string"}))
			return
		}
		*dst = &s
	}

	u, err := h.Auth.UpdateProfile(c.Request.Context(), middleware.CurrentUser(c), in)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"user": h.Users.Document(u)}, "")
}

// DeleteMe DELETE /users/deleteMe. Deactivates the caller after a password
// check.
func (h *UserHandler) DeleteMe(c *gin.Context) {
	var req deleteMeRequest
	if err := bindJSON(c, &req); err != nil {
		fail(c, err)
		return
	}
	if err := h.Auth.DeleteMe(c.Request.Context(), middleware.CurrentUser(c), req.Password); err != nil {
		fail(c, err)
		return
	}
	response.NoContent(c)
}

// List GET /users (admin). Deactivated principals are never listed.
func (h *UserHandler) List(c *gin.Context) {
	docs, err := h.Users.GetAll(c.Request.Context(), c.Request.URL.Query(), application.ActiveUsers)
	if err != nil {
		fail(c, err)
		return
	}
	response.List(c, "data", docs)
}

// Get GET /users/:id (admin)
func (h *UserHandler) Get(c *gin.Context) {
	doc, err := h.Users.GetOne(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"data": doc}, "")
}

// Create POST /users (admin). Principals come from signup only.
func (h *UserHandler) Create(c *gin.Context) {
	fail(c, apperror.Validation("This route is not defined! Please use /signup instead", nil))
}

// Update PATCH /users/:id (admin). Credentials cannot be patched.
func (h *UserHandler) Update(c *gin.Context) {
	var patch map[string]any
	if err := bindJSON(c, &patch); err != nil {
		fail(c, err)
		return
	}
	for _, k := range passwordFields {
		delete(patch, k)
	}
	u, err := h.Users.UpdateOne(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"data": h.Users.Document(u)}, "")
}

// Delete DELETE /users/:id (admin). Soft delete.
func (h *UserHandler) Delete(c *gin.Context) {
	if err := h.Auth.Deactivate(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	response.NoContent(c)
}
