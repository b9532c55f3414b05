package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	user "packtrack-system/internal/services/user/handler"
)

type UserHTTPHandler struct {
	service *user.UserHandler
}

func NewUserHTTPHandler(service *user.UserHandler) *UserHTTPHandler {
	return &UserHTTPHandler{
		service: service,
	}
}

func (s *UserHTTPHandler) Register(c *gin.Context) {
	var req user.RegisterInput
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	created, err := s.service.Register(c.Request.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, user.ErrMissingFields), errors.Is(err, user.ErrUnknownRole):
			fail(c, http.StatusBadRequest, err.Error())
		case errors.Is(err, user.ErrUserExists):
			fail(c, http.StatusConflict, err.Error())
		default:
			fail(c, http.StatusInternalServerError, "Failed to register: "+err.Error())
		}
		return
	}

	success(c, created)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *UserHTTPHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	result, err := s.service.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, user.ErrInvalidCredentials) {
			fail(c, http.StatusUnauthorized, err.Error())
			return
		}
		fail(c, http.StatusInternalServerError, "Failed to log in: "+err.Error())
		return
	}

	success(c, result)
}

func (s *UserHTTPHandler) GetUser(c *gin.Context) {
	id, err := parseInt64Param(c, "id")
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid user ID")
		return
	}

	found, err := s.service.GetUser(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			fail(c, http.StatusNotFound, err.Error())
			return
		}
		fail(c, http.StatusInternalServerError, "Failed to get user: "+err.Error())
		return
	}

	success(c, found)
}

func (s *UserHTTPHandler) ListUsers(c *gin.Context) {
	users, err := s.service.ListUsers(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, "Failed to list users: "+err.Error())
		return
	}

	success(c, users)
}

func (s *UserHTTPHandler) ListRoles(c *gin.Context) {
	roles, err := s.service.ListRoles(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, "Failed to list roles: "+err.Error())
		return
	}

	success(c, roles)
}
