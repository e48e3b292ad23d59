package handler

import (
	"net/http"

	"github.com/truongnet3103/albion-GE/internal/logger"
	"github.com/truongnet3103/albion-GE/internal/middleware"
	"github.com/truongnet3103/albion-GE/internal/model"
	"github.com/truongnet3103/albion-GE/internal/service"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct{ auth *service.AuthService }

func NewAuthHandler(auth *service.AuthService) *AuthHandler { return &AuthHandler{auth: auth} }

func (h *AuthHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	a, err := h.auth.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		logger.Warn("login.failed", "username", req.Username)
		writeError(c, err)
		return
	}

	token, err := middleware.IssueToken(a.ID, a.Name)
	if err != nil {
		writeError(c, err)
		return
	}
	logger.Info("login.ok", "uid", a.ID, "name", a.Name)

	c.JSON(http.StatusOK, model.LoginResponse{
		Token: token,
		User:  model.User{ID: a.ID, Name: a.Name},
	})
}
