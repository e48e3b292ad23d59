package handler

import (
	"net/http"

	"github.com/truongnet3103/albion-GE/internal/logger"
	"github.com/truongnet3103/albion-GE/internal/model"
	"github.com/truongnet3103/albion-GE/internal/service"

	"github.com/gin-gonic/gin"
)

// SettingsHandler exposes the shared settings admins can change at runtime.
// The shared key is write-only: reads only report whether one is set.
type SettingsHandler struct {
	settings     *service.SettingsService
	roster       *service.RosterService
	licenseGated bool
	roleHistory  bool
}

func NewSettingsHandler(settings *service.SettingsService, roster *service.RosterService, licenseGated, roleHistory bool) *SettingsHandler {
	return &SettingsHandler{settings: settings, roster: roster, licenseGated: licenseGated, roleHistory: roleHistory}
}

// GET /api/settings
func (h *SettingsHandler) Get(c *gin.Context) {
	st, err := h.current(c)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// PUT /api/settings  body: {"monthly_target":4,"gemini_api_key":"..."}
func (h *SettingsHandler) Update(c *gin.Context) {
	var req model.UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	ctx := c.Request.Context()
	if req.MonthlyTarget != nil {
		if err := h.settings.SetMonthlyTarget(ctx, *req.MonthlyTarget); err != nil {
			writeError(c, err)
			return
		}
		logger.Info("settings.target", "uid", c.GetInt("user_id"), "target", *req.MonthlyTarget)
	}
	if req.GeminiAPIKey != nil {
		if err := h.settings.SetSharedAPIKey(ctx, *req.GeminiAPIKey); err != nil {
			writeError(c, err)
			return
		}
		logger.Info("settings.shared_key", "uid", c.GetInt("user_id"), "cleared", *req.GeminiAPIKey == "")
	}
	st, err := h.current(c)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (h *SettingsHandler) current(c *gin.Context) (*model.Settings, error) {
	ctx := c.Request.Context()
	target, err := h.settings.MonthlyTarget(ctx)
	if err != nil {
		return nil, err
	}
	key, err := h.settings.SharedAPIKey(ctx)
	if err != nil {
		return nil, err
	}
	return &model.Settings{
		MonthlyTarget: target,
		SharedKeySet:  key != "",
		LicenseGated:  h.licenseGated,
		RoleHistory:   h.roleHistory,
		CountPerEvent: h.roster.Mode() == service.CountPerEvent,
	}, nil
}
