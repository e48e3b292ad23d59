package handler

import (
	"net/http"

	"github.com/truongnet3103/albion-GE/internal/logger"
	"github.com/truongnet3103/albion-GE/internal/service"

	"github.com/gin-gonic/gin"
)

type AdminHandler struct{ maintenance *service.MaintenanceService }

func NewAdminHandler(m *service.MaintenanceService) *AdminHandler {
	return &AdminHandler{maintenance: m}
}

// Wipe handles POST /api/admin/wipe. One call clears at most one page per
// table; the response tells the caller whether to call again.
func (h *AdminHandler) Wipe(c *gin.Context) {
	res, err := h.maintenance.Wipe(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	more := false
	for _, n := range res.Deleted {
		if n > 0 {
			more = true
		}
	}
	logger.Warn("admin.wipe", "uid", c.GetInt("user_id"), "deleted", res.Deleted)
	c.JSON(http.StatusOK, gin.H{"deleted": res.Deleted, "call_again": more})
}
