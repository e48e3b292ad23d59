package handler

import (
	"fmt"
	"net/http"

	"github.com/truongnet3103/albion-GE/internal/logger"
	"github.com/truongnet3103/albion-GE/internal/model"
	"github.com/truongnet3103/albion-GE/internal/service"

	"github.com/gin-gonic/gin"
)

type MemberHandler struct {
	members *service.MemberService
	reports *service.ReportService
}

func NewMemberHandler(members *service.MemberService, reports *service.ReportService) *MemberHandler {
	return &MemberHandler{members: members, reports: reports}
}

// GET /api/members
func (h *MemberHandler) List(c *gin.Context) {
	views, err := h.members.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, views)
}

// POST /api/members  body: {"name":"...","role":"Tank"}
func (h *MemberHandler) Add(c *gin.Context) {
	var req model.AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	m, err := h.members.Add(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	logger.Info("member.added", "uid", c.GetInt("user_id"), "member", m.Name)
	c.JSON(http.StatusCreated, m)
}

// PUT /api/members/:name  body: {"participation_count":3,"last_role":"Healer"}
func (h *MemberHandler) Update(c *gin.Context) {
	var patch model.MemberPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	name := c.Param("name")
	m, err := h.members.Update(c.Request.Context(), name, patch)
	if err != nil {
		writeError(c, err)
		return
	}
	logger.Info("member.edited", "uid", c.GetInt("user_id"), "member", name, "count", m.ParticipationCount)
	c.JSON(http.StatusOK, m)
}

// DELETE /api/members/:name
func (h *MemberHandler) Delete(c *gin.Context) {
	name := c.Param("name")
	if err := h.members.Delete(c.Request.Context(), name); err != nil {
		writeError(c, err)
		return
	}
	logger.Info("member.deleted", "uid", c.GetInt("user_id"), "member", name)
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// GET /api/members/:name/report
func (h *MemberHandler) Report(c *gin.Context) {
	text, err := h.reports.Render(c.Request.Context(), c.Param("name"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.String(http.StatusOK, text)
}

// GET /api/export/members.csv
func (h *MemberHandler) Export(c *gin.Context) {
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, h.members.ExportFilename()))
	if err := h.members.ExportCSV(c.Request.Context(), c.Writer); err != nil {
		logger.Error("export.failed", "err", err)
		if !c.Writer.Written() {
			c.Writer.Header().Del("Content-Type")
			c.Writer.Header().Del("Content-Disposition")
			writeError(c, err)
		}
	}
}

// GET /api/stats?month=2026-10
func (h *MemberHandler) Stats(c *gin.Context) {
	st, err := h.members.Stats(c.Request.Context(), c.Query("month"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}
