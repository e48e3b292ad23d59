package handler

import (
	"net/http"

	"github.com/truongnet3103/albion-GE/internal/logger"
	"github.com/truongnet3103/albion-GE/internal/metrics"
	"github.com/truongnet3103/albion-GE/internal/model"
	"github.com/truongnet3103/albion-GE/internal/service"

	"github.com/gin-gonic/gin"
)

type ReviewHandler struct {
	reviews *service.ReviewStore
	roster  *service.RosterService
	metrics *metrics.Metrics
}

func NewReviewHandler(reviews *service.ReviewStore, roster *service.RosterService, m *metrics.Metrics) *ReviewHandler {
	return &ReviewHandler{reviews: reviews, roster: roster, metrics: m}
}

// GET /api/review/:token
func (h *ReviewHandler) Get(c *gin.Context) {
	sess, err := h.reviews.Get(c.GetInt("user_id"), c.Param("token"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, reviewResponse(h.reviews, sess))
}

// PUT /api/review/:token  body: {"rows":[...]}
func (h *ReviewHandler) Update(c *gin.Context) {
	var req model.UpdateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	sess, err := h.reviews.Replace(c.GetInt("user_id"), c.Param("token"), req.Rows)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, reviewResponse(h.reviews, sess))
}

// DELETE /api/review/:token
func (h *ReviewHandler) Cancel(c *gin.Context) {
	if err := h.reviews.Delete(c.GetInt("user_id"), c.Param("token")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// Commit handles POST /api/review/:token/commit  body: {"event_id":"..."}.
// The session is consumed on success and kept for another try on failure.
func (h *ReviewHandler) Commit(c *gin.Context) {
	var req model.CommitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	uid := c.GetInt("user_id")
	sess, err := h.reviews.Take(uid, c.Param("token"))
	if err != nil {
		writeError(c, err)
		return
	}

	res, err := h.roster.Commit(c.Request.Context(), req.EventID, sess.Rows)
	if err != nil {
		h.reviews.Restore(sess)
		h.metrics.ObserveCommit("error", 0)
		logger.Warn("commit.failed", "uid", uid, "event", req.EventID, "token", sess.Token, "err", err)
		writeError(c, err)
		return
	}

	h.metrics.ObserveCommit("ok", res.AttendanceWritten)
	logger.Info("commit.done", "uid", uid, "event", res.EventID, "rows", res.AttendanceWritten,
		"created", res.MembersCreated, "updated", res.MembersUpdated, "counted", res.Counted,
		"mode", h.roster.Mode())
	c.JSON(http.StatusOK, res)
}
