package handler

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/truongnet3103/albion-GE/internal/logger"
	"github.com/truongnet3103/albion-GE/internal/metrics"
	"github.com/truongnet3103/albion-GE/internal/model"
	"github.com/truongnet3103/albion-GE/internal/service"

	"github.com/gin-gonic/gin"
)

var allowedImageTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/webp": true,
}

type ScanHandler struct {
	extract   *service.ExtractService
	reviews   *service.ReviewStore
	archive   service.Archiver
	metrics   *metrics.Metrics
	maxImages int
	maxBytes  int64
}

func NewScanHandler(extract *service.ExtractService, reviews *service.ReviewStore, archive service.Archiver,
	m *metrics.Metrics, maxImages, maxImageMB int) *ScanHandler {
	if maxImages <= 0 {
		maxImages = 1
	}
	if maxImageMB <= 0 {
		maxImageMB = 8
	}
	return &ScanHandler{
		extract: extract, reviews: reviews, archive: archive, metrics: m,
		maxImages: maxImages, maxBytes: int64(maxImageMB) << 20,
	}
}

// Scan handles POST /api/scan: screenshots (multipart "file", repeatable) or
// pasted "text", an optional per-session "api_key". On success the rows are
// parked in a review session; on failure nothing is kept.
func (h *ScanHandler) Scan(c *gin.Context) {
	var files []*multipart.FileHeader
	if form, err := c.MultipartForm(); err == nil {
		files = form.File["file"]
	}
	if len(files) > h.maxImages {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("at most %d screenshots per scan", h.maxImages)})
		return
	}

	images := make([]service.Image, 0, len(files))
	for _, fh := range files {
		img, err := h.readImage(fh)
		if err != nil {
			writeError(c, err)
			return
		}
		images = append(images, img)
	}

	in := service.ScanInput{Images: images, Text: c.PostForm("text"), APIKey: c.PostForm("api_key")}
	uid := c.GetInt("user_id")
	source := "text"
	if len(images) > 0 {
		source = "image"
	}
	logger.Info("scan.start", "uid", uid, "source", source, "images", len(images))

	start := time.Now()
	rows, err := h.extract.Extract(c.Request.Context(), in)
	if err != nil {
		h.metrics.ObserveScan(scanResult(err), 0, time.Since(start))
		logger.Warn("scan.failed", "uid", uid, "err", err)
		writeError(c, err)
		return
	}
	h.metrics.ObserveScan("ok", len(rows), time.Since(start))

	if h.archive != nil {
		for _, img := range images {
			if key, err := h.archive.Archive(c.Request.Context(), img); err != nil {
				logger.Warn("scan.archive_failed", "file", img.Filename, "err", err)
			} else {
				logger.Debug("scan.archived", "file", img.Filename, "key", key)
			}
		}
	}

	sess := h.reviews.Create(uid, source, rows)
	logger.Info("scan.done", "uid", uid, "token", sess.Token, "rows", len(sess.Rows), "issues", len(sess.Issues))
	c.JSON(http.StatusOK, reviewResponse(h.reviews, sess))
}

func (h *ScanHandler) readImage(fh *multipart.FileHeader) (service.Image, error) {
	if fh.Size > h.maxBytes {
		return service.Image{}, fmt.Errorf("%w: %s is larger than %d MB", service.ErrInvalidValue, fh.Filename, h.maxBytes>>20)
	}
	f, err := fh.Open()
	if err != nil {
		return service.Image{}, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, h.maxBytes+1))
	if err != nil {
		return service.Image{}, fmt.Errorf("read upload: %w", err)
	}
	mime := http.DetectContentType(data)
	if !allowedImageTypes[mime] {
		return service.Image{}, fmt.Errorf("%w: %s is %s, expected PNG, JPEG or WebP", service.ErrUnsupportedFile, fh.Filename, mime)
	}
	return service.Image{Filename: fh.Filename, MIMEType: mime, Data: data}, nil
}

func reviewResponse(store *service.ReviewStore, sess *service.ReviewSession) model.ReviewResponse {
	rows := sess.Rows
	if rows == nil {
		rows = []model.RosterRow{}
	}
	issues := sess.Issues
	if issues == nil {
		issues = []model.RowIssue{}
	}
	return model.ReviewResponse{
		Token:     sess.Token,
		Source:    sess.Source,
		Rows:      rows,
		Issues:    issues,
		CreatedAt: sess.CreatedAt,
		ExpiresAt: store.ExpiresAt(sess),
	}
}

func scanResult(err error) string {
	switch {
	case errors.Is(err, service.ErrQuotaExhausted):
		return "quota"
	case errors.Is(err, service.ErrNoRoster):
		return "no_roster"
	case errors.Is(err, service.ErrNoAPIKey):
		return "no_key"
	default:
		return "error"
	}
}
