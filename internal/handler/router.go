package handler

import (
	"net/http"

	"github.com/truongnet3103/albion-GE/internal/metrics"
	"github.com/truongnet3103/albion-GE/internal/middleware"
	"github.com/truongnet3103/albion-GE/internal/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Deps is everything the HTTP layer needs. Archive and Metrics may be nil.
type Deps struct {
	Auth         *service.AuthService
	Extract      *service.ExtractService
	Reviews      *service.ReviewStore
	Roster       *service.RosterService
	Members      *service.MemberService
	Reports      *service.ReportService
	Settings     *service.SettingsService
	Licenses     *service.LicenseService
	Maintenance  *service.MaintenanceService
	Archive      service.Archiver
	Metrics      *metrics.Metrics
	MaxImages    int
	MaxImageMB   int
	LicenseGated bool
	RoleHistory  bool
	Static       http.FileSystem
}

func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.LicenseHeader},
		ExposeHeaders:    []string{"X-New-Token", "Content-Disposition"},
		AllowCredentials: true,
	}))
	r.Use(middleware.RequestMetrics(d.Metrics))

	authH := NewAuthHandler(d.Auth)
	scanH := NewScanHandler(d.Extract, d.Reviews, d.Archive, d.Metrics, d.MaxImages, d.MaxImageMB)
	reviewH := NewReviewHandler(d.Reviews, d.Roster, d.Metrics)
	eventH := NewEventHandler(d.Roster)
	memberH := NewMemberHandler(d.Members, d.Reports)
	settingsH := NewSettingsHandler(d.Settings, d.Roster, d.LicenseGated, d.RoleHistory)
	adminH := NewAdminHandler(d.Maintenance)

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	if reg := d.Metrics.Registry(); reg != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	}

	r.POST("/api/login", authH.Login)
	api := r.Group("/api", middleware.JWTAuth())
	gate := middleware.LicenseGate(d.LicenseGated, d.Licenses, writeError)

	api.GET("/events", eventH.List)
	api.POST("/events", eventH.Create)
	api.DELETE("/events/:id", eventH.Delete)
	api.GET("/events/:id/attendance", eventH.Attendance)

	api.POST("/scan", gate, scanH.Scan)
	api.GET("/review/:token", reviewH.Get)
	api.PUT("/review/:token", reviewH.Update)
	api.DELETE("/review/:token", reviewH.Cancel)
	api.POST("/review/:token/commit", gate, reviewH.Commit)

	api.GET("/members", memberH.List)
	api.POST("/members", memberH.Add)
	api.PUT("/members/:name", memberH.Update)
	api.DELETE("/members/:name", memberH.Delete)
	api.GET("/members/:name/report", memberH.Report)
	api.GET("/export/members.csv", memberH.Export)
	api.GET("/stats", memberH.Stats)

	api.GET("/settings", settingsH.Get)
	api.PUT("/settings", settingsH.Update)
	api.POST("/admin/wipe", adminH.Wipe)

	if d.Static != nil {
		r.NoRoute(gin.WrapH(http.FileServer(d.Static)))
	}
	return r
}
