// Package api exposes label printing and the job journal over HTTP.
package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/orrn/ptouch/internal/api/handlers"
	"github.com/orrn/ptouch/internal/api/middleware"
	"github.com/orrn/ptouch/internal/archive"
	"github.com/orrn/ptouch/internal/service"
)

type Deps struct {
	Service     *service.Service
	Jobs        handlers.JobStore
	Archiver    *archive.Archiver
	Auth        *middleware.AuthMiddleware
	Logger      *slog.Logger
	MaxUploadMB int
}

func NewRouter(deps Deps) *gin.Engine {
	if deps.Logger == nil {
		deps.Logger = slog.New(slog.DiscardHandler)
	}

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(deps.Logger))
	if deps.MaxUploadMB > 0 {
		r.MaxMultipartMemory = int64(deps.MaxUploadMB) << 20
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := r.Group("/api/v1")

	auth := v1.Group("/auth")
	auth.POST("/login", deps.Auth.LoginHandler)
	auth.POST("/logout", deps.Auth.LogoutHandler)
	auth.GET("/status", deps.Auth.StatusHandler)

	protected := v1.Group("")
	protected.Use(deps.Auth.RequireAuth())

	printers := handlers.NewPrinterHandler(deps.Service, deps.MaxUploadMB)
	protected.GET("/printers", printers.ListPrinters)
	protected.GET("/printers/:name/status", printers.GetPrinterStatus)
	protected.POST("/printers/:name/print", printers.Print)
	protected.POST("/compile", printers.Compile)

	if deps.Jobs != nil {
		jobs := handlers.NewJobHandler(deps.Jobs)
		protected.GET("/jobs", jobs.ListJobs)
		protected.GET("/jobs/:id", jobs.GetJob)
		protected.GET("/stats", jobs.GetStats)
	}

	if deps.Archiver != nil {
		archives := handlers.NewArchiveHandler(deps.Archiver)
		protected.GET("/archives", archives.ListArchives)
		protected.POST("/archive", archives.RunArchive)
	}

	return r
}
