// Package api wires the HTTP surface: auth endpoints, the printer
// registry, job submission and the fan-out print entry points.
package api

import (
	"github.com/gin-gonic/gin"

	"github.com/yiqunxu123/retail-pos-sub000/internal/api/handlers"
	"github.com/yiqunxu123/retail-pos-sub000/internal/api/middleware"
	"github.com/yiqunxu123/retail-pos-sub000/internal/db"
	"github.com/yiqunxu123/retail-pos-sub000/internal/pool"
)

// NewRouter builds the gin engine with all routes registered. Everything
// under /api except auth is behind the JWT middleware.
func NewRouter(p *pool.Pool, store *db.Store, auth *middleware.AuthMiddleware) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	printers := handlers.NewPrinterHandler(p, store)
	jobs := handlers.NewJobHandler(p, store)
	prints := handlers.NewPrintHandler(p)
	webhooks := handlers.NewWebhookHandler(store)

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	authGroup := router.Group("/api/auth")
	{
		authGroup.POST("/setup", auth.SetupHandler)
		authGroup.POST("/login", auth.LoginHandler)
		authGroup.POST("/logout", auth.LogoutHandler)
		authGroup.GET("/status", auth.StatusHandler)
		authGroup.POST("/password", auth.RequireAuth(), auth.ChangePasswordHandler)
	}

	apiGroup := router.Group("/api")
	apiGroup.Use(auth.RequireAuth())
	{
		apiGroup.GET("/printers", printers.ListPrinters)
		apiGroup.POST("/printers", printers.CreatePrinter)
		apiGroup.GET("/printers/:id", printers.GetPrinter)
		apiGroup.PUT("/printers/:id", printers.UpdatePrinter)
		apiGroup.DELETE("/printers/:id", printers.DeletePrinter)
		apiGroup.PUT("/printers/:id/enabled", printers.SetEnabled)

		apiGroup.POST("/jobs", jobs.SubmitJob)
		apiGroup.GET("/jobs", jobs.ListJobs)
		apiGroup.GET("/jobs/stats", jobs.JobStats)
		apiGroup.DELETE("/queue", jobs.ClearQueue)
		apiGroup.GET("/status", jobs.GetStatus)

		apiGroup.POST("/print/image", prints.PrintImage)
		apiGroup.POST("/print/text", prints.PrintText)
		apiGroup.POST("/print/barcode", prints.PrintBarcode)
		apiGroup.POST("/drawer", prints.OpenDrawer)

		apiGroup.GET("/webhooks", webhooks.ListWebhooks)
		apiGroup.POST("/webhooks", webhooks.CreateWebhook)
		apiGroup.PUT("/webhooks/:id", webhooks.UpdateWebhook)
		apiGroup.DELETE("/webhooks/:id", webhooks.DeleteWebhook)
	}

	return router
}
