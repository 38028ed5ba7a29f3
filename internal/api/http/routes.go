package http

import "github.com/gin-gonic/gin"

// RegisterRoutes mounts the API on router. guard protects the mutating
// routes; browse, search and health stay open.
func RegisterRoutes(router gin.IRouter, h *Handlers, guard gin.HandlerFunc) {
	router.GET("/", h.Root)

	api := router.Group("/api/v1")
	api.GET("/health", h.Health)
	api.POST("/auth/validate", h.ValidateToken)

	api.GET("/browse", h.Browse)
	api.GET("/browse/*path", h.Browse)
	api.GET("/search", h.Search)

	guarded := api.Group("", guard)
	guarded.POST("/createdir", h.CreateDir)
	guarded.POST("/delete", h.Delete)
	guarded.POST("/upload", h.Upload)
}
