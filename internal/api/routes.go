package api

import "github.com/gin-gonic/gin"

func RegisterRoutes(r *gin.Engine, h *Handler) {
	api := r.Group("/api")
	{
		api.GET("/health", health)
		api.GET("/template", h.getTemplate)
		api.GET("/inputs", h.inputs)
		api.PUT("/inputs", h.setInputs)
		api.POST("/image", h.uploadImage)
		api.DELETE("/image", h.clearImage)
		api.GET("/preview", h.preview)
		api.GET("/status", h.status)
	}
}
