// Package router 提供 HTTP 路由配置
package router

import (
	"github.com/gin-gonic/gin"
)

// RegisterV1Routes 注册 v1 版本路由
func RegisterV1Routes(v1 *gin.RouterGroup, h Handlers) {
	// 自然语言推荐
	chat := v1.Group("/chat")
	{
		chat.POST("", h.Chat.Chat)
		chat.POST("/stream", h.Stream.ChatStream) // SSE
	}

	// 策略快照管理
	policy := v1.Group("/policy")
	{
		policy.GET("/status", h.Policy.Status)
		policy.POST("/reload", h.Policy.Reload)
		policy.GET("/mappings", h.Policy.Mappings)
	}

	// 设备目录
	equipments := v1.Group("/equipments")
	{
		equipments.GET("", h.Equipment.List)
		equipments.GET("/count", h.Equipment.Count)
		equipments.POST("/reindex", h.Equipment.Reindex)
		equipments.GET("/:eid", h.Equipment.Get)
	}
}
