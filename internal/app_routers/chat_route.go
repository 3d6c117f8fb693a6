package approuters

import (
	"Taskora/internal/configuration"

	"github.com/gin-gonic/gin"
)

func ChatRouters(router *gin.Engine, container *configuration.Container) {
	chatRoute := router.Group("/tk/api/chat")
	{
		chatRoute.GET("/conversations", container.ChatHandler.GetConversations)
		chatRoute.POST("/conversations", container.ChatHandler.CreateConversation)
		chatRoute.GET("/conversations/:conversationId", container.ChatHandler.GetConversation)
		chatRoute.GET("/conversations/:conversationId/messages", container.ChatHandler.GetMessages)
		chatRoute.POST("/conversations/:conversationId/read", container.ChatHandler.MarkAllRead)
		chatRoute.PATCH("/conversations/:conversationId/flags", container.ChatHandler.SetFlag)
		chatRoute.POST("/messages", container.ChatHandler.SendMessage)
		chatRoute.POST("/messages/:messageId/reactions", container.ChatHandler.AddReaction)
	}
}
