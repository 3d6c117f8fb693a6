package approuters

import (
	"Taskora/internal/configuration"

	"github.com/gin-gonic/gin"
)

func CallRouters(router *gin.Engine, container *configuration.Container) {
	callRoute := router.Group("/tk/api/calls")
	{
		callRoute.POST("/token", container.CallHandler.IssueToken)
	}
}
