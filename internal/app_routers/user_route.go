package approuters

import (
	"Taskora/internal/configuration"

	"github.com/gin-gonic/gin"
)

func UserRouters(router *gin.Engine, container *configuration.Container) {
	userRoute := router.Group("/tk/api/users")
	{
		userRoute.PUT("", container.UserHandler.UpsertUser)
	}
}
