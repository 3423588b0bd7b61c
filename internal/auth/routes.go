package auth

import "github.com/gin-gonic/gin"

// RegisterRoutes registers Auth routes. Register and login stay open;
// everything else sits behind the token middleware.
func RegisterRoutes(r *gin.RouterGroup, handler *Handler, requireAuth gin.HandlerFunc) {
	authGroup := r.Group("/auth")
	{
		authGroup.GET("/ping", handler.Ping)
		authGroup.POST("/register", handler.Register)
		authGroup.POST("/login", handler.Login)

		protected := authGroup.Group("")
		protected.Use(requireAuth)
		{
			protected.GET("/me", handler.Me)
			protected.PUT("/me", handler.UpdateProfile)
			protected.POST("/change-password", handler.ChangePassword)
		}
	}
}
