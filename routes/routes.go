package routes

import (
	"fmt"
	"math"
	"net/http"

	"anonq/handlers"
	"anonq/middleware"
	"anonq/services"

	"github.com/gin-gonic/gin"
)

type Limiters struct {
	General      *services.RateLimiter
	Submission   *services.RateLimiter
	Regeneration *services.RateLimiter
}

func SetupRoutes(
	router *gin.Engine,
	basePath string,
	questionHandler *handlers.QuestionHandler,
	adminHandler *handlers.AdminHandler,
	feedHandler *handlers.FeedHandler,
	limiters Limiters,
	gate *services.AdminGate,
) {
	handlers.RegisterValidators()

	root := router.Group(basePath)
	requireAdmin := middleware.RequireAdmin(gate)

	api := root.Group("/api")
	{
		// Public question routes
		questions := api.Group("/questions")
		{
			questions.POST("",
				middleware.RateLimit(limiters.General, generalLimitMessage),
				middleware.RateLimit(limiters.Submission, submissionLimitMessage),
				questionHandler.SubmitQuestion,
			)
			questions.GET("", questionHandler.GetQA)
			questions.GET("/qa", questionHandler.GetQA)
			questions.POST("/regenerate",
				middleware.RateLimit(limiters.Regeneration, regenerationLimitMessage),
				questionHandler.Regenerate,
			)
		}

		admin := api.Group("/admin")
		{
			admin.POST("/login", adminHandler.Login)
			admin.POST("/logout", adminHandler.Logout)

			protected := admin.Group("")
			protected.Use(requireAdmin)
			{
				protected.GET("/questions", adminHandler.ListQuestions)
				protected.DELETE("/questions", adminHandler.DeleteQuestion)
				protected.POST("/answer", adminHandler.Answer)
			}
		}
	}

	// Live feed
	root.GET("/ws/feed", feedHandler.PublicFeed)
	root.GET("/ws/admin", requireAdmin, feedHandler.AdminFeed)

	// Health check endpoint
	root.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}

func generalLimitMessage(services.Decision) string {
	return "Too many requests, please try again later."
}

func submissionLimitMessage(d services.Decision) string {
	minutes := int(math.Ceil(float64(d.RetryAfterSeconds()) / 60))
	return fmt.Sprintf("Too many questions submitted. Try again in %d minutes.", minutes)
}

func regenerationLimitMessage(services.Decision) string {
	return "Too many regeneration requests, please try again later."
}
