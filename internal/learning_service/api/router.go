package api

import (
	"github.com/gin-gonic/gin"

	learnerapi "smartlearn/internal/learner_service/api"
)

// SetupRouter builds the Gin engine with the account routes public and
// everything else behind JWT auth.
func SetupRouter(learnerHandler *learnerapi.Handler, studyHandler *Handler, jwtSecret string) *gin.Engine {
	r := gin.Default()

	apiV1 := r.Group("/api/v1")
	learnerHandler.RegisterRoutes(apiV1, jwtSecret)

	protected := apiV1.Group("")
	protected.Use(learnerapi.AuthMiddleware(jwtSecret))
	{
		docs := protected.Group("/documents")
		{
			docs.POST("", studyHandler.UploadDocument)
			docs.GET("", studyHandler.ListDocuments)
			docs.GET("/:id", studyHandler.GetDocument)
			docs.DELETE("/:id", studyHandler.DeleteDocument)

			docs.POST("/:id/chat", studyHandler.Chat)

			docs.POST("/:id/quizzes", studyHandler.GenerateQuiz)
			docs.GET("/:id/quizzes", studyHandler.ListQuizzes)
			docs.GET("/:id/quizzes/latest", studyHandler.LatestQuiz)
			docs.GET("/:id/quizzes/:quizId", studyHandler.GetQuiz)
			docs.POST("/:id/quizzes/:quizId/attempt", studyHandler.SubmitQuiz)

			docs.GET("/:id/pages/:page/videos", studyHandler.RecommendVideos)
		}

		protected.GET("/dashboard", studyHandler.GetDashboard)
	}

	return r
}
