package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/brightboard/brightboard-backend/internal/config"
	"github.com/brightboard/brightboard-backend/internal/handler"
	"github.com/brightboard/brightboard-backend/internal/middleware"
	"github.com/brightboard/brightboard-backend/internal/response"
	"github.com/brightboard/brightboard-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth       *handler.AuthHandler
	Quiz       *handler.QuizHandler
	Class      *handler.ClassHandler
	Session    *handler.SessionHandler
	Assessment *handler.AssessmentHandler
	WS         *handler.WSHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// Rate limiter for auth routes (30 requests per minute per IP).
	authLimiter := middleware.NewRateLimiter(30, time.Minute)

	// ─── 1. Auth Group (Public, Rate Limited) ──────────────────────────
	auth := router.Group("/api/v1/auth")
	auth.Use(authLimiter.Middleware())
	{
		auth.POST("/register", handlers.Auth.Register)
		auth.POST("/login", handlers.Auth.Login)
	}

	// ─── 2. Join Group (Public, Rate Limited) ──────────────────────────
	// Participants enter with a room code; no account involved.
	joinLimiter := middleware.NewRateLimiter(60, time.Minute)
	join := router.Group("/api/v1/join")
	join.Use(joinLimiter.Middleware())
	{
		join.POST("/:room_code", handlers.Session.JoinSession)
	}

	// ─── 3. Tenant Group (JWT) ─────────────────────────────────────────
	api := router.Group("/api/v1")
	api.Use(middleware.RequireTenantJWT(authService))
	{
		api.GET("/auth/me", handlers.Auth.Me)

		api.GET("/quizzes", handlers.Quiz.ListQuizzes)
		api.POST("/quizzes", handlers.Quiz.CreateQuiz)
		api.GET("/quizzes/:quiz_id", handlers.Quiz.GetQuiz)
		api.PATCH("/quizzes/:quiz_id", handlers.Quiz.UpdateQuiz)
		api.DELETE("/quizzes/:quiz_id", handlers.Quiz.DeleteQuiz)
		api.POST("/quizzes/:quiz_id/questions", handlers.Quiz.AddQuestion)
		api.PUT("/quizzes/:quiz_id/questions/order", handlers.Quiz.ReorderQuestions)
		api.PUT("/questions/:question_id", handlers.Quiz.UpdateQuestion)
		api.DELETE("/questions/:question_id", handlers.Quiz.DeleteQuestion)

		api.GET("/classes", handlers.Class.ListClasses)
		api.POST("/classes", handlers.Class.CreateClass)
		api.DELETE("/classes/:class_id", handlers.Class.DeleteClass)
		api.GET("/classes/:class_id/roster", handlers.Class.GetRoster)
		api.POST("/classes/:class_id/students", handlers.Class.Enroll)
		api.DELETE("/classes/:class_id/students/:student_id", handlers.Class.Withdraw)
		api.POST("/students", handlers.Class.UpsertStudent)

		api.POST("/sessions", handlers.Session.CreateSession)
		api.GET("/sessions/:session_id", handlers.Session.GetSession)
		api.POST("/sessions/:session_id/start", handlers.Session.StartSession)
		api.POST("/sessions/:session_id/advance", handlers.Session.AdvanceSession)
		api.POST("/sessions/:session_id/end", handlers.Session.EndSession)
		api.GET("/sessions/:session_id/leaderboard", handlers.Session.GetLeaderboard)

		api.POST("/assessments", handlers.Assessment.CreateAssessment)
		api.GET("/assessments", handlers.Assessment.ListAssessments)
		api.GET("/assessments/:assessment_id", handlers.Assessment.GetAssessment)
		api.PUT("/assessments/:assessment_id/grades", handlers.Assessment.EditGrade)
	}

	// ─── 4. WebSocket Group ────────────────────────────────────────────
	// The host socket authenticates with ?token= (JWT in a query param
	// because browsers cannot send headers on upgrade); the participant
	// socket carries its own capability credentials.
	wsGroup := router.Group("/ws/v1")
	{
		wsGroup.GET("/sessions/:session_id/host",
			middleware.RequireTenantJWT(authService), handlers.WS.HostStream)
		wsGroup.GET("/sessions/:session_id/participant", handlers.WS.ParticipantStream)
	}

	return router
}
