package app

import (
	"time"

	"english_tutor_backend/docs"
	"english_tutor_backend/internal/config"
	"english_tutor_backend/internal/middleware"
	"english_tutor_backend/pkg/monitoring"
	"english_tutor_backend/pkg/security"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 公共路由(无需登录)
	router.GET("/api/health", c.health.HealthCheck)

	// 2. 需要授权的路由
	v1 := router.Group("/api/v1")
	v1.Use(middleware.AuthMiddleware(cfg.JWT))
	planning := security.RateLimiter(a.done, cfg.RateLimit.PlanningPerMinute, time.Minute, middleware.StudentKey)
	{
		a.registerLessonRoutes(v1, c, planning)
		a.registerStudyPlanRoutes(v1, c, planning)
		a.registerTutorRoutes(v1, c, planning)
	}
}

func (a *App) registerLessonRoutes(group *gin.RouterGroup, c *controllers, planning gin.HandlerFunc) {
	lessons := group.Group("/lessons")
	{
		lessons.POST("/new", planning, c.lesson.NewLesson)
		lessons.GET("/active", c.lesson.ActiveLesson)
		lessons.POST("/answer", c.lesson.SubmitAnswer)
		lessons.POST("/:id/complete", c.lesson.CompleteLesson)
	}
}

func (a *App) registerStudyPlanRoutes(group *gin.RouterGroup, c *controllers, planning gin.HandlerFunc) {
	plan := group.Group("/study-plan")
	{
		plan.GET("/progress", c.studyPlan.Progress)
		plan.POST("/start-lesson", planning, c.studyPlan.StartLesson)
	}
}

func (a *App) registerTutorRoutes(group *gin.RouterGroup, c *controllers, planning gin.HandlerFunc) {
	tutor := group.Group("/tutor")
	{
		tutor.POST("/interact", planning, c.tutor.Interact)
		tutor.GET("/history", c.tutor.History)
		tutor.GET("/messages", c.tutor.UnreadMessages)
		tutor.POST("/messages/:id/read", c.tutor.MarkRead)
	}
}
