package api

import (
	"net/http"

	"alcyxob/trainplan/internal/logger"
	"alcyxob/trainplan/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func SetupRoutes(
	router *gin.Engine,
	jwtSecret string,
	gatherer prometheus.Gatherer,
	planService service.PlanService,
	workoutService service.WorkoutService,
	defaultConcurrency int,
	log *logger.Logger,
) {
	programHandler := NewProgramHandler(planService, defaultConcurrency, log)
	workoutHandler := NewWorkoutHandler(workoutService)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	apiV1 := router.Group("/api/v1")
	protected := apiV1.Group("")
	protected.Use(AuthMiddleware(jwtSecret))
	{
		protected.GET("/me", func(c *gin.Context) {
			userID, ok := getUserID(c)
			if !ok {
				return
			}
			c.JSON(http.StatusOK, gin.H{"userId": userID.Hex()})
		})

		// --- Programs ---
		programGroup := protected.Group("/programs")
		{
			programGroup.POST("", programHandler.CreateProgram)
			programGroup.GET("", programHandler.ListPrograms)
			programGroup.GET("/:programId", programHandler.GetProgram)
			programGroup.POST("/:programId/generate", programHandler.GeneratePlan)
			programGroup.GET("/:programId/days", programHandler.ListDays)
			programGroup.POST("/:programId/export", programHandler.ExportPlan)
		}
		protected.GET("/days/:dayId/exercises", programHandler.ListDayExercises)
		protected.GET("/templates/:dayType", GetTemplate)

		// --- Workouts ---
		workoutGroup := protected.Group("/workouts")
		{
			workoutGroup.POST("", workoutHandler.StartWorkout)
			workoutGroup.PUT("/:workoutId/sets", workoutHandler.LogSets)
			workoutGroup.GET("/:workoutId/sets", workoutHandler.ListSets)
			workoutGroup.POST("/:workoutId/complete", workoutHandler.CompleteWorkout)
		}
	}
}
