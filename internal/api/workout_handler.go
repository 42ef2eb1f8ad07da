// internal/api/workout_handler.go
package api

import (
	"net/http"

	"alcyxob/trainplan/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type WorkoutHandler struct {
	workoutService service.WorkoutService
}

func NewWorkoutHandler(workoutService service.WorkoutService) *WorkoutHandler {
	return &WorkoutHandler{workoutService: workoutService}
}

// --- DTOs ---
type StartWorkoutRequest struct {
	ProgramDayID primitive.ObjectID `json:"programDayId" binding:"required"`
}

type LogSetsRequest struct {
	Sets []service.SetInput `json:"sets" binding:"required,min=1,dive"`
}

// StartWorkout handles POST /workouts
func (h *WorkoutHandler) StartWorkout(c *gin.Context) {
	var req StartWorkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	workout, err := h.workoutService.StartWorkout(c.Request.Context(), userID, req.ProgramDayID)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, workout)
}

// LogSets handles PUT /workouts/:workoutId/sets. Sending the same set again
// replaces it.
func (h *WorkoutHandler) LogSets(c *gin.Context) {
	var req LogSetsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	workoutID, ok := getPathID(c, "workoutId")
	if !ok {
		return
	}
	res, err := h.workoutService.LogSets(c.Request.Context(), userID, workoutID, req.Sets)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// ListSets handles GET /workouts/:workoutId/sets
func (h *WorkoutHandler) ListSets(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	workoutID, ok := getPathID(c, "workoutId")
	if !ok {
		return
	}
	sets, err := h.workoutService.ListSets(c.Request.Context(), userID, workoutID)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, sets)
}

// CompleteWorkout handles POST /workouts/:workoutId/complete
func (h *WorkoutHandler) CompleteWorkout(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	workoutID, ok := getPathID(c, "workoutId")
	if !ok {
		return
	}
	workout, err := h.workoutService.CompleteWorkout(c.Request.Context(), userID, workoutID)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, workout)
}
