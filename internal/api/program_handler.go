// internal/api/program_handler.go
package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"alcyxob/trainplan/internal/logger"
	"alcyxob/trainplan/internal/planner"
	"alcyxob/trainplan/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ProgramHandler struct {
	planService        service.PlanService
	defaultConcurrency int
	log                *logger.Logger
}

func NewProgramHandler(planService service.PlanService, defaultConcurrency int, log *logger.Logger) *ProgramHandler {
	return &ProgramHandler{planService: planService, defaultConcurrency: defaultConcurrency, log: log}
}

// --- DTOs ---
type CreateProgramRequest struct {
	Name      string     `json:"name" binding:"required"`
	StartDate *time.Time `json:"startDate"`
}

type GenerateRequest struct {
	Concurrency int  `json:"concurrency" binding:"omitempty,min=1,max=5"`
	Force       bool `json:"force"`
}

type GenerateResponse struct {
	planner.Summary
	Error string `json:"error,omitempty"`
}

// CreateProgram handles POST /programs
func (h *ProgramHandler) CreateProgram(c *gin.Context) {
	var req CreateProgramRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	userID, ok := getUserID(c)
	if !ok {
		return
	}

	program, err := h.planService.CreateProgram(c.Request.Context(), userID, req.Name, req.StartDate)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, program)
}

// ListPrograms handles GET /programs
func (h *ProgramHandler) ListPrograms(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	programs, err := h.planService.ListPrograms(c.Request.Context(), userID)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, programs)
}

// GetProgram handles GET /programs/:programId
func (h *ProgramHandler) GetProgram(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	programID, ok := getPathID(c, "programId")
	if !ok {
		return
	}
	program, err := h.planService.GetProgram(c.Request.Context(), userID, programID)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, program)
}

// GeneratePlan handles POST /programs/:programId/generate. With ?stream=true
// progress is streamed as server-sent events followed by a summary event.
func (h *ProgramHandler) GeneratePlan(c *gin.Context) {
	var req GenerateRequest
	// The body is optional.
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	programID, ok := getPathID(c, "programId")
	if !ok {
		return
	}

	opts := planner.Options{Concurrency: req.Concurrency, Force: req.Force}
	if opts.Concurrency == 0 {
		opts.Concurrency = h.defaultConcurrency
	}

	stream, _ := strconv.ParseBool(c.Query("stream"))
	if !stream {
		sum, err := h.planService.GeneratePlan(c.Request.Context(), userID, programID, opts)
		if err != nil {
			h.logGenerateError(programID, sum, err)
			if sum.Partial {
				c.JSON(statusForError(err), GenerateResponse{Summary: sum, Error: err.Error()})
				return
			}
			abortWithServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, GenerateResponse{Summary: sum})
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)

	// Progress callbacks are serialized by the planner, and the handler
	// goroutine is blocked in GeneratePlan meanwhile.
	opts.OnProgress = func(p planner.Progress) {
		c.SSEvent("progress", p)
		c.Writer.Flush()
	}
	sum, err := h.planService.GeneratePlan(c.Request.Context(), userID, programID, opts)
	if err != nil {
		h.logGenerateError(programID, sum, err)
		c.SSEvent("error", GenerateResponse{Summary: sum, Error: err.Error()})
		return
	}
	c.SSEvent("summary", GenerateResponse{Summary: sum})
}

func (h *ProgramHandler) logGenerateError(programID primitive.ObjectID, sum planner.Summary, err error) {
	if errors.Is(err, context.Canceled) {
		h.log.Info("Plan generation stopped by client", "programId", programID.Hex(), "runId", sum.RunID,
			"createdDays", sum.CreatedDays, "createdExercises", sum.CreatedExercises)
		return
	}
	h.log.Warn("Plan generation failed", "programId", programID.Hex(), "runId", sum.RunID, "error", err)
}

// ListDays handles GET /programs/:programId/days?week=N
func (h *ProgramHandler) ListDays(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	programID, ok := getPathID(c, "programId")
	if !ok {
		return
	}
	week := 0
	if w := c.Query("week"); w != "" {
		n, err := strconv.Atoi(w)
		if err != nil || n < 1 {
			abortWithError(c, http.StatusBadRequest, "week must be a positive number")
			return
		}
		week = n
	}

	days, err := h.planService.ListDays(c.Request.Context(), userID, programID, week)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, days)
}

// ListDayExercises handles GET /days/:dayId/exercises
func (h *ProgramHandler) ListDayExercises(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	dayID, ok := getPathID(c, "dayId")
	if !ok {
		return
	}
	exercises, err := h.planService.ListDayExercises(c.Request.Context(), userID, dayID)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, exercises)
}

// ExportPlan handles POST /programs/:programId/export
func (h *ProgramHandler) ExportPlan(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	programID, ok := getPathID(c, "programId")
	if !ok {
		return
	}
	res, err := h.planService.ExportPlan(c.Request.Context(), userID, programID)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
