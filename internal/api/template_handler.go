// internal/api/template_handler.go
package api

import (
	"net/http"
	"strconv"

	"alcyxob/trainplan/internal/domain"
	"alcyxob/trainplan/internal/periodization"

	"github.com/gin-gonic/gin"
)

type TemplateResponse struct {
	DayType   domain.DayType         `json:"dayType"`
	Label     string                 `json:"label"`
	Variant   domain.MovementVariant `json:"variant"`
	Deload    bool                   `json:"deload"`
	Exercises []domain.ExerciseSpec  `json:"exercises"`
}

// GetTemplate handles GET /templates/:dayType?variant=&deload=
func GetTemplate(c *gin.Context) {
	dayType, err := periodization.ParseDayType(c.Param("dayType"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}
	variant := domain.VariantPrimaryHinge
	if v := c.Query("variant"); v != "" {
		if variant, err = periodization.ParseMovementVariant(v); err != nil {
			abortWithError(c, http.StatusBadRequest, err.Error())
			return
		}
	}
	deload := false
	if d := c.Query("deload"); d != "" {
		if deload, err = strconv.ParseBool(d); err != nil {
			abortWithError(c, http.StatusBadRequest, "deload must be a boolean")
			return
		}
	}

	c.JSON(http.StatusOK, BuildTemplate(dayType, variant, deload))
}

// BuildTemplate returns the exercise list of a single day type.
func BuildTemplate(dayType domain.DayType, variant domain.MovementVariant, deload bool) TemplateResponse {
	exercises := periodization.Seed(dayType, variant)
	if deload {
		for i := range exercises {
			exercises[i] = periodization.Deload(exercises[i])
		}
	}
	return TemplateResponse{
		DayType:   dayType,
		Label:     periodization.DayLabel(dayType),
		Variant:   variant,
		Deload:    deload,
		Exercises: exercises,
	}
}
