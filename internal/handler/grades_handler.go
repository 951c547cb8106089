package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/edusfera/journal-backend/internal/middleware"
	"github.com/edusfera/journal-backend/internal/response"
	"github.com/edusfera/journal-backend/internal/service"
)

// GradesHandler serves the student-facing read endpoints.
type GradesHandler struct {
	gradesService *service.GradesService
}

func NewGradesHandler(gradesService *service.GradesService) *GradesHandler {
	return &GradesHandler{gradesService: gradesService}
}

// Summary godoc
// GET /api/v1/student/grades/summary
// Returns per-subject averages, tiers, and the overall average.
func (h *GradesHandler) Summary(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	summary, err := h.gradesService.Summary(c.Request.Context(), claims.UserID)
	if err != nil {
		failStore(c, err)
		return
	}

	response.Success(c, http.StatusOK, summary)
}

// Calendar godoc
// GET /api/v1/student/grades/:subject_id/calendar?year=2026&month=9
// Returns one subject's grades laid on a Monday-first month grid.
func (h *GradesHandler) Calendar(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	subjectID := c.Param("subject_id")
	if subjectID == "" {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	year, errY := strconv.Atoi(c.Query("year"))
	month, errM := strconv.Atoi(c.Query("month"))
	if errY != nil || errM != nil || year < 1 || month < 1 || month > 12 {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidMonth)
		return
	}

	cells, err := h.gradesService.MonthGrades(c.Request.Context(), claims.UserID, subjectID, year, time.Month(month))
	if err != nil {
		failStore(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"year":  year,
		"month": month,
		"days":  cells,
	})
}

// failStore maps service errors onto the response taxonomy. An unreachable
// store is retryable by the client and answered 503, everything else 500.
func failStore(c *gin.Context, err error) {
	if errors.Is(err, service.ErrUnreachable) {
		response.Fail(c, http.StatusServiceUnavailable, response.ErrStoreUnreachable)
		return
	}
	response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
}
