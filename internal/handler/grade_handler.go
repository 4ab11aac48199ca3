package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/alrafidain/college-records-api/internal/models"
	"github.com/alrafidain/college-records-api/internal/service"
	appErrors "github.com/alrafidain/college-records-api/pkg/errors"
	"github.com/alrafidain/college-records-api/pkg/response"
)

// GradeHandler wires HTTP endpoints to the grade ledger service.
type GradeHandler struct {
	service *service.GradeService
}

// NewGradeHandler creates a new handler.
func NewGradeHandler(svc *service.GradeService) *GradeHandler {
	return &GradeHandler{service: svc}
}

// Ledger godoc
// @Summary Grade ledger
// @Description Roster of the course's stage joined with recorded grades
// @Tags Grades
// @Produce json
// @Param course_id query string true "Course ID"
// @Param group_id query string false "Group ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /grades [get]
func (h *GradeHandler) Ledger(c *gin.Context) {
	courseID := c.Query("course_id")
	if courseID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "course_id query parameter is required"))
		return
	}
	rows, err := h.service.Ledger(c.Request.Context(), actorFromContext(c), courseID, c.Query("group_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, nil)
}

// Save godoc
// @Summary Save grades
// @Description Bulk upsert grades for one course; all entries validate or none write
// @Tags Grades
// @Accept json
// @Produce json
// @Param payload body models.SaveGradesRequest true "Grades payload"
// @Success 204 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /grades [post]
func (h *GradeHandler) Save(c *gin.Context) {
	var req models.SaveGradesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid grades payload"))
		return
	}
	if err := h.service.Save(c.Request.Context(), actorFromContext(c), req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
