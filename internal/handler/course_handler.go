package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/alrafidain/college-records-api/internal/models"
	"github.com/alrafidain/college-records-api/internal/service"
	appErrors "github.com/alrafidain/college-records-api/pkg/errors"
	"github.com/alrafidain/college-records-api/pkg/response"
)

// CourseHandler wires HTTP endpoints to the course service.
type CourseHandler struct {
	service *service.CourseService
	exports *service.ExportService
	metrics *service.MetricsService
}

// NewCourseHandler creates a new handler.
func NewCourseHandler(svc *service.CourseService, exports *service.ExportService, metrics *service.MetricsService) *CourseHandler {
	return &CourseHandler{service: svc, exports: exports, metrics: metrics}
}

func courseFilterFromQuery(c *gin.Context) models.CourseFilter {
	return models.CourseFilter{
		StageID:  c.Query("stage_id"),
		Semester: c.Query("semester"),
		Search:   c.Query("search"),
	}
}

// List godoc
// @Summary List courses
// @Description List courses; lecturers only see their assigned courses
// @Tags Courses
// @Produce json
// @Param stage_id query string false "Stage ID"
// @Param semester query string false "1, 2 or yearly"
// @Param search query string false "Name or code search"
// @Success 200 {object} response.Envelope
// @Router /courses [get]
func (h *CourseHandler) List(c *gin.Context) {
	courses, err := h.service.List(c.Request.Context(), actorFromContext(c), courseFilterFromQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, courses, nil)
}

// Get godoc
// @Summary Course detail
// @Tags Courses
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /courses/{id} [get]
func (h *CourseHandler) Get(c *gin.Context) {
	course, err := h.service.Get(c.Request.Context(), actorFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, course, nil)
}

// Create godoc
// @Summary Create course
// @Tags Courses
// @Accept json
// @Produce json
// @Param payload body models.SaveCourseRequest true "Course payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /courses [post]
func (h *CourseHandler) Create(c *gin.Context) {
	var req models.SaveCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid course payload"))
		return
	}
	course, err := h.service.Create(c.Request.Context(), actorFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, course)
}

// Update godoc
// @Summary Update course
// @Tags Courses
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param payload body models.SaveCourseRequest true "Course payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /courses/{id} [put]
func (h *CourseHandler) Update(c *gin.Context) {
	var req models.SaveCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid course payload"))
		return
	}
	course, err := h.service.Update(c.Request.Context(), actorFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, course, nil)
}

// Delete godoc
// @Summary Delete course
// @Tags Courses
// @Produce json
// @Param id path string true "Course ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /courses/{id} [delete]
func (h *CourseHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), actorFromContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Export godoc
// @Summary Export courses
// @Description Download the filtered course catalogue as xlsx, csv or pdf
// @Tags Courses
// @Produce application/octet-stream
// @Param format path string true "excel, csv or pdf"
// @Success 200 {file} binary
// @Router /courses/export/{format} [get]
func (h *CourseHandler) Export(c *gin.Context) {
	format := service.ExportFormat(c.Param("format"))
	if format == "excel" {
		format = service.FormatXLSX
	}
	file, err := h.exports.Courses(c.Request.Context(), courseFilterFromQuery(c), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.ObserveExport(string(format))
	c.Header("Content-Disposition", `attachment; filename="`+file.Filename+`"`)
	c.Data(http.StatusOK, file.ContentType, file.Data)
}
