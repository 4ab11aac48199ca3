package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/alrafidain/college-records-api/internal/models"
	"github.com/alrafidain/college-records-api/internal/service"
	appErrors "github.com/alrafidain/college-records-api/pkg/errors"
	"github.com/alrafidain/college-records-api/pkg/response"
)

// StudentHandler wires HTTP endpoints to the student roster services.
type StudentHandler struct {
	service *service.StudentService
	imports *service.ImportService
	exports *service.ExportService
	metrics *service.MetricsService
}

// NewStudentHandler creates a new handler.
func NewStudentHandler(svc *service.StudentService, imports *service.ImportService, exports *service.ExportService, metrics *service.MetricsService) *StudentHandler {
	return &StudentHandler{service: svc, imports: imports, exports: exports, metrics: metrics}
}

func studentFilterFromQuery(c *gin.Context) models.StudentFilter {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "0"))
	return models.StudentFilter{
		Search:      c.Query("search"),
		StageID:     c.Query("stage_id"),
		StudyTypeID: c.Query("study_type_id"),
		GroupID:     c.Query("group_id"),
		Page:        page,
		PageSize:    pageSize,
	}
}

// bindStudentForm decodes a multipart student payload. The scalar fields
// arrive as a JSON document in the "payload" field with the image alongside.
func bindStudentForm(c *gin.Context) (models.SaveStudentRequest, error) {
	var req models.SaveStudentRequest
	payload := c.PostForm("payload")
	if payload == "" {
		return req, appErrors.Clone(appErrors.ErrValidation, "payload form field is required")
	}
	if err := json.Unmarshal([]byte(payload), &req); err != nil {
		return req, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid student payload")
	}
	return req, nil
}

// List godoc
// @Summary List students
// @Description Page through students with search and filter parameters
// @Tags Students
// @Produce json
// @Param search query string false "Name or code search"
// @Param stage_id query string false "Stage ID"
// @Param study_type_id query string false "Study type ID"
// @Param group_id query string false "Group ID"
// @Param page query int false "Page" default(1)
// @Param page_size query int false "Page size" default(50)
// @Success 200 {object} response.Envelope
// @Router /students [get]
func (h *StudentHandler) List(c *gin.Context) {
	students, pagination, err := h.service.List(c.Request.Context(), studentFilterFromQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students, &pagination)
}

// Get godoc
// @Summary Student detail
// @Tags Students
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /students/{id} [get]
func (h *StudentHandler) Get(c *gin.Context) {
	student, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student, nil)
}

// Create godoc
// @Summary Create student
// @Description Register a student; multipart with a JSON payload field and optional image
// @Tags Students
// @Accept multipart/form-data
// @Produce json
// @Param payload formData string true "Student JSON payload"
// @Param image formData file false "Profile image"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /students [post]
func (h *StudentHandler) Create(c *gin.Context) {
	req, err := bindStudentForm(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	image, _ := c.FormFile("image")
	student, err := h.service.Create(c.Request.Context(), actorFromContext(c), req, image)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, student)
}

// Update godoc
// @Summary Update student
// @Tags Students
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Student ID"
// @Param payload formData string true "Student JSON payload"
// @Param image formData file false "Profile image"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /students/{id} [put]
func (h *StudentHandler) Update(c *gin.Context) {
	req, err := bindStudentForm(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	image, _ := c.FormFile("image")
	student, err := h.service.Update(c.Request.Context(), actorFromContext(c), c.Param("id"), req, image)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student, nil)
}

// Delete godoc
// @Summary Delete student
// @Tags Students
// @Produce json
// @Param id path string true "Student ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /students/{id} [delete]
func (h *StudentHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), actorFromContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// DeleteAll godoc
// @Summary Delete all students
// @Description Wipe the whole roster, releasing stored images first
// @Tags Students
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /students/delete-all [delete]
func (h *StudentHandler) DeleteAll(c *gin.Context) {
	removed, err := h.service.DeleteAll(c.Request.Context(), actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"deleted": removed}, nil)
}

// Import godoc
// @Summary Import students
// @Description Ingest an xlsx roster; rows are processed best effort
// @Tags Students
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "xlsx workbook"
// @Param stage_id formData string true "Destination stage"
// @Param study_type_id formData string true "Destination study type"
// @Param group_id formData string false "Destination group"
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /students/import [post]
func (h *StudentHandler) Import(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "file form field is required"))
		return
	}
	summary, err := h.imports.ImportStudents(c.Request.Context(), actorFromContext(c), file,
		c.PostForm("stage_id"), c.PostForm("study_type_id"), c.PostForm("group_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.AddImportedStudents(summary.Imported)
	response.JSON(c, http.StatusOK, summary, nil)
}

// Export godoc
// @Summary Export students
// @Description Download the filtered roster as xlsx, csv or pdf
// @Tags Students
// @Produce application/octet-stream
// @Param format query string false "xlsx, csv or pdf" default(xlsx)
// @Success 200 {file} binary
// @Router /students/export [get]
func (h *StudentHandler) Export(c *gin.Context) {
	format := service.ExportFormat(c.DefaultQuery("format", "xlsx"))
	file, err := h.exports.Students(c.Request.Context(), studentFilterFromQuery(c), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.ObserveExport(string(format))
	c.Header("Content-Disposition", `attachment; filename="`+file.Filename+`"`)
	c.Data(http.StatusOK, file.ContentType, file.Data)
}
