package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/alrafidain/college-records-api/internal/models"
	"github.com/alrafidain/college-records-api/internal/service"
	appErrors "github.com/alrafidain/college-records-api/pkg/errors"
	"github.com/alrafidain/college-records-api/pkg/response"
)

// LecturerHandler wires HTTP endpoints to the lecturer service.
type LecturerHandler struct {
	service *service.LecturerService
}

// NewLecturerHandler creates a new handler.
func NewLecturerHandler(svc *service.LecturerService) *LecturerHandler {
	return &LecturerHandler{service: svc}
}

func bindLecturerForm(c *gin.Context) (models.SaveLecturerRequest, error) {
	var req models.SaveLecturerRequest
	payload := c.PostForm("payload")
	if payload == "" {
		return req, appErrors.Clone(appErrors.ErrValidation, "payload form field is required")
	}
	if err := json.Unmarshal([]byte(payload), &req); err != nil {
		return req, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid lecturer payload")
	}
	return req, nil
}

// List godoc
// @Summary List lecturers
// @Tags Lecturers
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /lecturers [get]
func (h *LecturerHandler) List(c *gin.Context) {
	lecturers, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, lecturers, nil)
}

// Get godoc
// @Summary Lecturer detail
// @Description Fetch a lecturer with their assignment sets
// @Tags Lecturers
// @Produce json
// @Param id path string true "Lecturer ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /lecturers/{id} [get]
func (h *LecturerHandler) Get(c *gin.Context) {
	lecturer, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, lecturer, nil)
}

// Create godoc
// @Summary Create lecturer
// @Description Register a lecturer account with teaching assignments
// @Tags Lecturers
// @Accept multipart/form-data
// @Produce json
// @Param payload formData string true "Lecturer JSON payload"
// @Param image formData file false "Profile image"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /lecturers [post]
func (h *LecturerHandler) Create(c *gin.Context) {
	req, err := bindLecturerForm(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	image, _ := c.FormFile("image")
	lecturer, err := h.service.Create(c.Request.Context(), actorFromContext(c), req, image)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, lecturer)
}

// Update godoc
// @Summary Update lecturer
// @Description Update a lecturer; assignment sets are replaced wholesale
// @Tags Lecturers
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Lecturer ID"
// @Param payload formData string true "Lecturer JSON payload"
// @Param image formData file false "Profile image"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /lecturers/{id} [put]
func (h *LecturerHandler) Update(c *gin.Context) {
	req, err := bindLecturerForm(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	image, _ := c.FormFile("image")
	lecturer, err := h.service.Update(c.Request.Context(), actorFromContext(c), c.Param("id"), req, image)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, lecturer, nil)
}

// Delete godoc
// @Summary Delete lecturer
// @Tags Lecturers
// @Produce json
// @Param id path string true "Lecturer ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /lecturers/{id} [delete]
func (h *LecturerHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), actorFromContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
