package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/alrafidain/college-records-api/internal/models"
	"github.com/alrafidain/college-records-api/internal/service"
	appErrors "github.com/alrafidain/college-records-api/pkg/errors"
	"github.com/alrafidain/college-records-api/pkg/response"
)

// StudyTypeHandler wires HTTP endpoints to the study type service.
type StudyTypeHandler struct {
	service *service.StudyTypeService
}

// NewStudyTypeHandler creates a new handler.
func NewStudyTypeHandler(svc *service.StudyTypeService) *StudyTypeHandler {
	return &StudyTypeHandler{service: svc}
}

// List godoc
// @Summary List study types
// @Tags StudyTypes
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /study-types [get]
func (h *StudyTypeHandler) List(c *gin.Context) {
	types, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, types, nil)
}

// Get godoc
// @Summary Study type detail
// @Tags StudyTypes
// @Produce json
// @Param id path string true "Study type ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /study-types/{id} [get]
func (h *StudyTypeHandler) Get(c *gin.Context) {
	studyType, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, studyType, nil)
}

// Create godoc
// @Summary Create study type
// @Tags StudyTypes
// @Accept json
// @Produce json
// @Param payload body models.SaveStudyTypeRequest true "Study type payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /study-types [post]
func (h *StudyTypeHandler) Create(c *gin.Context) {
	var req models.SaveStudyTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid study type payload"))
		return
	}
	studyType, err := h.service.Create(c.Request.Context(), actorFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, studyType)
}

// Update godoc
// @Summary Update study type
// @Tags StudyTypes
// @Accept json
// @Produce json
// @Param id path string true "Study type ID"
// @Param payload body models.SaveStudyTypeRequest true "Study type payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /study-types/{id} [put]
func (h *StudyTypeHandler) Update(c *gin.Context) {
	var req models.SaveStudyTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid study type payload"))
		return
	}
	studyType, err := h.service.Update(c.Request.Context(), actorFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, studyType, nil)
}

// Delete godoc
// @Summary Delete study type
// @Description Delete a study type cascading to its students
// @Tags StudyTypes
// @Produce json
// @Param id path string true "Study type ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /study-types/{id} [delete]
func (h *StudyTypeHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), actorFromContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
