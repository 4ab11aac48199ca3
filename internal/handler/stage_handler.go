package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/alrafidain/college-records-api/internal/models"
	"github.com/alrafidain/college-records-api/internal/service"
	appErrors "github.com/alrafidain/college-records-api/pkg/errors"
	"github.com/alrafidain/college-records-api/pkg/response"
)

// StageHandler wires HTTP endpoints to the stage service.
type StageHandler struct {
	service *service.StageService
}

// NewStageHandler creates a new handler.
func NewStageHandler(svc *service.StageService) *StageHandler {
	return &StageHandler{service: svc}
}

// List godoc
// @Summary List stages
// @Description List stages; lecturers only see their assigned stages
// @Tags Stages
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /stages [get]
func (h *StageHandler) List(c *gin.Context) {
	stages, err := h.service.List(c.Request.Context(), actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stages, nil)
}

// Get godoc
// @Summary Stage detail
// @Description Fetch a stage with its configuration matrix
// @Tags Stages
// @Produce json
// @Param id path string true "Stage ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /stages/{id} [get]
func (h *StageHandler) Get(c *gin.Context) {
	stage, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stage, nil)
}

// Create godoc
// @Summary Create stage
// @Tags Stages
// @Accept json
// @Produce json
// @Param payload body models.SaveStageRequest true "Stage payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /stages [post]
func (h *StageHandler) Create(c *gin.Context) {
	var req models.SaveStageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid stage payload"))
		return
	}
	stage, err := h.service.Create(c.Request.Context(), actorFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, stage)
}

// Update godoc
// @Summary Update stage
// @Description Update a stage; the configuration list replaces the stored set
// @Tags Stages
// @Accept json
// @Produce json
// @Param id path string true "Stage ID"
// @Param payload body models.SaveStageRequest true "Stage payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /stages/{id} [put]
func (h *StageHandler) Update(c *gin.Context) {
	var req models.SaveStageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid stage payload"))
		return
	}
	stage, err := h.service.Update(c.Request.Context(), actorFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stage, nil)
}

// Delete godoc
// @Summary Delete stage
// @Description Delete a stage cascading to its students and courses
// @Tags Stages
// @Produce json
// @Param id path string true "Stage ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /stages/{id} [delete]
func (h *StageHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), actorFromContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
