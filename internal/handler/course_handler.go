package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/attendance-tracker/internal/dto"
	"github.com/noah-isme/attendance-tracker/internal/models"
	appErrors "github.com/noah-isme/attendance-tracker/pkg/errors"
	"github.com/noah-isme/attendance-tracker/pkg/response"
)

type courseService interface {
	CreateCourse(ctx context.Context, req dto.CreateCourseRequest) (*models.Course, error)
	GetCourse(ctx context.Context, id string) (*models.Course, error)
	UpdateCourse(ctx context.Context, id string, req dto.UpdateCourseRequest) (*models.Course, error)
	DeleteCourse(ctx context.Context, id string) error
	AddTemplate(ctx context.Context, courseID string, req dto.SlotRequest) (*models.Template, error)
	SetTemplateActive(ctx context.Context, templateID string, req dto.SetTemplateActiveRequest) (*models.Template, error)
	AddExtraClass(ctx context.Context, courseID string, req dto.ExtraClassRequest) (*models.ExtraClass, error)
}

type courseOverviewService interface {
	Overviews(ctx context.Context) ([]models.CourseOverview, error)
}

// CourseHandler exposes course, slot and extra class endpoints.
type CourseHandler struct {
	courses courseService
	reports courseOverviewService
}

// NewCourseHandler constructs the course handler.
func NewCourseHandler(courses courseService, reports courseOverviewService) *CourseHandler {
	return &CourseHandler{courses: courses, reports: reports}
}

// Create godoc
// @Summary Create a course with its weekly slots
// @Tags Courses
// @Accept json
// @Produce json
// @Param payload body dto.CreateCourseRequest true "Course payload"
// @Success 201 {object} response.Envelope
// @Router /courses [post]
func (h *CourseHandler) Create(c *gin.Context) {
	var req dto.CreateCourseRequest
	if !bindJSON(c, &req, "invalid course payload") {
		return
	}
	course, err := h.courses.CreateCourse(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, course)
}

// List godoc
// @Summary List courses with their attendance counts
// @Tags Courses
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /courses [get]
func (h *CourseHandler) List(c *gin.Context) {
	overviews, err := h.reports.Overviews(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, overviews, map[string]interface{}{"total": len(overviews)})
}

// Get godoc
// @Summary Get a course with every slot
// @Tags Courses
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /courses/{id} [get]
func (h *CourseHandler) Get(c *gin.Context) {
	course, err := h.courses.GetCourse(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, course)
}

// Update godoc
// @Summary Edit course name or required percentage
// @Tags Courses
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param payload body dto.UpdateCourseRequest true "Fields to change"
// @Success 200 {object} response.Envelope
// @Router /courses/{id} [patch]
func (h *CourseHandler) Update(c *gin.Context) {
	var req dto.UpdateCourseRequest
	if !bindJSON(c, &req, "invalid course payload") {
		return
	}
	course, err := h.courses.UpdateCourse(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, course)
}

// Delete godoc
// @Summary Delete a course and everything recorded for it
// @Tags Courses
// @Param id path string true "Course ID"
// @Success 204
// @Router /courses/{id} [delete]
func (h *CourseHandler) Delete(c *gin.Context) {
	if err := h.courses.DeleteCourse(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// AddTemplate godoc
// @Summary Add a weekly slot to a course
// @Tags Courses
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param payload body dto.SlotRequest true "Slot payload"
// @Success 201 {object} response.Envelope
// @Router /courses/{id}/templates [post]
func (h *CourseHandler) AddTemplate(c *gin.Context) {
	var req dto.SlotRequest
	if !bindJSON(c, &req, "invalid slot payload") {
		return
	}
	tpl, err := h.courses.AddTemplate(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, tpl)
}

// SetTemplateActive godoc
// @Summary Include or exclude a slot from the weekly schedule
// @Tags Courses
// @Accept json
// @Produce json
// @Param id path string true "Template ID"
// @Param payload body dto.SetTemplateActiveRequest true "Active flag"
// @Success 200 {object} response.Envelope
// @Router /templates/{id} [patch]
func (h *CourseHandler) SetTemplateActive(c *gin.Context) {
	var req dto.SetTemplateActiveRequest
	if !bindJSON(c, &req, "invalid slot payload") {
		return
	}
	tpl, err := h.courses.SetTemplateActive(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, tpl)
}

// AddExtra godoc
// @Summary Add a one-off class to a course
// @Tags Courses
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param payload body dto.ExtraClassRequest true "Extra class payload"
// @Success 201 {object} response.Envelope
// @Router /courses/{id}/extras [post]
func (h *CourseHandler) AddExtra(c *gin.Context) {
	var req dto.ExtraClassRequest
	if !bindJSON(c, &req, "invalid extra class payload") {
		return
	}
	extra, err := h.courses.AddExtraClass(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, extra)
}

// bindJSON decodes the body into dst, answering 400 on malformed JSON.
func bindJSON(c *gin.Context, dst interface{}, message string) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, message))
		return false
	}
	return true
}
