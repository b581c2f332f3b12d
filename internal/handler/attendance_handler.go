package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/attendance-tracker/internal/dto"
	"github.com/noah-isme/attendance-tracker/internal/models"
	"github.com/noah-isme/attendance-tracker/internal/service"
	appErrors "github.com/noah-isme/attendance-tracker/pkg/errors"
	"github.com/noah-isme/attendance-tracker/pkg/response"
)

type attendanceService interface {
	SetStatusFromRequest(ctx context.Context, req dto.SetStatusRequest) (*models.AttendanceRecord, error)
	Counts(ctx context.Context, courseID string) (*models.AttendanceCounts, error)
}

type dayService interface {
	ClassesFor(ctx context.Context, date models.Date) ([]models.ClassOfDay, error)
}

type reportService interface {
	ClassesHeld(ctx context.Context, courseID string, query dto.ClassesHeldQuery) (*models.ClassesHeld, error)
	Export(ctx context.Context, courseID, format string) (*service.ExportFile, error)
}

// AttendanceHandler exposes the ledger, the day view and course reports.
type AttendanceHandler struct {
	attendance attendanceService
	days       dayService
	reports    reportService
	now        func() time.Time
}

// NewAttendanceHandler constructs the attendance handler.
func NewAttendanceHandler(attendance attendanceService, days dayService, reports reportService) *AttendanceHandler {
	return &AttendanceHandler{attendance: attendance, days: days, reports: reports, now: time.Now}
}

// SetStatus godoc
// @Summary Record the attendance status of one class occurrence
// @Tags Attendance
// @Accept json
// @Produce json
// @Param payload body dto.SetStatusRequest true "Occurrence and status"
// @Success 200 {object} response.Envelope
// @Router /attendance [put]
func (h *AttendanceHandler) SetStatus(c *gin.Context) {
	var req dto.SetStatusRequest
	if !bindJSON(c, &req, "invalid attendance payload") {
		return
	}
	record, err := h.attendance.SetStatusFromRequest(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record)
}

// ClassesFor godoc
// @Summary List the classes of a day, latest first
// @Tags Attendance
// @Produce json
// @Param date query string false "Day as YYYY-MM-DD, defaults to today"
// @Success 200 {object} response.Envelope
// @Router /classes [get]
func (h *AttendanceHandler) ClassesFor(c *gin.Context) {
	date := models.DateOf(h.now())
	if raw := strings.TrimSpace(c.Query("date")); raw != "" {
		parsed, err := models.ParseDate(raw)
		if err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid date"))
			return
		}
		date = parsed
	}
	classes, err := h.days.ClassesFor(c.Request.Context(), date)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, classes, map[string]interface{}{"date": date.String(), "total": len(classes)})
}

// Counts godoc
// @Summary Attendance counts and percentage of a course
// @Tags Attendance
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/attendance [get]
func (h *AttendanceHandler) Counts(c *gin.Context) {
	counts, err := h.attendance.Counts(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, counts, map[string]interface{}{"below_requirement": counts.BelowRequirement()})
}

// ClassesHeld godoc
// @Summary Number of classes a course held in a span
// @Tags Reports
// @Produce json
// @Param id path string true "Course ID"
// @Param from query string false "First day, defaults to course creation"
// @Param to query string false "Last day, defaults to today"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/held [get]
func (h *AttendanceHandler) ClassesHeld(c *gin.Context) {
	var query dto.ClassesHeldQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query"))
		return
	}
	held, err := h.reports.ClassesHeld(c.Request.Context(), c.Param("id"), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, held)
}

// Export godoc
// @Summary Download a course's attendance history
// @Tags Reports
// @Produce text/csv
// @Produce application/pdf
// @Param id path string true "Course ID"
// @Param format query string false "csv or pdf" Enums(csv, pdf)
// @Success 200 {file} file
// @Router /courses/{id}/export [get]
func (h *AttendanceHandler) Export(c *gin.Context) {
	file, err := h.reports.Export(c.Request.Context(), c.Param("id"), c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.ContentType, file.Filename, file.Payload)
}
