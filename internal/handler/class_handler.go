package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/class-engine-api/internal/dto"
	"github.com/noah-isme/class-engine-api/internal/middleware"
	"github.com/noah-isme/class-engine-api/internal/models"
	appErrors "github.com/noah-isme/class-engine-api/pkg/errors"
	"github.com/noah-isme/class-engine-api/pkg/response"
)

type classService interface {
	List(ctx context.Context, filter models.ClassFilter) ([]dto.ClassResponse, *models.Pagination, error)
	Get(ctx context.Context, id string) (*dto.ClassResponse, bool, error)
	Create(ctx context.Context, req dto.CreateClassRequest) (*dto.ClassResponse, error)
	UpdateDetails(ctx context.Context, id string, req dto.UpdateClassRequest) (*dto.ClassResponse, error)
	OpenEnrollment(ctx context.Context, id string) (*dto.ClassResponse, error)
	Activate(ctx context.Context, id string) (*dto.ClassResponse, error)
	Complete(ctx context.Context, id string) (*dto.ClassResponse, error)
	Cancel(ctx context.Context, id string) (*dto.ClassResponse, error)
	EnrollStudent(ctx context.Context, classID string, req dto.EnrollStudentRequest) (*dto.EnrollmentResponse, error)
	RemoveStudent(ctx context.Context, classID, studentID, reason string) error
	ListEnrollments(ctx context.Context, classID string) ([]dto.EnrollmentResponse, error)
	ExportRoster(ctx context.Context, classID, format string) (*dto.RosterExport, error)
	MarkAttendance(ctx context.Context, classID, actorID string, req dto.MarkAttendanceRequest) (*dto.AttendanceResult, error)
	CorrectAttendance(ctx context.Context, classID, attendanceID, actorID string, req dto.CorrectAttendanceRequest) (*dto.AttendanceResult, error)
	ListAttendance(ctx context.Context, classID, enrollmentID string) ([]dto.AttendanceResponse, error)
	AdjustCredits(ctx context.Context, classID, enrollmentID, actorID string, req dto.AdjustCreditsRequest) (*dto.CreditAdjustmentResult, error)
	ListCreditAdjustments(ctx context.Context, classID, enrollmentID string) ([]dto.CreditAdjustmentResponse, error)
	UnlockLesson(ctx context.Context, classID, actorID string, req dto.UnlockLessonRequest) (*dto.LessonUnlockResponse, error)
	AddMeetings(ctx context.Context, classID string, req dto.AddMeetingsRequest) (*dto.ClassResponse, error)
}

// ClassHandler exposes class, enrollment, attendance and credit endpoints.
type ClassHandler struct {
	service classService
}

// NewClassHandler constructs a class handler.
func NewClassHandler(svc classService) *ClassHandler {
	return &ClassHandler{service: svc}
}

// List godoc
// @Summary List classes
// @Tags Classes
// @Produce json
// @Param courseId query string false "Filter by course"
// @Param instructorId query string false "Filter by instructor"
// @Param studentId query string false "Classes with an enrollment for the student"
// @Param status query string false "draft, enrollment_open, active, completed, cancelled"
// @Param type query string false "group or private"
// @Param search query string false "Search keyword"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Param sort query string false "name, status, start_date, created_at"
// @Param order query string false "asc or desc"
// @Success 200 {object} response.Envelope
// @Router /classes [get]
func (h *ClassHandler) List(c *gin.Context) {
	filter := models.ClassFilter{
		CourseID:     c.Query("courseId"),
		InstructorID: c.Query("instructorId"),
		StudentID:    c.Query("studentId"),
		Status:       c.Query("status"),
		Type:         c.Query("type"),
		Search:       strings.TrimSpace(c.Query("search")),
		Page:         parseQueryInt(c, "page", 1),
		PageSize:     parseQueryInt(c, "limit", 20),
		SortBy:       c.Query("sort"),
		SortOrder:    c.Query("order"),
	}

	classes, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, classes, pagination)
}

// Get godoc
// @Summary Get class detail with enrollments and lesson unlocks
// @Tags Classes
// @Produce json
// @Param id path string true "Class ID"
// @Success 200 {object} response.Envelope
// @Router /classes/{id} [get]
func (h *ClassHandler) Get(c *gin.Context) {
	class, hit, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, class, nil, middleware.ExtractMeta(c))
}

// Create godoc
// @Summary Create a draft class
// @Tags Classes
// @Accept json
// @Produce json
// @Param payload body dto.CreateClassRequest true "Class payload"
// @Success 201 {object} response.Envelope
// @Router /classes [post]
func (h *ClassHandler) Create(c *gin.Context) {
	var req dto.CreateClassRequest
	if !bindJSON(c, &req, "invalid class payload") {
		return
	}
	class, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, class)
}

// Update godoc
// @Summary Update class details
// @Tags Classes
// @Accept json
// @Produce json
// @Param id path string true "Class ID"
// @Param payload body dto.UpdateClassRequest true "Fields to change"
// @Success 200 {object} response.Envelope
// @Router /classes/{id} [patch]
func (h *ClassHandler) Update(c *gin.Context) {
	var req dto.UpdateClassRequest
	if !bindJSON(c, &req, "invalid class payload") {
		return
	}
	class, err := h.service.UpdateDetails(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, class, nil)
}

// OpenEnrollment godoc
// @Summary Open a draft class for enrollment
// @Tags Classes
// @Produce json
// @Param id path string true "Class ID"
// @Success 200 {object} response.Envelope
// @Router /classes/{id}/open-enrollment [post]
func (h *ClassHandler) OpenEnrollment(c *gin.Context) {
	h.lifecycle(c, h.service.OpenEnrollment)
}

// Activate godoc
// @Summary Start a class
// @Tags Classes
// @Produce json
// @Param id path string true "Class ID"
// @Success 200 {object} response.Envelope
// @Router /classes/{id}/activate [post]
func (h *ClassHandler) Activate(c *gin.Context) {
	h.lifecycle(c, h.service.Activate)
}

// Complete godoc
// @Summary Complete a class and its active enrollments
// @Tags Classes
// @Produce json
// @Param id path string true "Class ID"
// @Success 200 {object} response.Envelope
// @Router /classes/{id}/complete [post]
func (h *ClassHandler) Complete(c *gin.Context) {
	h.lifecycle(c, h.service.Complete)
}

// Cancel godoc
// @Summary Cancel a class
// @Tags Classes
// @Produce json
// @Param id path string true "Class ID"
// @Success 200 {object} response.Envelope
// @Router /classes/{id}/cancel [post]
func (h *ClassHandler) Cancel(c *gin.Context) {
	h.lifecycle(c, h.service.Cancel)
}

func (h *ClassHandler) lifecycle(c *gin.Context, apply func(context.Context, string) (*dto.ClassResponse, error)) {
	class, err := apply(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, class, nil)
}

// Enroll godoc
// @Summary Enroll a student
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param id path string true "Class ID"
// @Param payload body dto.EnrollStudentRequest true "Enrollment payload"
// @Success 201 {object} response.Envelope
// @Router /classes/{id}/enrollments [post]
func (h *ClassHandler) Enroll(c *gin.Context) {
	var req dto.EnrollStudentRequest
	if !bindJSON(c, &req, "invalid enrollment payload") {
		return
	}
	enrollment, err := h.service.EnrollStudent(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, enrollment)
}

// ListEnrollments godoc
// @Summary List class enrollments
// @Tags Enrollments
// @Produce json
// @Param id path string true "Class ID"
// @Success 200 {object} response.Envelope
// @Router /classes/{id}/enrollments [get]
func (h *ClassHandler) ListEnrollments(c *gin.Context) {
	items, err := h.service.ListEnrollments(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// ExportRoster godoc
// @Summary Download the class roster with credit balances
// @Tags Enrollments
// @Produce text/csv
// @Produce application/pdf
// @Param id path string true "Class ID"
// @Param format query string false "csv (default) or pdf"
// @Success 200 {file} file
// @Router /classes/{id}/roster [get]
func (h *ClassHandler) ExportRoster(c *gin.Context) {
	file, err := h.service.ExportRoster(c.Request.Context(), c.Param("id"), c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, file.ContentType, file.Body)
}

// RemoveStudent godoc
// @Summary Withdraw a student from the class
// @Tags Enrollments
// @Param id path string true "Class ID"
// @Param studentId path string true "Student ID"
// @Param reason query string false "Withdrawal reason"
// @Success 204
// @Router /classes/{id}/students/{studentId} [delete]
func (h *ClassHandler) RemoveStudent(c *gin.Context) {
	if err := h.service.RemoveStudent(c.Request.Context(), c.Param("id"), c.Param("studentId"), c.Query("reason")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// MarkAttendance godoc
// @Summary Mark attendance for a meeting
// @Tags Attendance
// @Accept json
// @Produce json
// @Param id path string true "Class ID"
// @Param payload body dto.MarkAttendanceRequest true "Attendance payload"
// @Success 201 {object} response.Envelope
// @Router /classes/{id}/attendance [post]
func (h *ClassHandler) MarkAttendance(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	var req dto.MarkAttendanceRequest
	if !bindJSON(c, &req, "invalid attendance payload") {
		return
	}
	result, err := h.service.MarkAttendance(c.Request.Context(), c.Param("id"), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// CorrectAttendance godoc
// @Summary Correct a recorded attendance status
// @Tags Attendance
// @Accept json
// @Produce json
// @Param id path string true "Class ID"
// @Param attendanceId path string true "Attendance ID"
// @Param payload body dto.CorrectAttendanceRequest true "Correction payload"
// @Success 200 {object} response.Envelope
// @Router /classes/{id}/attendance/{attendanceId} [put]
func (h *ClassHandler) CorrectAttendance(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	var req dto.CorrectAttendanceRequest
	if !bindJSON(c, &req, "invalid attendance payload") {
		return
	}
	result, err := h.service.CorrectAttendance(c.Request.Context(), c.Param("id"), c.Param("attendanceId"), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// ListAttendance godoc
// @Summary Attendance trail of an enrollment
// @Tags Attendance
// @Produce json
// @Param id path string true "Class ID"
// @Param enrollmentId path string true "Enrollment ID"
// @Success 200 {object} response.Envelope
// @Router /classes/{id}/enrollments/{enrollmentId}/attendance [get]
func (h *ClassHandler) ListAttendance(c *gin.Context) {
	items, err := h.service.ListAttendance(c.Request.Context(), c.Param("id"), c.Param("enrollmentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// AdjustCredits godoc
// @Summary Manually adjust enrollment credits
// @Tags Credits
// @Accept json
// @Produce json
// @Param id path string true "Class ID"
// @Param enrollmentId path string true "Enrollment ID"
// @Param payload body dto.AdjustCreditsRequest true "Adjustment payload"
// @Success 201 {object} response.Envelope
// @Router /classes/{id}/enrollments/{enrollmentId}/credit-adjustments [post]
func (h *ClassHandler) AdjustCredits(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	var req dto.AdjustCreditsRequest
	if !bindJSON(c, &req, "invalid credit adjustment payload") {
		return
	}
	result, err := h.service.AdjustCredits(c.Request.Context(), c.Param("id"), c.Param("enrollmentId"), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// ListCreditAdjustments godoc
// @Summary Credit adjustment trail of an enrollment
// @Tags Credits
// @Produce json
// @Param id path string true "Class ID"
// @Param enrollmentId path string true "Enrollment ID"
// @Success 200 {object} response.Envelope
// @Router /classes/{id}/enrollments/{enrollmentId}/credit-adjustments [get]
func (h *ClassHandler) ListCreditAdjustments(c *gin.Context) {
	items, err := h.service.ListCreditAdjustments(c.Request.Context(), c.Param("id"), c.Param("enrollmentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// UnlockLesson godoc
// @Summary Unlock a lesson for the class
// @Tags Lessons
// @Accept json
// @Produce json
// @Param id path string true "Class ID"
// @Param payload body dto.UnlockLessonRequest true "Unlock payload"
// @Success 201 {object} response.Envelope
// @Router /classes/{id}/lesson-unlocks [post]
func (h *ClassHandler) UnlockLesson(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	var req dto.UnlockLessonRequest
	if !bindJSON(c, &req, "invalid lesson unlock payload") {
		return
	}
	unlock, err := h.service.UnlockLesson(c.Request.Context(), c.Param("id"), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, unlock)
}

// AddMeetings godoc
// @Summary Add meetings to a private class
// @Tags Classes
// @Accept json
// @Produce json
// @Param id path string true "Class ID"
// @Param payload body dto.AddMeetingsRequest true "Meetings payload"
// @Success 200 {object} response.Envelope
// @Router /classes/{id}/meetings [post]
func (h *ClassHandler) AddMeetings(c *gin.Context) {
	var req dto.AddMeetingsRequest
	if !bindJSON(c, &req, "invalid meetings payload") {
		return
	}
	class, err := h.service.AddMeetings(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, class, nil)
}

func bindJSON(c *gin.Context, dest interface{}, message string) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, message))
		return false
	}
	return true
}

func actorID(c *gin.Context) (string, bool) {
	claims := claimsFromContext(c)
	if claims == nil || claims.UserID == "" {
		response.Error(c, appErrors.ErrUnauthorized)
		return "", false
	}
	return claims.UserID, true
}

func parseQueryInt(c *gin.Context, key string, def int) int {
	raw := c.Query(key)
	if raw == "" {
		return def
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return val
}
