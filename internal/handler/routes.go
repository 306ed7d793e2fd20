package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/class-engine-api/internal/middleware"
	"github.com/noah-isme/class-engine-api/internal/models"
)

// RegisterClassRoutes mounts the class API on rg. rg must already run JWT.
// Class setup and credit changes are back-office actions; attendance is also
// open to instructors. Lesson unlocks are checked against the class instructor
// by the domain, so any authenticated user may call them.
func RegisterClassRoutes(rg *gin.RouterGroup, h *ClassHandler) {
	backOffice := middleware.RequireRoles(models.RoleAdmin, models.RoleStaff)
	teaching := middleware.RequireRoles(models.RoleAdmin, models.RoleStaff, models.RoleInstructor)

	classes := rg.Group("/classes")
	classes.GET("", h.List)
	classes.POST("", backOffice, h.Create)
	classes.GET("/:id", h.Get)
	classes.PATCH("/:id", backOffice, h.Update)

	classes.POST("/:id/open-enrollment", backOffice, h.OpenEnrollment)
	classes.POST("/:id/activate", backOffice, h.Activate)
	classes.POST("/:id/complete", backOffice, h.Complete)
	classes.POST("/:id/cancel", backOffice, h.Cancel)
	classes.POST("/:id/meetings", backOffice, h.AddMeetings)

	classes.GET("/:id/enrollments", h.ListEnrollments)
	classes.GET("/:id/roster", teaching, h.ExportRoster)
	classes.POST("/:id/enrollments", backOffice, h.Enroll)
	classes.DELETE("/:id/students/:studentId", backOffice, h.RemoveStudent)

	classes.POST("/:id/attendance", teaching, h.MarkAttendance)
	classes.PUT("/:id/attendance/:attendanceId", teaching, h.CorrectAttendance)
	classes.GET("/:id/enrollments/:enrollmentId/attendance", h.ListAttendance)

	classes.POST("/:id/enrollments/:enrollmentId/credit-adjustments", backOffice, h.AdjustCredits)
	classes.GET("/:id/enrollments/:enrollmentId/credit-adjustments", h.ListCreditAdjustments)

	classes.POST("/:id/lesson-unlocks", h.UnlockLesson)
}
