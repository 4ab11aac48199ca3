package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/alrafidain/college-records-api/internal/middleware"
	"github.com/alrafidain/college-records-api/internal/models"
	"github.com/alrafidain/college-records-api/internal/service"
)

// Handlers bundles every HTTP handler for route registration.
type Handlers struct {
	Auth       *AuthHandler
	Stages     *StageHandler
	StudyTypes *StudyTypeHandler
	Groups     *GroupHandler
	Courses    *CourseHandler
	Students   *StudentHandler
	Lecturers  *LecturerHandler
	Grades     *GradeHandler
	Schedules  *ScheduleHandler
	Activity   *ActivityHandler
	Dashboard  *DashboardHandler
	Profile    *ProfileHandler
}

// RegisterRoutes mounts the API under the given prefix. Admin-only resources
// sit behind an ADMIN role gate; stages, courses and grades are shared with
// lecturers, whose visibility the services narrow to assigned scopes.
func RegisterRoutes(r *gin.Engine, prefix string, authService *service.AuthService, h Handlers) {
	api := r.Group(prefix)

	api.POST("/login", h.Auth.Login)

	authed := api.Group("")
	authed.Use(middleware.JWT(authService))

	authed.POST("/logout", h.Auth.Logout)
	authed.GET("/me", h.Auth.Me)

	authed.GET("/profile", h.Profile.Get)
	authed.PUT("/profile", h.Profile.Update)
	authed.PUT("/profile/password", h.Profile.ChangePassword)

	shared := authed.Group("")
	shared.Use(middleware.RequireRoles(models.RoleAdmin, models.RoleLecturer))

	shared.GET("/stages", h.Stages.List)
	shared.GET("/stages/:id", h.Stages.Get)
	shared.GET("/courses", h.Courses.List)
	shared.GET("/courses/:id", h.Courses.Get)
	shared.GET("/grades", h.Grades.Ledger)
	shared.POST("/grades", h.Grades.Save)
	shared.GET("/schedules", h.Schedules.List)
	shared.GET("/schedules/:id", h.Schedules.Get)
	shared.GET("/groups", h.Groups.List)
	shared.GET("/study-types", h.StudyTypes.List)

	admin := authed.Group("")
	admin.Use(middleware.RequireRoles(models.RoleAdmin))

	admin.POST("/stages", h.Stages.Create)
	admin.PUT("/stages/:id", h.Stages.Update)
	admin.DELETE("/stages/:id", h.Stages.Delete)

	admin.GET("/study-types/:id", h.StudyTypes.Get)
	admin.POST("/study-types", h.StudyTypes.Create)
	admin.PUT("/study-types/:id", h.StudyTypes.Update)
	admin.DELETE("/study-types/:id", h.StudyTypes.Delete)

	admin.GET("/groups/:id", h.Groups.Get)
	admin.POST("/groups", h.Groups.Create)
	admin.PUT("/groups/:id", h.Groups.Update)
	admin.DELETE("/groups/:id", h.Groups.Delete)

	admin.POST("/courses", h.Courses.Create)
	admin.PUT("/courses/:id", h.Courses.Update)
	admin.DELETE("/courses/:id", h.Courses.Delete)
	admin.GET("/courses/export/:format", h.Courses.Export)

	admin.GET("/students", h.Students.List)
	admin.GET("/students/:id", h.Students.Get)
	admin.POST("/students", h.Students.Create)
	admin.PUT("/students/:id", h.Students.Update)
	admin.DELETE("/students/:id", h.Students.Delete)
	admin.DELETE("/students/delete-all", h.Students.DeleteAll)
	admin.POST("/students/import", h.Students.Import)
	admin.GET("/students/export", h.Students.Export)

	admin.GET("/lecturers", h.Lecturers.List)
	admin.GET("/lecturers/:id", h.Lecturers.Get)
	admin.POST("/lecturers", h.Lecturers.Create)
	admin.PUT("/lecturers/:id", h.Lecturers.Update)
	admin.DELETE("/lecturers/:id", h.Lecturers.Delete)

	admin.POST("/schedules", h.Schedules.Create)
	admin.PUT("/schedules/:id", h.Schedules.Update)
	admin.DELETE("/schedules/:id", h.Schedules.Delete)

	admin.GET("/activity-logs", h.Activity.List)
	admin.GET("/dashboard/stats", h.Dashboard.Stats)
}
