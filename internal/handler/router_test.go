package handler

import (
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alrafidain/college-records-api/internal/service"
)

func registeredRoutes(t *testing.T) map[string]bool {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterRoutes(r, "/api", service.NewAuthService(nil, nil, nil, service.AuthConfig{}), Handlers{
		Auth:       &AuthHandler{},
		Stages:     &StageHandler{},
		StudyTypes: &StudyTypeHandler{},
		Groups:     &GroupHandler{},
		Courses:    &CourseHandler{},
		Students:   &StudentHandler{},
		Lecturers:  &LecturerHandler{},
		Grades:     &GradeHandler{},
		Schedules:  &ScheduleHandler{},
		Activity:   &ActivityHandler{},
		Dashboard:  &DashboardHandler{},
		Profile:    &ProfileHandler{},
	})

	routes := make(map[string]bool, len(r.Routes()))
	for _, route := range r.Routes() {
		routes[route.Method+" "+route.Path] = true
	}
	return routes
}

func TestRegisterRoutesPaths(t *testing.T) {
	routes := registeredRoutes(t)

	expected := []string{
		"POST /api/login",
		"POST /api/logout",
		"GET /api/me",
		"GET /api/stages",
		"GET /api/stages/:id",
		"POST /api/stages",
		"PUT /api/stages/:id",
		"DELETE /api/stages/:id",
		"GET /api/courses",
		"GET /api/courses/:id",
		"GET /api/courses/export/:format",
		"POST /api/students/import",
		"GET /api/students/export",
		"DELETE /api/students/delete-all",
		"DELETE /api/students/:id",
		"GET /api/grades",
		"POST /api/grades",
		"GET /api/dashboard/stats",
		"GET /api/activity-logs",
	}
	for _, route := range expected {
		assert.True(t, routes[route], "missing route %s", route)
	}
}

func TestRegisterRoutesDropsLegacyPaths(t *testing.T) {
	routes := registeredRoutes(t)

	legacy := []string{
		"POST /api/auth/login",
		"POST /api/students-import",
		"GET /api/students-export",
		"GET /api/courses-export",
		"DELETE /api/students",
		"GET /api/dashboard",
	}
	for _, route := range legacy {
		require.False(t, routes[route], "unexpected route %s", route)
	}
}
