package models

// DashboardStats aggregates entity counts plus the latest registered
// students for the landing dashboard.
type DashboardStats struct {
	Students       int             `json:"students"`
	Lecturers      int             `json:"lecturers"`
	Stages         int             `json:"stages"`
	Courses        int             `json:"courses"`
	Groups         int             `json:"groups"`
	StudyTypes     int             `json:"study_types"`
	RecentStudents []StudentDetail `json:"recent_students"`
}
