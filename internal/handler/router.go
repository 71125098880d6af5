package handler

import (
	"github.com/gin-gonic/gin"
)

// Handlers bundles every route handler the API serves.
type Handlers struct {
	Groups   *GroupHandler
	Students *StudentHandler
	Teachers *TeacherHandler
	Subjects *SubjectHandler
	Grades   *GradeHandler
	Queries  *QueryHandler
	Reports  *ReportHandler
	Metrics  *MetricsHandler
}

// RegisterRoutes mounts the health checks on root and the API under prefix.
func RegisterRoutes(r *gin.Engine, prefix string, h Handlers) {
	r.GET("/health", h.Metrics.Health)
	r.GET("/ready", h.Metrics.Ready)
	r.GET("/metrics", h.Metrics.Prometheus)

	api := r.Group(prefix)
	api.GET("/system/metrics", h.Metrics.System)

	groups := api.Group("/groups")
	groups.GET("", h.Groups.List)
	groups.POST("", h.Groups.Create)
	groups.GET("/:id", h.Groups.Get)
	groups.PUT("/:id", h.Groups.Update)
	groups.DELETE("/:id", h.Groups.Delete)

	students := api.Group("/students")
	students.GET("", h.Students.List)
	students.POST("", h.Students.Create)
	students.GET("/:id", h.Students.Get)
	students.PUT("/:id", h.Students.Update)
	students.DELETE("/:id", h.Students.Delete)

	teachers := api.Group("/teachers")
	teachers.GET("", h.Teachers.List)
	teachers.POST("", h.Teachers.Create)
	teachers.GET("/:id", h.Teachers.Get)
	teachers.PUT("/:id", h.Teachers.Update)
	teachers.DELETE("/:id", h.Teachers.Delete)
	teachers.GET("/:id/subjects", h.Teachers.Subjects)
	teachers.PUT("/:id/subjects/:subject_id", h.Teachers.AssignSubject)
	teachers.DELETE("/:id/subjects/:subject_id", h.Teachers.UnassignSubject)

	subjects := api.Group("/subjects")
	subjects.GET("", h.Subjects.List)
	subjects.POST("", h.Subjects.Create)
	subjects.GET("/:id", h.Subjects.Get)
	subjects.PUT("/:id", h.Subjects.Update)
	subjects.DELETE("/:id", h.Subjects.Delete)

	grades := api.Group("/grades")
	grades.GET("", h.Grades.List)
	grades.POST("", h.Grades.Create)
	grades.GET("/:id", h.Grades.Get)
	grades.PUT("/:id", h.Grades.Update)
	grades.DELETE("/:id", h.Grades.Delete)

	if h.Reports != nil {
		reports := api.Group("/reports")
		reports.POST("", h.Reports.Generate)
		reports.GET("/download/:token", h.Reports.Download)
		reports.GET("/:id", h.Reports.Status)
	}

	queries := api.Group("/queries")
	queries.GET("/top-students", h.Queries.TopStudents)
	queries.GET("/overall-average", h.Queries.OverallAverage)
	queries.GET("/samples", h.Queries.SampleNames)
	queries.GET("/subjects/:subject/top-student", h.Queries.TopStudentInSubject)
	queries.GET("/subjects/:subject/group-averages", h.Queries.GroupAveragesForSubject)
	queries.GET("/teachers/:teacher/subjects", h.Queries.SubjectsByTeacher)
	queries.GET("/teachers/:teacher/average", h.Queries.TeacherAverage)
	queries.GET("/teachers/:teacher/students/:student/average", h.Queries.TeacherStudentAverage)
	queries.GET("/groups/:group/students", h.Queries.StudentsInGroup)
	queries.GET("/groups/:group/subjects/:subject/grades", h.Queries.GroupSubjectGrades)
	queries.GET("/groups/:group/subjects/:subject/last-lesson", h.Queries.LastLessonGrades)
	queries.GET("/students/:student/subjects", h.Queries.StudentSubjects)
	queries.GET("/students/:student/teachers/:teacher/subjects", h.Queries.StudentSubjectsByTeacher)
}
