package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/gradebook/internal/middleware"
	"github.com/noah-isme/gradebook/internal/repository"
	"github.com/noah-isme/gradebook/internal/service"
	appErrors "github.com/noah-isme/gradebook/pkg/errors"
	"github.com/noah-isme/gradebook/pkg/response"
)

// QueryHandler exposes the analytical queries.
type QueryHandler struct {
	queries *service.QueryService
}

// NewQueryHandler constructs the query handler.
func NewQueryHandler(queries *service.QueryService) *QueryHandler {
	return &QueryHandler{queries: queries}
}

// averageResult wraps scalar averages so that an empty set renders as null.
type averageResult struct {
	Average *float64 `json:"average"`
}

// TopStudents godoc
// @Summary Students with the highest average grade
// @Tags Queries
// @Produce json
// @Param limit query int false "Maximum rows" default(5)
// @Success 200 {object} response.Envelope
// @Router /queries/top-students [get]
func (h *QueryHandler) TopStudents(c *gin.Context) {
	limit := repository.DefaultTopStudents
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid limit parameter"))
			return
		}
		limit = parsed
	}
	rows, err := h.queries.TopStudents(h.context(c), limit)
	h.respond(c, rows, err)
}

// TopStudentInSubject godoc
// @Summary Best student in a subject
// @Tags Queries
// @Produce json
// @Param subject path string true "Subject name"
// @Success 200 {object} response.Envelope
// @Router /queries/subjects/{subject}/top-student [get]
func (h *QueryHandler) TopStudentInSubject(c *gin.Context) {
	subject, ok := h.names(c, "subject")
	if !ok {
		return
	}
	row, err := h.queries.TopStudentInSubject(h.context(c), subject[0])
	h.respond(c, row, err)
}

// GroupAveragesForSubject godoc
// @Summary Average grade per group in a subject
// @Tags Queries
// @Produce json
// @Param subject path string true "Subject name"
// @Success 200 {object} response.Envelope
// @Router /queries/subjects/{subject}/group-averages [get]
func (h *QueryHandler) GroupAveragesForSubject(c *gin.Context) {
	subject, ok := h.names(c, "subject")
	if !ok {
		return
	}
	rows, err := h.queries.GroupAveragesForSubject(h.context(c), subject[0])
	h.respond(c, rows, err)
}

// OverallAverage godoc
// @Summary Average of every grade
// @Tags Queries
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /queries/overall-average [get]
func (h *QueryHandler) OverallAverage(c *gin.Context) {
	avg, err := h.queries.OverallAverage(h.context(c))
	h.respond(c, averageResult{Average: avg}, err)
}

// SubjectsByTeacher godoc
// @Summary Subjects taught by a teacher
// @Tags Queries
// @Produce json
// @Param teacher path string true "Teacher name"
// @Success 200 {object} response.Envelope
// @Router /queries/teachers/{teacher}/subjects [get]
func (h *QueryHandler) SubjectsByTeacher(c *gin.Context) {
	teacher, ok := h.names(c, "teacher")
	if !ok {
		return
	}
	rows, err := h.queries.SubjectsByTeacher(h.context(c), teacher[0])
	h.respond(c, rows, err)
}

// StudentsInGroup godoc
// @Summary Students of a group
// @Tags Queries
// @Produce json
// @Param group path string true "Group name"
// @Success 200 {object} response.Envelope
// @Router /queries/groups/{group}/students [get]
func (h *QueryHandler) StudentsInGroup(c *gin.Context) {
	group, ok := h.names(c, "group")
	if !ok {
		return
	}
	rows, err := h.queries.StudentsInGroup(h.context(c), group[0])
	h.respond(c, rows, err)
}

// GroupSubjectGrades godoc
// @Summary Grades of a group's students in a subject
// @Tags Queries
// @Produce json
// @Param group path string true "Group name"
// @Param subject path string true "Subject name"
// @Success 200 {object} response.Envelope
// @Router /queries/groups/{group}/subjects/{subject}/grades [get]
func (h *QueryHandler) GroupSubjectGrades(c *gin.Context) {
	names, ok := h.names(c, "group", "subject")
	if !ok {
		return
	}
	rows, err := h.queries.GroupSubjectGrades(h.context(c), names[0], names[1])
	h.respond(c, rows, err)
}

// TeacherAverage godoc
// @Summary Average grade across a teacher's subjects
// @Tags Queries
// @Produce json
// @Param teacher path string true "Teacher name"
// @Success 200 {object} response.Envelope
// @Router /queries/teachers/{teacher}/average [get]
func (h *QueryHandler) TeacherAverage(c *gin.Context) {
	teacher, ok := h.names(c, "teacher")
	if !ok {
		return
	}
	avg, err := h.queries.TeacherAverage(h.context(c), teacher[0])
	h.respond(c, averageResult{Average: avg}, err)
}

// StudentSubjects godoc
// @Summary Subjects a student has grades in
// @Tags Queries
// @Produce json
// @Param student path string true "Student name"
// @Success 200 {object} response.Envelope
// @Router /queries/students/{student}/subjects [get]
func (h *QueryHandler) StudentSubjects(c *gin.Context) {
	student, ok := h.names(c, "student")
	if !ok {
		return
	}
	rows, err := h.queries.StudentSubjects(h.context(c), student[0])
	h.respond(c, rows, err)
}

// StudentSubjectsByTeacher godoc
// @Summary Subjects a teacher teaches to a student
// @Tags Queries
// @Produce json
// @Param student path string true "Student name"
// @Param teacher path string true "Teacher name"
// @Success 200 {object} response.Envelope
// @Router /queries/students/{student}/teachers/{teacher}/subjects [get]
func (h *QueryHandler) StudentSubjectsByTeacher(c *gin.Context) {
	names, ok := h.names(c, "student", "teacher")
	if !ok {
		return
	}
	rows, err := h.queries.StudentSubjectsByTeacher(h.context(c), names[0], names[1])
	h.respond(c, rows, err)
}

// TeacherStudentAverage godoc
// @Summary Average grade a teacher gave a student
// @Tags Queries
// @Produce json
// @Param teacher path string true "Teacher name"
// @Param student path string true "Student name"
// @Success 200 {object} response.Envelope
// @Router /queries/teachers/{teacher}/students/{student}/average [get]
func (h *QueryHandler) TeacherStudentAverage(c *gin.Context) {
	names, ok := h.names(c, "teacher", "student")
	if !ok {
		return
	}
	avg, err := h.queries.TeacherStudentAverage(h.context(c), names[0], names[1])
	h.respond(c, averageResult{Average: avg}, err)
}

// LastLessonGrades godoc
// @Summary Grades given on the latest lesson of a group in a subject
// @Tags Queries
// @Produce json
// @Param group path string true "Group name"
// @Param subject path string true "Subject name"
// @Success 200 {object} response.Envelope
// @Router /queries/groups/{group}/subjects/{subject}/last-lesson [get]
func (h *QueryHandler) LastLessonGrades(c *gin.Context) {
	names, ok := h.names(c, "group", "subject")
	if !ok {
		return
	}
	rows, err := h.queries.LastLessonGrades(h.context(c), names[0], names[1])
	h.respond(c, rows, err)
}

// SampleNames godoc
// @Summary Names that have data behind them
// @Tags Queries
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /queries/samples [get]
func (h *QueryHandler) SampleNames(c *gin.Context) {
	samples, err := h.queries.SampleNames(h.context(c))
	h.respond(c, samples, err)
}

func (h *QueryHandler) names(c *gin.Context, params ...string) ([]string, bool) {
	values := make([]string, 0, len(params))
	for _, param := range params {
		value, err := nameParam(c, param)
		if err != nil {
			response.Error(c, err)
			return nil, false
		}
		values = append(values, value)
	}
	return values, true
}

// context traces whether the query is answered from cache.
func (h *QueryHandler) context(c *gin.Context) context.Context {
	ctx := service.WithCacheTrace(c.Request.Context())
	c.Request = c.Request.WithContext(ctx)
	return ctx
}

func (h *QueryHandler) respond(c *gin.Context, data interface{}, err error) {
	if err != nil {
		response.Error(c, err)
		return
	}
	if hit, ok := service.CacheHit(c.Request.Context()); ok {
		middleware.SetCacheHit(c, hit)
	}
	response.JSON(c, http.StatusOK, data, middleware.ExtractMeta(c))
}
