package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/gradebook/internal/service"
	"github.com/noah-isme/gradebook/pkg/response"
)

// TeacherHandler handles teacher endpoints.
type TeacherHandler struct {
	service *service.TeacherService
}

// NewTeacherHandler constructs a teacher handler.
func NewTeacherHandler(svc *service.TeacherService) *TeacherHandler {
	return &TeacherHandler{service: svc}
}

// List godoc
// @Summary List teachers
// @Tags Teachers
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /teachers [get]
func (h *TeacherHandler) List(c *gin.Context) {
	teachers, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, teachers)
}

// Get godoc
// @Summary Get teacher by id
// @Tags Teachers
// @Produce json
// @Param id path int true "Teacher ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /teachers/{id} [get]
func (h *TeacherHandler) Get(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	teacher, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, teacher)
}

// Create godoc
// @Summary Create teacher
// @Tags Teachers
// @Accept json
// @Produce json
// @Param payload body service.TeacherRequest true "Teacher payload"
// @Success 201 {object} response.Envelope
// @Router /teachers [post]
func (h *TeacherHandler) Create(c *gin.Context) {
	var req service.TeacherRequest
	if err := bindJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	teacher, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, teacher)
}

// Update godoc
// @Summary Rename teacher
// @Tags Teachers
// @Accept json
// @Produce json
// @Param id path int true "Teacher ID"
// @Param payload body service.TeacherRequest true "Teacher payload"
// @Success 200 {object} response.Envelope
// @Router /teachers/{id} [put]
func (h *TeacherHandler) Update(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.TeacherRequest
	if err := bindJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	teacher, err := h.service.Update(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, teacher)
}

// Delete godoc
// @Summary Delete teacher, keeping their subjects
// @Tags Teachers
// @Param id path int true "Teacher ID"
// @Success 204 {string} string "No Content"
// @Router /teachers/{id} [delete]
func (h *TeacherHandler) Delete(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Subjects godoc
// @Summary List subjects taught by a teacher
// @Tags Teachers
// @Produce json
// @Param id path int true "Teacher ID"
// @Success 200 {object} response.Envelope
// @Router /teachers/{id}/subjects [get]
func (h *TeacherHandler) Subjects(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	subjects, err := h.service.ListSubjects(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, subjects)
}

// AssignSubject godoc
// @Summary Link a subject to a teacher
// @Tags Teachers
// @Param id path int true "Teacher ID"
// @Param subject_id path int true "Subject ID"
// @Success 204 {string} string "No Content"
// @Failure 422 {object} response.Envelope
// @Router /teachers/{id}/subjects/{subject_id} [put]
func (h *TeacherHandler) AssignSubject(c *gin.Context) {
	teacherID, subjectID, ok := h.pair(c)
	if !ok {
		return
	}
	if err := h.service.AssignSubject(c.Request.Context(), teacherID, subjectID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// UnassignSubject godoc
// @Summary Remove a subject from a teacher
// @Tags Teachers
// @Param id path int true "Teacher ID"
// @Param subject_id path int true "Subject ID"
// @Success 204 {string} string "No Content"
// @Router /teachers/{id}/subjects/{subject_id} [delete]
func (h *TeacherHandler) UnassignSubject(c *gin.Context) {
	teacherID, subjectID, ok := h.pair(c)
	if !ok {
		return
	}
	if err := h.service.UnassignSubject(c.Request.Context(), teacherID, subjectID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

func (h *TeacherHandler) pair(c *gin.Context) (int64, int64, bool) {
	teacherID, err := parseID(c, "id")
	if err != nil {
		response.Error(c, err)
		return 0, 0, false
	}
	subjectID, err := parseID(c, "subject_id")
	if err != nil {
		response.Error(c, err)
		return 0, 0, false
	}
	return teacherID, subjectID, true
}
