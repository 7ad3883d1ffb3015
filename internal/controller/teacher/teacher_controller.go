package teacher

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lunamoss/readmaster/internal/dto"
	"github.com/lunamoss/readmaster/internal/middleware"
	"github.com/lunamoss/readmaster/internal/service"
	"github.com/rs/zerolog/log"
)

// TeacherController covers class rosters, reading assignments and progress
// views for the students a teacher oversees.
type TeacherController struct {
	classService      service.ClassService
	assessmentService service.AssessmentService
}

func NewTeacherController(classService service.ClassService, assessmentService service.AssessmentService) *TeacherController {
	return &TeacherController{classService: classService, assessmentService: assessmentService}
}

func (c *TeacherController) RegisterRoutes(rg *gin.RouterGroup) {
	classes := rg.Group("/classes")
	classes.POST("", c.CreateClass)
	classes.GET("", c.ListClasses)
	classes.GET("/:id", c.GetClass)
	classes.PATCH("/:id", c.UpdateClass)
	classes.DELETE("/:id", c.DeleteClass)
	classes.POST("/:id/students", c.AddStudent)
	classes.DELETE("/:id/students/:studentId", c.RemoveStudent)

	rg.GET("/students/:id/assessments", c.ListStudentAssessments)
	rg.GET("/students/:id/progress", c.StudentProgress)
}

// RegisterAssignmentRoutes is mounted separately because parents may assign
// readings to their linked children as well.
func (c *TeacherController) RegisterAssignmentRoutes(rg *gin.RouterGroup) {
	rg.POST("/assignments", c.AssignReading)
}

// CreateClass godoc
// @Summary Create a class
// @Tags classes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param class body dto.CreateClassRequest true "Class data"
// @Success 201 {object} dto.ClassResponse
// @Failure 400 {object} dto.ErrorResponse
// @Router /classes [post]
func (c *TeacherController) CreateClass(ctx *gin.Context) {
	var req dto.CreateClassRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}

	user := middleware.CurrentUser(ctx)
	class, err := c.classService.CreateClass(user, req)
	if err != nil {
		ctx.JSON(service.HTTPStatus(err), dto.ErrorResponse{Error: err.Error()})
		return
	}
	ctx.JSON(http.StatusCreated, class)
}

// ListClasses godoc
// @Summary List the calling teacher's classes
// @Tags classes
// @Produce json
// @Security BearerAuth
// @Success 200 {array} dto.ClassResponse
// @Router /classes [get]
func (c *TeacherController) ListClasses(ctx *gin.Context) {
	user := middleware.CurrentUser(ctx)
	classes, err := c.classService.ListClasses(user)
	if err != nil {
		ctx.JSON(service.HTTPStatus(err), dto.ErrorResponse{Error: err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, classes)
}

// GetClass godoc
// @Summary Get a class with its roster
// @Tags classes
// @Produce json
// @Security BearerAuth
// @Param id path string true "Class ID"
// @Success 200 {object} dto.ClassDetailResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /classes/{id} [get]
func (c *TeacherController) GetClass(ctx *gin.Context) {
	user := middleware.CurrentUser(ctx)
	class, err := c.classService.GetClass(user, ctx.Param("id"))
	if err != nil {
		ctx.JSON(service.HTTPStatus(err), dto.ErrorResponse{Error: err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, class)
}

// UpdateClass godoc
// @Summary Update class metadata
// @Tags classes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Class ID"
// @Param class body dto.UpdateClassRequest true "Fields to update"
// @Success 200 {object} dto.ClassResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /classes/{id} [patch]
func (c *TeacherController) UpdateClass(ctx *gin.Context) {
	var req dto.UpdateClassRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}

	user := middleware.CurrentUser(ctx)
	class, err := c.classService.UpdateClass(user, ctx.Param("id"), req)
	if err != nil {
		ctx.JSON(service.HTTPStatus(err), dto.ErrorResponse{Error: err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, class)
}

// DeleteClass godoc
// @Summary Delete a class
// @Tags classes
// @Security BearerAuth
// @Param id path string true "Class ID"
// @Success 204 "No Content"
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /classes/{id} [delete]
func (c *TeacherController) DeleteClass(ctx *gin.Context) {
	user := middleware.CurrentUser(ctx)
	if err := c.classService.DeleteClass(user, ctx.Param("id")); err != nil {
		ctx.JSON(service.HTTPStatus(err), dto.ErrorResponse{Error: err.Error()})
		return
	}
	ctx.Status(http.StatusNoContent)
}

// AddStudent godoc
// @Summary Add a student to a class
// @Tags classes
// @Accept json
// @Security BearerAuth
// @Param id path string true "Class ID"
// @Param student body dto.AddClassStudentRequest true "Student to add"
// @Success 204 "No Content"
// @Failure 400 {object} dto.ErrorResponse "User is not a student"
// @Failure 404 {object} dto.ErrorResponse
// @Router /classes/{id}/students [post]
func (c *TeacherController) AddStudent(ctx *gin.Context) {
	var req dto.AddClassStudentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}

	user := middleware.CurrentUser(ctx)
	if err := c.classService.AddStudent(user, ctx.Param("id"), req); err != nil {
		ctx.JSON(service.HTTPStatus(err), dto.ErrorResponse{Error: err.Error()})
		return
	}
	ctx.Status(http.StatusNoContent)
}

// RemoveStudent godoc
// @Summary Remove a student from a class
// @Tags classes
// @Security BearerAuth
// @Param id path string true "Class ID"
// @Param studentId path string true "Student ID"
// @Success 204 "No Content"
// @Failure 404 {object} dto.ErrorResponse
// @Router /classes/{id}/students/{studentId} [delete]
func (c *TeacherController) RemoveStudent(ctx *gin.Context) {
	user := middleware.CurrentUser(ctx)
	if err := c.classService.RemoveStudent(user, ctx.Param("id"), ctx.Param("studentId")); err != nil {
		ctx.JSON(service.HTTPStatus(err), dto.ErrorResponse{Error: err.Error()})
		return
	}
	ctx.Status(http.StatusNoContent)
}

// AssignReading godoc
// @Summary Assign a reading to students
// @Description Fans the reading out to the named students or a whole class. Each student gets a pending assessment and a notification.
// @Tags assignments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param assignment body dto.AssignReadingRequest true "Reading and target students"
// @Success 201 {object} dto.AssignReadingResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse "Reading or class not found"
// @Router /assignments [post]
func (c *TeacherController) AssignReading(ctx *gin.Context) {
	var req dto.AssignReadingRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		log.Warn().Err(err).Msg("Failed to bind AssignReadingRequest")
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}

	user := middleware.CurrentUser(ctx)
	resp, err := c.assessmentService.AssignReading(user, req)
	if err != nil {
		ctx.JSON(service.HTTPStatus(err), dto.ErrorResponse{Error: err.Error()})
		return
	}
	ctx.JSON(http.StatusCreated, resp)
}

// ListStudentAssessments godoc
// @Summary List a student's assessments
// @Tags students
// @Produce json
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Success 200 {array} dto.AssessmentResponse
// @Failure 403 {object} dto.ErrorResponse
// @Router /students/{id}/assessments [get]
func (c *TeacherController) ListStudentAssessments(ctx *gin.Context) {
	user := middleware.CurrentUser(ctx)
	assessments, err := c.assessmentService.ListForStudent(ctx.Param("id"), user)
	if err != nil {
		ctx.JSON(service.HTTPStatus(err), dto.ErrorResponse{Error: err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, assessments)
}

// StudentProgress godoc
// @Summary Get a student's aggregate progress
// @Tags students
// @Produce json
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Success 200 {object} dto.StudentProgressResponse
// @Failure 403 {object} dto.ErrorResponse
// @Router /students/{id}/progress [get]
func (c *TeacherController) StudentProgress(ctx *gin.Context) {
	user := middleware.CurrentUser(ctx)
	progress, err := c.assessmentService.StudentProgress(ctx.Param("id"), user)
	if err != nil {
		ctx.JSON(service.HTTPStatus(err), dto.ErrorResponse{Error: err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, progress)
}
