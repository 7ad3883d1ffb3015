package admin

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lunamoss/readmaster/internal/dto"
	"github.com/lunamoss/readmaster/internal/middleware"
	"github.com/lunamoss/readmaster/internal/model"
	"github.com/lunamoss/readmaster/internal/service"
	"github.com/rs/zerolog/log"
)

// AdminController manages the content library, the user directory and
// processing diagnostics.
type AdminController struct {
	readingService    service.ReadingService
	userService       service.UserService
	assessmentService service.AssessmentService
}

func NewAdminController(
	readingService service.ReadingService,
	userService service.UserService,
	assessmentService service.AssessmentService,
) *AdminController {
	return &AdminController{
		readingService:    readingService,
		userService:       userService,
		assessmentService: assessmentService,
	}
}

func (c *AdminController) RegisterRoutes(rg *gin.RouterGroup) {
	readings := rg.Group("/readings")
	readings.POST("", c.CreateReading)
	readings.PATCH("/:id", c.UpdateReading)
	readings.DELETE("/:id", c.DeleteReading)
	readings.GET("/:id/questions", c.ListQuestions)

	questions := rg.Group("/questions")
	questions.POST("", c.CreateQuestion)
	questions.PATCH("/:id", c.UpdateQuestion)
	questions.DELETE("/:id", c.DeleteQuestion)

	users := rg.Group("/users")
	users.GET("", c.ListUsers)
	users.PATCH("/:id/role", c.UpdateUserRole)

	rg.GET("/assessments/:id/diagnostics", c.AssessmentDiagnostics)
}

// CreateReading godoc
// @Summary (Admin) Create a reading
// @Tags Admin - Content
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param reading body dto.CreateReadingRequest true "Reading data"
// @Success 201 {object} dto.ReadingResponse
// @Failure 400 {object} dto.ErrorResponse
// @Router /admin/readings [post]
func (c *AdminController) CreateReading(ctx *gin.Context) {
	var req dto.CreateReadingRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		log.Warn().Err(err).Msg("Failed to bind CreateReadingRequest")
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}

	user := middleware.CurrentUser(ctx)
	reading, err := c.readingService.CreateReading(user, req)
	if err != nil {
		ctx.JSON(service.HTTPStatus(err), dto.ErrorResponse{Error: err.Error()})
		return
	}
	ctx.JSON(http.StatusCreated, reading)
}

// UpdateReading godoc
// @Summary (Admin) Update a reading
// @Tags Admin - Content
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Reading ID"
// @Param reading body dto.UpdateReadingRequest true "Fields to update"
// @Success 200 {object} dto.ReadingResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /admin/readings/{id} [patch]
func (c *AdminController) UpdateReading(ctx *gin.Context) {
	var req dto.UpdateReadingRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}

	user := middleware.CurrentUser(ctx)
	reading, err := c.readingService.UpdateReading(user, ctx.Param("id"), req)
	if err != nil {
		ctx.JSON(service.HTTPStatus(err), dto.ErrorResponse{Error: err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, reading)
}

// DeleteReading godoc
// @Summary (Admin) Delete a reading
// @Tags Admin - Content
// @Security BearerAuth
// @Param id path string true "Reading ID"
// @Success 204 "No Content"
// @Failure 404 {object} dto.ErrorResponse
// @Router /admin/readings/{id} [delete]
func (c *AdminController) DeleteReading(ctx *gin.Context) {
	user := middleware.CurrentUser(ctx)
	if err := c.readingService.DeleteReading(user, ctx.Param("id")); err != nil {
		ctx.JSON(service.HTTPStatus(err), dto.ErrorResponse{Error: err.Error()})
		return
	}
	ctx.Status(http.StatusNoContent)
}

// ListQuestions godoc
// @Summary (Admin) List a reading's questions with answer keys
// @Tags Admin - Content
// @Produce json
// @Security BearerAuth
// @Param id path string true "Reading ID"
// @Success 200 {array} dto.QuizQuestionAdminResponse
// @Router /admin/readings/{id}/questions [get]
func (c *AdminController) ListQuestions(ctx *gin.Context) {
	user := middleware.CurrentUser(ctx)
	questions, err := c.readingService.ListQuestionsAdmin(user, ctx.Param("id"))
	if err != nil {
		ctx.JSON(service.HTTPStatus(err), dto.ErrorResponse{Error: err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, questions)
}

// CreateQuestion godoc
// @Summary (Admin) Create a quiz question
// @Tags Admin - Content
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param question body dto.CreateQuizQuestionRequest true "Question data"
// @Success 201 {object} dto.QuizQuestionAdminResponse
// @Failure 400 {object} dto.ErrorResponse "Correct option not among options"
// @Failure 404 {object} dto.ErrorResponse "Reading not found"
// @Router /admin/questions [post]
func (c *AdminController) CreateQuestion(ctx *gin.Context) {
	var req dto.CreateQuizQuestionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		log.Warn().Err(err).Msg("Failed to bind CreateQuizQuestionRequest")
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}

	user := middleware.CurrentUser(ctx)
	question, err := c.readingService.CreateQuestion(user, req)
	if err != nil {
		ctx.JSON(service.HTTPStatus(err), dto.ErrorResponse{Error: err.Error()})
		return
	}
	ctx.JSON(http.StatusCreated, question)
}

// UpdateQuestion godoc
// @Summary (Admin) Update a quiz question
// @Tags Admin - Content
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Question ID"
// @Param question body dto.UpdateQuizQuestionRequest true "Fields to update"
// @Success 200 {object} dto.QuizQuestionAdminResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /admin/questions/{id} [patch]
func (c *AdminController) UpdateQuestion(ctx *gin.Context) {
	var req dto.UpdateQuizQuestionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}

	user := middleware.CurrentUser(ctx)
	question, err := c.readingService.UpdateQuestion(user, ctx.Param("id"), req)
	if err != nil {
		ctx.JSON(service.HTTPStatus(err), dto.ErrorResponse{Error: err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, question)
}

// DeleteQuestion godoc
// @Summary (Admin) Delete a quiz question
// @Tags Admin - Content
// @Security BearerAuth
// @Param id path string true "Question ID"
// @Success 204 "No Content"
// @Failure 404 {object} dto.ErrorResponse
// @Router /admin/questions/{id} [delete]
func (c *AdminController) DeleteQuestion(ctx *gin.Context) {
	user := middleware.CurrentUser(ctx)
	if err := c.readingService.DeleteQuestion(user, ctx.Param("id")); err != nil {
		ctx.JSON(service.HTTPStatus(err), dto.ErrorResponse{Error: err.Error()})
		return
	}
	ctx.Status(http.StatusNoContent)
}

// ListUsers godoc
// @Summary (Admin) List users
// @Tags Admin - Users
// @Produce json
// @Security BearerAuth
// @Param role query string false "Filter by role" Enums(student, parent, teacher, admin)
// @Success 200 {array} dto.UserResponse
// @Router /admin/users [get]
func (c *AdminController) ListUsers(ctx *gin.Context) {
	var role *model.UserRole
	if roleStr := ctx.Query("role"); roleStr != "" {
		parsed := model.UserRole(roleStr)
		role = &parsed
	}

	user := middleware.CurrentUser(ctx)
	users, err := c.userService.ListUsers(user, role)
	if err != nil {
		ctx.JSON(service.HTTPStatus(err), dto.ErrorResponse{Error: err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, users)
}

// UpdateUserRole godoc
// @Summary (Admin) Change a user's role
// @Tags Admin - Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Param role body dto.UpdateUserRoleRequest true "New role"
// @Success 200 {object} dto.UserResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /admin/users/{id}/role [patch]
func (c *AdminController) UpdateUserRole(ctx *gin.Context) {
	var req dto.UpdateUserRoleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}

	user := middleware.CurrentUser(ctx)
	updated, err := c.userService.UpdateUserRole(user, ctx.Param("id"), req)
	if err != nil {
		ctx.JSON(service.HTTPStatus(err), dto.ErrorResponse{Error: err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, updated)
}

// AssessmentDiagnostics godoc
// @Summary (Admin) Get processing diagnostics for an errored assessment
// @Description Returns the stored failure detail. Students never see this.
// @Tags Admin - Assessments
// @Produce json
// @Security BearerAuth
// @Param id path string true "Assessment ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} dto.ErrorResponse
// @Router /admin/assessments/{id}/diagnostics [get]
func (c *AdminController) AssessmentDiagnostics(ctx *gin.Context) {
	user := middleware.CurrentUser(ctx)
	detail, err := c.assessmentService.GetDiagnostics(ctx.Param("id"), user)
	if err != nil {
		ctx.JSON(service.HTTPStatus(err), dto.ErrorResponse{Error: err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"assessment_id": ctx.Param("id"), "processing_error": detail})
}
