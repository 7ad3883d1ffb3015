package student

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lunamoss/readmaster/internal/dto"
	"github.com/lunamoss/readmaster/internal/middleware"
	"github.com/lunamoss/readmaster/internal/repository"
	"github.com/lunamoss/readmaster/internal/service"
	"github.com/rs/zerolog/log"
)

// StudentController covers the reading library and the assessment lifecycle
// from the student's side: start, upload, confirm, quiz, results.
type StudentController struct {
	readingService    service.ReadingService
	assessmentService service.AssessmentService
	uploadService     service.UploadService
	quizService       service.QuizService
}

func NewStudentController(
	readingService service.ReadingService,
	assessmentService service.AssessmentService,
	uploadService service.UploadService,
	quizService service.QuizService,
) *StudentController {
	return &StudentController{
		readingService:    readingService,
		assessmentService: assessmentService,
		uploadService:     uploadService,
		quizService:       quizService,
	}
}

func (c *StudentController) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/readings", c.ListReadings)
	rg.GET("/readings/:id", c.GetReading)

	assessments := rg.Group("/assessments")
	assessments.POST("", c.StartAssessment)
	assessments.GET("", c.ListMyAssessments)
	assessments.GET("/:id", c.GetAssessment)
	assessments.GET("/:id/result", c.GetResult)
	assessments.POST("/:id/upload-request", c.RequestUpload)
	assessments.POST("/:id/upload-confirm", c.ConfirmUpload)
	assessments.POST("/:id/quiz-answers", c.SubmitQuizAnswers)
}

// ListReadings godoc
// @Summary List readings
// @Description List the reading library, optionally filtered by language and difficulty.
// @Tags readings
// @Produce json
// @Security BearerAuth
// @Param language query string false "Filter by language code"
// @Param difficulty query string false "Filter by difficulty" Enums(beginner, intermediate, advanced)
// @Success 200 {array} dto.ReadingResponse
// @Router /readings [get]
func (c *StudentController) ListReadings(ctx *gin.Context) {
	filter := repository.ReadingFilter{
		Language:   ctx.Query("language"),
		Difficulty: ctx.Query("difficulty"),
	}

	readings, err := c.readingService.ListReadings(filter)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list readings")
		ctx.JSON(service.HTTPStatus(err), dto.ErrorResponse{Error: err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, readings)
}

// GetReading godoc
// @Summary Get a reading with its quiz questions
// @Description Correct options are not included; grading happens server side.
// @Tags readings
// @Produce json
// @Security BearerAuth
// @Param id path string true "Reading ID"
// @Success 200 {object} dto.ReadingDetailResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /readings/{id} [get]
func (c *StudentController) GetReading(ctx *gin.Context) {
	reading, err := c.readingService.GetReading(ctx.Param("id"))
	if err != nil {
		ctx.JSON(service.HTTPStatus(err), dto.ErrorResponse{Error: err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, reading)
}

// StartAssessment godoc
// @Summary Start a reading assessment
// @Description Creates an assessment in pending_audio for the calling student.
// @Tags assessments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param assessment body dto.StartAssessmentRequest true "Reading to assess"
// @Success 201 {object} dto.AssessmentResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse "Reading not found"
// @Router /assessments [post]
func (c *StudentController) StartAssessment(ctx *gin.Context) {
	var req dto.StartAssessmentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		log.Warn().Err(err).Msg("Failed to bind StartAssessmentRequest")
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}

	user := middleware.CurrentUser(ctx)
	assessment, err := c.assessmentService.StartAssessment(user, req)
	if err != nil {
		ctx.JSON(service.HTTPStatus(err), dto.ErrorResponse{Error: err.Error()})
		return
	}
	ctx.JSON(http.StatusCreated, assessment)
}

// ListMyAssessments godoc
// @Summary List the calling student's assessments
// @Tags assessments
// @Produce json
// @Security BearerAuth
// @Success 200 {array} dto.AssessmentResponse
// @Router /assessments [get]
func (c *StudentController) ListMyAssessments(ctx *gin.Context) {
	user := middleware.CurrentUser(ctx)
	assessments, err := c.assessmentService.ListForStudent(user.ID, user)
	if err != nil {
		ctx.JSON(service.HTTPStatus(err), dto.ErrorResponse{Error: err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, assessments)
}

// GetAssessment godoc
// @Summary Get one assessment
// @Tags assessments
// @Produce json
// @Security BearerAuth
// @Param id path string true "Assessment ID"
// @Success 200 {object} dto.AssessmentResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /assessments/{id} [get]
func (c *StudentController) GetAssessment(ctx *gin.Context) {
	user := middleware.CurrentUser(ctx)
	assessment, err := c.assessmentService.GetAssessment(ctx.Param("id"), user)
	if err != nil {
		ctx.JSON(service.HTTPStatus(err), dto.ErrorResponse{Error: err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, assessment)
}

// GetResult godoc
// @Summary Get the full result of an assessment
// @Description Includes AI analysis, transcript and the quiz breakdown once settled.
// @Tags assessments
// @Produce json
// @Security BearerAuth
// @Param id path string true "Assessment ID"
// @Success 200 {object} dto.AssessmentResultResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /assessments/{id}/result [get]
func (c *StudentController) GetResult(ctx *gin.Context) {
	user := middleware.CurrentUser(ctx)
	result, err := c.assessmentService.GetResult(ctx.Param("id"), user)
	if err != nil {
		ctx.JSON(service.HTTPStatus(err), dto.ErrorResponse{Error: err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, result)
}

// RequestUpload godoc
// @Summary Request a presigned audio upload URL
// @Description Issues a time-limited upload target with a single-use blob reference.
// @Tags assessments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Assessment ID"
// @Param upload body dto.RequestUploadRequest false "Audio content type"
// @Success 200 {object} dto.RequestUploadResponse
// @Failure 400 {object} dto.ErrorResponse "Assessment not in pending_audio"
// @Failure 403 {object} dto.ErrorResponse
// @Router /assessments/{id}/upload-request [post]
func (c *StudentController) RequestUpload(ctx *gin.Context) {
	var req dto.RequestUploadRequest
	if err := ctx.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}

	user := middleware.CurrentUser(ctx)
	resp, err := c.uploadService.RequestUpload(ctx.Param("id"), user, req.ContentType)
	if err != nil {
		ctx.JSON(service.HTTPStatus(err), dto.ErrorResponse{Error: err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// ConfirmUpload godoc
// @Summary Confirm an audio upload
// @Description Validates the blob reference, moves the assessment to processing and enqueues analysis.
// @Tags assessments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Assessment ID"
// @Param confirmation body dto.ConfirmUploadRequest true "Blob reference from the upload request"
// @Success 202 {object} dto.ConfirmUploadResponse
// @Failure 400 {object} dto.ErrorResponse "Unknown blob reference or wrong state"
// @Failure 403 {object} dto.ErrorResponse
// @Router /assessments/{id}/upload-confirm [post]
func (c *StudentController) ConfirmUpload(ctx *gin.Context) {
	var req dto.ConfirmUploadRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		log.Warn().Err(err).Msg("Failed to bind ConfirmUploadRequest")
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}

	user := middleware.CurrentUser(ctx)
	resp, err := c.uploadService.ConfirmUpload(ctx.Param("id"), user, req)
	if err != nil {
		ctx.JSON(service.HTTPStatus(err), dto.ErrorResponse{Error: err.Error()})
		return
	}
	ctx.JSON(http.StatusAccepted, resp)
}

// SubmitQuizAnswers godoc
// @Summary Submit comprehension quiz answers
// @Description Grades the batch against the stored answer key. Answers are immutable once submitted.
// @Tags assessments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Assessment ID"
// @Param answers body dto.SubmitQuizAnswersRequest true "Selected options"
// @Success 200 {object} dto.SubmitQuizAnswersResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse "Question already answered"
// @Router /assessments/{id}/quiz-answers [post]
func (c *StudentController) SubmitQuizAnswers(ctx *gin.Context) {
	var req dto.SubmitQuizAnswersRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		log.Warn().Err(err).Msg("Failed to bind SubmitQuizAnswersRequest")
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}

	user := middleware.CurrentUser(ctx)
	resp, err := c.quizService.SubmitAnswers(ctx.Param("id"), user, req)
	if err != nil {
		ctx.JSON(service.HTTPStatus(err), dto.ErrorResponse{Error: err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, resp)
}
