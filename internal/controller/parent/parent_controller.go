package parent

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lunamoss/readmaster/internal/dto"
	"github.com/lunamoss/readmaster/internal/middleware"
	"github.com/lunamoss/readmaster/internal/service"
)

type ParentController struct {
	userService       service.UserService
	assessmentService service.AssessmentService
}

func NewParentController(userService service.UserService, assessmentService service.AssessmentService) *ParentController {
	return &ParentController{userService: userService, assessmentService: assessmentService}
}

func (c *ParentController) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/children", c.LinkChild)
	rg.GET("/children", c.ListChildren)
	rg.GET("/children/:id/assessments", c.ListChildAssessments)
	rg.GET("/children/:id/progress", c.ChildProgress)
}

// LinkChild godoc
// @Summary Link a student account to the calling parent
// @Tags parents
// @Accept json
// @Security BearerAuth
// @Param link body dto.LinkChildRequest true "Student to link"
// @Success 204 "No Content"
// @Failure 404 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse "Already linked"
// @Router /children [post]
func (c *ParentController) LinkChild(ctx *gin.Context) {
	var req dto.LinkChildRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}

	user := middleware.CurrentUser(ctx)
	if err := c.userService.LinkChild(user, req); err != nil {
		ctx.JSON(service.HTTPStatus(err), dto.ErrorResponse{Error: err.Error()})
		return
	}
	ctx.Status(http.StatusNoContent)
}

// ListChildren godoc
// @Summary List the calling parent's linked children
// @Tags parents
// @Produce json
// @Security BearerAuth
// @Success 200 {array} dto.UserResponse
// @Router /children [get]
func (c *ParentController) ListChildren(ctx *gin.Context) {
	user := middleware.CurrentUser(ctx)
	children, err := c.userService.ListChildren(user)
	if err != nil {
		ctx.JSON(service.HTTPStatus(err), dto.ErrorResponse{Error: err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, children)
}

// ListChildAssessments godoc
// @Summary List a linked child's assessments
// @Tags parents
// @Produce json
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Success 200 {array} dto.AssessmentResponse
// @Failure 403 {object} dto.ErrorResponse "Student not linked to caller"
// @Router /children/{id}/assessments [get]
func (c *ParentController) ListChildAssessments(ctx *gin.Context) {
	user := middleware.CurrentUser(ctx)
	assessments, err := c.assessmentService.ListForStudent(ctx.Param("id"), user)
	if err != nil {
		ctx.JSON(service.HTTPStatus(err), dto.ErrorResponse{Error: err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, assessments)
}

// ChildProgress godoc
// @Summary Get a linked child's aggregate progress
// @Tags parents
// @Produce json
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Success 200 {object} dto.StudentProgressResponse
// @Failure 403 {object} dto.ErrorResponse "Student not linked to caller"
// @Router /children/{id}/progress [get]
func (c *ParentController) ChildProgress(ctx *gin.Context) {
	user := middleware.CurrentUser(ctx)
	progress, err := c.assessmentService.StudentProgress(ctx.Param("id"), user)
	if err != nil {
		ctx.JSON(service.HTTPStatus(err), dto.ErrorResponse{Error: err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, progress)
}
