package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lunamoss/readmaster/internal/dto"
	"github.com/lunamoss/readmaster/internal/middleware"
	"github.com/lunamoss/readmaster/internal/service"
	"github.com/rs/zerolog/log"
)

type AuthController struct {
	authService service.AuthService
	userService service.UserService
}

func NewAuthController(authService service.AuthService, userService service.UserService) *AuthController {
	return &AuthController{authService: authService, userService: userService}
}

// RegisterPublicRoutes mounts the unauthenticated endpoints.
func (c *AuthController) RegisterPublicRoutes(rg *gin.RouterGroup) {
	rg.POST("/auth/register", c.Register)
	rg.POST("/auth/login", c.Login)
}

// RegisterProtectedRoutes mounts the endpoints that need an authenticated
// user.
func (c *AuthController) RegisterProtectedRoutes(rg *gin.RouterGroup) {
	rg.GET("/users/me", c.Me)
	rg.PATCH("/users/me", c.UpdateProfile)
}

// Register godoc
// @Summary Register a new account
// @Description Create a student, parent or teacher account. Admin accounts cannot be self-registered.
// @Tags auth
// @Accept json
// @Produce json
// @Param registration body dto.RegisterRequest true "Account data"
// @Success 201 {object} dto.UserResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid request body"
// @Failure 409 {object} dto.ErrorResponse "Email already registered"
// @Router /auth/register [post]
func (c *AuthController) Register(ctx *gin.Context) {
	var req dto.RegisterRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		log.Warn().Err(err).Msg("Failed to bind RegisterRequest")
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}

	user, err := c.authService.Register(req)
	if err != nil {
		ctx.JSON(service.HTTPStatus(err), dto.ErrorResponse{Error: err.Error()})
		return
	}
	ctx.JSON(http.StatusCreated, service.ToUserResponse(user))
}

// Login godoc
// @Summary Log in
// @Description Exchange email and password for a bearer token.
// @Tags auth
// @Accept json
// @Produce json
// @Param credentials body dto.LoginRequest true "Credentials"
// @Success 200 {object} dto.LoginResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid request body"
// @Failure 401 {object} dto.ErrorResponse "Invalid credentials"
// @Router /auth/login [post]
func (c *AuthController) Login(ctx *gin.Context) {
	var req dto.LoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}

	token, user, err := c.authService.Login(req)
	if err != nil {
		ctx.JSON(service.HTTPStatus(err), dto.ErrorResponse{Error: err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, dto.LoginResponse{Token: token, User: service.ToUserResponse(user)})
}

// Me godoc
// @Summary Get the current user's profile
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.UserResponse
// @Failure 401 {object} dto.ErrorResponse
// @Router /users/me [get]
func (c *AuthController) Me(ctx *gin.Context) {
	user := middleware.CurrentUser(ctx)
	profile, err := c.userService.GetProfile(user.ID)
	if err != nil {
		ctx.JSON(service.HTTPStatus(err), dto.ErrorResponse{Error: err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, profile)
}

// UpdateProfile godoc
// @Summary Update the current user's profile
// @Tags auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param profile body dto.UpdateProfileRequest true "Fields to update"
// @Success 200 {object} dto.UserResponse
// @Failure 400 {object} dto.ErrorResponse
// @Router /users/me [patch]
func (c *AuthController) UpdateProfile(ctx *gin.Context) {
	var req dto.UpdateProfileRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}

	user := middleware.CurrentUser(ctx)
	profile, err := c.userService.UpdateProfile(user, req)
	if err != nil {
		ctx.JSON(service.HTTPStatus(err), dto.ErrorResponse{Error: err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, profile)
}
