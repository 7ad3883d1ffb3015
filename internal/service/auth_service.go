package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lunamoss/readmaster/config"
	"github.com/lunamoss/readmaster/internal/dto"
	"github.com/lunamoss/readmaster/internal/model"
	"github.com/lunamoss/readmaster/internal/repository"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Claims is the JWT payload issued on login.
type Claims struct {
	UserID string         `json:"uid"`
	Role   model.UserRole `json:"role"`
	jwt.RegisteredClaims
}

type AuthService interface {
	Register(req dto.RegisterRequest) (*model.User, error)
	Login(req dto.LoginRequest) (string, *model.User, error)
	ParseToken(token string) (*Claims, error)
}

type authService struct {
	userRepo repository.UserRepository
	cfg      *config.Config
}

func NewAuthService(userRepo repository.UserRepository, cfg *config.Config) AuthService {
	return &authService{userRepo: userRepo, cfg: cfg}
}

func (s *authService) Register(req dto.RegisterRequest) (*model.User, error) {
	role := model.UserRole(req.Role)
	switch role {
	case model.RoleStudent, model.RoleParent, model.RoleTeacher:
	case model.RoleAdmin:
		// Admin accounts are provisioned out of band, never self-registered.
		return nil, fmt.Errorf("admin self-registration rejected: %w", ErrForbidden)
	default:
		role = model.RoleStudent
	}

	if _, err := s.userRepo.FindByEmail(req.Email); err == nil {
		return nil, fmt.Errorf("email %s already registered: %w", req.Email, ErrConflict)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Email:             req.Email,
		PasswordHash:      string(hash),
		FirstName:         req.FirstName,
		LastName:          req.LastName,
		Role:              role,
		PreferredLanguage: req.PreferredLanguage,
	}
	if user.PreferredLanguage == "" {
		user.PreferredLanguage = "en"
	}

	if err := s.userRepo.Create(user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	log.Info().Str("userID", user.ID).Str("role", string(user.Role)).Msg("User registered")
	return user, nil
}

func (s *authService) Login(req dto.LoginRequest) (string, *model.User, error) {
	user, err := s.userRepo.FindByEmail(req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	now := time.Now()
	claims := Claims{
		UserID: user.ID,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.Auth.TokenTTL)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.Auth.JWTSecret))
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign token: %w", err)
	}
	return token, user, nil
}

func (s *authService) ParseToken(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.Auth.JWTSecret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}
