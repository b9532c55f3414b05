package handler

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"packtrack-system/internal/database/models"
	"packtrack-system/internal/utils"
)

const (
	TOKEN_TTL = 12 * time.Hour

	ROLE_CACHE_KEY = "users:roles"
	CACHE_TTL_LONG = time.Hour
)

var (
	ErrUserExists         = errors.New("username or email already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUnknownRole        = errors.New("unknown role")
	ErrMissingFields      = errors.New("username, email and password are required")
)

type UserHandler struct {
	db    *gorm.DB
	redis *redis.Client
}

func NewUserHandler(db *gorm.DB, redisClient *redis.Client) *UserHandler {
	return &UserHandler{
		db:    db,
		redis: redisClient,
	}
}

type RegisterInput struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Firstname string `json:"firstname"`
	Lastname  string `json:"lastname"`
	Role      string `json:"role"`
}

type LoginResult struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *models.User `json:"user"`
}

func (s *UserHandler) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	if input.Username == "" || input.Email == "" || input.Password == "" {
		return nil, ErrMissingFields
	}

	var existing models.User
	if err := s.db.Where("username = ? OR email = ?", input.Username, input.Email).First(&existing).Error; err == nil {
		return nil, ErrUserExists
	} else if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	var role models.Role
	if err := s.db.Where("role_name = ?", input.Role).First(&role).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrUnknownRole
		}
		return nil, err
	}

	pwHash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := models.User{
		Username:  input.Username,
		Email:     input.Email,
		Password:  string(pwHash),
		Firstname: input.Firstname,
		Lastname:  input.Lastname,
		RoleID:    role.ID,
		IsActive:  true,
	}

	if err := s.db.Create(&user).Error; err != nil {
		return nil, err
	}

	user.Role = role
	user.Password = ""
	return &user, nil
}

func (s *UserHandler) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	var user models.User
	if err := s.db.Preload("Role").Where("username = ?", username).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, exp, err := utils.GenerateToken(user.ID, user.Username, user.Role.RoleName, TOKEN_TTL)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user.LastLogin = &now
	if err := s.db.Model(&user).Update("last_login", &now).Error; err != nil {
		return nil, err
	}

	user.Password = ""
	return &LoginResult{
		Token:     token,
		ExpiresAt: exp,
		User:      &user,
	}, nil
}

func (s *UserHandler) GetUser(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	if err := s.db.Preload("Role").First(&user, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	user.Password = ""
	return &user, nil
}

func (s *UserHandler) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := s.db.Preload("Role").Order("username").Find(&users).Error; err != nil {
		return nil, err
	}
	for i := range users {
		users[i].Password = ""
	}
	return users, nil
}

// ListRoles returns the role table, highest access first. Roles only
// change at seed time, so the cache is never invalidated, just expired.
func (s *UserHandler) ListRoles(ctx context.Context) ([]models.Role, error) {
	if cached, err := s.redis.Get(ctx, ROLE_CACHE_KEY).Result(); err == nil {
		var roles []models.Role
		if err := json.Unmarshal([]byte(cached), &roles); err == nil {
			return roles, nil
		}
	}

	var roles []models.Role
	if err := s.db.Order("access_level DESC").Find(&roles).Error; err != nil {
		return nil, err
	}

	if data, err := json.Marshal(roles); err == nil {
		_ = s.redis.Set(ctx, ROLE_CACHE_KEY, data, CACHE_TTL_LONG)
	}

	return roles, nil
}
