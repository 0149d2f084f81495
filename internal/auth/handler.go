package auth

import (
	"context"
	"errors"
	"strings"

	"wastetracker/internal/config"
	"wastetracker/internal/logger"
	"wastetracker/internal/models"
	"wastetracker/internal/store"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
)

var validate = validator.New()

type RegisterRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email,max=100"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type UserResponse struct {
	ID    uint            `json:"id"`
	Name  string          `json:"name"`
	Email string          `json:"email"`
	Role  models.UserRole `json:"role"`
}

func userResponse(u *models.User) UserResponse {
	return UserResponse{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}

func parseRegister(c *fiber.Ctx) (RegisterRequest, error) {
	var body RegisterRequest
	if err := c.BodyParser(&body); err != nil {
		return body, fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	body.Name = strings.TrimSpace(body.Name)
	body.Email = strings.TrimSpace(strings.ToLower(body.Email))
	if err := validate.Struct(body); err != nil {
		return body, fiber.NewError(fiber.StatusBadRequest, "name, a valid email and a password of at least 8 characters are required")
	}
	return body, nil
}

type createFunc func(ctx context.Context, user *models.User) error

func createUser(c *fiber.Ctx, create createFunc, body RegisterRequest, role models.UserRole) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusInternalServerError, "password could not be hashed")
	}

	user := &models.User{
		Name:         body.Name,
		Email:        body.Email,
		PasswordHash: string(hash),
		Role:         role,
	}
	if err := create(c.UserContext(), user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, fiber.NewError(fiber.StatusConflict, "email already registered")
		}
		if errors.Is(err, store.ErrAdminExists) {
			return nil, fiber.NewError(fiber.StatusForbidden, "an admin already exists")
		}
		logger.Errorf(c.UserContext(), "create user: %v", err)
		return nil, fiber.NewError(fiber.StatusInternalServerError, "user could not be created")
	}
	return user, nil
}

// POST /api/auth/register-admin
func RegisterAdminHandler(users store.Users) fiber.Handler {
	return func(c *fiber.Ctx) error {
		body, err := parseRegister(c)
		if err != nil {
			return err
		}

		user, err := createUser(c, users.CreateFirstAdmin, body, models.RoleAdmin)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(userResponse(user))
	}
}

// POST /api/users
func CreateOperatorHandler(users store.Users) fiber.Handler {
	return func(c *fiber.Ctx) error {
		body, err := parseRegister(c)
		if err != nil {
			return err
		}
		user, err := createUser(c, users.CreateUser, body, models.RoleOperator)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(userResponse(user))
	}
}

// POST /api/auth/login
func LoginHandler(cfg *config.Config, users store.Users) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body LoginRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		body.Email = strings.TrimSpace(strings.ToLower(body.Email))
		if err := validate.Struct(body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "email and password are required")
		}

		user, err := users.UserByEmail(c.UserContext(), body.Email)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "wrong email or password")
		}
		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(body.Password)); err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "wrong email or password")
		}

		token, err := GenerateToken(cfg.JWTSecret, user)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "token could not be issued")
		}

		return c.JSON(fiber.Map{
			"token": token,
			"user":  userResponse(user),
		})
	}
}

// GET /api/auth/me
func MeHandler(users store.Users) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := CurrentIdentity(c)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "not authenticated")
		}

		user, err := users.UserByID(c.UserContext(), id.UserID)
		if err != nil {
			// token outlived the user row, e.g. after a memory store restart
			return c.JSON(fiber.Map{
				"id":    id.UserID,
				"email": id.Email,
				"role":  id.Role,
			})
		}
		return c.JSON(userResponse(user))
	}
}
