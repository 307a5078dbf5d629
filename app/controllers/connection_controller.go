package controllers

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/LarsBehrendt/SocialPulse/app/models"
	"github.com/LarsBehrendt/SocialPulse/app/repository"
	"github.com/LarsBehrendt/SocialPulse/internal/pkg/usercontext"
)

type createConnectionRequest struct {
	Platform          string `json:"platform" validate:"required,oneof=facebook instagram"`
	PlatformAccountID string `json:"platform_account_id" validate:"required,max=191"`
	PageName          string `json:"page_name" validate:"max=255"`
	PageAccessToken   string `json:"page_access_token" validate:"required"`
}

// ConnectionController manages the user's explicitly authorized accounts
type ConnectionController struct {
	connections repository.ConnectionRepository
	validate    *validator.Validate
}

var connectionController *ConnectionController

// InitializeConnectionController wires the controller to the global repositories
func InitializeConnectionController() {
	connectionController = NewConnectionController(repository.GetGlobalFactory().GetConnectionRepository())
}

func NewConnectionController(connections repository.ConnectionRepository) *ConnectionController {
	return &ConnectionController{connections: connections, validate: validator.New()}
}

// HandleConnectionList is the package-level entry used by the router
func HandleConnectionList(c *fiber.Ctx) error {
	return connectionController.List(c)
}

// HandleConnectionCreate is the package-level entry used by the router
func HandleConnectionCreate(c *fiber.Ctx) error {
	return connectionController.Create(c)
}

// HandleConnectionDelete is the package-level entry used by the router
func HandleConnectionDelete(c *fiber.Ctx) error {
	return connectionController.Delete(c)
}

// List returns all connections of the signed-in user
func (cc *ConnectionController) List(c *fiber.Ctx) error {
	userID := usercontext.GetUserID(c)

	conns, err := cc.connections.GetByUserID(userID)
	if err != nil {
		log.Errorf("connection list failed for user %d: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not load connections"})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"connections": conns})
}

// Create persists a connection record from a completed exchange result.
// Connections only ever come from explicit user authorization.
func (cc *ConnectionController) Create(c *fiber.Ctx) error {
	userID := usercontext.GetUserID(c)

	var req createConnectionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if err := cc.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	if existing, err := cc.connections.GetByPlatformAccount(userID, req.Platform, req.PlatformAccountID); err == nil && existing != nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":      "account is already connected",
			"connection": existing,
		})
	}

	conn := &models.SocialConnection{
		UUID:              uuid.New().String(),
		UserID:            userID,
		Platform:          req.Platform,
		PlatformAccountID: req.PlatformAccountID,
		PageName:          req.PageName,
		PageAccessToken:   req.PageAccessToken,
	}
	if err := cc.connections.Create(conn); err != nil {
		log.Errorf("connection create failed for user %d: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not save connection"})
	}

	return c.Status(fiber.StatusCreated).JSON(conn)
}

// Delete removes one connection by UUID, scoped to the owner
func (cc *ConnectionController) Delete(c *fiber.Ctx) error {
	userID := usercontext.GetUserID(c)
	connUUID := c.Params("uuid")

	conn, err := cc.connections.GetByUUID(connUUID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "connection not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not load connection"})
	}
	if conn.UserID != userID {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "connection not found"})
	}

	if err := cc.connections.Delete(conn.ID); err != nil {
		log.Errorf("connection delete failed for user %d: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not delete connection"})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "deleted"})
}
