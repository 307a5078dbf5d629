package controllers

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/LarsBehrendt/SocialPulse/app/repository"
	"github.com/LarsBehrendt/SocialPulse/internal/pkg/env"
	"github.com/LarsBehrendt/SocialPulse/internal/pkg/graphapi"
	"github.com/LarsBehrendt/SocialPulse/internal/pkg/metrics/counter"
)

// webhookEvent mirrors the Graph messaging webhook payload, reduced to the
// fields the analytics pipeline needs
type webhookEvent struct {
	Object string `json:"object"`
	Entry  []struct {
		ID        string `json:"id"`
		Messaging []struct {
			Sender struct {
				ID string `json:"id"`
			} `json:"sender"`
			Recipient struct {
				ID string `json:"id"`
			} `json:"recipient"`
		} `json:"messaging"`
	} `json:"entry"`
}

// WebhookController ingests message events from the platform into the
// Redis-buffered counters
type WebhookController struct {
	connections repository.ConnectionRepository
}

var webhookController *WebhookController

// InitializeWebhookController wires the controller to the global repositories
func InitializeWebhookController() {
	webhookController = NewWebhookController(repository.GetGlobalFactory().GetConnectionRepository())
}

func NewWebhookController(connections repository.ConnectionRepository) *WebhookController {
	return &WebhookController{connections: connections}
}

// HandleWebhookVerify is the package-level entry used by the router
func HandleWebhookVerify(c *fiber.Ctx) error {
	return webhookController.Verify(c)
}

// HandleWebhookReceive is the package-level entry used by the router
func HandleWebhookReceive(c *fiber.Ctx) error {
	return webhookController.Receive(c)
}

// Verify answers the platform's subscription handshake (hub.challenge echo)
func (wc *WebhookController) Verify(c *fiber.Ctx) error {
	mode := c.Query("hub.mode")
	token := c.Query("hub.verify_token")
	challenge := c.Query("hub.challenge")

	if mode != "subscribe" || token == "" || token != env.GetEnv("WEBHOOK_VERIFY_TOKEN", "") {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "verification failed"})
	}
	return c.Status(fiber.StatusOK).SendString(challenge)
}

// Receive processes a signed message-event delivery. Counter increments are
// best-effort; a failed increment is logged but never rejects the delivery,
// since the platform retries whole batches on non-200 responses.
func (wc *WebhookController) Receive(c *fiber.Ctx) error {
	body := c.Body()
	signature := c.Get("X-Hub-Signature-256")
	if signature == "" {
		signature = c.Get("X-Hub-Signature")
	}

	if !graphapi.VerifyWebhookSignature(body, signature, env.GetEnv("FB_APP_SECRET", "")) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid signature"})
	}

	var event webhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid payload"})
	}

	for _, entry := range event.Entry {
		conns, err := wc.connections.GetAllByAccountID(entry.ID)
		if err != nil {
			log.Warnf("webhook: connection lookup for account %s failed: %v", entry.ID, err)
			continue
		}

		for _, conn := range conns {
			for _, msg := range entry.Messaging {
				// Events where the page is the sender are outbound
				if msg.Sender.ID == entry.ID {
					if err := counter.AddSentMessages(conn.ID, 1); err != nil {
						log.Warnf("webhook: sent counter increment failed: %v", err)
					}
				} else {
					if err := counter.AddReceivedMessages(conn.ID, 1); err != nil {
						log.Warnf("webhook: received counter increment failed: %v", err)
					}
				}
			}
		}
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "received"})
}
