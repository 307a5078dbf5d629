package controllers

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/LarsBehrendt/SocialPulse/internal/pkg/graphapi"
	"github.com/LarsBehrendt/SocialPulse/internal/pkg/result"
)

// exchangeTimeout bounds the server-to-server token exchange
const exchangeTimeout = 10 * time.Second

// ExchangeResponse is the wire contract of the exchange endpoint. The error
// fields only appear when the pages call itself failed; a successful call
// returning zero pages yields a plain empty list.
type ExchangeResponse struct {
	AccessToken  string          `json:"accessToken"`
	ExpiresIn    int             `json:"expiresIn"`
	Pages        []graphapi.Page `json:"pages"`
	PagesError   string          `json:"pagesError,omitempty"`
	ErrorDetails string          `json:"errorDetails,omitempty"`
}

// ExchangeController trades OAuth authorization codes for access tokens and
// enumerates the pages the token can manage.
type ExchangeController struct {
	graph *graphapi.Client
}

var exchangeController *ExchangeController

// InitializeExchangeController wires the controller to the env-configured
// Graph client.
func InitializeExchangeController() {
	exchangeController = NewExchangeController(graphapi.NewClientFromEnv())
}

func NewExchangeController(client *graphapi.Client) *ExchangeController {
	return &ExchangeController{graph: client}
}

// HandleOAuthExchange is the package-level entry used by the router
func HandleOAuthExchange(c *fiber.Ctx) error {
	return exchangeController.Exchange(c)
}

// Exchange handles GET /api/oauth/exchange?code=...
//
// Token acquisition and page enumeration are independently failable: a
// failed pages call degrades the response but never discards the token.
func (ec *ExchangeController) Exchange(c *fiber.Ctx) error {
	code := strings.TrimSpace(c.Query("code"))
	if code == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "missing code parameter",
		})
	}

	if !ec.graph.Configured() {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "application credentials are not configured",
		})
	}

	ctx, cancel := context.WithTimeout(c.Context(), exchangeTimeout)
	defer cancel()

	token, err := ec.graph.ExchangeCode(ctx, code)
	if err != nil {
		if errors.Is(err, graphapi.ErrNoAccessToken) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "authorization code is invalid or has expired",
			})
		}
		log.Errorf("oauth exchange: token endpoint failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "token exchange with the provider failed",
		})
	}

	resp := ExchangeResponse{
		AccessToken: token.AccessToken,
		ExpiresIn:   token.ExpiresIn,
		Pages:       []graphapi.Page{},
	}

	pages := ec.fetchPages(ctx, token.AccessToken)
	if pages.IsFailed() {
		resp.PagesError = "Failed to fetch pages"
		resp.ErrorDetails = pages.Err().Error()
	} else {
		resp.Pages = pages.Value()
		if len(resp.Pages) == 0 {
			ec.logZeroPageDiagnostics(ctx, token.AccessToken)
		}
	}

	return c.Status(fiber.StatusOK).JSON(resp)
}

func (ec *ExchangeController) fetchPages(ctx context.Context, accessToken string) result.Result[[]graphapi.Page] {
	pages, err := ec.graph.ListPages(ctx, accessToken)
	if err != nil {
		log.Warnf("oauth exchange: pages fetch failed: %v", err)
		return result.Failed[[]graphapi.Page](err)
	}
	return result.Ok(pages)
}

// logZeroPageDiagnostics runs best-effort identity and permission reads when
// a valid token grants zero pages. Failures here are swallowed; nothing from
// these calls ever reaches the caller.
func (ec *ExchangeController) logZeroPageDiagnostics(ctx context.Context, accessToken string) {
	if identity, err := ec.graph.GetIdentity(ctx, accessToken); err != nil {
		log.Warnf("oauth exchange: identity diagnostic failed: %v", err)
	} else {
		log.Infof("oauth exchange: token for %s (%s) grants zero pages", identity.Name, identity.ID)
	}

	if perms, err := ec.graph.GetPermissions(ctx, accessToken); err != nil {
		log.Warnf("oauth exchange: permissions diagnostic failed: %v", err)
	} else {
		granted := make([]string, 0, len(perms))
		for _, p := range perms {
			if p.Status == "granted" {
				granted = append(granted, p.Permission)
			}
		}
		log.Infof("oauth exchange: granted scopes: %s", strings.Join(granted, ", "))
	}
}
