package rest

import (
	"context"

	domainInbound "github.com/AzielCF/az-remind/domains/inbound"
	"github.com/AzielCF/az-remind/infrastructure/whatsapp"
	"github.com/AzielCF/az-remind/pkg/msgworker"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type Webhook struct {
	Service     domainInbound.IInboundUsecase
	Pool        *msgworker.InboundWorkerPool
	VerifyToken string
}

func InitRestWebhook(app fiber.Router, service domainInbound.IInboundUsecase, pool *msgworker.InboundWorkerPool, verifyToken string) Webhook {
	handler := Webhook{Service: service, Pool: pool, VerifyToken: verifyToken}

	app.Get("/api/webhook", handler.Verify)
	app.Post("/api/webhook", handler.Receive)

	return handler
}

// Verify answers the gateway's subscription handshake.
func (handler *Webhook) Verify(c *fiber.Ctx) error {
	mode := c.Query("hub.mode")
	token := c.Query("hub.verify_token")
	challenge := c.Query("hub.challenge")

	if mode == "subscribe" && token == handler.VerifyToken {
		logrus.Info("[WEBHOOK] Subscription verified")
		return c.SendString(challenge)
	}
	return c.SendStatus(fiber.StatusForbidden)
}

// Receive acknowledges immediately and hands the messages to the worker
// pool. The gateway redelivers on non-200, so even a parse failure answers
// 200: a payload we cannot parse now will not parse on redelivery either.
func (handler *Webhook) Receive(c *fiber.Ctx) error {
	events, err := whatsapp.ParseWebhookEvents(c.Body())
	if err != nil {
		logrus.WithError(err).Warn("[WEBHOOK] Failed to parse webhook payload")
		return c.SendString("EVENT_RECEIVED")
	}

	for _, event := range events {
		job := msgworker.InboundJob{
			Phone: event.From,
			Handler: func(event domainInbound.Event) func(ctx context.Context) error {
				return func(ctx context.Context) error {
					return handler.Service.HandleEvent(ctx, event)
				}
			}(event),
		}
		if !handler.Pool.Dispatch(job) {
			// Dropped under load; the driver's failsafe log scan cannot help
			// here because the message never reached the log. Process inline
			// as a slow path rather than lose the reply.
			if err := handler.Service.HandleEvent(c.UserContext(), event); err != nil {
				logrus.WithError(err).Errorf("[WEBHOOK] Inline processing failed for %s", event.From)
			}
		}
	}

	return c.SendString("EVENT_RECEIVED")
}
