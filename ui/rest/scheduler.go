package rest

import (
	"strings"
	"time"

	domainScheduler "github.com/AzielCF/az-remind/domains/scheduler"
	"github.com/AzielCF/az-remind/pkg/utils"
	"github.com/gofiber/fiber/v2"
)

type Scheduler struct {
	Service    domainScheduler.ISchedulerUsecase
	CronSecret string
}

func InitRestScheduler(app fiber.Router, service domainScheduler.ISchedulerUsecase, cronSecret string) Scheduler {
	handler := Scheduler{Service: service, CronSecret: cronSecret}

	app.Get("/api/cron", handler.Tick)
	app.Post("/api/cron", handler.Tick)

	return handler
}

// Tick runs one Scheduling Driver pass. External cron services call this
// every minute; the secret keeps random internet traffic from burning the
// gateway quota.
func (handler *Scheduler) Tick(c *fiber.Ctx) error {
	if handler.CronSecret != "" {
		authorization := c.Get(fiber.HeaderAuthorization)
		token := strings.TrimPrefix(authorization, "Bearer ")
		if token != handler.CronSecret {
			return c.Status(fiber.StatusUnauthorized).JSON(utils.ResponseData{
				Status:  401,
				Code:    "UNAUTHORIZED",
				Message: "Invalid cron secret",
			})
		}
	}

	var request domainScheduler.TickRequest
	if raw := c.Query("now"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(utils.ResponseData{
				Status:  400,
				Code:    "VALIDATION_ERROR",
				Message: "now: must be RFC3339.",
			})
		}
		request.Now = &parsed
	}

	result, err := handler.Service.ProcessDue(c.UserContext(), request)
	utils.PanicIfNeeded(err)

	return c.JSON(result)
}
