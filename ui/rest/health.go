package rest

import (
	"time"

	"github.com/AzielCF/az-remind/pkg/msgworker"
	"github.com/AzielCF/az-remind/pkg/utils"
	"github.com/dustin/go-humanize"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type Health struct {
	DB        *gorm.DB
	Pool      *msgworker.InboundWorkerPool
	Version   string
	StartedAt time.Time
}

func InitRestHealth(app fiber.Router, db *gorm.DB, pool *msgworker.InboundWorkerPool, version string) Health {
	handler := Health{DB: db, Pool: pool, Version: version, StartedAt: time.Now()}

	app.Get("/api/health", handler.GetStatus)

	return handler
}

func (handler *Health) GetStatus(c *fiber.Ctx) error {
	database := "ok"
	if sqlDB, err := handler.DB.DB(); err != nil || sqlDB.Ping() != nil {
		database = "unreachable"
	}

	results := fiber.Map{
		"version":  handler.Version,
		"database": database,
		"uptime":   humanize.Time(handler.StartedAt),
	}
	if handler.Pool != nil {
		results["worker_pool"] = handler.Pool.Stats()
	}

	status := 200
	if database != "ok" {
		status = fiber.StatusServiceUnavailable
	}
	return c.Status(status).JSON(utils.ResponseData{
		Status:  status,
		Code:    "SUCCESS",
		Message: "Health status retrieved",
		Results: results,
	})
}
