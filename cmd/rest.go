package cmd

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	coreconfig "github.com/AzielCF/az-remind/core/config"
	coreDB "github.com/AzielCF/az-remind/core/database"
	"github.com/AzielCF/az-remind/ui/rest"
	"github.com/AzielCF/az-remind/ui/rest/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var restCmd = &cobra.Command{
	Use:   "rest",
	Short: "Serve the reminder API and webhook over http",
	Run:   restServer,
}

func init() {
	restCmd.Flags().String("basic-auth", "", "Basic auth for the admin API (format: user:pass,user2:pass2)")
	rootCmd.AddCommand(restCmd)
}

// openPaths are reachable without basic auth: the gateway webhook and the
// external cron caller carry their own secrets, and health checks carry none.
func isOpenPath(path string) bool {
	for _, suffix := range []string{"/api/webhook", "/api/cron", "/api/health"} {
		if strings.HasSuffix(path, suffix) {
			return true
		}
	}
	return false
}

func restServer(cmd *cobra.Command, _ []string) {
	cfg := coreconfig.Global
	if baFlag, _ := cmd.Flags().GetString("basic-auth"); baFlag != "" {
		cfg.App.BasicAuth = strings.Split(baFlag, ",")
	}

	fiberConfig := fiber.Config{
		EnableTrustedProxyCheck: true,
		Network:                 "tcp",
		AppName:                 "Az-Remind Engine",
		DisableStartupMessage:   false,
		ServerHeader:            "Hidden",
	}
	if len(cfg.App.TrustedProxies) > 0 {
		fiberConfig.TrustedProxies = cfg.App.TrustedProxies
		fiberConfig.ProxyHeader = fiber.HeaderXForwardedHost
	}

	app := fiber.New(fiberConfig)

	app.Use(requestid.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(cfg.App.CorsAllowedOrigins, ", "),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Request-ID",
	}))
	app.Use(middleware.Recovery())
	app.Use(helmet.New(helmet.Config{
		XSSProtection:      "1; mode=block",
		ContentTypeNosniff: "nosniff",
		XFrameOptions:      "SAMEORIGIN",
		HSTSMaxAge:         31536000,
		ReferrerPolicy:     "strict-origin-when-cross-origin",
	}))
	app.Use(limiter.New(limiter.Config{
		Max:        1000,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
	}))

	if cfg.App.Debug {
		app.Use(logger.New())
	}

	if len(cfg.App.BasicAuth) > 0 {
		account := make(map[string]string)
		for _, basicAuth := range cfg.App.BasicAuth {
			ba := strings.Split(basicAuth, ":")
			if len(ba) != 2 {
				logrus.Fatalln("Basic auth is not valid, please use the format <user>:<secret>")
			}
			account[ba[0]] = ba[1]
		}
		app.Use(basicauth.New(basicauth.Config{
			Users: account,
			Next: func(c *fiber.Ctx) bool {
				if c.Method() == fiber.MethodOptions {
					return true
				}
				return isOpenPath(c.Path())
			},
		}))
	} else {
		logrus.Warn("[REST] APP_BASIC_AUTH not set, admin API is unauthenticated")
	}

	group := app.Group(cfg.App.BasePath)

	poolCtx, poolCancel := context.WithCancel(context.Background())
	workerPool.Start(poolCtx)

	rest.InitRestReminder(group, reminderUsecase)
	rest.InitRestScheduler(group, schedulerUsecase, cfg.Scheduler.CronSecret)
	rest.InitRestWebhook(group, inboundUsecase, workerPool, cfg.Whatsapp.VerifyToken)
	rest.InitRestHealth(group, coreDB.GlobalDB, workerPool, cfg.App.Version)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		logrus.Info("[REST] Termination signal received, shutting down gracefully...")
		if err := app.Shutdown(); err != nil {
			logrus.Errorf("[REST] Error during Fiber shutdown: %v", err)
		}
		poolCancel()
		StopApp()
	}()

	if err := app.Listen(":" + cfg.App.Port); err != nil {
		logrus.Fatalln("Failed to start REST server:", err)
	}
}
