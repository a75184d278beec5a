package cmd

import (
	"context"
	"os"
	"time"

	coreconfig "github.com/AzielCF/az-remind/core/config"
	coreDB "github.com/AzielCF/az-remind/core/database"
	domainInbound "github.com/AzielCF/az-remind/domains/inbound"
	domainReminder "github.com/AzielCF/az-remind/domains/reminder"
	domainScheduler "github.com/AzielCF/az-remind/domains/scheduler"
	"github.com/AzielCF/az-remind/infrastructure/valkey"
	"github.com/AzielCF/az-remind/infrastructure/whatsapp"
	"github.com/AzielCF/az-remind/pkg/clock"
	"github.com/AzielCF/az-remind/pkg/msgworker"
	"github.com/AzielCF/az-remind/pkg/utils"
	"github.com/AzielCF/az-remind/reminders/repository"
	"github.com/AzielCF/az-remind/usecase"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	valkeyClient *valkey.Client
	workerPool   *msgworker.InboundWorkerPool

	// Usecase
	reminderUsecase  domainReminder.IReminderUsecase
	schedulerUsecase domainScheduler.ISchedulerUsecase
	inboundUsecase   domainInbound.IInboundUsecase
)

var rootCmd = &cobra.Command{
	Use:   "az-remind",
	Short: "One-shot WhatsApp reminder service",
	Long: `Sends a scheduled WhatsApp reminder once per day, follows up when no
qualifying reply arrives, and reconciles inbound replies against the day's
execution state.`,
}

func init() {
	// Load environment variables first
	utils.LoadConfig(".")

	time.Local = time.UTC

	rootCmd.CompletionOptions.DisableDefaultCmd = true

	cobra.OnInitialize(initApp)
}

// initApp wires configuration, storage and the usecases every subcommand
// shares.
func initApp() {
	cfg, err := coreconfig.LoadConfig()
	if err != nil {
		logrus.Fatalln("Failed to load configuration:", err)
	}

	if cfg.App.Debug {
		logrus.SetLevel(logrus.DebugLevel)
	}

	clk, err := clock.New(cfg.Scheduler.Timezone)
	if err != nil {
		logrus.Fatalln("Failed to load scheduler timezone:", err)
	}

	db, err := coreDB.NewDatabase(cfg)
	if err != nil {
		logrus.Fatalln("Failed to connect to database:", err)
	}

	ctx := context.Background()
	reminderRepo := repository.NewReminderGormRepository(db)
	executionRepo := repository.NewExecutionGormRepository(db)
	messageLogRepo := repository.NewMessageLogGormRepository(db)
	for _, initFn := range []func(context.Context) error{
		reminderRepo.Init, executionRepo.Init, messageLogRepo.Init,
	} {
		if err := initFn(ctx); err != nil {
			logrus.Fatalln("Failed to migrate database schema:", err)
		}
	}

	if cfg.Database.ValkeyEnabled {
		valkeyClient, err = valkey.NewClient(valkey.Config{
			Address:   cfg.Database.ValkeyAddress,
			Password:  cfg.Database.ValkeyPassword,
			DB:        cfg.Database.ValkeyDB,
			KeyPrefix: cfg.Database.ValkeyKeyPrefix,
		})
		if err != nil {
			// Locks are an optimization, not a correctness requirement.
			logrus.WithError(err).Warn("Valkey unavailable, continuing without tick locking")
			valkeyClient = nil
		}
	}

	courier := whatsapp.NewClient(cfg.Whatsapp)

	reminderUsecase = usecase.NewReminderService(reminderRepo, executionRepo, clk)
	schedulerUsecase = usecase.NewSchedulerService(
		reminderRepo, executionRepo, messageLogRepo, courier, clk,
		cfg.Scheduler, valkey.AcquireLockFunc(valkeyClient),
	)
	inboundUsecase = usecase.NewInboundService(
		reminderRepo, executionRepo, messageLogRepo, courier, clk, cfg.Scheduler,
	)

	workerPool = msgworker.NewInboundWorkerPool(cfg.WorkerPool.Size, cfg.WorkerPool.QueueSize)
}

// StopApp releases the shared subsystems on shutdown.
func StopApp() {
	if workerPool != nil {
		workerPool.Stop()
	}
	if valkeyClient != nil {
		valkeyClient.Close()
	}
	if coreDB.GlobalDB != nil {
		if sqlDB, err := coreDB.GlobalDB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
