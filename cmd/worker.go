package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/frahmantamala/expense-tracker/internal/notify"
	"github.com/frahmantamala/expense-tracker/pkg/logger"
	"github.com/spf13/cobra"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start background consumers",
	Long:  `Start consumers for the messages the server publishes.`,
}

var auditWorkerCmd = &cobra.Command{
	Use:   "audit",
	Short: "Consume expense.created messages and write them to the audit log",
	RunE: func(cmd *cobra.Command, args []string) error {
		return startAuditWorker()
	},
}

func init() {
	workerCmd.AddCommand(auditWorkerCmd)
}

func startAuditWorker() error {
	config, err := loadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	log := logger.LoggerWrapper()

	if !config.Messaging.Enabled() {
		return errors.New("messaging.amqp_url is not configured")
	}

	client, err := notify.NewClient(config.Messaging.AMQPURL, config.Messaging.Exchange, config.Messaging.Queue, log)
	if err != nil {
		return fmt.Errorf("failed to connect to AMQP: %w", err)
	}
	defer client.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("starting audit worker", "queue", config.Messaging.Queue)

	err = client.ConsumeExpenseCreated(ctx, notify.AuditMessage(log))
	if errors.Is(err, context.Canceled) {
		log.Info("audit worker stopped")
		return nil
	}
	return err
}
