package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	domainScheduler "github.com/AzielCF/az-remind/domains/scheduler"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var tickCmd = &cobra.Command{
	Use:   "tick",
	Short: "Run one scheduling pass and exit",
	Long: `Runs a single Scheduling Driver pass: due reminders are sent and
pending follow-ups evaluated, then the result is printed as JSON. Intended
for crontab or systemd timer deployments that do not keep the REST server
running.`,
	Run: runTick,
}

func init() {
	tickCmd.Flags().String("now", "", "Override the wall clock (RFC3339), for dry runs")
	rootCmd.AddCommand(tickCmd)
}

func runTick(cmd *cobra.Command, _ []string) {
	defer StopApp()

	var request domainScheduler.TickRequest
	if raw, _ := cmd.Flags().GetString("now"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			logrus.Fatalln("Invalid --now value, expected RFC3339:", err)
		}
		request.Now = &parsed
	}

	result, err := schedulerUsecase.ProcessDue(context.Background(), request)
	if err != nil {
		logrus.Fatalln("Scheduling pass failed:", err)
	}

	encoded, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		logrus.Fatalln("Failed to encode result:", err)
	}
	fmt.Println(string(encoded))
}
