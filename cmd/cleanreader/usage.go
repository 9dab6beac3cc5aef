package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/artpar/cleanreader/adapters/sqlite"
	"github.com/artpar/cleanreader/domain/usage"
)

var usageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Inspect and reset usage counters",
	Long: `Inspect per-account usage and manage the monthly quota cycle.

The monthly counters do not reset themselves. Run reset-month from a
scheduler (cron, systemd timer) at the start of each billing cycle.

Examples:
  cleanreader usage summary 42
  cleanreader usage reset-month`,
}

var usageSummaryCmd = &cobra.Command{
	Use:   "summary <account-id>",
	Short: "Show an account's current-cycle usage",
	Args:  cobra.ExactArgs(1),
	RunE:  runUsageSummary,
}

var usageResetCmd = &cobra.Command{
	Use:   "reset-month",
	Short: "Reset every account's monthly request counter",
	RunE:  runUsageReset,
}

var resetYes bool

func init() {
	rootCmd.AddCommand(usageCmd)

	usageCmd.AddCommand(usageSummaryCmd)
	usageCmd.AddCommand(usageResetCmd)

	usageResetCmd.Flags().BoolVarP(&resetYes, "yes", "y", false, "skip confirmation")
}

func runUsageSummary(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid account id %q", args[0])
	}

	db, err := openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := context.Background()
	acct, err := sqlite.NewAccountStore(db).GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("account not found: %d", id)
	}

	since := usage.StartOfMonth(time.Now().UTC())
	sum, err := sqlite.NewUsageStore(db).Summary(ctx, id, since)
	if err != nil {
		return fmt.Errorf("failed to summarize usage: %w", err)
	}

	fmt.Printf("Account %d (%s, %s tier)\n", acct.ID, acct.Email, acct.Tier)
	fmt.Printf("  Cycle since:    %s\n", since.Format("2006-01-02"))
	fmt.Printf("  Requests:       %d\n", sum.TotalRequests)
	fmt.Printf("  Successful:     %d\n", sum.SuccessCount)
	fmt.Printf("  Failed:         %d\n", sum.TotalRequests-sum.SuccessCount)
	fmt.Printf("  Cost:           $%.6f\n", sum.TotalCostUSD)
	if acct.MonthlyLimit != nil {
		fmt.Printf("  Quota:          %d / %d\n", acct.RequestsThisMonth, *acct.MonthlyLimit)
	} else {
		fmt.Printf("  Quota:          %d / unlimited\n", acct.RequestsThisMonth)
	}
	return nil
}

func runUsageReset(cmd *cobra.Command, args []string) error {
	if !resetYes && !confirm("Reset the monthly counter for every account?") {
		fmt.Println("Aborted.")
		return nil
	}

	db, err := openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	n, err := sqlite.NewAccountStore(db).ResetMonthlyCounts(context.Background())
	if err != nil {
		return fmt.Errorf("failed to reset counters: %w", err)
	}

	fmt.Printf("%s Reset monthly counters for %d accounts\n", checkMark, n)
	return nil
}
