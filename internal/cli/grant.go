package cli

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/inkwell-pdf/inkwell/internal/app/ledger"
	"github.com/inkwell-pdf/inkwell/internal/daemon"
	"github.com/inkwell-pdf/inkwell/internal/infra/sqlite"
)

func init() {
	rootCmd.AddCommand(grantCmd)
	grantCmd.Flags().String("reason", "admin_grant", "Reason recorded in the transaction log")
}

var grantCmd = &cobra.Command{
	Use:   "grant USER_ID AMOUNT",
	Short: "Credit a user's account directly",
	Long: `Credit a user's account against the local database, bypassing the
payment webhook. Intended for operators: promotional credits, refunds,
and development seeding.`,
	Args: cobra.ExactArgs(2),
	RunE: runGrant,
}

func runGrant(cmd *cobra.Command, args []string) error {
	userID := args[0]
	amount, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return fmt.Errorf("amount must be an integer: %q", args[1])
	}
	reason, _ := cmd.Flags().GetString("reason")

	cfg, err := daemon.Load(resolveConfigPath())
	if err != nil {
		return err
	}
	dataDir, err := cfg.DataDir()
	if err != nil {
		return err
	}
	db, err := sqlite.Open(dataDir)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	led := ledger.New(db, slog.New(slog.DiscardHandler))
	balance, err := led.Grant(cmd.Context(), userID, amount, reason)
	if err != nil {
		return err
	}
	fmt.Printf("Granted %d credits to %s (balance: %d)\n", amount, userID, balance)
	return nil
}
