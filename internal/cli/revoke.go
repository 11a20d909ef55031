package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/inkwell-pdf/inkwell/internal/app/certify"
	"github.com/inkwell-pdf/inkwell/internal/daemon"
	"github.com/inkwell-pdf/inkwell/internal/infra/sqlite"
)

func init() {
	rootCmd.AddCommand(revokeCmd)
}

var revokeCmd = &cobra.Command{
	Use:   "revoke CERTIFICATE_ID",
	Short: "Revoke an issued certificate",
	Long: `Mark a certificate as revoked. Documents carrying it will fail
verification from now on. Revocation is permanent and keeps the
original revocation time on repeat calls.`,
	Args: cobra.ExactArgs(1),
	RunE: runRevoke,
}

func runRevoke(cmd *cobra.Command, args []string) error {
	certID := args[0]

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

	if err := certify.New(db).Revoke(cmd.Context(), certID); err != nil {
		return err
	}
	fmt.Printf("Certificate %s revoked\n", certID)
	return nil
}
