package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/inkwell-pdf/inkwell/internal/app/certify"
	"github.com/inkwell-pdf/inkwell/internal/ops"
)

func init() {
	rootCmd.AddCommand(opsCmd)
}

var opsCmd = &cobra.Command{
	Use:   "ops",
	Short: "List operations with their credit costs",
	RunE:  runOps,
}

func runOps(cmd *cobra.Command, args []string) error {
	// Handlers are never invoked here; the registry just needs to
	// construct.
	registry, err := ops.NewRegistry(ops.Deps{Certify: certify.New(nil)})
	if err != nil {
		return err
	}

	costs := registry.Costs()
	usage := registry.Usage()

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "OPERATION\tCREDITS\tPARAMETERS")
	for _, name := range registry.Names() {
		fmt.Fprintf(w, "%s\t%d\t%s\n", name, costs[name], usage[name])
	}
	return w.Flush()
}
