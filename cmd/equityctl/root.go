package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"

	"github.com/spf13/cobra"
)

// rootOptions holds the global flags
type rootOptions struct {
	configPath string
	poolCode   string
	verbose    bool
	auditLog   string
	migrate    bool
}

// newRootCmd builds the command tree. Results are written to out as JSON.
func newRootCmd(out io.Writer) *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "equityctl",
		Short: "Manage shareholders of a capacity pool",
		Long: `equityctl records shareholder investments against a fixed capacity pool
and keeps every holder's percentage and share count derived from the ledger.

Every mutation is validated as a whole, serialized per pool and committed
atomically together with the re-apportioned share counts.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetOut(out)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "Path to config.toml (default: ./config.toml or /etc/equity/config.toml)")
	flags.StringVar(&opts.poolCode, "pool", "", "Capacity pool code (overrides equity.pool_code)")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")
	flags.StringVar(&opts.auditLog, "audit-log", "", "Append committed shareholder events to this file as JSON lines")
	flags.BoolVar(&opts.migrate, "migrate", true, "Apply pending schema migrations before running the command")

	run := withApp(opts)
	rootCmd.AddCommand(
		newCreateCmd(run),
		newUpdateCmd(run),
		newDeleteCmd(run),
		newGetCmd(run),
		newListCmd(run),
		newPreviewCmd(run),
		newSummaryCmd(run),
		newDistributeCmd(run),
	)
	return rootCmd
}

// appFunc is a command body that needs the wired services
type appFunc func(cmd *cobra.Command, args []string, a *app) error

// runner adapts an appFunc into a RunE
type runner func(fn appFunc) func(*cobra.Command, []string) error

// withApp builds the app before the command body and closes it afterwards,
// also when the body fails.
func withApp(opts *rootOptions) runner {
	return func(fn appFunc) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) (err error) {
			a, err := newApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer func() {
				err = errors.Join(err, a.Close(context.WithoutCancel(cmd.Context())))
			}()
			return fn(cmd, args, a)
		}
	}
}

// mutating writes the configured pool row before fn runs. Only commands that
// change the ledger use it; reads never touch the pool row.
func mutating(fn appFunc) appFunc {
	return func(cmd *cobra.Command, args []string, a *app) error {
		if err := a.shareholders.EnsurePool(cmd.Context()); err != nil {
			return err
		}
		return fn(cmd, args, a)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
