package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"trebodeluxe/pkg/config"
	"trebodeluxe/pkg/logger"
)

type options struct {
	verbose bool
	output  string
	timeout time.Duration

	cfg config.Config
	log *zap.SugaredLogger
}

func newRootCmd() *cobra.Command {
	o := &options{}
	root := &cobra.Command{
		Use:           "storefrontctl",
		Short:         "Operational helpers for the Trebodeluxe storefront",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			switch o.output {
			case "json", "yaml":
			default:
				return fmt.Errorf("unknown output format %q (want json or yaml)", o.output)
			}
			o.cfg = config.Load()
			if o.verbose {
				o.log = logger.New(o.cfg.Env)
			} else {
				o.log = logger.Nop()
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if o.log != nil {
				_ = o.log.Sync()
			}
		},
	}
	root.PersistentFlags().BoolVarP(&o.verbose, "verbose", "v", false, "Enable logging")
	root.PersistentFlags().StringVarP(&o.output, "output", "o", "json", "Output format: json|yaml")
	root.PersistentFlags().DurationVar(&o.timeout, "timeout", 10*time.Second, "Network timeout")

	root.AddCommand(newResolveCmd(o))
	root.AddCommand(newCategoriesCmd(o))
	root.AddCommand(newLinesCmd(o))
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
