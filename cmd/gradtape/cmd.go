package main

import (
	"flag"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"k8s.io/klog/v2"

	"github.com/born-ml/gradtape/internal/envconfig"
)

const version = "v0.1.0-dev"

// NewCLI builds the root command with every subcommand registered.
func NewCLI() *cobra.Command {
	klogFlags := flag.NewFlagSet("klog", flag.ContinueOnError)
	klog.InitFlags(klogFlags)

	rootCmd := &cobra.Command{
		Use:           "gradtape",
		Short:         "Tape-based reverse-mode automatic differentiation",
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// An explicit -v wins over GRADTAPE_DEBUG.
			if v := klogFlags.Lookup("v"); v != nil && !cmd.Flags().Changed("v") {
				if level := envconfig.Verbosity(); level > 0 {
					return v.Value.Set(strconv.Itoa(int(level)))
				}
			}
			return nil
		},
	}
	rootCmd.PersistentFlags().AddGoFlagSet(klogFlags)

	rootCmd.AddCommand(
		newVersionCmd(),
		newGradcheckCmd(),
		newTrainCmd(),
		newInspectCmd(),
		newEnvCmd(),
	)
	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "gradtape %s\n", version)
		},
	}
}
