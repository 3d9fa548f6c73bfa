// x64jit assembles, publishes, and runs the demo programs.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wdamron/x64jit/disasm"
	"github.com/wdamron/x64jit/execmem"
	"github.com/wdamron/x64jit/internal/demo"
	"github.com/wdamron/x64jit/internal/log"
	"github.com/wdamron/x64jit/internal/settings"
)

func main() {
	var logLevel string

	var rootCmd = &cobra.Command{
		Use:   "x64jit",
		Short: "Assemble and run x86-64 machine code at runtime",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return log.Init(logLevel)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", settings.Load().LogLevel, "Log level (trace, debug, info, warn, error)")

	var runCmd = &cobra.Command{
		Use:   "run",
		Short: "Publish and invoke the demo programs",
		RunE: func(cmd *cobra.Command, args []string) error {
			results, err := demo.Run(execmem.DefaultAllocator())
			for _, r := range results {
				fmt.Fprintln(cmd.OutOrStdout(), r)
			}
			if err != nil {
				return err
			}
			for _, r := range results {
				if !r.OK() {
					return fmt.Errorf("scenario %s returned %d, want %d", r.Scenario, r.Got, r.Want)
				}
			}
			log.Info(log.CLI, "all scenarios passed", "count", len(results))
			return nil
		},
	}

	var addEntry uint64
	var dumpCmd = &cobra.Command{
		Use:   "dump [scenario...]",
		Short: "Print the disassembly of the demo programs",
		RunE: func(cmd *cobra.Command, args []string) error {
			names := args
			if len(names) == 0 {
				names = append(append([]string{}, demo.Names...), demo.AddName)
			}
			for _, name := range names {
				code, err := demo.Assemble(name, uintptr(addEntry))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s (%d bytes):\n%s\n", name, len(code), disasm.Listing(code))
			}
			return nil
		},
	}
	dumpCmd.Flags().Uint64Var(&addEntry, "add-entry", 0, "Address called by the call-add program")

	rootCmd.AddCommand(runCmd, dumpCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
