// Command catlog-chk-conf checks the syntax of catlog rule files.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/Station-Manager/catlog/engine"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	var quiet, verbose bool

	cmd := &cobra.Command{
		Use:           "catlog-chk-conf [-q] [-v] FILE...",
		Short:         "Check the syntax of catlog rule files",
		Version:       engine.Version,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			level := zerolog.WarnLevel
			if verbose {
				level = zerolog.DebugLevel
			}
			diag := zerolog.New(zerolog.ConsoleWriter{Out: stderr, NoColor: true}).Level(level)
			if quiet {
				diag = zerolog.Nop()
			}
			eng := engine.New(engine.Options{Diagnostics: &diag, Stdout: io.Discard, Stderr: io.Discard})

			failed := 0
			for _, path := range args {
				if err := eng.CheckFile(path); err != nil {
					failed++
					if !quiet {
						fmt.Fprintf(stderr, "--[%s] syntax error: %v\n", path, err)
					}
					continue
				}
				if !quiet {
					fmt.Fprintf(stdout, "--[%s] syntax right\n", path)
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d files have errors", failed, len(args))
			}
			return nil
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "print nothing, report through the exit status only")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "show debug diagnostics while parsing")
	return cmd
}
