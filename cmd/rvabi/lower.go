package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"rvabi/internal/driver"
	"rvabi/internal/observ"
	"rvabi/internal/sigfile"
)

var lowerCmd = &cobra.Command{
	Use:   "lower [flags] FILE",
	Short: "Print the lowered IR declarations and call thunks of a signature file",
	Args:  cobra.ExactArgs(1),
	RunE:  runLower,
}

func init() {
	lowerCmd.Flags().StringSlice("func", nil, "only lower these functions (repeatable)")
	lowerCmd.Flags().StringP("output", "o", "", "write IR to file instead of stdout")
}

func runLower(cmd *cobra.Command, args []string) (err error) {
	names, err := cmd.Flags().GetStringSlice("func")
	if err != nil {
		return err
	}
	outPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	showTimings, err := cmd.Root().PersistentFlags().GetBool("timings")
	if err != nil {
		return err
	}

	stopProfiling, err := setupProfiling(cmd)
	if err != nil {
		return err
	}
	defer stopProfiling()
	tracing, err := setupTracing(cmd)
	if err != nil {
		return err
	}
	defer func() { tracing.finish(err) }()

	var timer *observ.Timer
	if showTimings {
		timer = observ.NewTimer()
		defer func() { fmt.Fprint(cmd.ErrOrStderr(), timer.Summary()) }()
	}
	done := timer.Track("load")
	file, err := sigfile.Load(args[0])
	if err != nil {
		return err
	}
	done(fmt.Sprintf("%d funcs", len(file.Funcs)))
	done = timer.Track("lower")
	ir, err := driver.RenderIR(cmd.Context(), file, names)
	if err != nil {
		return err
	}
	done("")

	if outPath == "" {
		_, err = fmt.Fprint(cmd.OutOrStdout(), ir)
		return err
	}
	if err := os.WriteFile(outPath, []byte(ir), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", outPath, err)
	}
	return nil
}
