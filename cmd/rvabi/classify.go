package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"rvabi/internal/driver"
	"rvabi/internal/observ"
)

var classifyCmd = &cobra.Command{
	Use:   "classify [flags] FILE...",
	Short: "Classify the arguments of every function in signature files",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runClassify,
}

func init() {
	classifyCmd.Flags().String("format", "pretty", "output format (pretty|json|msgpack)")
	classifyCmd.Flags().Int("jobs", 0, "files classified in parallel (0 = GOMAXPROCS)")
}

func runClassify(cmd *cobra.Command, args []string) (err error) {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return err
	}
	format = strings.ToLower(format)
	switch format {
	case "pretty", "json", "msgpack":
	default:
		return fmt.Errorf("unsupported format %q (must be pretty, json or msgpack)", format)
	}
	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return err
	}
	quiet, err := cmd.Root().PersistentFlags().GetBool("quiet")
	if err != nil {
		return err
	}
	showTimings, err := cmd.Root().PersistentFlags().GetBool("timings")
	if err != nil {
		return err
	}
	colored, err := useColor(cmd, os.Stdout)
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
	}
	rep, err := driver.ClassifyFiles(cmd.Context(), args, driver.Options{Jobs: jobs, Timer: timer})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch format {
	case "pretty":
		if err := writePretty(out, rep, colored); err != nil {
			return err
		}
		if showTimings {
			fmt.Fprint(cmd.ErrOrStderr(), timer.Summary())
		}
	case "json", "msgpack":
		if showTimings {
			report := timer.Report()
			rep.Timings = &report
		}
		enc := driver.EncodingJSON
		if format == "msgpack" {
			enc = driver.EncodingMsgpack
		}
		if err := rep.Encode(out, enc); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
	}

	failed := 0
	funcs := 0
	for _, f := range rep.Files {
		if f.Error != "" {
			failed++
		}
		funcs += len(f.Funcs)
	}
	if !quiet && format == "pretty" {
		fmt.Fprintf(cmd.ErrOrStderr(), "classified %d funcs in %d files\n", funcs, len(rep.Files)-failed)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(rep.Files))
	}
	return nil
}
