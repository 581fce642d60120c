package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mitchellh/colorstring"
	"github.com/posthog/posthog-go"
	"github.com/schollz/progressbar/v3"
	"github.com/shivasurya/kcfa/pointer"
	"github.com/spf13/cobra"
)

// telemetryKey is a write-only project API key for the opt-out anonymous
// "a run happened" ping (spec.md §6 names no specific analytics vendor;
// posthog is the teacher's own choice for this in its diagnose command).
// Left empty disables the ping outright rather than shipping a real key in
// a public tree.
const telemetryKey = ""

var (
	fixtureFlag bool
	outputPath  string
	noTelemetry bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run the points-to analysis and print a report",
	RunE:  runAnalyze,
}

func init() {
	analyzeCmd.Flags().BoolVar(&fixtureFlag, "fixture", false, "run against the built-in demonstration program instead of a real source tree")
	analyzeCmd.Flags().StringVarP(&outputPath, "output", "o", "", "write the JSON report to this path instead of stdout")
	analyzeCmd.Flags().BoolVar(&noTelemetry, "no-telemetry", false, "disable the anonymous usage ping")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, _ []string) error {
	if !fixtureFlag {
		return fmt.Errorf("analyze: no frontend is wired into this build; pass --fixture to run the demonstration program")
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	cfg.Verbose = cfg.Verbose || verboseFlag

	analysis, err := pointer.New(cfg)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	var bar *progressbar.ProgressBar
	if isInteractive() {
		bar = progressbar.Default(-1, "analyzing")
		defer bar.Finish()
	}

	begin := start()
	world := demoWorld()
	result, err := analysis.Analyze(world)
	if bar != nil {
		_ = bar.Add(1)
	}
	if err != nil {
		return fmt.Errorf("analyze: %w", err)
	}
	elapsed := elapsedSince(begin)

	report := result.Query().BuildReport()
	sendTelemetry(report)

	if outputPath != "" {
		data, err := report.MarshalJSON()
		if err != nil {
			return fmt.Errorf("encoding report: %w", err)
		}
		if err := os.WriteFile(outputPath, data, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", outputPath, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "report written to %s\n", outputPath)
		return nil
	}

	printReport(cmd, report, elapsed)
	return nil
}

// start and elapsedSince isolate the one time.Now() call this command
// makes, so a later switch to a monotonic stand-in (tests, replay) only
// touches this one spot.
func start() time.Time { return time.Now() }

func elapsedSince(t time.Time) time.Duration { return time.Since(t) }

func printReport(cmd *cobra.Command, r pointer.Report, elapsed time.Duration) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, colorstring.Color("[bold][green]analysis complete[reset] in "+elapsed.Round(time.Millisecond).String()))

	fmt.Fprintln(out, colorstring.Color("[bold]statistics[reset]"))
	for _, k := range []string{"objects", "variables", "fields", "scopes", "call_edges", "call_nodes", "classes", "unknown_events"} {
		fmt.Fprintf(out, "  %-16s %s\n", k, humanize.Comma(int64(r.Statistics[k])))
	}

	if len(r.CallEdges) > 0 {
		fmt.Fprintln(out, colorstring.Color("[bold]call graph[reset]"))
		for _, e := range r.CallEdges {
			fmt.Fprintf(out, "  %s\n", e)
		}
	}

	if len(r.UnknownEvents) > 0 {
		fmt.Fprintln(out, colorstring.Color("[bold][yellow]unknowns[reset]"))
		for _, ev := range r.UnknownEvents {
			fmt.Fprintf(out, "  %s\n", ev)
		}
		if r.Truncated {
			fmt.Fprintln(out, "  ... (truncated)")
		}
	}
}

// sendTelemetry fires a best-effort, fire-and-forget anonymous event
// recording that a run happened and its rough size, skipped entirely when
// no key is configured, --no-telemetry is passed, or the client fails to
// construct. Nothing here ever blocks or fails the command.
func sendTelemetry(r pointer.Report) {
	if noTelemetry || telemetryKey == "" {
		return
	}
	disableGeoIP := true
	client, err := posthog.NewWithConfig(telemetryKey, posthog.Config{
		Endpoint:     "https://us.i.posthog.com",
		DisableGeoIP: &disableGeoIP,
	})
	if err != nil {
		return
	}
	defer client.Close()

	props := posthog.NewProperties()
	props.Set("objects", r.Statistics["objects"])
	props.Set("call_edges", r.Statistics["call_edges"])
	_ = client.Enqueue(posthog.Capture{
		DistinctId: "kcfa-cli",
		Event:      "analyze_run",
		Properties: props,
	})
}
