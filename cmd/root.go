package cmd

import (
	"fmt"
	"os"

	figure "github.com/common-nighthawk/go-figure"
	"github.com/joho/godotenv"
	"github.com/mitchellh/colorstring"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// Version and GitCommit are overridden at build time via -ldflags, the
// way the teacher's own root.go does.
var (
	Version   = "0.1.0"
	GitCommit = "HEAD"
)

var (
	verboseFlag  bool
	configPath   string
	noBannerFlag bool
)

var rootCmd = &cobra.Command{
	Use:   "kcfa",
	Short: "Context-sensitive points-to analysis for dynamic languages",
	Long: colorstring.Color(`[bold]kcfa[reset] runs a whole-program, context-sensitive pointer
(points-to) analysis — k-CFA and its object/type/receiver/hybrid variants —
over the IR of a dynamically typed language with closures, multiple
inheritance, modules and imports.`),
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		// A .env file, if present, is loaded into the process environment
		// best-effort: a missing .env file is not an error, the way the
		// teacher's cmd package treats its own optional .env. No command
		// reads any KCFA_ variable from the environment.
		_ = godotenv.Load()

		if !noBannerFlag && isInteractive() {
			fmt.Fprintln(os.Stderr, figure.NewFigure("kcfa", "", true).String())
		}
	},
}

// isInteractive reports whether stdout is an attached terminal, gating
// the banner and progress bar on TTY output only.
func isInteractive() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// Execute runs the command tree; main.go's sole responsibility is to call
// this and translate a returned error into a process exit code.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&verboseFlag, "verbose", false, "verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file (overrides defaults, overridden by flags)")
	rootCmd.PersistentFlags().BoolVar(&noBannerFlag, "no-banner", false, "suppress the startup banner")
}
