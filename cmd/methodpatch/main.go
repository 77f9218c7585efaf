package main

import (
	"os"
	"strings"

	"github.com/seafloor/methodpatch/internal/demo"
	"github.com/seafloor/methodpatch/internal/gen"
	"github.com/seafloor/methodpatch/internal/log"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:               "methodpatch",
	Short:             "Intercept methods with before/after/replace hooks.",
	TraverseChildren:  true,
	DisableAutoGenTag: true,
}

func init() {
	rootCmd.AddCommand(demo.DemoCmd)
	rootCmd.AddCommand(gen.GenCmd)

	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "debug logging")
}

var verbose bool

func main() {
	// The persistent flag is not parsed yet when the logger must exist.
	for _, arg := range os.Args[1:] {
		if arg == "--verbose" {
			verbose = true
		}
	}

	log.InitLog(verbose)
	log.Debug("Program Args.", log.String("args", strings.Join(os.Args, ", ")))

	err := rootCmd.Execute()
	_ = log.Sync()
	if err != nil {
		os.Exit(1)
	}
}
