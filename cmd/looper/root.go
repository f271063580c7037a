package main

import (
	"github.com/spf13/cobra"
)

// exitCode is set by subcommands that need a non-zero exit without
// surfacing a cobra error (submission failures, not CLI misuse).
var exitCode int

var rootCmd = &cobra.Command{
	Use:           "looper",
	Short:         "Submit pipeline jobs for PEP samples",
	Long:          "looper pairs project samples with pipeline interfaces and drives their submission.",
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to the looper config file (required)")
	rootCmd.PersistentFlags().StringVar(&flagComputeConfig, "compute-config", "", "path to the compute config file (overrides LOOPER_COMPUTE/default)")
	rootCmd.PersistentFlags().StringVar(&flagComputePackage, "package", "", "compute package to activate (overrides looper config)")
	rootCmd.PersistentFlags().BoolVar(&flagDryRun, "dry-run", false, "don't actually submit the jobs")
	rootCmd.PersistentFlags().BoolVar(&flagIgnoreFlags, "ignore-flags", false, "ignore existing status flags and submit anyway")
	rootCmd.PersistentFlags().IntVar(&flagM, "lumpn", 0, "max commands per submission pool (M)")
	rootCmd.PersistentFlags().Float64Var(&flagS, "lump", -1, "max total input size (GB) per submission pool (S)")
	rootCmd.PersistentFlags().IntVar(&flagJ, "jobs", 0, "divide samples into J jobs, deriving M")
	rootCmd.PersistentFlags().StringVar(&flagExtra, "command-extra", "", "string appended to every rendered command line")
	rootCmd.PersistentFlags().BoolVar(&flagFileChecks, "file-checks", true, "skip samples missing input-schema files")
	rootCmd.PersistentFlags().StringVar(&flagLimit, "limit", "", "select sample(s) by 1-based index (N or LO:HI)")
	rootCmd.PersistentFlags().StringVar(&flagSkip, "skip", "", "skip sample(s) by 1-based index (N or LO:HI)")
	rootCmd.PersistentFlags().StringVar(&flagSelAttr, "sel-attr", "", "attribute name for --sel-incl/--sel-excl")
	rootCmd.PersistentFlags().StringSliceVar(&flagSelIncl, "sel-incl", nil, "include only samples whose --sel-attr value is in this set")
	rootCmd.PersistentFlags().StringSliceVar(&flagSelExcl, "sel-excl", nil, "exclude samples whose --sel-attr value is in this set")

	rootCmd.AddCommand(runCmd, rerunCmd, runpCmd, destroyCmd, cleanCmd, checkCmd, initCmd, initPifaceCmd)
}
