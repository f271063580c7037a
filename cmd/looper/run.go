package main

import (
	"github.com/spf13/cobra"

	"github.com/pepkit/looper-sub000/internal/core"
)

// runWith loads the environment, restricts bindings to collate (project-level)
// ones when onlyCollate is set (runp only runs project-level PIs), builds the
// runner, and drives it to completion, setting exitCode per §7's policy:
// 0 on success, 1 on any failed sample.
func runWith(rerun bool, onlyCollate bool) error {
	env, err := loadEnvironment()
	if err != nil {
		return err
	}

	bindings := env.bindings
	if onlyCollate {
		var filtered []core.PipelineBinding
		for _, b := range bindings {
			if b.Collate {
				filtered = append(filtered, b)
			}
		}
		bindings = filtered
	}

	sel, err := selectionOptions()
	if err != nil {
		return err
	}
	predicate, err := sel.Predicate()
	if err != nil {
		return err
	}

	runner, err := core.NewRunner(core.RunnerConfig{
		Project:          env.project,
		Router:           env.router,
		Bindings:         bindings,
		Rerun:            rerun,
		DryRun:           flagDryRun,
		Status:           env.status,
		ComputeStore:     env.computeStore,
		CLIComputeExtras: core.Mapping(nil),
		CLIExtraArgs:     flagExtra,
		FileChecks:       flagFileChecks,
		Select:           predicate,
	})
	if err != nil {
		return err
	}

	summary, err := runner.Run()
	if err != nil {
		return err
	}
	printSummary(summary)
	if summary.AnyFailed() {
		exitCode = 1
	}
	return nil
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Submit jobs for samples not in a terminal state",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWith(false, false)
	},
}

var rerunCmd = &cobra.Command{
	Use:   "rerun",
	Short: "Re-submit only samples whose status is failed or waiting",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWith(true, false)
	},
}

var runpCmd = &cobra.Command{
	Use:   "runp",
	Short: "Project-level variant: collate one submission per project pipeline",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWith(false, true)
	},
}
