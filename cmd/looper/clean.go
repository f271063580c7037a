package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pepkit/looper-sub000/internal/core"
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Execute *_cleanup.sh scripts in each sample's results directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := loadEnvironment()
		if err != nil {
			return err
		}
		sel, err := selectionOptions()
		if err != nil {
			return err
		}
		predicate, err := sel.Predicate()
		if err != nil {
			return err
		}

		for i, s := range env.project.Samples {
			if !predicate(s, i+1) {
				continue
			}
			dir := filepath.Join(env.project.Paths.ResultsSubdir, s.SampleName)
			matches, err := filepath.Glob(filepath.Join(dir, "*_cleanup.sh"))
			if err != nil {
				return core.Wrap(core.KindBadConfig, "cli.clean", err)
			}
			for _, script := range matches {
				fmt.Printf("running %s\n", script)
				c := exec.Command("sh", script)
				c.Stdout = os.Stdout
				c.Stderr = os.Stderr
				if err := c.Run(); err != nil {
					return core.Errorf(core.KindJobSubmissionFailed, "cli.clean", "cleanup script %s failed: %v", script, err)
				}
			}
		}
		return nil
	},
}
