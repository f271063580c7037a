package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/huh"
	"github.com/ktr0731/go-fuzzyfinder"
	"github.com/spf13/cobra"

	"github.com/pepkit/looper-sub000/internal/core"
)

var flagForceYes bool

var destroyCmd = &cobra.Command{
	Use:   "destroy",
	Short: "Remove result directories for selected samples",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := loadEnvironment()
		if err != nil {
			return err
		}

		targets, err := samplesToDestroy(env.project)
		if err != nil {
			return err
		}
		if len(targets) == 0 {
			fmt.Println("no samples selected; nothing to destroy")
			return nil
		}

		if !flagForceYes {
			var confirmed bool
			names := make([]string, len(targets))
			for i, s := range targets {
				names[i] = s.SampleName
			}
			form := huh.NewConfirm().
				Title(fmt.Sprintf("Remove result directories for %d sample(s): %v?", len(targets), names)).
				Value(&confirmed)
			if err := form.Run(); err != nil {
				return core.Wrap(core.KindInterrupted, "cli.destroy", err)
			}
			if !confirmed {
				fmt.Println("aborted")
				return nil
			}
		}

		for _, s := range targets {
			dir := filepath.Join(env.project.Paths.ResultsSubdir, s.SampleName)
			if err := os.RemoveAll(dir); err != nil {
				return core.Wrap(core.KindBadConfig, "cli.destroy", err)
			}
			fmt.Printf("removed %s\n", dir)
		}
		return nil
	},
}

// samplesToDestroy narrows the project's samples by --limit/--sel-attr
// when given; otherwise it opens an interactive fuzzy-finder multi-select
// to pick which samples to destroy.
func samplesToDestroy(project *core.Project) ([]*core.Sample, error) {
	sel, err := selectionOptions()
	if err != nil {
		return nil, err
	}
	if sel.Limit != nil || sel.Attr != nil {
		predicate, err := sel.Predicate()
		if err != nil {
			return nil, err
		}
		var out []*core.Sample
		for i, s := range project.Samples {
			if predicate(s, i+1) {
				out = append(out, s)
			}
		}
		return out, nil
	}

	idxs, err := fuzzyfinder.FindMulti(
		project.Samples,
		func(i int) string { return project.Samples[i].SampleName },
		fuzzyfinder.WithPromptString("Select sample(s) to destroy: "),
	)
	if err != nil {
		if err == fuzzyfinder.ErrAbort {
			return nil, nil
		}
		return nil, core.Wrap(core.KindInterrupted, "cli.destroy.select", err)
	}
	out := make([]*core.Sample, len(idxs))
	for i, idx := range idxs {
		out[i] = project.Samples[idx]
	}
	return out, nil
}

func init() {
	destroyCmd.Flags().BoolVar(&flagForceYes, "force-yes", false, "skip the confirmation prompt")
}
