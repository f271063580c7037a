package main

import (
	"fmt"
	"sort"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Query the status backend and tabulate counts per status per pipeline",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := loadEnvironment()
		if err != nil {
			return err
		}

		counts := map[string]map[string]int{} // pipeline -> status -> count
		pipelineNames := map[string]struct{}{}
		for _, b := range env.bindings {
			pipelineNames[b.PI.PipelineName] = struct{}{}
		}
		for name := range pipelineNames {
			counts[name] = map[string]int{}
		}

		for _, s := range env.project.Samples {
			for _, pi := range env.router.Route(s) {
				statuses, err := env.status.GetStatus(s.SampleName, pi.PipelineName)
				if err != nil {
					return err
				}
				if len(statuses) == 0 {
					counts[pi.PipelineName]["no status"]++
					continue
				}
				for _, st := range statuses {
					counts[pi.PipelineName][st]++
				}
			}
		}

		renderStatusTable(counts)
		return nil
	},
}

// renderStatusTable renders a one-shot (non-interactive) table of
// pipeline/status/count rows using bubbles/table's View method directly,
// without driving a tea.Program event loop.
func renderStatusTable(counts map[string]map[string]int) {
	columns := []table.Column{
		{Title: "Pipeline", Width: 24},
		{Title: "Status", Width: 16},
		{Title: "Count", Width: 8},
	}

	var pipelines []string
	for name := range counts {
		pipelines = append(pipelines, name)
	}
	sort.Strings(pipelines)

	var rows []table.Row
	for _, name := range pipelines {
		statuses := counts[name]
		var statusNames []string
		for st := range statuses {
			statusNames = append(statusNames, st)
		}
		sort.Strings(statusNames)
		for _, st := range statusNames {
			rows = append(rows, table.Row{name, st, fmt.Sprint(statuses[st])})
		}
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(false),
		table.WithHeight(len(rows)+1),
	)
	style := table.DefaultStyles()
	style.Header = style.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		Bold(true)
	style.Selected = lipgloss.NewStyle()
	t.SetStyles(style)

	fmt.Println(t.View())
}
