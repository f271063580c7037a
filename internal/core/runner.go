package core

import (
	"log"
	"time"
)

// PipelineBinding pairs a PipelineInterface with the conductor
// configuration the runner should construct for it (the per-pipeline
// compute/M/S/J/ignore-flags knobs a CLI layer derives from flags and
// config).
type PipelineBinding struct {
	PI          *PipelineInterface
	Collate     bool
	M           int
	S           float64
	J           int
	IgnoreFlags bool
}

// RunnerConfig bundles everything the Runner Loop (C7) needs.
type RunnerConfig struct {
	Project          *Project
	Router           *Router
	Bindings         []PipelineBinding
	Rerun            bool
	DryRun           bool
	Delay            time.Duration
	Status           StatusBackend
	ComputeStore     *ComputeStore
	CLIComputeExtras Value
	CLIExtraArgs     string
	FileChecks       bool
	Select           func(sample *Sample, oneBasedIdx int) bool
}

// Summary is the run's closing report: command/job totals, dry-run
// posture, and the reason -> samples failure map.
type Summary struct {
	CmdsSubmitted int
	JobsSubmitted int
	DryRun        bool
	FailedReasons map[string][]string
}

// AnyFailed reports whether the summary recorded any failed samples.
func (s *Summary) AnyFailed() bool {
	for _, names := range s.FailedReasons {
		if len(names) > 0 {
			return true
		}
	}
	return false
}

// Runner is the C7 Runner Loop.
type Runner struct {
	cfg        RunnerConfig
	conductors map[*PipelineInterface]*Conductor
}

// NewRunner validates config-wide input schemas and pre-creates one
// conductor per bound pipeline interface.
func NewRunner(cfg RunnerConfig) (*Runner, error) {
	conductors := make(map[*PipelineInterface]*Conductor, len(cfg.Bindings))

	for _, b := range cfg.Bindings {
		section := b.PI.Sample
		if b.Collate {
			section = b.PI.Project
		}
		if section == nil {
			return nil, Errorf(KindBadConfig, "runner.new", "pipeline %s has no %s section", b.PI.PipelineName, sectionLabel(b.Collate))
		}

		var schema *InputSchema
		if section.InputSchema != "" {
			s, err := LoadInputSchema(section.InputSchema)
			if err != nil {
				return nil, err
			}
			schema = s
		}

		var outputSchema Value
		if !b.Collate && section.OutputSchema != "" {
			s, err := LoadOutputSchema(section.OutputSchema)
			if err != nil {
				return nil, err
			}
			outputSchema = s
		}

		cond, err := NewConductor(ConductorConfig{
			PI:               b.PI,
			Project:          cfg.Project,
			Collate:          b.Collate,
			NumSamples:       len(cfg.Project.Samples),
			M:                b.M,
			S:                b.S,
			J:                b.J,
			IgnoreFlags:      b.IgnoreFlags,
			CLIComputeExtras: cfg.CLIComputeExtras,
			CLIExtraArgs:     cfg.CLIExtraArgs,
			DryRun:           cfg.DryRun,
			Delay:            cfg.Delay,
			Status:           cfg.Status,
			ComputeStore:     cfg.ComputeStore,
			InputSchema:      schema,
			OutputSchema:     outputSchema,
			FileChecks:       cfg.FileChecks,
			Automatic:        true,
		})
		if err != nil {
			return nil, err
		}
		conductors[b.PI] = cond
	}

	return &Runner{cfg: cfg, conductors: conductors}, nil
}

func sectionLabel(collate bool) string {
	if collate {
		return "project_interface"
	}
	return "sample_interface"
}

// Run implements full iteration: route each selected sample,
// admit it to every matching conductor, then force-drain all conductors
// and aggregate failures by reason. A fatal error — including an
// interrupted submission — stops the loop immediately: no further
// samples are routed and no remaining conductor is drained.
func (r *Runner) Run() (*Summary, error) {
	failedReasons := map[string][]string{}

	for idx, sample := range r.cfg.Project.Samples {
		if r.cfg.Select != nil && !r.cfg.Select(sample, idx+1) {
			continue
		}

		pis := r.cfg.Router.Route(sample)
		if len(pis) == 0 {
			failedReasons["No pipeline interfaces defined"] = append(failedReasons["No pipeline interfaces defined"], sample.SampleName)
			continue
		}

		for _, pi := range pis {
			cond, ok := r.conductors[pi]
			if !ok {
				continue
			}
			reasons, err := cond.AddSample(sample, r.cfg.Rerun)
			if err != nil {
				if KindOf(err).Fatal() {
					return nil, err
				}
				reason := err.Error()
				failedReasons[reason] = append(failedReasons[reason], sample.SampleName)
				continue
			}
			for _, reason := range reasons {
				log.Printf("WARN > Not submitted: %s: %s", sample.SampleName, reason)
			}
		}
	}

	for pi, cond := range r.conductors {
		if _, err := cond.Submit(true); err != nil {
			if KindOf(err).Fatal() {
				return nil, err
			}
			reason := err.Error()
			failedReasons[reason] = append(failedReasons[reason], cond.FailedSampleNames()...)
			_ = pi
		}
	}

	summary := &Summary{DryRun: r.cfg.DryRun, FailedReasons: failedReasons}
	for _, cond := range r.conductors {
		summary.CmdsSubmitted += cond.NumCmdsSubmitted()
		summary.JobsSubmitted += cond.NumGoodSubmissions()
	}
	return summary, nil
}
