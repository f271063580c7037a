package core

import "testing"

// TestRunFinalDrainPropagatesFatalError: a fatal error surfaced by the
// forced final drain (here, a conductor with no active compute package)
// must stop Run and propagate the error rather than being folded into the
// summary's failure reasons as an ordinary submission failure.
func TestRunFinalDrainPropagatesFatalError(t *testing.T) {
	dir := t.TempDir()
	project := testProject(t, dir)
	project.Samples = []*Sample{NewSample("a", "pipelineA", nil)}

	pi := testPI("run {sample.sample_name}")
	router := NewRouter()
	router.RegisterProtocol(pi.PipelineName, pi)

	runner, err := NewRunner(RunnerConfig{
		Project:      project,
		Router:       router,
		Bindings:     []PipelineBinding{{PI: pi, M: 5, S: -1}},
		DryRun:       false,
		Status:       &fakeStatus{},
		ComputeStore: &ComputeStore{}, // no package activated
	})
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}

	summary, err := runner.Run()
	if err == nil {
		t.Fatalf("expected Run to propagate the final drain's fatal error")
	}
	if summary != nil {
		t.Fatalf("expected a nil summary alongside the propagated error")
	}
	if !KindOf(err).Fatal() {
		t.Fatalf("expected the propagated error to be of a fatal kind, got %v", KindOf(err))
	}
}
