package core

import "testing"

func TestNormalizeProtocolFuzzyMatch(t *testing.T) {
	cases := []struct {
		a, b string
	}{
		{"RNA-seq", "rnaseq"},
		{"RNA_seq", "rna seq"},
		{"  WGBS  ", "wgbs"},
		{"ChIP-Seq", "chipseq"},
	}
	for _, tc := range cases {
		if got, want := normalizeProtocol(tc.a), normalizeProtocol(tc.b); got != want {
			t.Fatalf("normalizeProtocol(%q)=%q, normalizeProtocol(%q)=%q, want equal", tc.a, got, tc.b, want)
		}
	}
}

func TestRouterRouteSingleAndMultiplePIs(t *testing.T) {
	r := NewRouter()
	rnaPI := &PipelineInterface{PipelineName: "rna_pipeline", SourcePath: "/pi/rna.yaml"}
	qcPI := &PipelineInterface{PipelineName: "qc_pipeline", SourcePath: "/pi/qc.yaml"}

	r.RegisterProtocol("RNA-seq", rnaPI)
	r.RegisterProtocol("RNA-seq", qcPI)

	sample := NewSample("s1", "rnaseq", nil)
	pis := r.Route(sample)
	if len(pis) != 2 {
		t.Fatalf("got %d PIs, want 2", len(pis))
	}
	if pis[0] != rnaPI || pis[1] != qcPI {
		t.Fatalf("expected registration order preserved")
	}

	got := r.InterfacesFor("s1")
	if len(got) != 2 {
		t.Fatalf("InterfacesFor: got %d, want 2", len(got))
	}
}

func TestRouterRouteUnmatchedProtocolReturnsNil(t *testing.T) {
	r := NewRouter()
	sample := NewSample("s1", "unknown-protocol", nil)
	if pis := r.Route(sample); pis != nil {
		t.Fatalf("expected nil for unmatched protocol, got %v", pis)
	}
}

func TestRouterRouteEmptyProtocolReturnsNil(t *testing.T) {
	r := NewRouter()
	sample := NewSample("s1", "", nil)
	if pis := r.Route(sample); pis != nil {
		t.Fatalf("expected nil for empty protocol, got %v", pis)
	}
}

func TestValidateLinkedInterfacesOKAndMissing(t *testing.T) {
	r := NewRouter()
	samplePI := &PipelineInterface{PipelineName: "sample_pipeline", SourcePath: "/pi/sample.yaml"}
	r.RegisterProtocol("rnaseq", samplePI)
	r.Route(NewSample("s1", "rnaseq", nil))

	projectPI := &PipelineInterface{
		PipelineName:             "project_pipeline",
		SourcePath:               "/pi/project.yaml",
		Project:                  &PISection{CommandTemplate: "run"},
		LinkedPipelineInterfaces: []string{"sample.yaml"},
	}
	if err := r.ValidateLinkedInterfaces([]*PipelineInterface{projectPI}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	badPI := &PipelineInterface{
		PipelineName:             "project_pipeline2",
		SourcePath:               "/pi/project2.yaml",
		Project:                  &PISection{CommandTemplate: "run"},
		LinkedPipelineInterfaces: []string{"nonexistent.yaml"},
	}
	if err := r.ValidateLinkedInterfaces([]*PipelineInterface{badPI}); err == nil {
		t.Fatalf("expected error for unresolvable linked interface")
	}
}
