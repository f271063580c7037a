package core

import "strings"

// Router maps each sample's protocol to the set of pipeline interfaces
// that handle it.
type Router struct {
	// samplesByInterface maps a PI source path to the set of sample
	// names that selected it.
	samplesByInterface map[string]map[string]struct{}
	// interfacesBySample maps a sample name to its ordered list of PIs.
	interfacesBySample map[string][]*PipelineInterface
	// protocolIndex maps a normalized protocol name to the PIs declaring
	// it, in registration order.
	protocolIndex map[string][]*PipelineInterface
}

// NewRouter returns an empty Router.
func NewRouter() *Router {
	return &Router{
		samplesByInterface: map[string]map[string]struct{}{},
		interfacesBySample: map[string][]*PipelineInterface{},
		protocolIndex:      map[string][]*PipelineInterface{},
	}
}

// normalizeProtocol implements the fuzzy-match rule for protocol names:
// lowercase, strip '-', '_', and whitespace.
func normalizeProtocol(p string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(p) {
		switch r {
		case '-', '_', ' ', '\t', '\n':
			continue
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// RegisterProtocol associates a PI with one of the protocol names it
// declares handling (e.g. from a PI's own protocol-mapping section).
func (r *Router) RegisterProtocol(protocol string, pi *PipelineInterface) {
	key := normalizeProtocol(protocol)
	r.protocolIndex[key] = append(r.protocolIndex[key], pi)
}

// Route returns the ordered list of PIs that match sample's protocol,
// recording the association in both indexes. A sample may map to
// multiple PIs; each is an independent submission through its own
// conductor.
func (r *Router) Route(sample *Sample) []*PipelineInterface {
	if sample.Protocol == "" {
		return nil
	}
	pis := r.protocolIndex[normalizeProtocol(sample.Protocol)]
	if len(pis) == 0 {
		return nil
	}
	r.interfacesBySample[sample.SampleName] = pis
	for _, pi := range pis {
		set, ok := r.samplesByInterface[pi.SourcePath]
		if !ok {
			set = map[string]struct{}{}
			r.samplesByInterface[pi.SourcePath] = set
		}
		set[sample.SampleName] = struct{}{}
	}
	return pis
}

// InterfacesFor returns the PIs previously routed for sample, as recorded
// by the most recent Route call.
func (r *Router) InterfacesFor(sampleName string) []*PipelineInterface {
	return r.interfacesBySample[sampleName]
}

// ValidateLinkedInterfaces checks that every project-level PI's
// linked_pipeline_interfaces entries resolve to a source already present
// in samplesByInterface, which is typically built from the set of
// sample-level PI source paths registered via RegisterProtocol/Route.
func (r *Router) ValidateLinkedInterfaces(pis []*PipelineInterface) error {
	known := map[string]struct{}{}
	for path := range r.samplesByInterface {
		known[path] = struct{}{}
	}
	for _, pi := range pis {
		if !pi.HasProject() {
			continue
		}
		for _, linked := range pi.LinkedPipelineInterfaces {
			resolved := pi.ResolveRelative(linked)
			if _, ok := known[resolved]; !ok {
				return Errorf(KindBadConfig, "router.linked_pipeline_interfaces",
					"pipeline %s: linked interface %s does not resolve to a known PI source", pi.PipelineName, linked)
			}
		}
	}
	return nil
}
