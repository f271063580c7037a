package core

// Sample is an attribute bag identified by SampleName. Equality and
// identity are by name: two Samples with the same SampleName
// are considered the same sample.
type Sample struct {
	SampleName string
	Protocol   string
	attrs      map[string]Value
}

// NewSample builds a Sample from a flat attribute map. The given name is
// also written into attrs as sample_name, and a non-empty protocol as
// protocol (overwriting any values attrs already held there), mirroring
// the Python attribute-bag model where every key, including sample_name,
// lives in the same namespace.
func NewSample(name, protocol string, attrs map[string]Value) *Sample {
	if attrs == nil {
		attrs = map[string]Value{}
	}
	s := &Sample{SampleName: name, Protocol: protocol, attrs: attrs}
	s.attrs["sample_name"] = String(name)
	if protocol != "" {
		s.attrs["protocol"] = String(protocol)
	}
	return s
}

// Get performs a dotted-path lookup into the sample's attributes.
func (s *Sample) Get(path string) (Value, bool) {
	return Mapping(s.attrs).Get(path)
}

// Set writes an attribute, used to populate derived output-schema paths
// before rendering.
func (s *Sample) Set(path string, v Value) {
	m := Mapping(s.attrs)
	m.Set(path, v)
}

// Namespace returns the sample's attributes as a namespace Value for
// template rendering.
func (s *Sample) Namespace() Value {
	return Mapping(s.attrs)
}

// Paths holds the three run-wide directories a Project exposes.
type Paths struct {
	OutputDir        string
	ResultsSubdir    string
	SubmissionSubdir string
}

// Project holds the ordered sample collection plus run-wide
// configuration. Project-model parsing of sample tables is an explicit
// out-of-scope collaborator; callers build Project directly or
// via a sample-project library that is not part of this module.
type Project struct {
	Name           string
	Samples        []*Sample
	Paths          Paths
	ComputePackage string
	DryRun         bool
	FileChecks     bool
	ConfigFile     string
	PepConfig      string

	// PIFaceSources is the list of pipeline-interface document paths
	// declared by the looper config's pipeline_interfaces key.
	PIFaceSources []string

	// ComputeOverrides holds the project-level looper.compute.resources
	// override mapping, merged into each submission's compute variables
	// after the section-level compute values.
	ComputeOverrides Value
}

// NewProject constructs a Project with an empty compute-overrides
// mapping.
func NewProject(name string, samples []*Sample, paths Paths) *Project {
	return &Project{
		Name:             name,
		Samples:          samples,
		Paths:            paths,
		ComputePackage:   "default",
		ComputeOverrides: Mapping(nil),
	}
}

// Namespace returns the project's fields as a `project` namespace Value.
func (p *Project) Namespace() Value {
	return Mapping(map[string]Value{
		"name":       String(p.Name),
		"output_dir": String(p.Paths.OutputDir),
	})
}
