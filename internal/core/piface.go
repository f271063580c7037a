package core

import (
	"encoding/json"
	"os/exec"
	"path/filepath"
)

// SectionKind distinguishes the two (non-exclusive) sections a pipeline
// interface may declare.
type SectionKind int

const (
	SectionSample SectionKind = iota
	SectionProject
)

// PISection is the sample_interface or project_interface body.
type PISection struct {
	CommandTemplate        string
	PreSubmit              PreSubmit
	SizeDependentVariables string // path to resource table, resolved absolute
	DynamicVariablesCmd    string
	Compute                Value // section-level static compute overrides
	InputSchema            string
	OutputSchema           string
	OverrideExtra          bool
}

// PreSubmit is the pre_submit hook section of a PI.
type PreSubmit struct {
	// PythonFunctions is parsed for round-tripping but rejected at load
	// time with BadConfig: in-process function hooks have no portable
	// Go equivalent, so only command-form pre_submit hooks are runnable.
	PythonFunctions  []string
	CommandTemplates []string
}

// PipelineInterface is a parsed, validated pipeline-interface document.
type PipelineInterface struct {
	PipelineName             string
	SourcePath               string // absolute path to the PI file, for relative resolution
	Sample                   *PISection
	Project                  *PISection
	VarTemplates             Value
	LinkedPipelineInterfaces []string
	// Protocols is the PI's declared protocol_mapping: the set of sample
	// protocol names this PI claims, fuzzy-matched per RegisterProtocol.
	// Empty when the PI declares no explicit mapping, in which case a
	// caller conventionally falls back to registering it under its own
	// PipelineName.
	Protocols []string
}

// HasSample reports whether the PI declares a sample_interface section.
func (pi *PipelineInterface) HasSample() bool { return pi.Sample != nil }

// HasProject reports whether the PI declares a project_interface section.
func (pi *PipelineInterface) HasProject() bool { return pi.Project != nil }

// Section returns the requested section, or nil if not declared.
func (pi *PipelineInterface) Section(kind SectionKind) *PISection {
	if kind == SectionProject {
		return pi.Project
	}
	return pi.Sample
}

// Schema returns the requested schema path for the given section.
func (s *PISection) Schema(output bool) string {
	if output {
		return s.OutputSchema
	}
	return s.InputSchema
}

// RenderVarTemplates renders every string leaf of the PI's top-level
// var_templates mapping, returning a fresh nested mapping.
func (pi *PipelineInterface) RenderVarTemplates(namespaces Value) (Value, error) {
	if pi.VarTemplates.IsNone() {
		return Mapping(nil), nil
	}
	return RenderVarTemplates(pi.VarTemplates, namespaces)
}

// ChooseResourcePackage resolves a compute package for this section,
// merging in project- and CLI-level overrides.
func (s *PISection) ChooseResourcePackage(namespaces Value, inputSizeGB float64, projectOverrides, cliOverrides Value) (map[string]string, error) {
	var table *ResourceTable
	if s.SizeDependentVariables != "" {
		t, err := LoadResourceTable(s.SizeDependentVariables)
		if err != nil {
			return nil, err
		}
		table = t
	}
	return SelectResourcePackage(ResourceSelectorInput{
		DynamicCommandTemplate: s.DynamicVariablesCmd,
		Namespaces:             namespaces,
		Table:                  table,
		InputSizeGB:            inputSizeGB,
		SectionCompute:         s.Compute,
		ProjectOverrides:       projectOverrides,
		CLIOverrides:           cliOverrides,
	})
}

// RunPreSubmitHooks executes the section's command-form hooks in order,
// rendering each template strictly, running it as a shell subprocess, and
// deep-merging its parsed JSON-object stdout into namespaces. A
// PythonFunctions entry makes this fail fast with BadConfig: the function-form hook requires dynamic
// dispatch-by-name, which this module does not implement.
func (s *PISection) RunPreSubmitHooks(namespaces Value) (Value, error) {
	if len(s.PreSubmit.PythonFunctions) > 0 {
		return Value{}, Errorf(KindBadConfig, "piface.pre_submit",
			"python_functions hooks are not supported; use command_templates instead (got %d)", len(s.PreSubmit.PythonFunctions))
	}

	ns := namespaces
	for _, tmpl := range s.PreSubmit.CommandTemplates {
		rendered, err := RenderStrict(tmpl, ns)
		if err != nil {
			return Value{}, err
		}
		cmd := exec.Command("sh", "-c", rendered)
		stdout, err := cmd.Output()
		if err != nil {
			return Value{}, Errorf(KindHookCommandFailed, "piface.pre_submit", "command %q failed: %v (stdout: %s)", rendered, err, stdout)
		}
		var parsed map[string]any
		if err := json.Unmarshal(stdout, &parsed); err != nil {
			return Value{}, Errorf(KindHookCommandFailed, "piface.pre_submit", "command %q: not a JSON object: %v", rendered, err)
		}
		ns = Merge(ns, FromAny(parsed))
	}
	return ns, nil
}

// ResolveRelative resolves p against the PI file's directory if p is
// not already absolute.
func (pi *PipelineInterface) ResolveRelative(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(filepath.Dir(pi.SourcePath), p)
}
