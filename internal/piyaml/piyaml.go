// Package piyaml parses the YAML document forms Looper consumes: the
// looper config, a pipeline-interface document, and a compute config.
// Fields that accept more than one shape (a command-templates list that
// may be a single string or a sequence, a pipeline_interfaces entry that
// may be a string or a list, a PI's protocol_mapping) are held as
// yaml.Node during decode and normalized afterward, mirroring the
// polymorphic-decode pattern used elsewhere in this codebase for YAML
// documents with shorthand forms.
package piyaml

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/pepkit/looper-sub000/internal/core"
)

// LooperConfig is the parsed top-level looper config document.
type LooperConfig struct {
	PepConfig          string
	OutputDir          string
	PipelineInterfaces []string
	Pipestat           map[string]string
	CLI                map[string]map[string]any
	SampleModifiers    map[string]any
}

type yamlLooperConfig struct {
	PepConfig          string                    `yaml:"pep_config"`
	OutputDir          string                    `yaml:"output_dir"`
	PipelineInterfaces yaml.Node                 `yaml:"pipeline_interfaces"`
	Pipestat           map[string]string         `yaml:"pipestat,omitempty"`
	CLI                map[string]map[string]any `yaml:"cli,omitempty"`
	SampleModifiers    map[string]any            `yaml:"sample_modifiers,omitempty"`
}

// ParseLooperConfig parses a looper config document. pipeline_interfaces
// may be a bare string or a sequence of strings.
func ParseLooperConfig(data []byte) (*LooperConfig, error) {
	var y yamlLooperConfig
	if err := yaml.Unmarshal(data, &y); err != nil {
		return nil, core.Wrap(core.KindBadConfig, "piyaml.looper_config", err)
	}
	pis, err := decodeStringOrList(&y.PipelineInterfaces)
	if err != nil {
		return nil, core.Wrap(core.KindBadConfig, "piyaml.looper_config.pipeline_interfaces", err)
	}
	return &LooperConfig{
		PepConfig:          y.PepConfig,
		OutputDir:          y.OutputDir,
		PipelineInterfaces: pis,
		Pipestat:           y.Pipestat,
		CLI:                y.CLI,
		SampleModifiers:    y.SampleModifiers,
	}, nil
}

// decodeStringOrList normalizes a YAML scalar-or-sequence node into a
// string slice. A zero-value (absent) node yields nil.
func decodeStringOrList(node *yaml.Node) ([]string, error) {
	if node == nil || node.Kind == 0 {
		return nil, nil
	}
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Value == "" {
			return nil, nil
		}
		return []string{node.Value}, nil
	case yaml.SequenceNode:
		var out []string
		if err := node.Decode(&out); err != nil {
			return nil, fmt.Errorf("sequence: %w", err)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected a string or a sequence of strings, got YAML kind %d", node.Kind)
	}
}

// ---- Pipeline interface document -------------------------------------

type yamlPISection struct {
	CommandTemplate        string        `yaml:"command_template"`
	PreSubmit              yamlPreSubmit `yaml:"pre_submit,omitempty"`
	SizeDependentVariables string        `yaml:"size_dependent_variables,omitempty"`
	Compute                yamlCompute   `yaml:"compute,omitempty"`
	InputSchema            string        `yaml:"input_schema,omitempty"`
	OutputSchema           string        `yaml:"output_schema,omitempty"`
	OverrideExtra          bool          `yaml:"override_extra,omitempty"`
}

type yamlCompute struct {
	DynamicVariablesCommandTemplate string         `yaml:"dynamic_variables_command_template,omitempty"`
	Extra                           map[string]any `yaml:",inline"`
}

type yamlPreSubmit struct {
	PythonFunctions  yaml.Node `yaml:"python_functions,omitempty"`
	CommandTemplates yaml.Node `yaml:"command_templates,omitempty"`
}

type yamlPipelineInterface struct {
	PipelineName             string         `yaml:"pipeline_name"`
	SampleInterface          *yamlPISection `yaml:"sample_interface,omitempty"`
	ProjectInterface         *yamlPISection `yaml:"project_interface,omitempty"`
	VarTemplates             map[string]any `yaml:"var_templates,omitempty"`
	LinkedPipelineInterfaces []string       `yaml:"linked_pipeline_interfaces,omitempty"`
	ProtocolMapping          yaml.Node      `yaml:"protocol_mapping,omitempty"`
}

// ParsePipelineInterface parses a pipeline-interface document from path,
// resolving relative schema/resource-table paths against its directory.
func ParsePipelineInterface(path string) (*core.PipelineInterface, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, core.Wrap(core.KindBadConfig, "piyaml.pipeline_interface.read", err)
	}

	var y yamlPipelineInterface
	if err := yaml.Unmarshal(data, &y); err != nil {
		return nil, core.Wrap(core.KindBadConfig, "piyaml.pipeline_interface.parse", err)
	}
	if y.SampleInterface == nil && y.ProjectInterface == nil {
		return nil, core.Errorf(core.KindBadConfig, "piyaml.pipeline_interface", "%s declares neither sample_interface nor project_interface", path)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}
	baseDir := filepath.Dir(absPath)

	protocols, err := decodeStringOrList(&y.ProtocolMapping)
	if err != nil {
		return nil, core.Wrap(core.KindBadConfig, "piyaml.pipeline_interface.protocol_mapping", err)
	}

	pi := &core.PipelineInterface{
		PipelineName:             y.PipelineName,
		SourcePath:               absPath,
		LinkedPipelineInterfaces: y.LinkedPipelineInterfaces,
		Protocols:                protocols,
	}

	if y.SampleInterface != nil {
		s, err := convertSection(y.SampleInterface, baseDir)
		if err != nil {
			return nil, err
		}
		pi.Sample = s
	}
	if y.ProjectInterface != nil {
		s, err := convertSection(y.ProjectInterface, baseDir)
		if err != nil {
			return nil, err
		}
		pi.Project = s
	}
	if y.VarTemplates != nil {
		pi.VarTemplates = core.FromAny(y.VarTemplates)
	}

	return pi, nil
}

func convertSection(y *yamlPISection, baseDir string) (*core.PISection, error) {
	if y.CommandTemplate == "" {
		return nil, core.Errorf(core.KindBadConfig, "piyaml.pipeline_interface.section", "command_template is required")
	}

	pythonFns, err := decodeStringOrList(&y.PreSubmit.PythonFunctions)
	if err != nil {
		return nil, core.Wrap(core.KindBadConfig, "piyaml.pre_submit.python_functions", err)
	}
	if len(pythonFns) > 0 {
		return nil, core.Errorf(core.KindBadConfig, "piyaml.pre_submit.python_functions",
			"python_functions hooks are not supported; use command_templates instead (got %d)", len(pythonFns))
	}
	cmdTemplates, err := decodeStringOrList(&y.PreSubmit.CommandTemplates)
	if err != nil {
		return nil, core.Wrap(core.KindBadConfig, "piyaml.pre_submit.command_templates", err)
	}

	sdv := resolveRelative(y.SizeDependentVariables, baseDir)
	inputSchema := resolveRelative(y.InputSchema, baseDir)
	outputSchema := resolveRelative(y.OutputSchema, baseDir)

	computeVars := map[string]core.Value{}
	for k, v := range y.Compute.Extra {
		computeVars[k] = core.FromAny(v)
	}

	return &core.PISection{
		CommandTemplate:        y.CommandTemplate,
		PreSubmit:              core.PreSubmit{PythonFunctions: pythonFns, CommandTemplates: cmdTemplates},
		SizeDependentVariables: sdv,
		DynamicVariablesCmd:    y.Compute.DynamicVariablesCommandTemplate,
		Compute:                core.Mapping(computeVars),
		InputSchema:            inputSchema,
		OutputSchema:           outputSchema,
		OverrideExtra:          y.OverrideExtra,
	}, nil
}

func resolveRelative(p, baseDir string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(baseDir, p)
}

// ---- Compute config ---------------------------------------------------

type yamlComputePackage struct {
	SubmissionTemplate string         `yaml:"submission_template"`
	SubmissionCommand  string         `yaml:"submission_command"`
	Extra              map[string]any `yaml:",inline"`
}

type yamlComputeConfig struct {
	ComputePackages map[string]yamlComputePackage `yaml:"compute_packages"`
	Adapters        map[string]string             `yaml:"adapters,omitempty"`
}

// ParseComputeConfig parses a compute config document from path. The
// returned store's ConfigDir is the document's directory, used to
// resolve relative submission_template paths on Activate.
func ParseComputeConfig(path string) (*core.ComputeStore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, core.Wrap(core.KindBadConfig, "piyaml.compute_config.read", err)
	}
	var y yamlComputeConfig
	if err := yaml.Unmarshal(data, &y); err != nil {
		return nil, core.Wrap(core.KindBadConfig, "piyaml.compute_config.parse", err)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}

	packages := make(map[string]core.ComputePackage, len(y.ComputePackages))
	for name, p := range y.ComputePackages {
		vars := make(map[string]string, len(p.Extra))
		for k, v := range p.Extra {
			if s, ok := v.(string); ok {
				vars[k] = s
			} else {
				vars[k] = fmt.Sprint(v)
			}
		}
		packages[name] = core.ComputePackage{
			Name:               name,
			SubmissionTemplate: p.SubmissionTemplate,
			SubmissionCommand:  p.SubmissionCommand,
			Vars:               vars,
		}
	}

	return &core.ComputeStore{
		ConfigDir: filepath.Dir(absPath),
		Packages:  packages,
		Adapters:  y.Adapters,
	}, nil
}

// ComputeConfigPath resolves the compute config location using a
// LOOPER_COMPUTE environment-variable search list, falling back to
// defaultPath.
func ComputeConfigPath(envVar, defaultPath string) string {
	if envVar == "" {
		envVar = "LOOPER_COMPUTE"
	}
	if v := os.Getenv(envVar); v != "" {
		return v
	}
	return defaultPath
}
