package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pepkit/looper-sub000/internal/core"
	"github.com/pepkit/looper-sub000/internal/piyaml"
)

var (
	flagConfig         string
	flagComputeConfig  string
	flagComputePackage string
	flagDryRun         bool
	flagIgnoreFlags    bool
	flagM              int
	flagS              float64
	flagJ              int
	flagExtra          string
	flagFileChecks     bool
	flagLimit          string
	flagSkip           string
	flagSelAttr        string
	flagSelIncl        []string
	flagSelExcl        []string
)

// environment bundles everything a run/rerun/runp invocation needs once
// the looper config, pipeline interfaces, and compute config are loaded.
type environment struct {
	project      *core.Project
	router       *core.Router
	bindings     []core.PipelineBinding
	computeStore *core.ComputeStore
	status       core.StatusBackend
}

// loadEnvironment parses the looper config at flagConfig, every declared
// pipeline interface, the sample sheet named by pep_config, and the
// compute config, wiring them into a ready environment.
func loadEnvironment() (*environment, error) {
	if flagConfig == "" {
		return nil, core.Errorf(core.KindBadInput, "cli.load_environment", "--config is required")
	}
	data, err := os.ReadFile(flagConfig)
	if err != nil {
		return nil, core.Wrap(core.KindBadConfig, "cli.load_environment", err)
	}
	looperCfg, err := piyaml.ParseLooperConfig(data)
	if err != nil {
		return nil, err
	}
	configDir := filepath.Dir(absOrSame(flagConfig))

	samples, err := loadSampleSheet(resolveRelative(looperCfg.PepConfig, configDir))
	if err != nil {
		return nil, err
	}

	outputDir := resolveRelative(looperCfg.OutputDir, configDir)
	paths := core.Paths{
		OutputDir:        outputDir,
		ResultsSubdir:    filepath.Join(outputDir, "results_pipeline"),
		SubmissionSubdir: filepath.Join(outputDir, "submission"),
	}
	projectName := filepath.Base(configDir)
	project := core.NewProject(projectName, samples, paths)
	project.ConfigFile = absOrSame(flagConfig)
	project.PepConfig = looperCfg.PepConfig
	project.FileChecks = flagFileChecks
	project.DryRun = flagDryRun

	router := core.NewRouter()
	var bindings []core.PipelineBinding
	for _, piPath := range looperCfg.PipelineInterfaces {
		pi, err := piyaml.ParsePipelineInterface(resolveRelative(piPath, configDir))
		if err != nil {
			return nil, err
		}
		protocols := pi.Protocols
		if len(protocols) == 0 {
			protocols = []string{pi.PipelineName}
		}
		for _, protocol := range protocols {
			router.RegisterProtocol(protocol, pi)
		}
		if pi.HasSample() {
			bindings = append(bindings, core.PipelineBinding{PI: pi, Collate: false, M: flagM, S: flagS, J: flagJ, IgnoreFlags: flagIgnoreFlags})
		}
		if pi.HasProject() {
			bindings = append(bindings, core.PipelineBinding{PI: pi, Collate: true, M: flagM, S: flagS, J: flagJ, IgnoreFlags: flagIgnoreFlags})
		}
	}

	computeConfigPath := flagComputeConfig
	if computeConfigPath == "" {
		computeConfigPath = piyaml.ComputeConfigPath("LOOPER_COMPUTE", filepath.Join(configDir, "compute_config.yaml"))
	}
	computeStore, err := piyaml.ParseComputeConfig(computeConfigPath)
	if err != nil {
		return nil, err
	}
	pkg := flagComputePackage
	if pkg == "" {
		pkg = project.ComputePackage
	}
	if !computeStore.Activate(pkg) {
		return nil, core.Errorf(core.KindBadConfig, "cli.load_environment", "compute package %q is not defined in %s", pkg, computeConfigPath)
	}

	status := core.SelectStatusBackend(looperOpaqueConfig(looperCfg), newOpaqueStatusBackend, paths.ResultsSubdir)

	return &environment{project: project, router: router, bindings: bindings, computeStore: computeStore, status: status}, nil
}

// looperOpaqueConfig returns the pipestat results-file path if the looper
// config declares one, the signal SelectStatusBackend uses to prefer the
// opaque-store backend over flag files.
func looperOpaqueConfig(cfg *piyaml.LooperConfig) string {
	return cfg.Pipestat["results_file_path"]
}

// newOpaqueStatusBackend is a placeholder construction function: this
// build has no bundled pipestat client, so an opaque-store config simply
// falls through to an empty-status backend rather than failing load.
func newOpaqueStatusBackend(configFile string) core.StatusBackend {
	return &core.OpaqueStoreBackend{
		ConfigFile: configFile,
		Backend:    &unconfiguredOpaqueClient{},
	}
}

type unconfiguredOpaqueClient struct{}

func (*unconfiguredOpaqueClient) Get(recordID string) ([]string, error) { return nil, nil }
func (*unconfiguredOpaqueClient) Set(recordID, status string) error     { return nil }

// loadSampleSheet reads a comma-separated sample table: header row names
// attribute keys, one of which must be "sample_name". A "protocol" column
// is pulled out as the Sample's protocol field if present.
func loadSampleSheet(path string) ([]*core.Sample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, core.Wrap(core.KindBadConfig, "cli.load_sample_sheet", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true
	rows, err := r.ReadAll()
	if err != nil {
		return nil, core.Wrap(core.KindBadConfig, "cli.load_sample_sheet", err)
	}
	if len(rows) == 0 {
		return nil, core.Errorf(core.KindBadConfig, "cli.load_sample_sheet", "%s has no header row", path)
	}

	header := rows[0]
	nameIdx := -1
	for i, h := range header {
		if strings.TrimSpace(h) == "sample_name" {
			nameIdx = i
			break
		}
	}
	if nameIdx < 0 {
		return nil, core.Errorf(core.KindBadConfig, "cli.load_sample_sheet", "%s has no sample_name column", path)
	}

	var samples []*core.Sample
	for _, row := range rows[1:] {
		attrs := map[string]core.Value{}
		for i, h := range header {
			if i >= len(row) {
				continue
			}
			attrs[strings.TrimSpace(h)] = core.String(row[i])
		}
		name := row[nameIdx]
		protocol := ""
		if v, ok := attrs["protocol"]; ok {
			protocol, _ = v.AsString()
		}
		samples = append(samples, core.NewSample(name, protocol, attrs))
	}
	return samples, nil
}

func absOrSame(p string) string {
	abs, err := filepath.Abs(p)
	if err != nil {
		return p
	}
	return abs
}

func resolveRelative(p, baseDir string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(baseDir, p)
}

// selectionOptions builds core.SelectionOptions from the shared flags.
func selectionOptions() (core.SelectionOptions, error) {
	var opts core.SelectionOptions
	if flagLimit != "" {
		r, err := core.ParseIndexRange(flagLimit)
		if err != nil {
			return opts, err
		}
		opts.Limit = &r
	}
	if flagSkip != "" {
		r, err := core.ParseIndexRange(flagSkip)
		if err != nil {
			return opts, err
		}
		opts.Skip = &r
	}
	if flagSelAttr != "" {
		opts.Attr = &core.AttrSelector{Attr: flagSelAttr, Include: flagSelIncl, Exclude: flagSelExcl}
	}
	return opts, nil
}

// printSummary reports the final submission summary in the format
// documented for the runner loop: commands submitted, jobs submitted,
// and unique failure reasons with the samples for each.
func printSummary(s *core.Summary) {
	fmt.Printf("Commands submitted: %d\n", s.CmdsSubmitted)
	fmt.Printf("Jobs submitted: %d\n", s.JobsSubmitted)
	if s.DryRun {
		fmt.Println("(dry run: no jobs were actually submitted)")
	}
	for reason, names := range s.FailedReasons {
		fmt.Printf("  %s: %s\n", reason, strings.Join(names, ", "))
	}
}
