package core

import (
	"encoding/json"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"time"
)

// InputSchema is a minimal stand-in for a pipeline's input-schema
// contract: the set of sample attribute keys that must resolve to an
// existing file. Full JSON-Schema validation is left to the pipeline
// itself; this only needs the "which files are required, do they
// exist" check that feeds add_sample's "Missing files" skip reason.
type InputSchema struct {
	Required []string `json:"required"`
}

// LoadInputSchema reads a minimal {"required": [...]}=style schema file.
func LoadInputSchema(path string) (*InputSchema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, Wrap(KindBadConfig, "schema.load", err)
	}
	var s InputSchema
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, Wrap(KindBadConfig, "schema.load", err)
	}
	return &s, nil
}

// MissingFiles returns the subset of schema.Required whose corresponding
// sample attribute is absent or does not point at an existing file.
func MissingFiles(schema *InputSchema, sample *Sample) []string {
	if schema == nil {
		return nil
	}
	var missing []string
	for _, key := range schema.Required {
		v, ok := sample.Get(key)
		if !ok {
			missing = append(missing, key)
			continue
		}
		path, err := v.AsString()
		if err != nil || path == "" {
			missing = append(missing, key)
			continue
		}
		if _, err := os.Stat(path); err != nil {
			missing = append(missing, key)
		}
	}
	return missing
}

// ConductorConfig is the set of construction parameters:
// M (max commands per job), S (max input size per job, GB), J (max jobs —
// derives M), ignore-flags, compute overrides, CLI extras, and dry-run.
type ConductorConfig struct {
	PI               *PipelineInterface
	Project          *Project
	Collate          bool
	NumSamples       int
	M                int     // 0 means unset
	S                float64 // negative means unset
	J                int     // 0 means unset
	IgnoreFlags      bool
	CLIComputeExtras Value
	CLIExtraArgs     string
	DryRun           bool
	Delay            time.Duration
	Status           StatusBackend
	ComputeStore     *ComputeStore
	InputSchema      *InputSchema
	OutputSchema     Value
	FileChecks       bool
	// Automatic controls whether add_sample auto-submits a full pool;
	// the runner loop's final drain always forces regardless.
	Automatic bool
}

// Conductor is the per-pipeline submission state machine (C6).
type Conductor struct {
	pi               *PipelineInterface
	project          *Project
	collate          bool
	m                int
	s                float64
	ignoreFlags      bool
	cliComputeExtras Value
	cliExtraArgs     string
	dryRun           bool
	delay            time.Duration
	status           StatusBackend
	computeStore     *ComputeStore
	inputSchema      *InputSchema
	outputSchema     Value
	fileChecks       bool
	automatic        bool

	pool                []*Sample
	poolSize            float64
	skipPool            []*Sample
	skipPoolSize        float64
	numGoodSubmissions  int
	numTotalSubmissions int
	numCmdsSubmitted    int
	failedSampleNames   []string

	teardown *processTeardown
}

// NewConductor validates and derives M/S and returns a
// ready Conductor.
func NewConductor(cfg ConductorConfig) (*Conductor, error) {
	m := cfg.M
	s := cfg.S
	if cfg.J > 0 {
		m = int(math.Ceil(float64(cfg.NumSamples) / float64(cfg.J)))
	}
	if m == 0 && s <= 0 {
		m = 1
	}
	if m < 0 {
		return nil, Errorf(KindBadInput, "conductor.new", "M must be >= 1, got %d", m)
	}
	if s < 0 {
		s = math.MaxFloat64 // unset S means no size cap
	}

	return &Conductor{
		pi:               cfg.PI,
		project:          cfg.Project,
		collate:          cfg.Collate,
		m:                m,
		s:                s,
		ignoreFlags:      cfg.IgnoreFlags,
		cliComputeExtras: cfg.CLIComputeExtras,
		cliExtraArgs:     cfg.CLIExtraArgs,
		dryRun:           cfg.DryRun,
		delay:            cfg.Delay,
		status:           cfg.Status,
		computeStore:     cfg.ComputeStore,
		inputSchema:      cfg.InputSchema,
		outputSchema:     cfg.OutputSchema,
		fileChecks:       cfg.FileChecks,
		automatic:        cfg.Automatic,
	}, nil
}

// isFull reports is_full(pool, size) := len(pool)==M || size>=S.
func (c *Conductor) isFull(poolLen int, size float64) bool {
	return poolLen == c.m || size >= c.s
}

func (c *Conductor) section() *PISection {
	if c.collate {
		return c.pi.Project
	}
	return c.pi.Sample
}

// sampleInputSize reads a sample's declared input size in gigabytes from
// its input_file_size attribute, defaulting to 0.
func sampleInputSize(s *Sample) float64 {
	v, ok := s.Get("input_file_size")
	if !ok {
		return 0
	}
	str, err := v.AsString()
	if err != nil {
		return 0
	}
	var f float64
	fmt.Sscanf(str, "%g", &f)
	return f
}

// AddSample implements the add_sample operation, including the
// decision matrix of statuses/rerun/ignore-flags.
func (c *Conductor) AddSample(sample *Sample, rerun bool) ([]string, error) {
	var skipReasons []string

	statuses, err := c.status.GetStatus(sample.SampleName, c.pi.PipelineName)
	if err != nil {
		return nil, Wrap(KindBadConfig, "conductor.add_sample", err)
	}

	use, warn := decideUse(rerun, statuses, c.ignoreFlags)
	if warn != "" {
		log.Printf("WARN %s", warn)
	}
	if !use {
		reason := "status: " + fmt.Sprint(statuses)
		if len(statuses) == 0 {
			reason = "no prior run to rerun"
		}
		skipReasons = append(skipReasons, reason)
	} else if rerun && HasStatus(statuses, StatusFailed) {
		if _, isOpaque := c.status.(*OpaqueStoreBackend); isOpaque {
			if err := c.status.SetStatus(sample.SampleName, c.pi.PipelineName, StatusWaiting); err != nil {
				log.Printf("WARN could not transition status to waiting: %v", err)
			}
		}
	}

	if use && c.fileChecks && c.inputSchema != nil {
		if missing := MissingFiles(c.inputSchema, sample); len(missing) > 0 {
			skipReasons = append(skipReasons, "Missing files")
		}
	}

	if use && len(skipReasons) == 0 {
		c.pool = append(c.pool, sample)
		c.poolSize += sampleInputSize(sample)
		if c.automatic && c.isFull(len(c.pool), c.poolSize) {
			if _, err := c.Submit(false); err != nil {
				return skipReasons, err
			}
		}
		return skipReasons, nil
	}

	c.skipPool = append(c.skipPool, sample)
	c.skipPoolSize += sampleInputSize(sample)
	if _, err := c.writeScript(c.skipPool, c.skipPoolSize, true); err != nil {
		log.Printf("WARN could not write skip-pool script: %v", err)
	}
	c.skipPool = nil
	c.skipPoolSize = 0

	return skipReasons, nil
}

// decideUse implements the use-or-skip decision matrix for add_sample.
func decideUse(rerun bool, statuses []string, ignoreFlags bool) (use bool, warn string) {
	if !rerun {
		if len(statuses) == 0 {
			return true, ""
		}
		if ignoreFlags {
			return true, fmt.Sprintf("ignoring existing status %v for sample submission", statuses)
		}
		return false, ""
	}
	if len(statuses) == 0 {
		return false, ""
	}
	if HasStatus(statuses, StatusFailed) || HasStatus(statuses, StatusWaiting) {
		return true, ""
	}
	return false, ""
}

// Submit implements the submit operation.
func (c *Conductor) Submit(force bool) (bool, error) {
	if len(c.pool) == 0 {
		return false, nil
	}
	if !(c.collate || force || c.isFull(len(c.pool), c.poolSize)) {
		return false, nil
	}

	scriptPath, err := c.writeScript(c.pool, c.poolSize, false)
	if err != nil {
		return false, err
	}

	if c.dryRun {
		log.Printf("dry run: would submit %s", scriptPath)
		c.resetPool()
		return true, nil
	}

	pkg, ok := c.computeStore.Active()
	if !ok {
		return false, Errorf(KindBadConfig, "conductor.submit", "no active compute package")
	}

	c.teardown = newProcessTeardown()
	defer c.teardown.stop()

	exitCode, err := c.teardown.run(pkg.SubmissionCommand, scriptPath)
	if err != nil {
		c.failedSampleNames = append(c.failedSampleNames, sampleNames(c.pool)...)
		c.resetPool()
		if KindOf(err) != KindUnknown {
			return false, err
		}
		return false, Errorf(KindJobSubmissionFailed, "conductor.submit", "submission command could not run: %v", err)
	}
	if exitCode != 0 {
		c.failedSampleNames = append(c.failedSampleNames, sampleNames(c.pool)...)
		c.resetPool()
		return false, Errorf(KindJobSubmissionFailed, "conductor.submit", "submission command exited %d", exitCode)
	}

	if c.delay > 0 {
		time.Sleep(c.delay)
	}

	c.numGoodSubmissions++
	c.resetPool()
	return true, nil
}

func (c *Conductor) resetPool() {
	c.numTotalSubmissions++
	c.pool = nil
	c.poolSize = 0
}

func sampleNames(samples []*Sample) []string {
	out := make([]string, len(samples))
	for i, s := range samples {
		out[i] = s.SampleName
	}
	return out
}

// lumpName implements the job-name rule: "<pipeline_name>_<lump>"
// where <lump> is the single sample's name (M==1), the project name
// (collate), or "lump<n>".
func (c *Conductor) lumpName(samples []*Sample) string {
	switch {
	case c.collate:
		return c.pi.PipelineName + "_" + c.project.Name
	case c.m == 1 && len(samples) == 1:
		return c.pi.PipelineName + "_" + samples[0].SampleName
	default:
		return fmt.Sprintf("%s_lump%d", c.pi.PipelineName, c.numTotalSubmissions+1)
	}
}

// buildLooperNamespace assembles the `looper` namespace available to
// command templates, populated before rendering.
func (c *Conductor) buildLooperNamespace(jobName string, totalInputSize float64) Value {
	subDir := c.project.Paths.SubmissionSubdir
	logFile := filepath.Join(c.project.Paths.ResultsSubdir, jobName+".log")
	return Mapping(map[string]Value{
		"config_file":           String(c.project.ConfigFile),
		"pep_config":            String(c.project.PepConfig),
		"results_subdir":        String(c.project.Paths.ResultsSubdir),
		"submission_subdir":     String(subDir),
		"output_dir":            String(c.project.Paths.OutputDir),
		"sample_output_folder":  String(filepath.Join(c.project.Paths.ResultsSubdir, jobName)),
		"job_name":              String(jobName),
		"total_input_size":      Number(totalInputSize),
		"log_file":              String(logFile),
		"piface_dir":            String(filepath.Dir(c.pi.SourcePath)),
	})
}

// writeScript implements the write_script operation. isSkip
// controls whether rendered commands count toward numCmdsSubmitted: the
// skip pool's script is written for audit purposes only, never
// dispatched, and never bumps submission counters.
func (c *Conductor) writeScript(pool []*Sample, totalSize float64, isSkip bool) (string, error) {
	section := c.section()
	if section == nil {
		return "", Errorf(KindBadConfig, "conductor.write_script", "pipeline %s has no section for collate=%v", c.pi.PipelineName, c.collate)
	}

	jobName := c.lumpName(pool)
	looperNS := c.buildLooperNamespace(jobName, totalSize)

	// collate runs build one shared namespace with a `samples` list and no
	// per-sample iteration over the command template; sample-level runs
	// render once per pool member with a singular `sample` namespace.
	iterations := pool
	if c.collate {
		iterations = []*Sample{nil}
	}

	var commands []string
	for _, sample := range iterations {
		if !c.collate && !c.outputSchema.IsNone() {
			PopulateSamplePaths(sample, c.outputSchema)
		}

		ns := Mapping(map[string]Value{
			"project":  c.project.Namespace(),
			"looper":   looperNS,
			"pipeline": Mapping(map[string]Value{"name": String(c.pi.PipelineName)}),
			"pipestat": Mapping(nil),
			"compute":  c.cliComputeExtras,
		})
		if c.collate {
			sampleNSList := make([]Value, len(pool))
			for i, s := range pool {
				sampleNSList[i] = s.Namespace()
			}
			ns.Set("samples", List(sampleNSList...))
		} else {
			ns.Set("sample", sample.Namespace())
		}

		size := totalSize
		if !c.collate {
			size = sampleInputSize(sample)
		}
		resourceVars, err := section.ChooseResourcePackage(ns, size, c.project.ComputeOverrides, c.cliComputeExtras)
		if err != nil {
			return "", err
		}
		computeVars := map[string]Value{}
		for k, v := range resourceVars {
			computeVars[k] = String(v)
		}
		ns.Set("compute", Mapping(computeVars))

		rendered, err := c.pi.RenderVarTemplates(ns)
		if err != nil {
			return "", err
		}
		ns.Set("pipeline.var_templates", rendered)

		merged, err := section.RunPreSubmitHooks(ns)
		if err != nil {
			return "", err
		}
		ns = merged

		label := jobName
		if sample != nil {
			label = sample.SampleName
		}
		cmdLine, err := RenderStrict(section.CommandTemplate, ns)
		if err != nil {
			if KindOf(err) == KindTemplateUndefined {
				log.Printf("WARN > Not submitted: %s: %v", label, err)
				continue
			}
			return "", err
		}
		if !section.OverrideExtra && c.cliExtraArgs != "" {
			cmdLine = cmdLine + " " + c.cliExtraArgs
		}
		commands = append(commands, cmdLine)
		if !isSkip {
			c.numCmdsSubmitted++
		}
	}

	looperNS.Set("command", String(joinLines(commands)))

	subPath := filepath.Join(c.project.Paths.SubmissionSubdir, jobName+".sub")
	return c.computeStore.WriteScript(subPath, Mapping(map[string]Value{"looper": looperNS}))
}

func joinLines(lines []string) string {
	out := ""
	for i, l := range lines {
		if i > 0 {
			out += "\n"
		}
		out += l
	}
	return out
}

// FailedSampleNames returns the accumulated failed sample names.
func (c *Conductor) FailedSampleNames() []string { return c.failedSampleNames }

// NumCmdsSubmitted returns the running count of rendered commands.
func (c *Conductor) NumCmdsSubmitted() int { return c.numCmdsSubmitted }

// NumGoodSubmissions returns the count of successful pool submissions.
func (c *Conductor) NumGoodSubmissions() int { return c.numGoodSubmissions }

// PoolEmpty reports whether the main pool is currently empty (testable
// property 1 after a forced drain).
func (c *Conductor) PoolEmpty() bool { return len(c.pool) == 0 && c.poolSize == 0 }
