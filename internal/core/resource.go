package core

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strconv"
	"strings"
)

// ResourcePackage is one row of a Resource Table: a file-size threshold
// plus arbitrary compute key/value pairs.
type ResourcePackage struct {
	Name        string
	MaxFileSize float64
	Vars        map[string]string
}

// ResourceTable is a parsed, validated size_dependent_variables file.
type ResourceTable struct {
	Packages []ResourcePackage
}

// LoadResourceTable reads a tab-separated resource table from path. The
// mandatory column is max_file_size (non-negative, gigabytes); all other
// columns are carried through as string vars. A stdlib csv.Reader is used
// (see DESIGN.md for why no third-party TSV/DataFrame library is pulled
// in here).
func LoadResourceTable(path string) (*ResourceTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Wrap(KindBadResourceSpec, "resource.load", err)
	}
	defer f.Close()

	r := csv.NewReader(bufio.NewReader(f))
	r.Comma = '\t'
	r.FieldsPerRecord = -1

	rows, err := r.ReadAll()
	if err != nil {
		return nil, Wrap(KindBadResourceSpec, "resource.load", err)
	}
	if len(rows) < 1 {
		return nil, Errorf(KindBadResourceSpec, "resource.load", "empty resource table: %s", path)
	}

	header := rows[0]
	col := map[string]int{}
	for i, h := range header {
		col[strings.TrimSpace(h)] = i
	}
	sizeIdx, ok := col["max_file_size"]
	if !ok {
		return nil, Errorf(KindBadResourceSpec, "resource.load", "missing max_file_size column: %s", path)
	}

	hasDefault := false
	var packages []ResourcePackage
	for i, row := range rows[1:] {
		if len(row) <= sizeIdx {
			continue
		}
		sizeStr := strings.TrimSpace(row[sizeIdx])
		size, err := strconv.ParseFloat(sizeStr, 64)
		if err != nil {
			return nil, Errorf(KindBadResourceSpec, "resource.load", "row %d: invalid max_file_size %q: %v", i, sizeStr, err)
		}
		if size < 0 {
			return nil, Errorf(KindBadResourceSpec, "resource.load", "row %d: negative max_file_size %v", i, size)
		}
		name := fmt.Sprintf("row%d", i)
		if nameIdx, ok := col["name"]; ok && nameIdx < len(row) {
			name = row[nameIdx]
		}
		vars := map[string]string{}
		for colName, idx := range col {
			if colName == "max_file_size" || colName == "name" || idx >= len(row) {
				continue
			}
			vars[colName] = row[idx]
		}
		if size == 0 {
			hasDefault = true
		}
		packages = append(packages, ResourcePackage{Name: name, MaxFileSize: size, Vars: vars})
	}
	if !hasDefault {
		return nil, Errorf(KindBadResourceSpec, "resource.load", "resource table %s has no default (size 0) row", path)
	}

	sort.SliceStable(packages, func(i, j int) bool {
		return packages[i].MaxFileSize > packages[j].MaxFileSize
	})

	return &ResourceTable{Packages: packages}, nil
}

// Pick scans the table (already sorted descending by MaxFileSize) and
// returns the package with the smallest threshold that is still >=
// inputSizeGB. Among packages sharing that threshold, the one that comes
// first in table order wins.
func (t *ResourceTable) Pick(inputSizeGB float64) (ResourcePackage, error) {
	if inputSizeGB < 0 {
		return ResourcePackage{}, Errorf(KindBadInput, "resource.pick", "negative input size: %v", inputSizeGB)
	}
	var best *ResourcePackage
	for i := range t.Packages {
		p := &t.Packages[i]
		if p.MaxFileSize >= inputSizeGB && (best == nil || p.MaxFileSize < best.MaxFileSize) {
			best = p
		}
	}
	if best == nil {
		// Table sorted descending; the smallest threshold (last entry,
		// which must be the size-0 default per LoadResourceTable) covers
		// everything non-negative, so this should be unreachable for a
		// validated table.
		return ResourcePackage{}, Errorf(KindBadResourceSpec, "resource.pick", "no package covers input size %v", inputSizeGB)
	}
	return *best, nil
}

// ResourceSelectorInput bundles the inputs to SelectResourcePackage:
// select(pi, pipeline_key, namespaces, input_size_gb).
type ResourceSelectorInput struct {
	// DynamicCommandTemplate, if non-empty, is rendered and run; its JSON
	// stdout short-circuits the static table.
	DynamicCommandTemplate string
	Namespaces             Value
	Table                  *ResourceTable
	InputSizeGB            float64
	SectionCompute         Value // section-level `compute` mapping (step 3)
	ProjectOverrides       Value // project-level looper.compute.resources (step 4)
	CLIOverrides           Value // CLI-supplied overrides (step 5, highest priority)
	RunDynamic             func(cmd string) (stdout []byte, err error)
}

// SelectResourcePackage implements the full C1 merge chain: dynamic
// command (if present) short-circuits the table; otherwise the table pick
// seeds the result; then section, project, and CLI overrides are merged
// in ascending priority order.
func SelectResourcePackage(in ResourceSelectorInput) (map[string]string, error) {
	if in.InputSizeGB < 0 {
		return nil, Errorf(KindBadInput, "resource.select", "negative input size: %v", in.InputSizeGB)
	}

	result := map[string]string{}

	if in.DynamicCommandTemplate != "" {
		rendered, err := RenderStrict(in.DynamicCommandTemplate, in.Namespaces)
		if err != nil {
			return nil, err
		}
		run := in.RunDynamic
		if run == nil {
			run = runShell
		}
		stdout, err := run(rendered)
		if err != nil {
			return nil, Errorf(KindBadResourceSpec, "resource.select", "dynamic_variables_command_template failed: %v", err)
		}
		dyn, err := parseJSONObject(stdout)
		if err != nil {
			return nil, Errorf(KindBadResourceSpec, "resource.select", "dynamic_variables_command_template stdout: %v", err)
		}
		for k, v := range dyn {
			result[k] = v
		}
	} else if in.Table != nil {
		pkg, err := in.Table.Pick(in.InputSizeGB)
		if err != nil {
			return nil, err
		}
		for k, v := range pkg.Vars {
			result[k] = v
		}
	}

	mergeStringMap(result, in.SectionCompute)
	mergeStringMap(result, in.ProjectOverrides)
	mergeStringMap(result, in.CLIOverrides)

	return result, nil
}

func mergeStringMap(dst map[string]string, src Value) {
	m, ok := src.AsMapping()
	if !ok {
		return
	}
	for k, v := range m {
		if s, err := v.AsString(); err == nil {
			dst[k] = s
		}
	}
}

func runShell(cmd string) ([]byte, error) {
	c := exec.Command("sh", "-c", cmd)
	return c.Output()
}

// parseJSONObject parses stdout as a flat JSON object of string values,
// the contract required of dynamic_variables_command_template.
func parseJSONObject(stdout []byte) (map[string]string, error) {
	var raw map[string]any
	if err := json.Unmarshal(stdout, &raw); err != nil {
		return nil, fmt.Errorf("not a JSON object: %w", err)
	}
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		out[k] = fmt.Sprintf("%v", v)
	}
	return out, nil
}
