package core

import (
	"log"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadOutputSchema reads an eido-style output schema document and returns
// it as a generic Value tree, for PopulateSamplePaths to extract path
// templates from.
func LoadOutputSchema(path string) (Value, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Value{}, Wrap(KindBadConfig, "schema.load_output", err)
	}
	var decoded any
	if err := yaml.Unmarshal(data, &decoded); err != nil {
		return Value{}, Wrap(KindBadConfig, "schema.load_output", err)
	}
	return FromAny(decoded), nil
}

// outputSchemaProperties descends to the flat property map an output
// schema describes, accepting either the full JSON-Schema-shaped
// properties.samples.items.properties nesting or an already-flat mapping
// of property name to definition.
func outputSchemaProperties(schema Value) map[string]Value {
	if props, ok := schema.Get("properties.samples.items.properties"); ok {
		if m, ok := props.AsMapping(); ok {
			return m
		}
	}
	if m, ok := schema.AsMapping(); ok {
		return m
	}
	return nil
}

// PopulateSamplePaths fills in sample attributes whose output-schema entry
// declares a "path" template, e.g. a property named aligned_bam with
// path: "{sample_name}.bam" sets the sample's aligned_bam attribute to the
// rendered string, so command templates can reference it. A path template
// that references an attribute the sample does not have is left
// unpopulated and logged rather than aborting the submission, mirroring
// populate_sample_paths's catch-and-warn behavior for an optional derived
// path.
func PopulateSamplePaths(sample *Sample, schema Value) {
	for name, prop := range outputSchemaProperties(schema) {
		pathTmpl, ok := prop.Get("path")
		if !ok {
			continue
		}
		tmplStr, err := pathTmpl.AsString()
		if err != nil {
			continue
		}
		rendered, err := RenderStrict(tmplStr, sample.Namespace())
		if err != nil {
			log.Printf("WARN could not populate output path %q for %s: %v", name, sample.SampleName, err)
			continue
		}
		sample.Set(name, String(rendered))
	}
}
