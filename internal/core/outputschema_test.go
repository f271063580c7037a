package core

import "testing"

func TestPopulateSamplePathsFlatSchema(t *testing.T) {
	schema := Mapping(map[string]Value{
		"aligned_bam": Mapping(map[string]Value{
			"path": String("{sample_name}.bam"),
			"type": String("string"),
		}),
	})
	sample := NewSample("s1", "", nil)

	PopulateSamplePaths(sample, schema)

	got, ok := sample.Get("aligned_bam")
	if !ok {
		t.Fatalf("expected aligned_bam to be populated")
	}
	if s, _ := got.AsString(); s != "s1.bam" {
		t.Fatalf("aligned_bam = %q, want %q", s, "s1.bam")
	}
}

func TestPopulateSamplePathsNestedEidoSchema(t *testing.T) {
	schema := Mapping(map[string]Value{
		"properties": Mapping(map[string]Value{
			"samples": Mapping(map[string]Value{
				"items": Mapping(map[string]Value{
					"properties": Mapping(map[string]Value{
						"qc_report": Mapping(map[string]Value{
							"path": String("{sample_name}_qc.html"),
						}),
					}),
				}),
			}),
		}),
	})
	sample := NewSample("s2", "", nil)

	PopulateSamplePaths(sample, schema)

	got, ok := sample.Get("qc_report")
	if !ok {
		t.Fatalf("expected qc_report to be populated")
	}
	if s, _ := got.AsString(); s != "s2_qc.html" {
		t.Fatalf("qc_report = %q, want %q", s, "s2_qc.html")
	}
}

func TestPopulateSamplePathsUndefinedVarLeftUnpopulated(t *testing.T) {
	schema := Mapping(map[string]Value{
		"derived": Mapping(map[string]Value{
			"path": String("{missing_attr}.txt"),
		}),
	})
	sample := NewSample("s3", "", nil)

	PopulateSamplePaths(sample, schema)

	if _, ok := sample.Get("derived"); ok {
		t.Fatalf("expected derived to remain unpopulated when its path template references a missing attribute")
	}
}
