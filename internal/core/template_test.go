package core

import "testing"

func TestRenderStrict(t *testing.T) {
	cases := []struct {
		name    string
		tmpl    string
		ns      Value
		want    string
		wantErr bool
	}{
		{
			name: "no placeholders passes through",
			tmpl: "P --name static",
			ns:   Mapping(nil),
			want: "P --name static",
		},
		{
			name: "single dotted placeholder",
			tmpl: "P --name {sample.sample_name}",
			ns: Mapping(map[string]Value{
				"sample": Mapping(map[string]Value{"sample_name": String("a")}),
			}),
			want: "P --name a",
		},
		{
			name: "list value space-joined",
			tmpl: "run {sample.tags}",
			ns: Mapping(map[string]Value{
				"sample": Mapping(map[string]Value{"tags": List(String("x"), String("y"))}),
			}),
			want: "run x y",
		},
		{
			name:    "undefined variable is fatal",
			tmpl:    "P --name {sample.nonexistent}",
			ns:      Mapping(map[string]Value{"sample": Mapping(map[string]Value{"sample_name": String("a")})}),
			wantErr: true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := RenderStrict(tc.tmpl, tc.ns)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got nil")
				}
				if KindOf(err) != KindTemplateUndefined {
					t.Fatalf("expected KindTemplateUndefined, got %v", KindOf(err))
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestRenderVarTemplates(t *testing.T) {
	ns := Mapping(map[string]Value{
		"project": Mapping(map[string]Value{"name": String("proj1")}),
	})
	templates := Mapping(map[string]Value{
		"outdir": String("/data/{project.name}/out"),
		"nested": Mapping(map[string]Value{
			"log": String("{project.name}.log"),
		}),
	})

	rendered, err := RenderVarTemplates(templates, ns)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	m, _ := rendered.AsMapping()
	outdir, _ := m["outdir"].AsString()
	if outdir != "/data/proj1/out" {
		t.Fatalf("got %q", outdir)
	}
	nested, _ := m["nested"].AsMapping()
	log, _ := nested["log"].AsString()
	if log != "proj1.log" {
		t.Fatalf("got %q", log)
	}
}
