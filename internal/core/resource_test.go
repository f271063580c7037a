package core

import "testing"

func buildTable(t *testing.T, rows []ResourcePackage) *ResourceTable {
	t.Helper()
	return &ResourceTable{Packages: rows}
}

func TestResourceTablePick(t *testing.T) {
	table := buildTable(t, []ResourcePackage{
		{Name: "huge", MaxFileSize: 30, Vars: map[string]string{"cores": "16"}},
		{Name: "big", MaxFileSize: 10, Vars: map[string]string{"cores": "8"}},
		{Name: "default", MaxFileSize: 0, Vars: map[string]string{"cores": "1"}},
	})

	cases := []struct {
		name     string
		size     float64
		wantName string
		wantErr  bool
	}{
		{name: "S5 input 12 selects huge", size: 12, wantName: "huge"},
		{name: "S5 input 9 selects big", size: 9, wantName: "big"},
		{name: "S5 input 0 selects default", size: 0, wantName: "default"},
		{name: "negative size is an error", size: -1, wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			pkg, err := table.Pick(tc.size)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if pkg.Name != tc.wantName {
				t.Fatalf("got %q, want %q", pkg.Name, tc.wantName)
			}
		})
	}
}

func TestResourceTableTieBreaksByTableOrder(t *testing.T) {
	table := buildTable(t, []ResourcePackage{
		{Name: "first", MaxFileSize: 10},
		{Name: "second", MaxFileSize: 10},
		{Name: "default", MaxFileSize: 0},
	})
	pkg, err := table.Pick(5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pkg.Name != "first" {
		t.Fatalf("got %q, want first (table order wins ties)", pkg.Name)
	}
}

func TestSelectResourcePackageMergeChain(t *testing.T) {
	table := buildTable(t, []ResourcePackage{
		{Name: "default", MaxFileSize: 0, Vars: map[string]string{"cores": "1", "mem": "4G"}},
	})

	got, err := SelectResourcePackage(ResourceSelectorInput{
		Table:            table,
		InputSizeGB:      0,
		SectionCompute:   Mapping(map[string]Value{"mem": String("8G")}),
		ProjectOverrides: Mapping(map[string]Value{"time": String("01:00:00")}),
		CLIOverrides:     Mapping(map[string]Value{"cores": String("16")}),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got["cores"] != "16" {
		t.Fatalf("CLI override should win: got %q", got["cores"])
	}
	if got["mem"] != "8G" {
		t.Fatalf("section compute should override table default: got %q", got["mem"])
	}
	if got["time"] != "01:00:00" {
		t.Fatalf("project override should be present: got %q", got["time"])
	}
}

func TestSelectResourcePackageDynamicShortCircuit(t *testing.T) {
	called := false
	got, err := SelectResourcePackage(ResourceSelectorInput{
		DynamicCommandTemplate: "whatever",
		Table:                  buildTable(t, []ResourcePackage{{Name: "default", MaxFileSize: 0}}),
		RunDynamic: func(cmd string) ([]byte, error) {
			called = true
			return []byte(`{"cores": "32"}`), nil
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Fatalf("expected dynamic command to run")
	}
	if got["cores"] != "32" {
		t.Fatalf("got %v", got)
	}
}
