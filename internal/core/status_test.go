package core

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFlagFileBackendGetStatus(t *testing.T) {
	dir := t.TempDir()
	write := func(name, contents string) {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(contents), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	write("pipelineA_completed.flag", "sample_a\n")
	write("pipelineA_failed.flag", "sample_b\n")
	write("pipelineB_completed.flag", "sample_a\n")
	write("not_a_flag.txt", "sample_a\n")

	b := &FlagFileBackend{Dir: dir}

	statuses, err := b.GetStatus("sample_a", "pipelineA")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(statuses) != 1 || statuses[0] != "completed" {
		t.Fatalf("got %v, want [completed]", statuses)
	}

	statuses, err = b.GetStatus("sample_b", "pipelineA")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(statuses) != 1 || statuses[0] != "failed" {
		t.Fatalf("got %v, want [failed]", statuses)
	}

	statuses, err = b.GetStatus("sample_c", "pipelineA")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(statuses) != 0 {
		t.Fatalf("got %v, want none for an unrecorded sample", statuses)
	}
}

func TestFlagFileBackendGetStatusMissingDirIsNotAnError(t *testing.T) {
	b := &FlagFileBackend{Dir: "/nonexistent/does/not/exist"}
	statuses, err := b.GetStatus("sample_a", "pipelineA")
	if err != nil {
		t.Fatalf("unexpected error for a missing results dir: %v", err)
	}
	if statuses != nil {
		t.Fatalf("got %v, want nil", statuses)
	}
}

func TestFlagFileBackendSetStatusUnsupported(t *testing.T) {
	b := &FlagFileBackend{Dir: t.TempDir()}
	if err := b.SetStatus("sample_a", "pipelineA", StatusRunning); err == nil {
		t.Fatalf("expected an error: flag-file backend cannot write status")
	}
}

type stubOpaqueClient struct {
	gotten []string
}

func (s *stubOpaqueClient) Get(recordID string) ([]string, error) {
	s.gotten = append(s.gotten, recordID)
	return []string{StatusRunning}, nil
}

func (s *stubOpaqueClient) Set(recordID, status string) error { return nil }

func TestSelectStatusBackendPrefersOpaqueWhenConfigPresent(t *testing.T) {
	client := &stubOpaqueClient{}
	newOpaque := func(configFile string) StatusBackend {
		return &OpaqueStoreBackend{ConfigFile: configFile, Backend: client}
	}

	backend := SelectStatusBackend("/path/to/pipestat.yaml", newOpaque, "/results")
	if _, ok := backend.(*OpaqueStoreBackend); !ok {
		t.Fatalf("expected OpaqueStoreBackend when a config file is present")
	}

	statuses, err := backend.GetStatus("sample_a", "pipelineA")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(statuses) != 1 || statuses[0] != StatusRunning {
		t.Fatalf("got %v", statuses)
	}
	if len(client.gotten) != 1 || client.gotten[0] != "sample_a:pipelineA" {
		t.Fatalf("expected default record id sample_a:pipelineA, got %v", client.gotten)
	}
}

func TestSelectStatusBackendFallsBackToFlagFileWithoutConfig(t *testing.T) {
	newOpaque := func(configFile string) StatusBackend {
		t.Fatalf("newOpaque should not be called when no config file is present")
		return nil
	}
	backend := SelectStatusBackend("", newOpaque, "/results")
	if _, ok := backend.(*FlagFileBackend); !ok {
		t.Fatalf("expected FlagFileBackend when no opaque config file is present")
	}
}
