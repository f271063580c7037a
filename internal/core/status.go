package core

import (
	"os"
	"path/filepath"
	"strings"
)

// Status tokens recognized by the conductor's decision logic. Additional
// tokens may appear in flag files or an opaque store but are not
// interpreted by the core.
const (
	StatusCompleted = "completed"
	StatusRunning   = "running"
	StatusFailed    = "failed"
	StatusWaiting   = "waiting"
	StatusPartial   = "partial"
)

// StatusBackend is a status interface with two methods and two
// implementations, held by the conductor as an interface reference. The
// conductor checks for *OpaqueStoreBackend only to decide whether a rerun
// moves a failed sample to waiting.
type StatusBackend interface {
	// GetStatus returns the set of status tokens recorded for
	// (sample, pipeline), or nil if none.
	GetStatus(sampleName, pipeline string) ([]string, error)
	// SetStatus records a status for (sample, pipeline). FlagFileBackend
	// does not support writes and returns an error if called.
	SetStatus(sampleName, pipeline, status string) error
}

// FlagFileBackend scans a results directory for files named
// "<pipeline>_*.flag" whose contents mention the sample name, per
// original_source/looper/utils.py's fetch_sample_flags/get_sample_status.
type FlagFileBackend struct {
	Dir string
}

func (b *FlagFileBackend) GetStatus(sampleName, pipeline string) ([]string, error) {
	entries, err := os.ReadDir(b.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, Wrap(KindBadConfig, "status.flagfile.get", err)
	}

	prefix := pipeline + "_"
	var statuses []string
	for _, e := range entries {
		name := e.Name()
		if !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, ".flag") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(b.Dir, name))
		if err != nil {
			continue
		}
		if !strings.Contains(string(data), sampleName) {
			continue
		}
		status := strings.TrimSuffix(strings.TrimPrefix(name, prefix), ".flag")
		statuses = append(statuses, status)
	}
	return statuses, nil
}

func (b *FlagFileBackend) SetStatus(sampleName, pipeline, status string) error {
	return Errorf(KindBadConfig, "status.flagfile.set", "flag-file backend does not support set_status; flags are written by the pipeline itself")
}

// OpaqueStoreBackend is a thin pass-through to an external status manager
// (e.g. pipestat) identified by a config file written at startup.
// RecordIdentifier maps a (sample, pipeline) pair to the external
// store's record id.
type OpaqueStoreBackend struct {
	ConfigFile       string
	RecordIdentifier func(sampleName, pipeline string) string
	// Backend is the actual client; abstracted here because the external
	// store (pipestat) is an out-of-scope collaborator — only
	// its status query/set interface is consumed.
	Backend interface {
		Get(recordID string) ([]string, error)
		Set(recordID, status string) error
	}
}

func (b *OpaqueStoreBackend) recordID(sampleName, pipeline string) string {
	if b.RecordIdentifier != nil {
		return b.RecordIdentifier(sampleName, pipeline)
	}
	return sampleName + ":" + pipeline
}

func (b *OpaqueStoreBackend) GetStatus(sampleName, pipeline string) ([]string, error) {
	return b.Backend.Get(b.recordID(sampleName, pipeline))
}

func (b *OpaqueStoreBackend) SetStatus(sampleName, pipeline, status string) error {
	return b.Backend.Set(b.recordID(sampleName, pipeline), status)
}

// SelectStatusBackend picks a backend: opaque-store is active if its
// config is present, otherwise flag-file.
func SelectStatusBackend(opaqueConfigFile string, newOpaque func(configFile string) StatusBackend, flagDir string) StatusBackend {
	if opaqueConfigFile != "" && newOpaque != nil {
		return newOpaque(opaqueConfigFile)
	}
	return &FlagFileBackend{Dir: flagDir}
}

// HasStatus reports whether statuses contains tok.
func HasStatus(statuses []string, tok string) bool {
	for _, s := range statuses {
		if s == tok {
			return true
		}
	}
	return false
}
