package core

import (
	"log"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// ComputePackage is a named record: a submission template path, a
// submission command, and arbitrary extra key/value pairs.
type ComputePackage struct {
	Name               string
	SubmissionTemplate string
	SubmissionCommand  string
	Vars               map[string]string
}

// ComputeStore holds named compute packages, the currently active one,
// and the adapters mapping.
type ComputeStore struct {
	ConfigDir string // directory the compute config file lives in, for relative template paths
	Packages  map[string]ComputePackage
	Adapters  map[string]string // renamed-key -> "namespace.path"
	active    string
}

// Activate selects the named package as current. Returns false if the
// name is unknown. The submission template path is resolved relative to
// ConfigDir if not already absolute.
func (s *ComputeStore) Activate(name string) bool {
	pkg, ok := s.Packages[name]
	if !ok {
		return false
	}
	if !filepath.IsAbs(pkg.SubmissionTemplate) && s.ConfigDir != "" {
		pkg.SubmissionTemplate = filepath.Join(s.ConfigDir, pkg.SubmissionTemplate)
		s.Packages[name] = pkg
	}
	s.active = name
	return true
}

// Active returns the currently active package.
func (s *ComputeStore) Active() (ComputePackage, bool) {
	pkg, ok := s.Packages[s.active]
	return pkg, ok
}

var leftoverTokenRe = regexp.MustCompile(`!\$\{[A-Za-z0-9_]+\}`)

// WriteScript renders the active package's submission template by
// substituting {UPPERCASE_KEY} tokens with values drawn from a chain of
// mappings (later entries override earlier ones). Adapters, if any, are
// applied first and consume their matching namespace out of extraVars
// before the remaining extraVars are merged in directly. The rendered
// content is written to outputPath (parent dirs
// created, mode 0644); when outputPath is empty the content is returned
// unwritten.
func (s *ComputeStore) WriteScript(outputPath string, extraVars ...Value) (string, error) {
	pkg, ok := s.Active()
	if !ok {
		return "", Errorf(KindBadConfig, "compute.write_script", "no active compute package")
	}

	tokens := map[string]string{}
	for k, v := range pkg.Vars {
		tokens[strings.ToUpper(k)] = v
	}

	for _, extra := range extraVars {
		m, ok := extra.AsMapping()
		if !ok {
			continue
		}
		remaining := map[string]Value{}
		for k, v := range m {
			remaining[k] = v
		}
		for adaptedKey, srcPath := range s.Adapters {
			if val, ok := Mapping(remaining).Get(srcPath); ok {
				if s2, err := val.AsString(); err == nil {
					tokens[strings.ToUpper(adaptedKey)] = s2
				}
				// consume the top-level namespace the adapter path came from
				topNS := strings.SplitN(srcPath, ".", 2)[0]
				delete(remaining, topNS)
			}
		}
		for k, v := range remaining {
			if s2, err := v.AsString(); err == nil {
				tokens[strings.ToUpper(k)] = s2
			} else if nested, ok := v.AsMapping(); ok {
				flattenTokens(tokens, k, nested)
			}
		}
	}

	content, err := os.ReadFile(pkg.SubmissionTemplate)
	if err != nil {
		return "", Wrap(KindBadConfig, "compute.write_script", err)
	}
	rendered := substituteTokens(string(content), tokens)

	if leftoverTokenRe.MatchString(rendered) {
		for _, m := range leftoverTokenRe.FindAllString(rendered, -1) {
			log.Printf("WARN unreplaced submission-template token: %s", m)
		}
	}

	if outputPath == "" {
		return rendered, nil
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return "", Wrap(KindBadConfig, "compute.write_script", err)
	}
	if err := os.WriteFile(outputPath, []byte(rendered), 0o644); err != nil {
		return "", Wrap(KindBadConfig, "compute.write_script", err)
	}
	return outputPath, nil
}

func flattenTokens(tokens map[string]string, prefix string, m map[string]Value) {
	for k, v := range m {
		key := prefix + "_" + k
		if s, err := v.AsString(); err == nil {
			tokens[strings.ToUpper(key)] = s
		} else if nested, ok := v.AsMapping(); ok {
			flattenTokens(tokens, key, nested)
		}
	}
}

var tokenRe = regexp.MustCompile(`\{([A-Z0-9_]+)\}`)

// substituteTokens replaces every {UPPERCASE_KEY} occurrence in content
// with its value from tokens; unmatched tokens are left as-is (the
// !${NAME} leftover-warning form is checked separately by the caller).
func substituteTokens(content string, tokens map[string]string) string {
	return tokenRe.ReplaceAllStringFunc(content, func(m string) string {
		key := m[1 : len(m)-1]
		if v, ok := tokens[key]; ok {
			return v
		}
		return m
	})
}
