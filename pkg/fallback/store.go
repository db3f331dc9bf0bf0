// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package fallback

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// listSeparator joins list-valued fields inside a rule file. Chosen
// because it cannot appear in extracted keywords and is unlikely in
// response text.
const listSeparator = "|||"

// ruleExt is the file extension for persisted rules.
const ruleExt = ".rule"

// Store persists rules as flat key=value files, one rule per file,
// under a single directory. Unreadable or corrupt files are skipped on
// load rather than failing the whole engine.
type Store struct {
	dir    string
	logger *zap.Logger
}

// DefaultRulesDir returns <home>/.amcp/fallback-rules.
func DefaultRulesDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, ".amcp", "fallback-rules"), nil
}

// NewStore creates the rules directory if needed and returns a store
// over it.
func NewStore(dir string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating rules directory %s: %w", dir, err)
	}
	return &Store{dir: dir, logger: logger}, nil
}

// Dir returns the directory backing the store.
func (s *Store) Dir() string { return s.dir }

// Load reads every .rule file in the directory. Corrupt files are
// logged and skipped.
func (s *Store) Load() ([]*Rule, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("reading rules directory %s: %w", s.dir, err)
	}

	var rules []*Rule
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ruleExt) {
			continue
		}
		path := filepath.Join(s.dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			s.logger.Warn("skipping unreadable rule file",
				zap.String("path", path),
				zap.Error(err))
			continue
		}
		rule, err := decodeRule(string(data))
		if err != nil {
			s.logger.Warn("skipping corrupt rule file",
				zap.String("path", path),
				zap.Error(err))
			continue
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

// Save writes the rule to <dir>/<id>.rule, replacing any previous
// version atomically via a temp file rename.
func (s *Store) Save(r *Rule) error {
	final := filepath.Join(s.dir, r.ID+ruleExt)
	tmp := final + ".tmp"
	if err := os.WriteFile(tmp, []byte(encodeRule(r)), 0o644); err != nil {
		return fmt.Errorf("writing rule %s: %w", r.ID, err)
	}
	if err := os.Rename(tmp, final); err != nil {
		return fmt.Errorf("committing rule %s: %w", r.ID, err)
	}
	return nil
}

// Delete removes the rule file. Missing files are not an error.
func (s *Store) Delete(id string) error {
	err := os.Remove(filepath.Join(s.dir, id+ruleExt))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("deleting rule %s: %w", id, err)
	}
	return nil
}

func encodeRule(r *Rule) string {
	var b strings.Builder
	writeField := func(key, value string) {
		b.WriteString(key)
		b.WriteByte('=')
		b.WriteString(escapeValue(value))
		b.WriteByte('\n')
	}
	writeField("id", r.ID)
	writeField("category", r.Category)
	writeField("keywords", strings.Join(r.Keywords, listSeparator))
	writeField("patterns", strings.Join(r.Patterns, listSeparator))
	writeField("responses", strings.Join(r.ResponseTemplates, listSeparator))
	writeField("confidence", strconv.FormatFloat(r.Confidence, 'f', -1, 64))
	writeField("created", r.CreatedAt.UTC().Format(time.RFC3339))
	writeField("usage", strconv.Itoa(r.UsageCount))
	return b.String()
}

func decodeRule(data string) (*Rule, error) {
	r := &Rule{}
	for _, line := range strings.Split(data, "\n") {
		if line == "" {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("malformed line %q", line)
		}
		value = unescapeValue(value)
		switch key {
		case "id":
			r.ID = value
		case "category":
			r.Category = value
		case "keywords":
			r.Keywords = splitList(value)
		case "patterns":
			r.Patterns = splitList(value)
		case "responses":
			r.ResponseTemplates = splitList(value)
		case "confidence":
			conf, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return nil, fmt.Errorf("bad confidence %q: %w", value, err)
			}
			r.Confidence = conf
		case "created":
			created, err := time.Parse(time.RFC3339, value)
			if err != nil {
				return nil, fmt.Errorf("bad created timestamp %q: %w", value, err)
			}
			r.CreatedAt = created
		case "usage":
			usage, err := strconv.Atoi(value)
			if err != nil {
				return nil, fmt.Errorf("bad usage count %q: %w", value, err)
			}
			r.UsageCount = usage
		default:
			// Unknown keys are tolerated so older binaries can read
			// files written by newer ones.
		}
	}
	if r.ID == "" {
		return nil, fmt.Errorf("rule file missing id")
	}
	if len(r.ResponseTemplates) == 0 {
		return nil, fmt.Errorf("rule %s has no response templates", r.ID)
	}
	return r, nil
}

func splitList(value string) []string {
	if value == "" {
		return nil
	}
	return strings.Split(value, listSeparator)
}

func escapeValue(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	return strings.ReplaceAll(v, "\n", `\n`)
}

func unescapeValue(v string) string {
	var b strings.Builder
	for i := 0; i < len(v); i++ {
		if v[i] == '\\' && i+1 < len(v) {
			switch v[i+1] {
			case 'n':
				b.WriteByte('\n')
				i++
				continue
			case '\\':
				b.WriteByte('\\')
				i++
				continue
			}
		}
		b.WriteByte(v[i])
	}
	return b.String()
}
