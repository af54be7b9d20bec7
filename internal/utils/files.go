package utils

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// EnsureDir ensures the provided directory exists.
func EnsureDir(dir string) error {
	return os.MkdirAll(dir, 0o755)
}

// SafeWriteFile writes data to a temp file and atomically renames it into place.
func SafeWriteFile(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("atomic rename: %w", err)
	}
	return nil
}

// PrettyJSON marshals a value as indented JSON.
func PrettyJSON(v any) ([]byte, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal json: %w", err)
	}
	return b, nil
}

// YAML marshals a value with two-space indentation.
func YAML(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("marshal yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("marshal yaml: %w", err)
	}
	return buf.Bytes(), nil
}

// UniqueStem returns dir/base, or dir/base__N for the first N >= 2, such that
// no stem+suffix exists on disk or is already in reserved. The chosen
// outputs are added to reserved so concurrent writers never collide.
func UniqueStem(dir, base string, suffixes []string, reserved map[string]bool) string {
	for idx := 1; ; idx++ {
		name := base
		if idx > 1 {
			name = fmt.Sprintf("%s__%d", base, idx)
		}
		stem := filepath.Join(dir, name)
		if stemTaken(stem, suffixes, reserved) {
			continue
		}
		for _, s := range suffixes {
			reserved[stem+s] = true
		}
		return stem
	}
}

func stemTaken(stem string, suffixes []string, reserved map[string]bool) bool {
	for _, s := range suffixes {
		if reserved[stem+s] {
			return true
		}
		if _, err := os.Stat(stem + s); err == nil {
			return true
		}
	}
	return false
}

// ExpandGlobs resolves shell-style patterns to a sorted, de-duplicated file
// list. A pattern with no matches is kept when it names an existing file.
func ExpandGlobs(patterns []string) ([]string, error) {
	var files []string
	seen := map[string]struct{}{}
	for _, arg := range patterns {
		matches, err := filepath.Glob(arg)
		if err != nil {
			return nil, fmt.Errorf("bad pattern %q: %w", arg, err)
		}
		if len(matches) == 0 {
			if _, err := os.Stat(arg); err == nil {
				matches = []string{arg}
			}
		}
		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no input files matched")
	}
	sort.Strings(files)
	return files, nil
}
