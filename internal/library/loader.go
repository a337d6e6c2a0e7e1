package library

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charlievieth/fastwalk"
	"github.com/goccy/go-yaml"
)

// DefaultPattern matches *.pipeline.yaml files anywhere under the library
// root, mirroring the walk-then-glob-filter shape the filesystem provider
// uses for recursive search.
const DefaultPattern = "**/*.pipeline.yaml"

// Load walks root and decodes every file whose root-relative path matches
// pattern (a doublestar glob; DefaultPattern if empty) into a Spec. A file
// that fails to read or parse is reported as an error naming its path, and
// one that fails validation as an error naming the spec's name;
// the walk does not stop early so a Load always tries every candidate file.
func Load(root, pattern string) ([]*Spec, error) {
	if pattern == "" {
		pattern = DefaultPattern
	}

	var specs []*Spec
	var errs []error

	conf := fastwalk.Config{Follow: false}
	err := fastwalk.Walk(&conf, root, func(p string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return nil
		}
		matched, err := doublestar.Match(pattern, rel)
		if err != nil || !matched {
			return nil
		}

		spec, err := loadFile(p)
		if err != nil {
			errs = append(errs, err)
			return nil
		}
		specs = append(specs, spec)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("library: walk %s: %w", root, err)
	}
	if len(errs) > 0 {
		return specs, fmt.Errorf("library: %d of %d files failed to load: %w", len(errs), len(specs)+len(errs), errs[0])
	}
	return specs, nil
}

func loadFile(path string) (*Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("library: read %s: %w", path, err)
	}
	var spec Spec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("library: parse %s: %w", path, err)
	}
	spec.Path = path
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return &spec, nil
}
