package library

import "fmt"

// Spec is the decoded shape of one *.pipeline.yaml file.
type Spec struct {
	Name   string       `yaml:"name"`
	Input  EndpointSpec `yaml:"input"`
	Output EndpointSpec `yaml:"output"`
	Stages []StageSpec  `yaml:"stages"`

	// Path is the file Spec was decoded from; set by the loader, not
	// present in the YAML itself.
	Path string `yaml:"-"`
}

// EndpointSpec describes one endpoint (input or output) by kind plus the
// fields relevant to that kind. Unset Kind defaults to "none".
type EndpointSpec struct {
	Kind       string `yaml:"kind"`
	Path       string `yaml:"path"`
	Mode       uint32 `yaml:"mode"`
	Compressed bool   `yaml:"compressed"`
}

// StageSpec describes one exec or pty_exec stage. Function stages cannot be
// expressed in YAML and are rejected by Validate.
type StageSpec struct {
	Kind       string   `yaml:"kind"`
	Prog       string   `yaml:"prog"`
	Args       []string `yaml:"args"`
	Env        []string `yaml:"env"`
	PathSearch bool     `yaml:"path_search"`
	Glob       string   `yaml:"glob"`
}

// Validate checks a decoded Spec for the constraints Build assumes: at
// least one stage, every stage naming a known kind, and no stage
// simultaneously setting Prog and Glob.
func (s *Spec) Validate() error {
	if len(s.Stages) == 0 {
		return fmt.Errorf("library: %s: no stages", s.displayName())
	}
	for i, st := range s.Stages {
		switch st.Kind {
		case "", "exec", "pty_exec":
		default:
			return fmt.Errorf("library: %s: stage %d: unknown kind %q", s.displayName(), i, st.Kind)
		}
		if st.Glob != "" && st.Prog != "" {
			return fmt.Errorf("library: %s: stage %d: prog and glob are mutually exclusive", s.displayName(), i)
		}
		if st.Glob == "" && st.Prog == "" {
			return fmt.Errorf("library: %s: stage %d: prog or glob required", s.displayName(), i)
		}
	}
	switch s.Input.Kind {
	case "", "none", "file", "compressed_file":
	default:
		return fmt.Errorf("library: %s: unsupported input kind %q", s.displayName(), s.Input.Kind)
	}
	switch s.Output.Kind {
	case "", "none", "file", "compressed_file":
	default:
		return fmt.Errorf("library: %s: unsupported output kind %q", s.displayName(), s.Output.Kind)
	}
	return nil
}

func (s *Spec) displayName() string {
	if s.Name != "" {
		return s.Name
	}
	if s.Path != "" {
		return s.Path
	}
	return "<unnamed>"
}
