package library

import (
	"fmt"

	"github.com/flowproc/pipeline/internal/endpoint"
	"github.com/flowproc/pipeline/internal/pipeline"
	"github.com/flowproc/pipeline/internal/platform"
	"github.com/flowproc/pipeline/internal/stage"
)

// Build turns a decoded Spec into a ready-to-configure Engine: endpoints
// and stages are wired from the spec, but Run has not been called. Every
// endpoint is set-once, so an endpoint the spec configures cannot be
// replaced on the returned Engine; only endpoints the spec leaves unset
// (or "none") can still be set before Run.
func Build(spec *Spec) (*pipeline.Engine, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	e := pipeline.New(platform.New())

	if err := applyInput(e.Input(), spec.Input); err != nil {
		return nil, fmt.Errorf("library: %s: %w", spec.displayName(), err)
	}
	if err := applyOutput(e.Output(), spec.Output); err != nil {
		return nil, fmt.Errorf("library: %s: %w", spec.displayName(), err)
	}

	table := e.Stages()
	for _, st := range spec.Stages {
		if st.Kind == "pty_exec" {
			table.AppendPTYExec(st.Prog, st.Args, st.Env)
			continue
		}

		var opts []stage.ExecOption
		if len(st.Env) > 0 {
			opts = append(opts, stage.WithEnv(st.Env))
		}
		if st.PathSearch {
			opts = append(opts, stage.WithPathSearch())
		}
		if st.Glob != "" {
			table.AppendExecGlob(st.Glob, st.Args, opts...)
		} else {
			table.AppendExec(st.Prog, st.Args, opts...)
		}
	}

	return e, nil
}

func applyInput(in *endpoint.Input, spec EndpointSpec) error {
	switch spec.Kind {
	case "", "none":
	case "file":
		if spec.Compressed {
			in.SetCompressedFile(spec.Path)
		} else {
			in.SetFile(spec.Path)
		}
	case "compressed_file":
		in.SetCompressedFile(spec.Path)
	default:
		return fmt.Errorf("unsupported input kind %q", spec.Kind)
	}
	return nil
}

func applyOutput(out *endpoint.Output, spec EndpointSpec) error {
	mode := spec.Mode
	if mode == 0 {
		mode = endpoint.DefaultFileMode
	}
	switch spec.Kind {
	case "", "none":
	case "file":
		if spec.Compressed {
			out.SetCompressedFile(spec.Path, mode)
		} else {
			out.SetFile(spec.Path, mode)
		}
	case "compressed_file":
		out.SetCompressedFile(spec.Path, mode)
	default:
		return fmt.Errorf("unsupported output kind %q", spec.Kind)
	}
	return nil
}
