// Command dbgcoreutil demonstrates the host contract end to end: it
// loads a config.Options file, wires a toy in-process host, drives a
// session.Session through set_break/set_step/continue over a script's
// lines, and prints the resulting stop events. It is not the
// interactive shell spec.md places out of scope — there is no REPL,
// no source listing, no expression prompt — only enough plumbing to
// prove the core's contract is implementable.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gopherdbg/dbgcore/config"
	"github.com/gopherdbg/dbgcore/host"
	"github.com/gopherdbg/dbgcore/session"
)

var (
	configPath  string
	breakpoints []string
	stepMode    bool
	verbose     bool
)

func main() {
	root := &cobra.Command{
		Use:   "dbgcoreutil <script>",
		Short: "drive a dbgcore session over a toy scripted host",
		Args:  cobra.ExactArgs(1),
		RunE:  runDebug,
	}
	root.Flags().StringVar(&configPath, "config", "", "path to a session config.Options YAML file")
	root.Flags().StringArrayVar(&breakpoints, "break", nil, "line[:condition] to break at, repeatable")
	root.Flags().BoolVar(&stepMode, "step", false, "single-step every line instead of running to breakpoints")
	root.Flags().BoolVar(&verbose, "verbose", false, "emit dbgcore's own diagnostic log")

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func runDebug(cmd *cobra.Command, args []string) error {
	script := args[0]

	opts := config.Options{}
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		opts = *loaded
	}

	hooks := session.Hooks{
		OnCall: func(frame host.Frame, arg any) {
			fmt.Printf("call   %s:%d\n", frame.FileName(), frame.Line())
		},
		OnLine: func(frame host.Frame, hits *session.LineHits) {
			if hits != nil {
				fmt.Printf("break  %s:%d  stop=%v cleared=%v\n", frame.FileName(), frame.Line(), hits.Stop, hits.Temporaries)
				return
			}
			fmt.Printf("line   %s:%d\n", frame.FileName(), frame.Line())
		},
		OnReturn: func(frame host.Frame, retval any) {
			fmt.Printf("return %s:%d\n", frame.FileName(), frame.Line())
		},
		OnException: func(frame host.Frame, exc host.ExceptionInfo) {
			fmt.Printf("exc    %s:%d  %s\n", frame.FileName(), frame.Line(), exc.Type)
		},
	}

	caps := host.Capabilities{
		Compiler:       toyCompiler{},
		SourceProvider: toySources{},
		Evaluator:      toyEvaluator{},
	}

	s, err := session.New(opts, caps, hooks)
	if err != nil {
		return err
	}
	if verbose {
		logger, _ := zap.NewDevelopment()
		s.SetLogger(logger)
	}

	for i, spec := range breakpoints {
		line, cond, err := parseBreak(spec)
		if err != nil {
			return fmt.Errorf("--break[%d]: %w", i, err)
		}
		if _, err := s.Registry().SetBreak(script, line, false, cond, ""); err != nil {
			return fmt.Errorf("--break[%d]: %w", i, err)
		}
	}

	lines, _, err := (toySources{}).Lines(script)
	if err != nil {
		return fmt.Errorf("reading %s: %w", script, err)
	}
	unit, err := (toyCompiler{}).Compile(script, joinLines(lines))
	if err != nil {
		return err
	}

	frame := &toyFrame{file: script, firstLine: unit.FirstLine(), locals: map[string]any{}}

	return s.Run(frame, func() error {
		if stepMode {
			s.SetStep()
		} else {
			s.SetContinue()
		}
		if _, err := s.Dispatch(frame, host.EventCall, nil); err != nil {
			return err
		}
		for _, ln := range unit.ExecutableLines() {
			frame.line = ln
			if keep, err := s.Dispatch(frame, host.EventLine, nil); err != nil {
				return err
			} else if !keep {
				break
			}
		}
		_, err := s.Dispatch(frame, host.EventReturn, nil)
		return err
	})
}

func joinLines(lines []string) string {
	out := ""
	for i, l := range lines {
		if i > 0 {
			out += "\n"
		}
		out += l
	}
	return out
}

func parseBreak(spec string) (line int, cond *string, err error) {
	for i := 0; i < len(spec); i++ {
		if spec[i] == ':' {
			n, perr := fmt.Sscanf(spec[:i], "%d", &line)
			if perr != nil || n != 1 {
				return 0, nil, fmt.Errorf("invalid break spec %q", spec)
			}
			c := spec[i+1:]
			return line, &c, nil
		}
	}
	if n, perr := fmt.Sscanf(spec, "%d", &line); perr != nil || n != 1 {
		return 0, nil, fmt.Errorf("invalid break spec %q", spec)
	}
	return line, nil, nil
}
