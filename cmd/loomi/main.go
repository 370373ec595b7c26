// Command loomi is the example embedding host for loom: it submits
// one job (a file or an inline string) and drives the engine's tick
// entry until that job finishes, exactly the way any other host would.
package main

import (
	"fmt"
	"os"

	"github.com/alexflint/go-arg"
	"go.uber.org/zap"

	"github.com/loomlang/loom"
)

const progVersion = "0.1.0"

type cliArgs struct {
	File    string `arg:"positional" help:"path to a loom script to run"`
	Eval    string `arg:"-e,--eval" help:"run this inline script instead of a file"`
	Steps   int    `arg:"--steps" default:"64" help:"per-tick step budget per job"`
	Verbose bool   `arg:"-v,--verbose" help:"log job lifecycle transitions to stderr"`
}

func (cliArgs) Version() string {
	return "loomi " + progVersion
}

func (cliArgs) Description() string {
	return "loomi runs a loom script to completion and prints its return value."
}

func main() {
	var a cliArgs
	arg.MustParse(&a)

	if a.File == "" && a.Eval == "" {
		fmt.Fprintln(os.Stderr, "loomi: need a script file or -e/--eval string")
		os.Exit(2)
	}
	if a.File != "" && a.Eval != "" {
		fmt.Fprintln(os.Stderr, "loomi: pass a file or -e/--eval, not both")
		os.Exit(2)
	}

	log := zap.NewNop()
	if a.Verbose {
		dev, err := zap.NewDevelopment()
		if err != nil {
			fmt.Fprintf(os.Stderr, "loomi: logger: %v\n", err)
			os.Exit(1)
		}
		log = dev
	}

	cfg := loom.DefaultConfig()
	if a.Steps > 0 {
		cfg.DefaultStep = a.Steps
	}
	engine := loom.NewEngine(loom.WithConfig(cfg), loom.WithLogger(log))

	kind, source := loom.SourceFile, a.File
	if a.Eval != "" {
		kind, source = loom.SourceString, a.Eval
	}

	job, err := engine.SubmitJob(kind, source, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "loomi: %v\n", err)
		os.Exit(1)
	}

	for !job.Done {
		if tickErr := engine.Tick(); tickErr != nil {
			fmt.Fprintf(os.Stderr, "loomi: %v\n", tickErr)
		}
		// With no host code feeding channels, a blocked job can never
		// wake again; a single-job driver treats that as a deadlock
		// rather than spinning.
		if wait, run, _ := engine.Stats(); wait == 0 && run == 0 && !job.Done {
			fmt.Fprintln(os.Stderr, "loomi: job blocked on a message that can never arrive")
			os.Exit(1)
		}
	}

	if job.Err != nil {
		fmt.Fprintf(os.Stderr, "loomi: runtime error: %v\n", job.Err)
		os.Exit(1)
	}

	fmt.Println(formatResult(job.Result))
}

// formatResult renders a job's return value for terminal output. Only
// scalars have a defined ToString; aggregates print their kind
// since there's no host terminal to render an object or array into.
func formatResult(v loom.Value) string {
	if s, err := v.ToString(); err == nil {
		return s
	}
	return "<" + v.Kind().String() + ">"
}
