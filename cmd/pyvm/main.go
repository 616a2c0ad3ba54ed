package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v3"

	"github.com/wudi/pyvm/builtins"
	"github.com/wudi/pyvm/loader"
	"github.com/wudi/pyvm/values"
	"github.com/wudi/pyvm/version"
	"github.com/wudi/pyvm/vm"
)

func main() {
	app := &cli.Command{
		Name:  "pyvm",
		Usage: "Run CPython 2.7 .pyc modules on an embeddable Go interpreter",
		Commands: []*cli.Command{
			runCommand,     // pyvm run
			callCommand,    // pyvm call
			infoCommand,    // pyvm info
			memdumpCommand, // pyvm memdump
			replCommand,    // pyvm repl
		},
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "version",
				Local:   true,
				Aliases: []string{"v"},
				Usage:   "Show version",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Bool("version") {
				fmt.Println(version.Version())
				return nil
			}
			if cmd.Args().Len() > 0 {
				return runFile(cmd.Args().First())
			}
			// piped .pyc on stdin: `python -m py_compile ... && pyvm < m.pyc`
			if !isatty.IsTerminal(os.Stdin.Fd()) {
				machine := newVM()
				_, err := machine.ImportPycStream("stdin", "<stdin>", os.Stdin, true)
				return err
			}
			return cli.ShowAppHelp(cmd)
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newVM builds a VM with the builtin function/exception tables wired
// in, the one-time setup every embedder does.
func newVM() *vm.VM {
	machine := vm.NewVM()
	builtins.Install(machine)
	return machine
}

func runFile(path string) error {
	machine := newVM()
	_, err := machine.ImportPycFile(path)
	return err
}

var runCommand = &cli.Command{
	Name:      "run",
	Usage:     "Import a .pyc file and execute its module-level code",
	ArgsUsage: "<file.pyc>",
	Action: func(ctx context.Context, cmd *cli.Command) error {
		if cmd.Args().Len() < 1 {
			return fmt.Errorf("usage: pyvm run <file.pyc>")
		}
		return runFile(cmd.Args().First())
	},
}

var callCommand = &cli.Command{
	Name:      "call",
	Usage:     "Import a .pyc file, then call one of its functions",
	ArgsUsage: "<file.pyc> <name> [args...]",
	Action: func(ctx context.Context, cmd *cli.Command) error {
		if cmd.Args().Len() < 2 {
			return fmt.Errorf("usage: pyvm call <file.pyc> <name> [args...]")
		}
		machine := newVM()
		if _, err := machine.ImportPycFile(cmd.Args().First()); err != nil {
			return err
		}
		args, err := parseArgs(cmd.Args().Slice()[2:])
		if err != nil {
			return err
		}
		result, err := machine.CallName(cmd.Args().Get(1), args...)
		if err != nil {
			return err
		}
		fmt.Println(result.ToStr())
		return nil
	},
}

var infoCommand = &cli.Command{
	Name:      "info",
	Usage:     "Show a .pyc file's header and top-level code metadata",
	ArgsUsage: "<file.pyc>",
	Action: func(ctx context.Context, cmd *cli.Command) error {
		if cmd.Args().Len() < 1 {
			return fmt.Errorf("usage: pyvm info <file.pyc>")
		}
		res, err := loader.ImportPycFile(cmd.Args().First())
		if err != nil {
			return err
		}
		fmt.Printf("module:    %s\n", res.Name)
		fmt.Printf("source:    %s\n", res.Code.Filename)
		fmt.Printf("magic:     0x%08x\n", res.Header.Magic)
		fmt.Printf("compiled:  %s\n", res.Header.MtimeString())
		fmt.Printf("consts:    %d\n", len(res.Code.Consts))
		fmt.Printf("names:     %s\n", strings.Join(res.Code.Names, ", "))
		return nil
	},
}

var memdumpCommand = &cli.Command{
	Name:      "memdump",
	Usage:     "Run a .pyc file and report pool occupancy and opcode hotspots",
	ArgsUsage: "<file.pyc>",
	Action: func(ctx context.Context, cmd *cli.Command) error {
		if cmd.Args().Len() < 1 {
			return fmt.Errorf("usage: pyvm memdump <file.pyc>")
		}
		machine := newVM()
		if _, err := machine.ImportPycFile(cmd.Args().First()); err != nil {
			return err
		}
		fmt.Print(machine.PerformanceReport())
		return nil
	},
}

var replCommand = &cli.Command{
	Name:      "repl",
	Usage:     "Import a .pyc file, then call its functions interactively",
	ArgsUsage: "<file.pyc>",
	Action: func(ctx context.Context, cmd *cli.Command) error {
		if cmd.Args().Len() < 1 {
			return fmt.Errorf("usage: pyvm repl <file.pyc>")
		}
		if !isatty.IsTerminal(os.Stdin.Fd()) {
			return fmt.Errorf("repl requires an interactive terminal")
		}
		machine := newVM()
		mod, err := machine.ImportPycFile(cmd.Args().First())
		if err != nil {
			return err
		}
		return runRepl(machine, mod)
	},
}

// runRepl reads `name arg1 arg2 ...` lines and calls the named function
// from the loaded module. There is no compiler in this interpreter, so
// the repl is a call shell, not an expression evaluator.
func runRepl(machine *vm.VM, mod *values.Value) error {
	modName := mod.Data.(*values.Module).Name
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          modName + "> ",
		HistoryFile:     os.TempDir() + "/pyvm_history",
		InterruptPrompt: "^C",
	})
	if err != nil {
		return err
	}
	defer rl.Close()

	fmt.Printf("pyvm %s — module %q loaded. Type a function name with arguments, or 'exit'.\n",
		version.Version(), modName)
	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err != nil { // io.EOF on ctrl-D
			return nil
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			return nil
		}
		fields := strings.Fields(line)
		args, err := parseArgs(fields[1:])
		if err != nil {
			fmt.Printf("error: %v\n", err)
			continue
		}
		result, err := machine.CallName(fields[0], args...)
		if err != nil {
			fmt.Printf("error: %v\n", err)
			continue
		}
		if !result.IsNone() {
			fmt.Println(result.ToStr())
		}
	}
}

// parseArgs turns shell words into Values: ints, floats, the None/True/
// False keywords, and everything else as a string (quotes optional).
func parseArgs(words []string) ([]*values.Value, error) {
	out := make([]*values.Value, 0, len(words))
	for _, w := range words {
		switch {
		case w == "None":
			out = append(out, values.None)
		case w == "True":
			out = append(out, values.True)
		case w == "False":
			out = append(out, values.False)
		default:
			if n, err := strconv.ParseInt(w, 10, 64); err == nil {
				out = append(out, values.Int(n))
				break
			}
			if fv, err := strconv.ParseFloat(w, 64); err == nil {
				out = append(out, values.Float(fv))
				break
			}
			out = append(out, values.Str(strings.Trim(w, `"'`)))
		}
	}
	return out, nil
}
