// Command ecmavm drives the generator core from the outside: `run` steps
// a scenario to completion non-interactively, `repl` hands control to a
// human who issues resume/throw commands one at a time, and `list` prints
// the scenario library. There is no source-level frontend (no lexer, no
// parser) — every generator body a user can reach here came out of the
// scenarios package's hand-assembled executables.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/urfave/cli/v3"

	"github.com/kestrona/ecmacore/agent"
	"github.com/kestrona/ecmacore/scenarios"
	"github.com/kestrona/ecmacore/values"
)

func main() {
	app := &cli.Command{
		Name:  "ecmavm",
		Usage: "a resumable generator VM and root-safety heap, driven by hand-assembled scenarios",
		Commands: []*cli.Command{
			listCommand,
			runCommand,
			replCommand,
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "ecmavm: %v\n", err)
		os.Exit(1)
	}
}

var listCommand = &cli.Command{
	Name:  "list",
	Usage: "list the scenario library",
	Action: func(ctx context.Context, cmd *cli.Command) error {
		for _, s := range scenarios.All() {
			fmt.Printf("%-16s %s\n", s.Name, s.Description)
		}
		return nil
	},
}

var runCommand = &cli.Command{
	Name:      "run",
	Usage:     "resume a scenario with `undefined` until it completes",
	ArgsUsage: "<scenario>",
	Action: func(ctx context.Context, cmd *cli.Command) error {
		name := cmd.Args().First()
		s, ok := scenarios.Find(name)
		if !ok {
			return fmt.Errorf("unknown scenario %q (see `ecmavm list`)", name)
		}

		a := agent.New()
		exe := s.Build()
		this := values.Undefined
		g := agent.NewSuspendedStart(a, exe, nil, agent.NewExecutionContext(this, exe.Name))
		scoped := a.ScopeGenerator(g, a.ScopeToken())

		for {
			live := a.GetGenerator(scoped, a.GcToken())
			result, err := live.Resume(a, values.Undefined)
			if err != nil {
				fmt.Println("uncaught:", err)
				return nil
			}
			obj := a.Object(result)
			done := obj.Get("done").ToBoolean()
			fmt.Printf("{value: %s, done: %t}\n", obj.Get("value").String(), done)
			if done {
				return nil
			}
		}
	},
}

var replCommand = &cli.Command{
	Name:      "repl",
	Usage:     "step through a scenario one resume/throw at a time",
	ArgsUsage: "<scenario>",
	Action: func(ctx context.Context, cmd *cli.Command) error {
		name := cmd.Args().First()
		s, ok := scenarios.Find(name)
		if !ok {
			return fmt.Errorf("unknown scenario %q (see `ecmavm list`)", name)
		}

		a := agent.New()
		exe := s.Build()
		this := values.Undefined
		g := agent.NewSuspendedStart(a, exe, nil, agent.NewExecutionContext(this, exe.Name))
		scoped := a.ScopeGenerator(g, a.ScopeToken())

		rl, err := readline.New(fmt.Sprintf("%s(%s)> ", exe.Name, "suspended-start"))
		if err != nil {
			return err
		}
		defer rl.Close()

		fmt.Println("commands: resume [value] | throw <value> | state | collect | quit")
		for {
			live := a.GetGenerator(scoped, a.GcToken())
			rl.SetPrompt(fmt.Sprintf("%s(%s)> ", exe.Name, live.State(a)))

			line, err := rl.Readline()
			if errors.Is(err, readline.ErrInterrupt) {
				if len(line) == 0 {
					break
				}
				continue
			} else if errors.Is(err, io.EOF) {
				break
			}

			fields := strings.Fields(line)
			if len(fields) == 0 {
				continue
			}

			switch fields[0] {
			case "quit", "exit":
				return nil
			case "state":
				fmt.Println(live.State(a))
			case "collect":
				a.Collect()
				fmt.Println("collected")
			case "resume":
				v := parseValue(fields[1:])
				result, err := live.Resume(a, v)
				printResumeResult(a, result, err)
			case "throw":
				v := parseValue(fields[1:])
				result, err := live.ResumeThrow(a, v)
				printResumeResult(a, result, err)
			default:
				fmt.Println("unrecognized command")
			}
		}
		return nil
	},
}

func parseValue(fields []string) values.Value {
	if len(fields) == 0 {
		return values.Undefined
	}
	raw := strings.Join(fields, " ")
	if n, err := strconv.ParseFloat(raw, 64); err == nil {
		return values.Number(n)
	}
	return values.String(raw)
}

func printResumeResult(a *agent.Agent, result values.Value, err error) {
	if err != nil {
		fmt.Println("uncaught:", err)
		return
	}
	obj := a.Object(result)
	fmt.Printf("{value: %s, done: %t}\n", obj.Get("value").String(), obj.Get("done").ToBoolean())
}
