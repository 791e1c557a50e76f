// Package cli implements a minimal line-oriented command shell.
package cli

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/joshlf/enc28j60/internal/errors"
)

type Command struct {
	Name             string
	Usage            string // argument synopsis, e.g. "<ip> [count]"
	ShortDescription string // single-line summary
	LongDescription  string // multi-line description

	// Run is the function to call when the command is executed.
	// Errors should only be returned that relate to execution
	// of the CLI framework such as failing to write to the output.
	// Other errors such as bus errors should be reported directly
	// to the user with Printf.
	Run func(cmd *Command, args []string) error

	subcommands map[string]*Command
	out         io.Writer
}

func (c *Command) validate() {
	switch {
	case c.Name == "":
		panic("empty command name")
	case c.Name == "help":
		panic("reserved command name: help")
	}
}

func (c *Command) AddSubcommand(cmds ...*Command) {
	if c.subcommands == nil {
		c.subcommands = make(map[string]*Command)
	}
	for _, cc := range cmds {
		cc.validate()
		if cc == c {
			panic("Command can't be a child of itself")
		}
		c.subcommands[cc.Name] = cc
	}
}

// Printf writes to the output of the shell executing c.
func (c *Command) Printf(format string, args ...interface{}) {
	fmt.Fprintf(c.out, format, args...)
}

// Out returns the output of the shell executing c.
func (c *Command) Out() io.Writer { return c.out }

// PrintUsage prints c's usage and long description.
func (c *Command) PrintUsage() {
	c.Printf("Usage: %v %v\n", c.Name, c.Usage)
	if c.LongDescription != "" {
		c.Printf("\n%v\n", c.LongDescription)
	}
}

func (c *Command) execute(out io.Writer, fields []string) error {
	c.out = out
	var subcmd *Command
	var ok bool
	if len(fields) != 0 {
		// if len(fields) == 0, then there's definitely no subcommand
		subcmd, ok = c.subcommands[fields[0]]
	}

	if !ok {
		if c.Run == nil {
			if len(c.subcommands) == 0 {
				panic("command has no run function or subcommands")
			}
			c.Printf("Available subcommands for %v:\n", c.Name)
			var cmds []*Command
			for _, cc := range c.subcommands {
				cmds = append(cmds, cc)
			}
			printAvailableCommands(out, cmds...)
			return nil
		}
		return c.Run(c, fields)
	}
	return subcmd.execute(out, fields[1:])
}

// A Shell reads command lines from an input and executes them.
type Shell struct {
	in     io.Reader
	out    io.Writer
	Prompt string

	cmds   []*Command
	byName map[string]*Command
}

// NewShell returns a shell which reads from in, writes to out, and knows
// cmds.
func NewShell(in io.Reader, out io.Writer, cmds ...*Command) *Shell {
	s := &Shell{in: in, out: out, Prompt: "> ", byName: make(map[string]*Command)}
	for _, c := range cmds {
		c.validate()
		s.cmds = append(s.cmds, c)
		s.byName[c.Name] = c
	}
	return s
}

// Execute runs a single command line.
func (s *Shell) Execute(line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	if fields[0] == "help" {
		if len(fields) > 1 {
			if c, ok := s.byName[fields[1]]; ok {
				c.out = s.out
				c.PrintUsage()
				return nil
			}
		}
		fmt.Fprintln(s.out, "Available commands:")
		printAvailableCommands(s.out, s.cmds...)
		return nil
	}
	c, ok := s.byName[fields[0]]
	if !ok {
		return noCommandErr(fields[0])
	}
	return c.execute(s.out, fields[1:])
}

// Run runs an interactive command-line interface until its input is
// exhausted. It is assumed that the human interface which provides in and
// out behaves like a normal terminal, with both typed (input) and output
// characters being printed to the same display buffer. It is the
// responsibility of any command's Run function to terminate all output with
// a newline so that output is properly pretty-printed.
func (s *Shell) Run() (err error) {
	sc := bufio.NewScanner(s.in)
	fmt.Fprint(s.out, s.Prompt)
	for sc.Scan() {
		err = s.Execute(sc.Text())
		switch {
		case IsNoCommand(err):
			fmt.Fprintln(s.out, err)
			fmt.Fprintln(s.out, "To list available commands, type 'help'.")
		case err != nil:
			return errors.Annotate(err, "run CLI")
		}
		fmt.Fprint(s.out, s.Prompt)
	}
	if err = sc.Err(); err != nil {
		return errors.Annotate(err, "run CLI")
	}
	fmt.Fprintln(s.out)
	return nil
}

func printAvailableCommands(out io.Writer, cmds ...*Command) {
	// deep copy so that when we sort them, we don't modify the original
	cmds = append([]*Command(nil), cmds...)
	sort.Sort(sortableCommands(cmds))

	var longestName int
	for _, c := range cmds {
		if len(c.Name) > longestName {
			longestName = len(c.Name)
		}
	}

	for _, c := range cmds {
		fmtstr := "%-" + strconv.Itoa(longestName) + "v"
		fmt.Fprintf(out, fmtstr+" - %v\n", c.Name, c.ShortDescription)
	}
}

type sortableCommands []*Command

func (s sortableCommands) Len() int           { return len(s) }
func (s sortableCommands) Less(i, j int) bool { return s[i].Name < s[j].Name }
func (s sortableCommands) Swap(i, j int)      { s[i], s[j] = s[j], s[i] }

type noCommandErr string

func (err noCommandErr) Error() string {
	return "no such command: " + string(err)
}

// IsNoCommand returns true if err results from a command not existing.
func IsNoCommand(err error) bool {
	_, ok := errors.Cause(err).(noCommandErr)
	return ok
}
