package sh

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/romi.go/pkg/chans"
	"github.com/robotalks/romi.go/pkg/cotask"
	"github.com/robotalks/romi.go/pkg/telemetry"
)

// Target is what the shell monitors. Everything in it is touched only
// through Scheduler.Exec.
type Target struct {
	Robot     telemetry.RobotRef
	Session   string
	Scheduler *cotask.Scheduler
	Catalog   *chans.Catalog
	GC        *cotask.GCStats
	// Send delivers a command line to the robot, as if received on the
	// telemetry link. It runs on the Scheduler goroutine.
	Send func(line string)
}

// Shell provides ishell backed interactive monitor.
type Shell struct {
	Interactive bool
	OutputJSON  bool
	Timeout     time.Duration

	Shell  *ishell.Shell
	Target *Target
}

const shellKey = "$shell"

var (
	// flags

	evalOnly   bool
	outputJSON bool

	// commands
	commands = []*ishell.Cmd{
		&TasksCmd,
		&ChansCmd,
		&ReportCmd,
		&FaultsCmd,
		&TraceCmd,
		&EnableCmd,
		&DisableCmd,
		&TriggerCmd,
		&ResetCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print reports in JSON.")
}

// AddCmds is used by other commands providers during init func.
func AddCmds(cmds ...*ishell.Cmd) {
	commands = append(commands, cmds...)
}

// New creates a new shell.
func New(target *Target) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,
		Timeout:     time.Second,
		Shell:       ishell.New(),
		Target:      target,
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(target.Robot.Name() + " > ")
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// Exec runs fn on the Scheduler goroutine, giving up after Timeout.
func (s *Shell) Exec(fn func() error) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.Timeout)
	defer cancel()
	return s.Target.Scheduler.Exec(ctx, fn)
}

// Tasks returns the profile table.
func (s *Shell) Tasks() (out string, err error) {
	err = s.Exec(func() error {
		out = s.Target.Scheduler.Report()
		return nil
	})
	return
}

// Chans returns the channel diagnostics.
func (s *Shell) Chans() (out string, err error) {
	if s.Target.Catalog == nil {
		return "", nil
	}
	err = s.Exec(func() error {
		out = s.Target.Catalog.Report()
		return nil
	})
	return
}

// Report returns the full report as JSON.
func (s *Shell) Report() (out string, err error) {
	err = s.Exec(func() error {
		r := telemetry.NewReport(s.Target.Robot, s.Target.Session, s.Target.Scheduler, s.Target.Catalog)
		if gc := s.Target.GC; gc != nil {
			stats := *gc
			r.GC = &stats
		}
		out, err = r.JSON()
		return err
	})
	return
}

// Faults lists the task faults.
func (s *Shell) Faults() (out []string, err error) {
	err = s.Exec(func() error {
		for _, f := range s.Target.Scheduler.Faults() {
			out = append(out, f.Error())
		}
		return nil
	})
	return
}

// Trace returns the state transitions recorded by a task.
func (s *Shell) Trace(task string) (out []string, err error) {
	err = s.Exec(func() error {
		t, err := s.Target.Scheduler.Task(task)
		if err != nil {
			return err
		}
		for _, tr := range t.Trace() {
			out = append(out, tr.String())
		}
		return nil
	})
	return
}

// Control applies a control action to a task.
func (s *Shell) Control(task, action string) error {
	return s.Exec(func() error {
		return telemetry.ControlRequest{Task: task, Action: action}.Apply(s.Target.Scheduler)
	})
}

// Send delivers a command line to the robot.
func (s *Shell) Send(line string) error {
	if s.Target.Send == nil {
		return fmt.Errorf("robot takes no commands")
	}
	return s.Exec(func() error {
		s.Target.Send(line)
		return nil
	})
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			log.Fatalln(err)
		}
		return
	}
	if s.Interactive {
		s.Shell.Run()
		return
	}
	log.Fatalln("command expected")
}

func printLines(c *ishell.Context, lines []string, err error, empty string) {
	if err != nil {
		c.Err(err)
		return
	}
	if len(lines) == 0 {
		c.Println(empty)
		return
	}
	c.Println(strings.Join(lines, "\n"))
}

func controlCmd(action, help string) ishell.Cmd {
	return ishell.Cmd{
		Name: action,
		Help: help,
		Func: func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("TASK required"))
				return
			}
			s := ShellFrom(c)
			for _, task := range c.Args {
				if err := s.Control(task, action); err != nil {
					c.Err(err)
					return
				}
			}
			c.Println("OK")
		},
	}
}

var (
	// TasksCmd prints the task profiles.
	TasksCmd = ishell.Cmd{
		Name:    "tasks",
		Aliases: []string{"t", "profile"},
		Help:    "show task profiles",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			if s.OutputJSON {
				out, err := s.Report()
				if err != nil {
					c.Err(err)
					return
				}
				c.Println(out)
				return
			}
			out, err := s.Tasks()
			if err != nil {
				c.Err(err)
				return
			}
			c.Print(out)
		},
	}

	// ChansCmd prints channel diagnostics.
	ChansCmd = ishell.Cmd{
		Name:    "chans",
		Aliases: []string{"c"},
		Help:    "show shares and queues",
		Func: func(c *ishell.Context) {
			out, err := ShellFrom(c).Chans()
			if err != nil {
				c.Err(err)
				return
			}
			c.Println(out)
		},
	}

	// ReportCmd prints the full JSON report.
	ReportCmd = ishell.Cmd{
		Name: "report",
		Help: "print tasks, channels and gc stats as JSON",
		Func: func(c *ishell.Context) {
			out, err := ShellFrom(c).Report()
			if err != nil {
				c.Err(err)
				return
			}
			c.Println(out)
		},
	}

	// FaultsCmd lists task faults.
	FaultsCmd = ishell.Cmd{
		Name: "faults",
		Help: "list faulted tasks",
		Func: func(c *ishell.Context) {
			lines, err := ShellFrom(c).Faults()
			printLines(c, lines, err, "No faults")
		},
	}

	// TraceCmd prints the transition trace of a task.
	TraceCmd = ishell.Cmd{
		Name: "trace",
		Help: "TASK",
		Func: func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("TASK required"))
				return
			}
			lines, err := ShellFrom(c).Trace(c.Args[0])
			printLines(c, lines, err, "No transitions recorded")
		},
	}

	// EnableCmd enables tasks.
	EnableCmd = controlCmd(telemetry.ActionEnable, "TASK...")
	// DisableCmd disables tasks.
	DisableCmd = controlCmd(telemetry.ActionDisable, "TASK...")
	// TriggerCmd triggers tasks.
	TriggerCmd = controlCmd(telemetry.ActionTrigger, "TASK...")
	// ResetCmd resets task profiles.
	ResetCmd = controlCmd(telemetry.ActionReset, "TASK...")
)

// MustTakeCommands wraps a command func that sends command lines.
func MustTakeCommands(fn func(*ishell.Context)) func(*ishell.Context) {
	return func(c *ishell.Context) {
		if ShellFrom(c).Target.Send == nil {
			c.Err(fmt.Errorf("robot takes no commands"))
			return
		}
		fn(c)
	}
}

// SendCommand sends a command line and prints the result.
func SendCommand(c *ishell.Context, line string) {
	if err := ShellFrom(c).Send(line); err != nil {
		c.Err(err)
		return
	}
	c.Println("SENT", line)
}
