// Package sh provides the interactive bench shell talking to a
// dashboard over MQTT.
package sh

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/evdash/pkg/env"
	"github.com/robotalks/evdash/pkg/link/mqtt"
	"github.com/robotalks/evdash/pkg/link/msgs"
)

// Shell provides ishell backed interactive shell.
type Shell struct {
	Interactive bool
	OutputJSON  bool
	Timeout     time.Duration

	Shell  *ishell.Shell
	Config *env.BenchConfig
	Conn   *mqtt.Conn
	Client *Client
}

const (
	shellKey        = "$shell"
	unusedPrompt    = "[none] > "
	defaultTimeout  = 2 * time.Second
	clientIDPattern = "bench-%d"
)

var (
	// flags

	evalOnly   bool
	outputJSON bool

	// commands
	commands = []*ishell.Cmd{
		&UseCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
}

// AddCmds is used by other commands providers during init func.
func AddCmds(cmds ...*ishell.Cmd) {
	commands = append(commands, cmds...)
}

// New creates a new shell.
func New(conf *env.BenchConfig) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,
		Timeout:     defaultTimeout,

		Shell:  ishell.New(),
		Config: conf,
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(unusedPrompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// MustUse wraps command func requires a selected dashboard.
func MustUse(fn func(c *ishell.Context)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		if ShellFrom(c).Client == nil {
			c.Err(fmt.Errorf("no dashboard selected, use ID first"))
			return
		}
		fn(c)
	}
}

// Send publishes msg to the selected dashboard.
func Send(c *ishell.Context, msg msgs.Message) error {
	s := ShellFrom(c)
	if err := s.Client.Send(msg); err != nil {
		c.Err(err)
		return err
	}
	if !s.OutputJSON {
		c.Println("OK")
	}
	return nil
}

// PrintState prints a state report in the selected output format.
func PrintState(c *ishell.Context, st *msgs.DashState) {
	if ShellFrom(c).OutputJSON {
		out, err := json.Marshal(st)
		if err != nil {
			c.Err(err)
			return
		}
		c.Println(string(out))
		return
	}
	c.Println(FormatState(st))
}

// Use selects the dashboard to talk to. The broker is dialed on first
// use.
func (s *Shell) Use(id string) error {
	if s.Conn == nil {
		conn, err := s.Config.Dial(fmt.Sprintf(clientIDPattern, time.Now().UnixNano()))
		if err != nil {
			return err
		}
		s.Conn = conn
	}
	if s.Client != nil && s.Client.ID == id {
		return nil
	}
	client := NewClient(id, s.Conn)
	client.Subscribe(s.Conn)
	s.Client = client
	s.Shell.SetPrompt(fmt.Sprintf("%s > ", id))
	return nil
}

// Close disconnects from the broker.
func (s *Shell) Close() {
	if s.Conn != nil {
		s.Conn.Close()
		s.Conn, s.Client = nil, nil
		s.Shell.SetPrompt(unusedPrompt)
	}
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	defer s.Close()
	if s.Config.ID != "" {
		if s.Interactive {
			s.Shell.Printf("Connecting %s ...\n", s.Config.ID)
		}
		if err := s.Use(s.Config.ID); err != nil {
			log.Fatalf("use %q failed: %v", s.Config.ID, err)
		}
	}

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

// UseCmd selects a dashboard.
var UseCmd = ishell.Cmd{
	Name:    "use",
	Aliases: []string{"u"},
	Help:    "ID",
	Func: func(c *ishell.Context) {
		if len(c.Args) != 1 {
			c.Err(fmt.Errorf("dashboard id required"))
			return
		}
		if err := ShellFrom(c).Use(c.Args[0]); err != nil {
			c.Err(err)
		}
	},
}

// Main is a helper to provide a single call in main.
func Main() {
	flag.Parse()
	New(env.DefaultBench()).Run(flag.Args()...)
}
