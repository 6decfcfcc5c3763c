package sh

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"strconv"
	"sync"

	"github.com/abiosoft/ishell"

	fx "github.com/robotalks/zolink/pkg/framework"
	"github.com/robotalks/zolink/pkg/l0/comm"
	"github.com/robotalks/zolink/pkg/l1/env"
)

// Shell provides ishell backed interactive shell.
type Shell struct {
	Interactive bool
	OutputJSON  bool
	AutoOpen    bool

	Shell  *ishell.Shell
	Config *env.Config
	Loop   *LinkLoop

	lock  sync.Mutex
	watch bool
}

// LinkLoop is a running link over an opened driver.
type LinkLoop struct {
	Name   string
	Ctx    context.Context
	Cancel func()
	Link   *comm.Link
	Runner *fx.Runner
}

// PacketView is the JSON form of a packet.
type PacketView struct {
	To   byte   `json:"to"`
	From byte   `json:"from"`
	Cmd  byte   `json:"cmd"`
	Data []byte `json:"data,omitempty"`
	LRC  byte   `json:"lrc"`
}

const (
	shellKey     = "$shell"
	closedPrompt = "[closed] > "
)

var (
	// flags

	evalOnly   bool
	outputJSON bool

	// commands
	commands = []*ishell.Cmd{
		&PortsCmd,
		&OpenCmd,
		&CloseCmd,
		&SendCmd,
		&LAMCmd,
		&BitrateCmd,
		&WatchCmd,
		&StatusCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
}

// New creates a new shell.
func New(conf *env.Config) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,

		Shell:  ishell.New(),
		Config: conf,
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(closedPrompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// MustBeOpen wraps command func requires an opened link.
func MustBeOpen(fn func(c *ishell.Context)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		if ShellFrom(c).Loop == nil {
			c.Err(fmt.Errorf("link not open"))
			return
		}
		fn(c)
	}
}

// ParseByte parses a byte in decimal, hex (0x) or octal (0) notation.
func ParseByte(s string) (byte, error) {
	n, err := strconv.ParseUint(s, 0, 8)
	if err != nil {
		return 0, fmt.Errorf("invalid byte %q", s)
	}
	return byte(n), nil
}

// ParseBytes parses a list of bytes.
func ParseBytes(args []string) ([]byte, error) {
	out := make([]byte, 0, len(args))
	for _, arg := range args {
		b, err := ParseByte(arg)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

// FormatPacket prints a packet in text or JSON.
func (s *Shell) FormatPacket(pkt *comm.Packet) string {
	if s.OutputJSON {
		out, err := json.Marshal(&PacketView{
			To:   pkt.AddressedNodeID,
			From: pkt.OwnNodeID,
			Cmd:  pkt.CommandID,
			Data: pkt.Payload(),
			LRC:  pkt.LRC,
		})
		if err == nil {
			return string(out)
		}
	}
	return pkt.String()
}

// WithAutoOpen sets AutoOpen.
func (s *Shell) WithAutoOpen(en bool) *Shell {
	s.AutoOpen = en
	return s
}

// Watching tells whether received packets are printed.
func (s *Shell) Watching() bool {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.watch
}

// SetWatch enables or disables printing of received packets.
func (s *Shell) SetWatch(en bool) {
	s.lock.Lock()
	s.watch = en
	s.lock.Unlock()
}

// HandlePacket implements comm.PacketHandler.
func (s *Shell) HandlePacket(ctx context.Context, pkt *comm.Packet) {
	if s.Watching() {
		s.Shell.Println(s.FormatPacket(pkt))
	}
}

// ReportError implements comm.ErrorReporter.
func (s *Shell) ReportError(err error) {
	if s.Watching() {
		s.Shell.Printf("error: %v\n", err)
	}
}

// Attach starts running link with the runnables driving it.
func (s *Shell) Attach(name string, link *comm.Link, drivers ...fx.Runnable) {
	s.Close()
	link.Handler, link.Reporter = s, s
	loop := &LinkLoop{Name: name, Link: link}
	loop.Ctx, loop.Cancel = context.WithCancel(context.Background())
	loop.Runner = fx.NewRunnerWith(loop.Ctx).Go(drivers...).Go(link)
	s.Loop = loop
	s.Shell.SetPrompt(fmt.Sprintf("%s > ", name))
}

// Open opens the serial port in the config.
func (s *Shell) Open() error {
	if err := s.Config.Validate(); err != nil {
		return err
	}
	s.Close()
	link, port, err := s.Config.Open()
	if err != nil {
		return err
	}
	s.Attach(s.Config.Port, link, port)
	return nil
}

// Close stops the current link.
func (s *Shell) Close() {
	if s.Loop != nil {
		s.Loop.Cancel()
		s.Loop.Runner.Wait()
		s.Loop = nil
		s.Shell.SetPrompt(closedPrompt)
	}
}

// Send encodes a packet from own node ID.
func (s *Shell) Send(addr, cmd byte, data []byte) error {
	if s.Loop == nil {
		return fmt.Errorf("link not open")
	}
	if len(data) > comm.MaxPayload {
		return comm.ErrPayloadOverflow
	}
	link := s.Loop.Link
	pkt := comm.NewPacket(addr, link.Identity().NodeID(), cmd, data...).SealLRC()
	return link.Send(pkt)
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	if s.AutoOpen && s.Config.Port != "" {
		if s.Interactive {
			s.Shell.Printf("Opening %s ...\n", s.Config.Port)
		}
		if err := s.Open(); err != nil {
			log.Fatalf("open %q failed: %v", s.Config.Port, err)
		}
	}
	defer s.Close()

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

// Main is a helper to provide a single call in main.
func Main() {
	flag.Parse()
	New(env.Default()).WithAutoOpen(true).Run(flag.Args()...)
}
