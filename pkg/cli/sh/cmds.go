package sh

import (
	"encoding/json"
	"fmt"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/zolink/pkg/l0/serial"
)

var (
	// PortsCmd lists serial ports.
	PortsCmd = ishell.Cmd{
		Name:    "ports",
		Aliases: []string{"list", "l"},
		Help:    "",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			ports, err := serial.Ports()
			if err != nil {
				c.Err(err)
				return
			}
			if s.OutputJSON {
				if ports == nil {
					ports = []string{}
				}
				out, _ := json.Marshal(ports)
				c.Println(string(out))
				return
			}
			if len(ports) == 0 {
				c.Println("No serial ports found")
				return
			}
			for _, port := range ports {
				c.Println(port)
			}
		},
	}

	// OpenCmd opens a serial port.
	OpenCmd = ishell.Cmd{
		Name:    "open",
		Aliases: []string{"o"},
		Help:    "[PORT]",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			if len(c.Args) > 0 {
				s.Config.Port = c.Args[0]
			}
			if err := s.Open(); err != nil {
				c.Err(err)
			}
		},
	}

	// CloseCmd closes the current link.
	CloseCmd = ishell.Cmd{
		Name: "close",
		Help: "",
		Func: func(c *ishell.Context) {
			ShellFrom(c).Close()
		},
	}

	// SendCmd sends a packet.
	SendCmd = ishell.Cmd{
		Name:    "send",
		Aliases: []string{"s"},
		Help:    "ADDR CMD [DATA...]",
		Func: MustBeOpen(func(c *ishell.Context) {
			if len(c.Args) < 2 {
				c.Err(fmt.Errorf("ADDR and CMD expected"))
				return
			}
			b, err := ParseBytes(c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			if err := ShellFrom(c).Send(b[0], b[1], b[2:]); err != nil {
				c.Err(err)
				return
			}
			c.Println("OK")
		}),
	}

	// LAMCmd shows or sets the local acceptance mask.
	LAMCmd = ishell.Cmd{
		Name: "lam",
		Help: "[MASK]",
		Func: MustBeOpen(func(c *ishell.Context) {
			link := ShellFrom(c).Loop.Link
			if len(c.Args) == 0 {
				c.Printf("0x%02x\n", link.Identity().LAM())
				return
			}
			mask, err := ParseByte(c.Args[0])
			if err != nil {
				c.Err(err)
				return
			}
			link.SetLAM(mask)
		}),
	}

	// BitrateCmd changes the bitrate.
	BitrateCmd = ishell.Cmd{
		Name: "bitrate",
		Help: "BPS",
		Func: MustBeOpen(func(c *ishell.Context) {
			if len(c.Args) != 1 {
				c.Err(fmt.Errorf("BPS expected"))
				return
			}
			var bps uint32
			if _, err := fmt.Sscan(c.Args[0], &bps); err != nil || bps == 0 {
				c.Err(fmt.Errorf("invalid bitrate %q", c.Args[0]))
				return
			}
			if err := ShellFrom(c).Loop.Link.SetBitrate(bps); err != nil {
				c.Err(err)
			}
		}),
	}

	// WatchCmd toggles printing received packets.
	WatchCmd = ishell.Cmd{
		Name:    "watch",
		Aliases: []string{"w"},
		Help:    "[on|off]",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			en := !s.Watching()
			if len(c.Args) > 0 {
				en = c.Args[0] == "on"
			}
			s.SetWatch(en)
		},
	}

	// StatusCmd shows the link status.
	StatusCmd = ishell.Cmd{
		Name: "status",
		Help: "",
		Func: MustBeOpen(func(c *ishell.Context) {
			s := ShellFrom(c)
			link := s.Loop.Link
			nodeID, lam := link.Identity().Get()
			if s.OutputJSON {
				out, _ := json.Marshal(map[string]interface{}{
					"name":      s.Loop.Name,
					"node":      nodeID,
					"lam":       lam,
					"receiving": link.Decoder().Receiving(),
				})
				c.Println(string(out))
				return
			}
			c.Printf("%s node=0x%02x lam=0x%02x receiving=%v\n",
				s.Loop.Name, nodeID, lam, link.Decoder().Receiving())
		}),
	}
)
