package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/joshlf/enc28j60"
	"github.com/joshlf/enc28j60/internal/cli"
)

func shellCommand() *cobra.Command {
	var interval time.Duration
	cmd := &cobra.Command{
		Use:   "shell",
		Short: "Run an interactive shell against the controller",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			s, err := openStation(cfg)
			if err != nil {
				return err
			}
			defer s.close()

			s.SpawnDaemon(func() { s.run(interval) })
			return cli.NewShell(os.Stdin, os.Stdout, s.commands()...).Run()
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", 10*time.Millisecond, "driver polling interval")
	return cmd
}

// onOff runs on or off according to args, which must be "on" or "off".
func onOff(c *cli.Command, args []string, on, off func() error) error {
	if len(args) != 1 || (args[0] != "on" && args[0] != "off") {
		c.PrintUsage()
		return nil
	}
	f := off
	if args[0] == "on" {
		f = on
	}
	if err := f(); err != nil {
		c.Printf("%v\n", err)
	}
	return nil
}

func (s *station) commands() []*cli.Command {
	link := &cli.Command{
		Name:             "link",
		ShortDescription: "Show PHY link status",
		Run: func(c *cli.Command, args []string) error {
			s.Lock()
			up, err := s.d.IsLinkUp()
			s.Unlock()
			switch {
			case err != nil:
				c.Printf("%v\n", s.annotate(err))
			case up:
				c.Printf("link up\n")
			default:
				c.Printf("link down\n")
			}
			return nil
		},
	}

	arp := &cli.Command{
		Name:             "arp",
		ShortDescription: "Show the ARP table",
		Run: func(c *cli.Command, args []string) error {
			s.Lock()
			entries := s.d.ARPEntries()
			s.Unlock()
			c.Printf("Slot  IP               MAC                TTL\n")
			c.Printf("=============================================\n")
			for i, e := range entries {
				switch {
				case e.TTL < 0:
					c.Printf("%-5v (unused)\n", i)
				case e.TTL == 0:
					c.Printf("%-5v %-16v %v expired\n", i, e.IP, e.MAC)
				default:
					c.Printf("%-5v %-16v %v %vs\n", i, e.IP, e.MAC, e.TTL)
				}
			}
			return nil
		},
	}

	resolve := &cli.Command{
		Name:             "resolve",
		Usage:            "<ip> [timeout]",
		ShortDescription: "Resolve an IPv4 address with ARP",
		LongDescription:  "Look the address up in the ARP table, sending a request and\nwaiting for a reply (500ms by default) if it is not there.",
		Run: func(c *cli.Command, args []string) error {
			if len(args) < 1 || len(args) > 2 {
				c.PrintUsage()
				return nil
			}
			ip, err := enc28j60.ParseIPv4(args[0])
			if err != nil {
				c.Printf("%v\n", err)
				return nil
			}
			timeout := 500 * time.Millisecond
			if len(args) == 2 {
				if timeout, err = time.ParseDuration(args[1]); err != nil {
					c.Printf("could not parse timeout: %v\n", err)
					return nil
				}
			}
			s.Lock()
			mac, ok, err := s.resolve(ip, timeout)
			s.Unlock()
			switch {
			case err != nil:
				c.Printf("%v\n", err)
			case ok:
				c.Printf("%v is at %v\n", ip, mac)
			default:
				c.Printf("%v: no reply\n", ip)
			}
			return nil
		},
	}

	stats := &cli.Command{
		Name:             "stats",
		ShortDescription: "Show receive statistics",
		Run: func(c *cli.Command, args []string) error {
			s.Lock()
			defer s.Unlock()
			c.Printf("frames received: %v (%v)\n", s.cap.frames, size(s.cap.bytes))
			if s.chip != nil {
				c.Printf("frames sent:     %v\n", len(s.chip.Sent()))
				c.Printf("frames dropped:  %v\n", s.chip.Dropped)
			}
			return nil
		},
	}

	layout := &cli.Command{
		Name:             "layout",
		ShortDescription: "Show the packet memory layout",
		Run: func(c *cli.Command, args []string) error {
			printLayout(c.Out(), s.d.Config())
			return nil
		},
	}

	dump := &cli.Command{
		Name:             "dump",
		Usage:            "on|off",
		ShortDescription: "Print a summary of every received frame",
		Run: func(c *cli.Command, args []string) error {
			return onOff(c, args, func() error {
				s.Lock()
				s.cap.dump = c.Out()
				s.Unlock()
				return nil
			}, func() error {
				s.Lock()
				s.cap.dump = nil
				s.Unlock()
				return nil
			})
		},
	}

	locked := func(f func() error) func() error {
		return func() error {
			s.Lock()
			defer s.Unlock()
			return s.annotate(f())
		}
	}

	promisc := &cli.Command{
		Name:             "promisc",
		Usage:            "on|off",
		ShortDescription: "Accept every frame",
		Run: func(c *cli.Command, args []string) error {
			return onOff(c, args, locked(s.d.EnablePromiscuous), locked(s.d.DisablePromiscuous))
		},
	}

	multicast := &cli.Command{
		Name:             "multicast",
		Usage:            "on|off",
		ShortDescription: "Accept multicast frames",
		Run: func(c *cli.Command, args []string) error {
			return onOff(c, args, locked(s.d.EnableMulticast), locked(s.d.DisableMulticast))
		},
	}

	broadcast := &cli.Command{
		Name:             "broadcast",
		Usage:            "on|off|once",
		ShortDescription: "Accept broadcast frames",
		LongDescription:  "With once, broadcast frames are accepted until one frame has been received.",
		Run: func(c *cli.Command, args []string) error {
			if len(args) == 1 && args[0] == "once" {
				if err := locked(func() error { return s.d.EnableBroadcast(true) })(); err != nil {
					c.Printf("%v\n", err)
				}
				return nil
			}
			return onOff(c, args,
				locked(func() error { return s.d.EnableBroadcast(false) }),
				locked(func() error { return s.d.DisableBroadcast(false) }))
		},
	}

	power := &cli.Command{
		Name:             "power",
		ShortDescription: "Power the controller down or up",
	}
	power.AddSubcommand(
		&cli.Command{
			Name:             "down",
			ShortDescription: "Enter power save mode",
			Run: func(c *cli.Command, args []string) error {
				if err := locked(s.d.PowerDown)(); err != nil {
					c.Printf("%v\n", err)
				}
				return nil
			},
		},
		&cli.Command{
			Name:             "up",
			ShortDescription: "Leave power save mode",
			Run: func(c *cli.Command, args []string) error {
				if err := locked(s.d.PowerUp)(); err != nil {
					c.Printf("%v\n", err)
				}
				return nil
			},
		},
	)

	reset := &cli.Command{
		Name:             "reset",
		ShortDescription: "Reset and reconfigure the controller",
		Run: func(c *cli.Command, args []string) error {
			s.Lock()
			rev, err := s.d.Begin()
			s.Unlock()
			if err != nil {
				c.Printf("%v\n", s.annotate(err))
				return nil
			}
			c.Printf("controller up, revision %v\n", rev)
			return nil
		},
	}

	return []*cli.Command{link, arp, resolve, stats, layout, dump, promisc, multicast, broadcast, power, reset}
}
