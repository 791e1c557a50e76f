// Command encnet brings up an ENC28J60 Ethernet controller and exercises its
// driver: it reports the chip's state, resolves addresses with ARP, and runs
// an interactive shell. With --simulate it runs against a simulated chip
// with a few simulated hosts on its link.
package main

import (
	"fmt"
	"os"

	"github.com/docker/go-units"
	"github.com/op/go-logging"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/joshlf/enc28j60"
	"github.com/joshlf/enc28j60/internal/errors"
)

var log = logging.MustGetLogger("encnet")

var (
	configFlag   string
	simulateFlag bool
	simPeersFlag int
	logLevelFlag string
	pcapFlag     string
	speedFlag    string
)

func main() {
	root := &cobra.Command{
		Use:           "encnet",
		Short:         "Drive an ENC28J60 Ethernet controller",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initLog(logLevelFlag)
		},
	}
	addGlobalFlags(root.PersistentFlags())

	root.AddCommand(probeCommand(), scanCommand(), shellCommand())
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitStatus(err))
	}
}

// exitStatus is 3 when the controller stopped responding and 2 for any
// other failure.
func exitStatus(err error) int {
	if errors.IsTimeout(err) {
		return 3
	}
	return 2
}

func addGlobalFlags(flags *pflag.FlagSet) {
	flags.StringVarP(&configFlag, "config", "c", "", "YAML configuration file")
	flags.BoolVar(&simulateFlag, "simulate", false, "use a simulated controller instead of hardware")
	flags.IntVar(&simPeersFlag, "sim-peers", 4, "number of simulated hosts answering ARP (with --simulate)")
	flags.StringVar(&logLevelFlag, "log-level", "info", "log level: debug, info, notice, warning or error")
	flags.StringVar(&pcapFlag, "pcap", "", "write received frames to this pcap file")
	flags.StringVar(&speedFlag, "spi-speed", "", "SPI clock, e.g. 8M (overrides the configuration)")
}

// loadConfig returns the configuration named by --config, or the default,
// with command-line overrides applied.
func loadConfig() (enc28j60.Config, error) {
	cfg := enc28j60.DefaultConfig()
	if configFlag != "" {
		var err error
		if cfg, err = enc28j60.LoadConfig(configFlag); err != nil {
			return cfg, err
		}
	}
	if speedFlag != "" {
		hz, err := units.FromHumanSize(speedFlag)
		if err != nil {
			return cfg, errors.Annotate(err, "parse --spi-speed")
		}
		cfg.SPISpeed = hz
	}
	return cfg, nil
}
