package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func probeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "probe",
		Short: "Bring up the controller and report its state",
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

			up, err := s.d.IsLinkUp()
			if err != nil {
				return s.annotate(err)
			}
			link := "down"
			if up {
				link = "up"
			}
			w := os.Stdout
			fmt.Fprintf(w, "revision:  %v\n", s.d.Revision())
			fmt.Fprintf(w, "mac:       %v\n", s.d.MAC())
			fmt.Fprintf(w, "ip:        %v\n", s.d.IP())
			fmt.Fprintf(w, "link:      %v\n", link)
			printLayout(w, cfg)
			return nil
		},
	}
}
