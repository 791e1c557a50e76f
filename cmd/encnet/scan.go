package main

import (
	"fmt"
	"net"
	"time"

	"github.com/spf13/cobra"

	"github.com/joshlf/enc28j60"
	"github.com/joshlf/enc28j60/internal/errors"
)

func scanCommand() *cobra.Command {
	var (
		timeout time.Duration
		retries int
	)
	cmd := &cobra.Command{
		Use:   "arp-scan <ip|cidr>...",
		Short: "Resolve addresses with ARP",
		Long: `Resolve each address, or every host address of each IPv4 network,
with ARP. Requests are sent in batches no larger than the ARP table.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			targets, err := parseTargets(args)
			if err != nil {
				return err
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			s, err := openStation(cfg)
			if err != nil {
				return err
			}
			defer s.close()

			found := 0
			for start := 0; start < len(targets); start += cfg.ARPEntries {
				end := start + cfg.ARPEntries
				if end > len(targets) {
					end = len(targets)
				}
				res, err := s.scan(targets[start:end], timeout, retries)
				if err != nil {
					return err
				}
				for _, ip := range targets[start:end] {
					if mac, ok := res[ip]; ok {
						fmt.Printf("%-15v %v\n", ip, mac)
						found++
					}
				}
			}
			fmt.Printf("%v of %v addresses answered\n", found, len(targets))
			return nil
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 500*time.Millisecond, "time to wait for replies to each batch")
	cmd.Flags().IntVar(&retries, "retries", 2, "requests per address")
	return cmd
}

// scan resolves a batch of addresses, sending up to retries requests for
// each.
func (s *station) scan(ips []enc28j60.IPv4, timeout time.Duration, retries int) (map[enc28j60.IPv4]enc28j60.MAC, error) {
	s.Lock()
	defer s.Unlock()
	res := make(map[enc28j60.IPv4]enc28j60.MAC)
	for try := 0; try < retries && len(res) < len(ips); try++ {
		for _, ip := range ips {
			if _, ok := res[ip]; ok {
				continue
			}
			if _, _, err := s.d.WhoHas(ip); err != nil {
				return nil, s.annotate(err)
			}
		}
		deadline := time.Now().Add(timeout)
		for time.Now().Before(deadline) && len(res) < len(ips) {
			if err := s.poll(16); err != nil {
				return nil, err
			}
			for _, ip := range ips {
				if mac, ok := lookup(s.d, ip); ok {
					res[ip] = mac
				}
			}
			time.Sleep(time.Millisecond)
		}
	}
	return res, nil
}

// parseTargets expands addresses and IPv4 networks into host addresses.
func parseTargets(args []string) ([]enc28j60.IPv4, error) {
	var ret []enc28j60.IPv4
	for _, a := range args {
		if ip, err := enc28j60.ParseIPv4(a); err == nil {
			ret = append(ret, ip)
			continue
		}
		_, n, err := net.ParseCIDR(a)
		if err != nil || n.IP.To4() == nil {
			return nil, errors.Errorf("%q is neither an IPv4 address nor an IPv4 network", a)
		}
		ones, bits := n.Mask.Size()
		if bits-ones > 16 {
			return nil, errors.Errorf("network %v is too large to scan", n)
		}
		var base enc28j60.IPv4
		copy(base[:], n.IP.To4())
		count := uint32(1) << uint(bits-ones)
		for i := uint32(0); i < count; i++ {
			// skip the network and broadcast addresses of real subnets
			if count > 2 && (i == 0 || i == count-1) {
				continue
			}
			v := base.Uint32() + i
			ret = append(ret, enc28j60.IPv4{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)})
		}
	}
	return ret, nil
}
