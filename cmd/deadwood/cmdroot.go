// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var (
	perServer       *uint
	attempts        *uint
	dnsTimeout      *time.Duration
	tcpTimeout      *time.Duration
	qps             *uint
	spinnerInterval *time.Duration
)

func newRootCmd() (rootCmd *cobra.Command) {
	rootCmd = &cobra.Command{
		Use:     "deadwood [flags] listfile",
		Short:   "deadwood removes dead domains from a domain list file, rewriting it in place",
		Version: "0.9",
		Args:    cobra.ExactArgs(1),
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			if *perServer < 1 || *perServer > 100 {
				return fmt.Errorf("--per-server out of range [1..100]")
			}
			if *attempts < 1 || *attempts > 50 {
				return fmt.Errorf("--attempts out of range [1..50]")
			}
			if *dnsTimeout < 100*time.Millisecond {
				return fmt.Errorf("--dns-timeout must be at least 100ms")
			}
			if *tcpTimeout < 100*time.Millisecond {
				return fmt.Errorf("--tcp-timeout must be at least 100ms")
			}
			if *spinnerInterval < 10*time.Millisecond {
				return fmt.Errorf("--spinner must be at least 10ms")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return WeedAndReport(context.Background(), args[0])
		},
	}
	// Sets up the flags.
	perServer = rootCmd.PersistentFlags().Uint(
		"per-server", 10, "max in-flight queries per DNS server")
	attempts = rootCmd.PersistentFlags().Uint(
		"attempts", 10, "max DNS query attempts per server")
	dnsTimeout = rootCmd.PersistentFlags().Duration(
		"dns-timeout", 3*time.Second, "base DNS query timeout per attempt")
	tcpTimeout = rootCmd.PersistentFlags().Duration(
		"tcp-timeout", 10*time.Second, "TCP connect timeout for web port probes")
	qps = rootCmd.PersistentFlags().Uint(
		"qps", 0, "overall DNS queries per second, 0 for unlimited")
	spinnerInterval = rootCmd.PersistentFlags().Duration(
		"spinner", 100*time.Millisecond, "spinner interval")
	return
}
