// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package weeder

import "time"

// ServerGroup is a named pair of DNS server addresses of the same resolver
// provider, treated as one logical resolver choice point: each domain check
// queries exactly one of the pair's two addresses.
type ServerGroup struct {
	Name      string // resolver provider, e.g. "Google DNS".
	Primary   string // "ip:port"
	Secondary string // "ip:port"
}

// Config collects the tunables of a weeding run. The zero value is not
// usable; start from [DefaultConfig].
type Config struct {
	ServerGroups []ServerGroup // DNS server groups to query per domain.
	WebPorts     []int         // TCP ports probed on TCP-check candidates.

	PerServerLimit int           // max in-flight queries per DNS server address.
	MaxAttempts    int           // max query attempts per (domain, server).
	BaseTimeout    time.Duration // base per-attempt DNS query timeout.
	ProbeTimeout   time.Duration // TCP connect timeout.
	QPS            int           // overall DNS query rate cap; 0 is unlimited.
}

// DefaultConfig returns the stock configuration: five independent public
// resolver pairs, the plain web ports, and the battle-tested limits and
// timeouts.
func DefaultConfig() Config {
	return Config{
		ServerGroups: []ServerGroup{
			{Name: "Google DNS", Primary: "8.8.8.8:53", Secondary: "8.8.4.4:53"},
			{Name: "OpenDNS", Primary: "208.67.222.222:53", Secondary: "208.67.220.220:53"},
			{Name: "DNS.WATCH", Primary: "84.200.69.80:53", Secondary: "84.200.70.40:53"},
			{Name: "Level3 DNS", Primary: "209.244.0.3:53", Secondary: "209.244.0.4:53"},
			{Name: "Comodo Secure DNS", Primary: "8.26.56.26:53", Secondary: "8.20.247.20:53"},
		},
		WebPorts:       []int{80, 443},
		PerServerLimit: 10,
		MaxAttempts:    10,
		BaseTimeout:    3 * time.Second,
		ProbeTimeout:   10 * time.Second,
	}
}
