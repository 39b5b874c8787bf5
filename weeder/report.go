// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package weeder

import "github.com/siemens/deadwood/types"

// Report is the outcome of a weeding run, classifying every checked domain.
// It is immutable once [Weeder.Weed] has returned it.
type Report struct {
	fates map[string]types.Fate
}

// Fate returns the classification of the given domain, or
// [types.Undecided] for domains that were not part of the run.
func (r *Report) Fate(domain string) types.Fate {
	return r.fates[domain]
}

// IsDead returns true if the given domain was classified dead.
func (r *Report) IsDead(domain string) bool {
	return r.fates[domain].IsDead()
}

// DeadCount returns the number of distinct dead domains.
func (r *Report) DeadCount() int {
	count := 0
	for _, fate := range r.fates {
		if fate.IsDead() {
			count++
		}
	}
	return count
}

// Alive filters the given domain list down to the surviving domains,
// preserving the input order.
func (r *Report) Alive(domains []string) []string {
	alive := make([]string, 0, len(domains))
	for _, domain := range domains {
		if r.fates[domain].IsDead() {
			continue
		}
		alive = append(alive, domain)
	}
	return alive
}
