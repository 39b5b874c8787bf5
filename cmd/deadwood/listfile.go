// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package main

import (
	"bufio"
	"bytes"
	"os"
	"strings"
)

// readDomainList reads a domain list file, one domain per line, stripping
// trailing whitespace. No blank-line or comment handling: the file format
// is dumb on purpose.
func readDomainList(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	var domains []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		domains = append(domains, strings.TrimRight(scanner.Text(), " \t\r"))
	}
	return domains, scanner.Err()
}

// writeDomainList rewrites a domain list file with the given surviving
// domains, one per line.
func writeDomainList(path string, domains []string) error {
	var buf bytes.Buffer
	for _, domain := range domains {
		buf.WriteString(domain)
		buf.WriteByte('\n')
	}
	return os.WriteFile(path, buf.Bytes(), 0644)
}
