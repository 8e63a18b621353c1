package corpus

import (
	"strings"
)

// TagCounts summarizes a TagMe pass.
type TagCounts struct {
	FromMe int
	ToMe   int
}

// NormalizeAddresses trims and lower-cases addresses, dropping empties.
func NormalizeAddresses(addrs []string) []string {
	var out []string
	for _, a := range addrs {
		for _, part := range strings.Split(a, ",") {
			if part = strings.ToLower(strings.TrimSpace(part)); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// TagMe sets FromMe and ToMe on every record of c. Addresses are compared
// case-insensitively after trimming.
func TagMe(c *Corpus, addresses []string) TagCounts {
	me := make(map[string]bool)
	for _, a := range NormalizeAddresses(addresses) {
		me[a] = true
	}
	var counts TagCounts
	for _, r := range c.Records() {
		r.FromMe = me[strings.ToLower(r.Sender.Email)]
		r.ToMe = false
		for _, rcpt := range r.Recipients {
			if me[strings.ToLower(rcpt.Email)] {
				r.ToMe = true
				break
			}
		}
		if r.FromMe {
			counts.FromMe++
		}
		if r.ToMe {
			counts.ToMe++
		}
	}
	return counts
}

// DetectMe guesses the mailbox owner as the most frequent recipient address.
// Ties go to the address seen first. It returns "" for a corpus with no
// recipients.
func DetectMe(c *Corpus) string {
	counts := make(map[string]int)
	var order []string
	for _, r := range c.Records() {
		seen := make(map[string]bool, len(r.Recipients))
		for _, rcpt := range r.Recipients {
			addr := strings.ToLower(strings.TrimSpace(rcpt.Email))
			if addr == "" || seen[addr] {
				continue
			}
			seen[addr] = true
			if _, ok := counts[addr]; !ok {
				order = append(order, addr)
			}
			counts[addr]++
		}
	}
	best, bestN := "", 0
	for _, addr := range order {
		if counts[addr] > bestN {
			best, bestN = addr, counts[addr]
		}
	}
	return best
}
