package enum

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// ReadCandidates reads a newline-delimited wordlist: each non-empty
// trimmed line is one candidate username, in file order. Duplicates
// are kept; the caller asked for them.
func ReadCandidates(r io.Reader) ([]string, error) {
	var users []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		user := strings.TrimSpace(sc.Text())
		if user == "" {
			continue
		}
		users = append(users, user)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading wordlist: %w", err)
	}
	return users, nil
}
