package keymat

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Prompter asks the operator yes/no questions. An empty or unrecognized
// answer counts as no.
type Prompter struct {
	In  io.Reader
	Out io.Writer
}

// Confirm prints the question and reads one line. Only "y" or "yes"
// (case-insensitive) confirm.
func (p *Prompter) Confirm(question string) (bool, error) {
	if _, err := fmt.Fprintf(p.Out, "%s [y/N]: ", question); err != nil {
		return false, err
	}
	r := bufio.NewReader(p.In)
	line, err := r.ReadString('\n')
	if err != nil && err != io.EOF {
		return false, fmt.Errorf("read confirmation: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}
