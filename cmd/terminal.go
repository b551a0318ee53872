package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// terminalNavigator stands in for the browser redirect: the session is
// stored, so it points the user at the application root.
type terminalNavigator struct {
	out  io.Writer
	base string
}

func (n *terminalNavigator) Replace(path string) error {
	_, err := fmt.Fprintf(n.out, "Login successful. Continue at %s%s\n", n.base, path)
	return err
}

type prompter struct {
	in  *bufio.Reader
	out io.Writer
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	return &prompter{in: bufio.NewReader(in), out: out}
}

// valueOrPrompt returns value, or asks for it on the terminal when empty.
// A closed input yields an empty value; the backend reports it.
func (p *prompter) valueOrPrompt(value, label string) string {
	if value != "" {
		return value
	}
	fmt.Fprintf(p.out, "%s: ", label)
	line, _ := p.in.ReadString('\n')
	return strings.TrimRight(line, "\r\n")
}
