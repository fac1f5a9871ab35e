package service

import (
	"fmt"
	"strings"
)

// Usage renders the command lines of one service, one per line.
func (s *Service) Usage() string {
	var b strings.Builder
	ns := s.Namespace()
	for _, c := range s.Table.Commands() {
		b.WriteString("/")
		b.WriteString(ns)
		if c.Name != "" {
			b.WriteString(" ")
			b.WriteString(c.Name)
		}
		if c.Pattern != "" {
			b.WriteString(" ")
			b.WriteString(c.Pattern)
		}
		if c.Description != "" {
			b.WriteString(" - ")
			b.WriteString(c.Description)
		}
		b.WriteString("\n")
	}
	if len(s.Commands) > 1 {
		fmt.Fprintf(&b, "Aliases: /%s\n", strings.Join(s.Commands[1:], ", /"))
	}
	return b.String()
}

// HelpText renders the global help page.
func HelpText(authCommand string, services []*Service) string {
	var b strings.Builder
	b.WriteString("Welcome to arrbot!\n\n")
	fmt.Fprintf(&b, "Authorize first with /%s <password>.\n", authCommand)
	b.WriteString("Then use the services below:\n")
	for _, s := range services {
		usage := s.Usage()
		if usage == "" {
			continue
		}
		fmt.Fprintf(&b, "\n%s (%s)\n", s.Name, s.Kind)
		b.WriteString(usage)
	}
	return strings.TrimRight(b.String(), "\n")
}
