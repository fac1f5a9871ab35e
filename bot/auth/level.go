package auth

import (
	"fmt"
	"strconv"
	"strings"
)

// Level is an ordinal permission tier.
type Level int

const (
	None Level = iota
	User
	Mod
	Admin
)

func (l Level) String() string {
	switch l {
	case None:
		return "none"
	case User:
		return "user"
	case Mod:
		return "mod"
	case Admin:
		return "admin"
	}
	return "level(" + strconv.Itoa(int(l)) + ")"
}

// Valid reports whether l is one of the known tiers.
func (l Level) Valid() bool {
	return l >= None && l <= Admin
}

// ParseLevel accepts a tier name or its numeric value.
func ParseLevel(s string) (Level, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "none":
		return None, nil
	case "user":
		return User, nil
	case "mod", "moderator":
		return Mod, nil
	case "admin":
		return Admin, nil
	}
	n, err := strconv.Atoi(s)
	if err == nil && Level(n).Valid() {
		return Level(n), nil
	}
	return None, fmt.Errorf("auth: unknown level %q", s)
}
