// Package auth maps chat users to role levels and gates operations on them.
package auth

import (
	"context"
	"crypto/subtle"
	"fmt"
	"log/slog"
	"strings"

	"github.com/m3rciful/arrbot/core/logger"
)

const (
	// NotAuthorizedText is shown when a user lacks the level for a command.
	NotAuthorizedText = "You are not authorized to use this bot. Authorize with /auth <password>"
	// WrongPasswordText is the reply to an unmatched /auth secret.
	WrongPasswordText = "Wrong password"
)

// Passwords holds the configured secret per tier. Empty secrets never match.
type Passwords struct {
	Admin string
	Mod   string
	User  string
}

// Match returns the highest tier whose secret equals s.
func (p Passwords) Match(s string) Level {
	s = strings.TrimSpace(s)
	if s == "" {
		return None
	}
	for _, tier := range []struct {
		secret string
		level  Level
	}{
		{p.Admin, Admin},
		{p.Mod, Mod},
		{p.User, User},
	} {
		if tier.secret != "" && subtle.ConstantTimeCompare([]byte(tier.secret), []byte(s)) == 1 {
			return tier.level
		}
	}
	return None
}

// Gate resolves user levels through a Store.
type Gate struct {
	store     Store
	passwords Passwords
}

// NewGate builds a Gate.
func NewGate(store Store, passwords Passwords) *Gate {
	return &Gate{store: store, passwords: passwords}
}

// Level returns the stored level of a user.
func (g *Gate) Level(ctx context.Context, userID int64) (Level, error) {
	return g.store.Level(ctx, userID)
}

// Check reports whether userID holds at least min. Users without a record never pass.
func (g *Gate) Check(ctx context.Context, userID int64, min Level) (bool, Level, error) {
	lvl, err := g.store.Level(ctx, userID)
	if err != nil {
		return false, None, fmt.Errorf("auth: level lookup: %w", err)
	}
	return lvl != None && lvl >= min, lvl, nil
}

// Authenticate upserts the user at the tier matching secret and returns the reply text.
// A wrong secret leaves any existing record untouched.
func (g *Gate) Authenticate(ctx context.Context, userID int64, name, secret string) (Level, string, error) {
	lvl := g.passwords.Match(secret)
	if lvl == None {
		logger.Info(ctx, "auth", "auth.password",
			slog.String("status", "fail"),
			slog.Int64("user_id", userID),
		)
		return None, WrongPasswordText, nil
	}
	if err := g.store.SetLevel(ctx, userID, name, lvl); err != nil {
		return None, "", err
	}
	logger.Info(ctx, "auth", "auth.password",
		slog.String("status", "ok"),
		slog.Int64("user_id", userID),
		slog.String("level", lvl.String()),
	)
	return lvl, AuthorizedText(name, lvl), nil
}

// AuthorizedText renders the confirmation for a successful /auth.
func AuthorizedText(name string, lvl Level) string {
	switch lvl {
	case Admin:
		return fmt.Sprintf("Authorized user %s as admin", name)
	case Mod:
		return fmt.Sprintf("Authorized user %s as mod", name)
	}
	return fmt.Sprintf("Authorized user %s", name)
}
