// Package commands describes slash commands exposed by a bot.
package commands

import (
	"errors"
	"strings"

	tele "gopkg.in/telebot.v4"
)

// Command represents a bot command with its handler, description, and metadata.
type Command struct {
	Handler     tele.HandlerFunc
	Description string
	// AdminOnly commands pass through the admin check and are never listed in the menu.
	AdminOnly bool
	Hidden    bool
	Aliases   []string
}

// Validate checks that name and cmd can be registered.
func (c Command) Validate(name string) error {
	switch {
	case !strings.HasPrefix(name, "/") || len(name) < 2:
		return errors.New("name must start with '/'")
	case strings.ContainsAny(name, " \t\n"):
		return errors.New("name must not contain spaces")
	case c.Handler == nil:
		return errors.New("nil handler")
	case strings.TrimSpace(c.Description) == "":
		return errors.New("empty description")
	}
	return nil
}

// Listed reports whether the command belongs to the public command menu.
func (c Command) Listed() bool {
	return !c.Hidden && !c.AdminOnly
}

// Matches reports whether text names one of the aliases of the command.
func (c Command) Matches(text string) bool {
	text = strings.TrimPrefix(strings.TrimSpace(text), "/")
	for _, alias := range c.Aliases {
		if strings.EqualFold(strings.TrimPrefix(alias, "/"), text) {
			return true
		}
	}
	return false
}
