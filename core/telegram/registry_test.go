package telegram

import (
	"testing"

	"github.com/m3rciful/signupbot/core/telegram/commands"

	tele "gopkg.in/telebot.v4"
)

func noop(tele.Context) error { return nil }

func TestRegistryCommands(t *testing.T) {
	reg := NewRegistry()
	if err := reg.RegisterCommand("/start", commands.Command{Handler: noop, Description: "Start", Aliases: []string{"begin"}}); err != nil {
		t.Fatalf("register start: %v", err)
	}
	if err := reg.RegisterCommand("/stats", commands.Command{Handler: noop, Description: "Stats", AdminOnly: true}); err != nil {
		t.Fatalf("register stats: %v", err)
	}
	if err := reg.RegisterCommand("/start", commands.Command{Handler: noop, Description: "again"}); err == nil {
		t.Fatal("duplicate accepted")
	}
	if err := reg.RegisterCommand("start", commands.Command{Handler: noop, Description: "x"}); err == nil {
		t.Fatal("name without slash accepted")
	}

	menu := reg.ListCommands(true)
	if len(menu) != 1 || menu[0].Text != "start" {
		t.Fatalf("menu = %+v", menu)
	}
	if all := reg.ListCommands(false); len(all) != 2 {
		t.Fatalf("all = %+v", all)
	}

	for _, text := range []string{"/start", "/start@signup_bot", "/start payload", "begin"} {
		if key, _, ok := reg.LookupCommand(text); !ok || key != "/start" {
			t.Fatalf("LookupCommand(%q) = %q, %v", text, key, ok)
		}
	}
	for _, text := range []string{"", "start", "hello"} {
		if _, _, ok := reg.LookupCommand(text); ok {
			t.Fatalf("LookupCommand(%q) should miss", text)
		}
	}
}

func TestRegistryCallbacks(t *testing.T) {
	reg := NewRegistry()
	if err := reg.RegisterCallback("signup_cancel", noop); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := reg.RegisterCallback("signup_cancel", noop); err == nil {
		t.Fatal("duplicate accepted")
	}
	if err := reg.RegisterCallback("", noop); err == nil {
		t.Fatal("empty key accepted")
	}
	if _, ok := reg.GetCallback("signup_cancel"); !ok {
		t.Fatal("callback not found")
	}
	if got := reg.ListCallbacks(); len(got) != 1 {
		t.Fatalf("callbacks = %v", got)
	}
	if reg.CallbackNotFound() == nil {
		t.Fatal("default not-found handler missing")
	}
}
