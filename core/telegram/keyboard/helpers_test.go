package keyboard

import "testing"

func TestSingleCancelMarkup(t *testing.T) {
	markup := SingleCancelMarkup("signup_cancel")
	if len(markup.InlineKeyboard) != 1 || len(markup.InlineKeyboard[0]) != 1 {
		t.Fatalf("keyboard = %+v, want one button", markup.InlineKeyboard)
	}
	btn := markup.InlineKeyboard[0][0]
	if btn.Unique != "signup_cancel" {
		t.Fatalf("unique = %q", btn.Unique)
	}
	if btn.Data != defaultCancelPayload || btn.Text != defaultCancelButtonText {
		t.Fatalf("button = %+v", btn)
	}
}

func TestCancelButtonOverrides(t *testing.T) {
	markup := SingleCancelMarkup("x", "stop", "Stop")
	btn := markup.InlineKeyboard[0][0]
	if btn.Data != "stop" || btn.Text != "Stop" {
		t.Fatalf("button = %+v", btn)
	}
}

func TestRemoveKeyboard(t *testing.T) {
	if !RemoveKeyboard().RemoveKeyboard {
		t.Fatal("expected remove flag")
	}
}
