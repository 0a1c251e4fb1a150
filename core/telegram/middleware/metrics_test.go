package middleware

import (
	"testing"

	tele "gopkg.in/telebot.v4"
)

type countingContext struct {
	tele.Context
	store map[string]interface{}
}

func (c *countingContext) Get(key string) interface{} { return c.store[key] }

func (c *countingContext) Set(key string, v interface{}) { c.store[key] = v }

func (c *countingContext) Send(interface{}, ...interface{}) error { return nil }

func TestMessageMetricsMiddleware(t *testing.T) {
	c := &countingContext{store: map[string]interface{}{}}
	h := MessageMetricsMiddleware(func(c tele.Context) error {
		if err := c.Send("plain"); err != nil {
			return err
		}
		return c.Send("with keyboard", &tele.SendOptions{ReplyMarkup: &tele.ReplyMarkup{RemoveKeyboard: true}})
	})
	if err := h(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	msgs, kb := GetCounters(c)
	if msgs != 2 || !kb {
		t.Fatalf("counters = %d, %v", msgs, kb)
	}
}

func TestHasKeyboard(t *testing.T) {
	if hasKeyboard(nil) || hasKeyboard([]interface{}{&tele.SendOptions{}}) {
		t.Fatal("no markup means no keyboard")
	}
	if !hasKeyboard([]interface{}{&tele.ReplyMarkup{}}) {
		t.Fatal("markup option should count")
	}
}
