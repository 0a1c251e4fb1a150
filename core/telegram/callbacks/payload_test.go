package callbacks

import (
	"testing"

	tele "gopkg.in/telebot.v4"
)

func TestParse(t *testing.T) {
	cases := []struct {
		cb      *tele.Callback
		unique  string
		payload string
	}{
		{cb: nil},
		{cb: &tele.Callback{Unique: "signup_cancel", Data: "cancel"}, unique: "signup_cancel", payload: "cancel"},
		{cb: &tele.Callback{Data: "\fsignup_cancel|cancel"}, unique: "signup_cancel", payload: "cancel"},
		{cb: &tele.Callback{Data: "\\fstats"}, unique: "stats"},
		{cb: &tele.Callback{Data: " plain |a|b"}, unique: "plain", payload: "a|b"},
	}
	for _, tc := range cases {
		u, p := Parse(tc.cb)
		if u != tc.unique || p != tc.payload {
			t.Fatalf("Parse(%+v) = %q, %q; want %q, %q", tc.cb, u, p, tc.unique, tc.payload)
		}
	}
}
