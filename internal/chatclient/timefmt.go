package chatclient

import (
	"fmt"
	"time"
)

// RelativeTime renders a message timestamp the way the conversation
// list shows it: recency buckets for the last week, an absolute date
// beyond that. A zero timestamp renders as the empty string.
func RelativeTime(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}

	t = t.In(now.Location())
	elapsed := now.Sub(t)

	switch {
	case elapsed < time.Minute:
		return "Just now"
	case elapsed < time.Hour:
		return fmt.Sprintf("%dm ago", int(elapsed.Minutes()))
	case sameDay(t, now):
		return t.Format("3:04 PM")
	case sameDay(t, now.AddDate(0, 0, -1)):
		return "Yesterday"
	case elapsed < 7*24*time.Hour:
		return t.Format("Monday")
	default:
		return t.Format("Jan 2, 2006")
	}
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
