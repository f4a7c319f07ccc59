// Package conversation turns the flat message snapshot into the display
// sequence of the chat room: day separators interleaved with messages, each
// message attributed to the local user or to the counterpart.
package conversation

import (
	"time"

	"github.com/saravenpi/milkyway/internal/models"
)

type ItemKind int

const (
	ItemMessage ItemKind = iota
	ItemSeparator
	ItemEmpty
)

const EmptyText = "No messages yet. Start the conversation!"

// DisplayItem is one row of the room. Message is set for ItemMessage, Label
// for ItemSeparator and ItemEmpty.
type DisplayItem struct {
	Kind    ItemKind
	Label   string
	Day     string
	Message models.ChatMessage
	Own     bool
}

type Options struct {
	// Self is the local user's identity. When empty, ownership falls back to
	// the consecutive-sender heuristic.
	Self     models.Identity
	Location *time.Location
	// Now anchors the "Today" and "Yesterday" labels.
	Now time.Time
}

// Group builds the display sequence for messages, which must already be in
// the backend's non-decreasing timestamp order. An empty input yields a
// single ItemEmpty entry.
func Group(messages []models.ChatMessage, opts Options) []DisplayItem {
	if len(messages) == 0 {
		return []DisplayItem{{Kind: ItemEmpty, Label: EmptyText}}
	}

	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	now = now.In(loc)

	items := make([]DisplayItem, 0, len(messages)+4)
	var prevDay string
	for i, msg := range messages {
		t := msg.Time(loc)
		day := DayKey(t)
		if i == 0 || day != prevDay {
			items = append(items, DisplayItem{Kind: ItemSeparator, Label: DayLabel(t, now), Day: day})
		}
		prevDay = day

		items = append(items, DisplayItem{
			Kind:    ItemMessage,
			Message: msg,
			Day:     day,
			Own:     isOwn(items, msg, opts.Self),
		})
	}
	return items
}

// isOwn attributes msg. With a known identity the sender decides. Without
// one the message counts as own iff the item just before it is a message
// from the same sender, which is only an approximation: it misattributes the
// first message of every run and every message after a separator.
func isOwn(items []DisplayItem, msg models.ChatMessage, self models.Identity) bool {
	if self != "" {
		return msg.Sender == self
	}
	if len(items) == 0 {
		return false
	}
	prev := items[len(items)-1]
	return prev.Kind == ItemMessage && prev.Message.Sender == msg.Sender
}

// DayKey identifies the calendar day of t in t's location.
func DayKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// DayLabel renders the separator text for t relative to now.
func DayLabel(t, now time.Time) string {
	t = t.In(now.Location())
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, now.Location())

	switch {
	case day.Equal(today):
		return "Today"
	case day.Equal(today.AddDate(0, 0, -1)):
		return "Yesterday"
	}
	return t.Format("Monday, January 2, 2006")
}

// Counterpart returns the first sender that is not self, if any.
func Counterpart(messages []models.ChatMessage, self models.Identity) (models.Identity, bool) {
	for _, msg := range messages {
		if msg.Sender != self {
			return msg.Sender, true
		}
	}
	return "", false
}
