// Package chat turns repeated full dumps of the server chat ring buffer into
// an exactly-once stream of typed events.
package chat

import "regexp"

// EventType classifies one chat line.
type EventType string

// Event types produced by ParseLine.
const (
	EventChat    EventType = "player_chat"
	EventJoined  EventType = "player_joined"
	EventLeft    EventType = "player_left"
	EventDied    EventType = "player_died"
	EventAdmin   EventType = "admin_message"
	EventUnknown EventType = "unknown"
)

// Event is one parsed chat line. Player and Message are empty for types that
// do not carry them.
type Event struct {
	Type    EventType `json:"event_type"`
	Player  string    `json:"player_name"`
	Message string    `json:"message"`
	Raw     string    `json:"-"`
}

var (
	// Admin player chat: <SP>[Admin]</><PN>Name:</>Message
	// Checked before plain chat since the plain pattern cannot match it.
	adminChatRe = regexp.MustCompile(`^<SP>\[Admin\]</><PN>(.+?):</>(.+)$`)

	// Plain chat: <PN>Name:</>Message
	chatRe = regexp.MustCompile(`^<PN>(.+?):</>(.+)$`)

	joinedRe = regexp.MustCompile(`^Player Joined \(<PN>(.+?)</>\)$`)
	leftRe   = regexp.MustCompile(`^Player Left \(<PN>(.+?)</>\)$`)
	diedRe   = regexp.MustCompile(`^Player died \(<PN>(.+?)</>\)$`)

	// Admin broadcast: <SP>Admin: Message</>
	adminRe = regexp.MustCompile(`^<SP>Admin: (.+)</>$`)
)

// ParseLine classifies a single chat buffer line. Lines matching no known
// marker pattern classify as unknown and carry only the raw text.
func ParseLine(line string) Event {
	if m := adminChatRe.FindStringSubmatch(line); m != nil {
		return Event{Type: EventChat, Player: m[1], Message: m[2], Raw: line}
	}

	if m := chatRe.FindStringSubmatch(line); m != nil {
		return Event{Type: EventChat, Player: m[1], Message: m[2], Raw: line}
	}

	if m := joinedRe.FindStringSubmatch(line); m != nil {
		return Event{Type: EventJoined, Player: m[1], Raw: line}
	}

	if m := leftRe.FindStringSubmatch(line); m != nil {
		return Event{Type: EventLeft, Player: m[1], Raw: line}
	}

	if m := diedRe.FindStringSubmatch(line); m != nil {
		return Event{Type: EventDied, Player: m[1], Raw: line}
	}

	if m := adminRe.FindStringSubmatch(line); m != nil {
		return Event{Type: EventAdmin, Message: m[1], Raw: line}
	}

	return Event{Type: EventUnknown, Raw: line}
}
