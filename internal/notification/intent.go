package notification

import (
	"fmt"
	"time"
)

// MessageKind identifies what a notification is about.
type MessageKind string

const (
	KindCycleWarning MessageKind = "cycle_warning"
	KindCycleDone    MessageKind = "cycle_done"
	KindForceStopped MessageKind = "force_stopped"
	KindOverridden   MessageKind = "overridden"
	KindPinged       MessageKind = "pinged"
)

// Payload carries the facts a message is rendered from.
type Payload struct {
	MachineID    string     `json:"machine_id"`
	MachineLabel string     `json:"machine_label"`
	MachineKind  string     `json:"machine_kind"`
	Level        string     `json:"level"`
	ActorID      string     `json:"actor_id,omitempty"`
	ActorName    string     `json:"actor_name,omitempty"`
	CycleEndAt   *time.Time `json:"cycle_end_at,omitempty"`
	MinutesLeft  int        `json:"minutes_left,omitempty"`
	Actions      []string   `json:"actions,omitempty"`
}

// Intent asks for one message to be delivered to one user.
type Intent struct {
	UserID  string      `json:"user_id"`
	Kind    MessageKind `json:"kind"`
	Payload Payload     `json:"payload"`
}

// Message is the rendered push body sent to the browser.
type Message struct {
	Title   string      `json:"title"`
	Body    string      `json:"body"`
	Kind    MessageKind `json:"kind"`
	Payload Payload     `json:"payload"`
}

// Render turns an intent into the human-readable message.
func Render(in Intent) Message {
	p := in.Payload
	where := fmt.Sprintf("%s %s (Level %s)", p.MachineKind, p.MachineLabel, p.Level)
	actor := p.ActorName
	if actor == "" {
		actor = "another user"
	}

	msg := Message{Kind: in.Kind, Payload: p}
	switch in.Kind {
	case KindCycleWarning:
		msg.Title = "5 minutes left"
		msg.Body = fmt.Sprintf("⏳ Your laundry in %s is almost done.", where)
		if p.MinutesLeft > 0 {
			msg.Title = fmt.Sprintf("%d minutes left", p.MinutesLeft)
		}
	case KindCycleDone:
		msg.Title = "Laundry Done!"
		msg.Body = fmt.Sprintf("🧺 Your laundry in %s is ready. Please collect it.", where)
	case KindForceStopped:
		msg.Title = "Cycle ended"
		msg.Body = fmt.Sprintf("🚨 Your cycle on %s was ended by %s.", where, actor)
	case KindOverridden:
		msg.Title = "Cycle overridden"
		msg.Body = fmt.Sprintf("⚠️ %s restarted %s over your cycle.", actor, where)
	case KindPinged:
		msg.Title = "Someone is waiting"
		msg.Body = fmt.Sprintf("👋 %s is waiting for %s. Please collect your laundry.", actor, where)
	default:
		msg.Title = "Laundry update"
		msg.Body = where
	}
	return msg
}
