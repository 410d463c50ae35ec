// Package state keeps per-chat conversation sessions for multi-step flows.
// Sessions live in process memory only; an interrupted conversation simply
// restarts at the next interaction after a process restart.
package state

// Step identifies the next expected input of a conversation.
type Step string

// StepIdle indicates there is no active conversation with the chat.
const StepIdle Step = "idle"

// Session holds the pending step and the values collected so far.
// Values are ordered the way the flow collected them; Ref carries a
// numeric identifier when a flow targets an existing record (e.g. the
// request being rejected).
type Session struct {
	Step   Step
	Values []string
	Ref    int64
}

// WithValue returns a copy of the session with one more collected value.
func (s Session) WithValue(v string) Session {
	values := make([]string, 0, len(s.Values)+1)
	values = append(values, s.Values...)
	values = append(values, v)
	s.Values = values
	return s
}

// Store persists sessions keyed by chat identifier.
type Store interface {
	Get(chatID int64) (Session, bool)
	Put(chatID int64, s Session)
	Clear(chatID int64)
	InProgress(chatID int64) bool
}
