package conversation

import "squad/internal/roster"

// TaskSource authors the seeded task message at the start of every cycle.
// It is not a roster role and never gets a turn of its own.
const TaskSource roster.ID = "task"

// Message is one turn of the shared conversation. Immutable once appended.
type Message struct {
	Seq     int       `json:"seq"`
	Author  roster.ID `json:"author"`
	Content string    `json:"content"`
	Cycle   int       `json:"cycle"`
}

// Log is the append-only, strictly ordered message log for one cycle.
// Sequence numbers start at zero and increase by one per append; the log is
// discarded with its cycle and never survives a restart.
type Log struct {
	cycle int
	msgs  []Message
}

func NewLog(cycle int) *Log {
	return &Log{cycle: cycle}
}

// Append assigns the next sequence number and returns the stored message.
func (l *Log) Append(author roster.ID, content string) Message {
	m := Message{
		Seq:     len(l.msgs),
		Author:  author,
		Content: content,
		Cycle:   l.cycle,
	}
	l.msgs = append(l.msgs, m)
	return m
}

// Messages returns the ordered history. Callers treat it as read-only.
func (l *Log) Messages() []Message { return l.msgs }

func (l *Log) Last() (Message, bool) {
	if len(l.msgs) == 0 {
		return Message{}, false
	}
	return l.msgs[len(l.msgs)-1], true
}

func (l *Log) Len() int   { return len(l.msgs) }
func (l *Log) Cycle() int { return l.cycle }
