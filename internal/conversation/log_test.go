package conversation

import "testing"

func TestLogAppendAssignsSequence(t *testing.T) {
	l := NewLog(2)

	first := l.Append(TaskSource, "build it")
	second := l.Append("Manager", "on it")
	third := l.Append("Backend_Dev", "code")

	if first.Seq != 0 || second.Seq != 1 || third.Seq != 2 {
		t.Errorf("sequence numbers not monotonic from zero: %d %d %d",
			first.Seq, second.Seq, third.Seq)
	}
	for _, m := range l.Messages() {
		if m.Cycle != 2 {
			t.Errorf("message %d stamped with cycle %d, want 2", m.Seq, m.Cycle)
		}
	}
	if l.Len() != 3 {
		t.Errorf("expected 3 messages, got %d", l.Len())
	}
}

func TestLogLast(t *testing.T) {
	l := NewLog(0)
	if _, ok := l.Last(); ok {
		t.Error("empty log should have no last message")
	}
	l.Append(TaskSource, "task")
	l.Append("Manager", "plan")
	last, ok := l.Last()
	if !ok || last.Author != "Manager" {
		t.Errorf("unexpected last message: %+v (ok=%v)", last, ok)
	}
}

func TestFreshLogStartsAtZero(t *testing.T) {
	// A restart builds a new log; sequence numbers reset with it.
	old := NewLog(0)
	old.Append(TaskSource, "task")
	old.Append("Manager", "plan")

	fresh := NewLog(1)
	m := fresh.Append(TaskSource, "task")
	if m.Seq != 0 {
		t.Errorf("fresh cycle should restart sequence at 0, got %d", m.Seq)
	}
	if m.Cycle != 1 {
		t.Errorf("fresh cycle number should be 1, got %d", m.Cycle)
	}
}
