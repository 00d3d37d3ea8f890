package session

import "searoute/internal/types"

// UpdateLogSize is the number of recent updates retained.
const UpdateLogSize = 5

// UpdateLog is a bounded ring of recent update events.
type UpdateLog struct {
	buf   [UpdateLogSize]types.UpdateEvent
	next  int
	count int
}

// Push records ev, evicting the oldest entry when full.
func (l *UpdateLog) Push(ev types.UpdateEvent) {
	l.buf[l.next] = ev
	l.next = (l.next + 1) % UpdateLogSize
	if l.count < UpdateLogSize {
		l.count++
	}
}

// Entries returns the retained events, newest first.
func (l *UpdateLog) Entries() []types.UpdateEvent {
	out := make([]types.UpdateEvent, 0, l.count)
	for i := 1; i <= l.count; i++ {
		idx := (l.next - i + UpdateLogSize) % UpdateLogSize
		out = append(out, l.buf[idx])
	}
	return out
}

// Len returns the number of retained events.
func (l *UpdateLog) Len() int {
	return l.count
}

// Reset empties the log.
func (l *UpdateLog) Reset() {
	*l = UpdateLog{}
}
