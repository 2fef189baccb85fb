package notify

import "sync"

// DefaultFeedSize is the history kept by NewFeed(0).
const DefaultFeedSize = 100

// Entry is a notification with its position in the feed.
type Entry struct {
	Seq uint64 `json:"seq"`
	Notification
}

// Feed keeps the most recent notifications in memory. Sequence numbers start
// at 1 and never repeat, so a reader can ask for everything after the last
// entry it saw.
type Feed struct {
	mu      sync.RWMutex
	entries []Entry
	max     int
	seq     uint64
	subs    map[int]chan Entry
	nextSub int
}

// NewFeed creates a Feed holding at most size entries.
func NewFeed(size int) *Feed {
	if size <= 0 {
		size = DefaultFeedSize
	}
	return &Feed{
		entries: make([]Entry, 0, size),
		max:     size,
		subs:    make(map[int]chan Entry),
	}
}

// Show implements Notifier.
func (f *Feed) Show(n Notification) {
	f.mu.Lock()
	f.seq++
	e := Entry{Seq: f.seq, Notification: n}
	if len(f.entries) >= f.max {
		f.entries = f.entries[1:]
	}
	f.entries = append(f.entries, e)
	for _, ch := range f.subs {
		select {
		case ch <- e:
		default: // slow subscriber, drop
		}
	}
	f.mu.Unlock()
}

// Since returns the entries with a sequence number greater than seq, oldest
// first.
func (f *Feed) Since(seq uint64) []Entry {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]Entry, 0, len(f.entries))
	for _, e := range f.entries {
		if e.Seq > seq {
			out = append(out, e)
		}
	}
	return out
}

// Last returns the most recent entry.
func (f *Feed) Last() (Entry, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if len(f.entries) == 0 {
		return Entry{}, false
	}
	return f.entries[len(f.entries)-1], true
}

// Len returns the number of retained entries.
func (f *Feed) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.entries)
}

// Subscribe returns a channel receiving new entries and a function that
// cancels the subscription and closes the channel. Entries are dropped when
// the channel buffer is full.
func (f *Feed) Subscribe(buffer int) (<-chan Entry, func()) {
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan Entry, buffer)
	f.mu.Lock()
	id := f.nextSub
	f.nextSub++
	f.subs[id] = ch
	f.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.subs, id)
			f.mu.Unlock()
			close(ch)
		})
	}
}
