package relay

import (
	"sort"
	"sync"
)

// delivery is one event and the exact set of connections it reached.
type delivery struct {
	To    []string
	Event Event
}

// callLog records calls across fakes so tests can check their relative order.
// A nil *callLog records nothing.
type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) add(call string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, call)
}

// take returns and clears the recorded calls.
func (l *callLog) take() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := l.calls
	l.calls = nil
	return out
}

// fakeFanout resolves recipients from its own subscriptions and records every delivery.
type fakeFanout struct {
	mu         sync.Mutex
	rooms      map[string]map[string]bool
	deliveries []delivery
	calls      *callLog
}

func newFakeFanout() *fakeFanout {
	return &fakeFanout{rooms: make(map[string]map[string]bool)}
}

func (f *fakeFanout) Subscribe(connID, roomID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.rooms[roomID] == nil {
		f.rooms[roomID] = make(map[string]bool)
	}
	f.rooms[roomID][connID] = true
}

func (f *fakeFanout) Unsubscribe(connID, roomID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.rooms[roomID], connID)
	if len(f.rooms[roomID]) == 0 {
		delete(f.rooms, roomID)
	}
}

func (f *fakeFanout) ToSelf(connID string, ev Event) {
	f.calls.add("ToSelf " + ev.Type)
	f.record([]string{connID}, ev)
}

func (f *fakeFanout) ToOthers(connID, roomID string, ev Event) {
	f.calls.add("ToOthers " + ev.Type)
	f.record(f.members(roomID, connID), ev)
}

func (f *fakeFanout) ToRoom(roomID string, ev Event) {
	f.calls.add("ToRoom " + ev.Type)
	f.record(f.members(roomID, ""), ev)
}

func (f *fakeFanout) members(roomID, except string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for id := range f.rooms[roomID] {
		if id != except {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

func (f *fakeFanout) record(to []string, ev Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deliveries = append(f.deliveries, delivery{To: to, Event: ev})
}

// take returns and clears the recorded deliveries.
func (f *fakeFanout) take() []delivery {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.deliveries
	f.deliveries = nil
	return out
}

// ofType filters deliveries by event type.
func ofType(ds []delivery, eventType string) []delivery {
	var out []delivery
	for _, d := range ds {
		if d.Event.Type == eventType {
			out = append(out, d)
		}
	}
	return out
}
