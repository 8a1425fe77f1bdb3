package lsp

import (
	"fmt"
	"slices"
	"strconv"
	"sync"
)

// Work-done progress kinds carried in WorkDoneProgressValue.Kind.
const (
	ProgressBegin  = "begin"
	ProgressReport = "report"
	ProgressEnd    = "end"
)

// Progress is the last known state of one work-done progress token.
type Progress struct {
	Token       ProgressToken
	Title       string
	Message     string
	Percentage  *uint32
	Cancellable bool
	Done        bool
}

// ProgressTracker records server-initiated work-done progress.
type ProgressTracker struct {
	mu      sync.Mutex
	entries map[string]*Progress
	order   []string
}

// NewProgressTracker creates an empty tracker.
func NewProgressTracker() *ProgressTracker {
	return &ProgressTracker{entries: make(map[string]*Progress)}
}

// tokenKey maps a token to a map key. Tokens are strings or numbers; the
// type prefix keeps "1" and 1 apart.
func tokenKey(token ProgressToken) string {
	switch t := token.(type) {
	case string:
		return "s:" + t
	case float64:
		return "n:" + strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return "n:" + strconv.Itoa(t)
	case int64:
		return "n:" + strconv.FormatInt(t, 10)
	default:
		return fmt.Sprintf("%T:%v", t, t)
	}
}

// Create starts tracking token. Creating a known token resets it.
func (t *ProgressTracker) Create(token ProgressToken) {
	key := tokenKey(token)

	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.entries[key]; !ok {
		t.order = append(t.order, key)
	}

	t.entries[key] = &Progress{Token: token}
}

// Update applies a $/progress payload and returns the new state.
//
// Updates for tokens that were never created are accepted as well, since
// servers may report progress for tokens the client chose.
func (t *ProgressTracker) Update(params ProgressParams) Progress {
	key := tokenKey(params.Token)

	t.mu.Lock()
	defer t.mu.Unlock()

	entry, ok := t.entries[key]
	if !ok {
		entry = &Progress{Token: params.Token}
		t.entries[key] = entry
		t.order = append(t.order, key)
	}

	v := params.Value

	switch v.Kind {
	case ProgressBegin:
		entry.Title = v.Title
		entry.Cancellable = v.Cancellable
		entry.Done = false
	case ProgressEnd:
		entry.Done = true
	}

	if v.Message != "" {
		entry.Message = v.Message
	}

	if v.Percentage != nil {
		pct := *v.Percentage
		entry.Percentage = &pct
	}

	return entry.copy()
}

// Get returns the state of token.
func (t *ProgressTracker) Get(token ProgressToken) (Progress, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry, ok := t.entries[tokenKey(token)]
	if !ok {
		return Progress{}, false
	}

	return entry.copy(), true
}

// Active returns the unfinished progress entries in creation order.
func (t *ProgressTracker) Active() []Progress {
	t.mu.Lock()
	defer t.mu.Unlock()

	active := make([]Progress, 0, len(t.order))

	for _, key := range t.order {
		if entry := t.entries[key]; !entry.Done {
			active = append(active, entry.copy())
		}
	}

	return active
}

// Forget drops finished entries.
func (t *ProgressTracker) Forget() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.order = slices.DeleteFunc(t.order, func(key string) bool {
		if t.entries[key].Done {
			delete(t.entries, key)

			return true
		}

		return false
	})
}

func (p *Progress) copy() Progress {
	out := *p
	if p.Percentage != nil {
		pct := *p.Percentage
		out.Percentage = &pct
	}

	return out
}
