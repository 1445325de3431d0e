package mediagroup

import (
	"sync"
	"time"
)

type Item struct {
	ChatID       int64
	UserID       int64
	Username     string
	MediaGroupID string
	Caption      string
	FileID       string
}

// Group is one Telegram album. FileIDs keep arrival order, so the first
// photo is the subject and the second the reference.
type Group struct {
	ChatID   int64
	UserID   int64
	Username string
	Caption  string
	FileIDs  []string
}

type Options struct {
	Debounce time.Duration
	// Limit flushes a group as soon as it holds this many photos.
	// Later photos of the same album are dropped.
	Limit   int
	OnFlush func(Group)
}

// Aggregator collects the photos of an album, which Telegram delivers as
// separate updates, and hands them over as one Group once the album has
// been quiet for the debounce interval.
type Aggregator struct {
	debounce time.Duration
	limit    int
	onFlush  func(Group)

	mu     sync.Mutex
	open   map[albumKey]*album
	closed map[albumKey]time.Time
}

type albumKey struct {
	chatID  int64
	groupID string
}

type album struct {
	group Group
	timer *time.Timer
}

// closedTTL bounds how long a flushed album keeps swallowing stragglers.
const closedTTL = time.Minute

func New(opts Options) *Aggregator {
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = 1200 * time.Millisecond
	}

	return &Aggregator{
		debounce: debounce,
		limit:    opts.Limit,
		onFlush:  opts.OnFlush,
		open:     make(map[albumKey]*album),
		closed:   make(map[albumKey]time.Time),
	}
}

func (a *Aggregator) Add(item Item) {
	if item.MediaGroupID == "" || item.FileID == "" {
		return
	}
	k := albumKey{chatID: item.ChatID, groupID: item.MediaGroupID}

	a.mu.Lock()
	if _, done := a.closed[k]; done {
		a.mu.Unlock()
		return
	}

	alb, ok := a.open[k]
	if !ok {
		alb = &album{group: Group{
			ChatID:   item.ChatID,
			UserID:   item.UserID,
			Username: item.Username,
		}}
		alb.timer = time.AfterFunc(a.debounce, func() { a.flush(k) })
		a.open[k] = alb
	} else {
		alb.timer.Reset(a.debounce)
	}
	alb.group.FileIDs = append(alb.group.FileIDs, item.FileID)
	if item.Caption != "" {
		alb.group.Caption = item.Caption
	}

	full := a.limit > 0 && len(alb.group.FileIDs) >= a.limit
	if full {
		alb.timer.Stop()
	}
	a.mu.Unlock()

	if full {
		a.flush(k)
	}
}

// Pending reports how many albums are still collecting photos.
func (a *Aggregator) Pending() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.open)
}

func (a *Aggregator) flush(k albumKey) {
	a.mu.Lock()
	alb, ok := a.open[k]
	if !ok {
		a.mu.Unlock()
		return
	}
	delete(a.open, k)
	if a.limit > 0 {
		a.closeLocked(k)
	}
	a.mu.Unlock()

	if a.onFlush != nil {
		a.onFlush(alb.group)
	}
}

func (a *Aggregator) closeLocked(k albumKey) {
	now := time.Now()
	for old, at := range a.closed {
		if now.Sub(at) > closedTTL {
			delete(a.closed, old)
		}
	}
	a.closed[k] = now
}
