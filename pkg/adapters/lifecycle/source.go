package lifecycle

import (
	"context"
	"path/filepath"
	"time"

	"github.com/aretw0/lifecycle"

	"github.com/aretw0/plume/pkg/core"
)

// DefaultSettle is how long a document file must stay quiet before its last
// change is reported.
const DefaultSettle = 100 * time.Millisecond

// changeSource turns the raw change stream of one document file into
// lifecycle events. Events for other paths are dropped and bursts are
// collapsed into their last event: an editor that saves by removing and
// recreating the file yields a single MODIFY, not a DELETE followed by one.
type changeSource struct {
	path   string
	settle time.Duration
	events <-chan core.Event
	out    chan lifecycle.Event
}

// NewSource creates a lifecycle.Source reporting external changes to the
// document at path, as seen by a core.Watchable store. A settle of zero
// forwards every event as it arrives.
func NewSource(path string, events <-chan core.Event, settle time.Duration) lifecycle.Source {
	return &changeSource{
		path:   filepath.Clean(path),
		settle: settle,
		events: events,
		out:    make(chan lifecycle.Event),
	}
}

func (s *changeSource) Events() <-chan lifecycle.Event {
	return s.out
}

func (s *changeSource) Start(ctx context.Context) error {
	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer close(s.out)
		var (
			pending *core.Event
			quiet   <-chan time.Time
		)
		for {
			select {
			case <-ctx.Done():
				return nil
			case e, ok := <-s.events:
				if !ok {
					if pending != nil {
						s.emit(ctx, *pending)
					}
					return nil
				}
				if filepath.Clean(e.Path) != s.path {
					continue
				}
				if s.settle <= 0 {
					if !s.emit(ctx, e) {
						return nil
					}
					continue
				}
				pending = &e
				quiet = time.After(s.settle)
			case <-quiet:
				quiet = nil
				if !s.emit(ctx, *pending) {
					return nil
				}
				pending = nil
			}
		}
	})
	return nil
}

// emit reports false when ctx ended before the event was taken.
func (s *changeSource) emit(ctx context.Context, e core.Event) bool {
	select {
	case s.out <- e:
		return true
	case <-ctx.Done():
		return false
	}
}
