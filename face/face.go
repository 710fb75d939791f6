package face

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// State is everything published to a clock face on a successful tick.
type State struct {
	// Text is the raw timestamp string as returned by the time source.
	Text  string
	Hands Hands
}

// Surface is a clock face which accepts published states.
type Surface interface {
	Publish(state State) error
}

// Face is an in-memory Surface read by the HTTP handlers which render the
// clock.
type Face struct {
	// state is overwritten on every publish, protected from race conditions
	// by stateMux.
	state       State
	publishedAt time.Time
	stateMux    *sync.RWMutex
}

func NewFace() *Face {
	return &Face{stateMux: &sync.RWMutex{}}
}

func (f *Face) Publish(state State) error {
	f.stateMux.Lock()
	f.state = state
	f.publishedAt = time.Now()
	f.stateMux.Unlock()
	return nil
}

// Snapshot returns the last published state. ok is false if nothing has been
// published yet, in which case the zero State is returned.
func (f *Face) Snapshot() (state State, ok bool) {
	f.stateMux.RLock()
	defer f.stateMux.RUnlock()
	return f.state, !f.publishedAt.IsZero()
}

// PublishedAt is the local time of the last publish.
func (f *Face) PublishedAt() time.Time {
	f.stateMux.RLock()
	defer f.stateMux.RUnlock()
	return f.publishedAt
}

// Multi publishes to every surface in order. In-memory faces are written last,
// and only if every other surface accepted the state, so a face never shows a
// state whose tick failed. A failing external surface does not stop
// publication to the other external surfaces; all errors are returned joined.
type Multi []Surface

func (m Multi) Publish(state State) error {
	var errs []error
	var faces []*Face
	for i, s := range m {
		if f, ok := s.(*Face); ok {
			faces = append(faces, f)
			continue
		}
		if err := s.Publish(state); err != nil {
			errs = append(errs, fmt.Errorf("surface %d: %w", i, err))
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	for _, f := range faces {
		if err := f.Publish(state); err != nil {
			return err
		}
	}
	return nil
}
