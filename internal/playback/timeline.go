package playback

import (
	"sort"

	"github.com/san-kum/gasbox/internal/sim"
)

// Timeline keeps received frames of the current epoch in time order so a
// consumer can render any moment it already has. A frame from another epoch
// clears the history.
type Timeline struct {
	frames []sim.Frame
	epoch  int
	limit  int
}

// NewTimeline keeps at most limit frames; 0 keeps everything.
func NewTimeline(limit int) *Timeline {
	return &Timeline{limit: limit}
}

// Poll drains ch without blocking. It returns how many frames arrived and
// whether ch is still open.
func (t *Timeline) Poll(ch <-chan sim.Frame) (n int, open bool) {
	for {
		select {
		case f, ok := <-ch:
			if !ok {
				return n, false
			}
			t.Add(f)
			n++
		default:
			return n, true
		}
	}
}

func (t *Timeline) Add(f sim.Frame) {
	if f.Epoch != t.epoch {
		t.frames = t.frames[:0]
		t.epoch = f.Epoch
	}
	if n := len(t.frames); n > 0 && f.Number <= t.frames[n-1].Number {
		return
	}
	t.frames = append(t.frames, f)
	if t.limit > 0 && len(t.frames) > t.limit {
		drop := len(t.frames) - t.limit
		t.frames = append(t.frames[:0], t.frames[drop:]...)
	}
}

func (t *Timeline) Len() int   { return len(t.frames) }
func (t *Timeline) Epoch() int { return t.epoch }

func (t *Timeline) Last() (sim.Frame, bool) {
	if len(t.frames) == 0 {
		return sim.Frame{}, false
	}
	return t.frames[len(t.frames)-1], true
}

// LastAt returns the latest frame whose time is at most at.
func (t *Timeline) LastAt(at float64) (sim.Frame, bool) {
	i := sort.Search(len(t.frames), func(i int) bool { return t.frames[i].Time > at })
	if i == 0 {
		return sim.Frame{}, false
	}
	return t.frames[i-1], true
}

// Span returns the time range covered by the stored frames.
func (t *Timeline) Span() (from, to float64, ok bool) {
	if len(t.frames) == 0 {
		return 0, 0, false
	}
	return t.frames[0].Time, t.frames[len(t.frames)-1].Time, true
}

// Frames returns the stored frames oldest first. The slice must not be
// modified.
func (t *Timeline) Frames() []sim.Frame { return t.frames }
