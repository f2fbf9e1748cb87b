package playback_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/gasbox/internal/playback"
	"github.com/san-kum/gasbox/internal/sim"
)

func frames(epoch int, from uint64, n int, dt float64) []sim.Frame {
	out := make([]sim.Frame, n)
	for i := range out {
		out[i] = sim.Frame{Number: from + uint64(i), Epoch: epoch, Step: i + 1, Time: float64(i+1) * dt}
	}
	return out
}

var _ = Describe("Timeline", func() {
	var tl *playback.Timeline

	BeforeEach(func() {
		tl = playback.NewTimeline(0)
		for _, f := range frames(0, 1, 5, 1) {
			tl.Add(f)
		}
	})

	It("finds the latest frame at or before a time", func() {
		f, ok := tl.LastAt(3)
		Expect(ok).To(BeTrue())
		Expect(f.Time).To(Equal(3.0))

		f, _ = tl.LastAt(2.999)
		Expect(f.Time).To(Equal(2.0))

		f, _ = tl.LastAt(10)
		Expect(f.Time).To(Equal(5.0))

		_, ok = tl.LastAt(0.5)
		Expect(ok).To(BeFalse())
	})

	It("reports its span", func() {
		from, to, ok := tl.Span()
		Expect(ok).To(BeTrue())
		Expect(from).To(Equal(1.0))
		Expect(to).To(Equal(5.0))

		_, _, ok = playback.NewTimeline(0).Span()
		Expect(ok).To(BeFalse())
	})

	It("ignores stale or duplicate frames", func() {
		tl.Add(sim.Frame{Number: 3, Time: 9})
		Expect(tl.Len()).To(Equal(5))
		last, _ := tl.Last()
		Expect(last.Number).To(Equal(uint64(5)))
	})

	It("clears history on a new epoch", func() {
		tl.Add(sim.Frame{Number: 6, Epoch: 1})
		Expect(tl.Len()).To(Equal(1))
		Expect(tl.Epoch()).To(Equal(1))
	})

	It("honours its limit", func() {
		small := playback.NewTimeline(3)
		for _, f := range frames(0, 1, 10, 0.5) {
			small.Add(f)
		}
		Expect(small.Len()).To(Equal(3))
		from, _, _ := small.Span()
		Expect(from).To(Equal(4.0))
	})

	It("polls a channel without blocking", func() {
		ch := make(chan sim.Frame, 8)
		for _, f := range frames(0, 1, 3, 1) {
			ch <- f
		}
		fresh := playback.NewTimeline(0)
		n, open := fresh.Poll(ch)
		Expect(n).To(Equal(3))
		Expect(open).To(BeTrue())

		close(ch)
		n, open = fresh.Poll(ch)
		Expect(n).To(Equal(0))
		Expect(open).To(BeFalse())
	})
})
