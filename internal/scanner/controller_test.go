package scanner

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/neurospin/internal/tissue"
)

var _ = Describe("Controller", func() {
	var (
		clock *ManualClock
		c     *Controller
	)

	BeforeEach(func() {
		clock = NewManualClock(time.Unix(0, 0))
		c = NewController(Options{Clock: clock, Timing: Timing{Frame: time.Millisecond}})
	})

	AfterEach(func() {
		c.Close()
	})

	Describe("defaults", func() {
		It("starts aligned with the magnet on at 3T", func() {
			st := c.Snapshot()
			Expect(st.MagnetOn).To(BeTrue())
			Expect(st.Scanning).To(BeFalse())
			Expect(st.Phase).To(Equal(PhaseAlignment))
			Expect(st.Progress).To(BeZero())
			Expect(st.FieldStrength).To(Equal(3.0))
			Expect(st.Validate()).To(Succeed())
			Expect(c.Selection()).To(Equal(Selection{Region: tissue.Brain, Sequence: tissue.T1Weighted}))
		})
	})

	Describe("a full scan", func() {
		It("reaches relaxation at half time and completes at the duration", func() {
			Expect(c.StartScan()).To(BeTrue())
			gen := c.gen

			st, applied, finished := c.tick(gen, 2500*time.Millisecond)
			Expect(applied).To(BeTrue())
			Expect(finished).To(BeFalse())
			Expect(st.Progress).To(BeNumerically("~", 50, 1e-9))
			Expect(st.Phase).To(Equal(PhaseRelaxation))

			st, _, finished = c.tick(gen, 5000*time.Millisecond)
			Expect(finished).To(BeTrue())
			Expect(st.Scanning).To(BeFalse())
			Expect(st.Progress).To(Equal(100.0))
			Expect(st.Phase).To(Equal(PhaseAlignment))
		})

		It("maps the repetition window to excitation and relaxation", func() {
			Expect(c.StartScan()).To(BeTrue())
			gen := c.gen

			st, _, _ := c.tick(gen, 1020*time.Millisecond)
			Expect(st.Phase).To(Equal(PhaseExcitation))
			Expect(st.SinceExcitationMs).To(BeZero())

			st, _, _ = c.tick(gen, 1300*time.Millisecond)
			Expect(st.Phase).To(Equal(PhaseRelaxation))
			Expect(st.SinceExcitationMs).To(BeNumerically("~", 250, 1e-9))
		})

		It("never lets progress move backwards", func() {
			Expect(c.StartScan()).To(BeTrue())
			gen := c.gen
			c.tick(gen, 3000*time.Millisecond)
			st, _, _ := c.tick(gen, 1000*time.Millisecond)
			Expect(st.Progress).To(BeNumerically("~", 60, 1e-9))
		})

		It("numbers every started scan", func() {
			Expect(c.StartScan()).To(BeTrue())
			first := c.Snapshot().Scan
			st, _, _ := c.tick(c.gen, 16*time.Millisecond)
			Expect(st.Scan).To(Equal(first))
			Expect(c.StopScan()).To(BeTrue())
			Expect(c.Snapshot().Scan).To(Equal(first))

			Expect(c.StartScan()).To(BeTrue())
			Expect(c.Snapshot().Scan).To(BeNumerically(">", first))
		})

		It("resets progress when a new scan starts", func() {
			Expect(c.StartScan()).To(BeTrue())
			c.tick(c.gen, 6*time.Second)
			Expect(c.Snapshot().Progress).To(Equal(100.0))

			Expect(c.StartScan()).To(BeTrue())
			Expect(c.Snapshot().Progress).To(BeZero())
		})
	})

	Describe("guards", func() {
		It("refuses to start with the magnet off", func() {
			Expect(c.ToggleMagnet()).To(BeFalse())
			before := c.Snapshot()
			Expect(c.StartScan()).To(BeFalse())
			Expect(c.Snapshot()).To(Equal(before))
		})

		It("refuses a second start while scanning", func() {
			Expect(c.StartScan()).To(BeTrue())
			Expect(c.StartScan()).To(BeFalse())
		})

		It("freezes field strength and selection while scanning", func() {
			Expect(c.SetFieldStrength(1.5)).To(BeTrue())
			Expect(c.StartScan()).To(BeTrue())
			Expect(c.SetFieldStrength(3.0)).To(BeFalse())
			Expect(c.SetRegion(tissue.Knee)).To(BeFalse())
			Expect(c.SetSequence(tissue.FLAIR)).To(BeFalse())
			Expect(c.Snapshot().FieldStrength).To(Equal(1.5))
			Expect(c.Selection().Region).To(Equal(tissue.Brain))
		})

		It("rejects unsupported values", func() {
			Expect(c.SetFieldStrength(7)).To(BeFalse())
			Expect(c.SetRegion(tissue.Region("elbow"))).To(BeFalse())
			Expect(c.SetSequence(tissue.Sequence("dwi"))).To(BeFalse())
			Expect(c.Snapshot().FieldStrength).To(Equal(3.0))
		})

		It("drops ticks from a superseded scan", func() {
			Expect(c.StartScan()).To(BeTrue())
			stale := c.gen
			Expect(c.StopScan()).To(BeTrue())
			Expect(c.StartScan()).To(BeTrue())

			_, applied, finished := c.tick(stale, 4*time.Second)
			Expect(applied).To(BeFalse())
			Expect(finished).To(BeTrue())
			Expect(c.Snapshot().Progress).To(BeZero())
		})
	})

	Describe("quench", func() {
		DescribeTable("always resets to disorder",
			func(scan bool, elapsed time.Duration) {
				if scan {
					Expect(c.StartScan()).To(BeTrue())
					c.tick(c.gen, elapsed)
				}
				Expect(c.ToggleMagnet()).To(BeFalse())
				st := c.Snapshot()
				Expect(st.Phase).To(Equal(PhaseRandom))
				Expect(st.Scanning).To(BeFalse())
				Expect(st.Progress).To(BeZero())
				Expect(st.Validate()).To(Succeed())
			},
			Entry("idle", false, time.Duration(0)),
			Entry("mid scan", true, 2*time.Second),
			Entry("during excitation", true, 10*time.Millisecond),
		)

		It("returns to alignment when re-energized", func() {
			c.ToggleMagnet()
			Expect(c.ToggleMagnet()).To(BeTrue())
			Expect(c.Snapshot().Phase).To(Equal(PhaseAlignment))
		})
	})

	Describe("StopScan", func() {
		It("is a no-op when idle", func() {
			Expect(c.StopScan()).To(BeFalse())
		})

		It("discards partial progress", func() {
			Expect(c.StartScan()).To(BeTrue())
			c.tick(c.gen, 2*time.Second)
			Expect(c.StopScan()).To(BeTrue())
			st := c.Snapshot()
			Expect(st.Progress).To(BeZero())
			Expect(st.Phase).To(Equal(PhaseAlignment))
			Expect(st.MagnetOn).To(BeTrue())
		})
	})

	Describe("selection hook", func() {
		It("fires only when the selection changes", func() {
			var calls atomic.Int32
			var mu sync.Mutex
			var last Selection
			c2 := NewController(Options{Clock: clock, OnSelect: func(s Selection) {
				mu.Lock()
				last = s
				mu.Unlock()
				calls.Add(1)
			}})
			defer c2.Close()

			Expect(c2.SetRegion(tissue.Brain)).To(BeTrue())
			Expect(c2.SetRegion(tissue.Spine)).To(BeTrue())
			Eventually(calls.Load).Should(Equal(int32(1)))
			Consistently(calls.Load, 50*time.Millisecond).Should(Equal(int32(1)))
			mu.Lock()
			Expect(last.Region).To(Equal(tissue.Spine))
			mu.Unlock()
		})
	})

	Describe("scan loop", func() {
		It("advances from the clock and fires completion", func() {
			completed := make(chan State, 1)
			c2 := NewController(Options{
				Clock:      clock,
				Timing:     Timing{Frame: time.Millisecond},
				OnComplete: func(s State) { completed <- s },
			})
			defer c2.Close()

			Expect(c2.StartScan()).To(BeTrue())
			clock.Advance(2500 * time.Millisecond)
			Eventually(func() float64 { return c2.Snapshot().Progress }).Should(BeNumerically("~", 50, 1e-9))
			Expect(c2.Snapshot().Phase).To(Equal(PhaseRelaxation))

			clock.Advance(3 * time.Second)
			var final State
			Eventually(completed).Should(Receive(&final))
			Expect(final.Progress).To(Equal(100.0))
			Expect(final.Scanning).To(BeFalse())

			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			Expect(c2.Wait(ctx)).To(Succeed())
		})

		It("stops the loop on quench", func() {
			Expect(c.StartScan()).To(BeTrue())
			c.ToggleMagnet()
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			Expect(c.Wait(ctx)).To(Succeed())

			clock.Advance(10 * time.Second)
			Consistently(func() float64 { return c.Snapshot().Progress }, 30*time.Millisecond).Should(BeZero())
		})

		It("refuses new scans after Close", func() {
			Expect(c.StartScan()).To(BeTrue())
			c.Close()
			Expect(c.Snapshot().Scanning).To(BeFalse())
			Expect(c.StartScan()).To(BeFalse())
		})
	})
})

var _ = Describe("field strengths", func() {
	It("cycles through the supported values", func() {
		Expect(NextFieldStrength(1.5)).To(Equal(3.0))
		Expect(NextFieldStrength(3.0)).To(Equal(1.5))
		Expect(NextFieldStrength(9)).To(Equal(1.5))
	})
})
