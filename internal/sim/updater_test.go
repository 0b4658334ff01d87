package sim_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/dzakyzahy/AQUA-FLOQ-MAGNA/internal/process"
	"github.com/dzakyzahy/AQUA-FLOQ-MAGNA/internal/sim"
)

type recorder struct {
	mu    sync.Mutex
	snaps []sim.Snapshot
}

func (r *recorder) OnSnapshot(s sim.Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snaps = append(r.snaps, s)
}

func (r *recorder) all() []sim.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]sim.Snapshot(nil), r.snaps...)
}

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

var _ = Describe("Updater", func() {
	var u *sim.Updater

	BeforeEach(func() {
		u = sim.New(process.Default(), sim.WithNoise(process.Silent), sim.WithLogger(quiet))
	})

	Describe("transitions", func() {
		It("starts from the given state in auto mode", func() {
			snap := u.Snapshot()
			Expect(snap.Seq).To(BeZero())
			Expect(snap.Cause).To(Equal(sim.CauseInit))
			Expect(snap.State.Mode()).To(Equal(process.Auto))
			Expect(snap.State.PollutantLoad).To(Equal(50.0))
		})

		It("applies the tick transition", func() {
			snap := u.Tick()
			Expect(snap.Cause).To(Equal(sim.CauseTick))
			Expect(snap.Tick).To(Equal(uint64(1)))
			Expect(snap.State).To(Equal(process.Tick(process.Default(), process.Silent)))
			Expect(u.Snapshot().Cause).To(Equal(sim.CauseTick))
		})

		It("switches to manual on a dosage edit", func() {
			snap, err := u.ApplyUserEdit(process.FieldDosage, 1.5)
			Expect(err).NotTo(HaveOccurred())
			Expect(snap.Cause).To(Equal(sim.CauseEdit))
			Expect(snap.State.Dosage).To(Equal(1.5))
			Expect(snap.State.AutoDosing).To(BeFalse())

			for i := 0; i < 5; i++ {
				u.Tick()
			}
			Expect(u.State().Dosage).To(Equal(1.5))
		})

		It("returns to auto only on an explicit toggle", func() {
			_, err := u.ApplyUserEdit(process.FieldDosage, 0.2)
			Expect(err).NotTo(HaveOccurred())
			Expect(u.State().Mode()).To(Equal(process.Manual))

			snap := u.ToggleAutoDosing()
			Expect(snap.Cause).To(Equal(sim.CauseToggle))
			Expect(snap.State.Mode()).To(Equal(process.Auto))
			Expect(snap.State.Dosage).To(Equal(0.2))

			Expect(u.Tick().State.Dosage).To(BeNumerically(">", 0.2))
		})

		It("rejects derived fields without broadcasting", func() {
			rec := &recorder{}
			u.Subscribe(rec)

			snap, err := u.ApplyUserEdit(process.FieldTurbidity, 3)
			Expect(err).To(MatchError(process.ErrReadOnlyField))
			Expect(snap.Seq).To(BeZero())
			Expect(rec.all()).To(BeEmpty())
		})

		It("hands out snapshots that do not alias the owned state", func() {
			_, _ = u.ApplyUserEdit(process.FieldPollutantLoad, 90)
			snap := u.Tick()
			Expect(snap.State.Alerts).To(ConsistOf(process.AlertHighContamination))

			snap.State.Alerts[0] = "tampered"
			Expect(u.State().Alerts).To(ConsistOf(process.AlertHighContamination))
		})
	})

	Describe("observers", func() {
		It("receive every transition in order", func() {
			rec := &recorder{}
			u.Subscribe(rec)

			u.Tick()
			_, _ = u.ApplyUserEdit(process.FieldFlowRate, 180)
			u.ToggleAutoDosing()
			u.Tick()

			snaps := rec.all()
			Expect(snaps).To(HaveLen(4))
			causes := []sim.Cause{}
			for i, s := range snaps {
				Expect(s.Seq).To(Equal(uint64(i + 1)))
				causes = append(causes, s.Cause)
			}
			Expect(causes).To(Equal([]sim.Cause{sim.CauseTick, sim.CauseEdit, sim.CauseToggle, sim.CauseTick}))
			Expect(snaps[3].Tick).To(Equal(uint64(2)))
		})

		It("stop receiving after cancel", func() {
			rec := &recorder{}
			cancel := u.Subscribe(rec)
			u.Tick()
			cancel()
			cancel()
			u.Tick()
			Expect(rec.all()).To(HaveLen(1))
		})

		It("each get their own copy", func() {
			var first, second sim.Snapshot
			u.Subscribe(sim.ObserverFunc(func(s sim.Snapshot) {
				first = s
				s.State.Alerts = append(s.State.Alerts, "mine")
			}))
			u.Subscribe(sim.ObserverFunc(func(s sim.Snapshot) { second = s }))

			u.Tick()
			Expect(first.Seq).To(Equal(second.Seq))
			Expect(second.State.Alerts).To(BeEmpty())
		})
	})

	Describe("clock", func() {
		It("ticks until stopped", func() {
			u = sim.New(process.Default(), sim.WithNoise(process.Silent), sim.WithLogger(quiet), sim.WithInterval(5*time.Millisecond))
			Expect(u.Start(context.Background())).To(Succeed())
			Expect(u.Running()).To(BeTrue())

			Eventually(u.Ticks).WithTimeout(2 * time.Second).Should(BeNumerically(">=", 3))

			u.Stop()
			Expect(u.Running()).To(BeFalse())
			stopped := u.Ticks()
			Consistently(u.Ticks).WithTimeout(50 * time.Millisecond).Should(Equal(stopped))
		})

		It("refuses a second start", func() {
			u = sim.New(process.Default(), sim.WithLogger(quiet), sim.WithInterval(time.Hour))
			Expect(u.Start(context.Background())).To(Succeed())
			defer u.Stop()
			Expect(u.Start(context.Background())).To(MatchError(sim.ErrAlreadyRunning))
		})

		It("rejects a non-positive interval and still stops cleanly", func() {
			u = sim.New(process.Default(), sim.WithLogger(quiet), sim.WithInterval(0))
			Expect(u.Start(context.Background())).To(MatchError(sim.ErrInvalidInterval))
			Expect(u.Running()).To(BeFalse())
			u.Stop()
			u.Stop()
		})

		It("stops when the parent context ends and can be restarted", func() {
			u = sim.New(process.Default(), sim.WithNoise(process.Silent), sim.WithLogger(quiet), sim.WithInterval(5*time.Millisecond))
			ctx, cancel := context.WithCancel(context.Background())
			Expect(u.Start(ctx)).To(Succeed())
			cancel()
			Eventually(u.Running).Should(BeFalse())

			Expect(u.Start(context.Background())).To(Succeed())
			u.Stop()
		})

		It("serializes ticks with concurrent edits", func() {
			u = sim.New(process.Default(), sim.WithLogger(quiet), sim.WithSeed(3), sim.WithInterval(time.Millisecond))
			rec := &recorder{}
			u.Subscribe(rec)
			Expect(u.Start(context.Background())).To(Succeed())

			var wg sync.WaitGroup
			for i := 0; i < 8; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					for j := 0; j < 25; j++ {
						_, _ = u.ApplyUserEdit(process.FieldPollutantLoad, float64((i*25+j)%100))
						if j%5 == 0 {
							u.ToggleAutoDosing()
						}
					}
				}(i)
			}
			wg.Wait()
			u.Stop()

			snaps := rec.all()
			for i, s := range snaps {
				Expect(s.Seq).To(Equal(uint64(i + 1)))
				Expect(s.State.InBounds()).To(BeTrue())
			}
		})
	})
})
