package records

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/ironflow/internal/domain/model"
	"github.com/okian/ironflow/pkg/logger"
)

type fakeVault struct {
	mu    sync.Mutex
	slots map[string]model.RecordSlot
	fail  error
	calls int
}

func newFakeVault() *fakeVault {
	return &fakeVault{slots: make(map[string]model.RecordSlot)}
}

func (f *fakeVault) CheckAndUpdate(_ context.Context, c model.RecordSlot) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.fail != nil {
		return false, f.fail
	}
	cur, ok := f.slots[c.RecordKey.String()]
	if ok && c.WeightKg <= cur.WeightKg {
		return false, nil
	}
	f.slots[c.RecordKey.String()] = c
	return true, nil
}

func (f *fakeVault) get(lift model.Discipline, g model.Gender, age model.AgeCategory, wc string) (model.RecordSlot, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.slots[model.RecordKey{Lift: lift, Gender: g, AgeCategory: age, WeightCategory: wc}.String()]
	return s, ok
}

type fakeSource map[string]model.Tournament

func (f fakeSource) Tournament(_ context.Context, id string) (model.Tournament, error) {
	t, ok := f[id]
	if !ok {
		return model.Tournament{}, ErrTournamentNotFound
	}
	return t, nil
}

func good(d model.Discipline, n int, w float64) model.Attempt {
	return model.Attempt{Discipline: d, Number: n, Weight: model.Weight(w), Verdict: model.VerdictGood}
}

func bad(d model.Discipline, n int, w float64) model.Attempt {
	return model.Attempt{Discipline: d, Number: n, Weight: model.Weight(w), Verdict: model.VerdictBad}
}

func benchMeet(id string, created time.Time, bench float64) model.Tournament {
	return model.Tournament{
		ID:        id,
		Name:      "Meet " + id,
		EventType: model.EventBP,
		CreatedAt: created,
		Athletes: []model.Athlete{{
			ID:          "a1",
			Name:        "Anna",
			Bodyweight:  62,
			Gender:      model.GenderFemale,
			AgeCategory: model.AgeOpen,
			Category:    &model.WeightCategory{ID: "f63", Name: "63", Gender: model.GenderFemale},
			Attempts:    []model.Attempt{good(model.Bench, 1, bench)},
		}},
	}
}

func TestUpdateAfterTournament(t *testing.T) {
	Convey("Given a records updater", t, func() {
		So(logger.Init(), ShouldBeNil)
		ctx := context.Background()
		vault := newFakeVault()
		day1 := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
		day2 := day1.AddDate(0, 1, 0)

		Convey("When a later tournament beats the record", func() {
			src := fakeSource{
				"t1": benchMeet("t1", day1, 150),
				"t2": benchMeet("t2", day2, 200),
			}
			u := NewUpdater(vault, src)

			n1, err := u.UpdateAfterTournament(ctx, "t1")
			So(err, ShouldBeNil)
			n2, err := u.UpdateAfterTournament(ctx, "t2")
			So(err, ShouldBeNil)

			Convey("Then the slot is improved and attributed to it", func() {
				So(n1, ShouldEqual, 1)
				So(n2, ShouldEqual, 1)
				slot, ok := vault.get(model.Bench, model.GenderFemale, model.AgeOpen, "63")
				So(ok, ShouldBeTrue)
				So(slot.WeightKg, ShouldEqual, float64(200))
				So(slot.TournamentID, ShouldEqual, "t2")
				So(slot.Holder, ShouldEqual, "Anna")
				So(slot.SetAt, ShouldEqual, day2)
			})
		})

		Convey("When a later tournament is weaker", func() {
			src := fakeSource{
				"t1": benchMeet("t1", day1, 200),
				"t2": benchMeet("t2", day2, 150),
			}
			u := NewUpdater(vault, src)

			_, err := u.UpdateAfterTournament(ctx, "t1")
			So(err, ShouldBeNil)
			n, err := u.UpdateAfterTournament(ctx, "t2")
			So(err, ShouldBeNil)

			Convey("Then the record never regresses", func() {
				So(n, ShouldEqual, 0)
				slot, _ := vault.get(model.Bench, model.GenderFemale, model.AgeOpen, "63")
				So(slot.WeightKg, ShouldEqual, float64(200))
				So(slot.TournamentID, ShouldEqual, "t1")
			})
		})

		Convey("When an equal lift is made", func() {
			src := fakeSource{
				"t1": benchMeet("t1", day1, 180),
				"t2": benchMeet("t2", day2, 180),
			}
			u := NewUpdater(vault, src)
			_, _ = u.UpdateAfterTournament(ctx, "t1")
			n, err := u.UpdateAfterTournament(ctx, "t2")

			Convey("Then the original holder keeps it", func() {
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 0)
				slot, _ := vault.get(model.Bench, model.GenderFemale, model.AgeOpen, "63")
				So(slot.TournamentID, ShouldEqual, "t1")
			})
		})

		Convey("When the tournament is unknown", func() {
			u := NewUpdater(vault, fakeSource{})
			n, err := u.UpdateAfterTournament(ctx, "missing")

			Convey("Then nothing happens", func() {
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 0)
				So(vault.calls, ShouldEqual, 0)
			})
		})

		Convey("When the source fails", func() {
			boom := errors.New("connection reset")
			u := NewUpdater(vault, failingSource{err: boom})
			_, err := u.UpdateAfterTournament(ctx, "t1")

			Convey("Then the error is wrapped", func() {
				So(errors.Is(err, boom), ShouldBeTrue)
			})
		})
	})
}

type failingSource struct{ err error }

func (f failingSource) Tournament(context.Context, string) (model.Tournament, error) {
	return model.Tournament{}, f.err
}

func TestScan(t *testing.T) {
	Convey("Given a full-power tournament", t, func() {
		So(logger.Init(), ShouldBeNil)
		ctx := context.Background()
		vault := newFakeVault()
		created := time.Date(2024, 5, 4, 8, 0, 0, 0, time.UTC)
		u := NewUpdater(vault, fakeSource{})

		m93 := &model.WeightCategory{ID: "m93", Name: "93", Gender: model.GenderMale}
		sbd := []model.Attempt{
			good(model.Squat, 1, 200), good(model.Squat, 2, 210), bad(model.Squat, 3, 220),
			good(model.Bench, 1, 140),
			good(model.Deadlift, 1, 250),
		}
		tour := model.Tournament{
			ID:        "t1",
			Name:      "Nationals",
			EventType: model.EventSBD,
			CreatedAt: created,
			Athletes: []model.Athlete{
				{ID: "a1", Name: "Boris", Bodyweight: 91, Gender: model.GenderMale, AgeCategory: model.AgeOpen, Category: m93, Attempts: sbd},
				{ID: "a2", Name: "Withdrawn", Bodyweight: 90, Gender: model.GenderMale, AgeCategory: model.AgeJunior, Category: m93,
					Status: model.StatusWithdrawn, Attempts: sbd},
				{ID: "a3", Name: "No Age", Bodyweight: 92, Gender: model.GenderMale, Category: m93, Attempts: sbd},
				{ID: "a4", Name: "Bomb", Bodyweight: 80, Gender: model.GenderMale, AgeCategory: model.AgeMasters1,
					Attempts: []model.Attempt{good(model.Squat, 1, 150), bad(model.Bench, 1, 100), good(model.Deadlift, 1, 180)}},
			},
		}

		n, err := u.Scan(ctx, tour)
		So(err, ShouldBeNil)

		Convey("Then each best lift and the total become records", func() {
			squat, ok := vault.get(model.Squat, model.GenderMale, model.AgeOpen, "93")
			So(ok, ShouldBeTrue)
			So(squat.WeightKg, ShouldEqual, float64(210))
			So(squat.SetAt, ShouldEqual, created)

			total, ok := vault.get(model.LiftTotal, model.GenderMale, model.AgeOpen, "93")
			So(ok, ShouldBeTrue)
			So(total.WeightKg, ShouldEqual, float64(600))
		})

		Convey("Then withdrawn and age-less athletes are skipped", func() {
			_, ok := vault.get(model.Squat, model.GenderMale, model.AgeJunior, "93")
			So(ok, ShouldBeFalse)
		})

		Convey("Then a bomb-out sets single lifts but no total", func() {
			sq, ok := vault.get(model.Squat, model.GenderMale, model.AgeMasters1, "open")
			So(ok, ShouldBeTrue)
			So(sq.WeightKg, ShouldEqual, float64(150))
			_, ok = vault.get(model.LiftTotal, model.GenderMale, model.AgeMasters1, "open")
			So(ok, ShouldBeFalse)
			_, ok = vault.get(model.Bench, model.GenderMale, model.AgeMasters1, "open")
			So(ok, ShouldBeFalse)
		})

		Convey("Then the count covers every new slot", func() {
			// Boris: squat, bench, deadlift, total. Bomb: squat, deadlift.
			So(n, ShouldEqual, 6)
		})
	})

	Convey("Given a single-lift tournament", t, func() {
		So(logger.Init(), ShouldBeNil)
		vault := newFakeVault()
		u := NewUpdater(vault, fakeSource{})

		n, err := u.Scan(context.Background(), benchMeet("t1", time.Time{}, 120))

		Convey("Then no total record is kept", func() {
			So(err, ShouldBeNil)
			So(n, ShouldEqual, 1)
			_, ok := vault.get(model.LiftTotal, model.GenderFemale, model.AgeOpen, "63")
			So(ok, ShouldBeFalse)
		})
	})

	Convey("Given a tournament without a creation time", t, func() {
		So(logger.Init(), ShouldBeNil)
		vault := newFakeVault()
		fixed := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
		u := NewUpdater(vault, fakeSource{}, WithClock(func() time.Time { return fixed }))

		_, err := u.Scan(context.Background(), benchMeet("t1", time.Time{}, 120))

		Convey("Then the clock stamps the record", func() {
			So(err, ShouldBeNil)
			slot, _ := vault.get(model.Bench, model.GenderFemale, model.AgeOpen, "63")
			So(slot.SetAt, ShouldEqual, fixed)
		})
	})

	Convey("Given a failing vault", t, func() {
		So(logger.Init(), ShouldBeNil)
		vault := newFakeVault()
		vault.fail = errors.New("disk full")
		u := NewUpdater(vault, fakeSource{})

		n, err := u.Scan(context.Background(), benchMeet("t1", time.Now(), 120))

		Convey("Then the scan stops with the store error", func() {
			So(n, ShouldEqual, 0)
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "disk full")
		})
	})
}

func TestConcurrentUpdates(t *testing.T) {
	Convey("Given many finishes of the same tournament at once", t, func() {
		So(logger.Init(), ShouldBeNil)
		vault := newFakeVault()
		u := NewUpdater(vault, fakeSource{"t1": benchMeet("t1", time.Now(), 170)})

		var wg sync.WaitGroup
		results := make([]int, 8)
		for i := range results {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				results[i], _ = u.UpdateAfterTournament(context.Background(), "t1")
			}(i)
		}
		wg.Wait()

		Convey("Then the vault holds a single record", func() {
			sum := 0
			for _, r := range results {
				sum += r
			}
			So(sum, ShouldBeBetweenOrEqual, 1, len(results))
			slot, ok := vault.get(model.Bench, model.GenderFemale, model.AgeOpen, "63")
			So(ok, ShouldBeTrue)
			So(slot.WeightKg, ShouldEqual, float64(170))
		})
	})
}

// gatedSource blocks the first load until release is closed, then honours
// the context it was given.
type gatedSource struct {
	fakeSource
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func (g *gatedSource) Tournament(ctx context.Context, id string) (model.Tournament, error) {
	g.once.Do(func() { close(g.entered) })
	<-g.release
	if err := ctx.Err(); err != nil {
		return model.Tournament{}, err
	}
	return g.fakeSource.Tournament(ctx, id)
}

func TestUpdateAfterTournament_CallerCancel(t *testing.T) {
	Convey("Given a scan in flight for a caller that gives up", t, func() {
		So(logger.Init(), ShouldBeNil)
		vault := newFakeVault()
		src := &gatedSource{
			fakeSource: fakeSource{"t1": benchMeet("t1", time.Now(), 150)},
			entered:    make(chan struct{}),
			release:    make(chan struct{}),
		}
		u := NewUpdater(vault, src)

		type outcome struct {
			n   int
			err error
		}
		first, second := make(chan outcome, 1), make(chan outcome, 1)

		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			n, err := u.UpdateAfterTournament(ctx, "t1")
			first <- outcome{n, err}
		}()
		<-src.entered

		go func() {
			n, err := u.UpdateAfterTournament(context.Background(), "t1")
			second <- outcome{n, err}
		}()
		time.Sleep(20 * time.Millisecond)

		cancel()
		gaveUp := <-first
		close(src.release)
		waited := <-second

		Convey("Then the cancelled caller gets its own context error", func() {
			So(errors.Is(gaveUp.err, context.Canceled), ShouldBeTrue)
		})

		Convey("Then the other caller and the vault see the finished scan", func() {
			So(waited.err, ShouldBeNil)
			slot, ok := vault.get(model.Bench, model.GenderFemale, model.AgeOpen, "63")
			So(ok, ShouldBeTrue)
			So(slot.WeightKg, ShouldEqual, float64(150))
		})
	})
}
