package service_test

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/ironflow/internal/adapters/repository"
	service "github.com/okian/ironflow/internal/app"
	"github.com/okian/ironflow/internal/domain/model"
)

func benchOnly(id string, day int, weight float64) model.Tournament {
	m105 := &model.WeightCategory{ID: "m105", Name: "105", Gender: model.GenderMale}
	return model.Tournament{
		ID:        id,
		Name:      fmt.Sprintf("Bench Cup %d", day),
		EventType: model.EventBP,
		Formula:   model.FormulaIPFGL,
		CreatedAt: time.Date(2024, 6, day, 10, 0, 0, 0, time.UTC),
		Athletes: []model.Athlete{{
			ID: "b1", Name: fmt.Sprintf("Presser %d", day), Bodyweight: 104, Gender: model.GenderMale,
			AgeCategory: model.AgeMasters1, Category: m105,
			Attempts: []model.Attempt{
				lift(model.Bench, 1, weight-10, model.VerdictGood),
				lift(model.Bench, 2, weight, model.VerdictGood),
				lift(model.Bench, 3, weight+10, model.VerdictBad),
			},
		}},
	}
}

func TestServiceIntegration(t *testing.T) {
	Convey("Given a service over a bolt store", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		path := filepath.Join(t.TempDir(), "ironflow.db")
		store, err := repository.Open(ctx, repository.BackendBolt, repository.WithBoltPath(path))
		So(err, ShouldBeNil)

		svc := service.New(service.WithStore(store, repository.BackendBolt))
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		Convey("When a season of bench meets is finished in order", func() {
			weights := []float64{180, 175, 190}
			for i, w := range weights {
				id := fmt.Sprintf("bench-%d", i+1)
				_, err := svc.PutTournament(ctx, benchOnly(id, i+1, w))
				So(err, ShouldBeNil)
				_, err = svc.FinishTournament(ctx, id)
				So(err, ShouldBeNil)
			}

			Convey("Then only the bench record slot exists and holds the best lift", func() {
				recs, err := svc.Records(ctx, model.RecordFilter{AgeCategory: model.AgeMasters1})
				So(err, ShouldBeNil)
				So(len(recs), ShouldEqual, 1)
				So(recs[0].Lift, ShouldEqual, model.Bench)
				So(recs[0].WeightKg, ShouldEqual, float64(190))
				So(recs[0].TournamentID, ShouldEqual, "bench-3")
				So(recs[0].SetAt, ShouldEqual, time.Date(2024, 6, 3, 10, 0, 0, 0, time.UTC))
			})

			Convey("Then stats count every stored meet", func() {
				stats, err := svc.GetStats(ctx)
				So(err, ShouldBeNil)
				So(stats.Tournaments, ShouldEqual, 3)
				So(stats.Records, ShouldEqual, 1)
				So(stats.StoreBackend, ShouldEqual, repository.BackendBolt)
			})

			Convey("Then stored meets still rank", func() {
				r, err := svc.Rankings(ctx, "bench-2", service.ViewCategory, nil)
				So(err, ShouldBeNil)
				So(r.Formula, ShouldEqual, model.FormulaIPFGL)
				So(*r.Categories[0].Results[0].Total, ShouldEqual, float64(175))
				So(r.Categories[0].Results[0].Score, ShouldNotBeNil)
			})
		})

		Convey("When many meets finish concurrently", func() {
			const meets = 8
			for i := 0; i < meets; i++ {
				_, err := svc.PutTournament(ctx, benchOnly(fmt.Sprintf("c-%d", i), i+1, float64(150+5*i)))
				So(err, ShouldBeNil)
			}

			var wg sync.WaitGroup
			errs := make(chan error, meets)
			for i := 0; i < meets; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					if _, err := svc.FinishTournament(ctx, fmt.Sprintf("c-%d", i)); err != nil {
						errs <- err
					}
				}(i)
			}
			wg.Wait()
			close(errs)

			Convey("Then the record converges on the heaviest lift", func() {
				for err := range errs {
					So(err, ShouldBeNil)
				}
				recs, err := svc.Records(ctx, model.RecordFilter{Lift: model.Bench})
				So(err, ShouldBeNil)
				So(len(recs), ShouldEqual, 1)
				So(recs[0].WeightKg, ShouldEqual, float64(150+5*(meets-1)))
			})
		})
	})
}
