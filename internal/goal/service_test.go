package goal_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/frahmantamala/budget-tracker/internal"
	"github.com/frahmantamala/budget-tracker/internal/analytics"
	"github.com/frahmantamala/budget-tracker/internal/core/events"
	"github.com/frahmantamala/budget-tracker/internal/goal"
	goalPostgres "github.com/frahmantamala/budget-tracker/internal/goal/postgres"
	"github.com/frahmantamala/budget-tracker/internal/querycache"
	"github.com/frahmantamala/budget-tracker/internal/storage"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestGoalService(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Goal Service Suite")
}

var _ = Describe("Goal Service", func() {
	const userID = "user-1"

	var (
		ctx     context.Context
		db      *storage.DB
		service *goal.Service
		changes []*events.DataChangedEvent
	)

	BeforeEach(func() {
		var err error
		ctx = context.Background()
		logger := slog.New(slog.NewTextHandler(io.Discard, nil))

		db, err = storage.OpenSQLite("file::memory:", nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(db.AutoMigrate()).To(Succeed())

		bus := events.NewEventBus(logger)
		cache := querycache.New(64, time.Minute)
		querycache.NewInvalidator(cache, logger).Register(bus)
		changes = nil
		bus.Subscribe(events.EventTypeDataChanged, func(_ context.Context, e events.Event) error {
			changes = append(changes, e.(*events.DataChangedEvent))
			return nil
		})
		service = goal.NewService(goalPostgres.NewGoalRepository(db.Gorm), bus, cache, logger)
	})

	AfterEach(func() {
		Expect(db.Close()).To(Succeed())
	})

	create := func() *goal.Goal {
		g, err := service.Create(ctx, userID, goal.GoalDTO{Name: "Holiday", TargetAmount: 1000, TargetDate: "2024-12-31"})
		Expect(err).NotTo(HaveOccurred())
		return g
	}

	Describe("Create", func() {
		It("starts at zero with the target date", func() {
			g := create()
			Expect(g.CurrentAmount).To(BeZero())
			Expect(g.TargetDate).NotTo(BeNil())
			Expect(g.TargetDate.Format("2006-01-02")).To(Equal("2024-12-31"))
			Expect(changes).To(HaveLen(1))
			Expect(changes[0].Entity).To(Equal(events.EntityGoals))
		})

		It("rejects a malformed target date", func() {
			_, err := service.Create(ctx, userID, goal.GoalDTO{Name: "Car", TargetAmount: 10, TargetDate: "soon"})
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeValidation))
		})

		It("rejects a non-positive target", func() {
			_, err := service.Create(ctx, userID, goal.GoalDTO{Name: "Car", TargetAmount: 0})
			Expect(err).To(HaveOccurred())
		})

		It("rejects targets finer than a cent or too large to store", func() {
			for _, target := range []float64{0.001, 1e13} {
				_, err := service.Create(ctx, userID, goal.GoalDTO{Name: "Car", TargetAmount: analytics.Amount(target)})
				appErr, ok := internal.IsAppError(err)
				Expect(ok).To(BeTrue())
				Expect(appErr.Type).To(Equal(internal.ErrorTypeValidation))
			}
			goals, err := service.List(ctx, userID)
			Expect(err).NotTo(HaveOccurred())
			Expect(goals).To(BeEmpty())
		})
	})

	Describe("Adjust", func() {
		It("adds and withdraws and refuses to go below zero", func() {
			g := create()

			g, err := service.Adjust(ctx, userID, g.ID, goal.AdjustDTO{Action: "add", Amount: 250})
			Expect(err).NotTo(HaveOccurred())
			Expect(g.CurrentAmount).To(Equal(250.0))

			progress, err := service.Progress(ctx, userID)
			Expect(err).NotTo(HaveOccurred())
			Expect(progress[0].Percentage).To(Equal(25.0))
			Expect(progress[0].Remaining).To(Equal(750.0))

			g, err = service.Adjust(ctx, userID, g.ID, goal.AdjustDTO{Action: "add", Amount: 100})
			Expect(err).NotTo(HaveOccurred())
			Expect(g.CurrentAmount).To(Equal(350.0))

			progress, _ = service.Progress(ctx, userID)
			Expect(progress[0].Remaining).To(Equal(650.0))

			_, err = service.Adjust(ctx, userID, g.ID, goal.AdjustDTO{Action: "withdraw", Amount: 500})
			Expect(errors.Is(err, internal.ErrInsufficientGoalFunds)).To(BeTrue())
			Expect(err.Error()).To(Equal("Cannot withdraw more than saved."))

			goals, err := service.List(ctx, userID)
			Expect(err).NotTo(HaveOccurred())
			Expect(goals[0].CurrentAmount).To(Equal(350.0))
		})

		It("allows withdrawing down to exactly zero", func() {
			g := create()
			_, err := service.Adjust(ctx, userID, g.ID, goal.AdjustDTO{Action: "add", Amount: 40})
			Expect(err).NotTo(HaveOccurred())

			g, err = service.Adjust(ctx, userID, g.ID, goal.AdjustDTO{Action: "withdraw", Amount: 40})
			Expect(err).NotTo(HaveOccurred())
			Expect(g.CurrentAmount).To(BeZero())
		})

		It("rejects sub-cent amounts and totals the column cannot hold", func() {
			g := create()
			_, err := service.Adjust(ctx, userID, g.ID, goal.AdjustDTO{Action: "add", Amount: 0.001})
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeValidation))

			_, err = service.Adjust(ctx, userID, g.ID, goal.AdjustDTO{Action: "add", Amount: 999999999999.99})
			Expect(err).NotTo(HaveOccurred())

			_, err = service.Adjust(ctx, userID, g.ID, goal.AdjustDTO{Action: "add", Amount: 1})
			appErr, ok = internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Details).To(HaveField("Errors", ContainElement(HaveField("Code", string(internal.ErrCodeInvalidAmount)))))

			goals, err := service.List(ctx, userID)
			Expect(err).NotTo(HaveOccurred())
			Expect(goals[0].CurrentAmount).To(Equal(999999999999.99))
		})

		It("rejects an unknown action", func() {
			g := create()
			_, err := service.Adjust(ctx, userID, g.ID, goal.AdjustDTO{Action: "borrow", Amount: 5})
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeValidation))
		})

		It("returns not found for another user's goal", func() {
			g := create()
			_, err := service.Adjust(ctx, "user-2", g.ID, goal.AdjustDTO{Action: "add", Amount: 5})
			Expect(errors.Is(err, internal.ErrGoalNotFound)).To(BeTrue())
		})
	})

	Describe("Delete", func() {
		It("removes the goal", func() {
			g := create()
			Expect(service.Delete(ctx, userID, g.ID)).To(Succeed())

			goals, err := service.List(ctx, userID)
			Expect(err).NotTo(HaveOccurred())
			Expect(goals).To(BeEmpty())
		})

		It("returns not found twice over", func() {
			g := create()
			Expect(service.Delete(ctx, userID, g.ID)).To(Succeed())
			Expect(errors.Is(service.Delete(ctx, userID, g.ID), internal.ErrGoalNotFound)).To(BeTrue())
		})
	})
})
