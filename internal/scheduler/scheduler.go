package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"baba-meal-planner/internal/metrics"
	"baba-meal-planner/internal/planner"
	"baba-meal-planner/internal/prefs"

	"github.com/robfig/cron/v3"
)

// Notifier delivers a finished plan to a user. The bot implements this.
type Notifier interface {
	SendPlain(chatID int64, text string) error
}

// perUserTimeout bounds one user's plan generation within the batch.
const perUserTimeout = 5 * time.Minute

// Scheduler runs the weekly automatic plan for every opted-in user.
type Scheduler struct {
	cron         *cron.Cron
	planner      *planner.Planner
	prefsRepo    *prefs.Repository
	metricsStore *metrics.Store
	notifier     Notifier
}

// NewScheduler creates a new Scheduler. notifier may be nil; generated plans
// are then persisted but not delivered.
func NewScheduler(pl *planner.Planner, prefsRepo *prefs.Repository, metricsStore *metrics.Store, notifier Notifier) *Scheduler {
	return &Scheduler{
		cron:         cron.New(),
		planner:      pl,
		prefsRepo:    prefsRepo,
		metricsStore: metricsStore,
		notifier:     notifier,
	}
}

// Start registers the weekly job with the given cron spec and starts the
// scheduler.
func (s *Scheduler) Start(spec string) error {
	if _, err := s.cron.AddFunc(spec, s.RunWeeklyBatch); err != nil {
		return fmt.Errorf("failed to schedule weekly plan job: %w", err)
	}
	s.cron.Start()
	log.Printf("Weekly plan job scheduled: %s", spec)
	return nil
}

// Stop stops the scheduler and waits for a running batch to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// RunWeeklyBatch generates one plan per opted-in user. A failing user is
// logged and skipped; the batch always continues.
func (s *Scheduler) RunWeeklyBatch() {
	users, err := s.prefsRepo.ListAutoPlanUsers(context.Background())
	if err != nil {
		log.Printf("Weekly batch aborted, could not list users: %v", err)
		return
	}
	log.Printf("Weekly batch: generating plans for %d users", len(users))

	for _, user := range users {
		if err := s.runForUser(user); err != nil {
			log.Printf("Weekly batch: user %s failed: %v", user.UserID, err)
		}
	}
}

func (s *Scheduler) runForUser(user *prefs.UserPreferences) error {
	ctx, cancel := context.WithTimeout(context.Background(), perUserTimeout)
	defer cancel()

	req := buildWeeklyRequest(user)

	result, metas, err := s.planner.GeneratePlan(ctx, user.UserID, req, nil)
	for _, m := range metas {
		if rerr := s.metricsStore.RecordMeta(m); rerr != nil {
			log.Printf("Warning: failed to record metric for %s: %v", m.AgentName, rerr)
		}
	}
	if err != nil {
		return err
	}

	if s.notifier == nil || user.DeliveryChatID == 0 {
		log.Printf("Weekly batch: plan %s for user %s has no delivery target", result.PlanID, user.UserID)
		return nil
	}

	// PlainText already includes the shopping list section when one was made.
	if err := s.notifier.SendPlain(user.DeliveryChatID, result.PlainText); err != nil {
		return fmt.Errorf("failed to deliver plan %s: %w", result.PlanID, err)
	}
	return nil
}

// buildWeeklyRequest turns stored preferences into the default weekly
// request the batch runs for a user.
func buildWeeklyRequest(user *prefs.UserPreferences) planner.PlanRequest {
	req := planner.PlanRequest{
		MealPlanPrompt:      user.AutoPlanPrompt,
		Type:                planner.PlanWeekly,
		IncludeShoppingList: true,
	}
	if req.MealPlanPrompt == "" {
		req.MealPlanPrompt = "a balanced week of home-cooked meals"
	}
	return prefs.Resolve(req, user)
}
