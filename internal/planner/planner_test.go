package planner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"baba-meal-planner/internal/llm"
	"baba-meal-planner/internal/recipe"
	"baba-meal-planner/internal/shared"
	"baba-meal-planner/internal/shopping"
)

// --- mocks ---

type mockTextGenerator struct {
	content string
	err     error
}

func (m *mockTextGenerator) GenerateContent(ctx context.Context, prompt string) (llm.ContentResponse, error) {
	if m.err != nil {
		return llm.ContentResponse{}, m.err
	}
	return llm.ContentResponse{Content: m.content}, nil
}

type fakePlanStore struct {
	saved   []*Plan
	prior   []StoredPlan
	saveErr error
	listErr error
}

func (f *fakePlanStore) Save(ctx context.Context, userID string, plan *Plan) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = append(f.saved, plan)
	return nil
}

func (f *fakePlanStore) ListRecentByUserAndType(ctx context.Context, userID string, planType PlanType, limit int) ([]StoredPlan, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.prior, nil
}

type fakeCatalog struct {
	saved   []recipe.Recipe
	saveErr error
}

func (f *fakeCatalog) Save(ctx context.Context, rec recipe.Recipe) (string, error) {
	if f.saveErr != nil {
		return "", f.saveErr
	}
	id := fmt.Sprintf("recipe-%d", len(f.saved)+1)
	f.saved = append(f.saved, rec)
	return id, nil
}

// fakeSynth returns a minimal recipe per slot; titles in failTitles get the
// real fallback shape.
type fakeSynth struct {
	failTitles map[string]bool
}

func (f *fakeSynth) Synthesize(ctx context.Context, title, description string) (recipe.Recipe, shared.AgentMeta) {
	meta := shared.AgentMeta{AgentName: "Synthesizer"}
	if f.failTitles[title] {
		return recipe.Fallback(title, description), meta
	}
	return recipe.Recipe{
		RecipeTitle: title,
		Ingredients: []string{"1 unit of " + title},
		Directions:  []string{"Cook the " + title},
		Origin:      recipe.OriginMealPlan,
	}, meta
}

type fakeConsolidator struct {
	calls [][]string
}

func (f *fakeConsolidator) Consolidate(ctx context.Context, items []string) (string, shared.AgentMeta, error) {
	f.calls = append(f.calls, items)
	return strings.Join(items, "\n"), shared.AgentMeta{AgentName: "Consolidator"}, nil
}

type fakeShoppingStore struct {
	saved []*shopping.ShoppingList
}

func (f *fakeShoppingStore) Save(ctx context.Context, list *shopping.ShoppingList) (int64, error) {
	f.saved = append(f.saved, list)
	return int64(len(f.saved)), nil
}

type recordingSink struct {
	events []ProgressEvent
}

func (r *recordingSink) Emit(e ProgressEvent) {
	r.events = append(r.events, e)
}

// --- helpers ---

func weeklySkeletonJSON(t *testing.T, numDays int, slots ...TimeSlot) string {
	t.Helper()
	sk := skeleton{BabaTip: "Prep your grains on Sunday."}
	for d := 1; d <= numDays; d++ {
		day := skeletonDay{Day: d, DayName: fmt.Sprintf("Day %d", d)}
		for _, slot := range slots {
			day.Slots = append(day.Slots, SlotSkeleton{
				TimeSlot:    slot,
				RecipeName:  fmt.Sprintf("%s dish %d", slot, d),
				Description: fmt.Sprintf("A %s for day %d", slot, d),
			})
		}
		sk.Days = append(sk.Days, day)
	}
	data, err := json.Marshal(sk)
	if err != nil {
		t.Fatalf("failed to marshal skeleton: %v", err)
	}
	return string(data)
}

func newTestPlanner(store *fakePlanStore, catalog *fakeCatalog, gen llm.TextGenerator) (*Planner, *fakeConsolidator, *fakeShoppingStore) {
	consolidator := &fakeConsolidator{}
	shoppingStore := &fakeShoppingStore{}
	p := NewPlanner(store, catalog, &fakeSynth{}, consolidator, shoppingStore, gen)
	return p, consolidator, shoppingStore
}

// --- tests ---

func TestGeneratePlanWeekly(t *testing.T) {
	ctx := context.Background()
	store := &fakePlanStore{}
	catalog := &fakeCatalog{}
	gen := &mockTextGenerator{content: weeklySkeletonJSON(t, 7, SlotBreakfast, SlotLunch, SlotDinner, SlotSnack)}
	p, _, shoppingStore := newTestPlanner(store, catalog, gen)
	sink := &recordingSink{}

	req := PlanRequest{
		MealPlanPrompt:      "vegetarian, under 30 minutes",
		Type:                PlanWeekly,
		Variety:             VarietyVaried,
		Slots:               []TimeSlot{SlotBreakfast, SlotLunch, SlotDinner},
		IncludeShoppingList: true,
	}

	result, metas, err := p.GeneratePlan(ctx, "user-1", req, sink)
	if err != nil {
		t.Fatalf("GeneratePlan failed: %v", err)
	}

	if len(store.saved) != 1 {
		t.Fatalf("Expected 1 persisted plan, got %d", len(store.saved))
	}
	plan := store.saved[0]

	if len(plan.Days) != 7 {
		t.Errorf("Expected 7 days, got %d", len(plan.Days))
	}
	for i, day := range plan.Days {
		if day.Number != i+1 {
			t.Errorf("Expected day number %d, got %d", i+1, day.Number)
		}
		if day.Name != canonicalDayNames[i] {
			t.Errorf("Expected canonical day name %q, got %q", canonicalDayNames[i], day.Name)
		}
		if len(day.Slots) != 3 {
			t.Errorf("Day %d: expected 3 slots after filtering, got %d", day.Number, len(day.Slots))
		}
		for _, slot := range day.Slots {
			if slot.TimeSlot == SlotSnack {
				t.Errorf("Day %d: snack slot should have been filtered out", day.Number)
			}
			if slot.RecipeID == "" {
				t.Errorf("Day %d: slot %s has no recipe ID", day.Number, slot.TimeSlot)
			}
		}
	}

	if len(catalog.saved) != 21 {
		t.Errorf("Expected 21 recipe writes, got %d", len(catalog.saved))
	}
	if plan.ShoppingList == "" {
		t.Error("Expected a shopping list on the persisted plan")
	}
	if result.ShoppingList == "" {
		t.Error("Expected a shopping list on the result")
	}
	if len(shoppingStore.saved) != 1 {
		t.Errorf("Expected 1 persisted shopping list, got %d", len(shoppingStore.saved))
	}

	// One skeleton call, 21 synthesis calls, one consolidation.
	if len(metas) != 23 {
		t.Errorf("Expected 23 meta entries, got %d", len(metas))
	}

	if len(sink.events) != 21 {
		t.Fatalf("Expected 21 progress events, got %d", len(sink.events))
	}
	for i, e := range sink.events {
		if e.RunningIndex != i+1 {
			t.Errorf("Event %d: expected running index %d, got %d", i, i+1, e.RunningIndex)
		}
		if e.Total != 21 {
			t.Errorf("Event %d: expected total 21, got %d", i, e.Total)
		}
	}
	if sink.events[0].CompletedDays != 0 {
		t.Errorf("First event: expected 0 completed days, got %d", sink.events[0].CompletedDays)
	}
	if last := sink.events[20]; last.CompletedDays != 6 {
		t.Errorf("Last event: expected 6 completed days, got %d", last.CompletedDays)
	}
}

func TestWeeklySkeletonTruncatedToSevenDays(t *testing.T) {
	store := &fakePlanStore{}
	catalog := &fakeCatalog{}
	gen := &mockTextGenerator{content: weeklySkeletonJSON(t, 9, SlotDinner)}
	p, _, _ := newTestPlanner(store, catalog, gen)

	req := PlanRequest{MealPlanPrompt: "anything", Type: PlanWeekly, Slots: []TimeSlot{SlotDinner}}
	if _, _, err := p.GeneratePlan(context.Background(), "user-1", req, nil); err != nil {
		t.Fatalf("GeneratePlan failed: %v", err)
	}

	plan := store.saved[0]
	if len(plan.Days) != 7 {
		t.Fatalf("Expected excess days truncated to 7, got %d", len(plan.Days))
	}
	if plan.Days[6].Number != 7 || plan.Days[6].Name != "Sunday" {
		t.Errorf("Expected last day to be 7/Sunday, got %d/%s", plan.Days[6].Number, plan.Days[6].Name)
	}
}

func TestSameEveryDayDuplicatesTemplate(t *testing.T) {
	store := &fakePlanStore{}
	catalog := &fakeCatalog{}
	// The generator incorrectly returns two days; only the first is the template.
	gen := &mockTextGenerator{content: weeklySkeletonJSON(t, 2, SlotDinner)}
	p, _, _ := newTestPlanner(store, catalog, gen)

	req := PlanRequest{
		MealPlanPrompt: "same dinner all week",
		Type:           PlanWeekly,
		Variety:        VarietySameEveryDay,
		Slots:          []TimeSlot{SlotDinner},
	}
	if _, _, err := p.GeneratePlan(context.Background(), "user-1", req, nil); err != nil {
		t.Fatalf("GeneratePlan failed: %v", err)
	}

	plan := store.saved[0]
	if len(plan.Days) != 7 {
		t.Fatalf("Expected 7 duplicated days, got %d", len(plan.Days))
	}

	seenIDs := map[string]bool{}
	for _, day := range plan.Days {
		if len(day.Slots) != 1 {
			t.Fatalf("Day %d: expected 1 slot, got %d", day.Number, len(day.Slots))
		}
		slot := day.Slots[0]
		if slot.RecipeName != "dinner dish 1" {
			t.Errorf("Day %d: expected template recipe name, got %q", day.Number, slot.RecipeName)
		}
		seenIDs[slot.RecipeID] = true
	}
	// Each day is materialized independently, so IDs are distinct.
	if len(seenIDs) != 7 {
		t.Errorf("Expected 7 distinct recipe IDs, got %d", len(seenIDs))
	}
	if len(catalog.saved) != 7 {
		t.Errorf("Expected 7 recipe writes, got %d", len(catalog.saved))
	}
}

func TestDegradedPlanOnUnparseableSkeleton(t *testing.T) {
	store := &fakePlanStore{}
	catalog := &fakeCatalog{}
	gen := &mockTextGenerator{content: "Sorry, the kitchen is closed today."}
	p, consolidator, _ := newTestPlanner(store, catalog, gen)

	req := PlanRequest{
		MealPlanPrompt:      "anything",
		Type:                PlanDaily,
		Slots:               []TimeSlot{SlotBreakfast, SlotLunch, SlotDinner, SlotSnack},
		IncludeShoppingList: true,
	}
	result, _, err := p.GeneratePlan(context.Background(), "user-1", req, nil)
	if err != nil {
		t.Fatalf("Expected degraded plan, not an error: %v", err)
	}

	plan := store.saved[0]
	if plan.BabaTip != "Sorry, the kitchen is closed today." {
		t.Errorf("Expected raw text as the tip, got %q", plan.BabaTip)
	}
	if len(plan.Days) != 0 || len(plan.Slots) != 0 {
		t.Errorf("Expected no days or slots on a degraded plan")
	}
	if len(catalog.saved) != 0 {
		t.Errorf("Expected zero recipe writes, got %d", len(catalog.saved))
	}
	if len(consolidator.calls) != 0 {
		t.Errorf("Expected no consolidation call on a degraded plan")
	}
	if result.ShoppingList != "" {
		t.Errorf("Expected no shopping list on a degraded plan")
	}
}

func TestDegradedPlanOnEmptyJSONSkeleton(t *testing.T) {
	store := &fakePlanStore{}
	catalog := &fakeCatalog{}
	// Parses as JSON but carries no days, slots or tip.
	gen := &mockTextGenerator{content: "{}"}
	p, _, _ := newTestPlanner(store, catalog, gen)

	req := PlanRequest{
		MealPlanPrompt: "anything",
		Type:           PlanDaily,
		Slots:          []TimeSlot{SlotBreakfast},
	}
	if _, _, err := p.GeneratePlan(context.Background(), "user-1", req, nil); err != nil {
		t.Fatalf("Expected degraded plan, not an error: %v", err)
	}

	plan := store.saved[0]
	if plan.BabaTip != "{}" {
		t.Errorf("Expected raw response text as the tip, got %q", plan.BabaTip)
	}
	if len(plan.Slots) != 0 {
		t.Errorf("Expected no slots on a degraded plan, got %d", len(plan.Slots))
	}
	if len(catalog.saved) != 0 {
		t.Errorf("Expected zero recipe writes, got %d", len(catalog.saved))
	}
}

func TestReuseLastWeek(t *testing.T) {
	prior := Plan{
		ID:      "prior-plan",
		Type:    PlanWeekly,
		Variety: VarietyVaried,
		BabaTip: "Old tip",
		Days: []Day{
			{Number: 1, Name: "Monday", Slots: []MaterializedSlot{
				{SlotSkeleton: SlotSkeleton{TimeSlot: SlotBreakfast, RecipeName: "Porridge"}, RecipeID: "r-b1"},
				{SlotSkeleton: SlotSkeleton{TimeSlot: SlotDinner, RecipeName: "Stew"}, RecipeID: "r-d1"},
			}},
			{Number: 2, Name: "Tuesday", Slots: []MaterializedSlot{
				{SlotSkeleton: SlotSkeleton{TimeSlot: SlotBreakfast, RecipeName: "Eggs"}, RecipeID: "r-b2"},
			}},
		},
		CreatedAt: time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC),
	}
	stale := Plan{ID: "stale-plan", Type: PlanWeekly, CreatedAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)}

	// Deliberately listed oldest first: the store guarantees no order.
	store := &fakePlanStore{prior: []StoredPlan{
		{RowID: 1, Plan: stale, CreatedAt: stale.CreatedAt},
		{RowID: 2, Plan: prior, CreatedAt: prior.CreatedAt},
	}}
	catalog := &fakeCatalog{}
	gen := &mockTextGenerator{err: errors.New("generator must not be called on the reuse branch")}
	p, _, _ := newTestPlanner(store, catalog, gen)

	req := PlanRequest{
		MealPlanPrompt: "same as last week",
		Type:           PlanWeekly,
		Slots:          []TimeSlot{SlotDinner},
		ReuseLastWeek:  true,
	}
	result, metas, err := p.GeneratePlan(context.Background(), "user-1", req, nil)
	if err != nil {
		t.Fatalf("GeneratePlan failed: %v", err)
	}

	if len(catalog.saved) != 0 {
		t.Errorf("Expected zero recipe writes on the reuse branch, got %d", len(catalog.saved))
	}
	if len(metas) != 0 {
		t.Errorf("Expected no model calls on the reuse branch, got %d metas", len(metas))
	}

	plan := store.saved[0]
	if plan.Source != SourceReused {
		t.Errorf("Expected source %q, got %q", SourceReused, plan.Source)
	}
	// Tuesday had only breakfast, so filtering to dinner drops it entirely.
	if len(plan.Days) != 1 {
		t.Fatalf("Expected 1 day after filtering, got %d", len(plan.Days))
	}
	if got := plan.Days[0].Slots; len(got) != 1 || got[0].RecipeID != "r-d1" {
		t.Errorf("Expected the prior dinner recipe ID to carry over, got %+v", got)
	}
	if plan.ID == prior.ID {
		t.Error("Reuse must mint a new plan, not reuse the prior plan's identity")
	}
	if result.PlanID != plan.ID {
		t.Errorf("Result plan ID %q does not match persisted plan %q", result.PlanID, plan.ID)
	}
}

func TestReuseWithoutPriorPlanFallsBackToGeneration(t *testing.T) {
	store := &fakePlanStore{}
	catalog := &fakeCatalog{}
	gen := &mockTextGenerator{content: weeklySkeletonJSON(t, 7, SlotDinner)}
	p, _, _ := newTestPlanner(store, catalog, gen)

	req := PlanRequest{
		MealPlanPrompt: "same as last week",
		Type:           PlanWeekly,
		Slots:          []TimeSlot{SlotDinner},
		ReuseLastWeek:  true,
	}
	if _, _, err := p.GeneratePlan(context.Background(), "user-1", req, nil); err != nil {
		t.Fatalf("GeneratePlan failed: %v", err)
	}

	if len(catalog.saved) == 0 {
		t.Error("Expected new recipe writes when no prior plan exists")
	}
	if store.saved[0].Source != SourceGenerated {
		t.Errorf("Expected a generated plan, got source %q", store.saved[0].Source)
	}
}

func TestSlotFailureKeepsSlotCount(t *testing.T) {
	store := &fakePlanStore{}
	catalog := &fakeCatalog{}
	gen := &mockTextGenerator{content: weeklySkeletonJSON(t, 7, SlotDinner)}
	consolidator := &fakeConsolidator{}
	synth := &fakeSynth{failTitles: map[string]bool{"dinner dish 3": true}}
	p := NewPlanner(store, catalog, synth, consolidator, nil, gen)

	req := PlanRequest{
		MealPlanPrompt:      "anything",
		Type:                PlanWeekly,
		Slots:               []TimeSlot{SlotDinner},
		IncludeShoppingList: true,
	}
	if _, _, err := p.GeneratePlan(context.Background(), "user-1", req, nil); err != nil {
		t.Fatalf("GeneratePlan failed: %v", err)
	}

	plan := store.saved[0]
	total := 0
	for _, day := range plan.Days {
		total += len(day.Slots)
	}
	if total != 7 {
		t.Errorf("A slot failure must not reduce the slot count: expected 7, got %d", total)
	}
	if len(catalog.saved) != 7 {
		t.Errorf("Expected 7 recipe writes including the fallback, got %d", len(catalog.saved))
	}

	// The fallback recipe's single ingredient (the description) still feeds
	// the shopping list.
	if len(consolidator.calls) != 1 {
		t.Fatalf("Expected one consolidation call, got %d", len(consolidator.calls))
	}
	found := false
	for _, item := range consolidator.calls[0] {
		if item == "A dinner for day 3" {
			found = true
		}
	}
	if !found {
		t.Error("Expected the failed slot's description among the shopping list contributions")
	}
}

func TestShoppingListOnlyWhenRequested(t *testing.T) {
	store := &fakePlanStore{}
	catalog := &fakeCatalog{}
	gen := &mockTextGenerator{content: weeklySkeletonJSON(t, 7, SlotDinner)}
	p, consolidator, _ := newTestPlanner(store, catalog, gen)

	req := PlanRequest{MealPlanPrompt: "anything", Type: PlanWeekly, Slots: []TimeSlot{SlotDinner}}
	result, _, err := p.GeneratePlan(context.Background(), "user-1", req, nil)
	if err != nil {
		t.Fatalf("GeneratePlan failed: %v", err)
	}

	if len(consolidator.calls) != 0 {
		t.Errorf("Expected no consolidation when the list was not requested")
	}
	if result.ShoppingList != "" {
		t.Errorf("Expected no shopping list, got %q", result.ShoppingList)
	}
}

func TestPlanPersistenceFailureIsTerminal(t *testing.T) {
	store := &fakePlanStore{saveErr: errors.New("disk full")}
	catalog := &fakeCatalog{}
	gen := &mockTextGenerator{content: weeklySkeletonJSON(t, 7, SlotDinner)}
	p, _, _ := newTestPlanner(store, catalog, gen)

	req := PlanRequest{MealPlanPrompt: "anything", Type: PlanWeekly, Slots: []TimeSlot{SlotDinner}}
	result, _, err := p.GeneratePlan(context.Background(), "user-1", req, nil)
	if err == nil {
		t.Fatal("Expected an error when plan persistence fails")
	}
	if result != nil {
		t.Error("Expected no partial result on persistence failure")
	}
}

func TestRecipePersistenceFailureIsTerminal(t *testing.T) {
	store := &fakePlanStore{}
	catalog := &fakeCatalog{saveErr: errors.New("disk full")}
	gen := &mockTextGenerator{content: weeklySkeletonJSON(t, 7, SlotDinner)}
	p, _, _ := newTestPlanner(store, catalog, gen)

	req := PlanRequest{MealPlanPrompt: "anything", Type: PlanWeekly, Slots: []TimeSlot{SlotDinner}}
	_, _, err := p.GeneratePlan(context.Background(), "user-1", req, nil)
	if err == nil {
		t.Fatal("Expected an error when a recipe write fails")
	}
	if len(store.saved) != 0 {
		t.Error("Expected no plan persisted after a recipe write failure")
	}
}

func TestGeneratePlanDaily(t *testing.T) {
	sk := skeleton{
		BabaTip: "Drink water.",
		Slots: []SlotSkeleton{
			{TimeSlot: SlotBreakfast, RecipeName: "Toast", Description: "Simple toast"},
			{TimeSlot: SlotLunch, RecipeName: "Salad", Description: "Green salad"},
			{TimeSlot: SlotSnack, RecipeName: "Apple", Description: "An apple"},
		},
	}
	data, _ := json.Marshal(sk)

	store := &fakePlanStore{}
	catalog := &fakeCatalog{}
	gen := &mockTextGenerator{content: string(data)}
	p, _, _ := newTestPlanner(store, catalog, gen)
	sink := &recordingSink{}

	req := PlanRequest{
		MealPlanPrompt: "light day",
		Type:           PlanDaily,
		Slots:          []TimeSlot{SlotBreakfast, SlotLunch},
	}
	if _, _, err := p.GeneratePlan(context.Background(), "user-1", req, sink); err != nil {
		t.Fatalf("GeneratePlan failed: %v", err)
	}

	plan := store.saved[0]
	if len(plan.Days) != 0 {
		t.Errorf("Daily plan must have no day entries, got %d", len(plan.Days))
	}
	if len(plan.Slots) != 2 {
		t.Fatalf("Expected 2 slots after filtering, got %d", len(plan.Slots))
	}
	if len(sink.events) != 2 || sink.events[1].Total != 2 {
		t.Errorf("Expected 2 progress events with total 2, got %+v", sink.events)
	}
}
