package planner

import (
	"context"
	"fmt"
	"log"
	"time"

	"baba-meal-planner/internal/llm"
	"baba-meal-planner/internal/recipe"
	"baba-meal-planner/internal/shared"
	"baba-meal-planner/internal/shopping"

	"github.com/google/uuid"
)

// RecipeCatalog persists materialized recipes and returns their minted IDs.
type RecipeCatalog interface {
	Save(ctx context.Context, rec recipe.Recipe) (string, error)
}

// SlotSynthesizer expands one skeleton slot into a full recipe. It never
// fails; degraded output is the fallback recipe.
type SlotSynthesizer interface {
	Synthesize(ctx context.Context, title, description string) (recipe.Recipe, shared.AgentMeta)
}

// ListConsolidator merges collected ingredient lines into shopping list text.
type ListConsolidator interface {
	Consolidate(ctx context.Context, items []string) (string, shared.AgentMeta, error)
}

// PlanStore is the append-only plan persistence used by the orchestrator.
type PlanStore interface {
	Save(ctx context.Context, userID string, plan *Plan) error
	ListRecentByUserAndType(ctx context.Context, userID string, planType PlanType, limit int) ([]StoredPlan, error)
}

// ShoppingStore persists consolidated shopping lists per plan.
type ShoppingStore interface {
	Save(ctx context.Context, list *shopping.ShoppingList) (int64, error)
}

// reuseCandidateLimit bounds how many prior plans the reuse branch inspects.
const reuseCandidateLimit = 10

// Planner drives the whole plan-generation pipeline: skeleton generation,
// variety branching, slot materialization, consolidation, assembly and
// persistence. Steps run strictly one at a time; no state is shared between
// invocations.
type Planner struct {
	plans         PlanStore
	catalog       RecipeCatalog
	synth         SlotSynthesizer
	consolidator  ListConsolidator
	shoppingStore ShoppingStore
	textGen       llm.TextGenerator
}

// NewPlanner creates a new Planner. shoppingStore may be nil, in which case
// consolidated lists live only inside the plan document.
func NewPlanner(
	plans PlanStore,
	catalog RecipeCatalog,
	synth SlotSynthesizer,
	consolidator ListConsolidator,
	shoppingStore ShoppingStore,
	textGen llm.TextGenerator,
) *Planner {
	return &Planner{
		plans:         plans,
		catalog:       catalog,
		synth:         synth,
		consolidator:  consolidator,
		shoppingStore: shoppingStore,
		textGen:       textGen,
	}
}

// GeneratePlan runs one invocation end to end and returns the persisted
// result plus metadata for every model call made. Slot-level failures are
// absorbed (fallback recipes); only invalid input and persistence failures
// surface as errors.
func (p *Planner) GeneratePlan(ctx context.Context, userID string, req PlanRequest, sink ProgressSink) (*PlanResult, []shared.AgentMeta, error) {
	if sink == nil {
		sink = NopSink{}
	}
	if err := ValidateRequest(&req); err != nil {
		return nil, nil, err
	}

	var metas []shared.AgentMeta

	// Reuse branch: same_every_week is the policy spelling of the reuse flag.
	if req.Type == PlanWeekly && (req.ReuseLastWeek || req.Variety == VarietySameEveryWeek) {
		result, found, err := p.reuseLastWeek(ctx, userID, req)
		if err != nil {
			return nil, metas, err
		}
		if found {
			return result, metas, nil
		}
		// No prior weekly plan; fall through to normal generation.
	}

	sk, rawText, meta, err := p.runSkeleton(ctx, req)
	metas = append(metas, meta)
	if err != nil {
		return nil, metas, err
	}

	plan := p.newPlan(req, SourceGenerated)

	if sk == nil {
		// Degraded plan: the raw response becomes the note, no slots, no
		// recipe writes.
		log.Printf("Skeleton response unparseable for user %s, persisting degraded plan", userID)
		plan.BabaTip = rawText
		if err := p.plans.Save(ctx, userID, plan); err != nil {
			return nil, metas, fmt.Errorf("failed to persist plan: %w", err)
		}
		return assemble(plan), metas, nil
	}

	plan.BabaTip = sk.BabaTip
	if req.Type == PlanWeekly {
		days := sk.Days
		if req.Variety == VarietySameEveryDay && len(days) > 0 {
			// The generator was asked for one template day; duplicate the
			// first across the week even if it returned more.
			days = duplicateTemplate(days[0])
		}
		plan.Days = normalizeWeek(days, req.Slots)
	} else {
		plan.Slots = filterSlots(sk.Slots, req.Slots)
	}

	ingredients, err := p.materializePlan(ctx, plan, sink, &metas)
	if err != nil {
		return nil, metas, err
	}

	if req.IncludeShoppingList && len(ingredients) > 0 {
		rendered, cmeta, cerr := p.consolidator.Consolidate(ctx, ingredients)
		metas = append(metas, cmeta)
		if cerr != nil {
			// Only possible on empty input, which is guarded above.
			log.Printf("Warning: consolidation rejected input: %v", cerr)
		} else {
			plan.ShoppingList = rendered
		}
	}

	if err := p.plans.Save(ctx, userID, plan); err != nil {
		return nil, metas, fmt.Errorf("failed to persist plan: %w", err)
	}

	if plan.ShoppingList != "" && p.shoppingStore != nil {
		if _, err := p.shoppingStore.Save(ctx, &shopping.ShoppingList{
			UserID:     userID,
			MealPlanID: plan.ID,
			Items:      ingredients,
			Rendered:   plan.ShoppingList,
		}); err != nil {
			log.Printf("Warning: failed to persist shopping list for plan %s: %v", plan.ID, err)
		}
	}

	return assemble(plan), metas, nil
}

// materializePlan resolves the final filtered slot list, then walks it in
// day-major, slot-minor order, emitting one progress event immediately
// before each synthesis call. Every slot gets a recipe write; synthesis
// failures are absorbed by the fallback recipe, so only a failed write
// aborts the run.
func (p *Planner) materializePlan(ctx context.Context, plan *Plan, sink ProgressSink, metas *[]shared.AgentMeta) ([]string, error) {
	total := countSlots(plan)
	var ingredients []string
	index := 0

	if plan.Type == PlanWeekly {
		for di := range plan.Days {
			day := &plan.Days[di]
			for si := range day.Slots {
				slot := &day.Slots[si]
				index++
				sink.Emit(ProgressEvent{
					DayLabel:      day.Name,
					SlotLabel:     slot.TimeSlot,
					RecipeName:    slot.RecipeName,
					RunningIndex:  index,
					Total:         total,
					CompletedDays: di,
				})
				ing, err := p.materializeSlot(ctx, slot, metas)
				if err != nil {
					return nil, err
				}
				ingredients = append(ingredients, ing...)
			}
		}
		return ingredients, nil
	}

	for si := range plan.Slots {
		slot := &plan.Slots[si]
		index++
		sink.Emit(ProgressEvent{
			SlotLabel:    slot.TimeSlot,
			RecipeName:   slot.RecipeName,
			RunningIndex: index,
			Total:        total,
		})
		ing, err := p.materializeSlot(ctx, slot, metas)
		if err != nil {
			return nil, err
		}
		ingredients = append(ingredients, ing...)
	}
	return ingredients, nil
}

func (p *Planner) materializeSlot(ctx context.Context, slot *MaterializedSlot, metas *[]shared.AgentMeta) ([]string, error) {
	rec, meta := p.synth.Synthesize(ctx, slot.RecipeName, slot.Description)
	*metas = append(*metas, meta)

	id, err := p.catalog.Save(ctx, rec)
	if err != nil {
		return nil, fmt.Errorf("failed to persist recipe for slot %q: %w", slot.RecipeName, err)
	}
	slot.RecipeID = id
	return rec.Ingredients, nil
}

func (p *Planner) newPlan(req PlanRequest, source string) *Plan {
	return &Plan{
		ID:        uuid.NewString(),
		Type:      req.Type,
		Variety:   req.Variety,
		Source:    source,
		CreatedAt: time.Now().UTC(),
	}
}

// normalizeWeek truncates excess days to 7 and renumbers 1..7 with canonical
// Monday-start labels. Short skeletons are kept as-is, not padded.
func normalizeWeek(days []skeletonDay, requested []TimeSlot) []Day {
	if len(days) > 7 {
		days = days[:7]
	}

	result := make([]Day, 0, len(days))
	for i, d := range days {
		result = append(result, Day{
			Number: i + 1,
			Name:   canonicalDayNames[i],
			Slots:  filterSlots(d.Slots, requested),
		})
	}
	return result
}

// filterSlots keeps only slots inside the requested slot set.
func filterSlots(sks []SlotSkeleton, requested []TimeSlot) []MaterializedSlot {
	var result []MaterializedSlot
	for _, sk := range sks {
		if slotRequested(sk.TimeSlot, requested) {
			result = append(result, MaterializedSlot{SlotSkeleton: sk})
		}
	}
	return result
}

func duplicateTemplate(template skeletonDay) []skeletonDay {
	days := make([]skeletonDay, 7)
	for i := range days {
		days[i] = skeletonDay{Day: i + 1, DayName: canonicalDayNames[i], Slots: template.Slots}
	}
	return days
}

func countSlots(plan *Plan) int {
	if plan.Type == PlanDaily {
		return len(plan.Slots)
	}
	total := 0
	for _, day := range plan.Days {
		total += len(day.Slots)
	}
	return total
}
