package planner

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"html/template"
	"time"

	"baba-meal-planner/internal/shared"
)

//go:embed skeleton_prompt.md
var skeletonPrompt string

type skeletonPromptData struct {
	MealPlanPrompt      string
	DietaryPreferences  []string
	PreferredCookingOil string
	IngredientsOnHand   []string
	CalorieTarget       int
	Slots               []TimeSlot
	VarietyInstructions string
	Weekly              bool
}

// skeletonDay mirrors the generator's day shape before normalization.
type skeletonDay struct {
	Day     int            `json:"day"`
	DayName string         `json:"day_name"`
	Slots   []SlotSkeleton `json:"slots"`
}

// skeleton is the parsed generator response: a weekly day list or a daily
// flat slot list, plus the tip.
type skeleton struct {
	BabaTip string         `json:"baba_tip"`
	Days    []skeletonDay  `json:"days"`
	Slots   []SlotSkeleton `json:"slots"`
}

// runSkeleton calls the plan-outline generator. A transport failure is
// returned as an error; the raw response text is always returned so an
// unparseable body can become a degraded plan's note.
func (p *Planner) runSkeleton(ctx context.Context, req PlanRequest) (*skeleton, string, shared.AgentMeta, error) {
	start := time.Now()
	meta := shared.AgentMeta{AgentName: "Skeleton"}

	prompt, err := buildSkeletonPrompt(req)
	if err != nil {
		return nil, "", meta, fmt.Errorf("failed to build skeleton prompt: %w", err)
	}

	resp, err := p.textGen.GenerateContent(ctx, prompt)
	meta.Usage = resp.Usage
	meta.Latency = time.Since(start)
	if err != nil {
		return nil, "", meta, fmt.Errorf("skeleton generation failed: %w", err)
	}

	var sk skeleton
	if err := json.Unmarshal([]byte(resp.Content), &sk); err != nil {
		return nil, resp.Content, meta, nil
	}
	if len(sk.Days) == 0 && len(sk.Slots) == 0 && sk.BabaTip == "" {
		// Valid JSON, but nothing we recognize; treat it like unparseable text.
		return nil, resp.Content, meta, nil
	}

	return &sk, resp.Content, meta, nil
}

// varietyInstructions renders the policy as instruction text. Structural
// compliance is not checked afterwards.
func varietyInstructions(req PlanRequest) string {
	switch req.Variety {
	case VarietySameEveryDay:
		return "Plan exactly ONE template day. The same meals will be eaten every day of the week, so return a single day only."
	case VarietyLeftovers:
		return "Cook larger dinners every other day and plan the next day's dinner as leftovers of the previous one."
	case VarietyMealPrepSunday:
		return "Assume all cooking happens on Sunday. Plan dishes that keep well and repeat prepared components across the week."
	case VarietySameEveryWeek:
		// Reaching generation with this policy means there was no prior
		// week to clone; plan a normal varied week.
		return "Plan a balanced week with a different dish in every slot."
	default:
		return "Plan a balanced week with a different dish in every slot. Avoid repeating any dish."
	}
}

func buildSkeletonPrompt(req PlanRequest) (string, error) {
	tmpl, err := template.New("skeleton").Parse(skeletonPrompt)
	if err != nil {
		return "", err
	}

	data := skeletonPromptData{
		MealPlanPrompt:      req.MealPlanPrompt,
		DietaryPreferences:  req.DietaryPreferences,
		PreferredCookingOil: req.PreferredCookingOil,
		IngredientsOnHand:   req.IngredientsOnHand,
		CalorieTarget:       req.CalorieTarget,
		Slots:               req.Slots,
		VarietyInstructions: varietyInstructions(req),
		Weekly:              req.Type == PlanWeekly,
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}
