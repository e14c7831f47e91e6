package recipe

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"html/template"
	"log"
	"time"

	"baba-meal-planner/internal/llm"
	"baba-meal-planner/internal/shared"
)

//go:embed synthesizer_prompt.md
var synthesizerPrompt string

// Field-level defaults for metadata the model omitted.
const (
	defaultCuisine    = "international"
	defaultDifficulty = "medium"
	defaultTime       = "30 minutes"
)

// Synthesizer expands a recipe name and one-line description into a full
// recipe. It never fails: a call or parse error yields a fallback recipe
// whose ingredients and directions are the description itself, keeping the
// surrounding plan structurally valid.
type Synthesizer struct {
	textGen llm.TextGenerator
}

// NewSynthesizer creates a new Synthesizer.
func NewSynthesizer(textGen llm.TextGenerator) *Synthesizer {
	return &Synthesizer{textGen: textGen}
}

type synthesizerPromptData struct {
	RecipeTitle string
	ContentHint string
}

// rawSynthesis is the partial record returned by the model; any field may be absent.
type rawSynthesis struct {
	Ingredients       []string `json:"ingredients"`
	Directions        []string `json:"directions"`
	CuisineType       string   `json:"cuisine_type"`
	CookingDifficulty string   `json:"cooking_difficulty"`
	CookingTime       string   `json:"cooking_time"`
	Diet              []string `json:"diet"`
	RecipeSummary     string   `json:"recipe_summary"`
}

// Synthesize materializes one slot into a Recipe. The returned recipe is
// always storable; failures degrade to the description fallback.
func (s *Synthesizer) Synthesize(ctx context.Context, title, description string) (Recipe, shared.AgentMeta) {
	start := time.Now()
	meta := shared.AgentMeta{AgentName: "Synthesizer"}

	prompt, err := buildSynthesizerPrompt(synthesizerPromptData{
		RecipeTitle: title,
		ContentHint: description,
	})
	if err != nil {
		log.Printf("Warning: failed to build synthesizer prompt for %q: %v", title, err)
		return Fallback(title, description), meta
	}

	resp, err := s.textGen.GenerateContent(ctx, prompt)
	meta.Usage = resp.Usage
	meta.Latency = time.Since(start)
	if err != nil {
		log.Printf("Warning: synthesis call failed for %q, using fallback: %v", title, err)
		return Fallback(title, description), meta
	}

	var raw rawSynthesis
	if err := json.Unmarshal([]byte(resp.Content), &raw); err != nil {
		log.Printf("Warning: unparseable synthesis for %q, using fallback: %v", title, err)
		return Fallback(title, description), meta
	}

	rec := Recipe{
		RecipeTitle:       title,
		Ingredients:       raw.Ingredients,
		Directions:        raw.Directions,
		CuisineType:       raw.CuisineType,
		CookingDifficulty: raw.CookingDifficulty,
		CookingTime:       raw.CookingTime,
		Diet:              raw.Diet,
		RecipeSummary:     raw.RecipeSummary,
		Origin:            OriginMealPlan,
		OriginDescription: description,
	}

	// Ingredient and direction lists must stay non-empty for the plan to
	// remain structurally valid.
	if len(rec.Ingredients) == 0 {
		rec.Ingredients = []string{description}
	}
	if len(rec.Directions) == 0 {
		rec.Directions = []string{description}
	}
	if rec.CuisineType == "" {
		rec.CuisineType = defaultCuisine
	}
	if rec.CookingDifficulty == "" {
		rec.CookingDifficulty = defaultDifficulty
	}
	if rec.CookingTime == "" {
		rec.CookingTime = defaultTime
	}

	return rec, meta
}

// Fallback builds the degraded recipe used when synthesis fails outright.
func Fallback(title, description string) Recipe {
	return Recipe{
		RecipeTitle:       title,
		Ingredients:       []string{description},
		Directions:        []string{description},
		CuisineType:       defaultCuisine,
		CookingDifficulty: defaultDifficulty,
		CookingTime:       defaultTime,
		Origin:            OriginMealPlan,
		OriginDescription: description,
	}
}

func buildSynthesizerPrompt(data synthesizerPromptData) (string, error) {
	tmpl, err := template.New("synthesizer").Parse(synthesizerPrompt)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}
