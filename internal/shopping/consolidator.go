package shopping

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"html/template"
	"log"
	"sort"
	"strings"
	"time"

	"baba-meal-planner/internal/llm"
	"baba-meal-planner/internal/shared"
)

//go:embed consolidator_prompt.md
var consolidatorPrompt string

// Consolidator merges raw ingredient lines into a categorized shopping list.
// The quantity merge is best-effort, never exact arithmetic. A model failure
// degrades to a flat, uncategorized list of the raw lines.
type Consolidator struct {
	textGen llm.TextGenerator
}

// NewConsolidator creates a new Consolidator.
func NewConsolidator(textGen llm.TextGenerator) *Consolidator {
	return &Consolidator{textGen: textGen}
}

type consolidatorPromptData struct {
	Items []string
}

// Consolidate returns the rendered shopping list text. It errors only on
// empty input, which callers must reject before any upstream call.
func (c *Consolidator) Consolidate(ctx context.Context, items []string) (string, shared.AgentMeta, error) {
	meta := shared.AgentMeta{AgentName: "Consolidator"}
	if len(items) == 0 {
		return "", meta, fmt.Errorf("cannot consolidate an empty ingredient list")
	}

	start := time.Now()
	prompt, err := buildConsolidatorPrompt(consolidatorPromptData{Items: items})
	if err != nil {
		log.Printf("Warning: failed to build consolidator prompt: %v", err)
		return flatList(items), meta, nil
	}

	resp, err := c.textGen.GenerateContent(ctx, prompt)
	meta.Usage = resp.Usage
	meta.Latency = time.Since(start)
	if err != nil {
		log.Printf("Warning: consolidation call failed, using flat list: %v", err)
		return flatList(items), meta, nil
	}

	rendered, ok := parseConsolidation(resp.Content)
	if !ok {
		log.Printf("Warning: unparseable consolidation response, using flat list")
		return flatList(items), meta, nil
	}

	return rendered, meta, nil
}

// parseConsolidation accepts either a category-keyed map of newline-joined
// strings or a single flat string under "shopping_list". The flat shape is
// checked first; it would otherwise parse as a one-category map.
func parseConsolidation(content string) (string, bool) {
	var flat struct {
		ShoppingList string `json:"shopping_list"`
	}
	if err := json.Unmarshal([]byte(content), &flat); err == nil && flat.ShoppingList != "" {
		return flat.ShoppingList, true
	}

	var categorized map[string]string
	if err := json.Unmarshal([]byte(content), &categorized); err == nil && len(categorized) > 0 {
		return renderCategories(categorized), true
	}

	return "", false
}

func renderCategories(categorized map[string]string) string {
	// Models occasionally emit an empty category key; bucket those items
	// under "other" instead of losing them.
	if stray, ok := categorized[""]; ok {
		delete(categorized, "")
		if existing := categorized["other"]; existing != "" {
			categorized["other"] = existing + "\n" + stray
		} else {
			categorized["other"] = stray
		}
	}

	categories := make([]string, 0, len(categorized))
	for cat := range categorized {
		categories = append(categories, cat)
	}
	sort.Strings(categories)

	var sb strings.Builder
	for i, cat := range categories {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(strings.ToUpper(cat[:1]) + cat[1:] + ":")
		for _, line := range strings.Split(categorized[cat], "\n") {
			if line = strings.TrimSpace(line); line != "" {
				sb.WriteString("\n- " + line)
			}
		}
	}
	return sb.String()
}

func flatList(items []string) string {
	return strings.Join(items, "\n")
}

func buildConsolidatorPrompt(data consolidatorPromptData) (string, error) {
	tmpl, err := template.New("consolidator").Parse(consolidatorPrompt)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}
