package telegram

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"baba-meal-planner/internal/config"
	"baba-meal-planner/internal/metrics"
	"baba-meal-planner/internal/planner"
	"baba-meal-planner/internal/prefs"
	"baba-meal-planner/internal/recipe"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Bot wraps the Telegram API and drives plan generation from chat messages.
type Bot struct {
	api          *tgbotapi.BotAPI
	planner      *planner.Planner
	recipeRepo   *recipe.Repository
	prefsRepo    *prefs.Repository
	metricsStore *metrics.Store
	cfg          *config.Config
}

// NewBot initializes the Telegram Bot and sets the Webhook.
func NewBot(
	cfg *config.Config,
	pl *planner.Planner,
	recipeRepo *recipe.Repository,
	prefsRepo *prefs.Repository,
	metricsStore *metrics.Store,
) (*Bot, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram api: %w", err)
	}

	log.Printf("Authorized on account %s", bot.Self.UserName)

	wh, _ := tgbotapi.NewWebhook(cfg.TelegramWebhookURL)
	resp, err := bot.Request(wh)
	if err != nil {
		return nil, fmt.Errorf("failed to set webhook to %s: %w", cfg.TelegramWebhookURL, err)
	}
	log.Printf("Webhook set response: %s", resp.Description)

	return &Bot{
		api:          bot,
		planner:      pl,
		recipeRepo:   recipeRepo,
		prefsRepo:    prefsRepo,
		metricsStore: metricsStore,
		cfg:          cfg,
	}, nil
}

// RegisterHandlers registers the webhook handler with the given mux.
func (b *Bot) RegisterHandlers(mux *http.ServeMux) {
	mux.HandleFunc("/webhook", b.handleWebhook)
}

func (b *Bot) handleWebhook(w http.ResponseWriter, r *http.Request) {
	update, err := b.api.HandleUpdate(r)
	if err != nil {
		log.Printf("Error parsing update: %v", err)
		return
	}

	if update.Message == nil {
		return
	}

	isAllowed := false
	for _, id := range b.cfg.TelegramAllowedUserIDs {
		if update.Message.From.ID == id {
			isAllowed = true
			break
		}
	}

	if !isAllowed {
		log.Printf("⚠️ Unauthorized access attempt from UserID: %d (@%s)", update.Message.From.ID, update.Message.From.UserName)
		return
	}

	go b.processMessage(update.Message)
}

func (b *Bot) processMessage(msg *tgbotapi.Message) {
	if msg.Text == "/metrics" {
		b.handleMetricsRequest(msg)
		return
	}
	if id, ok := strings.CutPrefix(msg.Text, "/recipe "); ok {
		b.handleRecipeRequest(msg.Chat.ID, strings.TrimSpace(id))
		return
	}

	req, err := parseRequest(msg.Text)
	if err != nil {
		reply := tgbotapi.NewMessage(msg.Chat.ID, "🥄 Tell me what you'd like to eat, for example: _light vegetarian dinners, 30 minutes max_")
		reply.ParseMode = "Markdown"
		b.api.Send(reply)
		return
	}

	b.generateAndSendPlan(msg.Chat.ID, msg.From.ID, req)
}

// parseRequest maps a chat message to a plan request. A "/daily" prefix
// plans a single day, "/again" repeats last week; everything else is a
// weekly plan with a shopping list.
func parseRequest(text string) (planner.PlanRequest, error) {
	text = strings.TrimSpace(text)

	req := planner.PlanRequest{
		Type:                planner.PlanWeekly,
		IncludeShoppingList: true,
	}

	switch {
	case strings.HasPrefix(text, "/daily"):
		req.Type = planner.PlanDaily
		req.MealPlanPrompt = strings.TrimSpace(strings.TrimPrefix(text, "/daily"))
	case text == "/again":
		req.ReuseLastWeek = true
		req.MealPlanPrompt = "same as last week"
	default:
		req.MealPlanPrompt = text
	}

	if req.MealPlanPrompt == "" {
		return planner.PlanRequest{}, fmt.Errorf("empty plan request")
	}
	return req, nil
}

func (b *Bot) handleMetricsRequest(msg *tgbotapi.Message) {
	if msg.From.ID != b.cfg.AdminTelegramID {
		b.api.Send(tgbotapi.NewMessage(msg.Chat.ID, "⛔ *Access Denied*: Admin only."))
		return
	}
	b.handleMetricsCommand(msg.Chat.ID)
}

func (b *Bot) generateAndSendPlan(chatID int64, telegramID int64, req planner.PlanRequest) {
	statusText := "🧑‍🍳 *Thinking...* \n(Sketching your plan)"
	replyMsg := tgbotapi.NewMessage(chatID, statusText)
	replyMsg.ParseMode = "Markdown"
	sentMsg, err := b.api.Send(replyMsg)
	if err != nil {
		log.Printf("Failed to send initial reply: %v", err)
		return
	}

	ctx := context.Background()
	userID := fmt.Sprintf("%d", telegramID)

	stored, err := b.prefsRepo.Get(ctx, userID)
	if err != nil {
		log.Printf("Warning: could not read preferences for user %s: %v", userID, err)
	}
	req = prefs.Resolve(req, stored)

	// Remember where this user chats so the weekly job can deliver there.
	if stored != nil && stored.DeliveryChatID != chatID {
		stored.DeliveryChatID = chatID
		if err := b.prefsRepo.Upsert(ctx, stored); err != nil {
			log.Printf("Warning: could not update delivery chat for user %s: %v", userID, err)
		}
	}

	sink := &editingSink{bot: b, chatID: chatID, messageID: sentMsg.MessageID}

	log.Printf("Generating %s plan for user %s: %s", req.Type, userID, req.MealPlanPrompt)
	result, metas, err := b.planner.GeneratePlan(ctx, userID, req, sink)

	// Record metrics even if it errored, as long as calls were made.
	for _, m := range metas {
		if err := b.metricsStore.RecordMeta(m); err != nil {
			log.Printf("Warning: failed to record metric for %s: %v", m.AgentName, err)
		}
	}

	if err != nil {
		log.Printf("Error generating plan: %v", err)
		safeErr := strings.ReplaceAll(err.Error(), "`", "'")
		finalText := fmt.Sprintf("❌ *Error generating plan:*\n```\n%v\n```", safeErr)
		edit := tgbotapi.NewEditMessageText(chatID, sentMsg.MessageID, finalText)
		edit.ParseMode = "Markdown"
		b.api.Send(edit)
		return
	}

	edit := tgbotapi.NewEditMessageText(chatID, sentMsg.MessageID, formatPlanMessage(result))
	edit.ParseMode = "Markdown"
	b.api.Send(edit)

	if result.ShoppingList != "" {
		shoppingMsg := tgbotapi.NewMessage(chatID, formatShoppingListMessage(result))
		shoppingMsg.ParseMode = "Markdown"
		b.api.Send(shoppingMsg)
	}
}

// SendPlain delivers a plain-text message to a chat. Used by the weekly job.
func (b *Bot) SendPlain(chatID int64, text string) error {
	_, err := b.api.Send(tgbotapi.NewMessage(chatID, text))
	return err
}

func formatPlanMessage(result *planner.PlanResult) string {
	var sb strings.Builder
	sb.WriteString("📅 *Your Meal Plan*\n\n")
	sb.WriteString(result.PlainText)
	return sb.String()
}

func formatShoppingListMessage(result *planner.PlanResult) string {
	var sb strings.Builder
	sb.WriteString("🛒 *Shopping List*\n_(quantities are approximate)_\n\n")
	sb.WriteString(result.ShoppingList)
	return sb.String()
}

// handleRecipeRequest resolves one of the [recipe:<id>] references a linked
// plan carries and sends the full recipe.
func (b *Bot) handleRecipeRequest(chatID int64, id string) {
	rec, err := b.recipeRepo.Get(context.Background(), id)
	if err != nil {
		log.Printf("Error loading recipe %s: %v", id, err)
		b.api.Send(tgbotapi.NewMessage(chatID, "❌ Error loading recipe."))
		return
	}
	if rec == nil {
		b.api.Send(tgbotapi.NewMessage(chatID, "🤷 I don't know that recipe."))
		return
	}

	msg := tgbotapi.NewMessage(chatID, formatRecipeMessage(rec))
	msg.ParseMode = "Markdown"
	b.api.Send(msg)
}

func formatRecipeMessage(rec *recipe.Recipe) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "🍲 *%s*\n", rec.RecipeTitle)
	if rec.RecipeSummary != "" {
		fmt.Fprintf(&sb, "_%s_\n", rec.RecipeSummary)
	}
	fmt.Fprintf(&sb, "⏱ %s · %s · %s\n", rec.CookingTime, rec.CookingDifficulty, rec.CuisineType)

	sb.WriteString("\n*Ingredients*\n")
	for _, ing := range rec.Ingredients {
		fmt.Fprintf(&sb, "• %s\n", ing)
	}

	sb.WriteString("\n*Directions*\n")
	for i, step := range rec.Directions {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, step)
	}
	return sb.String()
}

func (b *Bot) handleMetricsCommand(chatID int64) {
	usage, err := b.metricsStore.GetDailyUsage(7)
	if err != nil {
		b.api.Send(tgbotapi.NewMessage(chatID, "❌ Error fetching metrics."))
		return
	}

	health := metrics.GetSysHealth(b.cfg.DatabasePath)

	var sb strings.Builder
	sb.WriteString("📊 *Usage & Health Report*\n\n")

	sb.WriteString("🗓 *Recent LLM Activity*\n")
	if len(usage) == 0 {
		sb.WriteString("_No data yet_\n")
	}
	for _, d := range usage {
		sb.WriteString(fmt.Sprintf("• *%s*: %d tokens (%d execs)\n", d.Date, d.TotalPrompt+d.TotalCompletion, d.TotalExecution))
	}

	sb.WriteString("\n🧠 *System Health*\n")
	sb.WriteString(fmt.Sprintf("• RAM: %dMB (Alloc) / %dMB (Sys)\n", health.AllocMB, health.SysMB))
	sb.WriteString(fmt.Sprintf("• Goroutines: %d\n", health.Goroutines))
	sb.WriteString(fmt.Sprintf("• Disk Data: %s\n", health.DBFileSize))

	if count, err := b.recipeRepo.Count(context.Background()); err == nil {
		sb.WriteString(fmt.Sprintf("• Recipes in catalog: %d\n", count))
	}

	msg := tgbotapi.NewMessage(chatID, sb.String())
	msg.ParseMode = "Markdown"
	b.api.Send(msg)
}

// editingSink rewrites the status message as slots are materialized. Edits
// are throttled so long plans do not hit Telegram rate limits.
type editingSink struct {
	bot       *Bot
	chatID    int64
	messageID int
	lastEdit  time.Time
}

const editInterval = 2 * time.Second

func (s *editingSink) Emit(e planner.ProgressEvent) {
	if time.Since(s.lastEdit) < editInterval && e.RunningIndex != e.Total {
		return
	}
	s.lastEdit = time.Now()

	edit := tgbotapi.NewEditMessageText(s.chatID, s.messageID, formatProgress(e))
	edit.ParseMode = "Markdown"
	s.bot.api.Send(edit)
}

func formatProgress(e planner.ProgressEvent) string {
	var sb strings.Builder
	sb.WriteString("🧑‍🍳 *Cooking up your plan...*\n")
	if e.DayLabel != "" {
		fmt.Fprintf(&sb, "%s, ", e.DayLabel)
	}
	fmt.Fprintf(&sb, "%s: _%s_\n", e.SlotLabel, e.RecipeName)
	fmt.Fprintf(&sb, "(%d of %d)", e.RunningIndex, e.Total)
	return sb.String()
}
