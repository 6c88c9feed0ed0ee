package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"mealhow/internal/config"
	"mealhow/internal/dietplan"
	"mealhow/internal/logger"
	"mealhow/internal/metrics"
	"mealhow/internal/planner"
	"mealhow/internal/shopping"
)

const (
	updateTimeout = 10 * time.Minute
	historySize   = 5
)

// PlanService generates meal plans.
type PlanService interface {
	Generate(ctx context.Context, req planner.Request) (*planner.MealPlan, error)
}

// PlanStore looks up stored plans.
type PlanStore interface {
	GetActiveByUser(ctx context.Context, userID string) (*planner.MealPlan, error)
	ListRecentByUser(ctx context.Context, userID string, limit int) ([]planner.MealPlan, error)
}

// ShoppingLists creates shopping list documents.
type ShoppingLists interface {
	Create(ctx context.Context, list *shopping.ShoppingList) error
}

// ShoppingService fills a shopping list.
type ShoppingService interface {
	Generate(ctx context.Context, listID string, mealIDs []string) (*shopping.ShoppingList, error)
}

// UsageReader reports token usage per day.
type UsageReader interface {
	GetDailyUsage(ctx context.Context, days int) ([]metrics.DailyUsage, error)
}

// Deps are the services the bot commands use. Usage is optional.
type Deps struct {
	Plans         PlanService
	PlanStore     PlanStore
	ShoppingLists ShoppingLists
	Shopping      ShoppingService
	Usage         UsageReader
	DataDir       string
}

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Bot answers Telegram webhook updates from allowed users.
type Bot struct {
	api     sender
	deps    Deps
	allowed []int64
	log     *logger.Logger
}

// NewBot initializes the Telegram API and sets the webhook when configured.
func NewBot(cfg *config.Config, deps Deps, log *logger.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram api: %w", err)
	}
	log = log.With("service", "TelegramBot")
	log.Info("Authorized on account", "username", api.Self.UserName)

	if cfg.TelegramWebhookURL != "" {
		wh, err := tgbotapi.NewWebhook(cfg.TelegramWebhookURL)
		if err != nil {
			return nil, fmt.Errorf("invalid webhook url: %w", err)
		}
		resp, err := api.Request(wh)
		if err != nil {
			return nil, fmt.Errorf("failed to set webhook to %s: %w", cfg.TelegramWebhookURL, err)
		}
		log.Info("Webhook set", "description", resp.Description)
	}

	return newBot(api, deps, cfg.TelegramAllowedUserIDs, log), nil
}

func newBot(api sender, deps Deps, allowed []int64, log *logger.Logger) *Bot {
	return &Bot{api: api, deps: deps, allowed: allowed, log: log}
}

// ServeHTTP acknowledges the update and processes it in the background.
func (b *Bot) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var update tgbotapi.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		b.log.Warn("Error parsing update", "error", err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusOK)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), updateTimeout)
		defer cancel()
		b.handleUpdate(ctx, update)
	}()
}

func (b *Bot) isAllowed(userID int64) bool {
	return slices.Contains(b.allowed, userID)
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.From == nil {
		return
	}
	if !b.isAllowed(msg.From.ID) {
		b.log.Warn("Unauthorized access attempt", "user_id", msg.From.ID, "username", msg.From.UserName)
		return
	}

	userID := fmt.Sprintf("tg:%d", msg.From.ID)
	switch msg.Command() {
	case "start", "help":
		b.reply(msg.Chat.ID, helpText)
	case "plan":
		b.handlePlan(ctx, msg.Chat.ID, userID, msg.CommandArguments())
	case "current":
		b.handleCurrent(ctx, msg.Chat.ID, userID)
	case "history":
		b.handleHistory(ctx, msg.Chat.ID, userID)
	case "shopping":
		b.handleShopping(ctx, msg.Chat.ID, userID)
	case "usage":
		b.handleUsage(ctx, msg.Chat.ID)
	case "":
		// A bare number is a plan request.
		if _, err := parseCalories(msg.Text); err == nil {
			b.handlePlan(ctx, msg.Chat.ID, userID, msg.Text)
			return
		}
		b.reply(msg.Chat.ID, helpText)
	default:
		b.reply(msg.Chat.ID, "Unknown command. Send /help for the list.")
	}
}

func (b *Bot) handlePlan(ctx context.Context, chatID int64, userID, args string) {
	kcal, err := parseCalories(args)
	if err != nil {
		b.reply(chatID, "Usage: `/plan 2000` (daily calories goal)")
		return
	}

	b.reply(chatID, "🧑‍🍳 *Thinking...*\n(Generating your meal plan)")
	plan, err := b.deps.Plans.Generate(ctx, planner.Request{
		UserID: userID,
		Input:  dietplan.PromptInput{CaloriesGoal: kcal},
	})
	if err != nil {
		b.log.Error("Error generating plan", "user_id", userID, "error", err)
		b.reply(chatID, formatError("Error generating plan", err))
		return
	}
	b.reply(chatID, formatPlan(plan))
}

func (b *Bot) handleCurrent(ctx context.Context, chatID int64, userID string) {
	plan, err := b.deps.PlanStore.GetActiveByUser(ctx, userID)
	if errors.Is(err, planner.ErrNotFound) {
		b.reply(chatID, "You have no active plan yet. Send `/plan 2000` to create one.")
		return
	}
	if err != nil {
		b.reply(chatID, formatError("Error loading plan", err))
		return
	}
	b.reply(chatID, formatPlan(plan))
}

func (b *Bot) handleHistory(ctx context.Context, chatID int64, userID string) {
	plans, err := b.deps.PlanStore.ListRecentByUser(ctx, userID, historySize)
	if err != nil {
		b.reply(chatID, formatError("Error loading plans", err))
		return
	}
	b.reply(chatID, formatHistory(plans))
}

func (b *Bot) handleShopping(ctx context.Context, chatID int64, userID string) {
	plan, err := b.deps.PlanStore.GetActiveByUser(ctx, userID)
	if errors.Is(err, planner.ErrNotFound) {
		b.reply(chatID, "You have no active plan yet. Send `/plan 2000` to create one.")
		return
	}
	if err != nil {
		b.reply(chatID, formatError("Error loading plan", err))
		return
	}

	var mealIDs []string
	for _, m := range plan.Details.Meals() {
		mealIDs = append(mealIDs, m.ID)
	}

	list := &shopping.ShoppingList{UserID: userID}
	if err := b.deps.ShoppingLists.Create(ctx, list); err != nil {
		b.reply(chatID, formatError("Error creating shopping list", err))
		return
	}

	b.reply(chatID, "🛒 *Building your shopping list...*")
	filled, err := b.deps.Shopping.Generate(ctx, list.ID, mealIDs)
	if err != nil {
		b.log.Error("Error generating shopping list", "list_id", list.ID, "error", err)
		b.reply(chatID, formatError("Error generating shopping list", err))
		return
	}
	b.reply(chatID, formatShoppingList(filled))
}

func (b *Bot) handleUsage(ctx context.Context, chatID int64) {
	if b.deps.Usage == nil {
		b.reply(chatID, "Usage metrics are not available.")
		return
	}
	usage, err := b.deps.Usage.GetDailyUsage(ctx, 7)
	if err != nil {
		b.reply(chatID, "❌ Error fetching metrics.")
		return
	}
	b.reply(chatID, formatUsage(usage, metrics.GetSysHealth(b.deps.DataDir)))
}

func (b *Bot) reply(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("Failed to send message", "chat_id", chatID, "error", err)
	}
}
