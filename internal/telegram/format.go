package telegram

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"mealhow/internal/metrics"
	"mealhow/internal/planner"
	"mealhow/internal/shared"
	"mealhow/internal/shopping"
)

const helpText = "*Mealhow*\n\n" +
	"/plan `<kcal>`: generate a meal plan for a daily calories goal\n" +
	"/current: show your active plan\n" +
	"/history: list your latest plans\n" +
	"/shopping: build a shopping list for your active plan\n" +
	"/usage: token usage and system health"

func escape(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdown, s)
}

// parseCalories reads a calories goal such as "2000" or "2000kcal".
func parseCalories(args string) (int, error) {
	s := strings.ToLower(strings.TrimSpace(args))
	s = strings.TrimSuffix(s, "kcal")
	s = strings.TrimSuffix(s, "cal")
	kcal, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid calories goal %q", args)
	}
	if kcal <= 0 {
		return 0, fmt.Errorf("calories goal must be positive")
	}
	return kcal, nil
}

func formatError(title string, err error) string {
	safeErr := strings.ReplaceAll(err.Error(), "`", "'")
	return fmt.Sprintf("❌ *%s:*\n```\n%s\n```", title, safeErr)
}

func formatPlan(plan *planner.MealPlan) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "📅 *Meal Plan* (%d kcal/day goal)\n\n", plan.CaloriesGoal)

	days := plan.Details.Days()
	if len(days) == 0 {
		sb.WriteString("_No days planned_\n")
		return sb.String()
	}

	for _, d := range days {
		day := plan.Details[d]
		fmt.Fprintf(&sb, "*Day %d*\n", d)
		for _, m := range day.Meals {
			fmt.Fprintf(&sb, "• %s: %s (%d kcal", escape(m.MealTime), escape(m.MealName), m.Calories)
			if m.PreparationTime > 0 {
				fmt.Fprintf(&sb, ", %d min", m.PreparationTime)
			}
			sb.WriteString(")\n")
		}
		fmt.Fprintf(&sb, "_Total: %d kcal, P %dg, C %dg, F %dg_\n\n",
			day.Total.Calories, day.Total.Protein, day.Total.Carbs, day.Total.Fats)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func formatHistory(plans []planner.MealPlan) string {
	if len(plans) == 0 {
		return "You have no plans yet."
	}
	var sb strings.Builder
	sb.WriteString("🗂 *Latest plans*\n\n")
	for _, p := range plans {
		status := string(p.Status)
		if p.State != shared.PlanNone {
			status = string(p.State)
		}
		fmt.Fprintf(&sb, "• %s: %d kcal, %d days (%s)\n",
			p.CreatedAt.Format("2006-01-02 15:04"), p.CaloriesGoal, len(p.Details), escape(status))
	}
	return sb.String()
}

func formatShoppingList(list *shopping.ShoppingList) string {
	var sb strings.Builder
	sb.WriteString("🛒 *Shopping List*\n")
	if len(list.Items) == 0 {
		sb.WriteString("\n_Nothing to buy_")
		return sb.String()
	}

	byCategory := make(map[string][]shopping.Item)
	for _, item := range list.Items {
		cat := item.Category
		if cat == "" {
			cat = "Other"
		}
		byCategory[cat] = append(byCategory[cat], item)
	}
	categories := make([]string, 0, len(byCategory))
	for cat := range byCategory {
		categories = append(categories, cat)
	}
	sort.Strings(categories)

	for _, cat := range categories {
		fmt.Fprintf(&sb, "\n*%s*\n", escape(cat))
		for _, item := range byCategory[cat] {
			if item.Quantity != "" {
				fmt.Fprintf(&sb, "• %s: %s\n", escape(item.Name), escape(item.Quantity))
			} else {
				fmt.Fprintf(&sb, "• %s\n", escape(item.Name))
			}
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

func formatUsage(usage []metrics.DailyUsage, health metrics.SysHealth) string {
	var sb strings.Builder
	sb.WriteString("📊 *Usage & Health Report*\n\n")

	sb.WriteString("🗓 *Recent LLM Activity*\n")
	if len(usage) == 0 {
		sb.WriteString("_No data yet_\n")
	}
	for _, d := range usage {
		fmt.Fprintf(&sb, "• *%s*: %d tokens (%d execs)\n", d.Date, d.TotalPrompt+d.TotalCompletion, d.TotalExecution)
	}

	sb.WriteString("\n🧠 *System Health*\n")
	fmt.Fprintf(&sb, "• RAM: %dMB (Alloc) / %dMB (Sys)\n", health.AllocMB, health.SysMB)
	fmt.Fprintf(&sb, "• Goroutines: %d\n", health.Goroutines)
	fmt.Fprintf(&sb, "• Disk Data: %s\n", health.DataDiskSize)
	return sb.String()
}
