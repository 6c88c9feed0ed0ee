package shopping

import (
	"strings"

	"mealhow/internal/dietplan"
)

// ItemFields are the columns of a shopping list completion.
var ItemFields = []string{"product_name", "quantity", "product_category"}

// ParseItems reads the shopping list table of a completion. Rows without a product name are dropped.
func ParseItems(raw string) []Item {
	rows := dietplan.ExtractRows(raw, "product", ItemFields, ';')

	items := make([]Item, 0, len(rows))
	for _, row := range rows {
		item := Item{
			Name:     strings.TrimSpace(row["product_name"]),
			Quantity: strings.TrimSpace(row["quantity"]),
			Category: strings.TrimSpace(row["product_category"]),
		}
		if item.Name == "" {
			continue
		}
		items = append(items, item)
	}
	return items
}
