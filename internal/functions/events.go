package functions

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const maxBodyBytes = 1 << 20

// pushEnvelope is the body of a Pub/Sub push delivery.
type pushEnvelope struct {
	Message struct {
		Data      string `json:"data"`
		MessageID string `json:"messageId"`
	} `json:"message"`
	Subscription string `json:"subscription"`
}

// decodePushData unwraps a push envelope and decodes its base64 JSON payload into v.
func decodePushData(body io.Reader, v any) (string, error) {
	var env pushEnvelope
	if err := json.NewDecoder(io.LimitReader(body, maxBodyBytes)).Decode(&env); err != nil {
		return "", fmt.Errorf("invalid push envelope: %w", err)
	}
	if env.Message.Data == "" {
		return "", fmt.Errorf("push envelope has no data")
	}

	data, err := base64.StdEncoding.DecodeString(env.Message.Data)
	if err != nil {
		return "", fmt.Errorf("invalid base64 message data: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return "", fmt.Errorf("invalid message payload: %w", err)
	}
	return env.Message.MessageID, nil
}

// flexInt accepts both JSON numbers and numeric strings.
type flexInt int

func (f *flexInt) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("not a number: %s", b)
	}
	*f = flexInt(n)
	return nil
}

type mealPlanRequest struct {
	CaloriesGoal       flexInt  `json:"calories_goal"`
	Kcal               flexInt  `json:"kcal"`
	UserID             string   `json:"user_id"`
	ProteinGoal        *flexInt `json:"protein_goal"`
	PreparationTime    *flexInt `json:"preparation_time"`
	PreferredCuisines  []string `json:"preferred_cuisines"`
	IngredientsToAvoid []string `json:"ingredients_to_avoid"`
	HealthIssues       []string `json:"health_issues"`
}

type mealRecipeMessage struct {
	MealID string `json:"meal_id"`
}

type shoppingListMessage struct {
	ShoppingListID string   `json:"shopping_list_id"`
	MealIDs        []string `json:"meal_ids"`
}

// UnmarshalJSON accepts numeric list ids as well as strings.
func (m *shoppingListMessage) UnmarshalJSON(b []byte) error {
	var raw struct {
		ShoppingListID json.RawMessage `json:"shopping_list_id"`
		MealIDs        []string        `json:"meal_ids"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if id := strings.Trim(string(raw.ShoppingListID), `"`); id != "null" {
		m.ShoppingListID = id
	}
	m.MealIDs = raw.MealIDs
	return nil
}

type storageEvent struct {
	Bucket string `json:"bucket"`
	Name   string `json:"name"`
}
