package functions

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"mealhow/internal/dietplan"
	"mealhow/internal/meal"
	"mealhow/internal/planner"
	"mealhow/internal/recipe"
	"mealhow/internal/shared"
	"mealhow/internal/shopping"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// statusFor maps service errors to HTTP codes. A 5xx makes Pub/Sub redeliver.
func statusFor(err error) int {
	switch {
	case errors.Is(err, planner.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, planner.ErrNotFound),
		errors.Is(err, meal.ErrNotFound),
		errors.Is(err, recipe.ErrNotFound),
		errors.Is(err, shopping.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, shared.ErrInvalidTransition):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.log.Error("Function failed", "path", r.URL.Path, "error", err)
	} else {
		s.log.Warn("Function rejected request", "path", r.URL.Path, "status", status, "error", err)
	}
	writeError(w, status, err.Error())
}

func (s *Server) handleGenerateMealPlan(w http.ResponseWriter, r *http.Request) {
	var body mealPlanRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	goal := int(body.CaloriesGoal)
	if goal == 0 {
		goal = int(body.Kcal)
	}
	userID := body.UserID
	if userID == "" {
		userID = subjectFrom(r.Context())
	}

	input := dietplan.PromptInput{
		CaloriesGoal:       goal,
		PreferredCuisines:  body.PreferredCuisines,
		IngredientsToAvoid: body.IngredientsToAvoid,
		HealthIssues:       body.HealthIssues,
	}
	if body.ProteinGoal != nil {
		v := int(*body.ProteinGoal)
		input.ProteinGoal = &v
	}
	if body.PreparationTime != nil {
		v := int(*body.PreparationTime)
		input.PreparationTime = &v
	}

	plan, err := s.services.Plans.Generate(r.Context(), planner.Request{UserID: userID, Input: input})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, plan)
}

func (s *Server) handleMealRecipeEvent(w http.ResponseWriter, r *http.Request) {
	var msg mealRecipeMessage
	messageID, err := decodePushData(r.Body, &msg)
	if err != nil || msg.MealID == "" {
		writeError(w, http.StatusBadRequest, "invalid meal recipe event")
		return
	}

	rec, err := s.services.Recipes.Generate(r.Context(), msg.MealID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.log.Debug("Meal recipe event handled", "message_id", messageID, "meal_id", msg.MealID)
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleShoppingListEvent(w http.ResponseWriter, r *http.Request) {
	var msg shoppingListMessage
	messageID, err := decodePushData(r.Body, &msg)
	if err != nil || msg.ShoppingListID == "" {
		writeError(w, http.StatusBadRequest, "invalid shopping list event")
		return
	}

	list, err := s.services.ShoppingLists.Generate(r.Context(), msg.ShoppingListID, msg.MealIDs)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.log.Debug("Shopping list event handled", "message_id", messageID, "list_id", msg.ShoppingListID)
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleImageUploadedEvent(w http.ResponseWriter, r *http.Request) {
	var ev storageEvent
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&ev); err != nil || ev.Bucket == "" || ev.Name == "" {
		writeError(w, http.StatusBadRequest, "invalid storage event")
		return
	}

	keys, err := s.services.Thumbnails.Convert(r.Context(), ev.Bucket, ev.Name)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"thumbnails": keys})
}
