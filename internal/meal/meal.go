package meal

import (
	"errors"
	"fmt"
	"time"

	"mealhow/internal/dietplan"
	"mealhow/internal/shared"
)

// ErrNotFound is returned when a meal or image document does not exist.
var ErrNotFound = errors.New("meal not found")

// ThumbnailSizes are the square boxes every meal image is rendered into.
var ThumbnailSizes = []int{256, 512, 1024}

// Thumbnail is the CDN location of one rendered size.
type Thumbnail struct {
	Size int    `json:"size"`
	URL  string `json:"url"`
}

// Image is shared by every calorie variant of the same dish.
type Image struct {
	ID         string      `json:"id"`
	FullName   string      `json:"full_name"`
	Thumbnails []Thumbnail `json:"thumbnails"`
	CreatedAt  time.Time   `json:"created_at"`
}

// NewImage builds the image document with its thumbnail URLs.
func NewImage(id, fullName, cdnPrefix string) Image {
	thumbs := make([]Thumbnail, 0, len(ThumbnailSizes))
	for _, size := range ThumbnailSizes {
		thumbs = append(thumbs, Thumbnail{
			Size: size,
			URL:  fmt.Sprintf("%s%s_%dx%d.jpg", cdnPrefix, id, size, size),
		})
	}
	return Image{ID: id, FullName: fullName, Thumbnails: thumbs}
}

// Meal is a dish at a specific calorie level.
type Meal struct {
	ID              string           `json:"id"`
	FullName        string           `json:"full_name"`
	Calories        int              `json:"calories"`
	Protein         int              `json:"protein"`
	Carbs           int              `json:"carbs"`
	Fats            int              `json:"fats"`
	PreparationTime int              `json:"preparation_time"`
	ImageID         string           `json:"image_id"`
	RecipeID        string           `json:"recipe_id,omitempty"`
	RecipeStatus    shared.JobStatus `json:"recipe_status"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// FromEntry converts a parsed plan row into a meal document.
func FromEntry(e dietplan.MealEntry) Meal {
	return Meal{
		ID:              e.ID,
		FullName:        e.MealName,
		Calories:        e.Calories,
		Protein:         e.Protein,
		Carbs:           e.Carbs,
		Fats:            e.Fats,
		PreparationTime: e.PreparationTime,
		ImageID:         e.ImageID(),
		RecipeStatus:    shared.JobPending,
	}
}

// Label is the name used in prompts, e.g. "Chicken Caesar Wrap (450 calories)".
func (m Meal) Label() string {
	return fmt.Sprintf("%s (%d calories)", m.FullName, m.Calories)
}
