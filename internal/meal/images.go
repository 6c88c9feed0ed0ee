package meal

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"mealhow/internal/config"
	"mealhow/internal/dietplan"
	"mealhow/internal/llm"
	"mealhow/internal/logger"
	"mealhow/internal/storage"
)

const imagePrompt = "Professional food photography of %s, served on a plate, natural light, top view, no text."

// ImageService stores the meals of a plan and generates the images that do not exist yet.
type ImageService struct {
	repo       *Repository
	images     llm.ImageGenerator
	store      storage.ObjectStore
	httpClient *http.Client
	bucket     string
	cdnPrefix  string
	batchSize  int
	log        *logger.Logger
}

// NewImageService creates a new ImageService.
func NewImageService(
	cfg *config.Config,
	repo *Repository,
	images llm.ImageGenerator,
	store storage.ObjectStore,
	httpClient *http.Client,
	log *logger.Logger,
) *ImageService {
	batch := cfg.ImageBatchSize
	if batch < 1 {
		batch = 1
	}
	return &ImageService{
		repo:       repo,
		images:     images,
		store:      store,
		httpClient: httpClient,
		bucket:     cfg.DestinationBucket,
		cdnPrefix:  cfg.CDNURLPrefix,
		batchSize:  batch,
		log:        log.With("service", "ImageService"),
	}
}

// SaveMealsAndImages saves a meal document for every meal of the plan and an
// image for every dish that has none. It returns the ids of the generated images.
func (s *ImageService) SaveMealsAndImages(ctx context.Context, plan dietplan.Plan) ([]string, error) {
	meals := make(map[string][]Meal)
	names := make(map[string]string)
	for _, entry := range plan.Meals() {
		m := FromEntry(entry)
		if _, ok := names[m.ImageID]; !ok {
			names[m.ImageID] = m.FullName
		}
		meals[m.ImageID] = append(meals[m.ImageID], m)
	}

	ids := make([]string, 0, len(names))
	for id := range names {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	existing, err := s.repo.ExistingImageIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	var unmatched []string
	for _, id := range ids {
		if existing[id] {
			for _, m := range meals[id] {
				if err := s.repo.UpsertMeal(ctx, m); err != nil {
					return nil, err
				}
			}
			continue
		}
		unmatched = append(unmatched, id)
	}

	urls, err := s.generateURLs(ctx, unmatched, names)
	if err != nil {
		return nil, err
	}

	for start := 0; start < len(unmatched); start += s.batchSize {
		end := min(start+s.batchSize, len(unmatched))

		eg, egctx := errgroup.WithContext(ctx)
		for _, id := range unmatched[start:end] {
			eg.Go(func() error {
				return s.saveImage(egctx, id, names[id], urls[id], meals[id])
			})
		}
		if err := eg.Wait(); err != nil {
			return nil, err
		}
	}

	s.log.Info("Meals and images saved", "dishes", len(ids), "generated_images", len(unmatched))
	return unmatched, nil
}

// generateURLs requests every image concurrently. One failure fails them all.
func (s *ImageService) generateURLs(ctx context.Context, ids []string, names map[string]string) (map[string]string, error) {
	urls := make(map[string]string, len(ids))
	var mu sync.Mutex

	eg, egctx := errgroup.WithContext(ctx)
	for _, id := range ids {
		eg.Go(func() error {
			url, err := s.images.GenerateImageURL(egctx, fmt.Sprintf(imagePrompt, names[id]))
			if err != nil {
				return fmt.Errorf("failed to generate image for %s: %w", id, err)
			}
			mu.Lock()
			urls[id] = url
			mu.Unlock()
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return urls, nil
}

func (s *ImageService) saveImage(ctx context.Context, id, fullName, url string, meals []Meal) error {
	data, err := s.download(ctx, url)
	if err != nil {
		return fmt.Errorf("failed to download image for %s: %w", id, err)
	}

	if err := s.repo.SaveImage(ctx, NewImage(id, fullName, s.cdnPrefix)); err != nil {
		return err
	}
	for _, m := range meals {
		if err := s.repo.UpsertMeal(ctx, m); err != nil {
			return err
		}
	}

	if err := s.store.Upload(ctx, s.bucket, id+".png", data, "image/png"); err != nil {
		return fmt.Errorf("failed to upload image for %s: %w", id, err)
	}
	return nil
}

func (s *ImageService) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
