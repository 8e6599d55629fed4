package validation

import (
	"context"
	"fmt"

	"github.com/slideshow/server/internal/models"
)

// ImageLookup resolves which of the given image ids exist
type ImageLookup interface {
	FindExistingIDs(ctx context.Context, ids []int64) ([]int64, error)
}

// ExistenceChecker reports referenced images that do not exist
type ExistenceChecker struct {
	images ImageLookup
}

// NewExistenceChecker creates a new ExistenceChecker
func NewExistenceChecker(images ImageLookup) *ExistenceChecker {
	return &ExistenceChecker{images: images}
}

// Check looks up all ids in one query and returns an error for each one that
// is missing. Nil entries are ignored and duplicates are reported once.
func (c *ExistenceChecker) Check(ctx context.Context, ids []*int64) ([]ValidationError, error) {
	unique := uniqueIDs(ids)
	if len(unique) == 0 {
		return []ValidationError{}, nil
	}

	found, err := c.images.FindExistingIDs(ctx, unique)
	if err != nil {
		return nil, fmt.Errorf("failed to look up images: %w", err)
	}

	existing := make(map[int64]bool, len(found))
	for _, id := range found {
		existing[id] = true
	}

	errs := []ValidationError{}
	for _, id := range unique {
		if !existing[id] {
			errs = append(errs, ImageNotFound(id))
		}
	}
	return errs, nil
}

// uniqueIDs drops nil entries and duplicates, keeping first-seen order
func uniqueIDs(ids []*int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id == nil || seen[*id] {
			continue
		}
		seen[*id] = true
		out = append(out, *id)
	}
	return out
}

// IDsOf collects the ids of descriptors, including nil ids of new images
func IDsOf(images []*models.ImageDescriptor) []*int64 {
	ids := make([]*int64, 0, len(images))
	for _, img := range images {
		if img != nil {
			ids = append(ids, img.ID)
		}
	}
	return ids
}
