package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/blugelabs/bluge"
	"github.com/samber/lo"

	"github.com/Bitcomethub/Somnus/domain"
)

// GalleryEntry is a catalog asset plus its unlock state for a given
// listener level.
type GalleryEntry struct {
	domain.SoundAsset
	Unlocked bool `json:"unlocked"`
}

type GalleryService struct {
	log    *slog.Logger
	writer *bluge.Writer
}

// NewGalleryService builds the full-text index over the sound catalog.
// The catalog is small and static, so indexing happens once at boot.
func NewGalleryService(log *slog.Logger, writer *bluge.Writer) (*GalleryService, error) {
	s := &GalleryService{log: log, writer: writer}
	for _, asset := range domain.SoundCatalog {
		doc := bluge.NewDocument(asset.ID).
			AddField(bluge.NewTextField("label", asset.Label).StoreValue()).
			AddField(bluge.NewTextField("category", asset.Category).StoreValue()).
			AddField(bluge.NewNumericField("minLevel", float64(asset.MinLevel)))
		if err := writer.Update(doc.ID(), doc); err != nil {
			return nil, fmt.Errorf("failed to index sound %s: %w", asset.ID, err)
		}
	}
	return s, nil
}

// Browse returns the whole catalog with unlock flags computed from the
// listener's accumulated atmosphere minutes.
func (s *GalleryService) Browse(focusMinutes int) []GalleryEntry {
	return lo.Map(domain.SoundCatalog, func(asset domain.SoundAsset, _ int) GalleryEntry {
		return GalleryEntry{SoundAsset: asset, Unlocked: focusMinutes >= asset.MinLevel}
	})
}

// Search runs a fuzzy label/category match over the catalog and gates
// each hit by the listener's level.
func (s *GalleryService) Search(ctx context.Context, query string, focusMinutes int) ([]GalleryEntry, error) {
	reader, err := s.writer.Reader()
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	labelQuery := bluge.NewMatchQuery(query).SetField("label")
	categoryQuery := bluge.NewMatchQuery(query).SetField("category")
	request := bluge.NewTopNSearch(len(domain.SoundCatalog),
		bluge.NewBooleanQuery().AddShould(labelQuery).AddShould(categoryQuery))

	iterator, err := reader.Search(ctx, request)
	if err != nil {
		return nil, err
	}

	byID := lo.KeyBy(domain.SoundCatalog, func(asset domain.SoundAsset) string {
		return asset.ID
	})

	var entries []GalleryEntry
	for {
		match, err := iterator.Next()
		if err != nil {
			return nil, err
		}
		if match == nil {
			break
		}
		err = match.VisitStoredFields(func(field string, value []byte) bool {
			if field == "_id" {
				if asset, ok := byID[string(value)]; ok {
					entries = append(entries, GalleryEntry{
						SoundAsset: asset,
						Unlocked:   focusMinutes >= asset.MinLevel,
					})
				}
			}
			return true
		})
		if err != nil {
			return nil, err
		}
	}
	return entries, nil
}
