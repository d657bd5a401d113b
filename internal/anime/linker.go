package anime

import (
	"context"
	"errors"
	"fmt"

	"animehub/pkg/models"
)

// ErrNoMatch is returned when the metadata source found nothing for a query.
var ErrNoMatch = errors.New("anime: no match for query")

// MetadataSource searches an external catalog for anime metadata, best
// matches first.
type MetadataSource interface {
	Search(ctx context.Context, query string) ([]models.Anime, error)
}

// Linker resolves a free-text query against the metadata source and stores
// the best match locally so notifications can use its canonical title and
// poster.
type Linker struct {
	Repo   *Repo
	Source MetadataSource
}

func NewLinker(repo *Repo, source MetadataSource) *Linker {
	return &Linker{Repo: repo, Source: source}
}

func (l *Linker) Resolve(ctx context.Context, query string) (string, error) {
	results, err := l.Source.Search(ctx, query)
	if err != nil {
		return "", fmt.Errorf("metadata search: %w", err)
	}
	if len(results) == 0 {
		return "", ErrNoMatch
	}

	best := results[0]
	if err := l.Repo.Upsert(ctx, best); err != nil {
		return "", err
	}
	return best.ID, nil
}
