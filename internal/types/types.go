package types

import (
	"context"

	"github.com/xhad/topics/internal/models"
)

// Core interfaces
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]models.Document, error)
}

type TopicLabeler interface {
	Label(ctx context.Context, terms []string, headlines []string) (string, error)
}

type ResultStore interface {
	Store(ctx context.Context, run models.RunRecord) error
	Close()
}
