package v1

import (
	"context"
	"errors"

	"github.com/vmunix/snapguess/internal/catalog"
	"github.com/vmunix/snapguess/internal/events"
	"github.com/vmunix/snapguess/internal/importjob"
	"github.com/vmunix/snapguess/pkg/rawg"
)

// CatalogProvider is the provider surface the verify endpoint probes.
type CatalogProvider interface {
	ListGames(ctx context.Context, page, pageSize, minScore int) (*rawg.Page, error)
}

// ImportController defines the interface for driving imports.
type ImportController interface {
	Start(cfg importjob.Config) (*importjob.Job, error)
	Pause(id string) (*importjob.Job, error)
	Resume(id string) (*importjob.Job, error)
	Get(id string) (*importjob.Job, error)
	GetActive() (*importjob.Job, error)
	List(limit int) ([]*importjob.Job, error)
}

// ServerDeps contains all dependencies for the API server.
// Required dependencies must be non-nil; optional dependencies may be nil.
type ServerDeps struct {
	// Required dependencies
	Catalog  *catalog.Store
	Importer ImportController

	// Optional dependencies (nil if not configured)
	EventLog *events.EventLog
	Provider CatalogProvider
	Defaults importjob.Config
}

// Validate checks that all required dependencies are provided.
func (d ServerDeps) Validate() error {
	if d.Catalog == nil {
		return errors.New("catalog store is required")
	}
	if d.Importer == nil {
		return errors.New("import controller is required")
	}
	return nil
}
