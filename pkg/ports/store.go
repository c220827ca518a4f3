package ports

import (
	"context"

	"github.com/aretw0/flowcharts/pkg/domain"
)

// FlowchartStore defines the interface for persisting flowcharts.
// Implementations own the stored values and must hand out copies.
type FlowchartStore interface {
	// Create validates the flowchart, assigns it a fresh ID and stores it.
	// Any ID carried by the input is discarded.
	// Returns a domain.ValidationError if the flowchart is invalid.
	Create(ctx context.Context, fc *domain.Flowchart) (string, error)

	// Get retrieves the flowchart stored under id.
	// Returns domain.ErrFlowchartNotFound if it does not exist.
	Get(ctx context.Context, id string) (*domain.Flowchart, error)

	// Update replaces the nodes and edges stored under id and returns the stored result,
	// whose ID is always id. The replacement is validated before anything is written;
	// an invalid replacement leaves the previous value untouched.
	Update(ctx context.Context, id string, fc *domain.Flowchart) (*domain.Flowchart, error)

	// Delete removes the flowchart.
	// Returns domain.ErrFlowchartNotFound if it does not exist.
	Delete(ctx context.Context, id string) error

	// List returns the IDs of all stored flowcharts in ascending order.
	List(ctx context.Context) ([]string, error)
}
