package repository

import (
	"context"

	"github.com/tphakala/pcrdb/internal/datastore/entities"
)

// StoragePlaceRepository provides access to the storage_places table.
// It stores edges only; type and cycle rules live in the inventory service.
type StoragePlaceRepository interface {
	// Create inserts a new node.
	Create(ctx context.Context, place *entities.StoragePlace) error

	// GetByID returns ErrStoragePlaceNotFound if the node does not exist.
	GetByID(ctx context.Context, id uint) (*entities.StoragePlace, error)

	// GetOrCreateByName returns the first node with the given name, or creates
	// a parentless room with that name.
	GetOrCreateByName(ctx context.Context, name string) (*entities.StoragePlace, error)

	// SetParent reassigns the parent of a node. A nil parent detaches it.
	SetParent(ctx context.Context, id uint, parentID *uint) error

	// Delete removes a node. Returns ErrStoragePlaceNotFound if nothing was deleted.
	Delete(ctx context.Context, id uint) error

	// All returns every node ordered by name.
	All(ctx context.Context) ([]entities.StoragePlace, error)

	// ListByType returns the nodes of one type, optionally under a parent.
	ListByType(ctx context.Context, placeType entities.PlaceType, parentID *uint) ([]entities.StoragePlace, error)

	// CountChildren returns how many nodes list id as their parent.
	CountChildren(ctx context.Context, id uint) (int64, error)

	// CountSamples returns how many samples are stored at id.
	CountSamples(ctx context.Context, id uint) (int64, error)
}
