// Package repository defines storage interfaces implemented by concrete backends.
package repository

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/ohmylink/internal/model"
)

// ProfileRepository stores profile aggregates keyed by owner.
//
// Every mutating method locks the owner's profile row for the duration of its
// transaction, so concurrent writes to one profile are serialized.
type ProfileRepository interface {
	// GetByOwner loads the full aggregate with children ordered by position.
	GetByOwner(ctx context.Context, ownerID uuid.UUID) (*model.Profile, error)
	// Create inserts the scalar part of p for ownerID and returns the new profile id.
	Create(ctx context.Context, ownerID uuid.UUID, p model.Profile) (uuid.UUID, error)
	// UpdateScalars loads the scalar settings, applies mutate and writes them back.
	UpdateScalars(ctx context.Context, ownerID uuid.UUID, mutate func(*model.Profile) error) error

	// CreateLink appends l and returns its id and position.
	CreateLink(ctx context.Context, ownerID uuid.UUID, l model.Link) (uuid.UUID, int, error)
	// UpdateLink loads a link, applies mutate and writes it back.
	UpdateLink(ctx context.Context, ownerID, id uuid.UUID, mutate func(*model.Link) error) error
	// CreateSocial appends s and returns its id and position.
	CreateSocial(ctx context.Context, ownerID uuid.UUID, s model.Social) (uuid.UUID, int, error)
	// UpdateSocial loads a social link, applies mutate and writes it back.
	UpdateSocial(ctx context.Context, ownerID, id uuid.UUID, mutate func(*model.Social) error) error

	// DeleteRecord removes a child record and closes the gap in positions.
	DeleteRecord(ctx context.Context, ownerID uuid.UUID, kind model.RecordKind, id uuid.UUID) error
	// ReorderRecords places ids first, in the given order; records not listed follow in their current order.
	ReorderRecords(ctx context.Context, ownerID uuid.UUID, kind model.RecordKind, ids []uuid.UUID) error
}
