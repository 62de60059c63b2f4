// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package ports

import (
	"context"

	"github.com/ManuGH/mediadeck/internal/domain/session/model"
)

// Asset is a single listed media item.
type Asset struct {
	ID       string
	URI      string
	Filename string
}

// MediaAssetProvider lists media assets and decides access permissions.
// Listings are finite and not restartable; a fresh call re-lists.
type MediaAssetProvider interface {
	RequestPermission(ctx context.Context, kind model.AssetKind) (model.Permission, error)
	ListAssets(ctx context.Context, kind model.AssetKind, limit int) ([]Asset, error)
}
