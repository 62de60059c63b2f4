// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package media lists on-disk media libraries and answers permission requests
// for them.
package media

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/ManuGH/mediadeck/internal/domain/session/model"
	"github.com/ManuGH/mediadeck/internal/domain/session/ports"
	mdlog "github.com/ManuGH/mediadeck/internal/log"
	"github.com/ManuGH/mediadeck/internal/metrics"
)

var ErrUnknownKind = errors.New("unknown asset kind")

// DefaultExtensions are the file extensions listed per kind when none are configured.
var DefaultExtensions = map[model.AssetKind][]string{
	model.AssetAudio: {".wav"},
	model.AssetPhoto: {".jpg", ".jpeg", ".png", ".heic"},
	model.AssetVideo: {".mp4", ".mov", ".mkv"},
}

// Config configures an FSProvider.
type Config struct {
	Roots      map[model.AssetKind]string
	Extensions map[model.AssetKind][]string
	MaxDepth   int
	// Microphone reports whether a capture device is reachable. Nil denies.
	Microphone func() error
}

// FSProvider implements ports.MediaAssetProvider over local directories.
// Concurrent listings of the same kind share one filesystem walk.
type FSProvider struct {
	cfg    Config
	group  singleflight.Group
	logger zerolog.Logger
}

// NewFSProvider creates a provider for cfg.
func NewFSProvider(cfg Config) *FSProvider {
	if cfg.Extensions == nil {
		cfg.Extensions = DefaultExtensions
	}
	return &FSProvider{cfg: cfg, logger: mdlog.WithComponent("media")}
}

// CaptureAvailable returns a microphone check that succeeds when path exists.
func CaptureAvailable(path string) func() error {
	return func() error {
		if path == "" {
			return errors.New("no capture source configured")
		}
		_, err := os.Stat(path)
		return err
	}
}

// RequestPermission grants a library kind when its root is readable and the
// microphone when the capture check passes.
func (p *FSProvider) RequestPermission(ctx context.Context, kind model.AssetKind) (model.Permission, error) {
	if !kind.Valid() {
		return model.PermissionDenied, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}

	var err error
	if kind == model.AssetMicrophone {
		if p.cfg.Microphone == nil {
			err = errors.New("no capture source configured")
		} else {
			err = p.cfg.Microphone()
		}
	} else {
		err = p.checkRoot(kind)
	}

	if err != nil {
		metrics.IncPermissionDecision(string(kind), string(model.PermissionDenied))
		p.logger.Info().Err(err).Str(mdlog.FieldAssetKind, string(kind)).Msg("permission denied")
		return model.PermissionDenied, nil
	}
	metrics.IncPermissionDecision(string(kind), string(model.PermissionGranted))
	return model.PermissionGranted, nil
}

func (p *FSProvider) checkRoot(kind model.AssetKind) error {
	root := p.cfg.Roots[kind]
	if root == "" {
		return fmt.Errorf("no %s library configured", kind)
	}
	f, err := os.Open(root)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.ReadDir(1)
	if err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// ListAssets walks the library for kind and returns up to limit assets ordered
// by relative path. A limit of zero or less lists everything.
func (p *FSProvider) ListAssets(ctx context.Context, kind model.AssetKind, limit int) ([]ports.Asset, error) {
	if !kind.Valid() || kind == model.AssetMicrophone {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}

	v, err, shared := p.group.Do(string(kind), func() (interface{}, error) {
		return p.scan(ctx, kind)
	})
	if err != nil {
		return nil, err
	}
	all := v.([]ports.Asset)
	if shared {
		p.logger.Debug().Str(mdlog.FieldAssetKind, string(kind)).Msg("served listing from shared scan")
	}
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return append([]ports.Asset(nil), all...), nil
}

func (p *FSProvider) scan(ctx context.Context, kind model.AssetKind) ([]ports.Asset, error) {
	root := p.cfg.Roots[kind]
	if root == "" {
		return nil, fmt.Errorf("no %s library configured", kind)
	}
	rootResolved, err := filepath.EvalSymlinks(root)
	if err != nil {
		return nil, fmt.Errorf("resolve library root: %w", err)
	}
	rootResolved = filepath.Clean(rootResolved)
	allowed := p.cfg.Extensions[kind]

	var assets []ports.Asset
	err = filepath.WalkDir(rootResolved, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if walkErr != nil {
			p.logScanError("walk", walkErr, path)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		rel, err := filepath.Rel(rootResolved, path)
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if path != rootResolved && strings.HasPrefix(d.Name(), ".") {
				return fs.SkipDir
			}
			depth := strings.Count(rel, string(os.PathSeparator))
			if p.cfg.MaxDepth > 0 && rel != "." && depth >= p.cfg.MaxDepth {
				return fs.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") {
			return nil
		}

		// Symlinked files must stay inside the root.
		fileResolved, err := filepath.EvalSymlinks(path)
		if err != nil {
			p.logScanError("symlink", err, path)
			return nil
		}
		if r, err := filepath.Rel(rootResolved, fileResolved); err != nil || strings.HasPrefix(r, "..") {
			p.logScanError("confinement", fmt.Errorf("path escape: %s", r), path)
			return nil
		}

		if !isAllowedExtension(filepath.Ext(d.Name()), allowed) {
			return nil
		}
		assets = append(assets, ports.Asset{
			ID:       assetID(kind, rel),
			URI:      (&url.URL{Scheme: "file", Path: filepath.ToSlash(path)}).String(),
			Filename: d.Name(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s library: %w", kind, err)
	}

	sort.Slice(assets, func(i, j int) bool { return assets[i].URI < assets[j].URI })
	p.logger.Debug().
		Str(mdlog.FieldAssetKind, string(kind)).
		Int("count", len(assets)).
		Msg("library scanned")
	return assets, nil
}

// assetID derives a stable ID from the kind and the path relative to the root.
func assetID(kind model.AssetKind, rel string) string {
	sum := sha256.Sum256([]byte(string(kind) + "\x00" + filepath.ToSlash(rel)))
	return hex.EncodeToString(sum[:8])
}

func isAllowedExtension(ext string, allowed []string) bool {
	if len(allowed) == 0 {
		return true
	}
	for _, a := range allowed {
		if strings.EqualFold(ext, a) {
			return true
		}
	}
	return false
}

// logScanError logs a hashed path rather than the full one.
func (p *FSProvider) logScanError(event string, err error, path string) {
	hash := sha256.Sum256([]byte(path))
	p.logger.Warn().
		Str(mdlog.FieldEvent, event).
		Str("path_hash", hex.EncodeToString(hash[:5])).
		Err(err).
		Msg("library scan error")
}

var _ ports.MediaAssetProvider = (*FSProvider)(nil)
