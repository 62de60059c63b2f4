package testutil

import (
	"context"
	"strconv"
	"sync"

	"github.com/ManuGH/mediadeck/internal/domain/session/model"
	"github.com/ManuGH/mediadeck/internal/domain/session/ports"
)

// FakeProvider is a scriptable ports.MediaAssetProvider.
// Kinds without an explicit decision are granted.
type FakeProvider struct {
	mu         sync.Mutex
	decisions  map[model.AssetKind]model.Permission
	assets     map[model.AssetKind][]ports.Asset
	requests   map[model.AssetKind]int
	holds      map[model.AssetKind]*permissionHold
	RequestErr error
	ListErr    error
}

func NewFakeProvider() *FakeProvider {
	return &FakeProvider{
		decisions: make(map[model.AssetKind]model.Permission),
		assets:    make(map[model.AssetKind][]ports.Asset),
		requests:  make(map[model.AssetKind]int),
		holds:     make(map[model.AssetKind]*permissionHold),
	}
}

type permissionHold struct {
	entered     chan struct{}
	enteredOnce sync.Once
	release     chan struct{}
	releaseOnce sync.Once
}

// Hold parks permission requests for kind until release is called. entered is
// closed once the first request is parked.
func (p *FakeProvider) Hold(kind model.AssetKind) (entered <-chan struct{}, release func()) {
	h := &permissionHold{entered: make(chan struct{}), release: make(chan struct{})}
	p.mu.Lock()
	p.holds[kind] = h
	p.mu.Unlock()
	return h.entered, func() { h.releaseOnce.Do(func() { close(h.release) }) }
}

// Decide scripts the permission outcome for kind.
func (p *FakeProvider) Decide(kind model.AssetKind, perm model.Permission) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.decisions[kind] = perm
}

// SetAssets scripts the listing for kind.
func (p *FakeProvider) SetAssets(kind model.AssetKind, assets []ports.Asset) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.assets[kind] = append([]ports.Asset(nil), assets...)
}

// Requests returns how often permission for kind was requested.
func (p *FakeProvider) Requests(kind model.AssetKind) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.requests[kind]
}

func (p *FakeProvider) RequestPermission(ctx context.Context, kind model.AssetKind) (model.Permission, error) {
	p.mu.Lock()
	p.requests[kind]++
	h := p.holds[kind]
	p.mu.Unlock()

	if h != nil {
		h.enteredOnce.Do(func() { close(h.entered) })
		select {
		case <-h.release:
		case <-ctx.Done():
			return model.PermissionDenied, ctx.Err()
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.RequestErr != nil {
		return model.PermissionDenied, p.RequestErr
	}
	if perm, ok := p.decisions[kind]; ok {
		return perm, nil
	}
	return model.PermissionGranted, nil
}

func (p *FakeProvider) ListAssets(ctx context.Context, kind model.AssetKind, limit int) ([]ports.Asset, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ListErr != nil {
		return nil, p.ListErr
	}
	out := p.assets[kind]
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return append([]ports.Asset(nil), out...), nil
}

// Tracks builds n tracks named track-0..track-n-1.
func Tracks(n int) []model.Track {
	out := make([]model.Track, n)
	for i := range out {
		id := "track-" + strconv.Itoa(i)
		out[i] = model.Track{ID: id, URI: "file:///music/" + id + ".wav", Filename: id + ".wav"}
	}
	return out
}

var _ ports.MediaAssetProvider = (*FakeProvider)(nil)
