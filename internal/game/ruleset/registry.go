package ruleset

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cory-johannsen/pf2e-sheet/internal/game/rref"
)

// ErrNotFound is returned by a Source that has no resource for a reference.
var ErrNotFound = errors.New("ruleset: resource not found")

//go:generate mockgen -destination=mock/source.go -package=mock . Source

// Source supplies resources the Registry has not loaded yet.
type Source interface {
	// Fetch returns the resource ref names, or ErrNotFound.
	Fetch(ctx context.Context, ref rref.Ref) (Resource, error)
}

// Registry stores resources by name and type.
//
// Lookups are safe for concurrent use. Registered resources must not be
// modified.
type Registry struct {
	mu        sync.RWMutex
	resources map[string]map[rref.Type]Resource
	pending   map[rref.Ref]struct{}
	source    Source
	logger    *zap.Logger
}

// NewRegistry returns an empty Registry. source may be nil, in which case the
// Registry only serves what is registered directly.
//
// Precondition: logger must be non-nil.
// Postcondition: Returns a non-nil *Registry ready to accept registrations.
func NewRegistry(source Source, logger *zap.Logger) *Registry {
	if logger == nil {
		panic("ruleset.NewRegistry: precondition violated: logger must be non-nil")
	}
	return &Registry{
		resources: make(map[string]map[rref.Type]Resource),
		pending:   make(map[rref.Ref]struct{}),
		source:    source,
		logger:    logger,
	}
}

// Register adds r to the registry.
//
// Precondition: r must be non-nil.
// Postcondition: r is retrievable through LookupImmediate; if a resource of
// the same name and type is already registered, the first one is kept and a
// warning is logged.
func (r *Registry) Register(res Resource) error {
	if res == nil {
		panic("Registry.Register: precondition violated: resource must be non-nil")
	}
	name := res.Base().Name
	if name == "" {
		return fmt.Errorf("ruleset: cannot register unnamed %s", res.Type())
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	byType, ok := r.resources[name]
	if !ok {
		byType = make(map[rref.Type]Resource)
		r.resources[name] = byType
	}
	if _, dup := byType[res.Type()]; dup {
		r.logger.Warn("duplicate resource ignored",
			zap.String("name", name),
			zap.Stringer("type", res.Type()),
		)
		return nil
	}
	byType[res.Type()] = res
	delete(r.pending, RefOf(res))
	delete(r.pending, rref.New(name))
	return nil
}

// RegisterAll registers every resource in rs, stopping at the first error.
func (r *Registry) RegisterAll(rs []Resource) error {
	for _, res := range rs {
		if err := r.Register(res); err != nil {
			return err
		}
	}
	return nil
}

// LookupImmediate returns the resource ref names from what is already loaded.
// The modifier suffix of ref is ignored.
//
// Postcondition: an untyped ref matching resources of several types is
// ambiguous and reported absent with a warning. A miss is queued for
// FetchPending when the Registry has a Source.
func (r *Registry) LookupImmediate(ref rref.Ref) (Resource, bool) {
	ref = ref.Unmodified()
	r.mu.RLock()
	res, found, ambiguous := r.find(ref)
	r.mu.RUnlock()
	if ambiguous {
		r.logger.Warn("ambiguous resource reference",
			zap.Stringer("ref", ref),
		)
		return nil, false
	}
	if !found && r.source != nil {
		r.mu.Lock()
		r.pending[ref] = struct{}{}
		r.mu.Unlock()
	}
	return res, found
}

// find must be called with mu held.
func (r *Registry) find(ref rref.Ref) (res Resource, found, ambiguous bool) {
	byType := r.resources[ref.Name]
	if ref.IsTyped() {
		res, found = byType[ref.Type]
		return res, found, false
	}
	switch len(byType) {
	case 0:
		return nil, false, false
	case 1:
		for _, res := range byType {
			return res, true, false
		}
	}
	return nil, false, true
}

// LookupAsync returns the resources refs name, fetching misses from the
// Source concurrently and registering them.
//
// Postcondition: the result is parallel to refs; an entry is nil when the
// resource is unknown or ambiguous. Source failures other than ErrNotFound
// are returned.
func (r *Registry) LookupAsync(ctx context.Context, refs []rref.Ref) ([]Resource, error) {
	out := make([]Resource, len(refs))
	var misses []int
	r.mu.RLock()
	for i, ref := range refs {
		res, found, ambiguous := r.find(ref.Unmodified())
		switch {
		case found:
			out[i] = res
		case ambiguous:
			r.logger.Warn("ambiguous resource reference", zap.Stringer("ref", ref))
		default:
			misses = append(misses, i)
		}
	}
	r.mu.RUnlock()

	if len(misses) == 0 || r.source == nil {
		return out, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, i := range misses {
		g.Go(func() error {
			ref := refs[i].Unmodified()
			res, err := r.source.Fetch(gctx, ref)
			if errors.Is(err, ErrNotFound) {
				r.logger.Debug("resource not found in source", zap.Stringer("ref", ref))
				return nil
			}
			if err != nil {
				return fmt.Errorf("fetching %s: %w", ref, err)
			}
			out[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	for _, i := range misses {
		if out[i] == nil {
			continue
		}
		if err := r.Register(out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// FetchPending fetches every reference LookupImmediate missed since the last
// call.
//
// Postcondition: returns the number of resources newly loaded.
func (r *Registry) FetchPending(ctx context.Context) (int, error) {
	r.mu.Lock()
	refs := make([]rref.Ref, 0, len(r.pending))
	for ref := range r.pending {
		refs = append(refs, ref)
	}
	r.pending = make(map[rref.Ref]struct{})
	r.mu.Unlock()

	if len(refs) == 0 {
		return 0, nil
	}
	found, err := r.LookupAsync(ctx, refs)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, res := range found {
		if res != nil {
			n++
		}
	}
	return n, nil
}

// Pending returns the number of references waiting for FetchPending.
func (r *Registry) Pending() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.pending)
}

// AllByType returns typed references to every registered resource of type t,
// sorted by name. rref.AnyType selects every resource.
func (r *Registry) AllByType(t rref.Type) []rref.Ref {
	r.mu.RLock()
	var out []rref.Ref
	for _, byType := range r.resources {
		for rt, res := range byType {
			if t == rref.AnyType || rt == t {
				out = append(out, RefOf(res))
			}
		}
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Type < out[j].Type
	})
	return out
}
