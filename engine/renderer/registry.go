package renderer

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/spaghettifunk/rainfrog/engine/core"
)

type ResourceKind string

const (
	KindBuffer       ResourceKind = "buffer"
	KindVertexArray  ResourceKind = "vertex_array"
	KindTexture      ResourceKind = "texture"
	KindCubemap      ResourceKind = "cubemap"
	KindProgram      ResourceKind = "program"
	KindFramebuffer  ResourceKind = "framebuffer"
	KindRenderbuffer ResourceKind = "renderbuffer"
	KindUniformBlock ResourceKind = "uniform_block"
)

type ResourceInfo struct {
	ID      uuid.UUID
	Kind    ResourceKind
	Label   string
	Created time.Time
}

// Registry keeps track of live device resources so that leaks can be
// reported when the owning context shuts down.
type Registry struct {
	live map[uuid.UUID]ResourceInfo
}

func NewRegistry() *Registry {
	return &Registry{live: make(map[uuid.UUID]ResourceInfo)}
}

func (r *Registry) register(kind ResourceKind, label string) uuid.UUID {
	id := uuid.New()
	if label == "" {
		label = fmt.Sprintf("%s-%s", kind, id.String()[:8])
	}
	r.live[id] = ResourceInfo{ID: id, Kind: kind, Label: label, Created: time.Now()}
	return id
}

func (r *Registry) release(id uuid.UUID) {
	delete(r.live, id)
}

func (r *Registry) Live() int {
	return len(r.live)
}

// Leaks returns the live resources, oldest first.
func (r *Registry) Leaks() []ResourceInfo {
	out := make([]ResourceInfo, 0, len(r.live))
	for _, info := range r.live {
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Created.Before(out[j].Created) })
	return out
}

// resource is embedded by every type that owns device objects.
type resource struct {
	ctx      *Context
	id       uuid.UUID
	kind     ResourceKind
	label    string
	released bool
}

func (r *resource) init(ctx *Context, kind ResourceKind, label string) {
	r.ctx = ctx
	r.kind = kind
	r.id = ctx.registry.register(kind, label)
	r.label = ctx.registry.live[r.id].Label
}

// Label is the human readable name used in logs and leak reports.
func (r *resource) Label() string {
	return r.label
}

// Released reports whether Destroy has been called.
func (r *resource) Released() bool {
	return r.released
}

// mustBeLive panics when a released resource is used. Using a destroyed
// resource is a programmer error and the frame cannot continue.
func (r *resource) mustBeLive() {
	if r.released {
		panic(fmt.Errorf("%s %s: %w", r.kind, r.label, core.ErrResourceReleased))
	}
}

// markReleased returns false when the resource was already released.
func (r *resource) markReleased() bool {
	if r.released {
		return false
	}
	r.released = true
	r.ctx.registry.release(r.id)
	return true
}
