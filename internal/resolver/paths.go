package resolver

import (
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/mesh-intelligence/wardrobe/internal/collections"
	"github.com/mesh-intelligence/wardrobe/internal/resolvectx"
)

// ResourceType is the lower-case file extension of a game path without the
// dot, e.g. "mdl" or "mtrl".
type ResourceType string

// Resource types with special handling.
const (
	TypeModel    ResourceType = "mdl"
	TypeMaterial ResourceType = "mtrl"
	TypeTexture  ResourceType = "tex"
	TypeTimeline ResourceType = "tmb"
	TypeAnim     ResourceType = "pap"
	TypeVfx      ResourceType = "avfx"
	TypeSound    ResourceType = "scd"
	TypeSkeleton ResourceType = "sklb"
)

// TypeOf returns the resource type of a game path.
func TypeOf(gamePath string) ResourceType {
	ext := path.Ext(collections.NormalizePath(gamePath))
	return ResourceType(strings.TrimPrefix(ext, "."))
}

// Category is the top-level directory of a game path.
type Category string

// CategoryOf returns the category of a game path, e.g. "chara".
func CategoryOf(gamePath string) Category {
	p := collections.NormalizePath(gamePath)
	if i := strings.IndexByte(p, '/'); i > 0 {
		return Category(p[:i])
	}
	return ""
}

// FromBlurb returns the data a parsed blurb names. Blurbs of unknown
// collections or of an older change counter are invalid.
func (r *Resolver) FromBlurb(b resolvectx.Blurb) resolvectx.ResolveData {
	c, ok := r.registry.ByIndex(b.Collection)
	if !ok {
		return resolvectx.ResolveData{}
	}
	if c.ChangeCounter() != b.ChangeCounter {
		r.log.Debug("stale path blurb", slog.String("collection", c.Name()),
			slog.Uint64("blurb", b.ChangeCounter), slog.Uint64("current", c.ChangeCounter()))
		return resolvectx.ResolveData{}
	}
	return resolvectx.NewResolveData(c, 0)
}

// ParsePath strips a blurb from a path. It returns the original path and the
// data the blurb names, invalid when there is no usable blurb.
func (r *Resolver) ParsePath(full string) (string, resolvectx.ResolveData) {
	b, original, ok := r.codec.Parse(full)
	if !ok {
		return full, resolvectx.ResolveData{}
	}
	return original, r.FromBlurb(b)
}

// ResolvePath resolves a game path the host is about to load. A blurb in
// gamePath overrides d. The returned data names the collection that was
// used. redirected is false when no mod provides the path; material paths
// of a non-default collection are then still returned with a blurb so the
// loads they trigger can recover the collection.
func (r *Resolver) ResolvePath(gamePath string, d resolvectx.ResolveData) (result string, data resolvectx.ResolveData, redirected bool) {
	defer func() {
		if p := recover(); p != nil {
			r.log.Error("resolve path failed", slog.String("path", gamePath), slog.String("panic", fmt.Sprint(p)))
			result, data, redirected = gamePath, d, false
		}
	}()
	original, fromBlurb := r.ParsePath(gamePath)
	if fromBlurb.Valid() {
		d = fromBlurb
	}
	active := r.registry.Active()
	c := d.ModCollection(active.Default())
	if !d.Valid() {
		d = resolvectx.NewResolveData(c, 0)
	}

	target, ok := c.Resolve(original)
	result = original
	if ok {
		result = target.Path
	}
	if TypeOf(original) == TypeMaterial && (ok || c != active.Default()) {
		result = r.codec.Encode(resolvectx.Blurb{Collection: c.Index(), ChangeCounter: c.ChangeCounter(), HasCRC: true}, result)
	}
	return result, d, ok
}
