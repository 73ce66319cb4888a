package core

import "github.com/pkg/errors"

// Workspace is a bounded planar environment with labeled regions.
// Global regions are static and known at start; local regions are
// transient and sensor-provided.
type Workspace struct {
	boundary Region
	global   []Region
	local    []Region
}

// NewWorkspace creates a workspace with the given boundary.
func NewWorkspace(boundary Region) *Workspace {
	return &Workspace{boundary: boundary}
}

// Boundary returns the workspace boundary region.
func (w *Workspace) Boundary() Region { return w.boundary }

// AddRegion registers a labeled region in the global or local layer.
func (w *Workspace) AddRegion(r Region, local bool) {
	if local {
		w.local = append(w.local, r)
		return
	}
	w.global = append(w.global, r)
}

// SetLocal replaces the transient local layer with the given regions.
func (w *Workspace) SetLocal(regions []Region) {
	w.local = append(w.local[:0], regions...)
}

// Regions returns the selected layer.
func (w *Workspace) Regions(local bool) []Region {
	if local {
		return w.local
	}
	return w.global
}

// Symbols returns the union of symbols of all regions in the selected
// layer containing p.
func (w *Workspace) Symbols(p Conf, local bool) Symbols {
	out := Symbols{}
	for _, r := range w.Regions(local) {
		if r.Contains(p) {
			out = out.Union(r.Symbols())
		}
	}
	return out
}

// AllSymbols returns every symbol declared in the selected layer.
func (w *Workspace) AllSymbols(local bool) Symbols {
	out := Symbols{}
	for _, r := range w.Regions(local) {
		out = out.Union(r.Symbols())
	}
	return out
}

// Expanded returns a copy of the workspace prepared for a robot of the
// given radius: the boundary is deflated and every region inflated, so
// planning for a point robot in the expanded workspace is safe for the
// real footprint.
func (w *Workspace) Expanded(radius float64) (*Workspace, error) {
	box, ok := w.boundary.(*BoxRegion)
	if !ok {
		return nil, errors.Wrap(ErrGeometryInvalid, "expanded workspace: boundary must be a box")
	}
	shrunk, err := box.Shrink(radius)
	if err != nil {
		return nil, errors.Wrap(err, "expanded workspace: boundary")
	}
	out := NewWorkspace(shrunk)
	for _, r := range w.global {
		er, err := Expand(r, radius)
		if err != nil {
			return nil, errors.Wrapf(err, "expanded workspace: region %v", r.Symbols().List())
		}
		out.AddRegion(er, false)
	}
	for _, r := range w.local {
		er, err := Expand(r, radius)
		if err != nil {
			return nil, errors.Wrapf(err, "expanded workspace: local region %v", r.Symbols().List())
		}
		out.AddRegion(er, true)
	}
	return out, nil
}
