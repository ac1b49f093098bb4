// Copyright 2017 Tomas Machalek <tomas.machalek@gmail.com>
// Copyright 2017 Charles University, Faculty of Arts,
//                Institute of the Czech National Corpus
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package features is the library of pure scoring functions a
// FeatureContext is run through: boundary features (line-level) and
// segment features (span-level), each identified by a stable string id
// (spec.md §4.1). Grounded on db/colgen/functions.go's
// name-to-function registry shape.
package features

import (
	"fmt"

	"github.com/czcorpus/jointextract/joint"
)

// BoundaryFeature scores a line-level signal from ctx.Lines/ctx.LineIndex.
type BoundaryFeature func(ctx joint.FeatureContext) float64

// SegmentFeature scores a span-level signal; ctx additionally carries
// ctx.Span/ctx.SpanIndex.
type SegmentFeature func(ctx joint.FeatureContext) float64

// Registry holds the active, ordered feature sets for a decode session.
// Order is schema-declared-then-insertion (spec.md §5, §9): the decoder
// loop iterates Registry.BoundaryIDs/SegmentIDs rather than ranging
// over a map, so results are reproducible across Go versions.
type Registry struct {
	boundary      map[string]BoundaryFeature
	boundaryOrder []string
	segment       map[string]SegmentFeature
	segmentOrder  []string
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		boundary: make(map[string]BoundaryFeature),
		segment:  make(map[string]SegmentFeature),
	}
}

// AddBoundary registers a boundary feature under id, preserving
// insertion order. Re-registering an id replaces the function but keeps
// its original position.
func (r *Registry) AddBoundary(id string, fn BoundaryFeature) {
	if _, ok := r.boundary[id]; !ok {
		r.boundaryOrder = append(r.boundaryOrder, id)
	}
	r.boundary[id] = fn
}

// AddSegment registers a segment feature under id, preserving insertion
// order.
func (r *Registry) AddSegment(id string, fn SegmentFeature) {
	if _, ok := r.segment[id]; !ok {
		r.segmentOrder = append(r.segmentOrder, id)
	}
	r.segment[id] = fn
}

// GetBoundary looks up a boundary feature by id.
func (r *Registry) GetBoundary(id string) (BoundaryFeature, error) {
	fn, ok := r.boundary[id]
	if !ok {
		return nil, fmt.Errorf("unknown boundary feature: %s", id)
	}
	return fn, nil
}

// GetSegment looks up a segment feature by id.
func (r *Registry) GetSegment(id string) (SegmentFeature, error) {
	fn, ok := r.segment[id]
	if !ok {
		return nil, fmt.Errorf("unknown segment feature: %s", id)
	}
	return fn, nil
}

// BoundaryIDs returns the registered boundary feature ids in iteration order.
func (r *Registry) BoundaryIDs() []string {
	return r.boundaryOrder
}

// SegmentIDs returns the registered segment feature ids in iteration order.
func (r *Registry) SegmentIDs() []string {
	return r.segmentOrder
}

// EvalBoundary runs every registered boundary feature over ctx, returning
// a map of id -> score. Preallocated to the registry's size; the decoder
// hot loop should instead iterate BoundaryIDs() directly to avoid this
// allocation where per-call performance matters.
func (r *Registry) EvalBoundary(ctx joint.FeatureContext) map[string]float64 {
	ans := make(map[string]float64, len(r.boundaryOrder))
	for _, id := range r.boundaryOrder {
		ans[id] = r.boundary[id](ctx)
	}
	return ans
}

// EvalSegment runs every registered segment feature over ctx.
func (r *Registry) EvalSegment(ctx joint.FeatureContext) map[string]float64 {
	ans := make(map[string]float64, len(r.segmentOrder))
	for _, id := range r.segmentOrder {
		ans[id] = r.segment[id](ctx)
	}
	return ans
}
