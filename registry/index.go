// Copyright 2016 Patrick Brosi
// Authors: info@patrickbrosi.de
//
// Use of this source code is governed by a GPL v2
// license that can be found in the LICENSE file

package registry

import (
	"golang.org/x/exp/slices"
)

// Index holds registry stops keyed by their reference key. If two stops
// share a key, the one added last wins.
type Index struct {
	stops map[string]*Stop
	added int
}

// NewIndex builds an index from stops, in order
func NewIndex(stops []*Stop) *Index {
	idx := &Index{stops: make(map[string]*Stop, len(stops))}
	for _, s := range stops {
		idx.Add(s)
	}
	return idx
}

// Add stores s under its reference key, replacing any previous stop
func (idx *Index) Add(s *Stop) {
	idx.stops[s.Ref()] = s
	idx.added++
}

// Get returns the stop stored under ref
func (idx *Index) Get(ref string) (*Stop, bool) {
	s, ok := idx.stops[ref]
	return s, ok
}

// Len returns the number of distinct reference keys
func (idx *Index) Len() int {
	return len(idx.stops)
}

// Shadowed returns how many added stops were replaced by a later stop
// with the same reference key
func (idx *Index) Shadowed() int {
	return idx.added - len(idx.stops)
}

// Stops returns all indexed stops, ordered by reference key
func (idx *Index) Stops() []*Stop {
	ret := make([]*Stop, 0, len(idx.stops))
	for _, s := range idx.stops {
		ret = append(ret, s)
	}
	slices.SortFunc(ret, func(a, b *Stop) int {
		if a.Ref() < b.Ref() {
			return -1
		}
		if a.Ref() > b.Ref() {
			return 1
		}
		return 0
	})
	return ret
}
