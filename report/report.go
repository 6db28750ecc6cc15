// Copyright 2016 Patrick Brosi
// Authors: info@patrickbrosi.de
//
// Use of this source code is governed by a GPL v2
// license that can be found in the LICENSE file

// Package report collects the results of a tagging run and renders them
// as console text and CSV side files.
package report

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/exp/slices"
)

// Unmatched refs up to this length are mostly rail platform numbers
// and are left out of the unmatched list.
const minUnmatchedRefLen = 3

// Counters holds the per-run statistics
type Counters struct {
	Matched       int
	Prefixed      int
	ShelterYes    int
	ShelterNo     int
	ShelterNoData int
	Named         int
	NamedFi       int
	NamedSv       int
	OutOfRange    int

	RegistryStops int
	RegistryRefs  int
	OsmRefs       int
	Unmatched     int
}

// ShelterConflict is an element whose shelter tag disagrees with the registry
type ShelterConflict struct {
	StopID          string
	Ref             string
	RegistryShelter string
	OsmShelter      string
	Element         string
}

// UnmatchedRef is an OSM ref without registry stop, with the number of
// elements carrying it
type UnmatchedRef struct {
	Ref   string
	Count int
}

// OutOfRangeMatch is a key match rejected by the distance check
type OutOfRangeMatch struct {
	StopID   string
	Ref      string
	Element  string
	Distance float64
}

// Report accumulates the outcome of one tagging run. It is owned by the
// caller and passed to the tagger explicitly.
type Report struct {
	Counters

	conflicts   []ShelterConflict
	outOfRange  []OutOfRangeMatch
	unmatched   map[string]int
	osmRefs     map[string]struct{}
	matchedRefs map[string]struct{}
}

// Snapshot is an immutable copy of a Report, with all lists in report order
type Snapshot struct {
	Counters

	UniqueOsmRefs     int
	ShelterConflicts  []ShelterConflict
	UnmatchedRefs     []UnmatchedRef
	OutOfRangeMatches []OutOfRangeMatch
	MatchedRefs       map[string]struct{}
}

// New returns an empty report
func New() *Report {
	return &Report{
		unmatched:   make(map[string]int),
		osmRefs:     make(map[string]struct{}),
		matchedRefs: make(map[string]struct{}),
	}
}

// SetRegistry records the size of the loaded registry
func (r *Report) SetRegistry(stops, refs int) {
	r.RegistryStops = stops
	r.RegistryRefs = refs
}

// AddOsmRef records an element carrying ref
func (r *Report) AddOsmRef(ref string) {
	r.OsmRefs++
	r.osmRefs[ref] = struct{}{}
}

// AddMatch records an element matched to the registry stop with key ref
func (r *Report) AddMatch(ref string) {
	r.Matched++
	r.matchedRefs[ref] = struct{}{}
}

// AddUnmatched records an element whose ref matched no registry stop
func (r *Report) AddUnmatched(ref string) {
	r.Unmatched++
	if utf8.RuneCountInString(ref) < minUnmatchedRefLen {
		return
	}
	r.unmatched[ref]++
}

// AddOutOfRange records a match rejected by the distance check
func (r *Report) AddOutOfRange(m OutOfRangeMatch) {
	r.OutOfRange++
	r.outOfRange = append(r.outOfRange, m)
}

// AddShelterConflict records a shelter tag disagreeing with the registry
func (r *Report) AddShelterConflict(c ShelterConflict) {
	r.conflicts = append(r.conflicts, c)
}

// Snapshot copies the current state of r
func (r *Report) Snapshot() Snapshot {
	s := Snapshot{
		Counters:          r.Counters,
		UniqueOsmRefs:     len(r.osmRefs),
		ShelterConflicts:  slices.Clone(r.conflicts),
		UnmatchedRefs:     make([]UnmatchedRef, 0, len(r.unmatched)),
		OutOfRangeMatches: slices.Clone(r.outOfRange),
		MatchedRefs:       make(map[string]struct{}, len(r.matchedRefs)),
	}

	for ref, n := range r.unmatched {
		s.UnmatchedRefs = append(s.UnmatchedRefs, UnmatchedRef{Ref: ref, Count: n})
	}

	for ref := range r.matchedRefs {
		s.MatchedRefs[ref] = struct{}{}
	}

	// descending by registry shelter value, then by ref
	slices.SortStableFunc(s.ShelterConflicts, func(a, b ShelterConflict) int {
		if c := strings.Compare(b.RegistryShelter, a.RegistryShelter); c != 0 {
			return c
		}
		return strings.Compare(b.Ref, a.Ref)
	})

	slices.SortFunc(s.UnmatchedRefs, func(a, b UnmatchedRef) int {
		return strings.Compare(b.Ref, a.Ref)
	})

	// descending by distance
	slices.SortStableFunc(s.OutOfRangeMatches, func(a, b OutOfRangeMatch) int {
		if a.Distance > b.Distance {
			return -1
		}
		if a.Distance < b.Distance {
			return 1
		}
		return 0
	})

	return s
}
