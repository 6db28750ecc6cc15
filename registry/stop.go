// Copyright 2016 Patrick Brosi
// Authors: info@patrickbrosi.de
//
// Use of this source code is governed by a GPL v2
// license that can be found in the LICENSE file

// Package registry holds the stop records of the transit registry (JORE)
// and reads them from CSV, GeoJSON and GTFS sources.
package registry

import (
	"strings"

	"github.com/patrickbr/stoptagger/proj"
)

// ShelterState is the shelter classification of a registry stop
type ShelterState uint8

const (
	Sheltered = ShelterState(iota)
	Unsheltered
	ShelterUnknown
)

func (s ShelterState) String() string {
	return [...]string{"sheltered", "unsheltered", "unknown"}[s]
}

// TagValue returns the OSM shelter value for s, or "" if s is unknown
func (s ShelterState) TagValue() string {
	switch s {
	case Sheltered:
		return "yes"
	case Unsheltered:
		return "no"
	}
	return ""
}

// Municipality is derived from the prefix of a reference key
type Municipality uint8

const (
	Unclassified = Municipality(iota)
	Capital
)

func (m Municipality) String() string {
	return [...]string{"", "Helsinki"}[m]
}

// JORE stop type codes
const (
	// pole
	stopTypePole = "04"
	// stop position marking only
	stopTypeMarking = "08"
	// no data
	stopTypeUnknown = "99"
)

const (
	CapitalPrefix        = "H"
	VirtualPrefix        = "X"
	CapitalVirtualPrefix = VirtualPrefix + CapitalPrefix
)

// RawStop holds the unprocessed fields of a registry stop
type RawStop struct {
	ID          string
	Ref         string
	Name        string
	NameSv      string
	ShelterCode string

	// optional, only available in the richer sources
	Coord          *proj.Coord
	RouteValid     *bool
	TimetableValid *bool
}

// Stop is an immutable registry stop
type Stop struct {
	id           string
	ref          string
	name         string
	nameSv       string
	coord        *proj.Coord
	shelter      ShelterState
	municipality Municipality
	importable   bool
}

// NewStop builds a Stop from raw registry fields, deriving shelter state,
// municipality and importability. Every input yields a stop.
func NewStop(raw RawStop) *Stop {
	s := &Stop{
		id:           raw.ID,
		ref:          raw.Ref,
		name:         raw.Name,
		nameSv:       raw.NameSv,
		shelter:      ShelterFromCode(raw.ShelterCode),
		municipality: MunicipalityFromRef(raw.Ref),
		importable:   !(isFalse(raw.RouteValid) && isFalse(raw.TimetableValid)),
	}

	if raw.Coord != nil {
		c := *raw.Coord
		s.coord = &c
	}

	return s
}

// ShelterFromCode classifies a JORE stop type code. Codes other than
// pole, marking and no-data count as sheltered.
func ShelterFromCode(code string) ShelterState {
	switch strings.TrimSpace(code) {
	case stopTypePole, stopTypeMarking:
		return Unsheltered
	case stopTypeUnknown:
		return ShelterUnknown
	}
	return Sheltered
}

// MunicipalityFromRef classifies a reference key by its prefix
func MunicipalityFromRef(ref string) Municipality {
	if strings.HasPrefix(ref, CapitalPrefix) || strings.HasPrefix(ref, CapitalVirtualPrefix) {
		return Capital
	}
	return Unclassified
}

func isFalse(b *bool) bool {
	return b != nil && !*b
}

func (s *Stop) ID() string                 { return s.id }
func (s *Stop) Ref() string                { return s.ref }
func (s *Stop) Name() string               { return s.name }
func (s *Stop) NameSv() string             { return s.nameSv }
func (s *Stop) Shelter() ShelterState      { return s.shelter }
func (s *Stop) Municipality() Municipality { return s.municipality }
func (s *Stop) IsCapital() bool            { return s.municipality == Capital }
func (s *Stop) Importable() bool           { return s.importable }

// Coord returns the WGS84 position of the stop, if known
func (s *Stop) Coord() (proj.Coord, bool) {
	if s.coord == nil {
		return proj.Coord{}, false
	}
	return *s.coord, true
}
