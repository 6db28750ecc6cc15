// Copyright 2016 Patrick Brosi
// Authors: info@patrickbrosi.de
//
// Use of this source code is governed by a GPL v2
// license that can be found in the LICENSE file

package processors

import (
	"fmt"
	"os"
	"strings"

	osm "github.com/omniscale/go-osm"
	"github.com/patrickbr/stoptagger/osmxml"
	"github.com/patrickbr/stoptagger/proj"
	"github.com/patrickbr/stoptagger/registry"
	"github.com/patrickbr/stoptagger/report"
	"github.com/rs/zerolog"
)

const (
	tagRef     = "ref"
	tagShelter = "shelter"
	tagName    = "name"
	tagNameFi  = "name:fi"
	tagNameSv  = "name:sv"
)

// tags deciding the stop subtype, in order of precedence
var subtypeKeys = []string{"highway", "railway", "public_transport"}

// subtypes marking only where a vehicle stops, which have no shelter
var stopPositions = map[string]struct{}{
	"stop_position": {},
	"stop":          {},
}

// OutcomeKind classifies the result of tagging one element
type OutcomeKind uint8

const (
	NoMatch = OutcomeKind(iota)
	Matched
	OutOfRange
	ConflictingShelter
)

func (k OutcomeKind) String() string {
	return [...]string{"no match", "matched", "out of range", "conflicting shelter"}[k]
}

// Action is a tag mutation applied to a matched element
type Action uint8

const (
	ActionPrefixed = Action(iota)
	ActionShelterYes
	ActionShelterNo
	ActionName
	ActionNameFi
	ActionNameSv
)

func (a Action) String() string {
	return [...]string{"prefixed", "shelter=yes", "shelter=no", "name", "name:fi", "name:sv"}[a]
}

// Outcome is the result of tagging one element with a ref
type Outcome struct {
	Kind     OutcomeKind
	Stop     *registry.Stop
	Rule     string
	Actions  []Action
	Distance float64
	Conflict *report.ShelterConflict
}

// StopTagger enriches OSM stop elements with registry data: ref prefixes,
// shelter and names. Matches whose positions are MaxDist meter or more
// apart are rejected. Existing shelter and name tags are never changed.
type StopTagger struct {
	Matcher    *Matcher
	Projection proj.Projection
	MaxDist    float64
	Report     *report.Report
	Log        zerolog.Logger
}

// Run this StopTagger on some document
func (st StopTagger) Run(doc *osmxml.Document) {
	fmt.Fprintf(os.Stdout, "Tagging stops... ")

	tagged := 0
	unmatched := 0
	rejected := 0

	for _, e := range doc.Elements() {
		if e.Deleted() {
			continue
		}
		o, ok := st.Tag(e)
		if !ok {
			continue
		}
		switch o.Kind {
		case NoMatch:
			unmatched++
		case OutOfRange:
			rejected++
		default:
			if len(o.Actions) > 0 {
				tagged++
			}
		}
	}

	fmt.Fprintf(os.Stdout, "done. (%d elements changed, %d out of range, %d without match)\n", tagged, rejected, unmatched)
}

// Tag matches a single element against the registry and applies the
// resulting tag changes. It returns false if e carries no ref.
func (st StopTagger) Tag(e *osmxml.Element) (Outcome, bool) {
	ref, ok := e.Tag(tagRef)
	if !ok || len(ref) == 0 {
		return Outcome{}, false
	}

	st.Report.AddOsmRef(ref)

	stop, rule, ok := st.Matcher.Match(ref)
	if !ok {
		st.Report.AddUnmatched(ref)
		st.Log.Info().Str("element", e.Locator()).Str("ref", ref).Msg("no registry stop")
		return Outcome{Kind: NoMatch}, true
	}

	st.Report.AddMatch(stop.Ref())
	st.Log.Info().Str("element", e.Locator()).Str("ref", ref).Str("stop", stop.ID()).Str("rule", rule.Name).Msg("matched")

	o := Outcome{Kind: Matched, Stop: stop, Rule: rule.Name}

	if d, ok := st.distance(stop, e); ok {
		o.Distance = d
		if d >= st.MaxDist {
			o.Kind = OutOfRange
			st.Report.AddOutOfRange(report.OutOfRangeMatch{StopID: stop.ID(), Ref: stop.Ref(), Element: e.Locator(), Distance: d})
			st.Log.Warn().Str("element", e.Locator()).Str("stop", stop.ID()).Float64("distance", d).Msg("registry stop too far away, skipping")
			return o, true
		}
	}

	if stop.IsCapital() {
		if newRef, ok := prefixedRef(ref); ok {
			e.UpdateTag(tagRef, newRef)
			st.Report.Prefixed++
			o.Actions = append(o.Actions, ActionPrefixed)
			st.Log.Info().Str("element", e.Locator()).Str("old", ref).Str("new", newRef).Msg("updated ref")
		}
	}

	st.tagShelter(e, stop, &o)
	st.tagNames(e, stop, &o)

	return o, true
}

// distance returns the ground distance between stop and e, false if one
// of them has no position or the check is disabled
func (st StopTagger) distance(stop *registry.Stop, e *osmxml.Element) (float64, bool) {
	if st.Projection.Project == nil || st.MaxDist <= 0 {
		return 0, false
	}

	c, ok := stop.Coord()
	if !ok {
		return 0, false
	}

	pos, ok := e.Coord()
	if !ok {
		return 0, false
	}

	return projectedDist(st.Projection, c, pos), true
}

func (st StopTagger) tagShelter(e *osmxml.Element, stop *registry.Stop, o *Outcome) {
	tags := e.Tags()
	want := stop.Shelter().TagValue()

	if have, ok := tags[tagShelter]; ok {
		if len(want) > 0 && have != want {
			c := report.ShelterConflict{
				StopID:          stop.ID(),
				Ref:             stop.Ref(),
				RegistryShelter: want,
				OsmShelter:      have,
				Element:         e.Locator(),
			}
			st.Report.AddShelterConflict(c)
			o.Kind = ConflictingShelter
			o.Conflict = &c
			st.Log.Warn().Str("element", e.Locator()).Str("stop", stop.ID()).Str("osm", have).Str("registry", want).Msg("conflicting shelter")
		}
		return
	}

	if e.Kind() == osm.RelationMember || isStopPosition(tags) {
		return
	}

	switch stop.Shelter() {
	case registry.ShelterUnknown:
		st.Report.ShelterNoData++
		return
	case registry.Sheltered:
		st.Report.ShelterYes++
		o.Actions = append(o.Actions, ActionShelterYes)
	case registry.Unsheltered:
		st.Report.ShelterNo++
		o.Actions = append(o.Actions, ActionShelterNo)
	}

	st.createTag(e, tagShelter, want)
}

func (st StopTagger) tagNames(e *osmxml.Element, stop *registry.Stop, o *Outcome) {
	tags := e.Tags()

	names := []struct {
		key    string
		value  string
		action Action
		count  *int
	}{
		{tagName, stop.Name(), ActionName, &st.Report.Named},
		{tagNameFi, stop.Name(), ActionNameFi, &st.Report.NamedFi},
		{tagNameSv, stop.NameSv(), ActionNameSv, &st.Report.NamedSv},
	}

	for _, n := range names {
		if _, ok := tags[n.key]; ok || len(n.value) == 0 {
			continue
		}
		st.createTag(e, n.key, n.value)
		*n.count++
		o.Actions = append(o.Actions, n.action)
	}
}

func (st StopTagger) createTag(e *osmxml.Element, k, v string) {
	e.CreateTag(k, v)
	st.Log.Info().Str("element", e.Locator()).Str("tag", k+"="+v).Msg("created tag")
}

// prefixedRef returns the ref with the capital municipality prefix, false
// if ref is already prefixed
func prefixedRef(ref string) (string, bool) {
	switch {
	case strings.HasPrefix(ref, registry.CapitalVirtualPrefix), strings.HasPrefix(ref, registry.CapitalPrefix):
		return ref, false
	case strings.HasPrefix(ref, registry.VirtualPrefix):
		return registry.CapitalVirtualPrefix + ref[len(registry.VirtualPrefix):], true
	}
	return registry.CapitalPrefix + ref, true
}

// isStopPosition reports whether the stop subtype, taken from the first
// of highway, railway and public_transport present, is a stop position
func isStopPosition(tags osm.Tags) bool {
	for _, k := range subtypeKeys {
		if v, ok := tags[k]; ok {
			_, pos := stopPositions[v]
			return pos
		}
	}
	return false
}
