// Copyright 2016 Patrick Brosi
// Authors: info@patrickbrosi.de
//
// Use of this source code is governed by a GPL v2
// license that can be found in the LICENSE file

package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/patrickbr/stoptagger/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnmatchedShortRefsExcluded(t *testing.T) {
	r := New()
	r.AddUnmatched("9999")
	r.AddUnmatched("9999")
	r.AddUnmatched("12")
	r.AddUnmatched("1")
	r.AddUnmatched("E10")

	s := r.Snapshot()
	assert.Equal(t, 5, s.Unmatched)
	assert.Equal(t, []UnmatchedRef{{Ref: "E10", Count: 1}, {Ref: "9999", Count: 2}}, s.UnmatchedRefs)
}

func TestSnapshotOrder(t *testing.T) {
	r := New()
	r.AddShelterConflict(ShelterConflict{StopID: "1", Ref: "H1", RegistryShelter: "no", OsmShelter: "yes"})
	r.AddShelterConflict(ShelterConflict{StopID: "2", Ref: "H3", RegistryShelter: "yes", OsmShelter: "no"})
	r.AddShelterConflict(ShelterConflict{StopID: "3", Ref: "H2", RegistryShelter: "no", OsmShelter: "yes"})
	r.AddShelterConflict(ShelterConflict{StopID: "4", Ref: "H4", RegistryShelter: "yes", OsmShelter: "no"})

	r.AddOutOfRange(OutOfRangeMatch{Ref: "H1", Distance: 120})
	r.AddOutOfRange(OutOfRangeMatch{Ref: "H2", Distance: 4000})
	r.AddOutOfRange(OutOfRangeMatch{Ref: "H3", Distance: 100})

	s := r.Snapshot()

	ids := make([]string, 0)
	for _, c := range s.ShelterConflicts {
		ids = append(ids, c.StopID)
	}
	assert.Equal(t, []string{"4", "2", "3", "1"}, ids)

	assert.Equal(t, 3, s.OutOfRange)
	require.Len(t, s.OutOfRangeMatches, 3)
	assert.Equal(t, "H2", s.OutOfRangeMatches[0].Ref)
	assert.Equal(t, "H1", s.OutOfRangeMatches[1].Ref)
	assert.Equal(t, "H3", s.OutOfRangeMatches[2].Ref)
}

func TestSnapshotIsolated(t *testing.T) {
	r := New()
	r.AddMatch("H1")
	r.AddOsmRef("1")
	r.AddOsmRef("1")

	s := r.Snapshot()

	r.AddMatch("H2")
	r.Prefixed++

	assert.Equal(t, 1, s.Matched)
	assert.Equal(t, 0, s.Prefixed)
	assert.Equal(t, 2, s.OsmRefs)
	assert.Equal(t, 1, s.UniqueOsmRefs)
	assert.Len(t, s.MatchedRefs, 1)
}

func TestWriteCSV(t *testing.T) {
	r := New()
	r.AddShelterConflict(ShelterConflict{StopID: "1130446", Ref: "H1234", RegistryShelter: "yes", OsmShelter: "no", Element: "node/1"})
	r.AddUnmatched("9999")
	r.AddOutOfRange(OutOfRangeMatch{StopID: "1130447", Ref: "H1235", Element: "node/2", Distance: 151.34})
	r.AddMatch("H1234")

	s := r.Snapshot()

	var buf bytes.Buffer
	require.NoError(t, WriteShelterConflicts(&buf, s))
	assert.Equal(t, "stop_id,ref,registry_shelter,osm_shelter,osm_element\n1130446,H1234,yes,no,node/1\n", buf.String())

	buf.Reset()
	require.NoError(t, WriteUnmatched(&buf, s))
	assert.Equal(t, "ref,count\n9999,1\n", buf.String())

	buf.Reset()
	require.NoError(t, WriteOutOfRange(&buf, s))
	assert.Equal(t, "stop_id,ref,osm_element,distance_m\n1130447,H1235,node/2,151.3\n", buf.String())

	no := false
	stops := []*registry.Stop{
		registry.NewStop(registry.RawStop{ID: "1130446", Ref: "H1234", Name: "Asema"}),
		registry.NewStop(registry.RawStop{ID: "1130448", Ref: "H1236", Name: "Puisto", NameSv: "Parken"}),
		registry.NewStop(registry.RawStop{ID: "1130449", Ref: "H1237", RouteValid: &no, TimetableValid: &no}),
	}

	buf.Reset()
	require.NoError(t, WriteMissingInOSM(&buf, s, stops))
	assert.Equal(t, "stop_id,ref,name,name_sv\n1130448,H1236,Puisto,Parken\n", buf.String())
}

func TestWriteSummary(t *testing.T) {
	r := New()
	r.SetRegistry(10, 9)
	r.AddMatch("H1")
	r.Named++

	var buf bytes.Buffer
	WriteSummary(&buf, r.Snapshot())

	out := buf.String()
	assert.Contains(t, out, "Registry stops: 10\n")
	assert.Contains(t, out, "Unique registry refs: 9\n")
	assert.Contains(t, out, "matched: 1\n")
	assert.Contains(t, out, "named: 1\n")
	assert.True(t, strings.Contains(out, "Results\n-------\n"))
}
