// Copyright 2016 Patrick Brosi
// Authors: info@patrickbrosi.de
//
// Use of this source code is governed by a GPL v2
// license that can be found in the LICENSE file

package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/patrickbr/stoptagger/registry"
)

// WriteSummary writes the statistics block printed at the end of a run
func WriteSummary(w io.Writer, s Snapshot) {
	fmt.Fprintf(w, "\nRegistry stops: %d\n", s.RegistryStops)
	fmt.Fprintf(w, "Unique registry refs: %d\n", s.RegistryRefs)
	fmt.Fprintf(w, "OSM elements with 'ref'-tag: %d\n", s.OsmRefs)
	fmt.Fprintf(w, "Unique OSM 'ref'-tag values: %d\n", s.UniqueOsmRefs)
	fmt.Fprintf(w, "OSM elements without registry match: %d\n", s.Unmatched)
	fmt.Fprintf(w, "Unique unmatched OSM 'ref'-tag values (length > %d): %d\n", minUnmatchedRefLen-1, len(s.UnmatchedRefs))

	fmt.Fprintf(w, "\nResults\n-------\n")
	fmt.Fprintf(w, "matched: %d\n", s.Matched)
	fmt.Fprintf(w, "prefixed: %d\n", s.Prefixed)
	fmt.Fprintf(w, "sheltered_yes: %d\n", s.ShelterYes)
	fmt.Fprintf(w, "sheltered_no: %d\n", s.ShelterNo)
	fmt.Fprintf(w, "shelter_no_data: %d\n", s.ShelterNoData)
	fmt.Fprintf(w, "named: %d\n", s.Named)
	fmt.Fprintf(w, "named_fi: %d\n", s.NamedFi)
	fmt.Fprintf(w, "named_sv: %d\n", s.NamedSv)
	fmt.Fprintf(w, "out_of_range: %d\n", s.OutOfRange)
	fmt.Fprintf(w, "shelter_conflicts: %d\n", len(s.ShelterConflicts))
}

// WriteShelterConflicts writes the shelter conflicts as CSV
func WriteShelterConflicts(w io.Writer, s Snapshot) error {
	cw := csv.NewWriter(w)
	cw.Write([]string{"stop_id", "ref", "registry_shelter", "osm_shelter", "osm_element"})
	for _, c := range s.ShelterConflicts {
		cw.Write([]string{c.StopID, c.Ref, c.RegistryShelter, c.OsmShelter, c.Element})
	}
	cw.Flush()
	return cw.Error()
}

// WriteUnmatched writes the unmatched OSM refs as CSV
func WriteUnmatched(w io.Writer, s Snapshot) error {
	cw := csv.NewWriter(w)
	cw.Write([]string{"ref", "count"})
	for _, u := range s.UnmatchedRefs {
		cw.Write([]string{u.Ref, strconv.Itoa(u.Count)})
	}
	cw.Flush()
	return cw.Error()
}

// WriteOutOfRange writes the matches rejected by the distance check as CSV
func WriteOutOfRange(w io.Writer, s Snapshot) error {
	cw := csv.NewWriter(w)
	cw.Write([]string{"stop_id", "ref", "osm_element", "distance_m"})
	for _, m := range s.OutOfRangeMatches {
		cw.Write([]string{m.StopID, m.Ref, m.Element, strconv.FormatFloat(m.Distance, 'f', 1, 64)})
	}
	cw.Flush()
	return cw.Error()
}

// WriteMissingInOSM writes the importable registry stops no OSM element
// was matched to, in the order given
func WriteMissingInOSM(w io.Writer, s Snapshot, stops []*registry.Stop) error {
	cw := csv.NewWriter(w)
	cw.Write([]string{"stop_id", "ref", "name", "name_sv"})
	for _, st := range stops {
		if !st.Importable() {
			continue
		}
		if _, ok := s.MatchedRefs[st.Ref()]; ok {
			continue
		}
		cw.Write([]string{st.ID(), st.Ref(), st.Name(), st.NameSv()})
	}
	cw.Flush()
	return cw.Error()
}
