// Copyright 2016 Patrick Brosi
// Authors: info@patrickbrosi.de
//
// Use of this source code is governed by a GPL v2
// license that can be found in the LICENSE file

package registry

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

// JORE field names, shared by the CSV header and the GeoJSON properties
const (
	FieldID             = "SOLMUTUNNU"
	FieldRef            = "LYHYTTUNNU"
	FieldName           = "NIMI1"
	FieldNameSv         = "NAMN2"
	FieldStopType       = "PYSAKKITYY"
	FieldRouteValid     = "REI_VOIM"
	FieldTimetableValid = "AIK_VOIM"
)

// Read reads registry stops from path. GeoJSON is expected for .json and
// .geojson files, a GTFS feed for .zip files and directories, and JORE CSV
// otherwise.
func Read(path string, log zerolog.Logger) ([]*Stop, error) {
	lower := strings.ToLower(path)

	if strings.HasSuffix(lower, ".json") || strings.HasSuffix(lower, ".geojson") {
		return ReadGeoJSON(path, log)
	}

	if strings.HasSuffix(lower, ".zip") {
		return ReadGTFS(path, log)
	}

	if fi, err := os.Stat(path); err == nil && fi.IsDir() {
		return ReadGTFS(path, log)
	}

	return ReadCSV(path, log)
}

// parseFlag parses a validity flag. Empty or unparsable values are nil.
func parseFlag(s string) *bool {
	s = strings.TrimSpace(s)
	if len(s) == 0 {
		return nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return nil
	}
	return &b
}

// validate reports why raw cannot be imported at all
func validate(raw RawStop) error {
	if len(raw.ID) == 0 {
		return fmt.Errorf("missing %s", FieldID)
	}
	if len(raw.Ref) == 0 {
		return fmt.Errorf("missing %s", FieldRef)
	}
	return nil
}
