// Copyright 2016 Patrick Brosi
// Authors: info@patrickbrosi.de
//
// Use of this source code is governed by a GPL v2
// license that can be found in the LICENSE file

package registry

import (
	"fmt"
	"io/ioutil"
	"math"
	"strconv"
	"strings"

	"github.com/patrickbr/stoptagger/proj"
	"github.com/paulmach/go.geojson"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// ReadGeoJSON reads JORE stops from a GeoJSON feature collection with
// point geometries. Malformed features are logged and skipped.
func ReadGeoJSON(path string, log zerolog.Logger) ([]*Stop, error) {
	json, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading stop geojson")
	}

	return parseGeoJSON(json, log)
}

func parseGeoJSON(json []byte, log zerolog.Logger) ([]*Stop, error) {
	fc, err := geojson.UnmarshalFeatureCollection(json)
	if err != nil {
		return nil, errors.Wrap(err, "parsing stop geojson")
	}

	stops := make([]*Stop, 0, len(fc.Features))

	for i, feature := range fc.Features {
		if feature == nil {
			log.Error().Int("feature", i).Msg("skipping empty stop feature")
			continue
		}

		props := feature.Properties

		raw := RawStop{
			ID:             propString(props, FieldID),
			Ref:            propString(props, FieldRef),
			Name:           propString(props, FieldName),
			NameSv:         propString(props, FieldNameSv),
			ShelterCode:    propStopType(props, FieldStopType),
			RouteValid:     propFlag(props, FieldRouteValid),
			TimetableValid: propFlag(props, FieldTimetableValid),
		}

		if err := validate(raw); err != nil {
			log.Error().Err(err).Int("feature", i).Msg("skipping stop feature")
			continue
		}

		coord, err := pointCoord(feature.Geometry)
		if err != nil {
			log.Error().Err(err).Int("feature", i).Str("ref", raw.Ref).Msg("skipping stop feature")
			continue
		}
		raw.Coord = coord

		stops = append(stops, NewStop(raw))
	}

	return stops, nil
}

func pointCoord(g *geojson.Geometry) (*proj.Coord, error) {
	if g == nil {
		return nil, nil
	}
	if !g.IsPoint() {
		return nil, fmt.Errorf("expected point geometry, found %s", g.Type)
	}
	if len(g.Point) < 2 {
		return nil, fmt.Errorf("point has %d coordinates, expected 2", len(g.Point))
	}
	long, lat := g.Point[0], g.Point[1]
	if math.Abs(lat) > 90 || math.Abs(long) > 180 {
		return nil, fmt.Errorf("point (%f, %f) is not a WGS84 coordinate", long, lat)
	}
	return &proj.Coord{Long: long, Lat: lat}, nil
}

func propString(props map[string]interface{}, key string) string {
	switch v := props[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	}
	return ""
}

// propStopType reads a stop type code, which may be encoded as a number
func propStopType(props map[string]interface{}, key string) string {
	if v, ok := props[key].(float64); ok {
		return fmt.Sprintf("%02d", int(v))
	}
	return propString(props, key)
}

func propFlag(props map[string]interface{}, key string) *bool {
	switch v := props[key].(type) {
	case bool:
		return &v
	case float64:
		b := v != 0
		return &b
	case string:
		return parseFlag(v)
	}
	return nil
}
