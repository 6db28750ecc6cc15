// Copyright 2016 Patrick Brosi
// Authors: info@patrickbrosi.de
//
// Use of this source code is governed by a GPL v2
// license that can be found in the LICENSE file

package registry

import (
	"github.com/patrickbr/gtfsparser"
	gtfs "github.com/patrickbr/gtfsparser/gtfs"
	"github.com/patrickbr/stoptagger/proj"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/exp/slices"
)

// ReadGTFS reads stops from a GTFS feed (directory or zip file). Every
// platform stop carrying a stop_code becomes a registry stop keyed by that
// code. GTFS has no shelter information, so all stops are ShelterUnknown.
func ReadGTFS(path string, log zerolog.Logger) ([]*Stop, error) {
	feed := gtfsparser.NewFeed()
	opts := gtfsparser.ParseOptions{UseDefValueOnError: true, DropErroneous: true, DryRun: false, CheckNullCoordinates: true, EmptyStringRepl: "", ZipFix: true, DropShapes: true}
	feed.SetParseOpts(opts)

	if err := feed.Parse(path); err != nil {
		return nil, errors.Wrapf(err, "parsing GTFS feed in '%s'", path)
	}

	if feed.ErrorStats.DroppedStops > 0 {
		log.Error().Int("dropped", feed.ErrorStats.DroppedStops).Msg("dropped erroneous GTFS stops")
	}

	return stopsFromFeed(feed, log), nil
}

func stopsFromFeed(feed *gtfsparser.Feed, log zerolog.Logger) []*Stop {
	ids := make([]string, 0, len(feed.Stops))
	for id := range feed.Stops {
		ids = append(ids, id)
	}
	// deterministic order, later ids shadow earlier ones in the index
	slices.Sort(ids)

	stops := make([]*Stop, 0, len(ids))

	for _, id := range ids {
		s := feed.Stops[id]
		if s.Location_type != 0 {
			continue
		}

		if len(s.Code) == 0 {
			log.Debug().Str("stop_id", s.Id).Msg("skipping GTFS stop without stop_code")
			continue
		}

		stops = append(stops, NewStop(rawFromGtfs(s)))
	}

	return stops
}

func rawFromGtfs(s *gtfs.Stop) RawStop {
	return RawStop{
		ID:          s.Id,
		Ref:         s.Code,
		Name:        s.Name,
		ShelterCode: stopTypeUnknown,
		Coord:       &proj.Coord{Long: float64(s.Lon), Lat: float64(s.Lat)},
	}
}
