// Copyright 2016 Patrick Brosi
// Authors: info@patrickbrosi.de
//
// Use of this source code is governed by a GPL v2
// license that can be found in the LICENSE file

package registry

import (
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const csvDelimiter = ';'

// ReadCSV reads JORE stops from a semicolon separated file. Malformed rows
// are logged and skipped.
func ReadCSV(path string, log zerolog.Logger) ([]*Stop, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening stop csv")
	}
	defer f.Close()

	return readCSV(f, log)
}

func readCSV(in io.Reader, log zerolog.Logger) ([]*Stop, error) {
	r := csv.NewReader(in)
	r.Comma = csvDelimiter
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return nil, errors.Wrap(err, "reading stop csv header")
	}

	cols := make(map[string]int, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		cols[strings.TrimSpace(h)] = i
	}

	for _, req := range []string{FieldID, FieldRef, FieldName, FieldNameSv, FieldStopType} {
		if _, ok := cols[req]; !ok {
			return nil, errors.Errorf("stop csv header is missing column %s", req)
		}
	}

	get := func(row []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	stops := make([]*Stop, 0)

	for line := 2; ; line++ {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			if _, ok := err.(*csv.ParseError); ok {
				log.Error().Err(err).Int("line", line).Msg("skipping malformed stop row")
				continue
			}
			return stops, errors.Wrap(err, "reading stop csv")
		}

		if len(row) < len(header) {
			log.Error().Int("line", line).Int("fields", len(row)).Msg("skipping stop row with missing fields")
			continue
		}

		raw := RawStop{
			ID:             get(row, FieldID),
			Ref:            get(row, FieldRef),
			Name:           get(row, FieldName),
			NameSv:         get(row, FieldNameSv),
			ShelterCode:    get(row, FieldStopType),
			RouteValid:     parseFlag(get(row, FieldRouteValid)),
			TimetableValid: parseFlag(get(row, FieldTimetableValid)),
		}

		if err := validate(raw); err != nil {
			log.Error().Err(err).Int("line", line).Msg("skipping stop row")
			continue
		}

		stops = append(stops, NewStop(raw))
	}

	return stops, nil
}
