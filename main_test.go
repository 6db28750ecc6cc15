// Copyright 2016 Patrick Brosi
// Authors: info@patrickbrosi.de
//
// Use of this source code is governed by a GPL v2
// license that can be found in the LICENSE file

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/patrickbr/stoptagger/config"
	"github.com/patrickbr/stoptagger/osmxml"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runTagger(t *testing.T, registryPath string) (string, string, *osmxml.Document) {
	t.Helper()

	dir := t.TempDir()
	conf := config.Default()
	conf.ReportDir = dir

	out := filepath.Join(dir, "output.osm")

	var stdout, stderr bytes.Buffer
	status := run("testdata/input.osm", registryPath, out, conf, &stdout, &stderr)
	require.Equal(t, 0, status, stderr.String())

	doc, err := osmxml.ParseFile(out)
	require.NoError(t, err)

	return dir, stdout.String(), doc
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(b)
}

func tagsOf(t *testing.T, doc *osmxml.Document, locator string) map[string]string {
	t.Helper()
	for _, e := range doc.Elements() {
		if e.Locator() == locator {
			return map[string]string(e.Tags())
		}
	}
	t.Fatalf("element %s not found", locator)
	return nil
}

func TestRunWithCSV(t *testing.T) {
	dir, stdout, doc := runTagger(t, "testdata/stops.csv")

	assert.Contains(t, stdout, "Registry stops: 6\n")
	assert.Contains(t, stdout, "matched: 4\n")
	assert.Contains(t, stdout, "prefixed: 2\n")
	assert.Contains(t, stdout, "sheltered_yes: 1\n")
	assert.Contains(t, stdout, "shelter_no_data: 1\n")
	assert.Contains(t, stdout, "named: 3\n")
	assert.Contains(t, stdout, "named_fi: 4\n")
	assert.Contains(t, stdout, "named_sv: 4\n")
	assert.Contains(t, stdout, "shelter_conflicts: 1\n")

	assert.Equal(t, map[string]string{
		"highway": "bus_stop",
		"ref":     "H1234",
		"shelter": "yes",
		"name":    "Rautatientori",
		"name:fi": "Rautatientori",
		"name:sv": "Järnvägstorget",
	}, tagsOf(t, doc, "node/1"))

	n2 := tagsOf(t, doc, "node/2")
	assert.Equal(t, "Foo", n2["name"])
	assert.Equal(t, "Bar", n2["name:fi"])
	assert.Equal(t, "no", n2["shelter"])

	assert.Equal(t, map[string]string{"highway": "bus_stop", "ref": "9999"}, tagsOf(t, doc, "node/3"))

	n4 := tagsOf(t, doc, "node/4")
	assert.Equal(t, "XH0001", n4["ref"])
	assert.NotContains(t, n4, "shelter")

	w := tagsOf(t, doc, "way/10")
	assert.Equal(t, "no", w["shelter"])
	assert.Equal(t, "Tapiola", w["name"])

	for _, e := range doc.Elements() {
		switch e.Locator() {
		case "node/3", "node/5", "node/6", "node/7":
			assert.False(t, e.Modified(), e.Locator())
		default:
			assert.True(t, e.Modified(), e.Locator())
		}
	}

	assert.Equal(t, "stop_id,ref,registry_shelter,osm_shelter,osm_element\n2111202,E2002,yes,no,way/10\n",
		readFile(t, filepath.Join(dir, shelterConflictsFile)))
	assert.Equal(t, "ref,count\n9999,1\n", readFile(t, filepath.Join(dir, unmatchedRefsFile)))
	assert.Equal(t, "stop_id,ref,osm_element,distance_m\n", readFile(t, filepath.Join(dir, outOfRangeFile)))
	assert.Equal(t, "stop_id,ref,name,name_sv\n1020203,H7777,Puisto,Parken\n",
		readFile(t, filepath.Join(dir, missingInOsmFile)))

	assert.FileExists(t, filepath.Join(dir, config.DefaultLogFile))
}

func TestRunWithGeoJSON(t *testing.T) {
	dir, stdout, doc := runTagger(t, "testdata/stops.geojson")

	assert.Contains(t, stdout, "matched: 4\n")
	assert.Contains(t, stdout, "out_of_range: 1\n")

	n2 := tagsOf(t, doc, "node/2")
	assert.NotContains(t, n2, "name:fi")

	for _, e := range doc.Elements() {
		if e.Locator() == "node/2" {
			assert.False(t, e.Modified())
		}
	}

	assert.Equal(t, "H1234", tagsOf(t, doc, "node/1")["ref"])

	oor := readFile(t, filepath.Join(dir, outOfRangeFile))
	assert.Contains(t, oor, "2111201,E2001,node/2,")
}

func TestRunWithoutDistanceCheck(t *testing.T) {
	dir := t.TempDir()
	conf := config.Default()
	conf.ReportDir = dir
	conf.MaxDist = 0
	require.Empty(t, conf.Check())

	out := filepath.Join(dir, "output.osm")

	var stdout, stderr bytes.Buffer
	require.Equal(t, 0, run("testdata/input.osm", "testdata/stops.geojson", out, conf, &stdout, &stderr))

	assert.Contains(t, stdout.String(), "out_of_range: 0\n")

	doc, err := osmxml.ParseFile(out)
	require.NoError(t, err)
	assert.Equal(t, "Bar", tagsOf(t, doc, "node/2")["name:fi"])
}

func TestRunIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	conf := config.Default()
	conf.ReportDir = dir

	first := filepath.Join(dir, "first.osm")
	second := filepath.Join(dir, "second.osm")

	var stdout, stderr bytes.Buffer
	require.Equal(t, 0, run("testdata/input.osm", "testdata/stops.csv", first, conf, &stdout, &stderr))
	require.Equal(t, 0, run(first, "testdata/stops.csv", second, conf, &stdout, &stderr))

	assert.Equal(t, readFile(t, first), readFile(t, second))
}

func TestRunMissingInput(t *testing.T) {
	conf := config.Default()
	conf.ReportDir = t.TempDir()

	var stdout, stderr bytes.Buffer
	status := run("testdata/nonexistent.osm", "testdata/stops.csv", filepath.Join(conf.ReportDir, "out.osm"), conf, &stdout, &stderr)

	assert.Equal(t, 1, status)
	assert.Contains(t, stderr.String(), "Error while parsing OSM file")
	assert.NoFileExists(t, filepath.Join(conf.ReportDir, "out.osm"))
}

func TestRunMissingRegistry(t *testing.T) {
	dir := t.TempDir()
	conf := config.Default()
	conf.ReportDir = dir

	out := filepath.Join(dir, "out.osm")

	var stdout, stderr bytes.Buffer
	status := run("testdata/input.osm", "testdata/nonexistent.csv", out, conf, &stdout, &stderr)

	assert.Equal(t, 0, status)
	assert.Contains(t, stderr.String(), "Error while reading registry stops")
	assert.Contains(t, stdout.String(), "matched: 0\n")
	assert.FileExists(t, out)
}

func TestRunBadProjection(t *testing.T) {
	conf := config.Default()
	conf.ReportDir = t.TempDir()
	conf.Projection = "EPSG:4326"

	var stdout, stderr bytes.Buffer
	assert.Equal(t, 1, run("testdata/input.osm", "testdata/stops.csv", filepath.Join(conf.ReportDir, "out.osm"), conf, &stdout, &stderr))
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger(&buf, "warn")

	log.Info().Msg("hidden")
	log.Warn().Str("ref", "H1234").Msg("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
	assert.Contains(t, buf.String(), "ref=H1234")
	assert.Equal(t, zerolog.WarnLevel, log.GetLevel())

	assert.Equal(t, zerolog.InfoLevel, newLogger(&buf, "nonsense").GetLevel())
}
