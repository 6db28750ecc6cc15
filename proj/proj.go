// Copyright 2016 Patrick Brosi
// Authors: info@patrickbrosi.de
//
// Use of this source code is governed by a GPL v2
// license that can be found in the LICENSE file

// Package proj projects WGS84 coordinates to planar coordinate systems
// measured in meters.
package proj

import (
	"fmt"
	"math"
	"strings"
)

// Coord is a WGS84 position in degrees.
type Coord struct {
	Long float64
	Lat  float64
}

// Func projects a WGS84 position to planar x/y coordinates in meters.
type Func func(long, lat float64) (x, y float64)

const (
	// ETRS-TM35FIN, the conventional planar system in Finland
	EPSG3067 = "EPSG:3067"
	// Web Mercator
	EPSG3857 = "EPSG:3857"
)

const pole = 6378137 * math.Pi // 20037508.342789244

// GRS80
const (
	grs80A = 6378137.0
	grs80F = 1 / 298.257222101
)

const (
	tm35LongOrigin    = 27.0
	tm35Scale         = 0.9996
	tm35FalseEasting  = 500000.0
	tm35FalseNorthing = 0.0
)

// Projection is a named planar projection. Scale, if set, returns the
// point scale factor at a latitude, for projections whose lengths are not
// true to ground distance.
type Projection struct {
	Name    string
	Project Func
	Scale   func(lat float64) float64
}

var (
	TM35FIN = Projection{Name: EPSG3067, Project: WgsToTM35FIN}
	Merc    = Projection{Name: EPSG3857, Project: WgsToMerc, Scale: MercScale}
)

var projections = []Projection{TM35FIN, Merc}

// ScaleAt returns the point scale factor of p at lat, 1 if p has none
func (p Projection) ScaleAt(lat float64) float64 {
	if p.Scale == nil {
		return 1
	}
	return p.Scale(lat)
}

// Names returns the EPSG codes accepted by ByName
func Names() []string {
	ret := make([]string, len(projections))
	for i, p := range projections {
		ret[i] = p.Name
	}
	return ret
}

// ByName returns the projection registered under an EPSG code.
func ByName(name string) (Projection, error) {
	name = strings.ToUpper(strings.TrimSpace(name))
	for _, p := range projections {
		if p.Name == name {
			return p, nil
		}
	}
	return Projection{}, fmt.Errorf("unsupported projection '%s', expected one of %s", name, strings.Join(Names(), ", "))
}

func WgsToMerc(long, lat float64) (x, y float64) {
	x = long * pole / 180.0
	y = math.Log(math.Tan((90.0+lat)*math.Pi/360.0)) / math.Pi * pole
	return x, y
}

// MercScale is the point scale factor of Web Mercator, lengths at lat are
// stretched by 1/cos(lat)
func MercScale(lat float64) float64 {
	return 1 / math.Cos(lat*math.Pi/180.0)
}

// WgsToTM35FIN projects to ETRS-TM35FIN using the Krüger series of the
// transverse Mercator projection on the GRS80 ellipsoid.
func WgsToTM35FIN(long, lat float64) (x, y float64) {
	return transverseMerc(long, lat, tm35LongOrigin, tm35Scale, tm35FalseEasting, tm35FalseNorthing)
}

func transverseMerc(long, lat, long0, k0, falseE, falseN float64) (x, y float64) {
	n := grs80F / (2 - grs80F)
	n2 := n * n
	n3 := n2 * n
	n4 := n3 * n
	e := math.Sqrt(grs80F * (2 - grs80F))

	a1 := grs80A / (1 + n) * (1 + n2/4 + n4/64)

	h := [4]float64{
		n/2 - 2*n2/3 + 5*n3/16 + 41*n4/180,
		13*n2/48 - 3*n3/5 + 557*n4/1440,
		61*n3/240 - 103*n4/140,
		49561 * n4 / 161280,
	}

	phi := lat * math.Pi / 180
	lambda := (long - long0) * math.Pi / 180

	// conformal latitude
	q := math.Asinh(math.Tan(phi)) - e*math.Atanh(e*math.Sin(phi))
	tauC := math.Sinh(q)

	xi0 := math.Atan2(tauC, math.Cos(lambda))
	eta0 := math.Asinh(math.Sin(lambda) / math.Hypot(tauC, math.Cos(lambda)))

	xi := xi0
	eta := eta0
	for i, hi := range h {
		j := float64(2 * (i + 1))
		xi += hi * math.Sin(j*xi0) * math.Cosh(j*eta0)
		eta += hi * math.Cos(j*xi0) * math.Sinh(j*eta0)
	}

	return falseE + k0*a1*eta, falseN + k0*a1*xi
}
