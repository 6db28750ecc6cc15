// Copyright 2016 Patrick Brosi
// Authors: info@patrickbrosi.de
//
// Use of this source code is governed by a GPL v2
// license that can be found in the LICENSE file

package processors

import (
	"math"

	"github.com/patrickbr/stoptagger/proj"
)

// Calculate the distance between two points (x1, y1) and (x2, y2)
func dist(x1 float64, y1 float64, x2 float64, y2 float64) float64 {
	return math.Sqrt(float64((x2-x1)*(x2-x1) + (y2-y1)*(y2-y1)))
}

// Calculate the ground distance in meter between two WGS84 positions from
// their distance in the planar projection p, corrected by the point scale
// factor at the mean latitude
func projectedDist(p proj.Projection, a, b proj.Coord) float64 {
	ax, ay := p.Project(a.Long, a.Lat)
	bx, by := p.Project(b.Long, b.Lat)
	return dist(ax, ay, bx, by) / p.ScaleAt((a.Lat+b.Lat)/2)
}
