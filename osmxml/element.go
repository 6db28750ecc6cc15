// Copyright 2016 Patrick Brosi
// Authors: info@patrickbrosi.de
//
// Use of this source code is governed by a GPL v2
// license that can be found in the LICENSE file

package osmxml

import (
	"encoding/xml"
	"strconv"

	osm "github.com/omniscale/go-osm"
	"github.com/patrickbr/stoptagger/proj"
)

const (
	tagElement   = "tag"
	actionAttr   = "action"
	actionMod    = "modify"
	actionDel    = "delete"
	keyAttr      = "k"
	valueAttr    = "v"
	idAttr       = "id"
	latAttr      = "lat"
	lonAttr      = "lon"
	nodeName     = "node"
	wayName      = "way"
	relationName = "relation"
)

var kinds = map[string]osm.MemberType{
	nodeName:     osm.NodeMember,
	wayName:      osm.WayMember,
	relationName: osm.RelationMember,
}

// Element is a top level node, way or relation of a Document. All tag
// mutations mark the element as modified.
type Element struct {
	node *Node
}

// Kind returns whether e is a node, way or relation
func (e *Element) Kind() osm.MemberType {
	return kinds[e.node.Name]
}

// KindName returns the XML element name, "node", "way" or "relation"
func (e *Element) KindName() string {
	return e.node.Name
}

// ID returns the OSM id, 0 if missing or invalid
func (e *Element) ID() int64 {
	id, err := strconv.ParseInt(e.attr(idAttr), 10, 64)
	if err != nil {
		return 0
	}
	return id
}

// Locator identifies e in reports, e.g. "node/123"
func (e *Element) Locator() string {
	return e.node.Name + "/" + e.attr(idAttr)
}

// Tags returns a snapshot of the element's tags
func (e *Element) Tags() osm.Tags {
	tags := make(osm.Tags)
	for _, c := range e.node.Children {
		if c.Name == tagElement {
			tags[getAttr(c, keyAttr)] = getAttr(c, valueAttr)
		}
	}
	return tags
}

// Tag returns the value of the tag with key k
func (e *Element) Tag(k string) (string, bool) {
	for _, c := range e.node.Children {
		if c.Name == tagElement && getAttr(c, keyAttr) == k {
			return getAttr(c, valueAttr), true
		}
	}
	return "", false
}

// Coord returns the WGS84 position of a node. It fails for ways,
// relations and nodes without valid coordinates.
func (e *Element) Coord() (proj.Coord, bool) {
	if e.Kind() != osm.NodeMember {
		return proj.Coord{}, false
	}

	lat, err := strconv.ParseFloat(e.attr(latAttr), 64)
	if err != nil {
		return proj.Coord{}, false
	}
	long, err := strconv.ParseFloat(e.attr(lonAttr), 64)
	if err != nil {
		return proj.Coord{}, false
	}

	return proj.Coord{Long: long, Lat: lat}, true
}

// CreateTag appends a new tag k=v
func (e *Element) CreateTag(k, v string) {
	e.MarkModified()
	e.node.Children = append(e.node.Children, &Node{
		Name: tagElement,
		Attr: []xml.Attr{
			{Name: xml.Name{Local: keyAttr}, Value: k},
			{Name: xml.Name{Local: valueAttr}, Value: v},
		},
	})
}

// UpdateTag sets the value of all existing tags with key k and reports
// whether any tag was found
func (e *Element) UpdateTag(k, v string) bool {
	found := false
	for _, c := range e.node.Children {
		if c.Name == tagElement && getAttr(c, keyAttr) == k {
			setAttr(c, valueAttr, v)
			found = true
		}
	}
	if found {
		e.MarkModified()
	}
	return found
}

// MarkModified sets the JOSM action marker
func (e *Element) MarkModified() {
	setAttr(e.node, actionAttr, actionMod)
}

// Modified reports whether e carries the modify marker
func (e *Element) Modified() bool {
	return e.attr(actionAttr) == actionMod
}

// Deleted reports whether e is marked for deletion
func (e *Element) Deleted() bool {
	return e.attr(actionAttr) == actionDel
}

func (e *Element) attr(name string) string {
	return getAttr(e.node, name)
}

func getAttr(n *Node, name string) string {
	for _, a := range n.Attr {
		if a.Name.Space == "" && a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

func setAttr(n *Node, name, value string) {
	for i, a := range n.Attr {
		if a.Name.Space == "" && a.Name.Local == name {
			n.Attr[i].Value = value
			return
		}
	}
	n.Attr = append(n.Attr, xml.Attr{Name: xml.Name{Local: name}, Value: value})
}
