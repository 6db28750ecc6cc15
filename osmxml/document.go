// Copyright 2016 Patrick Brosi
// Authors: info@patrickbrosi.de
//
// Use of this source code is governed by a GPL v2
// license that can be found in the LICENSE file

// Package osmxml reads and writes OSM XML files (as produced by JOSM or
// the OSM API) as a generic element tree, so that everything not touched
// by the tagger is written back unchanged.
package osmxml

import (
	"bufio"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
)

const defaultEncoding = "UTF-8"

// Node is a generic XML element. Comments and directives are kept as
// nodes without Name.
type Node struct {
	Name      string
	Attr      []xml.Attr
	Children  []*Node
	Text      string
	Comment   string
	Directive string
}

// Document is a parsed OSM XML file
type Document struct {
	Root *Node

	// comments and directives before and after the root element
	Prolog []*Node
	Epilog []*Node

	// Encoding declared in the XML header, used again on output
	Encoding string
}

// ParseFile parses the OSM XML file at path
func ParseFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening osm file")
	}
	defer f.Close()

	doc, err := Parse(bufio.NewReader(f))
	if err != nil {
		return nil, errors.Wrapf(err, "reading '%s'", path)
	}
	return doc, nil
}

// Parse parses an OSM XML document from r
func Parse(r io.Reader) (*Document, error) {
	doc := &Document{Encoding: defaultEncoding}

	dec := xml.NewDecoder(r)
	dec.CharsetReader = charsetReader

	stack := make([]*Node, 0, 4)

	// prefixes are kept as written, so raw tokens are used and element
	// nesting is checked here
	misc := func(n *Node) {
		switch {
		case len(stack) > 0:
			parent := stack[len(stack)-1]
			parent.Children = append(parent.Children, n)
		case doc.Root == nil:
			doc.Prolog = append(doc.Prolog, n)
		default:
			doc.Epilog = append(doc.Epilog, n)
		}
	}

	for {
		tok, err := dec.RawToken()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "parsing osm xml")
		}

		switch t := tok.(type) {
		case xml.ProcInst:
			if t.Target == "xml" {
				if enc := declaredEncoding(string(t.Inst)); len(enc) > 0 {
					doc.Encoding = enc
				}
			}
		case xml.StartElement:
			n := &Node{Name: qualifiedName(t.Name), Attr: make([]xml.Attr, len(t.Attr))}
			copy(n.Attr, t.Attr)

			if len(stack) == 0 {
				if doc.Root != nil {
					return nil, fmt.Errorf("more than one root element (<%s>, <%s>)", doc.Root.Name, n.Name)
				}
				doc.Root = n
			} else {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, n)
			}
			stack = append(stack, n)
		case xml.EndElement:
			name := qualifiedName(t.Name)
			if len(stack) == 0 || stack[len(stack)-1].Name != name {
				line, _ := dec.InputPos()
				return nil, fmt.Errorf("unexpected end element </%s> in line %d", name, line)
			}
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) > 0 && len(strings.TrimSpace(string(t))) > 0 {
				stack[len(stack)-1].Text += string(t)
			}
		case xml.Comment:
			misc(&Node{Comment: string(t)})
		case xml.Directive:
			misc(&Node{Directive: string(t)})
		}
	}

	if len(stack) > 0 {
		return nil, fmt.Errorf("unexpected end of file, <%s> is not closed", stack[len(stack)-1].Name)
	}

	if doc.Root == nil {
		return nil, errors.New("document has no root element")
	}

	return doc, nil
}

// Elements returns the top level nodes, ways and relations in document order
func (doc *Document) Elements() []*Element {
	ret := make([]*Element, 0, len(doc.Root.Children))
	for _, c := range doc.Root.Children {
		if _, ok := kinds[c.Name]; ok {
			ret = append(ret, &Element{node: c})
		}
	}
	return ret
}

// WriteFile writes the document to path
func (doc *Document) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "creating osm file")
	}

	if err := doc.Write(f); err != nil {
		f.Close()
		return errors.Wrapf(err, "writing '%s'", path)
	}

	return errors.Wrapf(f.Close(), "closing '%s'", path)
}

// Write writes the document to w in its declared encoding
func (doc *Document) Write(w io.Writer) error {
	enc, err := lookupEncoding(doc.Encoding)
	if err != nil {
		return err
	}

	var closer io.Closer
	if enc != nil {
		tw := encoding.HTMLEscapeUnsupported(enc.NewEncoder()).Writer(w)
		if c, ok := tw.(io.Closer); ok {
			closer = c
		}
		w = tw
	}

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "<?xml version='1.0' encoding='%s'?>\n", doc.Encoding)
	for _, n := range doc.Prolog {
		writeNode(bw, n, 0)
	}
	writeNode(bw, doc.Root, 0)
	for _, n := range doc.Epilog {
		writeNode(bw, n, 0)
	}

	if err := bw.Flush(); err != nil {
		return err
	}

	if closer != nil {
		return closer.Close()
	}
	return nil
}

func writeNode(w *bufio.Writer, n *Node, depth int) {
	w.WriteString(strings.Repeat("  ", depth))

	if len(n.Name) == 0 {
		if len(n.Directive) > 0 {
			w.WriteString("<!" + n.Directive + ">\n")
		} else {
			w.WriteString("<!--" + n.Comment + "-->\n")
		}
		return
	}
	w.WriteByte('<')
	w.WriteString(n.Name)
	for _, a := range n.Attr {
		w.WriteByte(' ')
		if len(a.Name.Space) > 0 {
			w.WriteString(a.Name.Space)
			w.WriteByte(':')
		}
		w.WriteString(a.Name.Local)
		w.WriteString("=\"")
		xml.EscapeText(w, []byte(a.Value))
		w.WriteByte('"')
	}

	if len(n.Children) == 0 && len(n.Text) == 0 {
		w.WriteString(" />\n")
		return
	}

	w.WriteByte('>')

	if len(n.Children) == 0 {
		xml.EscapeText(w, []byte(n.Text))
	} else {
		w.WriteByte('\n')
		if len(n.Text) > 0 {
			w.WriteString(strings.Repeat("  ", depth+1))
			xml.EscapeText(w, []byte(strings.TrimSpace(n.Text)))
			w.WriteByte('\n')
		}
		for _, c := range n.Children {
			writeNode(w, c, depth+1)
		}
		w.WriteString(strings.Repeat("  ", depth))
	}

	w.WriteString("</")
	w.WriteString(n.Name)
	w.WriteString(">\n")
}

func qualifiedName(n xml.Name) string {
	if len(n.Space) == 0 {
		return n.Local
	}
	return n.Space + ":" + n.Local
}

// declaredEncoding extracts the encoding pseudo-attribute of an XML declaration
func declaredEncoding(inst string) string {
	i := strings.Index(inst, "encoding")
	if i < 0 {
		return ""
	}
	rest := strings.TrimLeft(inst[i+len("encoding"):], " \t")
	if !strings.HasPrefix(rest, "=") {
		return ""
	}
	rest = strings.TrimLeft(rest[1:], " \t")
	if len(rest) == 0 || (rest[0] != '\'' && rest[0] != '"') {
		return ""
	}
	end := strings.IndexByte(rest[1:], rest[0])
	if end < 0 {
		return ""
	}
	return rest[1 : end+1]
}

// lookupEncoding returns nil for UTF-8, which needs no conversion
func lookupEncoding(label string) (encoding.Encoding, error) {
	if len(label) == 0 || strings.EqualFold(label, "utf-8") || strings.EqualFold(label, "utf8") {
		return nil, nil
	}
	enc, err := ianaindex.IANA.Encoding(label)
	if err != nil {
		return nil, errors.Wrapf(err, "unknown encoding '%s'", label)
	}
	if enc == nil {
		return nil, errors.Errorf("unsupported encoding '%s'", label)
	}
	return enc, nil
}

func charsetReader(label string, input io.Reader) (io.Reader, error) {
	enc, err := lookupEncoding(label)
	if err != nil {
		return nil, err
	}
	if enc == nil {
		return input, nil
	}
	return enc.NewDecoder().Reader(input), nil
}
