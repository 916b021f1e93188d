// Copyright (c) scoreboard-hub contributors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package statcrew parses StatCrew XML game-state exports and watches the
// files that carry them, enriching snapshots the way the wire protocol
// decoders in internal/protocol do for the byte feeds.
package statcrew

import (
	"encoding/xml"
	"io"
	"strings"
)

// node is a generic XML element, the Go analogue of Python's
// xml.etree.ElementTree.Element: a tag, its attributes, direct text, and
// its children. The parser below walks this tree the same way the
// original StatCrew parser walks an ElementTree.
type node struct {
	tag      string
	attrs    map[string]string
	text     string
	children []*node
}

func (n *node) attr(name string) string {
	if n == nil {
		return ""
	}
	return n.attrs[name]
}

// find returns the first descendant (depth-first, including n itself)
// whose tag matches name case-insensitively.
func (n *node) find(name string) *node {
	if n == nil {
		return nil
	}
	lower := strings.ToLower(name)
	if strings.ToLower(n.tag) == lower {
		return n
	}
	for _, c := range n.children {
		if found := c.find(name); found != nil {
			return found
		}
	}
	return nil
}

// findAll returns every descendant (not including n) whose tag matches
// name case-insensitively, in document order.
func (n *node) findAll(name string) []*node {
	if n == nil {
		return nil
	}
	var out []*node
	lower := strings.ToLower(name)
	var walk func(*node)
	walk = func(cur *node) {
		for _, c := range cur.children {
			if strings.ToLower(c.tag) == lower {
				out = append(out, c)
			}
			walk(c)
		}
	}
	walk(n)
	return out
}

// directChild returns the first immediate child matching name, or nil.
func (n *node) directChild(name string) *node {
	if n == nil {
		return nil
	}
	lower := strings.ToLower(name)
	for _, c := range n.children {
		if strings.ToLower(c.tag) == lower {
			return c
		}
	}
	return nil
}

// attrMap copies n's attributes into a plain map[string]string, the
// equivalent of Python's dict(element.attrib).
func (n *node) attrMap() map[string]string {
	if n == nil {
		return map[string]string{}
	}
	out := make(map[string]string, len(n.attrs))
	for k, v := range n.attrs {
		out[k] = v
	}
	return out
}

// parseTree decodes xmlText into a node tree, or returns (nil, err) on any
// malformed input.
func parseTree(xmlText string) (*node, error) {
	dec := xml.NewDecoder(strings.NewReader(xmlText))
	var stack []*node
	var root *node

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			n := &node{tag: t.Name.Local, attrs: make(map[string]string, len(t.Attr))}
			for _, a := range t.Attr {
				n.attrs[a.Name.Local] = a.Value
			}
			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				parent.children = append(parent.children, n)
			} else {
				root = n
			}
			stack = append(stack, n)

		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].text += string(t)
			}

		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		}
	}

	return root, nil
}
