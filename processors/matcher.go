// Copyright 2016 Patrick Brosi
// Authors: info@patrickbrosi.de
//
// Use of this source code is governed by a GPL v2
// license that can be found in the LICENSE file

package processors

import (
	"strings"

	"github.com/patrickbr/stoptagger/registry"
)

// KeyRule derives a candidate registry key from an OSM ref value
type KeyRule struct {
	Name string

	// Key returns the registry key to look up, false if the rule
	// does not apply to ref
	Key func(ref string) (string, bool)

	// Accept, if set, must hold for the found stop
	Accept func(s *registry.Stop) bool
}

// ExactRule matches the ref verbatim
var ExactRule = KeyRule{
	Name: "exact",
	Key: func(ref string) (string, bool) {
		return ref, true
	},
}

// CapitalRule matches refs missing the capital municipality prefix
var CapitalRule = KeyRule{
	Name: "capital",
	Key: func(ref string) (string, bool) {
		return registry.CapitalPrefix + ref, true
	},
	Accept: (*registry.Stop).IsCapital,
}

// VirtualRule matches virtual stop refs "X..." against registry keys "XH..."
var VirtualRule = KeyRule{
	Name: "virtual",
	Key: func(ref string) (string, bool) {
		if !strings.HasPrefix(ref, registry.VirtualPrefix) || strings.HasPrefix(ref, registry.CapitalVirtualPrefix) {
			return "", false
		}
		return registry.CapitalVirtualPrefix + ref[len(registry.VirtualPrefix):], true
	},
}

// DefaultRules returns the key rules in lookup order
func DefaultRules() []KeyRule {
	return []KeyRule{ExactRule, CapitalRule, VirtualRule}
}

// Matcher finds the registry stop for an OSM ref by trying its rules in
// order against one index
type Matcher struct {
	Index *registry.Index
	Rules []KeyRule
}

// NewMatcher returns a Matcher using the default rules
func NewMatcher(idx *registry.Index) *Matcher {
	return &Matcher{Index: idx, Rules: DefaultRules()}
}

// Match returns the first importable stop found by a rule, and that rule
func (m *Matcher) Match(ref string) (*registry.Stop, KeyRule, bool) {
	if len(ref) == 0 {
		return nil, KeyRule{}, false
	}

	for _, rule := range m.Rules {
		key, ok := rule.Key(ref)
		if !ok {
			continue
		}

		s, ok := m.Index.Get(key)
		if !ok || !s.Importable() {
			continue
		}

		if rule.Accept != nil && !rule.Accept(s) {
			continue
		}

		return s, rule, true
	}

	return nil, KeyRule{}, false
}
