// Licensed to Apache Software Foundation (ASF) under one or more contributor
// license agreements. See the NOTICE file distributed with
// this work for additional information regarding copyright
// ownership. Apache Software Foundation (ASF) licenses this file to you under
// the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing,
// software distributed under the License is distributed on an
// "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
// KIND, either express or implied.  See the License for the
// specific language governing permissions and limitations
// under the License.

// Package physical models the backend predicate trees the downstream query
// builder consumes, and the strategy turning parsed filters into them.
package physical

import (
	"fmt"
	"strings"
)

// PredicateOp is a node kind in a backend filter predicate tree.
type PredicateOp string

// Predicate node kinds. Select matches a field against listed values;
// Search matches a field by substring or prefix.
const (
	PredicateAnd    PredicateOp = "and"
	PredicateOr     PredicateOp = "or"
	PredicateNot    PredicateOp = "not"
	PredicateSelect PredicateOp = "select"
	PredicateSearch PredicateOp = "search"
)

// SearchKind distinguishes the partial-text match styles.
type SearchKind string

// The partial-text match styles.
const (
	SearchPrefix    SearchKind = "prefix"
	SearchSubstring SearchKind = "substring"
)

// Predicate is one node of a backend filter tree. Leaf kinds carry
// Dimension/Field/Values; combinators carry Children.
type Predicate struct {
	Op        PredicateOp
	Dimension string
	Field     string
	Search    SearchKind
	Values    []string
	Children  []*Predicate
}

// Select builds a leaf matching a dimension field against the values.
func Select(dimension, field string, values ...string) *Predicate {
	return &Predicate{Op: PredicateSelect, Dimension: dimension, Field: field, Values: values}
}

// Search builds a partial-text leaf.
func Search(dimension, field string, kind SearchKind, values ...string) *Predicate {
	return &Predicate{Op: PredicateSearch, Dimension: dimension, Field: field, Search: kind, Values: values}
}

// Not negates a predicate.
func Not(p *Predicate) *Predicate {
	if p == nil {
		return nil
	}
	return &Predicate{Op: PredicateNot, Children: []*Predicate{p}}
}

// And combines predicates conjunctively, flattening degenerate cases.
func And(children ...*Predicate) *Predicate {
	return combine(PredicateAnd, children)
}

// Or combines predicates disjunctively, flattening degenerate cases.
func Or(children ...*Predicate) *Predicate {
	return combine(PredicateOr, children)
}

func combine(op PredicateOp, children []*Predicate) *Predicate {
	kept := children[:0:0]
	for _, c := range children {
		if c != nil {
			kept = append(kept, c)
		}
	}
	switch len(kept) {
	case 0:
		return nil
	case 1:
		return kept[0]
	default:
		return &Predicate{Op: op, Children: kept}
	}
}

// String renders the tree for logs and tests.
func (p *Predicate) String() string {
	if p == nil {
		return "<none>"
	}
	switch p.Op {
	case PredicateSelect:
		return fmt.Sprintf("%s.%s in [%s]", p.Dimension, p.Field, strings.Join(p.Values, ","))
	case PredicateSearch:
		return fmt.Sprintf("%s.%s %s [%s]", p.Dimension, p.Field, p.Search, strings.Join(p.Values, ","))
	case PredicateNot:
		return fmt.Sprintf("not(%s)", p.Children[0])
	default:
		parts := make([]string, 0, len(p.Children))
		for _, c := range p.Children {
			parts = append(parts, c.String())
		}
		return fmt.Sprintf("%s(%s)", p.Op, strings.Join(parts, ", "))
	}
}
