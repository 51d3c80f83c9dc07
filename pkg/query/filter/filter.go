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

package filter

import (
	"fmt"
	"strings"

	"github.com/metronomedb/metronome/pkg/catalog"
	"github.com/metronomedb/metronome/pkg/query"
)

// Filter is one resolved filter clause: a comparison of a dimension field
// against a non-empty ordered value list.
type Filter struct {
	Dimension *catalog.Dimension
	Field     string
	Operation Operation
	Values    []string
}

// String re-serializes the clause in canonical grammar form.
func (f *Filter) String() string {
	return fmt.Sprintf("%s|%s-%s[%s]",
		f.Dimension.Name(), f.Field, f.Operation, strings.Join(f.Values, ","))
}

// Filters maps each filtered dimension onto its filter clauses, preserving
// the order dimensions and clauses first appear in the query.
type Filters struct {
	byName map[string][]*Filter
	dims   []*catalog.Dimension
}

// NewFilters returns an empty filter set.
func NewFilters() *Filters {
	return &Filters{byName: make(map[string][]*Filter)}
}

func (fs *Filters) add(f *Filter) {
	name := f.Dimension.Name()
	if _, ok := fs.byName[name]; !ok {
		fs.dims = append(fs.dims, f.Dimension)
	}
	fs.byName[name] = append(fs.byName[name], f)
}

// Dimensions returns the filtered dimensions in first-appearance order.
func (fs *Filters) Dimensions() []*catalog.Dimension {
	return append([]*catalog.Dimension(nil), fs.dims...)
}

// On returns the clauses filtering the named dimension.
func (fs *Filters) On(dimension string) []*Filter {
	return fs.byName[dimension]
}

// All returns every clause in first-appearance order.
func (fs *Filters) All() []*Filter {
	var out []*Filter
	for _, d := range fs.dims {
		out = append(out, fs.byName[d.Name()]...)
	}
	return out
}

// Len returns the number of clauses.
func (fs *Filters) Len() int {
	n := 0
	for _, clauses := range fs.byName {
		n += len(clauses)
	}
	return n
}

// String re-serializes the whole set in canonical grammar form.
func (fs *Filters) String() string {
	parts := make([]string, 0, fs.Len())
	for _, f := range fs.All() {
		parts = append(parts, f.String())
	}
	return strings.Join(parts, ",")
}

// Parse parses a filter query and resolves each clause against the
// dimension dictionary. The empty query yields an empty set. Whether the
// filtered dimensions belong to the resolved table is validated later by
// the assembler, once the table is known.
func Parse(filterQuery string, dimensions *catalog.DimensionDictionary, flags query.FeatureFlags) (*Filters, error) {
	out := NewFilters()
	if strings.TrimSpace(filterQuery) == "" {
		return out, nil
	}
	parsed, err := filterParser.ParseString("", filterQuery)
	if err != nil {
		return nil, query.Badf("filters", filterQuery, "invalid filter syntax: %s", err)
	}
	for _, clause := range parsed.Clauses {
		f, err := bindClause(clause, dimensions, flags)
		if err != nil {
			return nil, err
		}
		out.add(f)
	}
	return out, nil
}

func bindClause(clause *clauseGrammar, dimensions *catalog.DimensionDictionary, flags query.FeatureFlags) (*Filter, error) {
	dim, ok := dimensions.FindByName(clause.Dimension)
	if !ok {
		return nil, query.Badf("filters", clause.Dimension, "unknown dimension").
			WithAlternatives(dimensions.Names()...)
	}
	if _, ok := dim.Field(clause.Field); !ok {
		return nil, query.Badf("filters", clause.Field,
			"dimension %s has no field %s", dim.Name(), clause.Field).
			WithAlternatives(dim.FieldNames()...)
	}
	op, err := ParseOperation(clause.Operation, flags)
	if err != nil {
		return nil, err
	}
	values := make([]string, 0, len(clause.Values))
	for _, v := range clause.Values {
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return nil, query.Badf("filters", clause.Dimension, "empty filter value")
		}
		values = append(values, trimmed)
	}
	if len(values) == 0 {
		return nil, query.Badf("filters", clause.Dimension, "filter requires at least one value")
	}
	return &Filter{Dimension: dim, Field: clause.Field, Operation: op, Values: values}, nil
}
