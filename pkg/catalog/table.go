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

package catalog

import (
	"fmt"

	"github.com/pkg/errors"
)

// TableIdentifier keys a logical table by name and grain, since the same
// table name may be served at several granularities.
type TableIdentifier struct {
	Name  string
	Grain string
}

func (id TableIdentifier) String() string {
	return fmt.Sprintf("%s@%s", id.Name, id.Grain)
}

// LogicalTable is a named, granularity-specific query target describing the
// dimensions and metrics valid for it.
type LogicalTable struct {
	dimensions *DimensionSet
	metrics    *MetricSet
	id         TableIdentifier
}

// NewLogicalTable builds a table over its valid dimensions and metrics.
func NewLogicalTable(id TableIdentifier, dimensions *DimensionSet, metrics *MetricSet) *LogicalTable {
	if dimensions == nil {
		dimensions = NewDimensionSet()
	}
	if metrics == nil {
		metrics = NewMetricSet()
	}
	return &LogicalTable{id: id, dimensions: dimensions, metrics: metrics}
}

// Name returns the table name.
func (t *LogicalTable) Name() string { return t.id.Name }

// Grain returns the grain name the table is served at.
func (t *LogicalTable) Grain() string { return t.id.Grain }

// Identifier returns the (name, grain) key.
func (t *LogicalTable) Identifier() TableIdentifier { return t.id }

// Dimensions returns the table's valid dimension set.
func (t *LogicalTable) Dimensions() *DimensionSet { return t.dimensions }

// Metrics returns the table's valid metric set.
func (t *LogicalTable) Metrics() *MetricSet { return t.metrics }

// TableDictionary maps (name, grain) identifiers onto logical tables.
type TableDictionary struct {
	index map[TableIdentifier]*LogicalTable
	order []TableIdentifier
}

// NewTableDictionary returns an empty dictionary.
func NewTableDictionary() *TableDictionary {
	return &TableDictionary{index: make(map[TableIdentifier]*LogicalTable)}
}

// Add registers a table under its identifier.
func (d *TableDictionary) Add(t *LogicalTable) error {
	if _, ok := d.index[t.Identifier()]; ok {
		return errors.Wrapf(ErrDuplicateEntry, "table %s", t.Identifier())
	}
	d.index[t.Identifier()] = t
	d.order = append(d.order, t.Identifier())
	return nil
}

// Get looks a table up by identifier.
func (d *TableDictionary) Get(id TableIdentifier) (*LogicalTable, bool) {
	t, ok := d.index[id]
	return t, ok
}

// Identifiers returns the registered identifiers in registration order.
func (d *TableDictionary) Identifiers() []TableIdentifier {
	return append([]TableIdentifier(nil), d.order...)
}

// Names returns the registered identifiers rendered as "name@grain" strings,
// in registration order.
func (d *TableDictionary) Names() []string {
	names := make([]string, 0, len(d.order))
	for _, id := range d.order {
		names = append(names, id.String())
	}
	return names
}

// DimensionSet is a unique, insertion-ordered set of dimensions.
type DimensionSet struct {
	index map[string]*Dimension
	list  []*Dimension
}

// NewDimensionSet returns a set holding the given dimensions.
func NewDimensionSet(dimensions ...*Dimension) *DimensionSet {
	s := &DimensionSet{index: make(map[string]*Dimension)}
	for _, d := range dimensions {
		s.Add(d)
	}
	return s
}

// Add inserts a dimension, collapsing duplicates to the first occurrence.
func (s *DimensionSet) Add(d *Dimension) {
	if _, ok := s.index[d.Name()]; ok {
		return
	}
	s.index[d.Name()] = d
	s.list = append(s.list, d)
}

// Contains reports whether a dimension with the given name is in the set.
func (s *DimensionSet) Contains(name string) bool {
	_, ok := s.index[name]
	return ok
}

// FindByName looks a dimension up by name.
func (s *DimensionSet) FindByName(name string) (*Dimension, bool) {
	d, ok := s.index[name]
	return d, ok
}

// List returns the dimensions in insertion order.
func (s *DimensionSet) List() []*Dimension {
	return append([]*Dimension(nil), s.list...)
}

// Names returns the dimension names in insertion order.
func (s *DimensionSet) Names() []string {
	names := make([]string, 0, len(s.list))
	for _, d := range s.list {
		names = append(names, d.Name())
	}
	return names
}

// Len returns the number of dimensions in the set.
func (s *DimensionSet) Len() int { return len(s.list) }

// Catalogs bundles the dictionaries a compiler instance resolves against.
type Catalogs struct {
	Dimensions *DimensionDictionary
	Metrics    *MetricDictionary
	Tables     *TableDictionary
}
