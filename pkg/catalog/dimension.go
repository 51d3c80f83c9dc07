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

// Package catalog provides the read-only dictionaries the request compiler
// resolves names against: dimensions, table-scoped logical metrics and
// (name, grain) logical tables. Dictionaries are populated once before
// request processing starts and are safe for concurrent reads afterwards.
package catalog

import (
	"github.com/pkg/errors"
)

// ErrDuplicateEntry is raised when a dictionary is populated with a name it
// already holds.
var ErrDuplicateEntry = errors.New("catalog: duplicate entry")

// Field is a single addressable attribute of a dimension.
type Field struct {
	Name        string
	Description string
}

// DimensionSpec describes a dimension to register.
type DimensionSpec struct {
	Name          string
	Fields        []Field
	DefaultFields []string
	Aggregatable  bool
}

// Dimension is a categorical grouping and filtering attribute exposing one
// or more fields.
type Dimension struct {
	fieldIndex    map[string]Field
	name          string
	fields        []Field
	defaultFields []Field
	aggregatable  bool
}

// NewDimension builds a Dimension from its spec. Default fields must be a
// subset of the declared fields; when no default is declared, all fields are
// the default projection.
func NewDimension(spec DimensionSpec) (*Dimension, error) {
	d := &Dimension{
		name:         spec.Name,
		fields:       append([]Field(nil), spec.Fields...),
		fieldIndex:   make(map[string]Field, len(spec.Fields)),
		aggregatable: spec.Aggregatable,
	}
	for _, f := range spec.Fields {
		if _, ok := d.fieldIndex[f.Name]; ok {
			return nil, errors.Wrapf(ErrDuplicateEntry, "field %s of dimension %s", f.Name, spec.Name)
		}
		d.fieldIndex[f.Name] = f
	}
	if len(spec.DefaultFields) == 0 {
		d.defaultFields = d.fields
		return d, nil
	}
	for _, name := range spec.DefaultFields {
		f, ok := d.fieldIndex[name]
		if !ok {
			return nil, errors.Errorf("catalog: default field %s is not a field of dimension %s", name, spec.Name)
		}
		d.defaultFields = append(d.defaultFields, f)
	}
	return d, nil
}

// Name returns the dimension name.
func (d *Dimension) Name() string { return d.name }

// Fields returns the declared fields in registration order.
func (d *Dimension) Fields() []Field { return d.fields }

// DefaultFields returns the projection used when a request does not select
// fields explicitly.
func (d *Dimension) DefaultFields() []Field { return d.defaultFields }

// Field looks a field up by name.
func (d *Dimension) Field(name string) (Field, bool) {
	f, ok := d.fieldIndex[name]
	return f, ok
}

// FieldNames returns the declared field names in registration order.
func (d *Dimension) FieldNames() []string {
	names := make([]string, 0, len(d.fields))
	for _, f := range d.fields {
		names = append(names, f.Name)
	}
	return names
}

// Aggregatable reports whether rows can be aggregated across this dimension
// when it is filtered on but not grouped by.
func (d *Dimension) Aggregatable() bool { return d.aggregatable }

// DimensionDictionary maps dimension names onto dimensions.
type DimensionDictionary struct {
	index map[string]*Dimension
	order []string
}

// NewDimensionDictionary returns an empty dictionary.
func NewDimensionDictionary() *DimensionDictionary {
	return &DimensionDictionary{index: make(map[string]*Dimension)}
}

// Add registers a dimension.
func (d *DimensionDictionary) Add(dim *Dimension) error {
	if _, ok := d.index[dim.Name()]; ok {
		return errors.Wrapf(ErrDuplicateEntry, "dimension %s", dim.Name())
	}
	d.index[dim.Name()] = dim
	d.order = append(d.order, dim.Name())
	return nil
}

// FindByName looks a dimension up by name.
func (d *DimensionDictionary) FindByName(name string) (*Dimension, bool) {
	dim, ok := d.index[name]
	return dim, ok
}

// Names returns all registered dimension names in registration order.
func (d *DimensionDictionary) Names() []string {
	return append([]string(nil), d.order...)
}
