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

package physical

import (
	"github.com/pkg/errors"

	"github.com/metronomedb/metronome/pkg/query/filter"
)

// ErrUnsupportedOperation is raised when a filter operation has no backend
// predicate mapping.
var ErrUnsupportedOperation = errors.New("physical: unsupported filter operation")

// FilterBuilder turns a parsed filter set into a backend predicate tree.
// Callers may supply their own; the assembler falls back to
// DefaultFilterBuilder.
type FilterBuilder interface {
	Build(filters *filter.Filters) (*Predicate, error)
}

// DefaultFilterBuilder ANDs the clauses within each dimension and across
// dimensions; a clause's values are matched as a set.
type DefaultFilterBuilder struct{}

// Build implements FilterBuilder.
func (DefaultFilterBuilder) Build(filters *filter.Filters) (*Predicate, error) {
	if filters == nil || filters.Len() == 0 {
		return nil, nil
	}
	var perDimension []*Predicate
	for _, dim := range filters.Dimensions() {
		var clauses []*Predicate
		for _, f := range filters.On(dim.Name()) {
			p, err := buildClause(f)
			if err != nil {
				return nil, err
			}
			clauses = append(clauses, p)
		}
		perDimension = append(perDimension, And(clauses...))
	}
	return And(perDimension...), nil
}

func buildClause(f *filter.Filter) (*Predicate, error) {
	dim := f.Dimension.Name()
	switch f.Operation {
	case filter.OpEq, filter.OpIn:
		return Select(dim, f.Field, f.Values...), nil
	case filter.OpNotEq, filter.OpNotIn:
		return Not(Select(dim, f.Field, f.Values...)), nil
	case filter.OpStartsWith:
		return Search(dim, f.Field, SearchPrefix, f.Values...), nil
	case filter.OpContains:
		return Search(dim, f.Field, SearchSubstring, f.Values...), nil
	default:
		return nil, errors.Wrapf(ErrUnsupportedOperation, "%s", f.Operation)
	}
}
