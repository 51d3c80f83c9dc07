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

package request

import (
	"github.com/metronomedb/metronome/pkg/query"
)

type validator struct {
	name  string
	check func(r *Request) error
}

// Cross-field checks run after every field is individually resolved. The
// order is fixed and the first failure aborts.
var validators = []validator{
	{"metrics-in-table", validateMetricsInTable},
	{"dimensions-in-table", validateDimensionsInTable},
	{"top-n-requires-sort", validateTopNRequiresSort},
	{"aggregatability", validateAggregatability},
	{"time-alignment", validateTimeAlignment},
}

// ValidatorNames reports the cross-field check names in execution order.
func ValidatorNames() []string {
	names := make([]string, 0, len(validators))
	for _, v := range validators {
		names = append(names, v.name)
	}
	return names
}

func validateMetricsInTable(r *Request) error {
	for _, m := range r.metrics.List() {
		if !r.table.Metrics().Contains(m.Name()) {
			return query.Badf("metrics", m.Name(),
				"metric %q is not available on table %q", m.Name(), r.table.Name()).
				WithAlternatives(r.table.Metrics().Names()...)
		}
	}
	return nil
}

func validateDimensionsInTable(r *Request) error {
	for _, d := range r.dimensions.List() {
		if !r.table.Dimensions().Contains(d.Name()) {
			return query.Badf("dimensions", d.Name(),
				"dimension %q is not available on table %q", d.Name(), r.table.Name()).
				WithAlternatives(r.table.Dimensions().Names()...)
		}
	}
	for _, d := range r.filters.Dimensions() {
		if !r.table.Dimensions().Contains(d.Name()) {
			return query.Badf("filters", d.Name(),
				"dimension %q is not available on table %q", d.Name(), r.table.Name()).
				WithAlternatives(r.table.Dimensions().Names()...)
		}
	}
	return nil
}

func validateTopNRequiresSort(r *Request) error {
	if r.topN > 0 && len(r.sorts) == 0 {
		return query.Badf("topN", "", "topN requires at least one metric sort")
	}
	return nil
}

// A dimension that is filtered on but not grouped by forces its rows to be
// merged away; that is only sound when the dimension is aggregatable.
func validateAggregatability(r *Request) error {
	for _, d := range r.filters.Dimensions() {
		if r.dimensions.Contains(d.Name()) {
			continue
		}
		if !d.Aggregatable() {
			return query.Badf("filters", d.Name(),
				"dimension %q is not aggregatable and must be grouped on when filtered", d.Name())
		}
	}
	return nil
}

func validateTimeAlignment(r *Request) error {
	for _, iv := range r.intervals {
		if !r.granularity.Aligned(iv.Start, r.timeZone) || !r.granularity.Aligned(iv.End, r.timeZone) {
			return query.Badf("intervals", iv.String(),
				"interval %s does not align to the %q grain", iv, r.granularity.Name())
		}
	}
	return nil
}
