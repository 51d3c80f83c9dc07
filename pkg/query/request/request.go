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

// Package request assembles validated, immutable query requests from the
// loosely typed parameters of the data API.
package request

import (
	"time"

	"github.com/metronomedb/metronome/pkg/catalog"
	"github.com/metronomedb/metronome/pkg/pagination"
	"github.com/metronomedb/metronome/pkg/query/filter"
	"github.com/metronomedb/metronome/pkg/query/having"
	"github.com/metronomedb/metronome/pkg/query/orderby"
	"github.com/metronomedb/metronome/pkg/query/physical"
	"github.com/metronomedb/metronome/pkg/timestamp"
)

// AsyncAfterNever marks a request that must be answered synchronously no
// matter how long the backend takes.
const AsyncAfterNever time.Duration = -1

// Projection names the dimension fields a grouping dimension exposes in the
// response.
type Projection struct {
	Dimension *catalog.Dimension
	Fields    []catalog.Field
}

// Request is a fully validated query request. Every field was resolved
// against the catalogs and cross-checked before the value escaped the
// builder; a Request in hand is safe to execute as-is. Requests are
// immutable: derive variants with With.
type Request struct {
	table         *catalog.LogicalTable
	timeZone      *time.Location
	dimensions    *catalog.DimensionSet
	metrics       *catalog.MetricSet
	filters       *filter.Filters
	havings       *having.Havings
	havingTree    *having.Node
	dateTimeSort  *orderby.Column
	filterBuilder physical.FilterBuilder
	granularity   timestamp.Grain
	format        Format
	projections   []Projection
	intervals     []timestamp.TimeRange
	sorts         []orderby.Column
	asyncAfter    time.Duration
	count         int
	topN          int
	pagination    pagination.Parameters
}

// Table returns the logical table the request targets.
func (r *Request) Table() *catalog.LogicalTable { return r.table }

// Granularity returns the report grain.
func (r *Request) Granularity() timestamp.Grain { return r.granularity }

// TimeZone returns the location interval endpoints were interpreted in.
func (r *Request) TimeZone() *time.Location { return r.timeZone }

// Format returns the requested response serialization.
func (r *Request) Format() Format { return r.format }

// Dimensions returns the grouping dimensions in request order.
func (r *Request) Dimensions() *catalog.DimensionSet { return r.dimensions }

// Projections returns the per-dimension field projections, aligned with
// Dimensions order.
func (r *Request) Projections() []Projection { return r.projections }

// Metrics returns the requested metrics in first-seen request order.
func (r *Request) Metrics() *catalog.MetricSet { return r.metrics }

// Intervals returns the report intervals, deduplicated, in request order.
func (r *Request) Intervals() []timestamp.TimeRange { return r.intervals }

// Filters returns the dimension-row filters.
func (r *Request) Filters() *filter.Filters { return r.filters }

// Havings returns the post-aggregation metric constraints.
func (r *Request) Havings() *having.Havings { return r.havings }

// HavingTree returns the combined having expression, or nil when the request
// carries no havings.
func (r *Request) HavingTree() *having.Node { return r.havingTree }

// Sorts returns the metric sort columns in request order. The dateTime sort,
// if any, is reported separately by DateTimeSort.
func (r *Request) Sorts() []orderby.Column { return r.sorts }

// DateTimeSort returns the time-column ordering, or nil when the request does
// not sort on dateTime.
func (r *Request) DateTimeSort() *orderby.Column { return r.dateTimeSort }

// Count returns the row-count limit. ok is false when no limit was requested.
func (r *Request) Count() (n int, ok bool) { return r.count, r.count > 0 }

// TopN returns the per-bucket row limit. ok is false when no limit was
// requested.
func (r *Request) TopN() (n int, ok bool) { return r.topN, r.topN > 0 }

// Pagination returns the page window to slice the result set with.
func (r *Request) Pagination() pagination.Parameters { return r.pagination }

// AsyncAfter returns how long the caller is willing to wait for a synchronous
// answer. AsyncAfterNever means wait forever.
func (r *Request) AsyncAfter() time.Duration { return r.asyncAfter }

// BackendFilter translates the request filters into a physical predicate
// using the builder's filter strategy.
func (r *Request) BackendFilter() (*physical.Predicate, error) {
	return r.filterBuilder.Build(r.filters)
}

// Option rewrites a single field of a derived request.
type Option func(*Request)

// With returns a copy of the request with the given rewrites applied. The
// receiver is left untouched. Callers are responsible for keeping the rewrites
// consistent with each other; With re-runs no validation.
func (r *Request) With(opts ...Option) *Request {
	c := *r
	for _, opt := range opts {
		opt(&c)
	}
	return &c
}

// WithFormat rewrites the response format.
func WithFormat(f Format) Option {
	return func(r *Request) { r.format = f }
}

// WithIntervals replaces the report intervals.
func WithIntervals(intervals ...timestamp.TimeRange) Option {
	return func(r *Request) { r.intervals = intervals }
}

// WithTimeZone rewrites the request time zone.
func WithTimeZone(loc *time.Location) Option {
	return func(r *Request) { r.timeZone = loc }
}

// WithFilters replaces the dimension-row filters.
func WithFilters(f *filter.Filters) Option {
	return func(r *Request) { r.filters = f }
}

// WithHavings replaces the metric constraints and their combined tree.
func WithHavings(h *having.Havings, tree *having.Node) Option {
	return func(r *Request) {
		r.havings = h
		r.havingTree = tree
	}
}

// WithSorts replaces the metric sort columns.
func WithSorts(cols ...orderby.Column) Option {
	return func(r *Request) { r.sorts = cols }
}

// WithCount rewrites the row-count limit. Zero clears it.
func WithCount(n int) Option {
	return func(r *Request) { r.count = n }
}

// WithTopN rewrites the per-bucket limit. Zero clears it.
func WithTopN(n int) Option {
	return func(r *Request) { r.topN = n }
}

// WithPagination rewrites the page window.
func WithPagination(p pagination.Parameters) Option {
	return func(r *Request) { r.pagination = p }
}

// WithAsyncAfter rewrites the synchronous-wait budget.
func WithAsyncAfter(d time.Duration) Option {
	return func(r *Request) { r.asyncAfter = d }
}
