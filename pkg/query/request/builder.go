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
	"strconv"
	"strings"
	"time"

	str2duration "github.com/xhit/go-str2duration/v2"

	"github.com/metronomedb/metronome/pkg/catalog"
	"github.com/metronomedb/metronome/pkg/logger"
	"github.com/metronomedb/metronome/pkg/pagination"
	"github.com/metronomedb/metronome/pkg/query"
	"github.com/metronomedb/metronome/pkg/query/filter"
	"github.com/metronomedb/metronome/pkg/query/having"
	"github.com/metronomedb/metronome/pkg/query/orderby"
	"github.com/metronomedb/metronome/pkg/query/physical"
	"github.com/metronomedb/metronome/pkg/timestamp"
)

// Params carries the raw request parameters exactly as the transport
// delivered them. Empty strings mean the parameter was absent. Now anchors
// relative interval macros; injecting it keeps request construction
// deterministic.
type Params struct {
	Now         time.Time
	Table       string
	Granularity string
	Metrics     string
	Intervals   string
	Filters     string
	Havings     string
	Sorts       string
	Count       string
	TopN        string
	Format      string
	TimeZone    string
	AsyncAfter  string
	PerPage     string
	Page        string
	Dimensions  []string
}

// Builder compiles Params into Requests. A Builder is immutable after
// construction and safe for concurrent use.
type Builder struct {
	catalogs      catalog.Catalogs
	grains        *timestamp.Registry
	defaultTZ     *time.Location
	combiner      having.Combiner
	filterBuilder physical.FilterBuilder
	l             *logger.Logger
	cfg           Config
}

// NewBuilder returns a Builder over the given catalogs with the default
// strategies: UTC default time zone, the standard grain registry, AND having
// combining, and the default filter translation.
func NewBuilder(catalogs catalog.Catalogs, cfg Config) *Builder {
	return &Builder{
		catalogs:      catalogs,
		cfg:           cfg.withDefaults(),
		grains:        timestamp.NewRegistry(),
		defaultTZ:     time.UTC,
		combiner:      having.DefaultCombiner{},
		filterBuilder: physical.DefaultFilterBuilder{},
		l:             logger.GetLogger("query", "request"),
	}
}

// WithDefaultTimeZone returns a copy of the builder resolving intervals in
// loc when the request names no time zone.
func (b *Builder) WithDefaultTimeZone(loc *time.Location) *Builder {
	c := *b
	c.defaultTZ = loc
	return &c
}

// WithGrainRegistry returns a copy of the builder resolving granularity
// tokens against reg.
func (b *Builder) WithGrainRegistry(reg *timestamp.Registry) *Builder {
	c := *b
	c.grains = reg
	return &c
}

// WithCombiner returns a copy of the builder combining havings with c.
func (b *Builder) WithCombiner(c having.Combiner) *Builder {
	cp := *b
	cp.combiner = c
	return &cp
}

// WithFilterBuilder returns a copy of the builder translating filters with f.
func (b *Builder) WithFilterBuilder(f physical.FilterBuilder) *Builder {
	c := *b
	c.filterBuilder = f
	return &c
}

type step struct {
	name string
	run  func(b *Builder, p Params, r *Request) error
}

// The pipeline is strictly ordered: later steps lean on fields earlier steps
// resolved, and the first failure aborts the build.
var pipeline = []step{
	{"format", stepFormat},
	{"pagination", stepPagination},
	{"asyncAfter", stepAsyncAfter},
	{"granularity", stepGranularity},
	{"table", stepTable},
	{"intervals", stepIntervals},
	{"metrics", stepMetrics},
	{"dimensions", stepDimensions},
	{"dimensionFields", stepDimensionFields},
	{"filters", stepFilters},
	{"havings", stepHavings},
	{"sorts", stepSorts},
	{"limits", stepLimits},
	{"validate", stepValidate},
}

// StepNames reports the pipeline step names in execution order.
func StepNames() []string {
	names := make([]string, 0, len(pipeline))
	for _, s := range pipeline {
		names = append(names, s.name)
	}
	return names
}

// Build runs the full pipeline over p. On failure it returns a
// *query.BadRequest tagged with the step that rejected the input; no partial
// Request ever escapes.
func (b *Builder) Build(p Params) (*Request, error) {
	r := &Request{filterBuilder: b.filterBuilder}
	for _, s := range pipeline {
		if err := s.run(b, p, r); err != nil {
			br, ok := query.AsBadRequest(err)
			if !ok {
				br = query.Badf("", "", "%s", err)
			}
			if br.Step == "" {
				br.Step = s.name
			}
			if e := b.l.Debug(); e.Enabled() {
				e.Str("step", br.Step).Str("field", br.Field).
					Str("value", br.Value).Msg("request rejected")
			}
			return nil, br
		}
	}
	if e := b.l.Debug(); e.Enabled() {
		e.Str("table", r.table.Identifier().String()).
			Int("metrics", r.metrics.Len()).
			Int("dimensions", r.dimensions.Len()).
			Int("intervals", len(r.intervals)).
			Msg("request built")
	}
	return r, nil
}

func stepFormat(_ *Builder, p Params, r *Request) error {
	f, err := ParseFormat(p.Format)
	if err != nil {
		return err
	}
	r.format = f
	return nil
}

func stepPagination(b *Builder, p Params, r *Request) error {
	perPage, err := parsePositiveInt(p.PerPage, "perPage", b.cfg.DefaultPerPage)
	if err != nil {
		return err
	}
	page, err := parsePositiveInt(p.Page, "page", b.cfg.DefaultPage)
	if err != nil {
		return err
	}
	r.pagination = pagination.Parameters{PerPage: perPage, Page: page}
	return nil
}

func stepAsyncAfter(b *Builder, p Params, r *Request) error {
	d, err := parseAsyncAfter(p.AsyncAfter, b.cfg.DefaultAsyncAfter)
	if err != nil {
		return err
	}
	r.asyncAfter = d
	return nil
}

func stepGranularity(b *Builder, p Params, r *Request) error {
	loc, err := timestamp.ResolveTimeZone(p.TimeZone, b.defaultTZ)
	if err != nil {
		return err
	}
	r.timeZone = loc
	if p.Granularity == "" {
		return query.Badf("granularity", "", "granularity is missing").
			WithAlternatives(b.grains.Names()...)
	}
	g, err := b.grains.Resolve(p.Granularity)
	if err != nil {
		return err
	}
	r.granularity = g
	return nil
}

func stepTable(b *Builder, p Params, r *Request) error {
	if p.Table == "" {
		return query.Badf("table", "", "table name is missing").
			WithAlternatives(b.catalogs.Tables.Names()...)
	}
	id := catalog.TableIdentifier{Name: p.Table, Grain: r.granularity.Name()}
	table, ok := b.catalogs.Tables.Get(id)
	if !ok {
		return query.Badf("table", p.Table,
			"no table %q reports at the %q granularity", p.Table, r.granularity.Name()).
			WithAlternatives(b.catalogs.Tables.Names()...)
	}
	r.table = table
	return nil
}

func stepIntervals(_ *Builder, p Params, r *Request) error {
	intervals, err := timestamp.ParseIntervals(p.Intervals, r.granularity, r.timeZone, p.Now)
	if err != nil {
		return err
	}
	r.intervals = intervals
	return nil
}

func stepMetrics(b *Builder, p Params, r *Request) error {
	tokens := splitMetricQuery(p.Metrics)
	if len(tokens) == 0 {
		return query.Badf("metrics", p.Metrics, "at least one metric is required").
			WithAlternatives(r.table.Metrics().Names()...)
	}
	scope := b.catalogs.Metrics.Scope(r.table.Identifier().Name)
	set := catalog.NewMetricSet()
	for _, token := range tokens {
		name := metricBaseName(token)
		m, ok := scope.FindByName(name)
		if !ok {
			return query.Badf("metrics", token, "unknown metric %q", name).
				WithAlternatives(scope.Names()...)
		}
		set.Add(m)
	}
	r.metrics = set
	return nil
}

func stepDimensions(b *Builder, p Params, r *Request) error {
	set := catalog.NewDimensionSet()
	for _, raw := range p.Dimensions {
		name, _, err := splitDimensionToken(raw)
		if err != nil {
			return err
		}
		dim, ok := b.catalogs.Dimensions.FindByName(name)
		if !ok {
			return query.Badf("dimensions", raw, "unknown dimension %q", name).
				WithAlternatives(b.catalogs.Dimensions.Names()...)
		}
		set.Add(dim)
	}
	r.dimensions = set
	return nil
}

func stepDimensionFields(b *Builder, p Params, r *Request) error {
	seen := make(map[string]bool, len(p.Dimensions))
	projections := make([]Projection, 0, r.dimensions.Len())
	for _, raw := range p.Dimensions {
		name, shows, err := splitDimensionToken(raw)
		if err != nil {
			return err
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		dim, ok := b.catalogs.Dimensions.FindByName(name)
		if !ok {
			return query.Badf("dimensions", raw, "unknown dimension %q", name).
				WithAlternatives(b.catalogs.Dimensions.Names()...)
		}
		fields := dim.DefaultFields()
		if len(shows) > 0 {
			fields = make([]catalog.Field, 0, len(shows))
			for _, show := range shows {
				f, ok := dim.Field(show)
				if !ok {
					return query.Badf("dimensions", raw,
						"dimension %q has no field %q", name, show).
						WithAlternatives(dim.FieldNames()...)
				}
				fields = append(fields, f)
			}
		}
		projections = append(projections, Projection{Dimension: dim, Fields: fields})
	}
	r.projections = projections
	return nil
}

func stepFilters(b *Builder, p Params, r *Request) error {
	filters, err := filter.Parse(p.Filters, b.catalogs.Dimensions, b.cfg)
	if err != nil {
		return err
	}
	r.filters = filters
	return nil
}

func stepHavings(b *Builder, p Params, r *Request) error {
	havings, err := having.Parse(p.Havings, r.metrics)
	if err != nil {
		return err
	}
	r.havings = havings
	if havings.Len() > 0 {
		r.havingTree = b.combiner.Combine(havings)
	}
	return nil
}

func stepSorts(_ *Builder, p Params, r *Request) error {
	columns, err := orderby.Parse(p.Sorts)
	if err != nil {
		return err
	}
	dateTime, rest, err := orderby.SplitDateTime(columns)
	if err != nil {
		return err
	}
	resolved, err := orderby.ResolveMetrics(rest, r.metrics, r.table)
	if err != nil {
		return err
	}
	r.dateTimeSort = dateTime
	r.sorts = resolved
	return nil
}

func stepLimits(_ *Builder, p Params, r *Request) error {
	count, err := parseNonNegativeInt(p.Count, "count")
	if err != nil {
		return err
	}
	topN, err := parseNonNegativeInt(p.TopN, "topN")
	if err != nil {
		return err
	}
	r.count = count
	r.topN = topN
	return nil
}

func stepValidate(_ *Builder, _ Params, r *Request) error {
	for _, v := range validators {
		if err := v.check(r); err != nil {
			if br, ok := query.AsBadRequest(err); ok && br.Step == "" {
				br.Step = "validate/" + v.name
				return br
			}
			return err
		}
	}
	return nil
}

// parsePositiveInt parses a pagination parameter: absent means the configured
// default, anything else must be a strictly positive integer.
func parsePositiveInt(raw, field string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, query.Badf(field, raw, "%s must be a positive integer", field)
	}
	return n, nil
}

// parseNonNegativeInt parses an optional limit: absent means zero, anything
// else must be a non-negative integer.
func parseNonNegativeInt(raw, field string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, query.Badf(field, raw, "%s must be a non-negative integer", field)
	}
	return n, nil
}

// parseAsyncAfter resolves the synchronous-wait budget. Absent falls back to
// the configured default, "never" means wait forever, a bare integer counts
// milliseconds, and anything else must parse as a duration.
func parseAsyncAfter(raw, def string) (time.Duration, error) {
	if raw == "" {
		raw = def
	}
	if strings.EqualFold(raw, AsyncAfterNeverValue) {
		return AsyncAfterNever, nil
	}
	if ms, err := strconv.ParseInt(raw, 10, 64); err == nil {
		if ms < 0 {
			return 0, query.Badf("asyncAfter", raw, "asyncAfter must not be negative")
		}
		return time.Duration(ms) * time.Millisecond, nil
	}
	d, err := str2duration.ParseDuration(raw)
	if err != nil || d < 0 {
		return 0, query.Badf("asyncAfter", raw,
			"asyncAfter must be %q, a millisecond count, or a duration", AsyncAfterNeverValue)
	}
	return d, nil
}

// splitDimensionToken breaks a dimension path segment into the dimension name
// and the requested field projection. The segment is either a bare name or
// "name;show=field1,field2".
func splitDimensionToken(raw string) (name string, shows []string, err error) {
	name, spec, found := strings.Cut(raw, ";")
	name = strings.TrimSpace(name)
	if name == "" {
		return "", nil, query.Badf("dimensions", raw, "dimension name is missing")
	}
	if !found {
		return name, nil, nil
	}
	list, ok := strings.CutPrefix(spec, "show=")
	if !ok {
		return "", nil, query.Badf("dimensions", raw,
			"malformed dimension field selector %q, expected \"show=field,...\"", spec)
	}
	for _, show := range strings.Split(list, ",") {
		show = strings.TrimSpace(show)
		if show == "" {
			return "", nil, query.Badf("dimensions", raw, "empty dimension field name")
		}
		shows = append(shows, show)
	}
	if len(shows) == 0 {
		return "", nil, query.Badf("dimensions", raw, "empty dimension field list")
	}
	return name, shows, nil
}

// splitMetricQuery splits the metrics parameter on commas, ignoring commas
// nested inside parentheses so parameterized metric expressions survive
// intact. Empty tokens are dropped.
func splitMetricQuery(metricQuery string) []string {
	var tokens []string
	depth := 0
	start := 0
	flush := func(end int) {
		if token := strings.TrimSpace(metricQuery[start:end]); token != "" {
			tokens = append(tokens, token)
		}
	}
	for i, c := range metricQuery {
		switch c {
		case '(':
			depth++
		case ')':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				flush(i)
				start = i + 1
			}
		}
	}
	flush(len(metricQuery))
	return tokens
}

// metricBaseName strips a parameterized metric expression down to the metric
// name that fronts it.
func metricBaseName(token string) string {
	if i := strings.IndexByte(token, '('); i >= 0 {
		return strings.TrimSpace(token[:i])
	}
	return token
}
