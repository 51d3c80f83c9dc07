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
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/metronomedb/metronome/pkg/catalog"
	"github.com/metronomedb/metronome/pkg/pagination"
	"github.com/metronomedb/metronome/pkg/query"
	"github.com/metronomedb/metronome/pkg/timestamp"
)

// testCatalogs builds the fixture: a shapes table at day, week and all with
// dimensions color (aggregatable) and shape (not), metrics height and width.
// The metric depth and the dimension taste exist in the dictionaries but not
// on the table.
func testCatalogs(t *testing.T) catalog.Catalogs {
	t.Helper()
	req := require.New(t)
	c := catalog.Catalogs{
		Dimensions: catalog.NewDimensionDictionary(),
		Metrics:    catalog.NewMetricDictionary(),
		Tables:     catalog.NewTableDictionary(),
	}
	for _, spec := range []catalog.DimensionSpec{
		{
			Name:          "color",
			Fields:        []catalog.Field{{Name: "id"}, {Name: "desc"}, {Name: "bluePigment"}},
			DefaultFields: []string{"id"},
			Aggregatable:  true,
		},
		{
			Name:   "shape",
			Fields: []catalog.Field{{Name: "id"}, {Name: "desc"}},
		},
		{
			Name:         "taste",
			Fields:       []catalog.Field{{Name: "id"}},
			Aggregatable: true,
		},
	} {
		dim, err := catalog.NewDimension(spec)
		req.NoError(err)
		req.NoError(c.Dimensions.Add(dim))
	}
	height := catalog.NewLogicalMetric("height", "", "")
	width := catalog.NewLogicalMetric("width", "", "")
	depth := catalog.NewLogicalMetric("depth", "", "")
	req.NoError(c.Metrics.Add(height, "shapes"))
	req.NoError(c.Metrics.Add(width, "shapes"))
	req.NoError(c.Metrics.Add(depth, "shapes"))

	color, _ := c.Dimensions.FindByName("color")
	shape, _ := c.Dimensions.FindByName("shape")
	dims := catalog.NewDimensionSet(color, shape)
	metrics := catalog.NewMetricSet(height, width)
	for _, grain := range []string{"day", "week", "all"} {
		req.NoError(c.Tables.Add(catalog.NewLogicalTable(
			catalog.TableIdentifier{Name: "shapes", Grain: grain}, dims, metrics)))
	}
	return c
}

func testBuilder(t *testing.T) *Builder {
	t.Helper()
	return NewBuilder(testCatalogs(t), Config{
		DefaultPerPage:       100,
		DefaultPage:          1,
		PartialTextOperators: true,
	})
}

func baseParams() Params {
	return Params{
		Now:         time.Date(2024, time.May, 16, 13, 42, 0, 0, time.UTC),
		Table:       "shapes",
		Granularity: "day",
		Metrics:     "height",
		Intervals:   "2024-05-01/2024-05-03",
	}
}

func TestBuildFullRequest(t *testing.T) {
	req := require.New(t)
	b := testBuilder(t)
	p := baseParams()
	p.Dimensions = []string{"color;show=id,desc", "shape"}
	p.Metrics = "height,width,height"
	p.Filters = "color|id-in[red,blue]"
	p.Havings = "height-gt[10]"
	p.Sorts = "dateTime|asc,height|desc"
	p.Count = "50"
	p.TopN = "5"
	p.Format = "csv"
	p.TimeZone = "UTC"
	p.AsyncAfter = "5000"
	p.PerPage = "25"
	p.Page = "2"

	r, err := b.Build(p)
	req.NoError(err)

	req.Equal("shapes", r.Table().Name())
	req.Equal("day", r.Granularity().Name())
	req.Equal(FormatCSV, r.Format())
	req.Equal(time.UTC, r.TimeZone())

	// duplicate metric collapses to first-seen order
	req.Equal([]string{"height", "width"}, r.Metrics().Names())

	req.Equal([]string{"color", "shape"}, r.Dimensions().Names())
	projections := r.Projections()
	req.Len(projections, 2)
	req.Equal([]string{"id", "desc"}, fieldNames(projections[0].Fields))
	// shape omitted its selector, so every field projects
	req.Equal([]string{"id", "desc"}, fieldNames(projections[1].Fields))

	req.Len(r.Intervals(), 1)
	req.Equal(48*time.Hour, r.Intervals()[0].Duration())

	req.Equal(1, r.Filters().Len())
	req.Equal(1, r.Havings().Len())
	req.NotNil(r.HavingTree())

	req.NotNil(r.DateTimeSort())
	req.Len(r.Sorts(), 1)
	req.Equal("height", r.Sorts()[0].Name)

	count, ok := r.Count()
	req.True(ok)
	req.Equal(50, count)
	topN, ok := r.TopN()
	req.True(ok)
	req.Equal(5, topN)

	req.Equal(pagination.Parameters{PerPage: 25, Page: 2}, r.Pagination())
	req.Equal(5*time.Second, r.AsyncAfter())

	predicate, err := r.BackendFilter()
	req.NoError(err)
	req.NotNil(predicate)
}

func fieldNames(fields []catalog.Field) []string {
	names := make([]string, 0, len(fields))
	for _, f := range fields {
		names = append(names, f.Name)
	}
	return names
}

func TestBuildDefaults(t *testing.T) {
	req := require.New(t)
	b := testBuilder(t)
	r, err := b.Build(baseParams())
	req.NoError(err)

	req.Equal(FormatJSON, r.Format())
	req.Equal(pagination.Parameters{PerPage: 100, Page: 1}, r.Pagination())
	req.Equal(AsyncAfterNever, r.AsyncAfter())
	req.Empty(r.Dimensions().Names())
	req.Empty(r.Projections())
	req.Zero(r.Filters().Len())
	req.Zero(r.Havings().Len())
	req.Nil(r.HavingTree())
	req.Nil(r.DateTimeSort())
	req.Empty(r.Sorts())
	_, ok := r.Count()
	req.False(ok)
	_, ok = r.TopN()
	req.False(ok)

	predicate, err := r.BackendFilter()
	req.NoError(err)
	req.Nil(predicate)
}

func TestBuildRejections(t *testing.T) {
	b := testBuilder(t)
	tests := []struct {
		name     string
		mutate   func(p *Params)
		wantStep string
	}{
		{
			name:     "unknown format",
			mutate:   func(p *Params) { p.Format = "xml" },
			wantStep: "format",
		},
		{
			name:     "zero perPage",
			mutate:   func(p *Params) { p.PerPage = "0" },
			wantStep: "pagination",
		},
		{
			name:     "non-numeric page",
			mutate:   func(p *Params) { p.Page = "two" },
			wantStep: "pagination",
		},
		{
			name:     "negative asyncAfter",
			mutate:   func(p *Params) { p.AsyncAfter = "-5" },
			wantStep: "asyncAfter",
		},
		{
			name:     "missing granularity",
			mutate:   func(p *Params) { p.Granularity = "" },
			wantStep: "granularity",
		},
		{
			name:     "unknown granularity",
			mutate:   func(p *Params) { p.Granularity = "fortnight" },
			wantStep: "granularity",
		},
		{
			name:     "unknown time zone",
			mutate:   func(p *Params) { p.TimeZone = "Mars/Olympus" },
			wantStep: "granularity",
		},
		{
			name:     "unknown table",
			mutate:   func(p *Params) { p.Table = "pets" },
			wantStep: "table",
		},
		{
			name:     "missing intervals",
			mutate:   func(p *Params) { p.Intervals = "" },
			wantStep: "intervals",
		},
		{
			name:     "missing metrics",
			mutate:   func(p *Params) { p.Metrics = "" },
			wantStep: "metrics",
		},
		{
			name:     "unknown metric",
			mutate:   func(p *Params) { p.Metrics = "girth" },
			wantStep: "metrics",
		},
		{
			name:     "unknown dimension",
			mutate:   func(p *Params) { p.Dimensions = []string{"smell"} },
			wantStep: "dimensions",
		},
		{
			name:     "unknown dimension field",
			mutate:   func(p *Params) { p.Dimensions = []string{"color;show=weight"} },
			wantStep: "dimensionFields",
		},
		{
			name:     "malformed field selector",
			mutate:   func(p *Params) { p.Dimensions = []string{"color;fields=id"} },
			wantStep: "dimensions",
		},
		{
			name:     "unknown filter dimension",
			mutate:   func(p *Params) { p.Filters = "smell|id-eq[sweet]" },
			wantStep: "filters",
		},
		{
			name:     "having on unrequested metric",
			mutate:   func(p *Params) { p.Havings = "width-gt[1]" },
			wantStep: "havings",
		},
		{
			name:     "sort on unrequested metric",
			mutate:   func(p *Params) { p.Sorts = "width" },
			wantStep: "sorts",
		},
		{
			name:     "dateTime sort not first",
			mutate:   func(p *Params) { p.Sorts = "height,dateTime" },
			wantStep: "sorts",
		},
		{
			name:     "negative count",
			mutate:   func(p *Params) { p.Count = "-1" },
			wantStep: "limits",
		},
		{
			name:     "non-numeric topN",
			mutate:   func(p *Params) { p.TopN = "five" },
			wantStep: "limits",
		},
		{
			name:     "topN without sort",
			mutate:   func(p *Params) { p.TopN = "5" },
			wantStep: "validate/top-n-requires-sort",
		},
		{
			name: "metric outside table",
			// depth resolves in the shapes scope but the table does not carry it
			mutate:   func(p *Params) { p.Metrics = "depth" },
			wantStep: "validate/metrics-in-table",
		},
		{
			name:     "dimension outside table",
			mutate:   func(p *Params) { p.Dimensions = []string{"taste"} },
			wantStep: "validate/dimensions-in-table",
		},
		{
			name:     "filter dimension outside table",
			mutate:   func(p *Params) { p.Filters = "taste|id-eq[sweet]" },
			wantStep: "validate/dimensions-in-table",
		},
		{
			name:     "filtered non-aggregatable dimension not grouped",
			mutate:   func(p *Params) { p.Filters = "shape|id-eq[square]" },
			wantStep: "validate/aggregatability",
		},
		{
			name: "misaligned interval",
			mutate: func(p *Params) {
				p.Granularity = "week"
				// May 1 2024 is a Wednesday
				p.Intervals = "2024-05-01/2024-05-08"
			},
			wantStep: "intervals",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := baseParams()
			tt.mutate(&p)
			_, err := b.Build(p)
			require.Error(t, err)
			br, ok := query.AsBadRequest(err)
			require.True(t, ok)
			require.Equal(t, tt.wantStep, br.Step)
		})
	}
}

func TestBuildAggregatabilityAllowsGroupedFilter(t *testing.T) {
	req := require.New(t)
	b := testBuilder(t)
	p := baseParams()
	p.Dimensions = []string{"shape"}
	p.Filters = "shape|id-eq[square]"
	_, err := b.Build(p)
	req.NoError(err)
}

func TestBuildParameterizedMetrics(t *testing.T) {
	req := require.New(t)
	b := testBuilder(t)
	p := baseParams()
	p.Metrics = "height(filters=color|id-in[red,blue]),width"
	r, err := b.Build(p)
	req.NoError(err)
	req.Equal([]string{"height", "width"}, r.Metrics().Names())
}

func TestBuildTopNWithMetricSort(t *testing.T) {
	req := require.New(t)
	b := testBuilder(t)
	p := baseParams()
	p.TopN = "3"
	p.Sorts = "height"
	r, err := b.Build(p)
	req.NoError(err)
	topN, ok := r.TopN()
	req.True(ok)
	req.Equal(3, topN)

	// a bare dateTime sort does not satisfy topN
	p.Sorts = "dateTime"
	_, err = b.Build(p)
	req.Error(err)
}

func TestBuildAllGranularity(t *testing.T) {
	req := require.New(t)
	b := testBuilder(t)
	p := baseParams()
	p.Granularity = "all"
	p.Intervals = "2024-05-01T07:30:00/2024-05-03"
	r, err := b.Build(p)
	req.NoError(err)
	req.True(r.Granularity().IsAll())

	p.Intervals = "current/next"
	_, err = b.Build(p)
	req.Error(err)
}

func TestParseAsyncAfter(t *testing.T) {
	tests := []struct {
		raw     string
		def     string
		want    time.Duration
		wantErr bool
	}{
		{raw: "", def: "never", want: AsyncAfterNever},
		{raw: "", def: "1500", want: 1500 * time.Millisecond},
		{raw: "never", def: "0", want: AsyncAfterNever},
		{raw: "NEVER", def: "0", want: AsyncAfterNever},
		{raw: "5000", def: "never", want: 5 * time.Second},
		{raw: "10s", def: "never", want: 10 * time.Second},
		{raw: "2m", def: "never", want: 2 * time.Minute},
		{raw: "-1", def: "never", wantErr: true},
		{raw: "soon", def: "never", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.raw+"/"+tt.def, func(t *testing.T) {
			got, err := parseAsyncAfter(tt.raw, tt.def)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestSplitMetricQuery(t *testing.T) {
	tests := []struct {
		query string
		want  []string
	}{
		{query: "height,width", want: []string{"height", "width"}},
		{query: "height(filters=color|id-in[red,blue]),width", want: []string{"height(filters=color|id-in[red,blue])", "width"}},
		{query: " height , width ", want: []string{"height", "width"}},
		{query: "", want: nil},
		{query: ",,", want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			require.Equal(t, tt.want, splitMetricQuery(tt.query))
		})
	}
}

func TestStepOrder(t *testing.T) {
	req := require.New(t)
	req.Equal([]string{
		"format", "pagination", "asyncAfter", "granularity", "table",
		"intervals", "metrics", "dimensions", "dimensionFields",
		"filters", "havings", "sorts", "limits", "validate",
	}, StepNames())
	req.Equal([]string{
		"metrics-in-table", "dimensions-in-table", "top-n-requires-sort",
		"aggregatability", "time-alignment",
	}, ValidatorNames())
}

func TestWithDerivesACopy(t *testing.T) {
	req := require.New(t)
	b := testBuilder(t)
	r, err := b.Build(baseParams())
	req.NoError(err)

	derived := r.With(
		WithFormat(FormatCSV),
		WithCount(10),
		WithAsyncAfter(time.Second),
		WithPagination(pagination.Parameters{PerPage: 5, Page: 3}),
	)
	req.Equal(FormatCSV, derived.Format())
	count, ok := derived.Count()
	req.True(ok)
	req.Equal(10, count)
	req.Equal(time.Second, derived.AsyncAfter())

	// the original is untouched
	req.Equal(FormatJSON, r.Format())
	_, ok = r.Count()
	req.False(ok)
	req.Equal(AsyncAfterNever, r.AsyncAfter())
	req.Equal(pagination.Parameters{PerPage: 100, Page: 1}, r.Pagination())

	// shared immutable state still reads the same
	req.Equal(r.Table(), derived.Table())
	req.Equal(r.Metrics().Names(), derived.Metrics().Names())
}

func TestWithIntervalsRewrite(t *testing.T) {
	req := require.New(t)
	b := testBuilder(t)
	r, err := b.Build(baseParams())
	req.NoError(err)
	next := timestamp.NewTimeRange(
		time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, time.June, 2, 0, 0, 0, 0, time.UTC))
	derived := r.With(WithIntervals(next))
	req.Equal([]timestamp.TimeRange{next}, derived.Intervals())
	req.NotEqual(r.Intervals(), derived.Intervals())
}

func TestBuildConcurrent(t *testing.T) {
	b := testBuilder(t)
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				p := baseParams()
				p.Dimensions = []string{"color"}
				p.Filters = "color|id-eq[red]"
				r, err := b.Build(p)
				if err != nil || r.Metrics().Len() != 1 {
					t.Errorf("concurrent build failed: %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()
}
