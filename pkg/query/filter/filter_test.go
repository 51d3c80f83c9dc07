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
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/metronomedb/metronome/pkg/catalog"
	"github.com/metronomedb/metronome/pkg/query"
)

func testDimensions(t *testing.T) *catalog.DimensionDictionary {
	t.Helper()
	dict := catalog.NewDimensionDictionary()
	for _, spec := range []catalog.DimensionSpec{
		{
			Name: "color",
			Fields: []catalog.Field{
				{Name: "id"}, {Name: "desc"}, {Name: "bluePigment"},
			},
			DefaultFields: []string{"id"},
			Aggregatable:  true,
		},
		{
			Name:   "shape",
			Fields: []catalog.Field{{Name: "id"}, {Name: "desc"}},
		},
	} {
		dim, err := catalog.NewDimension(spec)
		require.NoError(t, err)
		require.NoError(t, dict.Add(dim))
	}
	return dict
}

func TestParse(t *testing.T) {
	dims := testDimensions(t)
	tests := []struct {
		name      string
		query     string
		wantLen   int
		canonical string
	}{
		{
			name:      "single clause",
			query:     "color|id-in[red,blue]",
			wantLen:   1,
			canonical: "color|id-in[red,blue]",
		},
		{
			name:      "values keep commas apart from clause separators",
			query:     "color|desc-notin[light, dark],shape|id-eq[square]",
			wantLen:   2,
			canonical: "color|desc-notin[light,dark],shape|id-eq[square]",
		},
		{
			name:      "clauses on one dimension stay grouped",
			query:     "color|id-eq[red],shape|id-eq[square],color|desc-noteq[dark]",
			wantLen:   3,
			canonical: "color|id-eq[red],color|desc-noteq[dark],shape|id-eq[square]",
		},
		{
			name:    "empty query",
			query:   "",
			wantLen: 0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs, err := Parse(tt.query, dims, query.FlagSet{})
			require.NoError(t, err)
			require.Equal(t, tt.wantLen, fs.Len())
			require.Equal(t, tt.canonical, fs.String())
		})
	}
}

func TestParseErrors(t *testing.T) {
	dims := testDimensions(t)
	tests := []struct {
		name      string
		query     string
		wantField string
	}{
		{name: "unknown dimension", query: "taste|id-eq[sweet]", wantField: "filters"},
		{name: "unknown field", query: "color|weight-eq[1]", wantField: "filters"},
		{name: "unknown operation", query: "color|id-between[a,b]", wantField: "filters"},
		{name: "missing values", query: "color|id-eq", wantField: "filters"},
		{name: "empty value", query: "color|id-in[red,]", wantField: "filters"},
		{name: "bare word", query: "color", wantField: "filters"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.query, dims, query.FlagSet{})
			require.Error(t, err)
			br, ok := query.AsBadRequest(err)
			require.True(t, ok)
			require.Equal(t, tt.wantField, br.Field)
		})
	}
}

func TestPartialTextOperatorsGated(t *testing.T) {
	req := require.New(t)
	dims := testDimensions(t)
	for _, q := range []string{"color|desc-startswith[li]", "color|desc-contains[igh]"} {
		_, err := Parse(q, dims, query.FlagSet{})
		req.Error(err, q)

		fs, err := Parse(q, dims, query.FlagSet{query.FlagPartialTextOperators: true})
		req.NoError(err, q)
		req.Equal(1, fs.Len())
	}
}

func TestFiltersAccessors(t *testing.T) {
	req := require.New(t)
	dims := testDimensions(t)
	fs, err := Parse("color|id-eq[red],shape|id-eq[square],color|desc-noteq[dark]", dims, query.FlagSet{})
	req.NoError(err)

	names := make([]string, 0, 2)
	for _, d := range fs.Dimensions() {
		names = append(names, d.Name())
	}
	req.Equal([]string{"color", "shape"}, names)
	req.Len(fs.On("color"), 2)
	req.Len(fs.On("shape"), 1)
	req.Empty(fs.On("taste"))
	req.Len(fs.All(), 3)
}

func TestParseRoundTrip(t *testing.T) {
	dims := testDimensions(t)
	flags := query.FlagSet{query.FlagPartialTextOperators: true}
	queries := []string{
		"color|id-in[red,blue]",
		"color|id-eq[red],shape|id-eq[square],color|desc-noteq[dark]",
		"color|bluePigment-startswith[sky],shape|desc-contains[round]",
	}
	for _, q := range queries {
		t.Run(q, func(t *testing.T) {
			req := require.New(t)
			first, err := Parse(q, dims, flags)
			req.NoError(err)
			second, err := Parse(first.String(), dims, flags)
			req.NoError(err)
			req.Equal(first.Len(), second.Len())
			req.Equal(first.String(), second.String())
		})
	}
}
