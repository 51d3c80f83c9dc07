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

package having

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/metronomedb/metronome/pkg/catalog"
	"github.com/metronomedb/metronome/pkg/query"
)

func requestedMetrics() *catalog.MetricSet {
	return catalog.NewMetricSet(
		catalog.NewLogicalMetric("height", "", ""),
		catalog.NewLogicalMetric("width", "", ""),
	)
}

func TestParse(t *testing.T) {
	requested := requestedMetrics()
	cases := []struct {
		name      string
		query     string
		wantLen   int
		canonical string
	}{
		{name: "single clause", query: "height-gt[10]", wantLen: 1, canonical: "height-gt[10]"},
		{name: "two clauses", query: "height-gte[10,20],width-lt[5.5]", wantLen: 2, canonical: "height-gte[10,20],width-lt[5.5]"},
		{name: "aliases", query: "height-greaterThan[10],width-notEqualTo[0]", wantLen: 2, canonical: "height-gt[10],width-neq[0]"},
		{name: "empty", query: "", wantLen: 0, canonical: ""},
	}
	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			hs, err := Parse(tt.query, requested)
			require.NoError(t, err)
			require.Equal(t, tt.wantLen, hs.Len())
			require.Equal(t, tt.canonical, hs.String())
		})
	}
}

func TestParseErrors(t *testing.T) {
	requested := requestedMetrics()
	tests := []struct {
		name  string
		query string
	}{
		{name: "metric not requested", query: "depth-gt[10]"},
		{name: "unknown operation", query: "height-between[1,2]"},
		{name: "non-numeric value", query: "height-gt[tall]"},
		{name: "missing values", query: "height-gt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.query, requested)
			require.Error(t, err)
			br, ok := query.AsBadRequest(err)
			require.True(t, ok)
			require.Equal(t, "having", br.Field)
		})
	}
}

func TestDefaultCombiner(t *testing.T) {
	req := require.New(t)
	requested := requestedMetrics()

	hs, err := Parse("height-gt[10],height-lt[100],width-eq[5]", requested)
	req.NoError(err)
	tree := DefaultCombiner{}.Combine(hs)
	req.NotNil(tree)
	req.Equal(NodeAnd, tree.Op)
	req.Len(tree.Children, 3)
	for _, child := range tree.Children {
		req.Equal(NodeLeaf, child.Op)
		req.NotNil(child.Having)
	}

	single, err := Parse("height-gt[10]", requested)
	req.NoError(err)
	leaf := DefaultCombiner{}.Combine(single)
	req.Equal(NodeLeaf, leaf.Op)

	req.Nil(DefaultCombiner{}.Combine(NewHavings()))
	req.Nil(DefaultCombiner{}.Combine(nil))
}

func TestParseRoundTrip(t *testing.T) {
	requested := requestedMetrics()
	queries := []string{
		"height-gt[10]",
		"height-greaterThan[10,20],width-notEqualTo[0.5]",
		"width-lte[5.5],height-eq[0]",
	}
	for _, q := range queries {
		t.Run(q, func(t *testing.T) {
			req := require.New(t)
			first, err := Parse(q, requested)
			req.NoError(err)
			second, err := Parse(first.String(), requested)
			req.NoError(err)
			req.Equal(first.Len(), second.Len())
			req.Equal(first.String(), second.String())
		})
	}
}
