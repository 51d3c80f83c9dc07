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

// Package having parses the post-aggregation predicate grammar
//
//	havingQuery := having (',' having)*
//	having      := metric '-' operation '[' number (',' number)* ']'
//
// into per-metric predicate sets. A having may only reference a metric the
// request already asked for.
package having

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/metronomedb/metronome/pkg/catalog"
	"github.com/metronomedb/metronome/pkg/query"
)

// Operation is a having comparison kind.
type Operation string

// The recognized having operations.
const (
	OpEq  Operation = "eq"
	OpNeq Operation = "neq"
	OpGt  Operation = "gt"
	OpGte Operation = "gte"
	OpLt  Operation = "lt"
	OpLte Operation = "lte"
)

var operations = []Operation{OpEq, OpNeq, OpGt, OpGte, OpLt, OpLte}

// Long-form aliases kept for callers of the classic API.
var operationAliases = map[string]Operation{
	"equalto":     OpEq,
	"notequalto":  OpNeq,
	"greaterthan": OpGt,
	"lessthan":    OpLt,
}

// OperationNames returns the recognized operation tokens.
func OperationNames() []string {
	names := make([]string, 0, len(operations))
	for _, op := range operations {
		names = append(names, string(op))
	}
	return names
}

// ParseOperation maps an operation token, or one of its long-form aliases,
// onto an Operation.
func ParseOperation(token string) (Operation, error) {
	for _, op := range operations {
		if string(op) == token {
			return op, nil
		}
	}
	if op, ok := operationAliases[strings.ToLower(token)]; ok {
		return op, nil
	}
	return "", query.Badf("having", token, "unknown having operation").
		WithAlternatives(OperationNames()...)
}

//nolint:govet // struct layout is the having grammar
type havingGrammar struct {
	Clauses []*havingClause `parser:"@@ (Comma @@)*"`
}

type havingClause struct {
	Pos       lexer.Position
	Metric    string   `parser:"@Ident"`
	Operation string   `parser:"Dash @Ident"`
	Values    []string `parser:"LBracket @Value (ValueComma @Value)* RBracket"`
}

// Same stateful shape as the filter lexer: inside brackets a comma is a
// value separator.
var havingLexer = lexer.MustStateful(lexer.Rules{
	"Root": {
		{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_.]*`},
		{Name: "Dash", Pattern: `-`},
		{Name: "LBracket", Pattern: `\[`, Action: lexer.Push("Values")},
		{Name: "Comma", Pattern: `,`},
		{Name: "whitespace", Pattern: `\s+`},
	},
	"Values": {
		{Name: "RBracket", Pattern: `\]`, Action: lexer.Pop()},
		{Name: "ValueComma", Pattern: `,`},
		{Name: "Value", Pattern: `[^,\]]+`},
	},
})

var havingParser = participle.MustBuild[havingGrammar](
	participle.Lexer(havingLexer),
)

// Having is one resolved having clause: a numeric comparison on a requested
// metric.
type Having struct {
	Metric    *catalog.LogicalMetric
	Operation Operation
	Values    []float64
}

// String re-serializes the clause in canonical grammar form.
func (h *Having) String() string {
	values := make([]string, 0, len(h.Values))
	for _, v := range h.Values {
		values = append(values, strconv.FormatFloat(v, 'g', -1, 64))
	}
	return fmt.Sprintf("%s-%s[%s]", h.Metric.Name(), h.Operation, strings.Join(values, ","))
}

// Havings maps each constrained metric onto its having clauses, preserving
// first-appearance order.
type Havings struct {
	byName  map[string][]*Having
	metrics []*catalog.LogicalMetric
}

// NewHavings returns an empty having set.
func NewHavings() *Havings {
	return &Havings{byName: make(map[string][]*Having)}
}

func (hs *Havings) add(h *Having) {
	name := h.Metric.Name()
	if _, ok := hs.byName[name]; !ok {
		hs.metrics = append(hs.metrics, h.Metric)
	}
	hs.byName[name] = append(hs.byName[name], h)
}

// Metrics returns the constrained metrics in first-appearance order.
func (hs *Havings) Metrics() []*catalog.LogicalMetric {
	return append([]*catalog.LogicalMetric(nil), hs.metrics...)
}

// On returns the clauses constraining the named metric.
func (hs *Havings) On(metric string) []*Having {
	return hs.byName[metric]
}

// All returns every clause in first-appearance order.
func (hs *Havings) All() []*Having {
	var out []*Having
	for _, m := range hs.metrics {
		out = append(out, hs.byName[m.Name()]...)
	}
	return out
}

// Len returns the number of clauses.
func (hs *Havings) Len() int {
	n := 0
	for _, clauses := range hs.byName {
		n += len(clauses)
	}
	return n
}

// String re-serializes the whole set in canonical grammar form.
func (hs *Havings) String() string {
	parts := make([]string, 0, hs.Len())
	for _, h := range hs.All() {
		parts = append(parts, h.String())
	}
	return strings.Join(parts, ",")
}

// Parse parses a having query against the set of metrics the request asked
// for. The empty query yields an empty set; a clause naming a metric
// outside the requested set fails.
func Parse(havingQuery string, requested *catalog.MetricSet) (*Havings, error) {
	out := NewHavings()
	if strings.TrimSpace(havingQuery) == "" {
		return out, nil
	}
	parsed, err := havingParser.ParseString("", havingQuery)
	if err != nil {
		return nil, query.Badf("having", havingQuery, "invalid having syntax: %s", err)
	}
	for _, clause := range parsed.Clauses {
		metric, ok := requested.FindByName(clause.Metric)
		if !ok {
			return nil, query.Badf("having", clause.Metric,
				"having references a metric the request does not ask for").
				WithAlternatives(requested.Names()...)
		}
		op, err := ParseOperation(clause.Operation)
		if err != nil {
			return nil, err
		}
		values := make([]float64, 0, len(clause.Values))
		for _, v := range clause.Values {
			n, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				return nil, query.Badf("having", v,
					"having value for metric %s is not a number", clause.Metric)
			}
			values = append(values, n)
		}
		if len(values) == 0 {
			return nil, query.Badf("having", clause.Metric, "having requires at least one value")
		}
		out.add(&Having{Metric: metric, Operation: op, Values: values})
	}
	return out, nil
}
