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

// Package orderby parses the sort grammar
//
//	sortQuery := column ('|' direction)? (',' column ('|' direction)?)*
//
// into an ordered column list. Only metrics and the literal dateTime column
// are sortable; a dateTime sort must come first and is split into its own
// slot.
package orderby

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/metronomedb/metronome/pkg/catalog"
	"github.com/metronomedb/metronome/pkg/query"
)

// DateTimeColumn is the literal token addressing the time bucket column.
const DateTimeColumn = "dateTime"

// Direction orders a sorted column.
type Direction string

// Sort directions. The grammar defaults to descending when the direction
// is omitted.
const (
	Desc Direction = "desc"
	Asc  Direction = "asc"
)

// ParseDirection maps a direction token, case-insensitively, onto a
// Direction. The empty token yields the default.
func ParseDirection(token string) (Direction, error) {
	switch strings.ToLower(token) {
	case "":
		return Desc, nil
	case string(Desc):
		return Desc, nil
	case string(Asc):
		return Asc, nil
	default:
		return "", query.Badf("sorts", token, "unknown sort direction").
			WithAlternatives(string(Asc), string(Desc))
	}
}

// Column is one sort column with its direction.
type Column struct {
	Name      string
	Direction Direction
}

// String re-serializes the column in grammar form.
func (c Column) String() string {
	return fmt.Sprintf("%s|%s", c.Name, c.Direction)
}

//nolint:govet // struct layout is the sort grammar
type sortGrammar struct {
	Columns []*sortColumn `parser:"@@ (',' @@)*"`
}

type sortColumn struct {
	Pos       lexer.Position
	Name      string `parser:"@Ident"`
	Direction string `parser:"('|' @Ident)?"`
}

var sortLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_.]*`},
	{Name: "Punct", Pattern: `[|,]`},
	{Name: "whitespace", Pattern: `\s+`},
})

var sortParser = participle.MustBuild[sortGrammar](
	participle.Lexer(sortLexer),
)

// Parse parses a sort query into ordered columns. A column token appearing
// twice is an error rather than a silent overwrite. The empty query yields
// no columns.
func Parse(sortQuery string) ([]Column, error) {
	if strings.TrimSpace(sortQuery) == "" {
		return nil, nil
	}
	parsed, err := sortParser.ParseString("", sortQuery)
	if err != nil {
		return nil, query.Badf("sorts", sortQuery, "invalid sort syntax: %s", err)
	}
	seen := make(map[string]struct{}, len(parsed.Columns))
	out := make([]Column, 0, len(parsed.Columns))
	for _, col := range parsed.Columns {
		if _, dup := seen[col.Name]; dup {
			return nil, query.Badf("sorts", col.Name, "duplicate sort column")
		}
		seen[col.Name] = struct{}{}
		dir, err := ParseDirection(col.Direction)
		if err != nil {
			return nil, err
		}
		out = append(out, Column{Name: col.Name, Direction: dir})
	}
	return out, nil
}

// SplitDateTime extracts the dateTime sort, which must be the first column
// if present, and returns the remaining columns.
func SplitDateTime(columns []Column) (dateTime *Column, rest []Column, err error) {
	for i, col := range columns {
		if col.Name != DateTimeColumn {
			continue
		}
		if i != 0 {
			return nil, nil, query.Badf("sorts", DateTimeColumn,
				"the dateTime sort must be the first sort column")
		}
		dt := col
		return &dt, append([]Column(nil), columns[1:]...), nil
	}
	return nil, columns, nil
}

// ResolveMetrics checks every remaining sort column against the requested
// metric set. Sorting by a dimension is unsupported and is reported
// distinctly from an unknown column.
func ResolveMetrics(columns []Column, requested *catalog.MetricSet, table *catalog.LogicalTable) ([]Column, error) {
	for _, col := range columns {
		if requested.Contains(col.Name) {
			continue
		}
		if table != nil && table.Dimensions().Contains(col.Name) {
			return nil, query.Badf("sorts", col.Name,
				"sorting is supported on metrics and %s only, not dimensions", DateTimeColumn)
		}
		return nil, query.Badf("sorts", col.Name,
			"sort references a metric the request does not ask for").
			WithAlternatives(append(requested.Names(), DateTimeColumn)...)
	}
	return columns, nil
}
