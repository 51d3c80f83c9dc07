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

// Package filter parses the row-filter grammar
//
//	filterQuery := filter (',' filter)*
//	filter      := dimension '|' field '-' operation '[' value (',' value)* ']'
//
// into per-dimension filter sets resolved against the dimension dictionary.
// Commas inside the bracketed value list separate values, not clauses.
package filter

import (
	"github.com/metronomedb/metronome/pkg/query"
)

// Operation is a row-filter comparison kind.
type Operation string

// The recognized filter operations. StartsWith and Contains are gated by
// the partial-text feature flag.
const (
	OpEq         Operation = "eq"
	OpNotEq      Operation = "noteq"
	OpIn         Operation = "in"
	OpNotIn      Operation = "notin"
	OpStartsWith Operation = "startswith"
	OpContains   Operation = "contains"
)

var operations = []Operation{OpEq, OpNotEq, OpIn, OpNotIn, OpStartsWith, OpContains}

// OperationNames returns the recognized operation tokens.
func OperationNames() []string {
	names := make([]string, 0, len(operations))
	for _, op := range operations {
		names = append(names, string(op))
	}
	return names
}

// ParseOperation maps an operation token onto an Operation, applying the
// partial-text feature gate.
func ParseOperation(token string, flags query.FeatureFlags) (Operation, error) {
	for _, op := range operations {
		if string(op) != token {
			continue
		}
		if (op == OpStartsWith || op == OpContains) &&
			(flags == nil || !flags.Enabled(query.FlagPartialTextOperators)) {
			return "", query.Badf("filters", token,
				"filter operation %s is disabled; enable %s to use it",
				token, query.FlagPartialTextOperators)
		}
		return op, nil
	}
	return "", query.Badf("filters", token, "unknown filter operation").
		WithAlternatives(OperationNames()...)
}

// Negated reports whether the operation excludes the listed values.
func (o Operation) Negated() bool {
	return o == OpNotEq || o == OpNotIn
}
