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
	"strings"

	"github.com/metronomedb/metronome/pkg/query"
)

// Format identifies the response serialization requested by the caller.
type Format string

// Supported response formats. JSON is the default when the request leaves
// the format unset.
const (
	FormatJSON    Format = "json"
	FormatCSV     Format = "csv"
	FormatJSONAPI Format = "jsonapi"
)

func formatNames() []string {
	return []string{string(FormatJSON), string(FormatCSV), string(FormatJSONAPI)}
}

// ParseFormat maps a raw format token to a Format. The empty token selects
// JSON. Matching is case-insensitive.
func ParseFormat(token string) (Format, error) {
	if token == "" {
		return FormatJSON, nil
	}
	switch f := Format(strings.ToLower(token)); f {
	case FormatJSON, FormatCSV, FormatJSONAPI:
		return f, nil
	default:
		return "", query.Badf("format", token, "unknown response format %q", token).
			WithAlternatives(formatNames()...)
	}
}
