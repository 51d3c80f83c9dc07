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

package timestamp

import (
	"strings"
	"time"

	"github.com/metronomedb/metronome/pkg/query"
)

// Relative-date macros. Each expands against the grain bucket containing
// the injected now: current is that bucket's start, next and last are one
// bucket period after and before it.
const (
	MacroCurrent = "current"
	MacroNext    = "next"
	MacroLast    = "last"
)

var instantLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseIntervals parses a comma-separated list of start/end interval pairs.
// An endpoint is a literal timestamp, a relative-date macro, or an ISO
// period offset against the opposite endpoint; at most one endpoint of a
// pair may be a period. Every resolved endpoint must land exactly on a
// bucket boundary of g in loc. Duplicate intervals collapse, keeping
// first-seen order.
func ParseIntervals(intervalQuery string, g Grain, loc *time.Location, now time.Time) ([]TimeRange, error) {
	trimmed := strings.TrimSpace(intervalQuery)
	if trimmed == "" {
		return nil, query.Badf("intervals", intervalQuery, "at least one interval is required")
	}
	var out []TimeRange
	for _, raw := range strings.Split(trimmed, ",") {
		tr, err := parseInterval(strings.TrimSpace(raw), g, loc, now)
		if err != nil {
			return nil, err
		}
		duplicate := false
		for _, seen := range out {
			if seen.Equal(tr) {
				duplicate = true
				break
			}
		}
		if !duplicate {
			out = append(out, tr)
		}
	}
	return out, nil
}

func parseInterval(raw string, g Grain, loc *time.Location, now time.Time) (TimeRange, error) {
	parts := strings.Split(raw, "/")
	if len(parts) != 2 {
		return TimeRange{}, query.Badf("intervals", raw, "interval must be a start/end pair")
	}
	startText := strings.TrimSpace(parts[0])
	endText := strings.TrimSpace(parts[1])

	startIsPeriod := looksLikePeriod(startText)
	endIsPeriod := looksLikePeriod(endText)
	if startIsPeriod && endIsPeriod {
		return TimeRange{}, query.Badf("intervals", raw, "only one endpoint of an interval may be a period")
	}

	var start, end time.Time
	var err error
	if !startIsPeriod {
		if start, err = resolveEndpoint(startText, raw, g, loc, now); err != nil {
			return TimeRange{}, err
		}
	}
	if !endIsPeriod {
		if end, err = resolveEndpoint(endText, raw, g, loc, now); err != nil {
			return TimeRange{}, err
		}
	}
	if startIsPeriod {
		period, perr := ParsePeriod(startText)
		if perr != nil {
			return TimeRange{}, query.Badf("intervals", raw, "%s", perr)
		}
		start = period.Negate().AddTo(end)
	}
	if endIsPeriod {
		period, perr := ParsePeriod(endText)
		if perr != nil {
			return TimeRange{}, query.Badf("intervals", raw, "%s", perr)
		}
		end = period.AddTo(start)
	}

	if !start.Before(end) {
		return TimeRange{}, query.Badf("intervals", raw, "interval start must precede its end")
	}
	for _, endpoint := range []time.Time{start, end} {
		if !g.Aligned(endpoint, loc) {
			return TimeRange{}, query.Badf("intervals", raw,
				"interval endpoint %s does not align to the %s grain",
				endpoint.In(loc).Format(time.RFC3339), g.Name())
		}
	}
	return NewTimeRange(start, end), nil
}

func resolveEndpoint(text, raw string, g Grain, loc *time.Location, now time.Time) (time.Time, error) {
	switch strings.ToLower(text) {
	case MacroCurrent, MacroNext, MacroLast:
		if g.IsAll() {
			return time.Time{}, query.Badf("intervals", raw,
				"macro %s cannot anchor to the %s granularity", strings.ToLower(text), GrainAll)
		}
		current := g.Floor(now, loc)
		switch strings.ToLower(text) {
		case MacroNext:
			return g.Next(current), nil
		case MacroLast:
			return g.Prev(current), nil
		default:
			return current, nil
		}
	}
	for _, layout := range instantLayouts {
		if t, err := time.ParseInLocation(layout, text, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, query.Badf("intervals", raw, "unparsable interval endpoint %q", text).
		WithAlternatives(MacroCurrent, MacroNext, MacroLast)
}
