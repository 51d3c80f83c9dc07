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

// Package timestamp implements the time side of the request compiler:
// grains, the grain registry, time zones, half-open time ranges and the
// interval grammar with its relative-date macros.
package timestamp

import (
	"strings"
	"time"

	str2duration "github.com/xhit/go-str2duration/v2"

	"github.com/metronomedb/metronome/pkg/query"
)

// GrainAll is the name of the degenerate grain bucketing all of time into a
// single bucket. It has no period, so relative macros cannot anchor to it.
const GrainAll = "all"

// Grain is a time-bucketing period. Interval boundaries are floored to and
// validated against its bucket boundaries.
type Grain struct {
	name   string
	period Period
}

// Name returns the grain name.
func (g Grain) Name() string { return g.name }

// Period returns the grain's bucket period. The zero Period marks the all
// grain.
func (g Grain) Period() Period { return g.period }

// IsAll reports whether this is the degenerate all grain.
func (g Grain) IsAll() bool { return g.period.IsZero() }

func (g Grain) String() string { return g.name }

// Floor rounds t down to the grain's bucket boundary in the given zone.
// Weeks start on Monday; quarters on January, April, July and October.
func (g Grain) Floor(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	y, mo, d := t.Date()
	switch {
	case g.IsAll():
		return t
	case g.period.Months >= 12:
		return time.Date(y, time.January, 1, 0, 0, 0, 0, loc)
	case g.period.Months == 3:
		q := (int(mo) - 1) / 3
		return time.Date(y, time.Month(q*3+1), 1, 0, 0, 0, 0, loc)
	case g.period.Months > 0:
		return time.Date(y, mo, 1, 0, 0, 0, 0, loc)
	case g.period.Days >= 7:
		day := time.Date(y, mo, d, 0, 0, 0, 0, loc)
		offset := (int(day.Weekday()) + 6) % 7 // Monday-based
		return day.AddDate(0, 0, -offset)
	case g.period.Days > 0:
		return time.Date(y, mo, d, 0, 0, 0, 0, loc)
	default:
		// sub-day grains; only whole-hour grains are registered today
		return time.Date(y, mo, d, t.Hour(), 0, 0, 0, loc)
	}
}

// Aligned reports whether t lands exactly on a bucket boundary in loc. The
// all grain accepts any instant.
func (g Grain) Aligned(t time.Time, loc *time.Location) bool {
	if g.IsAll() {
		return true
	}
	return g.Floor(t, loc).Equal(t)
}

// Next returns the boundary one bucket period after t.
func (g Grain) Next(t time.Time) time.Time { return g.period.AddTo(t) }

// Prev returns the boundary one bucket period before t.
func (g Grain) Prev(t time.Time) time.Time { return g.period.Negate().AddTo(t) }

// Registry resolves grain tokens onto registered grains. Tokens may be
// grain names, ISO-8601 periods (P1D) matching a registered grain's period,
// or shorthand durations (1d) for sub-month grains.
type Registry struct {
	byName map[string]Grain
	order  []string
}

// NewRegistry returns a registry holding the standard reporting grains.
func NewRegistry() *Registry {
	r := &Registry{byName: make(map[string]Grain)}
	r.register(Grain{name: GrainAll})
	r.register(Grain{name: "hour", period: Period{Duration: time.Hour}})
	r.register(Grain{name: "day", period: Period{Days: 1}})
	r.register(Grain{name: "week", period: Period{Days: 7}})
	r.register(Grain{name: "month", period: Period{Months: 1}})
	r.register(Grain{name: "quarter", period: Period{Months: 3}})
	r.register(Grain{name: "year", period: Period{Months: 12}})
	return r
}

func (r *Registry) register(g Grain) {
	r.byName[g.name] = g
	r.order = append(r.order, g.name)
}

// Names returns the registered grain names in registration order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// Resolve maps a grain token onto a registered grain.
func (r *Registry) Resolve(token string) (Grain, error) {
	lower := strings.ToLower(strings.TrimSpace(token))
	if g, ok := r.byName[lower]; ok {
		return g, nil
	}
	if looksLikePeriod(token) {
		period, err := ParsePeriod(token)
		if err == nil {
			for _, name := range r.order {
				g := r.byName[name]
				if !g.IsAll() && g.period.Equal(period) {
					return g, nil
				}
			}
		}
		return Grain{}, query.Badf("granularity", token, "no grain matches period %s", strings.ToUpper(token)).
			WithAlternatives(r.order...)
	}
	if dur, err := str2duration.ParseDuration(lower); err == nil {
		for _, name := range r.order {
			g := r.byName[name]
			if !g.IsAll() && g.period.Months == 0 && g.period.FixedDuration() == dur {
				return g, nil
			}
		}
	}
	return Grain{}, query.Badf("granularity", token, "unknown granularity").
		WithAlternatives(r.order...)
}

func looksLikePeriod(token string) bool {
	return len(token) > 1 && (token[0] == 'P' || token[0] == 'p')
}

// ResolveTimeZone maps a zone id onto a location. A blank id yields the
// supplied default.
func ResolveTimeZone(id string, def *time.Location) (*time.Location, error) {
	if id == "" {
		if def == nil {
			return time.UTC, nil
		}
		return def, nil
	}
	loc, err := time.LoadLocation(id)
	if err != nil {
		return nil, query.Badf("timeZone", id, "unknown time zone id")
	}
	return loc, nil
}
