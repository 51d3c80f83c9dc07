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
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Period is a calendar-aware span: months and days shift by calendar
// arithmetic, Duration covers the sub-day remainder. It backs both grain
// bucket periods and period-offset interval endpoints.
type Period struct {
	Duration time.Duration
	Months   int
	Days     int
}

var periodPattern = regexp.MustCompile(
	`^P(?:(\d+)Y)?(?:(\d+)M)?(?:(\d+)W)?(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?)?$`)

// ParsePeriod parses an ISO-8601 period such as P1D, P1W, P3M or PT1H.
func ParsePeriod(s string) (Period, error) {
	upper := strings.ToUpper(strings.TrimSpace(s))
	m := periodPattern.FindStringSubmatch(upper)
	if m == nil || upper == "P" {
		return Period{}, errors.Errorf("invalid ISO-8601 period %q", s)
	}
	atoi := func(s string) int {
		if s == "" {
			return 0
		}
		n, _ := strconv.Atoi(s)
		return n
	}
	p := Period{
		Months: atoi(m[1])*12 + atoi(m[2]),
		Days:   atoi(m[3])*7 + atoi(m[4]),
		Duration: time.Duration(atoi(m[5]))*time.Hour +
			time.Duration(atoi(m[6]))*time.Minute +
			time.Duration(atoi(m[7]))*time.Second,
	}
	if p.IsZero() {
		return Period{}, errors.Errorf("zero-length period %q", s)
	}
	return p, nil
}

// IsZero reports whether the period spans no time at all.
func (p Period) IsZero() bool {
	return p.Months == 0 && p.Days == 0 && p.Duration == 0
}

// Equal reports component-wise equality.
func (p Period) Equal(other Period) bool { return p == other }

// Negate flips the period's sign.
func (p Period) Negate() Period {
	return Period{Months: -p.Months, Days: -p.Days, Duration: -p.Duration}
}

// AddTo shifts t by the period using calendar arithmetic for the month and
// day components.
func (p Period) AddTo(t time.Time) time.Time {
	return t.AddDate(0, p.Months, p.Days).Add(p.Duration)
}

// FixedDuration converts day and sub-day components into a flat duration.
// Only meaningful when Months is zero.
func (p Period) FixedDuration() time.Duration {
	return time.Duration(p.Days)*24*time.Hour + p.Duration
}

func (p Period) String() string {
	var b strings.Builder
	b.WriteByte('P')
	if y := p.Months / 12; y > 0 {
		fmt.Fprintf(&b, "%dY", y)
	}
	if m := p.Months % 12; m > 0 {
		fmt.Fprintf(&b, "%dM", m)
	}
	if p.Days%7 == 0 && p.Days > 0 {
		fmt.Fprintf(&b, "%dW", p.Days/7)
	} else if p.Days > 0 {
		fmt.Fprintf(&b, "%dD", p.Days)
	}
	if p.Duration > 0 {
		b.WriteByte('T')
		d := p.Duration
		if h := d / time.Hour; h > 0 {
			fmt.Fprintf(&b, "%dH", h)
			d -= h * time.Hour
		}
		if m := d / time.Minute; m > 0 {
			fmt.Fprintf(&b, "%dM", m)
			d -= m * time.Minute
		}
		if s := d / time.Second; s > 0 {
			fmt.Fprintf(&b, "%dS", s)
		}
	}
	return b.String()
}
