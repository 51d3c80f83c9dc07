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
	"time"
)

// TimeRange is a half-open range [Start, End) into which data can be
// retrieved.
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// NewTimeRange returns the half-open range [start, end).
func NewTimeRange(start, end time.Time) TimeRange {
	return TimeRange{Start: start, End: end}
}

// Duration returns the span of the range.
func (t TimeRange) Duration() time.Duration {
	return t.End.Sub(t.Start)
}

// Contains reports whether the instant falls inside the range.
func (t TimeRange) Contains(tp time.Time) bool {
	return !tp.Before(t.Start) && tp.Before(t.End)
}

// Overlapping reports whether two ranges intersect. Touching endpoints do
// not overlap since ranges are half-open.
func (t TimeRange) Overlapping(other TimeRange) bool {
	return t.Start.Before(other.End) && other.Start.Before(t.End)
}

// Equal reports whether both endpoints denote the same instants.
func (t TimeRange) Equal(other TimeRange) bool {
	return t.Start.Equal(other.Start) && t.End.Equal(other.End)
}

// String formats the range as an ISO-style interval.
func (t TimeRange) String() string {
	return fmt.Sprintf("[%s, %s)",
		t.Start.Format(time.RFC3339), t.End.Format(time.RFC3339))
}
