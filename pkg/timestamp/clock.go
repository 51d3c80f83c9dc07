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
	"time"

	"github.com/benbjohnson/clock"
)

// Clock is the time source handed to request-facing code; the compiler core
// itself always takes an explicit now so construction is deterministic.
type Clock interface {
	clock.Clock
}

// MockClock is a clock that only moves when told to, for pinning now in
// tests.
type MockClock interface {
	clock.Clock
	// Add moves the current time forward by d.
	Add(d time.Duration)
	// Set pins the current time to t.
	Set(t time.Time)
}

// NewClock returns a real-time clock.
func NewClock() Clock {
	return clock.New()
}

// NewMockClock returns a programmable clock.
func NewMockClock() MockClock {
	return clock.NewMock()
}
