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

import "github.com/metronomedb/metronome/pkg/query"

// AsyncAfterNeverValue is the configuration token forcing fully synchronous
// responses.
const AsyncAfterNeverValue = "never"

// Config carries the compiler defaults. It is read once at wiring time and
// injected; the core never consults ambient configuration.
type Config struct {
	// DefaultAsyncAfter applies when the request omits asyncAfter: a
	// duration string, a millisecond count, or "never".
	DefaultAsyncAfter string
	// DefaultPerPage and DefaultPage apply when the request omits
	// pagination parameters.
	DefaultPerPage int
	DefaultPage    int
	// PartialTextOperators enables the startswith and contains filter
	// operations.
	PartialTextOperators bool
}

// Enabled implements query.FeatureFlags.
func (c Config) Enabled(name string) bool {
	switch name {
	case query.FlagPartialTextOperators:
		return c.PartialTextOperators
	default:
		return false
	}
}

func (c Config) withDefaults() Config {
	if c.DefaultPerPage <= 0 {
		c.DefaultPerPage = 10000
	}
	if c.DefaultPage <= 0 {
		c.DefaultPage = 1
	}
	if c.DefaultAsyncAfter == "" {
		c.DefaultAsyncAfter = AsyncAfterNeverValue
	}
	return c
}
