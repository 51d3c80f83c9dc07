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

// Package version embeds versioning details from git tags and branches into
// the metronomed binary.
package version

import (
	"fmt"
	"strings"
)

// build is to be populated at build time using -ldflags -X.
// Its syntax is <release tag>-<commits since release tag>-g<commit hash>-<branch name>.
var build string

// Parse returns the service's version information from the raw git label.
func Parse() string {
	v := strings.SplitN(build, "-", 4)
	// Go module tags carry the 'v'; prefix it on tags omitting it.
	if len(v[0]) > 1 && strings.ToLower(v[0])[0] != 'v' {
		v[0] = "v" + v[0]
	}
	switch {
	case len(v) != 4:
		// built without the make tooling
		return "v0.0.0-unofficial"
	case v[1] != "0":
		// non release commit point; the commit hash is prefixed with "-g"
		// (for "git"), strip it before showing the real hash
		return fmt.Sprintf("%s-%s (%s, +%s)", v[0], v[3], v[2][1:], v[1])
	case v[3] != "main":
		// specific branch release build
		return fmt.Sprintf("%s-%s", v[0], v[3])
	default:
		// main release build
		return v[0]
	}
}
