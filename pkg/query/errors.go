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

// Package query holds types shared across the request compiler: the
// structured bad-request error and the feature flag contract.
package query

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// BadRequest is the single error kind the compiler surfaces to callers. It
// names the request field that was violated, echoes the offending raw value
// and, where a closed set of valid values exists, lists the alternatives.
// Step is filled by the assembly pipeline with the name of the step that
// raised the error.
type BadRequest struct {
	Field        string
	Value        string
	Description  string
	Step         string
	Alternatives []string
}

// Error formats the failure for clients. The format is part of the public
// contract and stays stable.
func (e *BadRequest) Error() string {
	var b strings.Builder
	b.WriteString("bad request: ")
	b.WriteString(e.Description)
	if e.Field != "" {
		fmt.Fprintf(&b, " (field %q", e.Field)
		if e.Value != "" {
			fmt.Fprintf(&b, ", value %q", e.Value)
		}
		b.WriteString(")")
	}
	if len(e.Alternatives) > 0 {
		fmt.Fprintf(&b, ", valid values: [%s]", strings.Join(e.Alternatives, ", "))
	}
	return b.String()
}

// Badf builds a BadRequest against a field and its offending raw value.
func Badf(field, value, format string, args ...interface{}) *BadRequest {
	return &BadRequest{
		Field:       field,
		Value:       value,
		Description: fmt.Sprintf(format, args...),
	}
}

// WithAlternatives attaches the set of valid values to the error.
func (e *BadRequest) WithAlternatives(alternatives ...string) *BadRequest {
	e.Alternatives = alternatives
	return e
}

// AsBadRequest unwraps err into a BadRequest if one is in its chain.
func AsBadRequest(err error) (*BadRequest, bool) {
	var br *BadRequest
	if errors.As(err, &br) {
		return br, true
	}
	return nil, false
}
