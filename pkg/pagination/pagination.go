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

// Package pagination slices a fully materialized, ordered result collection
// into pages with link metadata. It is driven by, but not part of, the
// request compiler.
package pagination

// Parameters selects one page of a result collection. Both values are
// one-based and positive.
type Parameters struct {
	PerPage int
	Page    int
}

// Links carries the page numbers clients navigate by. A zero value means
// the link does not apply.
type Links struct {
	First    int
	Last     int
	Next     int
	Previous int
}

// Page is one slice of the full result collection.
type Page[T any] struct {
	Data     []T
	Number   int
	PerPage  int
	NumPages int
	Total    int
}

// Paginate slices data per the parameters. A page past the end yields an
// empty page whose link metadata still points at the real pages.
func Paginate[T any](data []T, p Parameters) Page[T] {
	total := len(data)
	numPages := 0
	if p.PerPage > 0 {
		numPages = (total + p.PerPage - 1) / p.PerPage
	}
	page := Page[T]{
		Number:   p.Page,
		PerPage:  p.PerPage,
		NumPages: numPages,
		Total:    total,
	}
	start := (p.Page - 1) * p.PerPage
	if start < 0 || start >= total {
		return page
	}
	end := start + p.PerPage
	if end > total {
		end = total
	}
	page.Data = data[start:end]
	return page
}

// Links returns the navigation metadata for the page.
func (p Page[T]) Links() Links {
	if p.NumPages == 0 {
		return Links{}
	}
	l := Links{First: 1, Last: p.NumPages}
	if p.Number > 1 {
		l.Previous = p.Number - 1
		if l.Previous > p.NumPages {
			l.Previous = p.NumPages
		}
	}
	if p.Number < p.NumPages {
		l.Next = p.Number + 1
	}
	return l
}
