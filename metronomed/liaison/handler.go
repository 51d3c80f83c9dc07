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

package liaison

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/metronomedb/metronome/pkg/pagination"
	"github.com/metronomedb/metronome/pkg/query"
	"github.com/metronomedb/metronome/pkg/query/request"
)

// Row is a single result row keyed by column name.
type Row map[string]any

// Result is the backend answer to a compiled query request.
type Result struct {
	Columns []string
	Rows    []Row
}

// Executor runs compiled query requests against a backend.
type Executor interface {
	Execute(ctx context.Context, req *request.Request) (*Result, error)
}

type noopExecutor struct{}

func (noopExecutor) Execute(_ context.Context, _ *request.Request) (*Result, error) {
	return &Result{}, nil
}

const headerRequestID = "X-Request-Id"

func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(headerRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(headerRequestID, id)
		next.ServeHTTP(w, r)
	})
}

func (p *server) handleData(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := request.Params{
		Now:         p.clock.Now(),
		Table:       chi.URLParam(r, "table"),
		Granularity: chi.URLParam(r, "granularity"),
		Dimensions:  splitDimensionPath(chi.URLParam(r, "*")),
		Metrics:     q.Get("metrics"),
		Intervals:   q.Get("dateTime"),
		Filters:     q.Get("filters"),
		Havings:     q.Get("having"),
		Sorts:       q.Get("sort"),
		Count:       q.Get("count"),
		TopN:        q.Get("topN"),
		Format:      q.Get("format"),
		TimeZone:    q.Get("timeZone"),
		AsyncAfter:  q.Get("asyncAfter"),
		PerPage:     q.Get("perPage"),
		Page:        q.Get("page"),
	}
	req, err := p.builder.Build(params)
	if err != nil {
		p.writeError(w, err)
		return
	}
	result, err := p.exec.Execute(r.Context(), req)
	if err != nil {
		p.l.Error().Err(err).Msg("query execution failed")
		http.Error(w, `{"description":"internal error"}`, http.StatusInternalServerError)
		return
	}
	page := pagination.Paginate(result.Rows, req.Pagination())
	writeLinkHeaders(w, r, page.Links())
	switch req.Format() {
	case request.FormatCSV:
		p.writeCSV(w, result.Columns, page.Data)
	default:
		p.writeJSON(w, result.Columns, page)
	}
}

func splitDimensionPath(rest string) []string {
	var tokens []string
	for _, seg := range strings.Split(rest, "/") {
		if seg = strings.TrimSpace(seg); seg != "" {
			tokens = append(tokens, seg)
		}
	}
	return tokens
}

type errorBody struct {
	Description  string   `json:"description"`
	Field        string   `json:"field,omitempty"`
	Value        string   `json:"value,omitempty"`
	Alternatives []string `json:"alternatives,omitempty"`
}

func (p *server) writeError(w http.ResponseWriter, err error) {
	br, ok := query.AsBadRequest(err)
	if !ok {
		http.Error(w, `{"description":"internal error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	_ = json.NewEncoder(w).Encode(errorBody{
		Description:  br.Description,
		Field:        br.Field,
		Value:        br.Value,
		Alternatives: br.Alternatives,
	})
}

type paginationMeta struct {
	Page     int `json:"page"`
	PerPage  int `json:"perPage"`
	NumPages int `json:"numPages"`
	Total    int `json:"numberOfResults"`
}

type dataBody struct {
	Meta struct {
		Pagination paginationMeta `json:"pagination"`
	} `json:"meta"`
	Columns []string `json:"columns,omitempty"`
	Rows    []Row    `json:"rows"`
}

func (p *server) writeJSON(w http.ResponseWriter, columns []string, page pagination.Page[Row]) {
	w.Header().Set("Content-Type", "application/json")
	body := dataBody{Columns: columns}
	body.Rows = page.Data
	if body.Rows == nil {
		body.Rows = []Row{}
	}
	body.Meta.Pagination = paginationMeta{
		Page:     page.Number,
		PerPage:  page.PerPage,
		NumPages: page.NumPages,
		Total:    page.Total,
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		p.l.Error().Err(err).Msg("write json response")
	}
}

func (p *server) writeCSV(w http.ResponseWriter, columns []string, rows []Row) {
	w.Header().Set("Content-Type", "text/csv")
	cw := csv.NewWriter(w)
	defer cw.Flush()
	if err := cw.Write(columns); err != nil {
		p.l.Error().Err(err).Msg("write csv header")
		return
	}
	record := make([]string, len(columns))
	for _, row := range rows {
		for i, col := range columns {
			record[i] = fmt.Sprint(row[col])
		}
		if err := cw.Write(record); err != nil {
			p.l.Error().Err(err).Msg("write csv row")
			return
		}
	}
}

func writeLinkHeaders(w http.ResponseWriter, r *http.Request, links pagination.Links) {
	add := func(page int, rel string) {
		if page == 0 {
			return
		}
		u := *r.URL
		q := u.Query()
		q.Set("page", strconv.Itoa(page))
		u.RawQuery = q.Encode()
		w.Header().Add("Link", fmt.Sprintf("<%s>; rel=%q", u.String(), rel))
	}
	add(links.First, "first")
	add(links.Last, "last")
	add(links.Next, "next")
	add(links.Previous, "prev")
}
