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
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/metronomedb/metronome/pkg/query/request"
	"github.com/metronomedb/metronome/pkg/run"
	"github.com/metronomedb/metronome/pkg/timestamp"
)

const testCatalog = `
dimensions:
  - name: color
    aggregatable: true
    fields:
      - name: id
      - name: desc
    defaultFields: [id]
  - name: shape
    fields:
      - name: id
metrics:
  - name: height
  - name: width
tables:
  - name: shapes
    grains: [day, week]
    dimensions: [color, shape]
    metrics: [height, width]
`

type stubExecutor struct {
	result *Result
	err    error
	got    *request.Request
}

func (s *stubExecutor) Execute(_ context.Context, req *request.Request) (*Result, error) {
	s.got = req
	return s.result, s.err
}

func newTestServer(t *testing.T, exec Executor) *server {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testCatalog), 0o600))

	mc := timestamp.NewMockClock()
	mc.Set(time.Date(2024, time.May, 16, 13, 42, 0, 0, time.UTC))

	p := NewServer(exec).(*server)
	p.clock = mc
	p.catalogFile = path
	p.timeZone = "UTC"
	p.asyncAfter = request.AsyncAfterNeverValue
	p.perPage = 10000
	p.page = 1
	p.partialText = true
	require.NoError(t, p.PreRun(context.Background()))
	return p
}

func TestHandleDataJSON(t *testing.T) {
	req := require.New(t)
	exec := &stubExecutor{result: &Result{
		Columns: []string{"dateTime", "height"},
		Rows: []Row{
			{"dateTime": "2024-05-01", "height": 4.0},
			{"dateTime": "2024-05-02", "height": 7.0},
		},
	}}
	p := newTestServer(t, exec)

	rec := httptest.NewRecorder()
	p.mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
		"/api/v1/data/shapes/day?metrics=height&dateTime=2024-05-01/2024-05-03", nil))

	req.Equal(http.StatusOK, rec.Code)
	req.Equal("application/json", rec.Header().Get("Content-Type"))
	req.NotEmpty(rec.Header().Get(headerRequestID))

	var body map[string]any
	req.NoError(json.Unmarshal(rec.Body.Bytes(), &body))
	want := map[string]any{
		"meta": map[string]any{
			"pagination": map[string]any{
				"page":            1.0,
				"perPage":         10000.0,
				"numPages":        1.0,
				"numberOfResults": 2.0,
			},
		},
		"columns": []any{"dateTime", "height"},
		"rows": []any{
			map[string]any{"dateTime": "2024-05-01", "height": 4.0},
			map[string]any{"dateTime": "2024-05-02", "height": 7.0},
		},
	}
	if diff := cmp.Diff(want, body); diff != "" {
		t.Errorf("response body mismatch (-want +got):\n%s", diff)
	}

	req.NotNil(exec.got)
	req.Equal("shapes", exec.got.Table().Name())
	req.Equal("day", exec.got.Granularity().Name())
}

func TestHandleDataDimensionPath(t *testing.T) {
	req := require.New(t)
	exec := &stubExecutor{result: &Result{}}
	p := newTestServer(t, exec)

	rec := httptest.NewRecorder()
	p.mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
		"/api/v1/data/shapes/day/color;show=id,desc/shape?metrics=height&dateTime=2024-05-01/2024-05-03", nil))

	req.Equal(http.StatusOK, rec.Code)
	req.NotNil(exec.got)
	req.Equal([]string{"color", "shape"}, exec.got.Dimensions().Names())
	req.Len(exec.got.Projections(), 2)
}

func TestHandleDataBadRequest(t *testing.T) {
	req := require.New(t)
	p := newTestServer(t, &stubExecutor{result: &Result{}})

	rec := httptest.NewRecorder()
	p.mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
		"/api/v1/data/shapes/day?metrics=girth&dateTime=2024-05-01/2024-05-03", nil))

	req.Equal(http.StatusBadRequest, rec.Code)
	req.Equal("application/json", rec.Header().Get("Content-Type"))
	var body errorBody
	req.NoError(json.Unmarshal(rec.Body.Bytes(), &body))
	req.Equal("metrics", body.Field)
	req.Equal("girth", body.Value)
	req.NotEmpty(body.Description)
	req.Contains(body.Alternatives, "height")
}

func TestHandleDataExecutorError(t *testing.T) {
	req := require.New(t)
	p := newTestServer(t, &stubExecutor{err: errors.New("backend down")})

	rec := httptest.NewRecorder()
	p.mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
		"/api/v1/data/shapes/day?metrics=height&dateTime=2024-05-01/2024-05-03", nil))

	req.Equal(http.StatusInternalServerError, rec.Code)
	req.JSONEq(`{"description":"internal error"}`, rec.Body.String())
}

func TestHandleDataCSV(t *testing.T) {
	req := require.New(t)
	exec := &stubExecutor{result: &Result{
		Columns: []string{"dateTime", "height"},
		Rows: []Row{
			{"dateTime": "2024-05-01", "height": 4},
		},
	}}
	p := newTestServer(t, exec)

	rec := httptest.NewRecorder()
	p.mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
		"/api/v1/data/shapes/day?metrics=height&dateTime=2024-05-01/2024-05-03&format=csv", nil))

	req.Equal(http.StatusOK, rec.Code)
	req.Equal("text/csv", rec.Header().Get("Content-Type"))
	req.Equal("dateTime,height\n2024-05-01,4\n", rec.Body.String())
}

func TestHandleDataLinkHeaders(t *testing.T) {
	req := require.New(t)
	rows := make([]Row, 25)
	for i := range rows {
		rows[i] = Row{"height": i}
	}
	p := newTestServer(t, &stubExecutor{result: &Result{Columns: []string{"height"}, Rows: rows}})

	rec := httptest.NewRecorder()
	p.mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
		"/api/v1/data/shapes/day?metrics=height&dateTime=2024-05-01/2024-05-03&perPage=10&page=2", nil))

	req.Equal(http.StatusOK, rec.Code)
	links := rec.Header().Values("Link")
	req.Len(links, 4)
	rels := map[string]bool{}
	for _, l := range links {
		req.Contains(l, "page=")
		for _, rel := range []string{"first", "last", "next", "prev"} {
			if strings.HasSuffix(l, fmt.Sprintf("rel=%q", rel)) {
				rels[rel] = true
			}
		}
	}
	req.Equal(map[string]bool{"first": true, "last": true, "next": true, "prev": true}, rels)
}

func TestRequestIDEcho(t *testing.T) {
	req := require.New(t)
	p := newTestServer(t, &stubExecutor{result: &Result{}})

	r := httptest.NewRequest(http.MethodGet,
		"/api/v1/data/shapes/day?metrics=height&dateTime=2024-05-01/2024-05-03", nil)
	r.Header.Set(headerRequestID, "fixed-id")
	rec := httptest.NewRecorder()
	p.mux.ServeHTTP(rec, r)

	req.Equal("fixed-id", rec.Header().Get(headerRequestID))
}

func TestServerLifecycle(t *testing.T) {
	req := require.New(t)
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	req.NoError(os.WriteFile(path, []byte(testCatalog), 0o600))

	srv := NewServer(nil)
	tester, stopTester := run.NewTester("tester")
	g := run.NewGroup("liaison-test")
	g.Register(tester, srv)
	fs := g.RegisterFlags()
	req.NoError(fs.Parse([]string{"--catalog-file", path, "--http-port", "0"}))

	errCh := make(chan error, 1)
	go func() {
		errCh <- g.Run(context.Background())
	}()
	g.WaitTillReady()
	stopTester()

	select {
	case err := <-errCh:
		req.NoError(err)
	case <-time.After(10 * time.Second):
		t.Fatal("liaison group did not stop")
	}
}

func TestServerValidate(t *testing.T) {
	req := require.New(t)
	p := NewServer(nil).(*server)
	p.host = "localhost"
	p.port = 9822
	req.ErrorIs(p.Validate(), errNoCatalog)
	p.catalogFile = "catalog.yaml"
	req.NoError(p.Validate())
	req.Equal("localhost:9822", p.listenAddr)
}
