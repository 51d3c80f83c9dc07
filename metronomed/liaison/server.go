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

// Package liaison implements the http face of the data API: it compiles raw
// request parameters into validated query requests and hands them to an
// executor.
package liaison

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"

	"github.com/metronomedb/metronome/pkg/catalog"
	"github.com/metronomedb/metronome/pkg/logger"
	"github.com/metronomedb/metronome/pkg/query/request"
	"github.com/metronomedb/metronome/pkg/run"
	"github.com/metronomedb/metronome/pkg/timestamp"
)

var (
	_ run.Config  = (*server)(nil)
	_ run.Service = (*server)(nil)

	errNoAddr    = errors.New("liaison: no address")
	errNoCatalog = errors.New("liaison: no catalog file")
)

// NewServer returns the http service. A nil executor answers every query with
// an empty result set.
func NewServer(exec Executor) Server {
	if exec == nil {
		exec = noopExecutor{}
	}
	return &server{
		exec:   exec,
		clock:  timestamp.NewClock(),
		closer: run.NewCloser(1),
	}
}

// Server is the http service.
type Server interface {
	run.Unit
	GetPort() *uint32
}

type server struct {
	l           *logger.Logger
	exec        Executor
	clock       timestamp.Clock
	mux         *chi.Mux
	srv         *http.Server
	builder     *request.Builder
	closer      *run.Closer
	host        string
	listenAddr  string
	catalogFile string
	timeZone    string
	asyncAfter  string
	port        uint32
	perPage     int
	page        int
	partialText bool
}

func (p *server) FlagSet() *run.FlagSet {
	flagSet := run.NewFlagSet("http")
	flagSet.StringVar(&p.host, "http-host", "localhost", "listen host for http")
	flagSet.Uint32Var(&p.port, "http-port", 9822, "listen port for http")
	flagSet.StringVar(&p.catalogFile, "catalog-file", "", "path to the yaml catalog of dimensions, metrics and tables")
	flagSet.StringVar(&p.timeZone, "default-timezone", "UTC", "time zone applied when a request names none")
	flagSet.StringVar(&p.asyncAfter, "default-async-after", request.AsyncAfterNeverValue, "synchronous-wait budget applied when a request names none")
	flagSet.IntVar(&p.perPage, "default-per-page", 10000, "rows per page applied when a request names none")
	flagSet.IntVar(&p.page, "default-page", 1, "page number applied when a request names none")
	flagSet.BoolVar(&p.partialText, "enable-partial-text-operators", false, "allow the startswith and contains filter operations")
	return flagSet
}

func (p *server) Validate() error {
	p.listenAddr = net.JoinHostPort(p.host, strconv.FormatUint(uint64(p.port), 10))
	if p.listenAddr == ":" {
		return errNoAddr
	}
	if p.catalogFile == "" {
		return errNoCatalog
	}
	return nil
}

func (p *server) Name() string {
	return "liaison-http"
}

func (p *server) GetPort() *uint32 {
	return &p.port
}

func (p *server) PreRun(_ context.Context) error {
	p.l = logger.GetLogger(p.Name())
	catalogs, err := catalog.LoadFile(p.catalogFile)
	if err != nil {
		return err
	}
	loc, err := time.LoadLocation(p.timeZone)
	if err != nil {
		return errors.Wrapf(err, "liaison: bad default time zone %s", p.timeZone)
	}
	p.builder = request.NewBuilder(catalogs, request.Config{
		DefaultPerPage:       p.perPage,
		DefaultPage:          p.page,
		DefaultAsyncAfter:    p.asyncAfter,
		PartialTextOperators: p.partialText,
	}).WithDefaultTimeZone(loc)
	p.mux = chi.NewRouter()
	p.mux.Use(requestID)
	p.mux.Route("/api/v1", func(r chi.Router) {
		r.Get("/data/{table}/{granularity}", p.handleData)
		r.Get("/data/{table}/{granularity}/*", p.handleData)
	})
	p.srv = &http.Server{
		Addr:              p.listenAddr,
		Handler:           p.mux,
		ReadHeaderTimeout: 3 * time.Second,
	}
	return nil
}

func (p *server) Serve() run.StopNotify {
	go func() {
		p.l.Info().Str("listenAddr", p.listenAddr).Msg("start liaison http server")
		err := p.srv.ListenAndServe()
		p.closer.Done()
		if !errors.Is(err, http.ErrServerClosed) {
			p.l.Error().Err(err).Msg("http server exited")
			p.closer.CloseThenWait()
		}
	}()
	return p.closer.CloseNotify()
}

func (p *server) GracefulStop() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := p.srv.Shutdown(ctx); err != nil {
		_ = p.srv.Close()
	}
	p.closer.CloseThenWait()
	p.l.Info().Msg("liaison http server stopped")
}
