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

package catalog

import "github.com/pkg/errors"

// LogicalMetric is a named, computable aggregate quantity.
type LogicalMetric struct {
	name     string
	longName string
	category string
}

// NewLogicalMetric builds a metric. longName and category may be empty.
func NewLogicalMetric(name, longName, category string) *LogicalMetric {
	if longName == "" {
		longName = name
	}
	return &LogicalMetric{name: name, longName: longName, category: category}
}

// Name returns the metric name.
func (m *LogicalMetric) Name() string { return m.name }

// LongName returns the display name.
func (m *LogicalMetric) LongName() string { return m.longName }

// Category returns the reporting category, or "" when uncategorized.
func (m *LogicalMetric) Category() string { return m.category }

// MetricDictionary maps metric names onto logical metrics. A dictionary may
// carry named scopes; Scope returns the view holding only the metrics
// registered under a logical table's name.
type MetricDictionary struct {
	index  map[string]*LogicalMetric
	scopes map[string]*MetricDictionary
	order  []string
}

// NewMetricDictionary returns an empty dictionary.
func NewMetricDictionary() *MetricDictionary {
	return &MetricDictionary{
		index:  make(map[string]*LogicalMetric),
		scopes: make(map[string]*MetricDictionary),
	}
}

// Add registers a metric globally and under each of the named scopes.
func (d *MetricDictionary) Add(metric *LogicalMetric, scopes ...string) error {
	if _, ok := d.index[metric.Name()]; !ok {
		d.index[metric.Name()] = metric
		d.order = append(d.order, metric.Name())
	}
	for _, scope := range scopes {
		sub, ok := d.scopes[scope]
		if !ok {
			sub = NewMetricDictionary()
			d.scopes[scope] = sub
		}
		if _, ok := sub.index[metric.Name()]; ok {
			return errors.Wrapf(ErrDuplicateEntry, "metric %s in scope %s", metric.Name(), scope)
		}
		sub.index[metric.Name()] = metric
		sub.order = append(sub.order, metric.Name())
	}
	return nil
}

// Scope returns the dictionary view for the named scope. An unknown scope
// yields an empty view, so lookups against it fail per metric.
func (d *MetricDictionary) Scope(name string) *MetricDictionary {
	if sub, ok := d.scopes[name]; ok {
		return sub
	}
	return NewMetricDictionary()
}

// FindByName looks a metric up by name.
func (d *MetricDictionary) FindByName(name string) (*LogicalMetric, bool) {
	m, ok := d.index[name]
	return m, ok
}

// Names returns registered metric names in registration order.
func (d *MetricDictionary) Names() []string {
	return append([]string(nil), d.order...)
}

// MetricSet is a unique, insertion-ordered set of logical metrics.
// Re-adding a metric keeps its first-seen position.
type MetricSet struct {
	index map[string]*LogicalMetric
	list  []*LogicalMetric
}

// NewMetricSet returns a set holding the given metrics.
func NewMetricSet(metrics ...*LogicalMetric) *MetricSet {
	s := &MetricSet{index: make(map[string]*LogicalMetric)}
	for _, m := range metrics {
		s.Add(m)
	}
	return s
}

// Add inserts a metric, collapsing duplicates to the first occurrence.
func (s *MetricSet) Add(m *LogicalMetric) {
	if _, ok := s.index[m.Name()]; ok {
		return
	}
	s.index[m.Name()] = m
	s.list = append(s.list, m)
}

// Contains reports whether a metric with the given name is in the set.
func (s *MetricSet) Contains(name string) bool {
	_, ok := s.index[name]
	return ok
}

// FindByName looks a metric up by name.
func (s *MetricSet) FindByName(name string) (*LogicalMetric, bool) {
	m, ok := s.index[name]
	return m, ok
}

// List returns the metrics in insertion order.
func (s *MetricSet) List() []*LogicalMetric {
	return append([]*LogicalMetric(nil), s.list...)
}

// Names returns the metric names in insertion order.
func (s *MetricSet) Names() []string {
	names := make([]string, 0, len(s.list))
	for _, m := range s.list {
		names = append(names, m.Name())
	}
	return names
}

// Len returns the number of metrics in the set.
func (s *MetricSet) Len() int { return len(s.list) }
