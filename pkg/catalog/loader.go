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

import (
	"os"

	"github.com/pkg/errors"
	"sigs.k8s.io/yaml"
)

// FieldSpec describes one dimension field in a catalog document.
type FieldSpec struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// DimensionDoc describes one dimension in a catalog document.
type DimensionDoc struct {
	Name          string      `json:"name"`
	Fields        []FieldSpec `json:"fields,omitempty"`
	DefaultFields []string    `json:"defaultFields,omitempty"`
	Aggregatable  bool        `json:"aggregatable,omitempty"`
}

// MetricDoc describes one logical metric in a catalog document.
type MetricDoc struct {
	Name     string `json:"name"`
	LongName string `json:"longName,omitempty"`
	Category string `json:"category,omitempty"`
}

// TableDoc describes one logical table in a catalog document. The table is
// registered once per grain it reports at.
type TableDoc struct {
	Name       string   `json:"name"`
	Grains     []string `json:"grains"`
	Dimensions []string `json:"dimensions,omitempty"`
	Metrics    []string `json:"metrics"`
}

// Document is the on-disk shape of a catalog.
type Document struct {
	Dimensions []DimensionDoc `json:"dimensions"`
	Metrics    []MetricDoc    `json:"metrics"`
	Tables     []TableDoc     `json:"tables"`
}

// LoadFile reads a YAML catalog document from path and builds the
// dictionaries.
func LoadFile(path string) (Catalogs, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Catalogs{}, errors.Wrapf(err, "read catalog %s", path)
	}
	return Load(raw)
}

// Load builds the dictionaries from a YAML catalog document.
func Load(raw []byte) (Catalogs, error) {
	var doc Document
	if err := yaml.UnmarshalStrict(raw, &doc); err != nil {
		return Catalogs{}, errors.Wrap(err, "parse catalog")
	}
	return Build(doc)
}

// Build materializes a catalog document into dictionaries ready for request
// compilation.
func Build(doc Document) (Catalogs, error) {
	c := Catalogs{
		Dimensions: NewDimensionDictionary(),
		Metrics:    NewMetricDictionary(),
		Tables:     NewTableDictionary(),
	}
	for _, dd := range doc.Dimensions {
		fields := make([]Field, 0, len(dd.Fields))
		for _, f := range dd.Fields {
			fields = append(fields, Field{Name: f.Name, Description: f.Description})
		}
		dim, err := NewDimension(DimensionSpec{
			Name:          dd.Name,
			Fields:        fields,
			DefaultFields: dd.DefaultFields,
			Aggregatable:  dd.Aggregatable,
		})
		if err != nil {
			return Catalogs{}, err
		}
		if err := c.Dimensions.Add(dim); err != nil {
			return Catalogs{}, err
		}
	}
	metrics := make(map[string]*LogicalMetric, len(doc.Metrics))
	for _, md := range doc.Metrics {
		m := NewLogicalMetric(md.Name, md.LongName, md.Category)
		metrics[md.Name] = m
	}
	for _, td := range doc.Tables {
		if len(td.Grains) == 0 {
			return Catalogs{}, errors.Errorf("catalog: table %s declares no grains", td.Name)
		}
		dims := NewDimensionSet()
		for _, name := range td.Dimensions {
			dim, ok := c.Dimensions.FindByName(name)
			if !ok {
				return Catalogs{}, errors.Errorf("catalog: table %s references unknown dimension %s", td.Name, name)
			}
			dims.Add(dim)
		}
		set := NewMetricSet()
		for _, name := range td.Metrics {
			m, ok := metrics[name]
			if !ok {
				return Catalogs{}, errors.Errorf("catalog: table %s references unknown metric %s", td.Name, name)
			}
			if _, registered := c.Metrics.Scope(td.Name).FindByName(name); !registered {
				if err := c.Metrics.Add(m, td.Name); err != nil {
					return Catalogs{}, err
				}
			}
			set.Add(m)
		}
		for _, grain := range td.Grains {
			table := NewLogicalTable(TableIdentifier{Name: td.Name, Grain: grain}, dims, set)
			if err := c.Tables.Add(table); err != nil {
				return Catalogs{}, err
			}
		}
	}
	return c, nil
}
