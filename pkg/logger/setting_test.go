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

package logger

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetLoggerFromConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Logging
		want    zerolog.Level
		wantErr bool
	}{
		{
			name: "golden path",
			cfg:  Logging{Env: "prod", Level: "info"},
			want: zerolog.InfoLevel,
		},
		{
			name: "development mode",
			cfg:  Logging{Env: "dev", Level: "info"},
			want: zerolog.InfoLevel,
		},
		{
			name: "debug level",
			cfg:  Logging{Env: "prod", Level: "debug"},
			want: zerolog.DebugLevel,
		},
		{
			name:    "invalid level",
			cfg:     Logging{Env: "prod", Level: "invalid"},
			wantErr: true,
		},
		{
			name: "module overrides",
			cfg: Logging{
				Env: "prod", Level: "info",
				Modules: []string{"liaison-http"},
				Levels:  []string{"debug"},
			},
			want: zerolog.InfoLevel,
		},
		{
			name: "modules without levels",
			cfg: Logging{
				Env: "prod", Level: "info",
				Modules: []string{"liaison-http"},
			},
			wantErr: true,
		},
		{
			name: "invalid module level",
			cfg: Logging{
				Env: "prod", Level: "info",
				Modules: []string{"liaison-http"},
				Levels:  []string{"loud"},
			},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := getLogger(tt.cfg)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, l)
			assert.Equal(t, rootName, l.Module())
			assert.Equal(t, tt.want, l.GetLevel())
		})
	}
}

func TestNamedModuleLevel(t *testing.T) {
	require.NoError(t, Init(Logging{
		Env: "prod", Level: "warn",
		Modules: []string{"liaison-http"},
		Levels:  []string{"debug"},
	}))
	l := GetLogger()

	named := l.Named("liaison-http")
	assert.Equal(t, "LIAISON-HTTP", named.Module())
	assert.Equal(t, zerolog.DebugLevel, named.GetLevel())

	other := l.Named("catalog")
	assert.Equal(t, zerolog.WarnLevel, other.GetLevel())
}

func TestGetLoggerDefaults(t *testing.T) {
	l := GetLogger()
	require.NotNil(t, l)
	scoped := GetLogger("query", "request")
	require.NotNil(t, scoped)
	assert.Equal(t, "QUERY.REQUEST", scoped.Module())
}
