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

//nolint:govet // struct layout is the filter grammar
package filter

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// The lexer is stateful: entering '[' switches to value mode where a value
// is any run of characters up to the next comma or closing bracket, so
// commas inside brackets lex as value separators rather than clause
// separators.
var filterLexer = lexer.MustStateful(lexer.Rules{
	"Root": {
		{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_.]*`},
		{Name: "Pipe", Pattern: `\|`},
		{Name: "Dash", Pattern: `-`},
		{Name: "LBracket", Pattern: `\[`, Action: lexer.Push("Values")},
		{Name: "Comma", Pattern: `,`},
		{Name: "whitespace", Pattern: `\s+`},
	},
	"Values": {
		{Name: "RBracket", Pattern: `\]`, Action: lexer.Pop()},
		{Name: "ValueComma", Pattern: `,`},
		{Name: "Value", Pattern: `[^,\]]+`},
	},
})

type filterGrammar struct {
	Clauses []*clauseGrammar `parser:"@@ (Comma @@)*"`
}

type clauseGrammar struct {
	Pos       lexer.Position
	Dimension string   `parser:"@Ident"`
	Field     string   `parser:"Pipe @Ident"`
	Operation string   `parser:"Dash @Ident"`
	Values    []string `parser:"LBracket @Value (ValueComma @Value)* RBracket"`
}

var filterParser = participle.MustBuild[filterGrammar](
	participle.Lexer(filterLexer),
)
