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

package having

// NodeOp is a combinator in the combined having tree.
type NodeOp string

// Tree combinators. A leaf node carries a Having and no children.
const (
	NodeAnd  NodeOp = "and"
	NodeOr   NodeOp = "or"
	NodeLeaf NodeOp = "leaf"
)

// Node is the combined having predicate tree the downstream query builder
// consumes.
type Node struct {
	Having   *Having
	Op       NodeOp
	Children []*Node
}

// Leaf wraps a single having clause.
func Leaf(h *Having) *Node {
	return &Node{Op: NodeLeaf, Having: h}
}

// And combines children conjunctively, flattening the degenerate cases.
func And(children ...*Node) *Node {
	switch len(children) {
	case 0:
		return nil
	case 1:
		return children[0]
	default:
		return &Node{Op: NodeAnd, Children: children}
	}
}

// Combiner folds a having set into one predicate tree. Callers may supply
// their own; the assembler falls back to DefaultCombiner.
type Combiner interface {
	Combine(havings *Havings) *Node
}

// DefaultCombiner combines every clause conjunctively: all havings must
// hold.
type DefaultCombiner struct{}

// Combine implements Combiner.
func (DefaultCombiner) Combine(havings *Havings) *Node {
	if havings == nil || havings.Len() == 0 {
		return nil
	}
	leaves := make([]*Node, 0, havings.Len())
	for _, h := range havings.All() {
		leaves = append(leaves, Leaf(h))
	}
	return And(leaves...)
}
