// Copyright 2021-present The Atlas Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

package sqlite

import "strings"

// A Builder assembles single-line, whitespace-normalized SQL statements.
// The dialect uses lowercase keywords and bare (unquoted) identifiers.
type Builder struct {
	sb strings.Builder
}

// Build returns a builder seeded with the given phrase.
func Build(phrase string) *Builder {
	b := &Builder{}
	return b.P(phrase)
}

// P appends each non-empty phrase, space-separated.
func (b *Builder) P(phrases ...string) *Builder {
	for _, p := range phrases {
		if p == "" {
			continue
		}
		b.pad()
		b.sb.WriteString(p)
	}
	return b
}

// Ident appends an identifier.
func (b *Builder) Ident(name string) *Builder {
	return b.P(name)
}

// Comma appends ", " directly after the previous token.
func (b *Builder) Comma() *Builder {
	b.sb.WriteString(", ")
	return b
}

// Wrap runs f inside parentheses attached to the current statement.
func (b *Builder) Wrap(f func(*Builder)) *Builder {
	b.pad()
	b.sb.WriteByte('(')
	f(b)
	b.sb.WriteByte(')')
	return b
}

// MapComma runs f for the indexes [0, n), comma-separating each part.
func (b *Builder) MapComma(n int, f func(i int, b *Builder)) *Builder {
	for i := 0; i < n; i++ {
		if i > 0 {
			b.Comma()
		}
		f(i, b)
	}
	return b
}

// String returns the assembled statement.
func (b *Builder) String() string {
	return b.sb.String()
}

// pad writes a separating space unless the statement is empty or ends
// in an opening paren or a space.
func (b *Builder) pad() {
	s := b.sb.String()
	if s == "" {
		return
	}
	switch s[len(s)-1] {
	case ' ', '(':
	default:
		b.sb.WriteByte(' ')
	}
}
