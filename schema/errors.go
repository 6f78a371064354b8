// Copyright 2021-present The Atlas Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

package schema

import (
	"errors"
	"fmt"
)

// A TypeError reports a value whose runtime representation does not
// match the column kind.
type TypeError struct {
	Kind  Kind
	Value any
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("schema: value %v (%T) does not match kind %s", e.Value, e.Value, e.Kind)
}

// IsTypeError reports if the error is a TypeError.
func IsTypeError(err error) bool {
	var e *TypeError
	return errors.As(err, &e)
}

// A RequiredError reports a not-null column with no value at
// constraint-check time.
type RequiredError struct {
	Column string // optional; set by callers that know the column name.
}

func (e *RequiredError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("schema: column %q requires a value", e.Column)
	}
	return "schema: column requires a value"
}

// IsRequiredError reports if the error is a RequiredError.
func IsRequiredError(err error) bool {
	var e *RequiredError
	return errors.As(err, &e)
}

// An UnknownColumnError reports an input key that does not name a
// column of the schema.
type UnknownColumnError struct {
	Name string
}

func (e *UnknownColumnError) Error() string {
	return fmt.Sprintf("schema: unknown column %q", e.Name)
}

// IsUnknownColumnError reports if the error is an UnknownColumnError.
func IsUnknownColumnError(err error) bool {
	var e *UnknownColumnError
	return errors.As(err, &e)
}

// An ArityError reports a positional input whose length does not match
// the schema size.
type ArityError struct {
	Want, Got int
}

func (e *ArityError) Error() string {
	return fmt.Sprintf("schema: %d values provided for %d columns", e.Got, e.Want)
}

// IsArityError reports if the error is an ArityError.
func IsArityError(err error) bool {
	var e *ArityError
	return errors.As(err, &e)
}

// A ForeignKeyError reports a malformed or dangling foreign-key
// declaration.
type ForeignKeyError struct {
	Column string
	Ref    *Ref
}

func (e *ForeignKeyError) Error() string {
	if e.Ref == nil || e.Ref.Def == nil {
		return fmt.Sprintf("schema: column %q: foreign key must reference a model definition", e.Column)
	}
	key := e.Ref.Column
	if key == "" {
		key = "id"
	}
	return fmt.Sprintf("schema: column %q: foreign key references unknown column %s.%s", e.Column, e.Ref.Def.Name, key)
}

// IsForeignKeyError reports if the error is a ForeignKeyError.
func IsForeignKeyError(err error) bool {
	var e *ForeignKeyError
	return errors.As(err, &e)
}

// An AutofillError reports an external write to a column whose value is
// assigned internally (primary keys and fill-on-write timestamps).
type AutofillError struct {
	Value any
}

func (e *AutofillError) Error() string {
	return fmt.Sprintf("schema: column value is assigned internally, cannot be set to %v", e.Value)
}

// IsAutofillError reports if the error is an AutofillError.
func IsAutofillError(err error) bool {
	var e *AutofillError
	return errors.As(err, &e)
}
