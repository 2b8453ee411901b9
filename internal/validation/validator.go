// Package validation provides reusable checks on tables flowing between
// pipeline stages: column existence, Arrow column types and non-empty input.
package validation

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/paveg/salesframe/internal/errors"
	"github.com/paveg/salesframe/internal/series"
)

// Validator interface for input validation
type Validator interface {
	Validate() error
}

// ColumnProvider interface for types that provide column information
type ColumnProvider interface {
	HasColumn(name string) bool
	Column(name string) (series.Column, bool)
	Len() int
}

// ColumnValidator validates column existence
type ColumnValidator struct {
	t       ColumnProvider
	columns []string
	op      string
}

// NewColumnValidator creates a validator for column operations
func NewColumnValidator(t ColumnProvider, op string, columns ...string) *ColumnValidator {
	return &ColumnValidator{
		t:       t,
		columns: columns,
		op:      op,
	}
}

// Validate checks if all columns exist in the table
func (v *ColumnValidator) Validate() error {
	for _, column := range v.columns {
		if !v.t.HasColumn(column) {
			return errors.NewColumnNotFoundError(v.op, column)
		}
	}
	return nil
}

// SchemaValidator validates that the fields of a schema exist with the
// same Arrow types and, optionally, without nulls.
type SchemaValidator struct {
	t          ColumnProvider
	schema     *arrow.Schema
	op         string
	allowNulls bool
}

// NewSchemaValidator creates a validator for the fields of schema. Nulls are
// rejected unless allowNulls is set.
func NewSchemaValidator(t ColumnProvider, op string, schema *arrow.Schema, allowNulls bool) *SchemaValidator {
	return &SchemaValidator{
		t:          t,
		schema:     schema,
		op:         op,
		allowNulls: allowNulls,
	}
}

// Validate checks presence, type and nulls of every schema field
func (v *SchemaValidator) Validate() error {
	for _, field := range v.schema.Fields() {
		col, ok := v.t.Column(field.Name)
		if !ok {
			return errors.NewColumnNotFoundError(v.op, field.Name)
		}
		if !arrow.TypeEqual(col.DataType(), field.Type) {
			return &errors.PipelineError{
				Op:      v.op,
				Column:  field.Name,
				Message: fmt.Sprintf("expected %s, got %s", field.Type, col.DataType()),
			}
		}
		if !v.allowNulls && hasNulls(col) {
			return &errors.PipelineError{Op: v.op, Column: field.Name, Message: "column contains nulls"}
		}
	}
	return nil
}

func hasNulls(col series.Column) bool {
	arr := col.Array()
	defer arr.Release()
	return arr.NullN() > 0
}

// NotEmptyValidator validates operations that need at least one row
type NotEmptyValidator struct {
	t  ColumnProvider
	op string
}

// NewNotEmptyValidator creates a validator for empty input checks
func NewNotEmptyValidator(t ColumnProvider, op string) *NotEmptyValidator {
	return &NotEmptyValidator{t: t, op: op}
}

// Validate fails with errors.ErrEmptyInput semantics on a table without rows
func (v *NotEmptyValidator) Validate() error {
	if v.t.Len() == 0 {
		return errors.NewEmptyInputError(v.op)
	}
	return nil
}

// CompoundValidator combines multiple validators
type CompoundValidator struct {
	validators []Validator
}

// NewCompoundValidator creates a validator that checks multiple conditions
func NewCompoundValidator(validators ...Validator) *CompoundValidator {
	return &CompoundValidator{
		validators: validators,
	}
}

// Validate runs all validators and returns the first error encountered
func (v *CompoundValidator) Validate() error {
	for _, validator := range v.validators {
		if err := validator.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Convenience validation functions

// ValidateColumns is a convenience function for column validation
func ValidateColumns(t ColumnProvider, op string, columns ...string) error {
	return NewColumnValidator(t, op, columns...).Validate()
}

// ValidateSchema is a convenience function for schema validation
func ValidateSchema(t ColumnProvider, op string, schema *arrow.Schema, allowNulls bool) error {
	return NewSchemaValidator(t, op, schema, allowNulls).Validate()
}

// ValidateNotEmpty is a convenience function for empty input validation
func ValidateNotEmpty(t ColumnProvider, op string) error {
	return NewNotEmptyValidator(t, op).Validate()
}
