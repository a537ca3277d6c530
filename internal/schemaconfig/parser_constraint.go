package schemaconfig

import (
	"errors"
	"fmt"
	"strings"

	"relquery/internal/schema"
)

func convertTableConstraint(tc *tomlConstraint) *schema.Constraint {
	c := &schema.Constraint{
		Name:              tc.Name,
		Type:              schema.ConstraintType(tc.Type),
		Columns:           tc.Columns,
		ReferencedTable:   tc.ReferencedTable,
		ReferencedColumns: tc.ReferencedColumns,
		OnDelete:          schema.ReferentialAction(tc.OnDelete),
		OnUpdate:          schema.ReferentialAction(tc.OnUpdate),
		CheckExpression:   tc.CheckExpression,
	}

	if tc.Enforced != nil {
		c.Enforced = *tc.Enforced
	} else {
		c.Enforced = true
	}

	return c
}

func checkPKConflict(table *schema.Table) error {
	hasColumnPK := false
	for _, col := range table.Columns {
		if col.PrimaryKey {
			hasColumnPK = true
			break
		}
	}
	constraintPKCount := 0
	for _, con := range table.Constraints {
		if con.Type == schema.ConstraintPrimaryKey {
			constraintPKCount++
		}
	}
	if constraintPKCount > 1 {
		return errors.New(
			"multiple PRIMARY KEY constraints declared; a table can have at most one primary key",
		)
	}
	if hasColumnPK && constraintPKCount > 0 {
		return errors.New(
			"primary key declared on both column(s) and in constraints section; " +
				"use column-level primary_key for single-column PKs or a constraint for composite PKs, not both",
		)
	}
	return nil
}

func synthesizeConstraints(table *schema.Table) {
	synthesizePK(table)
	synthesizeUniqueConstraints(table)
	synthesizeCheckConstraints(table)
	synthesizeFKConstraints(table)
}

func synthesizePK(table *schema.Table) {
	for _, con := range table.Constraints {
		if con.Type == schema.ConstraintPrimaryKey {
			return
		}
	}

	var pkCols []string
	for _, col := range table.Columns {
		if col.PrimaryKey {
			pkCols = append(pkCols, col.Name)
		}
	}
	if len(pkCols) == 0 {
		return
	}

	name := schema.AutoGenerateConstraintName(schema.ConstraintPrimaryKey, table.Name, pkCols, "")
	table.Constraints = append(table.Constraints, &schema.Constraint{
		Name:    name,
		Type:    schema.ConstraintPrimaryKey,
		Columns: pkCols,
	})
}

func synthesizeUniqueConstraints(table *schema.Table) {
	for _, col := range table.Columns {
		if !col.Unique {
			continue
		}
		cols := []string{col.Name}
		name := schema.AutoGenerateConstraintName(schema.ConstraintUnique, table.Name, cols, "")
		table.Constraints = append(table.Constraints, &schema.Constraint{
			Name:    name,
			Type:    schema.ConstraintUnique,
			Columns: cols,
		})
	}
}

func synthesizeCheckConstraints(table *schema.Table) {
	for _, col := range table.Columns {
		if col.Check == "" {
			continue
		}
		cols := []string{col.Name}
		name := schema.AutoGenerateConstraintName(schema.ConstraintCheck, table.Name, cols, "")
		table.Constraints = append(table.Constraints, &schema.Constraint{
			Name:            name,
			Type:            schema.ConstraintCheck,
			CheckExpression: col.Check,
			Enforced:        true,
		})
	}
}

func synthesizeFKConstraints(table *schema.Table) {
	for _, col := range table.Columns {
		if col.References == "" {
			continue
		}
		// ParseReferences is guaranteed to succeed here because
		// convertColumn already validated the format.
		refTable, refCol, _ := schema.ParseReferences(col.References)
		cols := []string{col.Name}
		name := schema.AutoGenerateConstraintName(schema.ConstraintForeignKey, table.Name, cols, refTable)
		table.Constraints = append(table.Constraints, &schema.Constraint{
			Name:              name,
			Type:              schema.ConstraintForeignKey,
			Columns:           cols,
			ReferencedTable:   refTable,
			ReferencedColumns: []string{refCol},
			OnDelete:          col.RefOnDelete,
			OnUpdate:          col.RefOnUpdate,
			Enforced:          true,
		})
	}
}

// validateConstraints checks for duplicate names, missing columns, and
// incomplete FK definitions across all constraints in the table.
func validateConstraints(table *schema.Table) error {
	seen := make(map[string]bool, len(table.Constraints))
	for _, con := range table.Constraints {
		if con.Name == "" {
			continue
		}
		lower := strings.ToLower(con.Name)
		if seen[lower] {
			return fmt.Errorf("duplicate constraint name %q", con.Name)
		}
		seen[lower] = true
	}

	for _, con := range table.Constraints {
		if err := validateConstraintColumns(table, con); err != nil {
			return err
		}
	}

	return nil
}

// validateConstraintColumns verifies that a single constraint's column list
// is non-empty (except for CHECK), that every referenced column exists, and
// that FK constraints carry the required referenced_table / referenced_columns.
func validateConstraintColumns(table *schema.Table, con *schema.Constraint) error {
	if con.Type == schema.ConstraintCheck {
		return nil // CHECK constraints use expressions, not column lists.
	}
	if len(con.Columns) == 0 {
		return fmt.Errorf("constraint %q (%s) has no columns", con.Name, con.Type)
	}
	for _, colName := range con.Columns {
		if table.FindColumn(colName) == nil {
			return fmt.Errorf("constraint %q references nonexistent column %q", con.Name, colName)
		}
	}
	if con.Type == schema.ConstraintForeignKey {
		if con.ReferencedTable == "" {
			return fmt.Errorf("foreign key constraint %q is missing referenced_table", con.Name)
		}
		if len(con.ReferencedColumns) == 0 {
			return fmt.Errorf("foreign key constraint %q is missing referenced_columns", con.Name)
		}
	}
	return nil
}
