package schemaconfig

import (
	"fmt"
	"strings"

	"relquery/internal/schema"
)

func convertTableIndex(ti *tomlIndex) (*schema.Index, error) {
	idx := &schema.Index{
		Name:     ti.Name,
		Unique:   ti.Unique,
		Comment:  ti.Comment,
		Where:    ti.Where,
		Language: ti.Language,
	}

	if ti.Type != "" {
		idx.Type = schema.IndexType(ti.Type)
	} else {
		idx.Type = schema.IndexTypeBTree
	}

	if ti.Visibility != "" {
		idx.Visibility = schema.IndexVisibility(ti.Visibility)
	} else {
		idx.Visibility = schema.IndexVisible
	}

	idx.Columns = mergeColumnIndexes(ti)

	if len(idx.Columns) == 0 {
		name := ti.Name
		if name == "" {
			name = "(unnamed)"
		}
		return nil, fmt.Errorf("index %s has no columns", name)
	}

	return idx, nil
}

func mergeColumnIndexes(ti *tomlIndex) []schema.ColumnIndex {
	if len(ti.ColumnDefs) > 0 {
		cols := make([]schema.ColumnIndex, 0, len(ti.ColumnDefs))
		for i := range ti.ColumnDefs {
			cols = append(cols, convertColumnIndex(&ti.ColumnDefs[i]))
		}
		return cols
	}

	if len(ti.Columns) > 0 {
		cols := make([]schema.ColumnIndex, 0, len(ti.Columns))
		for _, name := range ti.Columns {
			cols = append(cols, schema.ColumnIndex{
				Name:  name,
				Order: schema.SortAsc,
			})
		}
		return cols
	}

	return nil
}

func convertColumnIndex(tc *tomlColumnIndex) schema.ColumnIndex {
	ic := schema.ColumnIndex{
		Name:   tc.Name,
		Length: tc.Length,
	}

	if tc.Order != "" {
		ic.Order = schema.SortOrder(tc.Order)
	} else {
		ic.Order = schema.SortAsc
	}

	return ic
}

// validateIndexes checks for duplicate names and verifies that every index
// column references an existing table column.
func validateIndexes(table *schema.Table) error {
	seen := make(map[string]bool, len(table.Indexes))
	for _, idx := range table.Indexes {
		if idx.Name == "" {
			continue
		}
		lower := strings.ToLower(idx.Name)
		if seen[lower] {
			return fmt.Errorf("duplicate index name %q", idx.Name)
		}
		seen[lower] = true
	}

	for _, idx := range table.Indexes {
		for _, ic := range idx.Columns {
			if table.FindColumn(ic.Name) == nil {
				return fmt.Errorf("index %q references nonexistent column %q", idx.Name, ic.Name)
			}
		}
	}

	return nil
}
