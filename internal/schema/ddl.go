package schema

import (
	"fmt"
	"strings"
)

// DDL renders CREATE TABLE statements in load order followed by one index per
// foreign-key column. Statements fail if a table already exists.
func (s Schema) DDL(d Dialect) ([]string, error) {
	order, err := s.LoadOrder()
	if err != nil {
		return nil, err
	}

	stmts := make([]string, 0, len(order)*2)
	for _, name := range order {
		e, _ := s.Entity(name)
		stmts = append(stmts, createTable(e, d))
	}
	for _, fk := range s.ForeignKeys() {
		stmts = append(stmts, fmt.Sprintf("CREATE INDEX idx_%s_%s ON %s (%s)",
			fk.Table, fk.Column, fk.Table, fk.Column))
	}
	return stmts, nil
}

func createTable(e Entity, d Dialect) string {
	lines := make([]string, 0, len(e.Columns)+4)
	var fks []string

	for _, c := range e.Columns {
		lines = append(lines, "    "+columnDef(c, d))
		if c.References != nil {
			fk := fmt.Sprintf("    FOREIGN KEY (%s) REFERENCES %s (%s)",
				c.Name, c.References.Table, c.References.Column)
			if c.References.OnDelete != NoAction {
				fk += " ON DELETE " + string(c.References.OnDelete)
			}
			fks = append(fks, fk)
		}
	}
	lines = append(lines, fks...)

	return fmt.Sprintf("CREATE TABLE %s (\n%s\n)", e.Name, strings.Join(lines, ",\n"))
}

func columnDef(c Column, d Dialect) string {
	if c.AutoIncrement {
		return c.Name + " " + d.SurrogateKey
	}

	parts := []string{c.Name, d.ColumnType(c)}
	if c.PrimaryKey {
		parts = append(parts, "PRIMARY KEY")
	}
	if c.NotNull {
		parts = append(parts, "NOT NULL")
	}
	if c.HasDefault() {
		parts = append(parts, "DEFAULT "+d.Literal(c.Default))
	}
	return strings.Join(parts, " ")
}
