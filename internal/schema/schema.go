// Package schema declares the relational entities of the statistics store.
//
// The schema is plain data: a [Schema] value holds [Entity] definitions whose
// [Column]s carry types, keys, defaults and foreign-key references. Callers pass
// the value explicitly to the store initializer and the bulk loader; nothing is
// registered globally.
package schema

import "fmt"

// ColumnType is the logical type of a column.
type ColumnType int

const (
	Integer ColumnType = iota
	Float
	Text
	Date
)

func (t ColumnType) String() string {
	switch t {
	case Integer:
		return "integer"
	case Float:
		return "float"
	case Text:
		return "text"
	case Date:
		return "date"
	default:
		return fmt.Sprintf("ColumnType(%d)", int(t))
	}
}

// Action is the referential action applied when a parent row is deleted.
type Action string

const (
	NoAction Action = ""
	Cascade  Action = "CASCADE"
)

// Reference points a column at the primary key of another entity.
type Reference struct {
	Table    string
	Column   string
	OnDelete Action
}

// Column describes one column of an entity.
type Column struct {
	Name          string
	Type          ColumnType
	Size          int // VARCHAR length; 0 means unbounded
	PrimaryKey    bool
	AutoIncrement bool // surrogate key generated by the store
	NotNull       bool
	Default       any // applied when the value is absent; nil means no default
	References    *Reference
}

// HasDefault reports whether the store fills the column when it is omitted.
func (c Column) HasDefault() bool {
	return c.Default != nil
}

// Entity is a table definition.
type Entity struct {
	Name    string
	Columns []Column
}

// Column returns the named column.
func (e Entity) Column(name string) (Column, bool) {
	for _, c := range e.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// ColumnNames returns every column name in declaration order.
func (e Entity) ColumnNames() []string {
	names := make([]string, len(e.Columns))
	for i, c := range e.Columns {
		names[i] = c.Name
	}
	return names
}

// InsertColumns returns the columns a loaded dataset may carry:
// everything except store-generated surrogate keys.
func (e Entity) InsertColumns() []string {
	var names []string
	for _, c := range e.Columns {
		if c.AutoIncrement {
			continue
		}
		names = append(names, c.Name)
	}
	return names
}

// RequiredColumns returns the insert columns a dataset must carry:
// those without a store default.
func (e Entity) RequiredColumns() []string {
	var names []string
	for _, c := range e.Columns {
		if c.AutoIncrement || c.HasDefault() {
			continue
		}
		names = append(names, c.Name)
	}
	return names
}

// PrimaryKey returns the primary key column.
func (e Entity) PrimaryKey() (Column, bool) {
	for _, c := range e.Columns {
		if c.PrimaryKey {
			return c, true
		}
	}
	return Column{}, false
}

// ForeignKey is a resolved reference from a child column to a parent key.
type ForeignKey struct {
	Table    string
	Column   string
	Parent   string
	ParentPK string
	OnDelete Action
}

func (fk ForeignKey) String() string {
	s := fmt.Sprintf("%s.%s -> %s.%s", fk.Table, fk.Column, fk.Parent, fk.ParentPK)
	if fk.OnDelete != NoAction {
		s += " ON DELETE " + string(fk.OnDelete)
	}
	return s
}

// Schema is the full set of entities.
type Schema struct {
	Entities []Entity
}

// Entity returns the named entity.
func (s Schema) Entity(name string) (Entity, bool) {
	for _, e := range s.Entities {
		if e.Name == name {
			return e, true
		}
	}
	return Entity{}, false
}

// TableNames returns entity names in declaration order.
func (s Schema) TableNames() []string {
	names := make([]string, len(s.Entities))
	for i, e := range s.Entities {
		names[i] = e.Name
	}
	return names
}

// ForeignKeys lists every foreign-key and cascade rule in declaration order.
func (s Schema) ForeignKeys() []ForeignKey {
	var fks []ForeignKey
	for _, e := range s.Entities {
		for _, c := range e.Columns {
			if c.References == nil {
				continue
			}
			fks = append(fks, ForeignKey{
				Table:    e.Name,
				Column:   c.Name,
				Parent:   c.References.Table,
				ParentPK: c.References.Column,
				OnDelete: c.References.OnDelete,
			})
		}
	}
	return fks
}

// Validate checks that names are unique, every entity has a primary key and
// every reference resolves to a primary key of a declared entity.
func (s Schema) Validate() error {
	seen := make(map[string]bool, len(s.Entities))
	for _, e := range s.Entities {
		if seen[e.Name] {
			return fmt.Errorf("duplicate entity %q", e.Name)
		}
		seen[e.Name] = true

		cols := make(map[string]bool, len(e.Columns))
		for _, c := range e.Columns {
			if cols[c.Name] {
				return fmt.Errorf("entity %q: duplicate column %q", e.Name, c.Name)
			}
			cols[c.Name] = true
		}
		if _, ok := e.PrimaryKey(); !ok {
			return fmt.Errorf("entity %q has no primary key", e.Name)
		}
	}

	for _, fk := range s.ForeignKeys() {
		parent, ok := s.Entity(fk.Parent)
		if !ok {
			return fmt.Errorf("%s: unknown parent table", fk)
		}
		pk, _ := parent.PrimaryKey()
		if pk.Name != fk.ParentPK {
			return fmt.Errorf("%s: parent column is not the primary key", fk)
		}
	}
	return nil
}
