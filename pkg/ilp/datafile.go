package ilp

import "strings"

// DataFile is a GLPK "data;" section built from already key-ordered
// inputs. Callers (acbuilder, pathfinder, engine) are responsible for
// stable ordering (components by declared order, channels by no, ports
// by declared order); DataFile preserves whatever order it is given
// rather than re-sorting, so rendering stays deterministic across runs
// with identical inputs.
type DataFile struct {
	Params []Param
	Sets   []SetDef
	Tables []TableDef
}

// Param is a scalar assignment: "param NAME := VALUE;".
type Param struct {
	Name  string
	Value string
}

// SetDef is a GLPK set literal: "set NAME := m1 m2 ...;".
type SetDef struct {
	Name    string
	Members []string
}

// TableRow is one row of an indexed parameter table.
type TableRow struct {
	Keys  []string
	Value string
}

// TableDef is an indexed parameter: "param NAME := \n k1 k2 ... v \n ...;".
type TableDef struct {
	Name string
	Rows []TableRow
}

// Render produces the GLPK data-section text.
func (d *DataFile) Render() string {
	var b strings.Builder
	b.WriteString("data;\n\n")

	for _, p := range d.Params {
		b.WriteString("param ")
		b.WriteString(p.Name)
		b.WriteString(" := ")
		b.WriteString(p.Value)
		b.WriteString(";\n")
	}
	if len(d.Params) > 0 {
		b.WriteString("\n")
	}

	for _, s := range d.Sets {
		b.WriteString("set ")
		b.WriteString(s.Name)
		b.WriteString(" :=")
		for _, m := range s.Members {
			b.WriteString(" ")
			b.WriteString(m)
		}
		b.WriteString(";\n")
	}
	if len(d.Sets) > 0 {
		b.WriteString("\n")
	}

	for _, tb := range d.Tables {
		b.WriteString("param ")
		b.WriteString(tb.Name)
		b.WriteString(" :=\n")
		for _, row := range tb.Rows {
			for _, k := range row.Keys {
				b.WriteString(k)
				b.WriteString(" ")
			}
			b.WriteString(row.Value)
			b.WriteString("\n")
		}
		b.WriteString(";\n\n")
	}

	b.WriteString("end;\n")
	return b.String()
}
