package ast

import "fmt"

// Position is a source location, carried by every node for diagnostics.
type Position struct {
	Filename string
	Line     int
	Col      int
}

func (p Position) String() string {
	return fmt.Sprintf("%s:%d:%d", p.Filename, p.Line, p.Col)
}
