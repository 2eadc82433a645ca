package world

import "fmt"

// Point is a grid cell address. It carries no bounds knowledge.
type Point struct {
	Col int
	Row int
}

// Removed is where entities are parked once they leave the world.
var Removed = Point{Col: -1, Row: -1}

func Pt(col, row int) Point {
	return Point{Col: col, Row: row}
}

func (p Point) String() string {
	return fmt.Sprintf("(%d,%d)", p.Col, p.Row)
}

func (p Point) Add(dCol, dRow int) Point {
	return Point{Col: p.Col + dCol, Row: p.Row + dRow}
}

// DistanceSquared is the squared euclidean distance between p and q.
func (p Point) DistanceSquared(q Point) int {
	dc := p.Col - q.Col
	dr := p.Row - q.Row
	return dc*dc + dr*dr
}

// Adjacent reports whether q is one of the four orthogonal neighbours of p.
func (p Point) Adjacent(q Point) bool {
	return (p.Col == q.Col && abs(p.Row-q.Row) == 1) ||
		(p.Row == q.Row && abs(p.Col-q.Col) == 1)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
