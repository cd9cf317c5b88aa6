// Package hexgrid implements a hierarchical hexagonal grid over the sphere.
//
// Every icosahedron face is subdivided into a triangular lattice whose
// frequency doubles with each resolution. Lattice points are projected onto
// the sphere and become cell centers; a cell is the spherical Voronoi region
// of its center. The twelve icosahedron vertices are pentagons at every
// resolution, all other cells are hexagons.
package hexgrid

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"

	"github.com/golang/geo/r3"
)

const (
	MinResolution = 0
	MaxResolution = 15

	// lattice frequency at resolution 0
	baseFrequency = 10
)

// bit layout of a Cell
const (
	modeShift  = 60
	resShift   = 52
	faceShift  = 44
	aShift     = 22
	weightMask = 1<<22 - 1
	faceMask   = 0x1f
	resMask    = 0xf
	cellMode   = 1
)

// Cell identifies one region of the grid at a fixed resolution.
type Cell uint64

// lattice is the decoded form of a cell: weights a and b of the first two
// vertices of face; the third weight is frequency(res)-a-b.
type lattice struct {
	res  int
	face int
	a, b int
}

func frequency(res int) int {
	return baseFrequency << uint(res)
}

// NumCells returns how many cells partition the sphere at res.
func NumCells(res int) (int64, error) {
	if err := validateRes(res); err != nil {
		return 0, err
	}
	n := int64(frequency(res))
	return 10*n*n + 2, nil
}

func validateRes(res int) error {
	if res < MinResolution || res > MaxResolution {
		return fmt.Errorf("%w: %d (must be %d..%d)", ErrInvalidResolution, res, MinResolution, MaxResolution)
	}
	return nil
}

func (c Cell) Resolution() int {
	return int(uint64(c) >> resShift & resMask)
}

func (c Cell) String() string {
	return strconv.FormatUint(uint64(c), 16)
}

// ParseCell parses the hex form produced by Cell.String.
func ParseCell(s string) (Cell, error) {
	v, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidCell, s)
	}
	c := Cell(v)
	if !c.IsValid() {
		return 0, fmt.Errorf("%w: %q", ErrInvalidCell, s)
	}
	return c, nil
}

func (c Cell) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Cell) UnmarshalText(b []byte) error {
	parsed, err := ParseCell(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// IsValid reports whether c is a canonical identifier of an existing cell.
func (c Cell) IsValid() bool {
	if uint64(c)>>modeShift != cellMode {
		return false
	}
	l := c.lattice()
	if l.cell() != c || l.face >= numFaces {
		return false
	}
	n := frequency(l.res)
	if l.a+l.b > n {
		return false
	}
	return canonical(l.res, l.face, l.weights()) == l
}

// IsPentagon reports whether c is centered on an icosahedron vertex.
func (c Cell) IsPentagon() bool {
	if !c.IsValid() {
		return false
	}
	n := frequency(c.Resolution())
	for _, w := range c.lattice().weights() {
		if w == n {
			return true
		}
	}
	return false
}

func (c Cell) lattice() lattice {
	v := uint64(c)
	return lattice{
		res:  int(v >> resShift & resMask),
		face: int(v >> faceShift & faceMask),
		a:    int(v >> aShift & weightMask),
		b:    int(v & weightMask),
	}
}

func (l lattice) cell() Cell {
	return Cell(uint64(cellMode)<<modeShift |
		uint64(l.res)<<resShift |
		uint64(l.face)<<faceShift |
		uint64(l.a)<<aShift |
		uint64(l.b))
}

func (l lattice) weights() [3]int {
	return [3]int{l.a, l.b, frequency(l.res) - l.a - l.b}
}

func (l lattice) center() r3.Vector {
	w := l.weights()
	v := icoFaces[l.face]
	return icoVerts[v[0]].Mul(float64(w[0])).
		Add(icoVerts[v[1]].Mul(float64(w[1]))).
		Add(icoVerts[v[2]].Mul(float64(w[2]))).
		Normalize()
}

// canonical expresses the lattice point with weights w on face in the
// lowest-indexed face that contains it. Points strictly inside a face only
// belong to that face; points on edges and vertices are shared.
func canonical(res, face int, w [3]int) lattice {
	if w[0] > 0 && w[1] > 0 && w[2] > 0 {
		return lattice{res: res, face: face, a: w[0], b: w[1]}
	}
	support := make([]int, 0, 2)
	for i, v := range icoFaces[face] {
		if w[i] > 0 {
			support = append(support, v)
		}
	}
	for _, g := range vertexFaces[support[0]] {
		if !faceHasAll(g, support) {
			continue
		}
		gv := icoFaces[g]
		return lattice{
			res:  res,
			face: g,
			a:    weightOn(face, w, gv[0]),
			b:    weightOn(face, w, gv[1]),
		}
	}
	// unreachable: face itself always contains its support
	return lattice{res: res, face: face, a: w[0], b: w[1]}
}

func weightOn(face int, w [3]int, v int) int {
	if i := vertexIndex(face, v); i >= 0 {
		return w[i]
	}
	return 0
}

// neighbors returns the edge-adjacent lattice points ordered by identifier.
// Points on face edges and vertices collect their neighbors from every face
// they belong to, which yields five neighbors around icosahedron vertices.
func (l lattice) neighbors() []lattice {
	w := l.weights()
	if w[0] > 0 && w[1] > 0 && w[2] > 0 {
		out := make([]lattice, 0, 6)
		out = appendMoves(out, l.res, l.face, w)
		sortLattices(out)
		return out
	}

	v := icoFaces[l.face]
	support := make([]int, 0, 2)
	global := make(map[int]int, 3)
	for i, vi := range v {
		if w[i] > 0 {
			support = append(support, vi)
			global[vi] = w[i]
		}
	}

	out := make([]lattice, 0, 6)
	for _, g := range vertexFaces[support[0]] {
		if !faceHasAll(g, support) {
			continue
		}
		gv := icoFaces[g]
		gw := [3]int{global[gv[0]], global[gv[1]], global[gv[2]]}
		for _, nb := range appendMoves(nil, l.res, g, gw) {
			if !slices.Contains(out, nb) {
				out = append(out, nb)
			}
		}
	}
	sortLattices(out)
	return out
}

// appendMoves adds the lattice points reached by moving one unit of weight
// between two vertices of face without leaving it.
func appendMoves(out []lattice, res, face int, w [3]int) []lattice {
	for s := range 3 {
		for t := range 3 {
			if s == t || w[t] == 0 {
				continue
			}
			m := w
			m[s]++
			m[t]--
			out = append(out, canonical(res, face, m))
		}
	}
	return out
}

func sortLattices(ls []lattice) {
	slices.SortFunc(ls, func(x, y lattice) int {
		return cmp.Compare(x.cell(), y.cell())
	})
}
