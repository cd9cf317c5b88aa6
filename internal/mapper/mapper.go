// Package mapper converts between coordinates and grid cells identified by
// their textual ids, independent of the grid backend.
package mapper

import (
	"fmt"

	"github.com/paulmach/orb"

	"github.com/mohammed-shakir/hexproximity/internal/hexgrid"
	h3mapper "github.com/mohammed-shakir/hexproximity/internal/mapper/h3"
	hexmapper "github.com/mohammed-shakir/hexproximity/internal/mapper/hex"
)

const (
	BackendHex = "hex"
	BackendH3  = "h3"
)

type Interface interface {
	Name() string
	PointToCell(p hexgrid.LatLng, res int) (string, error)
	CellCenter(cell string) (hexgrid.LatLng, error)
	Resolution(cell string) (int, error)
	IsPentagon(cell string) (bool, error)
	GridDisk(cell string, k int) ([]string, error)
	GridDiskDistances(cell string, k int) ([][]string, error)
	Boundary(cell string) ([]hexgrid.LatLng, error)
	ToParent(cell string, res int) (string, error)
	ToChildren(cell string, res int) ([]string, error)
	CellsForBBox(bb orb.Bound, res int) ([]string, error)
	CellsForPolygon(g orb.Geometry, res int) ([]string, error)
}

var (
	_ Interface = (*hexmapper.Mapper)(nil)
	_ Interface = (*h3mapper.Mapper)(nil)
)

// New returns the mapper for backend. maxCells bounds area queries; zero
// selects the backend default.
func New(backend string, maxCells int) (Interface, error) {
	switch backend {
	case "", BackendHex:
		return hexmapper.New(maxCells), nil
	case BackendH3:
		return h3mapper.New(maxCells), nil
	default:
		return nil, fmt.Errorf("unknown grid backend %q (want %s or %s)", backend, BackendHex, BackendH3)
	}
}
