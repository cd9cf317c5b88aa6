package hexgrid

import (
	"errors"
	"testing"
)

func TestGridDisk_ZeroIsOrigin(t *testing.T) {
	c := mustCell(t, LatLng{Lat: 23.0225, Lng: 72.5714}, 12)
	disk, err := GridDisk(c, 0)
	if err != nil {
		t.Fatalf("GridDisk: %v", err)
	}
	if len(disk) != 1 || disk[0] != c {
		t.Fatalf("GridDisk(c,0)=%v want [%s]", disk, c)
	}
}

func TestGridDisk_HexagonSizes(t *testing.T) {
	for _, res := range []int{3, 8, 12, 15} {
		c := mustCell(t, LatLng{Lat: 23.0, Lng: 72.5}, res)
		for k := 0; k <= 6; k++ {
			disk, err := GridDisk(c, k)
			if err != nil {
				t.Fatalf("GridDisk: %v", err)
			}
			if want := 3*k*k + 3*k + 1; len(disk) != want {
				t.Fatalf("res %d k %d: |disk|=%d want %d", res, k, len(disk), want)
			}
			if disk[0] != c {
				t.Fatalf("disk must start with origin")
			}
		}
	}
}

func TestGridDisk_PentagonSizesAndNoDuplicates(t *testing.T) {
	for _, res := range []int{0, 5, 15} {
		pent := mustCell(t, LatLng{Lat: -90, Lng: 0}, res)
		if !pent.IsPentagon() {
			t.Fatalf("south pole cell %s should be a pentagon", pent)
		}
		for k := 0; k <= 5; k++ {
			disk, err := GridDisk(pent, k)
			if err != nil {
				t.Fatalf("GridDisk: %v", err)
			}
			if want := 1 + 5*k*(k+1)/2; len(disk) != want {
				t.Fatalf("res %d k %d: pentagon |disk|=%d want %d", res, k, len(disk), want)
			}
			seen := make(map[Cell]struct{}, len(disk))
			for _, c := range disk {
				if _, ok := seen[c]; ok {
					t.Fatalf("duplicate %s in pentagon disk", c)
				}
				seen[c] = struct{}{}
			}
		}
	}
}

// A disk that crosses a pentagon must still contain exactly the cells within
// k steps, which is checked against GridDistance.
func TestGridDisk_NearPentagonExact(t *testing.T) {
	pent := mustCell(t, LatLng{Lat: 90, Lng: 0}, 4)
	nbs, _ := Neighbors(pent)
	ring2, _ := GridDiskDistances(nbs[0], 2)
	origin := ring2[2][0]

	disk, err := GridDisk(origin, 4)
	if err != nil {
		t.Fatalf("GridDisk: %v", err)
	}
	inDisk := make(map[Cell]struct{}, len(disk))
	for _, c := range disk {
		inDisk[c] = struct{}{}
	}
	wide, _ := GridDisk(origin, 6)
	for _, c := range wide {
		d, err := GridDistance(origin, c, 6)
		if err != nil {
			t.Fatalf("GridDistance(%s,%s): %v", origin, c, err)
		}
		_, ok := inDisk[c]
		if (d <= 4) != ok {
			t.Fatalf("cell %s at distance %d: in disk=%v", c, d, ok)
		}
	}
}

func TestGridDisk_Monotone(t *testing.T) {
	for _, p := range randomPoints(11, 20) {
		c := mustCell(t, p, 6)
		prev := map[Cell]struct{}{}
		for k := 0; k <= 5; k++ {
			disk, err := GridDisk(c, k)
			if err != nil {
				t.Fatalf("GridDisk: %v", err)
			}
			cur := make(map[Cell]struct{}, len(disk))
			for _, x := range disk {
				cur[x] = struct{}{}
			}
			for x := range prev {
				if _, ok := cur[x]; !ok {
					t.Fatalf("k=%d lost %s present at k=%d", k, x, k-1)
				}
			}
			prev = cur
		}
	}
}

func TestGridDiskDistances_MatchGridDistance(t *testing.T) {
	c := mustCell(t, LatLng{Lat: -33.8688, Lng: 151.2093}, 10)
	rings, err := GridDiskDistances(c, 4)
	if err != nil {
		t.Fatalf("GridDiskDistances: %v", err)
	}
	if len(rings) != 5 {
		t.Fatalf("rings=%d want 5", len(rings))
	}
	for d, ring := range rings {
		if d > 0 && len(ring) != 6*d {
			t.Fatalf("ring %d has %d cells want %d", d, len(ring), 6*d)
		}
		for _, x := range ring {
			got, err := GridDistance(c, x, 4)
			if err != nil || got != d {
				t.Fatalf("GridDistance(%s,%s)=%d,%v want %d", c, x, got, err, d)
			}
		}
	}
}

func TestGridDisk_WholeSphere(t *testing.T) {
	c := mustCell(t, LatLng{Lat: 0, Lng: 0}, 0)
	disk, err := GridDisk(c, 100)
	if err != nil {
		t.Fatalf("GridDisk: %v", err)
	}
	want, _ := NumCells(0)
	if int64(len(disk)) != want {
		t.Fatalf("|disk|=%d want all %d cells", len(disk), want)
	}
}

func TestGridDisk_Errors(t *testing.T) {
	c := mustCell(t, LatLng{Lat: 1, Lng: 1}, 5)
	if _, err := GridDisk(c, -1); !errors.Is(err, ErrInvalidRadius) {
		t.Fatalf("k=-1: want ErrInvalidRadius, got %v", err)
	}
	if _, err := GridDisk(Cell(42), 1); !errors.Is(err, ErrInvalidCell) {
		t.Fatalf("bad cell: want ErrInvalidCell, got %v", err)
	}
	other := mustCell(t, LatLng{Lat: 1, Lng: 1}, 6)
	if _, err := GridDistance(c, other, 3); !errors.Is(err, ErrResolutionMismatch) {
		t.Fatalf("want ErrResolutionMismatch, got %v", err)
	}
	far := mustCell(t, LatLng{Lat: -40, Lng: -100}, 5)
	if _, err := GridDistance(c, far, 3); !errors.Is(err, ErrNotReachable) {
		t.Fatalf("want ErrNotReachable, got %v", err)
	}
}
