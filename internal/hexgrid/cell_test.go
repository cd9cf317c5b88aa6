package hexgrid

import (
	"errors"
	"testing"
)

func TestPartition_Res0_CountsAndPentagons(t *testing.T) {
	cells := allCells(t, 0)
	want, err := NumCells(0)
	if err != nil {
		t.Fatalf("NumCells: %v", err)
	}
	if int64(len(cells)) != want {
		t.Fatalf("enumerated %d cells at res 0, want %d", len(cells), want)
	}

	pentagons := 0
	for _, c := range cells {
		if !c.IsValid() {
			t.Fatalf("enumerated invalid cell %s", c)
		}
		nbs, err := Neighbors(c)
		if err != nil {
			t.Fatalf("Neighbors(%s): %v", c, err)
		}
		switch {
		case c.IsPentagon():
			pentagons++
			if len(nbs) != 5 {
				t.Fatalf("pentagon %s has %d neighbors", c, len(nbs))
			}
		case len(nbs) != 6:
			t.Fatalf("hexagon %s has %d neighbors", c, len(nbs))
		}
	}
	if pentagons != 12 {
		t.Fatalf("pentagons=%d want 12", pentagons)
	}
}

func TestNeighbors_Symmetric(t *testing.T) {
	for _, c := range allCells(t, 0) {
		nbs, _ := Neighbors(c)
		for _, nb := range nbs {
			back, err := Neighbors(nb)
			if err != nil {
				t.Fatalf("Neighbors(%s): %v", nb, err)
			}
			found := false
			for _, x := range back {
				if x == c {
					found = true
					break
				}
			}
			if !found {
				t.Fatalf("%s lists %s as neighbor but not the other way round", c, nb)
			}
		}
	}
}

func TestParseCell_RoundTripAndRejects(t *testing.T) {
	c := mustCell(t, LatLng{Lat: 59.3293, Lng: 18.0686}, 9)

	got, err := ParseCell(c.String())
	if err != nil {
		t.Fatalf("ParseCell(%q): %v", c.String(), err)
	}
	if got != c {
		t.Fatalf("round trip %s -> %s", c, got)
	}
	if got.Resolution() != 9 {
		t.Fatalf("resolution=%d want 9", got.Resolution())
	}

	var viaText Cell
	if err := viaText.UnmarshalText([]byte(c.String())); err != nil || viaText != c {
		t.Fatalf("UnmarshalText: cell=%s err=%v", viaText, err)
	}

	bad := []string{
		"",
		"not-hex",
		"0",
		(c | 1<<57).String(), // reserved bits
		(c &^ (0xf << modeShift)).String(),
		Cell(uint64(cellMode)<<modeShift | 25<<faceShift).String(), // face out of range
		lattice{res: 0, face: 0, a: baseFrequency, b: baseFrequency}.cell().String(),
	}
	for _, s := range bad {
		if _, err := ParseCell(s); !errors.Is(err, ErrInvalidCell) {
			t.Fatalf("ParseCell(%q) err=%v want ErrInvalidCell", s, err)
		}
	}
}

func TestIsValid_RejectsNonCanonicalFace(t *testing.T) {
	// a vertex lattice point expressed on a face other than its lowest one
	for v := range numVertices {
		faces := vertexFaces[v]
		last := faces[len(faces)-1]
		idx := vertexIndex(last, v)
		var w [3]int
		w[idx] = frequency(3)
		l := lattice{res: 3, face: last, a: w[0], b: w[1]}
		if l.cell().IsValid() {
			t.Fatalf("vertex %d on face %d should not be canonical", v, last)
		}
		if !canonical(3, last, w).cell().IsValid() {
			t.Fatalf("canonical form of vertex %d is invalid", v)
		}
	}
}

func TestNumCells_Bounds(t *testing.T) {
	n, err := NumCells(MaxResolution)
	if err != nil {
		t.Fatalf("NumCells(max): %v", err)
	}
	if n <= 0 {
		t.Fatalf("NumCells overflowed: %d", n)
	}
	if _, err := NumCells(MaxResolution + 1); !errors.Is(err, ErrInvalidResolution) {
		t.Fatalf("want ErrInvalidResolution, got %v", err)
	}
}

func TestKind_Labels(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{ErrInvalidCoordinate, "invalid_coordinate"},
		{ErrInvalidResolution, "invalid_resolution"},
		{ErrInvalidRadius, "invalid_radius"},
		{ErrInvalidCell, "invalid_cell"},
		{errors.New("redis down"), "internal"},
		{errors.Join(ErrInvalidRadius, errors.New("x")), "invalid_radius"},
	}
	for _, tc := range cases {
		if got := Kind(tc.err); got != tc.want {
			t.Fatalf("Kind(%v)=%q want %q", tc.err, got, tc.want)
		}
	}
	if IsInputError(errors.New("boom")) {
		t.Fatalf("generic error classified as input error")
	}
	if !IsInputError(ErrInvalidCell) {
		t.Fatalf("ErrInvalidCell should be an input error")
	}
}
