package hexgrid

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"
)

const (
	numVertices = 12
	numFaces    = 20
)

// Unit icosahedron the grid is built on. Faces are listed in ascending
// vertex order and wound counter-clockwise seen from outside the sphere.
var (
	icoVerts    [numVertices]r3.Vector
	icoFaces    [numFaces][3]int
	faceCenters [numFaces]r3.Vector
	vertexFaces [numVertices][]int
)

func init() {
	buildIcosahedron()
}

func buildIcosahedron() {
	ringLat := math.Atan(0.5) * 180 / math.Pi

	icoVerts[0] = r3.Vector{Z: 1}
	for i := range 5 {
		icoVerts[1+i] = toVector(LatLng{Lat: ringLat, Lng: 36 + 72*float64(i)})
		icoVerts[6+i] = toVector(LatLng{Lat: -ringLat, Lng: 72 * float64(i)})
	}
	icoVerts[11] = r3.Vector{Z: -1}

	// adjacent vertices are ~63.4° apart (dot = 1/sqrt(5))
	adjacent := func(i, j int) bool { return icoVerts[i].Dot(icoVerts[j]) > 0.4 }

	f := 0
	for i := range numVertices {
		for j := i + 1; j < numVertices; j++ {
			if !adjacent(i, j) {
				continue
			}
			for k := j + 1; k < numVertices; k++ {
				if !adjacent(i, k) || !adjacent(j, k) {
					continue
				}
				if f == numFaces {
					panic("hexgrid: icosahedron has more than 20 faces")
				}
				if icoVerts[i].Dot(icoVerts[j].Cross(icoVerts[k])) < 0 {
					icoFaces[f] = [3]int{i, k, j}
				} else {
					icoFaces[f] = [3]int{i, j, k}
				}
				f++
			}
		}
	}
	if f != numFaces {
		panic(fmt.Sprintf("hexgrid: icosahedron has %d faces, want %d", f, numFaces))
	}

	for f, v := range icoFaces {
		faceCenters[f] = icoVerts[v[0]].Add(icoVerts[v[1]]).Add(icoVerts[v[2]]).Normalize()
		for _, vi := range v {
			vertexFaces[vi] = append(vertexFaces[vi], f)
		}
	}
}

// nearestFace returns the face whose spherical triangle contains p.
func nearestFace(p r3.Vector) int {
	best, bestDot := 0, math.Inf(-1)
	for f, c := range faceCenters {
		if d := p.Dot(c); d > bestDot {
			best, bestDot = f, d
		}
	}
	return best
}

func faceHasAll(face int, verts []int) bool {
	for _, v := range verts {
		if vertexIndex(face, v) < 0 {
			return false
		}
	}
	return true
}

func vertexIndex(face, v int) int {
	for i, fv := range icoFaces[face] {
		if fv == v {
			return i
		}
	}
	return -1
}
