package router

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
)

func parseFloat(v string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, fmt.Errorf("parse float: %w", err)
	}
	return f, nil
}

// queryFloat reads a required float parameter.
func queryFloat(r *http.Request, name string) (float64, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return 0, fmt.Errorf("missing required parameter: %s", name)
	}
	f, err := parseFloat(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	return f, nil
}

// queryInt reads an integer parameter, falling back to def when absent.
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q is not an integer", name, raw)
	}
	return n, nil
}

func queryCell(r *http.Request) (string, error) {
	c := strings.TrimSpace(r.URL.Query().Get("cell"))
	if c == "" {
		return "", errors.New("missing required parameter: cell")
	}
	return c, nil
}

// parseBBox reads "x1,y1,x2,y2" with an optional trailing EPSG:4326.
// Coordinate ranges are left to the grid, which reports them as
// invalid_coordinate.
func parseBBox(raw string) (orb.Bound, error) {
	parts := strings.Split(raw, ",")
	switch len(parts) {
	case 4:
	case 5:
		if srid := strings.ToUpper(strings.TrimSpace(parts[4])); srid != "EPSG:4326" {
			return orb.Bound{}, fmt.Errorf("only EPSG:4326 is supported (got %q)", srid)
		}
	default:
		return orb.Bound{}, errors.New("expected 4 comma-separated values: x1,y1,x2,y2")
	}
	var v [4]float64
	for i := range v {
		f, err := parseFloat(parts[i])
		if err != nil {
			return orb.Bound{}, fmt.Errorf("value %d: %w", i+1, err)
		}
		v[i] = f
	}
	return orb.Bound{Min: orb.Point{v[0], v[1]}, Max: orb.Point{v[2], v[3]}}, nil
}
