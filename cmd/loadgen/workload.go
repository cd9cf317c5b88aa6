package main

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"strconv"
)

type Origin struct{ Lat, Lng float64 }

// makeOrigins builds a pool of query points: a hot quarter around a few city
// centers (drawn most often by the Zipf picker) and a cold remainder spread
// over the wider region.
func makeOrigins(count int, r *rand.Rand) []Origin {
	centers := []Origin{
		{23.0225, 72.5714}, // Ahmedabad
		{19.0760, 72.8777}, // Mumbai
		{28.6139, 77.2090}, // Delhi
		{12.9716, 77.5946}, // Bengaluru
	}
	if count <= 0 {
		return nil
	}
	out := make([]Origin, 0, count)

	hot := min(count, int(math.Max(8, float64(count/4))))
	for i := range hot {
		c := centers[i%len(centers)]
		out = append(out, Origin{
			Lat: c.Lat + (r.Float64()-0.5)*0.02,
			Lng: c.Lng + (r.Float64()-0.5)*0.02,
		})
	}
	for len(out) < count {
		out = append(out, Origin{Lat: 10 + r.Float64()*20, Lng: 70 + r.Float64()*15})
	}
	return out
}

type entity struct {
	ID  string  `json:"id"`
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type nearbyRequest struct {
	Lat      float64  `json:"lat"`
	Lng      float64  `json:"lng"`
	Res      int      `json:"res"`
	K        int      `json:"k"`
	Entities []entity `json:"entities"`
}

// makeBody scatters n entities uniformly within spread degrees of o.
func makeBody(o Origin, res, k, n int, spread float64, r *rand.Rand) ([]byte, error) {
	req := nearbyRequest{Lat: o.Lat, Lng: o.Lng, Res: res, K: k, Entities: make([]entity, n)}
	for i := range req.Entities {
		req.Entities[i] = entity{
			ID:  "e" + strconv.Itoa(i),
			Lat: o.Lat + (r.Float64()*2-1)*spread,
			Lng: o.Lng + (r.Float64()*2-1)*spread,
		}
	}
	b, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	return b, nil
}

func percentile(sortedValues []float64, p float64) float64 {
	if len(sortedValues) == 0 {
		return math.NaN()
	}
	if p <= 0 {
		return sortedValues[0]
	}
	if p >= 100 {
		return sortedValues[len(sortedValues)-1]
	}
	k := (p / 100.0) * float64(len(sortedValues)-1)
	f := math.Floor(k)
	i := int(f)
	if i >= len(sortedValues)-1 {
		return sortedValues[len(sortedValues)-1]
	}
	d := k - f
	return sortedValues[i]*(1-d) + sortedValues[i+1]*d
}
