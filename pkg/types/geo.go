package types

// GeoPoint is a WGS84 coordinate.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Polygon is an ordered ring of vertices. The ring is implicitly closed;
// the last vertex does not need to repeat the first.
type Polygon []GeoPoint

// Contains runs a standard ray-casting test against the ring, treating
// longitude as x and latitude as y. Points exactly on an edge may land on
// either side; zone fixtures keep boundaries away from addresses so the
// ambiguity never surfaces.
func (p Polygon) Contains(pt GeoPoint) bool {
	if len(p) < 3 {
		return false
	}
	inside := false
	j := len(p) - 1
	for i := 0; i < len(p); i++ {
		vi, vj := p[i], p[j]
		if (vi.Lat > pt.Lat) != (vj.Lat > pt.Lat) {
			crossLng := (vj.Lng-vi.Lng)*(pt.Lat-vi.Lat)/(vj.Lat-vi.Lat) + vi.Lng
			if pt.Lng < crossLng {
				inside = !inside
			}
		}
		j = i
	}
	return inside
}
