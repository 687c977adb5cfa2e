package geospatial

import (
	"fmt"
	"sort"

	"github.com/dhconnelly/rtreego"

	"github.com/Singularity-v/MAP/internal/core/domain"
)

const (
	tolerance   = 1e-7
	minChildren = 4
	maxChildren = 16
	dimensions  = 2
)

// entry wraps a marker position for R-Tree indexing. seq is the position of
// the marker in the source list so results can be returned in z-order.
type entry struct {
	seq  int
	pos  domain.GeoPoint
	rect *rtreego.Rect
}

func (e *entry) Bounds() *rtreego.Rect {
	return e.rect
}

// Hit is a search result: the index of the marker in the indexed slice and
// its distance to the query point in meters (0 for box queries).
type Hit struct {
	Seq      int
	Distance float64
}

// Index is an immutable R-Tree over a list of marker positions.
// Build a new one whenever the marker list changes.
type Index struct {
	tree *rtreego.Rtree
	size int
}

// NewIndex indexes the given positions; the i-th position gets Seq i.
func NewIndex(positions []domain.GeoPoint) *Index {
	tree := rtreego.NewTree(dimensions, minChildren, maxChildren)
	for i, p := range positions {
		tree.Insert(&entry{
			seq:  i,
			pos:  p,
			rect: rtreego.Point{p.Lat, p.Lng}.ToRect(tolerance),
		})
	}
	return &Index{tree: tree, size: len(positions)}
}

// Size returns the number of indexed positions.
func (x *Index) Size() int {
	return x.size
}

// InBounds returns the sequence numbers of positions inside b, ascending.
func (x *Index) InBounds(b domain.Bounds) ([]int, error) {
	rect, err := rectFor(b)
	if err != nil {
		return nil, err
	}

	var seqs []int
	for _, s := range x.tree.SearchIntersect(rect) {
		e, ok := s.(*entry)
		if !ok || !b.Contains(e.pos) {
			continue
		}
		seqs = append(seqs, e.seq)
	}
	sort.Ints(seqs)
	return seqs, nil
}

// Nearby returns the positions within radiusMeters of center, closest first.
func (x *Index) Nearby(center domain.GeoPoint, radiusMeters float64, limit int) ([]Hit, error) {
	rect, err := rectFor(BoundingBox(center, radiusMeters))
	if err != nil {
		return nil, err
	}

	var hits []Hit
	for _, s := range x.tree.SearchIntersect(rect) {
		e, ok := s.(*entry)
		if !ok {
			continue
		}
		d := Distance(center, e.pos)
		if d <= radiusMeters {
			hits = append(hits, Hit{Seq: e.seq, Distance: d})
		}
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Distance == hits[j].Distance {
			return hits[i].Seq < hits[j].Seq
		}
		return hits[i].Distance < hits[j].Distance
	})
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

func rectFor(b domain.Bounds) (*rtreego.Rect, error) {
	rect, err := rtreego.NewRect(
		rtreego.Point{b.MinLat, b.MinLng},
		[]float64{b.MaxLat - b.MinLat, b.MaxLng - b.MinLng},
	)
	if err != nil {
		return nil, fmt.Errorf("invalid bounding box: %w", err)
	}
	return rect, nil
}
