// Package systems provides the per-tick spatial and sensory machinery.
package systems

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/spatial/kdtree"
)

// Point is an indexed position.
type Point struct {
	ID   uint32
	X, Y float64
}

// Hit is a query result with the minimum-image delta from the query origin.
type Hit struct {
	ID     uint32
	Index  int     // index into the points passed to NewSpatialIndex
	DX, DY float64 // toroidal delta from query origin to the point
	DistSq float64
}

// SpatialIndex answers radius and k-nearest queries on a torus.
// It is rebuilt from a snapshot of positions each tick and is read-only
// afterwards, so queries may run concurrently.
//
// The k-d tree only proposes candidates, using shifted images of the query
// when the search circle crosses an arena edge. Every candidate is then
// re-measured with ToroidalDelta, so results equal a brute-force scan.
type SpatialIndex struct {
	tree   *kdtree.Tree
	points []Point
	width  float64
	height float64
	slack  float64
}

// NewSpatialIndex builds an index over points. Positions are wrapped into
// the arena; the caller's slice is not modified.
func NewSpatialIndex(points []Point, width, height float64) *SpatialIndex {
	nodes := make(kdPoints, len(points))
	for i, p := range points {
		nodes[i] = kdPoint{
			x:   Wrap(p.X, width),
			y:   Wrap(p.Y, height),
			idx: i,
		}
	}
	return &SpatialIndex{
		tree:   kdtree.New(nodes, false),
		points: points,
		width:  width,
		height: height,
		slack:  1e-6 * math.Max(width, height),
	}
}

// Len returns the number of indexed points.
func (s *SpatialIndex) Len() int { return len(s.points) }

// Point returns the i-th indexed point.
func (s *SpatialIndex) Point(i int) Point { return s.points[i] }

// NearestWithin returns the IDs of all points within r of (x, y), ordered by
// ascending distance with ties broken by ascending ID.
func (s *SpatialIndex) NearestWithin(x, y, r float64) []uint32 {
	hits := s.NearestWithinInto(nil, x, y, r)
	ids := make([]uint32, len(hits))
	for i, h := range hits {
		ids[i] = h.ID
	}
	return ids
}

// NearestWithinInto appends the points within r of (x, y) to dst[:0] in
// (distance, ID) order and returns the extended slice.
func (s *SpatialIndex) NearestWithinInto(dst []Hit, x, y, r float64) []Hit {
	if r < 0 {
		return dst[:0]
	}
	return s.within(dst[:0], Wrap(x, s.width), Wrap(y, s.height), r*r)
}

// within collects points whose torus distance squared is at most limitSq.
func (s *SpatialIndex) within(dst []Hit, x, y, limitSq float64) []Hit {
	if len(s.points) == 0 {
		return dst
	}
	search := math.Sqrt(limitSq) + s.slack
	keeper := kdtree.NewDistKeeper(search * search)

	for _, ox := range shifts(x, search, s.width) {
		for _, oy := range shifts(y, search, s.height) {
			keeper.Heap = append(keeper.Heap[:0], kdtree.ComparableDist{Dist: search * search})
			s.tree.NearestSet(keeper, kdPoint{x: x + ox, y: y + oy})
			dst = s.collect(dst, keeper.Heap, x, y, limitSq)
		}
	}

	sortHits(dst)
	return dedupe(dst)
}

// Nearest returns the k nearest points to (x, y) in (distance, ID) order.
func (s *SpatialIndex) Nearest(x, y float64, k int) []Hit {
	if k <= 0 || len(s.points) == 0 {
		return nil
	}
	x, y = Wrap(x, s.width), Wrap(y, s.height)

	// Every true neighbour appears in the k best of the image it is nearest
	// through, so the union over the nine images holds the answer.
	var cands []Hit
	keeper := kdtree.NewNKeeper(k)
	for _, ox := range [3]float64{0, -s.width, s.width} {
		for _, oy := range [3]float64{0, -s.height, s.height} {
			keeper.Heap = keeper.Heap[:1]
			keeper.Heap[0] = kdtree.ComparableDist{Dist: math.Inf(1)}
			s.tree.NearestSet(keeper, kdPoint{x: x + ox, y: y + oy})
			cands = s.collect(cands, keeper.Heap, x, y, math.Inf(1))
		}
	}
	sortHits(cands)
	cands = dedupe(cands)
	if len(cands) <= k {
		return cands
	}

	// Re-run as a radius query so ties at the k-th distance resolve by ID.
	out := s.within(cands[:0], x, y, cands[k-1].DistSq)
	if len(out) > k {
		out = out[:k]
	}
	return out
}

// collect re-measures kdtree candidates on the torus and keeps those within
// limitSq of (x, y).
func (s *SpatialIndex) collect(dst []Hit, found kdtree.Heap, x, y, limitSq float64) []Hit {
	for _, cd := range found {
		if cd.Comparable == nil {
			continue
		}
		p := cd.Comparable.(kdPoint)
		dx, dy := ToroidalDelta(x, y, p.x, p.y, s.width, s.height)
		d2 := dx*dx + dy*dy
		if d2 <= limitSq {
			dst = append(dst, Hit{ID: s.points[p.idx].ID, Index: p.idx, DX: dx, DY: dy, DistSq: d2})
		}
	}
	return dst
}

// shifts lists the query offsets needed for a circle of radius r around c on
// an axis of length size.
func shifts(c, r, size float64) []float64 {
	out := []float64{0}
	if c-r < 0 {
		out = append(out, size)
	}
	if c+r >= size {
		out = append(out, -size)
	}
	return out
}

func sortHits(h []Hit) {
	slices.SortFunc(h, func(a, b Hit) int {
		switch {
		case a.DistSq < b.DistSq:
			return -1
		case a.DistSq > b.DistSq:
			return 1
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		default:
			return a.Index - b.Index
		}
	})
}

// dedupe drops repeated indices from a sorted hit list. The same point can
// be proposed by two images; its torus distance is identical for both.
func dedupe(h []Hit) []Hit {
	return slices.CompactFunc(h, func(a, b Hit) bool { return a.Index == b.Index })
}

// ToroidalDelta returns the minimum-image delta from (x1,y1) to (x2,y2).
func ToroidalDelta(x1, y1, x2, y2, w, h float64) (dx, dy float64) {
	dx = x2 - x1
	dy = y2 - y1

	if dx > w/2 {
		dx -= w
	} else if dx < -w/2 {
		dx += w
	}
	if dy > h/2 {
		dy -= h
	} else if dy < -h/2 {
		dy += h
	}

	return dx, dy
}

// ToroidalDistSq returns the squared minimum-image distance.
func ToroidalDistSq(x1, y1, x2, y2, w, h float64) float64 {
	dx, dy := ToroidalDelta(x1, y1, x2, y2, w, h)
	return dx*dx + dy*dy
}

// Wrap maps v into [0, size).
func Wrap(v, size float64) float64 {
	v = math.Mod(v, size)
	if v < 0 {
		v += size
	}
	if v >= size {
		v = 0
	}
	return v
}

// kdPoint is a tree node: a wrapped position plus its index into points.
type kdPoint struct {
	x, y float64
	idx  int
}

func (p kdPoint) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(kdPoint)
	if d == 0 {
		return p.x - q.x
	}
	return p.y - q.y
}

func (p kdPoint) Dims() int { return 2 }

func (p kdPoint) Distance(c kdtree.Comparable) float64 {
	q := c.(kdPoint)
	dx, dy := p.x-q.x, p.y-q.y
	return dx*dx + dy*dy
}

type kdPoints []kdPoint

func (p kdPoints) Index(i int) kdtree.Comparable         { return p[i] }
func (p kdPoints) Len() int                              { return len(p) }
func (p kdPoints) Pivot(d kdtree.Dim) int                { return kdPlane{kdPoints: p, Dim: d}.Pivot() }
func (p kdPoints) Slice(start, end int) kdtree.Interface { return p[start:end] }

// kdPlane sorts points along one dimension for median selection.
type kdPlane struct {
	kdtree.Dim
	kdPoints
}

func (p kdPlane) Less(i, j int) bool {
	if p.Dim == 0 {
		return p.kdPoints[i].x < p.kdPoints[j].x
	}
	return p.kdPoints[i].y < p.kdPoints[j].y
}
func (p kdPlane) Pivot() int { return kdtree.Partition(p, kdtree.MedianOfMedians(p)) }
func (p kdPlane) Slice(start, end int) kdtree.SortSlicer {
	p.kdPoints = p.kdPoints[start:end]
	return p
}
func (p kdPlane) Swap(i, j int) {
	p.kdPoints[i], p.kdPoints[j] = p.kdPoints[j], p.kdPoints[i]
}
