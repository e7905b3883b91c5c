// Copyright © 2024 Galvanized Logic Inc.

package hull

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"math"
	"sort"

	"github.com/lumenforge/lumen/math/lin"
)

// decompose.go builds one or more convex pieces from an arbitrary
// (possibly concave) triangle mesh: a single wrapping hull normally, or
// several pieces via approximate volumetric decomposition when
// `decompose` is set (spec §4.5.2 "Build path": "runs V-HACD
// decomposition (when decompose) or a single convex-hull computation").
// Grounded on physics/collider.go's `collider_Convex_Hull` (vertices +
// triangle faces) for the shape the result must end up as — `hull`
// itself stays independent of the physics package's unexported collider
// type, handing the engine plain vertex/index buffers that
// physics.NewConvexHull re-wraps.
//
// The decomposition here is a coarse stand-in for V-HACD's voxel-based
// approximate convex decomposition: it recursively bisects the point
// set along its longest bounding-box axis until every piece is within
// MaxVertices, then wraps each piece with the same incremental hull
// builder used for the non-decomposed path. A real V-HACD
// implementation is out of scope for this package; no pack example
// repo carries one, and a faithful port would be a project on its own.

// Settings mirrors a PhysicsInfo entry's per-hull tuning (spec §6
// "PhysicsInfo files"). The zero value is not the default; DefaultSettings
// returns the defaults.
type Settings struct {
	Decompose          bool
	ShrinkWrap         bool
	VoxelResolution    uint32
	VolumePercentError float64
	MaxVertices        uint32
}

// DefaultSettings returns the documented PhysicsInfo defaults (spec §6).
func DefaultSettings() Settings {
	return Settings{VoxelResolution: 400_000, VolumePercentError: 1.0, MaxVertices: 64}
}

// Clamp brings an out-of-range Settings back within the documented
// bounds, per spec §6 "Out-of-range values are clamped with a
// warning" — the warning itself is the caller's responsibility (the
// asset loader logs it with the hull name in context).
func (s Settings) Clamp() Settings {
	if s.VoxelResolution == 0 {
		s.VoxelResolution = 400_000
	}
	if s.VolumePercentError <= 0 || s.VolumePercentError >= 100 {
		s.VolumePercentError = 1.0
	}
	if s.MaxVertices < 3 {
		s.MaxVertices = 64
	}
	if s.MaxVertices > 255 {
		s.MaxVertices = 255
	}
	return s
}

// ConvexHull is one convex piece: a vertex buffer and a triangle index
// buffer (3 indices per face), the layout physics.NewConvexHull expects.
type ConvexHull struct {
	Vertices []lin.V3
	Indices  []uint32
}

// ConvexHullSet is the cached/built value for one hull_settings name
// (spec §4.5.2 "Value: Async<ConvexHullSet>").
type ConvexHullSet struct {
	Hulls []ConvexHull
}

// Build produces a ConvexHullSet from a source mesh's vertices and
// triangle indices, either a single wrapping hull or several pieces
// depending on settings.Decompose (spec §4.5.2 "Build path").
func Build(vertices []lin.V3, indices []uint32, settings Settings) ConvexHullSet {
	settings = settings.Clamp()
	if !settings.Decompose {
		return ConvexHullSet{Hulls: []ConvexHull{convexHullOf(vertices, int(settings.MaxVertices))}}
	}
	clusters := bisect(vertices, int(settings.MaxVertices))
	set := ConvexHullSet{Hulls: make([]ConvexHull, 0, len(clusters))}
	for _, c := range clusters {
		if len(c) < 3 {
			continue
		}
		set.Hulls = append(set.Hulls, convexHullOf(c, int(settings.MaxVertices)))
	}
	return set
}

// bisect recursively splits points along its bounding box's longest
// axis until every leaf has at most maxVertices points, the coarse
// volumetric-decomposition stand-in decompose.go's package doc
// describes.
func bisect(points []lin.V3, maxVertices int) [][]lin.V3 {
	if len(points) <= maxVertices || len(points) <= 4 {
		return [][]lin.V3{points}
	}

	min, max := bounds(points)
	dx, dy, dz := max.X-min.X, max.Y-min.Y, max.Z-min.Z
	axis := 0
	longest := dx
	if dy > longest {
		axis, longest = 1, dy
	}
	if dz > longest {
		axis = 2
	}

	sorted := append([]lin.V3(nil), points...)
	sort.Slice(sorted, func(i, j int) bool {
		switch axis {
		case 0:
			return sorted[i].X < sorted[j].X
		case 1:
			return sorted[i].Y < sorted[j].Y
		default:
			return sorted[i].Z < sorted[j].Z
		}
	})

	mid := len(sorted) / 2
	left := bisect(sorted[:mid], maxVertices)
	right := bisect(sorted[mid:], maxVertices)
	return append(left, right...)
}

func bounds(points []lin.V3) (min, max lin.V3) {
	min, max = points[0], points[0]
	for _, p := range points[1:] {
		min.X, max.X = math.Min(min.X, p.X), math.Max(max.X, p.X)
		min.Y, max.Y = math.Min(min.Y, p.Y), math.Max(max.Y, p.Y)
		min.Z, max.Z = math.Min(min.Z, p.Z), math.Max(max.Z, p.Z)
	}
	return min, max
}

// convexHullOf wraps points in their 3D convex hull using an
// incremental gift-wrapping construction: start from a seed tetrahedron
// of extreme points, then repeatedly fold in the farthest outside point
// for each face until none remain outside. Brute-force outside tests
// (O(faces × points) per iteration) are fine here: hull inputs are
// collision proxies, already capped at MaxVertices, never full render
// meshes.
func convexHullOf(points []lin.V3, maxVertices int) ConvexHull {
	points = dedupe(points)
	if len(points) < 4 {
		return ConvexHull{Vertices: points, Indices: triangulateDegenerate(points)}
	}

	type face struct{ a, b, c int }
	verts := append([]lin.V3(nil), points...)
	faces := seedTetrahedron(verts)

	faceNormal := func(f face) lin.V3 {
		var e1, e2, n lin.V3
		e1.Sub(&verts[f.b], &verts[f.a])
		e2.Sub(&verts[f.c], &verts[f.a])
		n.Cross(&e1, &e2)
		return n
	}
	outside := func(f face, p lin.V3) bool {
		n := faceNormal(f)
		var d lin.V3
		d.Sub(&p, &verts[f.a])
		return n.Dot(&d) > 1e-9
	}

	changed := true
	for changed && len(verts) < maxVertices+4 {
		changed = false
		for fi := 0; fi < len(faces); fi++ {
			f := faces[fi]
			farthestIdx := -1
			farthestDist := 0.0
			for pi, p := range verts {
				if !outside(f, p) {
					continue
				}
				n := faceNormal(f)
				var d lin.V3
				d.Sub(&p, &verts[f.a])
				dist := n.Dot(&d)
				if dist > farthestDist {
					farthestDist, farthestIdx = dist, pi
				}
			}
			if farthestIdx < 0 {
				continue
			}
			// Replace f with three faces fanning out to the new point;
			// any other face the new point is also outside of is folded
			// in the same way on a later pass.
			faces[fi] = face{f.a, f.b, farthestIdx}
			faces = append(faces, face{f.b, f.c, farthestIdx}, face{f.c, f.a, farthestIdx})
			changed = true
		}
	}

	indices := make([]uint32, 0, len(faces)*3)
	for _, f := range faces {
		indices = append(indices, uint32(f.a), uint32(f.b), uint32(f.c))
	}
	return ConvexHull{Vertices: verts, Indices: indices}
}

func seedTetrahedron(verts []lin.V3) []struct{ a, b, c int } {
	type face struct{ a, b, c int }
	// Extreme points along X give a starting edge; any two points not
	// collinear with them give a starting triangle; any point not
	// coplanar with that triangle closes the tetrahedron. Degenerate
	// point sets (all collinear/coplanar) fall back to a flat fan, which
	// `outside` will simply never grow beyond.
	minI, maxI := 0, 0
	for i, v := range verts {
		if v.X < verts[minI].X {
			minI = i
		}
		if v.X > verts[maxI].X {
			maxI = i
		}
	}
	if minI == maxI {
		maxI = (minI + 1) % len(verts)
	}
	third := 0
	for third == minI || third == maxI {
		third = (third + 1) % len(verts)
	}
	fourth := 0
	for fourth == minI || fourth == maxI || fourth == third {
		fourth = (fourth + 1) % len(verts)
	}
	return []face{
		{minI, maxI, third},
		{maxI, third, fourth},
		{third, fourth, minI},
		{fourth, minI, maxI},
	}
}

func dedupe(points []lin.V3) []lin.V3 {
	const eps = 1e-7
	out := make([]lin.V3, 0, len(points))
	for _, p := range points {
		dup := false
		for _, q := range out {
			if math.Abs(p.X-q.X) < eps && math.Abs(p.Y-q.Y) < eps && math.Abs(p.Z-q.Z) < eps {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, p)
		}
	}
	return out
}

func triangulateDegenerate(points []lin.V3) []uint32 {
	if len(points) < 3 {
		return nil
	}
	indices := make([]uint32, 0, (len(points)-2)*3)
	for i := 1; i+1 < len(points); i++ {
		indices = append(indices, 0, uint32(i), uint32(i+1))
	}
	return indices
}

// Marshal serializes a ConvexHullSet to the payload format stored after
// a cache file's header (spec §6): hull count, then per hull a vertex
// count + vertices + index count + indices, all little-endian.
func Marshal(set ConvexHullSet) []byte {
	size := 4
	for _, h := range set.Hulls {
		size += 4 + len(h.Vertices)*24 + 4 + len(h.Indices)*4
	}
	buf := make([]byte, size)
	off := 0
	binary.LittleEndian.PutUint32(buf[off:], uint32(len(set.Hulls)))
	off += 4
	for _, h := range set.Hulls {
		binary.LittleEndian.PutUint32(buf[off:], uint32(len(h.Vertices)))
		off += 4
		for _, v := range h.Vertices {
			binary.LittleEndian.PutUint64(buf[off:], math.Float64bits(v.X))
			binary.LittleEndian.PutUint64(buf[off+8:], math.Float64bits(v.Y))
			binary.LittleEndian.PutUint64(buf[off+16:], math.Float64bits(v.Z))
			off += 24
		}
		binary.LittleEndian.PutUint32(buf[off:], uint32(len(h.Indices)))
		off += 4
		for _, idx := range h.Indices {
			binary.LittleEndian.PutUint32(buf[off:], idx)
			off += 4
		}
	}
	return buf
}

// HashSettings derives a stable 128-bit key from a Settings value so
// cache entries are invalidated whenever decomposition parameters change
// (spec §4.5.2's "Key: (model_hash, settings_hash)"). Shared by the
// physics runtime's pollHull and cmd/hullc so both hash a hull's
// settings identically.
func HashSettings(s Settings) Hash128 {
	buf := make([]byte, 0, 32)
	buf = appendBool(buf, s.Decompose)
	buf = appendBool(buf, s.ShrinkWrap)
	buf = binary.LittleEndian.AppendUint32(buf, s.VoxelResolution)
	buf = binary.LittleEndian.AppendUint64(buf, uint64(s.VolumePercentError*1e6))
	buf = binary.LittleEndian.AppendUint32(buf, s.MaxVertices)

	hi := fnv.New64a()
	hi.Write(buf)
	lo := fnv.New64a()
	lo.Write(buf)
	lo.Write([]byte{0xff})
	return Hash128{Hi: hi.Sum64(), Lo: lo.Sum64()}
}

func appendBool(buf []byte, b bool) []byte {
	if b {
		return append(buf, 1)
	}
	return append(buf, 0)
}

// Unmarshal is Marshal's inverse.
func Unmarshal(buf []byte) (ConvexHullSet, error) {
	var set ConvexHullSet
	off := 0
	need := func(n int) error {
		if off+n > len(buf) {
			return fmt.Errorf("hull: truncated payload at byte %d", off)
		}
		return nil
	}
	if err := need(4); err != nil {
		return set, err
	}
	hullCount := binary.LittleEndian.Uint32(buf[off:])
	off += 4
	set.Hulls = make([]ConvexHull, hullCount)
	for i := range set.Hulls {
		if err := need(4); err != nil {
			return set, err
		}
		vCount := binary.LittleEndian.Uint32(buf[off:])
		off += 4
		verts := make([]lin.V3, vCount)
		for j := range verts {
			if err := need(24); err != nil {
				return set, err
			}
			verts[j] = lin.V3{
				X: math.Float64frombits(binary.LittleEndian.Uint64(buf[off:])),
				Y: math.Float64frombits(binary.LittleEndian.Uint64(buf[off+8:])),
				Z: math.Float64frombits(binary.LittleEndian.Uint64(buf[off+16:])),
			}
			off += 24
		}
		if err := need(4); err != nil {
			return set, err
		}
		iCount := binary.LittleEndian.Uint32(buf[off:])
		off += 4
		idx := make([]uint32, iCount)
		for j := range idx {
			if err := need(4); err != nil {
				return set, err
			}
			idx[j] = binary.LittleEndian.Uint32(buf[off:])
			off += 4
		}
		set.Hulls[i] = ConvexHull{Vertices: verts, Indices: idx}
	}
	return set, nil
}
