package imaging

import (
	"image"
	"math"
	"sort"
)

// minSkewDegrees is the rotation below which a resample is not worth it.
const minSkewDegrees = 1e-3

// Deskew estimates the rotation of the scanned content from the
// minimum-area bounding rectangle of its foreground pixels and rotates the
// full-resolution image to correct it.
//
// Foreground extraction assumes light text on a dark background; when the
// mean brightness is above the midpoint the polarity is inverted before
// the rectangle is computed. The inversion affects only the estimate, not
// the returned image.
func Deskew(img image.Image) image.Image {
	gray := Grayscale(img)
	points := foregroundExtremes(gray)
	if len(points) < 3 {
		return img
	}
	angle := NormalizeSkewAngle(MinAreaRectAngle(points))
	if math.Abs(angle) < minSkewDegrees {
		return img
	}
	return Rotate(img, angle)
}

// NormalizeSkewAngle converts a minimum-area-rectangle orientation into
// the corrective rotation. Angles below -45 describe the perpendicular
// edge of the same rectangle, so the complement is used instead.
func NormalizeSkewAngle(angle float64) float64 {
	if angle < -45 {
		return -(90 + angle)
	}
	return -angle
}

// foregroundExtremes collects the leftmost and rightmost foreground pixel
// of every row. Every vertex of the foreground convex hull is a row
// extreme, so this set is sufficient for the rectangle estimate.
func foregroundExtremes(gray *image.Gray) []image.Point {
	b := gray.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return nil
	}
	var sum uint64
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			sum += uint64(gray.Pix[y*gray.Stride+x])
		}
	}
	invert := float64(sum)/float64(w*h) > 127

	points := make([]image.Point, 0, 2*h)
	for y := 0; y < h; y++ {
		left, right := -1, -1
		for x := 0; x < w; x++ {
			v := gray.Pix[y*gray.Stride+x]
			fg := v > 0
			if invert {
				fg = v < 255
			}
			if fg {
				if left < 0 {
					left = x
				}
				right = x
			}
		}
		if left >= 0 {
			points = append(points, image.Pt(left, y))
			if right != left {
				points = append(points, image.Pt(right, y))
			}
		}
	}
	return points
}

// MinAreaRectAngle returns the orientation of the minimum-area bounding
// rectangle of points, in degrees in [-90, 0). -90 means axis-aligned; as
// the rectangle rotates clockwise in image coordinates the angle tends
// towards 0.
func MinAreaRectAngle(points []image.Point) float64 {
	hull := convexHull(points)
	if len(hull) < 2 {
		return -90
	}
	bestArea := math.Inf(1)
	bestTheta := 0.0
	for i := range hull {
		p := hull[i]
		q := hull[(i+1)%len(hull)]
		if p == q {
			continue
		}
		theta := math.Atan2(float64(q.Y-p.Y), float64(q.X-p.X))
		theta = math.Mod(theta, math.Pi/2)
		if theta < 0 {
			theta += math.Pi / 2
		}
		area := rotatedExtent(hull, theta)
		if area < bestArea {
			bestArea = area
			bestTheta = theta
		}
	}
	return bestTheta*180/math.Pi - 90
}

// rotatedExtent returns the axis-aligned bounding-box area of the points
// rotated by -theta.
func rotatedExtent(points []image.Point, theta float64) float64 {
	cos, sin := math.Cos(theta), math.Sin(theta)
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range points {
		x := float64(p.X)*cos + float64(p.Y)*sin
		y := -float64(p.X)*sin + float64(p.Y)*cos
		minX = math.Min(minX, x)
		maxX = math.Max(maxX, x)
		minY = math.Min(minY, y)
		maxY = math.Max(maxY, y)
	}
	return (maxX - minX) * (maxY - minY)
}

// convexHull computes the hull with the monotone chain algorithm,
// returning vertices in counter-clockwise order (image coordinates).
func convexHull(points []image.Point) []image.Point {
	pts := make([]image.Point, len(points))
	copy(pts, points)
	sort.Slice(pts, func(i, j int) bool {
		if pts[i].X != pts[j].X {
			return pts[i].X < pts[j].X
		}
		return pts[i].Y < pts[j].Y
	})
	n := len(pts)
	if n < 3 {
		return pts
	}
	hull := make([]image.Point, 0, 2*n)
	for _, p := range pts {
		for len(hull) >= 2 && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	lower := len(hull) + 1
	for i := n - 2; i >= 0; i-- {
		p := pts[i]
		for len(hull) >= lower && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	return hull[:len(hull)-1]
}

func cross(o, a, b image.Point) int64 {
	return int64(a.X-o.X)*int64(b.Y-o.Y) - int64(a.Y-o.Y)*int64(b.X-o.X)
}
