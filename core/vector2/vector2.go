// Package vector2 provides the 2D vector arithmetic shared by the quadrant,
// body and tree packages.
package vector2

import "math"

// Vector2 is an immutable 2D vector. Methods return new values rather than
// mutating the receiver.
type Vector2 struct {
	X, Y float64
}

// Zero is the additive identity.
var Zero = Vector2{}

// Add returns v + o.
func (v Vector2) Add(o Vector2) Vector2 {
	return Vector2{v.X + o.X, v.Y + o.Y}
}

// Sub returns v - o.
func (v Vector2) Sub(o Vector2) Vector2 {
	return Vector2{v.X - o.X, v.Y - o.Y}
}

// Scale returns v scaled by s.
func (v Vector2) Scale(s float64) Vector2 {
	return Vector2{v.X * s, v.Y * s}
}

// Length returns the Euclidean norm of v.
func (v Vector2) Length() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y)
}

// Distance returns the Euclidean distance between v and o.
func (v Vector2) Distance(o Vector2) float64 {
	return v.Sub(o).Length()
}
