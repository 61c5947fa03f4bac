// Package png rasterizes simulation frames to sequential PNG files, the
// way Helen9125-Barnes-Hut-Simulation's AnimateSystem rasterizes a time
// series of System snapshots before handing them to its GIF encoder —
// here each frame is written directly with the standard image/png
// encoder instead of being collected into a GIF.
package png

import (
	"fmt"
	"image"
	"image/color"
	stdpng "image/png"
	"os"
	"path/filepath"

	"github.com/barneshut-nbody/distsim/render"
)

// Renderer rasterizes simulation coordinates in [-scale, scale]^2 onto a
// size x size canvas and writes one PNG per Flush into dir.
type Renderer struct {
	dir   string
	size  int
	scale float64
	frame int

	img *image.RGBA
}

// New creates a Renderer that writes frame-%06d.png files into dir. scale
// is the simulation-coordinate half-width mapped to the canvas edges
// (typically the simulation radius R).
func New(dir string, size int, scale float64) (*Renderer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("render/png: create output dir: %w", err)
	}
	return &Renderer{dir: dir, size: size, scale: scale}, nil
}

func (r *Renderer) Clear(background render.Color) error {
	r.img = image.NewRGBA(image.Rect(0, 0, r.size, r.size))
	bg := color.RGBA{background.R, background.G, background.B, 0xff}
	for y := 0; y < r.size; y++ {
		for x := 0; x < r.size; x++ {
			r.img.SetRGBA(x, y, bg)
		}
	}
	return nil
}

func (r *Renderer) DrawPoint(x, y float64, c render.Color) error {
	if r.img == nil {
		return fmt.Errorf("render/png: DrawPoint before Clear")
	}
	px, py := r.toPixel(x, y)
	if px < 0 || px >= r.size || py < 0 || py >= r.size {
		return nil // off-canvas points are silently clipped, not an error
	}
	r.img.SetRGBA(px, py, color.RGBA{c.R, c.G, c.B, 0xff})
	return nil
}

// Flush writes the current frame to disk and advances the frame counter.
func (r *Renderer) Flush() error {
	if r.img == nil {
		return nil
	}
	path := filepath.Join(r.dir, fmt.Sprintf("frame-%06d.png", r.frame))
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("render/png: create %s: %w", path, err)
	}
	defer f.Close()

	if err := stdpng.Encode(f, r.img); err != nil {
		return fmt.Errorf("render/png: encode %s: %w", path, err)
	}
	r.frame++
	return nil
}

func (r *Renderer) toPixel(x, y float64) (int, int) {
	half := float64(r.size) / 2
	px := int(half + (x/r.scale)*half)
	py := int(half - (y/r.scale)*half) // flip Y: simulation up is canvas up
	return px, py
}
