// Package scene is the demo composition shared by the windowed demo and the
// snapshot tool.
package scene

import (
	"image"
	"image/color"
	"math"
	"time"

	"github.com/pkg/errors"

	"spritecomp/internal/renderer"
	"spritecomp/pkg/coords"
)

const (
	// CellSize is the edge of one generated atlas cell.
	CellSize = 16
	// PanelSize is the edge of the composited panel subsurface.
	PanelSize = 4 * CellSize
	// PanelMargin separates the panel from the frame's bottom-right corner.
	PanelMargin = 8
	// TurnsPerSecond is the spin rate of the center sprite.
	TurnsPerSecond = 0.25
)

// Palette holds the colors of the generated atlas cells, left to right.
var Palette = []color.NRGBA{
	{R: 230, G: 57, B: 70, A: 255},
	{R: 42, G: 157, B: 143, A: 255},
	{R: 69, G: 123, B: 157, A: 255},
	{R: 233, G: 196, B: 106, A: 255},
}

// GenerateAtlas builds a one-row atlas with a cell per palette color. Each
// cell has a transparent one-pixel border.
func GenerateAtlas() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, CellSize*len(Palette), CellSize))
	for i, c := range Palette {
		for y := 1; y < CellSize-1; y++ {
			for x := 1; x < CellSize-1; x++ {
				img.SetNRGBA(i*CellSize+x, y, c)
			}
		}
	}
	return img
}

// Scene is a row of atlas cells along the top edge, a spinning sprite in
// the middle and a panel subsurface in the bottom-right corner.
type Scene struct {
	atlas   *renderer.Texture
	cells   []*renderer.Sprite
	panel   *renderer.PixelSurface
	elapsed time.Duration
}

// New loads the atlas from textureRef, or generates one when it is empty.
// A loaded atlas is cut into square cells as tall as the texture.
func New(r *renderer.Renderer, textureRef string) (*Scene, error) {
	var (
		atlas *renderer.Texture
		err   error
	)
	if textureRef == "" {
		atlas, err = r.CreateTextureFromImage(GenerateAtlas())
	} else {
		atlas, err = r.LoadTexture(textureRef)
	}
	if err != nil {
		return nil, errors.WithMessage(err, "atlas")
	}

	s := &Scene{atlas: atlas}
	if err := s.cutCells(r); err != nil {
		s.Release()
		return nil, err
	}
	if err := s.buildPanel(r); err != nil {
		s.Release()
		return nil, err
	}
	return s, nil
}

func (s *Scene) cutCells(r *renderer.Renderer) error {
	dims := s.atlas.Dimensions()
	cell := dims.Height
	n := dims.Width / cell
	if n == 0 {
		n, cell = 1, dims.Width
	}
	for i := uint32(0); i < n; i++ {
		area := coords.Area(int32(i*cell), 0, cell, cell)
		sprite, err := r.CreateSprite(s.atlas, &area)
		if err != nil {
			return err
		}
		s.cells = append(s.cells, sprite)
	}
	return nil
}

// buildPanel composites a 2x2 grid of cells, starting from the third.
func (s *Scene) buildPanel(r *renderer.Renderer) error {
	var err error
	s.panel, err = r.CreateSubsurface(PanelSize, PanelSize)
	if err != nil {
		return err
	}

	half := uint32(PanelSize / 2)
	for i := 0; i < 4; i++ {
		cell := s.cells[(i+2)%len(s.cells)]
		opts := renderer.At(int32(uint32(i%2)*half), int32(uint32(i/2)*half)).Scaled(half, half)
		if err := s.panel.DrawSprite(cell, opts); err != nil {
			return err
		}
	}
	return nil
}

// Advance moves the animation forward by dt.
func (s *Scene) Advance(dt time.Duration) {
	s.elapsed += dt
}

// Rotation returns the spin of the center sprite as a fraction of a turn.
func (s *Scene) Rotation() float32 {
	turns := s.elapsed.Seconds() * TurnsPerSecond
	return float32(turns - math.Floor(turns))
}

// Draw composes the frame into the renderer's swap surface.
func (s *Scene) Draw(r *renderer.Renderer) error {
	if err := r.Clear(); err != nil {
		return err
	}
	frame := r.Dimensions()

	// Top row, each cell doubled.
	step := 2 * CellSize
	for i := 0; i*step < int(frame.Width); i++ {
		opts := renderer.At(int32(i*step), 0).Scaled(uint32(step), uint32(step))
		if err := r.DrawSprite(s.cells[i%len(s.cells)], opts); err != nil {
			return err
		}
	}

	// Spinning sprite about its own center.
	size := int32(PanelSize)
	center := coords.Pt(int32(frame.Width)/2, int32(frame.Height)/2)
	spin := renderer.At(center.X-size/2, center.Y-size/2).
		Scaled(uint32(size), uint32(size)).
		Rotated(renderer.RotationByFraction(s.Rotation(), &center))
	if err := r.DrawSprite(s.cells[0], spin); err != nil {
		return err
	}

	panelAt := renderer.At(int32(frame.Width)-PanelSize-PanelMargin, int32(frame.Height)-PanelSize-PanelMargin)
	return r.DrawSubsurface(s.panel, panelAt)
}

// Release frees the scene's sprites, atlas and panel.
func (s *Scene) Release() {
	for _, c := range s.cells {
		c.Release()
	}
	s.cells = nil
	if s.panel != nil {
		s.panel.Release()
		s.panel = nil
	}
	if s.atlas != nil {
		s.atlas.Release()
		s.atlas = nil
	}
}
