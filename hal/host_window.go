//go:build cgo

package hal

import (
	"image"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"

	"folio/internal/buildinfo"
)

// RunWindow opens a resizable desktop window showing box. Each window tick
// forwards input to box, steps loop and calls step. The window's size is the
// box's content size. It blocks until the window closes or step fails.
func RunWindow(loop *Loop, box *Box, cfg WindowConfig, step func() error) error {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		cfg.Width, cfg.Height = 960, 640
	}
	if cfg.Title == "" {
		cfg.Title = "folio"
	}
	if cfg.Background == nil {
		cfg.Background = color.Black
	}
	g := &hostGame{loop: loop, box: box, step: step, bg: cfg.Background}
	ebiten.SetWindowTitle(cfg.Title + " (" + buildinfo.Short() + ")")
	ebiten.SetWindowSize(cfg.Width, cfg.Height)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetTPS(60)
	return ebiten.RunGame(g)
}

type hostGame struct {
	loop *Loop
	box  *Box
	step func() error
	bg   color.Color

	img    *image.RGBA
	boxImg *ebiten.Image

	input hostInput
}

func (g *hostGame) Update() error {
	g.input.poll(g.box)
	g.loop.Step()
	if g.step != nil {
		if err := g.step(); err != nil {
			return err
		}
	}
	return nil
}

func (g *hostGame) Draw(screen *ebiten.Image) {
	g.img = g.box.Composite(g.img, g.bg)
	b := g.img.Bounds()
	if b.Empty() {
		return
	}
	if g.boxImg == nil || g.boxImg.Bounds().Size() != b.Size() {
		if g.boxImg != nil {
			g.boxImg.Deallocate()
		}
		g.boxImg = ebiten.NewImage(b.Dx(), b.Dy())
	}
	g.boxImg.WritePixels(g.img.Pix)
	screen.DrawImage(g.boxImg, nil)
}

func (g *hostGame) Layout(outsideWidth, outsideHeight int) (int, int) {
	g.box.SetSize(outsideWidth, outsideHeight)
	return max(outsideWidth, 1), max(outsideHeight, 1)
}
