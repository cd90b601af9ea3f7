//go:build !headless

package vga

import (
	"image"
	"image/color"
	"log/slog"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/ie32vm/ie32vm/internal/vm"
)

const (
	glyphW = 8
	glyphH = 16
	winW   = Columns * glyphW
	winH   = Rows * glyphH
)

// ebitenBackend owns the render window and keyboard capture. Rendering
// is asynchronous to the CPU: DRAW only replaces the latest pending
// snapshot (a single mutex-guarded slot; an older frame not yet drawn is
// dropped), grounded on the
// teacher's EbitenOutput bufferMutex/frameBuffer split and the spec's
// one-way, non-blocking port→render channel requirement.
type ebitenBackend struct {
	mu       sync.Mutex
	snapshot []byte
	cpu      *vm.CPU
	face     font.Face
}

func newBackend() (vgaBackend, error) {
	return &ebitenBackend{face: basicfont.Face7x13}, nil
}

func (b *ebitenBackend) start(v *VGA, cpu *vm.CPU) error {
	b.cpu = cpu
	ebiten.SetWindowSize(winW, winH)
	ebiten.SetWindowTitle("ie32vm")
	ebiten.SetWindowResizable(true)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				slog.Warn("vga render loop panicked", "panic", r)
			}
		}()
		if err := ebiten.RunGame(b); err != nil {
			slog.Warn("vga render loop stopped", "error", err)
		}
	}()
	return nil
}

func (b *ebitenBackend) draw(snapshot []byte) {
	b.mu.Lock()
	b.snapshot = snapshot
	b.mu.Unlock()
}

func (b *ebitenBackend) stop() error { return nil }

// Update implements ebiten.Game: it polls keyboard state and latches a
// hardware interrupt per spec §4.4/§5 — register A receives the key code.
func (b *ebitenBackend) Update() error {
	if b.cpu == nil {
		return nil
	}
	for _, k := range inputKeysPressed() {
		code := k
		b.cpu.InstallHardwareInterrupt(func(c *vm.CPU) {
			c.Reg[vm.RegA] = uint32(code)
		})
	}
	return nil
}

// Draw implements ebiten.Game: it renders the 80x25 text grid from the
// latest VRAM snapshot using basicfont glyph bitmaps.
func (b *ebitenBackend) Draw(screen *ebiten.Image) {
	b.mu.Lock()
	snap := b.snapshot
	b.mu.Unlock()
	if snap == nil {
		return
	}
	screen.Fill(color.RGBA{Palette[0][0], Palette[0][1], Palette[0][2], 0xFF})
	for row := 0; row < Rows; row++ {
		for col := 0; col < Columns; col++ {
			off := (row*Columns + col) * CellSize
			if off+1 >= len(snap) {
				continue
			}
			ch := snap[off]
			attr := snap[off+1]
			fg := Palette[attr&0x0F]
			x := col * glyphW
			y := row*glyphH + glyphH - 3
			drawGlyph(screen, b.face, rune(ch), x, y, fg)
		}
	}
}

func drawGlyph(dst *ebiten.Image, face font.Face, r rune, x, y int, rgb [3]byte) {
	img := image.NewRGBA(image.Rect(0, 0, glyphW, glyphH))
	d := font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.RGBA{rgb[0], rgb[1], rgb[2], 0xFF}),
		Face: face,
		Dot:  fixed.P(0, glyphH-4),
	}
	d.DrawString(string(r))
	opts := &ebiten.DrawImageOptions{}
	opts.GeoM.Translate(float64(x), float64(y-glyphH+4))
	dst.DrawImage(ebiten.NewImageFromImage(img), opts)
}

// Layout implements ebiten.Game.
func (b *ebitenBackend) Layout(outsideWidth, outsideHeight int) (int, int) {
	return winW, winH
}

func inputKeysPressed() []byte {
	var out []byte
	for _, r := range ebiten.AppendInputChars(nil) {
		if r < 128 {
			out = append(out, byte(r))
		}
	}
	return out
}
