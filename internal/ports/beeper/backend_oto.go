//go:build !headless

package beeper

import (
	"math"

	"github.com/ebitengine/oto/v3"
)

// otoBackend drives the oscillator through an oto.Player reading from
// this Beeper on oto's own callback goroutine — grounded on the
// teacher's OtoPlayer (oto.NewContext + player.Read callback).
type otoBackend struct {
	ctx    *oto.Context
	player *oto.Player
}

func newBackend() (beeperBackend, error) { return &otoBackend{}, nil }

func (o *otoBackend) start(b *Beeper) error {
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 1,
		Format:       oto.FormatFloat32LE,
		BufferSize:   0,
	})
	if err != nil {
		return err
	}
	<-ready
	o.ctx = ctx
	o.player = ctx.NewPlayer(&beeperReader{b: b})
	o.player.Play()
	return nil
}

func (o *otoBackend) stop() error {
	if o.player != nil {
		return o.player.Close()
	}
	return nil
}

// beeperReader adapts Beeper.nextSample to io.Reader's float32LE stream.
type beeperReader struct{ b *Beeper }

func (r *beeperReader) Read(p []byte) (int, error) {
	n := len(p) / 4
	for i := 0; i < n; i++ {
		s := r.b.nextSample()
		bits := math.Float32bits(s)
		p[4*i+0] = byte(bits)
		p[4*i+1] = byte(bits >> 8)
		p[4*i+2] = byte(bits >> 16)
		p[4*i+3] = byte(bits >> 24)
	}
	return n * 4, nil
}
