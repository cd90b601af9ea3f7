//go:build headless

package beeper

// headlessBackend drops all samples; used for tests and CI where no
// audio device exists.
type headlessBackend struct{}

func newBackend() (beeperBackend, error) { return &headlessBackend{}, nil }

func (h *headlessBackend) start(b *Beeper) error { return nil }
func (h *headlessBackend) stop() error           { return nil }
