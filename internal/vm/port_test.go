package vm

import (
	"context"
	"testing"
)

type echoPort struct {
	buf []byte
	pos int
}

func (p *echoPort) Init(cpu *CPU, cfg any) error { return nil }
func (p *echoPort) Write(b byte)                 { p.buf = append(p.buf, b) }
func (p *echoPort) Read() byte {
	if p.pos >= len(p.buf) {
		return 0
	}
	b := p.buf[p.pos]
	p.pos++
	return b
}
func (p *echoPort) Deinit() error { return nil }

func TestOutThenInRoundTripLong(t *testing.T) {
	c := NewCPU()
	port := &echoPort{}
	idx, err := c.Ports.Register(c, port, nil)
	if err != nil {
		t.Fatal(err)
	}
	c.Reg[RegC] = 0xCAFEBABE

	outOp := OutOpcode(AddrReg, WidthLong)
	inOp := InOpcode(WidthLong)
	prog := []byte{outOp, idx, byte(RegC), inOp, idx, byte(RegD), OpHLT}
	if err := c.Load(prog, 0); err != nil {
		t.Fatal(err)
	}
	if err := c.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if c.Reg[RegD] != 0xCAFEBABE {
		t.Errorf("D = %#x, want 0xCAFEBABE", c.Reg[RegD])
	}
}

func TestPortDeinitCalledOnHalt(t *testing.T) {
	c := NewCPU()
	port := &trackingPort{}
	if _, err := c.Ports.Register(c, port, nil); err != nil {
		t.Fatal(err)
	}
	if err := c.Load([]byte{OpHLT}, 0); err != nil {
		t.Fatal(err)
	}
	if err := c.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !port.deinited {
		t.Errorf("Deinit not called on HLT")
	}
}

type trackingPort struct{ deinited bool }

func (p *trackingPort) Init(cpu *CPU, cfg any) error { return nil }
func (p *trackingPort) Write(b byte)                 {}
func (p *trackingPort) Read() byte                   { return 0 }
func (p *trackingPort) Deinit() error                { p.deinited = true; return nil }
