// Package chip8 implements the CHIP-8 interpreter: memory, registers,
// call stack, timers, keypad and the monochrome framebuffer.
//
// A Chip8 is not safe for concurrent use.
package chip8

import (
	"fmt"
	"math/rand"
	"time"
)

const (
	MemorySize    = 4096
	StartAddress  = 0x200
	Width         = 64
	Height        = 32
	RegisterCount = 16
	StackSize     = 16
	KeyCount      = 16

	FontOffset      = 0x000
	FontSpriteBytes = 5

	// MaxRomSize is the largest program that fits above StartAddress.
	MaxRomSize = MemorySize - StartAddress
)

var fontSprites = [...]uint8{
	0xF0, 0x90, 0x90, 0x90, 0xF0, // 0
	0x20, 0x60, 0x20, 0x20, 0x70, // 1
	0xF0, 0x10, 0xF0, 0x80, 0xF0, // 2
	0xF0, 0x10, 0xF0, 0x10, 0xF0, // 3
	0x90, 0x90, 0xF0, 0x10, 0x10, // 4
	0xF0, 0x80, 0xF0, 0x10, 0xF0, // 5
	0xF0, 0x80, 0xF0, 0x90, 0xF0, // 6
	0xF0, 0x10, 0x20, 0x40, 0x40, // 7
	0xF0, 0x90, 0xF0, 0x90, 0xF0, // 8
	0xF0, 0x90, 0xF0, 0x10, 0xF0, // 9
	0xF0, 0x90, 0xF0, 0x90, 0x90, // A
	0xE0, 0x90, 0xE0, 0x90, 0xE0, // B
	0xF0, 0x80, 0x80, 0x80, 0xF0, // C
	0xE0, 0x90, 0x90, 0x90, 0xE0, // D
	0xF0, 0x80, 0xF0, 0x80, 0xF0, // E
	0xF0, 0x80, 0xF0, 0x80, 0x80, // F
}

// Framebuffer is the 64x32 display, row-major. true is a lit pixel.
type Framebuffer [Width * Height]bool

// Pixel reports whether the cell at (x, y) is lit.
func (f *Framebuffer) Pixel(x, y int) bool {
	return f[y*Width+x]
}

type Chip8 struct {
	mem   [MemorySize]uint8    // memory
	pc    uint16               // program counter
	v     [RegisterCount]uint8 // registers, v[0xf] doubles as flag
	i     uint16               // index register
	dt    uint8                // delay timer
	st    uint8                // sound timer
	sp    uint8                // number of frames on the stack
	stack [StackSize]uint16    // stack
	keys  [KeyCount]bool       // keyboard state
	disp  Framebuffer          // graphics

	random func() uint8
	beep   func()
}

// Option configures host wiring on a Chip8. Options survive Reset.
type Option func(c *Chip8)

// WithRandom sets the byte source used by CXNN.
func WithRandom(f func() uint8) Option {
	return func(c *Chip8) {
		c.random = f
	}
}

// WithBeep sets the callback fired when the sound timer runs out.
func WithBeep(f func()) Option {
	return func(c *Chip8) {
		c.beep = f
	}
}

func New(opts ...Option) *Chip8 {
	c := &Chip8{}
	for _, opt := range opts {
		opt(c)
	}
	if c.random == nil {
		r := rand.New(rand.NewSource(time.Now().UnixNano()))
		c.random = func() uint8 { return uint8(r.Intn(256)) }
	}
	c.Reset()
	return c
}

// Reset puts the machine back into its power-on state. The loaded
// program is discarded along with everything else.
func (c *Chip8) Reset() {
	random, beep := c.random, c.beep
	*c = Chip8{random: random, beep: beep}
	c.pc = StartAddress
	copy(c.mem[FontOffset:], fontSprites[:])
}

// Load copies rom into memory at StartAddress.
func (c *Chip8) Load(rom []byte) error {
	if len(rom) > MaxRomSize {
		return fmt.Errorf("%w: %d bytes, %d available", ErrRomTooLarge, len(rom), MaxRomSize)
	}
	copy(c.mem[StartAddress:], rom)
	return nil
}

// Keypress records a key transition for key 0x0-0xF.
func (c *Chip8) Keypress(key int, pressed bool) error {
	if key < 0 || key >= KeyCount {
		return invalidKey(key)
	}
	c.keys[key] = pressed
	return nil
}

// Display returns a copy of the framebuffer.
func (c *Chip8) Display() Framebuffer {
	return c.disp
}

// SoundActive reports whether the sound timer is running.
func (c *Chip8) SoundActive() bool {
	return c.st > 0
}

// TickTimers decrements both timers; call it at 60 Hz. The beep
// callback fires when the sound timer goes from 1 to 0.
func (c *Chip8) TickTimers() {
	if c.dt > 0 {
		c.dt--
	}
	if c.st > 0 {
		c.st--
		if c.st == 0 && c.beep != nil {
			c.beep()
		}
	}
}

func (c *Chip8) fetchOpcode() (uint16, error) {
	if int(c.pc)+1 >= MemorySize {
		return 0, outOfBounds(int(c.pc), 2)
	}
	op := uint16(c.mem[c.pc])<<8 | uint16(c.mem[c.pc+1])
	c.pc += 2
	return op, nil
}

func (c *Chip8) updateCarryFlag(b bool) {
	if b {
		c.v[0xf] = 1
	} else {
		c.v[0xf] = 0
	}
}

func (c *Chip8) pushStack(v uint16) error {
	if int(c.sp) >= StackSize {
		return ErrStackOverflow
	}
	c.stack[c.sp] = v
	c.sp++
	return nil
}

func (c *Chip8) popStack() (uint16, error) {
	if c.sp == 0 {
		return 0, ErrStackUnderflow
	}
	c.sp--
	return c.stack[c.sp], nil
}

// checkRange fails unless memory[addr:addr+n] is addressable.
func checkRange(addr, n int) error {
	if addr < 0 || addr+n > MemorySize {
		return outOfBounds(addr, n)
	}
	return nil
}

// draw XORs an n-row sprite from memory[I] at (x, y), wrapping at the
// screen edges, and reports whether any lit pixel was cleared.
func (c *Chip8) draw(x, y, n uint8) (bool, error) {
	if err := checkRange(int(c.i), int(n)); err != nil {
		return false, err
	}
	flipped := false
	sm := c.mem[c.i : int(c.i)+int(n)]
	for iy, row := range sm {
		for ix := 0; ix < 8; ix++ {
			if (row>>(7-ix))&0x01 == 0 {
				continue
			}
			tx := (int(x) + ix) % Width
			ty := (int(y) + iy) % Height
			p := &c.disp[ty*Width+tx]
			if *p {
				flipped = true
			}
			*p = !*p
		}
	}
	return flipped, nil
}

// pressedAnyKey returns the lowest pressed key.
func (c *Chip8) pressedAnyKey() (uint8, bool) {
	for i, v := range c.keys {
		if v {
			return uint8(i), true
		}
	}
	return 0, false
}
