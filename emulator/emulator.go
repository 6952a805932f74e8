// Package emulator is the SDL2 front end for the chip8 interpreter.
package emulator

import (
	"encoding/binary"
	"fmt"
	"log"
	"math"

	"github.com/veandco/go-sdl2/sdl"

	"github.com/tuboc/chip8/chip8"
)

const (
	VBlankFrequency  = 60
	DefaultFrequency = VBlankFrequency * 8
	DefaultScale     = 10
	AudioSamples     = 64
)

// Config holds the host settings taken from the command line.
type Config struct {
	Frequency int   // instructions per second
	Scale     int32 // screen pixels per chip8 pixel
	StepMode  bool  // start halted
}

type Emulator struct {
	rom      []byte
	chip8    *chip8.Chip8
	cfg      Config
	renderer *sdl.Renderer
	audio    sdl.AudioDeviceID
	running  bool
	focus    bool
	stepMode bool
}

var scanCode2Key = map[int]int{
	sdl.SCANCODE_4: 0x1,
	sdl.SCANCODE_5: 0x2,
	sdl.SCANCODE_6: 0x3,
	sdl.SCANCODE_7: 0xc,
	sdl.SCANCODE_R: 0x4,
	sdl.SCANCODE_T: 0x5,
	sdl.SCANCODE_Y: 0x6,
	sdl.SCANCODE_U: 0xd,
	sdl.SCANCODE_F: 0x7,
	sdl.SCANCODE_G: 0x8,
	sdl.SCANCODE_H: 0x9,
	sdl.SCANCODE_J: 0xe,
	sdl.SCANCODE_V: 0xa,
	sdl.SCANCODE_B: 0x0,
	sdl.SCANCODE_N: 0xb,
	sdl.SCANCODE_M: 0xf,
}

func checkError(s string, e error) {
	if e != nil {
		log.Fatalf("%s: %v", s, e)
	}
}

func initRenderer(scale int32) *sdl.Renderer {
	window, err := sdl.CreateWindow("Chip-8 Emulator", sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED,
		chip8.Width*scale, chip8.Height*scale, sdl.WINDOW_SHOWN)
	checkError("CreateWindow", err)

	renderer, err := sdl.CreateRenderer(window, -1, sdl.RENDERER_PRESENTVSYNC)
	checkError("CreateRenderer", err)

	// workaround for https://bugzilla.libsdl.org/show_bug.cgi?id=4272
	// 	or update sdl2 to 2.0.9
	window.Hide()
	sdl.PumpEvents()
	window.Show()

	return renderer
}

func initAudio() sdl.AudioDeviceID {
	want := &sdl.AudioSpec{
		Freq:     AudioSamples * VBlankFrequency,
		Format:   sdl.AUDIO_F32LSB,
		Channels: 1,
		Samples:  AudioSamples,
	}
	have := &sdl.AudioSpec{}
	audio, err := sdl.OpenAudioDevice("", false, want, have, sdl.AUDIO_ALLOW_ANY_CHANGE)
	checkError("OpenAudioDevice", err)

	sdl.PauseAudioDevice(audio, false)
	return audio
}

// NewEmulator opens the window and audio device and loads rom.
func NewEmulator(rom []byte, cfg Config) (*Emulator, error) {
	if cfg.Frequency < VBlankFrequency {
		cfg.Frequency = DefaultFrequency
	}
	if cfg.Scale <= 0 {
		cfg.Scale = DefaultScale
	}

	e := &Emulator{rom: rom, cfg: cfg, running: true, focus: true, stepMode: cfg.StepMode}
	e.chip8 = chip8.New(chip8.WithBeep(e.stopSound))
	if err := e.chip8.Load(rom); err != nil {
		return nil, fmt.Errorf("loading rom: %w", err)
	}

	err := sdl.Init(sdl.INIT_EVERYTHING)
	checkError("sdl.Init", err)

	e.renderer = initRenderer(cfg.Scale)
	e.audio = initAudio()
	return e, nil
}

// Run drives the interpreter until the window is closed. Renderer vsync
// paces the loop at VBlankFrequency.
func (e *Emulator) Run() {
	perVblankCycle := e.cfg.Frequency / VBlankFrequency
	cycle := 0

	for e.running {
		cycle++
		if e.focus && !e.stepMode {
			e.step()
		}

		if cycle > perVblankCycle {
			cycle = 0
			e.draw()

			if e.focus {
				e.updateSound()
				e.chip8.TickTimers()
			}
		}

		e.pollEvents()
	}
}

// step executes one instruction and halts into step mode on failure.
func (e *Emulator) step() {
	if err := e.chip8.Tick(); err != nil {
		log.Printf("halted: %v", err)
		e.stepMode = true
	}
}

func (e *Emulator) reset() {
	e.chip8.Reset()
	if err := e.chip8.Load(e.rom); err != nil {
		log.Printf("reload: %v", err)
	}
}

func (e *Emulator) draw() {
	e.renderer.SetDrawColor(0, 0, 0, 255)
	e.renderer.Clear()

	// chip8 display
	scale := e.cfg.Scale
	fb := e.chip8.Display()
	e.renderer.SetDrawColor(0, 255, 0, 255)
	for y := 0; y < chip8.Height; y++ {
		for x := 0; x < chip8.Width; x++ {
			if fb.Pixel(x, y) {
				e.renderer.FillRect(&sdl.Rect{X: int32(x) * scale, Y: int32(y) * scale, W: scale, H: scale})
			}
		}
	}

	e.renderer.Present()
}

func (e *Emulator) setKey(scancode int, pressed bool) bool {
	i, ok := scanCode2Key[scancode]
	if !ok {
		return false
	}
	if err := e.chip8.Keypress(i, pressed); err != nil {
		log.Printf("keypress: %v", err)
	}
	return true
}

func (e *Emulator) pollEvents() {
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		switch ev := event.(type) {
		case *sdl.QuitEvent:
			e.running = false
		case *sdl.KeyboardEvent:
			switch ev.Type {
			case sdl.KEYDOWN:
				if e.setKey(int(ev.Keysym.Scancode), true) {
					continue
				}
				switch ev.Keysym.Scancode {
				case sdl.SCANCODE_SPACE:
					if e.stepMode {
						e.step()
					} else {
						e.stepMode = true
					}
				case sdl.SCANCODE_RETURN:
					e.stepMode = false
				case sdl.SCANCODE_Z:
					e.reset()
				}
			case sdl.KEYUP:
				e.setKey(int(ev.Keysym.Scancode), false)
			}
		case *sdl.WindowEvent:
			switch ev.Event {
			case sdl.WINDOWEVENT_FOCUS_LOST:
				e.focus = false
			case sdl.WINDOWEVENT_FOCUS_GAINED:
				e.focus = true
			}
		}
	}
}

// updateSound queues one frame of tone while the sound timer runs.
func (e *Emulator) updateSound() {
	if e.chip8.SoundActive() {
		samples := make([]byte, 4*AudioSamples)
		for i := 0; i < len(samples); i += 4 {
			// sin wave
			f := 2.0 * math.Pi / 180.0 * float64(360*i/AudioSamples)
			f = math.Sin(f)
			binary.LittleEndian.PutUint32(samples[i:], math.Float32bits(float32(f)))
		}

		err := sdl.QueueAudio(e.audio, samples)
		if err != nil {
			log.Println(err)
		}
	}
}

// stopSound runs when the sound timer expires.
func (e *Emulator) stopSound() {
	sdl.ClearQueuedAudio(e.audio)
}
