package main

import (
	"flag"
	"log"
	"os"
	"runtime"

	e "github.com/tuboc/chip8/emulator"
)

var filename = flag.String("f", "", "chip8 image file path")
var stepMode = flag.Bool("s", false, "start with stepMode")
var frequency = flag.Int("hz", e.DefaultFrequency, "instructions per second")
var scale = flag.Int("scale", e.DefaultScale, "display scale")

func init() {
	runtime.LockOSThread()
}

func main() {
	flag.Parse()
	if *filename == "" {
		flag.Usage()
		os.Exit(2)
	}

	binary, err := os.ReadFile(*filename)
	if err != nil {
		log.Fatalf("reading rom: %v", err)
	}

	emu, err := e.NewEmulator(binary, e.Config{
		Frequency: *frequency,
		Scale:     int32(*scale),
		StepMode:  *stepMode,
	})
	if err != nil {
		log.Fatal(err)
	}
	emu.Run()
}
