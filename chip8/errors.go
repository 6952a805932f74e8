package chip8

import (
	"errors"
	"fmt"
)

var (
	ErrRomTooLarge         = errors.New("rom too large")
	ErrUnimplementedOpcode = errors.New("unimplemented opcode")
	ErrMemoryOutOfBounds   = errors.New("memory out of bounds")
	ErrStackOverflow       = errors.New("stack overflow")
	ErrStackUnderflow      = errors.New("stack underflow")
	ErrInvalidKeyIndex     = errors.New("invalid key index")
)

// UnimplementedOpcodeError is returned by Tick for an instruction word
// that matches no known pattern.
type UnimplementedOpcodeError struct {
	Opcode  uint16
	Address uint16
}

func (e *UnimplementedOpcodeError) Error() string {
	return fmt.Sprintf("unimplemented opcode %04X at %03X", e.Opcode, e.Address)
}

func (e *UnimplementedOpcodeError) Is(target error) bool {
	return target == ErrUnimplementedOpcode
}

func outOfBounds(addr, n int) error {
	return fmt.Errorf("%w: %d bytes at %04X", ErrMemoryOutOfBounds, n, addr)
}

func invalidKey(i int) error {
	return fmt.Errorf("%w: %d", ErrInvalidKeyIndex, i)
}
