package chip8

// Tick runs one fetch-decode-execute cycle. On error the machine is left
// exactly as it was before the call, with PC on the failing instruction.
func (c *Chip8) Tick() error {
	pc := c.pc
	op, err := c.fetchOpcode()
	if err != nil {
		return err
	}
	if err := c.execOpcode(op); err != nil {
		c.pc = pc
		return err
	}
	return nil
}

func (c *Chip8) execOpcode(op uint16) error {
	h := op & 0xF000
	nnn := op & 0x0FFF
	nn := uint8(nnn & 0xff)
	x := uint8((nnn >> 8) & 0xf)
	y := uint8((nnn >> 4) & 0xf)
	n := nn & 0x0f

	switch h {
	case 0x0000:
		switch op {
		case 0x0000: // nop

		case 0x00E0: // clear display
			c.disp = Framebuffer{}

		case 0x00EE: // return from subroutine
			r, err := c.popStack()
			if err != nil {
				return err
			}
			c.pc = r

		default:
			return c.unimplemented(op)
		}
	case 0x1000: // goto 0x0NNN
		c.pc = nnn

	case 0x2000: // call 0x0NNN
		if err := c.pushStack(c.pc); err != nil {
			return err
		}
		c.pc = nnn

	case 0x3000: // 0x3XNN if(Vx==NN)
		if c.v[x] == nn {
			c.pc += 2
		}

	case 0x4000: // 0x4XNN if(Vx!=NN)
		if c.v[x] != nn {
			c.pc += 2
		}

	case 0x5000: // 0x5XY0 if(Vx==Vy)
		if n != 0 {
			return c.unimplemented(op)
		}
		if c.v[x] == c.v[y] {
			c.pc += 2
		}

	case 0x6000: // 6XNN Vx = NN
		c.v[x] = nn

	case 0x7000: // 7XNN Vx += NN (Carry flag is not changed)
		c.v[x] += nn

	case 0x8000:
		return c.execALU(op, x, y, n)

	case 0x9000: // 9XY0 if(Vx!=Vy)
		if n != 0 {
			return c.unimplemented(op)
		}
		if c.v[x] != c.v[y] {
			c.pc += 2
		}

	case 0xA000: // ANNN I = NNN
		c.i = nnn

	case 0xB000: // BNNN PC=V0+NNN
		c.pc = uint16(c.v[0]) + nnn

	case 0xC000: // CXNN Vx=rand()&NN
		c.v[x] = c.random() & nn

	case 0xD000: // DXYN draw(Vx,Vy,N)
		flipped, err := c.draw(c.v[x], c.v[y], n)
		if err != nil {
			return err
		}
		c.updateCarryFlag(flipped)

	case 0xE000:
		switch nn {
		case 0x9E: // EX9E if(key()==Vx)
			if int(c.v[x]) >= KeyCount {
				return invalidKey(int(c.v[x]))
			}
			if c.keys[c.v[x]] {
				c.pc += 2
			}

		case 0xA1: // EXA1 if(key()!=Vx)
			if int(c.v[x]) >= KeyCount {
				return invalidKey(int(c.v[x]))
			}
			if !c.keys[c.v[x]] {
				c.pc += 2
			}

		default:
			return c.unimplemented(op)
		}
	case 0xF000:
		return c.execMisc(op, x, nn)
	}
	return nil
}

// execALU handles the 8XYN register arithmetic family. VF is written
// last, so it holds the flag even when X is F.
func (c *Chip8) execALU(op uint16, x, y, n uint8) error {
	switch n {
	case 0: // 8XY0	Vx=Vy
		c.v[x] = c.v[y]

	case 1: // 8XY1	Vx=Vx|Vy
		c.v[x] |= c.v[y]

	case 2: // 8XY2	Vx=Vx&Vy
		c.v[x] &= c.v[y]

	case 3: // 8XY3	Vx=Vx^Vy
		c.v[x] ^= c.v[y]

	case 4: // 8XY4	Vx += Vy
		carried := (uint16(c.v[x]) + uint16(c.v[y])) > 0xff
		c.v[x] += c.v[y]
		c.updateCarryFlag(carried)

	case 5: // 8XY5	Vx -= Vy
		borrowed := c.v[x] < c.v[y]
		c.v[x] -= c.v[y]
		c.updateCarryFlag(!borrowed)

	case 6: // 8XY6	Vx>>=1
		lsb := c.v[x]&0x01 == 1
		c.v[x] >>= 1
		c.updateCarryFlag(lsb)

	case 7: // 8XY7	Vx=Vy-Vx
		borrowed := c.v[y] < c.v[x]
		c.v[x] = c.v[y] - c.v[x]
		c.updateCarryFlag(!borrowed)

	case 0xE: // 8XYE Vx<<=1
		msb := c.v[x]>>7 == 1
		c.v[x] <<= 1
		c.updateCarryFlag(msb)

	default:
		return c.unimplemented(op)
	}
	return nil
}

// execMisc handles the FXNN timer, keypad and index register family.
func (c *Chip8) execMisc(op uint16, x, nn uint8) error {
	switch nn {
	case 0x07: // FX07 Vx = get_delay()
		c.v[x] = c.dt

	case 0x0A: // FX0A Vx = get_key()
		if k, ok := c.pressedAnyKey(); ok {
			c.v[x] = k
		} else {
			// pc decrement for blocking
			c.pc -= 2
		}

	case 0x15: // FX15 delay_timer(Vx)
		c.dt = c.v[x]

	case 0x18: // FX18 sound_timer(Vx)
		c.st = c.v[x]

	case 0x1E: // FX1E I +=Vx
		c.i += uint16(c.v[x])

	case 0x29: // FX29 I=sprite_addr[Vx]
		c.i = FontOffset + uint16(c.v[x])*FontSpriteBytes

	case 0x33: // FX33 set_BCD(Vx);
		if err := checkRange(int(c.i), 3); err != nil {
			return err
		}
		c.mem[c.i+0] = c.v[x] / 100
		c.mem[c.i+1] = (c.v[x] % 100) / 10
		c.mem[c.i+2] = c.v[x] % 10

	case 0x55: // FX55 reg_dump(Vx,&I)
		if err := checkRange(int(c.i), int(x)+1); err != nil {
			return err
		}
		copy(c.mem[c.i:], c.v[:x+1])

	case 0x65: // FX65 reg_load(Vx,&I)
		if err := checkRange(int(c.i), int(x)+1); err != nil {
			return err
		}
		copy(c.v[:x+1], c.mem[c.i:])

	default:
		return c.unimplemented(op)
	}
	return nil
}

func (c *Chip8) unimplemented(op uint16) error {
	return &UnimplementedOpcodeError{Opcode: op, Address: c.pc - 2}
}
