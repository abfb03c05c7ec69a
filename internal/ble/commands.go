package ble

// Frame layout of the PWM peripheral: 9 bytes, 0x7E lead-in, length,
// opcode, payload, 0xEF terminator. Same framing family as the BLEDOM
// strip controllers the firmware is derived from.

// WriteBrightness builds and queues the per-channel PWM duty command.
// It satisfies the animation core's output boundary (led.Writer).
func (c *Controller) WriteBrightness(channel int, value uint8) {
	c.enqueue([]byte{0x7E, 0x05, 0x20, byte(channel), value, 0x00, 0xFF, 0x00, 0xEF})
}

// AllOff builds and queues the command zeroing every PWM channel at once.
func (c *Controller) AllOff() {
	c.enqueue([]byte{0x7E, 0x04, 0x21, 0x00, 0x00, 0x00, 0xFF, 0x00, 0xEF})
}
