package led

// Writer is the hardware boundary for brightness output. Implementations
// must accept writes at animation tick rate; delivery is fire-and-forget.
type Writer interface {
	WriteBrightness(channel int, value uint8)
}
