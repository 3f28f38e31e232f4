package service

import (
	"fmt"
	"io"
)

// roomCodeAlphabet excludes visually ambiguous characters (0/O, 1/I/L) so
// codes survive being read out loud or scrawled on a whiteboard.
const roomCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// GenerateRoomCode draws a random room code of the given length from the
// unambiguous alphabet, using the injected entropy source.
func GenerateRoomCode(r io.Reader, length int) (string, error) {
	buf := make([]byte, length)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", fmt.Errorf("generate room code: %w", err)
	}
	for i, b := range buf {
		buf[i] = roomCodeAlphabet[int(b)%len(roomCodeAlphabet)]
	}
	return string(buf), nil
}
