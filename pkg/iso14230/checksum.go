package iso14230

import "fmt"

// KWP2000 service ids used by the link layer itself
const (
	startCommunication = 0x81
	stopCommunication  = 0x82
)

// Fixed control frames, format byte 0x81 (physical, one data byte), target 0x10, source 0xFC
var (
	startReq = controlFrame(startCommunication)
	stopReq  = controlFrame(stopCommunication)
)

func controlFrame(sid byte) []byte {
	return AppendChecksum([]byte{0x81, 0x10, 0xFC, sid})
}

// Checksum returns the low 8 bits of the sum of b
func Checksum(b []byte) byte {
	var cs byte
	for _, v := range b {
		cs += v
	}
	return cs
}

// AppendChecksum returns b with its checksum appended
func AppendChecksum(b []byte) []byte {
	return append(b, Checksum(b))
}

// Valid reports whether frame is laid out as [N] payload(N) [checksum]
// and the trailing byte matches the checksum of everything before it.
func Valid(frame []byte) bool {
	n := len(frame)
	if n < 2 {
		return false
	}
	return int(frame[0])+2 == n && frame[n-1] == Checksum(frame[:n-1])
}

// BuildFrame wraps payload in the length byte + checksum framing checked by Valid
func BuildFrame(payload []byte) ([]byte, error) {
	if len(payload) > 0xFF {
		return nil, fmt.Errorf("payload too long: %d bytes", len(payload))
	}
	frame := make([]byte, 0, len(payload)+2)
	frame = append(frame, byte(len(payload)))
	frame = append(frame, payload...)
	return AppendChecksum(frame), nil
}

// Payload returns the bytes between the length byte and the checksum of a valid frame
func Payload(frame []byte) ([]byte, error) {
	if !Valid(frame) {
		return nil, fmt.Errorf("invalid frame: % X", frame)
	}
	return frame[1 : len(frame)-1], nil
}
