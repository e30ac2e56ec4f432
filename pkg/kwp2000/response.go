package kwp2000

import (
	"errors"
	"fmt"

	"github.com/roffe/gokwp/pkg/iso14230"
)

var ErrInvalidFrame = errors.New("invalid frame")

// CheckResponse returns a *NegativeResponse if payload is a 7F reply
func CheckResponse(payload []byte) error {
	if len(payload) == 0 {
		return errors.New("empty response")
	}
	if payload[0] != NEGATIVE_RESPONSE {
		return nil
	}
	if len(payload) < 3 {
		return fmt.Errorf("%w: short negative response % X", ErrInvalidFrame, payload)
	}
	return &NegativeResponse{Service: payload[1], Code: payload[2]}
}

// IsPositive reports whether payload answers a request for sid
func IsPositive(sid byte, payload []byte) bool {
	return len(payload) > 0 && payload[0] == sid+POSITIVE_RESPONSE
}

// Payload returns the service data of a reply. Both the length byte framing
// and the format byte header framing are understood; the checksum must match.
func Payload(frame []byte) ([]byte, error) {
	if iso14230.Valid(frame) {
		return iso14230.Payload(frame)
	}
	if len(frame) < 2 || frame[len(frame)-1] != iso14230.Checksum(frame[:len(frame)-1]) {
		return nil, fmt.Errorf("%w: % X", ErrInvalidFrame, frame)
	}
	fmtByte := frame[0]
	if fmtByte&0xC0 == 0 {
		return nil, fmt.Errorf("%w: % X", ErrInvalidFrame, frame)
	}
	hdr := 3
	n := int(fmtByte & 0x3F)
	if n == 0 {
		if len(frame) < 5 {
			return nil, fmt.Errorf("%w: % X", ErrInvalidFrame, frame)
		}
		n = int(frame[3])
		hdr = 4
	}
	if hdr+n+1 != len(frame) {
		return nil, fmt.Errorf("%w: length %d does not match % X", ErrInvalidFrame, n, frame)
	}
	return frame[hdr : hdr+n], nil
}

// Decode extracts the payload of frame and turns a negative response into an error
func Decode(frame []byte) ([]byte, error) {
	p, err := Payload(frame)
	if err != nil {
		return nil, err
	}
	return p, CheckResponse(p)
}
