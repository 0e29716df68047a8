package leds

import "errors"

const (
	SOF0 = 0xAA
	SOF1 = 0x55

	CmdShow  = 0x20
	CmdClear = 0x21

	// MaxPayload keeps LEN within the two length bytes.
	MaxPayload = 0xFFFF - 1
)

var ErrFrameTooLarge = errors.New("frame payload too large")

// EncodeFrame builds the on-wire representation:
//
//	[SOF0][SOF1][LEN_HI][LEN_LO][CMD][payload...][CKS]
//
// LEN counts the CMD byte plus the payload. CKS is the XOR of the length
// bytes, CMD and the payload.
func EncodeFrame(cmd byte, payload []byte) ([]byte, error) {
	if len(payload) > MaxPayload {
		return nil, ErrFrameTooLarge
	}
	length := len(payload) + 1
	hi, lo := byte(length>>8), byte(length)

	cks := hi ^ lo ^ cmd
	for _, b := range payload {
		cks ^= b
	}

	out := make([]byte, 0, len(payload)+6)
	out = append(out, SOF0, SOF1, hi, lo, cmd)
	out = append(out, payload...)
	out = append(out, cks)
	return out, nil
}
