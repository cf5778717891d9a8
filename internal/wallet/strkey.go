package wallet

import (
	"encoding/base32"
	"fmt"

	"github.com/farklezone/farkle-client/internal/domain"
)

// Strkey version bytes
const (
	versionAccount byte = 6 << 3  // 'G'
	versionSeed    byte = 18 << 3 // 'S'
)

var b32 = base32.StdEncoding.WithPadding(base32.NoPadding)

// encodeStrkey renders raw as a version-prefixed, checksummed base32
// string. Account version yields the familiar G... address form.
func encodeStrkey(version byte, raw []byte) string {
	payload := make([]byte, 0, len(raw)+3)
	payload = append(payload, version)
	payload = append(payload, raw...)

	sum := crc16(payload)
	payload = append(payload, byte(sum), byte(sum>>8))

	return b32.EncodeToString(payload)
}

// decodeStrkey reverses encodeStrkey, verifying version and checksum.
func decodeStrkey(version byte, encoded string) ([]byte, error) {
	payload, err := b32.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrBadKeyEncoding, err)
	}
	if len(payload) < 3 {
		return nil, fmt.Errorf("%w: too short", domain.ErrBadKeyEncoding)
	}
	if payload[0] != version {
		return nil, fmt.Errorf("%w: wrong version byte %#x", domain.ErrBadKeyEncoding, payload[0])
	}

	body := payload[:len(payload)-2]
	sum := uint16(payload[len(payload)-2]) | uint16(payload[len(payload)-1])<<8
	if crc16(body) != sum {
		return nil, fmt.Errorf("%w: checksum mismatch", domain.ErrBadKeyEncoding)
	}

	return body[1:], nil
}

// crc16 is the XModem variant (polynomial 0x1021, zero initial value).
func crc16(data []byte) uint16 {
	var crc uint16
	for _, b := range data {
		crc ^= uint16(b) << 8
		for i := 0; i < 8; i++ {
			if crc&0x8000 != 0 {
				crc = crc<<1 ^ 0x1021
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}
