// Package tplink implements the legacy TP-Link/Kasa smart plug wire
// protocol: the XOR autokey framing used on port 9999, a unary TCP
// request/response transport, and a typed device model that covers both
// single-outlet plugs and multi-outlet power strips (HS300, KP303, ...).
//
// The framing is obfuscation, not cryptography. There is no key exchange,
// no authentication, and no integrity check; anyone on the network
// segment can read and forge traffic. It is implemented here byte-for-byte
// compatible with the devices because they accept nothing else.
package tplink

import "encoding/binary"

// cipherSeed is the fixed initial keystream byte used by every Kasa
// device speaking the legacy protocol.
const cipherSeed byte = 0xAB

// headerLen is the size of the big-endian length prefix on TCP frames.
const headerLen = 4

// Encrypt obfuscates plaintext and prepends the 4-byte big-endian
// length header. Each output byte becomes the key for the next byte.
func Encrypt(plaintext []byte) []byte {
	frame := make([]byte, headerLen, headerLen+len(plaintext))
	binary.BigEndian.PutUint32(frame, uint32(len(plaintext)))

	key := cipherSeed
	for _, b := range plaintext {
		key ^= b
		frame = append(frame, key)
	}
	return frame
}

// Decrypt strips the 4-byte length header from frame and deciphers the
// body. It returns a protocol error if the frame is shorter than the
// header. The header is framing metadata only; decryption runs over
// whatever body bytes are present.
func Decrypt(frame []byte) ([]byte, *Error) {
	if len(frame) < headerLen {
		return nil, newError(KindProtocol, "frame too short: %d bytes, want at least %d", len(frame), headerLen)
	}
	return decipher(frame[headerLen:]), nil
}

// decipher reverses the autokey stream over a headerless body. The key
// advances from the ciphertext byte just consumed, which mirrors
// Encrypt's key-follows-output rule since each ciphertext byte is
// exactly the encoder's output at that position.
func decipher(body []byte) []byte {
	plaintext := make([]byte, len(body))
	key := cipherSeed
	for i, c := range body {
		plaintext[i] = key ^ c
		key = c
	}
	return plaintext
}
