package bleichenbacher

import (
	"crypto/rand"
	"io"
	"math/big"
	"testing"
)

// mustKeyPair generates an e=3 test key pair, failing the test on error.
func mustKeyPair(t *testing.T, bits int) *KeyPair {
	t.Helper()
	keyPair, err := GenerateKeyPair(bits, 3)
	if err != nil {
		t.Fatalf("Failed to generate %d-bit key pair: %v", bits, err)
	}
	return keyPair
}

// encryptPadded pads msg to the modulus byte length and encrypts it,
// returning the ciphertext and the padded block.
func encryptPadded(t *testing.T, msg []byte, pub Key) (*big.Int, []byte) {
	t.Helper()
	em, err := Pad(msg, pub.ByteLen())
	if err != nil {
		t.Fatalf("Failed to pad message: %v", err)
	}
	return Encrypt(new(big.Int).SetBytes(em), pub), em
}

// randomMessage draws n random bytes.
func randomMessage(t *testing.T, n int) []byte {
	t.Helper()
	msg := make([]byte, n)
	if _, err := io.ReadFull(rand.Reader, msg); err != nil {
		t.Fatalf("Failed to read random message: %v", err)
	}
	return msg
}
