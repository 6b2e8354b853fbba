package bleichenbacher

import (
	"bytes"
	"math/big"
	"testing"
)

func TestPadUnpadRoundTrip(t *testing.T) {
	msg := []byte("attack at dawn")
	em, err := Pad(msg, 48)
	if err != nil {
		t.Fatalf("Failed to pad: %v", err)
	}
	if len(em) != 48 {
		t.Fatalf("Padded block is %d bytes, want 48", len(em))
	}
	if em[0] != 0x00 || em[1] != 0x02 {
		t.Errorf("Padded block starts %02x %02x, want 00 02", em[0], em[1])
	}
	for _, b := range em[2 : 48-len(msg)-1] {
		if b == 0x00 {
			t.Error("Padding contains a zero byte")
		}
	}

	got, err := Unpad(em)
	if err != nil {
		t.Fatalf("Failed to unpad: %v", err)
	}
	if !bytes.Equal(got, msg) {
		t.Errorf("Round trip mismatch: got %q, want %q", got, msg)
	}
}

func TestPadRejectsLongMessage(t *testing.T) {
	if _, err := Pad(make([]byte, 38), 48); err == nil {
		t.Error("Expected error for a message leaving less than 8 padding bytes")
	}
	if _, err := Pad(make([]byte, 37), 48); err != nil {
		t.Errorf("Unexpected error at the maximum message length: %v", err)
	}
}

func TestUnpadRejectsBadBlocks(t *testing.T) {
	cases := [][]byte{
		nil,
		{0x00, 0x02},
		append([]byte{0x01, 0x02}, make([]byte, 46)...), // wrong first byte
		append([]byte{0x00, 0x01}, make([]byte, 46)...), // wrong block type
		{0x00, 0x02, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}, // no separator
	}
	for _, em := range cases {
		if _, err := Unpad(em); err == nil {
			t.Errorf("Expected error for block %x", em)
		}
	}
}

func TestIsConformant(t *testing.T) {
	keyPair := mustKeyPair(t, 256)

	c, _ := encryptPadded(t, []byte("yellow submarine"), keyPair.Public)
	if !IsConformant(c, keyPair.Private) {
		t.Error("Ciphertext of a padded message should be conformant")
	}

	// 2^e mod n decrypts to 2, whose padded rendering starts 00 00.
	c = Encrypt(big.NewInt(2), keyPair.Public)
	if IsConformant(c, keyPair.Private) {
		t.Error("Ciphertext of an unpadded small value should not be conformant")
	}
}

func TestGenerateKeyPairRoundTrip(t *testing.T) {
	keyPair := mustKeyPair(t, 256)
	if got := keyPair.Public.Modulus.BitLen(); got < 255 || got > 256 {
		t.Errorf("Modulus has %d bits, want about 256", got)
	}

	m := big.NewInt(0xbeef)
	c := Encrypt(m, keyPair.Public)
	back := new(big.Int).Exp(c, keyPair.Private.Exponent, keyPair.Private.Modulus)
	if back.Cmp(m) != 0 {
		t.Errorf("Decryption mismatch: got %v, want %v", back, m)
	}
}

func TestGenerateKeyPairRejectsBadExponent(t *testing.T) {
	for _, e := range []int64{-3, 0, 1, 2, 4} {
		if _, err := GenerateKeyPair(256, e); err == nil {
			t.Errorf("Expected error for exponent %d", e)
		}
	}
}

func TestPaddedBytes(t *testing.T) {
	got := PaddedBytes(big.NewInt(0x0102), 4)
	want := []byte{0x00, 0x00, 0x01, 0x02}
	if !bytes.Equal(got, want) {
		t.Errorf("PaddedBytes = %x, want %x", got, want)
	}
}
