package bleichenbacher

import "math/big"

// Oracle reports whether a ciphertext decrypts to a plaintext with a
// syntactically valid PKCS#1 v1.5 prefix. It is the only capability the
// attack needs; inject it at construction so tests can substitute a
// deterministic fake. When used with ParallelSearcher it must tolerate
// concurrent calls.
type Oracle func(c *big.Int) bool

// IsConformant decrypts c with priv, renders the plaintext as a
// big-endian byte string zero-padded to the modulus byte length, and
// reports whether the first two bytes are 0x00 0x02.
func IsConformant(c *big.Int, priv Key) bool {
	m := new(big.Int).Exp(c, priv.Exponent, priv.Modulus)
	em := PaddedBytes(m, priv.ByteLen())
	return em[0] == 0x00 && em[1] == 0x02
}

// NewPaddingOracle adapts a private key into an Oracle. This stands in
// for whatever leaky decryption endpoint a real deployment exposes.
func NewPaddingOracle(priv Key) Oracle {
	return func(c *big.Int) bool {
		return IsConformant(c, priv)
	}
}
