package bleichenbacher

import (
	"bytes"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"
)

var (
	one   = big.NewInt(1)
	three = big.NewInt(3)
)

// Key holds one half of an RSA key pair. The same shape serves the public
// key (e, n) and the private key (d, n); the attack itself only ever
// touches the public half.
type Key struct {
	Exponent *big.Int
	Modulus  *big.Int
}

// ByteLen returns k, the byte length of the modulus.
func (k Key) ByteLen() int {
	return (k.Modulus.BitLen() + 7) / 8
}

// KeyPair bundles the public and private halves of an RSA key.
type KeyPair struct {
	Public  Key
	Private Key
}

// GenerateKeyPair generates an RSA key pair with the given modulus bit
// length and public exponent. The exponent must be an odd prime (3 is the
// classic choice for this attack); prime pairs whose totient shares a
// factor with it are redrawn.
func GenerateKeyPair(bits int, exponent int64) (*KeyPair, error) {
	if bits < 128 {
		return nil, fmt.Errorf("modulus of %d bits is too small", bits)
	}
	e := big.NewInt(exponent)
	if exponent < 3 || !e.ProbablyPrime(0) {
		return nil, fmt.Errorf("invalid public exponent %d", exponent)
	}

	for {
		p, err := rand.Prime(rand.Reader, bits/2)
		if err != nil {
			return nil, err
		}
		q, err := rand.Prime(rand.Reader, bits-bits/2)
		if err != nil {
			return nil, err
		}
		if p.Cmp(q) == 0 {
			continue
		}

		phi := new(big.Int).Sub(p, one)
		phi.Mul(phi, new(big.Int).Sub(q, one))
		d := new(big.Int).ModInverse(e, phi)
		if d == nil {
			continue
		}

		n := new(big.Int).Mul(p, q)
		return &KeyPair{
			Public:  Key{Exponent: e, Modulus: n},
			Private: Key{Exponent: d, Modulus: n},
		}, nil
	}
}

// Encrypt performs textbook RSA: m^e mod n.
func Encrypt(m *big.Int, pub Key) *big.Int {
	return new(big.Int).Exp(m, pub.Exponent, pub.Modulus)
}

// Pad encodes msg as a PKCS#1 v1.5 encryption block of k bytes:
// 0x00 0x02 <nonzero random padding> 0x00 msg.
func Pad(msg []byte, k int) ([]byte, error) {
	if len(msg) > k-11 {
		return nil, fmt.Errorf("message of %d bytes too long for %d-byte modulus", len(msg), k)
	}
	em := make([]byte, k)
	em[1] = 0x02
	if err := fillNonZero(em[2 : k-len(msg)-1]); err != nil {
		return nil, err
	}
	copy(em[k-len(msg):], msg)
	return em, nil
}

// Unpad strips the 0x00 0x02 <padding> 0x00 wrapper from a padded block
// and returns the message bytes.
func Unpad(em []byte) ([]byte, error) {
	if len(em) < 11 || em[0] != 0x00 || em[1] != 0x02 {
		return nil, errors.New("block is not PKCS#1 v1.5 conformant")
	}
	idx := bytes.IndexByte(em[2:], 0x00)
	if idx < 0 {
		return nil, errors.New("padding separator not found")
	}
	return em[2+idx+1:], nil
}

// PaddedBytes renders m as a big-endian byte string zero-padded on the
// left to k bytes, the form the padding check operates on.
func PaddedBytes(m *big.Int, k int) []byte {
	return m.FillBytes(make([]byte, k))
}

func fillNonZero(ps []byte) error {
	if _, err := io.ReadFull(rand.Reader, ps); err != nil {
		return err
	}
	var b [1]byte
	for i := range ps {
		for ps[i] == 0 {
			if _, err := io.ReadFull(rand.Reader, b[:]); err != nil {
				return err
			}
			ps[i] = b[0]
		}
	}
	return nil
}
