package bleichenbacher

import (
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"strings"
)

// Params holds an attack setup loaded from a parameter file: the public
// key, the target ciphertext, and optionally the private exponent so a
// local padding oracle can be simulated.
type Params struct {
	Public     Key
	Private    *Key // nil when the file carries no private exponent
	Ciphertext *big.Int
}

// ParseParams reads attack parameters from a JSON file of the form
//
//	{"n": "0x...", "e": "3", "d": "0x...", "c": "0x..."}
//
// Numbers may be hex with a 0x prefix or decimal. The d field is
// optional.
func ParseParams(path string) (*Params, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open params file: %w", err)
	}
	defer f.Close()

	var raw struct {
		N string `json:"n"`
		E string `json:"e"`
		D string `json:"d"`
		C string `json:"c"`
	}
	if err := json.NewDecoder(f).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to parse params file: %w", err)
	}

	n, err := parseBigInt(raw.N)
	if err != nil {
		return nil, fmt.Errorf("failed to parse n: %w", err)
	}
	e, err := parseBigInt(raw.E)
	if err != nil {
		return nil, fmt.Errorf("failed to parse e: %w", err)
	}
	c, err := parseBigInt(raw.C)
	if err != nil {
		return nil, fmt.Errorf("failed to parse c: %w", err)
	}

	params := &Params{
		Public:     Key{Exponent: e, Modulus: n},
		Ciphertext: c,
	}
	if raw.D != "" {
		d, err := parseBigInt(raw.D)
		if err != nil {
			return nil, fmt.Errorf("failed to parse d: %w", err)
		}
		params.Private = &Key{Exponent: d, Modulus: n}
	}
	return params, nil
}

// parseBigInt parses a non-negative integer from a hex (0x-prefixed) or
// decimal string.
func parseBigInt(s string) (*big.Int, error) {
	if s == "" {
		return nil, fmt.Errorf("missing value")
	}
	base := 10
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		s = s[2:]
		base = 16
	}
	z, ok := new(big.Int).SetString(s, base)
	if !ok || z.Sign() < 0 {
		return nil, fmt.Errorf("invalid number %q", s)
	}
	return z, nil
}
