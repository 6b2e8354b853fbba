package main

import (
	"context"
	"flag"
	"fmt"
	"math/big"
	"os"
	"time"

	"github.com/mahdiidarabi/rsa-bleichenbacher/pkg/bleichenbacher"
)

func main() {
	var (
		bits       = flag.Int("bits", 384, "RSA modulus bit length for the generated demo key")
		exponent   = flag.Int64("e", 3, "Public exponent for the generated demo key")
		message    = flag.String("message", "kick it, CC", "Message to pad, encrypt, and recover")
		paramsFile = flag.String("params", "", "Path to a JSON attack-parameter file {n, e, d, c} (overrides key generation)")
		workers    = flag.Int("workers", 0, "Parallel oracle workers for the linear searches (0 = sequential)")
		maxQueries = flag.Uint64("max-queries", bleichenbacher.DefaultMaxQueries, "Maximum oracle queries per search phase")
		timeout    = flag.Duration("timeout", 0, "Abort the attack after this duration (0 = no limit)")
	)
	flag.Parse()

	var (
		pub        bleichenbacher.Key
		oracle     bleichenbacher.Oracle
		ciphertext *big.Int
	)

	if *paramsFile != "" {
		params, err := bleichenbacher.ParseParams(*paramsFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if params.Private == nil {
			fmt.Fprintln(os.Stderr, "Error: params file has no d field; a local oracle cannot be simulated")
			os.Exit(1)
		}
		pub = params.Public
		oracle = bleichenbacher.NewPaddingOracle(*params.Private)
		ciphertext = params.Ciphertext
		fmt.Printf("Loaded %d-bit key and target ciphertext from %s\n", pub.Modulus.BitLen(), *paramsFile)
	} else {
		fmt.Printf("Generating %d-bit RSA key (e = %d)...\n", *bits, *exponent)
		keyPair, err := bleichenbacher.GenerateKeyPair(*bits, *exponent)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		pub = keyPair.Public

		padded, err := bleichenbacher.Pad([]byte(*message), pub.ByteLen())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		ciphertext = bleichenbacher.Encrypt(new(big.Int).SetBytes(padded), pub)
		oracle = bleichenbacher.NewPaddingOracle(keyPair.Private)
		fmt.Printf("Encrypted %d-byte message into a %d-byte PKCS#1 block\n", len(*message), pub.ByteLen())
	}

	attacker := bleichenbacher.New(ciphertext, pub, oracle).
		WithMaxQueries(*maxQueries)
	if *workers > 0 {
		attacker = attacker.WithSearcher(bleichenbacher.ParallelSearcher{Workers: *workers})
		fmt.Printf("Using %d parallel oracle workers\n", *workers)
	}

	ctx := context.Background()
	if *timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *timeout)
		defer cancel()
	}

	fmt.Println("Running padding-oracle attack (public key only)...")
	started := time.Now()
	padded, err := attacker.Run(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	elapsed := time.Since(started)

	fmt.Printf("\n[+] Recovered padded plaintext after %d oracle queries, %d rounds (%s)\n",
		attacker.Queries(), attacker.Rounds(), elapsed.Round(time.Millisecond))

	msg, err := bleichenbacher.Unpad(bleichenbacher.PaddedBytes(padded, pub.ByteLen()))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error stripping padding: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("    Message: %q\n", msg)
}
