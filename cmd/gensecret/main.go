// gensecret prints a random hex encoded key.
// The default 32 bytes fit both the admin token secret and the shopctl state key.
package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"
)

const SecretKeyBytesLen = 32

func main() {
	if err := run(os.Stdout, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error while generating secret key: %v\n", err)
		os.Exit(1)
	}
}

func run(out io.Writer, args []string) error {
	fs := pflag.NewFlagSet("gensecret", pflag.ContinueOnError)
	length := fs.IntP("bytes", "n", SecretKeyBytesLen, "Key length in bytes")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *length < 16 {
		return fmt.Errorf("key must be at least 16 bytes, got %d", *length)
	}

	b := make([]byte, *length)
	if _, err := rand.Read(b); err != nil {
		return err
	}

	_, err := fmt.Fprintln(out, hex.EncodeToString(b))
	return err
}
