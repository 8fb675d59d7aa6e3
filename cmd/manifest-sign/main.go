package main

import (
	"crypto/ed25519"
	"encoding/base64"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gymcore/license-server/internal/manifest"
)

// manifest-sign produces the detached signature for a release manifest. Run
// it at release time, then drop both files into the server's manifest dir.
func main() {
	keyPath := flag.String("key", "", "path to the ed25519 private key (raw 64 bytes or base64)")
	manifestPath := flag.String("manifest", "", "path to the manifest JSON file")
	verifyWith := flag.String("verify", "", "optional path to the public key; verifies instead of signing")
	flag.Parse()

	if *manifestPath == "" {
		fmt.Fprintln(os.Stderr, "missing -manifest")
		os.Exit(1)
	}

	raw, err := os.ReadFile(*manifestPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read manifest: %v\n", err)
		os.Exit(1)
	}

	if *verifyWith != "" {
		pub, err := readKey(*verifyWith, ed25519.PublicKeySize)
		if err != nil {
			fmt.Fprintf(os.Stderr, "read public key: %v\n", err)
			os.Exit(1)
		}
		sig, err := os.ReadFile(*manifestPath + ".sig")
		if err != nil {
			fmt.Fprintf(os.Stderr, "read signature: %v\n", err)
			os.Exit(1)
		}
		if !manifest.Verify(ed25519.PublicKey(pub), raw, string(sig)) {
			fmt.Fprintln(os.Stderr, "signature verification FAILED")
			os.Exit(1)
		}
		fmt.Println("signature ok")
		return
	}

	if *keyPath == "" {
		fmt.Fprintln(os.Stderr, "missing -key")
		os.Exit(1)
	}

	priv, err := readKey(*keyPath, ed25519.PrivateKeySize)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read private key: %v\n", err)
		os.Exit(1)
	}

	sig := manifest.Sign(ed25519.PrivateKey(priv), raw)
	sigPath := *manifestPath + ".sig"
	if err := os.WriteFile(sigPath, []byte(sig), 0o600); err != nil {
		fmt.Fprintf(os.Stderr, "write signature: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("wrote", filepath.Clean(sigPath))
}

func readKey(path string, size int) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(data) == size {
		return data, nil
	}
	decoded, err := base64.StdEncoding.DecodeString(string(trimNewline(data)))
	if err != nil {
		return nil, fmt.Errorf("key is neither %d raw bytes nor base64: %w", size, err)
	}
	if len(decoded) != size {
		return nil, fmt.Errorf("decoded key is %d bytes, want %d", len(decoded), size)
	}
	return decoded, nil
}

func trimNewline(data []byte) []byte {
	for len(data) > 0 && (data[len(data)-1] == '\n' || data[len(data)-1] == '\r') {
		data = data[:len(data)-1]
	}
	return data
}
