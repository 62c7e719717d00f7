package util

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// HexToBytes converts a hex string to bytes, accepting an optional 0x prefix.
func HexToBytes(s string) ([]byte, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if len(s)%2 != 0 {
		s = "0" + s
	}
	return hex.DecodeString(s)
}

// BytesToHex converts bytes to a lowercase hex string with 0x prefix.
func BytesToHex(b []byte) string {
	return "0x" + hex.EncodeToString(b)
}

// NormalizePubKey converts a node public key to its canonical storage
// encoding: a hex decode/encode round trip yielding "0x" plus lowercase hex.
// Inputs with or without the 0x prefix and in any letter case map to the
// same canonical string.
func NormalizePubKey(s string) (string, error) {
	if s == "" {
		return "", fmt.Errorf("empty public key")
	}
	b, err := HexToBytes(s)
	if err != nil {
		return "", fmt.Errorf("invalid public key %q: %w", s, err)
	}
	return BytesToHex(b), nil
}

// NormalizeWallet lowercases a wallet address. Wallet identity is
// case-insensitive.
func NormalizeWallet(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NormalizeWorker lowercases a worker name. Worker identity is
// case-insensitive within its wallet.
func NormalizeWorker(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// WorkerKey builds the storage field for a (wallet, worker) pair.
func WorkerKey(wallet, worker string) string {
	return NormalizeWallet(wallet) + "." + NormalizeWorker(worker)
}
