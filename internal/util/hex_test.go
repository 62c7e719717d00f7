package util

import (
	"bytes"
	"testing"
)

func TestHexToBytes(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []byte
	}{
		{"plain", "deadbeef", []byte{0xde, 0xad, 0xbe, 0xef}},
		{"0x prefix", "0xdeadbeef", []byte{0xde, 0xad, 0xbe, 0xef}},
		{"0X prefix", "0XDEADBEEF", []byte{0xde, 0xad, 0xbe, 0xef}},
		{"odd length padded", "fff", []byte{0x0f, 0xff}},
		{"empty", "", []byte{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := HexToBytes(tt.input)
			if err != nil {
				t.Fatalf("HexToBytes(%q): %v", tt.input, err)
			}
			if !bytes.Equal(got, tt.want) {
				t.Errorf("HexToBytes(%q) = %x, want %x", tt.input, got, tt.want)
			}
		})
	}
}

func TestHexToBytesInvalid(t *testing.T) {
	if _, err := HexToBytes("0xzz"); err == nil {
		t.Error("HexToBytes accepted non-hex input")
	}
}

func TestBytesToHex(t *testing.T) {
	if got := BytesToHex([]byte{0xde, 0xad}); got != "0xdead" {
		t.Errorf("BytesToHex = %q, want 0xdead", got)
	}
	if got := BytesToHex(nil); got != "0x" {
		t.Errorf("BytesToHex(nil) = %q, want 0x", got)
	}
}

func TestNormalizePubKey(t *testing.T) {
	// Every encoding of the same key maps to one canonical string.
	variants := []string{
		"0xdeadbeef",
		"deadbeef",
		"0XDEADBEEF",
		"DeadBeef",
	}
	for _, v := range variants {
		got, err := NormalizePubKey(v)
		if err != nil {
			t.Fatalf("NormalizePubKey(%q): %v", v, err)
		}
		if got != "0xdeadbeef" {
			t.Errorf("NormalizePubKey(%q) = %q, want 0xdeadbeef", v, got)
		}
	}
}

func TestNormalizePubKeyInvalid(t *testing.T) {
	if _, err := NormalizePubKey(""); err == nil {
		t.Error("NormalizePubKey accepted empty input")
	}
	if _, err := NormalizePubKey("0xhello"); err == nil {
		t.Error("NormalizePubKey accepted non-hex input")
	}
}

func TestNormalizeWalletAndWorker(t *testing.T) {
	if got := NormalizeWallet("  ZIL1ABC "); got != "zil1abc" {
		t.Errorf("NormalizeWallet = %q", got)
	}
	if got := NormalizeWorker("Rig0"); got != "rig0" {
		t.Errorf("NormalizeWorker = %q", got)
	}
	if got := WorkerKey("ZIL1abc", "RIG0"); got != "zil1abc.rig0" {
		t.Errorf("WorkerKey = %q", got)
	}
}
