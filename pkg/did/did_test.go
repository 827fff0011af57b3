package did

import (
	"crypto/rand"
	"errors"
	"regexp"
	"strings"
	"testing"

	"golang.org/x/crypto/blake2b"
)

var mainnetPattern = regexp.MustCompile(`^did:cardano:mainnet:[1-9A-HJ-NP-Za-km-z]+$`)

func testCommitment(t *testing.T) []byte {
	t.Helper()
	c := make([]byte, blake2b.Size256)
	if _, err := rand.Read(c); err != nil {
		t.Fatalf("rand.Read() failed: %v", err)
	}
	return c
}

func TestEncode_Format(t *testing.T) {
	c := testCommitment(t)

	s, err := Encode(c, Mainnet)
	if err != nil {
		t.Fatalf("Encode() failed: %v", err)
	}

	if !mainnetPattern.MatchString(s) {
		t.Fatalf("did %q does not match the mainnet pattern", s)
	}
	if strings.Count(s, ":") != 3 {
		t.Fatalf("did %q must have exactly 4 colon-delimited segments", s)
	}
	if strings.ContainsAny(s, "#0OIl") {
		t.Fatalf("did %q contains forbidden characters", s)
	}
}

func TestEncode_Deterministic(t *testing.T) {
	c := testCommitment(t)

	first, err := Encode(c, Mainnet)
	if err != nil {
		t.Fatalf("Encode() failed: %v", err)
	}
	second, err := Encode(c, Mainnet)
	if err != nil {
		t.Fatalf("Encode() failed: %v", err)
	}
	if first != second {
		t.Fatalf("identical commitments must encode to identical DIDs")
	}

	other, err := Encode(testCommitment(t), Mainnet)
	if err != nil {
		t.Fatalf("Encode() failed: %v", err)
	}
	if first == other {
		t.Fatalf("different commitments must encode to different DIDs")
	}

	preprod, err := Encode(c, Preprod)
	if err != nil {
		t.Fatalf("Encode() failed: %v", err)
	}
	if first == preprod {
		t.Fatalf("networks must yield distinct identifiers")
	}
	if !strings.HasPrefix(preprod, "did:cardano:preprod:") {
		t.Fatalf("unexpected preprod did %q", preprod)
	}
}

func TestEncode_Validation(t *testing.T) {
	if _, err := Encode(nil, Mainnet); err == nil {
		t.Fatalf("expected error for empty commitment")
	}
	if _, err := Encode(testCommitment(t), "devnet"); err == nil {
		t.Fatalf("expected error for unknown network")
	}
}

func TestParse_RoundTrip(t *testing.T) {
	s, err := Encode(testCommitment(t), Testnet)
	if err != nil {
		t.Fatalf("Encode() failed: %v", err)
	}

	d, err := Parse(s)
	if err != nil {
		t.Fatalf("Parse() failed: %v", err)
	}
	if d.Network != Testnet {
		t.Fatalf("unexpected network %q", d.Network)
	}
	if d.String() != s {
		t.Fatalf("round trip mismatch: %q vs %q", d.String(), s)
	}
}

func TestParse_Rejects(t *testing.T) {
	tests := []string{
		"",
		"did:cardano:mainnet",
		"did:cardano:mainnet:abc:extra",
		"did:cardano:mainnet:",
		"did:cardano:devnet:abc",
		"did:key:mainnet:abc",
		"DID:cardano:mainnet:abc",
		"did:cardano:mainnet:ab#frag",
		"did:cardano:mainnet:0OIl",
	}

	for _, s := range tests {
		if _, err := Parse(s); !errors.Is(err, ErrMalformed) {
			t.Fatalf("Parse(%q): expected ErrMalformed, got %v", s, err)
		}
	}
}

func TestEqual(t *testing.T) {
	s, err := Encode(testCommitment(t), Mainnet)
	if err != nil {
		t.Fatalf("Encode() failed: %v", err)
	}

	if !Equal(s, s) {
		t.Fatalf("identical DIDs must compare equal")
	}
	if Equal(s, s+"1") {
		t.Fatalf("different lengths must not compare equal")
	}
	other, err := Encode(testCommitment(t), Mainnet)
	if err != nil {
		t.Fatalf("Encode() failed: %v", err)
	}
	if Equal(s, other) {
		t.Fatalf("different DIDs must not compare equal")
	}
}
