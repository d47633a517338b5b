package utils

import "testing"

func TestDeriveFingerprintDeterministic(t *testing.T) {
	if DeriveFingerprint(7) != DeriveFingerprint(7) {
		t.Fatalf("derivation must be deterministic")
	}
	if got := DeriveFingerprint(7); got != 1000000014 {
		t.Fatalf("derive(7) = %d, want 1000000014", got)
	}
	if got := DeriveFingerprint(0); got != FingerprintSalt {
		t.Fatalf("derive(0) = %d, want %d", got, FingerprintSalt)
	}
}

func TestDeriveFingerprintDistinctSeeds(t *testing.T) {
	seen := map[int64]int64{}
	for seed := int64(-100); seed <= 100; seed++ {
		fp := DeriveFingerprint(seed)
		if prev, ok := seen[fp]; ok {
			t.Fatalf("seeds %d and %d collide on %d", prev, seed, fp)
		}
		seen[fp] = seed
	}
}

func TestParseFingerprintSeed(t *testing.T) {
	cases := []struct {
		raw  string
		want int64
	}{
		{"7", 7},
		{"42", 42},
		{"-3", -3},
		{"", 0},
		{"abc", 0},
		{"12.5", 0},
	}
	for _, tc := range cases {
		if got := ParseFingerprintSeed(tc.raw); got != tc.want {
			t.Errorf("ParseFingerprintSeed(%q) = %d, want %d", tc.raw, got, tc.want)
		}
	}
}
