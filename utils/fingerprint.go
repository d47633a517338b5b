package utils

import "strconv"

// FingerprintSalt is the fixed offset applied to every client-supplied seed.
// The same offset is used at write time and at read-filter time so a returning
// anonymous client can re-filter its own comments by resubmitting the seed.
// This is obfuscation, not anonymization: the offset is public and guessable.
const FingerprintSalt int64 = 1000000007

// DeriveFingerprint maps a client seed to the stored fingerprint value.
// Two seeds that collide after the offset are indistinguishable; accepted.
func DeriveFingerprint(seed int64) int64 {
	return seed + FingerprintSalt
}

// ParseFingerprintSeed parses the client-supplied seed string. Clients send
// the seed as a decimal string in JSON bodies and query parameters; anything
// unparsable derives from zero so anonymous reads stay self-consistent.
func ParseFingerprintSeed(raw string) int64 {
	seed, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0
	}
	return seed
}
