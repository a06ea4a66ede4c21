package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content hashes. The version suffix allows the
// algorithm to change without colliding with old journals.
const (
	DomainBatch = "drawseq/batch/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data). The null separator
// prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// BatchEntries describes every op of a batch in order.
func BatchEntries(ops []Op) IRArray {
	entries := make(IRArray, len(ops))
	for i, op := range ops {
		entries[i] = Entry(op)
	}
	return entries
}

// BatchHash computes the content hash of a batch from its entries.
// Two batches hash equal exactly when they carry the same kinds with the
// same canonical arguments in the same order. The target is not part of the
// hash.
func BatchHash(entries IRArray) (string, error) {
	canonical, err := MarshalCanonical(entries)
	if err != nil {
		return "", fmt.Errorf("BatchHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainBatch, canonical), nil
}

// MustBatchHash is like BatchHash but panics on error.
// Use only in tests or when inputs are known to be finite.
func MustBatchHash(entries IRArray) string {
	h, err := BatchHash(entries)
	if err != nil {
		panic(err)
	}
	return h
}
