// Package incremental computes deterministic signatures over a run's inputs
// so unchanged sites can skip publishing entirely.
package incremental

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"

	"git.home.luguber.info/inful/sitepress/internal/content"
)

// UnitHash pairs a content unit with the hash of its raw bytes.
type UnitHash struct {
	Path string `json:"path"`
	Hash string `json:"hash"`
}

// Signature represents the complete signature of a run's inputs.
type Signature struct {
	Units      []UnitHash `json:"units"`
	ConfigHash string     `json:"config_hash"`
	InputHash  string     `json:"input_hash"` // computed hash of all above
}

// HashBytes returns the hex-encoded SHA-256 of data.
func HashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// ComputeSignature computes a deterministic signature for the run.
// The signature includes:
// - Every unit's relative path and content hash (sorted by path)
// - A hash of the effective configuration
//
// Two runs with identical signatures produce identical output.
func ComputeSignature(units []content.Unit, configJSON []byte) (*Signature, error) {
	sig := &Signature{
		Units: make([]UnitHash, 0, len(units)),
	}
	for i := range units {
		u := &units[i]
		if u.Raw == nil {
			if err := u.LoadContent(); err != nil {
				return nil, fmt.Errorf("hash %s: %w", u.RelativePath, err)
			}
		}
		sig.Units = append(sig.Units, UnitHash{
			Path: u.RelativePath,
			Hash: HashBytes(u.Raw),
		})
	}
	sort.Slice(sig.Units, func(i, j int) bool {
		return sig.Units[i].Path < sig.Units[j].Path
	})

	if len(configJSON) > 0 {
		sig.ConfigHash = HashBytes(configJSON)
	}

	hash, err := computeInputHash(sig)
	if err != nil {
		return nil, fmt.Errorf("failed to compute input hash: %w", err)
	}
	sig.InputHash = hash
	return sig, nil
}

// computeInputHash hashes the normalized signature components, excluding the
// InputHash field itself.
func computeInputHash(sig *Signature) (string, error) {
	normalized := struct {
		Units      []UnitHash `json:"units"`
		ConfigHash string     `json:"config_hash"`
	}{
		Units:      sig.Units,
		ConfigHash: sig.ConfigHash,
	}

	data, err := json.Marshal(normalized)
	if err != nil {
		return "", fmt.Errorf("failed to marshal signature: %w", err)
	}
	return HashBytes(data), nil
}

// ToJSON serializes the signature to JSON.
func (s *Signature) ToJSON() ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

// FromJSON deserializes a signature from JSON.
func FromJSON(data []byte) (*Signature, error) {
	var sig Signature
	if err := json.Unmarshal(data, &sig); err != nil {
		return nil, fmt.Errorf("failed to unmarshal signature: %w", err)
	}
	return &sig, nil
}

// Equals checks if two signatures are equal (same InputHash).
func (s *Signature) Equals(other *Signature) bool {
	if s == nil || other == nil {
		return s == other
	}
	return s.InputHash == other.InputHash
}

// Unchanged reports whether the current signature matches a previously
// recorded input hash.
func Unchanged(current *Signature, previousInputHash string) bool {
	return current != nil && previousInputHash != "" && current.InputHash == previousInputHash
}
