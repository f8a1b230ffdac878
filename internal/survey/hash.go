package survey

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// DomainChunks prefixes the content hash of survey data. The version suffix
// allows the hashed form to change later.
const DomainChunks = "cavewalls/chunks/v1"

// hashWithDomain computes SHA256(domain + 0x00 + data).
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

type hashedChunk struct {
	Stations []Station `json:"s"`
	Shots    []Shot    `json:"h"`
}

// ContentHash identifies the survey data held by chunks. Station names are
// compared case-insensitively, so they are folded before hashing; suppressed
// warnings and errors do not contribute. Chunks with no stations are skipped.
func ContentHash(chunks []*Chunk) (string, error) {
	hashed := make([]hashedChunk, 0, len(chunks))
	for _, c := range chunks {
		if c.StationCount() == 0 {
			continue
		}
		hc := hashedChunk{Stations: make([]Station, len(c.stations)), Shots: c.shots}
		for i, st := range c.stations {
			st.Name = FoldName(st.Name)
			hc.Stations[i] = st
		}
		if hc.Shots == nil {
			hc.Shots = []Shot{}
		}
		hashed = append(hashed, hc)
	}

	data, err := json.Marshal(hashed)
	if err != nil {
		return "", fmt.Errorf("ContentHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainChunks, data), nil
}

// MustContentHash is like ContentHash but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustContentHash(chunks []*Chunk) string {
	h, err := ContentHash(chunks)
	if err != nil {
		panic(err)
	}
	return h
}
