package service

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"

	"github.com/gowebpki/jcs"
)

func visitHash(visitID uint64) string {
	return "visit-" + strconv.FormatUint(visitID, 10)
}

// syntheticHash identifies a ledger row that stands in for unmatched cost.
// The platform row id is part of the digest, so two records with equal
// payloads still get distinct rows.
func syntheticHash(date, channel, externalID string, payload []byte) (string, error) {
	canon, err := canonicalJSON(payload)
	if err != nil {
		return "", err
	}
	h := sha256.New()
	h.Write([]byte(externalID))
	h.Write([]byte{0})
	h.Write(canon)
	return fmt.Sprintf("ad-%s-%s-%s", date, channel, hex.EncodeToString(h.Sum(nil))), nil
}

// canonicalJSON is the RFC 8785 form of payload: sorted keys, shortest
// number spelling, no insignificant whitespace.
func canonicalJSON(payload []byte) ([]byte, error) {
	if len(bytes.TrimSpace(payload)) == 0 {
		return []byte("null"), nil
	}
	canon, err := jcs.Transform(payload)
	if err != nil {
		return nil, fmt.Errorf("canonicalize platform payload: %w", err)
	}
	return canon, nil
}
