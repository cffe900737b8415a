// Package service implements the hash chain that makes the audit ledger
// tamper-evident. Each event's content hash covers every field except the
// hash itself, including the predecessor's hash, so undetected insertion,
// deletion, or reordering is computationally infeasible.
package service

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"

	ledgerDomain "github.com/allisson/compliance-vault/internal/ledger/domain"
)

// genesisSeed is the fixed constant hashed to produce the previous-hash of
// the first event in an empty ledger. Versioned for future format changes.
const genesisSeed = "audit-ledger-genesis-v1"

// GenesisHash returns the sentinel previous-hash of event zero.
func GenesisHash() string {
	sum := sha256.Sum256([]byte(genesisSeed))
	return hex.EncodeToString(sum[:])
}

// ComputeHash returns the hex-encoded SHA-256 content hash of the event.
// The hash covers all fields including metadata.previous_hash and
// metadata.encrypted_at, and excludes metadata.hash itself.
func ComputeHash(event *ledgerDomain.AuditEvent) (string, error) {
	canonical, err := canonicalizeEvent(event)
	if err != nil {
		return "", fmt.Errorf("failed to canonicalize event: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

// VerifyChain checks a sequence of events sorted in append order: every
// event's stored hash must match its recomputed content hash, and every
// event's previous-hash must equal its predecessor's hash. The first event's
// previous-hash is only checked against the genesis sentinel when the caller
// states the sequence starts at the beginning of the ledger.
func VerifyChain(events []*ledgerDomain.AuditEvent, fromGenesis bool) error {
	for i, event := range events {
		computed, err := ComputeHash(event)
		if err != nil {
			return err
		}
		if computed != event.Metadata.Hash {
			return fmt.Errorf(
				"event %s content hash mismatch at position %d: %w",
				event.ID, i, ledgerDomain.ErrChainIntegrity,
			)
		}

		if i == 0 {
			if fromGenesis && event.Metadata.PreviousHash != GenesisHash() {
				return fmt.Errorf(
					"event %s does not chain from genesis: %w",
					event.ID, ledgerDomain.ErrChainIntegrity,
				)
			}
			continue
		}

		if event.Metadata.PreviousHash != events[i-1].Metadata.Hash {
			return fmt.Errorf(
				"event %s previous hash does not match predecessor %s: %w",
				event.ID, events[i-1].ID, ledgerDomain.ErrChainIntegrity,
			)
		}
	}
	return nil
}

// canonicalizeEvent converts an event to its canonical byte representation
// for hashing. Variable-length fields are length-prefixed to prevent
// ambiguity; timestamps use big-endian Unix nanoseconds; the details map is
// serialized as JSON, which encodes map keys in sorted order.
func canonicalizeEvent(event *ledgerDomain.AuditEvent) ([]byte, error) {
	// Typical encoded event is well under 1KB
	buf := make([]byte, 0, 1024)

	buf = append(buf, event.ID[:]...)
	buf = appendTimestamp(buf, event.Timestamp.UnixNano())
	buf = appendLengthPrefixed(buf, []byte(event.Category))

	buf = appendLengthPrefixed(buf, []byte(event.Actor.ID))
	buf = appendLengthPrefixed(buf, []byte(event.Actor.Role))
	buf = appendLengthPrefixed(buf, []byte(event.Actor.Origin))

	buf = appendLengthPrefixed(buf, []byte(event.Action.Type))
	buf = appendLengthPrefixed(buf, []byte(event.Action.Outcome))
	if event.Action.Details != nil {
		detailBytes, err := json.Marshal(event.Action.Details)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal action details: %w", err)
		}
		buf = appendLengthPrefixed(buf, detailBytes)
	} else {
		buf = appendLengthPrefixed(buf, nil)
	}

	buf = appendLengthPrefixed(buf, []byte(event.Resource.Type))
	buf = appendLengthPrefixed(buf, []byte(event.Resource.ID))
	buf = appendLengthPrefixed(buf, []byte(event.Resource.Description))

	buf = appendLengthPrefixed(buf, []byte(event.SubjectID))
	buf = appendLengthPrefixed(buf, []byte(event.Location))
	buf = appendLengthPrefixed(buf, []byte(event.Justification))

	buf = appendTimestamp(buf, event.Metadata.EncryptedAt.UnixNano())
	buf = appendLengthPrefixed(buf, []byte(event.Metadata.PreviousHash))

	return buf, nil
}

// appendTimestamp appends a big-endian int64 timestamp.
func appendTimestamp(buf []byte, unixNano int64) []byte {
	timeBytes := make([]byte, 8)
	binary.BigEndian.PutUint64(timeBytes, uint64(unixNano))
	return append(buf, timeBytes...)
}

// appendLengthPrefixed adds a 4-byte big-endian length prefix followed by data.
// Panics if data length exceeds uint32 max to prevent integer overflow.
func appendLengthPrefixed(buf []byte, data []byte) []byte {
	dataLen := len(data)
	if dataLen > 0xFFFFFFFF {
		panic("data length exceeds uint32 max")
	}
	length := make([]byte, 4)
	binary.BigEndian.PutUint32(length, uint32(dataLen))
	buf = append(buf, length...)
	buf = append(buf, data...)
	return buf
}
