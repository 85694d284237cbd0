package ledger

import (
	"encoding/binary"
	"encoding/hex"

	"golang.org/x/crypto/sha3"

	id "vouch/pkg/domain"
)

// Commitments and request ids are Keccak-256 digests. Fields are
// length-prefixed before hashing so no two distinct field tuples can encode
// to the same byte stream.

func writeField(h interface{ Write(p []byte) (int, error) }, field []byte) {
	var lenBuf [8]byte
	binary.BigEndian.PutUint64(lenBuf[:], uint64(len(field)))
	_, _ = h.Write(lenBuf[:])
	_, _ = h.Write(field)
}

func writeUint64(h interface{ Write(p []byte) (int, error) }, v uint64) {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	_, _ = h.Write(buf[:])
}

// ComputeIntentHash derives the binding commitment to a confidential
// purchase intent. The salt makes the commitment hiding: without it, a small
// item/price/seller space could be brute-forced.
func ComputeIntentHash(itemID id.ItemID, proposedPrice uint64, sellerID id.SellerID, salt string) id.IntentHash {
	h := sha3.NewLegacyKeccak256()
	writeField(h, []byte(itemID))
	writeUint64(h, proposedPrice)
	writeField(h, []byte(sellerID))
	writeField(h, []byte(salt))
	return id.IntentHash(hex.EncodeToString(h.Sum(nil)))
}

// newRequestID derives a unique request id from the ledger counter, the
// request parameters, the submitter, and the submission time. The counter is
// the uniqueness guarantee: identical parameters submitted in the same
// instant still hash differently.
func newRequestID(counter uint64, payload []byte, requester id.AgentID, unixNano int64) id.RequestID {
	h := sha3.NewLegacyKeccak256()
	writeUint64(h, counter)
	writeField(h, payload)
	writeField(h, []byte(requester))
	writeUint64(h, uint64(unixNano))
	return id.RequestID(hex.EncodeToString(h.Sum(nil)))
}

// plainRequestPayload encodes the identifying parameters of a plain intent
// for id derivation.
func plainRequestPayload(itemID id.ItemID, proposedPrice uint64, sellerID id.SellerID) []byte {
	h := make([]byte, 0, len(itemID)+len(sellerID)+8)
	h = append(h, itemID...)
	h = binary.BigEndian.AppendUint64(h, proposedPrice)
	h = append(h, sellerID...)
	return h
}
