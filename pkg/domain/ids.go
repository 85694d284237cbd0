// Package domain holds the typed identifiers shared across the gateway.
//
// Identifiers are distinct Go types so the compiler rejects cross-type mixups
// (an ItemID can never be passed where a SellerID is expected). Construct via
// the Parse functions at trust boundaries; direct conversion bypasses
// validation and is reserved for internal code that already holds a valid
// value.
package domain

import (
	"encoding/hex"
	"regexp"
	"strings"

	dErrors "vouch/pkg/domain-errors"
)

// AgentID identifies a calling agent (requester, oracle, or owner).
// Invariant: non-empty, at most 128 characters, no whitespace.
type AgentID string

// RequestID identifies a purchase request on the ledger.
// Invariant: 64 lowercase hex characters (a 32-byte digest).
type RequestID string

// ItemID identifies a purchasable item at a marketplace.
type ItemID string

// SellerID identifies a seller.
type SellerID string

// IntentHash is the hex form of a 32-byte purchase-intent commitment.
type IntentHash string

var hex64 = regexp.MustCompile(`^[0-9a-f]{64}$`)

// ParseAgentID constructs an AgentID from external input.
//
// Errors: CodeInvalidInput when empty, too long, or containing whitespace.
func ParseAgentID(s string) (AgentID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "agent id cannot be empty")
	}
	if len(s) > 128 {
		return "", dErrors.New(dErrors.CodeInvalidInput, "agent id too long")
	}
	if strings.ContainsAny(s, " \t\n") {
		return "", dErrors.New(dErrors.CodeInvalidInput, "agent id cannot contain whitespace")
	}
	return AgentID(s), nil
}

// ParseRequestID validates the 64-hex-char request id format.
func ParseRequestID(s string) (RequestID, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if !hex64.MatchString(s) {
		return "", dErrors.New(dErrors.CodeInvalidInput, "request id must be 64 hex characters")
	}
	return RequestID(s), nil
}

// ParseItemID constructs an ItemID from external input.
func ParseItemID(s string) (ItemID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "item id cannot be empty")
	}
	if len(s) > 256 {
		return "", dErrors.New(dErrors.CodeInvalidInput, "item id too long")
	}
	return ItemID(s), nil
}

// ParseSellerID constructs a SellerID from external input.
func ParseSellerID(s string) (SellerID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "seller id cannot be empty")
	}
	if len(s) > 256 {
		return "", dErrors.New(dErrors.CodeInvalidInput, "seller id too long")
	}
	return SellerID(s), nil
}

// ParseIntentHash validates the hex form of a commitment digest.
func ParseIntentHash(s string) (IntentHash, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if !hex64.MatchString(s) {
		return "", dErrors.New(dErrors.CodeInvalidInput, "intent hash must be 64 hex characters")
	}
	return IntentHash(s), nil
}

// Bytes decodes the digest. Only valid on a parsed IntentHash.
func (h IntentHash) Bytes() []byte {
	b, _ := hex.DecodeString(string(h))
	return b
}

func (a AgentID) String() string    { return string(a) }
func (r RequestID) String() string  { return string(r) }
func (i ItemID) String() string     { return string(i) }
func (s SellerID) String() string   { return string(s) }
func (h IntentHash) String() string { return string(h) }
