package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "vouch/pkg/domain"
)

func TestComputeIntentHash_Deterministic(t *testing.T) {
	a := ComputeIntentHash("widget-9", 1100, "seller-3", "s3cr3t-salt")
	b := ComputeIntentHash("widget-9", 1100, "seller-3", "s3cr3t-salt")
	assert.Equal(t, a, b)

	_, err := id.ParseIntentHash(a.String())
	require.NoError(t, err, "hash must be 64 lowercase hex chars")
}

func TestComputeIntentHash_FieldSensitivity(t *testing.T) {
	base := ComputeIntentHash("widget-9", 1100, "seller-3", "salt")

	tests := []struct {
		name string
		hash id.IntentHash
	}{
		{"item changed", ComputeIntentHash("widget-8", 1100, "seller-3", "salt")},
		{"price changed", ComputeIntentHash("widget-9", 1101, "seller-3", "salt")},
		{"seller changed", ComputeIntentHash("widget-9", 1100, "seller-4", "salt")},
		{"salt changed", ComputeIntentHash("widget-9", 1100, "seller-3", "Salt")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotEqual(t, base, tt.hash)
		})
	}
}

// Length-prefixed encoding must keep field boundaries: concatenations that
// produce the same byte stream under naive joining must hash differently.
func TestComputeIntentHash_BoundaryShift(t *testing.T) {
	a := ComputeIntentHash("ab", 1, "cd", "e")
	b := ComputeIntentHash("a", 1, "bcd", "e")
	c := ComputeIntentHash("abc", 1, "d", "e")
	assert.NotEqual(t, a, b)
	assert.NotEqual(t, a, c)
	assert.NotEqual(t, b, c)

	d := ComputeIntentHash("x", 2, "y", "zz")
	e := ComputeIntentHash("x", 2, "yz", "z")
	assert.NotEqual(t, d, e)
}

func TestNewRequestID_DistinctForIdenticalPayloads(t *testing.T) {
	payload := plainRequestPayload("widget-9", 1100, "seller-3")

	first := newRequestID(1, payload, "agent-7", 1700000000000000000)
	second := newRequestID(2, payload, "agent-7", 1700000000000000000)
	assert.NotEqual(t, first, second, "counter must disambiguate identical submissions")

	_, err := id.ParseRequestID(first.String())
	require.NoError(t, err)
}

func TestNewRequestID_RequesterBound(t *testing.T) {
	payload := plainRequestPayload("widget-9", 1100, "seller-3")
	a := newRequestID(1, payload, "agent-7", 42)
	b := newRequestID(1, payload, "agent-8", 42)
	assert.NotEqual(t, a, b)
}

func FuzzComputeIntentHash_NoBoundaryCollisions(f *testing.F) {
	f.Add("widget", uint64(100), "seller", "salt")
	f.Add("", uint64(0), "", "")
	f.Add("a", uint64(1), "b", "c")
	f.Fuzz(func(t *testing.T, item string, price uint64, seller, salt string) {
		h := ComputeIntentHash(id.ItemID(item), price, id.SellerID(seller), salt)
		if _, err := id.ParseIntentHash(h.String()); err != nil {
			t.Fatalf("hash %q not canonical: %v", h, err)
		}
		// Moving the last item byte into the seller must change the hash.
		if len(item) > 0 {
			shifted := ComputeIntentHash(id.ItemID(item[:len(item)-1]), price, id.SellerID(item[len(item)-1:]+string(seller)), salt)
			if shifted == h {
				t.Fatalf("boundary shift collision for item=%q seller=%q", item, seller)
			}
		}
	})
}
