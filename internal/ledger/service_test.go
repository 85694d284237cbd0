package ledger_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vouch/internal/ledger"
	"vouch/internal/ledger/store/memory"
	id "vouch/pkg/domain"
	dErrors "vouch/pkg/domain-errors"
	"vouch/pkg/platform/events"
)

const (
	oracleID    = id.AgentID("oracle-agent")
	ownerID     = id.AgentID("owner-agent")
	requesterID = id.AgentID("agent-7")
	strangerID  = id.AgentID("agent-9")
)

type fixture struct {
	service   *ledger.Service
	publisher *events.ChannelPublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	publisher := events.NewChannelPublisher(128)
	t.Cleanup(func() { publisher.Close() })

	service := ledger.NewService(
		memory.NewRequestStore(),
		memory.NewConfidentialStore(),
		memory.NewReviewStore(),
		memory.NewIdentityStore(oracleID, ownerID),
		publisher,
		nil,
		nil,
	)
	return &fixture{service: service, publisher: publisher}
}

func (f *fixture) nextEvent(t *testing.T) events.Event {
	t.Helper()
	select {
	case event := <-f.publisher.Subscribe():
		return event
	default:
		t.Fatal("expected an event, none published")
		return events.Event{}
	}
}

func (f *fixture) requirePlain(t *testing.T, price uint64) id.RequestID {
	t.Helper()
	requestID, err := f.service.RequestPurchase(context.Background(), requesterID, "widget-9", price, "seller-3")
	require.NoError(t, err)
	f.nextEvent(t)
	return requestID
}

func TestRequestPurchase_DistinctIDsForIdenticalSubmissions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.service.RequestPurchase(ctx, requesterID, "widget-9", 1100, "seller-3")
	require.NoError(t, err)
	second, err := f.service.RequestPurchase(ctx, requesterID, "widget-9", 1100, "seller-3")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)

	event := f.nextEvent(t)
	assert.Equal(t, events.TypePurchaseRequested, event.Type)
	assert.Equal(t, first.String(), event.RequestID)
	assert.Equal(t, "false", event.Fields["confidential"])
}

// Writes must keep flowing past the event buffer capacity as long as a
// worker drains the stream, the way the server wires it without a broker.
func TestRequestPurchase_DrainedEventStreamNeverStallsWrites(t *testing.T) {
	publisher := events.NewChannelPublisher(1)
	t.Cleanup(func() { publisher.Close() })
	service := ledger.NewService(
		memory.NewRequestStore(),
		memory.NewConfidentialStore(),
		memory.NewReviewStore(),
		memory.NewIdentityStore(oracleID, ownerID),
		publisher,
		nil,
		nil,
	)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	worker := events.NewWorker(publisher.Subscribe(), events.Discard, nil)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = worker.Run(ctx)
	}()

	for i := 0; i < 16; i++ {
		_, err := service.RequestPurchase(ctx, requesterID, "widget-9", 1100, "seller-3")
		require.NoError(t, err)
	}
	require.NoError(t, ctx.Err(), "writes stalled on the event buffer")

	cancel()
	<-done
}

func TestRequestPurchase_RejectsZeroPrice(t *testing.T) {
	f := newFixture(t)
	_, err := f.service.RequestPurchase(context.Background(), requesterID, "widget-9", 0, "seller-3")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestFulfillDecision_Lifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	requestID := f.requirePlain(t, 1100)

	require.NoError(t, f.service.FulfillDecision(ctx, oracleID, requestID, true, 1095))

	request, err := f.service.GetRequest(ctx, requestID)
	require.NoError(t, err)
	assert.True(t, request.Fulfilled)
	assert.True(t, request.Approved)
	assert.Equal(t, uint64(1095), request.ReferencePrice)
	assert.False(t, request.FulfilledAt.IsZero())

	event := f.nextEvent(t)
	assert.Equal(t, events.TypePurchaseApproved, event.Type)
	assert.Equal(t, "1095", event.Fields["reference_price"])
}

func TestFulfillDecision_OnlyOracle(t *testing.T) {
	f := newFixture(t)
	requestID := f.requirePlain(t, 1100)

	err := f.service.FulfillDecision(context.Background(), strangerID, requestID, true, 1095)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))

	request, getErr := f.service.GetRequest(context.Background(), requestID)
	require.NoError(t, getErr)
	assert.False(t, request.Fulfilled, "rejected write must not mutate the request")
}

func TestFulfillDecision_Terminal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	requestID := f.requirePlain(t, 1100)

	require.NoError(t, f.service.FulfillDecision(ctx, oracleID, requestID, true, 1095))
	f.nextEvent(t)

	err := f.service.FulfillDecision(ctx, oracleID, requestID, false, 2000)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeAlreadyFulfilled))

	request, getErr := f.service.GetRequest(ctx, requestID)
	require.NoError(t, getErr)
	assert.True(t, request.Approved, "second verdict must not overwrite the first")
	assert.Equal(t, uint64(1095), request.ReferencePrice)
}

func TestFulfillDecision_UnknownRequest(t *testing.T) {
	f := newFixture(t)
	missing := id.RequestID("00000000000000000000000000000000ffffffffffffffffffffffffffffffff")
	err := f.service.FulfillDecision(context.Background(), oracleID, missing, true, 100)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestFulfillDecision_RejectionReason(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name       string
		proposed   uint64
		reference  uint64
		wantReason string
	}{
		{"overpriced", 2500, 1095, "proposed price exceeds 110% of reference price"},
		{"within band", 1100, 1095, "seller trust below approval threshold"},
		{"exactly 110 percent", 1100, 1000, "seller trust below approval threshold"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			requestID := f.requirePlain(t, tt.proposed)
			require.NoError(t, f.service.FulfillDecision(ctx, oracleID, requestID, false, tt.reference))

			event := f.nextEvent(t)
			assert.Equal(t, events.TypePurchaseRejected, event.Type)
			assert.Equal(t, tt.wantReason, event.Fields["reason"])
		})
	}
}

func TestConfidentialLifecycle_RevealMatches(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	hash := ledger.ComputeIntentHash("widget-9", 1100, "seller-3", "orange-salt")
	requestID, err := f.service.RequestConfidentialPurchase(ctx, requesterID, hash)
	require.NoError(t, err)

	event := f.nextEvent(t)
	assert.Equal(t, "true", event.Fields["confidential"])
	assert.Equal(t, hash.String(), event.Fields["intent_hash"])

	require.NoError(t, f.service.FulfillConfidentialDecision(ctx, oracleID, requestID, true, 1095))
	f.nextEvent(t)

	require.NoError(t, f.service.RevealPurchase(ctx, requesterID, requestID, "widget-9", 1100, "seller-3", "orange-salt"))

	revealed := f.nextEvent(t)
	assert.Equal(t, events.TypePurchaseRevealed, revealed.Type)
	assert.Equal(t, "widget-9", revealed.Fields["item_id"])
	assert.Equal(t, "1100", revealed.Fields["proposed_price"])

	request, err := f.service.GetConfidentialRequest(ctx, requestID)
	require.NoError(t, err)
	assert.True(t, request.Revealed)
	assert.True(t, request.Fulfilled)
}

func TestRevealPurchase_BeforeFulfillment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	hash := ledger.ComputeIntentHash("widget-9", 1100, "seller-3", "s")
	requestID, err := f.service.RequestConfidentialPurchase(ctx, requesterID, hash)
	require.NoError(t, err)

	assert.NoError(t, f.service.RevealPurchase(ctx, requesterID, requestID, "widget-9", 1100, "seller-3", "s"),
		"reveal must not depend on fulfillment order")
}

func TestRevealPurchase_Mismatch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	hash := ledger.ComputeIntentHash("widget-9", 1100, "seller-3", "salt")
	requestID, err := f.service.RequestConfidentialPurchase(ctx, requesterID, hash)
	require.NoError(t, err)
	f.nextEvent(t)

	tests := []struct {
		name   string
		item   id.ItemID
		price  uint64
		seller id.SellerID
		salt   string
	}{
		{"wrong item", "widget-8", 1100, "seller-3", "salt"},
		{"wrong price", "widget-9", 1101, "seller-3", "salt"},
		{"wrong seller", "widget-9", 1100, "seller-4", "salt"},
		{"wrong salt", "widget-9", 1100, "seller-3", "pepper"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.service.RevealPurchase(ctx, requesterID, requestID, tt.item, tt.price, tt.seller, tt.salt)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidReveal))
		})
	}

	// Failed attempts must leave the request revealable.
	require.NoError(t, f.service.RevealPurchase(ctx, requesterID, requestID, "widget-9", 1100, "seller-3", "salt"))
}

func TestRevealPurchase_OnlyRequester(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	hash := ledger.ComputeIntentHash("widget-9", 1100, "seller-3", "salt")
	requestID, err := f.service.RequestConfidentialPurchase(ctx, requesterID, hash)
	require.NoError(t, err)

	err = f.service.RevealPurchase(ctx, strangerID, requestID, "widget-9", 1100, "seller-3", "salt")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestRevealPurchase_Once(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	hash := ledger.ComputeIntentHash("widget-9", 1100, "seller-3", "salt")
	requestID, err := f.service.RequestConfidentialPurchase(ctx, requesterID, hash)
	require.NoError(t, err)

	require.NoError(t, f.service.RevealPurchase(ctx, requesterID, requestID, "widget-9", 1100, "seller-3", "salt"))
	err = f.service.RevealPurchase(ctx, requesterID, requestID, "widget-9", 1100, "seller-3", "salt")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeAlreadyRevealed))
}

func TestSubmitReview_Lifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	requestID := f.requirePlain(t, 1100)
	require.NoError(t, f.service.FulfillDecision(ctx, oracleID, requestID, true, 1095))
	f.nextEvent(t)

	require.NoError(t, f.service.SubmitReview(ctx, requesterID, requestID, 5, 4, 5, "fast shipping"))

	event := f.nextEvent(t)
	assert.Equal(t, events.TypeReviewCreated, event.Type)
	assert.Equal(t, "seller-3", event.Fields["seller_id"])

	review, err := f.service.GetReview(ctx, requestID)
	require.NoError(t, err)
	assert.Equal(t, ledger.Rating(5), review.Quality)
	assert.Equal(t, requesterID, review.Reviewer)
	assert.InDelta(t, 14.0/3.0, review.Overall(), 1e-9)

	stats, err := f.service.SellerReviewStats(ctx, "seller-3")
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Count)
	assert.InDelta(t, 5.0, stats.AvgQuality, 1e-9)
}

func TestSubmitReview_Gating(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	t.Run("pending request", func(t *testing.T) {
		requestID := f.requirePlain(t, 1100)
		err := f.service.SubmitReview(ctx, requesterID, requestID, 4, 4, 4, "")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotApproved))
	})

	t.Run("rejected request", func(t *testing.T) {
		requestID := f.requirePlain(t, 2500)
		require.NoError(t, f.service.FulfillDecision(ctx, oracleID, requestID, false, 1095))
		f.nextEvent(t)
		err := f.service.SubmitReview(ctx, requesterID, requestID, 4, 4, 4, "")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotApproved))
	})

	t.Run("wrong caller", func(t *testing.T) {
		requestID := f.requirePlain(t, 1100)
		require.NoError(t, f.service.FulfillDecision(ctx, oracleID, requestID, true, 1095))
		f.nextEvent(t)
		err := f.service.SubmitReview(ctx, strangerID, requestID, 4, 4, 4, "")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("duplicate", func(t *testing.T) {
		requestID := f.requirePlain(t, 1100)
		require.NoError(t, f.service.FulfillDecision(ctx, oracleID, requestID, true, 1095))
		f.nextEvent(t)
		require.NoError(t, f.service.SubmitReview(ctx, requesterID, requestID, 4, 4, 4, ""))
		f.nextEvent(t)
		err := f.service.SubmitReview(ctx, requesterID, requestID, 5, 5, 5, "")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeAlreadyReviewed))
	})
}

func TestSetOracle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	requestID := f.requirePlain(t, 1100)

	err := f.service.SetOracle(ctx, strangerID, "oracle-next")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))

	require.NoError(t, f.service.SetOracle(ctx, ownerID, "oracle-next"))
	event := f.nextEvent(t)
	assert.Equal(t, events.TypeOracleRotated, event.Type)

	// Old oracle loses write access, new one gains it.
	err = f.service.FulfillDecision(ctx, oracleID, requestID, true, 1095)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	assert.NoError(t, f.service.FulfillDecision(ctx, "oracle-next", requestID, true, 1095))
}
