// Package postgres persists the ledger in PostgreSQL. Guarded mutations run
// inside a transaction with SELECT ... FOR UPDATE so a guard check and its
// write are one indivisible step per request, matching the memory store's
// semantics. The stores are pure I/O; all domain logic lives in the service.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"vouch/internal/ledger"
	id "vouch/pkg/domain"
	"vouch/pkg/platform/sentinel"
)

// RequestStore persists plain purchase requests.
type RequestStore struct {
	db *sql.DB
}

// NewRequestStore constructs a PostgreSQL-backed request store.
func NewRequestStore(db *sql.DB) *RequestStore {
	return &RequestStore{db: db}
}

func (s *RequestStore) Create(ctx context.Context, request *ledger.PurchaseRequest) error {
	query := `
		INSERT INTO purchase_requests
			(id, item_id, proposed_price, seller_id, requester, fulfilled, approved, reference_price, created_at)
		VALUES ($1, $2, $3, $4, $5, FALSE, FALSE, 0, $6)
	`
	_, err := s.db.ExecContext(ctx, query,
		request.ID.String(),
		request.ItemID.String(),
		int64(request.ProposedPrice),
		request.SellerID.String(),
		request.Requester.String(),
		request.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create purchase request: %w", err)
	}
	return nil
}

func (s *RequestStore) FindByID(ctx context.Context, requestID id.RequestID) (*ledger.PurchaseRequest, error) {
	query := `
		SELECT id, item_id, proposed_price, seller_id, requester, fulfilled, approved, reference_price, created_at, fulfilled_at
		FROM purchase_requests
		WHERE id = $1
	`
	return scanRequest(s.db.QueryRowContext(ctx, query, requestID.String()))
}

// Execute locks the row, runs validate, applies the mutation, and writes the
// result back, all inside one transaction.
func (s *RequestStore) Execute(ctx context.Context, requestID id.RequestID,
	validate func(*ledger.PurchaseRequest) error,
	apply func(*ledger.PurchaseRequest)) (*ledger.PurchaseRequest, error) {

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin fulfillment tx: %w", err)
	}
	defer tx.Rollback()

	query := `
		SELECT id, item_id, proposed_price, seller_id, requester, fulfilled, approved, reference_price, created_at, fulfilled_at
		FROM purchase_requests
		WHERE id = $1
		FOR UPDATE
	`
	request, err := scanRequest(tx.QueryRowContext(ctx, query, requestID.String()))
	if err != nil {
		return nil, err
	}
	if err := validate(request); err != nil {
		return nil, err
	}
	apply(request)

	update := `
		UPDATE purchase_requests
		SET fulfilled = $2, approved = $3, reference_price = $4, fulfilled_at = $5
		WHERE id = $1
	`
	if _, err := tx.ExecContext(ctx, update,
		request.ID.String(),
		request.Fulfilled,
		request.Approved,
		int64(request.ReferencePrice),
		nullableTime(request.Fulfilled, request.FulfilledAt),
	); err != nil {
		return nil, fmt.Errorf("update purchase request: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit fulfillment: %w", err)
	}
	return request, nil
}

// ConfidentialStore persists commitment-only requests.
type ConfidentialStore struct {
	db *sql.DB
}

// NewConfidentialStore constructs a PostgreSQL-backed confidential store.
func NewConfidentialStore(db *sql.DB) *ConfidentialStore {
	return &ConfidentialStore{db: db}
}

func (s *ConfidentialStore) Create(ctx context.Context, request *ledger.ConfidentialRequest) error {
	query := `
		INSERT INTO confidential_requests
			(id, intent_hash, requester, fulfilled, approved, revealed, reference_price, created_at)
		VALUES ($1, $2, $3, FALSE, FALSE, FALSE, 0, $4)
	`
	_, err := s.db.ExecContext(ctx, query,
		request.ID.String(),
		request.IntentHash.String(),
		request.Requester.String(),
		request.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create confidential request: %w", err)
	}
	return nil
}

func (s *ConfidentialStore) FindByID(ctx context.Context, requestID id.RequestID) (*ledger.ConfidentialRequest, error) {
	query := `
		SELECT id, intent_hash, requester, fulfilled, approved, revealed, reference_price, created_at, fulfilled_at, revealed_at
		FROM confidential_requests
		WHERE id = $1
	`
	return scanConfidential(s.db.QueryRowContext(ctx, query, requestID.String()))
}

func (s *ConfidentialStore) Execute(ctx context.Context, requestID id.RequestID,
	validate func(*ledger.ConfidentialRequest) error,
	apply func(*ledger.ConfidentialRequest)) (*ledger.ConfidentialRequest, error) {

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin confidential tx: %w", err)
	}
	defer tx.Rollback()

	query := `
		SELECT id, intent_hash, requester, fulfilled, approved, revealed, reference_price, created_at, fulfilled_at, revealed_at
		FROM confidential_requests
		WHERE id = $1
		FOR UPDATE
	`
	request, err := scanConfidential(tx.QueryRowContext(ctx, query, requestID.String()))
	if err != nil {
		return nil, err
	}
	if err := validate(request); err != nil {
		return nil, err
	}
	apply(request)

	update := `
		UPDATE confidential_requests
		SET fulfilled = $2, approved = $3, revealed = $4, reference_price = $5, fulfilled_at = $6, revealed_at = $7
		WHERE id = $1
	`
	if _, err := tx.ExecContext(ctx, update,
		request.ID.String(),
		request.Fulfilled,
		request.Approved,
		request.Revealed,
		int64(request.ReferencePrice),
		nullableTime(request.Fulfilled, request.FulfilledAt),
		nullableTime(request.Revealed, request.RevealedAt),
	); err != nil {
		return nil, fmt.Errorf("update confidential request: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit confidential update: %w", err)
	}
	return request, nil
}

// ReviewStore persists reviews. The request-id primary key makes duplicate
// detection a constraint violation instead of a read-then-write.
type ReviewStore struct {
	db *sql.DB
}

// NewReviewStore constructs a PostgreSQL-backed review store.
func NewReviewStore(db *sql.DB) *ReviewStore {
	return &ReviewStore{db: db}
}

func (s *ReviewStore) Create(ctx context.Context, review *ledger.AgentReview) error {
	query := `
		INSERT INTO agent_reviews
			(request_id, item_id, seller_id, reviewer, quality, delivery, value, comment, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (request_id) DO NOTHING
	`
	result, err := s.db.ExecContext(ctx, query,
		review.RequestID.String(),
		review.ItemID.String(),
		review.SellerID.String(),
		review.Reviewer.String(),
		int16(review.Quality),
		int16(review.Delivery),
		int16(review.Value),
		review.Comment,
		review.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create review: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("create review affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("review for request %s: %w", review.RequestID, sentinel.ErrConflict)
	}
	return nil
}

func (s *ReviewStore) FindByRequest(ctx context.Context, requestID id.RequestID) (*ledger.AgentReview, error) {
	query := reviewColumns + ` WHERE request_id = $1`
	review, err := scanReview(s.db.QueryRowContext(ctx, query, requestID.String()))
	if err != nil {
		return nil, err
	}
	return review, nil
}

func (s *ReviewStore) ListByItem(ctx context.Context, itemID id.ItemID) ([]*ledger.AgentReview, error) {
	query := reviewColumns + ` WHERE item_id = $1 ORDER BY created_at`
	return s.list(ctx, query, itemID.String())
}

func (s *ReviewStore) ListBySeller(ctx context.Context, sellerID id.SellerID) ([]*ledger.AgentReview, error) {
	query := reviewColumns + ` WHERE seller_id = $1 ORDER BY created_at`
	return s.list(ctx, query, sellerID.String())
}

func (s *ReviewStore) list(ctx context.Context, query, key string) ([]*ledger.AgentReview, error) {
	rows, err := s.db.QueryContext(ctx, query, key)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	var reviews []*ledger.AgentReview
	for rows.Next() {
		review, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		reviews = append(reviews, review)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reviews: %w", err)
	}
	return reviews, nil
}

// IdentityStore persists the oracle and owner identities as single rows.
type IdentityStore struct {
	db *sql.DB
}

// NewIdentityStore constructs a PostgreSQL-backed identity store and seeds
// the identities if absent.
func NewIdentityStore(ctx context.Context, db *sql.DB, oracle, owner id.AgentID) (*IdentityStore, error) {
	store := &IdentityStore{db: db}
	seed := `
		INSERT INTO ledger_identities (role, agent_id)
		VALUES ('oracle', $1), ('owner', $2)
		ON CONFLICT (role) DO NOTHING
	`
	if _, err := db.ExecContext(ctx, seed, oracle.String(), owner.String()); err != nil {
		return nil, fmt.Errorf("seed ledger identities: %w", err)
	}
	return store, nil
}

func (s *IdentityStore) Oracle(ctx context.Context) (id.AgentID, error) {
	return s.role(ctx, "oracle")
}

func (s *IdentityStore) Owner(ctx context.Context) (id.AgentID, error) {
	return s.role(ctx, "owner")
}

func (s *IdentityStore) SetOracle(ctx context.Context, oracle id.AgentID) error {
	query := `UPDATE ledger_identities SET agent_id = $1 WHERE role = 'oracle'`
	if _, err := s.db.ExecContext(ctx, query, oracle.String()); err != nil {
		return fmt.Errorf("set oracle identity: %w", err)
	}
	return nil
}

func (s *IdentityStore) role(ctx context.Context, role string) (id.AgentID, error) {
	var agent string
	err := s.db.QueryRowContext(ctx, `SELECT agent_id FROM ledger_identities WHERE role = $1`, role).Scan(&agent)
	if err != nil {
		return "", fmt.Errorf("load %s identity: %w", role, err)
	}
	return id.AgentID(agent), nil
}

const reviewColumns = `
	SELECT request_id, item_id, seller_id, reviewer, quality, delivery, value, comment, created_at
	FROM agent_reviews`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(row rowScanner) (*ledger.PurchaseRequest, error) {
	var request ledger.PurchaseRequest
	var requestID, itemID, sellerID, requester string
	var proposedPrice, referencePrice int64
	var fulfilledAt sql.NullTime

	err := row.Scan(&requestID, &itemID, &proposedPrice, &sellerID, &requester,
		&request.Fulfilled, &request.Approved, &referencePrice, &request.CreatedAt, &fulfilledAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("purchase request: %w", sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("scan purchase request: %w", err)
	}

	request.ID = id.RequestID(requestID)
	request.ItemID = id.ItemID(itemID)
	request.ProposedPrice = uint64(proposedPrice)
	request.SellerID = id.SellerID(sellerID)
	request.Requester = id.AgentID(requester)
	request.ReferencePrice = uint64(referencePrice)
	if fulfilledAt.Valid {
		request.FulfilledAt = fulfilledAt.Time
	}
	return &request, nil
}

func scanConfidential(row rowScanner) (*ledger.ConfidentialRequest, error) {
	var request ledger.ConfidentialRequest
	var requestID, intentHash, requester string
	var referencePrice int64
	var fulfilledAt, revealedAt sql.NullTime

	err := row.Scan(&requestID, &intentHash, &requester,
		&request.Fulfilled, &request.Approved, &request.Revealed,
		&referencePrice, &request.CreatedAt, &fulfilledAt, &revealedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("confidential request: %w", sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("scan confidential request: %w", err)
	}

	request.ID = id.RequestID(requestID)
	request.IntentHash = id.IntentHash(intentHash)
	request.Requester = id.AgentID(requester)
	request.ReferencePrice = uint64(referencePrice)
	if fulfilledAt.Valid {
		request.FulfilledAt = fulfilledAt.Time
	}
	if revealedAt.Valid {
		request.RevealedAt = revealedAt.Time
	}
	return &request, nil
}

func scanReview(row rowScanner) (*ledger.AgentReview, error) {
	var review ledger.AgentReview
	var requestID, itemID, sellerID, reviewer string
	var quality, delivery, value int16

	err := row.Scan(&requestID, &itemID, &sellerID, &reviewer, &quality, &delivery, &value, &review.Comment, &review.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("review: %w", sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("scan review: %w", err)
	}

	review.RequestID = id.RequestID(requestID)
	review.ItemID = id.ItemID(itemID)
	review.SellerID = id.SellerID(sellerID)
	review.Reviewer = id.AgentID(reviewer)
	review.Quality = ledger.Rating(quality)
	review.Delivery = ledger.Rating(delivery)
	review.Value = ledger.Rating(value)
	return &review, nil
}

func nullableTime(valid bool, t any) any {
	if valid {
		return t
	}
	return nil
}
