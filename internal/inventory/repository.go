package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/odyssey-erp/odyssey-books/internal/platform/db"
)

// PGStore persists balances and stock moves in PostgreSQL. It works on a pool
// or inside a transaction.
type PGStore struct {
	q db.DBTX
}

// NewPGStore constructs PGStore.
func NewPGStore(q db.DBTX) *PGStore {
	return &PGStore{q: q}
}

// LockBalance seeds a zero row if needed and locks it for the rest of the transaction.
func (s *PGStore) LockBalance(ctx context.Context, tenantID, productID, variantID int64) (Balance, error) {
	if _, err := s.q.Exec(ctx, `INSERT INTO inventory_balances (tenant_id, product_id, variant_id)
VALUES ($1, $2, $3) ON CONFLICT (tenant_id, product_id, variant_id) DO NOTHING`, tenantID, productID, variantID); err != nil {
		return Balance{}, err
	}
	b := Balance{TenantID: tenantID, ProductID: productID, VariantID: variantID}
	err := s.q.QueryRow(ctx, `SELECT on_hand_qty_base, on_hand_value, avg_cost, updated_at
FROM inventory_balances WHERE tenant_id=$1 AND product_id=$2 AND variant_id=$3 FOR UPDATE`, tenantID, productID, variantID).
		Scan(&b.OnHandQtyBase, &b.OnHandValue, &b.AvgCost, &b.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Balance{}, ErrBalanceNotFound
	}
	return b, err
}

// SaveBalance writes the running totals.
func (s *PGStore) SaveBalance(ctx context.Context, b Balance) error {
	_, err := s.q.Exec(ctx, `UPDATE inventory_balances SET on_hand_qty_base=$4, on_hand_value=$5, avg_cost=$6, updated_at=NOW()
WHERE tenant_id=$1 AND product_id=$2 AND variant_id=$3`,
		b.TenantID, b.ProductID, b.VariantID, b.OnHandQtyBase, b.OnHandValue, b.AvgCost)
	return err
}

// RefreshAvailability copies on-hand quantity to the product (summed over
// variants) and to the variant row when the balance belongs to one.
func (s *PGStore) RefreshAvailability(ctx context.Context, b Balance) error {
	if b.VariantID != 0 {
		if _, err := s.q.Exec(ctx, `UPDATE product_variants SET available_qty=$3, updated_at=NOW()
WHERE tenant_id=$1 AND id=$2`, b.TenantID, b.VariantID, b.OnHandQtyBase); err != nil {
			return err
		}
	}
	_, err := s.q.Exec(ctx, `UPDATE products SET available_qty=(
	SELECT COALESCE(SUM(on_hand_qty_base), 0) FROM inventory_balances WHERE tenant_id=$1 AND product_id=$2
), updated_at=NOW() WHERE tenant_id=$1 AND id=$2`, b.TenantID, b.ProductID)
	return err
}

// ListBalances returns all balances of a tenant, used by the availability resync job.
func (s *PGStore) ListBalances(ctx context.Context, tenantID int64) ([]Balance, error) {
	rows, err := s.q.Query(ctx, `SELECT tenant_id, product_id, variant_id, on_hand_qty_base, on_hand_value, avg_cost, updated_at
FROM inventory_balances WHERE tenant_id=$1 ORDER BY product_id, variant_id`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Balance
	for rows.Next() {
		var b Balance
		if err := rows.Scan(&b.TenantID, &b.ProductID, &b.VariantID, &b.OnHandQtyBase, &b.OnHandValue, &b.AvgCost, &b.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// InsertStockMoves stores moves of one voucher revision and assigns their IDs.
func (s *PGStore) InsertStockMoves(ctx context.Context, moves []StockMove) error {
	for i := range moves {
		m := &moves[i]
		err := s.q.QueryRow(ctx, `INSERT INTO stock_moves
(tenant_id, voucher_id, revision, line_index, product_id, variant_id, direction, quantity_base, valuation, rate, value, cost_rate, cost_value)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
RETURNING id, created_at`,
			m.TenantID, m.VoucherID, m.Revision, m.LineIndex, m.ProductID, m.VariantID, m.Direction, m.QuantityBase,
			m.Valuation, m.Rate, m.Value, m.CostRate, m.CostValue).Scan(&m.ID, &m.CreatedAt)
		if err != nil {
			return err
		}
	}
	return nil
}

// ListActiveStockMoves returns non-voided moves of a voucher in creation order.
func (s *PGStore) ListActiveStockMoves(ctx context.Context, tenantID, voucherID int64) ([]StockMove, error) {
	rows, err := s.q.Query(ctx, `SELECT id, tenant_id, voucher_id, revision, line_index, product_id, variant_id, direction, quantity_base,
	valuation, rate, value, cost_rate, cost_value, is_voided, created_at, voided_at
FROM stock_moves WHERE tenant_id=$1 AND voucher_id=$2 AND NOT is_voided ORDER BY id`, tenantID, voucherID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []StockMove
	for rows.Next() {
		var m StockMove
		if err := rows.Scan(&m.ID, &m.TenantID, &m.VoucherID, &m.Revision, &m.LineIndex, &m.ProductID, &m.VariantID, &m.Direction,
			&m.QuantityBase, &m.Valuation, &m.Rate, &m.Value, &m.CostRate, &m.CostValue, &m.IsVoided, &m.CreatedAt, &m.VoidedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// VoidStockMoves marks every active move of the voucher as voided.
func (s *PGStore) VoidStockMoves(ctx context.Context, tenantID, voucherID int64, at time.Time) error {
	_, err := s.q.Exec(ctx, `UPDATE stock_moves SET is_voided=TRUE, voided_at=$3
WHERE tenant_id=$1 AND voucher_id=$2 AND NOT is_voided`, tenantID, voucherID, at)
	return err
}
