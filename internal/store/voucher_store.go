package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"hotspotcli/pkg/contracts/domain"
)

const voucherColumns = `id, account_id, batch_name, kind, duration_seconds, data_limit_mb,
	price, description, username, password, status, created_at, activated_at, data_used_mb`

// InsertVoucherBatch persists a batch of vouchers in one transaction. Either
// every voucher is written or none are; a username collision rolls the whole
// batch back.
func (s *Store) InsertVoucherBatch(ctx context.Context, vouchers []domain.Voucher) error {
	if len(vouchers) == 0 {
		return nil
	}

	tx, err := s.db.Writer.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin batch insert: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO vouchers (`+voucherColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare batch insert: %w", err)
	}
	defer stmt.Close()

	for i := range vouchers {
		v := &vouchers[i]
		var activatedAt interface{}
		if v.ActivatedAt != nil {
			activatedAt = v.ActivatedAt.UTC()
		}
		if _, err := stmt.ExecContext(ctx,
			v.ID, v.AccountID, v.BatchName, string(v.Kind), v.DurationSeconds, v.DataLimitMB,
			v.Price, v.Description, v.Username, v.Password, string(v.Status),
			v.CreatedAt.UTC(), activatedAt, v.DataUsedMB,
		); err != nil {
			if strings.Contains(err.Error(), "UNIQUE constraint failed") {
				return fmt.Errorf("username %s already exists for account %s: %w", v.Username, v.AccountID, err)
			}
			return fmt.Errorf("insert voucher %s: %w", v.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit batch insert: %w", err)
	}
	return nil
}

// GetVoucher returns one voucher by id
func (s *Store) GetVoucher(ctx context.Context, id string) (*domain.Voucher, error) {
	row := s.db.Reader.QueryRowContext(ctx,
		`SELECT `+voucherColumns+` FROM vouchers WHERE id = ?`, id)
	v, err := scanVoucher(row)
	if err != nil {
		return nil, notFound(err, "voucher", id)
	}
	return v, nil
}

// ListVouchers returns vouchers matching the filter, newest first. Status
// filtering here is on the stored status only; time-based expiry is the
// caller's concern.
func (s *Store) ListVouchers(ctx context.Context, filter domain.VoucherFilter) ([]domain.Voucher, error) {
	query := `SELECT ` + voucherColumns + ` FROM vouchers WHERE 1=1`
	var args []interface{}

	if filter.AccountID != "" {
		query += ` AND account_id = ?`
		args = append(args, filter.AccountID)
	}
	if filter.Kind != "" {
		query += ` AND kind = ?`
		args = append(args, string(filter.Kind))
	}
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY created_at DESC, id`

	rows, err := s.db.Reader.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list vouchers: %w", err)
	}
	defer rows.Close()

	var vouchers []domain.Voucher
	for rows.Next() {
		v, err := scanVoucher(rows)
		if err != nil {
			return nil, fmt.Errorf("scan voucher: %w", err)
		}
		vouchers = append(vouchers, *v)
	}
	return vouchers, rows.Err()
}

// TransitionVoucher moves a voucher to the target status only when its stored
// status is one of from. The guard and the write are a single UPDATE, so
// concurrent transitions cannot both succeed.
func (s *Store) TransitionVoucher(ctx context.Context, id string, from []domain.VoucherStatus, to domain.VoucherStatus) (bool, error) {
	placeholders := make([]string, len(from))
	args := []interface{}{string(to), id}
	for i, st := range from {
		placeholders[i] = "?"
		args = append(args, string(st))
	}

	result, err := s.db.Writer.ExecContext(ctx,
		`UPDATE vouchers SET status = ? WHERE id = ? AND status IN (`+strings.Join(placeholders, ", ")+`)`,
		args...,
	)
	if err != nil {
		return false, fmt.Errorf("transition voucher %s: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("transition voucher %s: %w", id, err)
	}
	return affected > 0, nil
}

// MarkActivated sets the activation instant once. A voucher already activated
// keeps its original instant; the call is then a no-op.
func (s *Store) MarkActivated(ctx context.Context, id string, at time.Time) error {
	_, err := s.db.Writer.ExecContext(ctx,
		`UPDATE vouchers SET activated_at = ? WHERE id = ? AND activated_at IS NULL`,
		at.UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("mark voucher %s activated: %w", id, err)
	}
	return nil
}

// AddUsage atomically accumulates data usage and returns the updated row. The
// accumulation happens in SQL so concurrent samples never lose updates.
func (s *Store) AddUsage(ctx context.Context, id string, usedMB int64) (*domain.Voucher, error) {
	result, err := s.db.Writer.ExecContext(ctx,
		`UPDATE vouchers SET data_used_mb = data_used_mb + ? WHERE id = ?`,
		usedMB, id,
	)
	if err != nil {
		return nil, fmt.Errorf("add usage to voucher %s: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("add usage to voucher %s: %w", id, err)
	}
	if affected == 0 {
		return nil, notFound(sql.ErrNoRows, "voucher", id)
	}
	return s.GetVoucher(ctx, id)
}

// ExpireDueTimeVouchers transitions every active time voucher whose
// entitlement has elapsed, returning the affected ids. Candidates are
// evaluated in Go with the same arithmetic the lazy read path uses, so the
// sweep and reads can never disagree.
func (s *Store) ExpireDueTimeVouchers(ctx context.Context, now time.Time) ([]string, error) {
	tx, err := s.db.Writer.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin expiry sweep: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, `
		SELECT id, activated_at, duration_seconds FROM vouchers
		WHERE status = ? AND kind = ? AND activated_at IS NOT NULL`,
		string(domain.VoucherStatusActive), string(domain.VoucherKindTime),
	)
	if err != nil {
		return nil, fmt.Errorf("query expiry candidates: %w", err)
	}

	var due []string
	for rows.Next() {
		var id string
		var activatedAt time.Time
		var durationSeconds int64
		if err := rows.Scan(&id, &activatedAt, &durationSeconds); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan expiry candidate: %w", err)
		}
		if !now.Before(activatedAt.Add(time.Duration(durationSeconds) * time.Second)) {
			due = append(due, id)
		}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterate expiry candidates: %w", err)
	}
	rows.Close()

	for _, id := range due {
		if _, err := tx.ExecContext(ctx,
			`UPDATE vouchers SET status = ? WHERE id = ? AND status = ?`,
			string(domain.VoucherStatusExpired), id, string(domain.VoucherStatusActive),
		); err != nil {
			return nil, fmt.Errorf("expire voucher %s: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit expiry sweep: %w", err)
	}
	return due, nil
}

// scanVoucher reads one voucher row
func scanVoucher(row rowScanner) (*domain.Voucher, error) {
	var v domain.Voucher
	var kind, status string
	var activatedAt sql.NullTime

	err := row.Scan(
		&v.ID, &v.AccountID, &v.BatchName, &kind, &v.DurationSeconds, &v.DataLimitMB,
		&v.Price, &v.Description, &v.Username, &v.Password, &status,
		&v.CreatedAt, &activatedAt, &v.DataUsedMB,
	)
	if err != nil {
		return nil, err
	}

	v.Kind = domain.VoucherKind(kind)
	v.Status = domain.VoucherStatus(status)
	if activatedAt.Valid {
		at := activatedAt.Time
		v.ActivatedAt = &at
	}
	return &v, nil
}
