package repositories

import (
	"context"
	"errors"
	"fmt"

	"affiliatehub/internal/adapters/persistence/models"
	"affiliatehub/internal/core/domain"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// withdrawalRepository implements WithdrawalRepository interface
type withdrawalRepository struct {
	db *gorm.DB
}

// NewWithdrawalRepository creates a new withdrawal repository
func NewWithdrawalRepository(db *gorm.DB) WithdrawalRepository {
	return &withdrawalRepository{db: db}
}

// NULL columns read as zero
type balanceRow struct {
	AvailableBalance decimal.NullDecimal
	TotalEarnings    decimal.NullDecimal
	TotalWithdrawn   decimal.NullDecimal
}

type receiptRow struct {
	WithdrawalID string
	Amount       decimal.NullDecimal
	Status       string
	Message      string
}

// procedureCall renders a stored procedure invocation for the connected dialect.
// MySQL procedures are CALLed, Postgres functions are SELECTed from.
func procedureCall(db *gorm.DB, name string, args int) string {
	placeholders := ""
	for i := 0; i < args; i++ {
		if i > 0 {
			placeholders += ", "
		}
		placeholders += "?"
	}
	if db.Dialector.Name() == "postgres" {
		return fmt.Sprintf("SELECT * FROM %s(%s)", name, placeholders)
	}
	return fmt.Sprintf("CALL %s(%s)", name, placeholders)
}

// GetBalance calls get_affiliate_balance(user_id)
func (r *withdrawalRepository) GetBalance(ctx context.Context, userID string) (*domain.Balance, error) {
	var row balanceRow
	err := r.db.WithContext(ctx).
		Raw(procedureCall(r.db, "get_affiliate_balance", 1), userID).
		Scan(&row).Error
	if err != nil {
		return nil, err
	}
	return &domain.Balance{
		AvailableBalance: row.AvailableBalance.Decimal,
		TotalEarnings:    row.TotalEarnings.Decimal,
		TotalWithdrawn:   row.TotalWithdrawn.Decimal,
	}, nil
}

// RequestWithdrawal calls request_withdrawal(user_id, amount, pix_key).
// Business rule failures raised by the procedure come back wrapped in
// ErrWithdrawalRejected; any other error is returned as is.
func (r *withdrawalRepository) RequestWithdrawal(ctx context.Context, userID string, input domain.WithdrawalRequest) (*domain.WithdrawalReceipt, error) {
	var row receiptRow
	err := r.db.WithContext(ctx).
		Raw(procedureCall(r.db, "request_withdrawal", 3), userID, input.Amount, input.PixKey).
		Scan(&row).Error
	if err != nil {
		if msg, ok := procedureRejection(err); ok {
			return nil, fmt.Errorf("%w: %s", domain.ErrWithdrawalRejected, msg)
		}
		return nil, err
	}
	return &domain.WithdrawalReceipt{
		WithdrawalID: row.WithdrawalID,
		Amount:       row.Amount.Decimal,
		Status:       row.Status,
		Message:      row.Message,
	}, nil
}

// procedureRejection reports whether err was raised by a SIGNAL (MySQL
// SQLSTATE 45000) or RAISE EXCEPTION (Postgres P0001) inside a procedure.
func procedureRejection(err error) (string, bool) {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && string(myErr.SQLState[:]) == "45000" {
		return myErr.Message, true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "P0001" {
		return pgErr.Message, true
	}
	return "", false
}

// ListByUserID lists one page of withdrawals for a user, newest first, with the total count
func (r *withdrawalRepository) ListByUserID(ctx context.Context, userID string, limit, offset int) ([]*models.Withdrawal, int64, error) {
	var withdrawals []*models.Withdrawal
	var total int64

	if err := r.db.WithContext(ctx).Model(&models.Withdrawal{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&withdrawals).Error
	return withdrawals, total, err
}
