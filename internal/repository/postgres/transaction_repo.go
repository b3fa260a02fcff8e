package postgres

import (
	"context"
	"errors"
	"fmt"

	"referral-backend/internal/domain"
	"referral-backend/pkg/database"

	"github.com/jackc/pgx/v5"
)

type transactionRepo struct {
	db database.DB
}

func NewTransactionRepository(db database.DB) domain.TransactionRepository {
	return &transactionRepo{db: db}
}

func (r *transactionRepo) Create(ctx context.Context, txn *domain.Transaction) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO transactions (user_id, plan_id, amount, tokens_added, status, provider_order_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`,
		txn.UserID, txn.PlanID, txn.Amount, txn.TokensAdded, txn.Status, txn.ProviderOrderID, txn.CreatedAt, txn.UpdatedAt,
	).Scan(&txn.ID)
	if database.IsUniqueViolation(err, "") {
		return fmt.Errorf("order %s already recorded: %w", txn.ProviderOrderID, err)
	}
	return err
}

// CompleteAndCredit locks the transaction row so concurrent verifications of
// the same order serialize; only the first one credits.
func (r *transactionRepo) CompleteAndCredit(ctx context.Context, orderID, paymentID string) (*domain.CreditResult, error) {
	result := &domain.CreditResult{}
	err := database.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		var (
			id     int64
			status domain.TransactionStatus
		)
		err := tx.QueryRow(ctx, `
			SELECT id, user_id, tokens_added, status
			FROM transactions
			WHERE provider_order_id = $1
			FOR UPDATE`, orderID).Scan(&id, &result.UserID, &result.TokensAdded, &status)
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("lock transaction: %w", err)
		}

		if status == domain.TransactionStatusSuccess {
			result.AlreadyProcessed = true
			return tx.QueryRow(ctx, `SELECT token_balance FROM profiles WHERE id = $1`, result.UserID).
				Scan(&result.TokenBalance)
		}

		if _, err := tx.Exec(ctx, `
			UPDATE transactions
			SET status = $2, provider_payment_id = $3, updated_at = NOW()
			WHERE id = $1`, id, domain.TransactionStatusSuccess, paymentID); err != nil {
			return fmt.Errorf("complete transaction: %w", err)
		}

		err = tx.QueryRow(ctx, `
			UPDATE profiles
			SET token_balance = COALESCE(token_balance, 0) + $2, updated_at = NOW()
			WHERE id = $1
			RETURNING token_balance`, result.UserID, result.TokensAdded).Scan(&result.TokenBalance)
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("credit tokens: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (r *transactionRepo) List(ctx context.Context) ([]domain.Transaction, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, plan_id, amount, tokens_added, status, provider_order_id, provider_payment_id,
		       created_at, updated_at
		FROM transactions
		ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	txns := []domain.Transaction{}
	for rows.Next() {
		var t domain.Transaction
		if err := rows.Scan(&t.ID, &t.UserID, &t.PlanID, &t.Amount, &t.TokensAdded, &t.Status, &t.ProviderOrderID,
			&t.ProviderPaymentID, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		txns = append(txns, t)
	}
	return txns, rows.Err()
}
