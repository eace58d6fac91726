package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/cleared-dev/reconcile/internal/model"
)

// DB is a gorm-backed Store.
type DB struct {
	db *gorm.DB
}

// Open connects to driver ("sqlite" or "postgres") and migrates the schema.
func Open(driver, dsn string) (*DB, error) {
	var dialector gorm.Dialector
	switch strings.ToLower(driver) {
	case "", "sqlite":
		dialector = sqlite.Open(dsn)
	case "postgres":
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	if err := db.AutoMigrate(&transactionRow{}, &candidateRow{}, &partyRow{}); err != nil {
		return nil, fmt.Errorf("migrating schema: %w", err)
	}
	return &DB{db: db}, nil
}

// Close releases the underlying connection pool.
func (d *DB) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Transact runs fn inside a database transaction.
func (d *DB) Transact(ctx context.Context, fn func(Store) error) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&DB{db: tx})
	})
}

func (d *DB) Transaction(ctx context.Context, id int) (model.ImportedTransaction, error) {
	var row transactionRow
	err := d.db.WithContext(ctx).First(&row, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.ImportedTransaction{}, fmt.Errorf("transaction %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return model.ImportedTransaction{}, fmt.Errorf("loading transaction %d: %w", id, err)
	}
	return row.toModel(), nil
}

func (d *DB) SaveTransaction(ctx context.Context, txn *model.ImportedTransaction) error {
	row := toTransactionRow(txn)
	db := d.db.WithContext(ctx)
	if txn.ID == 0 {
		if err := db.Create(&row).Error; err != nil {
			return fmt.Errorf("creating transaction: %w", err)
		}
		txn.ID = row.ID
		txn.Status = model.Status(row.Status)
		return nil
	}

	res := db.Model(&row).Select("*").Omit("created_at").Updates(&row)
	if res.Error != nil {
		return fmt.Errorf("saving transaction %d: %w", txn.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("saving transaction %d: %w", txn.ID, ErrNotFound)
	}
	return nil
}

func (d *DB) TransactionsByLedger(ctx context.Context, ref model.LedgerRef) ([]model.ImportedTransaction, error) {
	var rows []transactionRow
	err := d.db.WithContext(ctx).
		Where("ledger_type = ? AND ledger_number = ?", int(ref.Type), ref.Number).
		Where("status <> ?", string(model.StatusUnprocessed)).
		Order("id").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("finding transactions of %s: %w", ref, err)
	}
	return toModels(rows), nil
}

func (d *DB) TransactionsOn(ctx context.Context, valueDate time.Time) ([]model.ImportedTransaction, error) {
	start, end := dayBounds(valueDate)
	var rows []transactionRow
	err := d.db.WithContext(ctx).
		Where("value_date >= ? AND value_date < ?", start, end).
		Order("id").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("finding transactions on %s: %w", valueDate.Format(time.DateOnly), err)
	}
	return toModels(rows), nil
}

func (d *DB) ListTransactions(ctx context.Context, f Filter) ([]model.ImportedTransaction, error) {
	q := d.db.WithContext(ctx).Model(&transactionRow{})
	if f.Status != "" {
		q = q.Where("status = ?", string(f.Status))
	}
	if f.BankAccountID != 0 {
		q = q.Where("bank_account_id = ?", f.BankAccountID)
	}
	if f.StatementRef != "" {
		q = q.Where("statement_ref = ?", f.StatementRef)
	}
	if f.Offset > 0 {
		q = q.Offset(f.Offset)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	var rows []transactionRow
	if err := q.Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("listing transactions: %w", err)
	}
	return toModels(rows), nil
}

func (d *DB) CreateParty(ctx context.Context, p *model.Party) error {
	row := partyRow{Kind: string(p.Kind), Name: p.Name, Account: p.Account}
	if err := d.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("creating %s %q: %w", p.Kind, p.Name, err)
	}
	p.ID = row.ID
	return nil
}

func (d *DB) Parties(ctx context.Context, kind model.PartyKind) ([]model.Party, error) {
	var rows []partyRow
	if err := d.db.WithContext(ctx).Where("kind = ?", string(kind)).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("listing %s parties: %w", kind, err)
	}
	out := make([]model.Party, len(rows))
	for i, r := range rows {
		out[i] = r.toModel()
	}
	return out, nil
}

func (d *DB) ReplaceCandidates(ctx context.Context, txnID int, cs []model.MatchCandidate) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("transaction_id = ?", txnID).Delete(&candidateRow{}).Error; err != nil {
			return fmt.Errorf("clearing candidates of %d: %w", txnID, err)
		}
		if len(cs) == 0 {
			return nil
		}
		rows := make([]candidateRow, len(cs))
		for i, c := range cs {
			rows[i] = toCandidateRow(txnID, i, c)
		}
		if err := tx.Create(&rows).Error; err != nil {
			return fmt.Errorf("storing candidates of %d: %w", txnID, err)
		}
		return nil
	})
}

func (d *DB) Candidates(ctx context.Context, txnID int) ([]model.MatchCandidate, error) {
	var rows []candidateRow
	if err := d.db.WithContext(ctx).Where("transaction_id = ?", txnID).Order("position").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("loading candidates of %d: %w", txnID, err)
	}
	out := make([]model.MatchCandidate, len(rows))
	for i, r := range rows {
		out[i] = r.toModel()
	}
	return out, nil
}

func toModels(rows []transactionRow) []model.ImportedTransaction {
	out := make([]model.ImportedTransaction, len(rows))
	for i, r := range rows {
		out[i] = r.toModel()
	}
	return out
}

var _ Store = (*DB)(nil)
