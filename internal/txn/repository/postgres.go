package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/kitchenops/inventory-service/internal/model"
	"github.com/kitchenops/inventory-service/internal/store"
	"github.com/kitchenops/inventory-service/internal/txn/dto"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) Create(ctx context.Context, tx *model.InventoryTransaction) error {
	q := store.QuerierFrom(ctx, r.DB)

	headerQuery := `
        INSERT INTO inventory_transactions (id, type, timestamp, user_id, reference, notes)
        VALUES (:id, :type, :timestamp, :user_id, :reference, :notes)
    `
	if _, err := q.NamedExecContext(ctx, headerQuery, tx); err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}

	lineQuery := `
        INSERT INTO transaction_lines (
            id, transaction_id, item_id, quantity,
            source_location_id, destination_location_id, batch_id, unit_cost
        )
        VALUES (
            :id, :transaction_id, :item_id, :quantity,
            :source_location_id, :destination_location_id, :batch_id, :unit_cost
        )
    `
	for i := range tx.Lines {
		if _, err := q.NamedExecContext(ctx, lineQuery, &tx.Lines[i]); err != nil {
			return fmt.Errorf("failed to insert transaction line: %w", err)
		}
	}
	return nil
}

func (r *PGRepository) GetByID(ctx context.Context, id string) (*model.InventoryTransaction, error) {
	q := store.QuerierFrom(ctx, r.DB)

	var tx model.InventoryTransaction
	err := q.GetContext(ctx, &tx, `SELECT * FROM inventory_transactions WHERE id = $1 LIMIT 1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("transaction %s: %w", id, model.ErrNotFound)
		}
		return nil, err
	}

	lines := []model.TransactionLine{}
	err = q.SelectContext(ctx, &lines, `SELECT * FROM transaction_lines WHERE transaction_id = $1 ORDER BY id`, id)
	if err != nil {
		return nil, err
	}
	tx.Lines = lines
	return &tx, nil
}

func (r *PGRepository) Find(ctx context.Context, f *dto.HistoryFilters) ([]model.InventoryTransaction, int, error) {
	q := store.QuerierFrom(ctx, r.DB)

	conditions := []string{}
	args := map[string]interface{}{}

	if f.ItemID != "" {
		conditions = append(conditions, `EXISTS (
            SELECT 1 FROM transaction_lines l
            WHERE l.transaction_id = t.id AND l.item_id = :item_id
        )`)
		args["item_id"] = f.ItemID
	}
	if f.LocationID != "" {
		conditions = append(conditions, `EXISTS (
            SELECT 1 FROM transaction_lines l
            WHERE l.transaction_id = t.id
              AND (l.source_location_id = :location_id OR l.destination_location_id = :location_id)
        )`)
		args["location_id"] = f.LocationID
	}
	if f.Type != "" {
		conditions = append(conditions, "t.type = :type")
		args["type"] = f.Type
	}
	if f.Reference != "" {
		conditions = append(conditions, "t.reference = :reference")
		args["reference"] = f.Reference
	}
	if f.StartDate != nil {
		conditions = append(conditions, "t.timestamp >= :start_date")
		args["start_date"] = *f.StartDate
	}
	if f.EndDate != nil {
		conditions = append(conditions, "t.timestamp < :end_date")
		args["end_date"] = *f.EndDate
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery, countArgs, err := sqlx.Named("SELECT count(*) FROM inventory_transactions t"+whereClause, args)
	if err != nil {
		return nil, 0, err
	}
	countQuery = r.DB.Rebind(countQuery)
	var count int
	if err := q.GetContext(ctx, &count, countQuery, countArgs...); err != nil {
		return nil, 0, err
	}

	query := "SELECT t.* FROM inventory_transactions t" + whereClause + " ORDER BY t.timestamp DESC, t.id DESC"
	if f.PageSize > 0 {
		page := f.Page
		if page < 1 {
			page = 1
		}
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, (page-1)*f.PageSize)
	}

	query, queryArgs, err := sqlx.Named(query, args)
	if err != nil {
		return nil, 0, err
	}
	query = r.DB.Rebind(query)

	transactions := []model.InventoryTransaction{}
	if err := q.SelectContext(ctx, &transactions, query, queryArgs...); err != nil {
		return nil, 0, err
	}
	if len(transactions) == 0 {
		return transactions, count, nil
	}

	ids := make([]string, len(transactions))
	index := make(map[string]int, len(transactions))
	for i, tx := range transactions {
		ids[i] = tx.ID
		index[tx.ID] = i
	}

	lineQuery, lineArgs, err := sqlx.In(`SELECT * FROM transaction_lines WHERE transaction_id IN (?) ORDER BY id`, ids)
	if err != nil {
		return nil, 0, err
	}
	lineQuery = r.DB.Rebind(lineQuery)

	lines := []model.TransactionLine{}
	if err := q.SelectContext(ctx, &lines, lineQuery, lineArgs...); err != nil {
		return nil, 0, err
	}
	for _, line := range lines {
		i := index[line.TransactionID]
		transactions[i].Lines = append(transactions[i].Lines, line)
	}

	return transactions, count, nil
}
