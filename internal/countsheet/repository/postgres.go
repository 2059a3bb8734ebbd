package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/kitchenops/inventory-service/internal/countsheet/dto"
	"github.com/kitchenops/inventory-service/internal/model"
	"github.com/kitchenops/inventory-service/internal/store"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

const insertItemQuery = `
    INSERT INTO count_sheet_items (
        id, sheet_id, item_id, system_quantity,
        counted_quantity, variance_quantity, variance_reason_code, approved
    )
    VALUES (
        :id, :sheet_id, :item_id, :system_quantity,
        :counted_quantity, :variance_quantity, :variance_reason_code, :approved
    )
`

func (r *PGRepository) Create(ctx context.Context, sheet *model.CountSheet) error {
	q := store.QuerierFrom(ctx, r.DB)

	headerQuery := `
        INSERT INTO count_sheets (
            id, location_id, count_date, status, requested_by,
            counted_by, approved_by, approved_at, created_at, updated_at
        )
        VALUES (
            :id, :location_id, :count_date, :status, :requested_by,
            :counted_by, :approved_by, :approved_at, :created_at, :updated_at
        )
    `
	if _, err := q.NamedExecContext(ctx, headerQuery, sheet); err != nil {
		return fmt.Errorf("failed to insert count sheet: %w", err)
	}

	for i := range sheet.Items {
		if _, err := q.NamedExecContext(ctx, insertItemQuery, &sheet.Items[i]); err != nil {
			return fmt.Errorf("failed to insert count sheet item: %w", err)
		}
	}
	return nil
}

func (r *PGRepository) GetByID(ctx context.Context, id string) (*model.CountSheet, error) {
	q := store.QuerierFrom(ctx, r.DB)

	var sheet model.CountSheet
	err := q.GetContext(ctx, &sheet, `SELECT * FROM count_sheets WHERE id = $1 LIMIT 1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("count sheet %s: %w", id, model.ErrNotFound)
		}
		return nil, err
	}

	items := []model.CountSheetItem{}
	err = q.SelectContext(ctx, &items, `SELECT * FROM count_sheet_items WHERE sheet_id = $1 ORDER BY item_id`, id)
	if err != nil {
		return nil, err
	}
	sheet.Items = items
	return &sheet, nil
}

// Update rewrites the header and replaces the item rows; sheets are small
// enough that a delete-and-reinsert beats per-item diffing.
func (r *PGRepository) Update(ctx context.Context, sheet *model.CountSheet) error {
	q := store.QuerierFrom(ctx, r.DB)

	headerQuery := `
        UPDATE count_sheets
        SET status      = :status,
            counted_by  = :counted_by,
            approved_by = :approved_by,
            approved_at = :approved_at,
            updated_at  = :updated_at
        WHERE id = :id
    `
	res, err := q.NamedExecContext(ctx, headerQuery, sheet)
	if err != nil {
		return fmt.Errorf("failed to update count sheet: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("count sheet %s: %w", sheet.ID, model.ErrNotFound)
	}

	if _, err := q.ExecContext(ctx, `DELETE FROM count_sheet_items WHERE sheet_id = $1`, sheet.ID); err != nil {
		return fmt.Errorf("failed to clear count sheet items: %w", err)
	}
	for i := range sheet.Items {
		if _, err := q.NamedExecContext(ctx, insertItemQuery, &sheet.Items[i]); err != nil {
			return fmt.Errorf("failed to insert count sheet item: %w", err)
		}
	}
	return nil
}

func (r *PGRepository) Find(ctx context.Context, f *dto.ListFilters) ([]model.CountSheet, int, error) {
	q := store.QuerierFrom(ctx, r.DB)

	conditions := []string{}
	args := map[string]interface{}{}

	if f.LocationID != "" {
		conditions = append(conditions, "s.location_id = :location_id")
		args["location_id"] = f.LocationID
	}
	if f.Status != "" {
		conditions = append(conditions, "s.status = :status")
		args["status"] = f.Status
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery, countArgs, err := sqlx.Named("SELECT count(*) FROM count_sheets s"+whereClause, args)
	if err != nil {
		return nil, 0, err
	}
	countQuery = r.DB.Rebind(countQuery)
	var count int
	if err := q.GetContext(ctx, &count, countQuery, countArgs...); err != nil {
		return nil, 0, err
	}

	query := "SELECT s.* FROM count_sheets s" + whereClause + " ORDER BY s.count_date DESC, s.id DESC"
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

	sheets := []model.CountSheet{}
	if err := q.SelectContext(ctx, &sheets, query, queryArgs...); err != nil {
		return nil, 0, err
	}
	if len(sheets) == 0 {
		return sheets, count, nil
	}

	ids := make([]string, len(sheets))
	index := make(map[string]int, len(sheets))
	for i, sheet := range sheets {
		ids[i] = sheet.ID
		index[sheet.ID] = i
	}

	itemQuery, itemArgs, err := sqlx.In(`SELECT * FROM count_sheet_items WHERE sheet_id IN (?) ORDER BY item_id`, ids)
	if err != nil {
		return nil, 0, err
	}
	itemQuery = r.DB.Rebind(itemQuery)

	items := []model.CountSheetItem{}
	if err := q.SelectContext(ctx, &items, itemQuery, itemArgs...); err != nil {
		return nil, 0, err
	}
	for _, item := range items {
		i := index[item.SheetID]
		sheets[i].Items = append(sheets[i].Items, item)
	}

	return sheets, count, nil
}
