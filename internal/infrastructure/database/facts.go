package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"spacyboard/internal/domain/entities"
	"spacyboard/internal/infrastructure/wire"
)

// DefaultChannel is the channel the board_facts trigger notifies on.
const DefaultChannel = "board_facts"

// StoredFact is one row of the fact log.
type StoredFact struct {
	ID       int64  `db:"id"`
	Envelope []byte `db:"envelope"`
}

// AppendFact encodes fact and inserts it into the log. The insert trigger
// notifies listeners with the new row id.
func AppendFact(ctx context.Context, db DBTX, fact entities.Fact) (int64, error) {
	envelope, err := wire.Encode(fact)
	if err != nil {
		return 0, fmt.Errorf("append fact: %w", err)
	}
	var id int64
	err = db.QueryRow(ctx,
		`INSERT INTO board_facts (fact_type, envelope) VALUES ($1, $2) RETURNING id`,
		string(fact.Type()), envelope,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("append fact: %w", err)
	}
	return id, nil
}

// FactByID returns the envelope stored under id.
func FactByID(ctx context.Context, db DBTX, id int64) (StoredFact, error) {
	rows, err := db.Query(ctx, `SELECT id, envelope FROM board_facts WHERE id = $1`, id)
	if err != nil {
		return StoredFact{}, fmt.Errorf("fact %d: %w", id, err)
	}
	fact, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[StoredFact])
	if err != nil {
		return StoredFact{}, fmt.Errorf("fact %d: %w", id, err)
	}
	return fact, nil
}

// FactsSince returns the facts logged after id, oldest first.
func FactsSince(ctx context.Context, db DBTX, after int64) ([]StoredFact, error) {
	rows, err := db.Query(ctx, `SELECT id, envelope FROM board_facts WHERE id > $1 ORDER BY id`, after)
	if err != nil {
		return nil, fmt.Errorf("facts since %d: %w", after, err)
	}
	facts, err := pgx.CollectRows(rows, pgx.RowToStructByName[StoredFact])
	if err != nil {
		return nil, fmt.Errorf("facts since %d: %w", after, err)
	}
	return facts, nil
}
