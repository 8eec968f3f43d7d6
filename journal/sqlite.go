package journal

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rustyeddy/gridbot/exchange"
	"github.com/shopspring/decimal"

	_ "github.com/mattn/go-sqlite3"
)

type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLite{db: db}, nil
}

func (j *SQLite) RecordFill(r FillRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO fills
		(run_id, order_id, symbol, side, price, size, mirror_id, mirror_price, time)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.OrderID, r.Symbol, string(r.Side), r.Price.String(), r.Size.String(),
		r.MirrorID, r.MirrorPrice.String(), r.Time.UTC(),
	)
	return err
}

const fillColumns = `run_id, order_id, symbol, side, price, size, mirror_id, mirror_price, time`

// ListFillsByRun returns the fills of one bot run, oldest first.
func (j *SQLite) ListFillsByRun(runID string) ([]FillRecord, error) {
	return j.query(`SELECT `+fillColumns+` FROM fills WHERE run_id = ? ORDER BY time ASC, id ASC`, runID)
}

// ListFillsBetween returns fills whose time is within [start, end).
func (j *SQLite) ListFillsBetween(start, end time.Time) ([]FillRecord, error) {
	return j.query(`SELECT `+fillColumns+` FROM fills WHERE time >= ? AND time < ? ORDER BY time ASC, id ASC`,
		start.UTC(), end.UTC())
}

func (j *SQLite) query(q string, args ...any) ([]FillRecord, error) {
	rows, err := j.db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []FillRecord
	for rows.Next() {
		var (
			rec                       FillRecord
			side, price, size, mprice string
		)
		if err := rows.Scan(
			&rec.RunID,
			&rec.OrderID,
			&rec.Symbol,
			&side,
			&price,
			&size,
			&rec.MirrorID,
			&mprice,
			&rec.Time,
		); err != nil {
			return nil, err
		}
		if rec.Side, err = exchange.ParseSide(side); err != nil {
			return nil, err
		}
		if rec.Price, err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf("fill %s price: %w", rec.OrderID, err)
		}
		if rec.Size, err = decimal.NewFromString(size); err != nil {
			return nil, fmt.Errorf("fill %s size: %w", rec.OrderID, err)
		}
		if rec.MirrorPrice, err = decimal.NewFromString(mprice); err != nil {
			return nil, fmt.Errorf("fill %s mirror price: %w", rec.OrderID, err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (j *SQLite) Close() error {
	return j.db.Close()
}
