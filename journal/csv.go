package journal

import (
	"encoding/csv"
	"fmt"
	"os"
	"time"
)

var csvHeader = []string{"run_id", "order_id", "symbol", "side", "price", "size", "mirror_id", "mirror_side", "mirror_price", "time"}

// CSVJournal appends fills to a CSV file. The header is written only when
// the file is new, so restarts keep extending the same journal.
type CSVJournal struct {
	w *csv.Writer
	f *os.File
}

func NewCSV(path string) (*CSVJournal, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(csvHeader); err != nil {
			f.Close()
			return nil, err
		}
		w.Flush()
		if err := w.Error(); err != nil {
			f.Close()
			return nil, err
		}
	}

	return &CSVJournal{w: w, f: f}, nil
}

func (j *CSVJournal) RecordFill(r FillRecord) error {
	err := j.w.Write([]string{
		r.RunID,
		r.OrderID,
		r.Symbol,
		string(r.Side),
		r.Price.String(),
		r.Size.String(),
		r.MirrorID,
		string(r.MirrorSide()),
		r.MirrorPrice.String(),
		r.Time.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("write fill: %w", err)
	}
	j.w.Flush()
	return j.w.Error()
}

func (j *CSVJournal) Close() error {
	j.w.Flush()
	if err := j.w.Error(); err != nil {
		j.f.Close()
		return err
	}
	return j.f.Close()
}
