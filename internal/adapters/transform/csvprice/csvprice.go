// Package csvprice implements a CSV price list transformation delegate
//
// It expects a header row containing sku, winery and price columns (any
// order, extra columns tolerated) and upserts the catalog tables through
// whatever storage handle the orchestrator hands it. Metrics are reported
// under the delegate's own field names.
package csvprice

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"cellarbook/internal/core/supplier"
	perr "cellarbook/internal/platform/errors"
	"cellarbook/internal/platform/logger"
	"cellarbook/internal/platform/store"
	"cellarbook/internal/services/importer/domain"
)

// Options configures the transformer
type Options struct {
	Log logger.Logger

	// Comma overrides the field delimiter, zero means ','
	Comma rune
}

// Transformer upserts wines and price offers from a CSV price list
type Transformer struct {
	log   logger.Logger
	comma rune
}

// New constructs a Transformer
func New(opts Options) *Transformer {
	comma := opts.Comma
	if comma == 0 {
		comma = ','
	}
	return &Transformer{log: opts.Log, comma: comma}
}

// Transform implements the delegate contract
func (t *Transformer) Transform(
	ctx context.Context,
	q store.RowQuerier,
	req domain.TransformRequest,
) (domain.RawMetrics, error) {
	f, err := os.Open(req.FilePath)
	if err != nil {
		return nil, perr.Wrapf(err, perr.CodeOf(err), "open price list %s", req.FilePath)
	}
	defer func() { _ = f.Close() }()

	rd := csv.NewReader(f)
	rd.Comma = t.comma
	rd.FieldsPerRecord = -1
	rd.TrimLeadingSpace = true

	header, err := rd.Read()
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeTransform, "read header of %s", req.FilePath)
	}
	cols, err := locate(header)
	if err != nil {
		return nil, err
	}

	supp := supplier.Key(req.Supplier)

	var rows, skipped, newSKUs, updatedSKUs, newWineries, quarantined int64
	seen := map[string]bool{}       // skus already handled in this file
	wineries := map[string]string{} // winery name -> id

	for {
		rec, err := rd.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, perr.Wrapf(err, perr.ErrorCodeTransform, "read %s", req.FilePath)
		}
		rows++

		sku := field(rec, cols.sku)
		winery := field(rec, cols.winery)
		cents, priceOK := parsePrice(field(rec, cols.price))
		if sku == "" || winery == "" || !priceOK {
			quarantined++
			continue
		}
		if seen[sku] {
			skipped++
			continue
		}
		seen[sku] = true

		wineryID, ok := wineries[winery]
		if !ok {
			var created bool
			wineryID, created, err = t.upsertWinery(ctx, q, winery)
			if err != nil {
				return nil, err
			}
			if created {
				newWineries++
			}
			wineries[winery] = wineryID
		}

		wineID, created, err := t.upsertWine(ctx, q, supp, sku, wineryID)
		if err != nil {
			return nil, err
		}
		if created {
			newSKUs++
		} else {
			updatedSKUs++
		}

		if err := t.upsertOffer(ctx, q, wineID, supp, req, cents); err != nil {
			return nil, err
		}
	}

	t.log.Debug().
		Str("run_id", req.RunID).
		Int64("rows", rows).
		Int64("quarantined", quarantined).
		Msg("price list transformed")

	return domain.RawMetrics{
		"rows":         rows,
		"skipped":      skipped,
		"new_skus":     newSKUs,
		"updated_skus": updatedSKUs,
		"new_wineries": newWineries,
		"quarantined":  quarantined,
	}, nil
}

func (t *Transformer) upsertWinery(
	ctx context.Context,
	q store.RowQuerier,
	name string,
) (id string, created bool, err error) {
	tag, err := q.Exec(ctx, `
		INSERT INTO wineries (winery_id, name)
		VALUES ($1, $2)
		ON CONFLICT (name) DO NOTHING
	`, uuid.NewString(), name)
	if err != nil {
		return "", false, perr.FromPostgresf(err, "upsert winery %q", name)
	}
	created = tag.RowsAffected() == 1

	err = q.QueryRow(ctx, `SELECT winery_id::text FROM wineries WHERE name = $1`, name).Scan(&id)
	if err != nil {
		return "", false, perr.FromPostgresf(err, "lookup winery %q", name)
	}
	return id, created, nil
}

func (t *Transformer) upsertWine(
	ctx context.Context,
	q store.RowQuerier,
	supp, sku, wineryID string,
) (id string, created bool, err error) {
	// xmax = 0 distinguishes a fresh insert from a conflict update
	err = q.QueryRow(ctx, `
		INSERT INTO wines (wine_id, supplier, sku, winery_id)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (supplier, sku) DO UPDATE
		SET winery_id = EXCLUDED.winery_id, updated_at = now()
		RETURNING wine_id::text, (xmax = 0)
	`, uuid.NewString(), supp, sku, wineryID).Scan(&id, &created)
	if err != nil {
		return "", false, perr.FromPostgresf(err, "upsert wine %q", sku)
	}
	return id, created, nil
}

func (t *Transformer) upsertOffer(
	ctx context.Context,
	q store.RowQuerier,
	wineID, supp string,
	req domain.TransformRequest,
	cents int64,
) error {
	_, err := q.Exec(ctx, `
		INSERT INTO price_offers (offer_id, wine_id, supplier, as_of_date, price_cents, run_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (wine_id, supplier, as_of_date) DO UPDATE
		SET price_cents = EXCLUDED.price_cents, run_id = EXCLUDED.run_id
	`, uuid.NewString(), wineID, supp, req.AsOfDate, cents, req.RunID)
	if err != nil {
		return perr.FromPostgresf(err, "upsert offer for wine %s", wineID)
	}
	return nil
}

type colIdx struct{ sku, winery, price int }

func locate(header []string) (colIdx, error) {
	idx := colIdx{sku: -1, winery: -1, price: -1}
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "sku":
			idx.sku = i
		case "winery":
			idx.winery = i
		case "price":
			idx.price = i
		}
	}
	if idx.sku < 0 || idx.winery < 0 || idx.price < 0 {
		return idx, perr.InvalidArgf("price list needs sku, winery and price columns")
	}
	return idx, nil
}

func field(rec []string, i int) string {
	if i < 0 || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

// parsePrice accepts plain decimals with optional currency noise ("$1,234.50")
// and converts to integer cents; negatives and garbage quarantine the row
func parsePrice(s string) (int64, bool) {
	s = strings.TrimSpace(strings.TrimPrefix(s, "$"))
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	return int64(math.Round(f * 100)), true
}
