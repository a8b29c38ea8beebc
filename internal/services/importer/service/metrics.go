package service

import (
	runsdomain "cellarbook/internal/services/runs/domain"

	"cellarbook/internal/services/importer/domain"
)

// metricAliases maps the field names delegates are known to emit onto the
// whitelist; canonical names map to themselves. Anything else is dropped so
// arbitrary delegate output can never corrupt the audit schema
var metricAliases = map[string]string{
	"total_rows_processed": "total_rows_processed",
	"rows":                 "total_rows_processed",
	"rows_skipped":         "rows_skipped",
	"skipped":              "rows_skipped",
	"new_sku_count":        "new_sku_count",
	"new_skus":             "new_sku_count",
	"updated_sku_count":    "updated_sku_count",
	"updated_skus":         "updated_sku_count",
	"new_winery_count":     "new_winery_count",
	"new_wineries":         "new_winery_count",
	"quarantine_count":     "quarantine_count",
	"quarantined":          "quarantine_count",
}

// NormalizeMetrics projects delegate output onto the whitelisted counters
// unknown names and non-numeric values are dropped; fractional values truncate
func NormalizeMetrics(raw domain.RawMetrics) runsdomain.Metrics {
	var m runsdomain.Metrics
	for name, v := range raw {
		canonical, ok := metricAliases[name]
		if !ok {
			continue
		}
		n, ok := asInt64(v)
		if !ok {
			continue
		}
		switch canonical {
		case "total_rows_processed":
			m.TotalRowsProcessed = n
		case "rows_skipped":
			m.RowsSkipped = n
		case "new_sku_count":
			m.NewSKUCount = n
		case "updated_sku_count":
			m.UpdatedSKUCount = n
		case "new_winery_count":
			m.NewWineryCount = n
		case "quarantine_count":
			m.QuarantineCount = n
		}
	}
	return m
}

func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		return int64(n), true
	case float32:
		return int64(n), true
	case float64:
		return int64(n), true
	}
	return 0, false
}
