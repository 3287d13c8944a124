package movements

import (
	"errors"
	"fmt"
	"strings"

	"github.com/andresuchdata/budget-engine/backend-go/internal/domain"
)

type column int

const (
	colDate column = iota
	colStore
	colCode
	colDescription
	colType
	colQuantity
	colCost
	colUnitPrice
	colLineTotal
	colSupplier
	colDestination
	colDocument
	numColumns
)

// Header names are compared after domain.NormalizeLabel.
var columnAliases = map[column][]string{
	colDate:        {"fecha", "date", "movement_date"},
	colStore:       {"tienda", "store", "sucursal"},
	colCode:        {"codigo", "code", "sku", "product_code"},
	colDescription: {"descripcion", "description", "producto", "nombre"},
	colType:        {"tipo_movimiento", "movement_type", "tipo", "type"},
	colQuantity:    {"cantidad", "quantity", "qty"},
	colCost:        {"costo", "unit_cost", "cost", "costo_unitario"},
	colUnitPrice:   {"precio_unitario", "unit_price", "precio_venta_unitario"},
	colLineTotal:   {"precio_venta", "venta_total", "line_total", "total"},
	colSupplier:    {"proveedor", "supplier"},
	colDestination: {"tienda_destino", "destination_store", "destino"},
	colDocument:    {"numero_documento", "document_number", "documento"},
}

var requiredColumns = []column{colDate, colCode, colType, colQuantity}

var columnNames = map[column]string{
	colDate:     "Fecha",
	colCode:     "Codigo",
	colType:     "Tipo_Movimiento",
	colQuantity: "Cantidad",
}

// columnMap holds the record index of each known column, -1 when absent.
type columnMap [numColumns]int

var errMissingColumns = errors.New("missing required columns")

func mapColumns(header []string) (columnMap, error) {
	var m columnMap
	for i := range m {
		m[i] = -1
	}

	lookup := make(map[string]column)
	for c, names := range columnAliases {
		for _, n := range names {
			lookup[n] = c
		}
	}
	for i, h := range header {
		c, ok := lookup[domain.NormalizeLabel(strings.TrimPrefix(h, "\ufeff"))]
		if ok && m[c] < 0 {
			m[c] = i
		}
	}

	var missing []string
	for _, c := range requiredColumns {
		if m[c] < 0 {
			missing = append(missing, columnNames[c])
		}
	}
	if len(missing) > 0 {
		return m, fmt.Errorf("%w: %s", errMissingColumns, strings.Join(missing, ", "))
	}
	return m, nil
}

type boundRow struct {
	cols   *columnMap
	record []string
}

func (m *columnMap) bind(record []string) boundRow {
	return boundRow{cols: m, record: record}
}

func (r boundRow) has(c column) bool {
	return r.cols[c] >= 0
}

func (r boundRow) get(c column) string {
	idx := r.cols[c]
	if idx < 0 || idx >= len(r.record) {
		return ""
	}
	return strings.TrimSpace(r.record[idx])
}

func (r boundRow) empty() bool {
	for _, v := range r.record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
