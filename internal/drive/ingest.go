package drive

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/andresuchdata/stockforecast/internal/domain"
	"github.com/andresuchdata/stockforecast/internal/repository"
	"github.com/rs/zerolog/log"
)

// insertBatchSize bounds how many order rows are buffered before being
// flushed in a single transaction.
const insertBatchSize = 500

// IngestService backfills products and their order history from an
// order-export CSV stored on Drive.
type IngestService struct {
	driveService *Service
	products     repository.ProductRepository
	orders       repository.OrderRepository
}

func NewIngestService(driveService *Service, products repository.ProductRepository, orders repository.OrderRepository) *IngestService {
	return &IngestService{
		driveService: driveService,
		products:     products,
		orders:       orders,
	}
}

// IngestReport summarizes one backfill run.
type IngestReport struct {
	Products int `json:"products"`
	Orders   int `json:"orders"`
	Skipped  int `json:"skipped_rows"`
}

// IngestFile downloads the CSV identified by fileID and loads its rows.
// Expected columns: product_name, category, price, stock, quantity,
// status, created_at. Rows for the same product share one catalog entry.
func (s *IngestService) IngestFile(ctx context.Context, fileID string) (*IngestReport, error) {
	pr, pw := io.Pipe()
	go func() {
		err := s.driveService.DownloadFile(ctx, fileID, pw)
		pw.CloseWithError(err)
	}()

	reader := csv.NewReader(pr)

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	colMap := make(map[string]int)
	for i, col := range header {
		colMap[strings.ToLower(strings.TrimSpace(col))] = i
	}

	requiredCols := []string{"product_name", "category", "price", "stock", "quantity", "status", "created_at"}
	for _, col := range requiredCols {
		if _, ok := colMap[col]; !ok {
			return nil, fmt.Errorf("missing required column: %s", col)
		}
	}

	report := &IngestReport{}
	productIDs := make(map[string]int64)
	batch := make([]domain.OrderRecord, 0, insertBatchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := s.orders.InsertOrders(ctx, batch); err != nil {
			return fmt.Errorf("insert orders: %w", err)
		}
		report.Orders += len(batch)
		batch = batch[:0]
		return nil
	}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV record: %w", err)
		}

		order, err := s.processRow(ctx, record, colMap, productIDs, report)
		if err != nil {
			log.Warn().Err(err).Msg("drive ingest: skipping row")
			report.Skipped++
			continue
		}

		batch = append(batch, *order)
		if len(batch) >= insertBatchSize {
			if err := flush(); err != nil {
				return nil, err
			}
		}
	}

	if err := flush(); err != nil {
		return nil, err
	}

	return report, nil
}

func (s *IngestService) processRow(
	ctx context.Context,
	record []string,
	colMap map[string]int,
	productIDs map[string]int64,
	report *IngestReport,
) (*domain.OrderRecord, error) {
	getValue := func(colName string) string {
		if idx, ok := colMap[colName]; ok && idx < len(record) {
			return strings.TrimSpace(record[idx])
		}
		return ""
	}

	getFloat := func(colName string) float64 {
		f, _ := strconv.ParseFloat(getValue(colName), 64)
		return f
	}

	getInt := func(colName string) int {
		// Handle float strings like "3.0"
		f, _ := strconv.ParseFloat(getValue(colName), 64)
		return int(f)
	}

	name := getValue("product_name")
	if name == "" {
		return nil, fmt.Errorf("empty product_name")
	}

	status := strings.ToLower(getValue("status"))
	if !domain.ValidOrderStatus(status) {
		return nil, fmt.Errorf("unknown order status %q", status)
	}

	quantity := getInt("quantity")
	if quantity <= 0 {
		return nil, fmt.Errorf("non-positive quantity %d", quantity)
	}

	createdAt, err := parseTimestamp(getValue("created_at"))
	if err != nil {
		return nil, err
	}

	productID, ok := productIDs[name]
	if !ok {
		productID, err = s.products.UpsertProduct(ctx, &domain.Product{
			Name:     name,
			Category: strings.ToLower(getValue("category")),
			Price:    getFloat("price"),
			Stock:    getInt("stock"),
		})
		if err != nil {
			return nil, fmt.Errorf("upsert product %q: %w", name, err)
		}
		productIDs[name] = productID
		report.Products++
	}

	return &domain.OrderRecord{
		ProductID: productID,
		Quantity:  quantity,
		Status:    status,
		CreatedAt: createdAt,
	}, nil
}

var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseTimestamp(value string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp %q", value)
}
