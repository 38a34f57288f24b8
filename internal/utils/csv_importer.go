package utils

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/printhub/printhub-backend/internal/models"
	"github.com/printhub/printhub-backend/internal/repositories"
)

// ImportResult summarises a CSV import run
type ImportResult struct {
	TotalRows int      `json:"totalRows"`
	Created   int      `json:"created"`
	Updated   int      `json:"updated"`
	Errors    []string `json:"errors"`
}

// ProductCSVImporter upserts products from a CSV catalog, matching on name
type ProductCSVImporter struct {
	productRepo repositories.ProductRepository
}

// NewProductCSVImporter creates a new ProductCSVImporter
func NewProductCSVImporter(productRepo repositories.ProductRepository) *ProductCSVImporter {
	return &ProductCSVImporter{productRepo: productRepo}
}

// Import reads a header row followed by product rows
func (i *ProductCSVImporter) Import(ctx context.Context, r io.Reader) (*ImportResult, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	nameIdx := findColumnIndex(header, []string{"Name", "Product", "Product Name"})
	descIdx := findColumnIndex(header, []string{"Description", "Details"})
	qtyIdx := findColumnIndex(header, []string{"Quantity", "Stock", "Qty"})
	priceIdx := findColumnIndex(header, []string{"Price", "Unit Price", "Rate"})

	if nameIdx == -1 || priceIdx == -1 {
		return nil, errors.New("name and price columns are required")
	}

	result := &ImportResult{Errors: []string{}}
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		result.TotalRows++
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", result.TotalRows, err))
			continue
		}

		product, err := parseProductRow(row, nameIdx, descIdx, qtyIdx, priceIdx)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", result.TotalRows, err))
			continue
		}

		existing, err := i.productRepo.FindByName(ctx, product.Name)
		switch {
		case err == nil:
			existing.Description = product.Description
			existing.Quantity = product.Quantity
			existing.Price = product.Price
			if err := i.productRepo.Update(ctx, existing); err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("row %d: failed to update product: %v", result.TotalRows, err))
				continue
			}
			result.Updated++
		case errors.Is(err, repositories.ErrNotFound):
			if err := i.productRepo.Create(ctx, product); err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("row %d: failed to create product: %v", result.TotalRows, err))
				continue
			}
			result.Created++
		default:
			return result, fmt.Errorf("row %d: %w", result.TotalRows, err)
		}
	}

	return result, nil
}

func parseProductRow(row []string, nameIdx, descIdx, qtyIdx, priceIdx int) (*models.Product, error) {
	cell := func(idx int) string {
		if idx < 0 || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	name := cell(nameIdx)
	if name == "" {
		return nil, errors.New("missing name")
	}

	price, err := strconv.ParseFloat(cell(priceIdx), 64)
	if err != nil || price <= 0 {
		return nil, fmt.Errorf("invalid price %q", cell(priceIdx))
	}

	quantity := 0
	if q := cell(qtyIdx); q != "" {
		quantity, err = strconv.Atoi(q)
		if err != nil || quantity < 0 {
			return nil, fmt.Errorf("invalid quantity %q", q)
		}
	}

	return &models.Product{
		Name:        name,
		Description: cell(descIdx),
		Quantity:    quantity,
		Price:       price,
	}, nil
}

// findColumnIndex returns the index of the first header matching any of the names, case-insensitively
func findColumnIndex(header []string, possibleNames []string) int {
	for i, column := range header {
		for _, name := range possibleNames {
			if strings.EqualFold(strings.TrimSpace(column), name) {
				return i
			}
		}
	}
	return -1
}
