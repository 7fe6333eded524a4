package export

import (
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/tealeg/xlsx"

	"warungmadura/internal/domain"
)

const (
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	Filename    = "products.xlsx"
)

var productHeaders = []string{
	"ID", "Name", "Slug", "Category", "Price", "Stock", "Dosage", "Popular", "CreatedAt", "UpdatedAt",
}

// WriteProducts выгружает товары в лист "Products"; categories сопоставляет id категории с названием
func WriteProducts(w io.Writer, products []domain.Product, categories map[uuid.UUID]string) error {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Products")
	if err != nil {
		return fmt.Errorf("add sheet: %w", err)
	}

	header := sheet.AddRow()
	for _, h := range productHeaders {
		header.AddCell().SetString(h)
	}

	for _, p := range products {
		row := sheet.AddRow()
		row.AddCell().SetString(p.ID.String())
		row.AddCell().SetString(p.Name)
		row.AddCell().SetString(p.Slug)
		category := ""
		if p.CategoryID != nil {
			category = categories[*p.CategoryID]
		}
		row.AddCell().SetString(category)
		row.AddCell().SetString(p.Price.String())
		row.AddCell().SetInt64(p.Stock)
		row.AddCell().SetString(p.Dosage)
		row.AddCell().SetBool(p.IsPopular)
		row.AddCell().SetString(p.CreatedAt.UTC().Format("2006-01-02 15:04:05"))
		row.AddCell().SetString(p.UpdatedAt.UTC().Format("2006-01-02 15:04:05"))
	}

	if err := file.Write(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}
