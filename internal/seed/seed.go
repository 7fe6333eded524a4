package seed

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"warungmadura/internal/domain"
	"warungmadura/internal/repository"
	"warungmadura/internal/service"
)

type demoProduct struct {
	name, category, dosage, description string
	price, stock                        int64
	popular                             bool
}

var demoCategories = []domain.Category{
	{Name: "Obat Bebas", Slug: "obat-bebas", Icon: "pill"},
	{Name: "Vitamin & Suplemen", Slug: "vitamin-suplemen", Icon: "leaf"},
	{Name: "Perawatan Luka", Slug: "perawatan-luka", Icon: "bandage"},
	{Name: "Herbal", Slug: "herbal", Icon: "sprout"},
}

var demoProducts = []demoProduct{
	{"Paracetamol 500mg", "obat-bebas", "3 x 1 tablet sehari", "Pereda nyeri dan penurun demam", 8000, 120, true},
	{"Bodrex Extra", "obat-bebas", "3 x 1 kaplet sehari", "Meredakan sakit kepala", 6500, 80, false},
	{"Promag Tablet", "obat-bebas", "3 x 1-2 tablet sehari", "Mengurangi gejala sakit maag", 9000, 60, true},
	{"Vitamin C 1000mg", "vitamin-suplemen", "1 x 1 tablet sehari", "Menjaga daya tahan tubuh", 25000, 40, true},
	{"Sangobion", "vitamin-suplemen", "1 x 1 kapsul sehari", "Penambah darah", 22000, 35, false},
	{"Betadine 15ml", "perawatan-luka", "Oleskan pada luka", "Antiseptik luka", 15000, 50, false},
	{"Hansaplast Plester", "perawatan-luka", "", "Plester luka isi 10", 7000, 0, false},
	{"Tolak Angin Cair", "herbal", "2 x 1 sachet sehari", "Meredakan masuk angin", 4000, 200, true},
}

// Demo заполняет пустой каталог демонстрационными данными; повторный вызов ничего не меняет
func Demo(ctx context.Context, categories repository.CategoryRepository, products repository.ProductRepository) error {
	ids := make(map[string]domain.Category, len(demoCategories))
	for _, c := range demoCategories {
		c := c
		err := categories.Create(ctx, &c)
		if errors.Is(err, repository.ErrConflict) {
			existing, gerr := categories.GetBySlug(ctx, c.Slug)
			if gerr != nil {
				return gerr
			}
			c = *existing
		} else if err != nil {
			return fmt.Errorf("seed category %s: %w", c.Slug, err)
		}
		ids[c.Slug] = c
	}

	for _, d := range demoProducts {
		cat := ids[d.category]
		catID := cat.ID
		p := domain.Product{
			Name:        d.name,
			Slug:        service.Slugify(d.name),
			Description: d.description,
			Price:       decimal.NewFromInt(d.price),
			Stock:       d.stock,
			CategoryID:  &catID,
			Dosage:      d.dosage,
			IsPopular:   d.popular,
		}
		if err := products.Create(ctx, &p); err != nil && !errors.Is(err, repository.ErrConflict) {
			return fmt.Errorf("seed product %s: %w", p.Slug, err)
		}
	}
	return nil
}

// GrantAdmins выдаёт роль admin перечисленным пользователям
func GrantAdmins(ctx context.Context, roles repository.RoleRepository, userIDs []uuid.UUID) error {
	for _, id := range userIDs {
		if err := roles.Grant(ctx, id, domain.RoleAdmin); err != nil {
			return fmt.Errorf("grant admin %s: %w", id, err)
		}
	}
	return nil
}
