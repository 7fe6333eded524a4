package service

import (
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"warungmadura/internal/domain"
)

func TestCatalog_FilterAndSort(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	admin := adminSession()

	obat, err := f.admin.CreateCategory(ctx, admin, CategoryInput{Name: "Obat Bebas"})
	if err != nil {
		t.Fatalf("category: %v", err)
	}
	if obat.Slug != "obat-bebas" {
		t.Fatalf("slug %q", obat.Slug)
	}
	vit, _ := f.admin.CreateCategory(ctx, admin, CategoryInput{Name: "Vitamin"})

	mk := func(name string, stock int64, popular bool, cat *domain.Category) {
		in := ProductInput{Name: name, Price: decimal.NewFromInt(1000), Stock: stock, IsPopular: popular}
		if cat != nil {
			in.CategoryID = &cat.ID
		}
		if _, err := f.admin.CreateProduct(ctx, admin, in); err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
	}
	mk("Paracetamol 500mg", 10, false, obat)
	mk("Bodrex", 5, true, obat)
	mk("Panadol", 0, true, obat)
	mk("Vitamin C 1000", 3, false, vit)
	mk("Antangin", 7, false, nil)

	all, err := f.catalog.ListProducts(ctx, CatalogQuery{})
	if err != nil {
		t.Fatal(err)
	}
	names := make([]string, 0, len(all))
	for _, p := range all {
		names = append(names, p.Name)
	}
	want := "Bodrex,Antangin,Paracetamol 500mg,Vitamin C 1000"
	if strings.Join(names, ",") != want {
		t.Fatalf("got %v, want %s", names, want)
	}

	byCat, _ := f.catalog.ListProducts(ctx, CatalogQuery{CategorySlug: "obat-bebas"})
	if len(byCat) != 2 {
		t.Fatalf("category filter: %d", len(byCat))
	}

	unknown, err := f.catalog.ListProducts(ctx, CatalogQuery{CategorySlug: "nope"})
	if err != nil || len(unknown) != 0 {
		t.Fatalf("unknown slug: %v %d", err, len(unknown))
	}
}

func TestCatalog_FilterPredicateHolds(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	admin := adminSession()
	cat, _ := f.admin.CreateCategory(ctx, admin, CategoryInput{Name: "Obat"})

	for i, name := range []string{"Paracetamol", "PARAMEX", "Sanmol", "Termorex", "Parasol"} {
		in := ProductInput{Name: name, Price: decimal.NewFromInt(500), Stock: int64(i % 3)}
		if i%2 == 0 {
			in.CategoryID = &cat.ID
		}
		_, _ = f.admin.CreateProduct(ctx, admin, in)
	}

	for _, q := range []string{"", "para", "Ol", "x", "zzz"} {
		for _, slug := range []string{"", "obat"} {
			list, err := f.catalog.ListProducts(ctx, CatalogQuery{CategorySlug: slug, Search: q})
			if err != nil {
				t.Fatal(err)
			}
			for _, p := range list {
				if !strings.Contains(strings.ToLower(p.Name), strings.ToLower(q)) {
					t.Fatalf("q=%q: %s does not match", q, p.Name)
				}
				if p.Stock <= 0 {
					t.Fatalf("q=%q: %s out of stock", q, p.Name)
				}
				if slug != "" && (p.CategoryID == nil || *p.CategoryID != cat.ID) {
					t.Fatalf("slug=%q: %s in wrong category", slug, p.Name)
				}
			}
		}
	}
}

func TestCatalog_GetProduct(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	p := f.product(t, "Minyak Kayu Putih", 20000, 4)

	got, err := f.catalog.GetProduct(ctx, "minyak-kayu-putih")
	if err != nil || got.ID != p.ID {
		t.Fatalf("get: %v", err)
	}
	if _, err := f.catalog.GetProduct(ctx, "missing"); err == nil {
		t.Fatalf("expected not found")
	}
}
