package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"warungmadura/internal/domain"
)

func TestMemoryStore_ProductCRUD(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	p := domain.Product{Name: "Paracetamol", Slug: "paracetamol", Price: decimal.NewFromInt(8000), Stock: 5}
	if err := store.Create(ctx, &p); err != nil {
		t.Fatalf("create: %v", err)
	}
	if p.ID == uuid.Nil {
		t.Fatalf("no id")
	}

	got, err := store.GetBySlug(ctx, "paracetamol")
	if err != nil || got.ID != p.ID {
		t.Fatalf("get by slug: %v", err)
	}

	p.Price = decimal.NewFromInt(9000)
	if err := store.Update(ctx, &p); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, _ = store.GetByID(ctx, p.ID)
	if !got.Price.Equal(decimal.NewFromInt(9000)) {
		t.Fatalf("price not updated: %s", got.Price)
	}

	if err := store.Delete(ctx, p.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.GetByID(ctx, p.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestMemoryStore_SlugConflict(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	a := domain.Product{Name: "Vitamin C", Slug: "vitamin-c", Price: decimal.NewFromInt(1000)}
	if err := store.Create(ctx, &a); err != nil {
		t.Fatal(err)
	}
	b := domain.Product{Name: "Vitamin C", Slug: "vitamin-c", Price: decimal.NewFromInt(2000)}
	if err := store.Create(ctx, &b); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}

	cats := NewMemoryCategories(store)
	c1 := domain.Category{Name: "Obat", Slug: "obat"}
	if err := cats.Create(ctx, &c1); err != nil {
		t.Fatal(err)
	}
	c2 := domain.Category{Name: "Obat", Slug: "obat"}
	if err := cats.Create(ctx, &c2); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected category conflict, got %v", err)
	}
}

func TestMemoryStore_UnknownCategory(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	missing := uuid.New()
	p := domain.Product{Name: "Antangin", Slug: "antangin", Price: decimal.NewFromInt(4000), CategoryID: &missing}
	if err := store.Create(ctx, &p); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found on create, got %v", err)
	}

	p.CategoryID = nil
	if err := store.Create(ctx, &p); err != nil {
		t.Fatalf("create without category: %v", err)
	}
	p.CategoryID = &missing
	if err := store.Update(ctx, &p); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found on update, got %v", err)
	}
	got, _ := store.GetByID(ctx, p.ID)
	if got.CategoryID != nil {
		t.Fatalf("category must stay empty, got %v", got.CategoryID)
	}
}

func TestMemoryStore_DecrementStock(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	p := domain.Product{Name: "A", Slug: "a", Price: decimal.NewFromInt(10), Stock: 3}
	_ = store.Create(ctx, &p)

	if err := store.DecrementStock(ctx, p.ID, 2); err != nil {
		t.Fatalf("decrement: %v", err)
	}
	if err := store.DecrementStock(ctx, p.ID, 2); !errors.Is(err, ErrNotEnoughStock) {
		t.Fatalf("expected not enough stock, got %v", err)
	}
	got, _ := store.GetByID(ctx, p.ID)
	if got.Stock != 1 {
		t.Fatalf("stock expected 1, got %d", got.Stock)
	}
	if err := store.DecrementStock(ctx, uuid.New(), 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestMemoryStore_DecrementStockRejectsNonPositive(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	p := domain.Product{Name: "A", Slug: "a", Price: decimal.NewFromInt(10), Stock: 3}
	_ = store.Create(ctx, &p)

	for _, q := range []int64{0, -5} {
		if err := store.DecrementStock(ctx, p.ID, q); !errors.Is(err, ErrInvalidQuantity) {
			t.Fatalf("qty %d: expected invalid quantity, got %v", q, err)
		}
	}
	got, _ := store.GetByID(ctx, p.ID)
	if got.Stock != 3 {
		t.Fatalf("stock expected 3, got %d", got.Stock)
	}

	carts := NewMemoryCarts(store)
	c := domain.Cart{UserID: uuid.New()}
	_ = carts.Create(ctx, &c)
	if err := carts.AddItem(ctx, &domain.CartItem{CartID: c.ID, ProductID: p.ID, Quantity: -1}); !errors.Is(err, ErrInvalidQuantity) {
		t.Fatalf("expected invalid quantity on add, got %v", err)
	}
	it := domain.CartItem{CartID: c.ID, ProductID: p.ID, Quantity: 1}
	_ = carts.AddItem(ctx, &it)
	if err := carts.SetQuantity(ctx, c.ID, it.ID, 0); !errors.Is(err, ErrInvalidQuantity) {
		t.Fatalf("expected invalid quantity on set, got %v", err)
	}
}

func TestMemoryTx_RollbackOnError(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	tx := NewMemoryTx(store)
	orders := NewMemoryOrders(store)

	p := domain.Product{Name: "A", Slug: "a", Price: decimal.NewFromInt(10), Stock: 5}
	if err := store.Create(ctx, &p); err != nil {
		t.Fatal(err)
	}

	boom := errors.New("boom")
	err := tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := store.DecrementStock(ctx, p.ID, 3); err != nil {
			return err
		}
		o := domain.Order{UserID: uuid.New(), OrderNumber: "WM-1", Status: domain.OrderStatusPending}
		if err := orders.Create(ctx, &o); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	pp, _ := store.GetByID(ctx, p.ID)
	if pp.Stock != 5 {
		t.Fatalf("stock expected 5 after rollback, got %d", pp.Stock)
	}
	all, _ := orders.ListAll(ctx, "")
	if len(all) != 0 {
		t.Fatalf("expected no orders after rollback, got %d", len(all))
	}
}

func TestMemoryTx_Commit(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	tx := NewMemoryTx(store)
	orders := NewMemoryOrders(store)

	p := domain.Product{Name: "A", Slug: "a", Price: decimal.NewFromInt(10), Stock: 5}
	_ = store.Create(ctx, &p)

	var orderID uuid.UUID
	err := tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := store.DecrementStock(ctx, p.ID, 3); err != nil {
			return err
		}
		o := domain.Order{UserID: uuid.New(), OrderNumber: "WM-1", Status: domain.OrderStatusPending}
		if err := orders.Create(ctx, &o); err != nil {
			return err
		}
		orderID = o.ID
		pid := p.ID
		return orders.AddItems(ctx, o.ID, []domain.OrderItem{{ProductID: &pid, ProductName: "A", Quantity: 3}})
	})
	if err != nil {
		t.Fatalf("tx: %v", err)
	}

	pp, _ := store.GetByID(ctx, p.ID)
	if pp.Stock != 2 {
		t.Fatalf("stock expected 2, got %d", pp.Stock)
	}
	o, err := orders.GetByID(ctx, orderID)
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if len(o.Items) != 1 || o.Items[0].OrderID != orderID {
		t.Fatalf("unexpected items: %+v", o.Items)
	}
}

func TestList_Filtering(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	cat := domain.Category{Name: "Obat", Slug: "obat"}
	if err := NewMemoryCategories(store).Create(ctx, &cat); err != nil {
		t.Fatal(err)
	}
	catID := cat.ID

	_ = store.Create(ctx, &domain.Product{Name: "Paracetamol", Slug: "paracetamol", Stock: 5, CategoryID: &catID})
	_ = store.Create(ctx, &domain.Product{Name: "Paramex", Slug: "paramex", Stock: 0, CategoryID: &catID})
	_ = store.Create(ctx, &domain.Product{Name: "Betadine", Slug: "betadine", Stock: 2})

	list, _ := store.List(ctx, ProductFilter{NameSubstring: "PARA"})
	if len(list) != 2 {
		t.Fatalf("substring: expected 2, got %d", len(list))
	}
	list, _ = store.List(ctx, ProductFilter{NameSubstring: "para", InStockOnly: true})
	if len(list) != 1 || list[0].Name != "Paracetamol" {
		t.Fatalf("in stock: unexpected %+v", list)
	}
	list, _ = store.List(ctx, ProductFilter{CategoryID: &catID})
	if len(list) != 2 {
		t.Fatalf("category: expected 2, got %d", len(list))
	}
}

func TestMemoryCarts_Lines(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	carts := NewMemoryCarts(store)

	p := domain.Product{Name: "A", Slug: "a", Price: decimal.NewFromInt(1500), Stock: 5}
	_ = store.Create(ctx, &p)

	userID := uuid.New()
	c := domain.Cart{UserID: userID}
	if err := carts.Create(ctx, &c); err != nil {
		t.Fatal(err)
	}
	if err := carts.Create(ctx, &domain.Cart{UserID: userID}); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected one cart per user, got %v", err)
	}

	it := domain.CartItem{CartID: c.ID, ProductID: p.ID, Quantity: 2}
	if err := carts.AddItem(ctx, &it); err != nil {
		t.Fatal(err)
	}
	if err := carts.AddItem(ctx, &domain.CartItem{CartID: c.ID, ProductID: p.ID, Quantity: 1}); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected duplicate line conflict, got %v", err)
	}

	lines, _ := carts.ListLines(ctx, c.ID)
	if len(lines) != 1 || !lines[0].LineTotal().Equal(decimal.NewFromInt(3000)) {
		t.Fatalf("unexpected lines: %+v", lines)
	}

	// чужая корзина не видит позицию
	if _, err := carts.GetItem(ctx, uuid.New(), it.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found for foreign cart, got %v", err)
	}

	if err := carts.Clear(ctx, c.ID); err != nil {
		t.Fatal(err)
	}
	lines, _ = carts.ListLines(ctx, c.ID)
	if len(lines) != 0 {
		t.Fatalf("expected empty cart, got %d", len(lines))
	}
	if _, err := carts.GetByUser(ctx, userID); err != nil {
		t.Fatalf("cart row must persist: %v", err)
	}
}

func TestMemoryOrders_NewestFirst(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	orders := NewMemoryOrders(store)
	userID := uuid.New()

	for _, n := range []string{"WM-1", "WM-2", "WM-3"} {
		o := domain.Order{UserID: userID, OrderNumber: n, Status: domain.OrderStatusPending}
		if err := orders.Create(ctx, &o); err != nil {
			t.Fatal(err)
		}
	}
	list, _ := orders.ListByUser(ctx, userID)
	if len(list) != 3 || list[0].OrderNumber != "WM-3" || list[2].OrderNumber != "WM-1" {
		t.Fatalf("unexpected order: %+v", list)
	}

	if err := orders.UpdateStatus(ctx, list[0].ID, domain.OrderStatusShipped); err != nil {
		t.Fatal(err)
	}
	shipped, _ := orders.ListAll(ctx, domain.OrderStatusShipped)
	if len(shipped) != 1 || shipped[0].OrderNumber != "WM-3" {
		t.Fatalf("status filter: %+v", shipped)
	}
	if err := orders.UpdateStatus(ctx, uuid.New(), domain.OrderStatusPaid); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	dup := domain.Order{UserID: userID, OrderNumber: "WM-1"}
	if err := orders.Create(ctx, &dup); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected order number conflict, got %v", err)
	}
}

func TestMemoryRoles(t *testing.T) {
	ctx := context.Background()
	roles := NewMemoryRoles(NewMemoryStore())
	id := uuid.New()

	got, _ := roles.Roles(ctx, id)
	if len(got) != 0 {
		t.Fatalf("expected no roles")
	}
	_ = roles.Grant(ctx, id, domain.RoleAdmin)
	_ = roles.Grant(ctx, id, domain.RoleAdmin)
	got, _ = roles.Roles(ctx, id)
	if len(got) != 1 || got[0] != domain.RoleAdmin {
		t.Fatalf("unexpected roles: %v", got)
	}
}
