package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"warungmadura/internal/domain"
)

// MemoryStore объединённое in-memory хранилище всех таблиц витрины
type MemoryStore struct {
	mu  sync.RWMutex
	now func() time.Time
	seq int64

	categories map[uuid.UUID]domain.Category
	products   map[uuid.UUID]domain.Product
	carts      map[uuid.UUID]domain.Cart
	cartByUser map[uuid.UUID]uuid.UUID
	cartItems  map[uuid.UUID]memCartItem
	orders     map[uuid.UUID]domain.Order
	orderIDs   []uuid.UUID // порядок вставки
	profiles   map[uuid.UUID]domain.Profile
	roles      map[uuid.UUID]map[domain.Role]struct{}
}

type memCartItem struct {
	domain.CartItem
	seq int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		now:        func() time.Time { return time.Now().UTC() },
		categories: make(map[uuid.UUID]domain.Category),
		products:   make(map[uuid.UUID]domain.Product),
		carts:      make(map[uuid.UUID]domain.Cart),
		cartByUser: make(map[uuid.UUID]uuid.UUID),
		cartItems:  make(map[uuid.UUID]memCartItem),
		orders:     make(map[uuid.UUID]domain.Order),
		profiles:   make(map[uuid.UUID]domain.Profile),
		roles:      make(map[uuid.UUID]map[domain.Role]struct{}),
	}
}

// transaction-aware locking helpers
type txKey struct{}

func isTx(ctx context.Context) bool {
	v := ctx.Value(txKey{})
	if v == nil {
		return false
	}
	b, ok := v.(bool)
	return ok && b
}

func (m *MemoryStore) rlock(ctx context.Context) {
	if !isTx(ctx) {
		m.mu.RLock()
	}
}
func (m *MemoryStore) runlock(ctx context.Context) {
	if !isTx(ctx) {
		m.mu.RUnlock()
	}
}
func (m *MemoryStore) wlock(ctx context.Context) {
	if !isTx(ctx) {
		m.mu.Lock()
	}
}
func (m *MemoryStore) wunlock(ctx context.Context) {
	if !isTx(ctx) {
		m.mu.Unlock()
	}
}

// Ensure interfaces
var _ ProductRepository = (*MemoryStore)(nil)

// ProductRepository implementation
func (m *MemoryStore) Create(ctx context.Context, p *domain.Product) error {
	m.wlock(ctx)
	defer m.wunlock(ctx)
	if m.productSlugTaken(p.Slug, uuid.Nil) {
		return ErrConflict
	}
	if !m.categoryExists(p.CategoryID) {
		return ErrNotFound
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.CreatedAt = m.now()
	p.UpdatedAt = p.CreatedAt
	m.products[p.ID] = *p
	return nil
}

func (m *MemoryStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	m.rlock(ctx)
	defer m.runlock(ctx)
	p, ok := m.products[id]
	if !ok {
		return nil, ErrNotFound
	}
	// return copy
	cp := p
	return &cp, nil
}

func (m *MemoryStore) GetBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	m.rlock(ctx)
	defer m.runlock(ctx)
	for _, p := range m.products {
		if p.Slug == slug {
			cp := p
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) Update(ctx context.Context, p *domain.Product) error {
	m.wlock(ctx)
	defer m.wunlock(ctx)
	cur, ok := m.products[p.ID]
	if !ok {
		return ErrNotFound
	}
	if m.productSlugTaken(p.Slug, p.ID) {
		return ErrConflict
	}
	if !m.categoryExists(p.CategoryID) {
		return ErrNotFound
	}
	p.CreatedAt = cur.CreatedAt
	p.UpdatedAt = m.now()
	m.products[p.ID] = *p
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, id uuid.UUID) error {
	m.wlock(ctx)
	defer m.wunlock(ctx)
	if _, ok := m.products[id]; !ok {
		return ErrNotFound
	}
	delete(m.products, id)
	// cart_items каскадно, order_items.product_id -> null
	for itemID, it := range m.cartItems {
		if it.ProductID == id {
			delete(m.cartItems, itemID)
		}
	}
	for oid, o := range m.orders {
		changed := false
		for i := range o.Items {
			if o.Items[i].ProductID != nil && *o.Items[i].ProductID == id {
				o.Items[i].ProductID = nil
				changed = true
			}
		}
		if changed {
			m.orders[oid] = o
		}
	}
	return nil
}

func (m *MemoryStore) List(ctx context.Context, f ProductFilter) ([]domain.Product, error) {
	m.rlock(ctx)
	defer m.runlock(ctx)
	out := make([]domain.Product, 0)
	for _, p := range m.products {
		if !containsIgnoreCase(p.Name, f.NameSubstring) {
			continue
		}
		if f.InStockOnly && p.Stock <= 0 {
			continue
		}
		if f.CategoryID != nil && (p.CategoryID == nil || *p.CategoryID != *f.CategoryID) {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *MemoryStore) DecrementStock(ctx context.Context, id uuid.UUID, qty int64) error {
	if qty < 1 {
		return ErrInvalidQuantity
	}
	m.wlock(ctx)
	defer m.wunlock(ctx)
	p, ok := m.products[id]
	if !ok {
		return ErrNotFound
	}
	if p.Stock < qty {
		return ErrNotEnoughStock
	}
	p.Stock -= qty
	p.UpdatedAt = m.now()
	m.products[id] = p
	return nil
}

// categoryExists nil означает товар без категории
func (m *MemoryStore) categoryExists(id *uuid.UUID) bool {
	if id == nil {
		return true
	}
	_, ok := m.categories[*id]
	return ok
}

func (m *MemoryStore) productSlugTaken(slug string, except uuid.UUID) bool {
	for id, p := range m.products {
		if id != except && p.Slug == slug {
			return true
		}
	}
	return false
}

// CategoryRepository implementation on wrapper type
type MemoryCategories struct{ store *MemoryStore }

func NewMemoryCategories(store *MemoryStore) *MemoryCategories {
	return &MemoryCategories{store: store}
}

var _ CategoryRepository = (*MemoryCategories)(nil)

func (mc *MemoryCategories) Create(ctx context.Context, c *domain.Category) error {
	mc.store.wlock(ctx)
	defer mc.store.wunlock(ctx)
	for _, ex := range mc.store.categories {
		if ex.Slug == c.Slug {
			return ErrConflict
		}
	}
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	c.CreatedAt = mc.store.now()
	mc.store.categories[c.ID] = *c
	return nil
}

func (mc *MemoryCategories) GetBySlug(ctx context.Context, slug string) (*domain.Category, error) {
	mc.store.rlock(ctx)
	defer mc.store.runlock(ctx)
	for _, c := range mc.store.categories {
		if c.Slug == slug {
			cp := c
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (mc *MemoryCategories) List(ctx context.Context) ([]domain.Category, error) {
	mc.store.rlock(ctx)
	defer mc.store.runlock(ctx)
	out := make([]domain.Category, 0, len(mc.store.categories))
	for _, c := range mc.store.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// CartRepository implementation on wrapper type
type MemoryCarts struct{ store *MemoryStore }

func NewMemoryCarts(store *MemoryStore) *MemoryCarts { return &MemoryCarts{store: store} }

var _ CartRepository = (*MemoryCarts)(nil)

func (mc *MemoryCarts) GetByUser(ctx context.Context, userID uuid.UUID) (*domain.Cart, error) {
	mc.store.rlock(ctx)
	defer mc.store.runlock(ctx)
	id, ok := mc.store.cartByUser[userID]
	if !ok {
		return nil, ErrNotFound
	}
	c := mc.store.carts[id]
	return &c, nil
}

// LockByUser MemoryTx держит общий мьютекс, отдельная блокировка не нужна
func (mc *MemoryCarts) LockByUser(ctx context.Context, userID uuid.UUID) (*domain.Cart, error) {
	return mc.GetByUser(ctx, userID)
}

func (mc *MemoryCarts) Create(ctx context.Context, c *domain.Cart) error {
	mc.store.wlock(ctx)
	defer mc.store.wunlock(ctx)
	if _, ok := mc.store.cartByUser[c.UserID]; ok {
		return ErrConflict
	}
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	c.CreatedAt = mc.store.now()
	c.UpdatedAt = c.CreatedAt
	mc.store.carts[c.ID] = *c
	mc.store.cartByUser[c.UserID] = c.ID
	return nil
}

func (mc *MemoryCarts) ListLines(ctx context.Context, cartID uuid.UUID) ([]domain.CartLine, error) {
	mc.store.rlock(ctx)
	defer mc.store.runlock(ctx)
	items := make([]memCartItem, 0)
	for _, it := range mc.store.cartItems {
		if it.CartID == cartID {
			items = append(items, it)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].seq < items[j].seq })
	out := make([]domain.CartLine, 0, len(items))
	for _, it := range items {
		p, ok := mc.store.products[it.ProductID]
		if !ok {
			continue
		}
		out = append(out, domain.CartLine{CartItem: it.CartItem, Product: p})
	}
	return out, nil
}

func (mc *MemoryCarts) GetItem(ctx context.Context, cartID, itemID uuid.UUID) (*domain.CartItem, error) {
	mc.store.rlock(ctx)
	defer mc.store.runlock(ctx)
	it, ok := mc.store.cartItems[itemID]
	if !ok || it.CartID != cartID {
		return nil, ErrNotFound
	}
	cp := it.CartItem
	return &cp, nil
}

func (mc *MemoryCarts) GetItemByProduct(ctx context.Context, cartID, productID uuid.UUID) (*domain.CartItem, error) {
	mc.store.rlock(ctx)
	defer mc.store.runlock(ctx)
	for _, it := range mc.store.cartItems {
		if it.CartID == cartID && it.ProductID == productID {
			cp := it.CartItem
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (mc *MemoryCarts) AddItem(ctx context.Context, it *domain.CartItem) error {
	if it.Quantity < 1 {
		return ErrInvalidQuantity
	}
	mc.store.wlock(ctx)
	defer mc.store.wunlock(ctx)
	if _, ok := mc.store.carts[it.CartID]; !ok {
		return ErrNotFound
	}
	if _, ok := mc.store.products[it.ProductID]; !ok {
		return ErrNotFound
	}
	for _, ex := range mc.store.cartItems {
		if ex.CartID == it.CartID && ex.ProductID == it.ProductID {
			return ErrConflict
		}
	}
	if it.ID == uuid.Nil {
		it.ID = uuid.New()
	}
	it.CreatedAt = mc.store.now()
	mc.store.seq++
	mc.store.cartItems[it.ID] = memCartItem{CartItem: *it, seq: mc.store.seq}
	return nil
}

func (mc *MemoryCarts) SetQuantity(ctx context.Context, cartID, itemID uuid.UUID, qty int64) error {
	if qty < 1 {
		return ErrInvalidQuantity
	}
	mc.store.wlock(ctx)
	defer mc.store.wunlock(ctx)
	it, ok := mc.store.cartItems[itemID]
	if !ok || it.CartID != cartID {
		return ErrNotFound
	}
	it.Quantity = qty
	mc.store.cartItems[itemID] = it
	return nil
}

func (mc *MemoryCarts) DeleteItem(ctx context.Context, cartID, itemID uuid.UUID) error {
	mc.store.wlock(ctx)
	defer mc.store.wunlock(ctx)
	it, ok := mc.store.cartItems[itemID]
	if !ok || it.CartID != cartID {
		return ErrNotFound
	}
	delete(mc.store.cartItems, itemID)
	return nil
}

func (mc *MemoryCarts) Clear(ctx context.Context, cartID uuid.UUID) error {
	mc.store.wlock(ctx)
	defer mc.store.wunlock(ctx)
	for id, it := range mc.store.cartItems {
		if it.CartID == cartID {
			delete(mc.store.cartItems, id)
		}
	}
	return nil
}

// OrderRepository implementation on wrapper type
type MemoryOrders struct{ store *MemoryStore }

func NewMemoryOrders(store *MemoryStore) *MemoryOrders { return &MemoryOrders{store: store} }

var _ OrderRepository = (*MemoryOrders)(nil)

func (mo *MemoryOrders) Create(ctx context.Context, o *domain.Order) error {
	mo.store.wlock(ctx)
	defer mo.store.wunlock(ctx)
	for _, ex := range mo.store.orders {
		if ex.OrderNumber == o.OrderNumber {
			return ErrConflict
		}
		if o.IdempotencyKey != "" && ex.UserID == o.UserID && ex.IdempotencyKey == o.IdempotencyKey {
			return ErrConflict
		}
	}
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	o.CreatedAt = mo.store.now()
	o.UpdatedAt = o.CreatedAt
	stored := *o
	stored.Items = nil
	mo.store.orders[o.ID] = stored
	mo.store.orderIDs = append(mo.store.orderIDs, o.ID)
	return nil
}

func (mo *MemoryOrders) AddItems(ctx context.Context, orderID uuid.UUID, items []domain.OrderItem) error {
	mo.store.wlock(ctx)
	defer mo.store.wunlock(ctx)
	o, ok := mo.store.orders[orderID]
	if !ok {
		return ErrNotFound
	}
	added := make([]domain.OrderItem, 0, len(o.Items)+len(items))
	added = append(added, o.Items...)
	for i := range items {
		if items[i].ID == uuid.Nil {
			items[i].ID = uuid.New()
		}
		items[i].OrderID = orderID
		added = append(added, items[i])
	}
	o.Items = added
	mo.store.orders[orderID] = o
	return nil
}

func (mo *MemoryOrders) GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	mo.store.rlock(ctx)
	defer mo.store.runlock(ctx)
	o, ok := mo.store.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := copyOrder(o)
	return &cp, nil
}

func (mo *MemoryOrders) GetByIdempotencyKey(ctx context.Context, userID uuid.UUID, key string) (*domain.Order, error) {
	mo.store.rlock(ctx)
	defer mo.store.runlock(ctx)
	if key == "" {
		return nil, ErrNotFound
	}
	for _, o := range mo.store.orders {
		if o.UserID == userID && o.IdempotencyKey == key {
			cp := copyOrder(o)
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (mo *MemoryOrders) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Order, error) {
	mo.store.rlock(ctx)
	defer mo.store.runlock(ctx)
	return mo.newestFirst(func(o domain.Order) bool { return o.UserID == userID }), nil
}

func (mo *MemoryOrders) ListAll(ctx context.Context, status domain.OrderStatus) ([]domain.Order, error) {
	mo.store.rlock(ctx)
	defer mo.store.runlock(ctx)
	return mo.newestFirst(func(o domain.Order) bool { return status == "" || o.Status == status }), nil
}

func (mo *MemoryOrders) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus) error {
	mo.store.wlock(ctx)
	defer mo.store.wunlock(ctx)
	o, ok := mo.store.orders[id]
	if !ok {
		return ErrNotFound
	}
	o.Status = status
	o.UpdatedAt = mo.store.now()
	mo.store.orders[id] = o
	return nil
}

func (mo *MemoryOrders) newestFirst(keep func(domain.Order) bool) []domain.Order {
	out := make([]domain.Order, 0)
	ids := mo.store.orderIDs
	for i := len(ids) - 1; i >= 0; i-- {
		o := mo.store.orders[ids[i]]
		if keep(o) {
			out = append(out, copyOrder(o))
		}
	}
	return out
}

func copyOrder(o domain.Order) domain.Order {
	cp := o
	cp.Items = append([]domain.OrderItem(nil), o.Items...)
	if cp.Items == nil {
		cp.Items = []domain.OrderItem{}
	}
	return cp
}

// ProfileRepository implementation on wrapper type
type MemoryProfiles struct{ store *MemoryStore }

func NewMemoryProfiles(store *MemoryStore) *MemoryProfiles { return &MemoryProfiles{store: store} }

var _ ProfileRepository = (*MemoryProfiles)(nil)

func (mp *MemoryProfiles) Get(ctx context.Context, userID uuid.UUID) (*domain.Profile, error) {
	mp.store.rlock(ctx)
	defer mp.store.runlock(ctx)
	p, ok := mp.store.profiles[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (mp *MemoryProfiles) Upsert(ctx context.Context, p *domain.Profile) error {
	mp.store.wlock(ctx)
	defer mp.store.wunlock(ctx)
	now := mp.store.now()
	if cur, ok := mp.store.profiles[p.ID]; ok {
		p.CreatedAt = cur.CreatedAt
	} else {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	mp.store.profiles[p.ID] = *p
	return nil
}

// RoleRepository implementation on wrapper type
type MemoryRoles struct{ store *MemoryStore }

func NewMemoryRoles(store *MemoryStore) *MemoryRoles { return &MemoryRoles{store: store} }

var _ RoleRepository = (*MemoryRoles)(nil)

func (mr *MemoryRoles) Roles(ctx context.Context, userID uuid.UUID) ([]domain.Role, error) {
	mr.store.rlock(ctx)
	defer mr.store.runlock(ctx)
	set := mr.store.roles[userID]
	out := make([]domain.Role, 0, len(set))
	for r := range set {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

func (mr *MemoryRoles) Grant(ctx context.Context, userID uuid.UUID, role domain.Role) error {
	mr.store.wlock(ctx)
	defer mr.store.wunlock(ctx)
	set, ok := mr.store.roles[userID]
	if !ok {
		set = make(map[domain.Role]struct{})
		mr.store.roles[userID] = set
	}
	set[role] = struct{}{}
	return nil
}

// Tx manager using write lock to emulate transaction boundary
type MemoryTx struct{ store *MemoryStore }

func NewMemoryTx(store *MemoryStore) *MemoryTx { return &MemoryTx{store: store} }

func (tx *MemoryTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	// вложенная транзакция работает в рамках внешней
	if isTx(ctx) {
		return fn(ctx)
	}
	// держим блокировку записи и помечаем контекст, чтобы репозитории пропускали внутренние локи
	tx.store.mu.Lock()
	defer tx.store.mu.Unlock()
	snap := tx.store.snapshot()
	ctx = context.WithValue(ctx, txKey{}, true)
	if err := fn(ctx); err != nil {
		tx.store.restore(snap)
		return err
	}
	return nil
}

type memSnapshot struct {
	seq        int64
	categories map[uuid.UUID]domain.Category
	products   map[uuid.UUID]domain.Product
	carts      map[uuid.UUID]domain.Cart
	cartByUser map[uuid.UUID]uuid.UUID
	cartItems  map[uuid.UUID]memCartItem
	orders     map[uuid.UUID]domain.Order
	orderIDs   []uuid.UUID
	profiles   map[uuid.UUID]domain.Profile
	roles      map[uuid.UUID]map[domain.Role]struct{}
}

func (m *MemoryStore) snapshot() memSnapshot {
	s := memSnapshot{
		seq:        m.seq,
		categories: cloneMap(m.categories),
		products:   cloneMap(m.products),
		carts:      cloneMap(m.carts),
		cartByUser: cloneMap(m.cartByUser),
		cartItems:  cloneMap(m.cartItems),
		orders:     make(map[uuid.UUID]domain.Order, len(m.orders)),
		orderIDs:   append([]uuid.UUID(nil), m.orderIDs...),
		profiles:   cloneMap(m.profiles),
		roles:      make(map[uuid.UUID]map[domain.Role]struct{}, len(m.roles)),
	}
	for id, o := range m.orders {
		s.orders[id] = copyOrder(o)
	}
	for id, set := range m.roles {
		s.roles[id] = cloneMap(set)
	}
	return s
}

func (m *MemoryStore) restore(s memSnapshot) {
	m.seq = s.seq
	m.categories = s.categories
	m.products = s.products
	m.carts = s.carts
	m.cartByUser = s.cartByUser
	m.cartItems = s.cartItems
	m.orders = s.orders
	m.orderIDs = s.orderIDs
	m.profiles = s.profiles
	m.roles = s.roles
}

func cloneMap[K comparable, V any](in map[K]V) map[K]V {
	out := make(map[K]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
