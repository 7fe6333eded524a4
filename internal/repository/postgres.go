package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"warungmadura/internal/domain"
	"warungmadura/internal/repository/migrations"
)

// OpenPostgres открывает пул pgx и поверх него gorm
func OpenPostgres(ctx context.Context, dsn string) (*gorm.DB, *sql.DB, error) {
	sqlDB, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("open pgx: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, nil, fmt.Errorf("ping postgres: %w", err)
	}
	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{})
	if err != nil {
		_ = sqlDB.Close()
		return nil, nil, fmt.Errorf("open gorm: %w", err)
	}
	return db, sqlDB, nil
}

// Migrate накатывает встроенные миграции goose
func Migrate(ctx context.Context, sqlDB *sql.DB) error {
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return goose.UpContext(ctx, sqlDB, ".")
}

// translate приводит ошибки драйвера к ошибкам репозитория
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return fmt.Errorf("%w: %s", ErrConflict, pgErr.ConstraintName)
		case "23503":
			return fmt.Errorf("%w: %s", ErrNotFound, pgErr.ConstraintName)
		}
	}
	return err
}

type gormTxKey struct{}

// GormStore общее подключение; транзакция, если есть, берётся из контекста
type GormStore struct{ db *gorm.DB }

func NewGormStore(db *gorm.DB) *GormStore { return &GormStore{db: db} }

func (s *GormStore) conn(ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value(gormTxKey{}).(*gorm.DB); ok {
		return tx
	}
	return s.db.WithContext(ctx)
}

// GormTx транзакция БД; ошибка из fn откатывает все изменения
type GormTx struct{ store *GormStore }

func NewGormTx(store *GormStore) *GormTx { return &GormTx{store: store} }

var _ TxManager = (*GormTx)(nil)

func (t *GormTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(gormTxKey{}).(*gorm.DB); ok {
		return fn(ctx)
	}
	return t.store.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, gormTxKey{}, tx))
	})
}

// records

type categoryRecord struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name      string
	Slug      string
	Icon      string
	CreatedAt time.Time
}

func (categoryRecord) TableName() string { return "categories" }

func (r categoryRecord) toDomain() domain.Category {
	return domain.Category{ID: r.ID, Name: r.Name, Slug: r.Slug, Icon: r.Icon, CreatedAt: r.CreatedAt}
}

type productRecord struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name        string
	Slug        string
	Description string
	Price       decimal.Decimal `gorm:"type:numeric"`
	Stock       int64
	CategoryID  *uuid.UUID `gorm:"type:uuid"`
	ImageURL    string
	Dosage      string
	IsPopular   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (productRecord) TableName() string { return "products" }

func productFromDomain(p *domain.Product) productRecord {
	return productRecord{
		ID: p.ID, Name: p.Name, Slug: p.Slug, Description: p.Description, Price: p.Price,
		Stock: p.Stock, CategoryID: p.CategoryID, ImageURL: p.ImageURL, Dosage: p.Dosage,
		IsPopular: p.IsPopular, CreatedAt: p.CreatedAt, UpdatedAt: p.UpdatedAt,
	}
}

func (r productRecord) toDomain() domain.Product {
	return domain.Product{
		ID: r.ID, Name: r.Name, Slug: r.Slug, Description: r.Description, Price: r.Price,
		Stock: r.Stock, CategoryID: r.CategoryID, ImageURL: r.ImageURL, Dosage: r.Dosage,
		IsPopular: r.IsPopular, CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt,
	}
}

type cartRecord struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID    uuid.UUID `gorm:"type:uuid"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (cartRecord) TableName() string { return "carts" }

type cartItemRecord struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CartID    uuid.UUID `gorm:"type:uuid"`
	ProductID uuid.UUID `gorm:"type:uuid"`
	Quantity  int64
	CreatedAt time.Time
}

func (cartItemRecord) TableName() string { return "cart_items" }

func (r cartItemRecord) toDomain() domain.CartItem {
	return domain.CartItem{ID: r.ID, CartID: r.CartID, ProductID: r.ProductID, Quantity: r.Quantity, CreatedAt: r.CreatedAt}
}

type orderRecord struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID          uuid.UUID `gorm:"type:uuid"`
	OrderNumber     string
	IdempotencyKey  *string
	TotalAmount     decimal.Decimal `gorm:"type:numeric"`
	Status          string
	PaymentMethod   string
	ShippingAddress string
	Notes           string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (orderRecord) TableName() string { return "orders" }

func (r orderRecord) toDomain(items []domain.OrderItem) domain.Order {
	o := domain.Order{
		ID: r.ID, UserID: r.UserID, OrderNumber: r.OrderNumber, TotalAmount: r.TotalAmount,
		Status: domain.OrderStatus(r.Status), PaymentMethod: domain.PaymentMethod(r.PaymentMethod),
		ShippingAddress: r.ShippingAddress, Notes: r.Notes, Items: items,
		CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt,
	}
	if r.IdempotencyKey != nil {
		o.IdempotencyKey = *r.IdempotencyKey
	}
	if o.Items == nil {
		o.Items = []domain.OrderItem{}
	}
	return o
}

type orderItemRecord struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OrderID      uuid.UUID `gorm:"type:uuid"`
	LineNo       int
	ProductID    *uuid.UUID `gorm:"type:uuid"`
	ProductName  string
	ProductPrice decimal.Decimal `gorm:"type:numeric"`
	Quantity     int64
	Subtotal     decimal.Decimal `gorm:"type:numeric"`
}

func (orderItemRecord) TableName() string { return "order_items" }

func (r orderItemRecord) toDomain() domain.OrderItem {
	return domain.OrderItem{
		ID: r.ID, OrderID: r.OrderID, ProductID: r.ProductID, ProductName: r.ProductName,
		ProductPrice: r.ProductPrice, Quantity: r.Quantity, Subtotal: r.Subtotal,
	}
}

type profileRecord struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	FullName  string
	Phone     string
	Address   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (profileRecord) TableName() string { return "profiles" }

type userRoleRecord struct {
	UserID uuid.UUID `gorm:"type:uuid;primaryKey"`
	Role   string    `gorm:"primaryKey"`
}

func (userRoleRecord) TableName() string { return "user_roles" }

// GormProducts ProductRepository поверх Postgres
type GormProducts struct{ *GormStore }

var _ ProductRepository = (*GormProducts)(nil)

func (s *GormProducts) Create(ctx context.Context, p *domain.Product) error {
	rec := productFromDomain(p)
	if err := s.conn(ctx).Create(&rec).Error; err != nil {
		return translate(err)
	}
	*p = rec.toDomain()
	return nil
}

func (s *GormProducts) GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	var rec productRecord
	if err := s.conn(ctx).First(&rec, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	p := rec.toDomain()
	return &p, nil
}

func (s *GormProducts) GetBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	var rec productRecord
	if err := s.conn(ctx).First(&rec, "slug = ?", slug).Error; err != nil {
		return nil, translate(err)
	}
	p := rec.toDomain()
	return &p, nil
}

func (s *GormProducts) Update(ctx context.Context, p *domain.Product) error {
	rec := productFromDomain(p)
	rec.UpdatedAt = time.Now().UTC()
	res := s.conn(ctx).Model(&productRecord{}).Where("id = ?", p.ID).
		Select("name", "slug", "description", "price", "stock", "category_id", "image_url", "dosage", "is_popular", "updated_at").
		Updates(&rec)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	cur, err := s.GetByID(ctx, p.ID)
	if err != nil {
		return err
	}
	*p = *cur
	return nil
}

func (s *GormProducts) Delete(ctx context.Context, id uuid.UUID) error {
	res := s.conn(ctx).Delete(&productRecord{}, "id = ?", id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (s *GormProducts) List(ctx context.Context, f ProductFilter) ([]domain.Product, error) {
	q := s.conn(ctx).Model(&productRecord{})
	if f.CategoryID != nil {
		q = q.Where("category_id = ?", *f.CategoryID)
	}
	if f.NameSubstring != "" {
		q = q.Where("name ILIKE ?", "%"+likeEscaper.Replace(f.NameSubstring)+"%")
	}
	if f.InStockOnly {
		q = q.Where("stock > 0")
	}
	var recs []productRecord
	if err := q.Order("name ASC").Find(&recs).Error; err != nil {
		return nil, translate(err)
	}
	out := make([]domain.Product, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.toDomain())
	}
	return out, nil
}

func (s *GormProducts) DecrementStock(ctx context.Context, id uuid.UUID, qty int64) error {
	if qty < 1 {
		return ErrInvalidQuantity
	}
	res := s.conn(ctx).Model(&productRecord{}).
		Where("id = ? AND stock >= ?", id, qty).
		UpdateColumns(map[string]any{
			"stock":      gorm.Expr("stock - ?", qty),
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 1 {
		return nil
	}
	var n int64
	if err := s.conn(ctx).Model(&productRecord{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return translate(err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return ErrNotEnoughStock
}

// GormCategories CategoryRepository поверх Postgres
type GormCategories struct{ *GormStore }

var _ CategoryRepository = (*GormCategories)(nil)

func (s *GormCategories) Create(ctx context.Context, c *domain.Category) error {
	rec := categoryRecord{ID: c.ID, Name: c.Name, Slug: c.Slug, Icon: c.Icon}
	if err := s.conn(ctx).Create(&rec).Error; err != nil {
		return translate(err)
	}
	*c = rec.toDomain()
	return nil
}

func (s *GormCategories) GetBySlug(ctx context.Context, slug string) (*domain.Category, error) {
	var rec categoryRecord
	if err := s.conn(ctx).First(&rec, "slug = ?", slug).Error; err != nil {
		return nil, translate(err)
	}
	c := rec.toDomain()
	return &c, nil
}

func (s *GormCategories) List(ctx context.Context) ([]domain.Category, error) {
	var recs []categoryRecord
	if err := s.conn(ctx).Order("name ASC").Find(&recs).Error; err != nil {
		return nil, translate(err)
	}
	out := make([]domain.Category, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.toDomain())
	}
	return out, nil
}

// GormCarts CartRepository поверх Postgres
type GormCarts struct{ *GormStore }

var _ CartRepository = (*GormCarts)(nil)

func (s *GormCarts) GetByUser(ctx context.Context, userID uuid.UUID) (*domain.Cart, error) {
	var rec cartRecord
	if err := s.conn(ctx).First(&rec, "user_id = ?", userID).Error; err != nil {
		return nil, translate(err)
	}
	return &domain.Cart{ID: rec.ID, UserID: rec.UserID, CreatedAt: rec.CreatedAt, UpdatedAt: rec.UpdatedAt}, nil
}

func (s *GormCarts) LockByUser(ctx context.Context, userID uuid.UUID) (*domain.Cart, error) {
	var rec cartRecord
	err := s.conn(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&rec, "user_id = ?", userID).Error
	if err != nil {
		return nil, translate(err)
	}
	return &domain.Cart{ID: rec.ID, UserID: rec.UserID, CreatedAt: rec.CreatedAt, UpdatedAt: rec.UpdatedAt}, nil
}

func (s *GormCarts) Create(ctx context.Context, c *domain.Cart) error {
	rec := cartRecord{ID: c.ID, UserID: c.UserID}
	if err := s.conn(ctx).Create(&rec).Error; err != nil {
		return translate(err)
	}
	c.ID, c.CreatedAt, c.UpdatedAt = rec.ID, rec.CreatedAt, rec.UpdatedAt
	return nil
}

func (s *GormCarts) ListLines(ctx context.Context, cartID uuid.UUID) ([]domain.CartLine, error) {
	var items []cartItemRecord
	if err := s.conn(ctx).Where("cart_id = ?", cartID).Order("created_at ASC, id ASC").Find(&items).Error; err != nil {
		return nil, translate(err)
	}
	if len(items) == 0 {
		return []domain.CartLine{}, nil
	}
	ids := make([]uuid.UUID, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ProductID)
	}
	var prods []productRecord
	if err := s.conn(ctx).Where("id IN ?", ids).Find(&prods).Error; err != nil {
		return nil, translate(err)
	}
	byID := make(map[uuid.UUID]productRecord, len(prods))
	for _, p := range prods {
		byID[p.ID] = p
	}
	out := make([]domain.CartLine, 0, len(items))
	for _, it := range items {
		p, ok := byID[it.ProductID]
		if !ok {
			continue
		}
		out = append(out, domain.CartLine{CartItem: it.toDomain(), Product: p.toDomain()})
	}
	return out, nil
}

func (s *GormCarts) GetItem(ctx context.Context, cartID, itemID uuid.UUID) (*domain.CartItem, error) {
	var rec cartItemRecord
	if err := s.conn(ctx).First(&rec, "id = ? AND cart_id = ?", itemID, cartID).Error; err != nil {
		return nil, translate(err)
	}
	it := rec.toDomain()
	return &it, nil
}

func (s *GormCarts) GetItemByProduct(ctx context.Context, cartID, productID uuid.UUID) (*domain.CartItem, error) {
	var rec cartItemRecord
	if err := s.conn(ctx).First(&rec, "cart_id = ? AND product_id = ?", cartID, productID).Error; err != nil {
		return nil, translate(err)
	}
	it := rec.toDomain()
	return &it, nil
}

func (s *GormCarts) AddItem(ctx context.Context, it *domain.CartItem) error {
	if it.Quantity < 1 {
		return ErrInvalidQuantity
	}
	rec := cartItemRecord{ID: it.ID, CartID: it.CartID, ProductID: it.ProductID, Quantity: it.Quantity}
	if err := s.conn(ctx).Create(&rec).Error; err != nil {
		return translate(err)
	}
	*it = rec.toDomain()
	return nil
}

func (s *GormCarts) SetQuantity(ctx context.Context, cartID, itemID uuid.UUID, qty int64) error {
	if qty < 1 {
		return ErrInvalidQuantity
	}
	res := s.conn(ctx).Model(&cartItemRecord{}).Where("id = ? AND cart_id = ?", itemID, cartID).Update("quantity", qty)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormCarts) DeleteItem(ctx context.Context, cartID, itemID uuid.UUID) error {
	res := s.conn(ctx).Delete(&cartItemRecord{}, "id = ? AND cart_id = ?", itemID, cartID)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormCarts) Clear(ctx context.Context, cartID uuid.UUID) error {
	return translate(s.conn(ctx).Delete(&cartItemRecord{}, "cart_id = ?", cartID).Error)
}

// GormOrders OrderRepository поверх Postgres
type GormOrders struct{ *GormStore }

var _ OrderRepository = (*GormOrders)(nil)

func (s *GormOrders) Create(ctx context.Context, o *domain.Order) error {
	rec := orderRecord{
		ID: o.ID, UserID: o.UserID, OrderNumber: o.OrderNumber, TotalAmount: o.TotalAmount,
		Status: string(o.Status), PaymentMethod: string(o.PaymentMethod),
		ShippingAddress: o.ShippingAddress, Notes: o.Notes,
	}
	if o.IdempotencyKey != "" {
		key := o.IdempotencyKey
		rec.IdempotencyKey = &key
	}
	if err := s.conn(ctx).Create(&rec).Error; err != nil {
		return translate(err)
	}
	o.ID, o.CreatedAt, o.UpdatedAt = rec.ID, rec.CreatedAt, rec.UpdatedAt
	return nil
}

func (s *GormOrders) AddItems(ctx context.Context, orderID uuid.UUID, items []domain.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	var existing int64
	if err := s.conn(ctx).Model(&orderItemRecord{}).Where("order_id = ?", orderID).Count(&existing).Error; err != nil {
		return translate(err)
	}
	recs := make([]orderItemRecord, 0, len(items))
	for i, it := range items {
		recs = append(recs, orderItemRecord{
			ID: it.ID, OrderID: orderID, LineNo: int(existing) + i + 1, ProductID: it.ProductID,
			ProductName: it.ProductName, ProductPrice: it.ProductPrice, Quantity: it.Quantity, Subtotal: it.Subtotal,
		})
	}
	if err := s.conn(ctx).Create(&recs).Error; err != nil {
		return translate(err)
	}
	for i := range items {
		items[i].ID = recs[i].ID
		items[i].OrderID = orderID
	}
	return nil
}

func (s *GormOrders) GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	var rec orderRecord
	if err := s.conn(ctx).First(&rec, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	orders, err := s.withItems(ctx, []orderRecord{rec})
	if err != nil {
		return nil, err
	}
	return &orders[0], nil
}

func (s *GormOrders) GetByIdempotencyKey(ctx context.Context, userID uuid.UUID, key string) (*domain.Order, error) {
	if key == "" {
		return nil, ErrNotFound
	}
	var rec orderRecord
	if err := s.conn(ctx).First(&rec, "user_id = ? AND idempotency_key = ?", userID, key).Error; err != nil {
		return nil, translate(err)
	}
	orders, err := s.withItems(ctx, []orderRecord{rec})
	if err != nil {
		return nil, err
	}
	return &orders[0], nil
}

func (s *GormOrders) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Order, error) {
	var recs []orderRecord
	if err := s.conn(ctx).Where("user_id = ?", userID).Order("created_at DESC, id DESC").Find(&recs).Error; err != nil {
		return nil, translate(err)
	}
	return s.withItems(ctx, recs)
}

func (s *GormOrders) ListAll(ctx context.Context, status domain.OrderStatus) ([]domain.Order, error) {
	q := s.conn(ctx).Model(&orderRecord{})
	if status != "" {
		q = q.Where("status = ?", string(status))
	}
	var recs []orderRecord
	if err := q.Order("created_at DESC, id DESC").Find(&recs).Error; err != nil {
		return nil, translate(err)
	}
	return s.withItems(ctx, recs)
}

func (s *GormOrders) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus) error {
	res := s.conn(ctx).Model(&orderRecord{}).Where("id = ?", id).
		UpdateColumns(map[string]any{"status": string(status), "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// withItems подгружает позиции одним запросом
func (s *GormOrders) withItems(ctx context.Context, recs []orderRecord) ([]domain.Order, error) {
	out := make([]domain.Order, 0, len(recs))
	if len(recs) == 0 {
		return out, nil
	}
	ids := make([]uuid.UUID, 0, len(recs))
	for _, r := range recs {
		ids = append(ids, r.ID)
	}
	var items []orderItemRecord
	if err := s.conn(ctx).Where("order_id IN ?", ids).Order("line_no ASC").Find(&items).Error; err != nil {
		return nil, translate(err)
	}
	byOrder := make(map[uuid.UUID][]domain.OrderItem, len(recs))
	for _, it := range items {
		byOrder[it.OrderID] = append(byOrder[it.OrderID], it.toDomain())
	}
	for _, r := range recs {
		out = append(out, r.toDomain(byOrder[r.ID]))
	}
	return out, nil
}

// GormProfiles ProfileRepository поверх Postgres
type GormProfiles struct{ *GormStore }

var _ ProfileRepository = (*GormProfiles)(nil)

func (s *GormProfiles) Get(ctx context.Context, userID uuid.UUID) (*domain.Profile, error) {
	var rec profileRecord
	if err := s.conn(ctx).First(&rec, "id = ?", userID).Error; err != nil {
		return nil, translate(err)
	}
	return &domain.Profile{
		ID: rec.ID, FullName: rec.FullName, Phone: rec.Phone, Address: rec.Address,
		CreatedAt: rec.CreatedAt, UpdatedAt: rec.UpdatedAt,
	}, nil
}

func (s *GormProfiles) Upsert(ctx context.Context, p *domain.Profile) error {
	rec := profileRecord{ID: p.ID, FullName: p.FullName, Phone: p.Phone, Address: p.Address}
	err := s.conn(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"full_name", "phone", "address", "updated_at"}),
	}).Create(&rec).Error
	if err != nil {
		return translate(err)
	}
	cur, err := s.Get(ctx, p.ID)
	if err != nil {
		return err
	}
	*p = *cur
	return nil
}

// GormRoles RoleRepository поверх таблицы user_roles
type GormRoles struct{ *GormStore }

var _ RoleRepository = (*GormRoles)(nil)

func (s *GormRoles) Roles(ctx context.Context, userID uuid.UUID) ([]domain.Role, error) {
	var recs []userRoleRecord
	if err := s.conn(ctx).Where("user_id = ?", userID).Order("role ASC").Find(&recs).Error; err != nil {
		return nil, translate(err)
	}
	out := make([]domain.Role, 0, len(recs))
	for _, r := range recs {
		out = append(out, domain.Role(r.Role))
	}
	return out, nil
}

func (s *GormRoles) Grant(ctx context.Context, userID uuid.UUID, role domain.Role) error {
	rec := userRoleRecord{UserID: userID, Role: string(role)}
	return translate(s.conn(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&rec).Error)
}
