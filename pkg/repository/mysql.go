package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/example/candleshop/pkg/config"
	"github.com/example/candleshop/pkg/models"
)

type sqlTxKey struct{}

// sequence backs Sequencer for the SQL store.
type sequence struct {
	Name  string `gorm:"primaryKey;type:varchar(64)"`
	Value int64  `gorm:"not null"`
}

func (sequence) TableName() string {
	return "sequences"
}

// SQLRepository stores the shop in MySQL through gorm.
type SQLRepository struct {
	db *gorm.DB
}

func gormConfig() *gorm.Config {
	return &gorm.Config{
		SkipDefaultTransaction: true,
		TranslateError:         true,
	}
}

func NewSQLRepository(cfg *config.MySQLConfig) (*SQLRepository, error) {
	db, err := gorm.Open(mysql.Open(cfg.DSN()), gormConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MySQL: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)

	// Auto migrate
	if err := db.AutoMigrate(
		&models.Product{},
		&models.User{},
		&models.Order{},
		&models.Shipment{},
		&models.Wishlist{},
		&sequence{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}

	return &SQLRepository{db: db}, nil
}

// NewSQLRepositoryFromDB wraps an already opened gorm handle.
func NewSQLRepositoryFromDB(db *gorm.DB) *SQLRepository {
	return &SQLRepository{db: db}
}

func (s *SQLRepository) conn(ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value(sqlTxKey{}).(*gorm.DB); ok {
		return tx.WithContext(ctx)
	}
	return s.db.WithContext(ctx)
}

func (s *SQLRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(sqlTxKey{}).(*gorm.DB); ok {
		return fn(ctx)
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, sqlTxKey{}, tx))
	})
}

func (s *SQLRepository) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *SQLRepository) Close(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func translateGormError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	}
	return err
}

func (s *SQLRepository) exists(ctx context.Context, model interface{}, id string) (bool, error) {
	var n int64
	if err := s.conn(ctx).Model(model).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *SQLRepository) conflictOrMissing(ctx context.Context, model interface{}, id string, conflict error) error {
	ok, err := s.exists(ctx, model, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return conflict
}

// Products

func (s *SQLRepository) CreateProduct(ctx context.Context, p *models.Product) error {
	return translateGormError(s.conn(ctx).Create(p).Error)
}

func (s *SQLRepository) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	var p models.Product
	if err := s.conn(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, translateGormError(err)
	}
	return &p, nil
}

func (s *SQLRepository) ListProducts(ctx context.Context, filter ProductFilter) ([]*models.Product, error) {
	query := s.conn(ctx).Model(&models.Product{})
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	products := make([]*models.Product, 0)
	if err := query.Order("created_at DESC").Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func (s *SQLRepository) UpdateProduct(ctx context.Context, p *models.Product) error {
	res := s.conn(ctx).Model(&models.Product{}).Where("id = ?", p.ID).Updates(map[string]interface{}{
		"name":        p.Name,
		"description": p.Description,
		"price":       p.Price,
		"category":    p.Category,
		"image":       p.Image,
		"updated_at":  p.UpdatedAt,
	})
	if res.Error != nil {
		return translateGormError(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLRepository) SetStock(ctx context.Context, id string, from, to int) error {
	res := s.conn(ctx).Model(&models.Product{}).
		Where("id = ? AND stock = ?", id, from).
		Updates(map[string]interface{}{"stock": to, "updated_at": time.Now()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return s.conflictOrMissing(ctx, &models.Product{}, id, ErrConflict)
	}
	return nil
}

func (s *SQLRepository) DeleteProduct(ctx context.Context, id string) error {
	res := s.conn(ctx).Where("id = ?", id).Delete(&models.Product{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLRepository) DecrementStock(ctx context.Context, id string, qty int) error {
	res := s.conn(ctx).Model(&models.Product{}).
		Where("id = ? AND stock >= ?", id, qty).
		Updates(map[string]interface{}{
			"stock":      gorm.Expr("stock - ?", qty),
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return s.conflictOrMissing(ctx, &models.Product{}, id, ErrInsufficientStock)
	}
	return nil
}

func (s *SQLRepository) IncrementStock(ctx context.Context, id string, qty int) error {
	res := s.conn(ctx).Model(&models.Product{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"stock":      gorm.Expr("stock + ?", qty),
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLRepository) CountLowStock(ctx context.Context, threshold int) (int64, error) {
	var n int64
	err := s.conn(ctx).Model(&models.Product{}).Where("stock < ?", threshold).Count(&n).Error
	return n, err
}

// Users

func (s *SQLRepository) CreateUser(ctx context.Context, u *models.User) error {
	return translateGormError(s.conn(ctx).Create(u).Error)
}

func (s *SQLRepository) GetUser(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	if err := s.conn(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		return nil, translateGormError(err)
	}
	return &u, nil
}

func (s *SQLRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.conn(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		return nil, translateGormError(err)
	}
	return &u, nil
}

func (s *SQLRepository) GetUsers(ctx context.Context, ids []string) (map[string]*models.User, error) {
	out := make(map[string]*models.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var users []*models.User
	if err := s.conn(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	for _, u := range users {
		out[u.ID] = u
	}
	return out, nil
}

func (s *SQLRepository) UpdateUser(ctx context.Context, u *models.User) error {
	res := s.conn(ctx).Model(&models.User{}).Where("id = ?", u.ID).Updates(map[string]interface{}{
		"name":       u.Name,
		"email":      u.Email,
		"password":   u.Password,
		"is_admin":   u.IsAdmin,
		"phone":      u.Phone,
		"address":    u.Address,
		"city":       u.City,
		"country":    u.Country,
		"updated_at": u.UpdatedAt,
	})
	if res.Error != nil {
		return translateGormError(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLRepository) CountCustomers(ctx context.Context) (int64, error) {
	var n int64
	err := s.conn(ctx).Model(&models.User{}).Where("is_admin = ?", false).Count(&n).Error
	return n, err
}

// Orders

func (s *SQLRepository) CreateOrder(ctx context.Context, o *models.Order) error {
	return translateGormError(s.conn(ctx).Create(o).Error)
}

func (s *SQLRepository) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	var o models.Order
	if err := s.conn(ctx).Where("id = ?", id).First(&o).Error; err != nil {
		return nil, translateGormError(err)
	}
	return &o, nil
}

func (s *SQLRepository) ListOrders(ctx context.Context, filter OrderFilter) ([]*models.Order, error) {
	query := s.conn(ctx).Model(&models.Order{})
	if filter.UserID != "" {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if len(filter.Statuses) > 0 {
		query = query.Where("status IN ?", filter.Statuses)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	orders := make([]*models.Order, 0)
	if err := query.Order("created_at DESC").Order("order_number DESC").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (s *SQLRepository) SetOrderStatus(ctx context.Context, id string, from, to models.OrderStatus) error {
	res := s.conn(ctx).Model(&models.Order{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]interface{}{"status": to, "updated_at": time.Now()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return s.conflictOrMissing(ctx, &models.Order{}, id, ErrConflict)
	}
	return nil
}

func (s *SQLRepository) DeleteOrder(ctx context.Context, id string) error {
	res := s.conn(ctx).Where("id = ?", id).Delete(&models.Order{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLRepository) MaxOrderNumber(ctx context.Context) (int64, error) {
	var n int64
	err := s.conn(ctx).Model(&models.Order{}).
		Select("COALESCE(MAX(CAST(order_number AS UNSIGNED)), 0)").
		Scan(&n).Error
	return n, err
}

func (s *SQLRepository) CountOrders(ctx context.Context) (int64, error) {
	var n int64
	err := s.conn(ctx).Model(&models.Order{}).Count(&n).Error
	return n, err
}

func (s *SQLRepository) TotalSales(ctx context.Context) (float64, error) {
	var total float64
	err := s.conn(ctx).Model(&models.Order{}).Select("COALESCE(SUM(total_price), 0)").Scan(&total).Error
	return total, err
}

// Shipments

func (s *SQLRepository) CreateShipment(ctx context.Context, sh *models.Shipment) error {
	return translateGormError(s.conn(ctx).Create(sh).Error)
}

func (s *SQLRepository) GetShipment(ctx context.Context, id string) (*models.Shipment, error) {
	var sh models.Shipment
	if err := s.conn(ctx).Where("id = ?", id).First(&sh).Error; err != nil {
		return nil, translateGormError(err)
	}
	return &sh, nil
}

func (s *SQLRepository) GetShipmentByOrder(ctx context.Context, orderID string) (*models.Shipment, error) {
	var sh models.Shipment
	if err := s.conn(ctx).Where("order_id = ?", orderID).First(&sh).Error; err != nil {
		return nil, translateGormError(err)
	}
	return &sh, nil
}

func (s *SQLRepository) ListShipments(ctx context.Context) ([]*models.Shipment, error) {
	shipments := make([]*models.Shipment, 0)
	if err := s.conn(ctx).Order("created_at DESC").Find(&shipments).Error; err != nil {
		return nil, err
	}
	return shipments, nil
}

func (s *SQLRepository) UpdateShipment(ctx context.Context, sh *models.Shipment, from models.ShipmentStatus) error {
	updates := map[string]interface{}{
		"status":          sh.Status,
		"tracking_number": sh.TrackingNumber,
		"shipping_method": sh.ShippingMethod,
		"updated_at":      time.Now(),
	}
	if sh.EstimatedDelivery != nil {
		updates["estimated_delivery"] = *sh.EstimatedDelivery
	}
	res := s.conn(ctx).Model(&models.Shipment{}).
		Where("id = ? AND status = ?", sh.ID, from).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return s.conflictOrMissing(ctx, &models.Shipment{}, sh.ID, ErrConflict)
	}
	return nil
}

// Wishlists

func (s *SQLRepository) GetWishlist(ctx context.Context, userID string) (*models.Wishlist, error) {
	var w models.Wishlist
	if err := s.conn(ctx).Where("user_id = ?", userID).First(&w).Error; err != nil {
		return nil, translateGormError(err)
	}
	return &w, nil
}

// modifyWishlist locks the user's wishlist row, applies fn and saves it.
func (s *SQLRepository) modifyWishlist(ctx context.Context, userID string, create bool, fn func(w *models.Wishlist)) (*models.Wishlist, error) {
	var out *models.Wishlist
	err := s.WithTransaction(ctx, func(ctx context.Context) error {
		var w models.Wishlist
		err := s.conn(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ?", userID).First(&w).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound) && create:
			now := time.Now()
			w = models.Wishlist{ID: NewID(), UserID: userID, Products: []string{}, CreatedAt: now, UpdatedAt: now}
			fn(&w)
			if err := s.conn(ctx).Create(&w).Error; err != nil {
				return translateGormError(err)
			}
		case err != nil:
			return translateGormError(err)
		default:
			fn(&w)
			w.UpdatedAt = time.Now()
			if err := s.conn(ctx).Save(&w).Error; err != nil {
				return err
			}
		}
		out = &w
		return nil
	})
	return out, err
}

func (s *SQLRepository) AddToWishlist(ctx context.Context, userID, productID string) (*models.Wishlist, error) {
	return s.modifyWishlist(ctx, userID, true, func(w *models.Wishlist) {
		if !w.Has(productID) {
			w.Products = append(w.Products, productID)
		}
	})
}

func (s *SQLRepository) RemoveFromWishlist(ctx context.Context, userID, productID string) (*models.Wishlist, error) {
	return s.modifyWishlist(ctx, userID, false, func(w *models.Wishlist) {
		kept := make([]string, 0, len(w.Products))
		for _, id := range w.Products {
			if id != productID {
				kept = append(kept, id)
			}
		}
		w.Products = kept
	})
}

// Next implements Sequencer with an upserted counter row. The upsert holds
// the row lock until the surrounding transaction commits, so the read that
// follows sees this caller's increment.
func (s *SQLRepository) Next(ctx context.Context, name string) (int64, error) {
	var value int64
	err := s.WithTransaction(ctx, func(ctx context.Context) error {
		err := s.conn(ctx).Clauses(clause.OnConflict{
			DoUpdates: clause.Assignments(map[string]interface{}{"value": gorm.Expr("value + 1")}),
		}).Create(&sequence{Name: name, Value: 1}).Error
		if err != nil {
			return err
		}
		var seq sequence
		if err := s.conn(ctx).Where("name = ?", name).First(&seq).Error; err != nil {
			return err
		}
		value = seq.Value
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to advance sequence %s: %w", name, err)
	}
	return value, nil
}

// Seed raises the counter row to at least value.
func (s *SQLRepository) Seed(ctx context.Context, name string, value int64) error {
	err := s.conn(ctx).Clauses(clause.OnConflict{
		DoUpdates: clause.Assignments(map[string]interface{}{"value": gorm.Expr("GREATEST(value, ?)", value)}),
	}).Create(&sequence{Name: name, Value: value}).Error
	if err != nil {
		return fmt.Errorf("failed to seed sequence %s: %w", name, err)
	}
	return nil
}
