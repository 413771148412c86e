package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/example/candleshop/pkg/config"
	"github.com/example/candleshop/pkg/models"
)

const (
	productsCollection  = "products"
	usersCollection     = "users"
	ordersCollection    = "orders"
	shipmentsCollection = "shipments"
	wishlistsCollection = "wishlists"
	countersCollection  = "counters"
)

type MongoRepository struct {
	client   *mongo.Client
	database *mongo.Database
	config   *config.MongoDBConfig
}

func NewMongoRepository(cfg *config.MongoDBConfig) (*MongoRepository, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, err
	}

	m := &MongoRepository{
		client:   client,
		database: client.Database(cfg.Database),
		config:   cfg,
	}
	if err := m.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to create indexes: %w", err)
	}
	return m, nil
}

func (m *MongoRepository) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, nil)
}

func (m *MongoRepository) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

func (m *MongoRepository) col(name string) *mongo.Collection {
	return m.database.Collection(name)
}

// EnsureIndexes creates the unique indexes the data model relies on.
func (m *MongoRepository) EnsureIndexes(ctx context.Context) error {
	unique := options.Index().SetUnique(true)
	indexes := map[string][]mongo.IndexModel{
		usersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: unique},
		},
		ordersCollection: {
			{Keys: bson.D{{Key: "orderNumber", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "user", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
		shipmentsCollection: {
			{Keys: bson.D{{Key: "order", Value: 1}}, Options: unique},
		},
		wishlistsCollection: {
			{Keys: bson.D{{Key: "user", Value: 1}}, Options: unique},
		},
		productsCollection: {
			{Keys: bson.D{{Key: "category", Value: 1}}},
		},
	}
	for name, idx := range indexes {
		if _, err := m.col(name).Indexes().CreateMany(ctx, idx); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

// WithTransaction runs fn in a multi-document transaction when transactions
// are enabled in config. Standalone servers cannot run transactions, so
// without the flag fn runs directly and callers rely on compensation.
func (m *MongoRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if !m.config.Transactions || mongo.SessionFromContext(ctx) != nil {
		return fn(ctx)
	}

	sess, err := m.client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

func translateMongoError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return ErrDuplicate
	}
	return err
}

func (m *MongoRepository) findOne(ctx context.Context, collection string, filter interface{}, out interface{}) error {
	return translateMongoError(m.col(collection).FindOne(ctx, filter).Decode(out))
}

func (m *MongoRepository) exists(ctx context.Context, collection, id string) (bool, error) {
	n, err := m.col(collection).CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// conflictOrMissing classifies a conditional update that matched nothing.
func (m *MongoRepository) conflictOrMissing(ctx context.Context, collection, id string, conflict error) error {
	ok, err := m.exists(ctx, collection, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return conflict
}

// Products

func (m *MongoRepository) CreateProduct(ctx context.Context, p *models.Product) error {
	_, err := m.col(productsCollection).InsertOne(ctx, p)
	return translateMongoError(err)
}

func (m *MongoRepository) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	var p models.Product
	if err := m.findOne(ctx, productsCollection, bson.M{"_id": id}, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (m *MongoRepository) ListProducts(ctx context.Context, filter ProductFilter) ([]*models.Product, error) {
	query := bson.M{}
	if filter.Category != "" {
		query["category"] = filter.Category
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	cursor, err := m.col(productsCollection).Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	products := make([]*models.Product, 0)
	if err = cursor.All(ctx, &products); err != nil {
		return nil, err
	}
	return products, nil
}

func (m *MongoRepository) UpdateProduct(ctx context.Context, p *models.Product) error {
	update := bson.M{"$set": bson.M{
		"name":        p.Name,
		"description": p.Description,
		"price":       p.Price,
		"category":    p.Category,
		"image":       p.Image,
		"updatedAt":   p.UpdatedAt,
	}}
	res, err := m.col(productsCollection).UpdateOne(ctx, bson.M{"_id": p.ID}, update)
	if err != nil {
		return translateMongoError(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *MongoRepository) SetStock(ctx context.Context, id string, from, to int) error {
	filter := bson.M{"_id": id, "stock": from}
	update := bson.M{"$set": bson.M{"stock": to, "updatedAt": time.Now()}}
	res, err := m.col(productsCollection).UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return m.conflictOrMissing(ctx, productsCollection, id, ErrConflict)
	}
	return nil
}

func (m *MongoRepository) DeleteProduct(ctx context.Context, id string) error {
	res, err := m.col(productsCollection).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *MongoRepository) DecrementStock(ctx context.Context, id string, qty int) error {
	filter := bson.M{"_id": id, "stock": bson.M{"$gte": qty}}
	update := bson.M{
		"$inc": bson.M{"stock": -qty},
		"$set": bson.M{"updatedAt": time.Now()},
	}
	res, err := m.col(productsCollection).UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return m.conflictOrMissing(ctx, productsCollection, id, ErrInsufficientStock)
	}
	return nil
}

func (m *MongoRepository) IncrementStock(ctx context.Context, id string, qty int) error {
	update := bson.M{
		"$inc": bson.M{"stock": qty},
		"$set": bson.M{"updatedAt": time.Now()},
	}
	res, err := m.col(productsCollection).UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *MongoRepository) CountLowStock(ctx context.Context, threshold int) (int64, error) {
	return m.col(productsCollection).CountDocuments(ctx, bson.M{"stock": bson.M{"$lt": threshold}})
}

// Users

func (m *MongoRepository) CreateUser(ctx context.Context, u *models.User) error {
	_, err := m.col(usersCollection).InsertOne(ctx, u)
	return translateMongoError(err)
}

func (m *MongoRepository) GetUser(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	if err := m.findOne(ctx, usersCollection, bson.M{"_id": id}, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (m *MongoRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := m.findOne(ctx, usersCollection, bson.M{"email": email}, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (m *MongoRepository) GetUsers(ctx context.Context, ids []string) (map[string]*models.User, error) {
	out := make(map[string]*models.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	cursor, err := m.col(usersCollection).Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var users []*models.User
	if err = cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	for _, u := range users {
		out[u.ID] = u
	}
	return out, nil
}

func (m *MongoRepository) UpdateUser(ctx context.Context, u *models.User) error {
	res, err := m.col(usersCollection).ReplaceOne(ctx, bson.M{"_id": u.ID}, u)
	if err != nil {
		return translateMongoError(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *MongoRepository) CountCustomers(ctx context.Context) (int64, error) {
	return m.col(usersCollection).CountDocuments(ctx, bson.M{"isAdmin": false})
}

// Orders

func (m *MongoRepository) CreateOrder(ctx context.Context, o *models.Order) error {
	_, err := m.col(ordersCollection).InsertOne(ctx, o)
	return translateMongoError(err)
}

func (m *MongoRepository) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	var o models.Order
	if err := m.findOne(ctx, ordersCollection, bson.M{"_id": id}, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

func (m *MongoRepository) ListOrders(ctx context.Context, filter OrderFilter) ([]*models.Order, error) {
	query := bson.M{}
	if filter.UserID != "" {
		query["user"] = filter.UserID
	}
	if len(filter.Statuses) > 0 {
		query["status"] = bson.M{"$in": filter.Statuses}
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "orderNumber", Value: -1}})
	if filter.Limit > 0 {
		opts.SetLimit(int64(filter.Limit))
	}

	cursor, err := m.col(ordersCollection).Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	orders := make([]*models.Order, 0)
	if err = cursor.All(ctx, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (m *MongoRepository) SetOrderStatus(ctx context.Context, id string, from, to models.OrderStatus) error {
	filter := bson.M{"_id": id, "status": from}
	update := bson.M{"$set": bson.M{"status": to, "updatedAt": time.Now()}}
	res, err := m.col(ordersCollection).UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return m.conflictOrMissing(ctx, ordersCollection, id, ErrConflict)
	}
	return nil
}

func (m *MongoRepository) DeleteOrder(ctx context.Context, id string) error {
	res, err := m.col(ordersCollection).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// MaxOrderNumber compares order numbers as integers so "100000" sorts
// after "99999".
func (m *MongoRepository) MaxOrderNumber(ctx context.Context) (int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "highest", Value: bson.D{{Key: "$max", Value: bson.D{
				{Key: "$convert", Value: bson.D{
					{Key: "input", Value: "$orderNumber"},
					{Key: "to", Value: "long"},
					{Key: "onError", Value: int64(0)},
					{Key: "onNull", Value: int64(0)},
				}},
			}}}},
		}}},
	}
	cursor, err := m.col(ordersCollection).Aggregate(ctx, pipeline)
	if err != nil {
		return 0, err
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Highest int64 `bson:"highest"`
	}
	if err = cursor.All(ctx, &rows); err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].Highest, nil
}

func (m *MongoRepository) CountOrders(ctx context.Context) (int64, error) {
	return m.col(ordersCollection).CountDocuments(ctx, bson.M{})
}

func (m *MongoRepository) TotalSales(ctx context.Context) (float64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "totalSales", Value: bson.D{{Key: "$sum", Value: "$totalPrice"}}},
		}}},
	}
	cursor, err := m.col(ordersCollection).Aggregate(ctx, pipeline)
	if err != nil {
		return 0, err
	}
	defer cursor.Close(ctx)

	var rows []struct {
		TotalSales float64 `bson:"totalSales"`
	}
	if err = cursor.All(ctx, &rows); err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].TotalSales, nil
}

// Shipments

func (m *MongoRepository) CreateShipment(ctx context.Context, s *models.Shipment) error {
	_, err := m.col(shipmentsCollection).InsertOne(ctx, s)
	return translateMongoError(err)
}

func (m *MongoRepository) GetShipment(ctx context.Context, id string) (*models.Shipment, error) {
	var s models.Shipment
	if err := m.findOne(ctx, shipmentsCollection, bson.M{"_id": id}, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (m *MongoRepository) GetShipmentByOrder(ctx context.Context, orderID string) (*models.Shipment, error) {
	var s models.Shipment
	if err := m.findOne(ctx, shipmentsCollection, bson.M{"order": orderID}, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (m *MongoRepository) ListShipments(ctx context.Context) ([]*models.Shipment, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := m.col(shipmentsCollection).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	shipments := make([]*models.Shipment, 0)
	if err = cursor.All(ctx, &shipments); err != nil {
		return nil, err
	}
	return shipments, nil
}

func (m *MongoRepository) UpdateShipment(ctx context.Context, s *models.Shipment, from models.ShipmentStatus) error {
	filter := bson.M{"_id": s.ID, "status": from}
	set := bson.M{
		"status":         s.Status,
		"trackingNumber": s.TrackingNumber,
		"shippingMethod": s.ShippingMethod,
		"updatedAt":      time.Now(),
	}
	if s.EstimatedDelivery != nil {
		set["estimatedDelivery"] = *s.EstimatedDelivery
	}
	res, err := m.col(shipmentsCollection).UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return m.conflictOrMissing(ctx, shipmentsCollection, s.ID, ErrConflict)
	}
	return nil
}

// Wishlists

func (m *MongoRepository) GetWishlist(ctx context.Context, userID string) (*models.Wishlist, error) {
	var w models.Wishlist
	if err := m.findOne(ctx, wishlistsCollection, bson.M{"user": userID}, &w); err != nil {
		return nil, err
	}
	return &w, nil
}

func (m *MongoRepository) AddToWishlist(ctx context.Context, userID, productID string) (*models.Wishlist, error) {
	now := time.Now()
	update := bson.M{
		"$addToSet":    bson.M{"products": productID},
		"$set":         bson.M{"updatedAt": now},
		"$setOnInsert": bson.M{"_id": NewID(), "createdAt": now},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var w models.Wishlist
	err := m.col(wishlistsCollection).FindOneAndUpdate(ctx, bson.M{"user": userID}, update, opts).Decode(&w)
	if err != nil {
		return nil, translateMongoError(err)
	}
	return &w, nil
}

func (m *MongoRepository) RemoveFromWishlist(ctx context.Context, userID, productID string) (*models.Wishlist, error) {
	update := bson.M{
		"$pull": bson.M{"products": productID},
		"$set":  bson.M{"updatedAt": time.Now()},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var w models.Wishlist
	err := m.col(wishlistsCollection).FindOneAndUpdate(ctx, bson.M{"user": userID}, update, opts).Decode(&w)
	if err != nil {
		return nil, translateMongoError(err)
	}
	return &w, nil
}

// Next implements Sequencer with a counter document updated by $inc.
func (m *MongoRepository) Next(ctx context.Context, name string) (int64, error) {
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err := m.col(countersCollection).
		FindOneAndUpdate(ctx, bson.M{"_id": name}, bson.M{"$inc": bson.M{"seq": int64(1)}}, opts).
		Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("failed to advance sequence %s: %w", name, err)
	}
	return counter.Seq, nil
}

// Seed raises the counter document to at least value.
func (m *MongoRepository) Seed(ctx context.Context, name string, value int64) error {
	_, err := m.col(countersCollection).UpdateOne(ctx,
		bson.M{"_id": name},
		bson.M{"$max": bson.M{"seq": value}},
		options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to seed sequence %s: %w", name, err)
	}
	return nil
}
