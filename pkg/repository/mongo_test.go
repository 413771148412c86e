package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/example/candleshop/pkg/config"
	"github.com/example/candleshop/pkg/models"
)

func newMockMongo(mt *mtest.T) *MongoRepository {
	return &MongoRepository{
		client:   mt.Client,
		database: mt.DB,
		config:   &config.MongoDBConfig{Database: mt.DB.Name()},
	}
}

func updated(n int) bson.D {
	return mtest.CreateSuccessResponse(bson.E{Key: "n", Value: n}, bson.E{Key: "nModified", Value: n})
}

func deleted(n int) bson.D {
	return mtest.CreateSuccessResponse(bson.E{Key: "n", Value: n})
}

// counted answers the aggregate behind CountDocuments.
func counted(ns string, n int) bson.D {
	if n == 0 {
		return mtest.CreateCursorResponse(0, ns, mtest.FirstBatch)
	}
	return mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{{Key: "n", Value: n}})
}

func duplicateKey() bson.D {
	return mtest.CreateWriteErrorsResponse(mtest.WriteError{Index: 0, Code: 11000, Message: "E11000 duplicate key error"})
}

func TestMongoRepository_DecrementStock(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("in stock", func(mt *mtest.T) {
		mt.AddMockResponses(updated(1))
		assert.NoError(mt, newMockMongo(mt).DecrementStock(ctx, "p1", 2))
	})

	mt.Run("insufficient", func(mt *mtest.T) {
		mt.AddMockResponses(updated(0), counted("shop.products", 1))
		assert.ErrorIs(mt, newMockMongo(mt).DecrementStock(ctx, "p1", 20), ErrInsufficientStock)
	})

	mt.Run("missing product", func(mt *mtest.T) {
		mt.AddMockResponses(updated(0), counted("shop.products", 0))
		assert.ErrorIs(mt, newMockMongo(mt).DecrementStock(ctx, "gone", 1), ErrNotFound)
	})
}

func TestMongoRepository_IncrementStock_Missing(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("missing", func(mt *mtest.T) {
		mt.AddMockResponses(updated(0))
		assert.ErrorIs(mt, newMockMongo(mt).IncrementStock(context.Background(), "gone", 1), ErrNotFound)
	})
}

func TestMongoRepository_SetStock(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("matches", func(mt *mtest.T) {
		mt.AddMockResponses(updated(1))
		assert.NoError(mt, newMockMongo(mt).SetStock(ctx, "p1", 5, 9))
	})

	mt.Run("stock moved", func(mt *mtest.T) {
		mt.AddMockResponses(updated(0), counted("shop.products", 1))
		assert.ErrorIs(mt, newMockMongo(mt).SetStock(ctx, "p1", 5, 9), ErrConflict)
	})
}

func TestMongoRepository_CreateDuplicates(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("user email", func(mt *mtest.T) {
		mt.AddMockResponses(duplicateKey())
		err := newMockMongo(mt).CreateUser(ctx, &models.User{ID: "u1", Email: "ada@shop.test"})
		assert.ErrorIs(mt, err, ErrDuplicate)
	})

	mt.Run("order number", func(mt *mtest.T) {
		mt.AddMockResponses(duplicateKey())
		err := newMockMongo(mt).CreateOrder(ctx, &models.Order{ID: "o1", OrderNumber: "10001"})
		assert.ErrorIs(mt, err, ErrDuplicate)
	})

	mt.Run("shipment for order", func(mt *mtest.T) {
		mt.AddMockResponses(duplicateKey())
		err := newMockMongo(mt).CreateShipment(ctx, &models.Shipment{ID: "s1", OrderID: "o1"})
		assert.ErrorIs(mt, err, ErrDuplicate)
	})
}

func TestMongoRepository_GetOrder(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("found", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "shop.orders", mtest.FirstBatch, bson.D{
			{Key: "_id", Value: "o1"},
			{Key: "orderNumber", Value: "10001"},
			{Key: "status", Value: "Processing"},
		}))
		o, err := newMockMongo(mt).GetOrder(ctx, "o1")
		require.NoError(mt, err)
		assert.Equal(mt, "10001", o.OrderNumber)
		assert.Equal(mt, models.OrderStatusProcessing, o.Status)
	})

	mt.Run("not found", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "shop.orders", mtest.FirstBatch))
		_, err := newMockMongo(mt).GetOrder(ctx, "o1")
		assert.ErrorIs(mt, err, ErrNotFound)
	})
}

func TestMongoRepository_SetOrderStatus(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("moved", func(mt *mtest.T) {
		mt.AddMockResponses(updated(1))
		assert.NoError(mt, newMockMongo(mt).SetOrderStatus(ctx, "o1", models.OrderStatusProcessing, models.OrderStatusShipped))
	})

	mt.Run("status changed underneath", func(mt *mtest.T) {
		mt.AddMockResponses(updated(0), counted("shop.orders", 1))
		err := newMockMongo(mt).SetOrderStatus(ctx, "o1", models.OrderStatusProcessing, models.OrderStatusCancelled)
		assert.ErrorIs(mt, err, ErrConflict)
	})

	mt.Run("missing order", func(mt *mtest.T) {
		mt.AddMockResponses(updated(0), counted("shop.orders", 0))
		err := newMockMongo(mt).SetOrderStatus(ctx, "o1", models.OrderStatusProcessing, models.OrderStatusCancelled)
		assert.ErrorIs(mt, err, ErrNotFound)
	})
}

func TestMongoRepository_UpdateShipment_Conflict(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("conflict", func(mt *mtest.T) {
		mt.AddMockResponses(updated(0), counted("shop.shipments", 1))
		s := &models.Shipment{ID: "s1", Status: models.ShipmentStatusInTransit}
		err := newMockMongo(mt).UpdateShipment(context.Background(), s, models.ShipmentStatusPreparing)
		assert.ErrorIs(mt, err, ErrConflict)
	})
}

func TestMongoRepository_DeleteOrder(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("deleted", func(mt *mtest.T) {
		mt.AddMockResponses(deleted(1))
		assert.NoError(mt, newMockMongo(mt).DeleteOrder(ctx, "o1"))
	})

	mt.Run("missing", func(mt *mtest.T) {
		mt.AddMockResponses(deleted(0))
		assert.ErrorIs(mt, newMockMongo(mt).DeleteOrder(ctx, "o1"), ErrNotFound)
	})
}

func TestMongoRepository_AddToWishlist(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("upserts", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: bson.D{
			{Key: "_id", Value: "w1"},
			{Key: "user", Value: "u1"},
			{Key: "products", Value: bson.A{"p1", "p2"}},
		}}))
		w, err := newMockMongo(mt).AddToWishlist(context.Background(), "u1", "p2")
		require.NoError(mt, err)
		assert.Equal(mt, "u1", w.UserID)
		assert.Equal(mt, []string{"p1", "p2"}, w.Products)
	})
}

func TestMongoRepository_RemoveFromWishlist_Missing(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("no wishlist", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}))
		_, err := newMockMongo(mt).RemoveFromWishlist(context.Background(), "u1", "p1")
		assert.ErrorIs(mt, err, ErrNotFound)
	})
}

func TestMongoRepository_Sequence(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("next", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: bson.D{
			{Key: "_id", Value: OrderNumberSequence},
			{Key: "seq", Value: int64(4)},
		}}))
		n, err := newMockMongo(mt).Next(ctx, OrderNumberSequence)
		require.NoError(mt, err)
		assert.Equal(mt, int64(4), n)
	})

	mt.Run("seed", func(mt *mtest.T) {
		mt.AddMockResponses(updated(1))
		assert.NoError(mt, newMockMongo(mt).Seed(ctx, OrderNumberSequence, 3))
	})

	mt.Run("highest order number", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "shop.orders", mtest.FirstBatch, bson.D{
			{Key: "_id", Value: nil},
			{Key: "highest", Value: int64(10003)},
		}))
		n, err := newMockMongo(mt).MaxOrderNumber(ctx)
		require.NoError(mt, err)
		assert.Equal(mt, int64(10003), n)
	})

	mt.Run("no orders yet", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "shop.orders", mtest.FirstBatch))
		n, err := newMockMongo(mt).MaxOrderNumber(ctx)
		require.NoError(mt, err)
		assert.Zero(mt, n)
	})
}

func TestTranslateMongoError(t *testing.T) {
	assert.NoError(t, translateMongoError(nil))
	assert.ErrorIs(t, translateMongoError(mongo.ErrNoDocuments), ErrNotFound)
	boom := assert.AnError
	assert.Equal(t, boom, translateMongoError(boom))
}
