package grpc

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"

	"github.com/example/candleshop/pkg/discovery"
	"github.com/example/candleshop/pkg/models"
	"github.com/example/candleshop/pkg/service"
)

// Client calls the order and account services. The bearer token passed to
// each call is sent as authorization metadata.
type Client struct {
	conn   *grpc.ClientConn
	logger *zap.Logger
}

// Dial connects to target. Extra options are appended after the defaults,
// so tests can supply their own dialer.
func Dial(target string, logger *zap.Logger, opts ...grpc.DialOption) (*Client, error) {
	defaults := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(codecName)),
	}
	conn, err := grpc.NewClient(target, append(defaults, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", target, err)
	}
	logger.Info("Connecting to order service", zap.String("target", target))
	return &Client{conn: conn, logger: logger}, nil
}

// Resolver looks up registered service instances.
type Resolver interface {
	Discover(ctx context.Context, serviceName string) ([]*discovery.ServiceInstance, error)
}

// DialService resolves name through the registry and falls back to
// fallback when no instance is registered.
func DialService(ctx context.Context, r Resolver, name, fallback string, logger *zap.Logger, opts ...grpc.DialOption) (*Client, error) {
	target := fallback
	if r != nil {
		ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()

		instances, err := r.Discover(ctx, name)
		if err == nil && len(instances) > 0 {
			target = instances[0].Addr()
			logger.Info("Discovered service", zap.String("service", name), zap.String("address", target))
		} else {
			logger.Info("Using default address", zap.String("service", name), zap.String("address", target), zap.Error(err))
		}
	}
	return Dial(target, logger, opts...)
}

func (c *Client) invoke(ctx context.Context, token, method string, in, out interface{}) error {
	if token != "" {
		ctx = metadata.AppendToOutgoingContext(ctx, authorizationKey, "Bearer "+token)
	}
	return c.conn.Invoke(ctx, method, in, out)
}

func (c *Client) Login(ctx context.Context, email, password string) (*service.Session, error) {
	out := new(service.Session)
	err := c.invoke(ctx, "", "/"+accountServiceName+"/Login", &service.LoginInput{Email: email, Password: password}, out)
	return out, err
}

func (c *Client) Me(ctx context.Context, token string) (*models.User, error) {
	out := new(models.User)
	err := c.invoke(ctx, token, "/"+accountServiceName+"/Me", &Empty{}, out)
	return out, err
}

func (c *Client) PlaceOrder(ctx context.Context, token string, in *service.PlaceOrderInput) (*models.Order, error) {
	out := new(models.Order)
	err := c.invoke(ctx, token, "/"+orderServiceName+"/PlaceOrder", in, out)
	return out, err
}

func (c *Client) CancelOrder(ctx context.Context, token, orderID string) (*models.Order, error) {
	out := new(models.Order)
	err := c.invoke(ctx, token, "/"+orderServiceName+"/CancelOrder", &OrderRequest{OrderID: orderID}, out)
	return out, err
}

func (c *Client) GetOrder(ctx context.Context, token, orderID string) (*models.Order, error) {
	out := new(models.Order)
	err := c.invoke(ctx, token, "/"+orderServiceName+"/GetOrder", &OrderRequest{OrderID: orderID}, out)
	return out, err
}

func (c *Client) ListOrders(ctx context.Context, token string, in *ListOrdersRequest) ([]*models.Order, error) {
	out := new(OrderList)
	if err := c.invoke(ctx, token, "/"+orderServiceName+"/ListOrders", in, out); err != nil {
		return nil, err
	}
	return out.Orders, nil
}

func (c *Client) GetTracking(ctx context.Context, token, orderID string) (*service.Tracking, error) {
	out := new(service.Tracking)
	err := c.invoke(ctx, token, "/"+orderServiceName+"/GetTracking", &OrderRequest{OrderID: orderID}, out)
	return out, err
}

func (c *Client) UpdateOrderStatus(ctx context.Context, token, orderID, status string) (*models.Order, error) {
	out := new(models.Order)
	err := c.invoke(ctx, token, "/"+orderServiceName+"/UpdateOrderStatus", &UpdateOrderStatusRequest{OrderID: orderID, Status: status}, out)
	return out, err
}

func (c *Client) UpdateShipment(ctx context.Context, token string, in *UpdateShipmentRequest) (*models.Shipment, error) {
	out := new(models.Shipment)
	err := c.invoke(ctx, token, "/"+orderServiceName+"/UpdateShipment", in, out)
	return out, err
}

func (c *Client) Close() error {
	if err := c.conn.Close(); err != nil {
		return fmt.Errorf("order connection close error: %w", err)
	}
	return nil
}
