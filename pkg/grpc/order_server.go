package grpc

import (
	"context"

	"google.golang.org/grpc"

	"github.com/example/candleshop/pkg/models"
	"github.com/example/candleshop/pkg/service"
)

const (
	orderServiceName   = "storefront.OrderService"
	accountServiceName = "storefront.AccountService"
)

// OrderServiceServer is the order workflow exposed over gRPC.
type OrderServiceServer interface {
	PlaceOrder(ctx context.Context, in *service.PlaceOrderInput) (*models.Order, error)
	CancelOrder(ctx context.Context, in *OrderRequest) (*models.Order, error)
	GetOrder(ctx context.Context, in *OrderRequest) (*models.Order, error)
	ListOrders(ctx context.Context, in *ListOrdersRequest) (*OrderList, error)
	GetTracking(ctx context.Context, in *OrderRequest) (*service.Tracking, error)
	UpdateOrderStatus(ctx context.Context, in *UpdateOrderStatusRequest) (*models.Order, error)
	UpdateShipment(ctx context.Context, in *UpdateShipmentRequest) (*models.Shipment, error)
}

// AccountServiceServer lets gRPC clients obtain and inspect a session.
type AccountServiceServer interface {
	Login(ctx context.Context, in *service.LoginInput) (*service.Session, error)
	Me(ctx context.Context, in *Empty) (*models.User, error)
}

func unaryMethod[S any, Req any, Resp any](serviceName, name string, call func(S, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	fullMethod := "/" + serviceName + "/" + name
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(S), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req interface{}) (interface{}, error) {
				return call(srv.(S), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

var orderServiceDesc = grpc.ServiceDesc{
	ServiceName: orderServiceName,
	HandlerType: (*OrderServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryMethod(orderServiceName, "PlaceOrder", OrderServiceServer.PlaceOrder),
		unaryMethod(orderServiceName, "CancelOrder", OrderServiceServer.CancelOrder),
		unaryMethod(orderServiceName, "GetOrder", OrderServiceServer.GetOrder),
		unaryMethod(orderServiceName, "ListOrders", OrderServiceServer.ListOrders),
		unaryMethod(orderServiceName, "GetTracking", OrderServiceServer.GetTracking),
		unaryMethod(orderServiceName, "UpdateOrderStatus", OrderServiceServer.UpdateOrderStatus),
		unaryMethod(orderServiceName, "UpdateShipment", OrderServiceServer.UpdateShipment),
	},
	Metadata: "storefront/order.json",
}

var accountServiceDesc = grpc.ServiceDesc{
	ServiceName: accountServiceName,
	HandlerType: (*AccountServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryMethod(accountServiceName, "Login", AccountServiceServer.Login),
		unaryMethod(accountServiceName, "Me", AccountServiceServer.Me),
	},
	Metadata: "storefront/account.json",
}

// OrderServer adapts the service layer to OrderServiceServer. The caller is
// resolved by the auth interceptor.
type OrderServer struct {
	svc *service.Service
}

func NewOrderServer(svc *service.Service) *OrderServer {
	return &OrderServer{svc: svc}
}

func (s *OrderServer) PlaceOrder(ctx context.Context, in *service.PlaceOrderInput) (*models.Order, error) {
	return s.svc.PlaceOrder(ctx, callerFrom(ctx), *in)
}

func (s *OrderServer) CancelOrder(ctx context.Context, in *OrderRequest) (*models.Order, error) {
	return s.svc.CancelOrder(ctx, callerFrom(ctx), in.OrderID)
}

func (s *OrderServer) GetOrder(ctx context.Context, in *OrderRequest) (*models.Order, error) {
	return s.svc.GetOrder(ctx, callerFrom(ctx), in.OrderID)
}

func (s *OrderServer) ListOrders(ctx context.Context, in *ListOrdersRequest) (*OrderList, error) {
	var (
		orders []*models.Order
		err    error
	)
	switch {
	case in.All:
		orders, err = s.svc.AdminListOrders(ctx, callerFrom(ctx))
	case in.History:
		orders, err = s.svc.OrderHistory(ctx, callerFrom(ctx))
	default:
		orders, err = s.svc.ListOrders(ctx, callerFrom(ctx))
	}
	if err != nil {
		return nil, err
	}
	return &OrderList{Orders: orders}, nil
}

func (s *OrderServer) GetTracking(ctx context.Context, in *OrderRequest) (*service.Tracking, error) {
	return s.svc.GetTracking(ctx, callerFrom(ctx), in.OrderID)
}

func (s *OrderServer) UpdateOrderStatus(ctx context.Context, in *UpdateOrderStatusRequest) (*models.Order, error) {
	return s.svc.UpdateOrderStatus(ctx, callerFrom(ctx), in.OrderID, service.UpdateOrderStatusInput{Status: in.Status})
}

func (s *OrderServer) UpdateShipment(ctx context.Context, in *UpdateShipmentRequest) (*models.Shipment, error) {
	return s.svc.UpdateShipment(ctx, callerFrom(ctx), in.ShipmentID, in.UpdateShipmentInput)
}

type AccountServer struct {
	svc *service.Service
}

func NewAccountServer(svc *service.Service) *AccountServer {
	return &AccountServer{svc: svc}
}

func (s *AccountServer) Login(ctx context.Context, in *service.LoginInput) (*service.Session, error) {
	return s.svc.Login(ctx, *in)
}

func (s *AccountServer) Me(ctx context.Context, _ *Empty) (*models.User, error) {
	return s.svc.Me(ctx, callerFrom(ctx))
}
