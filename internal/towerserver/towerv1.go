package towerserver

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "questmon.tower.v1.TowerService"

// Method names of TowerService.
const (
	MethodGetBoard     = "GetBoard"
	MethodGetProgress  = "GetProgress"
	MethodRoll         = "Roll"
	MethodAddDice      = "AddDice"
	MethodPurchaseDice = "PurchaseDice"
	MethodHatchEgg     = "HatchEgg"
	MethodGrantEgg     = "GrantEgg"
	MethodResetTower   = "ResetTower"
	MethodEvolve       = "EvolveMonster"
	MethodGetStars     = "GetStars"
)

// FullMethod returns the "/service/method" path of a TowerService method.
func FullMethod(method string) string { return "/" + ServiceName + "/" + method }

// TowerServiceServer is the server API for TowerService. Every message is a
// google.protobuf.Struct so clients need no generated stubs.
type TowerServiceServer interface {
	GetBoard(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetProgress(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Roll(context.Context, *structpb.Struct) (*structpb.Struct, error)
	AddDice(context.Context, *structpb.Struct) (*structpb.Struct, error)
	PurchaseDice(context.Context, *structpb.Struct) (*structpb.Struct, error)
	HatchEgg(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GrantEgg(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ResetTower(context.Context, *structpb.Struct) (*structpb.Struct, error)
	EvolveMonster(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetStars(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryCall func(TowerServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(method string, call unaryCall) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(TowerServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(method)}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(TowerServiceServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// TowerServiceDesc describes TowerService for grpc.Server registration.
var TowerServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*TowerServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryHandler(MethodGetBoard, TowerServiceServer.GetBoard),
		unaryHandler(MethodGetProgress, TowerServiceServer.GetProgress),
		unaryHandler(MethodRoll, TowerServiceServer.Roll),
		unaryHandler(MethodAddDice, TowerServiceServer.AddDice),
		unaryHandler(MethodPurchaseDice, TowerServiceServer.PurchaseDice),
		unaryHandler(MethodHatchEgg, TowerServiceServer.HatchEgg),
		unaryHandler(MethodGrantEgg, TowerServiceServer.GrantEgg),
		unaryHandler(MethodResetTower, TowerServiceServer.ResetTower),
		unaryHandler(MethodEvolve, TowerServiceServer.EvolveMonster),
		unaryHandler(MethodGetStars, TowerServiceServer.GetStars),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "questmon/tower/v1/tower.proto",
}

// RegisterTowerServiceServer registers srv with s.
func RegisterTowerServiceServer(s grpc.ServiceRegistrar, srv TowerServiceServer) {
	s.RegisterService(&TowerServiceDesc, srv)
}

// Client calls TowerService over a client connection.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient wraps cc.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Call invokes method with a request built from fields.
//
// Postcondition: Returns the response Struct or the RPC status error.
func (c *Client) Call(ctx context.Context, method string, fields map[string]any, opts ...grpc.CallOption) (*structpb.Struct, error) {
	in, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, FullMethod(method), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
