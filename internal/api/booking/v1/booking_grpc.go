// Контракт booking.v1.BookingService. Сообщения передаются как google.protobuf.Struct,
// поля в camelCase совпадают с JSON-DTO HTTP API.

package bookingv1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "booking.v1.BookingService"

const (
	BookingService_ListSlots_FullMethodName              = "/booking.v1.BookingService/ListSlots"
	BookingService_ValidateSlot_FullMethodName           = "/booking.v1.BookingService/ValidateSlot"
	BookingService_CreateAppointment_FullMethodName      = "/booking.v1.BookingService/CreateAppointment"
	BookingService_CancelAppointment_FullMethodName      = "/booking.v1.BookingService/CancelAppointment"
	BookingService_RescheduleAppointment_FullMethodName  = "/booking.v1.BookingService/RescheduleAppointment"
	BookingService_ConfirmAppointment_FullMethodName     = "/booking.v1.BookingService/ConfirmAppointment"
	BookingService_CompleteAppointment_FullMethodName    = "/booking.v1.BookingService/CompleteAppointment"
	BookingService_MarkNoShow_FullMethodName             = "/booking.v1.BookingService/MarkNoShow"
	BookingService_GetAppointment_FullMethodName         = "/booking.v1.BookingService/GetAppointment"
	BookingService_ResolveService_FullMethodName         = "/booking.v1.BookingService/ResolveService"
	BookingService_ListClientAppointments_FullMethodName = "/booking.v1.BookingService/ListClientAppointments"
	BookingService_ListSalonServices_FullMethodName      = "/booking.v1.BookingService/ListSalonServices"
)

// BookingServiceClient — клиент BookingService.
type BookingServiceClient interface {
	ListSlots(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	ValidateSlot(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	CreateAppointment(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	CancelAppointment(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	RescheduleAppointment(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	ConfirmAppointment(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	CompleteAppointment(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	MarkNoShow(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	GetAppointment(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	ResolveService(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	ListClientAppointments(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	ListSalonServices(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type bookingServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewBookingServiceClient(cc grpc.ClientConnInterface) BookingServiceClient {
	return &bookingServiceClient{cc}
}

func (c *bookingServiceClient) ListSlots(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, BookingService_ListSlots_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *bookingServiceClient) ValidateSlot(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, BookingService_ValidateSlot_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *bookingServiceClient) CreateAppointment(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, BookingService_CreateAppointment_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *bookingServiceClient) CancelAppointment(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, BookingService_CancelAppointment_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *bookingServiceClient) RescheduleAppointment(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, BookingService_RescheduleAppointment_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *bookingServiceClient) ConfirmAppointment(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, BookingService_ConfirmAppointment_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *bookingServiceClient) CompleteAppointment(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, BookingService_CompleteAppointment_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *bookingServiceClient) MarkNoShow(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, BookingService_MarkNoShow_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *bookingServiceClient) GetAppointment(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, BookingService_GetAppointment_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *bookingServiceClient) ResolveService(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, BookingService_ResolveService_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *bookingServiceClient) ListClientAppointments(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, BookingService_ListClientAppointments_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *bookingServiceClient) ListSalonServices(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, BookingService_ListSalonServices_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// BookingServiceServer — серверная часть BookingService.
// Реализации должны встраивать UnimplementedBookingServiceServer.
type BookingServiceServer interface {
	ListSlots(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ValidateSlot(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CreateAppointment(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CancelAppointment(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RescheduleAppointment(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ConfirmAppointment(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CompleteAppointment(context.Context, *structpb.Struct) (*structpb.Struct, error)
	MarkNoShow(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetAppointment(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ResolveService(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListClientAppointments(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListSalonServices(context.Context, *structpb.Struct) (*structpb.Struct, error)
	mustEmbedUnimplementedBookingServiceServer()
}

type UnimplementedBookingServiceServer struct{}

func (UnimplementedBookingServiceServer) ListSlots(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method ListSlots not implemented")
}
func (UnimplementedBookingServiceServer) ValidateSlot(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method ValidateSlot not implemented")
}
func (UnimplementedBookingServiceServer) CreateAppointment(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method CreateAppointment not implemented")
}
func (UnimplementedBookingServiceServer) CancelAppointment(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method CancelAppointment not implemented")
}
func (UnimplementedBookingServiceServer) RescheduleAppointment(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method RescheduleAppointment not implemented")
}
func (UnimplementedBookingServiceServer) ConfirmAppointment(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method ConfirmAppointment not implemented")
}
func (UnimplementedBookingServiceServer) CompleteAppointment(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method CompleteAppointment not implemented")
}
func (UnimplementedBookingServiceServer) MarkNoShow(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method MarkNoShow not implemented")
}
func (UnimplementedBookingServiceServer) GetAppointment(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method GetAppointment not implemented")
}
func (UnimplementedBookingServiceServer) ResolveService(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method ResolveService not implemented")
}
func (UnimplementedBookingServiceServer) ListClientAppointments(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method ListClientAppointments not implemented")
}
func (UnimplementedBookingServiceServer) ListSalonServices(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method ListSalonServices not implemented")
}
func (UnimplementedBookingServiceServer) mustEmbedUnimplementedBookingServiceServer() {}

func RegisterBookingServiceServer(s grpc.ServiceRegistrar, srv BookingServiceServer) {
	s.RegisterService(&BookingService_ServiceDesc, srv)
}

// unaryHandler строит обработчик метода с поддержкой интерсепторов.
func unaryHandler(
	fullMethod string,
	call func(BookingServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error),
) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(BookingServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod,
		}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(BookingServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var BookingService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*BookingServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "ListSlots",
			Handler:    unaryHandler(BookingService_ListSlots_FullMethodName, BookingServiceServer.ListSlots),
		},
		{
			MethodName: "ValidateSlot",
			Handler:    unaryHandler(BookingService_ValidateSlot_FullMethodName, BookingServiceServer.ValidateSlot),
		},
		{
			MethodName: "CreateAppointment",
			Handler:    unaryHandler(BookingService_CreateAppointment_FullMethodName, BookingServiceServer.CreateAppointment),
		},
		{
			MethodName: "CancelAppointment",
			Handler:    unaryHandler(BookingService_CancelAppointment_FullMethodName, BookingServiceServer.CancelAppointment),
		},
		{
			MethodName: "RescheduleAppointment",
			Handler:    unaryHandler(BookingService_RescheduleAppointment_FullMethodName, BookingServiceServer.RescheduleAppointment),
		},
		{
			MethodName: "ConfirmAppointment",
			Handler:    unaryHandler(BookingService_ConfirmAppointment_FullMethodName, BookingServiceServer.ConfirmAppointment),
		},
		{
			MethodName: "CompleteAppointment",
			Handler:    unaryHandler(BookingService_CompleteAppointment_FullMethodName, BookingServiceServer.CompleteAppointment),
		},
		{
			MethodName: "MarkNoShow",
			Handler:    unaryHandler(BookingService_MarkNoShow_FullMethodName, BookingServiceServer.MarkNoShow),
		},
		{
			MethodName: "GetAppointment",
			Handler:    unaryHandler(BookingService_GetAppointment_FullMethodName, BookingServiceServer.GetAppointment),
		},
		{
			MethodName: "ResolveService",
			Handler:    unaryHandler(BookingService_ResolveService_FullMethodName, BookingServiceServer.ResolveService),
		},
		{
			MethodName: "ListClientAppointments",
			Handler:    unaryHandler(BookingService_ListClientAppointments_FullMethodName, BookingServiceServer.ListClientAppointments),
		},
		{
			MethodName: "ListSalonServices",
			Handler:    unaryHandler(BookingService_ListSalonServices_FullMethodName, BookingServiceServer.ListSalonServices),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "booking/v1/booking.proto",
}
