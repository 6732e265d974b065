package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	bookingpb "github.com/Leganyst/salon-booking/internal/api/booking/v1"
	"github.com/Leganyst/salon-booking/internal/scheduling"
)

type BookingService struct {
	bookingpb.UnimplementedBookingServiceServer

	booking *Booking
}

func NewBookingService(booking *Booking) *BookingService {
	return &BookingService{booking: booking}
}

type idRequest struct {
	AppointmentID uuid.UUID `json:"appointmentId"`
}

type salonRequest struct {
	SalonID uuid.UUID `json:"salonId"`
}

// handle декодирует Struct в запрос, вызывает фасад и кодирует ответ.
func handle[Req, Resp any](ctx context.Context, in *structpb.Struct, call func(context.Context, Req) (Resp, error)) (*structpb.Struct, error) {
	var req Req
	if err := bookingpb.Decode(in, &req); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	resp, err := call(ctx, req)
	if err != nil {
		return nil, toStatus(err)
	}

	out, err := bookingpb.Encode(resp)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return out, nil
}

func byID(call func(context.Context, uuid.UUID) (AppointmentDTO, error)) func(context.Context, idRequest) (AppointmentDTO, error) {
	return func(ctx context.Context, req idRequest) (AppointmentDTO, error) {
		return call(ctx, req.AppointmentID)
	}
}

func (s *BookingService) ListSlots(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return handle(ctx, in, s.booking.ListSlots)
}

func (s *BookingService) ValidateSlot(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return handle(ctx, in, s.booking.ValidateSlot)
}

func (s *BookingService) CreateAppointment(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return handle(ctx, in, s.booking.CreateAppointment)
}

func (s *BookingService) CancelAppointment(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return handle(ctx, in, s.booking.CancelAppointment)
}

func (s *BookingService) RescheduleAppointment(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return handle(ctx, in, s.booking.RescheduleAppointment)
}

func (s *BookingService) ConfirmAppointment(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return handle(ctx, in, byID(s.booking.ConfirmAppointment))
}

func (s *BookingService) CompleteAppointment(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return handle(ctx, in, byID(s.booking.CompleteAppointment))
}

func (s *BookingService) MarkNoShow(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return handle(ctx, in, byID(s.booking.MarkNoShow))
}

func (s *BookingService) GetAppointment(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return handle(ctx, in, byID(s.booking.GetAppointment))
}

func (s *BookingService) ResolveService(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return handle(ctx, in, s.booking.ResolveService)
}

func (s *BookingService) ListClientAppointments(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return handle(ctx, in, s.booking.ListClientAppointments)
}

func (s *BookingService) ListSalonServices(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return handle(ctx, in, func(ctx context.Context, req salonRequest) ([]SalonServiceDTO, error) {
		return s.booking.ListSalonServices(ctx, req.SalonID)
	})
}

// toStatus переводит ошибки ядра в gRPC-коды.
func toStatus(err error) error {
	switch {
	case errors.Is(err, ErrInvalidArgument):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	}

	switch scheduling.KindOf(err) {
	case scheduling.KindNotFound:
		return status.Error(codes.NotFound, err.Error())
	case scheduling.KindPolicyViolation, scheduling.KindState:
		return status.Error(codes.FailedPrecondition, err.Error())
	case scheduling.KindConflict:
		return status.Error(codes.AlreadyExists, err.Error())
	case scheduling.KindQualification:
		return status.Error(codes.InvalidArgument, err.Error())
	case scheduling.KindStorageUnavailable:
		return status.Error(codes.Unavailable, err.Error())
	default:
		return status.Errorf(codes.Internal, "internal error: %v", err)
	}
}

// LoggingInterceptor пишет каждый вызов: ожидаемые отказы на info, сбои на error.
func LoggingInterceptor(log *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		started := time.Now()
		resp, err := handler(ctx, req)

		code := status.Code(err)
		fields := []zap.Field{
			zap.String("method", info.FullMethod),
			zap.String("code", code.String()),
			zap.Duration("elapsed", time.Since(started)),
		}
		switch code {
		case codes.OK:
			log.Debug("grpc call", fields...)
		case codes.Internal, codes.Unavailable, codes.Unknown, codes.DeadlineExceeded:
			log.Error("grpc call failed", append(fields, zap.Error(err))...)
		default:
			log.Info("grpc call rejected", append(fields, zap.Error(err))...)
		}
		return resp, err
	}
}

// RecoveryInterceptor переводит панику обработчика в codes.Internal,
// чтобы один запрос не ронял процесс.
func RecoveryInterceptor(log *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
		defer func() {
			if r := recover(); r != nil {
				log.Error("grpc handler panic",
					zap.String("method", info.FullMethod),
					zap.Any("panic", r),
					zap.Stack("stack"),
				)
				resp, err = nil, status.Error(codes.Internal, "internal error")
			}
		}()
		return handler(ctx, req)
	}
}
