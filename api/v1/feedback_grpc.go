// Package feedbackv1 describes the feedback.v1.FeedbackAnalytics gRPC service.
//
// Requests and responses are google.protobuf.Struct messages so the report
// shape can evolve without regenerating stubs. Request fields:
//
//	AnalyzeTraining  {training_id}
//	AnalyzeTrainer   {trainer_name, from?, to?}  dates as YYYY-MM-DD or RFC 3339
//	SubmitFeedback   {training_id, trainer_name, student_name?, subject_name,
//	                  ratings: {metric: 1-5}, answers?: {question: text}}
//	ListTrainers     {}
//	GetFeedback      {training_id}
//	FeedbackStats    {}
package feedbackv1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "feedback.v1.FeedbackAnalytics"

const (
	AnalyzeTrainingMethod = "/" + ServiceName + "/AnalyzeTraining"
	AnalyzeTrainerMethod  = "/" + ServiceName + "/AnalyzeTrainer"
	SubmitFeedbackMethod  = "/" + ServiceName + "/SubmitFeedback"
	ListTrainersMethod    = "/" + ServiceName + "/ListTrainers"
	GetFeedbackMethod     = "/" + ServiceName + "/GetFeedback"
	FeedbackStatsMethod   = "/" + ServiceName + "/FeedbackStats"
)

// FeedbackAnalyticsServer is the server API. Implementations must embed
// UnimplementedFeedbackAnalyticsServer.
type FeedbackAnalyticsServer interface {
	AnalyzeTraining(context.Context, *structpb.Struct) (*structpb.Struct, error)
	AnalyzeTrainer(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SubmitFeedback(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListTrainers(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetFeedback(context.Context, *structpb.Struct) (*structpb.Struct, error)
	FeedbackStats(context.Context, *structpb.Struct) (*structpb.Struct, error)
	mustEmbedUnimplementedFeedbackAnalyticsServer()
}

type UnimplementedFeedbackAnalyticsServer struct{}

func (UnimplementedFeedbackAnalyticsServer) AnalyzeTraining(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method AnalyzeTraining not implemented")
}

func (UnimplementedFeedbackAnalyticsServer) AnalyzeTrainer(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method AnalyzeTrainer not implemented")
}

func (UnimplementedFeedbackAnalyticsServer) SubmitFeedback(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method SubmitFeedback not implemented")
}

func (UnimplementedFeedbackAnalyticsServer) ListTrainers(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method ListTrainers not implemented")
}

func (UnimplementedFeedbackAnalyticsServer) GetFeedback(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method GetFeedback not implemented")
}

func (UnimplementedFeedbackAnalyticsServer) FeedbackStats(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method FeedbackStats not implemented")
}

func (UnimplementedFeedbackAnalyticsServer) mustEmbedUnimplementedFeedbackAnalyticsServer() {}

type unaryCall func(FeedbackAnalyticsServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(fullMethod string, call unaryCall) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(FeedbackAnalyticsServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(FeedbackAnalyticsServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// ServiceDesc is the grpc.ServiceDesc for FeedbackAnalytics.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*FeedbackAnalyticsServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "AnalyzeTraining",
			Handler:    unaryHandler(AnalyzeTrainingMethod, FeedbackAnalyticsServer.AnalyzeTraining),
		},
		{
			MethodName: "AnalyzeTrainer",
			Handler:    unaryHandler(AnalyzeTrainerMethod, FeedbackAnalyticsServer.AnalyzeTrainer),
		},
		{
			MethodName: "SubmitFeedback",
			Handler:    unaryHandler(SubmitFeedbackMethod, FeedbackAnalyticsServer.SubmitFeedback),
		},
		{
			MethodName: "ListTrainers",
			Handler:    unaryHandler(ListTrainersMethod, FeedbackAnalyticsServer.ListTrainers),
		},
		{
			MethodName: "GetFeedback",
			Handler:    unaryHandler(GetFeedbackMethod, FeedbackAnalyticsServer.GetFeedback),
		},
		{
			MethodName: "FeedbackStats",
			Handler:    unaryHandler(FeedbackStatsMethod, FeedbackAnalyticsServer.FeedbackStats),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "feedback/v1/feedback.proto",
}

func RegisterFeedbackAnalyticsServer(s grpc.ServiceRegistrar, srv FeedbackAnalyticsServer) {
	s.RegisterService(&ServiceDesc, srv)
}

type FeedbackAnalyticsClient interface {
	AnalyzeTraining(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	AnalyzeTrainer(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	SubmitFeedback(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	ListTrainers(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	GetFeedback(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	FeedbackStats(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type feedbackAnalyticsClient struct {
	cc grpc.ClientConnInterface
}

func NewFeedbackAnalyticsClient(cc grpc.ClientConnInterface) FeedbackAnalyticsClient {
	return &feedbackAnalyticsClient{cc: cc}
}

func (c *feedbackAnalyticsClient) invoke(ctx context.Context, method string, in *structpb.Struct, opts []grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *feedbackAnalyticsClient) AnalyzeTraining(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, AnalyzeTrainingMethod, in, opts)
}

func (c *feedbackAnalyticsClient) AnalyzeTrainer(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, AnalyzeTrainerMethod, in, opts)
}

func (c *feedbackAnalyticsClient) SubmitFeedback(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, SubmitFeedbackMethod, in, opts)
}

func (c *feedbackAnalyticsClient) ListTrainers(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, ListTrainersMethod, in, opts)
}

func (c *feedbackAnalyticsClient) GetFeedback(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, GetFeedbackMethod, in, opts)
}

func (c *feedbackAnalyticsClient) FeedbackStats(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, FeedbackStatsMethod, in, opts)
}
