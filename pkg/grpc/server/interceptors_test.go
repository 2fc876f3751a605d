package server

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

var testInfo = &grpc.UnaryServerInfo{FullMethod: "/feedback.v1.FeedbackAnalytics/AnalyzeTraining"}

// TestLoggingInterceptor tests request logging and request id propagation
func TestLoggingInterceptor(t *testing.T) {
	t.Run("success assigns a request id", func(t *testing.T) {
		core, logs := observer.New(zap.InfoLevel)
		interceptor := LoggingInterceptor(zap.New(core))

		var seen string
		resp, err := interceptor(context.Background(), "req", testInfo, func(ctx context.Context, req any) (any, error) {
			seen = RequestID(ctx)
			return "ok", nil
		})

		require.NoError(t, err)
		assert.Equal(t, "ok", resp)
		assert.Len(t, seen, 36)

		entries := logs.All()
		require.Len(t, entries, 2)
		assert.Equal(t, "gRPC request started", entries[0].Message)
		assert.Equal(t, "gRPC request completed", entries[1].Message)
		assert.Equal(t, seen, entries[1].ContextMap()["request_id"])
	})

	t.Run("caller request id is reused", func(t *testing.T) {
		interceptor := LoggingInterceptor(zap.NewNop())
		ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs(RequestIDHeader, "abc-123"))

		var seen string
		_, err := interceptor(ctx, "req", testInfo, func(ctx context.Context, req any) (any, error) {
			seen = RequestID(ctx)
			return nil, nil
		})

		require.NoError(t, err)
		assert.Equal(t, "abc-123", seen)
	})

	t.Run("failure is logged with status", func(t *testing.T) {
		core, logs := observer.New(zap.InfoLevel)
		interceptor := LoggingInterceptor(zap.New(core))

		_, err := interceptor(context.Background(), "req", testInfo, func(ctx context.Context, req any) (any, error) {
			return nil, status.Error(codes.InvalidArgument, "training_id is required")
		})

		require.Error(t, err)
		failed := logs.FilterMessage("gRPC request failed").All()
		require.Len(t, failed, 1)
		assert.Equal(t, "InvalidArgument", failed[0].ContextMap()["status_code"])
		assert.Equal(t, "training_id is required", failed[0].ContextMap()["status_message"])
	})
}

// TestMetricsInterceptor tests that every call is reported with its status code
func TestMetricsInterceptor(t *testing.T) {
	type call struct{ method, code string }
	var calls []call
	interceptor := MetricsInterceptor(func(method, code string, d time.Duration) {
		calls = append(calls, call{method, code})
	})

	_, _ = interceptor(context.Background(), nil, testInfo, func(ctx context.Context, req any) (any, error) {
		return "ok", nil
	})
	_, _ = interceptor(context.Background(), nil, testInfo, func(ctx context.Context, req any) (any, error) {
		return nil, status.Error(codes.NotFound, "nope")
	})
	_, _ = interceptor(context.Background(), nil, testInfo, func(ctx context.Context, req any) (any, error) {
		return nil, errors.New("plain")
	})

	assert.Equal(t, []call{
		{testInfo.FullMethod, "OK"},
		{testInfo.FullMethod, "NotFound"},
		{testInfo.FullMethod, "Unknown"},
	}, calls)
}

// TestRecoveryInterceptor tests that a panicking handler yields codes.Internal
func TestRecoveryInterceptor(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	interceptor := RecoveryInterceptor(zap.New(core))

	resp, err := interceptor(context.Background(), nil, testInfo, func(ctx context.Context, req any) (any, error) {
		panic("boom")
	})

	assert.Nil(t, resp)
	assert.Equal(t, codes.Internal, status.Code(err))
	assert.Equal(t, 1, logs.FilterMessage("panic in gRPC handler").Len())
}

func dialBufconn(t *testing.T, lis *bufconn.Listener) *grpc.ClientConn {
	t.Helper()
	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

// TestServerBuilder tests the server options and health reporting
func TestServerBuilder(t *testing.T) {
	t.Run("invalid port", func(t *testing.T) {
		_, err := New(WithPort(0))
		assert.ErrorContains(t, err, "invalid port")

		_, err = New(WithPort(70000))
		assert.ErrorContains(t, err, "invalid port")
	})

	t.Run("health and registered service", func(t *testing.T) {
		lis := bufconn.Listen(1 << 20)

		var mu sync.Mutex
		var methods []string
		srv, err := New(
			WithListener(lis),
			WithLogging(true),
			WithRecovery(true),
			WithMetrics(func(method, code string, d time.Duration) {
				mu.Lock()
				methods = append(methods, method)
				mu.Unlock()
			}),
		)
		require.NoError(t, err)
		assert.Equal(t, "bufconn", srv.Addr().String())

		srv.RegisterServiceWithHealth("feedback.v1.FeedbackAnalytics", func(s *grpc.Server) {})
		srv.Start()
		t.Cleanup(func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			_ = srv.Shutdown(ctx)
		})

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		client := healthpb.NewHealthClient(dialBufconn(t, lis))

		resp, err := client.Check(ctx, &healthpb.HealthCheckRequest{})
		require.NoError(t, err)
		assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.Status)

		resp, err = client.Check(ctx, &healthpb.HealthCheckRequest{Service: "feedback.v1.FeedbackAnalytics"})
		require.NoError(t, err)
		assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.Status)

		srv.SetServiceHealth("feedback.v1.FeedbackAnalytics", healthpb.HealthCheckResponse_NOT_SERVING)
		resp, err = client.Check(ctx, &healthpb.HealthCheckRequest{Service: "feedback.v1.FeedbackAnalytics"})
		require.NoError(t, err)
		assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, resp.Status)

		mu.Lock()
		defer mu.Unlock()
		assert.Len(t, methods, 3)
		assert.Equal(t, "/grpc.health.v1.Health/Check", methods[0])
	})
}
