package rpc

import (
	"context"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/wfunc/tetrisserver/logger"
)

// Server manages the admin gRPC listener.
type Server struct {
	listener net.Listener
	address  string
	grpc     *grpc.Server
}

// NewServer listens on addr and registers the admin service.
func NewServer(addr string, admin AdminServer) (*Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return NewServerWithListener(listener, admin), nil
}

// NewServerWithListener serves on an existing listener (bufconn in tests).
func NewServerWithListener(listener net.Listener, admin AdminServer) *Server {
	gs := grpc.NewServer(
		grpc.ForceServerCodec(jsonCodec{}),
		grpc.ChainUnaryInterceptor(recoverInterceptor, logInterceptor),
	)
	gs.RegisterService(&Admin_ServiceDesc, admin)

	return &Server{
		listener: listener,
		address:  listener.Addr().String(),
		grpc:     gs,
	}
}

// Start serves until Stop is called.
func (s *Server) Start() {
	logger.Log.Infof("RPC server listening on %s", s.address)
	if err := s.grpc.Serve(s.listener); err != nil {
		logger.Log.Errorf("RPC server stopped: %v", err)
		return
	}
	logger.Log.Info("RPC server listener closed.")
}

// Stop drains in-flight calls and closes the listener.
func (s *Server) Stop() {
	logger.Log.Info("Stopping RPC server.")
	s.grpc.GracefulStop()
}

func recoverInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Log.Errorf("RPC %s panicked: %v", info.FullMethod, r)
			err = status.Error(codes.Internal, "internal error")
		}
	}()
	return handler(ctx, req)
}

func logInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	logger.Log.Debugf("RPC %s took %s, err=%v", info.FullMethod, time.Since(start), err)
	return resp, err
}
