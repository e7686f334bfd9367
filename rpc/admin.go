package rpc

import (
	"context"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/wfunc/tetrisserver/models"
	"github.com/wfunc/tetrisserver/room"
	"github.com/wfunc/tetrisserver/services"
)

type ListRoomsRequest struct{}

type ListRoomsReply struct {
	Rooms []room.Summary `json:"rooms"`
}

type HistoryRequest struct {
	Username string `json:"username"`
}

type HistoryReply struct {
	Username string               `json:"username"`
	Stats    models.PlayerStats   `json:"stats"`
	Matches  []models.MatchResult `json:"matches"`
}

// AdminServer is the server API of tetris.Admin.
type AdminServer interface {
	ListRooms(context.Context, *ListRoomsRequest) (*ListRoomsReply, error)
	GetPlayerHistory(context.Context, *HistoryRequest) (*HistoryReply, error)
}

// AdminService exposes the room registry and the match histories.
type AdminService struct {
	rooms   *room.Manager
	players *services.PlayerService
}

func NewAdminService(rooms *room.Manager, players *services.PlayerService) *AdminService {
	return &AdminService{rooms: rooms, players: players}
}

func (s *AdminService) ListRooms(ctx context.Context, _ *ListRoomsRequest) (*ListRoomsReply, error) {
	return &ListRoomsReply{Rooms: s.rooms.Summaries()}, nil
}

func (s *AdminService) GetPlayerHistory(ctx context.Context, req *HistoryRequest) (*HistoryReply, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" {
		return nil, status.Error(codes.InvalidArgument, "username is required")
	}
	history := s.players.LoadHistory(ctx, username)
	return &HistoryReply{
		Username: username,
		Stats:    models.Summarize(username, history),
		Matches:  history,
	}, nil
}

const (
	adminListRoomsMethod        = "/tetris.Admin/ListRooms"
	adminGetPlayerHistoryMethod = "/tetris.Admin/GetPlayerHistory"
)

func _Admin_ListRooms_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(ListRoomsRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AdminServer).ListRooms(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: adminListRoomsMethod,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(AdminServer).ListRooms(ctx, req.(*ListRoomsRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _Admin_GetPlayerHistory_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(HistoryRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AdminServer).GetPlayerHistory(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: adminGetPlayerHistoryMethod,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(AdminServer).GetPlayerHistory(ctx, req.(*HistoryRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// Admin_ServiceDesc is the grpc.ServiceDesc for tetris.Admin.
var Admin_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "tetris.Admin",
	HandlerType: (*AdminServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "ListRooms",
			Handler:    _Admin_ListRooms_Handler,
		},
		{
			MethodName: "GetPlayerHistory",
			Handler:    _Admin_GetPlayerHistory_Handler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "tetris/admin",
}

// AdminClient is the client API of tetris.Admin.
type AdminClient struct {
	cc grpc.ClientConnInterface
}

func NewAdminClient(cc grpc.ClientConnInterface) *AdminClient {
	return &AdminClient{cc: cc}
}

func (c *AdminClient) ListRooms(ctx context.Context, in *ListRoomsRequest, opts ...grpc.CallOption) (*ListRoomsReply, error) {
	out := new(ListRoomsReply)
	opts = append([]grpc.CallOption{grpc.ForceCodec(jsonCodec{})}, opts...)
	if err := c.cc.Invoke(ctx, adminListRoomsMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *AdminClient) GetPlayerHistory(ctx context.Context, in *HistoryRequest, opts ...grpc.CallOption) (*HistoryReply, error) {
	out := new(HistoryReply)
	opts = append([]grpc.CallOption{grpc.ForceCodec(jsonCodec{})}, opts...)
	if err := c.cc.Invoke(ctx, adminGetPlayerHistoryMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
