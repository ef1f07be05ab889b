package apiconnect

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/splitcircle/pkg/api"
)

const (
	// CircleServiceName is the fully-qualified name of the CircleService service.
	CircleServiceName = "splitcircle.v1.CircleService"
)

// Procedure names of CircleService RPCs.
const (
	CircleServiceCreateCircleProcedure        = "/splitcircle.v1.CircleService/CreateCircle"
	CircleServiceGetCircleProcedure           = "/splitcircle.v1.CircleService/GetCircle"
	CircleServiceListCirclesProcedure         = "/splitcircle.v1.CircleService/ListCircles"
	CircleServiceAddMemberProcedure           = "/splitcircle.v1.CircleService/AddMember"
	CircleServiceLeaveCircleProcedure         = "/splitcircle.v1.CircleService/LeaveCircle"
	CircleServiceSyncProfileProcedure         = "/splitcircle.v1.CircleService/SyncProfile"
	CircleServiceGetCircleBalancesProcedure   = "/splitcircle.v1.CircleService/GetCircleBalances"
	CircleServiceRequestSettlementProcedure   = "/splitcircle.v1.CircleService/RequestSettlement"
	CircleServiceRespondToSettlementProcedure = "/splitcircle.v1.CircleService/RespondToSettlement"
	CircleServiceWatchCircleProcedure         = "/splitcircle.v1.CircleService/WatchCircle"
)

// CircleServiceHandler is implemented by the server.
type CircleServiceHandler interface {
	CreateCircle(context.Context, *connect.Request[api.CreateCircleRequest]) (*connect.Response[api.CreateCircleResponse], error)
	GetCircle(context.Context, *connect.Request[api.GetCircleRequest]) (*connect.Response[api.GetCircleResponse], error)
	ListCircles(context.Context, *connect.Request[api.ListCirclesRequest]) (*connect.Response[api.ListCirclesResponse], error)
	AddMember(context.Context, *connect.Request[api.AddMemberRequest]) (*connect.Response[api.AddMemberResponse], error)
	LeaveCircle(context.Context, *connect.Request[api.LeaveCircleRequest]) (*connect.Response[api.LeaveCircleResponse], error)
	SyncProfile(context.Context, *connect.Request[api.SyncProfileRequest]) (*connect.Response[api.SyncProfileResponse], error)
	GetCircleBalances(context.Context, *connect.Request[api.GetCircleBalancesRequest]) (*connect.Response[api.GetCircleBalancesResponse], error)
	RequestSettlement(context.Context, *connect.Request[api.RequestSettlementRequest]) (*connect.Response[api.RequestSettlementResponse], error)
	RespondToSettlement(context.Context, *connect.Request[api.RespondToSettlementRequest]) (*connect.Response[api.RespondToSettlementResponse], error)
	// WatchCircle streams a balance snapshot now and after every change to the circle.
	WatchCircle(context.Context, *connect.Request[api.WatchCircleRequest], *connect.ServerStream[api.WatchCircleResponse]) error
}

// NewCircleServiceHandler builds an HTTP handler from the service implementation.
func NewCircleServiceHandler(svc CircleServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = withCodec(opts)
	handlers := map[string]http.Handler{
		CircleServiceCreateCircleProcedure:        connect.NewUnaryHandler(CircleServiceCreateCircleProcedure, svc.CreateCircle, opts...),
		CircleServiceGetCircleProcedure:           connect.NewUnaryHandler(CircleServiceGetCircleProcedure, svc.GetCircle, opts...),
		CircleServiceListCirclesProcedure:         connect.NewUnaryHandler(CircleServiceListCirclesProcedure, svc.ListCircles, opts...),
		CircleServiceAddMemberProcedure:           connect.NewUnaryHandler(CircleServiceAddMemberProcedure, svc.AddMember, opts...),
		CircleServiceLeaveCircleProcedure:         connect.NewUnaryHandler(CircleServiceLeaveCircleProcedure, svc.LeaveCircle, opts...),
		CircleServiceSyncProfileProcedure:         connect.NewUnaryHandler(CircleServiceSyncProfileProcedure, svc.SyncProfile, opts...),
		CircleServiceGetCircleBalancesProcedure:   connect.NewUnaryHandler(CircleServiceGetCircleBalancesProcedure, svc.GetCircleBalances, opts...),
		CircleServiceRequestSettlementProcedure:   connect.NewUnaryHandler(CircleServiceRequestSettlementProcedure, svc.RequestSettlement, opts...),
		CircleServiceRespondToSettlementProcedure: connect.NewUnaryHandler(CircleServiceRespondToSettlementProcedure, svc.RespondToSettlement, opts...),
		CircleServiceWatchCircleProcedure:         connect.NewServerStreamHandler(CircleServiceWatchCircleProcedure, svc.WatchCircle, opts...),
	}
	return "/" + CircleServiceName + "/", route(handlers)
}

// CircleServiceClient is a client for the splitcircle.v1.CircleService service.
type CircleServiceClient interface {
	CreateCircle(context.Context, *connect.Request[api.CreateCircleRequest]) (*connect.Response[api.CreateCircleResponse], error)
	GetCircle(context.Context, *connect.Request[api.GetCircleRequest]) (*connect.Response[api.GetCircleResponse], error)
	ListCircles(context.Context, *connect.Request[api.ListCirclesRequest]) (*connect.Response[api.ListCirclesResponse], error)
	AddMember(context.Context, *connect.Request[api.AddMemberRequest]) (*connect.Response[api.AddMemberResponse], error)
	LeaveCircle(context.Context, *connect.Request[api.LeaveCircleRequest]) (*connect.Response[api.LeaveCircleResponse], error)
	SyncProfile(context.Context, *connect.Request[api.SyncProfileRequest]) (*connect.Response[api.SyncProfileResponse], error)
	GetCircleBalances(context.Context, *connect.Request[api.GetCircleBalancesRequest]) (*connect.Response[api.GetCircleBalancesResponse], error)
	RequestSettlement(context.Context, *connect.Request[api.RequestSettlementRequest]) (*connect.Response[api.RequestSettlementResponse], error)
	RespondToSettlement(context.Context, *connect.Request[api.RespondToSettlementRequest]) (*connect.Response[api.RespondToSettlementResponse], error)
	WatchCircle(context.Context, *connect.Request[api.WatchCircleRequest]) (*connect.ServerStreamForClient[api.WatchCircleResponse], error)
}

// NewCircleServiceClient constructs a client for the splitcircle.v1.CircleService service.
func NewCircleServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) CircleServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = withClientCodec(opts)
	return &circleServiceClient{
		createCircle:        connect.NewClient[api.CreateCircleRequest, api.CreateCircleResponse](httpClient, baseURL+CircleServiceCreateCircleProcedure, opts...),
		getCircle:           connect.NewClient[api.GetCircleRequest, api.GetCircleResponse](httpClient, baseURL+CircleServiceGetCircleProcedure, opts...),
		listCircles:         connect.NewClient[api.ListCirclesRequest, api.ListCirclesResponse](httpClient, baseURL+CircleServiceListCirclesProcedure, opts...),
		addMember:           connect.NewClient[api.AddMemberRequest, api.AddMemberResponse](httpClient, baseURL+CircleServiceAddMemberProcedure, opts...),
		leaveCircle:         connect.NewClient[api.LeaveCircleRequest, api.LeaveCircleResponse](httpClient, baseURL+CircleServiceLeaveCircleProcedure, opts...),
		syncProfile:         connect.NewClient[api.SyncProfileRequest, api.SyncProfileResponse](httpClient, baseURL+CircleServiceSyncProfileProcedure, opts...),
		getCircleBalances:   connect.NewClient[api.GetCircleBalancesRequest, api.GetCircleBalancesResponse](httpClient, baseURL+CircleServiceGetCircleBalancesProcedure, opts...),
		requestSettlement:   connect.NewClient[api.RequestSettlementRequest, api.RequestSettlementResponse](httpClient, baseURL+CircleServiceRequestSettlementProcedure, opts...),
		respondToSettlement: connect.NewClient[api.RespondToSettlementRequest, api.RespondToSettlementResponse](httpClient, baseURL+CircleServiceRespondToSettlementProcedure, opts...),
		watchCircle:         connect.NewClient[api.WatchCircleRequest, api.WatchCircleResponse](httpClient, baseURL+CircleServiceWatchCircleProcedure, opts...),
	}
}

type circleServiceClient struct {
	createCircle        *connect.Client[api.CreateCircleRequest, api.CreateCircleResponse]
	getCircle           *connect.Client[api.GetCircleRequest, api.GetCircleResponse]
	listCircles         *connect.Client[api.ListCirclesRequest, api.ListCirclesResponse]
	addMember           *connect.Client[api.AddMemberRequest, api.AddMemberResponse]
	leaveCircle         *connect.Client[api.LeaveCircleRequest, api.LeaveCircleResponse]
	syncProfile         *connect.Client[api.SyncProfileRequest, api.SyncProfileResponse]
	getCircleBalances   *connect.Client[api.GetCircleBalancesRequest, api.GetCircleBalancesResponse]
	requestSettlement   *connect.Client[api.RequestSettlementRequest, api.RequestSettlementResponse]
	respondToSettlement *connect.Client[api.RespondToSettlementRequest, api.RespondToSettlementResponse]
	watchCircle         *connect.Client[api.WatchCircleRequest, api.WatchCircleResponse]
}

func (c *circleServiceClient) CreateCircle(ctx context.Context, req *connect.Request[api.CreateCircleRequest]) (*connect.Response[api.CreateCircleResponse], error) {
	return c.createCircle.CallUnary(ctx, req)
}

func (c *circleServiceClient) GetCircle(ctx context.Context, req *connect.Request[api.GetCircleRequest]) (*connect.Response[api.GetCircleResponse], error) {
	return c.getCircle.CallUnary(ctx, req)
}

func (c *circleServiceClient) ListCircles(ctx context.Context, req *connect.Request[api.ListCirclesRequest]) (*connect.Response[api.ListCirclesResponse], error) {
	return c.listCircles.CallUnary(ctx, req)
}

func (c *circleServiceClient) AddMember(ctx context.Context, req *connect.Request[api.AddMemberRequest]) (*connect.Response[api.AddMemberResponse], error) {
	return c.addMember.CallUnary(ctx, req)
}

func (c *circleServiceClient) LeaveCircle(ctx context.Context, req *connect.Request[api.LeaveCircleRequest]) (*connect.Response[api.LeaveCircleResponse], error) {
	return c.leaveCircle.CallUnary(ctx, req)
}

func (c *circleServiceClient) SyncProfile(ctx context.Context, req *connect.Request[api.SyncProfileRequest]) (*connect.Response[api.SyncProfileResponse], error) {
	return c.syncProfile.CallUnary(ctx, req)
}

func (c *circleServiceClient) GetCircleBalances(ctx context.Context, req *connect.Request[api.GetCircleBalancesRequest]) (*connect.Response[api.GetCircleBalancesResponse], error) {
	return c.getCircleBalances.CallUnary(ctx, req)
}

func (c *circleServiceClient) RequestSettlement(ctx context.Context, req *connect.Request[api.RequestSettlementRequest]) (*connect.Response[api.RequestSettlementResponse], error) {
	return c.requestSettlement.CallUnary(ctx, req)
}

func (c *circleServiceClient) RespondToSettlement(ctx context.Context, req *connect.Request[api.RespondToSettlementRequest]) (*connect.Response[api.RespondToSettlementResponse], error) {
	return c.respondToSettlement.CallUnary(ctx, req)
}

func (c *circleServiceClient) WatchCircle(ctx context.Context, req *connect.Request[api.WatchCircleRequest]) (*connect.ServerStreamForClient[api.WatchCircleResponse], error) {
	return c.watchCircle.CallServerStream(ctx, req)
}
