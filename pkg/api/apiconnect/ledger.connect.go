// Package apiconnect wires the splitcircle.v1 services to Connect handlers and clients.
package apiconnect

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/splitcircle/pkg/api"
)

const (
	// LedgerServiceName is the fully-qualified name of the LedgerService service.
	LedgerServiceName = "splitcircle.v1.LedgerService"
)

// Procedure names of LedgerService RPCs.
const (
	LedgerServiceRecordSplitExpenseProcedure = "/splitcircle.v1.LedgerService/RecordSplitExpense"
	LedgerServiceGetCircleDebtsProcedure     = "/splitcircle.v1.LedgerService/GetCircleDebts"
	LedgerServiceGetMyDebtsProcedure         = "/splitcircle.v1.LedgerService/GetMyDebts"
	LedgerServiceInitiateSettlementProcedure = "/splitcircle.v1.LedgerService/InitiateSettlement"
	LedgerServiceCancelSettlementProcedure   = "/splitcircle.v1.LedgerService/CancelSettlement"
	LedgerServiceRejectSettlementProcedure   = "/splitcircle.v1.LedgerService/RejectSettlement"
	LedgerServiceConfirmSettlementProcedure  = "/splitcircle.v1.LedgerService/ConfirmSettlement"
	LedgerServiceLogSettledDebtProcedure     = "/splitcircle.v1.LedgerService/LogSettledDebt"
	LedgerServiceDeleteDebtProcedure         = "/splitcircle.v1.LedgerService/DeleteDebt"
	LedgerServiceCreateExpenseClaimProcedure = "/splitcircle.v1.LedgerService/CreateExpenseClaim"
	LedgerServiceAcceptExpenseClaimProcedure = "/splitcircle.v1.LedgerService/AcceptExpenseClaim"
	LedgerServiceRejectExpenseClaimProcedure = "/splitcircle.v1.LedgerService/RejectExpenseClaim"
	LedgerServiceListPendingClaimsProcedure  = "/splitcircle.v1.LedgerService/ListPendingClaims"
	LedgerServiceListNotificationsProcedure  = "/splitcircle.v1.LedgerService/ListNotifications"
)

// LedgerServiceHandler is implemented by the server.
type LedgerServiceHandler interface {
	RecordSplitExpense(context.Context, *connect.Request[api.RecordSplitExpenseRequest]) (*connect.Response[api.RecordSplitExpenseResponse], error)
	GetCircleDebts(context.Context, *connect.Request[api.GetCircleDebtsRequest]) (*connect.Response[api.GetCircleDebtsResponse], error)
	GetMyDebts(context.Context, *connect.Request[api.GetMyDebtsRequest]) (*connect.Response[api.GetMyDebtsResponse], error)
	InitiateSettlement(context.Context, *connect.Request[api.DebtRequest]) (*connect.Response[api.DebtResponse], error)
	CancelSettlement(context.Context, *connect.Request[api.DebtRequest]) (*connect.Response[api.DebtResponse], error)
	RejectSettlement(context.Context, *connect.Request[api.DebtRequest]) (*connect.Response[api.DebtResponse], error)
	ConfirmSettlement(context.Context, *connect.Request[api.DebtRequest]) (*connect.Response[api.DebtResponse], error)
	LogSettledDebt(context.Context, *connect.Request[api.DebtRequest]) (*connect.Response[api.LogSettledDebtResponse], error)
	DeleteDebt(context.Context, *connect.Request[api.DebtRequest]) (*connect.Response[api.DeleteDebtResponse], error)
	CreateExpenseClaim(context.Context, *connect.Request[api.CreateExpenseClaimRequest]) (*connect.Response[api.CreateExpenseClaimResponse], error)
	AcceptExpenseClaim(context.Context, *connect.Request[api.ClaimRequest]) (*connect.Response[api.AcceptExpenseClaimResponse], error)
	RejectExpenseClaim(context.Context, *connect.Request[api.ClaimRequest]) (*connect.Response[api.RejectExpenseClaimResponse], error)
	ListPendingClaims(context.Context, *connect.Request[api.ListPendingClaimsRequest]) (*connect.Response[api.ListPendingClaimsResponse], error)
	ListNotifications(context.Context, *connect.Request[api.ListNotificationsRequest]) (*connect.Response[api.ListNotificationsResponse], error)
}

// NewLedgerServiceHandler builds an HTTP handler from the service implementation. It returns
// the path on which to mount the handler and the handler itself.
func NewLedgerServiceHandler(svc LedgerServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = withCodec(opts)
	handlers := map[string]http.Handler{
		LedgerServiceRecordSplitExpenseProcedure: connect.NewUnaryHandler(LedgerServiceRecordSplitExpenseProcedure, svc.RecordSplitExpense, opts...),
		LedgerServiceGetCircleDebtsProcedure:     connect.NewUnaryHandler(LedgerServiceGetCircleDebtsProcedure, svc.GetCircleDebts, opts...),
		LedgerServiceGetMyDebtsProcedure:         connect.NewUnaryHandler(LedgerServiceGetMyDebtsProcedure, svc.GetMyDebts, opts...),
		LedgerServiceInitiateSettlementProcedure: connect.NewUnaryHandler(LedgerServiceInitiateSettlementProcedure, svc.InitiateSettlement, opts...),
		LedgerServiceCancelSettlementProcedure:   connect.NewUnaryHandler(LedgerServiceCancelSettlementProcedure, svc.CancelSettlement, opts...),
		LedgerServiceRejectSettlementProcedure:   connect.NewUnaryHandler(LedgerServiceRejectSettlementProcedure, svc.RejectSettlement, opts...),
		LedgerServiceConfirmSettlementProcedure:  connect.NewUnaryHandler(LedgerServiceConfirmSettlementProcedure, svc.ConfirmSettlement, opts...),
		LedgerServiceLogSettledDebtProcedure:     connect.NewUnaryHandler(LedgerServiceLogSettledDebtProcedure, svc.LogSettledDebt, opts...),
		LedgerServiceDeleteDebtProcedure:         connect.NewUnaryHandler(LedgerServiceDeleteDebtProcedure, svc.DeleteDebt, opts...),
		LedgerServiceCreateExpenseClaimProcedure: connect.NewUnaryHandler(LedgerServiceCreateExpenseClaimProcedure, svc.CreateExpenseClaim, opts...),
		LedgerServiceAcceptExpenseClaimProcedure: connect.NewUnaryHandler(LedgerServiceAcceptExpenseClaimProcedure, svc.AcceptExpenseClaim, opts...),
		LedgerServiceRejectExpenseClaimProcedure: connect.NewUnaryHandler(LedgerServiceRejectExpenseClaimProcedure, svc.RejectExpenseClaim, opts...),
		LedgerServiceListPendingClaimsProcedure:  connect.NewUnaryHandler(LedgerServiceListPendingClaimsProcedure, svc.ListPendingClaims, opts...),
		LedgerServiceListNotificationsProcedure:  connect.NewUnaryHandler(LedgerServiceListNotificationsProcedure, svc.ListNotifications, opts...),
	}
	return "/" + LedgerServiceName + "/", route(handlers)
}

// LedgerServiceClient is a client for the splitcircle.v1.LedgerService service.
type LedgerServiceClient interface {
	RecordSplitExpense(context.Context, *connect.Request[api.RecordSplitExpenseRequest]) (*connect.Response[api.RecordSplitExpenseResponse], error)
	GetCircleDebts(context.Context, *connect.Request[api.GetCircleDebtsRequest]) (*connect.Response[api.GetCircleDebtsResponse], error)
	GetMyDebts(context.Context, *connect.Request[api.GetMyDebtsRequest]) (*connect.Response[api.GetMyDebtsResponse], error)
	InitiateSettlement(context.Context, *connect.Request[api.DebtRequest]) (*connect.Response[api.DebtResponse], error)
	CancelSettlement(context.Context, *connect.Request[api.DebtRequest]) (*connect.Response[api.DebtResponse], error)
	RejectSettlement(context.Context, *connect.Request[api.DebtRequest]) (*connect.Response[api.DebtResponse], error)
	ConfirmSettlement(context.Context, *connect.Request[api.DebtRequest]) (*connect.Response[api.DebtResponse], error)
	LogSettledDebt(context.Context, *connect.Request[api.DebtRequest]) (*connect.Response[api.LogSettledDebtResponse], error)
	DeleteDebt(context.Context, *connect.Request[api.DebtRequest]) (*connect.Response[api.DeleteDebtResponse], error)
	CreateExpenseClaim(context.Context, *connect.Request[api.CreateExpenseClaimRequest]) (*connect.Response[api.CreateExpenseClaimResponse], error)
	AcceptExpenseClaim(context.Context, *connect.Request[api.ClaimRequest]) (*connect.Response[api.AcceptExpenseClaimResponse], error)
	RejectExpenseClaim(context.Context, *connect.Request[api.ClaimRequest]) (*connect.Response[api.RejectExpenseClaimResponse], error)
	ListPendingClaims(context.Context, *connect.Request[api.ListPendingClaimsRequest]) (*connect.Response[api.ListPendingClaimsResponse], error)
	ListNotifications(context.Context, *connect.Request[api.ListNotificationsRequest]) (*connect.Response[api.ListNotificationsResponse], error)
}

// NewLedgerServiceClient constructs a client for the splitcircle.v1.LedgerService service.
// baseURL is the server root, e.g. http://localhost:8080.
func NewLedgerServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) LedgerServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = withClientCodec(opts)
	return &ledgerServiceClient{
		recordSplitExpense: connect.NewClient[api.RecordSplitExpenseRequest, api.RecordSplitExpenseResponse](httpClient, baseURL+LedgerServiceRecordSplitExpenseProcedure, opts...),
		getCircleDebts:     connect.NewClient[api.GetCircleDebtsRequest, api.GetCircleDebtsResponse](httpClient, baseURL+LedgerServiceGetCircleDebtsProcedure, opts...),
		getMyDebts:         connect.NewClient[api.GetMyDebtsRequest, api.GetMyDebtsResponse](httpClient, baseURL+LedgerServiceGetMyDebtsProcedure, opts...),
		initiateSettlement: connect.NewClient[api.DebtRequest, api.DebtResponse](httpClient, baseURL+LedgerServiceInitiateSettlementProcedure, opts...),
		cancelSettlement:   connect.NewClient[api.DebtRequest, api.DebtResponse](httpClient, baseURL+LedgerServiceCancelSettlementProcedure, opts...),
		rejectSettlement:   connect.NewClient[api.DebtRequest, api.DebtResponse](httpClient, baseURL+LedgerServiceRejectSettlementProcedure, opts...),
		confirmSettlement:  connect.NewClient[api.DebtRequest, api.DebtResponse](httpClient, baseURL+LedgerServiceConfirmSettlementProcedure, opts...),
		logSettledDebt:     connect.NewClient[api.DebtRequest, api.LogSettledDebtResponse](httpClient, baseURL+LedgerServiceLogSettledDebtProcedure, opts...),
		deleteDebt:         connect.NewClient[api.DebtRequest, api.DeleteDebtResponse](httpClient, baseURL+LedgerServiceDeleteDebtProcedure, opts...),
		createExpenseClaim: connect.NewClient[api.CreateExpenseClaimRequest, api.CreateExpenseClaimResponse](httpClient, baseURL+LedgerServiceCreateExpenseClaimProcedure, opts...),
		acceptExpenseClaim: connect.NewClient[api.ClaimRequest, api.AcceptExpenseClaimResponse](httpClient, baseURL+LedgerServiceAcceptExpenseClaimProcedure, opts...),
		rejectExpenseClaim: connect.NewClient[api.ClaimRequest, api.RejectExpenseClaimResponse](httpClient, baseURL+LedgerServiceRejectExpenseClaimProcedure, opts...),
		listPendingClaims:  connect.NewClient[api.ListPendingClaimsRequest, api.ListPendingClaimsResponse](httpClient, baseURL+LedgerServiceListPendingClaimsProcedure, opts...),
		listNotifications:  connect.NewClient[api.ListNotificationsRequest, api.ListNotificationsResponse](httpClient, baseURL+LedgerServiceListNotificationsProcedure, opts...),
	}
}

type ledgerServiceClient struct {
	recordSplitExpense *connect.Client[api.RecordSplitExpenseRequest, api.RecordSplitExpenseResponse]
	getCircleDebts     *connect.Client[api.GetCircleDebtsRequest, api.GetCircleDebtsResponse]
	getMyDebts         *connect.Client[api.GetMyDebtsRequest, api.GetMyDebtsResponse]
	initiateSettlement *connect.Client[api.DebtRequest, api.DebtResponse]
	cancelSettlement   *connect.Client[api.DebtRequest, api.DebtResponse]
	rejectSettlement   *connect.Client[api.DebtRequest, api.DebtResponse]
	confirmSettlement  *connect.Client[api.DebtRequest, api.DebtResponse]
	logSettledDebt     *connect.Client[api.DebtRequest, api.LogSettledDebtResponse]
	deleteDebt         *connect.Client[api.DebtRequest, api.DeleteDebtResponse]
	createExpenseClaim *connect.Client[api.CreateExpenseClaimRequest, api.CreateExpenseClaimResponse]
	acceptExpenseClaim *connect.Client[api.ClaimRequest, api.AcceptExpenseClaimResponse]
	rejectExpenseClaim *connect.Client[api.ClaimRequest, api.RejectExpenseClaimResponse]
	listPendingClaims  *connect.Client[api.ListPendingClaimsRequest, api.ListPendingClaimsResponse]
	listNotifications  *connect.Client[api.ListNotificationsRequest, api.ListNotificationsResponse]
}

func (c *ledgerServiceClient) RecordSplitExpense(ctx context.Context, req *connect.Request[api.RecordSplitExpenseRequest]) (*connect.Response[api.RecordSplitExpenseResponse], error) {
	return c.recordSplitExpense.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) GetCircleDebts(ctx context.Context, req *connect.Request[api.GetCircleDebtsRequest]) (*connect.Response[api.GetCircleDebtsResponse], error) {
	return c.getCircleDebts.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) GetMyDebts(ctx context.Context, req *connect.Request[api.GetMyDebtsRequest]) (*connect.Response[api.GetMyDebtsResponse], error) {
	return c.getMyDebts.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) InitiateSettlement(ctx context.Context, req *connect.Request[api.DebtRequest]) (*connect.Response[api.DebtResponse], error) {
	return c.initiateSettlement.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) CancelSettlement(ctx context.Context, req *connect.Request[api.DebtRequest]) (*connect.Response[api.DebtResponse], error) {
	return c.cancelSettlement.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) RejectSettlement(ctx context.Context, req *connect.Request[api.DebtRequest]) (*connect.Response[api.DebtResponse], error) {
	return c.rejectSettlement.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) ConfirmSettlement(ctx context.Context, req *connect.Request[api.DebtRequest]) (*connect.Response[api.DebtResponse], error) {
	return c.confirmSettlement.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) LogSettledDebt(ctx context.Context, req *connect.Request[api.DebtRequest]) (*connect.Response[api.LogSettledDebtResponse], error) {
	return c.logSettledDebt.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) DeleteDebt(ctx context.Context, req *connect.Request[api.DebtRequest]) (*connect.Response[api.DeleteDebtResponse], error) {
	return c.deleteDebt.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) CreateExpenseClaim(ctx context.Context, req *connect.Request[api.CreateExpenseClaimRequest]) (*connect.Response[api.CreateExpenseClaimResponse], error) {
	return c.createExpenseClaim.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) AcceptExpenseClaim(ctx context.Context, req *connect.Request[api.ClaimRequest]) (*connect.Response[api.AcceptExpenseClaimResponse], error) {
	return c.acceptExpenseClaim.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) RejectExpenseClaim(ctx context.Context, req *connect.Request[api.ClaimRequest]) (*connect.Response[api.RejectExpenseClaimResponse], error) {
	return c.rejectExpenseClaim.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) ListPendingClaims(ctx context.Context, req *connect.Request[api.ListPendingClaimsRequest]) (*connect.Response[api.ListPendingClaimsResponse], error) {
	return c.listPendingClaims.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) ListNotifications(ctx context.Context, req *connect.Request[api.ListNotificationsRequest]) (*connect.Response[api.ListNotificationsResponse], error) {
	return c.listNotifications.CallUnary(ctx, req)
}

// withCodec puts the JSON codec first so callers can still override it.
func withCodec(opts []connect.HandlerOption) []connect.HandlerOption {
	return append([]connect.HandlerOption{connect.WithCodec(api.JSONCodec{})}, opts...)
}

func withClientCodec(opts []connect.ClientOption) []connect.ClientOption {
	return append([]connect.ClientOption{connect.WithCodec(api.JSONCodec{})}, opts...)
}

func route(handlers map[string]http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h, ok := handlers[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		h.ServeHTTP(w, r)
	})
}
