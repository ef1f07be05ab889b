package service

import (
	"context"
	"log/slog"

	"connectrpc.com/connect"
	"github.com/go-playground/validator/v10"

	"github.com/mmynk/splitcircle/internal/ledger"
	"github.com/mmynk/splitcircle/internal/middleware"
	"github.com/mmynk/splitcircle/internal/models"
	"github.com/mmynk/splitcircle/pkg/api"
	"github.com/mmynk/splitcircle/pkg/api/apiconnect"
)

// CircleService implements the Connect CircleService: circles, profiles, balances and
// circle settlements.
type CircleService struct {
	ledger   *ledger.Ledger
	validate *validator.Validate
	logger   *slog.Logger
}

var _ apiconnect.CircleServiceHandler = (*CircleService)(nil)

// NewCircleService creates a CircleService backed by l.
func NewCircleService(l *ledger.Ledger, logger *slog.Logger) *CircleService {
	if logger == nil {
		logger = slog.Default()
	}
	return &CircleService{
		ledger:   l,
		validate: newValidator(),
		logger:   logger.With("service", "circle"),
	}
}

// CreateCircle creates a circle owned by the caller.
func (s *CircleService) CreateCircle(ctx context.Context, req *connect.Request[api.CreateCircleRequest]) (*connect.Response[api.CreateCircleResponse], error) {
	if err := s.validate.Struct(req.Msg); err != nil {
		return nil, validationError(err)
	}
	owner, err := callerProfile(ctx, s.ledger)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("CreateCircle request received",
		"name", req.Msg.Name,
		"members_count", len(req.Msg.MemberUIDs),
	)

	circle, err := s.ledger.CreateCircle(ctx, owner, req.Msg.Name, req.Msg.MemberUIDs)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&api.CreateCircleResponse{Circle: toAPICircle(circle)}), nil
}

// GetCircle returns a circle the caller belongs to.
func (s *CircleService) GetCircle(ctx context.Context, req *connect.Request[api.GetCircleRequest]) (*connect.Response[api.GetCircleResponse], error) {
	if err := s.validate.Struct(req.Msg); err != nil {
		return nil, validationError(err)
	}
	uid, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	circle, err := s.ledger.GetCircle(ctx, uid, req.Msg.CircleID)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&api.GetCircleResponse{Circle: toAPICircle(circle)}), nil
}

// ListCircles lists the caller's circles.
func (s *CircleService) ListCircles(ctx context.Context, req *connect.Request[api.ListCirclesRequest]) (*connect.Response[api.ListCirclesResponse], error) {
	uid, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	circles, err := s.ledger.ListCircles(ctx, uid)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&api.ListCirclesResponse{Circles: toAPICircles(circles)}), nil
}

// AddMember adds a user to a circle the caller owns.
func (s *CircleService) AddMember(ctx context.Context, req *connect.Request[api.AddMemberRequest]) (*connect.Response[api.AddMemberResponse], error) {
	if err := s.validate.Struct(req.Msg); err != nil {
		return nil, validationError(err)
	}
	uid, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	circle, err := s.ledger.AddMember(ctx, uid, req.Msg.CircleID, req.Msg.UID)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&api.AddMemberResponse{Circle: toAPICircle(circle)}), nil
}

// LeaveCircle removes the caller from a circle.
func (s *CircleService) LeaveCircle(ctx context.Context, req *connect.Request[api.LeaveCircleRequest]) (*connect.Response[api.LeaveCircleResponse], error) {
	if err := s.validate.Struct(req.Msg); err != nil {
		return nil, validationError(err)
	}
	uid, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	deleted, err := s.ledger.LeaveCircle(ctx, uid, req.Msg.CircleID)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&api.LeaveCircleResponse{CircleDeleted: deleted}), nil
}

// SyncProfile stores the caller's profile and refreshes every snapshot of it.
func (s *CircleService) SyncProfile(ctx context.Context, req *connect.Request[api.SyncProfileRequest]) (*connect.Response[api.SyncProfileResponse], error) {
	if err := s.validate.Struct(req.Msg); err != nil {
		return nil, validationError(err)
	}
	uid, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	email := middleware.GetEmail(ctx)
	err = s.ledger.SyncProfile(ctx, models.UserProfile{
		UID:         uid,
		Email:       email,
		DisplayName: req.Msg.DisplayName,
		PhotoURL:    req.Msg.PhotoURL,
		Username:    req.Msg.Username,
	})
	if err != nil {
		return nil, toConnectError(err)
	}
	p, err := s.ledger.Profile(ctx, uid, email)
	if err != nil {
		return nil, toConnectError(err)
	}
	profile := toAPIProfile(p)
	return connect.NewResponse(&api.SyncProfileResponse{Profile: &profile}), nil
}

// GetCircleBalances returns net balances and suggested transfers for a circle.
func (s *CircleService) GetCircleBalances(ctx context.Context, req *connect.Request[api.GetCircleBalancesRequest]) (*connect.Response[api.GetCircleBalancesResponse], error) {
	if err := s.validate.Struct(req.Msg); err != nil {
		return nil, validationError(err)
	}
	uid, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	balances, err := s.ledger.CircleBalances(ctx, uid, req.Msg.CircleID)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&api.GetCircleBalancesResponse{CircleBalances: toAPIBalances(balances)}), nil
}

// RequestSettlement records a payment from the caller to another member.
func (s *CircleService) RequestSettlement(ctx context.Context, req *connect.Request[api.RequestSettlementRequest]) (*connect.Response[api.RequestSettlementResponse], error) {
	if err := s.validate.Struct(req.Msg); err != nil {
		return nil, validationError(err)
	}
	uid, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	settlement, err := s.ledger.RequestSettlement(ctx, uid, req.Msg.CircleID, req.Msg.ToUserID, req.Msg.Amount)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&api.RequestSettlementResponse{Settlement: toAPISettlement(settlement)}), nil
}

// RespondToSettlement confirms or rejects a settlement sent to the caller.
func (s *CircleService) RespondToSettlement(ctx context.Context, req *connect.Request[api.RespondToSettlementRequest]) (*connect.Response[api.RespondToSettlementResponse], error) {
	if err := s.validate.Struct(req.Msg); err != nil {
		return nil, validationError(err)
	}
	uid, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	settlement, err := s.ledger.RespondToSettlement(ctx, uid, req.Msg.SettlementID, req.Msg.Accept)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&api.RespondToSettlementResponse{Settlement: toAPISettlement(settlement)}), nil
}

// WatchCircle streams balance snapshots until the client goes away or the caller loses
// access to the circle. Snapshots the client is too slow to receive are replaced by newer ones.
func (s *CircleService) WatchCircle(ctx context.Context, req *connect.Request[api.WatchCircleRequest], stream *connect.ServerStream[api.WatchCircleResponse]) error {
	if err := s.validate.Struct(req.Msg); err != nil {
		return validationError(err)
	}
	uid, err := caller(ctx)
	if err != nil {
		return err
	}

	// Single producer, so after draining the send below never blocks.
	updates := make(chan *ledger.Balances, 1)
	ended := make(chan error, 1)
	stop, err := s.ledger.WatchCircleBalances(ctx, uid, req.Msg.CircleID, func(b *ledger.Balances) {
		select {
		case <-updates:
		default:
		}
		updates <- b
	}, func(err error) {
		ended <- err
	})
	if err != nil {
		return toConnectError(err)
	}
	defer stop()

	s.logger.Debug("Watching circle", "circle_id", req.Msg.CircleID, "user_id", uid)
	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-ended:
			s.logger.Debug("Circle watch ended", "circle_id", req.Msg.CircleID, "user_id", uid, "error", err)
			return toConnectError(err)
		case b := <-updates:
			if err := stream.Send(&api.WatchCircleResponse{CircleBalances: toAPIBalances(b)}); err != nil {
				return err
			}
		}
	}
}
