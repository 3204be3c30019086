// Package towerserver exposes the tower service over gRPC.
package towerserver

import (
	"context"
	"errors"
	"math"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/cory-johannsen/questmon/internal/game/board"
	"github.com/cory-johannsen/questmon/internal/game/monster"
	"github.com/cory-johannsen/questmon/internal/game/tower"
)

// maxAmount bounds dice amounts accepted in one request.
const maxAmount = 1000

// Server implements TowerServiceServer on top of a tower.Service.
// RPC logging is left to observability.UnaryLoggingInterceptor.
type Server struct {
	svc *tower.Service
}

// NewServer creates a Server.
//
// Precondition: svc must be non-nil.
func NewServer(svc *tower.Service) *Server {
	return &Server{svc: svc}
}

// GetBoard returns the layout for the requested seed.
func (s *Server) GetBoard(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	seed, err := intField(req, "seed", 0, math.MaxUint32)
	if err != nil {
		return nil, toStatus(err)
	}
	l, err := s.svc.Board(ctx, uint32(seed))
	if err != nil {
		return nil, toStatus(err)
	}
	return reply(layoutValue(l))
}

// GetProgress returns the caller's progress, creating it on first access.
func (s *Server) GetProgress(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	user, err := userIDField(req)
	if err != nil {
		return nil, toStatus(err)
	}
	p, err := s.svc.Progress(ctx, user)
	if err != nil {
		return nil, toStatus(err)
	}
	return reply(map[string]any{"progress": progressValue(p)})
}

// Roll spends a die and climbs.
func (s *Server) Roll(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	user, err := userIDField(req)
	if err != nil {
		return nil, toStatus(err)
	}
	p, res, err := s.svc.Roll(ctx, user)
	if err != nil {
		return nil, toStatus(err)
	}
	return reply(climbValue(p, res))
}

// AddDice awards dice.
func (s *Server) AddDice(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	user, err := userIDField(req)
	if err != nil {
		return nil, toStatus(err)
	}
	n, err := intField(req, "amount", 1, maxAmount)
	if err != nil {
		return nil, toStatus(err)
	}
	p, err := s.svc.AddDice(ctx, user, int(n))
	if err != nil {
		return nil, toStatus(err)
	}
	return reply(map[string]any{"progress": progressValue(p)})
}

// PurchaseDice buys dice with stars.
func (s *Server) PurchaseDice(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	user, err := userIDField(req)
	if err != nil {
		return nil, toStatus(err)
	}
	n, err := intField(req, "amount", 1, maxAmount)
	if err != nil {
		return nil, toStatus(err)
	}
	p, cost, err := s.svc.PurchaseDice(ctx, user, int(n))
	if err != nil {
		return nil, toStatus(err)
	}
	return reply(map[string]any{"progress": progressValue(p), "cost": cost})
}

// HatchEgg hatches the egg at egg_index, counting eggs only.
func (s *Server) HatchEgg(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	user, err := userIDField(req)
	if err != nil {
		return nil, toStatus(err)
	}
	idx, err := intField(req, "egg_index", 0, math.MaxInt32)
	if err != nil {
		return nil, toStatus(err)
	}
	p, id, err := s.svc.HatchEgg(ctx, user, int(idx))
	if err != nil {
		return nil, toStatus(err)
	}
	return reply(map[string]any{"progress": progressValue(p), "monster_id": id})
}

// GrantEgg awards an egg of monster_id, as won in a lottery.
func (s *Server) GrantEgg(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	user, err := userIDField(req)
	if err != nil {
		return nil, toStatus(err)
	}
	id, err := stringField(req, "monster_id")
	if err != nil {
		return nil, toStatus(err)
	}
	p, err := s.svc.GrantEgg(ctx, user, id)
	if err != nil {
		return nil, toStatus(err)
	}
	return reply(map[string]any{"progress": progressValue(p)})
}

// ResetTower starts a new board after the top is reached.
func (s *Server) ResetTower(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	user, err := userIDField(req)
	if err != nil {
		return nil, toStatus(err)
	}
	p, err := s.svc.ResetTower(ctx, user)
	if err != nil {
		return nil, toStatus(err)
	}
	return reply(map[string]any{"progress": progressValue(p)})
}

// EvolveMonster merges five hatched copies of monster_id into its evolved form.
func (s *Server) EvolveMonster(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	user, err := userIDField(req)
	if err != nil {
		return nil, toStatus(err)
	}
	id, err := stringField(req, "monster_id")
	if err != nil {
		return nil, toStatus(err)
	}
	p, evolved, err := s.svc.EvolveMonster(ctx, user, id)
	if err != nil {
		return nil, toStatus(err)
	}
	return reply(map[string]any{"progress": progressValue(p), "evolved_id": evolved})
}

// GetStars returns the caller's star balance.
func (s *Server) GetStars(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	user, err := userIDField(req)
	if err != nil {
		return nil, toStatus(err)
	}
	balance, err := s.svc.StarBalance(ctx, user)
	if err != nil {
		return nil, toStatus(err)
	}
	return reply(map[string]any{"user_id": user.String(), "stars": balance})
}

func reply(fields map[string]any) (*structpb.Struct, error) {
	out, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encoding response: %v", err)
	}
	return out, nil
}

// toStatus maps domain errors onto gRPC status codes.
func toStatus(err error) error {
	var fieldErr *errField
	switch {
	case errors.As(err, &fieldErr):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, tower.ErrProgressNotFound),
		errors.Is(err, tower.ErrBoardNotFound),
		errors.Is(err, tower.ErrEggNotFound),
		errors.Is(err, monster.ErrMonsterNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, tower.ErrNoDice),
		errors.Is(err, tower.ErrTowerNotComplete),
		errors.Is(err, tower.ErrInsufficientStars),
		errors.Is(err, tower.ErrNotEnoughCopies),
		errors.Is(err, tower.ErrCannotEvolve),
		errors.Is(err, board.ErrPlacementExhausted):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, tower.ErrSeedChanged):
		return status.Error(codes.Aborted, err.Error())
	case errors.Is(err, tower.ErrInvalidAmount),
		errors.Is(err, tower.ErrInvalidRoll),
		errors.Is(err, tower.ErrInvalidMonster):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
