package sheetserver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/cory-johannsen/pf2e-sheet/internal/game/character"
	"github.com/cory-johannsen/pf2e-sheet/internal/game/rref"
	"github.com/cory-johannsen/pf2e-sheet/internal/game/session"
)

// Catalog lists and fetches resources. *ruleset.Registry satisfies it.
type Catalog interface {
	AllByType(t rref.Type) []rref.Ref
	// Pending reports how many lookups missed and await FetchPending.
	Pending() int
	FetchPending(ctx context.Context) (int, error)
}

// Server implements SheetServiceServer over the loaded sheets.
type Server struct {
	sheets       *session.Manager
	catalog      Catalog
	fetchTimeout time.Duration
	logger       *zap.Logger
}

var _ SheetServiceServer = (*Server)(nil)

// NewServer creates a Server. When fetchTimeout is positive, resources that
// were missing from the catalog during a request are fetched from its
// backing source and the request is answered again.
//
// Precondition: sheets, catalog and logger must be non-nil.
func NewServer(sheets *session.Manager, catalog Catalog, fetchTimeout time.Duration, logger *zap.Logger) *Server {
	if sheets == nil || catalog == nil || logger == nil {
		panic("sheetserver.NewServer: precondition violated: sheets, catalog and logger must be non-nil")
	}
	return &Server{sheets: sheets, catalog: catalog, fetchTimeout: fetchTimeout, logger: logger}
}

// NewGRPCServer builds a grpc.Server exposing srv and the standard health
// service, instrumented with OpenTelemetry.
//
// Postcondition: both the server and the sheet service report SERVING.
func NewGRPCServer(srv SheetServiceServer) (*grpc.Server, *health.Server) {
	grpcServer := grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
	RegisterSheetServiceServer(grpcServer, srv)

	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(ServiceName, grpc_health_v1.HealthCheckResponse_SERVING)
	return grpcServer, healthServer
}

func (s *Server) sheet(req *structpb.Struct) (*session.Sheet, error) {
	id := stringField(req, "character_id")
	if id == "" {
		return nil, status.Error(codes.InvalidArgument, "character_id is required")
	}
	sheet, err := s.sheets.Lookup(id)
	if errors.Is(err, session.ErrAmbiguousName) {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if err != nil {
		return nil, status.Error(codes.NotFound, err.Error())
	}
	return sheet, nil
}

// refresh fetches resources the catalog missed and renormalizes sheet.
// A failed fetch is logged and treated as nothing new; a failed
// renormalization is returned.
//
// Postcondition: reports whether anything new was loaded.
func (s *Server) refresh(ctx context.Context, sheet *session.Sheet) (bool, error) {
	if s.fetchTimeout <= 0 || s.catalog.Pending() == 0 {
		return false, nil
	}
	ctx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
	defer cancel()

	n, err := s.catalog.FetchPending(ctx)
	if err != nil {
		s.logger.Warn("fetching pending resources", zap.Error(err))
		return false, nil
	}
	if n == 0 {
		return false, nil
	}
	added, err := sheet.Update(func(*character.Character) error { return nil })
	if err != nil {
		return false, fmt.Errorf("renormalizing %q after fetch: %w", sheet.Name(), err)
	}
	s.logger.Debug("fetched pending resources",
		zap.String("character", sheet.Name()),
		zap.Int("fetched", n),
		zap.Int("granted", added),
	)
	return true, nil
}

// Evaluate returns the named modifier's total and display text.
func (s *Server) Evaluate(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	sheet, err := s.sheet(req)
	if err != nil {
		return nil, err
	}
	name := stringField(req, "name")
	if name == "" {
		return nil, status.Error(codes.InvalidArgument, "name is required")
	}
	target := stringField(req, "target")

	m, err := sheet.Evaluate(name, target)
	if err == nil {
		var fetched bool
		if fetched, err = s.refresh(ctx, sheet); fetched {
			m, err = sheet.Evaluate(name, target)
		}
	}
	if err != nil {
		return nil, evaluationError(err)
	}
	return structpb.NewStruct(map[string]interface{}{
		"total":   m.Total(),
		"display": m.String(),
	})
}

// Describe renders an acquired resource's description for the character.
func (s *Server) Describe(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	sheet, err := s.sheet(req)
	if err != nil {
		return nil, err
	}
	ref, err := rref.Parse(stringField(req, "resource"))
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	text, ok, err := sheet.Describe(ref)
	if err == nil && !ok {
		var fetched bool
		if fetched, err = s.refresh(ctx, sheet); fetched {
			text, ok, err = sheet.Describe(ref)
		}
	}
	if err != nil {
		return nil, evaluationError(err)
	}
	if !ok {
		return nil, status.Errorf(codes.NotFound, "resource %s not found", ref)
	}
	return structpb.NewStruct(map[string]interface{}{"text": text})
}

// ListResources lists the catalog's resources, optionally of one type.
func (s *Server) ListResources(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	t := rref.AnyType
	if name := stringField(req, "type"); name != "" {
		parsed, err := rref.ParseType(name)
		if err != nil {
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}
		t = parsed
	}
	refs := s.catalog.AllByType(t)
	out := make([]interface{}, 0, len(refs))
	for _, ref := range refs {
		out = append(out, ref.String())
	}
	return structpb.NewStruct(map[string]interface{}{"refs": out})
}

// Unenforced lists the conditions on the character's resources that must be
// adjudicated by hand.
func (s *Server) Unenforced(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	sheet, err := s.sheet(req)
	if err != nil {
		return nil, err
	}
	conds := sheet.Unenforced()
	out := make([]interface{}, 0, len(conds))
	for _, u := range conds {
		out = append(out, map[string]interface{}{
			"resource": u.Resource.String(),
			"field":    u.Field,
			"text":     u.Text,
			"known":    u.Known,
		})
	}
	return structpb.NewStruct(map[string]interface{}{"conditions": out})
}

func evaluationError(err error) error {
	if errors.Is(err, character.ErrCircularEvaluation) ||
		errors.Is(err, character.ErrMultipleClasses) ||
		errors.Is(err, character.ErrNormalizationCap) {
		return status.Error(codes.FailedPrecondition, err.Error())
	}
	return status.Error(codes.Internal, err.Error())
}

func stringField(req *structpb.Struct, key string) string {
	if req == nil {
		return ""
	}
	return req.GetFields()[key].GetStringValue()
}
