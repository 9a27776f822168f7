package sheetserver_test

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/cory-johannsen/pf2e-sheet/internal/game/character"
	"github.com/cory-johannsen/pf2e-sheet/internal/game/rref"
	"github.com/cory-johannsen/pf2e-sheet/internal/game/ruleset"
	"github.com/cory-johannsen/pf2e-sheet/internal/game/ruleset/mock"
	"github.com/cory-johannsen/pf2e-sheet/internal/game/session"
	"github.com/cory-johannsen/pf2e-sheet/internal/sheetserver"
)

const testResources = `
class:
  name: Fighter
  hp_per_level: 10
  choices:
    $Level: {kind: level, key: true}
  advancement:
    1: [Shield Block]
---
feat:
  name: Sudden Charge
  description: You may Stride twice, then Strike once.
  prerequisites: trained in Athletics and You are in Dragon Stance
`

const shieldBlock = `
class feature:
  name: Shield Block
  description: "You gain a +[[ 1 + 1 ]] circumstance bonus to AC while your shield is raised."
  effects:
    - bonus: {type: circumstance, to: AC, value: 2}
`

func decode(t *testing.T, doc string) []ruleset.Resource {
	t.Helper()
	rs, err := ruleset.Decode([]byte(doc))
	require.NoError(t, err)
	return rs
}

type fixture struct {
	client *sheetserver.Client
	conn   *grpc.ClientConn
	sheets *session.Manager
	id     string
}

// start serves a sheet server over an in-memory listener. Resources
// registered up front come from testResources; src, when non-nil, backs the
// registry for resources loaded on demand.
func start(t *testing.T, src ruleset.Source, preload ...string) *fixture {
	t.Helper()
	return startWith(t, src, nil, preload...)
}

// startWith is start with extra resources acquired by the character.
func startWith(t *testing.T, src ruleset.Source, extra []rref.Ref, preload ...string) *fixture {
	t.Helper()
	reg := ruleset.NewRegistry(src, zap.NewNop())
	for _, doc := range append([]string{testResources}, preload...) {
		require.NoError(t, reg.RegisterAll(decode(t, doc)))
	}
	mgr := session.NewManager(character.NewResolver(reg, nil, zap.NewNop()), zap.NewNop())

	c := character.New("Valeros", "Amiri")
	c.AddResource(rref.Typed("Fighter", rref.Class))
	c.AddResource(rref.Typed("Sudden Charge", rref.Feat))
	c.SetChoice(rref.New("Fighter"), character.LevelChoice, 2)
	for _, ref := range extra {
		c.AddResource(ref)
	}
	_, err := mgr.Add(c)
	require.NoError(t, err)

	grpcServer, _ := sheetserver.NewGRPCServer(sheetserver.NewServer(mgr, reg, time.Second, zap.NewNop()))
	lis := bufconn.Listen(1 << 20)
	go func() { _ = grpcServer.Serve(lis) }()
	t.Cleanup(grpcServer.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return &fixture{client: sheetserver.NewClient(conn), conn: conn, sheets: mgr, id: c.ID.String()}
}

func TestNewServer_PanicsOnNil(t *testing.T) {
	assert.Panics(t, func() { sheetserver.NewServer(nil, nil, 0, zap.NewNop()) })
}

func TestServer_Evaluate(t *testing.T) {
	f := start(t, nil, shieldBlock)
	ctx := context.Background()

	hp, err := f.client.Evaluate(ctx, f.id, ruleset.MaxHP, "")
	require.NoError(t, err)
	assert.Equal(t, 20, hp.Total)

	ac, err := f.client.Evaluate(ctx, "valeros", "AC", "")
	require.NoError(t, err, "characters can be addressed by name")
	assert.Equal(t, 2, ac.Total)
	assert.NotEmpty(t, ac.Display)
}

func TestServer_Evaluate_Errors(t *testing.T) {
	f := start(t, nil)
	ctx := context.Background()

	_, err := f.client.Evaluate(ctx, "", "AC", "")
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = f.client.Evaluate(ctx, f.id, "", "")
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = f.client.Evaluate(ctx, "Merisiel", "AC", "")
	assert.Equal(t, codes.NotFound, status.Code(err))

	_, err = f.sheets.Add(character.New("VALEROS", ""))
	require.NoError(t, err)
	_, err = f.client.Evaluate(ctx, "valeros", "AC", "")
	assert.Equal(t, codes.InvalidArgument, status.Code(err), "name shared by two characters")
	_, err = f.client.Evaluate(ctx, f.id, "AC", "")
	assert.NoError(t, err)
}

func TestServer_Evaluate_FetchesMissingResources(t *testing.T) {
	ctrl := gomock.NewController(t)
	src := mock.NewMockSource(ctrl)
	src.EXPECT().Fetch(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, ref rref.Ref) (ruleset.Resource, error) {
			if ref.Name == "Shield Block" {
				return decode(t, shieldBlock)[0], nil
			}
			return nil, ruleset.ErrNotFound
		}).AnyTimes()

	f := start(t, src)
	ac, err := f.client.Evaluate(context.Background(), f.id, "AC", "")
	require.NoError(t, err)
	assert.Equal(t, 2, ac.Total)
}

func TestServer_Evaluate_FetchedSecondClassFails(t *testing.T) {
	ctrl := gomock.NewController(t)
	src := mock.NewMockSource(ctrl)
	src.EXPECT().Fetch(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, ref rref.Ref) (ruleset.Resource, error) {
			if ref.Name == "Wizard" {
				return decode(t, "class:\n  name: Wizard\n  hp_per_level: 6\n")[0], nil
			}
			return nil, ruleset.ErrNotFound
		}).AnyTimes()

	f := startWith(t, src, []rref.Ref{rref.Typed("Wizard", rref.Class)}, shieldBlock)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := f.client.Evaluate(ctx, f.id, ruleset.MaxHP, "")
		assert.Equal(t, codes.FailedPrecondition, status.Code(err), "call %d", i)
	}
}

func TestServer_Describe(t *testing.T) {
	f := start(t, nil, shieldBlock)
	ctx := context.Background()

	text, err := f.client.Describe(ctx, f.id, "Shield Block")
	require.NoError(t, err)
	assert.Equal(t, "You gain a +2 circumstance bonus to AC while your shield is raised.", text)

	_, err = f.client.Describe(ctx, f.id, "Nonexistent Feat")
	assert.Equal(t, codes.NotFound, status.Code(err))

	_, err = f.client.Describe(ctx, f.id, "Bad [[ref")
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestServer_ListResources(t *testing.T) {
	f := start(t, nil, shieldBlock)
	ctx := context.Background()

	all, err := f.client.ListResources(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	feats, err := f.client.ListResources(ctx, "feat")
	require.NoError(t, err)
	assert.Equal(t, []string{"Sudden Charge [feat]"}, feats)

	_, err = f.client.ListResources(ctx, "deity")
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestServer_Unenforced(t *testing.T) {
	f := start(t, nil, shieldBlock)
	conds, err := f.client.Unenforced(context.Background(), f.id)
	require.NoError(t, err)
	require.Len(t, conds, 1)
	assert.Equal(t, sheetserver.Unenforced{
		Resource: "Sudden Charge [feat]",
		Field:    "prerequisites",
		Text:     "You are in Dragon Stance",
		Known:    true,
	}, conds[0])
}

func TestServer_Health(t *testing.T) {
	f := start(t, nil)
	resp, err := grpc_health_v1.NewHealthClient(f.conn).Check(context.Background(),
		&grpc_health_v1.HealthCheckRequest{Service: sheetserver.ServiceName})
	require.NoError(t, err)
	assert.Equal(t, grpc_health_v1.HealthCheckResponse_SERVING, resp.GetStatus())
}
