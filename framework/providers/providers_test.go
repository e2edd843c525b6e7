package providers_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"

	"github.com/km-arc/go-beans/framework/config"
	"github.com/km-arc/go-beans/framework/container"
	"github.com/km-arc/go-beans/framework/providers"
	"github.com/km-arc/go-beans/framework/routing"
	"github.com/km-arc/go-beans/framework/tracing"
	"github.com/km-arc/go-beans/scenarios"
)

func registry(t *testing.T, ps ...container.ServiceProvider) (*container.Container, *container.ProviderRegistry) {
	t.Helper()
	c := container.New()
	r := container.NewProviderRegistry(c)
	for _, p := range ps {
		require.NoError(t, r.Register(context.Background(), p))
	}
	return c, r
}

func TestTracingProvider_BuildsFromConfig(t *testing.T) {
	cfg := config.Defaults()
	c, _ := registry(t,
		&providers.ConfigServiceProvider{Config: &cfg},
		&providers.TracingServiceProvider{},
	)
	ctx := context.Background()

	tp, err := container.Resolve[*tracing.Provider](ctx, c, providers.TracingName)
	require.NoError(t, err)
	assert.False(t, tp.Enabled())

	tracer, err := container.Resolve[trace.Tracer](ctx, c, providers.TracerName)
	require.NoError(t, err)
	assert.Equal(t, tp.Tracer(), tracer)
}

func TestRoutingProvider_MountsInspectorOnBoot(t *testing.T) {
	c, r := registry(t,
		&providers.LogServiceProvider{},
		&providers.RoutingServiceProvider{},
	)
	ctx := context.Background()
	require.NoError(t, r.Boot(ctx))

	router, err := container.Resolve[*routing.Router](ctx, c, providers.RouterName)
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/beans/router", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"instantiated":true`)
}

func TestRoutingProvider_NeedsLogger(t *testing.T) {
	_, r := registry(t, &providers.RoutingServiceProvider{})
	err := r.Boot(context.Background())
	require.ErrorIs(t, err, container.ErrNoSuchBean)
}

func TestScenarioProvider_IsDeferred(t *testing.T) {
	c, r := registry(t, &providers.LogServiceProvider{}, &providers.ScenarioServiceProvider{})
	assert.False(t, c.ContainsBeanDefinition(scenarios.ServiceBName))

	b, err := container.Resolve[*scenarios.ServiceB](context.Background(), c, scenarios.ServiceBName)
	require.NoError(t, err)
	assert.Equal(t, 12345, b.MyService.Identifier())
	assert.Empty(t, r.Deferred())
}
