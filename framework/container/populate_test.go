package container_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-beans/framework/container"
)

type settings struct {
	Host    string
	Port    int `bean:"port-number"`
	Debug   bool
	Ratio   float64
	Timeout time.Duration
	Tags    []string
	Weights []int
	Labels  map[string]string
	Peers   []Greeter
	secret  string
	prefix  string
}

func (s *settings) SetHost(h string) { s.Host = s.prefix + h }

func populate(t *testing.T, pvs *container.PropertyValues) (*settings, error) {
	t.Helper()
	c := container.New()
	require.NoError(t, c.RegisterBeanDefinition("greeter", container.DefinitionFor[service]()))
	def := container.Supply(func(context.Context, *container.Container) (*settings, error) {
		return &settings{prefix: "host:"}, nil
	}).Definition()
	def.Properties = pvs
	require.NoError(t, c.RegisterBeanDefinition("settings", def))
	return container.Resolve[*settings](context.Background(), c, "settings")
}

func TestPopulate_ConvertsScalars(t *testing.T) {
	s, err := populate(t, container.NewPropertyValues().
		Add("port-number", "8080").
		Add("debug", "true").
		Add("ratio", "0.5").
		Add("timeout", "1500ms"))
	require.NoError(t, err)

	assert.Equal(t, 8080, s.Port)
	assert.True(t, s.Debug)
	assert.InDelta(t, 0.5, s.Ratio, 1e-9)
	assert.Equal(t, 1500*time.Millisecond, s.Timeout)
}

func TestPopulate_SetterWinsOverField(t *testing.T) {
	s, err := populate(t, container.NewPropertyValues().Add("host", "localhost"))
	require.NoError(t, err)
	assert.Equal(t, "host:localhost", s.Host)
}

func TestPopulate_CollectionsAndReferences(t *testing.T) {
	s, err := populate(t, container.NewPropertyValues().
		Add("tags", container.List{"a", "b"}).
		Add("weights", container.List{"1", 2}).
		Add("labels", map[string]any{"env": "test"}).
		Add("peers", container.List{container.Ref("greeter")}))
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b"}, s.Tags)
	assert.Equal(t, []int{1, 2}, s.Weights)
	assert.Equal(t, map[string]string{"env": "test"}, s.Labels)
	require.Len(t, s.Peers, 1)
	assert.Equal(t, "service:", s.Peers[0].Greet())
}

func TestPopulate_InnerBean(t *testing.T) {
	c := container.New()
	inner := container.Define[peer]().Definition()
	require.NoError(t, container.Define[service]().Property("peer", inner).Register(c, "svc"))

	svc, err := container.Resolve[*service](context.Background(), c, "svc")
	require.NoError(t, err)
	require.NotNil(t, svc.Peer)

	for _, name := range c.Registry().SingletonNames() {
		assert.NotContains(t, name, "inner bean", "inner beans are not pooled")
	}
}

func TestPopulate_TypeMismatch(t *testing.T) {
	_, err := populate(t, container.NewPropertyValues().Add("port-number", "not-a-port"))
	require.ErrorIs(t, err, container.ErrTypeMismatch)
	require.ErrorIs(t, err, container.ErrBeanCreation)

	var tm *container.TypeMismatchError
	require.ErrorAs(t, err, &tm)
	assert.Equal(t, "port-number", tm.Property)
}

type limits struct {
	Small int8
	Mid   int32
	U     uint8
	F     float32
}

func TestPopulate_NumericOverflow(t *testing.T) {
	tests := []struct {
		name     string
		property string
		value    any
	}{
		{"int8 from string", "small", "300"},
		{"int32 from string", "mid", "3000000000"},
		{"uint8 from int", "u", 256},
		{"uint8 negative", "u", -1},
		{"float32 from float64", "f", 1e300},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := container.New()
			require.NoError(t, container.Define[limits]().Property(tt.property, tt.value).Register(c, "limits"))

			_, err := c.GetBean(context.Background(), "limits")
			require.ErrorIs(t, err, container.ErrTypeMismatch)

			var tm *container.TypeMismatchError
			require.ErrorAs(t, err, &tm)
			assert.Equal(t, tt.property, tm.Property)
		})
	}
}

func TestPopulate_NumericInRange(t *testing.T) {
	c := container.New()
	require.NoError(t, container.Define[limits]().
		Property("small", "-128").
		Property("mid", int64(2147483647)).
		Property("u", "255").
		Property("f", 1.5).
		Register(c, "limits"))

	l, err := container.Resolve[*limits](context.Background(), c, "limits")
	require.NoError(t, err)
	assert.Equal(t, limits{Small: -128, Mid: 2147483647, U: 255, F: 1.5}, *l)
}

func TestPopulate_NotWritable(t *testing.T) {
	_, err := populate(t, container.NewPropertyValues().Add("secret", "x"))
	require.ErrorIs(t, err, container.ErrNotWritable)

	_, err = populate(t, container.NewPropertyValues().Add("nope", "x"))
	require.ErrorIs(t, err, container.ErrNotWritable)
}

func TestPopulate_UnresolvableReference(t *testing.T) {
	_, err := populate(t, container.NewPropertyValues().Add("peers", container.List{container.Ref("missing")}))
	require.ErrorIs(t, err, container.ErrNoSuchBean)
	assert.Contains(t, err.Error(), `cannot resolve reference to bean "missing"`)
}

func TestPropertyValues_AddReplaces(t *testing.T) {
	pvs := container.NewPropertyValues().Add("a", 1).Add("b", 2).Add("a", 3)

	assert.Equal(t, 2, pvs.Len())
	v, ok := pvs.Get("a")
	require.True(t, ok)
	assert.Equal(t, 3, v)
	assert.Equal(t, "a", pvs.All()[0].Name)

	pvs.Remove("a")
	assert.False(t, pvs.Contains("a"))

	var nilPVs *container.PropertyValues
	assert.Zero(t, nilPVs.Len())
	assert.NotNil(t, nilPVs.Clone())
}
