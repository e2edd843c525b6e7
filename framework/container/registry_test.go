package container_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-beans/framework/container"
)

type destroyFunc func() error

func (f destroyFunc) Destroy() error { return f() }

func TestSingletonRegistry_RegisterSingleton(t *testing.T) {
	r := container.NewSingletonRegistry()
	require.NoError(t, r.RegisterSingleton("a", 1))

	require.ErrorIs(t, r.RegisterSingleton("a", 2), container.ErrSingletonExists)
	require.ErrorIs(t, r.RegisterSingleton("", 2), container.ErrInvalidName)
	require.ErrorIs(t, r.RegisterSingleton("nil", nil), container.ErrInvalidDefinition)

	obj, ok := r.Singleton("a")
	require.True(t, ok)
	assert.Equal(t, 1, obj)
}

func TestSingletonRegistry_GetSingletonOrCreate_FactoryOnce(t *testing.T) {
	r := container.NewSingletonRegistry()
	calls := 0
	factory := func() (any, error) {
		calls++
		return &service{}, nil
	}

	a, err := r.GetSingletonOrCreate("svc", factory)
	require.NoError(t, err)
	b, err := r.GetSingletonOrCreate("svc", factory)
	require.NoError(t, err)

	assert.Same(t, a, b)
	assert.Equal(t, 1, calls)
	assert.False(t, r.IsCurrentlyInCreation("svc"))
	assert.Equal(t, []string{"svc"}, r.SingletonNames())
}

func TestSingletonRegistry_GetSingletonOrCreate_Reentry(t *testing.T) {
	r := container.NewSingletonRegistry()
	_, err := r.GetSingletonOrCreate("svc", func() (any, error) {
		assert.True(t, r.IsCurrentlyInCreation("svc"))
		return r.GetSingletonOrCreate("svc", func() (any, error) { return 1, nil })
	})
	require.ErrorIs(t, err, container.ErrCurrentlyInCreation)
	assert.False(t, r.ContainsSingleton("svc"))
}

func TestSingletonRegistry_GetSingletonOrCreate_FactoryError(t *testing.T) {
	boom := errors.New("boom")
	r := container.NewSingletonRegistry()
	_, err := r.GetSingletonOrCreate("svc", func() (any, error) { return nil, boom })
	require.ErrorIs(t, err, boom)
	assert.False(t, r.IsCurrentlyInCreation("svc"))
}

func TestSingletonRegistry_GetSingletonOrCreate_FactoryErrorNotMasked(t *testing.T) {
	boom := errors.New("boom")
	r := container.NewSingletonRegistry()
	obj, err := r.GetSingletonOrCreate("x", func() (any, error) {
		r.AddSingleton("x", 7)
		return nil, boom
	})
	require.ErrorIs(t, err, boom)
	assert.Nil(t, obj)
}

func TestSingletonRegistry_GetSingletonOrCreate_ImplicitSingletonWins(t *testing.T) {
	r := container.NewSingletonRegistry()
	obj, err := r.GetSingletonOrCreate("x", func() (any, error) {
		r.AddSingleton("x", 7)
		return nil, &container.BeanCurrentlyInCreationError{Name: "x"}
	})
	require.NoError(t, err)
	assert.Equal(t, 7, obj)
}

func TestSingletonRegistry_EarlyReference(t *testing.T) {
	r := container.NewSingletonRegistry()
	raw := &service{ID: 1}
	earlyCalls := 0

	final, err := r.GetSingletonOrCreate("svc", func() (any, error) {
		r.AddSingletonFactory("svc", func() (any, error) {
			earlyCalls++
			return raw, nil
		})

		// Level 1 stays empty until creation completes.
		_, ok := r.Singleton("svc")
		assert.False(t, ok)

		first, err := r.GetSingleton("svc")
		require.NoError(t, err)
		second, err := r.GetSingleton("svc")
		require.NoError(t, err)
		assert.Same(t, raw, first)
		assert.Same(t, first, second)
		return raw, nil
	})
	require.NoError(t, err)

	assert.Same(t, raw, final)
	assert.Equal(t, 1, earlyCalls, "early factory promoted to level 2 after first use")
}

func TestSingletonRegistry_GetSingleton_NotInCreation(t *testing.T) {
	r := container.NewSingletonRegistry()
	r.AddSingletonFactory("svc", func() (any, error) { return 1, nil })

	obj, err := r.GetSingleton("svc")
	require.NoError(t, err)
	assert.Nil(t, obj, "factories are only consulted for names in creation")
}

func TestSingletonRegistry_AddSingleton_ClearsEarlyLevels(t *testing.T) {
	r := container.NewSingletonRegistry()
	r.AddSingleton("svc", 2)
	r.AddSingletonFactory("svc", func() (any, error) { return 1, nil })

	obj, err := r.GetSingleton("svc")
	require.NoError(t, err)
	assert.Equal(t, 2, obj)
	assert.Equal(t, 1, r.SingletonCount())
}

func TestSingletonRegistry_DependencyGraph(t *testing.T) {
	r := container.NewSingletonRegistry()
	r.RegisterDependentBean("a", "b")
	r.RegisterDependentBean("b", "c")

	assert.True(t, r.IsDependent("a", "b"))
	assert.True(t, r.IsDependent("a", "c"), "transitive")
	assert.False(t, r.IsDependent("c", "a"))
	assert.Equal(t, []string{"b"}, r.DependentBeans("a"))
	assert.Equal(t, []string{"b"}, r.DependenciesFor("c"))
	assert.True(t, r.HasDependentBean("b"))
	assert.False(t, r.HasDependentBean("c"))
}

func TestSingletonRegistry_DestroySingletons_ReverseOrder(t *testing.T) {
	r := container.NewSingletonRegistry()
	var order []string
	for _, name := range []string{"a", "b", "c"} {
		r.AddSingleton(name, name)
		r.RegisterDisposableBean(name, destroyFunc(func() error {
			order = append(order, name)
			return nil
		}))
	}

	require.NoError(t, r.DestroySingletons())
	assert.Equal(t, []string{"c", "b", "a"}, order)
	assert.Zero(t, r.SingletonCount())
}

func TestSingletonRegistry_DestroySingleton_DependentsFirst(t *testing.T) {
	r := container.NewSingletonRegistry()
	var order []string
	for _, name := range []string{"a", "b"} {
		r.AddSingleton(name, name)
		r.RegisterDisposableBean(name, destroyFunc(func() error {
			order = append(order, name)
			return nil
		}))
	}
	r.RegisterDependentBean("a", "b")

	require.NoError(t, r.DestroySingleton("a"))
	assert.Equal(t, []string{"b", "a"}, order)
	assert.False(t, r.ContainsSingleton("b"))
}

func TestSingletonRegistry_DestroySingleton_CycleTerminates(t *testing.T) {
	r := container.NewSingletonRegistry()
	r.AddSingleton("a", 1)
	r.AddSingleton("b", 2)
	r.RegisterDependentBean("a", "b")
	r.RegisterDependentBean("b", "a")

	require.NoError(t, r.DestroySingleton("a"))
	assert.Zero(t, r.SingletonCount())
}

func TestSingletonRegistry_DestroySingletons_JoinsErrors(t *testing.T) {
	errA, errB := errors.New("a failed"), errors.New("b failed")
	r := container.NewSingletonRegistry()
	r.RegisterDisposableBean("a", destroyFunc(func() error { return errA }))
	r.RegisterDisposableBean("b", destroyFunc(func() error { return errB }))

	err := r.DestroySingletons()
	require.ErrorIs(t, err, errA)
	require.ErrorIs(t, err, errB)
}

func TestSingletonRegistry_CreationRefusedDuringDestruction(t *testing.T) {
	r := container.NewSingletonRegistry()
	var createErr error
	r.RegisterDisposableBean("a", destroyFunc(func() error {
		_, createErr = r.GetSingletonOrCreate("late", func() (any, error) { return 1, nil })
		return nil
	}))

	require.NoError(t, r.DestroySingletons())
	require.ErrorIs(t, createErr, container.ErrCreationNotAllowed)
	require.ErrorIs(t, createErr, container.ErrBeanCreation)
}
