package negotiation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubModule is a minimal AnalysisModule for registry and orchestrator tests.
type stubModule struct {
	name string
	text string
	err  error
}

func (m *stubModule) Name() string { return m.name }

func (m *stubModule) ObservationContext(ctx context.Context, participant string, rc *RoundContext) (string, error) {
	return m.text, m.err
}

func TestRegistryRegisterAndCreate(t *testing.T) {
	registry := NewRegistry()
	registry.Register("alpha", func() AnalysisModule { return &stubModule{name: "alpha"} })

	assert.True(t, registry.Has("alpha"))
	mod, ok := registry.Create("alpha")
	require.True(t, ok)
	assert.Equal(t, "alpha", mod.Name())
}

func TestRegistryCreateUnknownIsSoftMiss(t *testing.T) {
	registry := NewRegistry()

	mod, ok := registry.Create("ghost")
	assert.False(t, ok)
	assert.Nil(t, mod)
}

func TestRegistryDuplicateOverwrites(t *testing.T) {
	registry := NewRegistry()
	registry.Register("alpha", func() AnalysisModule { return &stubModule{name: "alpha", text: "first"} })
	registry.Register("alpha", func() AnalysisModule { return &stubModule{name: "alpha", text: "second"} })

	mod, ok := registry.Create("alpha")
	require.True(t, ok)
	text, err := mod.ObservationContext(context.Background(), "buyer", nil)
	require.NoError(t, err)
	assert.Equal(t, "second", text, "last registration wins")
	assert.Equal(t, []string{"alpha"}, registry.ListModules(), "no duplicate slot")
}

func TestRegistryListPreservesOrder(t *testing.T) {
	registry := NewRegistry()
	for _, name := range []string{"c", "a", "b"} {
		name := name
		registry.Register(name, func() AnalysisModule { return &stubModule{name: name} })
	}

	assert.Equal(t, []string{"c", "a", "b"}, registry.ListModules())
}

func TestRegistryCreateReturnsFreshInstances(t *testing.T) {
	registry := NewRegistry()
	registry.Register("alpha", func() AnalysisModule { return &stubModule{name: "alpha"} })

	first, _ := registry.Create("alpha")
	second, _ := registry.Create("alpha")
	assert.NotSame(t, first, second, "each session gets its own module state")
}
