package registry_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/aretw0/headless/pkg/domain"
	"github.com/aretw0/headless/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister_Overwrite(t *testing.T) {
	reg := registry.NewRegistry()

	assert.False(t, reg.Register(registry.Descriptor{Name: "log", Summary: "first"}))
	assert.True(t, reg.Register(registry.Descriptor{Name: "log", Summary: "second"}))

	d, ok := reg.Lookup("log")
	require.True(t, ok)
	assert.Equal(t, "second", d.Summary, "last registration wins")
	assert.Equal(t, 1, reg.Len())
}

func TestList_SortedByName(t *testing.T) {
	reg := registry.NewRegistry()
	for _, name := range []string{"zeta", "alpha", "mid"} {
		reg.Register(registry.Descriptor{Name: name})
	}

	var names []string
	for _, d := range reg.List() {
		names = append(names, d.Name)
	}
	assert.Equal(t, []string{"alpha", "mid", "zeta"}, names)
}

func TestUsage(t *testing.T) {
	reg := registry.NewRegistry()
	reg.Register(registry.Descriptor{Name: "log", Usage: "Usage: log <msg>"})

	usage, err := reg.Usage("log")
	require.NoError(t, err)
	assert.Equal(t, "Usage: log <msg>", usage)

	_, err = reg.Usage("nope")
	assert.ErrorIs(t, err, domain.ErrCommandNotFound)
	assert.False(t, reg.Contains("nope"))
}

func TestHistorySize(t *testing.T) {
	assert.Equal(t, registry.DefaultHistorySize, registry.NewRegistry().HistorySize())
	assert.Equal(t, 5, registry.NewRegistry(registry.WithHistorySize(5)).HistorySize())
	assert.Equal(t, 0, registry.NewRegistry(registry.WithHistorySize(0)).HistorySize())
	assert.Equal(t, registry.DefaultHistorySize, registry.NewRegistry(registry.WithHistorySize(-1)).HistorySize())
}

func TestRegistry_ConcurrentReaders(t *testing.T) {
	reg := registry.NewRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			reg.Register(registry.Descriptor{Name: fmt.Sprintf("cmd%d", i)})
		}(i)
		go func() {
			defer wg.Done()
			_ = reg.List()
		}()
	}
	wg.Wait()
	assert.Equal(t, 8, reg.Len())
}
