package sim

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_BoundsInstanceCount(t *testing.T) {
	// GIVEN a registry limited to two instances
	r := NewRegistry(2)
	_, err := r.Create(Config{Name: "a"})
	require.NoError(t, err)
	_, err = r.Create(Config{Name: "b"})
	require.NoError(t, err)

	// WHEN a third is created
	_, err = r.Create(Config{Name: "c"})

	// THEN the limit error is returned
	assert.True(t, errors.Is(err, ErrTooManySimulations), "got %v", err)
	assert.Equal(t, 2, r.Len())

	// AND destroying one frees a slot
	assert.True(t, r.Destroy("a"))
	assert.False(t, r.Destroy("a"))
	_, err = r.Create(Config{Name: "c"})
	assert.NoError(t, err)
}

func TestRegistry_AssignsNameWhenEmpty(t *testing.T) {
	r := NewRegistry(0)
	s, err := r.Create(Config{})
	require.NoError(t, err)

	assert.NotEmpty(t, s.Name())
	got, ok := r.Get(s.Name())
	assert.True(t, ok)
	assert.Same(t, s, got)
}

func TestRegistry_DuplicateName_Errors(t *testing.T) {
	r := NewRegistry(0)
	_, err := r.Create(Config{Name: "dup"})
	require.NoError(t, err)

	_, err = r.Create(Config{Name: "dup"})
	assert.Error(t, err)
	assert.False(t, errors.Is(err, ErrTooManySimulations))
}

func TestRegistry_InstancesAreIsolated(t *testing.T) {
	// GIVEN instances driven from separate goroutines
	r := NewRegistry(0)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		s, err := r.Create(Config{Name: fmt.Sprintf("run-%d", i)})
		require.NoError(t, err)
		wg.Add(1)
		go func(s *Simulation, n int) {
			defer wg.Done()
			f := s.CreateFacility("link", 1)
			for k := 1; k <= n; k++ {
				if s.Request(f, Token(k), 0, evDone, 1, nil) == Served {
					s.Schedule(evDone, 1, Token(k), nil)
				}
			}
			for !s.IsEmpty() {
				s.Release(f, s.Cause().Token)
			}
		}(s, i+1)
	}
	wg.Wait()

	// THEN each clock reflects only its own work
	for i := 0; i < 8; i++ {
		s, ok := r.Get(fmt.Sprintf("run-%d", i))
		require.True(t, ok)
		assert.Equal(t, float64(i+1), s.Time())
		assert.Equal(t, i+1, s.Releases(0))
	}
}

func TestNewRegistry_NegativeLimit_Panics(t *testing.T) {
	assert.PanicsWithValue(t, "NewRegistry: limit must be >= 0, got -1", func() { NewRegistry(-1) })
}
