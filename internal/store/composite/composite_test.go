package composite_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tencent/kgsearch/internal/store"
	"github.com/Tencent/kgsearch/internal/store/composite"
)

// stubEntityBackend answers every EntityStore method from its own field so
// tests can assert a composite.Entities routes each call to the right
// sub-field rather than, say, always hitting the vector backend.
type stubEntityBackend struct {
	vectorCalled bool
	nameCalled   bool
	joinCalled   bool
}

func (s *stubEntityBackend) SearchEntitiesByVector(ctx context.Context, _ []float32, _ []string,
	_, _ int, _ string,
) ([]store.EntityCandidate, error) {
	s.vectorCalled = true
	return nil, nil
}

func (s *stubEntityBackend) SearchEntitiesByName(ctx context.Context, _ string, _ []string, _ int,
) ([]store.EntityCandidate, error) {
	s.nameCalled = true
	return nil, nil
}

func (s *stubEntityBackend) GetEntityTypes(ctx context.Context, _ []string) ([]store.EntityTypeRow, error) {
	s.joinCalled = true
	return nil, nil
}

func (s *stubEntityBackend) GetEventsByEntityIDs(ctx context.Context, _, _ []string) ([]store.EntityEventLink, error) {
	s.joinCalled = true
	return nil, nil
}

func (s *stubEntityBackend) GetEntitiesByEventIDs(ctx context.Context, _, _ []string) ([]store.EntityEventLink, error) {
	s.joinCalled = true
	return nil, nil
}

func TestEntities_RoutesEachMethodToItsOwnBackend(t *testing.T) {
	vec := &stubEntityBackend{}
	name := &stubEntityBackend{}
	join := &stubEntityBackend{}
	entities := &composite.Entities{Vector: vec, Name: name, Join: join}

	var es store.EntityStore = entities

	_, err := es.SearchEntitiesByVector(context.Background(), nil, nil, 0, 0, "")
	require.NoError(t, err)
	_, err = es.SearchEntitiesByName(context.Background(), "x", nil, 0)
	require.NoError(t, err)
	_, err = es.GetEntityTypes(context.Background(), nil)
	require.NoError(t, err)

	assert.True(t, vec.vectorCalled)
	assert.False(t, vec.nameCalled)
	assert.True(t, name.nameCalled)
	assert.False(t, name.vectorCalled)
	assert.True(t, join.joinCalled)
	assert.False(t, join.vectorCalled)
}
