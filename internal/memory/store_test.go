package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/linknav/internal/linktest"
	"github.com/mesh-intelligence/linknav/pkg/types"
)

func TestStoreContract(t *testing.T) {
	linktest.Run(t, func(t *testing.T) types.LinkService {
		return New()
	})
}

func TestStoreUsesClock(t *testing.T) {
	s := New()
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	l, err := s.Create(context.Background(), uuid.New(), "owner",
		types.NewEntityReference(uuid.New(), "user"),
		types.NewEntityReference(uuid.New(), "car"), nil)
	require.NoError(t, err)
	assert.Equal(t, fixed, l.CreatedAt)
	assert.Equal(t, fixed, l.UpdatedAt)

	later := fixed.Add(time.Hour)
	s.now = func() time.Time { return later }
	u, err := s.Update(context.Background(), l.TenantID, l.ID, json.RawMessage(`[1]`))
	require.NoError(t, err)
	assert.Equal(t, fixed, u.CreatedAt)
	assert.Equal(t, later, u.UpdatedAt)
}

func TestStoreConcurrentUpdatesSerialize(t *testing.T) {
	s := New()
	ctx := context.Background()
	tenant := uuid.New()

	l, err := s.Create(ctx, tenant, "owner",
		types.NewEntityReference(uuid.New(), "user"),
		types.NewEntityReference(uuid.New(), "car"), nil)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_, err := s.Update(ctx, tenant, l.ID, json.RawMessage(fmt.Sprintf(`{"writer":%d}`, i)))
			assert.NoError(t, err)
		}(i)
		go func() {
			defer wg.Done()
			_, err := s.Get(ctx, tenant, l.ID)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, s.Len())
	assert.NoError(t, s.Close())
}
