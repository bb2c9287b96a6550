package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adham-AI-111/clinic-system-docker/internal/model"
	"github.com/Adham-AI-111/clinic-system-docker/internal/repository"
)

func TestRecordFailedAttempt_ConcurrentFailuresStopAtThreshold(t *testing.T) {
	store := NewStore()
	identity := &model.Identity{Username: "dr.hany", Role: model.RoleDoctor, IsActive: true}
	store.AddIdentity(identity)

	repo := store.Identities()
	now := time.Now()

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		locked int
	)
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.RecordFailedAttempt(context.Background(), identity.ID, now, 15, 15*time.Minute)
			if errors.Is(err, repository.ErrLocked) {
				mu.Lock()
				locked++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	got, err := repo.Get(context.Background(), identity.ID)
	require.NoError(t, err)
	assert.Equal(t, 15, got.FailedAttempts)
	assert.True(t, got.IsLocked(now))
	assert.Equal(t, 25, locked)
}

func TestResetAttemptsLeavesActiveLockInPlace(t *testing.T) {
	store := NewStore()
	identity := &model.Identity{Username: "dr.hany", Role: model.RoleDoctor, IsActive: true}
	store.AddIdentity(identity)

	repo := store.Identities()
	ctx := context.Background()
	now := time.Now()
	for i := 0; i < 15; i++ {
		_, err := repo.RecordFailedAttempt(ctx, identity.ID, now, 15, 15*time.Minute)
		require.NoError(t, err)
	}

	assert.ErrorIs(t, repo.ResetAttempts(ctx, identity.ID, now.Add(time.Minute)), repository.ErrLocked)
	got, err := repo.Get(ctx, identity.ID)
	require.NoError(t, err)
	assert.Equal(t, 15, got.FailedAttempts)

	require.NoError(t, repo.ResetAttempts(ctx, identity.ID, now.Add(16*time.Minute)))
	got, err = repo.Get(ctx, identity.ID)
	require.NoError(t, err)
	assert.Zero(t, got.FailedAttempts)
	assert.Nil(t, got.LockedUntil)
}

func TestCreateRejectsDuplicateUsername(t *testing.T) {
	store := NewStore()
	repo := store.Identities()

	require.NoError(t, repo.Create(context.Background(), &model.Identity{Username: "sara", Phone: "+201001112223", Role: model.RolePatient}))
	err := repo.Create(context.Background(), &model.Identity{Username: "sara", Phone: "+201009998887", Role: model.RolePatient})
	assert.ErrorIs(t, err, repository.ErrDuplicate)
}

func TestPatientsArePartitionedBySchema(t *testing.T) {
	store := NewStore()
	store.AddTenant(&model.Tenant{SchemaName: "clinic_a"}, "a.clinic.localhost")
	store.AddTenant(&model.Tenant{SchemaName: "clinic_b"}, "b.clinic.localhost")

	identity := &model.Identity{Username: "sara", Phone: "+201001112223", Role: model.RolePatient, IsActive: true}
	require.NoError(t, store.Patients().CreateWithIdentity(context.Background(), "clinic_a", identity, &model.Patient{Age: 30}))

	ok, err := store.Patients().ExistsForUser(context.Background(), "clinic_a", identity.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Patients().ExistsForUser(context.Background(), "clinic_b", identity.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAuditCleanup(t *testing.T) {
	store := NewStore()
	audit := store.Audit()
	ctx := context.Background()

	require.NoError(t, audit.Create(ctx, &model.AuthEvent{Action: model.AuditActionLogout, CreatedAt: time.Now().Add(-48 * time.Hour)}))
	require.NoError(t, audit.Create(ctx, &model.AuthEvent{Action: model.AuditActionLogout}))

	removed, err := audit.Cleanup(ctx, time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)
	assert.Len(t, store.Events(), 1)
}
