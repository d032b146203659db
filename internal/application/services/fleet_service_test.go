package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"busline/internal/domain/fleet"
	"busline/internal/domain/users"
	"busline/internal/repository"
)

func TestCreateBus_ForcesOwner(t *testing.T) {
	ctx := context.Background()
	svc := NewFleetService(repository.NewMemoryStore())

	_, err := svc.CreateBus(ctx, users.Identity{UserID: 1, Role: users.RolePassenger}, fleet.Bus{Name: "Express"})
	assert.ErrorIs(t, err, ErrForbidden)

	owner := users.Identity{UserID: 7, Role: users.RoleBusOwner}
	bus, err := svc.CreateBus(ctx, owner, fleet.Bus{Name: "Express", OwnerID: 999})
	require.NoError(t, err)
	// OwnerID always comes from the actor, never the payload.
	assert.Equal(t, int64(7), bus.OwnerID)
}

func TestBuses_Visibility(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	svc := NewFleetService(store)

	a, err := store.CreateUser(ctx, users.User{Username: "a", Role: users.RoleBusOwner})
	require.NoError(t, err)
	b, err := store.CreateUser(ctx, users.User{Username: "b", Role: users.RoleBusOwner})
	require.NoError(t, err)

	_, err = store.CreateBus(ctx, fleet.Bus{OwnerID: a.ID, Name: "A1"})
	require.NoError(t, err)
	_, err = store.CreateBus(ctx, fleet.Bus{OwnerID: b.ID, Name: "B1"})
	require.NoError(t, err)

	mine, err := svc.Buses(ctx, users.Identity{UserID: a.ID, Role: users.RoleBusOwner})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "A1", mine[0].Name)

	all, err := svc.Buses(ctx, users.Identity{UserID: 100, Role: users.RoleAdmin})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = svc.Buses(ctx, users.Identity{UserID: 101, Role: users.RolePassenger})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestUpdateBus_OwnerOnly(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	svc := NewFleetService(store)

	bus, err := store.CreateBus(ctx, fleet.Bus{OwnerID: 1, Name: "Express"})
	require.NoError(t, err)

	name := "Night Express"
	_, err = svc.UpdateBus(ctx, users.Identity{UserID: 2, Role: users.RoleBusOwner}, bus.ID, repository.BusUpdate{Name: &name})
	assert.ErrorIs(t, err, ErrForbidden)

	updated, err := svc.UpdateBus(ctx, users.Identity{UserID: 1, Role: users.RoleBusOwner}, bus.ID, repository.BusUpdate{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Night Express", updated.Name)
}

func TestBusDetails_AverageRating(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	svc := NewFleetService(store)

	bus, err := store.CreateBus(ctx, fleet.Bus{OwnerID: 1, Name: "Express"})
	require.NoError(t, err)

	// No reviews yet.
	details, err := svc.BusDetails(ctx, bus.ID)
	require.NoError(t, err)
	assert.Zero(t, details.AverageRating)
	assert.Empty(t, details.Reviews)

	for _, rating := range []int{5, 4, 3} {
		_, err = store.CreateReview(ctx, fleet.Review{UserID: 1, BusID: bus.ID, ScheduleID: 1, Rating: rating})
		require.NoError(t, err)
	}

	details, err = svc.BusDetails(ctx, bus.ID)
	require.NoError(t, err)
	assert.InDelta(t, 4.0, details.AverageRating, 1e-9)
	assert.Len(t, details.Reviews, 3)
}
