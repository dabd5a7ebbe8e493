package storage_test

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/bk001juma/api-matengenezo/internal/cache"
	"github.com/bk001juma/api-matengenezo/internal/model"
	"github.com/bk001juma/api-matengenezo/internal/report"
	"github.com/bk001juma/api-matengenezo/internal/storage"
	"github.com/bk001juma/api-matengenezo/internal/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocationsListAllKeepsInsertionOrder(t *testing.T) {
	db := testdb.Open(t)
	locations := storage.NewLocations(db)
	ctx := context.Background()

	for _, name := range []string{"Library", "Admin Block", "Cafeteria"} {
		require.NoError(t, locations.Create(ctx, &model.Location{Name: name, Latitude: 1, Longitude: 1, RadiusMeters: 10}))
	}

	all, err := locations.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Library", all[0].Name)
	assert.Equal(t, "Admin Block", all[1].Name)
	assert.Equal(t, "Cafeteria", all[2].Name)
}

func TestLocationsCreateIfMissing(t *testing.T) {
	db := testdb.Open(t)
	locations := storage.NewLocations(db)
	ctx := context.Background()

	inserted, err := locations.CreateIfMissing(ctx, &model.Location{Name: "Library", Latitude: 1, Longitude: 1, RadiusMeters: 50})
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = locations.CreateIfMissing(ctx, &model.Location{Name: "Library", Latitude: 2, Longitude: 2, RadiusMeters: 5})
	require.NoError(t, err)
	assert.False(t, inserted)

	all, err := locations.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, 50.0, all[0].RadiusMeters)
}

func TestLocationsUpdateAndDelete(t *testing.T) {
	db := testdb.Open(t)
	locations := storage.NewLocations(db)
	ctx := context.Background()

	loc := &model.Location{Name: "Gym", Latitude: 1, Longitude: 1, RadiusMeters: 10}
	require.NoError(t, locations.Create(ctx, loc))

	loc.RadiusMeters = 25
	require.NoError(t, locations.Update(ctx, loc))

	got, err := locations.Get(ctx, loc.ID)
	require.NoError(t, err)
	assert.Equal(t, 25.0, got.RadiusMeters)

	taken, err := locations.NameTaken(ctx, "Gym", 0)
	require.NoError(t, err)
	assert.True(t, taken)
	taken, err = locations.NameTaken(ctx, "Gym", loc.ID)
	require.NoError(t, err)
	assert.False(t, taken)

	require.NoError(t, locations.Delete(ctx, loc.ID))
	assert.ErrorIs(t, locations.Delete(ctx, loc.ID), storage.ErrLocationNotFound)
	assert.ErrorIs(t, locations.Update(ctx, loc), storage.ErrLocationNotFound)
	_, err = locations.Get(ctx, loc.ID)
	assert.ErrorIs(t, err, storage.ErrLocationNotFound)
}

func TestReportsCreateRollsBackWhenPublishFails(t *testing.T) {
	db := testdb.Open(t)
	reports := storage.NewReports(db)
	ctx := context.Background()

	now := time.Now()
	r := &model.Report{UserID: 1, Description: "broken tap", Status: model.StatusPending, Timestamp: &now}
	err := reports.Create(ctx, r, func(context.Context) error { return errors.New("disk full") })
	require.Error(t, err)

	var count int64
	db.Model(&model.Report{}).Count(&count)
	assert.Zero(t, count)
}

func TestReportsCreatePublishesInsideTransaction(t *testing.T) {
	db := testdb.Open(t)
	reports := storage.NewReports(db)
	ctx := context.Background()

	published := false
	now := time.Now()
	r := &model.Report{UserID: 1, Description: "broken tap", Status: model.StatusPending, Timestamp: &now}
	require.NoError(t, reports.Create(ctx, r, func(context.Context) error {
		published = true
		return nil
	}))

	assert.True(t, published)
	assert.NotZero(t, r.ID)
}

func TestReportsListByUserNewestFirst(t *testing.T) {
	db := testdb.Open(t)
	reports := storage.NewReports(db)
	ctx := context.Background()

	base := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	for i, owner := range []int64{1, 2, 1, 1} {
		ts := base.Add(time.Duration(i) * time.Hour)
		require.NoError(t, reports.Create(ctx, &model.Report{UserID: owner, Description: "r", Status: model.StatusPending, Timestamp: &ts}, nil))
	}

	list, err := reports.ListByUser(ctx, 1)
	require.NoError(t, err)
	require.Len(t, list, 3)
	for i := 1; i < len(list); i++ {
		assert.False(t, list[i].Timestamp.After(*list[i-1].Timestamp))
	}
	for _, r := range list {
		assert.Equal(t, int64(1), r.UserID)
	}
}

func TestReportsFindByIDNotFound(t *testing.T) {
	db := testdb.Open(t)

	_, err := storage.NewReports(db).FindByID(context.Background(), 99)
	assert.ErrorIs(t, err, report.ErrNotFound)
}

type memoryKV struct {
	mu   sync.Mutex
	data map[string][]byte
	gets int
}

func newMemoryKV() *memoryKV { return &memoryKV{data: map[string][]byte{}} }

func (m *memoryKV) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	v, ok := m.data[key]
	if !ok {
		return nil, cache.ErrMiss
	}
	return v, nil
}

func (m *memoryKV) SetMax(_ context.Context, key string, value int64, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cur, ok := m.data[key]; ok {
		if n, err := strconv.ParseInt(string(cur), 10, 64); err == nil && n >= value {
			return nil
		}
	}
	m.data[key] = []byte(strconv.FormatInt(value, 10))
	return nil
}

// gatedKV holds the first SetMax until release is closed.
type gatedKV struct {
	*memoryKV
	once    sync.Once
	reached chan struct{}
	release chan struct{}
}

func (g *gatedKV) SetMax(ctx context.Context, key string, value int64, ttl time.Duration) error {
	first := false
	g.once.Do(func() { first = true })
	if first {
		close(g.reached)
		<-g.release
	}
	return g.memoryKV.SetMax(ctx, key, value, ttl)
}

func (m *memoryKV) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func seedUser(t *testing.T, users *storage.Users) *model.User {
	t.Helper()
	u := &model.User{
		RealName:          "Asha Mollel",
		Email:             "asha@campus.ac.tz",
		Phone:             "+255700000001",
		Gender:            "female",
		Role:              model.RoleUser,
		GeneratedUsername: "1234/MU.25",
		PasswordHash:      "x",
	}
	require.NoError(t, users.Create(context.Background(), u))
	return u
}

func TestUsersRevokeAllBumpsVersionAndRecachesIt(t *testing.T) {
	db := testdb.Open(t)
	kv := newMemoryKV()
	users := storage.NewUsers(db, kv)
	ctx := context.Background()
	u := seedUser(t, users)

	v, err := users.TokenVersion(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), v)
	assert.Equal(t, []byte("0"), kv.data[cache.TokenVersionKey(u.ID)])

	require.NoError(t, users.StoreRefreshToken(ctx, &model.RefreshToken{UserID: u.ID, Token: "r1", ExpiresAt: time.Now().Add(time.Hour)}))
	_, err = users.ActiveRefreshToken(ctx, "r1")
	require.NoError(t, err)

	require.NoError(t, users.RevokeAll(ctx, u.ID))
	assert.Equal(t, []byte("1"), kv.data[cache.TokenVersionKey(u.ID)])

	v, err = users.TokenVersion(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)

	_, err = users.ActiveRefreshToken(ctx, "r1")
	assert.ErrorIs(t, err, storage.ErrRefreshTokenNotFound)
}

func TestUsersStaleCacheFillAfterRevokeIsDropped(t *testing.T) {
	db := testdb.Open(t)
	kv := &gatedKV{memoryKV: newMemoryKV(), reached: make(chan struct{}), release: make(chan struct{})}
	users := storage.NewUsers(db, kv)
	ctx := context.Background()
	u := seedUser(t, users)

	// The reader loads version 0 from the database and stalls before caching it.
	done := make(chan int64)
	go func() {
		v, err := users.TokenVersion(ctx, u.ID)
		assert.NoError(t, err)
		done <- v
	}()
	<-kv.reached

	require.NoError(t, users.RevokeAll(ctx, u.ID))
	close(kv.release)
	assert.Equal(t, int64(0), <-done)

	assert.Equal(t, []byte("1"), kv.data[cache.TokenVersionKey(u.ID)])
	v, err := users.TokenVersion(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)
}

func TestUsersWithoutCache(t *testing.T) {
	db := testdb.Open(t)
	users := storage.NewUsers(db, nil)
	ctx := context.Background()
	u := seedUser(t, users)

	got, err := users.FindByUsername(ctx, "1234/MU.25")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	exists, err := users.Exists(ctx, "email", "asha@campus.ac.tz")
	require.NoError(t, err)
	assert.True(t, exists)

	_, err = users.FindByID(ctx, 999)
	assert.ErrorIs(t, err, storage.ErrUserNotFound)
	_, err = users.TokenVersion(ctx, 999)
	assert.ErrorIs(t, err, storage.ErrUserNotFound)
	assert.ErrorIs(t, users.RevokeAll(ctx, 999), storage.ErrUserNotFound)
}

func TestRefreshTokenExpired(t *testing.T) {
	db := testdb.Open(t)
	users := storage.NewUsers(db, nil)
	ctx := context.Background()
	u := seedUser(t, users)

	require.NoError(t, users.StoreRefreshToken(ctx, &model.RefreshToken{UserID: u.ID, Token: "old", ExpiresAt: time.Now().Add(-time.Minute)}))

	_, err := users.ActiveRefreshToken(ctx, "old")
	assert.ErrorIs(t, err, storage.ErrRefreshTokenNotFound)
}
