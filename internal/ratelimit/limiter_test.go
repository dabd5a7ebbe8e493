package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type fakeCounter struct {
	counts map[string]int64
}

func (f *fakeCounter) Incr(_ context.Context, key string, _ time.Duration) (int64, error) {
	f.counts[key]++
	return f.counts[key], nil
}

func (f *fakeCounter) TTL(context.Context, string) (time.Duration, error) {
	return 30 * time.Second, nil
}

func TestCheckBlocksAfterLimit(t *testing.T) {
	l := NewLimiter(&fakeCounter{counts: map[string]int64{}}, map[string]ActionConfig{
		ActionReportSubmit: {Limit: 2, Window: time.Minute},
	})
	ctx := context.Background()

	first, err := l.Check(ctx, "42", ActionReportSubmit)
	require.NoError(t, err)
	assert.True(t, first.Allowed)
	assert.Equal(t, int64(1), first.Remaining)

	second, err := l.Check(ctx, "42", ActionReportSubmit)
	require.NoError(t, err)
	assert.True(t, second.Allowed)
	assert.Equal(t, int64(0), second.Remaining)

	third, err := l.Check(ctx, "42", ActionReportSubmit)
	require.NoError(t, err)
	assert.False(t, third.Allowed)
	assert.Equal(t, int64(0), third.Remaining)
	assert.Equal(t, int64(2), third.Limit)

	other, err := l.Check(ctx, "43", ActionReportSubmit)
	require.NoError(t, err)
	assert.True(t, other.Allowed, "limits are per client")
}

func TestCheckUnknownActionUsesFallback(t *testing.T) {
	l := NewLimiter(&fakeCounter{counts: map[string]int64{}}, nil)

	res, err := l.Check(context.Background(), "1", "something_else")
	require.NoError(t, err)
	assert.Equal(t, int64(100), res.Limit)
}

type mockCounter struct {
	mock.Mock
}

func (m *mockCounter) Incr(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	args := m.Called(key, ttl)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockCounter) TTL(ctx context.Context, key string) (time.Duration, error) {
	args := m.Called(key)
	return args.Get(0).(time.Duration), args.Error(1)
}

func TestCheckUsesRateKeyAndWindow(t *testing.T) {
	counter := new(mockCounter)
	counter.On("Incr", "rate:9:login", time.Minute).Return(int64(1), nil).Once()
	counter.On("TTL", "rate:9:login").Return(time.Duration(-1), nil).Once()

	res, err := NewLimiter(counter, nil).Check(context.Background(), "9", ActionLogin)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Greater(t, res.ResetAt, time.Now().Unix())
	counter.AssertExpectations(t)
}

func TestCheckPropagatesCounterError(t *testing.T) {
	counter := new(mockCounter)
	counter.On("Incr", mock.Anything, mock.Anything).Return(int64(0), errors.New("redis down"))

	_, err := NewLimiter(counter, nil).Check(context.Background(), "9", ActionLogin)
	assert.ErrorContains(t, err, "failed to increment counter")
}
