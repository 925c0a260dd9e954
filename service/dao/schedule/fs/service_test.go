package fs

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/viant/priorq/model/item"
	"github.com/viant/priorq/service/dao"
	"github.com/viant/priorq/service/schedule"
)

func newEntry(id, itemID string, at time.Time) *schedule.Entry {
	return &schedule.Entry{
		ScheduleID:   id,
		Item:         item.WorkItem{ID: itemID, Kind: item.KindTask, Payload: map[string]interface{}{}},
		ScheduleTime: at,
		CreatedAt:    at.Add(-time.Minute),
	}
}

func TestService_RoundTrip(t *testing.T) {
	ctx := context.Background()
	svc, err := New(filepath.Join(t.TempDir(), "schedules"))
	assert.NoError(t, err)

	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	assert.NoError(t, svc.Save(ctx, newEntry("s1", "t1", at)))

	loaded, err := svc.Load(ctx, "s1")
	assert.NoError(t, err)
	assert.Equal(t, "t1", loaded.Item.ID)
	assert.True(t, at.Equal(loaded.ScheduleTime))

	assert.NoError(t, svc.Save(ctx, newEntry("s2", "t2", at.Add(time.Hour))))
	entries, err := svc.List(ctx)
	assert.NoError(t, err)
	assert.Len(t, entries, 2)

	assert.NoError(t, svc.Delete(ctx, "s1"))
	_, err = svc.Load(ctx, "s1")
	assert.ErrorIs(t, err, dao.ErrNotFound)

	err = svc.Delete(ctx, "s1")
	assert.ErrorIs(t, err, dao.ErrNotFound)
}

func TestService_Validation(t *testing.T) {
	ctx := context.Background()
	svc, err := New(filepath.Join(t.TempDir(), "schedules"))
	assert.NoError(t, err)

	assert.ErrorIs(t, svc.Save(ctx, nil), dao.ErrNilEntity)
	assert.ErrorIs(t, svc.Save(ctx, &schedule.Entry{}), dao.ErrInvalidID)

	_, err = svc.Load(ctx, "")
	assert.ErrorIs(t, err, dao.ErrInvalidID)

	assert.ErrorIs(t, svc.Delete(ctx, ""), dao.ErrInvalidID)

	_, err = New("")
	assert.Error(t, err)
}

func TestService_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	base := filepath.Join(t.TempDir(), "schedules")

	svc, err := New(base)
	assert.NoError(t, err)
	assert.NoError(t, svc.Save(ctx, newEntry("s1", "t1", time.Now())))

	reopened, err := New(base)
	assert.NoError(t, err)
	entries, err := reopened.List(ctx)
	assert.NoError(t, err)
	if assert.Len(t, entries, 1) {
		assert.Equal(t, "s1", entries[0].ScheduleID)
	}
}
