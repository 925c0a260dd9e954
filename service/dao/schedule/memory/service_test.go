package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/viant/priorq/model/item"
	"github.com/viant/priorq/service/dao"
	"github.com/viant/priorq/service/schedule"
)

func TestService_CRUD(t *testing.T) {
	ctx := context.Background()
	svc := New()

	entry := &schedule.Entry{
		ScheduleID:   "s1",
		Item:         item.WorkItem{ID: "t1", Payload: map[string]interface{}{}},
		ScheduleTime: time.Now().Add(time.Hour),
	}
	assert.NoError(t, svc.Save(ctx, entry))

	loaded, err := svc.Load(ctx, "s1")
	assert.NoError(t, err)
	assert.Equal(t, "t1", loaded.Item.ID)

	// Loaded entries are copies.
	loaded.Item.ID = "mutated"
	again, err := svc.Load(ctx, "s1")
	assert.NoError(t, err)
	assert.Equal(t, "t1", again.Item.ID)

	entries, err := svc.List(ctx)
	assert.NoError(t, err)
	assert.Len(t, entries, 1)

	assert.NoError(t, svc.Delete(ctx, "s1"))
	_, err = svc.Load(ctx, "s1")
	assert.ErrorIs(t, err, dao.ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, "s1"), dao.ErrNotFound)
}

func TestService_Validation(t *testing.T) {
	ctx := context.Background()
	svc := New()

	assert.ErrorIs(t, svc.Save(ctx, nil), dao.ErrNilEntity)
	assert.ErrorIs(t, svc.Save(ctx, &schedule.Entry{}), dao.ErrInvalidID)

	_, err := svc.Load(ctx, "")
	assert.ErrorIs(t, err, dao.ErrInvalidID)
	assert.ErrorIs(t, svc.Delete(ctx, ""), dao.ErrInvalidID)
}
