package services

import (
	"context"
	"testing"

	"github.com/blousecraft/blousecraft-api/models"
	"github.com/blousecraft/blousecraft-api/tests/testutil"
	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageService(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	svc := NewMessageService(db)

	testutil.CreateUser(t, db, "cust-1", models.RoleCustomer)
	testutil.CreateUser(t, db, "stranger", models.RoleCustomer)
	testutil.CreateUser(t, db, "tailor-user", models.RoleTailor)
	tailor := testutil.CreateTailor(t, db, "tailor-user", "Silk Stitches")
	order := testutil.CreateOrder(t, db, "cust-1", tailor.ID, models.StatusInProgress)

	first, err := svc.Send(ctx, "cust-1", order.ID, "  Can the sleeves be puffed?  ")
	require.NoError(t, err)
	assert.Equal(t, "Can the sleeves be puffed?", first.Text)
	require.NotNil(t, first.Sender)
	assert.Equal(t, "cust-1", first.Sender.ID)

	_, err = svc.Send(ctx, "tailor-user", order.ID, "Yes, no extra charge.")
	require.NoError(t, err)

	messages, err := svc.List(ctx, "tailor-user", order.ID)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, first.ID, messages[0].ID, "oldest first")

	_, err = svc.Send(ctx, "stranger", order.ID, "hello")
	assert.True(t, errors.Is(err, errors.Forbidden))

	_, err = svc.List(ctx, "stranger", order.ID)
	assert.True(t, errors.Is(err, errors.Forbidden))

	_, err = svc.Send(ctx, "cust-1", order.ID, "   ")
	assert.True(t, errors.Is(err, errors.NotValid))

	_, err = svc.List(ctx, "cust-1", 9999)
	assert.True(t, errors.Is(err, errors.NotFound))
}
