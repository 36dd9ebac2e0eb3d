package services

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/blousecraft/blousecraft-api/models"
	"github.com/blousecraft/blousecraft-api/tests/testutil"
	"github.com/blousecraft/blousecraft-api/utils"
	"github.com/juju/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type orderFixture struct {
	db      *gorm.DB
	svc     *OrderService
	tailor  *models.Tailor
	pending *models.Tailor
}

func newOrderFixture(t *testing.T) orderFixture {
	t.Helper()
	db := testutil.NewTestDB(t)
	testutil.CreateUser(t, db, "cust-1", models.RoleCustomer)
	testutil.CreateUser(t, db, "cust-2", models.RoleCustomer)
	testutil.CreateUser(t, db, "tailor-user", models.RoleTailor)
	testutil.CreateUser(t, db, "pending-user", models.RoleTailor)

	return orderFixture{
		db:      db,
		svc:     NewOrderService(db, NewNotificationService(db)),
		tailor:  testutil.CreateTailor(t, db, "tailor-user", "Silk Stitches"),
		pending: testutil.CreateTailor(t, db, "pending-user", "Not Yet", testutil.Unverified()),
	}
}

func (f orderFixture) notificationsFor(t *testing.T, userID string) []models.Notification {
	t.Helper()
	var ns []models.Notification
	require.NoError(t, f.db.Where("user_id = ?", userID).Order("id").Find(&ns).Error)
	return ns
}

func TestOrderService_Create(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	price := decimal.NewFromInt(1800)

	order, err := f.svc.Create(ctx, "cust-1", CreateOrderInput{
		TailorID:       f.tailor.ID,
		BlouseType:     "Princess Cut",
		PickupAddress:  "12 MG Road",
		Measurements:   &models.Measurements{Bust: 34, Waist: 28, Shoulder: 14, Length: 15},
		EstimatedPrice: &price,
	})
	require.NoError(t, err)

	assert.Equal(t, models.StatusPending, order.Status)
	assert.Equal(t, 0, order.Progress)
	assert.Equal(t, models.PaymentPending, order.PaymentStatus)
	assert.Regexp(t, regexp.MustCompile(`^BC\d{8}-[0-9A-F]{8}$`), order.OrderNumber)
	assert.True(t, order.EstimatedPrice.Decimal.Equal(price))
	require.NotNil(t, order.Measurements)
	assert.Equal(t, 34.0, order.Measurements.Bust)
	require.NotNil(t, order.Tailor)
	assert.Equal(t, "tailor-user", order.Tailor.UserID)

	notes := f.notificationsFor(t, "tailor-user")
	require.Len(t, notes, 1, "the tailor's user account is notified, not the tailor id")
	assert.Equal(t, "New Order Received", notes[0].Title)
	assert.Equal(t, models.NotificationOrderUpdate, notes[0].Type)
	assert.Equal(t, relatedID(order.ID), notes[0].RelatedID)

	t.Run("unverified tailor", func(t *testing.T) {
		_, err := f.svc.Create(ctx, "cust-1", CreateOrderInput{TailorID: f.pending.ID, BlouseType: "Boat Neck", PickupAddress: "x"})
		assert.True(t, errors.Is(err, ErrInvalidState))
	})

	t.Run("unknown tailor", func(t *testing.T) {
		_, err := f.svc.Create(ctx, "cust-1", CreateOrderInput{TailorID: 999, BlouseType: "Boat Neck", PickupAddress: "x"})
		assert.True(t, errors.Is(err, errors.NotFound))
	})

	t.Run("booking yourself", func(t *testing.T) {
		_, err := f.svc.Create(ctx, "tailor-user", CreateOrderInput{TailorID: f.tailor.ID, BlouseType: "Boat Neck", PickupAddress: "x"})
		assert.True(t, errors.Is(err, errors.NotValid))
	})

	t.Run("missing fields", func(t *testing.T) {
		_, err := f.svc.Create(ctx, "cust-1", CreateOrderInput{TailorID: f.tailor.ID})
		assert.True(t, errors.Is(err, errors.NotValid))
	})
}

func TestOrderService_Lifecycle(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	order := testutil.CreateOrder(t, f.db, "cust-1", f.tailor.ID, models.StatusPending)

	progress := func(p int) *int { return &p }

	updated, err := f.svc.UpdateStatus(ctx, "tailor-user", order.ID, models.StatusConfirmed, nil)
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, updated.Status)
	assert.Equal(t, 1, updated.Version)

	updated, err = f.svc.UpdateStatus(ctx, "tailor-user", order.ID, models.StatusInProgress, progress(40))
	require.NoError(t, err)
	assert.Equal(t, 40, updated.Progress)

	updated, err = f.svc.UpdateStatus(ctx, "tailor-user", order.ID, models.StatusInProgress, progress(60))
	require.NoError(t, err, "progress can change without a status change")
	assert.Equal(t, 60, updated.Progress)

	_, err = f.svc.UpdateStatus(ctx, "tailor-user", order.ID, models.StatusConfirmed, nil)
	assert.True(t, errors.Is(err, ErrInvalidState), "status cannot move backwards")

	_, err = f.svc.UpdateStatus(ctx, "cust-1", order.ID, models.StatusReady, nil)
	assert.True(t, errors.Is(err, errors.Forbidden), "customers cannot move orders")

	_, err = f.svc.UpdateStatus(ctx, "tailor-user", order.ID, models.OrderStatus("shipped"), nil)
	assert.True(t, errors.Is(err, errors.NotValid))

	_, err = f.svc.UpdateStatus(ctx, "tailor-user", order.ID, models.StatusReady, progress(101))
	assert.True(t, errors.Is(err, errors.NotValid))

	updated, err = f.svc.UpdateStatus(ctx, "tailor-user", order.ID, models.StatusDelivered, nil)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDelivered, updated.Status)
	assert.Equal(t, 100, updated.Progress)
	require.NotNil(t, updated.ActualDelivery)

	_, err = f.svc.UpdateStatus(ctx, "tailor-user", order.ID, models.StatusCancelled, nil)
	assert.True(t, errors.Is(err, ErrInvalidState), "delivered orders are final")

	notes := f.notificationsFor(t, "cust-1")
	assert.Len(t, notes, 4)
	assert.Equal(t, "Your order status has been updated to: delivered", notes[3].Message)
}

func TestOrderService_CancelFromAnyOpenState(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	for _, status := range []models.OrderStatus{models.StatusPending, models.StatusPickedUp, models.StatusReady} {
		order := testutil.CreateOrder(t, f.db, "cust-1", f.tailor.ID, status)
		updated, err := f.svc.UpdateStatus(ctx, "tailor-user", order.ID, models.StatusCancelled, nil)
		require.NoError(t, err, "cancel from %s", status)
		assert.Equal(t, models.StatusCancelled, updated.Status)
		assert.Nil(t, updated.ActualDelivery)

		_, err = f.svc.UpdateStatus(ctx, "tailor-user", order.ID, models.StatusPending, nil)
		assert.True(t, errors.Is(err, ErrInvalidState))
	}
}

func TestOrderService_StaleWriteConflicts(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	order := testutil.CreateOrder(t, f.db, "cust-1", f.tailor.ID, models.StatusPending)

	stale := *order
	require.NoError(t, f.db.Model(&models.Order{}).Where("id = ?", order.ID).Update("version", 3).Error)

	err := f.svc.casUpdate(ctx, &stale, map[string]interface{}{"status": models.StatusConfirmed})
	assert.True(t, errors.Is(err, ErrConflict))

	var reloaded models.Order
	require.NoError(t, f.db.First(&reloaded, order.ID).Error)
	assert.Equal(t, models.StatusPending, reloaded.Status)
}

func TestOrderService_UpdatePrice(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	order := testutil.CreateOrder(t, f.db, "cust-1", f.tailor.ID, models.StatusConfirmed)

	updated, err := f.svc.UpdatePrice(ctx, "tailor-user", order.ID, decimal.NewFromFloat(2150.5))
	require.NoError(t, err)
	assert.True(t, updated.FinalPrice.Valid)
	assert.True(t, updated.FinalPrice.Decimal.Equal(decimal.NewFromFloat(2150.5)))

	notes := f.notificationsFor(t, "cust-1")
	require.Len(t, notes, 1)
	assert.Contains(t, notes[0].Message, "2150.50")

	_, err = f.svc.UpdatePrice(ctx, "tailor-user", order.ID, decimal.Zero)
	assert.True(t, errors.Is(err, errors.NotValid))

	delivered := testutil.CreateOrder(t, f.db, "cust-1", f.tailor.ID, models.StatusDelivered)
	_, err = f.svc.UpdatePrice(ctx, "tailor-user", delivered.ID, decimal.NewFromInt(100))
	assert.True(t, errors.Is(err, ErrInvalidState))
}

func TestOrderService_GetAndList(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)

	var ids []uint
	for i := 0; i < 12; i++ {
		o := testutil.CreateOrder(t, f.db, "cust-1", f.tailor.ID, models.StatusPending)
		require.NoError(t, f.db.Model(o).UpdateColumn("created_at", base.Add(time.Duration(i)*time.Hour)).Error)
		ids = append(ids, o.ID)
	}
	other := testutil.CreateOrder(t, f.db, "cust-2", f.tailor.ID, models.StatusPending)

	t.Run("customer pages newest first", func(t *testing.T) {
		orders, total, err := f.svc.List(ctx, "cust-1", AsCustomer, utils.Pagination{Page: 1, Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, int64(12), total)
		assert.Len(t, orders, 10)
		assert.Equal(t, ids[11], orders[0].ID)

		orders, _, err = f.svc.List(ctx, "cust-1", AsCustomer, utils.Pagination{Page: 2, Limit: 10})
		require.NoError(t, err)
		assert.Len(t, orders, 2)
		assert.Equal(t, ids[0], orders[1].ID)
	})

	t.Run("tailor sees every customer's orders", func(t *testing.T) {
		_, total, err := f.svc.List(ctx, "tailor-user", AsTailor, utils.Pagination{Page: 1, Limit: 50})
		require.NoError(t, err)
		assert.Equal(t, int64(13), total)
	})

	t.Run("tailor list without a profile", func(t *testing.T) {
		_, _, err := f.svc.List(ctx, "cust-1", AsTailor, utils.Pagination{Page: 1, Limit: 10})
		assert.True(t, errors.Is(err, errors.NotFound))
	})

	t.Run("unknown list type", func(t *testing.T) {
		_, _, err := f.svc.List(ctx, "cust-1", "admin", utils.Pagination{Page: 1, Limit: 10})
		assert.True(t, errors.Is(err, errors.NotValid))
	})

	t.Run("get is limited to participants", func(t *testing.T) {
		got, err := f.svc.Get(ctx, "tailor-user", other.ID)
		require.NoError(t, err)
		assert.Equal(t, "cust-2", got.Customer.ID)

		_, err = f.svc.Get(ctx, "cust-1", other.ID)
		assert.True(t, errors.Is(err, errors.Forbidden))

		_, err = f.svc.Get(ctx, "cust-1", 9999)
		assert.True(t, errors.Is(err, errors.NotFound))
	})
}
