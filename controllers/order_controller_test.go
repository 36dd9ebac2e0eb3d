package controllers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/blousecraft/blousecraft-api/models"
	"github.com/blousecraft/blousecraft-api/tests/testutil"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type orderTestData struct {
	db         *gorm.DB
	router     *gin.Engine
	tailor     *models.Tailor
	unverified *models.Tailor
}

// setupOrderTest seeds a customer, a verified and an unverified tailor, and
// mounts the order routes once per caller under /<caller>/...
func setupOrderTest(t *testing.T) orderTestData {
	t.Helper()

	db := setupTestDB(t)
	testutil.CreateUser(t, db, "customer-1", models.RoleCustomer)
	testutil.CreateUser(t, db, "customer-2", models.RoleCustomer)
	testutil.CreateUser(t, db, "tailor-1", models.RoleTailor)
	testutil.CreateUser(t, db, "tailor-2", models.RoleTailor)

	data := orderTestData{
		db:         db,
		router:     setupTestRouter(),
		tailor:     testutil.CreateTailor(t, db, "tailor-1", "Silk Stitches"),
		unverified: testutil.CreateTailor(t, db, "tailor-2", "New Threads", testutil.Unverified()),
	}

	for _, caller := range []string{"customer-1", "customer-2", "tailor-1", "tailor-2"} {
		g := data.router.Group("/"+caller, testutil.MockAuth(caller, "token"))
		g.POST("/orders", CreateOrder)
		g.GET("/orders", ListOrders)
		g.GET("/orders/:id", GetOrder)
		g.PUT("/orders/:id/status", UpdateOrderStatus)
		g.PUT("/orders/:id/price", UpdateOrderPrice)
		g.POST("/orders/:id/messages", SendMessage)
		g.GET("/orders/:id/messages", GetMessages)
		g.POST("/reviews", CreateReview)
	}
	return data
}

func (d orderTestData) do(method, caller, path string, body interface{}) *httptest.ResponseRecorder {
	return performRequest(d.router, method, "/"+caller+path, body)
}

func TestCreateOrder(t *testing.T) {
	d := setupOrderTest(t)

	valid := map[string]interface{}{
		"tailor_id":       d.tailor.ID,
		"blouse_type":     "Princess Cut",
		"fabric_type":     "Silk",
		"pickup_address":  "12 MG Road, Hyderabad",
		"measurements":    map[string]interface{}{"bust": 34, "waist": 28, "shoulder": 14, "length": 15},
		"estimated_price": "1800.00",
	}

	tests := []struct {
		name           string
		caller         string
		body           map[string]interface{}
		expectedStatus int
		expectedCode   string
	}{
		{"Books a verified tailor", "customer-1", valid, http.StatusCreated, ""},
		{"Missing blouse type", "customer-1", map[string]interface{}{"tailor_id": d.tailor.ID, "pickup_address": "x"}, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"Unknown tailor", "customer-1", map[string]interface{}{"tailor_id": 999, "blouse_type": "A", "pickup_address": "x"}, http.StatusNotFound, "NOT_FOUND"},
		{"Unverified tailor", "customer-1", map[string]interface{}{"tailor_id": d.unverified.ID, "blouse_type": "A", "pickup_address": "x"}, http.StatusBadRequest, "INVALID_STATE"},
		{"Booking yourself", "tailor-1", valid, http.StatusBadRequest, "VALIDATION_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := d.do(http.MethodPost, tt.caller, "/orders", tt.body)
			require.Equal(t, tt.expectedStatus, w.Code, "Response body: %s", w.Body.String())
			if tt.expectedCode != "" {
				assert.Equal(t, tt.expectedCode, errorCode(t, w))
				return
			}

			data := dataMap(t, w)
			assert.Regexp(t, `^BC\d{8}-[0-9A-F]{8}$`, data["order_number"])
			assert.Equal(t, "pending", data["status"])
			assert.Equal(t, float64(0), data["progress"])
			assert.Equal(t, "customer-1", data["customer_id"])
			assert.Equal(t, "1800", data["estimated_price"])
			assert.Equal(t, float64(34), data["measurements"].(map[string]interface{})["bust"])
		})
	}

	var notifications []models.Notification
	require.NoError(t, d.db.Where("user_id = ?", "tailor-1").Find(&notifications).Error)
	require.Len(t, notifications, 1)
	assert.Equal(t, "New Order Received", notifications[0].Title)
}

func TestOrderLifecycleEndpoints(t *testing.T) {
	d := setupOrderTest(t)
	order := testutil.CreateOrder(t, d.db, "customer-1", d.tailor.ID, models.StatusPending)
	path := "/orders/" + uintString(order.ID)

	t.Run("Participants can read the order", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, d.do(http.MethodGet, "customer-1", path, nil).Code)
		assert.Equal(t, http.StatusOK, d.do(http.MethodGet, "tailor-1", path, nil).Code)

		w := d.do(http.MethodGet, "customer-2", path, nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, "FORBIDDEN", errorCode(t, w))
	})

	t.Run("Only the tailor moves the status", func(t *testing.T) {
		w := d.do(http.MethodPut, "customer-1", path+"/status", map[string]interface{}{"status": "confirmed"})
		assert.Equal(t, http.StatusForbidden, w.Code)

		w = d.do(http.MethodPut, "tailor-1", path+"/status", map[string]interface{}{"status": "confirmed"})
		require.Equal(t, http.StatusOK, w.Code, "Response body: %s", w.Body.String())
		assert.Equal(t, "confirmed", dataMap(t, w)["status"])
	})

	t.Run("Status validation", func(t *testing.T) {
		w := d.do(http.MethodPut, "tailor-1", path+"/status", map[string]interface{}{"status": "teleported"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "VALIDATION_ERROR", errorCode(t, w))

		w = d.do(http.MethodPut, "tailor-1", path+"/status", map[string]interface{}{})
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w = d.do(http.MethodPut, "tailor-1", path+"/status", map[string]interface{}{"status": "in_progress", "progress": 150})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Progress is recorded", func(t *testing.T) {
		w := d.do(http.MethodPut, "tailor-1", path+"/status", map[string]interface{}{"status": "in_progress", "progress": 40})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, float64(40), dataMap(t, w)["progress"])
	})

	t.Run("No moving backwards", func(t *testing.T) {
		w := d.do(http.MethodPut, "tailor-1", path+"/status", map[string]interface{}{"status": "confirmed"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "INVALID_STATE", errorCode(t, w))
	})

	t.Run("Final price", func(t *testing.T) {
		w := d.do(http.MethodPut, "tailor-1", path+"/price", map[string]interface{}{"final_price": "2100.50"})
		require.Equal(t, http.StatusOK, w.Code, "Response body: %s", w.Body.String())
		assert.Equal(t, "2100.5", dataMap(t, w)["final_price"])

		w = d.do(http.MethodPut, "tailor-1", path+"/price", map[string]interface{}{"final_price": "-5"})
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w = d.do(http.MethodPut, "tailor-1", path+"/price", map[string]interface{}{})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Delivery completes the order", func(t *testing.T) {
		w := d.do(http.MethodPut, "tailor-1", path+"/status", map[string]interface{}{"status": "delivered"})
		require.Equal(t, http.StatusOK, w.Code)
		data := dataMap(t, w)
		assert.Equal(t, "delivered", data["status"])
		assert.Equal(t, float64(100), data["progress"])
		assert.NotNil(t, data["actual_delivery"])

		w = d.do(http.MethodPut, "tailor-1", path+"/status", map[string]interface{}{"status": "cancelled"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "INVALID_STATE", errorCode(t, w))
	})

	var count int64
	d.db.Model(&models.Notification{}).Where("user_id = ?", "customer-1").Count(&count)
	assert.Equal(t, int64(4), count, "one notification per successful update")
}

func TestListOrders(t *testing.T) {
	d := setupOrderTest(t)
	for i := 0; i < 3; i++ {
		testutil.CreateOrder(t, d.db, "customer-1", d.tailor.ID, models.StatusPending)
	}
	testutil.CreateOrder(t, d.db, "customer-2", d.tailor.ID, models.StatusPending)

	w := d.do(http.MethodGet, "customer-1", "/orders?page=1&limit=2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	response := decodeResponse(t, w)
	assert.Len(t, response["data"], 2)
	pagination := response["pagination"].(map[string]interface{})
	assert.Equal(t, float64(3), pagination["total"])
	assert.Equal(t, float64(2), pagination["totalPages"])

	w = d.do(http.MethodGet, "tailor-1", "/orders?type=tailor", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, dataList(t, w), 4)

	w = d.do(http.MethodGet, "customer-1", "/orders?type=tailor", nil)
	assert.Equal(t, http.StatusNotFound, w.Code, "a customer has no tailor profile")

	w = d.do(http.MethodGet, "customer-1", "/orders?type=admin", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateReview(t *testing.T) {
	d := setupOrderTest(t)
	delivered := testutil.CreateOrder(t, d.db, "customer-1", d.tailor.ID, models.StatusDelivered)
	second := testutil.CreateOrder(t, d.db, "customer-1", d.tailor.ID, models.StatusDelivered)
	pending := testutil.CreateOrder(t, d.db, "customer-1", d.tailor.ID, models.StatusPending)

	tests := []struct {
		name           string
		caller         string
		body           map[string]interface{}
		expectedStatus int
		expectedCode   string
	}{
		{"Reviews a delivered order", "customer-1", map[string]interface{}{"order_id": delivered.ID, "rating": 5, "comment": "Perfect fit"}, http.StatusCreated, ""},
		{"Second review of the same order", "customer-1", map[string]interface{}{"order_id": delivered.ID, "rating": 4}, http.StatusConflict, "CONFLICT"},
		{"Someone else's order", "customer-2", map[string]interface{}{"order_id": second.ID, "rating": 1}, http.StatusForbidden, "FORBIDDEN"},
		{"Not delivered yet", "customer-1", map[string]interface{}{"order_id": pending.ID, "rating": 4}, http.StatusBadRequest, "INVALID_STATE"},
		{"Rating out of range", "customer-1", map[string]interface{}{"order_id": second.ID, "rating": 6}, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"Unknown order", "customer-1", map[string]interface{}{"order_id": 999, "rating": 3}, http.StatusNotFound, "NOT_FOUND"},
		{"Another delivered order", "customer-1", map[string]interface{}{"order_id": second.ID, "rating": 4}, http.StatusCreated, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := d.do(http.MethodPost, tt.caller, "/reviews", tt.body)
			require.Equal(t, tt.expectedStatus, w.Code, "Response body: %s", w.Body.String())
			if tt.expectedCode != "" {
				assert.Equal(t, tt.expectedCode, errorCode(t, w))
			}
		})
	}

	var tailor models.Tailor
	require.NoError(t, d.db.First(&tailor, d.tailor.ID).Error)
	assert.Equal(t, 4.5, tailor.AverageRating)
	assert.Equal(t, 2, tailor.TotalReviews)

	router := setupTestRouter()
	router.GET("/tailors/:id/reviews", ListTailorReviews)
	w := performRequest(router, http.MethodGet, "/tailors/"+uintString(d.tailor.ID)+"/reviews", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, dataList(t, w), 2)
}

func TestOrderMessages(t *testing.T) {
	d := setupOrderTest(t)
	order := testutil.CreateOrder(t, d.db, "customer-1", d.tailor.ID, models.StatusConfirmed)
	path := "/orders/" + uintString(order.ID) + "/messages"

	w := d.do(http.MethodPost, "customer-1", path, map[string]interface{}{"text": "Can you add a tassel?"})
	require.Equal(t, http.StatusCreated, w.Code, "Response body: %s", w.Body.String())
	assert.Equal(t, "customer-1", dataMap(t, w)["sender_id"])

	w = d.do(http.MethodPost, "tailor-1", path, map[string]interface{}{"text": "  Sure  "})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "Sure", dataMap(t, w)["text"])

	w = d.do(http.MethodPost, "customer-2", path, map[string]interface{}{"text": "hello"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = d.do(http.MethodPost, "customer-1", path, map[string]interface{}{"text": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(t, w))

	w = d.do(http.MethodGet, "tailor-1", path, nil)
	require.Equal(t, http.StatusOK, w.Code)
	messages := dataList(t, w)
	require.Len(t, messages, 2)
	assert.Equal(t, "Can you add a tassel?", messages[0].(map[string]interface{})["text"])

	w = d.do(http.MethodGet, "customer-2", path, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = d.do(http.MethodGet, "customer-1", "/orders/999/messages", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
