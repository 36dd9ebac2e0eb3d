package controllers

import (
	"net/http"
	"strings"
	"testing"

	"github.com/blousecraft/blousecraft-api/models"
	"github.com/blousecraft/blousecraft-api/tests/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetPlatformStats(t *testing.T) {
	db := setupTestDB(t)
	testutil.CreateUser(t, db, "admin", models.RoleAdmin)
	testutil.CreateUser(t, db, "cust", models.RoleCustomer)
	testutil.CreateUser(t, db, "tail", models.RoleTailor)
	tailor := testutil.CreateTailor(t, db, "tail", "Silk Stitches")

	delivered := testutil.CreateOrder(t, db, "cust", tailor.ID, models.StatusDelivered)
	require.NoError(t, db.Model(delivered).Update("final_price", decimal.RequireFromString("1250.50")).Error)
	pending := testutil.CreateOrder(t, db, "cust", tailor.ID, models.StatusPending)
	require.NoError(t, db.Model(pending).Update("final_price", decimal.RequireFromString("999")).Error)

	router := setupTestRouter()
	router.GET("/admin/stats", GetPlatformStats)

	w := performRequest(router, http.MethodGet, "/admin/stats", nil)
	require.Equal(t, http.StatusOK, w.Code, "Response body: %s", w.Body.String())
	data := dataMap(t, w)
	assert.Equal(t, float64(3), data["total_users"])
	assert.Equal(t, float64(1), data["total_tailors"])
	assert.Equal(t, float64(2), data["total_orders"])
	assert.Equal(t, float64(1), data["delivered_orders"])
	assert.Equal(t, "1250.5", data["total_revenue"])
}

func TestVerifyTailor(t *testing.T) {
	db := setupTestDB(t)
	testutil.CreateUser(t, db, "tail", models.RoleTailor)
	tailor := testutil.CreateTailor(t, db, "tail", "New Threads", testutil.Unverified())

	router := setupTestRouter()
	router.PUT("/admin/tailors/:id/verify", VerifyTailor)
	path := "/admin/tailors/" + uintString(tailor.ID) + "/verify"

	w := performRequest(router, http.MethodPut, path, nil)
	require.Equal(t, http.StatusOK, w.Code, "Response body: %s", w.Body.String())
	assert.Equal(t, true, dataMap(t, w)["is_verified"])

	w = performRequest(router, http.MethodPut, path, map[string]interface{}{"verified": false})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, dataMap(t, w)["is_verified"])

	w = performRequest(router, http.MethodPut, "/admin/tailors/999/verify", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	req := strings.NewReader(`{"verified": "yes"}`)
	w = performRawRequest(router, http.MethodPut, path, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
