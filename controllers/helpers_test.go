package controllers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/blousecraft/blousecraft-api/config"
	"github.com/blousecraft/blousecraft-api/tests/testutil"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	return router
}

// setupTestDB installs a fresh in-memory database as the global handle.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db := testutil.NewTestDB(t)
	original := config.GetDB()
	config.SetDB(db)
	t.Cleanup(func() { config.SetDB(original) })
	return db
}

func performRequest(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		payload, _ := json.Marshal(body)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response), "Response body: %s", w.Body.String())
	return response
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()

	response := decodeResponse(t, w)
	if response["success"] != false {
		return ""
	}
	return response["error"].(map[string]interface{})["code"].(string)
}

func dataMap(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	return decodeResponse(t, w)["data"].(map[string]interface{})
}

func dataList(t *testing.T, w *httptest.ResponseRecorder) []interface{} {
	t.Helper()
	return decodeResponse(t, w)["data"].([]interface{})
}

func uintString(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

func performRawRequest(router *gin.Engine, method, path string, body io.Reader) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}
