package router

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/book-lending/internal/config"
	"github.com/iliyamo/book-lending/internal/middleware"
	"github.com/iliyamo/book-lending/internal/repository/memstore"
	"github.com/iliyamo/book-lending/internal/service"
)

const wallet = "0x52908400098527886E0F7030069857D2E4169EE7"

func newTestServer(t *testing.T) *echo.Echo {
	t.Helper()
	log, _ := logtest.NewNullLogger()
	mem := memstore.New()
	return New(Deps{
		Config: config.Config{
			JWTSecret:      "test-secret",
			TokenTTL:       time.Hour,
			RequestTimeout: time.Second,
			FrontendURLs:   []string{"*"},
		},
		Stores: service.Stores{
			Books:          mem.Books,
			Reviews:        mem.Reviews,
			BorrowRequests: mem.BorrowRequests,
			Purchases:      mem.Purchases,
			Users:          mem.Users,
		},
		Metrics: middleware.NewMetrics(),
		Log:     log,
	})
}

func do(e *echo.Echo, method, path, body string, hdr ...string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for i := 0; i+1 < len(hdr); i += 2 {
		req.Header.Set(hdr[i], hdr[i+1])
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func createBook(t *testing.T, e *echo.Echo) uint64 {
	t.Helper()
	rec := do(e, http.MethodPost, "/api/books",
		`{"title":"Dune","description":"Desert planet","author":"Frank Herbert","genre":"Science Fiction","publishedYear":1965}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return uint64(decode(t, rec)["id"].(float64))
}

func TestHealth(t *testing.T) {
	e := newTestServer(t)
	rec := do(e, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "ok", body["status"])
	assert.NotEmpty(t, body["timestamp"])
}

func TestBooks(t *testing.T) {
	e := newTestServer(t)
	id := createBook(t, e)

	rec := do(e, http.MethodGet, "/api/books", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "Dune", list[0]["title"])
	assert.Nil(t, list[0]["coverImage"])

	rec = do(e, http.MethodGet, fmt.Sprintf("/api/books/%d", id), "")
	require.Equal(t, http.StatusOK, rec.Code)
	detail := decode(t, rec)
	assert.Equal(t, []any{}, detail["reviews"])
	assert.Equal(t, []any{}, detail["borrowRequests"])

	rec = do(e, http.MethodGet, "/api/books/abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(e, http.MethodGet, "/api/books/999", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"Book not found"}`, rec.Body.String())
}

func TestCreateBookValidation(t *testing.T) {
	e := newTestServer(t)

	rec := do(e, http.MethodPost, "/api/books", `{"title":"  ","description":"d","author":"a","genre":"g","publishedYear":"20"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "Title is required", body["error"])
	assert.Len(t, body["errors"], 2)

	rec = do(e, http.MethodPost, "/api/books", `{"title":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Invalid request body"}`, rec.Body.String())
}

func TestReviews(t *testing.T) {
	e := newTestServer(t)
	id := createBook(t, e)
	payload := fmt.Sprintf(`{"bookId":%d,"userAddress":"0xABC","reviewText":"Great","rating":5,"reviewHash":"h1"}`, id)

	rec := do(e, http.MethodPost, "/api/reviews", payload)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "0xabc", decode(t, rec)["userAddress"])

	rec = do(e, http.MethodPost, "/api/reviews", payload)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.JSONEq(t, `{"error":"User has already reviewed this book"}`, rec.Body.String())

	rec = do(e, http.MethodGet, fmt.Sprintf("/api/reviews/%d", id), "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list, 1)

	rec = do(e, http.MethodGet, "/api/reviews?userAddress=0xAbC", "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list, 1)

	rec = do(e, http.MethodPost, "/api/reviews", `{"bookId":999,"userAddress":"0x1","reviewText":"x","reviewHash":"h"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(e, http.MethodPost, "/api/reviews", fmt.Sprintf(`{"bookId":%d,"userAddress":"0x2","reviewText":"x","reviewHash":"h","rating":9}`, id))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Rating must be between 1 and 5", decode(t, rec)["error"])
}

func TestBorrowRequests(t *testing.T) {
	e := newTestServer(t)
	id := createBook(t, e)

	rec := do(e, http.MethodPost, "/api/borrow-requests", fmt.Sprintf(`{"bookId":%d,"borrowerAddress":"0xB","durationDays":35}`, id))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Duration must be between 1 and 30 days", decode(t, rec)["error"])

	rec = do(e, http.MethodPost, "/api/borrow-requests", fmt.Sprintf(`{"bookId":"%d","borrowerAddress":"0xB","durationDays":7}`, id))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode(t, rec)
	reqID := created["id"].(string)
	assert.True(t, strings.HasPrefix(reqID, "req-"))
	assert.Equal(t, "pending", created["status"])
	assert.Equal(t, "0xb", created["borrowerAddress"])

	rec = do(e, http.MethodPost, "/api/borrow-requests", fmt.Sprintf(`{"bookId":%d,"borrowerAddress":"0xb","durationDays":3}`, id))
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(e, http.MethodPatch, "/api/borrow-requests/"+reqID, `{"status":"returned"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid status", decode(t, rec)["error"])

	rec = do(e, http.MethodPatch, "/api/borrow-requests/"+reqID, `{"status":"approved","txHash":"0xfeed"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	updated := decode(t, rec)
	assert.Equal(t, "approved", updated["status"])
	assert.Equal(t, "0xfeed", updated["txHash"])

	rec = do(e, http.MethodGet, "/api/borrow-requests?status=approved", "")
	var list []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list, 1)

	rec = do(e, http.MethodDelete, "/api/borrow-requests/"+reqID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())

	rec = do(e, http.MethodDelete, "/api/borrow-requests/"+reqID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"Borrow request not found"}`, rec.Body.String())
}

func TestPurchases(t *testing.T) {
	e := newTestServer(t)
	id := createBook(t, e)
	payload := fmt.Sprintf(`{"bookId":%d,"buyerAddress":"0x1","amount":"1000000000000000","txHash":"0xaaa"}`, id)

	rec := do(e, http.MethodPost, "/api/purchases", payload)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	p := decode(t, rec)
	assert.Equal(t, "1000000000000000", p["amount"])
	assert.Equal(t, "Dune", p["book"].(map[string]any)["title"])

	rec = do(e, http.MethodPost, "/api/purchases", payload)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.JSONEq(t, `{"error":"Purchase already recorded"}`, rec.Body.String())

	rec = do(e, http.MethodPost, "/api/purchases", `{"bookId":1,"buyerAddress":"0x1"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Missing required fields", decode(t, rec)["error"])

	rec = do(e, http.MethodPost, "/api/purchases", fmt.Sprintf(`{"bookId":%d,"buyerAddress":"0x2","amount":2000000000000000,"txHash":"0xbbb"}`, id))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(e, http.MethodGet, "/api/purchases/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"totalPurchases":2,"uniqueBuyers":2,"totalVolume":"3000000000000000"}`, rec.Body.String())

	var list []map[string]any
	rec = do(e, http.MethodGet, "/api/purchases/user/0x1", "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list, 1)

	rec = do(e, http.MethodGet, fmt.Sprintf("/api/purchases/book/%d", id), "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list, 2)
}

func TestCoverUpload(t *testing.T) {
	e := newTestServer(t)
	id := createBook(t, e)
	path := fmt.Sprintf("/api/upload/%d/cover", id)

	rec := do(e, http.MethodPost, path, `{"imageData":"not-a-data-url"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid image format. Must be a data URL", decode(t, rec)["error"])

	rec = do(e, http.MethodPost, path, `{"imageData":"data:image/png;base64,aGVsbG8="}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Cover image uploaded successfully", decode(t, rec)["message"])

	rec = do(e, http.MethodGet, fmt.Sprintf("/api/books/%d", id), "")
	assert.Equal(t, "data:image/png;base64,aGVsbG8=", decode(t, rec)["coverImage"])

	rec = do(e, http.MethodDelete, path, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Cover image deleted successfully", decode(t, rec)["message"])

	rec = do(e, http.MethodDelete, "/api/upload/999/cover", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAuth(t *testing.T) {
	e := newTestServer(t)

	rec := do(e, http.MethodPost, "/api/auth/verify", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"Token required"}`, rec.Body.String())

	rec = do(e, http.MethodPost, "/api/auth/verify", "", "Authorization", "Bearer garbage")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t, `{"error":"Invalid token","valid":false}`, rec.Body.String())

	rec = do(e, http.MethodPost, "/api/auth/login", `{"walletAddress":"0x123"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid wallet address format", decode(t, rec)["error"])

	rec = do(e, http.MethodPost, "/api/auth/login", `{"walletAddress":"`+wallet+`"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	login := decode(t, rec)
	token := login["token"].(string)
	user := login["user"].(map[string]any)
	assert.Equal(t, strings.ToLower(wallet), user["walletAddress"])

	rec = do(e, http.MethodPost, "/api/auth/verify", "", "Authorization", "Bearer "+token)
	require.Equal(t, http.StatusOK, rec.Code)
	verified := decode(t, rec)
	assert.Equal(t, true, verified["valid"])
	assert.Equal(t, user["id"], verified["user"].(map[string]any)["id"])

	rec = do(e, http.MethodGet, "/api/auth/me", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(e, http.MethodGet, "/api/auth/me", "", "Authorization", "Bearer "+token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, user["id"], decode(t, rec)["id"])
}

func TestMetricsExposed(t *testing.T) {
	e := newTestServer(t)
	do(e, http.MethodGet, "/health", "")
	rec := do(e, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "booklend_http_requests_total")
}

func TestCoverUploadSizeBoundary(t *testing.T) {
	e := newTestServer(t)
	id := createBook(t, e)
	path := fmt.Sprintf("/api/upload/%d/cover", id)
	cover := func(b64Len int) string {
		return `{"imageData":"data:image/png;base64,` + strings.Repeat("A", b64Len) + `"}`
	}

	// ~4.9 MB decoded
	rec := do(e, http.MethodPost, path, cover(6533332))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// ~5.5 MB decoded
	rec = do(e, http.MethodPost, path, cover(7333332))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Image too large. Maximum size is 5MB", decode(t, rec)["error"])
}

func TestFrameworkErrorsUseErrorBody(t *testing.T) {
	e := newTestServer(t)
	e.GET("/boom", func(echo.Context) error { panic("boom") })

	rec := do(e, http.MethodGet, "/api/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"Not Found"}`, rec.Body.String())

	rec = do(e, http.MethodPut, "/api/books", `{}`)
	assert.Contains(t, []int{http.StatusNotFound, http.StatusMethodNotAllowed}, rec.Code)
	body := decode(t, rec)
	assert.NotEmpty(t, body["error"])
	assert.NotContains(t, body, "message")

	rec = do(e, http.MethodPost, "/api/books", `{"title":"`+strings.Repeat("x", 2<<20)+`"}`)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.JSONEq(t, `{"error":"Request Entity Too Large"}`, rec.Body.String())

	rec = do(e, http.MethodGet, "/boom", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Internal server error"}`, rec.Body.String())
}

func TestCreateBookRejectsScriptCover(t *testing.T) {
	e := newTestServer(t)
	rec := do(e, http.MethodPost, "/api/books",
		`{"title":"t","description":"d","author":"a","genre":"g","publishedYear":2020,"coverImage":"javascript:alert(1)"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Cover image must be a valid URL", decode(t, rec)["error"])

	rec = do(e, http.MethodGet, "/api/books", "")
	var list []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Empty(t, list)
}
