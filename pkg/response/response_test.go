package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestSuccessWritesEnvelope(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set("request_id", "req-1")

	Success(c, 0, map[string]int{"id": 7}, "ok", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var body APIResponse[map[string]int]
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if !body.Success || body.RequestID != "req-1" || body.Data["id"] != 7 {
		t.Errorf("unexpected envelope %+v", body)
	}
}

func TestErrorAndAbort(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Abort(c, http.StatusForbidden, "forbidden")

	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}
	if !c.IsAborted() {
		t.Error("expected aborted context")
	}
	var body APIResponse[any]
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	if body.Success || body.Message != "forbidden" {
		t.Errorf("unexpected envelope %+v", body)
	}
}
