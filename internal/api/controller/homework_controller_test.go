package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/LeMaitre4523/quelquechose-v6/internal/cache"
	"github.com/LeMaitre4523/quelquechose-v6/internal/entity"
	"github.com/LeMaitre4523/quelquechose-v6/internal/provider"
	"github.com/LeMaitre4523/quelquechose-v6/internal/repository"
	"github.com/LeMaitre4523/quelquechose-v6/internal/service"
)

func newControllerFixture(t *testing.T) (*service.Service, *provider.MemoryClient) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	client := provider.NewMemoryClient("s1", time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC))
	store := cache.NewStore(repository.CacheDocument{})
	manager := cache.NewManager(store, client, time.UTC)
	return service.New(client, manager, cache.NewHomeworkHolder()), client
}

func seedHomework(client *provider.MemoryClient) {
	client.SeedHomework([]provider.Homework{
		{
			ID:          "hw1",
			Description: "Exercice 3 p.42",
			Subject:     provider.Subject{Name: "Mathématiques"},
			Deadline:    time.Date(2026, 6, 17, 14, 30, 0, 0, time.UTC),
		},
	})
}

func TestHomeworkController_List(t *testing.T) {
	svc, client := newControllerFixture(t)
	seedHomework(client)

	router := gin.New()
	hc := NewHomeworkController(svc)
	router.GET("/homeworks", hc.List)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/homeworks", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var got []entity.Homework
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if len(got) != 1 || got[0].Description != "Exercice 3 p.42" {
		t.Errorf("unexpected body: %+v", got)
	}
}

func TestHomeworkController_List_EmptyIsArray(t *testing.T) {
	svc, _ := newControllerFixture(t)

	router := gin.New()
	router.GET("/homeworks", NewHomeworkController(svc).List)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/homeworks", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if body := w.Body.String(); body != "[]" {
		t.Errorf("empty collection must serialize as [], got %q", body)
	}
}

func TestHomeworkController_SetDone(t *testing.T) {
	svc, client := newControllerFixture(t)
	seedHomework(client)
	items := svc.LoadHomeworks(context.Background(), false)

	router := gin.New()
	hc := NewHomeworkController(svc)
	router.POST("/homeworks/status", hc.SetDone)

	payload, _ := json.Marshal(map[string]any{"localID": items[0].LocalID, "done": true})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/homeworks/status", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if !svc.Holder().Get()[0].Done {
		t.Error("holder not updated through the endpoint")
	}
}

func TestHomeworkController_SetDone_InvalidPayload(t *testing.T) {
	svc, _ := newControllerFixture(t)

	router := gin.New()
	router.POST("/homeworks/status", NewHomeworkController(svc).SetDone)

	tests := []string{
		`{}`,
		`{"localID":"x"}`,       // missing done
		`{"done":true}`,         // missing localID
		`{"localID":"", "done"`, // broken JSON
	}

	for _, body := range tests {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodPost, "/homeworks/status", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("body %q: expected 400, got %d", body, w.Code)
		}
	}
}

func TestHomeworkController_SetDone_UnknownItem(t *testing.T) {
	svc, client := newControllerFixture(t)
	seedHomework(client)
	svc.LoadHomeworks(context.Background(), false)

	router := gin.New()
	router.POST("/homeworks/status", NewHomeworkController(svc).SetDone)

	payload := `{"localID":"no-such-homework","done":true}`
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/homeworks/status", bytes.NewBufferString(payload))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusConflict {
		t.Errorf("expected 409 for unknown item, got %d", w.Code)
	}
}

func TestHomeworkController_SetDone_FalseDoneIsValid(t *testing.T) {
	svc, client := newControllerFixture(t)
	seedHomework(client)
	items := svc.LoadHomeworks(context.Background(), false)

	router := gin.New()
	router.POST("/homeworks/status", NewHomeworkController(svc).SetDone)

	// done=false must bind: the field is a *bool, not a bool.
	payload, _ := json.Marshal(map[string]any{"localID": items[0].LocalID, "done": false})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/homeworks/status", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200 for done=false, got %d: %s", w.Code, w.Body.String())
	}
}
