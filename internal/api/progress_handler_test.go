package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"healthhive/internal/database"
)

func seedProgressLog(t *testing.T, db *gorm.DB, userID uint, weight float64) database.ProgressLog {
	t.Helper()
	l := database.ProgressLog{
		UserID:   userID,
		Date:     time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		WeightKg: weight,
	}
	if err := db.Create(&l).Error; err != nil {
		t.Fatalf("seed log: %v", err)
	}
	return l
}

func TestListProgressLogs_ScopedToCaller(t *testing.T) {
	db := newTestDB(t)
	seedProgressLog(t, db, 1, 80)
	seedProgressLog(t, db, 1, 79.5)
	seedProgressLog(t, db, 2, 95)
	h := NewProgressHandler(db)

	req := httptest.NewRequest(http.MethodGet, "/v1/progress", nil)
	c, w := newTestContext(t, req, 1, database.RoleUser)
	h.ListProgressLogs(c)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	var env struct {
		Total int64 `json:"total"`
		Logs  []struct {
			WeightKg float64 `json:"weight_kg"`
		} `json:"logs"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Total != 2 || len(env.Logs) != 2 {
		t.Fatalf("total=%d len=%d, want 2 and 2", env.Total, len(env.Logs))
	}
	for _, l := range env.Logs {
		if l.WeightKg == 95 {
			t.Fatal("listing leaked another user's log")
		}
	}
}

func TestGetOtherUsersLog_LooksMissing(t *testing.T) {
	db := newTestDB(t)
	foreign := seedProgressLog(t, db, 2, 95)
	h := NewProgressHandler(db)

	update := func(id string) *httptest.ResponseRecorder {
		t.Helper()
		req := httptest.NewRequest(http.MethodPut, "/v1/progress/"+id, bytes.NewBufferString(`{"notes":"x"}`))
		req.Header.Set("Content-Type", "application/json")
		c, w := newTestContext(t, req, 1, database.RoleUser)
		c.Params = gin.Params{{Key: "id", Value: id}}
		h.UpdateProgressLog(c)
		return w
	}

	foreignResp := update(fmt.Sprint(foreign.ID))
	missingResp := update("9999")

	if foreignResp.Code != http.StatusNotFound || missingResp.Code != http.StatusNotFound {
		t.Fatalf("statuses = %d and %d, want 404 for both", foreignResp.Code, missingResp.Code)
	}
	// Another user's log must be indistinguishable from a missing one.
	if foreignResp.Body.String() != missingResp.Body.String() {
		t.Fatalf("foreign body %q differs from missing body %q", foreignResp.Body.String(), missingResp.Body.String())
	}
}

func TestCreateAndDeleteProgressLog(t *testing.T) {
	db := newTestDB(t)
	h := NewProgressHandler(db)

	body := `{"date":"2026-02-01T00:00:00Z","weight_kg":80.5,"body_fat_pct":18.2,"notes":"after vacation"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/progress", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	c, w := newTestContext(t, req, 3, database.RoleUser)
	h.CreateProgressLog(c)
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d body=%s", w.Code, w.Body.String())
	}

	var stored database.ProgressLog
	if err := db.First(&stored, "user_id = ?", 3).Error; err != nil {
		t.Fatalf("load: %v", err)
	}
	if stored.WeightKg != 80.5 || stored.Notes != "after vacation" {
		t.Fatalf("stored = %+v", stored)
	}

	req = httptest.NewRequest(http.MethodDelete, "/v1/progress/1", nil)
	c, w = newTestContext(t, req, 3, database.RoleUser)
	c.Params = gin.Params{{Key: "id", Value: fmt.Sprint(stored.ID)}}
	h.DeleteProgressLog(c)
	if w.Code != http.StatusOK {
		t.Fatalf("delete status = %d body=%s", w.Code, w.Body.String())
	}

	var count int64
	if err := db.Model(&database.ProgressLog{}).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Fatalf("log count = %d, want 0", count)
	}
}
