package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"healthhive/internal/database"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// newTestContext builds a gin context with the given request attached.
// userID 0 leaves the caller anonymous.
func newTestContext(t *testing.T, req *http.Request, userID uint, role string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req
	if userID != 0 {
		c.Set("userID", userID)
		c.Set("userRole", role)
	}
	return c, w
}

func mustCreateUser(t *testing.T, db *gorm.DB, name, role string) database.User {
	t.Helper()
	u := database.User{Name: name, Email: name + "@example.com", Role: role}
	if err := db.Create(&u).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func seedWorkouts(t *testing.T, db *gorm.DB, userID uint, n int, published bool) []database.Workout {
	t.Helper()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]database.Workout, 0, n)
	for i := 1; i <= n; i++ {
		w := database.Workout{
			Title:     fmt.Sprintf("workout-%02d", i),
			Published: published,
			UserID:    userID,
		}
		w.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		if err := db.Create(&w).Error; err != nil {
			t.Fatalf("seed workout %d: %v", i, err)
		}
		out = append(out, w)
	}
	return out
}

type workoutListEnvelope struct {
	Success    bool  `json:"success"`
	Count      int   `json:"count"`
	Total      int64 `json:"total"`
	Pagination struct {
		Next *struct {
			Page  int `json:"page"`
			Limit int `json:"limit"`
		} `json:"next"`
		Prev *struct {
			Page  int `json:"page"`
			Limit int `json:"limit"`
		} `json:"prev"`
	} `json:"pagination"`
	Workouts []struct {
		ID        uint   `json:"id"`
		Title     string `json:"title"`
		Published bool   `json:"published"`
	} `json:"workouts"`
}

func decodeWorkoutList(t *testing.T, w *httptest.ResponseRecorder) workoutListEnvelope {
	t.Helper()
	var env workoutListEnvelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode body %s: %v", w.Body.String(), err)
	}
	return env
}

func TestListWorkouts_PaginationEnvelope(t *testing.T) {
	db := newTestDB(t)
	owner := mustCreateUser(t, db, "owner", database.RoleUser)
	seedWorkouts(t, db, owner.ID, 25, true)
	h := NewWorkoutHandler(db, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/workouts?page=2&limit=10", nil)
	c, w := newTestContext(t, req, 0, "")
	h.ListWorkouts(c)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	env := decodeWorkoutList(t, w)
	if !env.Success || env.Count != 10 || env.Total != 25 {
		t.Fatalf("envelope = %+v", env)
	}
	if env.Pagination.Next == nil || env.Pagination.Next.Page != 3 || env.Pagination.Next.Limit != 10 {
		t.Fatalf("next = %+v, want {3 10}", env.Pagination.Next)
	}
	if env.Pagination.Prev == nil || env.Pagination.Prev.Page != 1 || env.Pagination.Prev.Limit != 10 {
		t.Fatalf("prev = %+v, want {1 10}", env.Pagination.Prev)
	}
	if env.Workouts[0].Title != "workout-15" || env.Workouts[9].Title != "workout-06" {
		t.Fatalf("window = %q..%q, want workout-15..workout-06", env.Workouts[0].Title, env.Workouts[9].Title)
	}
}

func TestListWorkouts_JunkPaginationFallsBack(t *testing.T) {
	db := newTestDB(t)
	owner := mustCreateUser(t, db, "owner", database.RoleUser)
	seedWorkouts(t, db, owner.ID, 12, true)
	h := NewWorkoutHandler(db, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/workouts?page=zero&limit=-3", nil)
	c, w := newTestContext(t, req, 0, "")
	h.ListWorkouts(c)

	env := decodeWorkoutList(t, w)
	if env.Count != 10 || env.Total != 12 {
		t.Fatalf("count=%d total=%d, want 10 and 12", env.Count, env.Total)
	}
	if env.Pagination.Next == nil || env.Pagination.Next.Page != 2 {
		t.Fatalf("next = %+v, want page 2", env.Pagination.Next)
	}
	if env.Pagination.Prev != nil {
		t.Fatalf("prev = %+v, want absent", env.Pagination.Prev)
	}
}

func TestListWorkouts_VisibilityByRole(t *testing.T) {
	db := newTestDB(t)
	owner := mustCreateUser(t, db, "owner", database.RoleUser)
	seedWorkouts(t, db, owner.ID, 3, true)
	seedWorkouts(t, db, owner.ID, 2, false)
	h := NewWorkoutHandler(db, nil, nil)

	// Anonymous callers only see published documents, and the published
	// parameter is ignored for them.
	req := httptest.NewRequest(http.MethodGet, "/v1/workouts?published=false", nil)
	c, w := newTestContext(t, req, 0, "")
	h.ListWorkouts(c)
	if env := decodeWorkoutList(t, w); env.Total != 3 {
		t.Fatalf("anonymous total = %d, want 3", env.Total)
	}

	// Admins see everything by default.
	req = httptest.NewRequest(http.MethodGet, "/v1/workouts", nil)
	c, w = newTestContext(t, req, owner.ID, database.RoleAdmin)
	h.ListWorkouts(c)
	if env := decodeWorkoutList(t, w); env.Total != 5 {
		t.Fatalf("admin total = %d, want 5", env.Total)
	}

	// Admins can explicitly select drafts.
	req = httptest.NewRequest(http.MethodGet, "/v1/workouts?published=false", nil)
	c, w = newTestContext(t, req, owner.ID, database.RoleAdmin)
	h.ListWorkouts(c)
	env := decodeWorkoutList(t, w)
	if env.Total != 2 {
		t.Fatalf("admin drafts total = %d, want 2", env.Total)
	}
	for _, item := range env.Workouts {
		if item.Published {
			t.Fatalf("draft listing contains published workout %d", item.ID)
		}
	}
}

func TestGetWorkout_HiddenLooksMissing(t *testing.T) {
	db := newTestDB(t)
	owner := mustCreateUser(t, db, "owner", database.RoleUser)
	hidden := seedWorkouts(t, db, owner.ID, 1, false)[0]
	h := NewWorkoutHandler(db, nil, nil)

	fetch := func(id string, userID uint, role string) *httptest.ResponseRecorder {
		t.Helper()
		req := httptest.NewRequest(http.MethodGet, "/v1/workouts/"+id, nil)
		c, w := newTestContext(t, req, userID, role)
		c.Params = gin.Params{{Key: "id", Value: id}}
		h.GetWorkout(c)
		return w
	}

	hiddenResp := fetch(fmt.Sprint(hidden.ID), 0, "")
	missingResp := fetch("9999", 0, "")
	malformedResp := fetch("not-a-number", 0, "")

	for name, resp := range map[string]*httptest.ResponseRecorder{
		"hidden": hiddenResp, "missing": missingResp, "malformed": malformedResp,
	} {
		if resp.Code != http.StatusNotFound {
			t.Fatalf("%s id: status = %d, want 404", name, resp.Code)
		}
	}
	// A hidden document must be indistinguishable from a missing one.
	if hiddenResp.Body.String() != missingResp.Body.String() {
		t.Fatalf("hidden body %q differs from missing body %q", hiddenResp.Body.String(), missingResp.Body.String())
	}
	if malformedResp.Body.String() != missingResp.Body.String() {
		t.Fatalf("malformed body %q differs from missing body %q", malformedResp.Body.String(), missingResp.Body.String())
	}

	// Admins read drafts normally.
	if resp := fetch(fmt.Sprint(hidden.ID), owner.ID, database.RoleAdmin); resp.Code != http.StatusOK {
		t.Fatalf("admin fetch status = %d body=%s", resp.Code, resp.Body.String())
	}
}

func TestCreateWorkout_SetsOwner(t *testing.T) {
	db := newTestDB(t)
	author := mustCreateUser(t, db, "coach", database.RoleAdmin)
	h := NewWorkoutHandler(db, nil, nil)

	body := `{"title":"Leg Day","category":"strength","muscle_groups":["quads","glutes"],"published":true}`
	req := httptest.NewRequest(http.MethodPost, "/v1/workouts", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	c, w := newTestContext(t, req, author.ID, database.RoleAdmin)
	h.CreateWorkout(c)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	var stored database.Workout
	if err := db.First(&stored, "title = ?", "Leg Day").Error; err != nil {
		t.Fatalf("load created workout: %v", err)
	}
	if stored.UserID != author.ID {
		t.Fatalf("owner = %d, want %d", stored.UserID, author.ID)
	}
	if got := decodeStringArray(stored.MuscleGroups); len(got) != 2 || got[0] != "quads" {
		t.Fatalf("muscle groups = %v", got)
	}
}

func TestUpdateWorkout_PartialByOwner(t *testing.T) {
	db := newTestDB(t)
	owner := mustCreateUser(t, db, "owner", database.RoleUser)
	w0 := database.Workout{Title: "Old Title", Description: "keep me", Category: "cardio", UserID: owner.ID, Published: true}
	if err := db.Create(&w0).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}
	h := NewWorkoutHandler(db, nil, nil)

	body := `{"title":"New Title"}`
	req := httptest.NewRequest(http.MethodPut, "/v1/workouts/1", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	c, w := newTestContext(t, req, owner.ID, database.RoleUser)
	c.Params = gin.Params{{Key: "id", Value: fmt.Sprint(w0.ID)}}
	h.UpdateWorkout(c)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	var stored database.Workout
	if err := db.First(&stored, w0.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if stored.Title != "New Title" || stored.Description != "keep me" || stored.Category != "cardio" {
		t.Fatalf("partial update touched unrelated fields: %+v", stored)
	}
}

func TestDeleteWorkout_NonOwnerForbidden(t *testing.T) {
	db := newTestDB(t)
	owner := mustCreateUser(t, db, "owner", database.RoleUser)
	intruder := mustCreateUser(t, db, "intruder", database.RoleUser)
	w0 := seedWorkouts(t, db, owner.ID, 1, true)[0]
	h := NewWorkoutHandler(db, nil, nil)

	req := httptest.NewRequest(http.MethodDelete, "/v1/workouts/1", nil)
	c, w := newTestContext(t, req, intruder.ID, database.RoleUser)
	c.Params = gin.Params{{Key: "id", Value: fmt.Sprint(w0.ID)}}
	h.DeleteWorkout(c)

	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	var count int64
	if err := db.Model(&database.Workout{}).Where("id = ?", w0.ID).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("workout row count = %d, want 1", count)
	}
}

func TestDeleteWorkout_RemovesStoredImage(t *testing.T) {
	db := newTestDB(t)
	owner := mustCreateUser(t, db, "owner", database.RoleUser)
	w0 := database.Workout{Title: "With Image", ImageKey: "media/1/cover.png", UserID: owner.ID, Published: true}
	if err := db.Create(&w0).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}
	storage := newFakeStorage()
	h := NewWorkoutHandler(db, storage, nil)

	req := httptest.NewRequest(http.MethodDelete, "/v1/workouts/1", nil)
	c, w := newTestContext(t, req, owner.ID, database.RoleUser)
	c.Params = gin.Params{{Key: "id", Value: fmt.Sprint(w0.ID)}}
	h.DeleteWorkout(c)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	if len(storage.deleted) != 1 || storage.deleted[0] != "media/1/cover.png" {
		t.Fatalf("deleted objects = %v", storage.deleted)
	}
	var count int64
	if err := db.Model(&database.Workout{}).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Fatalf("workout rows remaining = %d, want 0", count)
	}
}
