package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"healthhive/internal/auth"
	"healthhive/internal/database"
)

func registerRequestFor(t *testing.T, name, email, password string) *http.Request {
	t.Helper()
	body, err := json.Marshal(map[string]string{
		"name":     name,
		"email":    email,
		"password": password,
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/register", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestRegister_CreatesRegularUser(t *testing.T) {
	db := newTestDB(t)
	h := NewAuthHandler(db, nil, nil, nil, 10, 5, 0, "")

	c, w := newTestContext(t, registerRequestFor(t, "Jamie", "Jamie@Example.com", "long enough pw"), 0, "")
	h.Register(c)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	var stored database.User
	if err := db.First(&stored, "email = ?", "jamie@example.com").Error; err != nil {
		t.Fatalf("user not stored lowercased: %v", err)
	}
	if stored.Role != database.RoleUser {
		t.Fatalf("role = %q, want user", stored.Role)
	}
	if stored.PasswordHash == "long enough pw" || !auth.CheckPasswordHash("long enough pw", stored.PasswordHash) {
		t.Fatal("password not hashed correctly")
	}
}

func TestRegister_DuplicateEmailConflicts(t *testing.T) {
	db := newTestDB(t)
	h := NewAuthHandler(db, nil, nil, nil, 10, 5, 0, "")

	c, w := newTestContext(t, registerRequestFor(t, "Jamie", "jamie@example.com", "long enough pw"), 0, "")
	h.Register(c)
	if w.Code != http.StatusCreated {
		t.Fatalf("first register status = %d", w.Code)
	}

	c, w = newTestContext(t, registerRequestFor(t, "Impostor", "JAMIE@example.com", "another long pw"), 0, "")
	h.Register(c)
	if w.Code != http.StatusConflict {
		t.Fatalf("duplicate status = %d, want 409", w.Code)
	}
}

func TestRegister_ReusesEmailOfDeletedAccount(t *testing.T) {
	db := newTestDB(t)
	authHandler := NewAuthHandler(db, nil, nil, nil, 10, 5, 0, "")
	userHandler := NewUserHandler(db)
	admin := mustCreateUser(t, db, "admin", database.RoleAdmin)

	c, w := newTestContext(t, registerRequestFor(t, "Jamie", "jamie@example.com", "long enough pw"), 0, "")
	authHandler.Register(c)
	if w.Code != http.StatusCreated {
		t.Fatalf("register status = %d", w.Code)
	}
	var first database.User
	if err := db.First(&first, "email = ?", "jamie@example.com").Error; err != nil {
		t.Fatalf("load: %v", err)
	}

	req := httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/v1/users/%d", first.ID), nil)
	c, w = newTestContext(t, req, admin.ID, database.RoleAdmin)
	c.Params = gin.Params{{Key: "id", Value: fmt.Sprint(first.ID)}}
	userHandler.DeleteUser(c)
	if w.Code != http.StatusOK {
		t.Fatalf("delete status = %d body=%s", w.Code, w.Body.String())
	}

	// Deletion is permanent, so the freed email must be registrable again
	// without tripping the unique index.
	c, w = newTestContext(t, registerRequestFor(t, "Jamie Again", "jamie@example.com", "long enough pw"), 0, "")
	authHandler.Register(c)
	if w.Code != http.StatusCreated {
		t.Fatalf("re-register status = %d body=%s", w.Code, w.Body.String())
	}
	var second database.User
	if err := db.First(&second, "email = ?", "jamie@example.com").Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if second.ID == first.ID {
		t.Fatal("re-register did not create a fresh account")
	}
}
