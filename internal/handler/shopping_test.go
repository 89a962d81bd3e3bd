package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/feedme-app/feedme/internal/auth"
	"github.com/feedme-app/feedme/internal/database"
	"github.com/feedme-app/feedme/internal/model"
	"github.com/feedme-app/feedme/internal/store"
)

func setupShoppingHandler(t *testing.T) (*ShoppingHandler, *store.ItemStore, *int) {
	t.Helper()

	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("enable foreign keys: %v", err)
	}

	users := store.NewUserStore(db)
	if _, err := users.Create(1, "Ana", "ana@example.com", "hash"); err != nil {
		t.Fatalf("create user: %v", err)
	}
	if _, err := users.Create(2, "Bruno", "bruno@example.com", "hash"); err != nil {
		t.Fatalf("create user: %v", err)
	}

	items := store.NewItemStore(db)
	purchases := store.NewPurchaseStore(db)

	var syncCalls int
	sync := func(int64) { syncCalls++ }
	return NewShoppingHandler(items, purchases, sync, discardLogger()), items, &syncCalls
}

func authedJSON(t *testing.T, h http.HandlerFunc, target string, body any, userID int64) *httptest.ResponseRecorder {
	t.Helper()

	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, target, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req = req.WithContext(auth.WithAuth(req.Context(), auth.AuthContext{UserID: userID}))
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func price(v float64) *float64 {
	return &v
}

func TestFinishShopping(t *testing.T) {
	h, items, _ := setupShoppingHandler(t)

	rice, err := items.Put(store.Shopping, model.Item{
		ID: 100, Name: "Arroz", Quantity: 2, Unit: model.UnitKg, Price: price(5.50), OwnerID: 1,
	})
	if err != nil {
		t.Fatalf("seed rice: %v", err)
	}
	milk, err := items.Put(store.Shopping, model.Item{
		ID: 101, Name: "Leite", Quantity: 6, Unit: model.UnitL, Price: price(4.00), OwnerID: 1,
	})
	if err != nil {
		t.Fatalf("seed milk: %v", err)
	}

	rec := authedJSON(t, h.Finish, "/api/shopping/finish", map[string]any{
		"items": []map[string]any{
			{"id": rice.ID, "bought": 2},
			{"id": milk.ID, "bought": 4},
		},
	}, 1)
	if rec.Code != http.StatusCreated {
		t.Fatalf("finish status = %d: %s", rec.Code, rec.Body)
	}

	var record model.CompletedPurchase
	if err := json.Unmarshal(rec.Body.Bytes(), &record); err != nil {
		t.Fatalf("decode record: %v", err)
	}
	if len(record.Items) != 2 {
		t.Fatalf("record has %d items, want 2", len(record.Items))
	}
	// 2 * 5.50 + 4 * 4.00
	if record.TotalSpent != 27.0 {
		t.Errorf("total spent = %.2f, want 27.00", record.TotalSpent)
	}

	// Fully bought item is gone from the list.
	if got, err := items.Get(store.Shopping, rice.ID); err != nil || got != nil {
		t.Errorf("rice after finish = %v, %v; want deleted", got, err)
	}

	// Partially bought item keeps the remainder.
	got, err := items.Get(store.Shopping, milk.ID)
	if err != nil || got == nil {
		t.Fatalf("milk after finish: %v, %v", got, err)
	}
	if got.Quantity != 2 || got.Bought != 0 {
		t.Errorf("milk remainder = quantity %d bought %d, want 2 and 0", got.Quantity, got.Bought)
	}

	// The trip shows up in history.
	histRec := authedJSON(t, h.History, "/api/shopping/history", nil, 1)
	if histRec.Code != http.StatusOK {
		t.Fatalf("history status = %d", histRec.Code)
	}
	var history []model.CompletedPurchase
	if err := json.Unmarshal(histRec.Body.Bytes(), &history); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(history) != 1 || history[0].ID != record.ID {
		t.Errorf("history = %+v, want the finished trip", history)
	}
}

func TestFinishShoppingOvershoot(t *testing.T) {
	h, items, _ := setupShoppingHandler(t)

	item, err := items.Put(store.Shopping, model.Item{
		ID: 100, Name: "Ovos", Quantity: 1, Unit: model.UnitCaixa, OwnerID: 1,
	})
	if err != nil {
		t.Fatalf("seed item: %v", err)
	}

	// Buying more than requested still just removes the item.
	rec := authedJSON(t, h.Finish, "/api/shopping/finish", map[string]any{
		"items": []map[string]any{{"id": item.ID, "bought": 3}},
	}, 1)
	if rec.Code != http.StatusCreated {
		t.Fatalf("finish status = %d: %s", rec.Code, rec.Body)
	}
	if got, _ := items.Get(store.Shopping, item.ID); got != nil {
		t.Errorf("item survived finish: %+v", got)
	}
}

func TestFinishShoppingForeignItem(t *testing.T) {
	h, items, _ := setupShoppingHandler(t)

	if _, err := items.Put(store.Shopping, model.Item{
		ID: 200, Name: "Queijo", Quantity: 1, Unit: model.UnitG, OwnerID: 2,
	}); err != nil {
		t.Fatalf("seed item: %v", err)
	}

	rec := authedJSON(t, h.Finish, "/api/shopping/finish", map[string]any{
		"items": []map[string]any{{"id": 200, "bought": 1}},
	}, 1)
	if rec.Code != http.StatusNotFound {
		t.Errorf("finish status = %d, want %d", rec.Code, http.StatusNotFound)
	}

	// Another user's item is untouched.
	if got, _ := items.Get(store.Shopping, 200); got == nil {
		t.Error("foreign item was removed")
	}
}

func TestFinishShoppingEmpty(t *testing.T) {
	h, _, _ := setupShoppingHandler(t)

	rec := authedJSON(t, h.Finish, "/api/shopping/finish", map[string]any{
		"items": []map[string]any{},
	}, 1)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("finish status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestCreateNotifiesSync(t *testing.T) {
	h, items, syncCalls := setupShoppingHandler(t)

	rec := authedJSON(t, h.Create, "/api/shopping", map[string]any{
		"name": "Feijão", "quantity": 2, "unit": "pacote",
	}, 1)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", rec.Code, rec.Body)
	}
	if *syncCalls != 1 {
		t.Errorf("sync calls = %d, want 1", *syncCalls)
	}

	var created model.Item
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode item: %v", err)
	}
	if created.OwnerID != 1 {
		t.Errorf("owner = %d, want the authenticated user", created.OwnerID)
	}
	if got, _ := items.Get(store.Shopping, created.ID); got == nil {
		t.Error("created item not in store")
	}
}

func TestCreateRejectsUnknownUnit(t *testing.T) {
	h, _, syncCalls := setupShoppingHandler(t)

	rec := authedJSON(t, h.Create, "/api/shopping", map[string]any{
		"name": "Feijão", "quantity": 2, "unit": "duzia",
	}, 1)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("create status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if *syncCalls != 0 {
		t.Errorf("sync calls = %d, want 0", *syncCalls)
	}
}

func TestUpdateForeignItem(t *testing.T) {
	h, items, _ := setupShoppingHandler(t)

	if _, err := items.Put(store.Shopping, model.Item{
		ID: 300, Name: "Café", Quantity: 1, Unit: model.UnitPacote, OwnerID: 2,
	}); err != nil {
		t.Fatalf("seed item: %v", err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("PUT /api/shopping/{id}", h.Update)

	payload, _ := json.Marshal(map[string]any{"name": "Café", "quantity": 5, "unit": "pacote"})
	req := httptest.NewRequest(http.MethodPut, "/api/shopping/300", bytes.NewReader(payload))
	req = req.WithContext(auth.WithAuth(req.Context(), auth.AuthContext{UserID: 1}))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("update status = %d, want %d", rec.Code, http.StatusNotFound)
	}
	if got, _ := items.Get(store.Shopping, 300); got == nil || got.Quantity != 1 {
		t.Errorf("foreign item changed: %+v", got)
	}
}
