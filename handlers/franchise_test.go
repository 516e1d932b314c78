package handlers

import (
	"fmt"
	"net/http"
	"testing"

	"pizza-service/models"
)

func createFranchiseBody(name string, adminEmails ...string) map[string]interface{} {
	admins := make([]map[string]string, len(adminEmails))
	for i, e := range adminEmails {
		admins[i] = map[string]string{"email": e}
	}
	return map[string]interface{}{"name": name, "admins": admins}
}

func TestCreateFranchiseAsAdmin(t *testing.T) {
	db := freshDB()
	router, tokens := setupRouter(db)
	_, adminToken := seedAdmin(db, tokens)
	franchisee, _ := seedTestUser(db, tokens, "pizza franchisee", "f@jwt.com")

	w := serve(router, authRequest("POST", "/api/franchise", createFranchiseBody("pizzaPocket", "f@jwt.com"), adminToken))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	resp := parseResponse(w)
	if resp["name"] != "pizzaPocket" {
		t.Errorf("expected name pizzaPocket, got %v", resp["name"])
	}
	admins := resp["admins"].([]interface{})
	if len(admins) != 1 || idOf(admins[0]) != franchisee.ID {
		t.Fatalf("expected franchisee as admin, got %v", admins)
	}
	if admins[0].(map[string]interface{})["email"] != "f@jwt.com" {
		t.Errorf("expected admin email, got %v", admins[0])
	}

	franchiseID := idOf(resp)
	var role models.UserRole
	if err := db.Where("user_id = ? AND role = ?", franchisee.ID, models.RoleFranchisee).First(&role).Error; err != nil {
		t.Fatalf("expected franchisee role to be granted: %v", err)
	}
	if role.ObjectID == nil || *role.ObjectID != franchiseID {
		t.Errorf("expected role to point at franchise %d, got %v", franchiseID, role.ObjectID)
	}
}

func TestCreateFranchiseForbiddenForDiner(t *testing.T) {
	db := freshDB()
	router, tokens := setupRouter(db)
	_, token := seedTestUser(db, tokens, "pizza diner", "d@jwt.com")

	w := serve(router, authRequest("POST", "/api/franchise", createFranchiseBody("pizzaPocket", "d@jwt.com"), token))
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}

	var count int64
	db.Model(&models.Franchise{}).Count(&count)
	if count != 0 {
		t.Errorf("expected no franchise to be created, got %d", count)
	}
}

func TestCreateFranchiseUnknownAdmin(t *testing.T) {
	db := freshDB()
	router, tokens := setupRouter(db)
	_, adminToken := seedAdmin(db, tokens)
	seedTestUser(db, tokens, "pizza franchisee", "f@jwt.com")

	w := serve(router, authRequest("POST", "/api/franchise", createFranchiseBody("pizzaPocket", "f@jwt.com", "ghost@jwt.com"), adminToken))
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}

	var franchises, roles int64
	db.Model(&models.Franchise{}).Count(&franchises)
	db.Model(&models.UserRole{}).Where("role = ?", models.RoleFranchisee).Count(&roles)
	if franchises != 0 || roles != 0 {
		t.Errorf("expected nothing to be created, got %d franchises and %d roles", franchises, roles)
	}
}

func TestCreateFranchiseDuplicateName(t *testing.T) {
	db := freshDB()
	router, tokens := setupRouter(db)
	_, adminToken := seedAdmin(db, tokens)
	seedTestUser(db, tokens, "pizza franchisee", "f@jwt.com")
	seedFranchise(db, "pizzaPocket")

	w := serve(router, authRequest("POST", "/api/franchise", createFranchiseBody("pizzaPocket", "f@jwt.com"), adminToken))
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", w.Code)
	}
}

func TestCreateFranchiseValidation(t *testing.T) {
	db := freshDB()
	router, tokens := setupRouter(db)
	_, adminToken := seedAdmin(db, tokens)

	bodies := []map[string]interface{}{
		{"admins": []map[string]string{{"email": "a@jwt.com"}}},
		{"name": "noAdmins"},
		{"name": "emptyAdmins", "admins": []map[string]string{}},
		{"name": "badEmail", "admins": []map[string]string{{"email": "nope"}}},
	}
	for _, body := range bodies {
		if w := serve(router, authRequest("POST", "/api/franchise", body, adminToken)); w.Code != http.StatusBadRequest {
			t.Errorf("%v: expected 400, got %d", body, w.Code)
		}
	}
}

func TestFranchiseAdminSeesFranchiseAfterLogin(t *testing.T) {
	db := freshDB()
	router, tokens := setupRouter(db)
	_, adminToken := seedAdmin(db, tokens)

	w := serve(router, jsonRequest("POST", "/api/auth", map[string]string{"name": "B", "email": "b@jwt.com", "password": "bpass"}))
	userB := idOf(parseResponse(w)["user"])

	w = serve(router, authRequest("POST", "/api/franchise", createFranchiseBody("F1", "b@jwt.com"), adminToken))
	if w.Code != http.StatusOK {
		t.Fatalf("create franchise: expected 200, got %d", w.Code)
	}

	w = serve(router, jsonRequest("PUT", "/api/auth", map[string]string{"email": "b@jwt.com", "password": "bpass"}))
	tokenB := parseResponse(w)["token"].(string)

	w = serve(router, authRequest("GET", fmt.Sprintf("/api/franchise/%d", userB), nil, tokenB))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	list := parseResponseArray(w)
	if len(list) != 1 {
		t.Fatalf("expected 1 franchise, got %d", len(list))
	}
	f := list[0].(map[string]interface{})
	if f["name"] != "F1" {
		t.Errorf("expected F1, got %v", f["name"])
	}
	admins := f["admins"].([]interface{})
	if len(admins) != 1 || idOf(admins[0]) != userB {
		t.Errorf("expected B among admins, got %v", admins)
	}
}

func TestListUserFranchisesWithRevenue(t *testing.T) {
	db := freshDB()
	router, tokens := setupRouter(db)
	franchisee, token := seedTestUser(db, tokens, "pizza franchisee", "f@jwt.com", models.RoleDiner)
	franchise := seedFranchise(db, "pizzaPocket", franchisee.ID)
	store := seedStore(db, franchise.ID, "SLC")
	seedStore(db, franchise.ID, "Provo")
	db.Create(&models.Order{DinerID: franchisee.ID, FranchiseID: franchise.ID, StoreID: store.ID, Items: []models.OrderItem{
		{MenuID: 1, Description: "Veggie", Price: 0.05},
		{MenuID: 2, Description: "Pepperoni", Price: 0.0042},
	}})

	w := serve(router, authRequest("GET", fmt.Sprintf("/api/franchise/%d", franchisee.ID), nil, token))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	list := parseResponseArray(w)
	if len(list) != 1 {
		t.Fatalf("expected 1 franchise, got %d", len(list))
	}
	stores := list[0].(map[string]interface{})["stores"].([]interface{})
	if len(stores) != 2 {
		t.Fatalf("expected 2 stores, got %d", len(stores))
	}
	slc := stores[0].(map[string]interface{})
	if rev := slc["totalRevenue"].(float64); rev < 0.0541 || rev > 0.0543 {
		t.Errorf("expected revenue 0.0542, got %v", rev)
	}
	provo := stores[1].(map[string]interface{})
	if provo["totalRevenue"] != float64(0) {
		t.Errorf("expected zero revenue, got %v", provo["totalRevenue"])
	}
}

func TestListUserFranchisesEmpty(t *testing.T) {
	db := freshDB()
	router, tokens := setupRouter(db)
	user, token := seedTestUser(db, tokens, "pizza diner", "d@jwt.com")

	w := serve(router, authRequest("GET", fmt.Sprintf("/api/franchise/%d", user.ID), nil, token))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if w.Body.String() != "[]" {
		t.Errorf("expected empty array, got %s", w.Body.String())
	}
}

func TestListUserFranchisesOfSomeoneElse(t *testing.T) {
	db := freshDB()
	router, tokens := setupRouter(db)
	franchisee, _ := seedTestUser(db, tokens, "pizza franchisee", "f@jwt.com")
	seedFranchise(db, "pizzaPocket", franchisee.ID)
	_, dinerToken := seedTestUser(db, tokens, "pizza diner", "d@jwt.com")
	_, adminToken := seedAdmin(db, tokens)

	w := serve(router, authRequest("GET", fmt.Sprintf("/api/franchise/%d", franchisee.ID), nil, dinerToken))
	if w.Code != http.StatusOK || len(parseResponseArray(w)) != 0 {
		t.Fatalf("expected empty list for another diner, got %d %s", w.Code, w.Body.String())
	}

	w = serve(router, authRequest("GET", fmt.Sprintf("/api/franchise/%d", franchisee.ID), nil, adminToken))
	if len(parseResponseArray(w)) != 1 {
		t.Fatalf("expected admin to see the franchise, got %s", w.Body.String())
	}
}

func TestListUserFranchisesRequiresAuth(t *testing.T) {
	db := freshDB()
	router, _ := setupRouter(db)

	if w := serve(router, jsonRequest("GET", "/api/franchise/1", nil)); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestListFranchisesPublic(t *testing.T) {
	db := freshDB()
	router, tokens := setupRouter(db)
	franchisee, _ := seedTestUser(db, tokens, "pizza franchisee", "f@jwt.com")
	f := seedFranchise(db, "pizzaPocket", franchisee.ID)
	seedStore(db, f.ID, "SLC")
	seedFranchise(db, "pizzaPalace")

	w := serve(router, jsonRequest("GET", "/api/franchise", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	resp := parseResponse(w)
	franchises := resp["franchises"].([]interface{})
	if len(franchises) != 2 {
		t.Fatalf("expected 2 franchises, got %d", len(franchises))
	}
	first := franchises[0].(map[string]interface{})
	if _, ok := first["admins"]; ok {
		t.Error("anonymous callers must not see admins")
	}
	if stores := first["stores"].([]interface{}); len(stores) != 1 {
		t.Errorf("expected stores to be included, got %v", stores)
	}
	if resp["more"] != false {
		t.Errorf("expected more=false, got %v", resp["more"])
	}
}

func TestListFranchisesAdminSeesAdmins(t *testing.T) {
	db := freshDB()
	router, tokens := setupRouter(db)
	_, adminToken := seedAdmin(db, tokens)
	franchisee, _ := seedTestUser(db, tokens, "pizza franchisee", "f@jwt.com")
	seedFranchise(db, "pizzaPocket", franchisee.ID)

	w := serve(router, authRequest("GET", "/api/franchise", nil, adminToken))
	franchises := parseResponse(w)["franchises"].([]interface{})
	admins := franchises[0].(map[string]interface{})["admins"].([]interface{})
	if len(admins) != 1 || idOf(admins[0]) != franchisee.ID {
		t.Errorf("expected admins for admin caller, got %v", admins)
	}
}

func TestListFranchisesPaginationAndFilter(t *testing.T) {
	db := freshDB()
	router, _ := setupRouter(db)
	for i := 0; i < 3; i++ {
		seedFranchise(db, fmt.Sprintf("pizzaPocket%d", i))
	}
	seedFranchise(db, "burgerBarn")

	w := serve(router, jsonRequest("GET", "/api/franchise?page=0&limit=2&name=pizza*", nil))
	resp := parseResponse(w)
	if len(resp["franchises"].([]interface{})) != 2 || resp["more"] != true {
		t.Fatalf("expected first page of 2 with more, got %v", resp)
	}

	w = serve(router, jsonRequest("GET", "/api/franchise?page=1&limit=2&name=pizza*", nil))
	resp = parseResponse(w)
	if len(resp["franchises"].([]interface{})) != 1 || resp["more"] != false {
		t.Fatalf("expected last page of 1, got %v", resp)
	}
}

func TestDeleteFranchiseAsAdmin(t *testing.T) {
	db := freshDB()
	router, tokens := setupRouter(db)
	_, adminToken := seedAdmin(db, tokens)
	franchisee, _ := seedTestUser(db, tokens, "pizza franchisee", "f@jwt.com")
	target := seedFranchise(db, "target", franchisee.ID)
	seedStore(db, target.ID, "doomed")
	sibling := seedFranchise(db, "sibling")
	kept := seedStore(db, sibling.ID, "kept")

	w := serve(router, authRequest("DELETE", fmt.Sprintf("/api/franchise/%d", target.ID), nil, adminToken))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var franchises []models.Franchise
	db.Find(&franchises)
	if len(franchises) != 1 || franchises[0].ID != sibling.ID {
		t.Fatalf("expected only the sibling franchise to remain, got %v", franchises)
	}
	var stores []models.Store
	db.Find(&stores)
	if len(stores) != 1 || stores[0].ID != kept.ID {
		t.Fatalf("expected only the sibling store to remain, got %v", stores)
	}
	var roles int64
	db.Model(&models.UserRole{}).Where("role = ?", models.RoleFranchisee).Count(&roles)
	if roles != 0 {
		t.Errorf("expected franchisee roles of the deleted franchise to go, got %d", roles)
	}

	// deleting again is a no-op
	if w := serve(router, authRequest("DELETE", fmt.Sprintf("/api/franchise/%d", target.ID), nil, adminToken)); w.Code != http.StatusOK {
		t.Fatalf("expected idempotent delete, got %d", w.Code)
	}
}

func TestDeleteFranchiseByItsAdmin(t *testing.T) {
	db := freshDB()
	router, tokens := setupRouter(db)
	franchisee, token := seedTestUser(db, tokens, "pizza franchisee", "f@jwt.com")
	f := seedFranchise(db, "mine", franchisee.ID)

	if w := serve(router, authRequest("DELETE", fmt.Sprintf("/api/franchise/%d", f.ID), nil, token)); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestDeleteFranchiseForbidden(t *testing.T) {
	db := freshDB()
	router, tokens := setupRouter(db)
	_, token := seedTestUser(db, tokens, "pizza diner", "d@jwt.com")
	f := seedFranchise(db, "notMine")
	seedStore(db, f.ID, "SLC")

	w := serve(router, authRequest("DELETE", fmt.Sprintf("/api/franchise/%d", f.ID), nil, token))
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}

	var loaded models.Franchise
	if err := db.Preload("Stores").First(&loaded, f.ID).Error; err != nil {
		t.Fatalf("expected franchise to remain: %v", err)
	}
	if len(loaded.Stores) != 1 {
		t.Errorf("expected stores to be intact, got %d", len(loaded.Stores))
	}
}

func TestCreateStoreByFranchiseAdmin(t *testing.T) {
	db := freshDB()
	router, tokens := setupRouter(db)
	franchisee, token := seedTestUser(db, tokens, "pizza franchisee", "f@jwt.com")
	own := seedFranchise(db, "own", franchisee.ID)
	other := seedFranchise(db, "other")

	w := serve(router, authRequest("POST", fmt.Sprintf("/api/franchise/%d/store", own.ID), map[string]string{"name": "SLC"}, token))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := parseResponse(w)
	if resp["name"] != "SLC" || uint(resp["franchiseId"].(float64)) != own.ID {
		t.Errorf("unexpected store %v", resp)
	}

	w = serve(router, authRequest("POST", fmt.Sprintf("/api/franchise/%d/store", other.ID), map[string]string{"name": "SLC"}, token))
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 on a franchise not administered, got %d", w.Code)
	}

	var count int64
	db.Model(&models.Store{}).Where("franchise_id = ?", other.ID).Count(&count)
	if count != 0 {
		t.Errorf("expected no store under the other franchise, got %d", count)
	}
}

func TestCreateStoreAsAdmin(t *testing.T) {
	db := freshDB()
	router, tokens := setupRouter(db)
	_, adminToken := seedAdmin(db, tokens)
	f := seedFranchise(db, "pizzaPocket")

	if w := serve(router, authRequest("POST", fmt.Sprintf("/api/franchise/%d/store", f.ID), map[string]string{"name": "SLC"}, adminToken)); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if w := serve(router, authRequest("POST", "/api/franchise/999/store", map[string]string{"name": "SLC"}, adminToken)); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for missing franchise, got %d", w.Code)
	}
	if w := serve(router, authRequest("POST", fmt.Sprintf("/api/franchise/%d/store", f.ID), map[string]string{}, adminToken)); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without name, got %d", w.Code)
	}
}

func TestDeleteStore(t *testing.T) {
	db := freshDB()
	router, tokens := setupRouter(db)
	franchisee, token := seedTestUser(db, tokens, "pizza franchisee", "f@jwt.com")
	_, dinerToken := seedTestUser(db, tokens, "pizza diner", "d@jwt.com")
	f := seedFranchise(db, "own", franchisee.ID)
	doomed := seedStore(db, f.ID, "doomed")
	sibling := seedStore(db, f.ID, "sibling")

	url := fmt.Sprintf("/api/franchise/%d/store/%d", f.ID, doomed.ID)

	if w := serve(router, authRequest("DELETE", url, nil, dinerToken)); w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for a diner, got %d", w.Code)
	}

	if w := serve(router, authRequest("DELETE", url, nil, token)); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var stores []models.Store
	db.Find(&stores)
	if len(stores) != 1 || stores[0].ID != sibling.ID {
		t.Fatalf("expected only the sibling store to remain, got %v", stores)
	}
	var franchises int64
	db.Model(&models.Franchise{}).Count(&franchises)
	if franchises != 1 {
		t.Errorf("expected parent franchise to remain, got %d", franchises)
	}

	if w := serve(router, authRequest("DELETE", url, nil, token)); w.Code != http.StatusOK {
		t.Fatalf("expected idempotent delete, got %d", w.Code)
	}
}

func TestDeleteStoreOfAnotherFranchise(t *testing.T) {
	db := freshDB()
	router, tokens := setupRouter(db)
	franchisee, token := seedTestUser(db, tokens, "pizza franchisee", "f@jwt.com")
	own := seedFranchise(db, "own", franchisee.ID)
	other := seedFranchise(db, "other")
	victim := seedStore(db, other.ID, "victim")

	w := serve(router, authRequest("DELETE", fmt.Sprintf("/api/franchise/%d/store/%d", other.ID, victim.ID), nil, token))
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 on a franchise not administered, got %d", w.Code)
	}

	// addressing the store through the caller's own franchise matches nothing
	w = serve(router, authRequest("DELETE", fmt.Sprintf("/api/franchise/%d/store/%d", own.ID, victim.ID), nil, token))
	if w.Code != http.StatusOK {
		t.Fatalf("expected no-op 200, got %d", w.Code)
	}

	var stored models.Store
	if err := db.First(&stored, victim.ID).Error; err != nil {
		t.Fatalf("expected store of the other franchise to remain: %v", err)
	}
	if stored.FranchiseID != other.ID {
		t.Errorf("expected store to stay under franchise %d, got %d", other.ID, stored.FranchiseID)
	}
}
