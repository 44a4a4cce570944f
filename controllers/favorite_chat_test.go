package controllers

import (
	"context"
	"net/http"
	"testing"

	"github.com/dcode-github/property_dealer/backend/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestFavorites(t *testing.T) {
	env := newEnv(t)
	user := env.addUser(t, "Buyer", "+919811000001")
	owner := env.addUser(t, "Owner", "+919811000002")
	p1 := env.addProperty(t, owner, nil)
	p2 := env.addProperty(t, owner, nil)

	add := AddFavorite(env.favs, env.props)
	remove := RemoveFavorite(env.favs, env.props)
	vars := func(id string) map[string]string { return map[string]string{"id": id} }
	req := func(method string) *http.Request { return asUser(jsonRequest(t, method, "/", nil), user) }

	expectStatus(t, serve(add, withVars(req(http.MethodPost), vars(p1.ID.Hex()))), http.StatusCreated)
	rec := serve(add, withVars(req(http.MethodPost), vars(p2.ID.Hex())))
	expectStatus(t, rec, http.StatusCreated)
	var list []models.Property
	decode(t, rec, &list)
	if len(list) != 2 || !list[0].IsFavorite {
		t.Fatalf("favorites after add = %+v", list)
	}

	expectStatus(t, serve(add, withVars(req(http.MethodPost), vars(p1.ID.Hex()))), http.StatusBadRequest)
	expectStatus(t, serve(add, withVars(req(http.MethodPost), vars(primitive.NewObjectID().Hex()))), http.StatusNotFound)

	// a deleted listing disappears from the favorites list
	if err := env.props.Delete(context.Background(), p2.ID.Hex()); err != nil {
		t.Fatal(err)
	}
	rec = serve(GetFavorites(env.favs, env.props), req(http.MethodGet))
	expectStatus(t, rec, http.StatusOK)
	decode(t, rec, &list)
	if len(list) != 1 || list[0].ID != p1.ID {
		t.Errorf("favorites = %+v", list)
	}

	rec = serve(remove, withVars(req(http.MethodDelete), vars(p1.ID.Hex())))
	expectStatus(t, rec, http.StatusOK)
	expectStatus(t, serve(remove, withVars(req(http.MethodDelete), vars(p1.ID.Hex()))), http.StatusNotFound)
	expectStatus(t, serve(remove, withVars(req(http.MethodDelete), vars("bad"))), http.StatusBadRequest)
}

func TestChatFlow(t *testing.T) {
	env := newEnv(t)
	buyer := env.addUser(t, "Buyer", "+919811000001")
	owner := env.addUser(t, "Owner", "+919811000002")
	stranger := env.addUser(t, "Stranger", "+919811000003")

	start := StartChat(env.chats, env.users)
	rec := serve(start, asUser(jsonRequest(t, http.MethodPost, "/api/chat/start", map[string]string{"ownerId": owner}), buyer))
	expectStatus(t, rec, http.StatusOK)
	var chat models.Chat
	decode(t, rec, &chat)

	rec = serve(start, asUser(jsonRequest(t, http.MethodPost, "/api/chat/start", map[string]string{"ownerId": buyer}), owner))
	var again models.Chat
	decode(t, rec, &again)
	if again.ID != chat.ID {
		t.Errorf("pair produced two chats: %s and %s", chat.ID.Hex(), again.ID.Hex())
	}

	expectStatus(t, serve(start, asUser(jsonRequest(t, http.MethodPost, "/", map[string]string{"ownerId": buyer}), buyer)), http.StatusBadRequest)
	expectStatus(t, serve(start, asUser(jsonRequest(t, http.MethodPost, "/", map[string]string{"ownerId": primitive.NewObjectID().Hex()}), buyer)), http.StatusNotFound)

	vars := map[string]string{"chatId": chat.ID.Hex()}
	send := SendMessage(env.chats)
	for _, m := range []struct{ from, text string }{{buyer, "Is it available?"}, {owner, "Yes"}} {
		rec = serve(send, withVars(asUser(jsonRequest(t, http.MethodPost, "/", map[string]string{"text": m.text}), m.from), vars))
		expectStatus(t, rec, http.StatusCreated)
	}
	expectStatus(t, serve(send, withVars(asUser(jsonRequest(t, http.MethodPost, "/", map[string]string{"text": ""}), buyer), vars)), http.StatusBadRequest)

	rec = serve(GetMessages(env.chats), withVars(asUser(jsonRequest(t, http.MethodGet, "/", nil), owner), vars))
	expectStatus(t, rec, http.StatusOK)
	var msgs []models.Message
	decode(t, rec, &msgs)
	if len(msgs) != 2 || msgs[0].Text != "Is it available?" || msgs[1].SenderID != owner {
		t.Errorf("messages = %+v", msgs)
	}

	expectStatus(t, serve(GetMessages(env.chats), withVars(asUser(jsonRequest(t, http.MethodGet, "/", nil), stranger), vars)), http.StatusForbidden)
	expectStatus(t, serve(GetMessages(env.chats), withVars(asUser(jsonRequest(t, http.MethodGet, "/", nil), buyer), map[string]string{"chatId": primitive.NewObjectID().Hex()})), http.StatusNotFound)

	rec = serve(GetChats(env.chats), asUser(jsonRequest(t, http.MethodGet, "/", nil), buyer))
	var chats []models.Chat
	decode(t, rec, &chats)
	if len(chats) != 1 {
		t.Errorf("chats = %d, want 1", len(chats))
	}
}

func TestAdminModeration(t *testing.T) {
	env := newEnv(t)
	owner := env.addUser(t, "Owner", "+919811000001")
	p := env.addProperty(t, owner, nil)
	env.addProperty(t, owner, nil)

	rec := serve(ApproveProperty(env.props, env.cache), withVars(jsonRequest(t, http.MethodPut, "/", nil), map[string]string{"id": p.ID.Hex()}))
	expectStatus(t, rec, http.StatusOK)
	var got models.Property
	decode(t, rec, &got)
	if got.Status != models.StatusApproved {
		t.Errorf("status = %q", got.Status)
	}

	rec = serve(AdminListProperties(env.props, env.users), jsonRequest(t, http.MethodGet, "/api/admin/properties?status=pending", nil))
	expectStatus(t, rec, http.StatusOK)
	var list []struct {
		ID   string `json:"_id"`
		User struct {
			ID     string `json:"_id"`
			Name   string `json:"name"`
			Mobile string `json:"mobile"`
		} `json:"user"`
	}
	decode(t, rec, &list)
	if len(list) != 1 || list[0].ID == p.ID.Hex() {
		t.Fatalf("pending = %+v", list)
	}
	if list[0].User.ID != owner || list[0].User.Name != "Owner" || list[0].User.Mobile != "+919811000001" {
		t.Errorf("owner = %+v", list[0].User)
	}

	rec = serve(RejectProperty(env.props, env.cache), withVars(jsonRequest(t, http.MethodPut, "/", nil), map[string]string{"id": p.ID.Hex()}))
	decode(t, rec, &got)
	if got.Status != models.StatusRejected {
		t.Errorf("status = %q", got.Status)
	}

	expectStatus(t, serve(AdminListProperties(env.props, env.users), jsonRequest(t, http.MethodGet, "/api/admin/properties?status=archived", nil)), http.StatusBadRequest)
	expectStatus(t, serve(ApproveProperty(env.props, env.cache), withVars(jsonRequest(t, http.MethodPut, "/", nil), map[string]string{"id": primitive.NewObjectID().Hex()})), http.StatusNotFound)

	rec = serve(FeatureProperty(env.props, env.cache), withVars(jsonRequest(t, http.MethodPut, "/", map[string]bool{"featured": true}), map[string]string{"id": p.ID.Hex()}))
	expectStatus(t, rec, http.StatusOK)
	rec = serve(GetAllProperties(env.props, env.cache), jsonRequest(t, http.MethodGet, "/api/properties?featured=true", nil))
	var featured []models.Property
	decode(t, rec, &featured)
	if len(featured) != 1 || featured[0].ID != p.ID || !featured[0].IsFeatured {
		t.Errorf("featured = %+v", featured)
	}
	expectStatus(t, serve(FeatureProperty(env.props, env.cache), withVars(jsonRequest(t, http.MethodPut, "/", map[string]string{}), map[string]string{"id": p.ID.Hex()})), http.StatusBadRequest)

	rec = serve(AdminListUsers(env.users), jsonRequest(t, http.MethodGet, "/api/admin/users", nil))
	body := decode(t, rec, nil)
	if body.Count == nil || *body.Count != 1 {
		t.Errorf("users count = %v", body.Count)
	}
}
