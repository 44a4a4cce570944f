// Package storetest provides in-memory implementations of the store
// interfaces for handler and service tests.
package storetest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dcode-github/property_dealer/backend/models"
	"github.com/dcode-github/property_dealer/backend/store"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Users struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]models.User
}

func NewUsers() *Users {
	return &Users{users: make(map[primitive.ObjectID]models.User)}
}

func (s *Users) Create(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Mobile == user.Mobile ||
			(user.Aadhaar != "" && u.Aadhaar == user.Aadhaar) ||
			(user.FirebaseUID != "" && u.FirebaseUID == user.FirebaseUID) {
			return store.ErrDuplicate
		}
	}
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	s.users[user.ID] = *user
	return nil
}

func (s *Users) FindByID(_ context.Context, id string) (*models.User, error) {
	oid, err := store.ParseID(id)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[oid]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &u, nil
}

func (s *Users) FindByMobile(_ context.Context, mobile string) (*models.User, error) {
	return s.match(func(u models.User) bool { return u.Mobile == mobile })
}

func (s *Users) FindByAadhaar(_ context.Context, aadhaar string) (*models.User, error) {
	return s.match(func(u models.User) bool { return u.Aadhaar == aadhaar })
}

func (s *Users) FindByFirebaseUID(_ context.Context, uid string) (*models.User, error) {
	return s.match(func(u models.User) bool { return u.FirebaseUID == uid })
}

func (s *Users) FindByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.User{}
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (s *Users) match(fn func(models.User) bool) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if fn(u) {
			found := u
			return &found, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Users) Update(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.ID]; !ok {
		return store.ErrNotFound
	}
	user.UpdatedAt = time.Now()
	s.users[user.ID] = *user
	return nil
}

func (s *Users) List(_ context.Context) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	users := make([]models.User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].CreatedAt.After(users[j].CreatedAt) })
	return users, nil
}

type Properties struct {
	mu    sync.Mutex
	props []models.Property
}

func NewProperties() *Properties {
	return &Properties{}
}

func (s *Properties) Create(_ context.Context, p *models.Property) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	// strictly increasing so NewestFirst ordering is deterministic in tests
	p.CreatedAt = time.Now().Add(time.Duration(len(s.props)) * time.Millisecond)
	p.UpdatedAt = p.CreatedAt
	if p.Amenities == nil {
		p.Amenities = []string{}
	}
	if p.Images == nil {
		p.Images = []string{}
	}
	s.props = append(s.props, clone(*p))
	return nil
}

func (s *Properties) FindByID(_ context.Context, id string) (*models.Property, error) {
	oid, err := store.ParseID(id)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.props {
		if p.ID == oid {
			found := clone(p)
			return &found, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Properties) FindByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.Property, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Property{}
	for _, p := range s.props {
		for _, id := range ids {
			if p.ID == id {
				out = append(out, clone(p))
			}
		}
	}
	return out, nil
}

func (s *Properties) Find(_ context.Context, f models.PropertyFilter) ([]models.Property, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Property{}
	for _, p := range s.props {
		if matches(p, f) {
			out = append(out, clone(p))
		}
	}
	if f.NewestFirst {
		sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	}
	if f.Skip > 0 {
		if int(f.Skip) >= len(out) {
			return []models.Property{}, nil
		}
		out = out[f.Skip:]
	}
	if f.Limit > 0 && int(f.Limit) < len(out) {
		out = out[:f.Limit]
	}
	return out, nil
}

func (s *Properties) Update(_ context.Context, p *models.Property) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.props {
		if s.props[i].ID == p.ID {
			p.UpdatedAt = time.Now()
			s.props[i] = clone(*p)
			return nil
		}
	}
	return store.ErrNotFound
}

func (s *Properties) Delete(_ context.Context, id string) error {
	oid, err := store.ParseID(id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.props {
		if s.props[i].ID == oid {
			s.props = append(s.props[:i], s.props[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

func clone(p models.Property) models.Property {
	p.Amenities = append([]string{}, p.Amenities...)
	p.Images = append([]string{}, p.Images...)
	return p
}

func contains(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

func matches(p models.Property, f models.PropertyFilter) bool {
	if f.PropertyType != "" && p.PropertyType != f.PropertyType {
		return false
	}
	if f.Status != "" && p.Status != f.Status {
		return false
	}
	if f.Featured && !p.IsFeatured {
		return false
	}
	if f.Owner != "" && p.User.Hex() != f.Owner {
		return false
	}
	if f.MinPrice != nil && p.Price < *f.MinPrice || f.MaxPrice != nil && p.Price > *f.MaxPrice {
		return false
	}
	if f.MinArea != nil && p.Area < *f.MinArea || f.MaxArea != nil && p.Area > *f.MaxArea {
		return false
	}
	if f.MinBedrooms != nil && p.Bedrooms < *f.MinBedrooms || f.MaxBedrooms != nil && p.Bedrooms > *f.MaxBedrooms {
		return false
	}
	if f.MinBathrooms != nil && p.Bathrooms < *f.MinBathrooms || f.MaxBathrooms != nil && p.Bathrooms > *f.MaxBathrooms {
		return false
	}
	if f.Address != "" && !contains(p.Address, f.Address) {
		return false
	}
	if f.Latitude != nil && f.Longitude != nil {
		if p.Latitude == nil || p.Longitude == nil || *p.Latitude != *f.Latitude || *p.Longitude != *f.Longitude {
			return false
		}
	}
	if f.Keyword != "" && !contains(p.Title, f.Keyword) && !contains(p.Description, f.Keyword) && !contains(p.Address, f.Keyword) {
		return false
	}
	if len(f.Amenities) > 0 {
		found := false
		for _, want := range f.Amenities {
			for _, have := range p.Amenities {
				if contains(have, want) {
					found = true
				}
			}
		}
		if !found {
			return false
		}
	}
	return true
}

type Favorites struct {
	mu   sync.Mutex
	favs []models.Favorite
}

func NewFavorites() *Favorites {
	return &Favorites{}
}

func (s *Favorites) Add(_ context.Context, userID, propertyID string) error {
	uid, err := store.ParseID(userID)
	if err != nil {
		return err
	}
	pid, err := store.ParseID(propertyID)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range s.favs {
		if f.UserID == uid && f.PropertyID == pid {
			return store.ErrDuplicate
		}
	}
	s.favs = append(s.favs, models.Favorite{ID: primitive.NewObjectID(), UserID: uid, PropertyID: pid, CreatedAt: time.Now()})
	return nil
}

func (s *Favorites) Remove(_ context.Context, userID, propertyID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, f := range s.favs {
		if f.UserID.Hex() == userID && f.PropertyID.Hex() == propertyID {
			s.favs = append(s.favs[:i], s.favs[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

func (s *Favorites) PropertyIDs(_ context.Context, userID string) ([]primitive.ObjectID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := []primitive.ObjectID{}
	for i := len(s.favs) - 1; i >= 0; i-- {
		if s.favs[i].UserID.Hex() == userID {
			ids = append(ids, s.favs[i].PropertyID)
		}
	}
	return ids, nil
}

type Chats struct {
	mu       sync.Mutex
	chats    []models.Chat
	messages []models.Message
	clock    time.Time
}

func NewChats() *Chats {
	return &Chats{clock: time.Now()}
}

// tick returns strictly increasing timestamps so ordering assertions are stable.
func (s *Chats) tick() time.Time {
	s.clock = s.clock.Add(time.Millisecond)
	return s.clock
}

func (s *Chats) FindOrCreate(_ context.Context, userA, userB string) (*models.Chat, error) {
	key, pair := models.PairKey(userA, userB)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.chats {
		if c.PairKey == key {
			found := c
			return &found, nil
		}
	}
	now := s.tick()
	c := models.Chat{ID: primitive.NewObjectID(), PairKey: key, Participants: pair, CreatedAt: now, UpdatedAt: now}
	s.chats = append(s.chats, c)
	return &c, nil
}

func (s *Chats) FindByID(_ context.Context, id string) (*models.Chat, error) {
	oid, err := store.ParseID(id)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.chats {
		if c.ID == oid {
			found := c
			return &found, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Chats) ListForUser(_ context.Context, userID string) ([]models.Chat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Chat{}
	for _, c := range s.chats {
		if c.HasParticipant(userID) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (s *Chats) AddMessage(_ context.Context, msg *models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if msg.ID.IsZero() {
		msg.ID = primitive.NewObjectID()
	}
	msg.CreatedAt = s.tick()
	s.messages = append(s.messages, *msg)
	for i := range s.chats {
		if s.chats[i].ID == msg.ChatID {
			s.chats[i].UpdatedAt = msg.CreatedAt
		}
	}
	return nil
}

func (s *Chats) Messages(_ context.Context, chatID string) ([]models.Message, error) {
	oid, err := store.ParseID(chatID)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Message{}
	for _, m := range s.messages {
		if m.ChatID == oid {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

var (
	_ store.UserStore     = (*Users)(nil)
	_ store.PropertyStore = (*Properties)(nil)
	_ store.FavoriteStore = (*Favorites)(nil)
	_ store.ChatStore     = (*Chats)(nil)
)
