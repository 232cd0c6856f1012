package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"

	"pokedex_module/config"
	"pokedex_module/database"
	"pokedex_module/models"
	"pokedex_module/query"
	"pokedex_module/responses"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// memoryStore mirrors the repository semantics over a slice.
type memoryStore struct {
	mu       sync.Mutex
	pokemons []models.Pokemon
	err      error
}

func (s *memoryStore) matching(c query.Criteria) []models.Pokemon {
	search := strings.ToLower(c.Search)
	var out []models.Pokemon
	for _, p := range s.pokemons {
		if c.HasType() && !contains(p.Type, c.Type) {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(p.Name.French), search) && !anyContains(p.Type, search) {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func anyContains(list []string, lowerSub string) bool {
	for _, item := range list {
		if strings.Contains(strings.ToLower(item), lowerSub) {
			return true
		}
	}
	return false
}

func (s *memoryStore) Count(_ context.Context, c query.Criteria) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return 0, s.err
	}
	return int64(len(s.matching(c))), nil
}

func (s *memoryStore) Find(_ context.Context, c query.Criteria, page query.Page) ([]models.Pokemon, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	all := s.matching(c)
	start := int(page.Skip())
	if start >= len(all) {
		return []models.Pokemon{}, nil
	}
	end := start + page.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], nil
}

func (s *memoryStore) index(id int) int {
	for i, p := range s.pokemons {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func (s *memoryStore) FindByID(_ context.Context, id int) (*models.Pokemon, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	i := s.index(id)
	if i < 0 {
		return nil, database.ErrNotFound
	}
	p := s.pokemons[i]
	return &p, nil
}

func (s *memoryStore) FindByName(_ context.Context, name string) (*models.Pokemon, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	for _, p := range s.pokemons {
		if p.Name.French == name {
			return &p, nil
		}
	}
	return nil, database.ErrNotFound
}

func (s *memoryStore) Create(_ context.Context, in models.PokemonInput) (*models.Pokemon, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	next := 1
	for _, p := range s.pokemons {
		if p.ID >= next {
			next = p.ID + 1
		}
	}
	p := in.Build(next)
	s.pokemons = append(s.pokemons, p)
	return &p, nil
}

func (s *memoryStore) Update(_ context.Context, id int, patch models.PokemonPatch) (*models.Pokemon, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	i := s.index(id)
	if i < 0 {
		return nil, database.ErrNotFound
	}
	p := &s.pokemons[i]
	for key, value := range patch.SetDocument() {
		switch key {
		case "name.french":
			p.Name.French = value.(string)
		case "name.english":
			p.Name.English = value.(string)
		case "type":
			p.Type = value.([]string)
		case "base.HP":
			p.Base.HP = value.(int)
		case "base.Attack":
			p.Base.Attack = value.(int)
		case "image":
			p.Image = value.(string)
		}
	}
	out := *p
	return &out, nil
}

func (s *memoryStore) Delete(_ context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	i := s.index(id)
	if i < 0 {
		return database.ErrNotFound
	}
	s.pokemons = append(s.pokemons[:i], s.pokemons[i+1:]...)
	return nil
}

func seededStore() *memoryStore {
	names := []string{"Bulbizarre", "Herbizarre", "Florizarre", "Salamèche", "Reptincel"}
	types := [][]string{{"Grass", "Poison"}, {"Grass", "Poison"}, {"Grass", "Poison"}, {"Fire"}, {"Fire"}}

	s := &memoryStore{}
	for i, name := range names {
		p := models.PokemonInput{Name: models.NameInput{French: name}, Type: types[i]}.Build(i + 1)
		s.pokemons = append(s.pokemons, p)
	}
	return s
}

func newTestEngine(store PokemonStore) *gin.Engine {
	gin.SetMode(gin.TestMode)

	h := NewPokemonHandler(store, zap.NewNop(), config.PaginationConfig{DefaultLimit: 20, MaxLimit: 100})
	r := gin.New()
	r.Use(RequestID(), Recovery(zap.NewNop()))
	r.GET("/pokemons", h.GetAllPokemons)
	r.GET("/pokemons/:id", h.GetPokemonByID)
	r.GET("/pokemons/name/:name", h.GetPokemonByName)
	r.POST("/pokemons", h.CreatePokemon)
	r.PUT("/pokemons/update/:id", h.UpdatePokemon)
	r.DELETE("/pokemons/:id", h.DeletePokemon)
	return r
}

func do(r http.Handler, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func ids(pokemons []models.Pokemon) []int {
	out := make([]int, 0, len(pokemons))
	for _, p := range pokemons {
		out = append(out, p.ID)
	}
	return out
}

func TestGetAllPokemons_Pagination(t *testing.T) {
	r := newTestEngine(seededStore())

	w := do(r, http.MethodGet, "/pokemons?page=2&limit=2", "")
	require.Equal(t, http.StatusOK, w.Code)

	page := decode[responses.PokemonsPage](t, w)
	assert.Equal(t, []int{3, 4}, ids(page.Pokemons))
	assert.Equal(t, int64(5), page.Total)
	assert.Equal(t, int64(3), page.TotalPages)
	assert.Equal(t, 2, page.CurrentPage)
}

func TestGetAllPokemons_Defaults(t *testing.T) {
	r := newTestEngine(seededStore())

	w := do(r, http.MethodGet, "/pokemons?page=abc&limit=-1", "")
	require.Equal(t, http.StatusOK, w.Code)

	page := decode[responses.PokemonsPage](t, w)
	assert.Len(t, page.Pokemons, 5)
	assert.Equal(t, 1, page.CurrentPage)
	assert.Equal(t, int64(1), page.TotalPages)
}

func TestGetAllPokemons_Filters(t *testing.T) {
	tests := []struct {
		name  string
		url   string
		ids   []int
		total int64
	}{
		{name: "search ignores case", url: "/pokemons?search=SALA", ids: []int{4}, total: 1},
		{name: "search matches type", url: "/pokemons?search=fire", ids: []int{4, 5}, total: 2},
		{name: "type filter", url: "/pokemons?type=Grass", ids: []int{1, 2, 3}, total: 3},
		{name: "type All is ignored", url: "/pokemons?type=All", ids: []int{1, 2, 3, 4, 5}, total: 5},
		{name: "search and type combined", url: "/pokemons?search=herbi&type=Grass", ids: []int{2}, total: 1},
		{name: "no match", url: "/pokemons?search=zzz", ids: []int{}, total: 0},
	}

	r := newTestEngine(seededStore())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(r, http.MethodGet, tt.url, "")
			require.Equal(t, http.StatusOK, w.Code)

			page := decode[responses.PokemonsPage](t, w)
			assert.Equal(t, tt.ids, ids(page.Pokemons))
			assert.Equal(t, tt.total, page.Total)
		})
	}
}

func TestGetAllPokemons_PagePastTheEnd(t *testing.T) {
	r := newTestEngine(seededStore())

	for _, target := range []string{"/pokemons?page=4&limit=2", "/pokemons?page=9223372036854775807"} {
		w := do(r, http.MethodGet, target, "")
		require.Equal(t, http.StatusOK, w.Code, target)
		assert.Contains(t, w.Body.String(), `"pokemons":[]`, target)

		page := decode[responses.PokemonsPage](t, w)
		assert.Equal(t, int64(5), page.Total)
	}
}

func TestGetAllPokemons_EmptyListIsArray(t *testing.T) {
	r := newTestEngine(&memoryStore{})

	w := do(r, http.MethodGet, "/pokemons", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"pokemons":[]`)
	assert.Contains(t, w.Body.String(), `"totalPages":0`)
}

func TestGetAllPokemons_StoreFailure(t *testing.T) {
	r := newTestEngine(&memoryStore{err: errors.New("connection reset")})

	w := do(r, http.MethodGet, "/pokemons", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Failed to fetch pokemons"}`, w.Body.String())
}

func TestGetPokemonByID(t *testing.T) {
	r := newTestEngine(seededStore())

	w := do(r, http.MethodGet, "/pokemons/4", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Salamèche", decode[models.Pokemon](t, w).Name.French)

	for _, target := range []string{"/pokemons/99", "/pokemons/abc"} {
		w = do(r, http.MethodGet, target, "")
		assert.Equal(t, http.StatusNotFound, w.Code, target)
		assert.JSONEq(t, `{"error":"Pokemon not found"}`, w.Body.String())
	}
}

func TestGetPokemonByID_StoreFailure(t *testing.T) {
	r := newTestEngine(&memoryStore{err: errors.New("timeout")})

	w := do(r, http.MethodGet, "/pokemons/1", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Failed to fetch pokemon"}`, w.Body.String())
}

func TestGetPokemonByName(t *testing.T) {
	r := newTestEngine(seededStore())

	w := do(r, http.MethodGet, "/pokemons/name/Reptincel", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 5, decode[models.Pokemon](t, w).ID)

	w = do(r, http.MethodGet, "/pokemons/name/reptincel", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetPokemonByName_StoreFailure(t *testing.T) {
	r := newTestEngine(&memoryStore{err: errors.New("timeout")})

	w := do(r, http.MethodGet, "/pokemons/name/Reptincel", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Failed to fetch pokemon"}`, w.Body.String())
}

func TestCreatePokemon(t *testing.T) {
	store := seededStore()
	r := newTestEngine(store)

	w := do(r, http.MethodPost, "/pokemons", `{"name":{"french":"Testmon"},"base":{"HP":10}}`)
	require.Equal(t, http.StatusCreated, w.Code)

	created := decode[models.Pokemon](t, w)
	assert.Equal(t, 6, created.ID)
	assert.Equal(t, "Testmon", created.Name.French)
	assert.Equal(t, "Testmon", created.Name.English)
	assert.Equal(t, 10, created.Base.HP)
	assert.Equal(t, 50, created.Base.Attack)
	assert.Equal(t, []string{"Normal"}, created.Type)
	assert.Equal(t, models.DefaultImage, created.Image)

	w = do(r, http.MethodGet, "/pokemons/6", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCreatePokemon_EmptyBody(t *testing.T) {
	r := newTestEngine(&memoryStore{})

	w := do(r, http.MethodPost, "/pokemons", "")
	require.Equal(t, http.StatusCreated, w.Code)

	created := decode[models.Pokemon](t, w)
	assert.Equal(t, 1, created.ID)
	assert.Equal(t, models.DefaultFrenchName, created.Name.French)
	assert.Equal(t, models.Base{HP: 50, Attack: 50, Defense: 50, SpecialAttack: 50, SpecialDefense: 50, Speed: 50}, created.Base)
}

func TestCreatePokemon_MalformedBody(t *testing.T) {
	store := seededStore()
	r := newTestEngine(store)

	w := do(r, http.MethodPost, "/pokemons", `{"name":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Len(t, store.pokemons, 5)
}

func TestCreatePokemon_StoreFailureIsEchoed(t *testing.T) {
	r := newTestEngine(&memoryStore{err: errors.New("E11000 duplicate key error")})

	w := do(r, http.MethodPost, "/pokemons", `{}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"E11000 duplicate key error"}`, w.Body.String())
}

func TestUpdatePokemon(t *testing.T) {
	store := seededStore()
	r := newTestEngine(store)

	w := do(r, http.MethodPut, "/pokemons/update/4", `{"name":{"french":"Salameche"},"base":{"HP":39},"id":42}`)
	require.Equal(t, http.StatusOK, w.Code)

	updated := decode[models.Pokemon](t, w)
	assert.Equal(t, 4, updated.ID)
	assert.Equal(t, "Salameche", updated.Name.French)
	assert.Equal(t, "Salamèche", updated.Name.English)
	assert.Equal(t, 39, updated.Base.HP)
	assert.Equal(t, 50, updated.Base.Attack)
	assert.Equal(t, []string{"Fire"}, updated.Type)
}

func TestUpdatePokemon_UnknownIDIsNotCreated(t *testing.T) {
	store := seededStore()
	r := newTestEngine(store)

	w := do(r, http.MethodPut, "/pokemons/update/404", `{"name":{"french":"Ghost"}}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"Pokemon not found"}`, w.Body.String())
	assert.Len(t, store.pokemons, 5)

	w = do(r, http.MethodGet, "/pokemons/name/Ghost", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdatePokemon_Failures(t *testing.T) {
	r := newTestEngine(seededStore())
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPut, "/pokemons/update/1", `not json`).Code)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodPut, "/pokemons/update/one", `{}`).Code)

	r = newTestEngine(&memoryStore{err: errors.New("boom")})
	w := do(r, http.MethodPut, "/pokemons/update/1", `{"image":"x.png"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Failed to update pokemon"}`, w.Body.String())
}

func TestDeletePokemon(t *testing.T) {
	r := newTestEngine(seededStore())

	w := do(r, http.MethodDelete, "/pokemons/2", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Pokemon deleted successfully"}`, w.Body.String())

	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/pokemons/2", "").Code)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodDelete, "/pokemons/2", "").Code)
}

func TestDeletePokemon_StoreFailure(t *testing.T) {
	r := newTestEngine(&memoryStore{err: errors.New("boom")})

	w := do(r, http.MethodDelete, "/pokemons/2", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Failed to delete pokemon"}`, w.Body.String())
}
