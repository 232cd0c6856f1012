package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"pokedex_module/config"
	"pokedex_module/database"
	"pokedex_module/models"
	"pokedex_module/query"
	"pokedex_module/responses"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// PokemonStore is the record store seen by the handlers.
// database.PokemonRepository implements it.
type PokemonStore interface {
	Count(ctx context.Context, c query.Criteria) (int64, error)
	Find(ctx context.Context, c query.Criteria, page query.Page) ([]models.Pokemon, error)
	FindByID(ctx context.Context, id int) (*models.Pokemon, error)
	FindByName(ctx context.Context, name string) (*models.Pokemon, error)
	Create(ctx context.Context, in models.PokemonInput) (*models.Pokemon, error)
	Update(ctx context.Context, id int, patch models.PokemonPatch) (*models.Pokemon, error)
	Delete(ctx context.Context, id int) error
}

type PokemonHandler struct {
	store      PokemonStore
	logger     *zap.Logger
	pagination config.PaginationConfig
}

func NewPokemonHandler(store PokemonStore, logger *zap.Logger, pagination config.PaginationConfig) *PokemonHandler {
	return &PokemonHandler{store: store, logger: logger, pagination: pagination}
}

// GetAllPokemons serves GET /pokemons?page=&limit=&search=&type=
func (h *PokemonHandler) GetAllPokemons(c *gin.Context) {
	criteria := query.NewCriteria(c.Query("search"), c.Query("type"))
	page := query.ParsePage(c.Query("page"), c.Query("limit"), h.pagination.DefaultLimit, h.pagination.MaxLimit)
	ctx := c.Request.Context()

	total, err := h.store.Count(ctx, criteria)
	if err != nil {
		h.storeFailure(c, "count", err, http.StatusInternalServerError, responses.MsgFetchPokemonsFail)
		return
	}

	pokemons := []models.Pokemon{}
	// Pages past the end are answered without asking the store for them.
	if page.Skip() < total {
		pokemons, err = h.store.Find(ctx, criteria, page)
		if err != nil {
			h.storeFailure(c, "find", err, http.StatusInternalServerError, responses.MsgFetchPokemonsFail)
			return
		}
		if pokemons == nil {
			pokemons = []models.Pokemon{}
		}
	}

	c.JSON(http.StatusOK, responses.PokemonsPage{
		Pokemons:    pokemons,
		Total:       total,
		TotalPages:  page.TotalPages(total),
		CurrentPage: page.Number,
	})
}

func (h *PokemonHandler) GetPokemonByID(c *gin.Context) {
	id, ok := pokemonID(c)
	if !ok {
		return
	}

	pokemon, err := h.store.FindByID(c.Request.Context(), id)
	if err != nil {
		h.lookupFailure(c, "find_by_id", err, responses.MsgFetchPokemonFail)
		return
	}
	c.JSON(http.StatusOK, pokemon)
}

// GetPokemonByName matches the french name exactly.
func (h *PokemonHandler) GetPokemonByName(c *gin.Context) {
	pokemon, err := h.store.FindByName(c.Request.Context(), c.Param("name"))
	if err != nil {
		h.lookupFailure(c, "find_by_name", err, responses.MsgFetchPokemonFail)
		return
	}
	c.JSON(http.StatusOK, pokemon)
}

// CreatePokemon assigns the next id and fills every missing field with its default.
func (h *PokemonHandler) CreatePokemon(c *gin.Context) {
	var in models.PokemonInput
	if !decodeBody(c, &in) {
		return
	}

	pokemon, err := h.store.Create(c.Request.Context(), in)
	if err != nil {
		h.storeFailure(c, "create", err, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusCreated, pokemon)
}

// UpdatePokemon writes only the fields present in the body. Unknown ids are
// never created.
func (h *PokemonHandler) UpdatePokemon(c *gin.Context) {
	id, ok := pokemonID(c)
	if !ok {
		return
	}

	var patch models.PokemonPatch
	if !decodeBody(c, &patch) {
		return
	}

	pokemon, err := h.store.Update(c.Request.Context(), id, patch)
	if err != nil {
		h.lookupFailure(c, "update", err, responses.MsgUpdateFail)
		return
	}
	c.JSON(http.StatusOK, pokemon)
}

func (h *PokemonHandler) DeletePokemon(c *gin.Context) {
	id, ok := pokemonID(c)
	if !ok {
		return
	}

	if err := h.store.Delete(c.Request.Context(), id); err != nil {
		h.lookupFailure(c, "delete", err, responses.MsgDeleteFail)
		return
	}
	c.JSON(http.StatusOK, responses.Message(responses.MsgPokemonDeleted))
}

// pokemonID parses :id. A value that is not an integer can never match a
// stored id, so it is answered like a missing pokemon.
func pokemonID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, responses.Error(responses.MsgPokemonNotFound))
		return 0, false
	}
	return id, true
}

// decodeBody unmarshals a JSON body into v. An empty body leaves v untouched.
func decodeBody(c *gin.Context, v any) bool {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, responses.Error(responses.MsgInvalidBody))
		return false
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return true
	}
	if err := json.Unmarshal(body, v); err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusBadRequest, responses.Error(responses.MsgInvalidBody+": "+err.Error()))
		return false
	}
	return true
}

func (h *PokemonHandler) lookupFailure(c *gin.Context, operation string, err error, msg string) {
	if errors.Is(err, database.ErrNotFound) {
		c.JSON(http.StatusNotFound, responses.Error(responses.MsgPokemonNotFound))
		return
	}
	h.storeFailure(c, operation, err, http.StatusInternalServerError, msg)
}

func (h *PokemonHandler) storeFailure(c *gin.Context, operation string, err error, status int, msg string) {
	storeErrors.WithLabelValues(operation).Inc()
	h.logger.Error("store operation failed",
		zap.String("operation", operation),
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.String("request_id", GetRequestID(c)),
		zap.Error(err),
	)
	_ = c.Error(err)
	c.JSON(status, responses.Error(msg))
}
