package responses

import (
	"pokedex_module/models"
)

// For list page
type PokemonsPage struct {
	Pokemons    []models.Pokemon `json:"pokemons"`
	Total       int64            `json:"total"`
	TotalPages  int64            `json:"totalPages"`
	CurrentPage int              `json:"currentPage"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type HealthResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

const (
	MsgPokemonNotFound   = "Pokemon not found"
	MsgPokemonDeleted    = "Pokemon deleted successfully"
	MsgFetchPokemonsFail = "Failed to fetch pokemons"
	MsgFetchPokemonFail  = "Failed to fetch pokemon"
	MsgUpdateFail        = "Failed to update pokemon"
	MsgDeleteFail        = "Failed to delete pokemon"
	MsgInvalidBody       = "Invalid JSON body"
	MsgInternal          = "Internal server error"
)

func Error(msg string) ErrorResponse {
	return ErrorResponse{Error: msg}
}

func Message(msg string) MessageResponse {
	return MessageResponse{Message: msg}
}
