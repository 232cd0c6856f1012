package router

import (
	"net/http"

	"pokedex_module/config"
	"pokedex_module/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Store is everything the routes need from the record store.
type Store interface {
	middleware.PokemonStore
	middleware.Pinger
}

type Dependencies struct {
	Config *config.Config
	Store  Store
	Logger *zap.Logger
}

func setupCORS(origins []string) cors.Config {
	config := cors.DefaultConfig()
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		config.AllowAllOrigins = true
	} else {
		config.AllowOrigins = origins
	}
	config.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader}
	config.ExposeHeaders = []string{middleware.RequestIDHeader}
	return config
}

// Router is exported and used in main.go
func Router(deps Dependencies) *gin.Engine {
	cfg := deps.Config

	r := gin.New()
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.Metrics())
	r.Use(cors.New(setupCORS(cfg.Server.CORSOrigins)))

	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "Hello, World!")
	})
	r.Static(cfg.Assets.Prefix, cfg.Assets.Dir)

	h := middleware.NewPokemonHandler(deps.Store, deps.Logger, cfg.Pagination)
	r.GET("/pokemons", h.GetAllPokemons)
	r.GET("/pokemons/:id", h.GetPokemonByID)
	r.GET("/pokemons/name/:name", h.GetPokemonByName)
	r.POST("/pokemons", h.CreatePokemon)
	r.PUT("/pokemons/update/:id", h.UpdatePokemon)
	r.DELETE("/pokemons/:id", h.DeletePokemon)

	r.GET("/health", middleware.Health)
	r.GET("/ready", middleware.Ready(deps.Store, deps.Logger))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}
