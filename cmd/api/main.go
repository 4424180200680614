package main

import (
	"chiban-geocoder/internal/addressindex"
	"chiban-geocoder/internal/config"
	"chiban-geocoder/internal/handler"
	"chiban-geocoder/internal/service"

	_ "chiban-geocoder/docs"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

//	@title			Chiban Geocoder API
//	@version		1.0
//	@description	Resolves Japanese land registry parcel notations to cadastral parcel codes.
//	@BasePath		/
func main() {
	cfg, err := config.LoadConfig("./configs")
	if err != nil {
		log.Fatal().Err(err).Msg("cannot load config")
	}
	config.SetupLogger(cfg.LogLevel)

	azaSkip, err := addressindex.ParseAzaSkip(cfg.AzaSkip)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid AZA_SKIP")
	}

	index, err := addressindex.LoadDir(cfg.DictionaryDir)
	if err != nil {
		log.Fatal().Err(err).Str("dir", cfg.DictionaryDir).Msg("cannot load address dictionary")
	}
	log.Info().Int("nodes", index.Len()).Msg("address index loaded")

	// Initialize layers
	parcelService := service.NewParcelService(index, azaSkip, log.Logger)
	parcelHandler := handler.NewParcelHandler(parcelService)

	gin.SetMode(gin.ReleaseMode)
	r := handler.NewRouter(parcelHandler)

	if err := r.Run(cfg.ServerAddress); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
