package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/linkvault/linkvault/pkg/api"
	"github.com/linkvault/linkvault/pkg/config"
	"github.com/linkvault/linkvault/pkg/share"
	"github.com/linkvault/linkvault/pkg/storage"
	"github.com/linkvault/linkvault/pkg/workers"
)

func setupLogs(logConfig config.Logging) {
	// Equivalent of Lshortfile
	zerolog.CallerMarshalFunc = func(pc uintptr, file string, line int) string {
		short := file
		for i := len(file) - 1; i > 0; i-- {
			if file[i] == '/' {
				short = file[i+1:]
				break
			}
		}
		file = short
		return file + ":" + strconv.Itoa(line)
	}

	zerolog.SetGlobalLevel(logConfig.ToLevel())

	if logConfig.Pretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}).With().Caller().Logger()
	} else {
		log.Logger = log.With().Caller().Logger()
	}
}

func main() {
	configFile := "config.toml"
	if len(os.Args) > 1 {
		configFile = os.Args[1]
	}

	conf, err := config.Load(configFile)
	if err != nil {
		log.Fatal().Err(err).Str("path", configFile).Msg("Unable to load config file")
	}

	setupLogs(conf.Logging)

	log.Debug().Msg("Starting LinkVault")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	services, err := storage.New(conf)
	if err != nil {
		log.Fatal().Err(err).Msg("Unable to set up storage services")
	}

	engine := share.NewEngine(services, conf.Shares)

	var wg sync.WaitGroup

	if conf.API.Enabled {
		wg.Add(1)
		go func() {
			defer wg.Done()

			apiFunctions := api.NewLinkVaultAPI(conf.API, engine)
			mux := api.CreateMux(apiFunctions)
			api.RunAPI(ctx, conf.API, mux)
		}()
	}

	if conf.Sweeper.Enabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			workers.RunSweeper(ctx, conf.Sweeper, engine)
		}()
	}

	wg.Wait()
	log.Debug().Msg("Done")
}
