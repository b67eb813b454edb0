package main

import (
	"os"

	"reservo/config"
	"reservo/helper"
	"reservo/shared/logger"

	"github.com/rs/zerolog/log"
)

const usage = "usage: migrate up|down|step-up|drop|version|force <version>"

func main() {
	if len(os.Args) < 2 {
		log.Fatal().Msg(usage)
	}

	cfg := config.Get()

	logger.Setup(cfg)

	if err := helper.Runner(cfg, os.Args[1], os.Args[2:]...); err != nil {
		log.Fatal().Err(err).Str("action", os.Args[1]).Msg(usage)
	}
}
