package main

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is read from the environment, after an optional dotenv file.
type Config struct {
	Width      int    `env:"GAMESTATE_WIDTH" envDefault:"1280"`
	Height     int    `env:"GAMESTATE_HEIGHT" envDefault:"720"`
	TPS        int    `env:"GAMESTATE_TPS" envDefault:"60"`
	Machine    string `env:"GAMESTATE_MACHINE" envDefault:"game_manager.yaml"`
	Scenes     string `env:"GAMESTATE_SCENES" envDefault:"scenes.yaml"`
	Debug      string `env:"GAMESTATE_DEBUG" envDefault:"debug.yaml"`
	Scene      string `env:"GAMESTATE_SCENE"`
	Watch      bool   `env:"GAMESTATE_WATCH" envDefault:"true"`
	FadeFrames int    `env:"GAMESTATE_FADE_FRAMES" envDefault:"30"`
}

func LoadConfig(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.TPS <= 0 {
		cfg.TPS = 60
	}
	if cfg.FadeFrames < 0 {
		cfg.FadeFrames = 0
	}
	return cfg, nil
}
