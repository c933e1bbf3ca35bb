// Command demo runs the game manager inside an ebiten window. Escape pauses,
// Enter starts the first level from the main menu, N loads the next scene and
// F9 writes a bug report.
package main

import (
	"flag"
	"log"

	"github.com/hajimehoshi/ebiten/v2"
)

func main() {
	envFile := flag.String("env", ".env", "optional dotenv file")
	scene := flag.String("scene", "", "scene to load instead of the main menu")
	flag.Parse()

	cfg, err := LoadConfig(*envFile)
	if err != nil {
		log.Fatal(err)
	}
	if *scene != "" {
		cfg.Scene = *scene
	}

	game, err := NewGame(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer game.Close()

	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSize(cfg.Width, cfg.Height)
	ebiten.SetWindowTitle("gamestate")
	ebiten.SetTPS(cfg.TPS)

	if err := ebiten.RunGame(game); err != nil {
		log.Fatal(err)
	}
}
