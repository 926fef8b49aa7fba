package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"spritecomp/internal/app"
	"spritecomp/internal/config"
	"spritecomp/internal/renderer"
	"spritecomp/internal/scene"
)

func main() {
	configPath := flag.String("config", "", "config file (.json, .toml, .yaml)")
	texture := flag.String("texture", "", "atlas texture path or http(s) URL; generated when empty")
	saveConfig := flag.String("save-config", "", "write the final config here on exit")
	flag.Parse()

	fmt.Println("Sprite Compositor - WebGPU")
	fmt.Println("Controls:")
	fmt.Println("  Escape : Exit")
	fmt.Println()

	if *configPath != "" {
		if err := config.Load(*configPath); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}
	cfg := config.Get()

	logger, err := cfg.NewLogger(os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	renderer.SetLogger(logger)

	if err := run(cfg, *texture); err != nil {
		logger.Error("demo failed", "err", err)
		os.Exit(1)
	}

	if *saveConfig != "" {
		if err := config.Save(*saveConfig); err != nil {
			logger.Error("saving config failed", "path", *saveConfig, "err", err)
			os.Exit(1)
		}
	}
}

func run(cfg *config.Config, texture string) error {
	application, err := app.New(cfg, renderer.Logger())
	if err != nil {
		return err
	}
	defer application.Cleanup()

	s, err := scene.New(application.Renderer(), texture)
	if err != nil {
		return err
	}
	defer s.Release()

	return application.Run(func(r *renderer.Renderer, dt time.Duration) error {
		s.Advance(dt)
		return s.Draw(r)
	})
}
