package main

import (
	"flag"
	"fmt"
	"image/png"
	"os"

	"github.com/pkg/errors"

	"spritecomp/internal/assetcache"
	"spritecomp/internal/config"
	"spritecomp/internal/gpu"
	"spritecomp/internal/imageio"
	"spritecomp/internal/renderer"
	"spritecomp/internal/scene"
	"spritecomp/pkg/coords"
)

func main() {
	configPath := flag.String("config", "", "config file (.json, .toml, .yaml)")
	out := flag.String("o", "frame.png", "output PNG")
	size := flag.String("size", "", "frame size as WIDTHxHEIGHT; defaults to the configured window size")
	texture := flag.String("texture", "", "atlas texture path or http(s) URL; generated when empty")
	flag.Parse()

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

	dims := coords.Dims(uint32(cfg.Window.Width), uint32(cfg.Window.Height))
	if *size != "" {
		if dims, err = parseSize(*size); err != nil {
			logger.Error("bad -size", "err", err)
			os.Exit(2)
		}
	}

	if err := snapshot(cfg, dims, *texture, *out); err != nil {
		logger.Error("snapshot failed", "err", err)
		os.Exit(1)
	}
	logger.Info("wrote frame", "path", *out, "size", dims.String())
}

func parseSize(s string) (coords.PixelDimensions, error) {
	var w, h uint32
	if _, err := fmt.Sscanf(s, "%dx%d", &w, &h); err != nil {
		return coords.PixelDimensions{}, errors.Wrapf(err, "parse %q", s)
	}
	d := coords.Dims(w, h)
	if !d.Valid() {
		return d, errors.Errorf("size %q must be non-zero", s)
	}
	return d, nil
}

func snapshot(cfg *config.Config, dims coords.PixelDimensions, texture, out string) error {
	backend, err := gpu.Acquire(gpu.Options{
		Backend:         cfg.GPU.Backend,
		PowerPreference: cfg.GPU.PowerPreference,
		Label:           "SpriteSnapDevice",
		Logger:          renderer.Logger(),
	}, nil)
	if err != nil {
		return err
	}
	defer backend.Release()

	var opts renderer.Options
	if len(cfg.Assets.Dirs) > 0 {
		overlay, err := imageio.NewOverlay(cfg.Assets.Dirs...)
		if err != nil {
			return err
		}
		opts.Loader = imageio.NewLoader(overlay, cfg.Assets.TexturePath)
	}
	if assetcache.IsRemote(texture) {
		cache, err := assetcache.New(cfg.Assets.CacheDir, 0, renderer.Logger())
		if err != nil {
			return err
		}
		defer cache.Close()
		opts.Assets = cache
	}

	r, err := renderer.NewOffscreen(backend, dims, opts)
	if err != nil {
		return err
	}
	defer r.Release()

	s, err := scene.New(r, texture)
	if err != nil {
		return err
	}
	defer s.Release()

	if err := s.Draw(r); err != nil {
		return err
	}
	img, err := r.SwapSurface().ReadPixels()
	if err != nil {
		return err
	}

	f, err := os.Create(out)
	if err != nil {
		return errors.Wrap(err, "create output")
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return errors.Wrap(err, "encode png")
	}
	return f.Close()
}
