package main

import (
	"flag"

	"image-upscaler/internal/app"
	"image-upscaler/internal/models"
	"image-upscaler/internal/shutdown"
	"image-upscaler/internal/web"
)

func runServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", "", "path to a config.toml")
	addr := fs.String("addr", "", "listen address (overrides [server] addr)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg := app.LoadConfig(*configPath)
	log := app.NewLogger(cfg)

	mgr := shutdown.NewManager(log)
	mgr.Listen()

	application, err := app.New(mgr.Context(), cfg, log)
	if err != nil {
		return err
	}
	application.RegisterShutdown(mgr)

	serverCfg := cfg.GetServerConfig()
	if *addr != "" {
		serverCfg.Addr = *addr
	}
	upscaleCfg := cfg.GetUpscaleConfig()
	defaults := application.DefaultRequest()

	server, err := web.NewServer(application.Processing, application.Loader, web.Options{
		Addr:           serverCfg.Addr,
		MaxUploadBytes: int64(serverCfg.MaxUploadMB) << 20,
		MinScale:       models.ScaleFactor(upscaleCfg.MinScale),
		MaxScale:       models.ScaleFactor(upscaleCfg.MaxScale),
		DefaultScale:   defaults.Scale,
		DefaultTier:    defaults.Tier,
		DefaultFormat:  defaults.Output.Format,
		DefaultQuality: defaults.Output.Quality,
		Prefix:         defaults.Prefix,
		Enhance:        defaults.Enhance,
		Settings:       defaults.Settings,
		Backend:        defaults.Options,
	}, log)
	if err != nil {
		mgr.Shutdown()
		return err
	}
	mgr.Register("http server", server)

	err = server.ListenAndServe()
	mgr.Shutdown()
	return err
}
