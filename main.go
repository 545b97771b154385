package main

import (
	"context"
	"embed"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/logger"
	"github.com/wailsapp/wails/v2/pkg/menu"
	"github.com/wailsapp/wails/v2/pkg/menu/keys"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"
	"github.com/wailsapp/wails/v2/pkg/options/linux"
	"github.com/wailsapp/wails/v2/pkg/options/mac"
	"github.com/wailsapp/wails/v2/pkg/options/windows"
	wruntime "github.com/wailsapp/wails/v2/pkg/runtime"
	"go.uber.org/zap"

	"github.com/MJE43/mindful-arcade/bindings"
	"github.com/MJE43/mindful-arcade/internal/auth"
	"github.com/MJE43/mindful-arcade/internal/config"
	"github.com/MJE43/mindful-arcade/internal/logging"
)

//go:embed all:frontend/dist
var assets embed.FS

const repoURL = "https://github.com/MJE43/mindful-arcade"

var (
	appCtx   context.Context
	appCtxMu sync.RWMutex
)

// buildWindowsOptions configures Windows-specific application settings
func buildWindowsOptions(log *zap.Logger) *windows.Options {
	return &windows.Options{
		BackdropType: windows.Mica,
		Theme:        windows.SystemDefault,
		CustomTheme: &windows.ThemeSettings{
			DarkModeTitleBar:   windows.RGB(20, 29, 43),
			DarkModeTitleText:  windows.RGB(242, 242, 242),
			DarkModeBorder:     windows.RGB(42, 56, 80),
			LightModeTitleBar:  windows.RGB(244, 245, 246),
			LightModeTitleText: windows.RGB(16, 31, 56),
			LightModeBorder:    windows.RGB(220, 224, 229),
		},
		ZoomFactor:      1.0,
		WindowClassName: "MindfulArcadeWindow",
		OnSuspend: func() {
			log.Info("windows entering low power mode")
		},
		OnResume: func() {
			log.Info("windows resuming from low power mode")
		},
	}
}

// buildMacOptions configures macOS-specific application settings
func buildMacOptions() *mac.Options {
	return &mac.Options{
		TitleBar: &mac.TitleBar{
			HideToolbarSeparator: true,
		},
		About: &mac.AboutInfo{
			Title:   "Mindful Arcade",
			Message: "Short timed mini-games for focus, memory, reflexes and breathing.\n\nAll scores stay on this machine.",
		},
	}
}

// buildLinuxOptions configures Linux-specific application settings
func buildLinuxOptions() *linux.Options {
	return &linux.Options{
		WebviewGpuPolicy: linux.WebviewGpuPolicyOnDemand,
		ProgramName:      "mindful-arcade",
	}
}

func main() {
	cfg, err := config.Load(config.DefaultPath())
	if err != nil {
		panic(err)
	}
	log, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		panic(err)
	}
	defer log.Sync()
	log.Info("starting Mindful Arcade", zap.String("go", runtime.Version()))

	token := cfg.APIToken
	if token == "" {
		tokens := auth.NewTokenStore(auth.DefaultService, filepath.Join(config.AppDataDir(), auth.FallbackFile))
		if token, _, err = tokens.Ensure(); err != nil {
			log.Warn("api token unavailable; local API runs without auth", zap.Error(err))
		}
	}

	arcadeMod := bindings.NewArcadeModule(cfg, token, log)

	startup := func(ctx context.Context) {
		setAppContext(ctx)
		if err := arcadeMod.Startup(ctx); err != nil {
			log.Error("arcade failed to start", zap.Error(err))
			return
		}
		info := arcadeMod.GetAPIInfo()
		log.Info("local api ready", zap.String("url", info.URL), zap.Bool("token_enabled", info.TokenEnabled))
	}

	beforeClose := func(ctx context.Context) (prevent bool) {
		if err := arcadeMod.Shutdown(ctx); err != nil {
			log.Warn("arcade shutdown", zap.Error(err))
		}
		setAppContext(nil)
		return false
	}

	if err := wails.Run(&options.App{
		Title:            "Mindful Arcade",
		Width:            1100,
		Height:           760,
		MinWidth:         800,
		MinHeight:        600,
		WindowStartState: options.Normal,
		BackgroundColour: &options.RGBA{R: 20, G: 29, B: 43, A: 255},

		AssetServer: &assetserver.Options{
			Assets: assets,
		},

		OnStartup:     startup,
		OnBeforeClose: beforeClose,
		OnShutdown: func(ctx context.Context) {
			log.Info("application shutdown complete")
		},

		Menu: buildAppMenu(),
		Bind: []interface{}{arcadeMod},

		LogLevel:           logger.INFO,
		LogLevelProduction: logger.ERROR,

		EnableDefaultContextMenu: false,
		ErrorFormatter: func(err error) any {
			if err == nil {
				return nil
			}
			return err.Error()
		},

		SingleInstanceLock: &options.SingleInstanceLock{
			UniqueId: "5b1f0c2e-7d3a-4e8b-9c61-mindful-arcade",
			OnSecondInstanceLaunch: func(data options.SecondInstanceData) {
				log.Info("second instance launch prevented", zap.Strings("args", data.Args))
			},
		},

		DragAndDrop: &options.DragAndDrop{
			DisableWebViewDrop: true,
		},

		Windows: buildWindowsOptions(log),
		Mac:     buildMacOptions(),
		Linux:   buildLinuxOptions(),
	}); err != nil {
		log.Error("wails run", zap.Error(err))
		os.Exit(1)
	}
}

func buildAppMenu() *menu.Menu {
	rootMenu := menu.NewMenu()

	if runtime.GOOS == "darwin" {
		if appMenu := menu.AppMenu(); appMenu != nil {
			rootMenu.Append(appMenu)
		}
	}

	fileMenu := menu.NewMenu()
	fileMenu.AddText("Open Data Directory", keys.CmdOrCtrl("o"), func(_ *menu.CallbackData) {
		withAppContext(func(ctx context.Context) {
			wruntime.BrowserOpenURL(ctx, fileURI(config.AppDataDir()))
		})
	})
	fileMenu.AddSeparator()
	fileMenu.AddText("Quit", keys.CmdOrCtrl("q"), func(_ *menu.CallbackData) {
		withAppContext(wruntime.Quit)
	})
	rootMenu.Append(menu.SubMenu("File", fileMenu))

	viewMenu := menu.NewMenu()
	viewMenu.AddText("Reload Frontend", keys.CmdOrCtrl("r"), func(_ *menu.CallbackData) {
		withAppContext(wruntime.WindowReloadApp)
	})
	viewMenu.AddText("Toggle Fullscreen", keys.Combo("f", keys.CmdOrCtrlKey, keys.ShiftKey), func(_ *menu.CallbackData) {
		withAppContext(toggleFullscreen)
	})
	rootMenu.Append(menu.SubMenu("View", viewMenu))

	helpMenu := menu.NewMenu()
	helpMenu.AddText("Project Repository", nil, func(_ *menu.CallbackData) {
		withAppContext(func(ctx context.Context) {
			wruntime.BrowserOpenURL(ctx, repoURL)
		})
	})
	rootMenu.Append(menu.SubMenu("Help", helpMenu))

	return rootMenu
}

func fileURI(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	clean := filepath.ToSlash(abs)
	if runtime.GOOS == "windows" && len(clean) > 0 && clean[0] != '/' {
		clean = "/" + clean
	}
	u := url.URL{Scheme: "file", Path: clean}
	return u.String()
}

func toggleFullscreen(ctx context.Context) {
	if wruntime.WindowIsFullscreen(ctx) {
		wruntime.WindowUnfullscreen(ctx)
		return
	}
	wruntime.WindowFullscreen(ctx)
}

func setAppContext(ctx context.Context) {
	appCtxMu.Lock()
	defer appCtxMu.Unlock()
	appCtx = ctx
}

func withAppContext(action func(context.Context)) {
	appCtxMu.RLock()
	ctx := appCtx
	appCtxMu.RUnlock()
	if ctx == nil {
		return
	}
	action(ctx)
}
