package browser

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"

	"github.com/3-lines-studio/lander/internal/core"
)

const DefaultRootSelector = "#lp-preview"

var ErrNoPreviewURL = errors.New("no preview url configured")

const collectStylesJS = `() => Array.from(document.styleSheets).map((sheet) => {
  try {
    return Array.from(sheet.cssRules).map((rule) => rule.cssText).join("\n");
  } catch (e) {
    return "";
  }
}).filter(Boolean).join("\n")`

type Config struct {
	PreviewURL   string
	RemoteURL    string
	RootSelector string
	Logger       *zap.Logger
}

// Surface snapshots the editor preview with a headless Chrome driven by
// rod. The browser is started lazily and reused across snapshots.
type Surface struct {
	cfg     Config
	mu      sync.Mutex
	browser *rod.Browser
	lnch    *launcher.Launcher
}

func New(cfg Config) *Surface {
	if cfg.RootSelector == "" {
		cfg.RootSelector = DefaultRootSelector
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Surface{cfg: cfg}
}

func (s *Surface) Snapshot(ctx context.Context, hints core.UIHints) (core.RenderedPage, error) {
	previewURL := hints.PreviewURL
	if previewURL == "" {
		previewURL = s.cfg.PreviewURL
	}
	if previewURL == "" {
		return core.RenderedPage{}, ErrNoPreviewURL
	}

	b, err := s.connect()
	if err != nil {
		return core.RenderedPage{}, err
	}

	page, err := b.Page(proto.TargetCreateTarget{URL: ""})
	if err != nil {
		return core.RenderedPage{}, fmt.Errorf("browser: create tab: %w", err)
	}
	defer func() { _ = page.Close() }()

	p := page.Context(ctx)

	if w, h, ok := parseViewport(hints.Viewport); ok {
		if err := p.SetViewport(&proto.EmulationSetDeviceMetricsOverride{Width: w, Height: h, DeviceScaleFactor: 1}); err != nil {
			s.cfg.Logger.Warn("browser: set viewport failed", zap.Error(err))
		}
	}

	if err := p.Navigate(previewURL); err != nil {
		return core.RenderedPage{}, fmt.Errorf("browser: navigate %s: %w", previewURL, err)
	}
	if err := p.WaitLoad(); err != nil {
		return core.RenderedPage{}, fmt.Errorf("browser: wait load: %w", err)
	}

	root, err := p.Element(s.cfg.RootSelector)
	if err != nil {
		return core.RenderedPage{}, fmt.Errorf("browser: preview root %s: %w", s.cfg.RootSelector, err)
	}
	markup, err := root.HTML()
	if err != nil {
		return core.RenderedPage{}, fmt.Errorf("browser: read preview markup: %w", err)
	}

	css := ""
	if res, err := p.Eval(collectStylesJS); err != nil {
		s.cfg.Logger.Warn("browser: collect stylesheets failed", zap.Error(err))
	} else {
		css = res.Value.Str()
	}

	return core.RenderedPage{HTML: markup, CSS: css}, nil
}

func (s *Surface) connect() (*rod.Browser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.browser != nil {
		return s.browser, nil
	}

	wsURL := s.cfg.RemoteURL
	if wsURL == "" {
		l := launcher.New().Headless(true)
		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("browser: launch: %w", err)
		}
		wsURL = u
		s.lnch = l
		s.cfg.Logger.Info("browser: launched local chrome", zap.String("url", wsURL))
	} else {
		s.cfg.Logger.Info("browser: connecting to remote", zap.String("url", wsURL))
	}

	b := rod.New().ControlURL(wsURL)
	if err := b.Connect(); err != nil {
		return nil, fmt.Errorf("browser: connect: %w", err)
	}
	s.browser = b
	return b, nil
}

func (s *Surface) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var err error
	if s.browser != nil {
		err = s.browser.Close()
		s.browser = nil
	}
	if s.lnch != nil {
		s.lnch.Cleanup()
		s.lnch = nil
	}
	return err
}

// parseViewport reads "1280x800".
func parseViewport(v string) (int, int, bool) {
	w, h, ok := strings.Cut(strings.ToLower(strings.TrimSpace(v)), "x")
	if !ok {
		return 0, 0, false
	}
	width, err1 := strconv.Atoi(w)
	height, err2 := strconv.Atoi(h)
	if err1 != nil || err2 != nil || width <= 0 || height <= 0 {
		return 0, 0, false
	}
	return width, height, true
}
