package renderer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"
)

const USER_AGENT = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/142.0.0.0 Safari/537.36"

// Renderer fetches a page and returns its parsed document.
type Renderer interface {
	Render(ctx context.Context, url string) (*goquery.Document, error)
}

// ErrRendererClosed is returned by Render after Close.
var ErrRendererClosed = errors.New("renderer closed")

// ChromeRenderer loads pages in headless Chrome, for instances that only serve
// content after a JavaScript challenge. One browser process is started on the
// first render and every page opens in a new tab of it. Close stops it.
type ChromeRenderer struct {
	ChromePath string
	UserAgent  string
	Timeout    time.Duration

	mu         sync.Mutex
	browserCtx context.Context
	stop       context.CancelFunc
	closed     bool
}

func NewChromeRenderer(chromePath, userAgent string, timeout time.Duration) *ChromeRenderer {
	if userAgent == "" {
		userAgent = USER_AGENT
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &ChromeRenderer{ChromePath: chromePath, UserAgent: userAgent, Timeout: timeout}
}

func (r *ChromeRenderer) Render(ctx context.Context, url string) (*goquery.Document, error) {
	htmlContent, err := r.RenderHTML(ctx, url)
	if err != nil {
		return nil, err
	}
	return goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
}

// RenderHTML returns the outer HTML of the page once its body is ready.
func (r *ChromeRenderer) RenderHTML(ctx context.Context, url string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	browserCtx, err := r.browser()
	if err != nil {
		return "", err
	}

	tabCtx, cancel := chromedp.NewContext(browserCtx)
	defer cancel()
	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, r.Timeout)
	defer cancelTimeout()
	// the tab lives under the browser context, so follow the caller's cancellation by hand
	stopAfter := context.AfterFunc(ctx, cancelTimeout)
	defer stopAfter()

	var htmlContent string
	err = chromedp.Run(tabCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(1*time.Second),
		chromedp.OuterHTML("html", &htmlContent),
	)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", err
	}
	return htmlContent, nil
}

// Close stops the browser process. It is safe to call more than once.
func (r *ChromeRenderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	if r.stop != nil {
		r.stop()
		r.stop = nil
		r.browserCtx = nil
	}
	return nil
}

func (r *ChromeRenderer) browser() (context.Context, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, ErrRendererClosed
	}
	if r.browserCtx != nil {
		return r.browserCtx, nil
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), r.allocatorOptions()...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	// an empty Run starts the browser, later contexts derived from it open tabs
	if err := chromedp.Run(browserCtx); err != nil {
		cancelBrowser()
		cancelAlloc()
		return nil, fmt.Errorf("start chrome: %w", err)
	}

	r.browserCtx = browserCtx
	r.stop = func() {
		cancelBrowser()
		cancelAlloc()
	}
	return browserCtx, nil
}

func (r *ChromeRenderer) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.UserAgent(r.UserAgent),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-crashpad", true),
		chromedp.Flag("disable-breakpad", true),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("no-default-browser-check", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("headless", true),
	)
	if r.ChromePath != "" {
		opts = append(opts, chromedp.ExecPath(r.ChromePath))
	}
	return opts
}
