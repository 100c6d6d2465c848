// Package preview captures screenshots of draft-theme preview URLs with
// headless Chromium, so a reviewer can see a staged change without opening
// the storefront.
package preview

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// ErrDependencyMissing indicates no chromium binary is available on PATH.
var ErrDependencyMissing = errors.New("preview screenshot dependency missing")

type Capturer struct {
	timeout time.Duration
}

func New() *Capturer {
	return &Capturer{timeout: 30 * time.Second}
}

// Capture renders the URL in headless Chromium and returns a full-page PNG.
func (c *Capturer) Capture(ctx context.Context, url string) ([]byte, error) {
	if _, err := exec.LookPath("chromium-browser"); err != nil {
		if _, fallbackErr := exec.LookPath("chromium"); fallbackErr != nil {
			return nil, fmt.Errorf("%w: chromium not installed", ErrDependencyMissing)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-setuid-sandbox", true),
	)

	allocCtx, cancel := chromedp.NewExecAllocator(ctx, opts...)
	defer cancel()

	taskCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	var pngData []byte
	err := chromedp.Run(taskCtx,
		chromedp.EmulateViewport(1280, 960),
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			pngData, err = page.CaptureScreenshot().
				WithFormat(page.CaptureScreenshotFormatPng).
				WithCaptureBeyondViewport(true).
				Do(ctx)
			return err
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("chrome screenshot failed: %w", err)
	}
	return pngData, nil
}
