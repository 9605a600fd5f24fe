package ingestion

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jonathan/resume-forge/internal/fetch"
)

// JobPosting is a job description resolved from a URL.
type JobPosting struct {
	URL       string         `json:"url"`
	Platform  fetch.Platform `json:"platform"`
	Text      string         `json:"text"`
	Hash      string         `json:"hash"` // SHA256 hex of Text
	Rendered  bool           `json:"rendered"`
	FetchedAt time.Time      `json:"fetched_at"`
}

// FetchJobDescription downloads a job posting and extracts its description.
// Pages yielding fewer than fetch.MinContentLength characters are re-rendered in a
// headless browser when the fetcher allows it.
func FetchJobDescription(ctx context.Context, f *fetch.Fetcher, url string, logger *zap.Logger) (*JobPosting, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	platform := fetch.DetectPlatform(url)
	content := fetch.ContentSelectors(platform)
	noise := fetch.NoiseSelectors(platform)

	var text string
	result, err := f.URL(ctx, url)
	if err == nil {
		text, err = fetch.ExtractMainText(result.HTML, content, noise...)
		if err != nil {
			return nil, fmt.Errorf("failed to extract job description: %w", err)
		}
	} else if !f.BrowserEnabled() {
		return nil, err
	}

	rendered := false
	if f.BrowserEnabled() && fetch.ShouldUseBrowser(text) {
		logger.Info("job page content too short, rendering with browser",
			zap.String("url", url),
			zap.String("platform", string(platform)),
			zap.Int("chars", len(text)),
		)
		html, renderErr := f.Render(ctx, url)
		if renderErr != nil {
			if text == "" {
				return nil, renderErr
			}
			logger.Warn("browser render failed, keeping HTTP content", zap.Error(renderErr))
		} else {
			browserText, extractErr := fetch.ExtractMainText(html, content, noise...)
			if extractErr == nil && len(browserText) > len(text) {
				text = browserText
				rendered = true
			}
		}
	}

	text = CleanText(text)
	if text == "" {
		return nil, fmt.Errorf("no job description text found at %s", url)
	}

	logger.Debug("job description fetched",
		zap.String("url", url),
		zap.String("platform", string(platform)),
		zap.Bool("rendered", rendered),
		zap.Int("chars", len(text)),
	)

	return &JobPosting{
		URL:       url,
		Platform:  platform,
		Text:      text,
		Hash:      hashText(text),
		Rendered:  rendered,
		FetchedAt: time.Now().UTC(),
	}, nil
}

func hashText(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}
