package utils

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/playwright-community/playwright-go"
)

// Screenshotter is the slice of playwright.Page needed to capture a debug image.
type Screenshotter interface {
	Screenshot(options ...playwright.PageScreenshotOptions) ([]byte, error)
}

// ScreenShotDebugger saves full-page screenshots for operators when a render fails.
type ScreenShotDebugger struct {
	outputDir string
	logger    *log.Logger
	now       func() time.Time
}

func NewScreenShotDebugger(dir string, logger *log.Logger) *ScreenShotDebugger {
	if dir == "" {
		dir = filepath.Join(".", "logs", "screenshots")
	}
	return &ScreenShotDebugger{
		outputDir: dir,
		logger:    logger,
		now:       time.Now,
	}
}

// CaptureAndLog writes <name>_<timestamp>.png and returns its path.
// Errors are logged and returned, never fatal to the caller.
func (s *ScreenShotDebugger) CaptureAndLog(page Screenshotter, name, message string) (string, error) {
	if err := os.MkdirAll(s.outputDir, 0755); err != nil {
		s.logger.Printf("⚠️ Failed to create screenshot directory: %v", err)
		return "", err
	}

	timestamp := s.now().Format("2006-01-02_15-04-05")
	path := filepath.Join(s.outputDir, fmt.Sprintf("%s_%s.png", name, timestamp))
	s.logger.Printf("📸 %s", message)

	_, err := page.Screenshot(playwright.PageScreenshotOptions{
		Path:     playwright.String(path),
		FullPage: playwright.Bool(true),
	})
	if err != nil {
		s.logger.Printf("⚠️ Failed to capture screenshot: %v", err)
		return "", err
	}

	s.logger.Printf("   Screenshot saved: %s", path)
	return path, nil
}
