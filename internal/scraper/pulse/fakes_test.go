package pulse

import (
	"errors"
	"io"
	"log"
	"sync"

	"github.com/playwright-community/playwright-go"
)

// fakePage scripts the page calls made by the renderer and the detail fetcher.
type fakePage struct {
	mu sync.Mutex

	gotoErr    error
	cardCounts []int
	structured interface{}
	html       string
	bodyText   string
	ready      bool

	gotoURLs    []string
	screenshots int
	closed      bool
}

func (p *fakePage) Goto(url string, _ ...playwright.PageGotoOptions) (playwright.Response, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.gotoURLs = append(p.gotoURLs, url)
	return nil, p.gotoErr
}

func (p *fakePage) Evaluate(expression string, _ ...interface{}) (interface{}, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch expression {
	case triggerLoadScript:
		return true, nil
	case countCardsScript:
		if len(p.cardCounts) == 0 {
			return 0, nil
		}
		n := p.cardCounts[0]
		if len(p.cardCounts) > 1 {
			p.cardCounts = p.cardCounts[1:]
		}
		return float64(n), nil
	case structuredScript:
		if err, ok := p.structured.(error); ok {
			return nil, err
		}
		return p.structured, nil
	case detailReadyScript:
		return p.ready, nil
	case expandScript:
		return 0, nil
	case bodyTextScript:
		return p.bodyText, nil
	}
	// scrolling
	return nil, nil
}

func (p *fakePage) Content() (string, error) {
	if p.html == "" {
		return "", errors.New("no content")
	}
	return p.html, nil
}

func (p *fakePage) Screenshot(_ ...playwright.PageScreenshotOptions) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.screenshots++
	return nil, nil
}

func (p *fakePage) Close(_ ...playwright.PageCloseOptions) error {
	p.closed = true
	return nil
}

func discardLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}
