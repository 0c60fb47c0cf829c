package report

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"sheetbridge/pkg/contracts/domain"
)

// Renderer prints grouped reports to PDF through a headless browser. A
// missing Chrome binary surfaces as an input-class error from Render, not
// a crash.
type Renderer struct {
	logger *slog.Logger
}

// NewRenderer creates a PDF renderer.
func NewRenderer(logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Renderer{logger: logger.With(slog.String("component", "pdf_renderer"))}
}

// Render produces the paginated PDF report.
func (r *Renderer) Render(ctx context.Context, title string, groups []domain.Group, summaries []domain.SummaryRow) ([]byte, error) {
	html, err := renderHTML(title, groups, summaries)
	if err != nil {
		return nil, err
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
	)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	var pdf []byte
	tasks := chromedp.Tasks{
		chromedp.Navigate("data:text/html," + url.PathEscape(html)),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			pdf, _, err = page.PrintToPDF().
				WithPrintBackground(true).
				WithPreferCSSPageSize(true).
				Do(ctx)
			return err
		}),
	}
	if err := chromedp.Run(browserCtx, tasks); err != nil {
		return nil, fmt.Errorf("failed to print report to PDF: %w", err)
	}

	r.logger.Info("report rendered to PDF",
		slog.Int("groups", len(groups)),
		slog.Int("bytes", len(pdf)))
	return pdf, nil
}
