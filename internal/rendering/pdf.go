package rendering

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jonathan/profile-engine/internal/types"
)

// DefaultRenderTimeout bounds a single print-to-PDF run. Chrome startup
// dominates; the page itself is static.
const DefaultRenderTimeout = 60 * time.Second

// PDFRenderer prints profile documents to PDF files through headless
// Chrome. Requires Chrome/Chromium to be installed on the system.
type PDFRenderer struct {
	outputDir string
	timeout   time.Duration
	log       zerolog.Logger
}

// NewPDFRenderer creates a renderer writing into outputDir, created if
// missing.
func NewPDFRenderer(outputDir string, log zerolog.Logger) (*PDFRenderer, error) {
	if outputDir == "" {
		outputDir = "."
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	return &PDFRenderer{outputDir: outputDir, timeout: DefaultRenderTimeout, log: log}, nil
}

// Render builds the HTML document for the profile and prints it to a PDF
// file, returning the file path.
func (r *PDFRenderer) Render(ctx context.Context, p *types.Profile, sectionOrder []string, templateID string) (string, error) {
	html, err := BuildHTML(p, sectionOrder, templateID)
	if err != nil {
		return "", err
	}

	// Chrome needs a navigable URL; stage the document as a temp file.
	htmlFile, err := os.CreateTemp("", "profile-*.html")
	if err != nil {
		return "", fmt.Errorf("failed to stage document: %w", err)
	}
	defer os.Remove(htmlFile.Name())
	if _, err := htmlFile.WriteString(html); err != nil {
		htmlFile.Close()
		return "", fmt.Errorf("failed to stage document: %w", err)
	}
	htmlFile.Close()

	pdf, err := r.printToPDF(ctx, "file://"+htmlFile.Name())
	if err != nil {
		return "", err
	}

	outPath := filepath.Join(r.outputDir, fmt.Sprintf("profile-%s.pdf", uuid.NewString()))
	if err := os.WriteFile(outPath, pdf, 0o644); err != nil {
		return "", fmt.Errorf("failed to write PDF: %w", err)
	}
	r.log.Info().Str("path", outPath).Int("bytes", len(pdf)).Msg("rendered profile PDF")
	return outPath, nil
}

func (r *PDFRenderer) printToPDF(ctx context.Context, url string) ([]byte, error) {
	allocCtx, cancel := chromedp.NewExecAllocator(ctx,
		append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
		)...,
	)
	defer cancel()

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	browserCtx, cancel = context.WithTimeout(browserCtx, r.timeout)
	defer cancel()

	var pdf []byte
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			buf, _, err := page.PrintToPDF().WithPrintBackground(true).Do(ctx)
			if err != nil {
				return err
			}
			pdf = buf
			return nil
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("printing to PDF failed: %w", err)
	}
	return pdf, nil
}
