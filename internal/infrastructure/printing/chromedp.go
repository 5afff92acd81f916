package printing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	appfinance "github.com/schoolerp/feeledger/internal/application/finance"
	"github.com/schoolerp/feeledger/internal/domain/finance"
	"github.com/schoolerp/feeledger/internal/infrastructure/config"
	"go.uber.org/zap"
)

const (
	defaultRenderTimeout = 30 * time.Second

	// A5 portrait, the usual fee counter receipt size
	receiptWidthMM  = 148.0
	receiptHeightMM = 210.0
	receiptMarginMM = 10.0
)

var (
	// ErrRenderTimeout is returned when Chrome does not finish in time
	ErrRenderTimeout = errors.New("receipt rendering timed out")
	// ErrEmptyPDF is returned when Chrome produces no output
	ErrEmptyPDF = errors.New("generated PDF is empty")
)

// ChromedpReceiptRenderer prints receipts to PDF with headless Chrome.
// One browser process is shared; each render opens its own tab.
type ChromedpReceiptRenderer struct {
	cfg         config.PrintingConfig
	composer    *receiptComposer
	logger      *zap.Logger
	allocCtx    context.Context
	allocCancel context.CancelFunc
}

// NewChromedpReceiptRenderer creates a renderer. Chrome itself is started
// lazily by the first render.
func NewChromedpReceiptRenderer(cfg config.PrintingConfig, logger *zap.Logger) *ChromedpReceiptRenderer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultRenderTimeout
	}
	r := &ChromedpReceiptRenderer{
		cfg:      cfg,
		composer: newReceiptComposer(cfg.SchoolName, cfg.Locale),
		logger:   logger,
	}
	r.allocCtx, r.allocCancel = chromedp.NewExecAllocator(context.Background(), r.allocatorOptions()...)
	return r
}

func (r *ChromedpReceiptRenderer) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", r.cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("disable-sync", true),
		chromedp.Flag("font-render-hinting", "none"),
	)
	if r.cfg.NoSandbox {
		opts = append(opts, chromedp.Flag("no-sandbox", true))
	}
	if r.cfg.ChromePath != "" {
		opts = append(opts, chromedp.ExecPath(r.cfg.ChromePath))
	}
	return opts
}

// RenderReceipt renders one receipt to PDF bytes
func (r *ChromedpReceiptRenderer) RenderReceipt(ctx context.Context, receipt *finance.Receipt) ([]byte, error) {
	if receipt == nil {
		return nil, errors.New("receipt is nil")
	}
	html, err := r.composer.HTML(receipt)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	tabCtx, tabCancel := chromedp.NewContext(r.allocCtx,
		chromedp.WithLogf(func(format string, args ...interface{}) {
			r.logger.Debug(fmt.Sprintf(format, args...))
		}),
	)
	defer tabCancel()
	// The tab lives under the allocator context, so tie it to the caller's deadline.
	stop := context.AfterFunc(ctx, tabCancel)
	defer stop()

	params := receiptPrintParams()
	var pdf []byte
	err = chromedp.Run(tabCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			frameTree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(frameTree.Frame.ID, html).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			data, _, err := params.apply(page.PrintToPDF()).Do(ctx)
			if err != nil {
				return err
			}
			pdf = data
			return nil
		}),
	)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w after %v", ErrRenderTimeout, r.cfg.Timeout)
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		r.logger.Error("chromedp rendering failed",
			zap.String("receipt_number", receipt.ReceiptNumber),
			zap.Error(err))
		return nil, fmt.Errorf("chromedp execution failed: %w", err)
	}
	if len(pdf) == 0 {
		return nil, ErrEmptyPDF
	}

	r.logger.Info("Receipt rendered",
		zap.String("receipt_number", receipt.ReceiptNumber),
		zap.Int("bytes", len(pdf)),
		zap.Duration("duration", time.Since(start)))
	return pdf, nil
}

// Close stops the browser process
func (r *ChromedpReceiptRenderer) Close() error {
	if r.allocCancel != nil {
		r.allocCancel()
	}
	return nil
}

// printParams holds the page setup in inches, which is what Chrome expects
type printParams struct {
	paperWidth   float64
	paperHeight  float64
	marginTop    float64
	marginRight  float64
	marginBottom float64
	marginLeft   float64
	scale        float64
}

func receiptPrintParams() printParams {
	margin := mmToInches(receiptMarginMM)
	return printParams{
		paperWidth:   mmToInches(receiptWidthMM),
		paperHeight:  mmToInches(receiptHeightMM),
		marginTop:    margin,
		marginRight:  margin,
		marginBottom: margin,
		marginLeft:   margin,
		scale:        1.0,
	}
}

func (p printParams) apply(cmd *page.PrintToPDFParams) *page.PrintToPDFParams {
	return cmd.
		WithPrintBackground(true).
		WithPaperWidth(p.paperWidth).
		WithPaperHeight(p.paperHeight).
		WithMarginTop(p.marginTop).
		WithMarginRight(p.marginRight).
		WithMarginBottom(p.marginBottom).
		WithMarginLeft(p.marginLeft).
		WithScale(p.scale).
		WithPreferCSSPageSize(false)
}

func mmToInches(mm float64) float64 {
	return mm / 25.4
}

var _ appfinance.ReceiptRenderer = (*ChromedpReceiptRenderer)(nil)
