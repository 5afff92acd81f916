// Package printing renders payment receipts to PDF.
//
// Receipts are bound to an HTML template (see ReceiptTemplate) and printed
// through a headless Chrome instance driven by chromedp. Amounts are
// formatted for the configured locale with golang.org/x/text.
//
// Example usage:
//
//	renderer, err := NewChromedpReceiptRenderer(cfg.Printing, logger)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer renderer.Close()
//
//	pdf, err := renderer.RenderReceipt(ctx, receipt)
package printing
