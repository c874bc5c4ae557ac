package driver

import (
	"context"
	"log"
	"sync"
	"time"

	"pos-print-service/models"
	"pos-print-service/ticket"
	"pos-print-service/utils"
)

// Surface is an off-screen page that prints one HTML document
type Surface interface {
	Print(ctx context.Context, title, html string) error
}

// BrowserDriver is the last-resort driver. Every copy gets its own surface and copies
// start stagger apart so print jobs do not interleave. Dispatch is fire-and-forget:
// Deliver returns once the job is scheduled and surface errors are only logged.
type BrowserDriver struct {
	surface Surface
	clock   utils.Clock
	stagger time.Duration
	wg      sync.WaitGroup
}

// NewBrowserDriver creates a new BrowserDriver
func NewBrowserDriver(surface Surface, clock utils.Clock, stagger time.Duration) *BrowserDriver {
	return &BrowserDriver{surface: surface, clock: clock, stagger: stagger}
}

// Ensure BrowserDriver implements Driver
var _ Driver = (*BrowserDriver)(nil)

func (d *BrowserDriver) Name() string { return models.DriverBrowser }

// Deliver renders the HTML document and schedules one print per copy
func (d *BrowserDriver) Deliver(ctx context.Context, del Delivery) error {
	html, err := ticket.RenderHTML(del.Document)
	if err != nil {
		return &DeliveryError{Driver: d.Name(), Err: err}
	}
	if html == "" {
		return nil
	}

	copies := del.copies()
	title := del.Document.Title
	// the request may end before the last copy is printed
	printCtx := context.WithoutCancel(ctx)

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		for i := 0; i < copies; i++ {
			if i > 0 {
				<-d.clock.After(d.stagger)
			}
			d.wg.Add(1)
			go func(n int) {
				defer d.wg.Done()
				if err := d.surface.Print(printCtx, title, html); err != nil {
					log.Printf("⚠️  [%s] browser print of %s copy %d/%d failed: %v", del.JobID, title, n, copies, err)
					return
				}
				log.Printf("🖨️  [%s] browser printed %s copy %d/%d", del.JobID, title, n, copies)
			}(i + 1)
		}
	}()

	log.Printf("🖨️  [%s] browser print scheduled: %s x%d", del.JobID, title, copies)
	return nil
}

// Wait blocks until every scheduled copy has been handed to its surface
func (d *BrowserDriver) Wait() {
	d.wg.Wait()
}
