package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"pos-print-service/config"
	"pos-print-service/driver"
	"pos-print-service/models"
	"pos-print-service/ticket"
	"pos-print-service/utils"
)

// ErrConfigurationMissing means no usable printer is configured for a destination.
// It is never returned to callers: the destination falls back instead.
var ErrConfigurationMissing = errors.New("configuration missing")

// MsgBridgeNotConnected is shown when the print bridge cannot be reached
const MsgBridgeNotConnected = "Print bridge not connected"

// MaxReceiptCopies bounds PrintOptions.ReceiptCopies
const MaxReceiptCopies = 5

// Orchestrator states, recorded in PrintSummary.States
const (
	StateIdle        = "Idle"
	StateClassifying = "ClassifyingItems"
	StateRendering   = "Rendering"
	StateDelivering  = "Delivering"
	StateAggregating = "Aggregating"
	StateDone        = "Done"
)

// Fallback selects what happens after direct delivery is impossible or fails
type Fallback int

const (
	// FallbackBrowser prints through the browser driver
	FallbackBrowser Fallback = iota
	// FallbackDocument returns the HTML document for the caller to print
	FallbackDocument
)

// ParseFallback maps "browser" or "document" to a Fallback
func ParseFallback(s string) (Fallback, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case config.FallbackBrowser:
		return FallbackBrowser, nil
	case config.FallbackDocument:
		return FallbackDocument, nil
	}
	return 0, fmt.Errorf("%w: fallback must be %q or %q, got %q", ticket.ErrRenderingFailure, config.FallbackBrowser, config.FallbackDocument, s)
}

// PrintOptions selects the destinations of one print request.
// With EveryPrinter the receipt goes to each active receipt printer and kitchen
// tickets follow Classifier.RouteEvery.
type PrintOptions struct {
	PrintKitchen  bool
	PrintReceipt  bool
	ReceiptCopies int
	Fallback      Fallback
	EveryPrinter  bool
}

// PrintServiceDeps wires the orchestrator. Logger, Archive and Logos are optional.
type PrintServiceDeps struct {
	Settings   *SettingsStore
	Classifier *Classifier
	Mode       string
	Network    driver.Driver
	Bridge     driver.Driver
	Browser    driver.Driver
	Logger     AttemptLogger
	Archive    DocumentArchive
	Logos      LogoRasterizer
	Ticket     ticket.Options
	Clock      utils.Clock

	// DefaultFallback applies to server-side requests that do not choose one
	DefaultFallback Fallback
}

// PrintService turns orders into delivered tickets
type PrintService struct {
	PrintServiceDeps
	newJobID func() string
}

// NewPrintService creates a new PrintService
func NewPrintService(deps PrintServiceDeps) *PrintService {
	if deps.Logger == nil {
		deps.Logger = StdAttemptLogger{}
	}
	if deps.Clock == nil {
		deps.Clock = utils.RealClock{}
	}
	if deps.Mode == "" {
		deps.Mode = config.ModeDirect
	}
	return &PrintService{PrintServiceDeps: deps, newJobID: uuid.NewString}
}

// job is one rendered ticket for one printer
type job struct {
	dest    models.Destination
	printer *models.PrinterDefinition
	doc     ticket.Document
	copies  int
}

type outcome struct {
	result   models.PrintResult
	failed   []ticket.Document
	fellBack []ticket.Document
}

func (s *PrintService) enter(summary *models.PrintSummary, state string) {
	summary.States = append(summary.States, state)
	log.Printf("🔄 [%s] %s", summary.JobID, state)
}

// PrintOrder classifies, renders and delivers the order's tickets.
// Only ticket.ErrRenderingFailure is returned; delivery problems are reported in the summary.
func (s *PrintService) PrintOrder(ctx context.Context, order *models.OrderDocument, opts PrintOptions) (*models.PrintSummary, error) {
	summary := &models.PrintSummary{JobID: s.newJobID()}
	s.enter(summary, StateIdle)
	if err := ticket.Validate(order); err != nil {
		log.Printf("❌ [%s] Cannot print order: %v", summary.JobID, err)
		return nil, err
	}
	log.Printf("📥 [%s] Print order #%s: kitchen=%t receipt=%t copies=%d mode=%s",
		summary.JobID, order.OrderNumber, opts.PrintKitchen, opts.PrintReceipt, opts.ReceiptCopies, s.Mode)

	s.enter(summary, StateClassifying)
	settings := s.Settings.Get(ctx)
	var routes []KitchenRoute
	switch {
	case opts.PrintKitchen && opts.EveryPrinter:
		routes = s.Classifier.RouteEvery(order.Items, settings)
	case opts.PrintKitchen:
		routes = s.Classifier.Route(order.Items, settings)
	}

	s.enter(summary, StateRendering)
	var kitchenJobs []job
	for _, r := range routes {
		kopts := s.Ticket
		kopts.Heading = "KITCHEN"
		if r.Printer != nil && r.Printer.Kind == models.PrinterKindBar {
			kopts.Heading = "BAR"
		}
		doc := ticket.RenderKitchen(order, r.Items, kopts)
		if doc.Empty() {
			continue
		}
		kitchenJobs = append(kitchenJobs, job{dest: models.DestinationKitchen, printer: r.Printer, doc: doc, copies: 1})
	}
	var receiptJobs []job
	if opts.PrintReceipt {
		doc := ticket.RenderReceipt(order, settings.BrandingOrDefault(), s.receiptOptions(ctx, summary.JobID, settings))
		for _, p := range receiptPrinters(settings, opts.EveryPrinter) {
			receiptJobs = append(receiptJobs, job{dest: models.DestinationReceipt, printer: p, doc: doc, copies: clampCopies(opts.ReceiptCopies)})
		}
	}
	if opts.PrintKitchen && len(kitchenJobs) == 0 {
		log.Printf("ℹ️  [%s] No kitchen items, kitchen ticket skipped", summary.JobID)
	}

	s.enter(summary, StateDelivering)
	var kitchen, receipt *outcome
	var g errgroup.Group
	if len(kitchenJobs) > 0 {
		g.Go(func() error {
			kitchen = s.deliverDestination(ctx, summary.JobID, order, models.DestinationKitchen, kitchenJobs, opts)
			return nil
		})
	}
	if len(receiptJobs) > 0 {
		g.Go(func() error {
			receipt = s.deliverDestination(ctx, summary.JobID, order, models.DestinationReceipt, receiptJobs, opts)
			return nil
		})
	}
	g.Wait()

	s.enter(summary, StateAggregating)
	if opts.PrintKitchen {
		if kitchen == nil {
			kitchen = &outcome{result: models.PrintResult{Destination: models.DestinationKitchen}}
		}
		summary.Results = append(summary.Results, kitchen.result)
		s.keepFallbackDocument(ctx, summary, order, kitchen)
	}
	if receipt != nil {
		summary.Results = append(summary.Results, receipt.result)
		s.keepFallbackDocument(ctx, summary, order, receipt)
	}
	summary.Status, summary.Message = Aggregate(summary.Results)

	s.enter(summary, StateDone)
	log.Printf("✅ [%s] Order #%s print %s: %s", summary.JobID, order.OrderNumber, summary.Status, summary.Message)
	return summary, nil
}

func (s *PrintService) receiptOptions(ctx context.Context, jobID string, settings models.Settings) ticket.Options {
	opts := s.Ticket
	branding := settings.BrandingOrDefault()
	if branding.LogoURL == "" || s.Logos == nil {
		return opts
	}
	raster, err := s.Logos.Raster(ctx, branding.LogoURL)
	if err != nil {
		log.Printf("⚠️  [%s] Receipt logo unavailable, printing business name: %v", jobID, err)
		return opts
	}
	opts.Logo = raster
	return opts
}

// receiptPrinters returns the receipt targets; a single nil entry when none is active
func receiptPrinters(settings models.Settings, every bool) []*models.PrinterDefinition {
	if !every {
		return []*models.PrinterDefinition{settings.FirstActive(models.PrinterKindReceipt)}
	}
	var out []*models.PrinterDefinition
	for i := range settings.Printers {
		if p := &settings.Printers[i]; p.Active && p.Kind == models.PrinterKindReceipt {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		out = append(out, nil)
	}
	return out
}

func clampCopies(n int) int {
	if n < 1 {
		return 1
	}
	if n > MaxReceiptCopies {
		return MaxReceiptCopies
	}
	return n
}

// deliverDestination runs every job of one destination once, one after the other.
// A ticket sent to several printers is kept once in the fallback documents.
func (s *PrintService) deliverDestination(ctx context.Context, jobID string, order *models.OrderDocument, dest models.Destination, jobs []job, opts PrintOptions) *outcome {
	out := &outcome{result: models.PrintResult{Destination: dest, Attempted: true, Succeeded: true}}
	var names []string
	failed, fellBack := make(map[string]bool), make(map[string]bool)
	for _, j := range jobs {
		r := s.deliverJob(ctx, jobID, order, j, opts)
		out.result.Printers = append(out.result.Printers, models.PrinterOutcome{
			PrinterName: r.PrinterName,
			Succeeded:   r.Succeeded,
			DriverUsed:  r.DriverUsed,
			Fallback:    r.Fallback,
			Error:       r.Error,
		})
		if r.PrinterName != "" {
			names = append(names, r.PrinterName)
		}
		if out.result.DriverUsed == "" {
			out.result.DriverUsed = r.DriverUsed
		}
		key := ticket.PlainText(j.doc)
		if !r.Succeeded {
			out.result.Succeeded = false
			if !failed[key] {
				failed[key] = true
				out.failed = append(out.failed, j.doc)
			}
		}
		if r.Fallback {
			out.result.Fallback = true
			if !fellBack[key] {
				fellBack[key] = true
				out.fellBack = append(out.fellBack, j.doc)
			}
		}
		if out.result.Error == "" {
			out.result.Error = r.Error
		}
	}
	out.result.PrinterName = strings.Join(names, ", ")
	return out
}

// deliverJob tries the configured tier and falls back one tier on failure
func (s *PrintService) deliverJob(ctx context.Context, jobID string, order *models.OrderDocument, j job, opts PrintOptions) models.PrintResult {
	res := models.PrintResult{Destination: j.dest, Attempted: true}
	del := driver.Delivery{JobID: jobID, Printer: j.printer, Document: j.doc, Copies: j.copies}
	if j.printer != nil {
		res.PrinterName = j.printer.Name
	}

	if s.Mode == config.ModeBridge {
		res.DriverUsed = models.DriverBridge
		if j.printer == nil {
			res.Error = missingPrinter(j.dest).Error()
			s.logAttempt(ctx, jobID, order, j, models.PrintLogFailed, models.DriverBridge, res.Error)
			return res
		}
		log.Printf("🖨️  [%s] %s -> bridge printer %q", jobID, j.dest, j.printer.Name)
		if err := s.Bridge.Deliver(ctx, del); err != nil {
			res.Error = err.Error()
			if errors.Is(err, driver.ErrBridgeNotConnected) {
				res.Error = MsgBridgeNotConnected
			}
			log.Printf("❌ [%s] %s bridge delivery failed: %v", jobID, j.dest, err)
			s.logAttempt(ctx, jobID, order, j, models.PrintLogFailed, models.DriverBridge, res.Error)
			return res
		}
		res.Succeeded = true
		s.logAttempt(ctx, jobID, order, j, models.PrintLogSuccess, models.DriverBridge, "")
		return res
	}

	var cause error
	if j.printer != nil && strings.TrimSpace(j.printer.Address) != "" {
		log.Printf("🖨️  [%s] %s -> %s (%s)", jobID, j.dest, j.printer.Name, j.printer.Address)
		err := s.Network.Deliver(ctx, del)
		if err == nil {
			res.Succeeded = true
			res.DriverUsed = models.DriverNetwork
			s.logAttempt(ctx, jobID, order, j, models.PrintLogSuccess, models.DriverNetwork, "")
			return res
		}
		cause = err
		res.DriverUsed = models.DriverNetwork
		s.logAttempt(ctx, jobID, order, j, models.PrintLogFailed, models.DriverNetwork, err.Error())
	} else if j.printer != nil {
		cause = fmt.Errorf("%w: printer %q has no address", ErrConfigurationMissing, j.printer.Name)
	} else {
		cause = missingPrinter(j.dest)
	}
	res.Error = cause.Error()

	if opts.Fallback != FallbackBrowser || s.Browser == nil {
		log.Printf("⚠️  [%s] %s not printed, returning document: %v", jobID, j.dest, cause)
		return res
	}

	log.Printf("⚠️  [%s] %s falling back to browser: %v", jobID, j.dest, cause)
	if err := s.Browser.Deliver(ctx, del); err != nil {
		res.Error = err.Error()
		s.logAttempt(ctx, jobID, order, j, models.PrintLogFailed, models.DriverBrowser, res.Error)
		return res
	}
	res.Succeeded = true
	res.Fallback = true
	res.DriverUsed = models.DriverBrowser
	s.logAttempt(ctx, jobID, order, j, models.PrintLogPartial, models.DriverBrowser, cause.Error())
	return res
}

func missingPrinter(dest models.Destination) error {
	if dest == models.DestinationKitchen {
		return fmt.Errorf("%w: no active kitchen or bar printer", ErrConfigurationMissing)
	}
	return fmt.Errorf("%w: no active %s printer", ErrConfigurationMissing, dest)
}

func (s *PrintService) logAttempt(ctx context.Context, jobID string, order *models.OrderDocument, j job, status, driverName, errMsg string) {
	entry := models.PrintLog{
		JobID:        jobID,
		OrderID:      order.Reference(),
		TicketType:   string(j.dest),
		Status:       status,
		Driver:       driverName,
		ErrorMessage: errMsg,
		CreatedAt:    s.Clock.Now(),
	}
	if j.printer != nil {
		entry.PrinterName = j.printer.Name
		entry.PrinterAddress = j.printer.Address
	}
	s.Logger.LogAttempt(ctx, entry)
}

// keepFallbackDocument attaches the HTML of undelivered tickets to the summary.
// Undelivered tickets and tickets printed by the browser fallback are archived for manual reprint.
func (s *PrintService) keepFallbackDocument(ctx context.Context, summary *models.PrintSummary, order *models.OrderDocument, out *outcome) {
	if len(out.failed) > 0 {
		html, err := ticket.RenderHTML(ticket.Concat(out.failed...))
		if err != nil {
			log.Printf("❌ [%s] Cannot render fallback document: %v", summary.JobID, err)
		} else {
			if summary.FallbackDocuments == nil {
				summary.FallbackDocuments = make(map[models.Destination]string)
			}
			summary.FallbackDocuments[out.result.Destination] = html
		}
	}

	docs := append(append([]ticket.Document(nil), out.failed...), out.fellBack...)
	if s.Archive == nil || len(docs) == 0 {
		return
	}
	html, err := ticket.RenderHTML(ticket.Concat(docs...))
	if err != nil {
		log.Printf("❌ [%s] Cannot render archive document: %v", summary.JobID, err)
		return
	}
	name := fmt.Sprintf("order-%s-%s-%s.html", order.OrderNumber, out.result.Destination, shortID(summary.JobID))
	if _, err := s.Archive.Archive(ctx, name, html); err != nil {
		log.Printf("⚠️  [%s] Fallback document not archived: %v", summary.JobID, err)
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// Aggregate derives the overall status and the message shown to staff.
// Destinations that were not attempted are ignored.
func Aggregate(results []models.PrintResult) (models.PrintStatus, string) {
	var attempted, failures []models.PrintResult
	fallbacks := 0
	for _, r := range results {
		if !r.Attempted {
			continue
		}
		attempted = append(attempted, r)
		if !r.Succeeded {
			failures = append(failures, r)
		} else if r.Fallback {
			fallbacks++
		}
	}

	switch {
	case len(attempted) == 0:
		return models.PrintStatusSuccess, "Nothing to print"
	case len(failures) == 0 && fallbacks == 0:
		labels := make([]string, 0, len(attempted))
		for _, r := range attempted {
			labels = append(labels, strings.ToLower(label(r.Destination)))
		}
		return models.PrintStatusSuccess, capitalize(strings.Join(labels, " and ") + " printed")
	case len(failures) == len(attempted):
		reasons := make([]string, 0, len(failures))
		same := true
		for _, r := range failures {
			if r.Error != failures[0].Error {
				same = false
			}
			reasons = append(reasons, fmt.Sprintf("%s: %s", label(r.Destination), r.Error))
		}
		if same {
			return models.PrintStatusFailed, failures[0].Error
		}
		return models.PrintStatusFailed, strings.Join(reasons, "; ")
	}

	parts := make([]string, 0, len(attempted))
	for _, r := range attempted {
		switch {
		case !r.Succeeded:
			parts = append(parts, fmt.Sprintf("%s failed to print: %s", label(r.Destination), r.Error))
		case r.Fallback:
			parts = append(parts, fmt.Sprintf("%s printed via browser fallback (%s)", label(r.Destination), r.Error))
		default:
			parts = append(parts, label(r.Destination)+" printed")
		}
	}
	return models.PrintStatusPartial, strings.Join(parts, "; ")
}

func label(d models.Destination) string {
	if d == models.DestinationKitchen {
		return "Kitchen ticket"
	}
	return "Receipt"
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// ServerPrint handles the server-side print request. With the document fallback it
// attempts direct delivery to each active printer of the relevant kind, and the HTML
// of every undelivered ticket comes back for the caller to print. With the browser
// fallback it follows the client pipeline: one printer per ticket, then the browser.
func (s *PrintService) ServerPrint(ctx context.Context, req models.PrintOrderRequest) (*models.PrintOrderResponse, error) {
	if !req.PrintType.Valid() {
		return nil, fmt.Errorf("%w: printType must be kitchen, receipt or both", ticket.ErrRenderingFailure)
	}
	fallback := s.DefaultFallback
	if req.Fallback != "" {
		f, err := ParseFallback(req.Fallback)
		if err != nil {
			return nil, err
		}
		fallback = f
	}
	order := req.OrderData
	if order.OrderID == "" {
		order.OrderID = req.OrderID
	}

	summary, err := s.PrintOrder(ctx, &order, PrintOptions{
		PrintKitchen:  req.PrintType == models.PrintTypeKitchen || req.PrintType == models.PrintTypeBoth,
		PrintReceipt:  req.PrintType == models.PrintTypeReceipt || req.PrintType == models.PrintTypeBoth,
		ReceiptCopies: req.ReceiptCopies,
		Fallback:      fallback,
		EveryPrinter:  fallback == FallbackDocument,
	})
	if err != nil {
		return nil, err
	}

	resp := &models.PrintOrderResponse{
		Success:           summary.Status == models.PrintStatusSuccess,
		JobID:             summary.JobID,
		FallbackDocuments: summary.FallbackDocuments,
		Message:           summary.Message,
	}
	resp.Results.Kitchen = summary.Result(models.DestinationKitchen)
	resp.Results.Receipt = summary.Result(models.DestinationReceipt)
	return resp, nil
}

// Preview renders the HTML document of one ticket type without printing it.
// An empty string means there is nothing to print (a kitchen ticket with no kitchen items).
func (s *PrintService) Preview(ctx context.Context, order *models.OrderDocument, typ models.PrintType) (string, error) {
	if err := ticket.Validate(order); err != nil {
		return "", err
	}
	settings := s.Settings.Get(ctx)

	switch typ {
	case models.PrintTypeKitchen:
		items := s.Classifier.ClassifyForKitchen(order.Items, settings.Rules, settings.Printers)
		return ticket.RenderHTML(ticket.RenderKitchen(order, items, s.Ticket))
	case models.PrintTypeReceipt:
		return ticket.RenderHTML(ticket.RenderReceipt(order, settings.BrandingOrDefault(), s.Ticket))
	default:
		return "", fmt.Errorf("%w: preview type must be kitchen or receipt", ticket.ErrRenderingFailure)
	}
}
