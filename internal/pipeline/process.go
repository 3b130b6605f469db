package pipeline

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/jhillyerd/enmime"

	"github.com/ascreamingweas/tcgplayer-order-parser/internal"
	"github.com/ascreamingweas/tcgplayer-order-parser/internal/config"
	"github.com/ascreamingweas/tcgplayer-order-parser/internal/enrich"
	"github.com/ascreamingweas/tcgplayer-order-parser/internal/slip"
	"github.com/ascreamingweas/tcgplayer-order-parser/internal/storage"
)

// ProcessingService turns archived order emails and slip PDFs into stored
// orders with card rows. The enricher is optional; without it cards keep
// their parse-time defaults and the order stays in status "parsed".
type ProcessingService struct {
	db       *storage.DB
	cfg      config.Config
	parser   *slip.Parser
	enricher *enrich.Enricher
}

func NewProcessingService(db *storage.DB, cfg config.Config, parser *slip.Parser, enricher *enrich.Enricher) *ProcessingService {
	if parser == nil {
		parser = slip.NewParser(nil)
	}
	return &ProcessingService{db: db, cfg: cfg, parser: parser, enricher: enricher}
}

type ProcessResult struct {
	EmailID  int
	Orders   int
	Cards    int
	Unparsed int
}

func (s *ProcessingService) ProcessByProviderMessageID(ctx context.Context, provider, messageID string) (ProcessResult, error) {
	email, err := s.db.GetEmailByProviderMessageID(provider, messageID)
	if err != nil {
		return ProcessResult{}, err
	}
	if email == nil {
		return ProcessResult{}, fmt.Errorf("email not found: provider=%s messageId=%s", provider, messageID)
	}
	return s.ProcessEmail(ctx, *email)
}

// ProcessPending works through archived emails in fetch order.
func (s *ProcessingService) ProcessPending(ctx context.Context, limit int, provider string) (int, int, error) {
	pending, err := s.db.ListEmailsByStatus("fetched", limit)
	if err != nil {
		return 0, 0, err
	}
	processedEmails := 0
	processedOrders := 0
	for _, email := range pending {
		if provider != "" && email.Provider != provider {
			continue
		}
		res, err := s.ProcessEmail(ctx, email)
		if err != nil {
			return processedEmails, processedOrders, err
		}
		processedEmails++
		processedOrders += res.Orders
	}
	return processedEmails, processedOrders, nil
}

// ProcessEmail parses every packing-slip PDF attached to an archived email.
// Emails without a slip attachment are marked skipped, not failed.
func (s *ProcessingService) ProcessEmail(ctx context.Context, email internal.EmailRow) (ProcessResult, error) {
	raw, err := os.ReadFile(email.RawRef)
	if err != nil {
		return ProcessResult{}, err
	}

	env, err := enmime.ReadEnvelope(bytes.NewReader(raw))
	if err != nil {
		return ProcessResult{}, err
	}

	result := ProcessResult{EmailID: email.ID}
	for _, att := range env.Attachments {
		filename := strings.TrimSpace(att.FileName)
		if !strings.HasSuffix(strings.ToLower(filename), ".pdf") {
			continue
		}

		sourceRef := fmt.Sprintf("%s#%s", email.RawRef, filename)
		_, cards, unparsed, err := s.processPDFContent(ctx, sourceRef, att.Content)
		if err != nil {
			fmt.Printf("  attachment %s failed: %v\n", filename, err)
			continue
		}
		result.Orders++
		result.Cards += cards
		result.Unparsed += unparsed
	}

	status := "processed"
	if result.Orders == 0 {
		status = "skipped"
	}
	if err := s.db.UpdateEmailStatus(email.ID, status); err != nil {
		return ProcessResult{}, err
	}

	return result, nil
}

// ProcessPDFFile parses a slip PDF straight from disk, bypassing the mail
// intake. Returns the stored order.
func (s *ProcessingService) ProcessPDFFile(ctx context.Context, path string) (internal.OrderRow, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return internal.OrderRow{}, err
	}
	orderID, _, _, err := s.processPDFContent(ctx, path, content)
	if err != nil {
		return internal.OrderRow{}, err
	}
	return s.db.MustOrderByID(orderID)
}

// EnrichOrder re-runs enrichment over an already stored order.
func (s *ProcessingService) EnrichOrder(ctx context.Context, orderID int) (enrich.Stats, error) {
	if s.enricher == nil {
		return enrich.Stats{}, fmt.Errorf("no enricher configured")
	}
	cards, err := s.db.GetOrderCards(orderID)
	if err != nil {
		return enrich.Stats{}, err
	}
	stats, err := s.enricher.EnrichCards(ctx, cards)
	if err != nil {
		return stats, err
	}
	if err := s.db.ReplaceOrderCards(orderID, cards); err != nil {
		return stats, err
	}
	return stats, s.db.UpdateOrderStatus(orderID, "enriched")
}

func (s *ProcessingService) processPDFContent(ctx context.Context, sourceRef string, content []byte) (int, int, int, error) {
	hashBytes := sha256.Sum256(content)
	hash := hex.EncodeToString(hashBytes[:])

	outcome, orderNumber, err := s.parser.ParsePDF(content)
	if err != nil {
		return 0, 0, 0, err
	}
	if len(outcome.Cards) == 0 {
		return 0, 0, 0, fmt.Errorf("no line items found in %s", sourceRef)
	}

	fmt.Printf("Parsed %d line items from %s\n", len(outcome.Cards), sourceRef)
	for _, u := range outcome.Unparsed {
		fmt.Printf("  could not parse line %d: %s\n", u.Position, u.Text)
	}

	status := "parsed"
	if s.enricher != nil {
		stats, err := s.enricher.EnrichCards(ctx, outcome.Cards)
		if err != nil {
			return 0, 0, 0, err
		}
		fmt.Printf("Enriched %d/%d cards (%d cached, %d not found)\n", stats.Found, stats.Total, stats.Cached, stats.Failed)
		for _, name := range stats.FailedNames {
			fmt.Printf("  not found: %s\n", name)
		}
		status = "enriched"
	}

	order, err := s.db.UpsertOrder(sourceRef, orderNumber, hash, status)
	if err != nil {
		return 0, 0, 0, err
	}
	if err := s.db.ReplaceOrderCards(order.ID, outcome.Cards); err != nil {
		return 0, 0, 0, err
	}
	if err := s.db.UpdateOrderStatus(order.ID, status); err != nil {
		return 0, 0, 0, err
	}

	return order.ID, len(outcome.Cards), len(outcome.Unparsed), nil
}
