package listener

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/ascreamingweas/tcgplayer-order-parser/internal/config"
	"github.com/ascreamingweas/tcgplayer-order-parser/internal/connectors"
	gmailconnector "github.com/ascreamingweas/tcgplayer-order-parser/internal/connectors/gmail"
	imapconnector "github.com/ascreamingweas/tcgplayer-order-parser/internal/connectors/imap"
	"github.com/ascreamingweas/tcgplayer-order-parser/internal/enrich"
	"github.com/ascreamingweas/tcgplayer-order-parser/internal/pipeline"
	"github.com/ascreamingweas/tcgplayer-order-parser/internal/report"
	"github.com/ascreamingweas/tcgplayer-order-parser/internal/scryfall"
	"github.com/ascreamingweas/tcgplayer-order-parser/internal/slip"
	"github.com/ascreamingweas/tcgplayer-order-parser/internal/storage"
)

// Service polls a mailbox for new order emails, parses any attached packing
// slips, and writes a pull sheet for every order it completes.
type Service struct {
	db  *storage.DB
	cfg config.Config
}

func NewService(db *storage.DB, cfg config.Config) *Service {
	return &Service{db: db, cfg: cfg}
}

func (s *Service) Run(ctx context.Context) error {
	for {
		if err := s.runCycle(ctx); err != nil {
			fmt.Printf("listener cycle error: %v\n", err)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(time.Duration(s.cfg.MailListenerIntervalSec) * time.Second):
		}
	}
}

func (s *Service) runCycle(ctx context.Context) error {
	provider := strings.ToLower(strings.TrimSpace(s.cfg.MailListenerProvider))
	mailConnector, err := s.makeConnector(provider)
	if err != nil {
		return err
	}

	fetchService := connectors.NewFetchService(s.db, s.cfg.RawMailDir, mailConnector)
	fetchResult, err := fetchService.FetchAndStore(s.cfg.MailListenerLabel, s.cfg.MailListenerFetchMax)
	if err != nil {
		return err
	}

	processor, err := s.makeProcessor(ctx)
	if err != nil {
		return err
	}
	processedEmails, orders, err := processor.ProcessPending(ctx, s.cfg.MailListenerProcessBatch, provider)
	if err != nil {
		return err
	}

	if s.cfg.MailListenerAutoReport {
		if err := s.reportEnriched(); err != nil {
			return err
		}
	}

	fmt.Printf("listener cycle done provider=%s fetched=%d stored=%d skipped=%d emails=%d orders=%d\n",
		provider, fetchResult.Fetched, fetchResult.Stored, fetchResult.Skipped, processedEmails, orders)
	return nil
}

// makeProcessor wires the full parse and enrich stack for one cycle. The set
// map sync is cached on disk, so repeated cycles stay cheap.
func (s *Service) makeProcessor(ctx context.Context) (*pipeline.ProcessingService, error) {
	syncService := scryfall.NewSyncService(s.db, s.cfg)
	setMap, err := syncService.LoadSetMap(ctx, false)
	if err != nil {
		return nil, err
	}

	parser := slip.NewParser(slip.NewPrefixTable(setMap.CollapsedNames()...))
	enricher := enrich.NewEnricher(scryfall.NewClient(s.cfg), setMap, s.db)
	return pipeline.NewProcessingService(s.db, s.cfg, parser, enricher), nil
}

// reportEnriched writes a pull sheet for every enriched order that has none
// yet, then advances the order to reported.
func (s *Service) reportEnriched() error {
	orders, err := s.db.ListOrders(200)
	if err != nil {
		return err
	}

	for _, order := range orders {
		if order.Status != "enriched" {
			continue
		}
		cards, err := s.db.GetOrderCards(order.ID)
		if err != nil {
			return err
		}
		if len(cards) == 0 {
			continue
		}

		filename := fmt.Sprintf("order_%d.html", order.ID)
		if order.OrderNumber != "" {
			filename = fmt.Sprintf("order_%d_%s.html", order.ID, sanitizeFilename(order.OrderNumber))
		}
		outputPath := filepath.Join(s.cfg.OutputDir, "listener", filename)
		if err := report.WriteHTMLReport(cards, order.OrderNumber, outputPath); err != nil {
			return err
		}
		fmt.Printf("wrote pull sheet %s\n", outputPath)
		_ = s.db.UpdateOrderStatus(order.ID, "reported")
	}
	return nil
}

func (s *Service) makeConnector(provider string) (connectors.MailConnector, error) {
	switch provider {
	case "gmail":
		return gmailconnector.NewConnector(s.cfg)
	case "imap":
		return imapconnector.NewConnector(s.cfg)
	default:
		return nil, fmt.Errorf("unsupported listener provider: %s", provider)
	}
}

func sanitizeFilename(input string) string {
	repl := strings.NewReplacer("<", "_", ">", "_", ":", "_", "/", "_", "\\", "_", "|", "_", "?", "_", "*", "_", " ", "_")
	out := repl.Replace(input)
	if len(out) > 120 {
		out = out[:120]
	}
	return out
}
