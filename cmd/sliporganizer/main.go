package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ascreamingweas/tcgplayer-order-parser/internal/config"
	"github.com/ascreamingweas/tcgplayer-order-parser/internal/connectors"
	gmailconnector "github.com/ascreamingweas/tcgplayer-order-parser/internal/connectors/gmail"
	imapconnector "github.com/ascreamingweas/tcgplayer-order-parser/internal/connectors/imap"
	"github.com/ascreamingweas/tcgplayer-order-parser/internal/enrich"
	"github.com/ascreamingweas/tcgplayer-order-parser/internal/listener"
	"github.com/ascreamingweas/tcgplayer-order-parser/internal/pipeline"
	"github.com/ascreamingweas/tcgplayer-order-parser/internal/report"
	"github.com/ascreamingweas/tcgplayer-order-parser/internal/scryfall"
	"github.com/ascreamingweas/tcgplayer-order-parser/internal/slip"
	"github.com/ascreamingweas/tcgplayer-order-parser/internal/storage"
)

func main() {
	cfg, err := config.Load()
	must(err)

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	db, err := storage.Open(cfg.DBPath)
	must(err)
	defer db.Close()

	ctx := context.Background()

	cmd := os.Args[1]
	switch cmd {
	case "sets:sync":
		svc := scryfall.NewSyncService(db, cfg)
		setMap, err := svc.Sync(ctx)
		must(err)
		fmt.Printf("set sync complete: %d sets\n", len(setMap.Names))
	case "parse":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		input := fs.String("input", "", "packing slip pdf path")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*input) == "" {
			must(fmt.Errorf("--input is required"))
		}
		processor := pipeline.NewProcessingService(db, cfg, makeParser(ctx, db, cfg), nil)
		order, err := processor.ProcessPDFFile(ctx, *input)
		must(err)
		fmt.Printf("parsed order id=%d number=%s status=%s\n", order.ID, order.OrderNumber, order.Status)
	case "enrich":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		orderID := fs.Int("orderId", 0, "internal order id")
		_ = fs.Parse(os.Args[2:])
		if *orderID == 0 {
			must(fmt.Errorf("--orderId is required"))
		}
		processor, err := makeFullProcessor(ctx, db, cfg)
		must(err)
		stats, err := processor.EnrichOrder(ctx, *orderID)
		must(err)
		fmt.Printf("enriched order id=%d found=%d cached=%d failed=%d\n", *orderID, stats.Found, stats.Cached, stats.Failed)
	case "run":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		input := fs.String("input", "", "packing slip pdf path")
		output := fs.String("output", "", "output html path (default under OUTPUT_DIR)")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*input) == "" {
			must(fmt.Errorf("--input is required"))
		}
		processor, err := makeFullProcessor(ctx, db, cfg)
		must(err)
		order, err := processor.ProcessPDFFile(ctx, *input)
		must(err)
		cards, err := db.GetOrderCards(order.ID)
		must(err)

		outputPath := *output
		if outputPath == "" {
			base := strings.TrimSuffix(filepath.Base(*input), filepath.Ext(*input))
			outputPath = filepath.Join(cfg.OutputDir, base+"_organized.html")
		}
		must(report.WriteHTMLReport(cards, order.OrderNumber, outputPath))
		fmt.Printf("run done order=%s cards=%d output=%s\n", order.OrderNumber, len(cards), outputPath)
	case "report:html":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		orderID := fs.Int("orderId", 0, "internal order id")
		out := fs.String("out", "", "output html path")
		_ = fs.Parse(os.Args[2:])
		if *orderID == 0 || strings.TrimSpace(*out) == "" {
			must(fmt.Errorf("--orderId and --out are required"))
		}
		order, err := db.MustOrderByID(*orderID)
		must(err)
		cards, err := db.GetOrderCards(order.ID)
		must(err)
		if len(cards) == 0 {
			must(fmt.Errorf("no cards for orderId=%d", *orderID))
		}
		must(report.WriteHTMLReport(cards, order.OrderNumber, *out))
		fmt.Printf("wrote pull sheet for order=%s to %s\n", order.OrderNumber, *out)
	case "export:xlsx":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		orderID := fs.Int("orderId", 0, "internal order id")
		out := fs.String("out", "", "output xlsx path")
		_ = fs.Parse(os.Args[2:])
		if *orderID == 0 || strings.TrimSpace(*out) == "" {
			must(fmt.Errorf("--orderId and --out are required"))
		}
		rows, err := db.GetExportRows(*orderID)
		must(err)
		if len(rows) == 0 {
			must(fmt.Errorf("no export rows for orderId=%d", *orderID))
		}
		must(report.ExportRowsToXLSX(rows, *out))
		fmt.Printf("exported %d rows to %s\n", len(rows), *out)
	case "mail:fetch":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		provider := fs.String("provider", "imap", "gmail|imap")
		label := fs.String("label", "INBOX", "mailbox/label")
		max := fs.Int("max", 50, "max messages")
		_ = fs.Parse(os.Args[2:])
		conn, err := makeConnector(cfg, *provider)
		must(err)
		fetch := connectors.NewFetchService(db, cfg.RawMailDir, conn)
		result, err := fetch.FetchAndStore(*label, *max)
		must(err)
		fmt.Printf("mail fetch done provider=%s fetched=%d stored=%d skipped=%d\n", *provider, result.Fetched, result.Stored, result.Skipped)
	case "mail:process":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		provider := fs.String("provider", "imap", "gmail|imap")
		messageID := fs.String("messageId", "", "specific message-id")
		batch := fs.Int("batch", 20, "batch size")
		_ = fs.Parse(os.Args[2:])
		processor, err := makeFullProcessor(ctx, db, cfg)
		must(err)
		if strings.TrimSpace(*messageID) != "" {
			res, err := processor.ProcessByProviderMessageID(ctx, *provider, *messageID)
			must(err)
			fmt.Printf("processed email id=%d orders=%d cards=%d\n", res.EmailID, res.Orders, res.Cards)
			return
		}
		processedEmails, processedOrders, err := processor.ProcessPending(ctx, *batch, *provider)
		must(err)
		fmt.Printf("processed pending emails=%d orders=%d\n", processedEmails, processedOrders)
	case "mail:listen":
		s := listener.NewService(db, cfg)
		must(s.Run(ctx))
	default:
		usage()
		os.Exit(1)
	}
}

// makeParser loads the cached set mapping when one exists so the splitter
// recognizes set names beyond the built-in list. Parsing still works without
// it.
func makeParser(ctx context.Context, db *storage.DB, cfg config.Config) *slip.Parser {
	syncService := scryfall.NewSyncService(db, cfg)
	setMap, err := syncService.LoadSetMap(ctx, false)
	if err != nil {
		fmt.Printf("set sync unavailable, using built-in set list: %v\n", err)
		return slip.NewParser(nil)
	}
	return slip.NewParser(slip.NewPrefixTable(setMap.CollapsedNames()...))
}

func makeFullProcessor(ctx context.Context, db *storage.DB, cfg config.Config) (*pipeline.ProcessingService, error) {
	syncService := scryfall.NewSyncService(db, cfg)
	setMap, err := syncService.LoadSetMap(ctx, false)
	if err != nil {
		return nil, err
	}
	parser := slip.NewParser(slip.NewPrefixTable(setMap.CollapsedNames()...))
	enricher := enrich.NewEnricher(scryfall.NewClient(cfg), setMap, db)
	return pipeline.NewProcessingService(db, cfg, parser, enricher), nil
}

func makeConnector(cfg config.Config, provider string) (connectors.MailConnector, error) {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "gmail":
		return gmailconnector.NewConnector(cfg)
	case "imap":
		return imapconnector.NewConnector(cfg)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}
}

func usage() {
	fmt.Println("usage: sliporganizer <command>")
	fmt.Println("commands:")
	fmt.Println("  sets:sync")
	fmt.Println("  parse --input=./slip.pdf")
	fmt.Println("  enrich --orderId=1")
	fmt.Println("  run --input=./slip.pdf [--output=./out/slip_organized.html]")
	fmt.Println("  report:html --orderId=1 --out=./out/pullsheet.html")
	fmt.Println("  export:xlsx --orderId=1 --out=./out/order.xlsx")
	fmt.Println("  mail:fetch --provider=gmail|imap --label=INBOX --max=50")
	fmt.Println("  mail:process --provider=gmail|imap [--messageId=...] [--batch=20]")
	fmt.Println("  mail:listen")
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
