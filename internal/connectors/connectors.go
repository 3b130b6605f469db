package connectors

import "github.com/ascreamingweas/tcgplayer-order-parser/internal"

// MailConnector fetches order-notification emails from one mailbox provider.
// Implementations filter to the marketplace sender so unrelated mail never
// enters the pipeline.
type MailConnector interface {
	FetchInbox(label string, max int) ([]internal.FetchedMailMessage, error)
}
