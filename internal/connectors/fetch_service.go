package connectors

import (
	"github.com/ascreamingweas/tcgplayer-order-parser/internal/storage"
)

// FetchService pulls order emails from a connector and archives the new ones.
type FetchService struct {
	db        *storage.DB
	connector MailConnector
	store     *MailStoreService
}

type FetchResult struct {
	Fetched int
	Stored  int
	Skipped int
}

func NewFetchService(db *storage.DB, rawMailDir string, connector MailConnector) *FetchService {
	return &FetchService{
		db:        db,
		connector: connector,
		store:     NewMailStoreService(db, rawMailDir),
	}
}

// FetchAndStore downloads up to max messages from the label and stores the
// ones not already archived. Messages seen before are skipped so repeated
// polls never re-queue a slip.
func (s *FetchService) FetchAndStore(label string, max int) (FetchResult, error) {
	messages, err := s.connector.FetchInbox(label, max)
	if err != nil {
		return FetchResult{}, err
	}

	result := FetchResult{Fetched: len(messages)}
	for _, msg := range messages {
		existing, err := s.db.GetEmailByProviderMessageID(msg.Provider, msg.MessageID)
		if err != nil {
			return FetchResult{}, err
		}
		if existing != nil {
			result.Skipped++
			continue
		}
		if _, err := s.store.Store(msg); err != nil {
			return FetchResult{}, err
		}
		result.Stored++
	}

	return result, nil
}
