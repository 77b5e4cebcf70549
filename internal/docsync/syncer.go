package docsync

import (
	"context"
	"errors"
	"log"

	config "mspmon/internal/config/domain"
)

// CompanyAPI is the slice of the documentation platform the syncer needs.
type CompanyAPI interface {
	ListCompanies(ctx context.Context) ([]Company, error)
	PushFacts(ctx context.Context, companyID string, facts ServiceFacts) error
}

// Syncer pushes per-customer monitoring facts to the documentation platform.
type Syncer struct {
	api    CompanyAPI
	store  config.Store
	logger *log.Logger
}

// NewSyncer constructs a Syncer.
func NewSyncer(api CompanyAPI, store config.Store, logger *log.Logger) (*Syncer, error) {
	if api == nil {
		return nil, errors.New("docsync: nil api")
	}
	if store == nil {
		return nil, errors.New("docsync: nil store")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Syncer{api: api, store: store, logger: logger}, nil
}

// Sync matches every customer entry to a company and pushes its service
// facts. Unmatched entries are logged and skipped, not failed.
func (s *Syncer) Sync(ctx context.Context) error {
	entries, err := s.store.List(ctx)
	if err != nil {
		return err
	}
	companies, err := s.api.ListCompanies(ctx)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		company, ok := MatchCompany(companies, entry)
		if !ok {
			s.logger.Printf("docsync: no company match for customer %q", entry.Description)
			continue
		}
		facts := ServiceFacts{
			BackupMonitored:       entry.MonitorBackup,
			EndpointsMonitored:    entry.MonitorEndpoints,
			ConnectivityMonitored: entry.MonitorConnectivity,
			TicketsEnabled:        entry.CreateTicket,
		}
		if err := s.api.PushFacts(ctx, company.ID, facts); err != nil {
			s.logger.Printf("docsync: push facts for %q: %v", entry.Description, err)
		}
	}
	return nil
}
