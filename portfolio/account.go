package portfolio

import (
	"context"
	"errors"
	"fmt"

	"pmsync/internal"
	"pmsync/models"
)

// LinkAccount accepts the pending connection and shares of a Portfolio Manager
// account and grants the organization access to it.
func (s *Service) LinkAccount(ctx context.Context, orgID, accountID string) (*models.PortfolioSync, error) {
	connections, err := s.client.PendingConnections(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing pending connections: %w", err)
	}
	for _, c := range connections {
		if c.AccountID != accountID {
			continue
		}
		if err = s.client.AcceptConnection(ctx, accountID); err != nil {
			return nil, fmt.Errorf("accepting connection: %w", err)
		}
	}

	properties, err := s.client.PendingPropertyShares(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing pending property shares: %w", err)
	}
	for _, p := range properties {
		if p.AccountID != "" && p.AccountID != accountID {
			continue
		}
		if err = s.client.AcceptPropertyShare(ctx, p.PropertyID); err != nil {
			s.warn(fmt.Sprintf("accept property share %s: %v", p.PropertyID, err))
		}
	}

	meters, err := s.client.PendingMeterShares(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing pending meter shares: %w", err)
	}
	for _, m := range meters {
		if m.AccountID != "" && m.AccountID != accountID {
			continue
		}
		if err = s.client.AcceptMeterShare(ctx, m.MeterID); err != nil {
			s.warn(fmt.Sprintf("accept meter share %s: %v", m.MeterID, err))
		}
	}

	username, email, err := s.client.GetCustomer(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("loading customer: %w", err)
	}

	link, err := s.repository.GetPortfolioSync(ctx, accountID)
	if errors.Is(err, internal.ErrNotFound) {
		link = &models.PortfolioSync{AccountID: accountID}
	} else if err != nil {
		return nil, err
	}
	link.Username = username
	link.Email = email
	link.GrantAccess(orgID)
	if err = s.repository.SavePortfolioSync(ctx, link); err != nil {
		return nil, fmt.Errorf("saving account link: %w", err)
	}
	s.event(featureLink, accountID, fmt.Sprintf("linked to organization %s as %s", orgID, username))
	return link, nil
}
