package models

import "time"

// PortfolioSync links one Portfolio Manager account to the organizations allowed to use it.
type PortfolioSync struct {
	AccountID      string    `json:"account_id" bson:"account_id"`
	Username       string    `json:"username" bson:"username"`
	Email          string    `json:"email" bson:"email"`
	OrgsWithAccess []string  `json:"orgs_with_access" bson:"orgs_with_access"`
	UpdatedAt      time.Time `json:"updated_at" bson:"updated_at"`
}

func (p *PortfolioSync) GrantAccess(orgID string) {
	for _, org := range p.OrgsWithAccess {
		if org == orgID {
			return
		}
	}
	p.OrgsWithAccess = append(p.OrgsWithAccess, orgID)
}
