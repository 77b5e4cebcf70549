package docsync

import (
	config "mspmon/internal/config/domain"
)

// Company is an asset-management company record.
type Company struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// MatchCompany finds the company whose name matches the entry description.
// Exact case-insensitive matches win over substring ones.
func MatchCompany(companies []Company, entry *config.Entry) (Company, bool) {
	if entry == nil {
		return Company{}, false
	}
	var partial Company
	var havePartial bool
	for _, company := range companies {
		if config.EqualNames(company.Name, entry.Description) {
			return company, true
		}
		if !havePartial && config.MatchNames(company.Name, entry.Description) {
			partial = company
			havePartial = true
		}
	}
	return partial, havePartial
}
