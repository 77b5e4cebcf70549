package application

import (
	alerting "mspmon/internal/alerting/domain"
)

// FilterUnreported prunes incidents already surfaced to the user out of the
// current cycle's aggregate and returns the replacement reported list.
//
// Every live incident id is added to the returned list before filtering, so
// an incident counts as "seen" the moment it is observed, not when a ticket
// is actually raised. Matching against the reported input accepts both the
// "{source}-{alertID}" form and legacy bare alert ids. Devices left without
// incidents are removed from the aggregate entirely.
//
// Ids of incidents that stopped recurring are carried over untouched; the
// returned list only ever grows until CompactReported is invoked.
func FilterUnreported(reported []string, current *alerting.CustomerAlerts) ([]string, int) {
	known := make(map[string]struct{}, len(reported))
	for _, id := range reported {
		known[id] = struct{}{}
	}

	kept := make([]string, 0, len(reported))
	seen := make(map[string]struct{}, len(reported))
	for _, id := range reported {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		kept = append(kept, id)
	}

	suppressed := 0
	if current == nil {
		return kept, 0
	}
	for device, byKey := range current.Devices {
		for key, incident := range byKey {
			id := incident.DedupID()
			if _, dup := seen[id]; !dup {
				seen[id] = struct{}{}
				kept = append(kept, id)
			}
			_, reportedFull := known[id]
			_, reportedBare := known[incident.Alert.ID]
			if reportedFull || reportedBare {
				delete(byKey, key)
				suppressed++
			}
		}
		if len(byKey) == 0 {
			delete(current.Devices, device)
		}
	}
	return kept, suppressed
}

// CompactReported drops reported ids whose incidents are no longer live.
// This is a deliberate, operator-triggered compaction: the tracker itself
// never removes ids, so a long-running install accumulates identifiers for
// incidents that silently stopped recurring.
func CompactReported(reported []string, current *alerting.CustomerAlerts) []string {
	live := make(map[string]struct{})
	if current != nil {
		for _, byKey := range current.Devices {
			for _, incident := range byKey {
				live[incident.DedupID()] = struct{}{}
				live[incident.Alert.ID] = struct{}{}
			}
		}
	}
	kept := make([]string, 0, len(reported))
	for _, id := range reported {
		if _, ok := live[id]; ok {
			kept = append(kept, id)
		}
	}
	return kept
}
