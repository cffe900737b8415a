package domain

import "time"

// RetentionPolicy governs how long events of one category stay in active
// storage, when they become eligible for archival, and when they become
// eligible for deletion. Policies are static configuration.
type RetentionPolicy struct {
	Category     EventCategory
	Retention    time.Duration // full retention period
	ArchiveAfter time.Duration // time until archival eligibility
	DeleteAfter  time.Duration // time until deletion eligibility
}

// ArchiveCutoff returns the date before which events are archival-eligible.
func (p RetentionPolicy) ArchiveCutoff(now time.Time) time.Time {
	return now.Add(-p.ArchiveAfter)
}

// DeleteCutoff returns the date before which events are deletion-eligible.
// Deletion itself is handled outside this subsystem; the boundary only needs
// to be computable.
func (p RetentionPolicy) DeleteCutoff(now time.Time) time.Time {
	return now.Add(-p.DeleteAfter)
}

const day = 24 * time.Hour

// DefaultRetentionPolicies returns the regulatory retention schedule used when
// no deployment-specific policies are supplied. PHI-adjacent categories keep
// six years of history; operational categories keep two.
func DefaultRetentionPolicies() []RetentionPolicy {
	return []RetentionPolicy{
		{Category: CategoryDataAccess, Retention: 6 * 365 * day, ArchiveAfter: 365 * day, DeleteAfter: 6 * 365 * day},
		{Category: CategoryDataModification, Retention: 6 * 365 * day, ArchiveAfter: 365 * day, DeleteAfter: 6 * 365 * day},
		{Category: CategoryAuthentication, Retention: 2 * 365 * day, ArchiveAfter: 180 * day, DeleteAfter: 2 * 365 * day},
		{Category: CategorySystemOperation, Retention: 2 * 365 * day, ArchiveAfter: 180 * day, DeleteAfter: 2 * 365 * day},
		{Category: CategorySecurityEvent, Retention: 6 * 365 * day, ArchiveAfter: 365 * day, DeleteAfter: 6 * 365 * day},
		{Category: CategoryAdministrative, Retention: 2 * 365 * day, ArchiveAfter: 180 * day, DeleteAfter: 2 * 365 * day},
	}
}

// ArchiveCutoffFor returns the archival cutoff applied to whole segments.
// Segments mix categories, so a segment is archived only once the slowest
// category's archival eligibility has passed.
func ArchiveCutoffFor(policies []RetentionPolicy, now time.Time) time.Time {
	var longest time.Duration
	for _, p := range policies {
		if p.ArchiveAfter > longest {
			longest = p.ArchiveAfter
		}
	}
	return now.Add(-longest)
}
