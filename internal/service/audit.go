package service

import (
	"context"
	"crypto/sha256"
	"sort"

	"github.com/Hussein-Mazeh/passvault/auth"
	"github.com/Hussein-Mazeh/passvault/internal/vault"
)

// BreachFinding is an entry whose password appears in a breach corpus.
type BreachFinding struct {
	vault.Summary
	Count int
}

// AuditReport summarises password hygiene across the vault.
type AuditReport struct {
	Total int
	// Weak entries score below auth.StrongScore.
	Weak  []vault.Summary
	Stale []vault.Summary
	// Reused groups entries sharing one password, ordered by lowest id.
	Reused       [][]vault.Summary
	Breached     []BreachFinding
	BreachErrors int
}

// Audit decrypts every entry and reports weak, stale, reused and (when breach
// lookups are enabled) breached passwords. Entries deleted by another process
// while the audit runs are skipped.
func (s *Service) Audit(ctx context.Context) (*AuditReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.session.unlocked() {
		return nil, vault.LockedError()
	}

	list, err := s.db.SearchEntries(ctx, "", "")
	if err != nil {
		return nil, err
	}

	report := &AuditReport{}
	groups := make(map[[sha256.Size]byte][]vault.Summary)
	now := s.now()

	for _, sum := range list {
		e, err := s.getEntry(ctx, sum.ID)
		if err != nil {
			return nil, err
		}
		if e == nil {
			continue
		}
		report.Total++

		if auth.IsWeak(e.Password, e.Title, e.Username, e.URL) {
			report.Weak = append(report.Weak, sum)
		}
		if now.Sub(e.LastModified) > s.maxAge {
			report.Stale = append(report.Stale, sum)
		}

		digest := sha256.Sum256([]byte(e.Password))
		groups[digest] = append(groups[digest], sum)

		if s.breaches != nil {
			res, err := s.breaches.Check(ctx, e.Password)
			switch {
			case err != nil:
				report.BreachErrors++
				s.log.Warn(ctx, "breach lookup failed", "id", sum.ID, "error", err)
			case res.Found:
				report.Breached = append(report.Breached, BreachFinding{Summary: sum, Count: res.Count})
			}
		}
	}

	for _, g := range groups {
		if len(g) < 2 {
			continue
		}
		sort.Slice(g, func(i, j int) bool { return g[i].ID < g[j].ID })
		report.Reused = append(report.Reused, g)
	}
	sort.Slice(report.Reused, func(i, j int) bool { return report.Reused[i][0].ID < report.Reused[j][0].ID })

	s.log.Info(ctx, "audit finished",
		"entries", report.Total, "weak", len(report.Weak), "stale", len(report.Stale),
		"reused", len(report.Reused), "breached", len(report.Breached))
	return report, nil
}
