package updater

import (
	"context"

	"github.com/robfig/cron/v3"

	"github.com/webcore-dev/webcore/internal/apperr"
	"github.com/webcore-dev/webcore/internal/crashreport"
)

// Scheduler runs periodic background update checks on a cron expression —
// a supplemented feature the distilled spec leaves to "startup or demand"
// but a long-running desktop app benefits from checking while idle too.
type Scheduler struct {
	cron *cron.Cron
	id   cron.EntryID
}

// StartBackgroundChecks schedules u.Check to run on expr (standard 5-field
// cron syntax), invoking onResult with whatever Check returns. Panics
// inside the check are recovered via crashreport.Guard so a malformed
// cron-triggered check never takes down the process.
func (u *Updater) StartBackgroundChecks(expr string, onResult func(*UpdateInfo, error)) (*Scheduler, error) {
	c := cron.New()
	id, err := c.AddFunc(expr, func() {
		crashreport.Guard("updater-cron", func() {
			info, err := u.Check(context.Background())
			if onResult != nil {
				onResult(info, err)
			}
		})
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUpdateCheck, "invalid update check schedule", err)
	}
	c.Start()
	return &Scheduler{cron: c, id: id}, nil
}

// Stop halts the background schedule. Safe to call more than once.
func (s *Scheduler) Stop() {
	if s == nil || s.cron == nil {
		return
	}
	s.cron.Remove(s.id)
	s.cron.Stop()
}
