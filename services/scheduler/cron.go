package schedsvc

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"

	"github.com/sitepass/sitepass/core"
	"github.com/sitepass/sitepass/core/visitor"
)

// OvertimeScheduler fires the overtime sweep once per day at the configured
// cutoff, in the site's local time zone. The sweep itself stays callable
// on demand; this only owns the timer.
type OvertimeScheduler struct {
	cron   *cron.Cron
	spec   string
	svc    *visitor.Service
	logger core.Logger
}

func NewOvertimeScheduler(svc *visitor.Service, logger core.Logger, conf *core.Config) (*OvertimeScheduler, error) {
	loc, err := conf.Site.Location()
	if err != nil {
		return nil, err
	}
	hour, minute, err := conf.Site.CutoffClock()
	if err != nil {
		return nil, err
	}

	sched := &OvertimeScheduler{
		cron:   cron.New(cron.WithLocation(loc)),
		spec:   CutoffSpec(hour, minute),
		svc:    svc,
		logger: logger,
	}
	if _, err = sched.cron.AddFunc(sched.spec, sched.run); err != nil {
		return nil, err
	}
	return sched, nil
}

// CutoffSpec builds the daily cron expression for an HH:MM cutoff.
func CutoffSpec(hour, minute int) string {
	return fmt.Sprintf("%d %d * * *", minute, hour)
}

func (s *OvertimeScheduler) Start() {
	s.cron.Start()
	s.logger.Info(fmt.Sprintf("overtime sweep scheduled (%s)", s.spec))
}

// Stop halts the timer; the returned context is done once any running
// sweep has finished.
func (s *OvertimeScheduler) Stop() context.Context {
	return s.cron.Stop()
}

func (s *OvertimeScheduler) run() {
	summary, err := s.svc.OvertimeSweep(context.Background())
	if err != nil {
		s.logger.Error(fmt.Sprintf("overtime sweep: %v", err), err)
		return
	}
	s.logger.Info(fmt.Sprintf(
		"overtime sweep completed: %d on site, %d notified, %d failed",
		summary.VisitorsFound, summary.NotificationsSent, summary.Failures))
}
