package schedsvc

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sitepass/sitepass/core"
	"github.com/sitepass/sitepass/core/visitor"
)

type nopLogger struct{}

func (nopLogger) Enable(bool)                  {}
func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

func TestCutoffSpec(t *testing.T) {
	assert.Equal(t, "30 17 * * *", CutoffSpec(17, 30))
	assert.Equal(t, "0 0 * * *", CutoffSpec(0, 0))
	assert.Equal(t, "5 9 * * *", CutoffSpec(9, 5))
}

func TestNewOvertimeScheduler(t *testing.T) {
	conf := &core.Config{
		Site: core.SiteConfig{Timezone: "America/Chicago", OvertimeCutoff: "17:30"},
	}
	svc := &visitor.Service{}

	sched, err := NewOvertimeScheduler(svc, nopLogger{}, conf)
	if err != nil {
		t.Fatalf("NewOvertimeScheduler() failed: %v", err)
	}
	assert.Equal(t, "30 17 * * *", sched.spec)

	conf.Site.Timezone = "Mars/Olympus"
	if _, err = NewOvertimeScheduler(svc, nopLogger{}, conf); err == nil {
		t.Error("NewOvertimeScheduler() expected an error for unknown time zone")
	}

	conf.Site.Timezone = "UTC"
	conf.Site.OvertimeCutoff = "25:00"
	if _, err = NewOvertimeScheduler(svc, nopLogger{}, conf); err == nil {
		t.Error("NewOvertimeScheduler() expected an error for out-of-range cutoff")
	}
}
