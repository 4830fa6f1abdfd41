package main

import (
	"testing"
	"time"

	"github.com/sitepass/sitepass/core"
	"github.com/sitepass/sitepass/core/staff"
	"github.com/sitepass/sitepass/core/visitor"
	emailsvc "github.com/sitepass/sitepass/services/email"
	dummydb "github.com/sitepass/sitepass/storage/database/dummy"
)

type fixedClock struct {
	now time.Time
}

func (c *fixedClock) Now() time.Time { return c.now }

type nopLogger struct{}

func (nopLogger) Enable(bool)                  {}
func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

func setup(t *testing.T) *commandLine {
	t.Helper()

	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}
	conf := &core.Config{
		AppName:  "SitePass",
		Env:      "TEST",
		TestMode: true,
		Training: core.TrainingConfig{VideoThreshold: 90},
		Site:     core.SiteConfig{Timezone: "UTC", OvertimeCutoff: "17:30"},
	}
	svc := visitor.NewService(
		dummydb.NewVisitorRepository(db),
		emailsvc.NewConsoleServiceMock(conf),
		staff.NewDirectory(nil),
		&fixedClock{now: time.Date(2021, 3, 1, 9, 0, 0, 0, time.UTC)},
		nopLogger{},
		conf,
	)
	return &commandLine{visSvc: svc}
}

type cliTest struct {
	name    string
	args    []string // without program name
	wantErr error
}

func Test_commandLine_run(t *testing.T) {
	cli := setup(t)

	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "sweep", args: []string{"sweep"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			if err := cli.run(args); err != tt.wantErr {
				t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
