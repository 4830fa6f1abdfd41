package main

import (
	"context"
	"fmt"
)

func (cli *commandLine) sweep() error {
	summary, err := cli.visSvc.OvertimeSweep(context.Background())
	if err != nil {
		return err
	}
	fmt.Printf(
		"sweep done: %d on site, %d notified, %d failed\n",
		summary.VisitorsFound, summary.NotificationsSent, summary.Failures,
	)
	return nil
}
