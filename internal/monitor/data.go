package monitor

import (
	"time"

	"github.com/marcus/tasksync/internal/syncclient"
)

// FetchData polls the server's health and metrics endpoints. A health failure
// is reported as Err but a metrics failure on its own is not fatal: the
// dashboard keeps showing the last good snapshot.
func FetchData(client *syncclient.Client) RefreshDataMsg {
	msg := RefreshDataMsg{Timestamp: time.Now()}

	health, err := client.HealthCheck()
	if err != nil {
		msg.Err = err
		return msg
	}
	msg.Health = health

	metrics, err := client.Metrics()
	if err != nil {
		return msg
	}
	msg.Metrics = metrics

	return msg
}
