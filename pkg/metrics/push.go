package metrics

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// JobName is the Pushgateway job label used for generator runs.
const JobName = "checkpointgen"

// Push sends everything in gatherer to the Pushgateway at url, replacing the
// metrics previously pushed for the same job. Generator runs are short-lived,
// so the final state is pushed once the run ends.
func Push(ctx context.Context, url string, gatherer prometheus.Gatherer) error {
	err := push.New(url, JobName).
		Gatherer(gatherer).
		PushContext(ctx)
	if err != nil {
		return fmt.Errorf("push metrics to %s: %w", url, err)
	}
	return nil
}
