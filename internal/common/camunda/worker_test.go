// internal/common/camunda/worker_test.go
package camunda

import (
	stderrors "errors"
	"strings"
	"testing"

	"investor-match-workers/internal/common/logger"
	"investor-match-workers/internal/common/observability"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingHandler struct {
	keys []int64
	err  error
}

func (h *recordingHandler) Handle(_ worker.JobClient, job entities.Job) error {
	h.keys = append(h.keys, job.Key)
	return h.err
}

func TestInstrumentCallsHandler(t *testing.T) {
	h := &recordingHandler{err: stderrors.New("already failed")}
	fn := Instrument("rank-investors", h, nil, logger.NewTestLogger(t))

	fn(nil, entities.Job{ActivatedJob: &pb.ActivatedJob{Key: 42, Type: "rank-investors"}})

	assert.Equal(t, []int64{42}, h.keys)
}

func TestInstrumentRecordsJobOutcome(t *testing.T) {
	reg := promclient.NewRegistry()
	obs := observability.NewWithOptions("test", observability.Options{Registerer: reg})
	defer obs.Shutdown()

	job := entities.Job{ActivatedJob: &pb.ActivatedJob{Key: 7, Type: "select-top-matches"}}
	Instrument("select-top-matches", &recordingHandler{}, obs, logger.NewTestLogger(t))(nil, job)
	Instrument("select-top-matches", &recordingHandler{err: stderrors.New("thrown")}, obs, logger.NewTestLogger(t))(nil, job)

	families, err := reg.Gather()
	require.NoError(t, err)

	statuses := map[string]float64{}
	for _, f := range families {
		if !strings.HasPrefix(f.GetName(), "jobs_processed") {
			continue
		}
		for _, m := range f.GetMetric() {
			labels := map[string]string{}
			for _, l := range m.GetLabel() {
				labels[l.GetName()] = l.GetValue()
			}
			assert.Equal(t, "select-top-matches", labels["taskType"])
			statuses[labels["status"]] += m.GetCounter().GetValue()
		}
	}
	assert.Equal(t, map[string]float64{"completed": 1, "failed": 1}, statuses)
}

func TestStopNilWorker(t *testing.T) {
	var w *Worker
	w.Stop()
}
