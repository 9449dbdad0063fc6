package consolidation

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/clover/pkg/analytics"
	"github.com/Ramsey-B/clover/pkg/consolidate"
	clovererrors "github.com/Ramsey-B/clover/pkg/errors"
	"github.com/Ramsey-B/clover/pkg/kafka"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/output"
	"github.com/Ramsey-B/clover/pkg/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	caract    = "Num_Acc;an;mois;jour;hrmn;lum;atm;col;agg;lat;long;dep;com\n1;2024;3;15;1830;1;1;3;2;48,8566;2,3522;75;75056\n2;2024;6;1;0830;1;1;3;2;;;13;13055\n"
	lieux     = "Num_Acc;catr;surf;prof;plan;vma;nbv\n1;3;2;1;1;50;2\n2;3;1;1;1;80;2\n"
	usagers   = "Num_Acc;id_usager;catu;grav;sexe;an_nais\n1;u1;1;2;1;1980\n1;u2;2;4;2;2000\n2;u3;1;1;1;1990\n"
	vehicules = "Num_Acc;id_vehicule;catv\n1;v1;7\n2;v2;7\n"
)

type fakeStore struct {
	manifest  *output.Manifest
	accidents []models.ConsolidatedAccident
	err       error
}

func (s *fakeStore) SaveRun(_ context.Context, manifest *output.Manifest, accidents []models.ConsolidatedAccident) error {
	if s.err != nil {
		return s.err
	}
	s.manifest, s.accidents = manifest, accidents
	return nil
}

type fakePublisher struct {
	events  []*kafka.RunEvent
	records int
	err     error
}

func (p *fakePublisher) PublishEvent(_ context.Context, event *kafka.RunEvent) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

func (p *fakePublisher) PublishRecords(_ context.Context, _ string, _ int, accidents []models.ConsolidatedAccident, _, _ string) error {
	if p.err != nil {
		return p.err
	}
	p.records += len(accidents)
	return nil
}

type fakeLocker struct {
	keys []string
}

func (l *fakeLocker) WithLock(_ context.Context, key string, _ time.Duration, fn func() error) error {
	l.keys = append(l.keys, key)
	return fn()
}

type fakePrimer struct {
	kpis map[string]analytics.KPIs
	err  error
}

func (p *fakePrimer) Prime(_ context.Context, runID string, kpis analytics.KPIs) error {
	if p.err != nil {
		return p.err
	}
	p.kpis[runID] = kpis
	return nil
}

func newRequest(t *testing.T) (Request, string) {
	t.Helper()
	in, out := t.TempDir(), t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(in, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		return path
	}
	return Request{
		Year: 2024,
		Files: consolidate.Files{
			Characteristics: write("caract-2024.csv", caract),
			Locations:       write("lieux-2024.csv", lieux),
			Persons:         write("usagers-2024.csv", usagers),
			Vehicles:        write("vehicules-2024.csv", vehicules),
		},
		Table:      table.DefaultOptions(),
		Pipeline:   consolidate.DefaultConfig(),
		SampleSize: 1,
		SampleSeed: 42,
	}, out
}

func newService(out string, sinks Sinks) *Service {
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	return NewService(logger, output.NewWriter(logger, out), sinks)
}

func TestRunWithoutSinks(t *testing.T) {
	req, out := newRequest(t)

	manifest, err := newService(out, Sinks{}).Run(context.Background(), req)
	require.NoError(t, err)

	assert.NotEmpty(t, manifest.RunID)
	assert.Equal(t, 2, manifest.Stats.Accidents)
	assert.Equal(t, 1, manifest.Sample.Rows)
	assert.False(t, manifest.FinishedAt.Before(manifest.StartedAt))
	assert.FileExists(t, manifest.Outputs.Consolidated)
	assert.FileExists(t, manifest.Outputs.Sample)

	written, err := output.ReadManifest(filepath.Join(out, output.ManifestFile))
	require.NoError(t, err)
	assert.Equal(t, manifest.RunID, written.RunID)
}

func TestRunFeedsSinks(t *testing.T) {
	req, out := newRequest(t)
	store := &fakeStore{}
	publisher := &fakePublisher{}
	locker := &fakeLocker{}
	primer := &fakePrimer{kpis: map[string]analytics.KPIs{}}

	manifest, err := newService(out, Sinks{
		Store:          store,
		Publisher:      publisher,
		PublishRecords: true,
		RecordTopic:    "records",
		Locker:         locker,
		Summaries:      primer,
	}).Run(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, manifest.RunID, store.manifest.RunID)
	assert.Len(t, store.accidents, 2)
	assert.Equal(t, []string{"persist:2024"}, locker.keys)
	assert.Equal(t, 1, primer.kpis[manifest.RunID].Killed)
	assert.Equal(t, 2, publisher.records)

	require.Len(t, publisher.events, 1)
	event := publisher.events[0]
	assert.Equal(t, kafka.EventConsolidationCompleted, event.Type)
	assert.Equal(t, "records", event.RecordTopic)
	assert.Equal(t, 2, event.Stats.Accidents)
}

func TestRunFailures(t *testing.T) {
	tests := []struct {
		name          string
		breakInput    bool
		store         *fakeStore
		publisher     *fakePublisher
		expectedStage string
		failureEvent  bool
	}{
		{
			name:          "missing input",
			breakInput:    true,
			publisher:     &fakePublisher{},
			expectedStage: clovererrors.StageIngest,
			failureEvent:  true,
		},
		{
			name:          "database down",
			store:         &fakeStore{err: errors.New("connection refused")},
			publisher:     &fakePublisher{},
			expectedStage: clovererrors.StagePersist,
			failureEvent:  true,
		},
		{
			name:          "broker down",
			publisher:     &fakePublisher{err: errors.New("broker down")},
			expectedStage: clovererrors.StagePublish,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			req, out := newRequest(t)
			if test.breakInput {
				req.Files.Vehicles = filepath.Join(out, "absent.csv")
			}
			sinks := Sinks{Publisher: test.publisher}
			if test.store != nil {
				sinks.Store = test.store
			}

			_, err := newService(out, sinks).Run(context.Background(), req)
			var stageErr *clovererrors.StageError
			require.ErrorAs(t, err, &stageErr)
			assert.Equal(t, test.expectedStage, stageErr.Stage)

			if test.failureEvent {
				require.Len(t, test.publisher.events, 1)
				assert.Equal(t, kafka.EventConsolidationFailed, test.publisher.events[0].Type)
				assert.Equal(t, test.expectedStage, test.publisher.events[0].Stage)
			} else {
				assert.Empty(t, test.publisher.events)
			}
		})
	}
}

func TestPrimeFailureIsNotFatal(t *testing.T) {
	req, out := newRequest(t)
	_, err := newService(out, Sinks{
		Store:     &fakeStore{},
		Summaries: &fakePrimer{err: errors.New("redis down")},
	}).Run(context.Background(), req)
	assert.NoError(t, err)
}
