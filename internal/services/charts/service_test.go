package charts

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/internal/testutil"
	"github.com/Ramsey-B/fern/pkg/charts"
)

type fakeRepo struct {
	timestamps []time.Time
	err        error
	formID     *int64
}

func (f *fakeRepo) CreatedAtBetween(_ context.Context, formID *int64, _, _ time.Time) ([]time.Time, error) {
	f.formID = formID
	return f.timestamps, f.err
}

func newTestService(t *testing.T, repo EntryRepository) *Service {
	t.Helper()
	service, err := NewService(Config{}, repo, testutil.Logger())
	require.NoError(t, err)
	service.now = func() time.Time { return time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC) }
	return service
}

func TestEntriesData(t *testing.T) {
	formID := int64(4)
	repo := &fakeRepo{timestamps: []time.Time{
		time.Date(2024, 3, 2, 8, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 2, 9, 0, 0, 0, time.UTC),
	}}
	service := newTestService(t, repo)

	resp := service.EntriesData(context.Background(), charts.Request{StartDate: "2024-3-1", EndDate: "2024-3-2", FormID: &formID})
	require.Empty(t, resp.Error)
	assert.Equal(t, charts.ScaleDay, resp.Scale)
	assert.Equal(t, "ltr", resp.Orientation)
	assert.NotNil(t, resp.Formats)
	assert.Equal(t, [][]any{{"2024-03-01", 0}, {"2024-03-02", 2}}, resp.DataTable.Rows)
	assert.Equal(t, &formID, repo.formID)
}

func TestEntriesDataReportsErrors(t *testing.T) {
	service := newTestService(t, &fakeRepo{err: errors.New("boom")})

	resp := service.EntriesData(context.Background(), charts.Request{DateRange: charts.RangeLast7Days})
	assert.Equal(t, "boom", resp.Error)
	assert.Nil(t, resp.DataTable)

	resp = service.EntriesData(context.Background(), charts.Request{DateRange: "yesterday"})
	assert.NotEmpty(t, resp.Error)

	resp = service.EntriesData(context.Background(), charts.Request{StartDate: "2024-3-9", EndDate: "2024-3-1"})
	assert.NotEmpty(t, resp.Error)
}

func TestNewServiceRejectsUnknownTimezone(t *testing.T) {
	_, err := NewService(Config{Timezone: "Mars/Olympus"}, &fakeRepo{}, testutil.Logger())
	assert.Error(t, err)
}
