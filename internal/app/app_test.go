package app

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/gradebook/internal/cli"
	"github.com/noah-isme/gradebook/internal/models"
	"github.com/noah-isme/gradebook/internal/service"
	"github.com/noah-isme/gradebook/pkg/config"
	"github.com/noah-isme/gradebook/pkg/database"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	cfg := &config.Config{
		Database: config.DatabaseConfig{Driver: config.DriverSQLite, Path: database.MemoryPath, AutoMigrate: true},
	}
	a, err := New(context.Background(), cfg, nil)
	require.NoError(t, err)
	t.Cleanup(a.Close)
	return a
}

func TestNewWiresServicesWithoutRedis(t *testing.T) {
	a := newTestApp(t)
	assert.Nil(t, a.Redis)
	assert.False(t, a.Cache.Enabled())

	ctx := context.Background()
	group, err := a.Groups.Create(ctx, service.GroupRequest{Name: "Group A"})
	require.NoError(t, err)

	_, _, err = a.Students.Create(ctx, service.StudentRequest{Name: "Anna", GroupID: group.ID})
	require.NoError(t, err)

	students, err := a.Queries.StudentsInGroup(ctx, "Group A")
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, "Anna", students[0].Name)

	snapshot := a.Metrics.Snapshot()
	assert.Equal(t, uint64(1), snapshot.Mutations["group.create"])
}

func TestCLIServicesDriveRunner(t *testing.T) {
	a := newTestApp(t)

	opts, err := cli.Parse([]string{"-a", "create", "-m", "Group", "--name", "Group A"}, &bytes.Buffer{})
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, cli.NewRunner(a.CLIServices(), &out, nil).Run(context.Background(), opts))
	assert.Contains(t, out.String(), "Group A")

	h := a.Handlers()
	assert.NotNil(t, h.Metrics)
	assert.NotNil(t, h.Queries)
}

func TestWireFallsBackToMemoryCache(t *testing.T) {
	base := newTestApp(t)
	a := Wire(base.DB, nil, config.QueriesConfig{MemoryCacheSize: 8}, nil)
	require.True(t, a.Cache.Enabled())

	ctx := context.Background()
	_, err := a.Queries.OverallAverage(ctx)
	require.NoError(t, err)
	_, err = a.Queries.OverallAverage(ctx)
	require.NoError(t, err)

	snapshot := a.Metrics.Snapshot()
	assert.Equal(t, uint64(1), snapshot.CacheHits)
	assert.Equal(t, uint64(1), snapshot.CacheMisses)
}

func TestReportsPipelineRendersExport(t *testing.T) {
	a := newTestApp(t)
	require.NoError(t, a.EnableReports(config.ReportConfig{
		Dir:           t.TempDir(),
		SigningSecret: "secret",
		ResultTTL:     time.Hour,
		Workers:       1,
	}, "/api/v1"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	a.Reports.Start(ctx, zap.NewNop())

	group, err := a.Groups.Create(ctx, service.GroupRequest{Name: "Group A"})
	require.NoError(t, err)
	_, _, err = a.Students.Create(ctx, service.StudentRequest{Name: "Anna", GroupID: group.ID})
	require.NoError(t, err)

	job, err := a.Reports.Service.CreateJob(ctx, service.ReportRequest{Format: "CSV"})
	require.NoError(t, err)
	assert.Equal(t, models.ReportFormatCSV, job.Params.Format)

	require.Eventually(t, func() bool {
		current, err := a.Reports.Service.GetStatus(ctx, job.ID)
		return err == nil && current.Status == models.ReportStatusFinished
	}, 5*time.Second, 20*time.Millisecond)

	current, err := a.Reports.Service.GetStatus(ctx, job.ID)
	require.NoError(t, err)
	require.NotNil(t, current.ResultURL)
	assert.Contains(t, *current.ResultURL, "/api/v1/reports/download/")
	assert.NotNil(t, a.Handlers().Reports)
}

func TestDefaultCacheSeesWritesFromAnotherProcess(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gradebook.db")
	open := func() *App {
		db, err := database.Open(context.Background(), config.DatabaseConfig{Driver: config.DriverSQLite, Path: path, AutoMigrate: true})
		require.NoError(t, err)
		a := Wire(db, nil, config.QueriesConfig{CacheTTL: 5 * time.Minute}, nil)
		t.Cleanup(a.Close)
		return a
	}
	api := open()
	writer := open()
	require.False(t, api.Cache.Enabled())

	ctx := context.Background()
	group, err := writer.Groups.Create(ctx, service.GroupRequest{Name: "Group A"})
	require.NoError(t, err)
	student, _, err := writer.Students.Create(ctx, service.StudentRequest{Name: "Anna", GroupID: group.ID})
	require.NoError(t, err)
	subject, err := writer.Subjects.Create(ctx, service.SubjectRequest{Name: "Math"})
	require.NoError(t, err)

	addGrade := func(value int) {
		_, err := writer.Grades.Create(ctx, service.CreateGradeRequest{StudentID: student.ID, SubjectID: subject.ID, Grade: &value})
		require.NoError(t, err)
	}
	addGrade(80)

	avg, err := api.Queries.OverallAverage(ctx)
	require.NoError(t, err)
	require.NotNil(t, avg)
	assert.InDelta(t, 80, *avg, 0.001)

	addGrade(100)

	avg, err = api.Queries.OverallAverage(ctx)
	require.NoError(t, err)
	require.NotNil(t, avg)
	assert.InDelta(t, 90, *avg, 0.001)
}
