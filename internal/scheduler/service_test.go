package scheduler

import (
	"testing"

	"github.com/sentitrack/sentitrack/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type noopJobs struct{}

func (noopJobs) RunCollection() error { return nil }
func (noopJobs) RunAnalysis() error   { return nil }
func (noopJobs) RunDigest() error     { return nil }

func TestDigestExpression(t *testing.T) {
	assert.Equal(t, "0 0 9 * * *", DigestExpression("daily"))
	assert.Equal(t, "0 0 9 * * MON", DigestExpression("weekly"))
	assert.Equal(t, "0 0 9 * * MON", DigestExpression(""))
}

func TestService_Start(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.Config
		entries int
		wantErr bool
	}{
		{
			name:    "both jobs",
			cfg:     config.Config{EnableAnalysis: true, AnalysisSchedule: "0 */15 * * * *", EnableDigest: true, ReportSchedule: "daily"},
			entries: 2,
		},
		{
			name: "all three jobs",
			cfg: config.Config{
				EnableCollection: true, CollectionSchedule: "0 5 * * * *",
				EnableAnalysis: true, AnalysisSchedule: "0 */15 * * * *",
				EnableDigest: true, ReportSchedule: "weekly",
			},
			entries: 3,
		},
		{
			name:    "bad collection schedule",
			cfg:     config.Config{EnableCollection: true, CollectionSchedule: "hourly-ish"},
			wantErr: true,
		},
		{
			name:    "analysis only",
			cfg:     config.Config{EnableAnalysis: true, AnalysisSchedule: "0 */15 * * * *"},
			entries: 1,
		},
		{
			name:    "nothing enabled",
			cfg:     config.Config{},
			entries: 0,
		},
		{
			name:    "bad analysis schedule",
			cfg:     config.Config{EnableAnalysis: true, AnalysisSchedule: "every so often"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg
			svc := NewService(&cfg, noopJobs{})
			err := svc.Start()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			defer svc.Stop()
			assert.Equal(t, tt.entries, svc.Entries())
		})
	}
}
