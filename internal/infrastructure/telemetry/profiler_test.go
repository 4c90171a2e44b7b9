package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewProfiler_Disabled(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	p, err := NewProfiler(ProfilerConfig{Enabled: false}, zap.New(core))
	require.NoError(t, err)

	assert.False(t, p.IsEnabled())
	assert.Equal(t, 1, logs.FilterMessage("Continuous profiling disabled, using no-op profiler").Len())

	require.NoError(t, p.Stop())
	require.NoError(t, p.Stop())
}

func TestNewProfiler_Validation(t *testing.T) {
	tests := []struct {
		name string
		cfg  ProfilerConfig
		msg  string
	}{
		{
			name: "missing server address",
			cfg:  ProfilerConfig{Enabled: true, ApplicationName: "aigate"},
			msg:  "server address",
		},
		{
			name: "missing application name",
			cfg:  ProfilerConfig{Enabled: true, ServerAddress: "http://localhost:4040"},
			msg:  "application name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewProfiler(tt.cfg, zap.NewNop())
			require.Error(t, err)
			assert.Nil(t, p)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestPyroscopeLogger(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := newPyroscopeLogger(zap.New(core))

	l.Infof("uploaded %d profiles", 3)
	l.Debugf("tick")
	l.Errorf("upload failed: %s", "timeout")

	require.Equal(t, 3, logs.Len())
	assert.Equal(t, "uploaded 3 profiles", logs.All()[0].Message)
	assert.Equal(t, "pyroscope", logs.All()[0].LoggerName)
	assert.Equal(t, "upload failed: timeout", logs.All()[2].Message)
}
