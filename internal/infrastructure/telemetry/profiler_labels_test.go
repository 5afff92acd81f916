package telemetry

import (
	"context"
	"runtime/pprof"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeLabels(t *testing.T) {
	got := sanitizeLabels(map[string]string{
		"Route":          "/api/v1/finance/payments",
		"tenant-id":      "3f2a",
		"request_id":     "req-1",
		"Receipt Number": "KV-RCP0001",
		"empty":          "",
		"!!!":            "dropped",
		"operation":      strings.Repeat("x", MaxLabelValueLength+10),
	})
	// ordered by the original key
	assert.Equal(t, []string{
		"route", "/api/v1/finance/payments",
		"operation", strings.Repeat("x", MaxLabelValueLength),
		"tenant_id", "3f2a",
	}, got)
}

func TestSanitizeLabelKey(t *testing.T) {
	assert.Equal(t, "fee_structure", sanitizeLabelKey("Fee-Structure"))
	assert.Equal(t, "class_10", sanitizeLabelKey("class 10"))
	assert.Equal(t, "", sanitizeLabelKey("@#"))
}

func TestHTTPRequestLabels_OmitsEmpty(t *testing.T) {
	assert.Equal(t, map[string]string{
		ProfilingLabelController: "payments",
		ProfilingLabelMethod:     "POST",
	}, HTTPRequestLabels("payments", "", "POST", ""))
}

func TestFeeOperationLabels(t *testing.T) {
	assert.Equal(t, map[string]string{
		ProfilingLabelOperation: OperationCollectPayment,
		ProfilingLabelSchoolID:  "school-1",
	}, FeeOperationLabels(OperationCollectPayment, "school-1"))
	assert.Len(t, FeeOperationLabels(OperationMarkOverdue, ""), 1)
}

func TestWithProfilingLabels_AttachesPprofLabels(t *testing.T) {
	var op, user string
	var opOK, userOK bool
	WithProfilingLabels(context.Background(),
		map[string]string{ProfilingLabelOperation: OperationApproveRefund, "user_id": "u-1"},
		func(ctx context.Context) {
			op, opOK = pprof.Label(ctx, ProfilingLabelOperation)
			user, userOK = pprof.Label(ctx, "user_id")
		})
	assert.True(t, opOK)
	assert.Equal(t, OperationApproveRefund, op)
	assert.False(t, userOK, user)
}

func TestWithProfilingLabels_NoLabels(t *testing.T) {
	called := false
	WithProfilingLabels(context.Background(), nil, func(ctx context.Context) {
		called = true
		_, ok := pprof.Label(ctx, ProfilingLabelOperation)
		assert.False(t, ok)
	})
	assert.True(t, called)
}
