package telemetry

import (
	"context"
	"slices"
	"strings"

	"github.com/grafana/pyroscope-go"
)

// Profiling label keys
const (
	ProfilingLabelController = "controller"
	ProfilingLabelRoute      = "route"
	ProfilingLabelMethod     = "method"
	ProfilingLabelSchoolID   = "school_id"
	ProfilingLabelOperation  = "operation"
)

// Ledger operations used as the operation label
const (
	OperationCollectPayment    = "collect_payment"
	OperationApproveRefund     = "approve_refund"
	OperationApproveAdjustment = "approve_adjustment"
	OperationMarkOverdue       = "mark_overdue"
	OperationCreateStudentFees = "create_student_fees"
	OperationCollectionReport  = "collection_report"
	OperationDuesReport        = "dues_report"
	OperationRenderReceipt     = "render_receipt"
)

// MaxLabelValueLength caps label values
const MaxLabelValueLength = 128

// Labels with one value per request or document are dropped; Pyroscope
// keeps a series per distinct label set.
var highCardinalityLabels = []string{
	"user_id", "request_id", "receipt_number", "invoice_number", "trace_id", "span_id",
}

// WithProfilingLabels runs fn with pprof labels attached, so samples taken
// inside fn can be filtered by them in Pyroscope. labels is not retained.
func WithProfilingLabels(ctx context.Context, labels map[string]string, fn func(context.Context)) {
	pairs := sanitizeLabels(labels)
	if len(pairs) == 0 {
		fn(ctx)
		return
	}
	pyroscope.TagWrapper(ctx, pyroscope.Labels(pairs...), fn)
}

// HTTPRequestLabels labels a request by handler, route, method and school.
// Empty values are left out.
func HTTPRequestLabels(controller, route, method, tenantID string) map[string]string {
	return nonEmpty(map[string]string{
		ProfilingLabelController: controller,
		ProfilingLabelRoute:      route,
		ProfilingLabelMethod:     method,
		ProfilingLabelSchoolID:   tenantID,
	})
}

// FeeOperationLabels labels a ledger operation for one school
func FeeOperationLabels(operation, tenantID string) map[string]string {
	return nonEmpty(map[string]string{
		ProfilingLabelOperation: operation,
		ProfilingLabelSchoolID:  tenantID,
	})
}

func nonEmpty(labels map[string]string) map[string]string {
	for k, v := range labels {
		if v == "" {
			delete(labels, k)
		}
	}
	return labels
}

// sanitizeLabels flattens labels into sorted key, value pairs with snake_case
// keys, dropping empty and high-cardinality entries and truncating values.
func sanitizeLabels(labels map[string]string) []string {
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	pairs := make([]string, 0, len(labels)*2)
	for _, k := range keys {
		v := labels[k]
		key := sanitizeLabelKey(k)
		if key == "" || v == "" || slices.Contains(highCardinalityLabels, key) {
			continue
		}
		if len(v) > MaxLabelValueLength {
			v = v[:MaxLabelValueLength]
		}
		pairs = append(pairs, key, v)
	}
	return pairs
}

func sanitizeLabelKey(key string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(key) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		case r == ' ' || r == '-':
			b.WriteByte('_')
		}
	}
	return b.String()
}
