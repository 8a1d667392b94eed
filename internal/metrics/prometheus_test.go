/*-------------------------------------------------------------------------
 *
 * prometheus_test.go
 *    Tests for the Prometheus metrics surface
 *
 * Copyright (c) 2024-2026, Perch Labs, Inc. <support@perchlabs.ai>
 *
 * IDENTIFICATION
 *    PerchAgent/internal/metrics/prometheus_test.go
 *
 *-------------------------------------------------------------------------
 */

package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestPendingApprovalsGaugeFollowsStoreCount(t *testing.T) {
	SetPendingApprovals(4)
	assert.Equal(t, 4.0, testutil.ToFloat64(pendingApprovals))

	/* enqueue and decision counters must not move the gauge; only a
	 * store count does, so a restart cannot drive it negative */
	RecordEnqueue("post", "queued")
	RecordDecision("post", "approved")
	RecordDecision("post", "rejected")
	assert.Equal(t, 4.0, testutil.ToFloat64(pendingApprovals))

	SetPendingApprovals(0)
	assert.Equal(t, 0.0, testutil.ToFloat64(pendingApprovals))
}
