package jobs

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	jobmetrics "github.com/odyssey-erp/odyssey-books/internal/jobs"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskGLIntegrity scans posted vouchers for unbalanced or orphaned postings.
	TaskGLIntegrity = "books:gl_integrity"
	// TaskAvailabilitySync recomputes product and variant availability from balances.
	TaskAvailabilitySync = "books:availability_sync"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

var taskNamespace = uuid.MustParse("6f1c7d0e-3b7a-5f7e-9a55-0d2b9c4e8a11")

// TenantPayload scopes a job run. TenantID 0 runs the job for every tenant.
type TenantPayload struct {
	TenantID int64 `json:"tenant_id,omitempty"`
}

// NewGLIntegrityTask constructs the ledger integrity task.
func NewGLIntegrityTask(tenantID int64) (*asynq.Task, error) {
	return newTenantTask(TaskGLIntegrity, tenantID)
}

// NewAvailabilitySyncTask constructs the availability resync task.
func NewAvailabilitySyncTask(tenantID int64) (*asynq.Task, error) {
	return newTenantTask(TaskAvailabilitySync, tenantID)
}

func newTenantTask(taskType string, tenantID int64) (*asynq.Task, error) {
	body, err := json.Marshal(TenantPayload{TenantID: tenantID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(taskType, body, asynq.Queue(QueueDefault), asynq.MaxRetry(3)), nil
}

// TaskID derives a stable id for a job, tenant and window so that manual
// triggers within the same window enqueue once.
func TaskID(taskType string, tenantID int64, window time.Time) string {
	name := fmt.Sprintf("%s:%d:%s", taskType, tenantID, window.UTC().Format(time.RFC3339))
	return uuid.NewSHA1(taskNamespace, []byte(name)).String()
}

func decodeTenantPayload(t *asynq.Task) (TenantPayload, error) {
	var payload TenantPayload
	if len(t.Payload()) == 0 {
		return payload, nil
	}
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return payload, fmt.Errorf("decode %s payload: %v: %w", t.Type(), err, asynq.SkipRetry)
	}
	return payload, nil
}
