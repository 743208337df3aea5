// internal/common/camunda/job.go
package camunda

import (
	"context"

	"chore-workers/internal/common/errors"
	"chore-workers/internal/common/validation"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

// DecodeVariables validates the job variables against schema and decodes
// them into v. Failures are INVALID_JOB_INPUT errors.
func DecodeVariables(job entities.Job, schema validation.JSONSchema, v interface{}) error {
	raw := job.GetVariables()
	if raw == "" {
		raw = "{}"
	}
	if err := validation.DecodeInto([]byte(raw), schema, v); err != nil {
		return errors.NewInvalidJobInputError(err.Error())
	}
	return nil
}

// CompleteJob completes job with output as its variables, retrying transient
// broker failures.
func CompleteJob(ctx context.Context, client worker.JobClient, job entities.Job, output interface{}, rc *RetryConfig) error {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.GetKey()).
		VariablesFromObject(output)
	if err != nil {
		return errors.NewInternalError(err)
	}

	return Retry(ctx, rc, "complete-job", func(ctx context.Context) error {
		_, err := cmd.Send(ctx)
		return err
	})
}
