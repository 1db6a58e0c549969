package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/99minutos/user-directory/internal/core/domain"
)

func TestOutcome(t *testing.T) {
	assert.Equal(t, OutcomeOK, Outcome(nil))
	assert.Equal(t, OutcomeValidation, Outcome(domain.NewValidationError("email", "bad")))
	assert.Equal(t, OutcomeNotFound, Outcome(domain.NewUserNotFound("x")))
	assert.Equal(t, OutcomeConflict, Outcome(domain.NewConflictError("username", "x")))
	assert.Equal(t, OutcomeError, Outcome(errors.New("boom")))
}

func TestObserveOperation(t *testing.T) {
	before := testutil.ToFloat64(UserOperationsTotal.WithLabelValues("metrics_test_op", OutcomeConflict))

	ObserveOperation("metrics_test_op", time.Now(), domain.NewConflictError("email", "a@b.io"))

	after := testutil.ToFloat64(UserOperationsTotal.WithLabelValues("metrics_test_op", OutcomeConflict))
	assert.Equal(t, before+1, after)
}
