package enums

// OutboxEventType enumerates the domain events written to the outbox.
type OutboxEventType string

const (
	EventCashbackDistributed   OutboxEventType = "cashback.distributed"
	EventCashbackConfigUpdated OutboxEventType = "cashback.config_updated"
)

// OutboxAggregateType names the aggregate an outbox row belongs to.
type OutboxAggregateType string

const (
	AggregatePurchase     OutboxAggregateType = "purchase"
	AggregateTenantConfig OutboxAggregateType = "tenant_config"
)

// OutboxDLQErrorReason classifies why a row was parked in the DLQ.
type OutboxDLQErrorReason string

const (
	OutboxDLQReasonNonRetryable OutboxDLQErrorReason = "non_retryable"
	OutboxDLQReasonMaxAttempts  OutboxDLQErrorReason = "max_attempts"
)
