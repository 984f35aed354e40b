package log

// Common field names for structured logging.
const (
	FieldComponent   = "component"
	FieldMethod      = "method"
	FieldPath        = "path"
	FieldStatusCode  = "status_code"
	FieldDuration    = "duration_ms"
	FieldError       = "error"
	FieldOperation   = "operation"
	FieldCategory    = "category"
	FieldSheet       = "sheet"
	FieldBackend     = "backend"
	FieldRecordCount = "record_count"
	FieldRowCount    = "row_count"
	FieldDegraded    = "degraded"
	FieldPersonID    = "person_id"
	FieldMonth       = "month"
	FieldAmount      = "amount"
)

// Components defines standard component names.
const (
	ComponentApp      = "app"
	ComponentHTTP     = "http"
	ComponentPayments = "payments"
	ComponentSource   = "source"
	ComponentStorage  = "storage"
	ComponentAMQP     = "amqp"
	ComponentWorker   = "worker"
	ComponentCache    = "cache"
)

// Operations defines standard operation names.
const (
	OpFetch     = "fetch"
	OpNormalize = "normalize"
	OpSubmit    = "submit"
	OpRefresh   = "refresh"
	OpStartup   = "startup"
	OpShutdown  = "shutdown"
)
