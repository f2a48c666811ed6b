package log

// Common field names for structured logging
const (
	FieldComponent = "component"
	FieldRequestID = "request_id"
	FieldClientIP  = "client_ip"
	FieldMethod    = "method"
	FieldPath      = "path"
	FieldStatus    = "status"
	FieldDuration  = "duration_ms"
	FieldError     = "error"
	FieldKey       = "key"
	FieldRecordID  = "record_id"
	FieldAmount    = "amount"
	FieldCategory  = "category"
	FieldDay       = "day"
	FieldCount     = "count"
	FieldBackend   = "backend"
)

// Components defines standard component names
const (
	ComponentApp    = "app"
	ComponentHTTP   = "http"
	ComponentLedger = "ledger"
	ComponentKV     = "kv"
	ComponentAMQP   = "amqp"
	ComponentWorker = "worker"
	ComponentExport = "export"
)
