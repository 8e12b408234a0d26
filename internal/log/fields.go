package log

// Common field names for structured logging
const (
	FieldComponent      = "component"
	FieldRequestID      = "request_id"
	FieldMethod         = "method"
	FieldPath           = "path"
	FieldStatusCode     = "status_code"
	FieldDuration       = "duration_ms"
	FieldError          = "error"
	FieldOperation      = "operation"
	FieldGroup          = "group"
	FieldPayer          = "payer"
	FieldMember         = "member"
	FieldActivity       = "activity"
	FieldAmount         = "amount"
	FieldSplitMode      = "split_mode"
	FieldContributionID = "contribution_id"
	FieldSheetsRef      = "sheets_ref"
)

// Components defines standard component names
const (
	ComponentApp     = "app"
	ComponentHTTP    = "http"
	ComponentLedger  = "ledger"
	ComponentStorage = "storage"
	ComponentAMQP    = "amqp"
	ComponentWorker  = "worker"
	ComponentSheets  = "sheets"
	ComponentGroup   = "group"
)

// Operations defines standard operation names
const (
	OpPost     = "post"
	OpRead     = "read"
	OpCreate   = "create"
	OpVerify   = "verify"
	OpSync     = "sync"
	OpStartup  = "startup"
	OpShutdown = "shutdown"
)
