package log

// Common field names for structured logging
const (
	FieldComponent     = "component"
	FieldRequestID     = "request_id"
	FieldClientIP      = "client_ip"
	FieldMethod        = "method"
	FieldPath          = "path"
	FieldStatusCode    = "status_code"
	FieldDuration      = "duration_ms"
	FieldError         = "error"
	FieldOperation     = "operation"
	FieldTransactionID = "transaction_id"
	FieldCaption       = "caption"
	FieldAmount        = "amount"
	FieldType          = "type"
	FieldSnapshotSize  = "snapshot_size"
	FieldBackend       = "backend"
)

// Components defines standard component names
const (
	ComponentApp    = "app"
	ComponentHTTP   = "http"
	ComponentStore  = "store"
	ComponentView   = "view"
	ComponentReport = "report"
	ComponentRelay  = "relay"
)

// Operations defines standard operation names
const (
	OpCreate    = "create"
	OpUpdate    = "update"
	OpDelete    = "delete"
	OpSubscribe = "subscribe"
	OpRender    = "render"
	OpExport    = "export"
	OpStartup   = "startup"
	OpShutdown  = "shutdown"
)
