package logging

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldUserID     = "user_id"
	FieldTelegramID = "telegram_id"
	FieldTaskID     = "task_id"
	FieldCommand    = "command"
	FieldCallback   = "callback"
	FieldDay        = "day"
	FieldMonth      = "month"
	FieldError      = "error"
	FieldCount      = "count"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentBot       = "bot"
	ComponentStorage   = "storage"
	ComponentScheduler = "scheduler"
	ComponentImporter  = "importer"
	ComponentMetrics   = "metrics"
)
