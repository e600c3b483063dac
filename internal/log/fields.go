package log

// Common field names for structured logging
const (
	FieldComponent = "component"
	FieldError     = "error"
	FieldOperation = "operation"
	FieldCategory  = "category"
	FieldCount     = "count"
	FieldDuration  = "duration_ms"
	FieldChannel   = "channel"
	FieldDedupeKey = "dedupe_key"
	FieldBackend   = "backend"
)

// Components defines standard component names
const (
	ComponentApp          = "app"
	ComponentIntelligence = "intelligence"
	ComponentAnomaly      = "anomaly"
	ComponentRecurring    = "recurring"
	ComponentForecast     = "forecast"
	ComponentEfficiency   = "efficiency"
	ComponentDuplicate    = "duplicate"
	ComponentCooldown     = "cooldown"
	ComponentGoal         = "goal"
	ComponentSummary      = "summary"
	ComponentNotifier     = "notifier"
	ComponentScheduler    = "scheduler"
	ComponentStorage      = "storage"
	ComponentBackup       = "backup"
)
