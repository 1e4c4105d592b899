package log

// Common field names for structured logging
const (
	FieldComponent     = "component"
	FieldRequestID     = "request_id"
	FieldClientIP      = "client_ip"
	FieldMethod        = "method"
	FieldPath          = "path"
	FieldQuery         = "query"
	FieldStatusCode    = "status_code"
	FieldDuration      = "duration_ms"
	FieldUserAgent     = "user_agent"
	FieldSuccess       = "success"
	FieldError         = "error"
	FieldOperation     = "operation"
	FieldYearMonth     = "year_month"
	FieldCardID        = "card_id"
	FieldConsumptionID = "consumption_id"
	FieldPurchaseID    = "purchase_id"
	FieldStatementID   = "statement_id"
	FieldDebtID        = "debt_id"
	FieldItemID        = "item_id"
	FieldItemKind      = "item_kind"
	FieldAmount        = "amount"
	FieldCurrency      = "currency"
	FieldInstallments  = "installments"
	FieldMarker        = "marker"
	FieldStep          = "step"
	FieldProvider      = "provider"
	FieldJob           = "job"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentAPI       = "api"
	ComponentCards     = "cards"
	ComponentDebts     = "debts"
	ComponentItems     = "items"
	ComponentMonths    = "months"
	ComponentAccrual   = "accrual"
	ComponentMigration = "migration"
	ComponentStorage   = "storage"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
	ComponentScheduler = "scheduler"
	ComponentSheets    = "sheets"
	ComponentFX        = "fx"
	ComponentCache     = "cache"
	ComponentCalendar  = "calendar"
)

// Operations defines standard operation names
const (
	OpCreate    = "create"
	OpRead      = "read"
	OpUpdate    = "update"
	OpDelete    = "delete"
	OpList      = "list"
	OpRecompute = "recompute"
	OpPay       = "pay"
	OpMigrate   = "migrate"
	OpExport    = "export"
	OpValidate  = "validate"
	OpParse     = "parse"
	OpShutdown  = "shutdown"
	OpStartup   = "startup"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

// WithComponent adds component field
func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

// WithClientIP adds client IP field
func (f LogFields) WithClientIP(ip string) LogFields {
	f[FieldClientIP] = ip
	return f
}

// WithError adds error field
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

// WithOperation adds operation field
func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithStatement adds the (card, closing month) pair identifying a statement
func (f LogFields) WithStatement(cardID, closingYM string) LogFields {
	f[FieldCardID] = cardID
	f[FieldYearMonth] = closingYM
	return f
}

// WithAmount adds amount and currency fields
func (f LogFields) WithAmount(amount float64, currency string) LogFields {
	f[FieldAmount] = amount
	if currency != "" {
		f[FieldCurrency] = currency
	}
	return f
}

// WithHTTPRequest adds HTTP request fields
func (f LogFields) WithHTTPRequest(method, path, query, userAgent string) LogFields {
	f[FieldMethod] = method
	f[FieldPath] = path
	f[FieldQuery] = query
	if userAgent != "" {
		f[FieldUserAgent] = userAgent
	}
	return f
}

// WithHTTPResponse adds HTTP response fields
func (f LogFields) WithHTTPResponse(statusCode int, durationMs int64, success bool) LogFields {
	f[FieldStatusCode] = statusCode
	f[FieldDuration] = durationMs
	f[FieldSuccess] = success
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
