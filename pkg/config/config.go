package config

// this holds the resolved configuration values from CLI
//
//nolint:lll // readablity
var (
	LogLevel          string // sets the log level (zap log level values)
	LogFormat         string // text vs json
	LogFilter         string // zapfilter rules, e.g. "*:info debug:race.*"
	EnableTelemetry   bool   // enable telemetry
	TelemetryEndpoint string // endpoint for telemetry (host:port or "stdout")
	WaitForServices   string // duration to wait for other services to be ready
	CatalogFile       string // yaml file with teams, drivers and circuits (empty: built-in)
	NatsURL           string // if set, race data is published to this nats server
	DB                string // if set, classifications are archived in this postgres database
	SQLLogLevel       string // log level for sql statements
)
