package config

const (
	defaultIntakeDir              = "~/production/ink_coverage"
	defaultStateDir               = "~/.local/share/inkflow"
	defaultLogDir                 = "~/.local/share/inkflow/logs"
	defaultExtension              = ".xml"
	defaultRetainPolicy           = RetainDelete
	defaultPollInterval           = 30
	defaultDocumentTimeout        = 120
	defaultLPICeiling             = 85
	defaultNoProofMarker          = "nojdf"
	defaultDatabaseDriver         = DriverSQLite
	defaultDatabaseFile           = "catalog.db"
	defaultPingTimeout            = 5
	defaultMaxOpenConns           = 4
	defaultNtfyServer             = "https://ntfy.sh"
	defaultFailureList            = "artists"
	defaultErrorList              = "support"
	defaultNotifyRequestTimeout   = 10
	defaultProofListKey           = "inkflow:proof_requests"
	defaultRedisAddr              = "127.0.0.1:6379"
	defaultArchivePrefix          = "ink-coverage"
	defaultLogFormat              = "console"
	defaultLogLevel               = "info"
	defaultLogRetentionDays       = 60
	defaultProcessedRetentionDays = 30
)

// Retain policies for successfully processed documents.
const (
	RetainDelete  = "delete"
	RetainKeep    = "retain"
	RetainArchive = "archive"
)

// Catalog drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Strategy names accepted in [reconcile.workflows].
const (
	StrategyReplaceAll    = "replace_all"
	StrategyStrictSimple  = "strict_simple"
	StrategyStrictAliased = "strict_aliased"
)

func defaultWorkflows() map[string]string {
	return map[string]string{
		"Foodservice": StrategyReplaceAll,
		"Beverage":    StrategyStrictSimple,
		"Carton":      StrategyStrictAliased,
	}
}

func defaultExcludedSizes() []string {
	return []string{"pmrp", "pmrk", "ptrpc", "ptrpt", "ptrpw"}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			IntakeDir: defaultIntakeDir,
			StateDir:  defaultStateDir,
			LogDir:    defaultLogDir,
		},
		Intake: Intake{
			Extension:              defaultExtension,
			RetainPolicy:           defaultRetainPolicy,
			ProcessedRetentionDays: defaultProcessedRetentionDays,
			PollInterval:           defaultPollInterval,
		},
		Pipeline: Pipeline{
			DocumentTimeout: defaultDocumentTimeout,
			RecoverOnStart:  true,
		},
		Reconcile: Reconcile{
			Workflows:     defaultWorkflows(),
			LPICeiling:    defaultLPICeiling,
			ExcludedSizes: defaultExcludedSizes(),
			NoProofMarker: defaultNoProofMarker,
		},
		Database: Database{
			Driver:       defaultDatabaseDriver,
			PingTimeout:  defaultPingTimeout,
			MaxOpenConns: defaultMaxOpenConns,
		},
		Notifications: Notifications{
			Server:         defaultNtfyServer,
			Lists:          map[string]string{},
			FailureList:    defaultFailureList,
			ErrorList:      defaultErrorList,
			RequestTimeout: defaultNotifyRequestTimeout,
			ParseFailures:  true,
		},
		Proof: Proof{
			RedisAddr: defaultRedisAddr,
			ListKey:   defaultProofListKey,
		},
		Archive: Archive{
			Prefix: defaultArchivePrefix,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
