package constants

import "time"

// Job names accepted by `reaper run <job>`; also used as metric and log labels.
const (
	JobConsultationReq   = "consultation-req"
	JobDeletedAccount    = "deleted-account"
	JobPwdChangeReq      = "pwd-change-req"
	JobStoppedSettlement = "stopped-settlement"
	JobTempMfaSecret     = "temp-mfa-secret"
)

// Retention and expiry defaults. Each is overridable through config.
const (
	DefaultMinDurationBeforeConsultationAcceptance = 6 * time.Hour
	DefaultDeletedAccountRetentionDays             = 90
	DefaultPwdChangeReqTTLMinutes                  = 10
	DefaultInterRecordDelay                        = 1 * time.Second
	BusinessTimezone                               = "Asia/Tokyo"
)

// Payment platform
const (
	CreditReleaseReasonExpiredConsultationReq = "expired consultation request (consultant did not accept in time)"
	StripeMetadataReasonKey                   = "release_reason"
	StripeMetadataGeneratedByKey              = "generated_by"
	StripeIdempotencyKeyPrefixRelease         = "credit-release-"
)

// Failure report mail
const EmailSubjectReaperFailureFormat = "[%s] %s: %d of %d records failed"

// Scheduling (schedule mode) and per-run timeouts.
const (
	ConsultationReqReaperCronSpec   = "*/30 * * * *"
	DeletedAccountReaperCronSpec    = "0 4 * * *"
	PwdChangeReqReaperCronSpec      = "15 * * * *"
	StoppedSettlementReaperCronSpec = "30 3 * * *"
	TempMfaSecretReaperCronSpec     = "45 * * * *"
	ReaperJobTimeout                = 50 * time.Minute
	FetchRetryDelay                 = 3 * time.Second
)

// Search index
const (
	ConsultantSearchIndexUID = "consultants"
	SearchTaskPollInterval   = 100 * time.Millisecond
)

// HTTP
const (
	EnvProd                               = "prod"
	CORSLowSecurityAllowedOriginLocalhost = "http://localhost:*"
)
