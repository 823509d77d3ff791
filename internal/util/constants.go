package util

// storage.type values other than these select the local provider
const (
	StorageMinio = "minio"
	StorageOSS   = "oss"
)

const MimePDF = "application/pdf"

const (
	DefaultPageSize = 9
	MaxPageSize     = 50
)

// Redis channel carrying document notifications between instances.
const NotificationChannel = "pdf_files_notifications"
