package archive

// Config selects the export destination. Endpoint and UsePathStyle target
// S3-compatible services such as MinIO.
type Config struct {
	Bucket       string `env:"AUDIT_EXPORT_BUCKET"`
	Prefix       string `env:"AUDIT_EXPORT_PREFIX" envDefault:"audit"`
	Region       string `env:"AUDIT_EXPORT_REGION" envDefault:"us-east-1"`
	Endpoint     string `env:"AUDIT_EXPORT_ENDPOINT"`
	UsePathStyle bool   `env:"AUDIT_EXPORT_PATH_STYLE" envDefault:"false"`
	AccessKeyID  string `env:"AUDIT_EXPORT_ACCESS_KEY_ID"`
	SecretKey    string `env:"AUDIT_EXPORT_SECRET_KEY"`
}
