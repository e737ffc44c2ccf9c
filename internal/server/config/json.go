package config

import (
	"encoding/json"
	"os"

	"github.com/atelierhq/chipverify/internal/flagx"
	"github.com/atelierhq/chipverify/internal/timex"
)

// JsonConfig defines a configuration structure tailored for JSON
// unmarshalling. It uses timex.Duration for interval fields, which allows
// parsing both string values such as "5s" and integer nanoseconds.
//
// This struct is an intermediate DTO used only for reading JSON configuration
// files. After unmarshalling, its fields are copied into the runtime Config
// struct which uses time.Duration.
type JsonConfig struct {
	EndpointAddr     string         `json:"endpoint_addr"`
	DatabaseDSN      string         `json:"database_dsn"`
	VerifierMode     string         `json:"verifier_mode"`
	DevBypassCode    string         `json:"dev_bypass_code"`
	CORSAllowOrigin  string         `json:"cors_allow_origin"`
	StoreTimeout     timex.Duration `json:"store_timeout"`
	S3RootUser       string         `json:"s3_root_user"`
	S3RootPassword   string         `json:"s3_root_password"`
	S3Bucket         string         `json:"s3_bucket"`
	S3Region         string         `json:"s3_region"`
	S3BaseEndpoint   string         `json:"s3_base_endpoint"`
	ArchiveInterval  timex.Duration `json:"archive_interval"`
	ArchiveBatchSize int            `json:"archive_batch_size"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config instance. The file path comes from the -c or -config command-line
// flags; if neither is set, no JSON file is loaded. Fields absent from the
// file keep their current (default) values. If the file cannot be read or
// contains invalid JSON, the function panics.
func parseJson(config *Config) {

	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	if c.EndpointAddr != "" {
		config.EndpointAddr = c.EndpointAddr
	}
	if c.DatabaseDSN != "" {
		config.DatabaseDSN = c.DatabaseDSN
	}
	if c.VerifierMode != "" {
		config.VerifierMode = c.VerifierMode
	}
	if c.DevBypassCode != "" {
		config.DevBypassCode = c.DevBypassCode
	}
	if c.CORSAllowOrigin != "" {
		config.CORSAllowOrigin = c.CORSAllowOrigin
	}
	if c.StoreTimeout.Duration != 0 {
		config.StoreTimeout = c.StoreTimeout.Duration
	}
	if c.S3RootUser != "" {
		config.S3RootUser = c.S3RootUser
	}
	if c.S3RootPassword != "" {
		config.S3RootPassword = c.S3RootPassword
	}
	if c.S3Bucket != "" {
		config.S3Bucket = c.S3Bucket
	}
	if c.S3Region != "" {
		config.S3Region = c.S3Region
	}
	if c.S3BaseEndpoint != "" {
		config.S3BaseEndpoint = c.S3BaseEndpoint
	}
	if c.ArchiveInterval.Duration != 0 {
		config.ArchiveInterval = c.ArchiveInterval.Duration
	}
	if c.ArchiveBatchSize != 0 {
		config.ArchiveBatchSize = c.ArchiveBatchSize
	}
}
