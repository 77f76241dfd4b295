// Package config handles loading and validating head unit configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with HEADUNIT_* environment variables
//   - Validation of required fields
//   - Default value handling
//
// Security Considerations:
//   - Sensitive values (passwords, tokens) should be set via environment variables
//   - The config file should have restricted permissions (0600)
//   - The operator password is stored as an Argon2id hash, never in clear
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Hardware.I2CBus)
package config
