// Package config handles loading and validating Laudos Core configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with LAUDOS_* environment variables
//   - Validation of required fields, reported all at once
//
// Security Considerations:
//   - The JWT signing secret has no default. Startup fails without one.
//   - Sensitive values (secrets, broker passwords, tokens) should be set via
//     environment variables or a .env file, not committed YAML.
//   - bcrypt cost is bounded to [MinBcryptCost, MaxBcryptCost].
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Service.Name)
package config
