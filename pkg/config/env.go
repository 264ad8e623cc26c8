package config

// Environment constants
const (
	EnvDevelopment = "development"
	EnvTest        = "test"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

// IsProductionLike reports whether the environment enforces production requirements.
func IsProductionLike(environment string) bool {
	return environment == EnvStaging || environment == EnvProduction
}
