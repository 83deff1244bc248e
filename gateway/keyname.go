package gateway

// Key names of the deployment environments.
const (
	ProductionKeyName = "key_1"
	TestKeyName       = "test_key_1"
	LocalKeyName      = "dfx_test_key"
)

// KeyNameForEnv returns the name of the key used in the given deployment
// environment. Unknown environments use the local development key.
func KeyNameForEnv(env string) string {
	switch env {
	case "production":
		return ProductionKeyName
	case "test":
		return TestKeyName
	default:
		return LocalKeyName
	}
}
