package config

import "os"

// Settings carries the environment-sourced knobs used by individual stages.
type Settings struct {
	// Registry is the container registry images are pushed to.
	Registry string
	// BaseDomain is the DNS suffix services are reachable under,
	// as <service>.<environment>.<base-domain>.
	BaseDomain string
	// CommitSHA is an externally supplied commit identifier (CI). When empty
	// the build stage derives one from the local checkout.
	CommitSHA string
	// Actor is the identity recorded in manifest deployment metadata.
	Actor string

	ArgoCDURL       string
	ArgoCDToken     string
	SlackWebhookURL string
}

// SettingsFromEnv reads Settings from the process environment, applying the
// platform defaults for registry, domain and actor.
func SettingsFromEnv() Settings {
	return Settings{
		Registry:        envOr("REGISTRY_URL", "registry.company.com"),
		BaseDomain:      envOr("BASE_DOMAIN", "company.com"),
		CommitSHA:       os.Getenv("GITHUB_SHA"),
		Actor:           envOr("GITHUB_ACTOR", "unknown"),
		ArgoCDURL:       os.Getenv("ARGOCD_API_URL"),
		ArgoCDToken:     os.Getenv("ARGOCD_TOKEN"),
		SlackWebhookURL: os.Getenv("SLACK_WEBHOOK_URL"),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
