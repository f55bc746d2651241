package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("REDCAP_API_URL", "https://redcap.example.edu/api/")
	t.Setenv("REDCAP_API_TOKEN", "0123456789ABCDEF")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "husky-musher", cfg.App.Name)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "development", cfg.Environment)
	assert.True(t, cfg.InDevelopment())
	assert.Equal(t, time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC), cfg.REDCap.StudyStartDate)
	assert.NotEmpty(t, cfg.App.DeploymentID, "deployment ID should be generated when unset")
}

func TestLoad_MissingAPIURL(t *testing.T) {
	t.Setenv("REDCAP_API_URL", "")
	t.Setenv("REDCAP_API_TOKEN", "0123456789ABCDEF")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REDCAP_API_URL")
}

func TestLoad_MissingAPIToken(t *testing.T) {
	t.Setenv("REDCAP_API_URL", "https://redcap.example.edu/api/")
	t.Setenv("REDCAP_API_TOKEN", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REDCAP_API_TOKEN")
}

func TestLoad_InvalidAPIURL(t *testing.T) {
	t.Setenv("REDCAP_API_URL", "not a url")
	t.Setenv("REDCAP_API_TOKEN", "0123456789ABCDEF")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REDCAP_API_URL")
}

func TestLoad_StudyStartDate(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("REDCAP_STUDY_START_DATE", "2026-01-05")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC), cfg.REDCap.StudyStartDate)
}

func TestLoad_BadStudyStartDate(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("REDCAP_STUDY_START_DATE", "Jan 5 2026")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REDCAP_STUDY_START_DATE")
}

func TestLoad_MockIdPRequiresSecret(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("USE_MOCK_IDP", "true")
	t.Setenv("SESSION_SECRET", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SESSION_SECRET")
}

func TestLoad_MockIdPForbiddenInProduction(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("USE_MOCK_IDP", "true")
	t.Setenv("SESSION_SECRET", "super-secret")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "USE_MOCK_IDP")
}

func TestLoad_TrustedProxyCIDRs(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("TRUSTED_PROXY_CIDRS", "10.0.0.0/8, 192.168.0.0/16")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"10.0.0.0/8", "192.168.0.0/16"}, cfg.RateLimit.TrustedProxyCIDRs)
}

func TestLoad_ExplicitDeploymentID(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("DEPLOYMENT_ID", "deploy-prod.2026-08-23")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "deploy-prod.2026-08-23", cfg.App.DeploymentID)
}
