package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type LoaderTestSuite struct {
	suite.Suite
	logger  logrus.FieldLogger
	tempDir string
}

func (suite *LoaderTestSuite) SetupTest() {
	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)
	suite.logger = logger.WithField("test", "config_loader")
	suite.tempDir = suite.T().TempDir()
}

func (suite *LoaderTestSuite) writeConfig(content string) string {
	path := filepath.Join(suite.tempDir, "buildbench.yaml")
	require.NoError(suite.T(), os.WriteFile(path, []byte(content), 0644))
	return path
}

func (suite *LoaderTestSuite) TestEmptyPathUsesDefaults() {
	cfg, err := LoadConfig("", suite.logger)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), DefaultConfig(), cfg)
}

func (suite *LoaderTestSuite) TestMissingFileUsesDefaults() {
	cfg, err := LoadConfig(filepath.Join(suite.tempDir, "absent.yaml"), suite.logger)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), 3, cfg.Benchmark.Iterations)
	assert.Equal(suite.T(), 2, cfg.Benchmark.WarmupIterations)
	assert.Equal(suite.T(), DriverSQLite, cfg.Storage.Driver)
}

func (suite *LoaderTestSuite) TestDefaults() {
	cfg := DefaultConfig()
	t := suite.T()

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, "cpp", cfg.Toolchain.CPPRoot)
	assert.Equal(t, "rust*", cfg.Toolchain.RustRootGlob)
	assert.Equal(t, []string{"stable", "nightly"}, cfg.Toolchain.RustupToolchains)
	assert.Equal(t, []string{"", "quick-build-incremental", "quick-build-nonincremental"}, cfg.Toolchain.CargoProfiles)
	assert.Equal(t, []string{"gmock", "gmock_main", "gtest"}, cfg.Toolchain.CPPDependencyTargets)
	assert.Len(t, cfg.Toolchain.CPPCompilers, 3)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	require.NoError(t, cfg.Validate())
}

func (suite *LoaderTestSuite) TestLoadWithEnvSubstitution() {
	suite.T().Setenv("BB_PG_PASSWORD", "hunter2")
	path := suite.writeConfig(`
log:
  level: debug
  format: json
storage:
  driver: postgres
  postgresql:
    host: ${BB_PG_HOST:-db.internal}
    password: ${BB_PG_PASSWORD:?password required}
benchmark:
  iterations: 5
toolchain:
  cpp_compilers:
    - label: GCC 13
      path: g++-13
  mold: none
charts:
  definitions: charts.yaml
`)

	cfg, err := LoadConfig(path, suite.logger)
	t := suite.T()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, DriverPostgres, cfg.Storage.Driver)
	assert.Equal(t, "db.internal", cfg.Storage.PostgreSQL.Host)
	assert.Equal(t, "hunter2", cfg.Storage.PostgreSQL.Password)
	assert.Equal(t, 5432, cfg.Storage.PostgreSQL.Port)
	assert.Equal(t, 5, cfg.Benchmark.Iterations)
	assert.Equal(t, 2, cfg.Benchmark.WarmupIterations)
	assert.Equal(t, []CompilerConfig{{Label: "GCC 13", Path: "g++-13"}}, cfg.Toolchain.CPPCompilers)
	assert.Equal(t, "none", cfg.Toolchain.Mold)
	assert.Equal(t, "charts.yaml", cfg.Charts.Definitions)
}

func (suite *LoaderTestSuite) TestMissingRequiredEnv() {
	path := suite.writeConfig(`
storage:
  postgresql:
    password: ${BB_DEFINITELY_UNSET:?password required}
`)

	_, err := LoadConfig(path, suite.logger)
	require.Error(suite.T(), err)
	assert.ErrorIs(suite.T(), err, ErrMissingEnv)
}

func (suite *LoaderTestSuite) TestInvalidYAML() {
	path := suite.writeConfig("storage: [unterminated")

	_, err := LoadConfig(path, suite.logger)
	require.Error(suite.T(), err)
	assert.Contains(suite.T(), err.Error(), "failed to unmarshal config")
}

func (suite *LoaderTestSuite) TestValidationFailure() {
	path := suite.writeConfig(`
storage:
  driver: oracle
`)

	_, err := LoadConfig(path, suite.logger)
	require.Error(suite.T(), err)
	assert.Contains(suite.T(), err.Error(), "unsupported storage driver")
}

func (suite *LoaderTestSuite) TestIncompleteCompiler() {
	_, err := ParseConfig([]byte(`
toolchain:
  cpp_compilers:
    - label: Missing path
`))
	require.Error(suite.T(), err)
	assert.Contains(suite.T(), err.Error(), "cpp_compilers[0]")
}

func TestLoaderTestSuite(t *testing.T) {
	suite.Run(t, new(LoaderTestSuite))
}
