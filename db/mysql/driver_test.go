package mysql

import (
	"strings"
	"testing"

	drv "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeDSN(t *testing.T) {
	out, err := NormalizeDSN("actorai:pw@tcp(db:3306)/actorai")
	require.NoError(t, err)
	assert.Contains(t, out, "charset=utf8mb4")
	assert.Contains(t, out, "parseTime=true")

	cfg, err := drv.ParseDSN(out)
	require.NoError(t, err)
	assert.True(t, cfg.ParseTime)
	assert.Equal(t, "UTC", cfg.Loc.String())
	assert.Equal(t, "db:3306", cfg.Addr)
	assert.Equal(t, "actorai", cfg.DBName)
}

func TestNormalizeDSN_KeepsCharset(t *testing.T) {
	out, err := NormalizeDSN("u:p@tcp(localhost:3306)/x?charset=latin1")
	require.NoError(t, err)
	assert.Contains(t, out, "charset=latin1")
	assert.NotContains(t, out, "utf8mb4")
	assert.Equal(t, 1, strings.Count(out, "charset="))
}

func TestNormalizeDSN_SecondPassAddsNothing(t *testing.T) {
	once, err := NormalizeDSN("u:p@tcp(localhost:3306)/x")
	require.NoError(t, err)
	twice, err := NormalizeDSN(once)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(twice, "charset="))
	assert.Contains(t, twice, "charset=utf8mb4")
}

func TestNormalizeDSN_Invalid(t *testing.T) {
	_, err := NormalizeDSN("tcp(:3306")
	assert.Error(t, err)
}
