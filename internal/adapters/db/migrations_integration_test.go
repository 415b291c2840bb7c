//go:build integration
// +build integration

package db_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/ammerola/fieldservice-be/internal/adapters/db"
	"github.com/ammerola/fieldservice-be/test/helpers"
)

type MigratorSuite struct {
	suite.Suite
	testDB   *helpers.TestDB
	migrator *db.Migrator
	ctx      context.Context
}

func (s *MigratorSuite) SetupSuite() {
	s.testDB = helpers.SetupTestDB(s.T())
	s.ctx = context.Background()

	m, err := db.NewMigrator(s.testDB.MigrationConfig(), helpers.TestLogger())
	s.Require().NoError(err)
	s.migrator = m
}

func (s *MigratorSuite) TearDownSuite() {
	if s.migrator != nil {
		s.NoError(s.migrator.Close())
	}
}

func (s *MigratorSuite) apply(raw string) *db.MigrationStatus {
	cmd, err := db.ParseMigrationCommand(raw)
	s.Require().NoError(err)
	status, err := s.migrator.Apply(s.ctx, cmd)
	s.Require().NoError(err)
	return status
}

func (s *MigratorSuite) tableExists(name string) bool {
	var exists bool
	err := s.testDB.PgxPool.QueryRow(s.ctx,
		`SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name = $1)`, name).Scan(&exists)
	s.Require().NoError(err)
	return exists
}

func (s *MigratorSuite) TestDownStatusForceUp() {
	status := s.apply("status")
	s.Equal(uint(2), status.CurrentVersion)
	s.False(status.IsDirty)
	s.True(s.tableExists("part_usage"))

	status = s.apply("down")
	s.Equal(uint(1), status.CurrentVersion)
	s.False(s.tableExists("part_usage"))
	s.True(s.tableExists("parts"))

	status = s.apply("up")
	s.Equal(uint(2), status.CurrentVersion)
	s.True(s.tableExists("part_usage"))

	status = s.apply("force=2")
	s.Equal(uint(2), status.CurrentVersion)
	s.False(status.IsDirty)
	s.Len(status.Applied, 1)
}

func TestMigratorSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration tests in short mode")
	}
	suite.Run(t, new(MigratorSuite))
}
