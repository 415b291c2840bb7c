package workers_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v3"
	"go.uber.org/mock/gomock"

	"github.com/ammerola/fieldservice-be/internal/core/domain"
	"github.com/ammerola/fieldservice-be/internal/workers"
	"github.com/ammerola/fieldservice-be/test/helpers"
	"github.com/ammerola/fieldservice-be/test/mocks"
)

func writeCatalog(t *testing.T, dir string, rows [][]string) string {
	t.Helper()

	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Parts")
	require.NoError(t, err)
	for _, values := range rows {
		row := sheet.AddRow()
		for _, v := range values {
			row.AddCell().SetString(v)
		}
	}

	path := filepath.Join(dir, "catalog.xlsx")
	require.NoError(t, file.Save(path))
	return path
}

func catalogTask(t *testing.T, path string) *asynq.Task {
	t.Helper()
	b, err := json.Marshal(workers.CatalogImportPayload{JobID: "job-1", FilePath: path})
	require.NoError(t, err)
	return asynq.NewTask(workers.TypeCatalogImport, b)
}

func TestCatalogProcessor_ProcessCatalogImport(t *testing.T) {
	dir := t.TempDir()
	path := writeCatalog(t, dir, [][]string{
		{"Part Number", "Description", "Avg Cost", "On Hand", "Supplier", "Lead Time Days"},
		{"WPW10348269", "Dryer thermal fuse", "$18.50", "4", "Marcone", "2"},
		{"W10190965", "Dryer belt", "12.25", "2", "", ""},
		{"BADCOST", "Broken row", "abc", "1", "", ""},
		{"FAILS", "Rejected by db", "5", "1", "", ""},
	})

	ctrl := gomock.NewController(t)
	repo := mocks.NewMockPartRepository(ctrl)

	var upserted []string
	repo.EXPECT().UpsertPart(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, p *domain.Part) error {
			if p.PartNumber == "FAILS" {
				return errors.New("constraint violation")
			}
			upserted = append(upserted, p.PartNumber)
			return nil
		}).Times(3)
	repo.EXPECT().UpsertSupplier(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, s domain.PartSupplier) error {
			assert.Equal(t, "WPW10348269", s.PartNumber)
			assert.Equal(t, 2, s.LeadTimeDays)
			return nil
		})

	inv := &fakeInvalidator{}
	p := workers.NewCatalogProcessor(repo, inv, dir, helpers.TestLogger())

	require.NoError(t, p.ProcessCatalogImport(context.Background(), catalogTask(t, path)))
	assert.Equal(t, []string{"WPW10348269", "W10190965"}, upserted)
	assert.Equal(t, 1, inv.calls)

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err), "imported file should be removed")
}

func TestCatalogProcessor_KeepsFilesOutsideUploadDir(t *testing.T) {
	src := t.TempDir()
	path := writeCatalog(t, src, [][]string{
		{"Part Number", "Description", "Avg Cost"},
		{"W10190965", "Dryer belt", "12.25"},
	})

	ctrl := gomock.NewController(t)
	repo := mocks.NewMockPartRepository(ctrl)
	repo.EXPECT().UpsertPart(gomock.Any(), gomock.Any()).Return(nil)

	p := workers.NewCatalogProcessor(repo, &fakeInvalidator{}, t.TempDir(), helpers.TestLogger())
	require.NoError(t, p.ProcessCatalogImport(context.Background(), catalogTask(t, path)))

	_, err := os.Stat(path)
	assert.NoError(t, err)
}

func TestCatalogProcessor_Errors(t *testing.T) {
	dir := t.TempDir()

	noHeader := writeCatalog(t, dir, [][]string{{"Description"}, {"Dryer belt"}})
	notXLSX := filepath.Join(dir, "notes.xlsx")
	require.NoError(t, os.WriteFile(notXLSX, []byte("plain text"), 0o600))

	tests := []struct {
		name string
		task *asynq.Task
	}{
		{name: "bad_payload", task: asynq.NewTask(workers.TypeCatalogImport, []byte("{"))},
		{name: "missing_file", task: catalogTask(t, filepath.Join(dir, "gone.xlsx"))},
		{name: "missing_part_number_column", task: catalogTask(t, noHeader)},
		{name: "not_a_workbook", task: catalogTask(t, notXLSX)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			inv := &fakeInvalidator{}
			p := workers.NewCatalogProcessor(mocks.NewMockPartRepository(ctrl), inv, dir, helpers.TestLogger())

			err := p.ProcessCatalogImport(context.Background(), tt.task)
			assert.ErrorIs(t, err, asynq.SkipRetry)
			assert.Zero(t, inv.calls)
		})
	}
}
