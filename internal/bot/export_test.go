package bot

import (
	"context"
	"path/filepath"
	"testing"

	"pirouette/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestExportWritesRowPerApplication(t *testing.T) {
	cfg := testConfig()
	cfg.Exports.Path = t.TempDir()
	b, _, db := newTestBotWithConfig(t, cfg)
	ctx := context.Background()

	p := createTestProgram(t, db, models.ProgramTypeGroup, 6000)
	createTestApplication(t, b, p.ID, 101)
	createTestApplication(t, b, p.ID, 102)

	b.exportApplications(ctx, adminID)

	files, err := filepath.Glob(filepath.Join(cfg.Exports.Path, "applications_*.xlsx"))
	require.NoError(t, err)
	require.Len(t, files, 1)

	f, err := excelize.OpenFile(files[0])
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Заявки")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "ID", rows[0][0])
	assert.Equal(t, "Мария", rows[1][2])
	assert.Equal(t, p.Title, rows[1][4])
	assert.Equal(t, "+79001234567", rows[2][3])
}

func TestExportWithoutApplications(t *testing.T) {
	b, tg, _ := newTestBot(t)

	b.exportApplications(context.Background(), adminID)

	assert.Contains(t, tg.lastText(t), "экспортировать нечего")
}
