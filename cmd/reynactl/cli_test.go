package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lareyna/reyna-api/internal/application/apptest"
	exportUC "github.com/lareyna/reyna-api/internal/application/usecase/export"
	domain "github.com/lareyna/reyna-api/internal/domain/export"
	"github.com/lareyna/reyna-api/internal/domain/product"
	"github.com/lareyna/reyna-api/pkg/logger"
	"github.com/lareyna/reyna-api/pkg/spreadsheet"
)

func TestCommandTree(t *testing.T) {
	for _, name := range []string{"seed-admin", "export", "migrate", "backup"} {
		cmd, _, err := rootCmd.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, cmd.Name())
	}

	err := exportCmd.Args(exportCmd, []string{"orders"})
	assert.Error(t, err)
	assert.NoError(t, exportCmd.Args(exportCmd, []string{"users"}))
}

func TestRunExport_WritesWorkbook(t *testing.T) {
	color.NoColor = true
	products := apptest.NewProductRepo(product.Product{Name: "Anillo", Price: 89, Category: product.CategoryJoyas})
	builder := exportUC.NewBuildWorkbookUseCase(products, apptest.NewUserRepo(), logger.NewNopLogger())

	out := filepath.Join(t.TempDir(), "catalogo.xlsx")
	var stdout bytes.Buffer
	require.NoError(t, runExport(context.Background(), builder, domain.KindProducts, out, &stdout))

	assert.Equal(t, "Wrote 1 products to "+out+"\n", stdout.String())
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	rows, err := spreadsheet.Read(data, "Productos")
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}
