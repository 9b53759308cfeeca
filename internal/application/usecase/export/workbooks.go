package export

import (
	"github.com/lareyna/reyna-api/internal/domain/product"
	"github.com/lareyna/reyna-api/internal/domain/user"
	"github.com/lareyna/reyna-api/pkg/spreadsheet"
)

const (
	ProductsFileName = "productos.xlsx"
	UsersFileName    = "usuarios.xlsx"

	productsSheet = "Productos"
	usersSheet    = "Usuarios"
)

var (
	productHeaders = []string{"ID", "Nombre", "Precio", "Categoría"}
	userHeaders    = []string{"ID", "Nombre Completo", "Correo", "Teléfono", "Dirección"}
)

func ProductsWorkbook(products []*product.Product) ([]byte, error) {
	rows := make([][]any, len(products))
	for i, p := range products {
		rows[i] = []any{p.ID, p.Name, p.Price, string(p.Category)}
	}
	return spreadsheet.Write(spreadsheet.Sheet{Name: productsSheet, Headers: productHeaders, Rows: rows})
}

func UsersWorkbook(users []*user.User) ([]byte, error) {
	rows := make([][]any, len(users))
	for i, u := range users {
		rows[i] = []any{u.ID.String(), u.FullName, u.Email, u.Phone, u.Address}
	}
	return spreadsheet.Write(spreadsheet.Sheet{Name: usersSheet, Headers: userHeaders, Rows: rows})
}
