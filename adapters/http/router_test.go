package http

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/lareyna/reyna-api/internal/application/apptest"
	authUC "github.com/lareyna/reyna-api/internal/application/usecase/auth"
	exportUC "github.com/lareyna/reyna-api/internal/application/usecase/export"
	productUC "github.com/lareyna/reyna-api/internal/application/usecase/product"
	userUC "github.com/lareyna/reyna-api/internal/application/usecase/user"
	"github.com/lareyna/reyna-api/internal/domain/product"
	"github.com/lareyna/reyna-api/internal/domain/user"
	"github.com/lareyna/reyna-api/pkg/auth"
	"github.com/lareyna/reyna-api/pkg/logger"
	"github.com/lareyna/reyna-api/pkg/metrics"
	"github.com/lareyna/reyna-api/pkg/spreadsheet"
)

type RouterTestSuite struct {
	suite.Suite
	router    *gin.Engine
	jwtSvc    *auth.JWTService
	users     *apptest.UserRepo
	products  *apptest.ProductRepo
	publisher *apptest.Publisher
	uploader  *apptest.Uploader
	metrics   *metrics.Metrics
	limiter   *IPRateLimiter

	adminToken string
	userToken  string
}

func TestRouter(t *testing.T) {
	suite.Run(t, new(RouterTestSuite))
}

func (s *RouterTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	log := logger.NewNopLogger()

	s.jwtSvc = auth.NewJWTService("router-test-secret", time.Hour, "")
	s.users = apptest.NewUserRepo()
	s.products = apptest.NewProductRepo(
		product.Product{Name: "Cielo en Rosa", Price: 113, Category: product.CategoryPerfumes},
		product.Product{Name: "Labial Mate", Price: 25, Category: product.CategoryMaquillaje},
	)
	s.publisher = &apptest.Publisher{}
	s.uploader = apptest.NewUploader()
	s.metrics = metrics.New()
	s.limiter = NewIPRateLimiter(1, 100)
	cache := apptest.NewProductCache()
	jobs := apptest.NewExportRepo()

	registerUC := authUC.NewRegisterUseCase(s.users, s.jwtSvc, s.publisher, log)
	loginUC := authUC.NewLoginUseCase(s.users, s.jwtSvc, log)
	workbook := exportUC.NewBuildWorkbookUseCase(s.products, s.users, log)

	s.router = NewRouter(RouterDeps{
		Logger:      log,
		JWT:         s.jwtSvc,
		Metrics:     s.metrics,
		CORSOrigins: []string{"http://localhost:3000", "http://localhost:3001"},
		AuthLimiter: s.limiter,
		AuthHandler: NewAuthHandler(registerUC, loginUC, authUC.NewGetCurrentUserUseCase(s.users), log),
		ProductHandler: NewProductHandler(
			productUC.NewListProductsUseCase(s.products, cache, s.metrics, log),
			productUC.NewGetProductUseCase(s.products),
			productUC.NewManageProductUseCase(s.products, s.uploader, cache, s.publisher, log),
			productUC.NewUploadProductImageUseCase(s.products, s.uploader, cache, s.publisher, log),
			productUC.NewProductFeedUseCase(s.products, "https://lareyna.pe", log),
			workbook,
			log,
		),
		UserHandler:   NewUserHandler(userUC.NewListUsersUseCase(s.users, log), workbook),
		ExportHandler: NewExportHandler(exportUC.NewRequestExportUseCase(jobs, s.publisher, log), exportUC.NewGetExportJobUseCase(jobs)),
	})

	admin, err := authUC.NewSeedAdminUseCase(s.users, log).Execute(context.Background(), authUC.SeedAdminInput{
		FullName: "Admin Reyna", Email: "admin@reyna.pe", Password: "admin-pass",
	})
	s.Require().NoError(err)
	s.adminToken = s.token(auth.Principal{UserID: admin.ID, Username: admin.FullName, Role: string(user.RoleAdmin)})

	out := s.do(http.MethodPost, "/auth/register", map[string]string{
		"nombre_completo": "Juan Perez",
		"correo":          "juan@mail.com",
		"contraseña":      "secret123",
		"telefono":        "999888777",
		"direccion":       "Av. Arequipa 123",
	}, "")
	s.Require().Equal(http.StatusOK, out.Code, out.Body.String())
	s.userToken = s.decode(out)["token"].(string)
}

func (s *RouterTestSuite) token(p auth.Principal) string {
	tok, err := s.jwtSvc.GenerateToken(p)
	s.Require().NoError(err)
	return tok
}

func (s *RouterTestSuite) do(method, path string, body any, token string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *RouterTestSuite) decode(w *httptest.ResponseRecorder) map[string]any {
	var out map[string]any
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func (s *RouterTestSuite) Test_Health() {
	w := s.do(http.MethodGet, "/health", nil, "")
	s.Equal(http.StatusOK, w.Code)
	s.JSONEq(`{"status":"UP"}`, w.Body.String())
}

func (s *RouterTestSuite) Test_Register_DuplicateAndValidation() {
	w := s.do(http.MethodPost, "/auth/register", map[string]string{
		"nombre_completo": "Otro", "correo": "juan@mail.com", "contraseña": "secret123",
	}, "")
	s.Equal(http.StatusConflict, w.Code)

	w = s.do(http.MethodPost, "/auth/register", map[string]string{
		"nombre_completo": "Ana", "correo": "ana@mail.com", "contraseña": "123",
	}, "")
	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal("invalid input", s.decode(w)["error"])
}

func (s *RouterTestSuite) Test_Login_ByFullNameAndEmail() {
	for _, ident := range []string{"Juan Perez", "juan@mail.com"} {
		w := s.do(http.MethodPost, "/auth/login", map[string]string{"nombre_completo": ident, "contraseña": "secret123"}, "")
		s.Require().Equal(http.StatusOK, w.Code, ident)
		s.NotEmpty(s.decode(w)["token"])
	}

	w := s.do(http.MethodPost, "/auth/login", map[string]string{"nombre_completo": "Juan Perez", "contraseña": "nope-nope"}, "")
	s.Equal(http.StatusUnauthorized, w.Code)
}

func (s *RouterTestSuite) Test_LegacyUserEndpoints() {
	w := s.do(http.MethodPost, "/auth/user/create", map[string]string{
		"nombre_completo": "Rosa Diaz", "correo": "rosa@mail.com", "contraseña": "rosa-pass",
	}, "")
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	body := s.decode(w)
	s.Equal(msgUserCreated, body["message"])
	s.Equal("rosa@mail.com", body["data"].(map[string]any)["email"])

	form := url.Values{"correo": {"rosa@mail.com"}, "password": {"rosa-pass"}}
	req := httptest.NewRequest(http.MethodPost, "/auth/user/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	s.Equal(msgUserLoggedIn, s.decode(w)["message"])

	w = s.do(http.MethodPost, "/auth/user/login?correo=rosa@mail.com&password=wrong-pass", nil, "")
	s.Equal(http.StatusUnauthorized, w.Code)
	s.JSONEq(`{"message":"invalid credentials"}`, w.Body.String())
}

func (s *RouterTestSuite) Test_Products_PublicReads() {
	w := s.do(http.MethodGet, "/api/productos", nil, "")
	s.Require().Equal(http.StatusOK, w.Code)
	var list []ProductDTO
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &list))
	s.Len(list, 2)

	w = s.do(http.MethodGet, "/api/productos?categoria=Maquillaje", nil, "")
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &list))
	s.Require().Len(list, 1)
	s.Equal("Labial Mate", list[0].Name)

	w = s.do(http.MethodGet, "/api/productos?page=abc", nil, "")
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.do(http.MethodGet, "/api/productos/1", nil, "")
	s.Equal(http.StatusOK, w.Code)
	w = s.do(http.MethodGet, "/api/productos/99", nil, "")
	s.Equal(http.StatusNotFound, w.Code)

	w = s.do(http.MethodGet, "/api/productos/feed.rss", nil, "")
	s.Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), "<rss")
}

func (s *RouterTestSuite) Test_Products_EmptyListIsArray() {
	for _, id := range []string{"1", "2"} {
		w := s.do(http.MethodDelete, "/api/productos/"+id, nil, s.adminToken)
		s.Require().Equal(http.StatusNoContent, w.Code)
	}
	w := s.do(http.MethodGet, "/api/productos", nil, "")
	s.Equal("[]", w.Body.String())
}

func (s *RouterTestSuite) Test_Products_Excel() {
	w := s.do(http.MethodGet, "/api/productos/excel", nil, "")
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal("attachment; filename=productos.xlsx", w.Header().Get("Content-Disposition"))
	s.Equal(spreadsheet.ContentType, w.Header().Get("Content-Type"))

	rows, err := spreadsheet.Read(w.Body.Bytes(), "Productos")
	s.Require().NoError(err)
	s.Len(rows, 3)
}

func (s *RouterTestSuite) Test_Admin_RequiresTokenAndRole() {
	body := map[string]any{"name": "Collar", "price": 70, "category": "Joyas"}

	w := s.do(http.MethodPost, "/api/productos", body, "")
	s.Equal(http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodPost, "/api/productos", body, "not-a-jwt")
	s.Equal(http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodPost, "/api/productos", body, s.userToken)
	s.Equal(http.StatusForbidden, w.Code)

	w = s.do(http.MethodPost, "/api/productos", body, s.adminToken)
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	s.Equal([]string{"product.created"}, s.publisher.ProductEventTypes())

	for _, price := range []float64{-1, 0.004, 1e8} {
		w = s.do(http.MethodPost, "/api/productos", map[string]any{"name": "x", "price": price, "category": "Joyas"}, s.adminToken)
		s.Equal(http.StatusBadRequest, w.Code, "price %v", price)
	}

	w = s.do(http.MethodPut, "/api/productos/1", map[string]any{"name": "Cielo 100ml", "price": 120, "category": "Perfumes"}, s.adminToken)
	s.Equal(http.StatusOK, w.Code)
}

func (s *RouterTestSuite) Test_Admin_ImageUpload() {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "foto.png")
	s.Require().NoError(err)
	_, _ = part.Write([]byte("png-bytes"))
	s.Require().NoError(mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/productos/1/image", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+s.adminToken)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	s.Require().Equal(http.StatusAccepted, w.Code, w.Body.String())
	s.Contains(s.uploader.Files, "products/1/original")

	w = s.do(http.MethodDelete, "/api/productos/1", nil, s.adminToken)
	s.Require().Equal(http.StatusNoContent, w.Code, w.Body.String())
	s.Equal([]string{"products/1/original"}, s.uploader.Deleted)
	s.NotContains(s.uploader.Files, "products/1/original")
}

func (s *RouterTestSuite) Test_MeAndHealthAuth() {
	w := s.do(http.MethodGet, "/api/me", nil, s.userToken)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal("juan@mail.com", s.decode(w)["email"])

	w = s.do(http.MethodGet, "/api/health-auth", nil, s.userToken)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal("USER", s.decode(w)["role"])

	expired := auth.NewJWTService("router-test-secret", -time.Minute, "")
	tok, err := expired.GenerateToken(auth.Principal{UserID: uuid.New(), Username: "x", Role: "USER"})
	s.Require().NoError(err)
	w = s.do(http.MethodGet, "/api/me", nil, tok)
	s.Equal(http.StatusUnauthorized, w.Code)
}

func (s *RouterTestSuite) Test_Clients() {
	w := s.do(http.MethodGet, "/api/admin/clientes", nil, s.adminToken)
	s.Require().Equal(http.StatusOK, w.Code)
	var clients []UserDTO
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &clients))
	s.Len(clients, 2)

	w = s.do(http.MethodGet, "/api/admin/clientes/excel", nil, s.adminToken)
	s.Require().Equal(http.StatusOK, w.Code)
	rows, err := spreadsheet.Read(w.Body.Bytes(), "Usuarios")
	s.Require().NoError(err)
	s.Len(rows, 3)

	w = s.do(http.MethodGet, "/api/admin/clientes", nil, s.userToken)
	s.Equal(http.StatusForbidden, w.Code)
}

func (s *RouterTestSuite) Test_ExportJobs() {
	w := s.do(http.MethodPost, "/api/admin/exports", map[string]string{"kind": "products"}, s.adminToken)
	s.Require().Equal(http.StatusAccepted, w.Code, w.Body.String())
	id := s.decode(w)["id"].(string)
	s.Equal("/api/admin/exports/"+id, w.Header().Get("Location"))
	s.Len(s.publisher.ExportEvents, 1)

	w = s.do(http.MethodGet, "/api/admin/exports/"+id, nil, s.adminToken)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal("pending", s.decode(w)["status"])

	w = s.do(http.MethodPost, "/api/admin/exports", map[string]string{"kind": "orders"}, s.adminToken)
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.do(http.MethodGet, "/api/admin/exports/not-a-uuid", nil, s.adminToken)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *RouterTestSuite) Test_CORSPreflight() {
	req := httptest.NewRequest(http.MethodOptions, "/api/productos", nil)
	req.Header.Set("Origin", "http://localhost:3001")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	s.Equal(http.StatusNoContent, w.Code)
	s.Equal("http://localhost:3001", w.Header().Get("Access-Control-Allow-Origin"))
	s.Equal("true", w.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodOptions, "/api/me", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	req.Header.Set("Access-Control-Request-Headers", "authorization,content-type")
	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	s.Equal(http.StatusNoContent, w.Code)
	allowed := w.Header().Get("Access-Control-Allow-Headers")
	s.NotContains(allowed, "*")
	s.Contains(allowed, "Authorization")
	s.Contains(allowed, "Content-Type")

	req = httptest.NewRequest(http.MethodGet, "/api/productos", nil)
	req.Header.Set("Origin", "http://evil.test")
	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	s.Equal(http.StatusForbidden, w.Code)
}

func (s *RouterTestSuite) Test_Metrics() {
	s.do(http.MethodGet, "/api/productos", nil, "")
	w := s.do(http.MethodGet, "/metrics", nil, "")
	s.Require().Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), `reyna_http_requests_total{code="200",method="GET",route="/api/productos"}`)
}

func TestIPRateLimiter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	limiter := NewIPRateLimiter(0.001, 2)
	r := gin.New()
	r.Use(ErrorMiddleware(logger.NewNopLogger()))
	r.POST("/auth/login", limiter.Middleware(), func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("unexpected status codes %v", codes)
	}

	req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("other client should not be throttled, got %d", w.Code)
	}
}
