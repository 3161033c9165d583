package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insightdelivered/statement-extractor/internal/classify"
	"github.com/insightdelivered/statement-extractor/internal/config"
	"github.com/insightdelivered/statement-extractor/internal/extractor"
	"github.com/insightdelivered/statement-extractor/internal/models"
	"github.com/insightdelivered/statement-extractor/internal/statement"
)

func tok(x, y float64, text string) models.Token {
	return models.Token{X0: x, Y0: y, X1: x + 6*float64(len(text)), Y1: y + 8, Text: text}
}

func sampleDoc() models.Document {
	return models.Document{Pages: []models.Page{{
		Number: 1, Width: 612, Height: 792,
		Tokens: []models.Token{
			tok(40, 20, "BBVA"),
			tok(40, 100, "FECHA"), tok(110, 100, "DESCRIPCION"),
			tok(360, 100, "CARGOS"), tok(440, 100, "ABONOS"), tok(520, 100, "SALDO"),
			tok(40, 130, "05/01/2025"), tok(150, 130, "COMISION"), tok(365, 130, "150.00"),
			tok(40, 150, "06/01/2025"), tok(150, 150, "SPEI"), tok(445, 150, "2,000.00"),
		},
	}}}
}

func setupTestApp(read func([]byte) (models.Document, error)) *fiber.App {
	runner := classify.NewRunner(classify.NewRuleClassifier(classify.DefaultRules()).Classify, classify.Options{})
	h := NewHandler(statement.NewEngine(config.Default()), runner, NewMetrics())
	if read != nil {
		h.read = read
	}
	return NewApp(h, 8)
}

func upload(t *testing.T, filename string, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = fw.Write([]byte("%PDF-1.4 stub"))
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest("POST", "/api/extract", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decode(t *testing.T, resp *http.Response) ExtractResponse {
	t.Helper()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out ExtractResponse
	require.NoError(t, json.Unmarshal(body, &out), string(body))
	return out
}

func TestHealthEndpoint(t *testing.T) {
	app := setupTestApp(nil)

	req := httptest.NewRequest("GET", "/api/health", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}

	body, _ := io.ReadAll(resp.Body)
	var result map[string]string
	if err := json.Unmarshal(body, &result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if result["status"] != "ok" {
		t.Errorf("expected status=ok, got %q", result["status"])
	}

	if result["engine"] != "fiber" {
		t.Errorf("expected engine=fiber, got %q", result["engine"])
	}
}

func TestExtractEndpointRequiresFile(t *testing.T) {
	app := setupTestApp(nil)

	resp, err := app.Test(upload(t, "", map[string]string{"bank": "BBVA"}))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, CodeMissingFile, decode(t, resp).Code)
}

func TestExtractEndpointRejectsNonPDF(t *testing.T) {
	app := setupTestApp(nil)

	resp, err := app.Test(upload(t, "statement.txt", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, CodeNotPDF, decode(t, resp).Code)
}

func TestExtractEndpointInvalidPages(t *testing.T) {
	app := setupTestApp(func([]byte) (models.Document, error) { return sampleDoc(), nil })

	resp, err := app.Test(upload(t, "statement.pdf", map[string]string{"pages": "3-1"}))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, CodeInvalidPages, decode(t, resp).Code)

	resp, err = app.Test(upload(t, "statement.pdf", map[string]string{"pages": "2"}))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, CodeInvalidPages, decode(t, resp).Code)
}

func TestExtractEndpointTypedFailures(t *testing.T) {
	tests := []struct {
		err  error
		code string
	}{
		{fmt.Errorf("%w: preflight", extractor.ErrPasswordProtected), CodePasswordProtected},
		{fmt.Errorf("%w: broken xref", extractor.ErrUnreadable), CodeUnreadable},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			app := setupTestApp(func([]byte) (models.Document, error) { return models.Document{}, tt.err })

			resp, err := app.Test(upload(t, "locked.pdf", nil))
			require.NoError(t, err)
			assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
			out := decode(t, resp)
			assert.False(t, out.Success)
			assert.Equal(t, tt.code, out.Code)
		})
	}
}

func TestExtractEndpoint(t *testing.T) {
	app := setupTestApp(func([]byte) (models.Document, error) { return sampleDoc(), nil })

	resp, err := app.Test(upload(t, "statement.pdf", map[string]string{"header": "false"}))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	out := decode(t, resp)
	assert.True(t, out.Success)
	assert.Equal(t, 2, out.Count)
	require.NotNil(t, out.Statement)
	assert.Equal(t, "BBVA", out.Statement.Bank)
	assert.Equal(t, "statement.pdf", out.Statement.DocumentID)
	require.Len(t, out.Statement.Transactions, 2)
	assert.Equal(t, models.DirectionCharge, out.Statement.Transactions[0].Direction)
	assert.Equal(t, models.DirectionDeposit, out.Statement.Transactions[1].Direction)

	require.NotNil(t, out.Totals)
	assert.Equal(t, "150", out.Totals.Charges.String())
	assert.Equal(t, "2000", out.Totals.Deposits.String())

	require.Len(t, out.Categories, 2)
	assert.Equal(t, "bank-fees", out.Categories[0].Category)
	assert.Equal(t, "transfers", out.Categories[1].Category)

	assert.True(t, strings.HasPrefix(out.CSV, "date,description,direction,amount,method,page,id,category"))
}

func TestExtractEndpointSameFilenameDistinctIDs(t *testing.T) {
	other := sampleDoc()
	other.Pages[0].Tokens[6] = tok(40, 130, "07/01/2025")

	first := decode(t, uploadOK(t, setupTestApp(func([]byte) (models.Document, error) { return sampleDoc(), nil }), "estado.pdf"))
	second := decode(t, uploadOK(t, setupTestApp(func([]byte) (models.Document, error) { return other, nil }), "estado.pdf"))

	require.NotNil(t, first.Statement)
	require.NotNil(t, second.Statement)
	assert.Equal(t, "estado.pdf", second.Statement.DocumentID)
	assert.NotEqual(t, first.Statement.Transactions[0].ID, second.Statement.Transactions[0].ID)
}

func uploadOK(t *testing.T, app *fiber.App, filename string) *http.Response {
	t.Helper()
	resp, err := app.Test(upload(t, filename, nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	return resp
}

func TestMetricsEndpoint(t *testing.T) {
	app := setupTestApp(func([]byte) (models.Document, error) { return sampleDoc(), nil })

	resp, err := app.Test(upload(t, "statement.pdf", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/metrics", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	text := string(body)
	assert.Contains(t, text, `statement_documents_total{outcome="ok"} 1`)
	assert.Contains(t, text, `statement_transactions_total{direction="charge"} 1`)
	assert.Contains(t, text, `statement_transactions_total{direction="deposit"} 1`)
	assert.Contains(t, text, "statement_pages_total 1")
	assert.Contains(t, text, "statement_extraction_seconds_count 1")
}
