package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fida-id/fida-extractor/internal/config"
	"github.com/fida-id/fida-extractor/internal/idcard"
)

type fakeParser struct {
	result   *idcard.Result
	err      error
	received []byte
}

func (f *fakeParser) Parse(_ context.Context, data []byte) (*idcard.Result, error) {
	f.received = data
	return f.result, f.err
}

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Mode = config.ModeStdio
	cfg.MaxFileSize = 1024
	return cfg
}

func callRequest(args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: args,
		},
	}
}

func writePDF(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "card.pdf")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestNewServer(t *testing.T) {
	_, err := NewServer(nil, &fakeParser{}, nil)
	assert.Error(t, err)

	_, err = NewServer(testConfig(), nil, nil)
	assert.Error(t, err)

	cfg := testConfig()
	s, err := NewServer(cfg, &fakeParser{}, nil)
	require.NoError(t, err)
	assert.Same(t, cfg, s.config)
	assert.NotNil(t, s.mcpServer)
	assert.NotNil(t, s.validator)
}

func TestHandleParseIDCard(t *testing.T) {
	payload := idcard.ParseQR("DLT:TYPE:NAME:V1:A:B:C:D:FCN1:D:19900101:SIGN:sig")
	parser := &fakeParser{result: &idcard.Result{
		Record: idcard.IdentityRecord{
			FullName: idcard.Bilingual{Amharic: "አበበ", English: "Abebe"},
			FAN:      "1234567890123456",
		},
		QR: &payload,
	}}
	s, err := NewServer(testConfig(), parser, nil)
	require.NoError(t, err)

	path := writePDF(t, "%PDF-1.4 card")
	result, err := s.handleParseIDCard(context.Background(), callRequest(map[string]interface{}{"path": path}))
	require.NoError(t, err)
	require.False(t, result.IsError, extractTextFromResult(result))
	assert.Equal(t, []byte("%PDF-1.4 card"), parser.received)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(extractTextFromResult(result)), &decoded))
	assert.Equal(t, "1234567890123456", decoded["FAN"])
	assert.Equal(t, map[string]any{"amharic": "አበበ", "english": "Abebe"}, decoded["fullName"])

	qr, ok := decoded["qr"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "FCN1", qr["fcn"])
	assert.Equal(t, "NAME", qr["full_name"])
}

func TestHandleParseIDCard_WithoutQR(t *testing.T) {
	parser := &fakeParser{result: &idcard.Result{}}
	s, err := NewServer(testConfig(), parser, nil)
	require.NoError(t, err)

	result, err := s.handleParseIDCard(context.Background(),
		callRequest(map[string]interface{}{"path": writePDF(t, "%PDF-1.4")}))
	require.NoError(t, err)
	require.False(t, result.IsError)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(extractTextFromResult(result)), &decoded))
	assert.NotContains(t, decoded, "qr")
	assert.Contains(t, decoded, "personelImage")
}

func TestHandleParseIDCard_Errors(t *testing.T) {
	tempDir := t.TempDir()
	textFile := filepath.Join(tempDir, "notes.txt")
	require.NoError(t, os.WriteFile(textFile, []byte("hello"), 0o644))

	tests := []struct {
		name    string
		args    map[string]interface{}
		parser  *fakeParser
		wantErr string
	}{
		{name: "missing path", args: map[string]interface{}{}, parser: &fakeParser{}, wantErr: "path"},
		{name: "missing file", args: map[string]interface{}{"path": filepath.Join(tempDir, "x.pdf")}, parser: &fakeParser{}, wantErr: "does not exist"},
		{name: "not a pdf", args: map[string]interface{}{"path": textFile}, parser: &fakeParser{}, wantErr: "not a PDF"},
		{
			name:    "parser failure",
			args:    map[string]interface{}{"path": writePDF(t, "%PDF-1.4")},
			parser:  &fakeParser{err: errors.New("document open failed")},
			wantErr: "document open failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewServer(testConfig(), tt.parser, nil)
			require.NoError(t, err)

			result, err := s.handleParseIDCard(context.Background(), callRequest(tt.args))
			require.NoError(t, err)
			assert.True(t, result.IsError)
			assert.Contains(t, extractTextFromResult(result), tt.wantErr)
		})
	}
}

func TestHandleGregorianToEthiopian(t *testing.T) {
	s, err := NewServer(testConfig(), &fakeParser{}, nil)
	require.NoError(t, err)

	result, err := s.handleGregorianToEthiopian(context.Background(),
		callRequest(map[string]interface{}{"date": "2023/09/12"}))
	require.NoError(t, err)
	assert.False(t, result.IsError)
	assert.Equal(t, "2016/01/02", extractTextFromResult(result))

	result, err = s.handleGregorianToEthiopian(context.Background(),
		callRequest(map[string]interface{}{"date": "2023/02/30"}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, extractTextFromResult(result), "invalid Gregorian date")

	result, err = s.handleGregorianToEthiopian(context.Background(), callRequest(map[string]interface{}{}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestEncodeResponse(t *testing.T) {
	text, err := encodeResponse(map[string]string{"name": "<Abebe> & ቤት"})
	require.NoError(t, err)
	assert.Contains(t, text, "<Abebe> & ቤት")
}

// Helper function to extract text from a CallToolResult
func extractTextFromResult(result *mcp.CallToolResult) string {
	if result == nil || len(result.Content) == 0 {
		return ""
	}

	for _, content := range result.Content {
		if textContent, ok := content.(mcp.TextContent); ok {
			return textContent.Text
		}
		if textContentPtr, ok := content.(*mcp.TextContent); ok {
			return textContentPtr.Text
		}
	}

	return ""
}

func TestHandleParseIDCard_DocumentRoot(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "card.pdf"), []byte("%PDF-1.4 inside"), 0o644))
	outside := writePDF(t, "%PDF-1.4 outside")

	cfg := testConfig()
	cfg.DocumentRoot = root
	parser := &fakeParser{result: &idcard.Result{}}
	s, err := NewServer(cfg, parser, nil)
	require.NoError(t, err)

	result, err := s.handleParseIDCard(context.Background(), callRequest(map[string]interface{}{"path": "card.pdf"}))
	require.NoError(t, err)
	require.False(t, result.IsError, extractTextFromResult(result))
	assert.Equal(t, []byte("%PDF-1.4 inside"), parser.received)

	result, err = s.handleParseIDCard(context.Background(), callRequest(map[string]interface{}{"path": outside}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, extractTextFromResult(result), "outside the document root")
}
