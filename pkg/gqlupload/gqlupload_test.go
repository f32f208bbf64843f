package gqlupload

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type part struct {
	name     string
	filename string
	body     string
}

func readParts(t *testing.T, contentType string, body []byte) []part {
	t.Helper()
	_, params, err := mime.ParseMediaType(contentType)
	require.NoError(t, err)

	mr := multipart.NewReader(bytes.NewReader(body), params["boundary"])
	var parts []part
	for {
		p, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		data, err := io.ReadAll(p)
		require.NoError(t, err)
		parts = append(parts, part{name: p.FormName(), filename: p.FileName(), body: string(data)})
	}
	return parts
}

func testFiles(n int) []File {
	files := make([]File, n)
	for i := range files {
		files[i] = File{
			Name:    fmt.Sprintf("doc%d.txt", i),
			Content: strings.NewReader(fmt.Sprintf("content %d", i)),
		}
	}
	return files
}

func TestEncode_PartsPerFile(t *testing.T) {
	for _, n := range []int{0, 1, 3} {
		t.Run(fmt.Sprintf("%d files", n), func(t *testing.T) {
			var buf bytes.Buffer
			op := Operation{Query: "mutation m { m }", Variables: map[string]any{"staffId": 1}}

			contentType, err := Encode(&buf, op, "files", testFiles(n))
			require.NoError(t, err)

			parts := readParts(t, contentType, buf.Bytes())
			require.Len(t, parts, n+2)
			assert.Equal(t, OperationsField, parts[0].name)
			assert.Equal(t, MapField, parts[1].name)

			var fileMap map[string][]string
			require.NoError(t, json.Unmarshal([]byte(parts[1].body), &fileMap))
			assert.Len(t, fileMap, n)

			binaryParts := 0
			for i, p := range parts[2:] {
				binaryParts++
				assert.Equal(t, fmt.Sprintf("variables.files.%d", i), p.name)
				assert.Equal(t, fmt.Sprintf("doc%d.txt", i), p.filename)
				assert.Equal(t, fmt.Sprintf("content %d", i), p.body)
				assert.Equal(t, []string{p.name}, fileMap[fmt.Sprint(i)])
			}
			assert.Equal(t, n, binaryParts)
		})
	}
}

func TestEncode_FileSlotsAreNullPlaceholders(t *testing.T) {
	var buf bytes.Buffer
	op := Operation{Query: "q", Variables: map[string]any{"reason": "Childcare"}}

	contentType, err := Encode(&buf, op, "files", testFiles(2))
	require.NoError(t, err)

	parts := readParts(t, contentType, buf.Bytes())
	var decoded struct {
		Query     string         `json:"query"`
		Variables map[string]any `json:"variables"`
	}
	require.NoError(t, json.Unmarshal([]byte(parts[0].body), &decoded))

	assert.Equal(t, "q", decoded.Query)
	assert.Equal(t, "Childcare", decoded.Variables["reason"])
	assert.Equal(t, []any{nil, nil}, decoded.Variables["files"])
	assert.NotContains(t, op.Variables, "files", "caller variables are not mutated")
}

func TestEncode_EmptyMapWithoutFiles(t *testing.T) {
	var buf bytes.Buffer
	contentType, err := Encode(&buf, Operation{Query: "q"}, "files", nil)
	require.NoError(t, err)

	parts := readParts(t, contentType, buf.Bytes())
	require.Len(t, parts, 2)
	assert.JSONEq(t, `{}`, parts[1].body)
	assert.Contains(t, parts[0].body, `"files":[]`)
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	op := Operation{
		Query: "mutation createRequest { createRequest { success message } }",
		Variables: map[string]any{
			"staffId": 140001,
			"type":    "AM",
			"date":    []string{"2024-09-01", "2024-09-02"},
		},
	}
	files := []File{
		{Name: "mc.pdf", Content: strings.NewReader("%PDF-1.4")},
		{Name: "note.txt", ContentType: "text/plain", Content: strings.NewReader("hello")},
	}

	contentType, err := Encode(&buf, op, "files", files)
	require.NoError(t, err)

	r := httptest.NewRequest("POST", "/requests", &buf)
	r.Header.Set("Content-Type", contentType)
	require.True(t, IsMultipart(r))

	req, err := Decode(r, 1<<20)
	require.NoError(t, err)
	assert.Equal(t, op.Query, req.Query)

	var vars struct {
		StaffID int      `json:"staffId"`
		Type    string   `json:"type"`
		Date    []string `json:"date"`
	}
	require.NoError(t, req.Bind(&vars))
	assert.Equal(t, 140001, vars.StaffID)
	assert.Equal(t, []string{"2024-09-01", "2024-09-02"}, vars.Date)

	uploads := req.Files("files")
	require.Len(t, uploads, 2)
	assert.Equal(t, "mc.pdf", uploads[0].Filename)
	assert.Equal(t, "application/pdf", uploads[0].ContentType)
	assert.Equal(t, []byte("%PDF-1.4"), uploads[0].Data)
	assert.Equal(t, "note.txt", uploads[1].Filename)
	assert.Equal(t, "text/plain", uploads[1].ContentType)
}

func TestDecode_AcceptsPartsNamedByMapKey(t *testing.T) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("operations", `{"query":"q","variables":{"files":[null]}}`))
	require.NoError(t, mw.WriteField("map", `{"0":["variables.files.0"]}`))
	fw, err := mw.CreateFormFile("0", "a.txt")
	require.NoError(t, err)
	_, err = fw.Write([]byte("abc"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	r := httptest.NewRequest("POST", "/requests", &buf)
	r.Header.Set("Content-Type", mw.FormDataContentType())

	req, err := Decode(r, 1<<20)
	require.NoError(t, err)
	require.Len(t, req.Files("files"), 1)
	assert.Equal(t, []byte("abc"), req.Files("files")[0].Data)
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name    string
		fields  map[string]string
		wantErr string
	}{
		{"missing operations", map[string]string{"map": "{}"}, "missing operations"},
		{"bad operations", map[string]string{"operations": "{"}, "failed to parse operations"},
		{"bad map", map[string]string{"operations": `{"query":"q"}`, "map": "["}, "failed to parse map"},
		{"missing file part", map[string]string{"operations": `{"query":"q"}`, "map": `{"0":["variables.files.0"]}`}, "missing file part"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			mw := multipart.NewWriter(&buf)
			for _, k := range []string{"operations", "map"} {
				if v, ok := tt.fields[k]; ok {
					require.NoError(t, mw.WriteField(k, v))
				}
			}
			require.NoError(t, mw.Close())

			r := httptest.NewRequest("POST", "/requests", &buf)
			r.Header.Set("Content-Type", mw.FormDataContentType())

			_, err := Decode(r, 1<<20)
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
