// Package gqlupload implements the GraphQL multipart request convention used for
// mutations that carry file uploads: an "operations" part with the query and
// variables, a "map" part tying each file part to a variable path, and one
// binary part per file.
package gqlupload

import (
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// Part names
const (
	OperationsField = "operations"
	MapField        = "map"
)

// Operation is a GraphQL query and its variables
type Operation struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

// File is an upload bound to one slot of a list variable
type File struct {
	Name        string
	ContentType string
	Content     io.Reader
}

// Path returns the variable path of slot index of the list variable name
func Path(variable string, index int) string {
	return fmt.Sprintf("variables.%s.%d", variable, index)
}

// Encode writes a multipart body for op with files bound to the list variable.
// File slots in the variables are written as null placeholders and each file
// part is named after its variable path. The map is always written and is an
// empty object when there are no files. It returns the body content type.
func Encode(w io.Writer, op Operation, variable string, files []File) (string, error) {
	vars := make(map[string]any, len(op.Variables)+1)
	for k, v := range op.Variables {
		vars[k] = v
	}
	vars[variable] = make([]any, len(files))

	operations, err := json.Marshal(Operation{Query: op.Query, Variables: vars})
	if err != nil {
		return "", fmt.Errorf("failed to marshal operations: %w", err)
	}

	fileMap := make(map[string][]string, len(files))
	for i := range files {
		fileMap[strconv.Itoa(i)] = []string{Path(variable, i)}
	}
	mapJSON, err := json.Marshal(fileMap)
	if err != nil {
		return "", fmt.Errorf("failed to marshal map: %w", err)
	}

	mw := multipart.NewWriter(w)
	if err := mw.WriteField(OperationsField, string(operations)); err != nil {
		return "", fmt.Errorf("failed to write operations part: %w", err)
	}
	if err := mw.WriteField(MapField, string(mapJSON)); err != nil {
		return "", fmt.Errorf("failed to write map part: %w", err)
	}

	for i, f := range files {
		part, err := mw.CreatePart(fileHeader(Path(variable, i), f))
		if err != nil {
			return "", fmt.Errorf("failed to create part for %q: %w", f.Name, err)
		}
		if _, err := io.Copy(part, f.Content); err != nil {
			return "", fmt.Errorf("failed to write part for %q: %w", f.Name, err)
		}
	}

	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("failed to close multipart body: %w", err)
	}
	return mw.FormDataContentType(), nil
}

func fileHeader(field string, f File) textproto.MIMEHeader {
	contentType := f.ContentType
	if contentType == "" {
		contentType = mime.TypeByExtension(filepath.Ext(f.Name))
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", mime.FormatMediaType("form-data", map[string]string{
		"name":     field,
		"filename": f.Name,
	}))
	h.Set("Content-Type", contentType)
	return h
}

// Upload is a decoded file part
type Upload struct {
	Path        string
	Filename    string
	ContentType string
	Data        []byte
}

// Request is a decoded multipart GraphQL request
type Request struct {
	Query     string
	Variables json.RawMessage
	// Uploads are keyed by variable path, e.g. "variables.files.0"
	Uploads map[string]Upload
}

// Bind unmarshals the request variables into v
func (r *Request) Bind(v any) error {
	if len(r.Variables) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Variables, v); err != nil {
		return fmt.Errorf("failed to parse variables: %w", err)
	}
	return nil
}

// Files returns the uploads bound to the list variable, in slot order
func (r *Request) Files(variable string) []Upload {
	prefix := "variables." + variable + "."
	type indexed struct {
		index  int
		upload Upload
	}
	var found []indexed
	for path, u := range r.Uploads {
		if !strings.HasPrefix(path, prefix) {
			continue
		}
		i, err := strconv.Atoi(strings.TrimPrefix(path, prefix))
		if err != nil {
			continue
		}
		found = append(found, indexed{i, u})
	}
	sort.Slice(found, func(a, b int) bool { return found[a].index < found[b].index })

	out := make([]Upload, len(found))
	for i, f := range found {
		out[i] = f.upload
	}
	return out
}

// IsMultipart reports whether r carries a multipart body
func IsMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "multipart/form-data"
}

// Decode parses a multipart GraphQL request. A file part may be named either
// after its map key or after its variable path.
func Decode(r *http.Request, maxMemory int64) (*Request, error) {
	if err := r.ParseMultipartForm(maxMemory); err != nil {
		return nil, fmt.Errorf("failed to parse multipart body: %w", err)
	}
	form := r.MultipartForm

	ops := form.Value[OperationsField]
	if len(ops) == 0 {
		return nil, fmt.Errorf("missing %s part", OperationsField)
	}
	var op struct {
		Query     string          `json:"query"`
		Variables json.RawMessage `json:"variables"`
	}
	if err := json.Unmarshal([]byte(ops[0]), &op); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", OperationsField, err)
	}

	req := &Request{
		Query:     op.Query,
		Variables: op.Variables,
		Uploads:   make(map[string]Upload),
	}

	maps := form.Value[MapField]
	if len(maps) == 0 {
		return req, nil
	}
	var fileMap map[string][]string
	if err := json.Unmarshal([]byte(maps[0]), &fileMap); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", MapField, err)
	}

	for key, paths := range fileMap {
		for _, path := range paths {
			headers := form.File[key]
			if len(headers) == 0 {
				headers = form.File[path]
			}
			if len(headers) == 0 {
				return nil, fmt.Errorf("missing file part for %s", path)
			}

			data, err := readPart(headers[0])
			if err != nil {
				return nil, err
			}
			req.Uploads[path] = Upload{
				Path:        path,
				Filename:    headers[0].Filename,
				ContentType: headers[0].Header.Get("Content-Type"),
				Data:        data,
			}
		}
	}

	return req, nil
}

func readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open file part %q: %w", fh.Filename, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read file part %q: %w", fh.Filename, err)
	}
	return data, nil
}
