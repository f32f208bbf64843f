package devserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
)

// rootFieldPattern finds the first field inside the outermost selection set
var rootFieldPattern = regexp.MustCompile(`^[^{]*\{\s*([_A-Za-z][_0-9A-Za-z]*)`)

// rootField returns the name of the first root field of query.
// Only the shape the WFH clients send is understood; this is not a GraphQL parser.
func rootField(query string) (string, error) {
	m := rootFieldPattern.FindStringSubmatch(query)
	if m == nil {
		return "", fmt.Errorf("no operation found in query")
	}
	return m[1], nil
}

// operation is a decoded JSON GraphQL request
type operation struct {
	Name      string
	Variables json.RawMessage
}

func (o *operation) bind(v any) error {
	if len(o.Variables) == 0 {
		return nil
	}
	if err := json.Unmarshal(o.Variables, v); err != nil {
		return fmt.Errorf("invalid variables: %w", err)
	}
	return nil
}

func (h *Handler) readOperation(w http.ResponseWriter, r *http.Request) (*operation, error) {
	var body struct {
		Query     string          `json:"query"`
		Variables json.RawMessage `json:"variables"`
	}
	if err := h.readJSON(w, r, &body); err != nil {
		return nil, fmt.Errorf("invalid request body: %w", err)
	}
	name, err := rootField(body.Query)
	if err != nil {
		return nil, err
	}
	return &operation{Name: name, Variables: body.Variables}, nil
}

type resolver func(w http.ResponseWriter, r *http.Request, op *operation)

// dispatch runs the resolver registered for the operation's root field
func (h *Handler) dispatch(w http.ResponseWriter, r *http.Request, resolvers map[string]resolver) {
	op, err := h.readOperation(w, r)
	if err != nil {
		h.writeJSON(w, r, http.StatusBadRequest, gqlResponse{Errors: []gqlError{{Message: err.Error()}}})
		return
	}

	resolve, ok := resolvers[op.Name]
	if !ok {
		h.writeError(w, r, http.StatusBadRequest, op.Name, fmt.Sprintf("unknown operation %q", op.Name))
		return
	}
	resolve(w, r, op)
}

// bindVariables decodes and validates op's variables, answering with an error when they are unusable
func (h *Handler) bindVariables(w http.ResponseWriter, r *http.Request, op *operation, v any) bool {
	if err := op.bind(v); err != nil {
		h.writeError(w, r, http.StatusBadRequest, op.Name, err.Error())
		return false
	}
	if err := h.validate.Struct(v); err != nil {
		h.writeError(w, r, http.StatusBadRequest, op.Name, h.validationMessage(err))
		return false
	}
	return true
}
