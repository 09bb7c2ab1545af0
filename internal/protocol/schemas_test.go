package protocol_test

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

func TestSchemas_ValidateSamples(t *testing.T) {
	compile := func(name string) *jsonschema.Schema {
		t.Helper()
		p := filepath.Join("..", "..", "schemas", name)
		s, err := jsonschema.Compile(p)
		if err != nil {
			t.Fatalf("compile %s: %v", name, err)
		}
		return s
	}

	validate := func(s *jsonschema.Schema, v any) {
		t.Helper()
		if err := s.Validate(v); err != nil {
			t.Fatalf("validate: %v", err)
		}
	}

	helloSchema := compile("hello.schema.json")
	welcomeSchema := compile("welcome.schema.json")
	pathSchema := compile("path.schema.json")
	editSchema := compile("edit.schema.json")
	resultSchema := compile("result.schema.json")
	errSchema := compile("error.schema.json")

	var hello any
	_ = json.Unmarshal([]byte(`{
	  "type":"HELLO",
	  "protocol_version":"1.0",
	  "client_name":"bot1",
	  "capabilities":{"max_queue":8}
	}`), &hello)
	validate(helloSchema, hello)

	var welcome any
	_ = json.Unmarshal([]byte(`{
	  "type":"WELCOME",
	  "protocol_version":"1.0",
	  "session_id":"6f1c8f3e-0000-0000-0000-000000000000",
	  "grid":{"rows":10,"cols":10,"revision":3,"blocked_cells":[5,15,25]}
	}`), &welcome)
	validate(welcomeSchema, welcome)

	var path any
	_ = json.Unmarshal([]byte(`{
	  "type":"PATH",
	  "protocol_version":"1.0",
	  "id":"q1",
	  "start_x":0,"start_y":5,"messy_y":true,
	  "dest_x":9,"dest_y":5,
	  "revision":3
	}`), &path)
	validate(pathSchema, path)

	var edit any
	_ = json.Unmarshal([]byte(`{
	  "type":"EDIT",
	  "protocol_version":"1.0",
	  "id":"e1",
	  "cell_id":42,
	  "blocked":true
	}`), &edit)
	validate(editSchema, edit)

	var result any
	_ = json.Unmarshal([]byte(`{
	  "type":"RESULT",
	  "id":"q1",
	  "revision":3,
	  "found":true,
	  "waypoints":[[0,5],[4,9],[6,9],[9,5]],
	  "distance":12.656854
	}`), &result)
	validate(resultSchema, result)

	var errMsg any
	_ = json.Unmarshal([]byte(`{
	  "type":"ERR",
	  "id":"q2",
	  "code":"E_MESSY_SPAN",
	  "message":"messy span leaves the grid"
	}`), &errMsg)
	validate(errSchema, errMsg)
}
