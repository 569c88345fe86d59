package fuzztests

import "testing"

const maxFuzzInput = 16 << 10

var scriptSeeds = []string{
	"",
	"[[script]]\nname = \"s\"\nbody = { kind = \"unit\" }\n",
	`[[script]]
name = "members"
body = { kind = "name", name = "x" }
  [[script.decl]]
  kind = "val"
  name = "x"
  type = "Int"
  init = { kind = "int", value = "1" }
  [[script.decl]]
  kind = "fun"
  name = "f"
  type = "String"
  body = "expr"
  body_expr = { kind = "string", value = "a" }
  [[script.decl]]
  kind = "fun"
  name = "g"
  body = "block"
`,
	`[[script]]
name = "exprbody"
body = { kind = "call", name = "h" }
  [[script.decl]]
  kind = "fun"
  name = "h"
  body = "expr"
  body_expr = { kind = "int", value = "5" }
`,
	`[[script]]
name = "blocks"
body = { kind = "block", stmts = [{ kind = "call", name = "g" }], tail = { kind = "name", name = "v" } }
  [[script.decl]]
  kind = "var"
  name = "v"
  type = "Widget"
  modifiers = ["private", "override", "abstract"]
  [[script.decl]]
  kind = "fun"
  name = "g"
  body = "none"
  [[script.decl]]
  kind = "fun"
  name = "g"
  type = "Long"
  body = "block"
`,
}

func addScriptSeeds(f *testing.F) {
	for _, s := range scriptSeeds {
		f.Add([]byte(s))
	}
}

func clampSeed(input []byte) []byte {
	if len(input) > maxFuzzInput {
		return append([]byte(nil), input[:maxFuzzInput]...)
	}
	return append([]byte(nil), input...)
}
